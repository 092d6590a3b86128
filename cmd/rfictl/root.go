package main

import (
	"github.com/spf13/cobra"

	"answerpath-backend/internal/bootstrap"
	"answerpath-backend/internal/shared/config"
)

var rootCmd = &cobra.Command{
	Use:          "rfictl",
	Short:        "Operate the RFI document pipeline",
	Long:         `Run, dispatch and inspect question extraction for uploaded RFI documents.`,
	SilenceUsage: true,
}

// buildApp is swapped in tests.
var buildApp = func() (*bootstrap.App, error) {
	return bootstrap.Build(config.Load())
}
