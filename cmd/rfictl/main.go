package main

import (
	"os"

	"answerpath-backend/internal/shared/telemetry"
)

func main() {
	code := 0
	if err := rootCmd.Execute(); err != nil {
		code = 1
	}
	_ = telemetry.Sync()
	os.Exit(code)
}
