package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"answerpath-backend/internal/pipeline"
	"answerpath-backend/internal/queue"
)

var processCmd = &cobra.Command{
	Use:   "process [document-id]",
	Short: "Run the pipeline for one document in this process",
	Long:  `Extracts, chunks and questions a stored document inline. Interrupting the run finalizes the document as partially succeeded.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runProcess,
}

var enqueueCmd = &cobra.Command{
	Use:   "enqueue [document-id]",
	Short: "Dispatch a processing job for a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runEnqueue,
}

var (
	processForce bool
	enqueueForce bool
)

func init() {
	processCmd.Flags().BoolVarP(&processForce, "force", "f", false, "Process even if the document already finished")
	enqueueCmd.Flags().BoolVarP(&enqueueForce, "force", "f", false, "Ask the worker to process even if the document already finished")
	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(enqueueCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	app, err := buildApp()
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	defer func() { _ = app.Close() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = queue.WithRequestID(ctx, "rfictl")

	var opts []pipeline.Option
	if processForce {
		opts = append(opts, pipeline.Force())
	}
	res, err := app.Processor.ProcessDocument(ctx, args[0], opts...)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if res.Skipped {
		fmt.Fprintf(out, "Document %s already %s; use --force to run again\n", res.DocumentID, res.State)
		return nil
	}
	fmt.Fprintf(out, "Document %s: %s\n", res.DocumentID, res.State)
	fmt.Fprintf(out, "  Chunks:    %d (%d failed)\n", res.Chunks, res.FailedChunks)
	fmt.Fprintf(out, "  Questions: %d new\n", res.Questions)
	if res.Cancelled {
		fmt.Fprintln(out, "  Cancelled before all chunks ran")
	}
	for _, f := range res.Failures {
		fmt.Fprintf(out, "  - chunk %d (%s): %v\n", f.Index, f.Kind, f.Err)
	}
	return nil
}

func runEnqueue(cmd *cobra.Command, args []string) error {
	app, err := buildApp()
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	defer func() { _ = app.Close() }()

	if app.Channel != nil {
		return errors.New("enqueue needs the sqs queue backend; use process to run inline")
	}
	if _, err := app.DocumentsRepo.GetByID(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("load document %s: %w", args[0], err)
	}

	msg := queue.NewMessage(args[0], "rfictl")
	msg.Force = enqueueForce
	if err := app.Queue.Send(cmd.Context(), msg); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Enqueued document %s\n", args[0])
	return nil
}
