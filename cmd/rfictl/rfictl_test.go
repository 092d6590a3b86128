package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"answerpath-backend/internal/bootstrap"
	"answerpath-backend/internal/documents"
	"answerpath-backend/internal/shared/config"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)
	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func withApp(t *testing.T) *bootstrap.App {
	t.Helper()
	app, err := bootstrap.Build(config.Config{
		Env:             "dev",
		ObjectStoreType: "local",
		LocalStoreDir:   t.TempDir(),
		LLMProvider:     "none",
		QueueBackend:    "channel",
	})
	if err != nil {
		t.Fatalf("build app: %v", err)
	}

	prev := buildApp
	buildApp = func() (*bootstrap.App, error) { return app, nil }
	t.Cleanup(func() { buildApp = prev })
	return app
}

func TestChunksCommandPreviewsTextFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rfi.txt")
	if err := os.WriteFile(path, []byte("Page one question?\fPage two question?"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	out, err := execute(t, "chunks", path, "--size", "100", "--overlap", "10")
	if err != nil {
		t.Fatalf("chunks: %v", err)
	}
	for _, want := range []string{"rfi.txt: 2 segments, 2 chunks", "[0] position=1 runes=0-18", "[1] position=2 runes=0-18"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestChunksCommandRejectsUnknownExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.md")
	if err := os.WriteFile(path, []byte("x"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err := execute(t, "chunks", path)
	if !errors.Is(err, documents.ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
}

func TestProcessCommandReportsOutcome(t *testing.T) {
	app := withApp(t)
	err := app.DocumentsRepo.Create(context.Background(), documents.Document{
		ID:          "doc-1",
		UserID:      "u",
		StoragePath: "missing/key.txt",
		FileType:    documents.FileTypeTXT,
		Status:      documents.StatusPending,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	out, err := execute(t, "process", "doc-1")
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if !strings.Contains(out, "Document doc-1: failed") {
		t.Fatalf("unexpected output:\n%s", out)
	}

	out, err = execute(t, "process", "doc-1")
	if err != nil {
		t.Fatalf("second process: %v", err)
	}
	if !strings.Contains(out, "use --force") {
		t.Fatalf("expected skip hint, got:\n%s", out)
	}
}

func TestEnqueueCommandNeedsSQS(t *testing.T) {
	withApp(t)
	if _, err := execute(t, "enqueue", "doc-1"); err == nil {
		t.Fatalf("expected enqueue to need the sqs backend")
	}
}
