package bootstrap

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"answerpath-backend/internal/documents"
	"answerpath-backend/internal/shared/config"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		Env:                  "dev",
		ObjectStoreType:      "local",
		LocalStoreDir:        t.TempDir(),
		LLMProvider:          "none",
		LLMRequestsPerSecond: 0,
		ChunkSize:            1000,
		ChunkOverlap:         200,
		RetryPolicy:          "dedup",
		QueueBackend:         "channel",
	}
}

func TestBuildUsesInMemoryStackInDev(t *testing.T) {
	app, err := Build(testConfig(t))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(func() { _ = app.Close() })

	if app.DB != nil {
		t.Fatalf("expected no database in dev without DATABASE_URL")
	}
	if _, ok := app.DocumentsRepo.(*documents.MemoryRepo); !ok {
		t.Fatalf("expected memory documents repo, got %T", app.DocumentsRepo)
	}
	if app.Channel == nil || app.Queue == nil {
		t.Fatalf("expected channel queue")
	}
	if app.Router == nil || app.Processor == nil {
		t.Fatalf("expected router and processor")
	}
	if err := app.Ready(context.Background()); err != nil {
		t.Fatalf("ready: %v", err)
	}
}

func TestBuildRequiresDatabaseOutsideDev(t *testing.T) {
	cfg := testConfig(t)
	cfg.Env = "production"
	if _, err := Build(cfg); err == nil {
		t.Fatalf("expected error without DATABASE_URL in production")
	}
}

func TestBuildRejectsUnknownProvider(t *testing.T) {
	cfg := testConfig(t)
	cfg.LLMProvider = "mystery"
	if _, err := Build(cfg); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}

func TestUploadIsProcessedByInProcessWorker(t *testing.T) {
	app, err := Build(testConfig(t))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(func() { _ = app.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = app.RunInProcessWorker(ctx) }()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "rfi.txt")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	_, _ = part.Write([]byte("Do you support SSO?\n"))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		ID     string `json:"documentId"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "pending" {
		t.Fatalf("expected pending on upload, got %q", resp.Status)
	}

	// The placeholder model is unavailable, so the single chunk fails and
	// the document ends up failed.
	deadline := time.Now().Add(2 * time.Second)
	for {
		doc, err := app.DocumentsRepo.GetByID(context.Background(), resp.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if doc.Status.Terminal() {
			if doc.Status != documents.StatusFailed {
				t.Fatalf("expected failed, got %s", doc.Status)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("document still %s after deadline", doc.Status)
		}
		time.Sleep(10 * time.Millisecond)
	}
}
