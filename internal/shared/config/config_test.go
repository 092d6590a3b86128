package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"CHUNK_SIZE", "CHUNK_OVERLAP", "LLM_TIMEOUT_SECONDS", "RETRY_POLICY", "QUEUE_BACKEND", "RA_SQS_QUEUE_URL", "LLM_MODEL", "DB_AUTO_MIGRATE"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.ChunkSize != 1000 || cfg.ChunkOverlap != 200 {
		t.Fatalf("unexpected chunk defaults: size=%d overlap=%d", cfg.ChunkSize, cfg.ChunkOverlap)
	}
	if cfg.LLMTimeout != 60*time.Second {
		t.Fatalf("expected 60s llm timeout, got %s", cfg.LLMTimeout)
	}
	if cfg.RetryPolicy != "dedup" {
		t.Fatalf("expected dedup retry policy, got %q", cfg.RetryPolicy)
	}
	if cfg.QueueBackend != "channel" {
		t.Fatalf("expected channel queue backend, got %q", cfg.QueueBackend)
	}
	if cfg.AutoMigrate {
		t.Fatalf("expected auto migrate off by default")
	}
	if cfg.LLMModel != "gpt-4" {
		t.Fatalf("expected gpt-4 default model, got %q", cfg.LLMModel)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CHUNK_SIZE", "500")
	t.Setenv("CHUNK_OVERLAP", "50")
	t.Setenv("LLM_TIMEOUT_SECONDS", "5")
	t.Setenv("RETRY_POLICY", "Replace")
	t.Setenv("QUEUE_BACKEND", "")
	t.Setenv("RA_SQS_QUEUE_URL", "https://sqs.example/queue")
	t.Setenv("DB_AUTO_MIGRATE", "true")

	cfg := Load()
	if !cfg.AutoMigrate {
		t.Fatalf("expected auto migrate enabled")
	}
	if cfg.ChunkSize != 500 || cfg.ChunkOverlap != 50 {
		t.Fatalf("unexpected chunk overrides: size=%d overlap=%d", cfg.ChunkSize, cfg.ChunkOverlap)
	}
	if cfg.LLMTimeout != 5*time.Second {
		t.Fatalf("expected 5s llm timeout, got %s", cfg.LLMTimeout)
	}
	if cfg.RetryPolicy != "replace" {
		t.Fatalf("expected replace retry policy, got %q", cfg.RetryPolicy)
	}
	if cfg.QueueBackend != "sqs" {
		t.Fatalf("expected sqs backend when queue url set, got %q", cfg.QueueBackend)
	}
}

func TestNormalizeEnv(t *testing.T) {
	tests := map[string]string{
		"prod":        "production",
		"PRODUCTION":  "production",
		"staging":     "staging",
		"development": "dev",
		"":            "dev",
		"local":       "local",
	}
	for in, want := range tests {
		if got := normalizeEnv(in); got != want {
			t.Fatalf("normalizeEnv(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIsDevLike(t *testing.T) {
	tests := map[string]bool{
		"dev":        true,
		"local":      true,
		" DEV ":      true,
		"production": false,
		"prod":       false,
		"prd":        false,
		"staging":    false,
		"":           false,
	}
	for in, want := range tests {
		if got := IsDevLike(in); got != want {
			t.Fatalf("IsDevLike(%q) = %v, want %v", in, got, want)
		}
	}
}
