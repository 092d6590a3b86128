package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port            string
	CORSAllowOrigin []string
	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string
	SSEKMSKeyID     string
	DatabaseURL     string
	AutoMigrate     bool
	Env             string
	LogFile         string

	LLMProvider          string
	LLMAPIKey            string
	LLMModel             string
	LLMTemperature       float64
	LLMTimeout           time.Duration
	LLMRequestsPerSecond float64

	ChunkSize    int
	ChunkOverlap int
	RetryPolicy  string

	QueueBackend string
	SQSQueueURL  string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}

	queueURL := strings.TrimSpace(os.Getenv("RA_SQS_QUEUE_URL"))

	return Config{
		Port:            getEnv("PORT", "8080"),
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000")),
		ObjectStoreType: normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:   getEnv("LOCAL_STORE_DIR", "./uploads"),
		AWSRegion:       getEnv("AWS_REGION", ""),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3Prefix:        getEnv("S3_PREFIX", ""),
		SSEKMSKeyID:     getEnv("SSE_KMS_KEY_ID", ""),
		DatabaseURL:     dbURL,
		AutoMigrate:     getEnvBool("DB_AUTO_MIGRATE", false),
		Env:             env,
		LogFile:         getEnv("LOG_FILE", ""),

		LLMProvider:          getEnv("LLM_PROVIDER", "openai"),
		LLMAPIKey:            os.Getenv("OPENAI_API_KEY"),
		LLMModel:             getEnv("LLM_MODEL", "gpt-4"),
		LLMTemperature:       getEnvFloat("LLM_TEMPERATURE", 0),
		LLMTimeout:           time.Duration(getEnvInt("LLM_TIMEOUT_SECONDS", 60)) * time.Second,
		LLMRequestsPerSecond: getEnvFloat("LLM_REQUESTS_PER_SECOND", 2),

		ChunkSize:    getEnvInt("CHUNK_SIZE", 1000),
		ChunkOverlap: getEnvInt("CHUNK_OVERLAP", 200),
		RetryPolicy:  normalizeRetryPolicy(getEnv("RETRY_POLICY", "dedup")),

		QueueBackend: normalizeQueueBackend(getEnv("QUEUE_BACKEND", ""), queueURL),
		SQSQueueURL:  queueURL,
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("config: %s invalid int %q, using %d", key, raw, def)
		return def
	}
	return val
}

func getEnvBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseBool(raw)
	if err != nil {
		log.Printf("config: %s=%q is not a bool; using %v", key, raw, def)
		return def
	}
	return val
}

func getEnvFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Printf("config: %s invalid float %q, using %v", key, raw, def)
		return def
	}
	return val
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

// IsDevLike reports whether env is a developer environment, where missing
// infrastructure and anonymous callers fall back to local defaults. Every
// other value, including unrecognized ones, is treated as deployed.
func IsDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}

func normalizeRetryPolicy(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "replace":
		return "replace"
	default:
		return "dedup"
	}
}

// normalizeQueueBackend picks sqs when a queue URL is configured and no
// backend was requested explicitly.
func normalizeQueueBackend(raw, queueURL string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "sqs":
		return "sqs"
	case "channel", "memory":
		return "channel"
	}
	if queueURL != "" {
		return "sqs"
	}
	return "channel"
}
