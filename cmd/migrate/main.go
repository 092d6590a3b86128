package main

// Run database migrations:
//   go run ./cmd/migrate            # apply pending migrations
//   go run ./cmd/migrate status     # list applied and pending migrations
//   go run ./cmd/migrate down       # roll back the latest migration

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"answerpath-backend/internal/shared/config"
	"answerpath-backend/internal/shared/storage/db"
	"answerpath-backend/internal/shared/telemetry"
)

func main() {
	cfg := config.Load()
	telemetry.Init(telemetry.Options{Env: cfg.Env, LogFile: cfg.LogFile})
	defer func() { _ = telemetry.Sync() }()

	command := "up"
	var args []string
	if len(os.Args) > 1 {
		command, args = os.Args[1], os.Args[2:]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultMigrateOptions()))
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer sqlDB.Close()

	if err := db.Migrate(ctx, sqlDB, command, args...); err != nil {
		log.Printf("migrate: %v", err)
		_ = sqlDB.Close()
		os.Exit(1)
	}
}
