package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"

	"github.com/MimeLyc/chunked-task-runner/internal/config"
	"github.com/MimeLyc/chunked-task-runner/internal/persistence"
	"github.com/MimeLyc/chunked-task-runner/internal/service"
	"github.com/MimeLyc/chunked-task-runner/pkg/log"
)

func main() {
	// Initialize configuration
	cfg, err := config.New()
	if err != nil {
		log.Fatal("Failed to load configuration: %v", err)
	}

	if cfg.Log.File != "" {
		fileLogger, err := log.NewFileLogger(cfg.Log.File, log.ParseLevel(cfg.Log.Level))
		if err != nil {
			log.Fatal("Failed to open log file: %v", err)
		}
		defer fileLogger.Close()
		log.SetLogger(fileLogger.Logger)
	} else {
		log.InitLogger(log.ParseLevel(cfg.Log.Level))
	}

	store, err := persistence.NewSQLiteStore(cfg.Storage.DBPath())
	if err != nil {
		log.Fatal("Failed to open run history store: %v", err)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc := service.NewWorkService(*cfg, cron.New(), store)
	if err := svc.Schedule(ctx); err != nil {
		log.Fatal("Failed to schedule runs: %v", err)
	}

	// Cancel the in-flight run as soon as a termination signal arrives so
	// its partial progress gets recorded.
	go func() {
		<-ctx.Done()
		log.Info("Termination signal received, stopping current run")
		svc.Shutdown()
	}()

	if cfg.Schedule.RunOnStart {
		if _, err := svc.RunOnce(ctx, "startup"); err != nil && !errors.Is(err, service.ErrShuttingDown) {
			log.Error("Startup run failed: %v", err)
		}
	}

	<-ctx.Done()
	svc.Shutdown()
	log.Info("Shutdown complete")
}
