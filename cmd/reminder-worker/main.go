package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"billfold/internal/cli"
	"billfold/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("Starting reminder-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	processor := services.NewReminderProcessor(repo)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scheduler := cron.New()
	_, err := scheduler.AddFunc(cfg.ReminderCronSpec, func() {
		runCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		count, err := processor.ProcessUpcoming(runCtx, time.Now())
		if err != nil {
			logger.Error("Reminder scan failed", "error", err)
			return
		}
		logger.Info("Reminder scan finished", "reminders", count)
	})
	if err != nil {
		logger.Error("Invalid reminder cron spec", "spec", cfg.ReminderCronSpec, "error", err)
		os.Exit(1)
	}

	scheduler.Start()
	logger.Info("Reminder schedule active", "spec", cfg.ReminderCronSpec)

	<-ctx.Done()
	logger.Info("Shutdown signal received")

	// Let an in-flight scan finish before exiting.
	stopCtx := scheduler.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(30 * time.Second):
		logger.Warn("Shutdown timeout reached")
	}

	logger.Info("Reminder-worker shutdown complete")
}
