package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"billfold/internal/amqp"
	"billfold/internal/cli"
	"billfold/internal/core"
	"billfold/internal/services"
	"billfold/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("Starting billfold-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	forecasts := services.NewForecastService(repo)
	extraBudget := core.Money{Cents: cfg.ExtraBudgetCents}
	forecastWorker := worker.NewForecastWorker(forecasts, extraBudget)

	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		amqpClient = client
		logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - forecasts refresh only on the periodic interval")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := forecastWorker.StartupRefresh(ctx); err != nil {
		logger.Error("Startup forecast refresh failed", "error", err)
		// Keep running; the periodic refresh will retry.
	}

	g, gctx := errgroup.WithContext(ctx)

	if amqpClient != nil {
		g.Go(func() error {
			return amqpClient.ConsumePaymentEvents(gctx, func(msg *amqp.PaymentAppliedMessage) error {
				return forecastWorker.HandlePaymentApplied(gctx, msg)
			})
		})
	}

	g.Go(func() error {
		return forecastWorker.RunPeriodicRefresh(gctx, cfg.ForecastRefreshInterval)
	})

	logger.Info("Worker running",
		"refresh_interval", cfg.ForecastRefreshInterval.String(),
		"extra_budget_cents", cfg.ExtraBudgetCents)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}

	logger.Info("Worker shutdown complete")
}
