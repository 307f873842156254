package main

import (
	"context"
	"errors"
	"os"
	"time"

	"budgetbook/internal/amqp"
	"budgetbook/internal/cache"
	"budgetbook/internal/cli"
	"budgetbook/internal/log"
	"budgetbook/internal/services"
	"budgetbook/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"), log.ComponentWorker)
	startupLog := logger.WithFields(log.NewFields().WithOperation(log.OpStartup))
	startupLog.Info("Starting recurring-worker")

	cfg := cli.LoadAndValidateConfig(startupLog)
	logger = cli.SetupLogger(cfg.LogLevel, cfg.LogFormat, log.ComponentWorker)
	ruleSet := cli.LoadRules(logger, cfg.RulesFile)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, cfg.AMQPResultQueue)
	if err != nil {
		logger.WithFields(log.NewFields().WithComponent(log.ComponentAMQP).WithError(err)).
			Error("Failed to initialize AMQP client")
		os.Exit(1)
	}

	predictor := services.NewPredictor(ruleSet, cli.PredictorOptions(cfg))
	seen := cache.NewLRUCache[time.Time](cfg.DedupCacheSize, cfg.DedupCacheTTL)
	predictWorker := worker.NewPredictWorker(ruleSet, predictor, amqpClient, seen, cfg.PredictTimeout)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		if err := amqpClient.Close(); err != nil {
			logger.Warn("Failed to close AMQP client", log.FieldError, err)
		}
	})

	go cache.NewJanitor(seen).Run(ctx, cfg.DedupCacheTTL)

	logger.Info("Recurring transaction predictor configured",
		log.FieldQueue, cfg.AMQPQueue,
		"result_queue", cfg.AMQPResultQueue,
		"workers", cfg.PredictWorkers,
		"timeout", cfg.PredictTimeout)

	consumeErr := make(chan error, 1)
	go func() {
		consumeErr <- amqpClient.ConsumeBatches(ctx, predictWorker.HandleBatch)
	}()

	select {
	case err := <-consumeErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", log.FieldError, err)
			amqpClient.Close()
			os.Exit(1)
		}
	case <-ctx.Done():
	}

	cli.WaitForShutdown(ctx, done)
}
