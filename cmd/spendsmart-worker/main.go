package main

import (
	"context"
	"os"
	"time"

	"spendsmart/internal/amqp"
	"spendsmart/internal/cli"
	"spendsmart/internal/config"
	"spendsmart/internal/log"
	"spendsmart/internal/storage/sqlite"
	"spendsmart/internal/worker"
)

const (
	dialAttempts  = 10
	statsInterval = time.Minute
)

func main() {
	cli.LoadEnvFile()

	cfg := config.Load()
	logger := cli.SetupLogger(cfg)
	if err := cfg.ValidateWorker(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	ctx, cancel := cli.ShutdownContext(context.Background(), logger)
	defer cancel()

	if err := run(ctx, logger, cfg); err != nil {
		logger.Error("Worker exited with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}

func run(ctx context.Context, logger *log.Logger, cfg *config.Config) error {
	repo, err := sqlite.NewRepository(cfg.ReplicaDBPath)
	if err != nil {
		return err
	}
	defer repo.Close()

	client, err := amqp.DialWithRetry(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, dialAttempts, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	replica := worker.NewReplica(repo, cfg.StorageKey, logger)
	logger.Info("Starting replica worker",
		"path", cfg.ReplicaDBPath, "queue", cfg.AMQPQueue,
		log.FieldCount, len(replica.Records(ctx)), log.FieldOperation, log.OpStartup)

	go func() {
		ticker := time.NewTicker(statsInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				applied, skipped := replica.Stats()
				logger.Info("Replica stats", "applied", applied, "skipped", skipped)
			}
		}
	}()

	return replica.Run(ctx, client)
}
