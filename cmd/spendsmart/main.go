package main

import (
	"context"
	"os"

	"golang.org/x/sync/errgroup"

	"spendsmart/internal/aggregate"
	"spendsmart/internal/amqp"
	"spendsmart/internal/cache"
	"spendsmart/internal/cli"
	"spendsmart/internal/config"
	apphttp "spendsmart/internal/http"
	"spendsmart/internal/log"
	"spendsmart/internal/middleware/ratelimit"
	"spendsmart/internal/records"
	"spendsmart/internal/report"
	"spendsmart/internal/services"
)

// amqpDialAttempts bounds the startup retries before running without events.
const amqpDialAttempts = 5

func main() {
	cli.LoadEnvFile()

	cfg := config.Load()
	logger := cli.SetupLogger(cfg)
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	ctx, cancel := cli.ShutdownContext(context.Background(), logger)
	defer cancel()

	if err := run(ctx, logger, cfg); err != nil {
		logger.Error("Server exited with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(ctx context.Context, logger *log.Logger, cfg *config.Config) error {
	res, err := cli.OpenBackend(ctx, logger, cfg)
	if err != nil {
		return err
	}

	store := records.New(ctx, res.Blob,
		records.WithKey(cfg.StorageKey),
		records.WithLogger(logger))
	logger.Info("Expense store loaded",
		"backend", cfg.DataBackend, "records", store.Len(), log.FieldOperation, log.OpStartup)

	svcOpts := []services.Option{
		services.WithLogger(logger),
		services.WithAggregateOptions(aggregate.Options{DateLayout: cfg.DateLabelLayout}),
		services.WithCloser(res.Cleanup),
	}

	if cfg.AMQPURL != "" {
		client, err := amqp.DialWithRetry(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, amqpDialAttempts, logger)
		if err != nil {
			// Events are best effort; the API keeps working without a broker.
			logger.Warn("AMQP unavailable, expense events disabled", log.FieldError, err)
		} else {
			svcOpts = append(svcOpts, services.WithNotifier(client))
		}
	}

	if cfg.CacheEnabled {
		views := cache.NewLRUCache[string, services.View](cfg.CacheSize, cfg.CacheTTL)
		svcOpts = append(svcOpts, services.WithViewCache(views))

		cacheManager := cache.NewManager(logger)
		cacheManager.Register(views)
		cacheManager.Start(ctx, cfg.CacheTTL)
		defer cacheManager.Stop()
	}

	svc := services.NewExpenseService(store, svcOpts...)
	defer func() {
		if err := svc.Close(); err != nil {
			logger.Error("Failed to release resources", log.FieldError, err)
		}
	}()

	srvOpts := []apphttp.Option{
		apphttp.WithLogger(logger),
		apphttp.WithReadiness(res.Ready),
		apphttp.WithReportOptions(report.Options{Currency: cfg.CurrencySymbol}),
	}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.RateLimitPerMinute > 0 {
		limiter := ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute})
		srvOpts = append(srvOpts, apphttp.WithRateLimiter(limiter))
		g.Go(func() error {
			limiter.Run(gctx)
			return nil
		})
	}

	srv := apphttp.NewServer(":"+cfg.Port, svc, srvOpts...)
	g.Go(func() error {
		return srv.Run(gctx, cfg.ShutdownTimeout)
	})

	return g.Wait()
}
