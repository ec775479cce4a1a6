// Package cli provides common CLI initialization utilities shared by
// cmd/spendsmart and cmd/spendsmart-report.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"spendsmart/internal/backend"
	"spendsmart/internal/config"
	"spendsmart/internal/log"
)

// SetupLogger builds the application logger from cfg and installs it as
// the slog default.
func SetupLogger(cfg *config.Config) *log.Logger {
	return SetupLoggerTo(cfg, os.Stdout)
}

// SetupLoggerTo is SetupLogger writing to out.
func SetupLoggerTo(cfg *config.Config, out io.Writer) *log.Logger {
	logCfg := log.DefaultConfig()
	logCfg.Output = out
	if cfg != nil {
		logCfg.Level = log.ParseLevel(cfg.LogLevel)
		logCfg.Format = cfg.LogFormat
	}
	logger := log.New(logCfg)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// OpenBackend builds the configured blob backend.
func OpenBackend(ctx context.Context, logger *log.Logger, cfg *config.Config, opts ...backend.FactoryOption) (*backend.BackendResult, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger, opts...).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("open %s backend: %w", bcfg.Type, err)
	}
	return res, nil
}

// ShutdownContext returns a context cancelled on SIGINT or SIGTERM. The
// received signal is logged once.
func ShutdownContext(parent context.Context, logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String(), log.FieldOperation, log.OpShutdown)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
