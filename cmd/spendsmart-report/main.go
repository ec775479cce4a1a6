package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/GiGurra/boa/pkg/boa"
	"golang.org/x/term"

	"spendsmart/internal/aggregate"
	"spendsmart/internal/cli"
	"spendsmart/internal/config"
	"spendsmart/internal/filter"
	"spendsmart/internal/log"
	"spendsmart/internal/records"
	"spendsmart/internal/report"
	"spendsmart/internal/services"
	"spendsmart/internal/storage/file"
)

type Params struct {
	Day    string `descr:"Only include expenses on this day (YYYY-MM-DD)" optional:"true"`
	Month  string `descr:"Only include expenses in this month (YYYY-MM)" optional:"true"`
	Format string `descr:"Output format (yml is accepted for yaml)" default:"table" alts:"table,json,yaml,xlsx" strict:"false"`
	Out    string `descr:"Write the report to this file instead of stdout (required for xlsx)" optional:"true"`
}

func newCommand(runFn func(params *Params) error) boa.CmdT[Params] {
	return boa.NewCmdT[Params]("spendsmart-report").
		WithShort("Print a spending report for the stored expenses").
		WithLong("Loads the configured expense store, applies the optional day and month filters and prints the records, the per-date series and the per-category breakdown as a table, JSON, YAML or an Excel workbook.").
		WithRunFuncE(runFn)
}

func main() {
	cmd := newCommand(func(params *Params) error {
		return run(context.Background(), params)
	})
	if err := cmd.RunE(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, params *Params) error {
	cli.LoadEnvFile()

	cfg := config.Load()
	// Logs go to stderr at warn level unless configured; stdout carries the report.
	if os.Getenv("LOG_LEVEL") == "" {
		cfg.LogLevel = "warn"
	}
	logger := cli.SetupLoggerTo(cfg, os.Stderr)
	if err := cfg.Validate(); err != nil {
		return err
	}

	format, err := report.ParseFormat(params.Format)
	if err != nil {
		return err
	}
	if format == report.FormatXLSX && params.Out == "" {
		return fmt.Errorf("--out is required for the %s format", format)
	}

	criteria, err := filter.ParseCriteria(params.Day, params.Month)
	if err != nil {
		return err
	}

	if cfg.DataBackend == config.BackendFile && cfg.EncryptionPassphrase == "" && file.IsEncryptedDir(cfg.DataDir) {
		pass, err := cli.PromptPassphrase("Passphrase: ")
		if err != nil {
			return err
		}
		cfg.EncryptionPassphrase = pass
	}

	res, err := cli.OpenBackend(ctx, logger, cfg)
	if err != nil {
		return err
	}

	store := records.New(ctx, res.Blob, records.WithKey(cfg.StorageKey), records.WithLogger(logger))
	svc := services.NewExpenseService(store,
		services.WithLogger(logger),
		services.WithAggregateOptions(aggregate.Options{DateLayout: cfg.DateLabelLayout}),
		services.WithCloser(res.Cleanup))
	defer svc.Close()

	v := svc.View(ctx, criteria)
	doc := report.NewDocument(v.Label, v.Filtered, v.Summary)
	opts := report.Options{Currency: cfg.CurrencySymbol}

	var w io.Writer = os.Stdout
	if params.Out != "" {
		f, err := os.Create(params.Out)
		if err != nil {
			return fmt.Errorf("create %s: %w", params.Out, err)
		}
		defer f.Close()
		w = f
	} else {
		opts.Color = term.IsTerminal(int(os.Stdout.Fd()))
	}

	if err := report.Write(w, format, doc, opts); err != nil {
		return err
	}
	if params.Out != "" {
		logger.Info("Report written", "path", params.Out, "format", string(format), log.FieldOperation, log.OpExport)
	}
	return nil
}
