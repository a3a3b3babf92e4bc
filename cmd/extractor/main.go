package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joseph-ayodele/invoice-extract/constants"
	"github.com/joseph-ayodele/invoice-extract/internal/config"
	"github.com/joseph-ayodele/invoice-extract/internal/encoder"
	"github.com/joseph-ayodele/invoice-extract/internal/export"
	"github.com/joseph-ayodele/invoice-extract/internal/extraction"
	"github.com/joseph-ayodele/invoice-extract/internal/fetch"
	"github.com/joseph-ayodele/invoice-extract/internal/history"
	"github.com/joseph-ayodele/invoice-extract/internal/metrics"
	"github.com/joseph-ayodele/invoice-extract/internal/state"
	"github.com/joseph-ayodele/invoice-extract/internal/view"
)

const (
	exitFulfilled = 0
	exitRejected  = 1
	exitUsage     = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("extractor", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to a YAML config file")
	xlsxPath := fs.String("xlsx", "", "write the extracted tables to this XLSX file")
	fs.Usage = func() {
		_, _ = fmt.Fprintln(stderr, "usage: extractor [-config file.yaml] [-xlsx out.xlsx] <file>")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return exitUsage
	}
	path := fs.Arg(0)

	cfg, err := config.Load(*configPath)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		_, _ = fmt.Fprintln(stderr, "config:", err)
		return exitUsage
	}

	logger := newLogger(cfg.Log, stderr)
	slog.SetDefault(logger)

	if _, ok := constants.MimeForExt(filepath.Ext(path)); !ok {
		logger.Error("unsupported file type", "file", path, "allowed", "pdf, jpg, jpeg, csv, xlsx")
		return exitUsage
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var storeOpts []state.Option
	if cfg.Backend.DiscardStale {
		storeOpts = append(storeOpts, state.WithStaleFencing())
	}
	store := state.NewStore(logger, storeOpts...)

	for _, v := range view.All(store) {
		unmount := v.Mount(stdout, func(err error) {
			logger.Error("render failed", "error", err)
		})
		defer unmount()
	}

	var collector *metrics.Collector
	if cfg.Metrics.Textfile != "" {
		collector = metrics.NewCollector()
		defer collector.Attach(store)()
	}

	if cfg.History.DSN != "" {
		db, err := history.Open(ctx, history.Config{DSN: cfg.History.DSN, DialTimeout: 3 * time.Second}, logger)
		if err != nil {
			logger.Error("failed to open history database", "error", err)
			return exitUsage
		}
		defer db.Close()

		recorder := history.NewRecorder(history.NewRepository(db), history.RecorderConfig{
			Workers:      cfg.History.Workers,
			QueueSize:    cfg.History.QueueSize,
			WriteTimeout: cfg.History.WriteTimeout,
		}, logger)
		recorder.Attach(store)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.History.WriteTimeout)
			defer cancel()
			recorder.Close(shutdownCtx)
		}()
	}

	client, err := extraction.NewClient(extraction.Config{
		BaseURL: cfg.Backend.BaseURL,
		Path:    cfg.Backend.Path,
		Timeout: cfg.Backend.Timeout,
		Lenient: cfg.Backend.Lenient,
	}, logger)
	if err != nil {
		logger.Error("failed to build extraction client", "error", err)
		return exitUsage
	}
	logger.Info("extraction backend", "endpoint", client.Endpoint(), "lenient", cfg.Backend.Lenient)

	coord := fetch.NewCoordinator(logger, store, encoder.New(logger), client)
	final := coord.Submit(ctx, encoder.NewPathFile(path))

	if collector != nil {
		defer func() {
			if err := collector.WriteTextfile(cfg.Metrics.Textfile); err != nil {
				logger.Error("failed to write metrics textfile", "path", cfg.Metrics.Textfile, "error", err)
			}
		}()
	}

	if final.Status != state.Fulfilled {
		if final.Error != nil {
			logger.Error("extraction rejected", "kind", final.Error.Kind, "message", final.Error.Message, "detail", final.Error.Detail)
		}
		return exitRejected
	}

	if *xlsxPath != "" {
		data, err := export.NewService(logger).ExtractionXLSX(*final.Result)
		if err == nil {
			err = os.WriteFile(*xlsxPath, data, 0o644)
		}
		if err != nil {
			logger.Error("failed to write xlsx", "path", *xlsxPath, "error", err)
			return exitRejected
		}
		logger.Info("xlsx written", "path", *xlsxPath)
	}
	return exitFulfilled
}

// newLogger builds a slog handler on w. Text output drops the time attribute.
func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	opts.ReplaceAttr = func(_ []string, a slog.Attr) slog.Attr {
		if a.Key == slog.TimeKey {
			return slog.Attr{}
		}
		return a
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
