// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/starford/biblioteca/internal/catalog"
	"github.com/starford/biblioteca/internal/journal"
	"github.com/starford/biblioteca/internal/mcpserver"
	"github.com/starford/biblioteca/internal/storage"
	"github.com/starford/biblioteca/internal/watcher"
)

// NewLogger returns the structured JSON logger used by every command.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

// OpenCatalog creates the data directory if needed and wires the store,
// the journal and the catalog service. The returned close func releases
// the journal.
func OpenCatalog(cfg *Config, logger *slog.Logger) (*catalog.Service, func() error, error) {
	if err := os.MkdirAll(cfg.Catalog.DataDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create data dir: %w", err)
	}
	store, err := storage.NewFS(cfg.Catalog.DataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("init storage: %w", err)
	}

	opts := []catalog.Option{
		catalog.WithLogger(logger),
		catalog.WithExportFile(cfg.Catalog.ExportFile),
	}
	closeFn := func() error { return nil }

	if cfg.Journal.Enabled() {
		if err := os.MkdirAll(filepath.Dir(cfg.Journal.Path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create journal dir: %w", err)
		}
		db, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("init journal: %w", err)
		}
		opts = append(opts, catalog.WithJournal(db))
		closeFn = db.Close
	} else {
		logger.Warn("journal disabled: interrupted moves cannot be recovered")
	}

	return catalog.NewService(store, opts...), closeFn, nil
}

// Run starts the long-running mode with the given options: the data
// directory watcher, the MCP stdio server, or both.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	if !app.watch && !app.mcp {
		return fmt.Errorf("nothing to run: enable the watcher or the MCP server")
	}

	cfg := app.config
	logger := app.logger
	if logger == nil {
		logger = NewLogger(os.Stderr, cfg.App.LogLevel)
	}

	logger.Info("Configuration loaded",
		slog.String("data_dir", cfg.Catalog.DataDir),
		slog.String("journal_path", cfg.Journal.Path),
		slog.String("log_level", cfg.App.LogLevel.String()),
		slog.Bool("watch", app.watch),
		slog.Bool("mcp", app.mcp))

	svc, closeCatalog, err := OpenCatalog(cfg, logger)
	if err != nil {
		return err
	}
	defer closeCatalog()

	// Settle moves left pending by an earlier crash before serving anything.
	report, err := svc.RecoverMoves(ctx)
	if err != nil {
		logger.Warn("move recovery failed", slog.String("error", err.Error()))
	} else if !report.Empty() {
		logger.Info("pending moves settled",
			slog.Int("resolved", len(report.Resolved)),
			slog.Int("restored", len(report.Restored)),
			slog.Int("stuck", len(report.Stuck)))
	}

	snap := svc.Rebuild(ctx)
	logger.Info("Catalog loaded", slog.Int("records", snap.Len()), slog.Int("failures", len(snap.Failures)))

	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	g, gCtx := errgroup.WithContext(runCtx)

	if app.watch {
		g.Go(func() error {
			return watcher.Watch(gCtx, cfg.Catalog.DataDir, cfg.Watch.Debounce, logger, func(ctx context.Context, changed []string) {
				logger.Info("External change detected", slog.Any("categories", changed))
				svc.Rebuild(ctx)
			})
		})
	}

	if app.mcp {
		g.Go(func() error {
			// The client closing stdin ends the session and the whole run.
			defer stop()
			logger.Info("Starting MCP stdio server")
			err := mcpserver.New(svc).ServeStdio(gCtx, app.stdin, app.stdout)
			if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) {
				return fmt.Errorf("MCP server error: %w", err)
			}
			return nil
		})
	}

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
			stop()
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Stopped successfully")
	return nil
}
