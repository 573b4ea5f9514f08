package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	httpadapter "github.com/couchcryptid/noise-data-etl/internal/adapter/http"
	"github.com/couchcryptid/noise-data-etl/internal/adapter/sheetcsv"
	"github.com/couchcryptid/noise-data-etl/internal/aggregate"
	"github.com/couchcryptid/noise-data-etl/internal/config"
	"github.com/couchcryptid/noise-data-etl/internal/domain"
	"github.com/couchcryptid/noise-data-etl/internal/observability"
	"github.com/couchcryptid/noise-data-etl/internal/pipeline"
	"github.com/couchcryptid/noise-data-etl/internal/store"
	"github.com/couchcryptid/noise-data-etl/internal/store/memory"
	"github.com/couchcryptid/noise-data-etl/internal/store/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()
	loc := domain.FixedZone(cfg.LocalUTCOffset)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var st store.Store
	if cfg.DryRun {
		logger.Info("dry-run: using in-memory store")
		st = memory.New()
	} else {
		pg, err := postgres.Open(ctx, cfg.DatabaseURL, loc)
		if err != nil {
			logger.Error("failed to open store", "error", err)
			os.Exit(1)
		}
		st = pg
	}
	defer st.Close()

	files, err := listInputFiles(cfg.InputDir)
	if err != nil {
		logger.Error("failed to list input files", "dir", cfg.InputDir, "error", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		logger.Warn("no input files found", "dir", cfg.InputDir)
	}

	p := pipeline.New(st, sheetcsv.New(), aggregate.New(loc), logger, metrics, loc, cfg.DryRun)

	srv := httpadapter.NewServer(cfg.HTTPAddr, st, st, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	sum, runErr := p.Run(ctx, files)
	logger.Info("run finished",
		"files", len(files),
		"processed", sum.Processed,
		"skipped", sum.Skipped,
		"failed", sum.Failed,
	)
	if runErr != nil {
		logger.Error("run aborted", "error", runErr)
	}

	// Keep serving queries and metrics until interrupted.
	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
	if runErr != nil || sum.Failed > 0 {
		os.Exit(1)
	}
}

// listInputFiles returns the CSV sheet exports under dir, sorted by name so
// runs are deterministic.
func listInputFiles(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
