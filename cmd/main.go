package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	app "github.com/okian/relisten/internal/app"
	"github.com/okian/relisten/internal/config"
	"github.com/okian/relisten/internal/export"
	"github.com/okian/relisten/internal/ingest"
	"github.com/okian/relisten/pkg/logger"
	"github.com/okian/relisten/pkg/metrics"
)

// HTTP server timeout constants for the optional metrics listener.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env).
	cfg, err := config.Load(ctx)
	if err != nil {
		log.Error(ctx, "failed to load config", logger.Error(err))
		return err
	}

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	loc, err := time.LoadLocation(cfg.LocalTimezone)
	if err != nil {
		log.Error(ctx, "invalid local_timezone", logger.String("local_timezone", cfg.LocalTimezone), logger.Error(err))
		return err
	}

	engine := app.New(
		app.WithLogger(log.Named("engine")),
		app.WithTopN(cfg.PlaylistTopN),
		app.WithSessionGap(time.Duration(cfg.SessionGapMinutes)*time.Minute),
		app.WithLocation(loc),
		app.WithHashLength(cfg.IdentityHashLength),
	)

	reader := ingest.NewReader(cfg.InputDir, ingest.WithLogger(log.Named("ingest")))
	batch, err := reader.Load(ctx)
	if err != nil {
		log.Error(ctx, "failed to load input snapshot", logger.Error(err))
		metrics.RecordRunFailed()
		return err
	}

	snap, err := engine.Run(ctx, batch)
	if err != nil {
		log.Error(ctx, "reconciliation run failed", logger.Error(err))
		return err
	}

	// Publish the fact table for downstream consumers. The writer renames a
	// temp file into place, so a failure here leaves any previous table
	// untouched.
	if err := export.WriteFactsCSV(cfg.OutputPath, snap, cfg.PlaylistTopN); err != nil {
		log.Error(ctx, "failed to write fact table", logger.Error(err))
		metrics.RecordRunFailed()
		return err
	}
	log.Info(ctx, "fact table published",
		logger.String("path", cfg.OutputPath),
		logger.Int("rows", len(snap.Facts)),
	)

	if cfg.PlaylistOutputPath != "" {
		if err := export.WritePlaylistsCSV(cfg.PlaylistOutputPath, snap); err != nil {
			log.Error(ctx, "failed to write playlist dimension", logger.Error(err))
			metrics.RecordRunFailed()
			return err
		}
		log.Info(ctx, "playlist dimension published",
			logger.String("path", cfg.PlaylistOutputPath),
			logger.Int("rows", len(snap.Playlists)),
		)
	}

	// Optionally expose the run's metrics until interrupted, so a scraper
	// can collect final counters from this batch invocation.
	if cfg.MetricsAddr != "" {
		serveMetrics(ctx, log, cfg.MetricsAddr)
	}
	return nil
}

// serveMetrics serves the custom registry on /metrics until the context is
// cancelled.
func serveMetrics(ctx context.Context, log logger.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "serving metrics", logger.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(ctx, "metrics server failed", logger.Error(err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "metrics server shutdown failed", logger.Error(err))
	}
}
