// Package main is the entry point for the analytics core's HTTP server: it
// wires the DataFetcher, ModuleRegistry, Dispatcher, the persistent
// PaperTrader store, and the cron-driven Scheduler into one process, then
// serves /api/{module}/{capability} until told to stop.
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantcore/analytics-core/internal/archive"
	"github.com/quantcore/analytics-core/internal/config"
	"github.com/quantcore/analytics-core/internal/core/backtest"
	"github.com/quantcore/analytics-core/internal/core/datafetcher"
	"github.com/quantcore/analytics-core/internal/core/datafetcher/providers"
	"github.com/quantcore/analytics-core/internal/core/dispatcher"
	"github.com/quantcore/analytics-core/internal/core/papertrader"
	"github.com/quantcore/analytics-core/internal/core/rating"
	"github.com/quantcore/analytics-core/internal/database"
	"github.com/quantcore/analytics-core/internal/scheduler"
	"github.com/quantcore/analytics-core/internal/server"
	"github.com/quantcore/analytics-core/internal/wiring"
	"github.com/quantcore/analytics-core/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: os.Getenv("CORE_DEV_MODE") != ""})
	log.Info().Msg("starting analytics core")

	fetcher := buildFetcher(cfg, log)

	db, err := database.New(database.Config{
		Path:    filepath.Join(dataDir(), "papertrader.db"),
		Profile: database.ProfileStandard,
		Name:    "papertrader",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open paper trader database")
	}
	defer db.Close()

	store := papertrader.NewStore(db.Conn(), log)
	initCtx, cancelInit := context.WithTimeout(context.Background(), 10*time.Second)
	if err := store.Init(initCtx); err != nil {
		cancelInit()
		log.Fatal().Err(err).Msg("failed to initialize paper trader schema")
	}
	cancelInit()

	ratingEngine := rating.New(fetcher, log)
	archiveStore := buildArchiveStore(log)

	reg := wiring.Build(wiring.Deps{
		Fetcher:     fetcher,
		Rating:      ratingEngine,
		PaperTrader: store,
		BacktestReg: backtest.NewRegistry(),
		Archive:     archiveStore,
		Log:         log,
	})

	d := dispatcher.New(reg, int64(cfg.DispatcherWorkerPoolSize), log)

	srv := server.New(server.Config{
		Log:        log,
		Dispatcher: d,
		Port:       cfg.Port,
		DevMode:    os.Getenv("CORE_DEV_MODE") != "",
	})

	sched := scheduler.New(d, log)
	registerScheduledJobs(sched, log)
	sched.Start()

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil {
			serverErrCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutdown requested")
	case err := <-serverErrCh:
		log.Error().Err(err).Msg("http server exited unexpectedly")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sched.Stop(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}
	log.Info().Msg("shutdown complete")
}

func buildFetcher(cfg *config.Config, log zerolog.Logger) *datafetcher.Fetcher {
	providerChain := []datafetcher.Provider{
		providers.NewStooqProvider(log),
	}

	cache := datafetcher.NewCache(10000)
	limiters := datafetcher.NewLimiterSet(cfg.RateLimitDefaultRPS, int(cfg.RateLimitDefaultRPS)+1)
	for provider, rps := range cfg.RateLimitOverrides {
		limiters.Configure(provider, rps)
	}

	return datafetcher.New(providerChain, cache, limiters, datafetcher.Config{
		MaxAttempts:   cfg.RetryMaxAttempts,
		BackoffBaseMS: cfg.RetryBackoffBaseMS,
	}, log)
}

// buildArchiveStore wires the optional S3-compatible cold-storage export for
// backtest runs and paper-trader equity snapshots. Archival is off by
// default; a deployment opts in by setting CORE_ARCHIVE_BUCKET. A nil return
// is a valid *archive.Store and every archival call becomes a no-op.
func buildArchiveStore(log zerolog.Logger) *archive.Store {
	bucket := os.Getenv("CORE_ARCHIVE_BUCKET")
	if bucket == "" {
		return nil
	}
	store, err := archive.NewStore(context.Background(), bucket, os.Getenv("CORE_ARCHIVE_REGION"), os.Getenv("CORE_ARCHIVE_ENDPOINT"), log)
	if err != nil {
		log.Warn().Err(err).Msg("failed to initialize archive store, archival disabled")
		return nil
	}
	return store
}

// registerScheduledJobs installs the default cache-refresh cadence. A
// deployment-specific universe feed replaces the empty params map with the
// tracked ticker list.
func registerScheduledJobs(sched *scheduler.Scheduler, log zerolog.Logger) {
	if err := sched.Register(scheduler.Job{
		Name:         "daily_cache_refresh",
		Schedule:     "0 0 6 * * *",
		ModuleID:     "composite_rating",
		CapabilityID: "rate",
		Params:       map[string]any{},
	}); err != nil {
		log.Warn().Err(err).Msg("failed to register daily_cache_refresh job")
	}
}

func dataDir() string {
	dir := os.Getenv("CORE_DATA_DIR")
	if dir == "" {
		dir = "./data"
	}
	return dir
}
