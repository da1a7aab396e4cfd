// Package main is a minimal CLI surface over the analytics core: it wires
// the same DataFetcher/ModuleRegistry/Dispatcher stack as cmd/server
// in-process and exposes one subcommand, "dispatch", for invoking any
// registered capability from a terminal or a script.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quantcore/analytics-core/internal/archive"
	"github.com/quantcore/analytics-core/internal/config"
	"github.com/quantcore/analytics-core/internal/core/backtest"
	"github.com/quantcore/analytics-core/internal/core/datafetcher"
	"github.com/quantcore/analytics-core/internal/core/datafetcher/providers"
	"github.com/quantcore/analytics-core/internal/core/dispatcher"
	"github.com/quantcore/analytics-core/internal/core/papertrader"
	"github.com/quantcore/analytics-core/internal/core/rating"
	"github.com/quantcore/analytics-core/internal/database"
	"github.com/quantcore/analytics-core/internal/wiring"
	"github.com/quantcore/analytics-core/pkg/logger"
)

func main() {
	var paramsJSON string
	var clientRequestID string

	root := &cobra.Command{
		Use:   "corectl",
		Short: "Dispatch analytics core capabilities from the command line",
	}

	dispatchCmd := &cobra.Command{
		Use:   "dispatch <module_id> <capability_id>",
		Short: "Run one (module_id, capability_id) capability and print its Result as JSON",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			params := map[string]any{}
			if paramsJSON != "" {
				if err := json.Unmarshal([]byte(paramsJSON), &params); err != nil {
					return fmt.Errorf("parsing --params: %w", err)
				}
			}

			d, cleanup, err := build()
			if err != nil {
				return err
			}
			defer cleanup()

			result := d.Dispatch(context.Background(), dispatcher.Request{
				ModuleID:        args[0],
				CapabilityID:    args[1],
				Params:          params,
				ClientRequestID: clientRequestID,
			})

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(result); err != nil {
				return err
			}
			if !result.OK {
				os.Exit(1)
			}
			return nil
		},
	}
	dispatchCmd.Flags().StringVar(&paramsJSON, "params", "", "JSON object of capability parameters")
	dispatchCmd.Flags().StringVar(&clientRequestID, "client-request-id", "", "idempotence key for write capabilities")

	root.AddCommand(dispatchCmd)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func build() (*dispatcher.Dispatcher, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: true})

	cache := datafetcher.NewCache(10000)
	limiters := datafetcher.NewLimiterSet(cfg.RateLimitDefaultRPS, int(cfg.RateLimitDefaultRPS)+1)
	for provider, rps := range cfg.RateLimitOverrides {
		limiters.Configure(provider, rps)
	}
	fetcher := datafetcher.New(
		[]datafetcher.Provider{providers.NewStooqProvider(log)},
		cache, limiters,
		datafetcher.Config{MaxAttempts: cfg.RetryMaxAttempts, BackoffBaseMS: cfg.RetryBackoffBaseMS},
		log,
	)

	dataDir := os.Getenv("CORE_DATA_DIR")
	if dataDir == "" {
		dataDir = "./data"
	}
	db, err := database.New(database.Config{Path: dataDir + "/papertrader.db", Profile: database.ProfileStandard, Name: "papertrader"})
	if err != nil {
		return nil, nil, err
	}

	store := papertrader.NewStore(db.Conn(), log)
	if err := store.Init(context.Background()); err != nil {
		db.Close()
		return nil, nil, err
	}

	var archiveStore *archive.Store
	if bucket := os.Getenv("CORE_ARCHIVE_BUCKET"); bucket != "" {
		archiveStore, err = archive.NewStore(context.Background(), bucket, os.Getenv("CORE_ARCHIVE_REGION"), os.Getenv("CORE_ARCHIVE_ENDPOINT"), log)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
	}

	reg := wiring.Build(wiring.Deps{
		Fetcher:     fetcher,
		Rating:      rating.New(fetcher, log),
		PaperTrader: store,
		BacktestReg: backtest.NewRegistry(),
		Archive:     archiveStore,
		Log:         log,
	})

	d := dispatcher.New(reg, int64(cfg.DispatcherWorkerPoolSize), log)
	return d, func() { db.Close() }, nil
}
