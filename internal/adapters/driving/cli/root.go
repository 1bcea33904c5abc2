// Package cli implements the postmetrics command line.
//
// Commands read and write through the driving ports only. Services are
// package variables wired once in the root command's pre-run hook, so
// tests can substitute their own before executing a command.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/postmetrics/internal/adapters/driven/config/file"
	"github.com/custodia-labs/postmetrics/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/postmetrics/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/postmetrics/internal/adapters/driven/upload/delimited"
	"github.com/custodia-labs/postmetrics/internal/core/ports/driven"
	"github.com/custodia-labs/postmetrics/internal/core/ports/driving"
	"github.com/custodia-labs/postmetrics/internal/core/services"
	"github.com/custodia-labs/postmetrics/internal/formats"
	"github.com/custodia-labs/postmetrics/internal/logger"
	"github.com/custodia-labs/postmetrics/internal/metrics"
)

// HomeEnv overrides the per-user directory holding config and data.
const HomeEnv = "POSTMETRICS_HOME"

// annotationNoServices marks commands that run without wired services.
const annotationNoServices = "postmetrics.io/no-services"

// version is set at build time with -ldflags "-X ...cli.version=v1.2.3".
var version = "dev"

var (
	verbose     bool
	memoryStore bool
)

// Services used by commands. Nil until wired.
var (
	ingestService    driving.IngestService
	queryService     driving.QueryService
	analyticsService driving.AnalyticsService
	settingsService  driving.SettingsService
	metricsCollector *metrics.Collector

	closeStore func() error
)

var rootCmd = &cobra.Command{
	Use:   "postmetrics",
	Short: "Ingest and query social media analytics exports",
	Long: `postmetrics ingests CSV exports from social platforms, folds them into
one deduplicated store of posts and serves them through a cached query
layer to the CLI, an HTTP API, an MCP server and a terminal dashboard.

Recognised exports: native postmetrics CSV, Instagram post exports and
Facebook video pivot exports. Anything else is read as generic CSV.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug output")
	rootCmd.PersistentFlags().BoolVar(&memoryStore, "memory", false, "use an in-memory store (nothing is persisted)")
}

// Execute runs the root command until it returns or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer closeServices()

	return rootCmd.ExecuteContext(ctx)
}

func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if _, skip := cmd.Annotations[annotationNoServices]; skip {
		return nil
	}
	if settingsService != nil {
		return nil
	}
	return wireServices()
}

// homeDir returns the postmetrics directory, honouring HomeEnv.
func homeDir() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, file.DirName), nil
}

// wireServices builds the process-wide services. There is exactly one
// QueryService so every reader shares the cache the ingest pipeline
// invalidates.
func wireServices() error {
	home, err := homeDir()
	if err != nil {
		return err
	}

	configStore, err := file.NewConfigStore(home)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	settings := services.NewSettingsService(configStore)
	cfg := settings.Pipeline()

	var store driven.RecordStore
	if memoryStore {
		logger.Debug("Using in-memory record store")
		store = memory.NewRecordStore()
	} else {
		dataDir := cfg.DataDir
		if dataDir == "" {
			dataDir = filepath.Join(home, "data")
		}
		db, err := sqlite.NewStore(dataDir)
		if err != nil {
			return fmt.Errorf("opening record store: %w", err)
		}
		logger.Debug("Record store at %s", db.Path())
		store = db.RecordStore()
		closeStore = db.Close
	}

	registry, err := formats.NewDefaultRegistry()
	if err != nil {
		closeServices()
		return fmt.Errorf("loading export layouts: %w", err)
	}

	collector := metrics.NewCollector(version)
	query := services.NewQueryService(store, cfg, collector)
	analytics := services.NewAnalyticsService(query)
	ingest, err := services.NewIngestService(store, registry, delimited.NewParser(0), query, cfg,
		services.WithObserver(collector),
		services.WithRecomputeHooks(services.NewSummaryWarmer(analytics)),
	)
	if err != nil {
		closeServices()
		return fmt.Errorf("creating ingest pipeline: %w", err)
	}

	settingsService = settings
	queryService = query
	analyticsService = analytics
	ingestService = ingest
	metricsCollector = collector
	return nil
}

func closeServices() {
	if closeStore == nil {
		return
	}
	if err := closeStore(); err != nil {
		logger.Warn("Closing record store: %v", err)
	}
	closeStore = nil
}

// errNotConfigured reports a service the command needs but nothing wired.
func errNotConfigured(name string) error {
	return errors.New(name + " service not configured")
}
