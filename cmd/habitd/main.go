package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/goodtune/habitd/internal/clock"
	"github.com/goodtune/habitd/internal/config"
	"github.com/goodtune/habitd/internal/habit"
	"github.com/goodtune/habitd/internal/labels"
	"github.com/goodtune/habitd/internal/metrics"
	"github.com/goodtune/habitd/internal/storage"
	"github.com/goodtune/habitd/internal/storage/bolt"
	"github.com/goodtune/habitd/internal/storage/cache"
	"github.com/goodtune/habitd/internal/storage/memory"
	"github.com/goodtune/habitd/internal/storage/redis"
	"github.com/goodtune/habitd/internal/storage/sqlite"
	"github.com/goodtune/habitd/internal/tracker"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const pushTimeout = 5 * time.Second

func main() {
	Execute()
}

// app bundles what every command needs once configuration is loaded.
type app struct {
	cfg     *config.Config
	logger  zerolog.Logger
	store   storage.Store
	tracker *tracker.Tracker
	labels  *labels.Table
	opts    appOptions
}

type appOptions struct {
	// cached wraps the store in the in-process habit cache. Processes that
	// outlive a single command leave it off, since another habitd process
	// may change the store underneath them.
	cached bool
	// push sends activity counters to the configured Pushgateway on Close.
	push bool
}

// newApp prepares a short-lived command.
func newApp() (*app, error) {
	return loadApp(appOptions{cached: true, push: true})
}

func loadApp(opts appOptions) (*app, error) {
	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// Setup logger
	logger := setupLogger(cfg.Logging)
	log.Logger = logger

	table, err := labels.New(cfg.Labels.Units, cfg.Labels.Frequencies)
	if err != nil {
		return nil, fmt.Errorf("invalid labels configuration: %w", err)
	}

	// Initialize storage
	store, err := openStorage(cfg.Storage, opts.cached)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	logger.Debug().
		Str("type", cfg.Storage.Type).
		Bool("cached", opts.cached && cfg.Storage.CacheSize > 0).
		Msg("Storage initialized")

	engine := habit.NewEngine(clock.RealClock{}, logger)

	return &app{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		tracker: tracker.New(store.Habits(), engine, logger),
		labels:  table,
		opts:    opts,
	}, nil
}

func (a *app) Close() {
	if a.opts.push && a.cfg.Metrics.PushgatewayURL != "" {
		a.pushMetrics()
	}
	if err := a.store.Close(); err != nil {
		a.logger.Error().Err(err).Msg("Failed to close storage")
	}
}

// pushMetrics failures are logged only; the command itself already succeeded.
func (a *app) pushMetrics() {
	ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
	defer cancel()

	instance, err := os.Hostname()
	if err != nil || instance == "" {
		instance = "unknown"
	}
	if err := metrics.Push(ctx, a.cfg.Metrics.PushgatewayURL, instance); err != nil {
		a.logger.Warn().Err(err).Msg("Failed to push metrics")
		return
	}
	a.logger.Debug().Str("url", a.cfg.Metrics.PushgatewayURL).Msg("Pushed metrics")
}

func openStorage(cfg config.StorageConfig, cached bool) (storage.Store, error) {
	var (
		store storage.Store
		err   error
	)

	switch cfg.Type {
	case "bolt":
		store, err = bolt.Open(cfg.Path)
	case "sqlite":
		store, err = sqlite.Open(cfg.SQLitePath)
	case "redis":
		store, err = redis.Open(cfg.Redis)
	case "memory":
		store = memory.New()
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
	if err != nil {
		return nil, err
	}

	if cached && cfg.CacheSize > 0 {
		wrapped, err := cache.Wrap(store, cfg.CacheSize)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		return wrapped, nil
	}
	return store, nil
}

// setupLogger configures the logger based on configuration. Logs go to
// stderr so command output on stdout stays machine readable.
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	// Set log level
	level := zerolog.InfoLevel
	switch cfg.Level {
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	// Set output format
	if cfg.Format == "text" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}

	// Default to JSON
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}
