// Package app provides the core application initialization and lifecycle management.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/law-makers/taxcert/internal/acquire"
	"github.com/law-makers/taxcert/internal/adapter"
	"github.com/law-makers/taxcert/internal/adapter/maricopa"
	"github.com/law-makers/taxcert/internal/adapter/maui"
	"github.com/law-makers/taxcert/internal/adapter/sanjuan"
	"github.com/law-makers/taxcert/internal/adapter/ohio"
	"github.com/law-makers/taxcert/internal/browser"
	"github.com/law-makers/taxcert/internal/config"
	"github.com/law-makers/taxcert/internal/directory"
	"github.com/law-makers/taxcert/internal/ratelimit"
	"github.com/law-makers/taxcert/internal/retry"
)

// Application holds all application dependencies and manages their lifecycle.
//
// It is created once at startup and shared across all CLI commands.
// Use Close() to ensure proper resource cleanup on shutdown.
type Application struct {
	Config    *config.Config
	Logger    *zerolog.Logger
	Registry  *adapter.Registry
	Directory directory.Directory
	Limiter   *ratelimit.HostLimiter
	Pipeline  *acquire.Pipeline
	engine    *browser.Engine
	engineMu  sync.Mutex
	startTime time.Time
}

// Adapters returns every jurisdiction the service supports.
func Adapters() []acquire.Adapter {
	adapters := ohio.Adapters()
	adapters = append(adapters, maricopa.New(), maui.New(), sanjuan.New())
	return adapters
}

// New creates and initializes a new Application with all dependencies.
//
// It performs the following initialization steps:
//   - Configures logging based on the provided config
//   - Registers the jurisdiction adapters
//   - Opens the county directory (PostgreSQL when configured, else in-memory)
//   - Creates the per-host navigation limiter and the acquisition pipeline
//
// Chrome is not started here; see EnsureEngine.
func New(ctx context.Context, cfg *config.Config) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	logger := setupLogger(cfg)

	registry := adapter.NewRegistry(Adapters()...)
	logger.Debug().Int("jurisdictions", len(registry.Jurisdictions())).Msg("Adapters registered")

	var dir directory.Directory = directory.NewMemory(registry)
	if cfg.DatabaseURL != "" {
		pg, err := directory.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("county directory: %w", err)
		}
		added, err := pg.Sync(ctx, registry)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to sync county directory")
		}
		logger.Debug().Int("added", added).Msg("PostgreSQL county directory initialized")
		dir = pg
	}

	limiter := ratelimit.NewHostLimiter(cfg.NavigationRPS, cfg.NavigationBurst)
	for _, j := range registry.Jurisdictions() {
		if t := j.Throttle; t != nil {
			limiter.SetLimit(t.Host, t.RPS, t.Burst)
			logger.Debug().
				Str("jurisdiction", j.ID()).
				Str("host", t.Host).
				Float64("rps", t.RPS).
				Msg("Host rate override applied")
		}
	}
	logger.Debug().
		Float64("rps", cfg.NavigationRPS).
		Int("burst", cfg.NavigationBurst).
		Msg("Rate limiter initialized")

	app := &Application{
		Config:    cfg,
		Logger:    &logger,
		Registry:  registry,
		Directory: dir,
		Limiter:   limiter,
		startTime: time.Now(),
	}
	app.Pipeline = acquire.New(app, retry.Config{
		MaxAttempts: cfg.RetryMaxAttempts,
		BaseDelay:   cfg.RetryBaseDelay,
		MaxDelay:    cfg.RetryMaxDelay,
		Jitter:      cfg.RetryJitter,
	})

	logger.Info().Msg("Application initialized successfully")
	return app, nil
}

func setupLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var logWriter io.Writer
	if cfg.JSONLog {
		// JSON logs to stderr
		logWriter = os.Stderr
	} else {
		logWriter = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
	}

	// Packages log through the global logger
	log.Logger = zerolog.New(logWriter).With().Timestamp().Logger()
	logger := log.Logger

	logger.Debug().
		Str("level", cfg.LogLevel).
		Bool("json", cfg.JSONLog).
		Msg("Logger initialized")
	return logger
}

// EnsureEngine lazily starts Chrome if it has not already been started.
// Commands that never acquire a parcel never pay for a browser.
func (a *Application) EnsureEngine(ctx context.Context) (*browser.Engine, error) {
	if a == nil {
		return nil, fmt.Errorf("application is nil")
	}

	a.engineMu.Lock()
	defer a.engineMu.Unlock()

	if a.engine != nil {
		return a.engine, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a.Logger.Debug().Msg("Starting browser engine on demand")
	engine, err := browser.NewEngine(browser.Options{
		PoolSize:          a.Config.BrowserPoolSize,
		Headless:          a.Config.BrowserHeadless,
		ChromePath:        a.Config.ChromePath,
		UserAgent:         a.Config.UserAgent,
		NavigationTimeout: a.Config.NavigationTimeout,
		Limiter:           a.Limiter,
	})
	if err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to start browser engine")
		return nil, err
	}

	a.engine = engine
	a.Logger.Info().Int("pool_size", a.Config.BrowserPoolSize).Msg("Browser engine started on demand")
	return engine, nil
}

// Acquire implements browser.Provider, starting Chrome on first use. A
// configured user agent overrides every jurisdiction's own.
func (a *Application) Acquire(ctx context.Context, p browser.Profile) (browser.Session, error) {
	engine, err := a.EnsureEngine(ctx)
	if err != nil {
		return nil, err
	}
	if a.Config.UserAgent != "" {
		p.UserAgent = a.Config.UserAgent
	}
	return engine.Acquire(ctx, p)
}

// Release implements browser.Provider.
func (a *Application) Release(s browser.Session) {
	a.engineMu.Lock()
	engine := a.engine
	a.engineMu.Unlock()

	if engine == nil {
		if s != nil {
			_ = s.Close()
		}
		return
	}
	engine.Release(s)
}

// Lookup resolves a "STATE/county" path to its adapter.
func (a *Application) Lookup(path string) (acquire.Adapter, error) {
	ad, ok := a.Registry.LookupPath(path)
	if !ok {
		return nil, fmt.Errorf("no adapter for %q (see `taxcert counties`)", path)
	}
	return ad, nil
}

// Close gracefully shuts down the application and all its resources.
//
// It performs the following cleanup steps in order:
//   - Closes the browser engine (interrupting any running acquisition)
//   - Closes the county directory
//
// Any errors during shutdown are logged but do not prevent other shutdown steps.
func (a *Application) Close(ctx context.Context) error {
	a.Logger.Info().Msg("Shutting down application")

	a.engineMu.Lock()
	engine := a.engine
	a.engine = nil
	a.engineMu.Unlock()

	if engine != nil {
		if err := engine.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Error closing browser engine")
		}
	}

	if a.Directory != nil {
		if err := a.Directory.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Error closing county directory")
		}
	}

	uptime := time.Since(a.startTime)
	a.Logger.Info().Dur("uptime", uptime).Msg("Application shutdown complete")
	return nil
}

// Uptime returns how long the application has been running.
func (a *Application) Uptime() time.Duration {
	return time.Since(a.startTime)
}
