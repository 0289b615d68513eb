package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// EnvPrefix prefixes every environment variable the service reads.
const EnvPrefix = "TAXCERT_"

// Config holds application configuration values
type Config struct {
	// Logging
	LogLevel string
	JSONLog  bool

	// Browser
	UserAgent         string
	NavigationTimeout time.Duration
	BrowserPoolSize   int
	BrowserHeadless   bool
	ChromePath        string

	// Retry
	RetryMaxAttempts int
	RetryBaseDelay   time.Duration
	RetryMaxDelay    time.Duration
	RetryJitter      float64 // fraction added to each wait at random

	// Rate Limiting
	NavigationRPS   float64
	NavigationBurst int

	// Service
	ListenAddr      string
	DatabaseURL     string
	ShutdownTimeout time.Duration
}

// Default returns the compiled-in configuration.
func Default() *Config {
	return &Config{
		LogLevel:          DefaultLogLevel,
		JSONLog:           DefaultJSONLog,
		UserAgent:         DefaultUserAgent,
		NavigationTimeout: DefaultNavigationTimeout,
		BrowserPoolSize:   DefaultBrowserPoolSize,
		BrowserHeadless:   DefaultBrowserHeadless,
		RetryMaxAttempts:  DefaultRetryMaxAttempts,
		RetryBaseDelay:    DefaultRetryBaseDelay,
		RetryMaxDelay:     DefaultRetryMaxDelay,
		RetryJitter:       DefaultRetryJitter,
		NavigationRPS:     DefaultNavigationRPS,
		NavigationBurst:   DefaultNavigationBurst,
		ListenAddr:        DefaultListenAddr,
		ShutdownTimeout:   DefaultShutdownTimeout,
	}
}

// Load builds a Config by combining defaults, an optional .env file, environment variables, and CLI flags.
// Caller should pass the root *cobra.Command so flags can be read.
func Load(cmd *cobra.Command) (*Config, error) {
	cfg := Default()

	envFile := DefaultEnvFile
	if cmd != nil {
		if f := cmd.Flags().Lookup("config"); f != nil && f.Value.String() != "" {
			envFile = f.Value.String()
		}
	}
	// Variables already set in the environment win over the file.
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	// Read CLI flags if provided
	if cmd != nil {
		if err := applyFlags(cmd, cfg); err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func applyEnv(cfg *Config) error {
	str := func(key string, dst *string) {
		if v := os.Getenv(EnvPrefix + key); v != "" {
			*dst = v
		}
	}
	str("LOG_LEVEL", &cfg.LogLevel)
	str("USER_AGENT", &cfg.UserAgent)
	str("CHROME_PATH", &cfg.ChromePath)
	str("LISTEN_ADDR", &cfg.ListenAddr)
	str("DATABASE_URL", &cfg.DatabaseURL)

	var errs []error
	parse := func(key string, set func(string) error) {
		if v := os.Getenv(EnvPrefix + key); v != "" {
			if err := set(v); err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
			}
		}
	}
	parse("JSON_LOG", boolVar(&cfg.JSONLog))
	parse("HEADLESS", boolVar(&cfg.BrowserHeadless))
	parse("NAVIGATION_TIMEOUT", durationVar(&cfg.NavigationTimeout))
	parse("BROWSER_POOL_SIZE", intVar(&cfg.BrowserPoolSize))
	parse("RETRY_MAX_ATTEMPTS", intVar(&cfg.RetryMaxAttempts))
	parse("RETRY_BASE_DELAY", durationVar(&cfg.RetryBaseDelay))
	parse("RETRY_MAX_DELAY", durationVar(&cfg.RetryMaxDelay))
	parse("RETRY_JITTER", floatVar(&cfg.RetryJitter))
	parse("NAVIGATION_RPS", floatVar(&cfg.NavigationRPS))
	parse("NAVIGATION_BURST", intVar(&cfg.NavigationBurst))
	parse("SHUTDOWN_TIMEOUT", durationVar(&cfg.ShutdownTimeout))
	return errors.Join(errs...)
}

func applyFlags(cmd *cobra.Command, cfg *Config) error {
	changed := func(name string) (string, bool) {
		f := cmd.Flags().Lookup(name)
		if f == nil || !f.Changed {
			return "", false
		}
		return f.Value.String(), true
	}

	if s, ok := changed("user-agent"); ok && s != "" {
		cfg.UserAgent = s
	}
	if s, ok := changed("chrome-path"); ok && s != "" {
		cfg.ChromePath = s
	}
	if s, ok := changed("timeout"); ok {
		d, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("--timeout: %w", err)
		}
		cfg.NavigationTimeout = d
	}
	if s, ok := changed("pool-size"); ok {
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("--pool-size: %w", err)
		}
		cfg.BrowserPoolSize = n
	}
	if s, ok := changed("retries"); ok {
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("--retries: %w", err)
		}
		cfg.RetryMaxAttempts = n
	}
	if s, ok := changed("headful"); ok && s == "true" {
		cfg.BrowserHeadless = false
	}
	if s, ok := changed("json"); ok && s == "true" {
		cfg.JSONLog = true
	}
	if s, ok := changed("quiet"); ok && s == "true" {
		cfg.LogLevel = "error"
	}
	if s, ok := changed("verbose"); ok && s == "true" {
		cfg.LogLevel = "debug"
	}
	return nil
}

func boolVar(dst *bool) func(string) error {
	return func(s string) error {
		v, err := strconv.ParseBool(s)
		if err == nil {
			*dst = v
		}
		return err
	}
}

func intVar(dst *int) func(string) error {
	return func(s string) error {
		v, err := strconv.Atoi(s)
		if err == nil {
			*dst = v
		}
		return err
	}
}

func floatVar(dst *float64) func(string) error {
	return func(s string) error {
		v, err := strconv.ParseFloat(s, 64)
		if err == nil {
			*dst = v
		}
		return err
	}
}

func durationVar(dst *time.Duration) func(string) error {
	return func(s string) error {
		v, err := time.ParseDuration(s)
		if err == nil {
			*dst = v
		}
		return err
	}
}
