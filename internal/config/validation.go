package config

import "fmt"

func validate(c *Config) error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log level must be one of debug, info, warn, error")
	}
	if c.NavigationTimeout <= 0 {
		return fmt.Errorf("navigation timeout must be > 0")
	}
	if c.BrowserPoolSize <= 0 || c.BrowserPoolSize > DefaultMaxBrowserPoolSize {
		return fmt.Errorf("browser pool size must be between 1 and %d", DefaultMaxBrowserPoolSize)
	}
	if c.RetryMaxAttempts < 1 {
		return fmt.Errorf("retry max attempts must be >= 1")
	}
	if c.RetryBaseDelay < 0 || c.RetryJitter < 0 {
		return fmt.Errorf("retry delays must be >= 0")
	}
	if c.RetryMaxDelay < c.RetryBaseDelay {
		return fmt.Errorf("retry max delay must be >= base delay")
	}
	if c.NavigationRPS <= 0 || c.NavigationBurst <= 0 {
		return fmt.Errorf("navigation rate limit must be > 0")
	}
	return nil
}
