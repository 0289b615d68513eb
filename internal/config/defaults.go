package config

import "time"

// Default constants for application configuration
const (
	DefaultLogLevel           = "info"
	DefaultJSONLog            = false
	DefaultUserAgent          = ""
	DefaultNavigationTimeout  = 90 * time.Second
	DefaultBrowserPoolSize    = 3
	DefaultMaxBrowserPoolSize = 10
	DefaultBrowserHeadless    = true
	DefaultRetryMaxAttempts   = 3
	DefaultRetryBaseDelay     = 2 * time.Second
	DefaultRetryMaxDelay      = 30 * time.Second
	DefaultRetryJitter        = 0.25
	DefaultNavigationRPS      = 2.0
	DefaultNavigationBurst    = 4
	DefaultListenAddr         = ":3000"
	DefaultEnvFile            = ".env"
	DefaultShutdownTimeout    = 15 * time.Second
)
