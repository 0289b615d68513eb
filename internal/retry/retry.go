// internal/retry/retry.go
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog/log"
)

// Config defines retry behavior with linear backoff: the wait before attempt
// n+1 is BaseDelay * n, stretched by up to Jitter (a fraction) at random.
type Config struct {
	MaxAttempts int           // Maximum number of attempts, including the first
	BaseDelay   time.Duration // Delay unit multiplied by the attempt number
	MaxDelay    time.Duration // Cap on a single wait; zero means uncapped
	Jitter      float64       // 0.25 adds up to 25% on top of each wait
}

// DefaultConfig returns the policy used for parcel acquisitions
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 3,
		BaseDelay:   2 * time.Second,
		MaxDelay:    30 * time.Second,
		Jitter:      0,
	}
}

// Retryable is implemented by errors that know whether repeating the
// operation can change the outcome.
type Retryable interface {
	Retryable() bool
}

// ExhaustedError is returned once every attempt failed.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("operation failed after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Last
}

// WithRetry executes fn until it succeeds, returns a non-retryable error, the
// attempts run out or ctx is cancelled. fn receives the 1-based attempt number.
func WithRetry(ctx context.Context, cfg Config, fn func(attempt int) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}

	var lastErr error

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		err := fn(attempt)

		if err == nil {
			if attempt > 1 {
				log.Debug().
					Int("attempts", attempt).
					Msg("Retry succeeded")
			}
			return nil
		}

		lastErr = err

		if !shouldRetry(err) {
			log.Debug().
				Err(err).
				Msg("Error is not retryable")
			return err
		}

		// Don't sleep after the last attempt
		if attempt < cfg.MaxAttempts {
			backoff := Backoff(attempt, cfg)

			log.Warn().
				Int("attempt", attempt).
				Int("max_attempts", cfg.MaxAttempts).
				Dur("backoff", backoff).
				Err(err).
				Msg("Retrying after backoff")

			timer := time.NewTimer(backoff)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			}
		}
	}

	log.Warn().
		Int("attempts", cfg.MaxAttempts).
		Err(lastErr).
		Msg("Max retry attempts exceeded")

	return &ExhaustedError{Attempts: cfg.MaxAttempts, Last: lastErr}
}

// Backoff returns the wait after the given 1-based failed attempt
func Backoff(attempt int, cfg Config) time.Duration {
	backoff := cfg.BaseDelay * time.Duration(attempt)
	if cfg.Jitter > 0 {
		backoff += time.Duration(float64(backoff) * cfg.Jitter * rand.Float64())
	}
	if cfg.MaxDelay > 0 && backoff > cfg.MaxDelay {
		backoff = cfg.MaxDelay
	}
	return backoff
}

// shouldRetry determines if an error is retryable
func shouldRetry(err error) bool {
	if err == nil {
		return false
	}

	// Caller gave up; another attempt would fail the same way
	if errors.Is(err, context.Canceled) {
		return false
	}

	var r Retryable
	if errors.As(err, &r) {
		return r.Retryable()
	}

	// Check for timeout errors (always retryable)
	if isTimeoutError(err) {
		return true
	}

	// Default: retry
	return true
}

// isTimeoutError checks if an error is a timeout error
func isTimeoutError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var timeoutErr interface{ Timeout() bool }
	if errors.As(err, &timeoutErr) {
		return timeoutErr.Timeout()
	}

	return false
}
