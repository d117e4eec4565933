// Package retry wraps transient database failures (connection resets,
// deadlocks, SQLite's "database is locked") with exponential backoff, so a
// driver's connection acquisition can absorb brief outages without
// surfacing them straight to the engine's version loop.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/kvlabs/schemamgr/internal/logging"
)

// Config holds the retry policy for one operation family.
type Config struct {
	MaxRetries      int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	BackoffFactor   float64
	RetryableErrors []string
}

// DefaultConfig is tuned for the driver facade's connection-acquisition
// path: a handful of quick retries, not a long-running resilience policy.
func DefaultConfig() *Config {
	return &Config{
		MaxRetries:    3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
		RetryableErrors: []string{
			"connection refused",
			"connection reset",
			"timeout",
			"temporary failure",
			"deadlock",
			"lock wait timeout",
			"database is locked",
			"connection lost",
			"broken pipe",
		},
	}
}

func (c *Config) isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	errStr := strings.ToLower(err.Error())
	for _, retryable := range c.RetryableErrors {
		if strings.Contains(errStr, retryable) {
			return true
		}
	}
	return false
}

func (c *Config) calculateDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return c.InitialDelay
	}
	delay := time.Duration(float64(c.InitialDelay) * math.Pow(c.BackoffFactor, float64(attempt-1)))
	if delay > c.MaxDelay {
		delay = c.MaxDelay
	}
	return delay
}

// Operation is a database call that may fail transiently.
type Operation func() error

// Do runs operation, retrying transient failures under config's backoff
// policy. A nil config falls back to DefaultConfig. log may be nil, in
// which case retries proceed silently.
func Do(ctx context.Context, config *Config, log *logging.Logger, operation Operation) error {
	if config == nil {
		config = DefaultConfig()
	}

	var lastErr error
	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		err := operation()
		if err == nil {
			if attempt > 0 && log != nil {
				log.Info("database operation succeeded after retry", "attempt", attempt+1)
			}
			return nil
		}
		lastErr = err

		if attempt == config.MaxRetries {
			break
		}
		if !config.isRetryableError(err) {
			return err
		}

		delay := config.calculateDelay(attempt)
		if log != nil {
			log.Warn("database operation failed, retrying", "error", err, "attempt", attempt+1, "delay", delay)
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("operation cancelled during retry: %w", ctx.Err())
		case <-time.After(delay):
		}
	}
	return fmt.Errorf("operation failed after %d attempts: %w", config.MaxRetries+1, lastErr)
}
