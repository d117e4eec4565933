package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 100*time.Millisecond, cfg.InitialDelay)
	assert.Equal(t, 5*time.Second, cfg.MaxDelay)
	assert.Equal(t, 2.0, cfg.BackoffFactor)
}

func TestConfig_IsRetryableError(t *testing.T) {
	cfg := DefaultConfig()

	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"connection refused", errors.New("connection refused"), true},
		{"database is locked", errors.New("database is locked"), true},
		{"case insensitive", errors.New("CONNECTION REFUSED"), true},
		{"context canceled", context.Canceled, false},
		{"non-retryable", errors.New("syntax error"), false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, cfg.isRetryableError(c.err))
		})
	}
}

func TestConfig_CalculateDelay_Backoff(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 100*time.Millisecond, cfg.calculateDelay(0))
	assert.Equal(t, 100*time.Millisecond, cfg.calculateDelay(1))
	assert.Equal(t, 200*time.Millisecond, cfg.calculateDelay(2))
	assert.Equal(t, 400*time.Millisecond, cfg.calculateDelay(3))
}

func TestDo_SucceedsAfterRetryableFailures(t *testing.T) {
	cfg := &Config{MaxRetries: 3, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, BackoffFactor: 2, RetryableErrors: []string{"connection refused"}}
	attempts := 0
	err := Do(context.Background(), cfg, nil, func() error {
		attempts++
		if attempts < 3 {
			return errors.New("connection refused")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDo_StopsOnNonRetryableError(t *testing.T) {
	cfg := DefaultConfig()
	attempts := 0
	err := Do(context.Background(), cfg, nil, func() error {
		attempts++
		return errors.New("syntax error")
	})
	assert.Error(t, err)
	assert.Equal(t, 1, attempts)
}
