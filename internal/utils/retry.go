package utils

import (
	"context"
	"time"
)

// RetryConfig configures exponential backoff for Retry.
type RetryConfig struct {
	// Attempts is the total number of tries, including the first one.
	Attempts int
	// BaseDelay is the delay before the second attempt.
	BaseDelay time.Duration
	// MaxDelay caps the backoff growth.
	MaxDelay time.Duration
	// Multiplier grows the delay after every failed attempt.
	Multiplier float64
}

// DefaultRetryConfig returns the backoff used for outbound HTTP and provider
// calls: three tries with a 1s/2s pause between them.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		Attempts:   3,
		BaseDelay:  time.Second,
		MaxDelay:   10 * time.Second,
		Multiplier: 2,
	}
}

func (c RetryConfig) normalized() RetryConfig {
	if c.Attempts < 1 {
		c.Attempts = 1
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = time.Second
	}
	if c.MaxDelay < c.BaseDelay {
		c.MaxDelay = c.BaseDelay
	}
	if c.Multiplier < 1 {
		c.Multiplier = 1
	}
	return c
}

// Retry executes fn until it succeeds, the attempts are exhausted, or the
// context is canceled. The delay between attempts grows exponentially up to
// MaxDelay. The last error is returned when every attempt fails; a context
// error is returned as soon as the context is done.
func Retry[T any](ctx context.Context, cfg RetryConfig, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	cfg = cfg.normalized()
	delay := cfg.BaseDelay

	for attempt := 0; attempt < cfg.Attempts; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}

		lastErr = err

		if ctx.Err() != nil {
			return zero, ctx.Err()
		}

		if attempt < cfg.Attempts-1 {
			if err := WaitFor(ctx, delay); err != nil {
				return zero, err
			}
			delay = time.Duration(float64(delay) * cfg.Multiplier)
			if delay > cfg.MaxDelay {
				delay = cfg.MaxDelay
			}
		}
	}

	return zero, lastErr
}
