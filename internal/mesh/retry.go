package mesh

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// RetryConfig controls retries of one lookup.
type RetryConfig struct {
	MaxAttempts  int           // total attempts, at least 1
	InitialDelay time.Duration // wait after the first failure
	Multiplier   float64       // growth of the wait per attempt
}

// DefaultRetryConfig is 3 attempts waiting 1s then 2s.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxAttempts: 3, InitialDelay: time.Second, Multiplier: 2}
}

// permanentError marks failures that retrying cannot fix.
type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

func permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// retry runs fn until it succeeds, fails permanently, the attempts run out or
// ctx is done.
func retry(ctx context.Context, cfg RetryConfig, fn func() error) error {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.Multiplier <= 0 {
		cfg.Multiplier = 2
	}

	var lastErr error
	delay := cfg.InitialDelay
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		var pe *permanentError
		if errors.As(err, &pe) {
			return pe.err
		}
		if ctx.Err() != nil {
			return fmt.Errorf("cancelled before attempt %d: %w", attempt+1, ctx.Err())
		}
		if attempt == cfg.MaxAttempts {
			break
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("cancelled during backoff: %w", ctx.Err())
		case <-timer.C:
		}
		delay = time.Duration(float64(delay) * cfg.Multiplier)
	}

	return fmt.Errorf("failed after %d attempts: %w", cfg.MaxAttempts, lastErr)
}
