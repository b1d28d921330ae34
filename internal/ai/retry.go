package ai

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
)

// RetryConfig holds the backoff policy for transient provider failures.
type RetryConfig struct {
	Attempts     int           // total attempts, 1 disables retries
	InitialDelay time.Duration // delay before the second attempt
	MaxDelay     time.Duration
	JitterFactor float64 // fraction of the delay randomly added or removed
}

// DefaultRetryConfig performs a single attempt.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		Attempts:     1,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		JitterFactor: 0.2,
	}
}

// Do runs fn until it succeeds, fails with a non-retryable error, runs out
// of attempts or ctx is done. It returns the last error fn returned.
func (c RetryConfig) Do(ctx context.Context, fn func(attempt int) error) error {
	var (
		attempt int
		lastErr error
	)

	b := backoff.WithContext(backoff.WithMaxRetries(c.backOff(), uint64(max(c.Attempts, 1)-1)), ctx)
	err := backoff.Retry(func() error {
		attempt++
		lastErr = fn(attempt)
		if lastErr != nil && !retryable(lastErr) {
			return backoff.Permanent(lastErr)
		}
		return lastErr
	}, b)

	if err != nil {
		return lastErr
	}
	return nil
}

// backOff doubles InitialDelay up to MaxDelay without an elapsed time limit.
func (c RetryConfig) backOff() *backoff.ExponentialBackOff {
	maxDelay := c.MaxDelay
	if maxDelay <= 0 {
		maxDelay = backoff.DefaultMaxInterval
	}

	return backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(c.InitialDelay),
		backoff.WithRandomizationFactor(c.JitterFactor),
		backoff.WithMultiplier(2),
		backoff.WithMaxInterval(maxDelay),
		backoff.WithMaxElapsedTime(0),
	)
}

// retryable reports whether err is a transient network or provider failure.
// An open breaker is not retried; waiting would not close it.
func retryable(err error) bool {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false
	}
	return errors.Is(err, ErrNetwork) || errors.Is(err, ErrProvider)
}
