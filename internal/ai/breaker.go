package ai

import (
	"context"
	"errors"
	"time"

	"github.com/j0lvera/askrelay/internal/metrics"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

// BreakerConfig configures the provider circuit breaker.
type BreakerConfig struct {
	Failures uint32        // consecutive failures before opening, 0 disables
	Cooldown time.Duration // how long the breaker stays open
}

func newBreaker(cfg BreakerConfig, m *metrics.Metrics, logger zerolog.Logger) *gobreaker.CircuitBreaker {
	if cfg.Failures == 0 {
		return nil
	}

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "completion-provider",
		MaxRequests: 1,
		Timeout:     cfg.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.Failures
		},
		IsSuccessful: healthy,
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info().
				Str("circuit_breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
			m.SetBreakerState(int(to))
		},
	})
}

// healthy reports whether err leaves the provider's health untouched. Auth
// and malformed responses say nothing about it, nor does a caller giving up.
func healthy(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	return !errors.Is(err, ErrNetwork) && !errors.Is(err, ErrProvider)
}
