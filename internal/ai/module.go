package ai

import (
	"github.com/j0lvera/askrelay/internal/config"
	"github.com/j0lvera/askrelay/internal/metrics"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

// Params for creating the completion relay
type Params struct {
	fx.In

	Config  *config.Config
	Metrics *metrics.Metrics
	Logger  zerolog.Logger
}

// Result of creating the completion relay
type Result struct {
	fx.Out

	Relay *Relay
}

// New creates the relay over the OpenAI-compatible provider
func New(p Params) (Result, error) {
	querier, err := NewOpenAIQuerier(p.Config.APIKey, p.Config.BaseURL, p.Config.Model)
	if err != nil {
		return Result{}, err
	}

	retry := DefaultRetryConfig()
	retry.Attempts = p.Config.RetryAttempts
	retry.InitialDelay = p.Config.RetryBackoff
	retry.MaxDelay = p.Config.RetryMaxBackoff

	relay := NewRelay(querier, Options{
		Model:        p.Config.Model,
		SystemPrompt: p.Config.Prompts.System,
		Timeout:      p.Config.RequestTimeout,
		MaxInFlight:  p.Config.MaxInFlight,
		Retry:        retry,
		Breaker: BreakerConfig{
			Failures: p.Config.BreakerFailures,
			Cooldown: p.Config.BreakerCooldown,
		},
		Metrics: p.Metrics,
		Logger:  p.Logger.With().Str("component", "relay").Logger(),
	})

	return Result{
		Relay: relay,
	}, nil
}

// Module provides the completion relay
func Module() fx.Option {
	return fx.Module(
		"ai",
		fx.Provide(
			New,
		),
	)
}
