package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/j0lvera/askrelay/internal/metrics"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/semaphore"
)

// Options configures a Relay.
type Options struct {
	Model        string
	SystemPrompt string        // prepended as a system message when set
	Timeout      time.Duration // per attempt, 0 disables
	MaxInFlight  int           // concurrent provider calls, < 1 means 1
	Retry        RetryConfig
	Breaker      BreakerConfig
	Metrics      *metrics.Metrics
	Logger       zerolog.Logger
}

// Relay forwards a payload to the completion provider and returns the first
// candidate's text.
type Relay struct {
	querier      Querier
	model        string
	systemPrompt string
	timeout      time.Duration
	retry        RetryConfig
	inFlight     *semaphore.Weighted
	breaker      *gobreaker.CircuitBreaker
	metrics      *metrics.Metrics
	logger       zerolog.Logger
}

// NewRelay creates a relay over querier.
func NewRelay(querier Querier, opts Options) *Relay {
	return &Relay{
		querier:      querier,
		model:        opts.Model,
		systemPrompt: opts.SystemPrompt,
		timeout:      opts.Timeout,
		retry:        opts.Retry,
		inFlight:     semaphore.NewWeighted(int64(max(opts.MaxInFlight, 1))),
		breaker:      newBreaker(opts.Breaker, opts.Metrics, opts.Logger),
		metrics:      opts.Metrics,
		logger:       opts.Logger,
	}
}

// Complete sends payload to the provider and returns the text of the first
// candidate unchanged. Errors wrap ErrNetwork, ErrAuth, ErrProvider or
// ErrMalformedResponse.
func (r *Relay) Complete(ctx context.Context, payload string) (string, error) {
	start := time.Now()
	if err := r.inFlight.Acquire(ctx, 1); err != nil {
		err = fmt.Errorf("%w: waiting for a free provider slot: %w", ErrProvider, err)
		r.metrics.ObserveRelay(Kind(err), time.Since(start))
		return "", err
	}
	defer r.inFlight.Release(1)

	messages := r.messages(payload)

	var text string
	err := r.retry.Do(ctx, func(attempt int) error {
		var err error
		text, err = r.attempt(ctx, messages)
		if err != nil {
			r.logger.Warn().
				Err(err).
				Int("attempt", attempt).
				Str("kind", Kind(err)).
				Msg("completion attempt failed")
		}
		return err
	})

	r.metrics.ObserveRelay(Kind(err), time.Since(start))

	if err != nil {
		return "", err
	}
	return text, nil
}

func (r *Relay) messages(payload string) []Message {
	messages := make([]Message, 0, 2)
	if r.systemPrompt != "" {
		messages = append(messages, Message{Role: RoleSystem, Content: r.systemPrompt})
	}
	return append(messages, Message{Role: RoleUser, Content: payload})
}

// attempt performs one provider call under the per-attempt timeout.
func (r *Relay) attempt(ctx context.Context, messages []Message) (string, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	candidates, err := r.query(ctx, messages)
	if err != nil {
		return "", err
	}

	if len(candidates) == 0 {
		return "", fmt.Errorf("%w: no candidates returned from model", ErrMalformedResponse)
	}

	return candidates[0].Content, nil
}

func (r *Relay) query(ctx context.Context, messages []Message) ([]Candidate, error) {
	call := func() ([]Candidate, error) {
		candidates, err := r.querier.Query(ctx, r.model, messages)
		// Clients may flatten an expired context into plain text.
		if err != nil && ctx.Err() != nil && !errors.Is(err, ctx.Err()) {
			err = fmt.Errorf("%w: %w", err, ctx.Err())
		}
		return candidates, classify(err)
	}

	if r.breaker == nil {
		return call()
	}

	res, err := r.breaker.Execute(func() (interface{}, error) {
		return call()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %w", ErrProvider, err)
	}
	if err != nil {
		return nil, err
	}

	candidates, _ := res.([]Candidate)
	return candidates, nil
}
