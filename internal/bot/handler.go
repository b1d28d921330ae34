package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/j0lvera/askrelay/internal/ai"
	"github.com/j0lvera/askrelay/internal/command"
	"github.com/j0lvera/askrelay/internal/metrics"
	"github.com/rs/zerolog"
)

const (
	notAllowedText = "This chat is not allowed."
	blockedText    = "That request was blocked."
)

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithAllowlist restricts which chats may trigger the relay.
func WithAllowlist(a *command.Allowlist) HandlerOption {
	return func(h *Handler) { h.allowlist = a }
}

// WithModerator rejects payloads with blocked keywords.
func WithModerator(m *command.Moderator) HandlerOption {
	return func(h *Handler) { h.moderator = m }
}

// WithDeduper drops redelivered messages.
func WithDeduper(d *Deduper) HandlerOption {
	return func(h *Handler) { h.seen = d }
}

func WithMetrics(m *metrics.Metrics) HandlerOption {
	return func(h *Handler) { h.metrics = m }
}

func WithLogger(l zerolog.Logger) HandlerOption {
	return func(h *Handler) { h.logger = l }
}

// Handler runs one event through dispatch, relay and reply.
type Handler struct {
	dispatcher *command.Dispatcher
	relay      Completer
	sink       Sink
	allowlist  *command.Allowlist
	moderator  *command.Moderator
	seen       *Deduper
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

// NewHandler creates a handler. Without options every chat is allowed,
// nothing is moderated and nothing is deduplicated.
func NewHandler(dispatcher *command.Dispatcher, relay Completer, sink Sink, opts ...HandlerOption) *Handler {
	h := &Handler{
		dispatcher: dispatcher,
		relay:      relay,
		sink:       sink,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle processes one event. A triggered request gets exactly one reply:
// the completion, or an error text when the relay fails.
func (h *Handler) Handle(ctx context.Context, ev Event) (outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error().
				Int64("chat_id", ev.Origin.ChatID).
				Interface("panic", r).
				Msg("recovered from panic while handling message")
			outcome = OutcomeFailed
		}
		h.metrics.ObserveDispatch(string(outcome))
	}()

	return h.handle(ctx, ev)
}

func (h *Handler) handle(ctx context.Context, ev Event) Outcome {
	req, ok := h.dispatcher.Dispatch(ev.Text, ev.SelfOrigin, ev.Origin)
	if !ok {
		return OutcomeSkipped
	}

	log := h.logger.With().
		Str("request_id", req.ID).
		Int64("chat_id", req.Origin.ChatID).
		Logger()

	if h.seen.Seen(req.Origin) {
		log.Debug().Int("message_id", req.Origin.MessageID).Msg("ignoring redelivered message")
		return OutcomeDuplicate
	}

	if !h.allowlist.Allowed(req.Origin) {
		log.Warn().Msg("command from chat outside the allowlist")
		return h.reply(ctx, &log, req, notAllowedText, OutcomeRejected)
	}

	if ok, keyword := h.moderator.Allowed(req.Payload); !ok {
		log.Warn().Str("keyword", keyword).Msg("payload blocked by moderation")
		return h.reply(ctx, &log, req, blockedText, OutcomeRejected)
	}

	h.sink.Typing(ctx, req.Origin)

	log.Info().Int("payload_length", len(req.Payload)).Msg("ai request sending")
	text, err := h.relay.Complete(ctx, req.Payload)
	if err != nil {
		log.Error().Err(err).Str("kind", ai.Kind(err)).Msg("unable to generate ai response")
		return h.reply(ctx, &log, req, errorText(err), OutcomeFailed)
	}
	log.Info().Int("response_length", len(text)).Msg("ai response received")

	return h.reply(ctx, &log, req, text, OutcomeReplied)
}

// reply sends text once. Delivery failures are logged, never retried.
func (h *Handler) reply(ctx context.Context, log *zerolog.Logger, req command.Request, text string, outcome Outcome) Outcome {
	if err := h.sink.Send(ctx, req.Origin, text); err != nil {
		if !errors.Is(err, ErrDelivery) {
			err = fmt.Errorf("%w: %w", ErrDelivery, err)
		}
		log.Error().Err(err).Str("outcome", string(outcome)).Msg("unable to deliver reply")
		return OutcomeUndelivered
	}
	return outcome
}

// errorText is the user-facing reply for a relay failure.
func errorText(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "Sorry, the completion service timed out. Please try again."
	case errors.Is(err, ai.ErrAuth):
		return "Sorry, I'm not authorized to use the completion service right now."
	case errors.Is(err, ai.ErrNetwork):
		return "Sorry, I couldn't reach the completion service. Please try again."
	case errors.Is(err, ai.ErrMalformedResponse):
		return "Sorry, the completion service returned an empty answer."
	case errors.Is(err, ai.ErrProvider):
		return "Sorry, the completion service failed to answer. Please try again later."
	default:
		return "Sorry, I encountered an error while processing your request."
	}
}
