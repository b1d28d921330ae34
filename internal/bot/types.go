package bot

import (
	"context"
	"errors"

	"github.com/j0lvera/askrelay/internal/command"
)

// ErrDelivery wraps failures to post a reply back to the chat.
var ErrDelivery = errors.New("delivery error")

// Event is one incoming chat message.
type Event struct {
	Origin     command.Origin
	Text       string
	SelfOrigin bool // authored by this bot or another bot
}

// Completer turns a payload into reply text.
type Completer interface {
	Complete(ctx context.Context, payload string) (string, error)
}

// Sink delivers replies back to where a message came from.
type Sink interface {
	// Send delivers text to origin. It is called at most once per request.
	Send(ctx context.Context, origin command.Origin, text string) error
	// Typing shows a best-effort "typing" indicator.
	Typing(ctx context.Context, origin command.Origin)
}

// Outcome describes what happened to one event.
type Outcome string

const (
	OutcomeSkipped     Outcome = "skipped"     // not a command
	OutcomeDuplicate   Outcome = "duplicate"   // already processed
	OutcomeRejected    Outcome = "rejected"    // chat not allowed or payload blocked
	OutcomeReplied     Outcome = "replied"     // completion delivered
	OutcomeFailed      Outcome = "failed"      // relay failed, error reply delivered
	OutcomeUndelivered Outcome = "undelivered" // reply could not be delivered
)
