// Package command decides which chat messages are commands for the relay.
package command

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// DefaultPrefix is the trigger used when none is configured.
const DefaultPrefix = "!ask "

var ErrEmptyPrefix = errors.New("trigger prefix must not be empty")

// Origin identifies where a message came from so the reply can go back there.
type Origin struct {
	ChatID    int64
	MessageID int
	UserID    int64
}

// Key returns a stable identifier for the message, used for deduplication.
func (o Origin) Key() string {
	return fmt.Sprintf("%d:%d", o.ChatID, o.MessageID)
}

// Request is a single triggered command. It lives for one dispatch.
type Request struct {
	ID      string
	Origin  Origin
	Text    string // raw message text
	Payload string // text after the trigger prefix
}

// Dispatcher matches raw message text against a trigger prefix.
type Dispatcher struct {
	prefix string
}

// NewDispatcher creates a dispatcher for the given trigger prefix.
func NewDispatcher(prefix string) (*Dispatcher, error) {
	if prefix == "" {
		return nil, ErrEmptyPrefix
	}
	return &Dispatcher{prefix: prefix}, nil
}

// Prefix returns the trigger prefix.
func (d *Dispatcher) Prefix() string {
	return d.prefix
}

// Dispatch reports whether text is a command and, if so, builds the Request.
// Self-originated messages never match. The payload is everything after the
// prefix and may be empty.
func (d *Dispatcher) Dispatch(text string, selfOrigin bool, origin Origin) (Request, bool) {
	if selfOrigin {
		return Request{}, false
	}

	payload, ok := strings.CutPrefix(text, d.prefix)
	if !ok {
		return Request{}, false
	}

	return Request{
		ID:      uuid.NewString(),
		Origin:  origin,
		Text:    text,
		Payload: payload,
	}, true
}
