package bot

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"unicode/utf16"

	tbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/j0lvera/askrelay/internal/command"
	"github.com/rs/zerolog"
)

const (
	// Telegram rejects messages longer than this many UTF-16 code units.
	maxMessageLength = 4096
	emptyReplyText   = "(the model returned an empty answer)"
)

// messenger is the part of *tbot.Bot the sink uses.
type messenger interface {
	SendMessage(ctx context.Context, params *tbot.SendMessageParams) (*models.Message, error)
	SendChatAction(ctx context.Context, params *tbot.SendChatActionParams) (bool, error)
}

// TelegramSink replies to the triggering Telegram message.
type TelegramSink struct {
	client messenger
	logger zerolog.Logger
}

func NewTelegramSink(client messenger, logger zerolog.Logger) *TelegramSink {
	return &TelegramSink{client: client, logger: logger}
}

// Send posts text as a reply to origin. Text over Telegram's length limit is
// split across consecutive messages; only the first one quotes the command.
func (s *TelegramSink) Send(ctx context.Context, origin command.Origin, text string) error {
	if strings.TrimSpace(text) == "" {
		text = emptyReplyText
	}

	for i, chunk := range splitMessage(text, maxMessageLength) {
		params := &tbot.SendMessageParams{
			ChatID: origin.ChatID,
			Text:   chunk,
		}
		if i == 0 && origin.MessageID != 0 {
			params.ReplyParameters = &models.ReplyParameters{
				MessageID:                origin.MessageID,
				AllowSendingWithoutReply: true,
			}
		}

		if _, err := s.client.SendMessage(ctx, params); err != nil {
			return fmt.Errorf("%w: sending part %d: %w", ErrDelivery, i+1, err)
		}
	}

	return nil
}

// Typing sends the "typing" chat action. Failures are only logged.
func (s *TelegramSink) Typing(ctx context.Context, origin command.Origin) {
	_, err := s.client.SendChatAction(ctx, &tbot.SendChatActionParams{
		ChatID: origin.ChatID,
		Action: models.ChatActionTyping,
	})
	if err != nil {
		s.logger.Debug().Err(err).Int64("chat_id", origin.ChatID).Msg("unable to send typing action")
	}
}

// splitMessage cuts text into parts of at most limit UTF-16 code units, the
// unit Telegram measures message length in, preferring to break after a
// newline in the second half of a part.
func splitMessage(text string, limit int) []string {
	var parts []string
	runes := []rune(text)
	for utf16Len(runes) > limit {
		// fit is the longest prefix within limit, at least one rune.
		fit, units := 0, 0
		for fit < len(runes) {
			n := utf16.RuneLen(runes[fit])
			if n < 0 {
				n = 1
			}
			if units+n > limit && fit > 0 {
				break
			}
			units += n
			fit++
		}

		cut := fit
		for i := fit - 1; i >= fit/2; i-- {
			if runes[i] == '\n' {
				cut = i + 1
				break
			}
		}
		parts = append(parts, string(runes[:cut]))
		runes = runes[cut:]
	}
	if len(runes) > 0 || len(parts) == 0 {
		parts = append(parts, string(runes))
	}

	return parts
}

func utf16Len(runes []rune) int {
	n := 0
	for _, r := range runes {
		if l := utf16.RuneLen(r); l > 0 {
			n += l
		} else {
			n++
		}
	}
	return n
}

// TelegramSource turns Telegram updates into events for a Handler.
type TelegramSource struct {
	handler *Handler
	selfID  atomic.Int64
	logger  zerolog.Logger
}

func NewTelegramSource(handler *Handler, logger zerolog.Logger) *TelegramSource {
	return &TelegramSource{handler: handler, logger: logger}
}

// SetSelfID records the bot's own user id so its messages are ignored.
func (s *TelegramSource) SetSelfID(id int64) {
	s.selfID.Store(id)
}

// HandleUpdate is registered as the bot's default handler.
func (s *TelegramSource) HandleUpdate(ctx context.Context, _ *tbot.Bot, update *models.Update) {
	ev, ok := eventFromUpdate(update, s.selfID.Load())
	if !ok {
		if update != nil && update.Message != nil {
			s.logger.Warn().Int64("chat_id", update.Message.Chat.ID).Msg("received message without user info")
		}
		return
	}

	s.handler.Handle(ctx, ev)
}

func eventFromUpdate(update *models.Update, selfID int64) (Event, bool) {
	// Guard against updates without a message or author
	if update == nil || update.Message == nil || update.Message.From == nil {
		return Event{}, false
	}

	msg := update.Message
	return Event{
		Origin: command.Origin{
			ChatID:    msg.Chat.ID,
			MessageID: msg.ID,
			UserID:    msg.From.ID,
		},
		Text:       msg.Text,
		SelfOrigin: msg.From.IsBot || (selfID != 0 && msg.From.ID == selfID),
	}, true
}
