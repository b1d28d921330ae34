package command

import "strings"

// Allowlist restricts the bot to a fixed set of chats.
type Allowlist struct {
	chats map[int64]struct{}
}

// NewAllowlist builds an allowlist. No IDs means every chat is allowed.
func NewAllowlist(chatIDs []int64) *Allowlist {
	chats := make(map[int64]struct{}, len(chatIDs))
	for _, id := range chatIDs {
		chats[id] = struct{}{}
	}
	return &Allowlist{chats: chats}
}

// Allowed reports whether the origin's chat may use the bot.
func (a *Allowlist) Allowed(origin Origin) bool {
	if a == nil || len(a.chats) == 0 {
		return true
	}
	_, ok := a.chats[origin.ChatID]
	return ok
}

// Moderator rejects payloads containing blocked keywords.
type Moderator struct {
	blocked []string
}

// NewModerator builds a moderator from a keyword list. Matching is
// case-insensitive; blank keywords are ignored.
func NewModerator(keywords []string) *Moderator {
	blocked := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			blocked = append(blocked, k)
		}
	}
	return &Moderator{blocked: blocked}
}

// Allowed reports whether payload is free of blocked keywords. It returns the
// matching keyword when it is not.
func (m *Moderator) Allowed(payload string) (bool, string) {
	if m == nil || len(m.blocked) == 0 {
		return true, ""
	}
	lower := strings.ToLower(payload)
	for _, k := range m.blocked {
		if strings.Contains(lower, k) {
			return false, k
		}
	}
	return true, ""
}
