package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllowlist(t *testing.T) {
	open := NewAllowlist(nil)
	assert.True(t, open.Allowed(Origin{ChatID: 123}))

	var nilList *Allowlist
	assert.True(t, nilList.Allowed(Origin{ChatID: 123}))

	restricted := NewAllowlist([]int64{10, -1001})
	assert.True(t, restricted.Allowed(Origin{ChatID: 10}))
	assert.True(t, restricted.Allowed(Origin{ChatID: -1001}))
	assert.False(t, restricted.Allowed(Origin{ChatID: 11}))
}

func TestModerator(t *testing.T) {
	m := NewModerator([]string{"Malware", "  ", "hack"})

	ok, word := m.Allowed("what is 2+2?")
	assert.True(t, ok)
	assert.Empty(t, word)

	ok, word = m.Allowed("write me some MALWARE please")
	assert.False(t, ok)
	assert.Equal(t, "malware", word)

	ok, _ = m.Allowed("")
	assert.True(t, ok)
}

func TestModeratorEmpty(t *testing.T) {
	ok, _ := NewModerator(nil).Allowed("hack the planet")
	assert.True(t, ok)

	var nilModerator *Moderator
	ok, _ = nilModerator.Allowed("hack the planet")
	assert.True(t, ok)
}
