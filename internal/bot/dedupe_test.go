package bot

import (
	"testing"
	"time"

	"github.com/j0lvera/askrelay/internal/command"
	"github.com/stretchr/testify/assert"
)

func TestDeduperSeen(t *testing.T) {
	d := NewDeduper(time.Minute)
	defer d.Close()

	origin := command.Origin{ChatID: 1, MessageID: 1}
	assert.False(t, d.Seen(origin))
	assert.True(t, d.Seen(origin))
	assert.False(t, d.Seen(command.Origin{ChatID: 1, MessageID: 2}))
	assert.False(t, d.Seen(command.Origin{ChatID: 2, MessageID: 1}))
}

func TestDeduperExpires(t *testing.T) {
	d := NewDeduper(5 * time.Millisecond)
	defer d.Close()

	origin := command.Origin{ChatID: 1, MessageID: 1}
	assert.False(t, d.Seen(origin))
	time.Sleep(20 * time.Millisecond)
	assert.False(t, d.Seen(origin))
}

func TestNilDeduper(t *testing.T) {
	var d *Deduper
	assert.False(t, d.Seen(command.Origin{ChatID: 1}))
	assert.False(t, d.Seen(command.Origin{ChatID: 1}))
	assert.NotPanics(t, d.Close)
}
