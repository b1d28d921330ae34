package bot

import (
	"time"

	"github.com/j0lvera/askrelay/internal/command"
	"github.com/jellydator/ttlcache/v3"
)

// Deduper remembers recently processed origins so a redelivered update is
// not relayed twice.
type Deduper struct {
	cache *ttlcache.Cache[string, struct{}]
}

// NewDeduper creates a Deduper that forgets origins after ttl.
func NewDeduper(ttl time.Duration) *Deduper {
	c := ttlcache.New[string, struct{}](
		ttlcache.WithTTL[string, struct{}](ttl),
		ttlcache.WithDisableTouchOnHit[string, struct{}](),
	)
	go c.Start()
	return &Deduper{cache: c}
}

// Seen records origin and reports whether it was already recorded.
func (d *Deduper) Seen(origin command.Origin) bool {
	if d == nil {
		return false
	}
	_, found := d.cache.GetOrSet(origin.Key(), struct{}{})
	return found
}

// Close stops the cache expiration loop.
func (d *Deduper) Close() {
	if d == nil {
		return
	}
	d.cache.Stop()
}
