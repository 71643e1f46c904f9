package anomaly

import (
	"sync/atomic"
	"time"

	"github.com/kevin07696/payment-experience/pkg/timeutil"
)

// ExpiryCache is a read-mostly membership store where every entry carries
// its own expiry. Readers see an immutable snapshot; Replace swaps the
// whole snapshot in one atomic store, so lookups never block behind a
// refresh and never observe a half-loaded set.
type ExpiryCache struct {
	snapshot atomic.Pointer[map[string]time.Time]
}

// NewExpiryCache creates an empty cache.
func NewExpiryCache() *ExpiryCache {
	c := &ExpiryCache{}
	empty := make(map[string]time.Time)
	c.snapshot.Store(&empty)
	return c
}

// Replace installs a new snapshot. The caller's map is copied so later
// mutations by the caller cannot leak into readers.
func (c *ExpiryCache) Replace(entries map[string]time.Time) {
	next := make(map[string]time.Time, len(entries))
	for key, expiresAt := range entries {
		next[key] = expiresAt.UTC()
	}
	c.snapshot.Store(&next)
}

// IsLive reports whether key is present and not yet expired. Expiry is
// checked at read time against the current UTC clock, so stale entries
// stop matching the moment they lapse even if no refresh has run.
// Empty keys are never live.
func (c *ExpiryCache) IsLive(key string) bool {
	if key == "" {
		return false
	}
	expiresAt, ok := (*c.snapshot.Load())[key]
	if !ok {
		return false
	}
	return timeutil.Now().Before(expiresAt)
}

// Len returns the number of entries in the current snapshot, expired or
// not. Intended for logging and gauges, not membership decisions.
func (c *ExpiryCache) Len() int {
	return len(*c.snapshot.Load())
}
