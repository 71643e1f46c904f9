package anomaly

import (
	"sync"
	"testing"
	"time"

	"github.com/kevin07696/payment-experience/pkg/timeutil"
	"github.com/stretchr/testify/assert"
)

// TestExpiryCache_IsLive verifies membership against per-entry expiry
func TestExpiryCache_IsLive(t *testing.T) {
	cache := NewExpiryCache()
	cache.Replace(map[string]time.Time{
		"live-key":    timeutil.Now().Add(1 * time.Hour),
		"expired-key": timeutil.Now().Add(-1 * time.Minute),
	})

	assert.True(t, cache.IsLive("live-key"))
	assert.False(t, cache.IsLive("expired-key"), "expired entries must stop matching at read time")
	assert.False(t, cache.IsLive("missing-key"))
}

// TestExpiryCache_EmptyKey verifies that empty keys are never live
func TestExpiryCache_EmptyKey(t *testing.T) {
	cache := NewExpiryCache()
	cache.Replace(map[string]time.Time{
		"": timeutil.Now().Add(1 * time.Hour),
	})

	assert.False(t, cache.IsLive(""))
}

// TestExpiryCache_Replace verifies the snapshot is swapped wholesale
func TestExpiryCache_Replace(t *testing.T) {
	cache := NewExpiryCache()
	cache.Replace(map[string]time.Time{
		"old-key": timeutil.Now().Add(1 * time.Hour),
	})
	assert.True(t, cache.IsLive("old-key"))

	cache.Replace(map[string]time.Time{
		"new-key": timeutil.Now().Add(1 * time.Hour),
	})

	assert.False(t, cache.IsLive("old-key"), "entries absent from the new snapshot must disappear")
	assert.True(t, cache.IsLive("new-key"))
}

// TestExpiryCache_ReplaceCopiesEntries verifies caller mutations cannot leak in
func TestExpiryCache_ReplaceCopiesEntries(t *testing.T) {
	entries := map[string]time.Time{
		"key": timeutil.Now().Add(1 * time.Hour),
	}

	cache := NewExpiryCache()
	cache.Replace(entries)

	delete(entries, "key")
	entries["injected"] = timeutil.Now().Add(1 * time.Hour)

	assert.True(t, cache.IsLive("key"))
	assert.False(t, cache.IsLive("injected"))
}

// TestExpiryCache_ConcurrentReadsDuringReplace verifies lookups stay
// consistent while the snapshot is being swapped
func TestExpiryCache_ConcurrentReadsDuringReplace(t *testing.T) {
	cache := NewExpiryCache()
	cache.Replace(map[string]time.Time{
		"stable": timeutil.Now().Add(1 * time.Hour),
	})

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			cache.Replace(map[string]time.Time{
				"stable": timeutil.Now().Add(1 * time.Hour),
			})
		}
		close(stop)
	}()

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					assert.True(t, cache.IsLive("stable"))
				}
			}
		}()
	}

	wg.Wait()
}
