package ratelimit

import (
	"testing"

	"github.com/kevin07696/payment-experience/internal/domain"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

func newTestDetector(t *testing.T) *Detector {
	config := DefaultConfig()
	config.PruneInterval = 0
	d := NewDetector(config, zaptest.NewLogger(t))
	t.Cleanup(d.Shutdown)
	return d
}

// warmBaseline records enough anonymous good outcomes to pass warmup.
func warmBaseline(d *Detector, count int) {
	for i := 0; i < count; i++ {
		d.Record("", "", false)
	}
}

// TestDetector_ColdDetectorNeverBlocks verifies the warmup floor
func TestDetector_ColdDetectorNeverBlocks(t *testing.T) {
	d := newTestDetector(t)

	for i := 0; i < 10; i++ {
		d.Record("hot-account", "192.0.2.1", true)
	}

	assert.False(t, d.IsMalicious("hot-account", "192.0.2.1", nil),
		"no blocking decision before the baseline has warmed up")
}

// TestDetector_BlocksFailingAccount verifies the per-account threshold
func TestDetector_BlocksFailingAccount(t *testing.T) {
	d := newTestDetector(t)
	warmBaseline(d, 100)

	for i := 0; i < 6; i++ {
		d.Record("hot-account", "", true)
	}

	assert.True(t, d.IsMalicious("hot-account", "203.0.113.1", nil))
	assert.False(t, d.IsMalicious("calm-account", "203.0.113.1", nil))
}

// TestDetector_BlocksFailingClientIP verifies the per-IP threshold
func TestDetector_BlocksFailingClientIP(t *testing.T) {
	d := newTestDetector(t)
	warmBaseline(d, 100)

	for i := 0; i < 6; i++ {
		d.Record("", "192.0.2.7", true)
	}

	assert.True(t, d.IsMalicious("fresh-account", "192.0.2.7", nil))
	assert.False(t, d.IsMalicious("fresh-account", "192.0.2.8", nil))
}

// TestDetector_BelowCountThresholdPasses verifies a dimension needs the
// minimum outcome count before it can block
func TestDetector_BelowCountThresholdPasses(t *testing.T) {
	d := newTestDetector(t)
	warmBaseline(d, 100)

	for i := 0; i < 5; i++ {
		d.Record("hot-account", "", true)
	}

	assert.False(t, d.IsMalicious("hot-account", "", nil))
}

// TestDetector_BelowFailureRatePasses verifies mixed outcomes under the
// failure threshold do not block
func TestDetector_BelowFailureRatePasses(t *testing.T) {
	d := newTestDetector(t)
	warmBaseline(d, 100)

	// 5 bad of 6 = 83%, under the 85% threshold
	for i := 0; i < 5; i++ {
		d.Record("mixed-account", "", true)
	}
	d.Record("mixed-account", "", false)

	assert.False(t, d.IsMalicious("mixed-account", "", nil))
}

// TestDetector_WhitelistedAccountNeverBlocked verifies synthetic test
// accounts always pass
func TestDetector_WhitelistedAccountNeverBlocked(t *testing.T) {
	d := newTestDetector(t)
	warmBaseline(d, 100)

	whitelisted := DefaultConfig().WhitelistedAccounts[0]
	for i := 0; i < 20; i++ {
		d.Record(whitelisted, "", true)
	}

	assert.False(t, d.IsMalicious(whitelisted, "", nil))
}

// TestDetector_BaselineFailureSuppressesBlocking verifies a system-wide
// failure spike disables blocking
func TestDetector_BaselineFailureSuppressesBlocking(t *testing.T) {
	d := newTestDetector(t)

	// Everything is failing: looks like an outage, not card testing
	for i := 0; i < 120; i++ {
		d.Record("hot-account", "192.0.2.1", true)
	}

	assert.False(t, d.IsMalicious("hot-account", "192.0.2.1", nil))
}

// TestDetector_DisableBaselineCheckFlight verifies the flight restores
// blocking under a failing baseline
func TestDetector_DisableBaselineCheckFlight(t *testing.T) {
	d := newTestDetector(t)

	for i := 0; i < 120; i++ {
		d.Record("hot-account", "192.0.2.1", true)
	}

	flights := domain.ParseFlights(domain.FlightRateLimitDisableBaselineCheck)
	assert.True(t, d.IsMalicious("hot-account", "192.0.2.1", flights))
}

// TestDetector_UnknownDimensionsPass verifies fail-open for unseen values
func TestDetector_UnknownDimensionsPass(t *testing.T) {
	d := newTestDetector(t)
	warmBaseline(d, 200)

	assert.False(t, d.IsMalicious("never-seen", "198.51.100.9", nil))
	assert.False(t, d.IsMalicious("", "", nil))
}

// TestDetector_Prune verifies idle series are evicted
func TestDetector_Prune(t *testing.T) {
	d := newTestDetector(t)

	d.Record("acct-1", "192.0.2.1", false)
	d.Record("acct-2", "192.0.2.2", false)

	d.prune()
	assert.Len(t, d.accounts, 2, "fresh series must survive a prune")

	// Backdate both series past the window
	d.mu.Lock()
	for _, s := range d.accounts {
		s.lastSeen = s.lastSeen.Add(-(numBuckets + 1) * bucketDuration)
	}
	for _, s := range d.clientIPs {
		s.lastSeen = s.lastSeen.Add(-(numBuckets + 1) * bucketDuration)
	}
	d.mu.Unlock()

	d.prune()
	assert.Empty(t, d.accounts)
	assert.Empty(t, d.clientIPs)
}
