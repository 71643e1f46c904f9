package ratelimit

import (
	"sync"
	"time"

	"github.com/kevin07696/payment-experience/internal/domain"
	"github.com/kevin07696/payment-experience/pkg/observability"
	"github.com/kevin07696/payment-experience/pkg/timeutil"
	"go.uber.org/zap"
)

// Config holds detector thresholds.
type Config struct {
	// WarmupMinimum is the number of observed outcomes the baseline must
	// hold before any blocking decision is made.
	WarmupMinimum int64

	// DimensionMinimum is the minimum outcome count a single account or
	// client IP must reach inside the window before it can be blocked.
	DimensionMinimum int64

	// FailureThreshold is the failure rate at or above which a single
	// dimension value is considered malicious.
	FailureThreshold float64

	// BaselineFailureThreshold is the system-wide failure rate at or
	// above which blocking is suppressed, since widespread failures
	// indicate an upstream outage rather than card testing.
	BaselineFailureThreshold float64

	// WhitelistedAccounts are never blocked (synthetic test traffic).
	WhitelistedAccounts []string

	// PruneInterval is how often idle series are evicted.
	PruneInterval time.Duration
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{
		WarmupMinimum:            100,
		DimensionMinimum:         6,
		FailureThreshold:         0.85,
		BaselineFailureThreshold: 0.85,
		WhitelistedAccounts:      []string{"8e342cdc-771b-4b19-84a0-bef4c44911f7"},
		PruneInterval:            30 * time.Minute,
	}
}

// Detector flags card-testing traffic by tracking request outcomes per
// account and per client IP against a system-wide baseline. All checks
// fail open: an empty or cold detector never blocks.
type Detector struct {
	mu        sync.Mutex
	baseline  *series
	accounts  map[string]*series
	clientIPs map[string]*series

	config    Config
	whitelist map[string]bool
	logger    *zap.Logger
	stopCh    chan struct{}
	stopOnce  sync.Once
}

// NewDetector creates a detector and starts its prune goroutine.
func NewDetector(config Config, logger *zap.Logger) *Detector {
	whitelist := make(map[string]bool, len(config.WhitelistedAccounts))
	for _, account := range config.WhitelistedAccounts {
		whitelist[account] = true
	}

	d := &Detector{
		baseline:  &series{},
		accounts:  make(map[string]*series),
		clientIPs: make(map[string]*series),
		config:    config,
		whitelist: whitelist,
		logger:    logger,
		stopCh:    make(chan struct{}),
	}

	if config.PruneInterval > 0 {
		go d.pruneLoop()
	}

	return d
}

// Record adds one request outcome for the given dimensions. Empty
// dimension values contribute to the baseline only.
func (d *Detector) Record(accountID, clientIP string, failed bool) {
	now := timeutil.Now()

	d.mu.Lock()
	defer d.mu.Unlock()

	d.baseline.add(now, failed)
	if accountID != "" {
		d.dimensionSeries(d.accounts, accountID).add(now, failed)
	}
	if clientIP != "" {
		d.dimensionSeries(d.clientIPs, clientIP).add(now, failed)
	}

	if failed {
		observability.RecordRateLimitDataPoint("bad")
	} else {
		observability.RecordRateLimitDataPoint("good")
	}
}

// IsMalicious reports whether the account or client IP should be blocked.
// Whitelisted accounts always pass. No decision is made until the
// baseline has warmed up, and a failing baseline suppresses blocking
// unless the disable-baseline-check flight is on.
func (d *Detector) IsMalicious(accountID, clientIP string, flights *domain.Flights) bool {
	if d.whitelist[accountID] {
		return false
	}

	now := timeutil.Now()

	d.mu.Lock()
	defer d.mu.Unlock()

	baselineRate, baselineTotal := d.baseline.failureRate(now)
	if baselineTotal < d.config.WarmupMinimum {
		return false
	}

	if baselineRate >= d.config.BaselineFailureThreshold &&
		!flights.Enabled(domain.FlightRateLimitDisableBaselineCheck) {
		observability.RecordBaselineSuppression()
		d.logger.Warn("Rate-limit blocking suppressed by baseline failure rate",
			zap.Float64("baseline_failure_rate", baselineRate),
			zap.Int64("baseline_total", baselineTotal),
		)
		return false
	}

	if d.dimensionMalicious(d.accounts[accountID], now) {
		observability.RecordRateLimitBlock("account")
		d.logger.Warn("Account flagged by rate-limit detector",
			zap.String("account_id", accountID),
		)
		return true
	}

	if d.dimensionMalicious(d.clientIPs[clientIP], now) {
		observability.RecordRateLimitBlock("client_ip")
		d.logger.Warn("Client IP flagged by rate-limit detector",
			zap.String("client_ip", clientIP),
		)
		return true
	}

	return false
}

// Shutdown stops the prune goroutine.
func (d *Detector) Shutdown() {
	d.stopOnce.Do(func() {
		close(d.stopCh)
	})
}

func (d *Detector) dimensionSeries(store map[string]*series, key string) *series {
	s, ok := store[key]
	if !ok {
		s = &series{}
		store[key] = s
	}
	return s
}

func (d *Detector) dimensionMalicious(s *series, now time.Time) bool {
	if s == nil {
		return false
	}
	rate, total := s.failureRate(now)
	return total >= d.config.DimensionMinimum && rate >= d.config.FailureThreshold
}

func (d *Detector) pruneLoop() {
	ticker := time.NewTicker(d.config.PruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.stopCh:
			return
		case <-ticker.C:
			d.prune()
		}
	}
}

// prune evicts series whose last outcome has aged out of the window.
func (d *Detector) prune() {
	cutoff := timeutil.Now().Add(-numBuckets * bucketDuration)

	d.mu.Lock()
	defer d.mu.Unlock()

	removed := 0
	for key, s := range d.accounts {
		if s.lastSeen.Before(cutoff) {
			delete(d.accounts, key)
			removed++
		}
	}
	for key, s := range d.clientIPs {
		if s.lastSeen.Before(cutoff) {
			delete(d.clientIPs, key)
			removed++
		}
	}

	if removed > 0 {
		d.logger.Debug("Pruned idle rate-limit series", zap.Int("removed", removed))
	}
}
