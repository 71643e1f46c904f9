package anomaly

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kevin07696/payment-experience/internal/adapters/ports"
	"github.com/kevin07696/payment-experience/pkg/observability"
	"go.uber.org/zap"
)

// Refresher periodically reloads the accessor's blocklists from the
// repository. Refreshes are single-flight: if one is still running when
// the next tick fires, the tick is skipped rather than queued.
type Refresher struct {
	accessor *Accessor
	repo     ports.BlocklistRepository
	interval time.Duration
	logger   *zap.Logger

	refreshing atomic.Bool
	stopCh     chan struct{}
	stopOnce   sync.Once
}

// NewRefresher creates a refresher. Start must be called to begin the
// periodic refresh loop.
func NewRefresher(accessor *Accessor, repo ports.BlocklistRepository, interval time.Duration, logger *zap.Logger) *Refresher {
	return &Refresher{
		accessor: accessor,
		repo:     repo,
		interval: interval,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// Start performs an initial refresh and then launches the refresh loop.
// The initial refresh error is returned so startup can decide whether to
// proceed with empty blocklists.
func (r *Refresher) Start(ctx context.Context) error {
	err := r.RefreshOnce(ctx)

	go func() {
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-r.stopCh:
				return
			case <-ticker.C:
				if err := r.RefreshOnce(context.Background()); err != nil {
					r.logger.Error("Blocklist refresh failed", zap.Error(err))
				}
			}
		}
	}()

	return err
}

// RefreshOnce reloads both blocklists. A refresh already in flight makes
// this call a no-op. A failed load leaves the current snapshots intact.
func (r *Refresher) RefreshOnce(ctx context.Context) error {
	if !r.refreshing.CompareAndSwap(false, true) {
		observability.RecordBlocklistRefresh("skipped")
		r.logger.Debug("Blocklist refresh skipped, previous refresh still running")
		return nil
	}
	defer r.refreshing.Store(false)

	accounts, clientIPs, err := r.repo.ListBlocklists(ctx)
	if err != nil {
		observability.RecordBlocklistRefresh("failed")
		return err
	}

	r.accessor.ReplaceSnapshots(accounts, clientIPs)
	observability.RecordBlocklistRefresh("success")
	return nil
}

// Shutdown stops the refresh loop.
func (r *Refresher) Shutdown() {
	r.stopOnce.Do(func() {
		close(r.stopCh)
	})
}
