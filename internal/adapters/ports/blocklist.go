package ports

import (
	"context"
	"time"
)

// BlocklistRepository is the port to the store of anomaly detection
// results: accounts and client IPs flagged by the offline pipeline, each
// with an expiry after which the flag lapses.
type BlocklistRepository interface {
	// ListBlocklists returns accountID -> expiry and clientIP -> expiry
	// from one consistent snapshot, so a refresh can never pair an old
	// account list with a new IP list.
	ListBlocklists(ctx context.Context) (accounts, clientIPs map[string]time.Time, err error)
}
