package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// BlocklistRepository reads the anomaly detection results written by the
// offline pipeline from PostgreSQL.
type BlocklistRepository struct {
	db     *DBExecutor
	logger *zap.Logger
}

// NewBlocklistRepository creates a new PostgreSQL blocklist repository
func NewBlocklistRepository(db *DBExecutor, logger *zap.Logger) *BlocklistRepository {
	return &BlocklistRepository{
		db:     db,
		logger: logger,
	}
}

// ListBlocklists reads both blocklist tables inside one read-only
// transaction, so the returned maps come from a single snapshot.
func (r *BlocklistRepository) ListBlocklists(ctx context.Context) (map[string]time.Time, map[string]time.Time, error) {
	var accounts, clientIPs map[string]time.Time

	err := r.db.WithReadOnlyTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var err error

		accounts, err = r.listEntries(ctx, tx,
			`SELECT account_id, expires_at FROM blocked_accounts WHERE expires_at > NOW()`)
		if err != nil {
			return fmt.Errorf("list blocked accounts: %w", err)
		}

		clientIPs, err = r.listEntries(ctx, tx,
			`SELECT client_ip, expires_at FROM blocked_client_ips WHERE expires_at > NOW()`)
		if err != nil {
			return fmt.Errorf("list blocked client ips: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	r.logger.Debug("Blocklists loaded",
		zap.Int("accounts", len(accounts)),
		zap.Int("client_ips", len(clientIPs)),
	)

	return accounts, clientIPs, nil
}

func (r *BlocklistRepository) listEntries(ctx context.Context, tx pgx.Tx, query string) (map[string]time.Time, error) {
	rows, err := tx.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	entries := make(map[string]time.Time)
	for rows.Next() {
		var key string
		var expiresAt time.Time
		if err := rows.Scan(&key, &expiresAt); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		entries[key] = expiresAt.UTC()
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate: %w", err)
	}

	return entries, nil
}
