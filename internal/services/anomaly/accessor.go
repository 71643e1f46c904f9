package anomaly

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/kevin07696/payment-experience/pkg/observability"
	"github.com/kevin07696/payment-experience/pkg/timeutil"
	"go.uber.org/zap"
)

// Accessor answers "is this account / client IP currently blocked?" from
// periodically refreshed blocklist snapshots. Lookups are lock-free and
// fail-open: a bad refresh leaves the previous snapshots in place.
type Accessor struct {
	accounts  *ExpiryCache
	clientIPs *ExpiryCache
	logger    *zap.Logger
}

// NewAccessor creates an accessor with empty blocklists.
func NewAccessor(logger *zap.Logger) *Accessor {
	return &Accessor{
		accounts:  NewExpiryCache(),
		clientIPs: NewExpiryCache(),
		logger:    logger,
	}
}

// InitializeAnomalyDetectionResults loads both blocklists from CSV
// content. Each file has a single header row and rows of
// "<key>,<RFC 3339 expiry>". Both files must parse completely; on any
// failure neither cache is touched and false is returned, so a corrupt
// upload can never clear an existing blocklist.
func (a *Accessor) InitializeAnomalyDetectionResults(accountCSV, clientIPCSV []byte) bool {
	accountEntries, err := parseBlocklistCSV(accountCSV)
	if err != nil {
		a.logger.Error("Failed to parse account blocklist", zap.Error(err))
		return false
	}

	clientIPEntries, err := parseBlocklistCSV(clientIPCSV)
	if err != nil {
		a.logger.Error("Failed to parse client IP blocklist", zap.Error(err))
		return false
	}

	a.ReplaceSnapshots(accountEntries, clientIPEntries)
	return true
}

// ReplaceSnapshots swaps both blocklists to the given entries.
func (a *Accessor) ReplaceSnapshots(accounts, clientIPs map[string]time.Time) {
	a.accounts.Replace(accounts)
	a.clientIPs.Replace(clientIPs)

	observability.UpdateBlocklistSize("account", float64(a.accounts.Len()))
	observability.UpdateBlocklistSize("client_ip", float64(a.clientIPs.Len()))

	a.logger.Info("Anomaly detection blocklists replaced",
		zap.Int("account_entries", a.accounts.Len()),
		zap.Int("client_ip_entries", a.clientIPs.Len()),
	)
}

// IsMaliciousAccountID reports whether the account is on the live
// blocklist. Empty account IDs are never malicious.
func (a *Accessor) IsMaliciousAccountID(traceID uuid.UUID, accountID string) bool {
	malicious := a.accounts.IsLive(accountID)
	if malicious {
		observability.RecordAnomalyBlock("account")
		a.logger.Warn("Account found on anomaly blocklist",
			zap.String("trace_id", traceID.String()),
			zap.String("account_id", accountID),
		)
	}
	return malicious
}

// IsMaliciousClientIP reports whether the client IP is on the live
// blocklist. Empty IPs are never malicious.
func (a *Accessor) IsMaliciousClientIP(traceID uuid.UUID, clientIP string) bool {
	malicious := a.clientIPs.IsLive(clientIP)
	if malicious {
		observability.RecordAnomalyBlock("client_ip")
		a.logger.Warn("Client IP found on anomaly blocklist",
			zap.String("trace_id", traceID.String()),
			zap.String("client_ip", clientIP),
		)
	}
	return malicious
}

// parseBlocklistCSV reads "<key>,<RFC 3339 expiry>" rows, skipping the
// header. Duplicate keys keep the latest expiry.
func parseBlocklistCSV(content []byte) (map[string]time.Time, error) {
	entries := make(map[string]time.Time)
	if len(bytes.TrimSpace(content)) == 0 {
		return entries, nil
	}

	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = 2

	// Header row
	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return entries, nil
		}
		return nil, fmt.Errorf("read blocklist header: %w", err)
	}

	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read blocklist row %d: %w", line, err)
		}

		expiresAt, err := timeutil.ParseRFC3339(record[1])
		if err != nil {
			return nil, fmt.Errorf("parse expiry on row %d: %w", line, err)
		}

		key := record[0]
		if existing, ok := entries[key]; !ok || expiresAt.After(existing) {
			entries[key] = expiresAt
		}
	}

	return entries, nil
}
