package anomaly

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kevin07696/payment-experience/pkg/timeutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func testLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t)
}

func accountCSV(rows ...string) []byte {
	content := "AccountId,ExpiryTimestamp\n"
	for _, row := range rows {
		content += row + "\n"
	}
	return []byte(content)
}

func clientIPCSV(rows ...string) []byte {
	content := "ClientIP,ExpiryTimestamp\n"
	for _, row := range rows {
		content += row + "\n"
	}
	return []byte(content)
}

func futureTimestamp() string {
	return timeutil.Now().Add(1 * time.Hour).Format(time.RFC3339)
}

// TestAccessor_Initialize verifies both blocklists load from CSV content
func TestAccessor_Initialize(t *testing.T) {
	accessor := NewAccessor(testLogger(t))

	ok := accessor.InitializeAnomalyDetectionResults(
		accountCSV("blocked-account,"+futureTimestamp()),
		clientIPCSV("192.0.2.10,"+futureTimestamp()),
	)
	require.True(t, ok)

	traceID := uuid.New()
	assert.True(t, accessor.IsMaliciousAccountID(traceID, "blocked-account"))
	assert.True(t, accessor.IsMaliciousClientIP(traceID, "192.0.2.10"))
	assert.False(t, accessor.IsMaliciousAccountID(traceID, "other-account"))
	assert.False(t, accessor.IsMaliciousClientIP(traceID, "192.0.2.11"))
}

// TestAccessor_EmptyKeysNeverMalicious verifies empty lookups always pass
func TestAccessor_EmptyKeysNeverMalicious(t *testing.T) {
	accessor := NewAccessor(testLogger(t))

	ok := accessor.InitializeAnomalyDetectionResults(
		accountCSV(","+futureTimestamp()),
		clientIPCSV(),
	)
	require.True(t, ok)

	traceID := uuid.New()
	assert.False(t, accessor.IsMaliciousAccountID(traceID, ""))
	assert.False(t, accessor.IsMaliciousClientIP(traceID, ""))
}

// TestAccessor_ExpiredEntriesPass verifies lapsed entries no longer block
func TestAccessor_ExpiredEntriesPass(t *testing.T) {
	accessor := NewAccessor(testLogger(t))

	expired := timeutil.Now().Add(-1 * time.Minute).Format(time.RFC3339)
	ok := accessor.InitializeAnomalyDetectionResults(
		accountCSV("stale-account,"+expired),
		clientIPCSV(),
	)
	require.True(t, ok)

	assert.False(t, accessor.IsMaliciousAccountID(uuid.New(), "stale-account"))
}

// TestAccessor_HeaderOnlyAndEmptyContent verifies degenerate files load as empty sets
func TestAccessor_HeaderOnlyAndEmptyContent(t *testing.T) {
	accessor := NewAccessor(testLogger(t))

	ok := accessor.InitializeAnomalyDetectionResults(accountCSV(), []byte(""))
	require.True(t, ok)

	assert.False(t, accessor.IsMaliciousAccountID(uuid.New(), "anything"))
}

// TestAccessor_MalformedTimestampRejectsLoad verifies a bad row fails the whole load
func TestAccessor_MalformedTimestampRejectsLoad(t *testing.T) {
	accessor := NewAccessor(testLogger(t))

	ok := accessor.InitializeAnomalyDetectionResults(
		accountCSV("acct,not-a-timestamp"),
		clientIPCSV(),
	)
	assert.False(t, ok)
}

// TestAccessor_MalformedRowRejectsLoad verifies a short row fails the whole load
func TestAccessor_MalformedRowRejectsLoad(t *testing.T) {
	accessor := NewAccessor(testLogger(t))

	ok := accessor.InitializeAnomalyDetectionResults(
		accountCSV("only-one-field"),
		clientIPCSV(),
	)
	assert.False(t, ok)
}

// TestAccessor_FailedLoadKeepsPreviousSnapshot verifies failed refreshes
// never clear existing blocklists
func TestAccessor_FailedLoadKeepsPreviousSnapshot(t *testing.T) {
	accessor := NewAccessor(testLogger(t))
	traceID := uuid.New()

	ok := accessor.InitializeAnomalyDetectionResults(
		accountCSV("blocked-account,"+futureTimestamp()),
		clientIPCSV("192.0.2.10,"+futureTimestamp()),
	)
	require.True(t, ok)

	ok = accessor.InitializeAnomalyDetectionResults(
		accountCSV("new-account,"+futureTimestamp()),
		clientIPCSV("192.0.2.99,garbage"),
	)
	require.False(t, ok)

	assert.True(t, accessor.IsMaliciousAccountID(traceID, "blocked-account"),
		"account snapshot must not change when the IP file fails to parse")
	assert.False(t, accessor.IsMaliciousAccountID(traceID, "new-account"))
	assert.True(t, accessor.IsMaliciousClientIP(traceID, "192.0.2.10"))
}

// TestAccessor_DuplicateKeysKeepLatestExpiry verifies duplicate rows resolve
// to the furthest expiry
func TestAccessor_DuplicateKeysKeepLatestExpiry(t *testing.T) {
	accessor := NewAccessor(testLogger(t))

	expired := timeutil.Now().Add(-1 * time.Minute).Format(time.RFC3339)
	ok := accessor.InitializeAnomalyDetectionResults(
		accountCSV(
			fmt.Sprintf("acct,%s", expired),
			fmt.Sprintf("acct,%s", futureTimestamp()),
		),
		clientIPCSV(),
	)
	require.True(t, ok)

	assert.True(t, accessor.IsMaliciousAccountID(uuid.New(), "acct"))
}
