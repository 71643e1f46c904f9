package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Anomaly blocklist metrics
	anomalyBlocksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "anomaly_blocks_total",
		Help: "Total requests blocked by the anomaly blocklists",
	}, []string{
		"dimension", // account, client_ip
	})

	blocklistSize = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "anomaly_blocklist_entries",
		Help: "Number of entries in the current blocklist snapshot",
	}, []string{
		"dimension",
	})

	blocklistRefreshesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "anomaly_blocklist_refreshes_total",
		Help: "Total blocklist refresh attempts",
	}, []string{
		"status", // success, failed, skipped
	})

	// Rate-limit detector metrics
	rateLimitBlocksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ratelimit_blocks_total",
		Help: "Total requests blocked by the rate-limit detector",
	}, []string{
		"dimension", // account, client_ip
	})

	rateLimitDataPointsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ratelimit_data_points_total",
		Help: "Total outcome data points recorded by the rate-limit detector",
	}, []string{
		"outcome", // good, bad
	})

	rateLimitBaselineSuppressions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ratelimit_baseline_suppressions_total",
		Help: "Blocks suppressed because the baseline failure rate indicated a system-wide issue",
	})

	// Payment instrument operation metrics
	instrumentOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_instrument_operations_total",
		Help: "Total payment instrument operations by outcome",
	}, []string{
		"operation", // PostModernPI, UpdateModernPI, ResumePendingOperation
		"family",    // payment method family
		"status",    // success, client_action, error, blocked
	})
)

// RecordAnomalyBlock records a request blocked by a blocklist lookup
func RecordAnomalyBlock(dimension string) {
	anomalyBlocksTotal.WithLabelValues(dimension).Inc()
}

// UpdateBlocklistSize updates the snapshot size gauge for a dimension
func UpdateBlocklistSize(dimension string, entries float64) {
	blocklistSize.WithLabelValues(dimension).Set(entries)
}

// RecordBlocklistRefresh records the outcome of a blocklist refresh attempt
func RecordBlocklistRefresh(status string) {
	blocklistRefreshesTotal.WithLabelValues(status).Inc()
}

// RecordRateLimitBlock records a request blocked by the rate-limit detector
func RecordRateLimitBlock(dimension string) {
	rateLimitBlocksTotal.WithLabelValues(dimension).Inc()
}

// RecordRateLimitDataPoint records one outcome data point
func RecordRateLimitDataPoint(outcome string) {
	rateLimitDataPointsTotal.WithLabelValues(outcome).Inc()
}

// RecordBaselineSuppression records a block suppressed by the baseline check
func RecordBaselineSuppression() {
	rateLimitBaselineSuppressions.Inc()
}

// RecordInstrumentOperation records one payment instrument operation
func RecordInstrumentOperation(operation, family, status string) {
	instrumentOperationsTotal.WithLabelValues(operation, family, status).Inc()
}
