package observability

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// CheckResult is the outcome of a single dependency check.
type CheckResult struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// HealthStatus aggregates dependency checks into one report.
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks"`
}

// HealthChecker probes the service's dependencies. The blocklist store
// is the only hard dependency; everything else fails open.
type HealthChecker struct {
	dbPool *pgxpool.Pool
}

// NewHealthChecker creates a checker over the given pool. A nil pool
// reports the database as unconfigured rather than unhealthy.
func NewHealthChecker(dbPool *pgxpool.Pool) *HealthChecker {
	return &HealthChecker{dbPool: dbPool}
}

// Check runs all dependency probes with short per-probe timeouts.
func (h *HealthChecker) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Checks:    make(map[string]CheckResult),
	}

	if h.dbPool == nil {
		status.Checks["database"] = CheckResult{Status: "not_configured"}
		return status
	}

	dbCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := h.dbPool.Ping(dbCtx); err != nil {
		status.Status = "unhealthy"
		status.Checks["database"] = CheckResult{Status: "unhealthy", Error: err.Error()}
		return status
	}
	status.Checks["database"] = CheckResult{Status: "healthy"}
	return status
}

// HealthHandler serves the full dependency report.
func (h *HealthChecker) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := h.Check(r.Context())

		w.Header().Set("Content-Type", "application/json")
		if status.Status != "healthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(status)
	}
}

// ReadyHandler answers readiness probes. Readiness tracks health here:
// the service can technically serve with a dead database because the
// anomaly path fails open, but a pod that cannot refresh blocklists
// should not take new traffic if a healthy one can.
func (h *HealthChecker) ReadyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := h.Check(r.Context())
		if status.Status != "healthy" {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ready"))
	}
}
