package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var (
	shutdownDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "shutdown_duration_seconds",
		Help:    "Total time taken to shut down gracefully",
		Buckets: []float64{1, 5, 10, 15, 20, 30},
	})

	shutdownErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shutdown_errors_total",
		Help: "Shutdown errors by component",
	}, []string{"component"})
)

// ShutdownFunc shuts down one component, honoring the context deadline.
type ShutdownFunc func(context.Context) error

type component struct {
	name string
	fn   ShutdownFunc
}

// Manager runs registered shutdown functions in reverse registration
// order, so components stop in the opposite order they were started:
// servers stop accepting requests before the background refreshers go
// away, and the database pool closes last.
type Manager struct {
	mu         sync.Mutex
	logger     *zap.Logger
	components []component
	timeout    time.Duration
}

// NewManager creates a manager with an overall shutdown deadline shared
// by all components.
func NewManager(logger *zap.Logger, timeout time.Duration) *Manager {
	return &Manager{
		logger:  logger,
		timeout: timeout,
	}
}

// Register adds a component. Registration order should match startup
// order; shutdown runs the list backwards.
func (m *Manager) Register(name string, fn ShutdownFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.components = append(m.components, component{name: name, fn: fn})
}

// RegisterHTTPServer registers an HTTP server's Shutdown method.
func (m *Manager) RegisterHTTPServer(name string, server interface{ Shutdown(context.Context) error }) {
	m.Register(name, server.Shutdown)
}

// RegisterNoErr registers a shutdown function that cannot fail.
func (m *Manager) RegisterNoErr(name string, fn func()) {
	m.Register(name, func(context.Context) error {
		fn()
		return nil
	})
}

// WaitForShutdown blocks until SIGINT or SIGTERM, then runs Shutdown.
func (m *Manager) WaitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	m.logger.Info("Received shutdown signal",
		zap.String("signal", sig.String()),
		zap.Duration("timeout", m.timeout),
	)

	m.Shutdown()
}

// Shutdown stops every registered component, newest first. Components
// are stopped one at a time under a shared deadline; an error in one
// does not prevent the rest from running.
func (m *Manager) Shutdown() {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	m.mu.Lock()
	components := make([]component, len(m.components))
	copy(components, m.components)
	m.mu.Unlock()

	m.logger.Info("Starting graceful shutdown",
		zap.Int("component_count", len(components)),
	)

	failed := 0
	for i := len(components) - 1; i >= 0; i-- {
		comp := components[i]
		compStart := time.Now()

		if err := comp.fn(ctx); err != nil {
			failed++
			shutdownErrors.WithLabelValues(comp.name).Inc()
			m.logger.Error("Component shutdown failed",
				zap.String("component", comp.name),
				zap.Error(err),
				zap.Duration("elapsed", time.Since(compStart)),
			)
			continue
		}

		m.logger.Debug("Component shut down",
			zap.String("component", comp.name),
			zap.Duration("elapsed", time.Since(compStart)),
		)
	}

	elapsed := time.Since(start)
	shutdownDuration.Observe(elapsed.Seconds())

	if failed > 0 {
		m.logger.Error("Graceful shutdown completed with errors",
			zap.Int("failed", failed),
			zap.Duration("elapsed", elapsed),
		)
		return
	}
	m.logger.Info("Graceful shutdown completed",
		zap.Duration("elapsed", elapsed),
	)
}
