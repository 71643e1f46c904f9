package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// maxTrackedClients caps the limiter map so a spray of spoofed
	// source addresses cannot grow it without bound.
	maxTrackedClients = 10000

	staleAfter = 5 * time.Minute
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles requests per client IP using token buckets.
// This is plain throughput protection in front of the service; it is
// unrelated to the card-testing detection inside the request path.
type RateLimiter struct {
	mu       sync.Mutex
	clients  map[string]*clientLimiter
	rps      rate.Limit
	burst    int
	logger   *zap.Logger
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter creates a per-IP limiter allowing requestsPerSecond
// sustained with the given burst, and starts its eviction loop.
func NewRateLimiter(requestsPerSecond float64, burst int, logger *zap.Logger) *RateLimiter {
	rl := &RateLimiter{
		clients: make(map[string]*clientLimiter),
		rps:     rate.Limit(requestsPerSecond),
		burst:   burst,
		logger:  logger,
		stopCh:  make(chan struct{}),
	}
	go rl.evictLoop()
	return rl
}

// Shutdown stops the eviction goroutine.
func (rl *RateLimiter) Shutdown() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// Middleware rejects requests over the per-IP budget with 429.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(clientKey(r)) {
			w.Header().Set("Retry-After", "1")
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientKey buckets by remote host, ignoring the ephemeral port.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (rl *RateLimiter) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	client, ok := rl.clients[key]
	if !ok {
		if len(rl.clients) >= maxTrackedClients {
			rl.evictOldestLocked()
		}
		client = &clientLimiter{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.clients[key] = client
	}
	client.lastSeen = time.Now()

	return client.limiter.Allow()
}

func (rl *RateLimiter) evictOldestLocked() {
	var oldestKey string
	var oldestSeen time.Time
	for key, client := range rl.clients {
		if oldestKey == "" || client.lastSeen.Before(oldestSeen) {
			oldestKey = key
			oldestSeen = client.lastSeen
		}
	}
	if oldestKey != "" {
		delete(rl.clients, oldestKey)
	}
}

func (rl *RateLimiter) evictLoop() {
	ticker := time.NewTicker(staleAfter)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopCh:
			return
		case <-ticker.C:
			rl.evictStale()
		}
	}
}

func (rl *RateLimiter) evictStale() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-staleAfter)
	removed := 0
	for key, client := range rl.clients {
		if client.lastSeen.Before(cutoff) {
			delete(rl.clients, key)
			removed++
		}
	}
	if removed > 0 {
		rl.logger.Debug("Evicted stale client limiters",
			zap.Int("removed", removed),
			zap.Int("remaining", len(rl.clients)),
		)
	}
}
