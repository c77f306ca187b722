package http

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	applog "govspend/internal/log"
)

const (
	rateWindow       = time.Minute
	rateStaleAfter   = 10 * time.Minute
	rateCleanupEvery = 5 * time.Minute
)

// rateLimiter is a fixed-window request counter per client IP.
type rateLimiter struct {
	mu           sync.Mutex
	limit        int
	clients      map[string]*clientWindow
	now          func() time.Time
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type clientWindow struct {
	start    time.Time
	requests int
}

func newRateLimiter(perMinute int) *rateLimiter {
	return &rateLimiter{
		limit:       perMinute,
		clients:     make(map[string]*clientWindow),
		now:         time.Now,
		stopCleanup: make(chan struct{}),
	}
}

func (rl *rateLimiter) startCleanup() {
	ticker := time.NewTicker(rateCleanupEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-rl.stopCleanup:
			return
		}
	}
}

func (rl *rateLimiter) cleanupStaleEntries() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-rateStaleAfter)
	removed := 0
	for ip, c := range rl.clients {
		if c.start.Before(cutoff) {
			delete(rl.clients, ip)
			removed++
		}
	}
	return removed
}

func (rl *rateLimiter) stop() {
	rl.shutdownOnce.Do(func() { close(rl.stopCleanup) })
}

// allow counts a request from clientIP and reports whether it fits in the
// current window. The second value is the time until the window resets.
func (rl *rateLimiter) allow(clientIP string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	c, ok := rl.clients[clientIP]
	if !ok || now.Sub(c.start) >= rateWindow {
		rl.clients[clientIP] = &clientWindow{start: now, requests: 1}
		return true, rateWindow
	}

	c.requests++
	reset := rateWindow - now.Sub(c.start)
	return c.requests <= rl.limit, reset
}

// middleware answers 429 with a Retry-After header once a client exceeds
// its budget.
func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := extractClientIP(r)
		ok, reset := rl.allow(clientIP)
		if !ok {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
				applog.FieldClientIP, clientIP,
				applog.FieldPath, r.URL.Path)
			secs := int(reset.Round(time.Second) / time.Second)
			if secs < 1 {
				secs = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			writeJSON(w, r, http.StatusTooManyRequests, errorPayload{Error: errorBody{
				Kind:    "rate_limited",
				Message: "too many requests",
			}})
			return
		}
		next.ServeHTTP(w, r)
	})
}
