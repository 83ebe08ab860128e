package server

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/54b3r/sbke-go/internal/logging"
)

// Per-client token-bucket defaults applied to the POST routes.
const (
	defaultRateLimit = 10
	defaultRateBurst = 20
)

// Idle clients are forgotten after clientTTL; the sweep runs every sweepEvery.
const (
	clientTTL  = 5 * time.Minute
	sweepEvery = time.Minute
)

// client is one caller's bucket and when it was last used.
type client struct {
	bucket   *rate.Limiter
	lastSeen time.Time
}

// rateLimiter throttles the expensive routes (search, summarize, consensus,
// gaps) per remote IP.
type rateLimiter struct {
	// mu guards clients.
	mu sync.Mutex
	// clients maps remote IP to its bucket.
	clients map[string]*client
	// rps is the sustained rate per client.
	rps rate.Limit
	// burst is the bucket size per client.
	burst int
	// rejected counts 429s by route pattern. May be nil in tests.
	rejected func(route string)
	// now is the clock; replaced in tests.
	now func() time.Time
}

// newRateLimiter starts a limiter and its sweep goroutine. The returned func
// stops the sweep.
func newRateLimiter(rps float64, burst int, log *slog.Logger) (*rateLimiter, func()) {
	rl := &rateLimiter{
		clients: make(map[string]*client),
		rps:     rate.Limit(rps),
		burst:   burst,
		now:     time.Now,
	}
	log.Debug("rate limiter configured", slog.Float64("rps", rps), slog.Int("burst", burst))

	done := make(chan struct{})
	go func() {
		t := time.NewTicker(sweepEvery)
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-t.C:
				rl.sweep()
			}
		}
	}()

	var once sync.Once
	return rl, func() { once.Do(func() { close(done) }) }
}

// allow takes a token from ip's bucket.
func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	c, ok := rl.clients[ip]
	if !ok {
		c = &client{bucket: rate.NewLimiter(rl.rps, rl.burst)}
		rl.clients[ip] = c
	}
	c.lastSeen = rl.now()
	rl.mu.Unlock()
	return c.bucket.Allow()
}

// sweep drops clients idle for longer than clientTTL.
func (rl *rateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-clientTTL)
	for ip, c := range rl.clients {
		if c.lastSeen.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

// size reports how many clients are tracked.
func (rl *rateLimiter) size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// middleware rejects over-limit requests with 429, a Retry-After header and
// a JSON error body.
func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if rl.allow(ip) {
			next.ServeHTTP(w, r)
			return
		}

		logging.FromContext(r.Context()).Warn("rate limit exceeded",
			slog.String("ip", ip),
			slog.String("path", r.URL.Path),
		)
		if rl.rejected != nil {
			rl.rejected(r.Pattern)
		}
		w.Header().Set("Retry-After", strconv.Itoa(rl.retryAfter()))
		writeError(w, r, http.StatusTooManyRequests, "rate limit exceeded")
	})
}

// retryAfter is the whole number of seconds until one token is refilled.
func (rl *rateLimiter) retryAfter() int {
	if rl.rps <= 0 {
		return 1
	}
	return max(1, int(math.Ceil(1/float64(rl.rps))))
}

// clientIP is the host part of RemoteAddr. X-Forwarded-For is not trusted.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
