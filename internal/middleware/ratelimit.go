package middleware

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	apierrors "haulpulse/internal/errors"
)

const (
	// clientIdleTTL is how long an idle client's limiter is kept.
	clientIdleTTL = 10 * time.Minute
	// sweepInterval bounds how often idle clients are looked for.
	sweepInterval = time.Minute
)

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter limits requests per client IP with a token bucket each.
type RateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*client
	nextSweep time.Time // when idle clients are next evicted
	rps       rate.Limit
	burst     int
	now       func() time.Time

	errors *apierrors.ErrorHandler
	logger *slog.Logger
}

// NewRateLimiter creates a limiter allowing rps requests per second per client
// with the given burst.
func NewRateLimiter(rps float64, burst int, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *RateLimiter {
	return &RateLimiter{
		clients: make(map[string]*client),
		rps:     rate.Limit(rps),
		burst:   burst,
		now:     time.Now,
		errors:  errorHandler,
		logger:  logger.With(slog.String("component", "rate_limiter")),
	}
}

// Handler rejects requests over the client's budget with 429.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientKey(r)
		if lim := rl.limiter(key); !lim.Allow() {
			rl.logger.WarnContext(r.Context(), "rate limit exceeded",
				slog.String("client", key),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path))

			retry := 1
			if rl.rps > 0 {
				retry = int(math.Ceil(1 / float64(rl.rps)))
			}
			w.Header().Set("Retry-After", strconv.Itoa(retry))
			rl.errors.HandleError(w, r, apierrors.ErrRateLimitExceeded)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if !now.Before(rl.nextSweep) {
		rl.sweepLocked(now)
		rl.nextSweep = now.Add(sweepInterval)
	}

	c, ok := rl.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.clients[key] = c
	}
	c.lastSeen = now
	return c.limiter
}

func (rl *RateLimiter) sweepLocked(now time.Time) {
	for k, c := range rl.clients {
		if now.Sub(c.lastSeen) > clientIdleTTL {
			delete(rl.clients, k)
		}
	}
}

// Clients returns the number of tracked clients.
func (rl *RateLimiter) Clients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// clientKey is the request's remote host. chi's RealIP middleware, when
// mounted, has already rewritten RemoteAddr from forwarding headers.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
