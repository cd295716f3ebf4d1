package httpx

import (
	"context"
	"net"
	"net/http"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig describes a token-bucket profile for one endpoint class.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// Built-in profiles. Credential endpoints get Strict, authenticated mutation
// endpoints get Moderate, read endpoints get Lenient, health checks Public.
var (
	RateLimitStrict   = RateLimitConfig{RequestsPerSecond: 0.5, Burst: 5}
	RateLimitModerate = RateLimitConfig{RequestsPerSecond: 2, Burst: 10}
	RateLimitLenient  = RateLimitConfig{RequestsPerSecond: 10, Burst: 30}
	RateLimitPublic   = RateLimitConfig{RequestsPerSecond: 50, Burst: 100}
)

// WithEnvOverride returns the config with RATELIMIT_<name>_RPS and
// RATELIMIT_<name>_BURST applied when set.
func (c RateLimitConfig) WithEnvOverride(name string) RateLimitConfig {
	if v := os.Getenv("RATELIMIT_" + name + "_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			c.RequestsPerSecond = f
		}
	}
	if v := os.Getenv("RATELIMIT_" + name + "_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Burst = n
		}
	}
	return c
}

// KeyExtractor derives the bucket key for a request. An empty key skips
// limiting for that request.
type KeyExtractor func(r *http.Request) string

// IPKeyExtractor buckets by client IP, preferring X-Forwarded-For when the
// service runs behind a proxy.
func IPKeyExtractor(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for i := range len(xff) {
			if xff[i] == ',' {
				return xff[:i]
			}
		}
		return xff
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// UserKeyExtractor buckets by authenticated user id, falling back to IP for
// unauthenticated requests.
func UserKeyExtractor(r *http.Request) string {
	if uid, ok := r.Context().Value(CtxKeyUserID).(string); ok && uid != "" {
		return "user:" + uid
	}
	return "ip:" + IPKeyExtractor(r)
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64
}

// limiterStore holds per-key limiters, evicting buckets idle for more than
// idleTTL so the map does not grow without bound.
type limiterStore struct {
	entries sync.Map
	cfg     RateLimitConfig
	idleTTL time.Duration
	ops     atomic.Int64
}

func newLimiterStore(cfg RateLimitConfig) *limiterStore {
	return &limiterStore{cfg: cfg, idleTTL: 10 * time.Minute}
}

func (s *limiterStore) get(key string) *rate.Limiter {
	now := time.Now().UnixNano()

	if v, ok := s.entries.Load(key); ok {
		e := v.(*limiterEntry)
		e.lastSeen.Store(now)
		return e.limiter
	}

	e := &limiterEntry{limiter: rate.NewLimiter(rate.Limit(s.cfg.RequestsPerSecond), s.cfg.Burst)}
	e.lastSeen.Store(now)
	actual, _ := s.entries.LoadOrStore(key, e)

	s.maybeCleanup()
	return actual.(*limiterEntry).limiter
}

// maybeCleanup sweeps idle entries roughly once per 1024 lookups.
func (s *limiterStore) maybeCleanup() {
	if s.ops.Add(1)%1024 != 0 {
		return
	}
	cutoff := time.Now().Add(-s.idleTTL).UnixNano()
	s.entries.Range(func(k, v any) bool {
		if v.(*limiterEntry).lastSeen.Load() < cutoff {
			s.entries.Delete(k)
		}
		return true
	})
}

// RateLimit returns a middleware enforcing cfg per key. Rejected requests
// get a 429 with Retry-After.
func RateLimit(cfg RateLimitConfig, extract KeyExtractor) Middleware {
	store := newLimiterStore(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := extract(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			lim := store.get(key)
			if !lim.Allow() {
				retryAfter := int(1 / cfg.RequestsPerSecond)
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				WriteJSON(w, http.StatusTooManyRequests, &Error{
					Code:    CodeRateLimited,
					Message: "too many requests, slow down",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitByIP is shorthand for RateLimit(cfg, IPKeyExtractor).
func RateLimitByIP(cfg RateLimitConfig) Middleware {
	return RateLimit(cfg, IPKeyExtractor)
}

// RateLimitByUser is shorthand for RateLimit(cfg, UserKeyExtractor).
func RateLimitByUser(cfg RateLimitConfig) Middleware {
	return RateLimit(cfg, UserKeyExtractor)
}

// WithUserID returns a context carrying the authenticated user id.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, CtxKeyUserID, userID)
}

// UserID extracts the authenticated user id, if any.
func UserID(ctx context.Context) (string, bool) {
	uid, ok := ctx.Value(CtxKeyUserID).(string)
	return uid, ok && uid != ""
}
