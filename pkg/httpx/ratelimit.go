package httpx

import (
	"context"
	"math"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/oncreesaas/oncree/pkg/slogx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RateLimitConfig defines the rate limiting parameters.
type RateLimitConfig struct {
	// RequestsPerWindow is the number of requests allowed in the time window
	RequestsPerWindow int
	// Window is the time window for rate limiting
	Window time.Duration
	// Burst allows for temporary bursts above the steady rate. Only the
	// in-memory store uses it; Redis counts fixed windows.
	Burst int
}

// Rate limit profiles. Each can be overridden via environment variables,
// see init().
var (
	// StrictLimit guards credential and code endpoints: 5 per minute.
	StrictLimit = RateLimitConfig{
		RequestsPerWindow: 5,
		Window:            time.Minute,
		Burst:             5,
	}

	// ModerateLimit for authenticated writes: 20 per minute.
	ModerateLimit = RateLimitConfig{
		RequestsPerWindow: 20,
		Window:            time.Minute,
		Burst:             20,
	}

	// LenientLimit for reads and health probes: 100 per minute.
	LenientLimit = RateLimitConfig{
		RequestsPerWindow: 100,
		Window:            time.Minute,
		Burst:             100,
	}

	// PublicLimit for public cacheable documents such as the JWKS: 1000 per minute.
	PublicLimit = RateLimitConfig{
		RequestsPerWindow: 1000,
		Window:            time.Minute,
		Burst:             1000,
	}
)

func init() {
	// Allow overriding rate limits via environment variables (useful for testing)
	StrictLimit = ParseRateLimitFromEnv("STRICT", StrictLimit)
	ModerateLimit = ParseRateLimitFromEnv("MODERATE", ModerateLimit)
	LenientLimit = ParseRateLimitFromEnv("LENIENT", LenientLimit)
	PublicLimit = ParseRateLimitFromEnv("PUBLIC", PublicLimit)
}

// ParseRateLimitFromEnv reads RATELIMIT_{prefix}_REQUESTS,
// RATELIMIT_{prefix}_WINDOW_SEC and RATELIMIT_{prefix}_BURST over
// defaultConfig. Invalid or non-positive values are ignored.
func ParseRateLimitFromEnv(prefix string, defaultConfig RateLimitConfig) RateLimitConfig {
	config := defaultConfig

	if n, ok := positiveEnvInt("RATELIMIT_" + prefix + "_REQUESTS"); ok {
		config.RequestsPerWindow = n
	}
	if n, ok := positiveEnvInt("RATELIMIT_" + prefix + "_WINDOW_SEC"); ok {
		config.Window = time.Duration(n) * time.Second
	}
	if n, ok := positiveEnvInt("RATELIMIT_" + prefix + "_BURST"); ok {
		config.Burst = n
	}

	return config
}

func positiveEnvInt(key string) (int, bool) {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// RateLimitStore decides whether one more request fits in the bucket named
// key. When it does not, retryAfter says how long until it would.
type RateLimitStore interface {
	Allow(ctx context.Context, key string, cfg RateLimitConfig) (retryAfter time.Duration, ok bool, err error)
}

var rateLimitedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "oncree_http_rate_limited_total",
		Help: "Requests rejected by a rate limit, by route",
	},
	[]string{"route"},
)

// RateLimiter builds rate limiting middleware over a shared store. Buckets
// are scoped to the matched route, so one client exhausting /login does not
// block it from /password/send-code.
type RateLimiter struct {
	store RateLimitStore
}

// NewRateLimiter returns a RateLimiter over store, or over a fresh
// in-memory store when store is nil.
func NewRateLimiter(store RateLimitStore) *RateLimiter {
	if store == nil {
		store = NewMemoryRateLimitStore()
	}
	return &RateLimiter{store: store}
}

// Middleware limits requests grouped by keyExtractor. Requests without a key
// and requests hitting a failing store are let through.
func (l *RateLimiter) Middleware(config RateLimitConfig, keyExtractor KeyExtractor) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			key := keyExtractor(r)
			if key == "" {
				log.Warn("rate limit: unable to extract key, allowing request")
				next.ServeHTTP(w, r)
				return
			}

			route := r.Pattern
			if route == "" {
				route = r.Method + " " + r.URL.Path
			}

			retry, ok, err := l.store.Allow(ctx, route+"|"+key, config)
			if err != nil {
				log.Warn("rate limit store failed, allowing request", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if ok {
				next.ServeHTTP(w, r)
				return
			}

			retryAfter := max(int(math.Ceil(retry.Seconds())), 1)

			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(config.RequestsPerWindow))
			w.Header().Set("X-RateLimit-Window", config.Window.String())

			metricRoute := r.Pattern
			if metricRoute == "" {
				metricRoute = "unmatched"
			}
			rateLimitedTotal.WithLabelValues(metricRoute).Inc()

			log.Warn("rate limit exceeded",
				"key", key,
				"route", route,
				"retry_after", retryAfter,
			)

			WriteJSON(w, http.StatusTooManyRequests, map[string]string{
				"error":             "rate_limited",
				"error_description": "too many requests, try again later",
			})
		})
	}
}

// ByIP limits by client IP address.
func (l *RateLimiter) ByIP(config RateLimitConfig) Middleware {
	return l.Middleware(config, IPKeyExtractor)
}

// ByUser limits by authenticated user id and IP. Must run after
// AuthnMiddleware; unauthenticated requests fall back to the IP alone.
func (l *RateLimiter) ByUser(config RateLimitConfig) Middleware {
	return l.Middleware(config, CompositeKeyExtractor(":",
		UserIDKeyExtractor,
		IPKeyExtractor,
	))
}

// ByIPAndJSONField limits by IP plus a JSON body field. Used to bound
// credential and code attempts per IP and email or challenge.
func (l *RateLimiter) ByIPAndJSONField(config RateLimitConfig, fieldName string) Middleware {
	return l.Middleware(config, CompositeKeyExtractor(":",
		IPKeyExtractor,
		JSONFieldKeyExtractor(fieldName),
	))
}
