package mcp

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	defaultMCPMaxBodyBytes int64 = 1 << 20 // 1MiB
	defaultRateLimitPerMin       = 60

	// buckets idle this long are full again and can be dropped
	bucketIdleTTL   = 10 * time.Minute
	bucketSweepSize = 1024
)

// HTTPHandlerConfig guards the streamable HTTP transport.
type HTTPHandlerConfig struct {
	AuthToken       string
	RateLimitPerMin int
	MaxBodyBytes    int64
}

// wrapHTTPHandler applies, outermost first: bearer auth, per-client rate
// limit, request body cap.
func wrapHTTPHandler(base http.Handler, cfg HTTPHandlerConfig) http.Handler {
	h := withBodyLimit(base, cfg.MaxBodyBytes)
	h = withRateLimit(h, newHTTPRateLimiter(cfg.RateLimitPerMin))
	return withBearerAuth(h, cfg.AuthToken)
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	return strings.TrimSpace(token), true
}

func withBearerAuth(next http.Handler, expected string) http.Handler {
	want := []byte(expected)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			w.Header().Set("WWW-Authenticate", `Bearer realm="`+serverName+`"`)
			writeJSONError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		if len(want) == 0 || token == "" || subtle.ConstantTimeCompare([]byte(token), want) != 1 {
			writeJSONError(w, http.StatusForbidden, "invalid bearer token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func withBodyLimit(next http.Handler, limit int64) http.Handler {
	if limit <= 0 {
		limit = defaultMCPMaxBodyBytes
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, limit)
		}
		next.ServeHTTP(w, r)
	})
}

func withRateLimit(next http.Handler, limiter *httpRateLimiter) http.Handler {
	if limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, wait := limiter.allow(clientKey(r), time.Now())
		if !ok {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientKey identifies a caller by remote host and a digest of its token.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err != nil {
		host = strings.TrimSpace(r.RemoteAddr)
	}
	if host == "" {
		host = "unknown"
	}
	token, _ := bearerToken(r)
	if token == "" {
		return host
	}
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:8]) + "@" + host
}

// httpRateLimiter is a token bucket per client. Capacity equals the
// per-minute allowance and refills continuously.
type httpRateLimiter struct {
	mu       sync.Mutex
	perSec   float64
	capacity float64
	clients  map[string]*bucket
}

type bucket struct {
	tokens float64
	seen   time.Time
}

func newHTTPRateLimiter(perMin int) *httpRateLimiter {
	if perMin <= 0 {
		perMin = defaultRateLimitPerMin
	}
	return &httpRateLimiter{
		perSec:   float64(perMin) / 60,
		capacity: float64(perMin),
		clients:  make(map[string]*bucket),
	}
}

// allow spends one token for key. When empty it reports how long until the
// next token.
func (l *httpRateLimiter) allow(key string, now time.Time) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.clients) >= bucketSweepSize {
		l.sweep(now)
	}

	b, ok := l.clients[key]
	if !ok {
		b = &bucket{tokens: l.capacity, seen: now}
		l.clients[key] = b
	}
	if dt := now.Sub(b.seen).Seconds(); dt > 0 {
		b.tokens = math.Min(l.capacity, b.tokens+dt*l.perSec)
	}
	b.seen = now

	if b.tokens < 1 {
		missing := (1 - b.tokens) / l.perSec
		return false, time.Duration(missing * float64(time.Second))
	}
	b.tokens--
	return true, 0
}

func (l *httpRateLimiter) sweep(now time.Time) {
	for key, b := range l.clients {
		if now.Sub(b.seen) > bucketIdleTTL {
			delete(l.clients, key)
		}
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
