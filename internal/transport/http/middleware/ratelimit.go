package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"solvo/internal/transport/http/api"
)

// maxTrackedClients bounds limiter memory; the least recently seen keys
// are evicted first.
const maxTrackedClients = 10_000

type RateLimitKeyFunc func(r *http.Request) string

type RateLimitOption func(*rateLimiter)

type rateWindow struct {
	count int
	reset time.Time
}

// rateLimiter counts requests per key in fixed windows.
type rateLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	keyFn   RateLimitKeyFunc
	now     func() time.Time
	windows *lru.Cache[string, rateWindow]
}

func WithKeyFunc(fn RateLimitKeyFunc) RateLimitOption {
	return func(rl *rateLimiter) {
		if fn != nil {
			rl.keyFn = fn
		}
	}
}

func withClock(now func() time.Time) RateLimitOption {
	return func(rl *rateLimiter) { rl.now = now }
}

// RateLimit throttles every request by caller, or by client IP when the
// request is anonymous.
func RateLimit(limit int, window time.Duration, opts ...RateLimitOption) func(http.Handler) http.Handler {
	rl := newRateLimiter(limit, window, actorOrIPKey, opts...)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rl.allow(w, r) {
				next.ServeHTTP(w, r)
			}
		})
	}
}

// SensitiveMutationRateLimit adds tighter limits for login attempts and
// for routes that close weeks, replace workspaces or call the model.
func SensitiveMutationRateLimit(baseLimit int, window time.Duration, opts ...RateLimitOption) func(http.Handler) http.Handler {
	loginLimit := max(baseLimit/4, 1)
	limiters := map[sensitiveScope][]*rateLimiter{
		sensitiveScopeAuth: {
			newRateLimiter(loginLimit, window, clientIPKey, opts...),
			newRateLimiter(loginLimit, window, AuthEmailOrIPKey("email"), opts...),
		},
		sensitiveScopeActor: {
			newRateLimiter(max(baseLimit/2, 1), window, actorOrIPKey, opts...),
		},
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, rl := range limiters[sensitiveRateScope(r)] {
				if !rl.allow(w, r) {
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AuthEmailOrIPKey keys on the lower-cased email found in a JSON body
// field, falling back to the client IP.
func AuthEmailOrIPKey(field string) RateLimitKeyFunc {
	field = strings.TrimSpace(field)
	if field == "" {
		field = "email"
	}
	return func(r *http.Request) string {
		if email := peekJSONString(r, field); email != "" {
			return "email:" + strings.ToLower(email)
		}
		return clientIPKey(r)
	}
}

func actorOrIPKey(r *http.Request) string {
	if user, ok := GetUser(r.Context()); ok && user.UserID != "" {
		return "user:" + user.UserID
	}
	return clientIPKey(r)
}

func clientIPKey(r *http.Request) string {
	if first, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ","); strings.TrimSpace(first) != "" {
		return strings.TrimSpace(first)
	}
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil && host != "" {
		return host
	}
	return addr
}

func newRateLimiter(limit int, window time.Duration, keyFn RateLimitKeyFunc, opts ...RateLimitOption) *rateLimiter {
	windows, err := lru.New[string, rateWindow](maxTrackedClients)
	if err != nil {
		panic(err)
	}
	rl := &rateLimiter{
		limit:   limit,
		window:  window,
		keyFn:   keyFn,
		now:     time.Now,
		windows: windows,
	}
	for _, opt := range opts {
		opt(rl)
	}
	return rl
}

// hit counts one request against key and returns the updated window.
func (rl *rateLimiter) hit(key string) rateWindow {
	now := rl.now()
	rl.mu.Lock()
	defer rl.mu.Unlock()
	win, ok := rl.windows.Get(key)
	if !ok || !now.Before(win.reset) {
		win = rateWindow{reset: now.Add(rl.window)}
	}
	win.count++
	rl.windows.Add(key, win)
	return win
}

// allow records the request and writes the rate headers. Over the limit
// it also writes the 429 response and returns false.
func (rl *rateLimiter) allow(w http.ResponseWriter, r *http.Request) bool {
	if rl.limit <= 0 {
		return true
	}
	key := rl.keyFn(r)
	if key == "" {
		key = clientIPKey(r)
	}
	win := rl.hit(key)
	resetIn := ceilSeconds(win.reset.Sub(rl.now()))

	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(rl.limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(max(rl.limit-win.count, 0)))
	h.Set("X-RateLimit-Reset", strconv.Itoa(resetIn))
	if win.count <= rl.limit {
		return true
	}

	h.Set("Retry-After", strconv.Itoa(max(resetIn, 1)))
	zap.L().Warn("rate limit exceeded",
		zap.String("key", key),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("limit", rl.limit),
		zap.Duration("window", rl.window),
	)
	api.Fail(w, http.StatusTooManyRequests, "rate_limited", "too many requests", GetRequestID(r.Context()))
	return false
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}

// peekJSONString reads a top-level string field from a JSON body and
// restores the body for the next handler.
func peekJSONString(r *http.Request, field string) string {
	if r == nil || r.Body == nil || !strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
		return ""
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, 64<<10))
	if err != nil {
		return ""
	}
	r.Body = io.NopCloser(bytes.NewReader(raw))
	var payload map[string]any
	if json.Unmarshal(raw, &payload) != nil {
		return ""
	}
	value, _ := payload[field].(string)
	return strings.TrimSpace(value)
}

type sensitiveScope string

const (
	sensitiveScopeNone  sensitiveScope = ""
	sensitiveScopeAuth  sensitiveScope = "auth"
	sensitiveScopeActor sensitiveScope = "actor"
)

var sensitiveMutations = map[string]sensitiveScope{
	"/auth/login":            sensitiveScopeAuth,
	"/performance/end-week":  sensitiveScopeActor,
	"/performance/snapshots": sensitiveScopeActor,
	"/data/import":           sensitiveScopeActor,
}

func sensitiveRateScope(r *http.Request) sensitiveScope {
	if r == nil {
		return sensitiveScopeNone
	}
	path := strings.TrimPrefix(strings.TrimSpace(r.URL.Path), "/api/v1")
	// Risk reports call the model even on GET.
	if strings.HasPrefix(path, "/members/") && strings.HasSuffix(path, "/ptl") {
		return sensitiveScopeActor
	}
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return sensitiveScopeNone
	}
	if scope, ok := sensitiveMutations[path]; ok {
		return scope
	}
	if strings.HasPrefix(path, "/ai/") {
		return sensitiveScopeActor
	}
	return sensitiveScopeNone
}
