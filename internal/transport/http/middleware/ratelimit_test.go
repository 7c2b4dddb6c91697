package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solvo/internal/domain/auth"
)

var noContent = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func asUser(req *http.Request, userID string) *http.Request {
	return req.WithContext(WithUser(req.Context(), auth.UserContext{UserID: userID, Role: auth.RoleManager}))
}

func loginRequest(email, remote string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"`+email+`"}`))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = remote
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimitKeysOnUserBeforeIP(t *testing.T) {
	limited := RateLimit(1, time.Minute)(noContent)

	first := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/performance/end-week", nil), "user-1")
	first.RemoteAddr = "198.51.100.11:2222"
	assert.Equal(t, http.StatusNoContent, serve(limited, first).Code)

	second := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/performance/end-week", nil), "user-1")
	second.RemoteAddr = "198.51.100.12:3333"
	assert.Equal(t, http.StatusTooManyRequests, serve(limited, second).Code)

	other := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/performance/end-week", nil), "user-2")
	other.RemoteAddr = "198.51.100.12:3333"
	assert.Equal(t, http.StatusNoContent, serve(limited, other).Code)
}

func TestRateLimitFallsBackToIP(t *testing.T) {
	limited := RateLimit(1, time.Minute)(noContent)

	assert.Equal(t, http.StatusNoContent, serve(limited, loginRequest("a@example.com", "203.0.113.10:4444")).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(limited, loginRequest("b@example.com", "203.0.113.10:5555")).Code)

	forwarded := loginRequest("c@example.com", "10.0.0.1:80")
	forwarded.Header.Set("X-Forwarded-For", "203.0.113.10, 10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, serve(limited, forwarded).Code)
}

func TestRateLimitWindowReset(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)}
	limited := RateLimit(1, time.Minute, withClock(clock.now))(noContent)

	assert.Equal(t, http.StatusNoContent, serve(limited, loginRequest("a@example.com", "192.0.2.20:1111")).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(limited, loginRequest("a@example.com", "192.0.2.20:1111")).Code)

	clock.advance(time.Minute)
	assert.Equal(t, http.StatusNoContent, serve(limited, loginRequest("a@example.com", "192.0.2.20:1111")).Code)
}

func TestRateLimitReturnsRetryMetadata(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)}
	limited := RateLimit(1, time.Minute, withClock(clock.now))(noContent)

	ok := serve(limited, loginRequest("a@example.com", "192.0.2.30:1234"))
	assert.Equal(t, "1", ok.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", ok.Header().Get("X-RateLimit-Remaining"))

	clock.advance(15 * time.Second)
	rec := serve(limited, loginRequest("a@example.com", "192.0.2.30:1234"))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "45", rec.Header().Get("Retry-After"))
	assert.Equal(t, "45", rec.Header().Get("X-RateLimit-Reset"))
	assert.Contains(t, rec.Body.String(), `"rate_limited"`)
}

func TestSensitiveMutationRateLimitScope(t *testing.T) {
	limited := SensitiveMutationRateLimit(4, time.Minute)(noContent)

	for i := range 6 {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/dashboard", nil)
		req.RemoteAddr = "198.51.100.40:8888"
		assert.Equal(t, http.StatusNoContent, serve(limited, req).Code, "read request %d", i+1)
	}

	for i := range 3 {
		req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/performance/end-week", nil), "lead-1")
		req.RemoteAddr = "198.51.100.41:9999"
		want := http.StatusNoContent
		if i == 2 {
			want = http.StatusTooManyRequests
		}
		assert.Equal(t, want, serve(limited, req).Code, "end-week request %d", i+1)
	}
}

func TestSensitiveLoginLimitKeysOnEmail(t *testing.T) {
	limited := SensitiveMutationRateLimit(4, time.Minute)(noContent)

	assert.Equal(t, http.StatusNoContent, serve(limited, loginRequest("Lead@Example.com", "198.51.100.50:1")).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(limited, loginRequest("lead@example.com", "198.51.100.51:1")).Code)
}

func TestSensitiveScopeCoversRiskReports(t *testing.T) {
	cases := map[string]sensitiveScope{
		"GET /api/v1/members/m1/ptl":       sensitiveScopeActor,
		"POST /api/v1/ai/assistant":        sensitiveScopeActor,
		"POST /api/v1/data/import":         sensitiveScopeActor,
		"POST /api/v1/auth/login":          sensitiveScopeAuth,
		"GET /api/v1/performance/end-week": sensitiveScopeNone,
		"PUT /api/v1/kpi/progress":         sensitiveScopeNone,
	}
	for route, want := range cases {
		method, path, _ := strings.Cut(route, " ")
		assert.Equal(t, want, sensitiveRateScope(httptest.NewRequest(method, path, nil)), route)
	}
}

func TestActorKeyIgnoresEmptyUser(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(WithUser(context.Background(), auth.UserContext{}))
	req.RemoteAddr = "192.0.2.1:99"
	assert.Equal(t, "192.0.2.1", actorOrIPKey(req))
}
