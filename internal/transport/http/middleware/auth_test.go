package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solvo/internal/domain/auth"
	"solvo/internal/platform/requestctx"
)

func TestAuthMiddlewareSetsUser(t *testing.T) {
	secret := "test-secret"
	token, err := auth.GenerateToken(secret, auth.Claims{UserID: "u1", Email: "lead@example.com", Role: auth.RoleManager}, time.Hour)
	require.NoError(t, err)

	called := false
	handler := Auth(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		user, ok := GetUser(r.Context())
		require.True(t, ok)
		assert.Equal(t, "u1", user.UserID)
		assert.Equal(t, auth.RoleManager, user.Role)
		assert.Equal(t, "u1", requestctx.GetUserID(r.Context()))
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.True(t, called)
}

func TestAuthMiddlewareIgnoresBadTokens(t *testing.T) {
	for _, header := range []string{"", "Bearer", "Basic abc", "Bearer not-a-token"} {
		handler := Auth("secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, ok := GetUser(r.Context())
			assert.False(t, ok, "header %q", header)
		}))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}
}

func TestRequirePermissionUsesRoleTable(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	guarded := RequirePermission(auth.PermDataImport, auth.NewService(nil, "s", time.Hour))(ok)

	rec := httptest.NewRecorder()
	guarded.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req = req.WithContext(WithUser(req.Context(), auth.UserContext{UserID: "u1", Role: auth.RoleManager}))
	rec = httptest.NewRecorder()
	guarded.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/", nil)
	req = req.WithContext(WithUser(req.Context(), auth.UserContext{UserID: "u1", Role: auth.RoleAdmin}))
	rec = httptest.NewRecorder()
	guarded.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRequestIDMiddleware(t *testing.T) {
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, GetRequestID(r.Context()))
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "abc", rec.Header().Get("X-Request-ID"))
}
