package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"solvo/internal/domain/auth"
)

type rolePerms map[string][]string

func (p rolePerms) HasPermission(_ context.Context, role, permission string) (bool, error) {
	if role == "broken" {
		return false, errors.New("store down")
	}
	for _, granted := range p[role] {
		if granted == permission {
			return true, nil
		}
	}
	return false, nil
}

func TestRequirePermission(t *testing.T) {
	perms := rolePerms{auth.RoleManager: {auth.PermWorkspaceWrite}}
	guarded := RequirePermission(auth.PermWorkspaceWrite, perms)(noContent)

	cases := []struct {
		name string
		role string
		want int
	}{
		{"anonymous", "", http.StatusUnauthorized},
		{"granted", auth.RoleManager, http.StatusNoContent},
		{"denied", auth.RoleViewer, http.StatusForbidden},
		{"store error", "broken", http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/team/members", nil)
			if tc.role != "" {
				req = req.WithContext(WithUser(req.Context(), auth.UserContext{UserID: "u1", Role: tc.role}))
			}
			assert.Equal(t, tc.want, serve(guarded, req).Code)
		})
	}
}

func TestSecureHeaders(t *testing.T) {
	rec := serve(SecureHeaders(true)(noContent), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))

	rec = serve(SecureHeaders(false)(noContent), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
}
