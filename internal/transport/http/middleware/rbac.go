package middleware

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"solvo/internal/platform/requestctx"
	"solvo/internal/transport/http/api"
)

type PermissionStore interface {
	HasPermission(ctx context.Context, role, permission string) (bool, error)
}

// RequirePermission answers 401 for anonymous callers and 403 when the
// caller's role lacks permission.
func RequirePermission(permission string, store PermissionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := GetRequestID(ctx)
			user, ok := GetUser(ctx)
			if !ok {
				api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
				return
			}
			allowed, err := store.HasPermission(ctx, user.Role, permission)
			switch {
			case err != nil:
				zap.L().Error("permission check failed", append(requestctx.Fields(ctx), zap.String("permission", permission), zap.Error(err))...)
				api.Fail(w, http.StatusInternalServerError, "permission_error", "permission check failed", requestID)
			case !allowed:
				zap.L().Debug("permission denied", append(requestctx.Fields(ctx), zap.String("role", user.Role), zap.String("permission", permission))...)
				api.Fail(w, http.StatusForbidden, "forbidden", "insufficient permissions", requestID)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}
