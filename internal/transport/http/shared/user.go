package shared

import (
	"net/http"

	"solvo/internal/domain/auth"
	"solvo/internal/transport/http/api"
	"solvo/internal/transport/http/middleware"
)

// RequireUser returns the authenticated caller or writes a 401.
func RequireUser(w http.ResponseWriter, r *http.Request) (auth.UserContext, bool) {
	user, ok := middleware.GetUser(r.Context())
	if !ok || user.UserID == "" {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return auth.UserContext{}, false
	}
	return user, true
}
