package shared

import (
	"context"
	"net/http"

	"solvo/internal/domain/workspace"
	"solvo/internal/transport/http/api"
	"solvo/internal/transport/http/middleware"
)

type Dispatcher interface {
	Dispatch(ctx context.Context, userID string, action workspace.Action) (workspace.Result, error)
}

// Mutation is the response body of every workspace change. Persisted is
// false when the change is live in memory but could not be stored.
type Mutation struct {
	Item      any  `json:"item,omitempty"`
	Persisted bool `json:"persisted"`
}

// Apply dispatches action for the caller and writes the response with the
// given success status.
func Apply(w http.ResponseWriter, r *http.Request, d Dispatcher, action workspace.Action, status int) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := RequireUser(w, r)
	if !ok {
		return
	}
	res, err := d.Dispatch(r.Context(), user.UserID, action)
	if err != nil {
		WriteError(w, err, requestID)
		return
	}
	api.WriteJSON(w, status, api.Envelope{
		Success:   true,
		Data:      Mutation{Item: res.Value, Persisted: res.Persisted},
		RequestID: requestID,
	})
}
