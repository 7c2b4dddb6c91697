package authhandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"solvo/internal/domain/auth"
	"solvo/internal/transport/http/api"
	"solvo/internal/transport/http/middleware"
	"solvo/internal/transport/http/shared"
)

type Handler struct {
	Accounts *auth.Service
	Logger   *zap.Logger
}

func NewHandler(accounts *auth.Service, logger *zap.Logger) *Handler {
	return &Handler{Accounts: accounts, Logger: logger}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/login", h.HandleLogin)
	r.Get("/me", h.handleMe)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload loginRequest
	if !shared.Decode(w, r, &payload, requestID) {
		return
	}

	token, account, err := h.Accounts.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		h.Logger.Info("login rejected", zap.String("requestId", requestID), zap.Error(err))
		shared.WriteError(w, err, requestID)
		return
	}

	api.Success(w, map[string]any{
		"token": token,
		"user":  userResponse{ID: account.ID, Email: account.Email, Role: account.Role},
	}, requestID)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	api.Success(w, map[string]any{
		"user":        userResponse{ID: user.UserID, Email: user.Email, Role: user.Role},
		"permissions": auth.RolePermissions[user.Role],
	}, middleware.GetRequestID(r.Context()))
}
