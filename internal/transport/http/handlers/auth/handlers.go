package authhandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"earnedpay/internal/domain/auth"
	"earnedpay/internal/transport/http/api"
	"earnedpay/internal/transport/http/middleware"
	"earnedpay/internal/transport/http/shared"
)

type Service interface {
	VerifyToken(ctx context.Context, p auth.Principal, role string) (auth.User, error)
	Me(ctx context.Context, uid string) (auth.User, error)
}

type Handler struct {
	Service Service
	Roles   middleware.RoleLookup
}

func NewHandler(service Service, roles middleware.RoleLookup) *Handler {
	return &Handler{Service: service, Roles: roles}
}

type verifyTokenRequest struct {
	Role string `json:"role"`
}

type verifyTokenResponse struct {
	Success bool      `json:"success"`
	User    auth.User `json:"user"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.With(middleware.RequireIdentity).Post("/verify-token", h.handleVerifyToken)
		r.With(middleware.RequireUser(h.Roles)).Get("/me", h.handleMe)
	})
}

func (h *Handler) handleVerifyToken(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	principal, _ := middleware.GetUser(r.Context())

	payload := verifyTokenRequest{Role: auth.RoleWorker}
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}
	payload.Role = strings.ToLower(strings.TrimSpace(payload.Role))
	v := shared.NewValidator()
	v.Enum("role", payload.Role, []string{auth.RoleWorker, auth.RoleEmployer})
	if v.Reject(w, reqID) {
		return
	}

	user, err := h.Service.VerifyToken(r.Context(), principal, payload.Role)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidRole) {
			api.Fail(w, http.StatusBadRequest, "invalid_role", "role must be worker or employer", reqID)
			return
		}
		slog.Error("verify token failed", "uid", principal.UID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "verify_failed", "Failed to verify user", reqID)
		return
	}
	api.OK(w, verifyTokenResponse{Success: true, User: user})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	principal, _ := middleware.GetUser(r.Context())

	user, err := h.Service.Me(r.Context(), principal.UID)
	if errors.Is(err, auth.ErrUserNotFound) {
		api.Fail(w, http.StatusNotFound, "not_registered", "User not registered", reqID)
		return
	}
	if err != nil {
		slog.Error("load current user failed", "uid", principal.UID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "user_lookup_failed", "Failed to load user", reqID)
		return
	}
	api.OK(w, user)
}
