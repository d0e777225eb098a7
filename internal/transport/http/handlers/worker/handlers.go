package workerhandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"earnedpay/internal/domain/auth"
	"earnedpay/internal/domain/wage"
	"earnedpay/internal/domain/worker"
	"earnedpay/internal/transport/http/api"
	"earnedpay/internal/transport/http/middleware"
	"earnedpay/internal/transport/http/shared"
)

type Service interface {
	Profile(ctx context.Context, uid string) (worker.Worker, error)
	Balance(ctx context.Context, uid string) (wage.Balance, error)
	Withdrawals(ctx context.Context, uid string, limit int) ([]wage.Withdrawal, error)
	Withdraw(ctx context.Context, p auth.Principal, req wage.WithdrawalRequest) (worker.Receipt, error)
	UpdateUPI(ctx context.Context, uid, upiID string) error
	UpdatePassword(ctx context.Context, uid, password string) error
}

type Handler struct {
	Service     Service
	Roles       middleware.RoleLookup
	Idempotency middleware.IdempotencyBackend
}

func NewHandler(service Service, roles middleware.RoleLookup, idempotency middleware.IdempotencyBackend) *Handler {
	return &Handler{Service: service, Roles: roles, Idempotency: idempotency}
}

type upiRequest struct {
	UPIID string `json:"upi_id"`
}

type passwordRequest struct {
	Password string `json:"password"`
}

type statusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	UPIID   string `json:"upi_id,omitempty"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/workers", func(r chi.Router) {
		r.Use(middleware.RequireUser(h.Roles))
		r.With(middleware.RequirePermission(auth.PermBalanceRead)).Get("/me", h.handleProfile)
		r.With(middleware.RequirePermission(auth.PermBalanceRead)).Get("/me/balance", h.handleBalance)
		r.With(middleware.RequirePermission(auth.PermBalanceRead)).Get("/me/withdrawals", h.handleWithdrawals)
		r.With(
			middleware.RequirePermission(auth.PermWithdraw),
			middleware.Idempotent(h.Idempotency, "workers.withdraw"),
		).Post("/me/withdraw", h.handleWithdraw)
		r.With(middleware.RequirePermission(auth.PermPayoutWrite)).Put("/me/upi", h.handleUpdateUPI)
		r.With(middleware.RequirePermission(auth.PermPasswordWrite)).Put("/me/password", h.handleUpdatePassword)
	})
}

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	profile, err := h.Service.Profile(r.Context(), user.UID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.OK(w, profile)
}

func (h *Handler) handleBalance(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	balance, err := h.Service.Balance(r.Context(), user.UID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.OK(w, balance)
}

func (h *Handler) handleWithdrawals(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	limit := shared.ParseLimit(r, worker.DefaultHistoryLimit, worker.MaxHistoryLimit)
	items, err := h.Service.Withdrawals(r.Context(), user.UID, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []wage.Withdrawal{}
	}
	api.OK(w, map[string]any{"withdrawals": items})
}

func (h *Handler) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var payload wage.WithdrawalRequest
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}
	receipt, err := h.Service.Withdraw(r.Context(), user, payload)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.OK(w, receipt)
}

func (h *Handler) handleUpdateUPI(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var payload upiRequest
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}
	v := shared.NewValidator()
	v.Required("upi_id", payload.UPIID)
	if v.Reject(w, reqID) {
		return
	}
	if err := h.Service.UpdateUPI(r.Context(), user.UID, payload.UPIID); err != nil {
		writeError(w, r, err)
		return
	}
	api.OK(w, statusResponse{Success: true, Message: "UPI ID updated successfully", UPIID: payload.UPIID})
}

func (h *Handler) handleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var payload passwordRequest
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}
	if err := h.Service.UpdatePassword(r.Context(), user.UID, payload.Password); err != nil {
		writeError(w, r, err)
		return
	}
	api.OK(w, statusResponse{Success: true, Message: "Password updated successfully"})
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetRequestID(r.Context())
	var rejection *wage.RejectionError
	switch {
	case errors.As(err, &rejection):
		api.Fail(w, http.StatusBadRequest, string(rejection.Reason), rejection.Message, reqID)
	case errors.Is(err, worker.ErrNoActiveLedger):
		api.Fail(w, http.StatusBadRequest, "no_active_ledger", "No active wage ledger found", reqID)
	case errors.Is(err, worker.ErrProfileNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "Worker profile not found", reqID)
	case errors.Is(err, worker.ErrInvalidUPI):
		api.Fail(w, http.StatusBadRequest, "invalid_upi", "Invalid UPI ID", reqID)
	case errors.Is(err, auth.ErrPasswordTooShort):
		api.Fail(w, http.StatusBadRequest, "password_too_short", "Password must be at least 4 characters", reqID)
	case errors.Is(err, worker.ErrPayoutFailed):
		api.Fail(w, http.StatusInternalServerError, "payout_failed", "Withdrawal processing failed", reqID)
	default:
		slog.Error("worker request failed", "path", r.URL.Path, "err", err)
		api.Fail(w, http.StatusInternalServerError, "internal_error", "Internal server error", reqID)
	}
}
