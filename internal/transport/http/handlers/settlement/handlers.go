package settlementhandler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"earnedpay/internal/domain/auth"
	"earnedpay/internal/domain/settlement"
	"earnedpay/internal/transport/http/api"
	"earnedpay/internal/transport/http/middleware"
	"earnedpay/internal/transport/http/shared"
)

type Service interface {
	List(ctx context.Context, employerID string, limit int) ([]settlement.Summary, error)
	Process(ctx context.Context, employerID, month string) (settlement.Result, error)
	Statement(ctx context.Context, employerID, id string, w io.Writer) error
}

type Handler struct {
	Service Service
	Roles   middleware.RoleLookup
}

func NewHandler(service Service, roles middleware.RoleLookup) *Handler {
	return &Handler{Service: service, Roles: roles}
}

type processRequest struct {
	Month string `json:"month"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/settlements", func(r chi.Router) {
		r.Use(middleware.RequireUser(h.Roles))
		r.With(middleware.RequirePermission(auth.PermSettlementsRead)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermSettlementsProcess)).Post("/process", h.handleProcess)
		r.With(middleware.RequirePermission(auth.PermSettlementsRead)).Get("/{settlementID}/statement", h.handleStatement)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	limit := shared.ParseLimit(r, settlement.DefaultListLimit, settlement.MaxListLimit)
	items, err := h.Service.List(r.Context(), user.UID, limit)
	if err != nil {
		writeError(w, r, "", err)
		return
	}
	if items == nil {
		items = []settlement.Summary{}
	}
	api.OK(w, map[string]any{"settlements": items})
}

// handleProcess takes the month from the JSON body or, for older clients,
// from ?month=.
func (h *Handler) handleProcess(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var payload processRequest
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}
	if payload.Month == "" {
		payload.Month = r.URL.Query().Get("month")
	}
	v := shared.NewValidator()
	v.Required("month", payload.Month)
	if v.Reject(w, reqID) {
		return
	}

	result, err := h.Service.Process(r.Context(), user.UID, payload.Month)
	if err != nil {
		writeError(w, r, payload.Month, err)
		return
	}
	api.OK(w, result)
}

func (h *Handler) handleStatement(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	id := chi.URLParam(r, "settlementID")

	var buf bytes.Buffer
	if err := h.Service.Statement(r.Context(), user.UID, id, &buf); err != nil {
		writeError(w, r, "", err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="settlement-`+id+`.pdf"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Warn("write statement failed", "settlement_id", id, "err", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, month string, err error) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, settlement.ErrNoActiveLedgers):
		api.Fail(w, http.StatusNotFound, "no_active_ledgers", "No active ledgers found for "+month, reqID)
	case errors.Is(err, settlement.ErrInvalidMonth):
		api.Fail(w, http.StatusBadRequest, "invalid_month", "Month must be in YYYY-MM format", reqID)
	case errors.Is(err, settlement.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "Settlement not found", reqID)
	default:
		slog.Error("settlement request failed", "path", r.URL.Path, "err", err)
		api.Fail(w, http.StatusInternalServerError, "internal_error", "Internal server error", reqID)
	}
}
