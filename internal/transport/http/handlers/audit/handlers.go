package audithandler

import (
	"context"
	"encoding/csv"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"earnedpay/internal/domain/audit"
	"earnedpay/internal/domain/auth"
	"earnedpay/internal/transport/http/api"
	"earnedpay/internal/transport/http/middleware"
	"earnedpay/internal/transport/http/shared"
)

const (
	defaultLimit = 50
	maxLimit     = 500
	exportLimit  = 5000
)

type Service interface {
	ListForEntity(ctx context.Context, entityType, entityID string, limit int) ([]audit.Event, error)
}

// Handler serves an employer's own account activity: configuration changes
// and attendance batches.
type Handler struct {
	Service Service
	Roles   middleware.RoleLookup
}

func NewHandler(service Service, roles middleware.RoleLookup) *Handler {
	return &Handler{Service: service, Roles: roles}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/audit", func(r chi.Router) {
		r.Use(middleware.RequireUser(h.Roles))
		r.With(middleware.RequirePermission(auth.PermDashboardRead)).Get("/me", h.handleListEvents)
		r.With(middleware.RequirePermission(auth.PermDashboardRead)).Get("/me/export", h.handleExportEvents)
	})
}

func (h *Handler) handleListEvents(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	limit := shared.ParseLimit(r, defaultLimit, maxLimit)

	events, err := h.Service.ListForEntity(r.Context(), "employer", user.UID, limit)
	if err != nil {
		slog.Error("audit list failed", "uid", user.UID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "audit_list_failed", "failed to list audit events", middleware.GetRequestID(r.Context()))
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	api.OK(w, map[string]any{"events": events})
}

func (h *Handler) handleExportEvents(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	events, err := h.Service.ListForEntity(r.Context(), "employer", user.UID, exportLimit)
	if err != nil {
		slog.Error("audit export failed", "uid", user.UID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "audit_export_failed", "failed to export audit events", middleware.GetRequestID(r.Context()))
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=audit-events.csv")
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"id", "actor_uid", "action", "entity_type", "entity_id", "request_id", "ip", "created_at"}); err != nil {
		slog.Warn("audit export header failed", "err", err)
	}
	for _, evt := range events {
		row := []string{
			strconv.FormatInt(evt.ID, 10), evt.ActorUID, evt.Action, evt.EntityType, evt.EntityID,
			evt.RequestID, evt.IP, evt.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := writer.Write(row); err != nil {
			slog.Warn("audit export row failed", "err", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		slog.Warn("audit export flush failed", "err", err)
	}
}
