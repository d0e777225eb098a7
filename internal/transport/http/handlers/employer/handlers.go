package employerhandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"earnedpay/internal/domain/auth"
	"earnedpay/internal/domain/employer"
	"earnedpay/internal/domain/wage"
	"earnedpay/internal/domain/worker"
	"earnedpay/internal/transport/http/api"
	"earnedpay/internal/transport/http/middleware"
	"earnedpay/internal/transport/http/shared"
)

type Service interface {
	Profile(ctx context.Context, id string) (employer.Employer, error)
	UpdateProfile(ctx context.Context, id string, upd employer.Update) error
	Workers(ctx context.Context, employerID string) ([]worker.Worker, error)
	AddWorker(ctx context.Context, employerID string, w employer.NewWorker) (string, error)
	RecordAttendance(ctx context.Context, employerID string, entries []wage.AttendanceEntry) (employer.AttendanceResult, error)
	Dashboard(ctx context.Context, employerID string) (employer.Dashboard, error)
}

type Handler struct {
	Service Service
	Roles   middleware.RoleLookup
}

func NewHandler(service Service, roles middleware.RoleLookup) *Handler {
	return &Handler{Service: service, Roles: roles}
}

type attendanceRequest struct {
	Entries []wage.AttendanceEntry `json:"entries"`
}

type addWorkerResponse struct {
	Success  bool   `json:"success"`
	WorkerID string `json:"worker_id"`
	Message  string `json:"message"`
}

type statusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/employers", func(r chi.Router) {
		r.Use(middleware.RequireUser(h.Roles))
		r.With(middleware.RequirePermission(auth.PermDashboardRead)).Get("/me", h.handleProfile)
		r.With(middleware.RequirePermission(auth.PermEmployerWrite)).Put("/me", h.handleUpdateProfile)
		r.With(middleware.RequirePermission(auth.PermDashboardRead)).Get("/me/dashboard", h.handleDashboard)
		r.With(middleware.RequirePermission(auth.PermWorkersRead)).Get("/me/workers", h.handleListWorkers)
		r.With(middleware.RequirePermission(auth.PermWorkersWrite)).Post("/me/workers", h.handleAddWorker)
		r.With(middleware.RequirePermission(auth.PermAttendanceWrite)).Post("/attendance", h.handleAttendance)
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

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var payload employer.Update
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}
	if err := h.Service.UpdateProfile(r.Context(), user.UID, payload); err != nil {
		writeError(w, r, err)
		return
	}
	api.OK(w, statusResponse{Success: true, Message: "Profile updated successfully"})
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	dashboard, err := h.Service.Dashboard(r.Context(), user.UID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.OK(w, dashboard)
}

func (h *Handler) handleListWorkers(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	workers, err := h.Service.Workers(r.Context(), user.UID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if workers == nil {
		workers = []worker.Worker{}
	}
	api.OK(w, map[string]any{"workers": workers})
}

func (h *Handler) handleAddWorker(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var payload employer.NewWorker
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}
	v := shared.NewValidator()
	v.Required("full_name", payload.FullName)
	v.Required("phone_number", payload.PhoneNumber)
	v.Required("upi_id", payload.UPIID)
	if v.Reject(w, reqID) {
		return
	}

	id, err := h.Service.AddWorker(r.Context(), user.UID, payload)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Created(w, addWorkerResponse{
		Success:  true,
		WorkerID: id,
		Message:  "Worker " + payload.FullName + " added successfully",
	})
}

func (h *Handler) handleAttendance(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var payload attendanceRequest
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}
	result, err := h.Service.RecordAttendance(r.Context(), user.UID, payload.Entries)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.OK(w, result)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, employer.ErrProfileNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "Employer profile not found", reqID)
	case errors.Is(err, employer.ErrWorkerNotFound):
		api.Fail(w, http.StatusNotFound, "worker_not_found", "Worker not found", reqID)
	case errors.Is(err, employer.ErrEmptyUpdate):
		api.Fail(w, http.StatusBadRequest, "empty_update", "No fields to update", reqID)
	case errors.Is(err, employer.ErrNoEntries):
		api.Fail(w, http.StatusBadRequest, "no_entries", "No attendance entries", reqID)
	case errors.Is(err, employer.ErrInvalidPhone):
		api.Fail(w, http.StatusBadRequest, "invalid_phone", "Phone number must be +91 followed by 10 digits", reqID)
	case errors.Is(err, employer.ErrInvalidWorker),
		errors.Is(err, wage.ErrInvalidAttendance),
		errors.Is(err, wage.ErrInvalidConfig):
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), reqID)
	default:
		slog.Error("employer request failed", "path", r.URL.Path, "err", err)
		api.Fail(w, http.StatusInternalServerError, "internal_error", "Internal server error", reqID)
	}
}
