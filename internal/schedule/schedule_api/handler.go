package schedule_api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-venue-booking/internal/auth"
	"ms-venue-booking/internal/logger"
	"ms-venue-booking/internal/schedule"
	"ms-venue-booking/internal/utils"
)

type Handler struct {
	Service *schedule.Service
	Logger  *logger.Logger
}

func NewHandler(svc *schedule.Service, log *logger.Logger) *Handler {
	return &Handler{Service: svc, Logger: log}
}

// RegisterRoutes mounts on /orders/{orderId}/schedules.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(auth.Require(auth.ReadSchedule)).Get("/", h.List)
	r.With(auth.Require(auth.CreateSchedule)).Post("/", h.Create)
	r.With(auth.Require(auth.DeleteSchedule)).Delete("/{scheduleId}", h.Delete)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	views, err := h.Service.List(r.Context(), chi.URLParam(r, "orderId"))
	if err != nil {
		utils.WriteError(w, "Failed to list schedules", err)
		return
	}
	utils.WriteOK(w, "Schedules retrieved", views)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req schedule.BulkRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, "Invalid request body", err)
		return
	}
	rows, err := h.Service.CreateBulk(r.Context(), chi.URLParam(r, "orderId"), req)
	if err != nil {
		utils.WriteError(w, "Failed to create schedules", err)
		return
	}
	utils.WriteCreated(w, "Schedules created", rows)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), chi.URLParam(r, "orderId"), chi.URLParam(r, "scheduleId")); err != nil {
		utils.WriteError(w, "Failed to delete schedule", err)
		return
	}
	utils.WriteOK(w, "Schedule deleted", nil)
}
