package analytics_api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"ms-venue-booking/internal/analytics"
	"ms-venue-booking/internal/apperr"
	"ms-venue-booking/internal/auth"
	"ms-venue-booking/internal/logger"
	"ms-venue-booking/internal/utils"
)

// Handler serves the booking reports.
type Handler struct {
	Service *analytics.Service
	Logger  *logger.Logger
}

func NewHandler(service *analytics.Service, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

// RegisterRoutes mounts under /reports.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Use(auth.Require(auth.ReadReport))
	r.Get("/utilization", h.Utilization)
	r.Get("/utilization/range", h.UtilizationRange)
}

// Utilization answers ?month=YYYY-MM, defaulting to the current month.
func (h *Handler) Utilization(w http.ResponseWriter, r *http.Request) {
	year, month, err := utils.ParseMonth(r.URL.Query().Get("month"), time.Now().UTC())
	if err != nil {
		utils.WriteError(w, "Invalid month", apperr.Field("month", err.Error()))
		return
	}
	report, err := h.Service.Utilization(r.Context(), year, month)
	if err != nil {
		h.Logger.Error("ANALYTICS", err.Error())
		utils.WriteError(w, "Failed to build report", err)
		return
	}
	utils.WriteOK(w, "Utilization report", report)
}

// UtilizationRange answers ?from=YYYY-MM&to=YYYY-MM.
func (h *Handler) UtilizationRange(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("from") == "" || q.Get("to") == "" {
		utils.WriteError(w, "Invalid range", &apperr.ValidationError{Fields: map[string]string{
			"from": "is required",
			"to":   "is required",
		}})
		return
	}
	fy, fm, err := utils.ParseMonth(q.Get("from"), time.Time{})
	if err != nil {
		utils.WriteError(w, "Invalid range", apperr.Field("from", err.Error()))
		return
	}
	ty, tm, err := utils.ParseMonth(q.Get("to"), time.Time{})
	if err != nil {
		utils.WriteError(w, "Invalid range", apperr.Field("to", err.Error()))
		return
	}
	reports, err := h.Service.UtilizationRange(r.Context(), fy, fm, ty, tm)
	if err != nil {
		utils.WriteError(w, "Failed to build reports", err)
		return
	}
	utils.WriteOK(w, "Utilization reports", reports)
}
