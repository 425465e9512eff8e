package calendar_api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"ms-venue-booking/internal/apperr"
	"ms-venue-booking/internal/auth"
	"ms-venue-booking/internal/calendar"
	"ms-venue-booking/internal/logger"
	"ms-venue-booking/internal/models"
	"ms-venue-booking/internal/sse"
	"ms-venue-booking/internal/utils"
)

type Handler struct {
	Service   *calendar.Service
	Emitter   *sse.CalendarEventEmitter
	Logger    *logger.Logger
	Heartbeat time.Duration
}

func NewHandler(svc *calendar.Service, emitter *sse.CalendarEventEmitter, log *logger.Logger) *Handler {
	return &Handler{Service: svc, Emitter: emitter, Logger: log, Heartbeat: 25 * time.Second}
}

// RegisterRoutes mounts on /calendar.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Use(auth.Require(auth.ReadCalendar))
	r.Get("/", h.Month)
	r.Get("/stream", h.Stream)
}

func (h *Handler) month(r *http.Request) (int, time.Month, string, error) {
	year, month, err := utils.ParseMonth(r.URL.Query().Get("month"), time.Now().UTC())
	if err != nil {
		return 0, 0, "", apperr.Field("month", "must be YYYY-MM")
	}
	key := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Format(models.MonthLayout)
	return year, month, key, nil
}

func (h *Handler) Month(w http.ResponseWriter, r *http.Request) {
	year, month, _, err := h.month(r)
	if err != nil {
		utils.WriteError(w, "Invalid month", err)
		return
	}
	grid, err := h.Service.Month(r.Context(), year, month)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("Calendar %04d-%02d: %v", year, month, err))
		utils.WriteError(w, "Failed to load calendar", err)
		return
	}
	utils.WriteOK(w, "Calendar retrieved", grid)
}

// Stream pushes an "order" event whenever an order touching the month changes,
// so viewers know to refetch the grid.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	_, _, key, err := h.month(r)
	if err != nil {
		utils.WriteError(w, "Invalid month", err)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Streaming unsupported", ""))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	// streams outlive the server write timeout
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	events := h.Emitter.Subscribe(r.Context(), key)
	h.Logger.Info("SSE", fmt.Sprintf("Calendar viewer subscribed to %s (%d total)", key, h.Emitter.ClientCount(key)))

	fmt.Fprintf(w, "event: ready\ndata: {\"month\":%q}\n\n", key)
	flusher.Flush()

	ticker := time.NewTicker(h.Heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			h.Logger.Info("SSE", fmt.Sprintf("Calendar viewer left %s", key))
			return
		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case ev, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: order\ndata: %s\n\n", data)
			flusher.Flush()
		}
	}
}
