package order_api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"ms-venue-booking/internal/apperr"
	"ms-venue-booking/internal/auth"
	"ms-venue-booking/internal/calendar"
	"ms-venue-booking/internal/logger"
	"ms-venue-booking/internal/models"
	"ms-venue-booking/internal/order"
	"ms-venue-booking/internal/order/db"
	"ms-venue-booking/internal/utils"
)

type Handler struct {
	OrderService  *order.OrderService
	Logger        *logger.Logger
	MaxUploadSize int64
}

func NewHandler(orderService *order.OrderService, maxUploadSize int64, log *logger.Logger) *Handler {
	return &Handler{
		OrderService:  orderService,
		Logger:        log,
		MaxUploadSize: maxUploadSize,
	}
}

// RegisterRoutes mounts the order endpoints on a router rooted at /orders.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(auth.Require(auth.ReadOrder)).Get("/", h.ListOrders)
	r.With(auth.Require(auth.CreateOrder)).Post("/", h.CreateOrder)
	r.With(auth.Require(auth.ReadOrder)).Get("/availability", h.Availability)

	r.With(auth.Require(auth.ReadOrder)).Get("/{orderId}", h.GetOrder)
	r.With(auth.Require(auth.UpdateOrder)).Put("/{orderId}", h.UpdateOrder)
	r.With(auth.Require(auth.DeleteOrder)).Delete("/{orderId}", h.DeleteOrder)

	r.With(auth.Require(auth.UpdateOrder)).Post("/{orderId}/confirm", h.Confirm)
	r.With(auth.Require(auth.UpdateOrder)).Post("/{orderId}/send-to-approver", h.SendToApprover)
	r.With(auth.Require(auth.AcceptBeo)).Post("/{orderId}/approve", h.Approve)
	r.With(auth.Require(auth.UpdateOrder)).Post("/{orderId}/complete", h.Complete)

	r.With(auth.Require(auth.UpdateOrder)).Post("/{orderId}/attachments", h.UploadAttachment)
	r.With(auth.Require(auth.UpdateOrder)).Delete("/{orderId}/attachments/{attachmentId}", h.DeleteAttachment)
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		utils.WriteError(w, "Invalid filter", err)
		return
	}
	orders, err := h.OrderService.List(r.Context(), f)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListOrders: %v", err))
		utils.WriteError(w, "Failed to list orders", err)
		return
	}
	views := make([]order.View, 0, len(orders))
	for i := range orders {
		views = append(views, order.NewView(&orders[i]))
	}
	utils.WriteOK(w, "Orders retrieved", views)
}

func parseFilter(r *http.Request) (db.ListFilter, error) {
	q := r.URL.Query()
	f := db.ListFilter{
		CustomerID: q.Get("customer_id"),
		Limit:      utils.QueryInt(r, "limit", 50),
		Offset:     utils.QueryInt(r, "offset", 0),
	}
	if v := q.Get("status"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || !models.OrderStatus(n).Valid() {
			return f, apperr.Field("status", "must be 0, 1 or 2")
		}
		st := models.OrderStatus(n)
		f.Status = &st
	}
	if v := q.Get("status_beo"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > int(models.BeoStatusFullyApproved) {
			return f, apperr.Field("status_beo", "must be between 0 and 4")
		}
		st := models.BeoStatus(n)
		f.StatusBeo = &st
	}
	if v := q.Get("month"); v != "" {
		year, month, err := utils.ParseMonth(v, time.Now().UTC())
		if err != nil {
			return f, apperr.Field("month", "must be YYYY-MM")
		}
		f.From, f.To = calendar.MonthBounds(year, month)
	}
	return f, nil
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req order.CreateOrderRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, "Invalid request body", err)
		return
	}
	o, err := h.OrderService.Create(r.Context(), auth.FromContext(r.Context()), req)
	if err != nil {
		h.Logger.Warn("API", fmt.Sprintf("CreateOrder rejected: %v", err))
		utils.WriteError(w, "Failed to create order", err)
		return
	}
	utils.WriteCreated(w, "Order created", order.NewView(o))
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.OrderService.Get(r.Context(), chi.URLParam(r, "orderId"))
	if err != nil {
		utils.WriteError(w, "Order not found", err)
		return
	}
	utils.WriteOK(w, "Order retrieved", order.NewView(o))
}

func (h *Handler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	var req order.UpdateOrderRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, "Invalid request body", err)
		return
	}
	o, err := h.OrderService.Update(r.Context(), auth.FromContext(r.Context()), chi.URLParam(r, "orderId"), req)
	if err != nil {
		h.Logger.Warn("API", fmt.Sprintf("UpdateOrder rejected: %v", err))
		utils.WriteError(w, "Failed to update order", err)
		return
	}
	utils.WriteOK(w, "Order updated", order.NewView(o))
}

func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.OrderService.Delete(r.Context(), auth.FromContext(r.Context()), chi.URLParam(r, "orderId")); err != nil {
		utils.WriteError(w, "Failed to delete order", err)
		return
	}
	utils.WriteOK(w, "Order deleted", nil)
}

// Availability is the client-side pre-check. Create and Update check again.
func (h *Handler) Availability(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, err := h.OrderService.Availability(r.Context(), q.Get("start"), q.Get("end"), utils.QueryList(r, "venue_ids"), q.Get("exclude"))
	if err != nil {
		utils.WriteError(w, "Availability check failed", err)
		return
	}
	utils.WriteOK(w, "Availability checked", res)
}

type transitionFunc func(h *Handler, r *http.Request) (*models.Order, error)

func (h *Handler) runTransition(w http.ResponseWriter, r *http.Request, done string, fn transitionFunc) {
	o, err := fn(h, r)
	if err != nil {
		utils.WriteError(w, "Status change rejected", err)
		return
	}
	utils.WriteOK(w, done, order.NewView(o))
}

func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.runTransition(w, r, "Order confirmed", func(h *Handler, r *http.Request) (*models.Order, error) {
		return h.OrderService.Confirm(r.Context(), auth.FromContext(r.Context()), chi.URLParam(r, "orderId"))
	})
}

func (h *Handler) SendToApprover(w http.ResponseWriter, r *http.Request) {
	h.runTransition(w, r, "BEO sent to approver", func(h *Handler, r *http.Request) (*models.Order, error) {
		return h.OrderService.SendToApprover(r.Context(), auth.FromContext(r.Context()), chi.URLParam(r, "orderId"))
	})
}

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	h.runTransition(w, r, "BEO approved", func(h *Handler, r *http.Request) (*models.Order, error) {
		return h.OrderService.Approve(r.Context(), auth.FromContext(r.Context()), chi.URLParam(r, "orderId"))
	})
}

func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	h.runTransition(w, r, "Order completed", func(h *Handler, r *http.Request) (*models.Order, error) {
		return h.OrderService.MarkComplete(r.Context(), auth.FromContext(r.Context()), chi.URLParam(r, "orderId"))
	})
}

func (h *Handler) UploadAttachment(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadSize)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		utils.WriteError(w, "Invalid upload", apperr.Field("file", "upload is missing or too large"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		utils.WriteError(w, "Invalid upload", apperr.Field("file", "is required"))
		return
	}
	defer file.Close()

	a, err := h.OrderService.AddAttachment(r.Context(), chi.URLParam(r, "orderId"), header.Filename, file)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("UploadAttachment: %v", err))
		utils.WriteError(w, "Failed to upload attachment", err)
		return
	}
	utils.WriteCreated(w, "Attachment uploaded", a)
}

func (h *Handler) DeleteAttachment(w http.ResponseWriter, r *http.Request) {
	err := h.OrderService.DeleteAttachment(r.Context(), chi.URLParam(r, "orderId"), chi.URLParam(r, "attachmentId"))
	if err != nil {
		utils.WriteError(w, "Failed to delete attachment", err)
		return
	}
	utils.WriteOK(w, "Attachment deleted", nil)
}
