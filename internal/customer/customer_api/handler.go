package customer_api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-venue-booking/internal/auth"
	"ms-venue-booking/internal/customer"
	"ms-venue-booking/internal/logger"
	"ms-venue-booking/internal/utils"
)

type Handler struct {
	Service *customer.Service
	Logger  *logger.Logger
}

func NewHandler(svc *customer.Service, log *logger.Logger) *Handler {
	return &Handler{Service: svc, Logger: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(auth.Require(auth.ReadCustomer)).Get("/", h.List)
	r.With(auth.Require(auth.CreateCustomer)).Post("/", h.Create)
	r.With(auth.Require(auth.ReadCustomer)).Get("/{id}", h.Get)
	r.With(auth.Require(auth.UpdateCustomer)).Put("/{id}", h.Update)
	r.With(auth.Require(auth.DeleteCustomer)).Delete("/{id}", h.Delete)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	customers, err := h.Service.List(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		utils.WriteError(w, "Failed to list customers", err)
		return
	}
	utils.WriteOK(w, "Customers retrieved", customers)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.Service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteError(w, "Customer not found", err)
		return
	}
	utils.WriteOK(w, "Customer retrieved", c)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in customer.Input
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.WriteError(w, "Invalid request body", err)
		return
	}
	c, err := h.Service.Create(r.Context(), in)
	if err != nil {
		utils.WriteError(w, "Failed to create customer", err)
		return
	}
	utils.WriteCreated(w, "Customer created", c)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var in customer.Input
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.WriteError(w, "Invalid request body", err)
		return
	}
	c, err := h.Service.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		utils.WriteError(w, "Failed to update customer", err)
		return
	}
	utils.WriteOK(w, "Customer updated", c)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		utils.WriteError(w, "Failed to delete customer", err)
		return
	}
	utils.WriteOK(w, "Customer deleted", nil)
}
