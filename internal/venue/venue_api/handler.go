package venue_api

import (
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-venue-booking/internal/apperr"
	"ms-venue-booking/internal/auth"
	"ms-venue-booking/internal/logger"
	"ms-venue-booking/internal/utils"
	"ms-venue-booking/internal/venue"
)

type Handler struct {
	Service       *venue.Service
	Logger        *logger.Logger
	MaxUploadSize int64
}

func NewHandler(svc *venue.Service, maxUploadSize int64, log *logger.Logger) *Handler {
	return &Handler{Service: svc, Logger: log, MaxUploadSize: maxUploadSize}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(auth.Require(auth.ReadVenue)).Get("/", h.List)
	r.With(auth.Require(auth.CreateVenue)).Post("/", h.Create)
	r.With(auth.Require(auth.ReadVenue)).Get("/{id}", h.Get)
	r.With(auth.Require(auth.UpdateVenue)).Put("/{id}", h.Update)
	r.With(auth.Require(auth.DeleteVenue)).Delete("/{id}", h.Delete)
	r.With(auth.Require(auth.UpdateVenue)).Post("/{id}/photo", h.UploadPhoto)
	r.With(auth.Require(auth.UpdateVenue)).Post("/{id}/floor-plan", h.UploadFloorPlan)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	venues, err := h.Service.List(r.Context())
	if err != nil {
		utils.WriteError(w, "Failed to list venues", err)
		return
	}
	utils.WriteOK(w, "Venues retrieved", venues)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	v, err := h.Service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteError(w, "Venue not found", err)
		return
	}
	utils.WriteOK(w, "Venue retrieved", v)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in venue.Input
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.WriteError(w, "Invalid request body", err)
		return
	}
	v, err := h.Service.Create(r.Context(), in)
	if err != nil {
		utils.WriteError(w, "Failed to create venue", err)
		return
	}
	utils.WriteCreated(w, "Venue created", v)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var in venue.Input
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.WriteError(w, "Invalid request body", err)
		return
	}
	v, err := h.Service.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		utils.WriteError(w, "Failed to update venue", err)
		return
	}
	utils.WriteOK(w, "Venue updated", v)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		utils.WriteError(w, "Failed to delete venue", err)
		return
	}
	utils.WriteOK(w, "Venue deleted", nil)
}

type uploadFunc func(r *http.Request, name string, body io.Reader) (venue.View, error)

func (h *Handler) upload(w http.ResponseWriter, r *http.Request, what string, fn uploadFunc) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadSize)
	file, header, err := r.FormFile("file")
	if err != nil {
		utils.WriteError(w, "Invalid upload", apperr.Field("file", "is required"))
		return
	}
	defer file.Close()

	v, err := fn(r, header.Filename, file)
	if err != nil {
		h.Logger.Warn("API", fmt.Sprintf("Upload %s for venue %s: %v", what, chi.URLParam(r, "id"), err))
		utils.WriteError(w, "Failed to upload "+what, err)
		return
	}
	utils.WriteOK(w, "Venue "+what+" uploaded", v)
}

func (h *Handler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, "photo", func(r *http.Request, name string, body io.Reader) (venue.View, error) {
		return h.Service.UploadPhoto(r.Context(), chi.URLParam(r, "id"), name, body)
	})
}

func (h *Handler) UploadFloorPlan(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, "floor plan", func(r *http.Request, name string, body io.Reader) (venue.View, error) {
		return h.Service.UploadFloorPlan(r.Context(), chi.URLParam(r, "id"), name, body)
	})
}
