package beo_api

import (
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"ms-venue-booking/internal/apperr"
	"ms-venue-booking/internal/auth"
	"ms-venue-booking/internal/beo"
	"ms-venue-booking/internal/logger"
	"ms-venue-booking/internal/utils"
)

type Handler struct {
	Service       *beo.Service
	Logger        *logger.Logger
	MaxUploadSize int64
}

func NewHandler(svc *beo.Service, maxUploadSize int64, log *logger.Logger) *Handler {
	return &Handler{Service: svc, Logger: log, MaxUploadSize: maxUploadSize}
}

// RegisterRoutes mounts on /orders/{orderId}/beos.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(auth.Require(auth.ReadBeo)).Get("/", h.List)
	r.With(auth.Require(auth.CreateBeo)).Post("/", h.Create)
	r.With(auth.Require(auth.UpdateBeo)).Put("/", h.BulkUpsert)
	r.With(auth.Require(auth.ReadBeo)).Get("/sheet.pdf", h.Sheet)
	r.With(auth.Require(auth.UpdateBeo)).Put("/{beoId}", h.Update)
	r.With(auth.Require(auth.DeleteBeo)).Delete("/{beoId}", h.Delete)
	r.With(auth.Require(auth.UpdateBeo)).Delete("/{beoId}/attachments/{attachmentId}", h.DeleteAttachment)
}

// RegisterMineRoutes mounts the person-in-charge view on /beos.
func (h *Handler) RegisterMineRoutes(r chi.Router) {
	r.With(auth.Require(auth.ReadBeoPIC)).Get("/mine", h.Mine)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	beos, err := h.Service.List(r.Context(), chi.URLParam(r, "orderId"))
	if err != nil {
		utils.WriteError(w, "Failed to list BEOs", err)
		return
	}
	utils.WriteOK(w, "BEOs retrieved", beos)
}

func (h *Handler) Mine(w http.ResponseWriter, r *http.Request) {
	beos, err := h.Service.ListForPIC(r.Context(), auth.FromContext(r.Context()))
	if err != nil {
		utils.WriteError(w, "Failed to list BEOs", err)
		return
	}
	utils.WriteOK(w, "BEOs retrieved", beos)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in beo.Input
	files, cleanup, err := h.decode(w, r, &in)
	if err != nil {
		utils.WriteError(w, "Invalid request body", err)
		return
	}
	defer cleanup()

	b, err := h.Service.Create(r.Context(), auth.FromContext(r.Context()), chi.URLParam(r, "orderId"), in, uploads(files["files"]))
	if err != nil {
		h.Logger.Warn("API", fmt.Sprintf("CreateBeo rejected: %v", err))
		utils.WriteError(w, "Failed to create BEO", err)
		return
	}
	utils.WriteCreated(w, "BEO created", b)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var in beo.Input
	files, cleanup, err := h.decode(w, r, &in)
	if err != nil {
		utils.WriteError(w, "Invalid request body", err)
		return
	}
	defer cleanup()

	b, err := h.Service.Update(r.Context(), auth.FromContext(r.Context()), chi.URLParam(r, "orderId"), chi.URLParam(r, "beoId"), in, uploads(files["files"]))
	if err != nil {
		utils.WriteError(w, "Failed to update BEO", err)
		return
	}
	utils.WriteOK(w, "BEO updated", b)
}

// BulkUpsert takes a "payload" JSON field {"beos": [...]} and files for row i
// under the form field "files[i]".
func (h *Handler) BulkUpsert(w http.ResponseWriter, r *http.Request) {
	var req beo.BulkRequest
	files, cleanup, err := h.decode(w, r, &req)
	if err != nil {
		utils.WriteError(w, "Invalid request body", err)
		return
	}
	defer cleanup()
	for i := range req.Beos {
		req.Beos[i].Files = uploads(files[fmt.Sprintf("files[%d]", i)])
	}

	beos, err := h.Service.BulkUpsert(r.Context(), auth.FromContext(r.Context()), chi.URLParam(r, "orderId"), req)
	if err != nil {
		h.Logger.Warn("API", fmt.Sprintf("BulkUpsert rejected: %v", err))
		utils.WriteError(w, "Failed to save BEOs", err)
		return
	}
	utils.WriteOK(w, "BEOs saved", beos)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), auth.FromContext(r.Context()), chi.URLParam(r, "orderId"), chi.URLParam(r, "beoId")); err != nil {
		utils.WriteError(w, "Failed to delete BEO", err)
		return
	}
	utils.WriteOK(w, "BEO deleted", nil)
}

func (h *Handler) DeleteAttachment(w http.ResponseWriter, r *http.Request) {
	err := h.Service.DeleteAttachment(r.Context(), auth.FromContext(r.Context()),
		chi.URLParam(r, "orderId"), chi.URLParam(r, "beoId"), chi.URLParam(r, "attachmentId"))
	if err != nil {
		utils.WriteError(w, "Failed to delete attachment", err)
		return
	}
	utils.WriteOK(w, "Attachment deleted", nil)
}

func (h *Handler) Sheet(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	pdf, err := h.Service.Sheet(r.Context(), orderID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("Sheet %s: %v", orderID, err))
		utils.WriteError(w, "Failed to render BEO sheet", err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=beo-%s.pdf", orderID))
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}

// decode reads v from a JSON body, or from the "payload" field of a multipart
// form whose files are returned by field name.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v interface{}) (map[string][]*multipart.FileHeader, func(), error) {
	noop := func() {}
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return nil, noop, utils.DecodeJSON(r, v)
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadSize)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return nil, noop, apperr.Field("files", "upload is malformed or too large")
	}
	cleanup := func() { r.MultipartForm.RemoveAll() }
	if err := json.Unmarshal([]byte(r.FormValue("payload")), v); err != nil {
		cleanup()
		return nil, noop, apperr.Field("payload", fmt.Sprintf("invalid JSON: %v", err))
	}
	return r.MultipartForm.File, cleanup, nil
}

type lazyFile struct {
	header *multipart.FileHeader
	file   multipart.File
	err    error
}

func (l *lazyFile) Read(p []byte) (int, error) {
	if l.file == nil && l.err == nil {
		l.file, l.err = l.header.Open()
	}
	if l.err != nil {
		return 0, l.err
	}
	n, err := l.file.Read(p)
	if err != nil {
		l.file.Close()
	}
	return n, err
}

// uploads opens each part only when the service reads it.
func uploads(headers []*multipart.FileHeader) []beo.Upload {
	out := make([]beo.Upload, 0, len(headers))
	for _, fh := range headers {
		out = append(out, beo.Upload{Name: fh.Filename, Body: &lazyFile{header: fh}})
	}
	return out
}
