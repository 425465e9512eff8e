package catalog_api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-venue-booking/internal/auth"
	"ms-venue-booking/internal/catalog"
	"ms-venue-booking/internal/logger"
	"ms-venue-booking/internal/utils"
)

type Handler struct {
	Service *catalog.Service
	Logger  *logger.Logger
}

func NewHandler(svc *catalog.Service, log *logger.Logger) *Handler {
	return &Handler{Service: svc, Logger: log}
}

// RegisterDepartmentRoutes mounts under /departments.
func (h *Handler) RegisterDepartmentRoutes(r chi.Router) {
	r.With(auth.Require(auth.ReadDepartment)).Get("/", h.ListDepartments)
	r.With(auth.Require(auth.CreateDepartment)).Post("/", h.CreateDepartment)
	r.With(auth.Require(auth.ReadDepartment)).Get("/{id}", h.GetDepartment)
	r.With(auth.Require(auth.UpdateDepartment)).Put("/{id}", h.UpdateDepartment)
	r.With(auth.Require(auth.DeleteDepartment)).Delete("/{id}", h.DeleteDepartment)
}

// RegisterPackageRoutes mounts under /packages.
func (h *Handler) RegisterPackageRoutes(r chi.Router) {
	r.With(auth.Require(auth.ReadPackage)).Get("/", h.ListPackages)
	r.With(auth.Require(auth.CreatePackage)).Post("/", h.CreatePackage)
	r.With(auth.Require(auth.ReadPackage)).Get("/{id}", h.GetPackage)
	r.With(auth.Require(auth.UpdatePackage)).Put("/{id}", h.UpdatePackage)
	r.With(auth.Require(auth.DeletePackage)).Delete("/{id}", h.DeletePackage)
}

func (h *Handler) ListDepartments(w http.ResponseWriter, r *http.Request) {
	depts, err := h.Service.ListDepartments(r.Context())
	if err != nil {
		utils.WriteError(w, "Failed to list departments", err)
		return
	}
	utils.WriteOK(w, "Departments retrieved", depts)
}

func (h *Handler) GetDepartment(w http.ResponseWriter, r *http.Request) {
	d, err := h.Service.GetDepartment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteError(w, "Department not found", err)
		return
	}
	utils.WriteOK(w, "Department retrieved", d)
}

func (h *Handler) CreateDepartment(w http.ResponseWriter, r *http.Request) {
	var in catalog.DepartmentInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.WriteError(w, "Invalid request body", err)
		return
	}
	d, err := h.Service.CreateDepartment(r.Context(), in)
	if err != nil {
		utils.WriteError(w, "Failed to create department", err)
		return
	}
	utils.WriteCreated(w, "Department created", d)
}

func (h *Handler) UpdateDepartment(w http.ResponseWriter, r *http.Request) {
	var in catalog.DepartmentInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.WriteError(w, "Invalid request body", err)
		return
	}
	d, err := h.Service.UpdateDepartment(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		utils.WriteError(w, "Failed to update department", err)
		return
	}
	utils.WriteOK(w, "Department updated", d)
}

func (h *Handler) DeleteDepartment(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteDepartment(r.Context(), chi.URLParam(r, "id")); err != nil {
		utils.WriteError(w, "Failed to delete department", err)
		return
	}
	utils.WriteOK(w, "Department deleted", nil)
}

func (h *Handler) ListPackages(w http.ResponseWriter, r *http.Request) {
	pkgs, err := h.Service.ListPackages(r.Context(), r.URL.Query().Get("department_id"))
	if err != nil {
		utils.WriteError(w, "Failed to list packages", err)
		return
	}
	utils.WriteOK(w, "Packages retrieved", pkgs)
}

func (h *Handler) GetPackage(w http.ResponseWriter, r *http.Request) {
	p, err := h.Service.GetPackage(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteError(w, "Package not found", err)
		return
	}
	utils.WriteOK(w, "Package retrieved", p)
}

func (h *Handler) CreatePackage(w http.ResponseWriter, r *http.Request) {
	var in catalog.PackageInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.WriteError(w, "Invalid request body", err)
		return
	}
	p, err := h.Service.CreatePackage(r.Context(), in)
	if err != nil {
		utils.WriteError(w, "Failed to create package", err)
		return
	}
	utils.WriteCreated(w, "Package created", p)
}

func (h *Handler) UpdatePackage(w http.ResponseWriter, r *http.Request) {
	var in catalog.PackageInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.WriteError(w, "Invalid request body", err)
		return
	}
	p, err := h.Service.UpdatePackage(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		utils.WriteError(w, "Failed to update package", err)
		return
	}
	utils.WriteOK(w, "Package updated", p)
}

func (h *Handler) DeletePackage(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeletePackage(r.Context(), chi.URLParam(r, "id")); err != nil {
		utils.WriteError(w, "Failed to delete package", err)
		return
	}
	utils.WriteOK(w, "Package deleted", nil)
}
