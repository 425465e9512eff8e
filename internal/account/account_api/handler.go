package account_api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-venue-booking/internal/account"
	"ms-venue-booking/internal/auth"
	"ms-venue-booking/internal/logger"
	"ms-venue-booking/internal/utils"
)

type Handler struct {
	Service *account.Service
	Logger  *logger.Logger
}

func NewHandler(svc *account.Service, log *logger.Logger) *Handler {
	return &Handler{Service: svc, Logger: log}
}

// RegisterAuthRoutes mounts the unauthenticated login endpoint under /auth.
func (h *Handler) RegisterAuthRoutes(r chi.Router) {
	r.Post("/login", h.Login)
}

// RegisterRoutes mounts user management under /users.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(auth.Require(auth.ReadUser)).Get("/", h.List)
	r.With(auth.Require(auth.CreateUser)).Post("/", h.Create)
	r.With(auth.Require(auth.ReadUser)).Get("/{id}", h.Get)
	r.With(auth.Require(auth.UpdateUser)).Post("/{id}/roles", h.AssignRole)
	r.With(auth.Require(auth.UpdateUser)).Delete("/{id}/roles/{role}", h.RemoveRole)
	r.With(auth.Require(auth.UpdateUser)).Put("/{id}/department", h.AttachDepartment)
	r.With(auth.Require(auth.UpdateUser)).Delete("/{id}/department", h.DetachDepartment)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req account.LoginRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, "Invalid request body", err)
		return
	}
	res, err := h.Service.Login(r.Context(), req)
	if errors.Is(err, account.ErrInvalidCredentials) {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.ErrorResponse("Login failed", err.Error()))
		return
	}
	if err != nil {
		utils.WriteError(w, "Login failed", err)
		return
	}
	utils.WriteOK(w, "Logged in", res)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.List(r.Context(), r.URL.Query().Get("role"))
	if err != nil {
		utils.WriteError(w, "Failed to list users", err)
		return
	}
	utils.WriteOK(w, "Users retrieved", users)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	u, err := h.Service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteError(w, "User not found", err)
		return
	}
	utils.WriteOK(w, "User retrieved", u)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req account.CreateUserRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, "Invalid request body", err)
		return
	}
	u, err := h.Service.Create(r.Context(), req)
	if err != nil {
		utils.WriteError(w, "Failed to create user", err)
		return
	}
	utils.WriteCreated(w, "User created", u)
}

func (h *Handler) AssignRole(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Role string `json:"role"`
	}
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, "Invalid request body", err)
		return
	}
	u, err := h.Service.AssignRole(r.Context(), chi.URLParam(r, "id"), req.Role)
	if err != nil {
		utils.WriteError(w, "Failed to assign role", err)
		return
	}
	utils.WriteOK(w, "Role assigned", u)
}

func (h *Handler) RemoveRole(w http.ResponseWriter, r *http.Request) {
	u, err := h.Service.RemoveRole(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "role"))
	if err != nil {
		utils.WriteError(w, "Failed to remove role", err)
		return
	}
	utils.WriteOK(w, "Role removed", u)
}

func (h *Handler) AttachDepartment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DepartmentID string `json:"department_id"`
	}
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, "Invalid request body", err)
		return
	}
	u, err := h.Service.AttachDepartment(r.Context(), chi.URLParam(r, "id"), req.DepartmentID)
	if err != nil {
		utils.WriteError(w, "Failed to attach department", err)
		return
	}
	utils.WriteOK(w, "Department attached", u)
}

func (h *Handler) DetachDepartment(w http.ResponseWriter, r *http.Request) {
	u, err := h.Service.DetachDepartment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteError(w, "Failed to detach department", err)
		return
	}
	utils.WriteOK(w, "Department detached", u)
}
