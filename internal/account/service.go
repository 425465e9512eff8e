package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"ms-venue-booking/internal/account/db"
	"ms-venue-booking/internal/apperr"
	"ms-venue-booking/internal/auth"
	"ms-venue-booking/internal/config"
	"ms-venue-booking/internal/logger"
	"ms-venue-booking/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrDepartmentNeedsPIC = apperr.Business("only a user with the pic role can belong to a department")
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

type CreateUserRequest struct {
	Name         string   `json:"name" validate:"required,max=255"`
	Email        string   `json:"email" validate:"required,email,max=255"`
	Password     string   `json:"password" validate:"required,min=8,max=72"`
	Roles        []string `json:"roles" validate:"dive,oneof=admin sales kanit pic"`
	DepartmentID *string  `json:"department_id"`
}

type DBLayer interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx *db.DB) error) error
	ListUsers(ctx context.Context, role string) ([]models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	EmailTaken(ctx context.Context, email string) (bool, error)
	DepartmentExists(ctx context.Context, id string) (bool, error)
}

type Service struct {
	DB       DBLayer
	Secret   string
	TokenTTL time.Duration
	Logger   *logger.Logger
}

func NewService(db DBLayer, cfg config.AuthConfig, log *logger.Logger) *Service {
	return &Service{DB: db, Secret: cfg.JWTSecret, TokenTTL: cfg.TokenTTL, Logger: log}
}

// Login checks the password and issues a signed token carrying the user's
// roles and department.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	if err := apperr.Validate(req); err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	u, err := s.DB.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if u == nil {
		s.Logger.LogSecurity("LOGIN_FAILED", "unknown email "+email)
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		s.Logger.LogSecurity("LOGIN_FAILED", "bad password for "+u.ID)
		return nil, ErrInvalidCredentials
	}

	p := Principal(u)
	token, err := auth.GenerateToken(s.Secret, s.TokenTTL, p)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	s.Logger.LogSecurity("LOGIN", u.ID)
	return &LoginResult{Token: token, ExpiresAt: time.Now().Add(s.TokenTTL), User: u}, nil
}

// Principal builds the caller identity a token is issued for.
func Principal(u *models.User) *auth.Principal {
	roles := make([]auth.Role, 0, len(u.Roles))
	for _, name := range u.RoleNames() {
		if r, err := auth.ParseRole(name); err == nil {
			roles = append(roles, r)
		}
	}
	return auth.NewPrincipal(u.ID, roles, u.DepartmentID)
}

func (s *Service) List(ctx context.Context, role string) ([]models.User, error) {
	if role != "" {
		r, err := auth.ParseRole(role)
		if err != nil {
			return nil, apperr.Field("role", err.Error())
		}
		role = string(r)
	}
	return s.DB.ListUsers(ctx, role)
}

func (s *Service) Get(ctx context.Context, id string) (*models.User, error) {
	return s.DB.GetUser(ctx, id)
}

func (s *Service) Create(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := apperr.Validate(req); err != nil {
		return nil, err
	}
	roles := dedupeRoles(req.Roles)
	if req.DepartmentID != nil && *req.DepartmentID == "" {
		req.DepartmentID = nil
	}
	if req.DepartmentID != nil {
		if !contains(roles, string(auth.RolePIC)) {
			return nil, ErrDepartmentNeedsPIC
		}
		if err := checkDepartment(ctx, s.DB, *req.DepartmentID); err != nil {
			return nil, err
		}
	}
	taken, err := s.DB.EmailTaken(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if taken {
		return nil, apperr.Field("email", "is already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &models.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(req.Name),
		Email:        req.Email,
		PasswordHash: string(hash),
		DepartmentID: req.DepartmentID,
	}
	err = s.DB.RunInTx(ctx, func(ctx context.Context, tx *db.DB) error {
		if err := tx.InsertUser(ctx, u); err != nil {
			return fmt.Errorf("insert user: %w", err)
		}
		return tx.InsertRoles(ctx, u.ID, roles)
	})
	if err != nil {
		return nil, err
	}
	s.Logger.Info("ACCOUNT", fmt.Sprintf("Created user %s with roles %v", u.ID, roles))
	return s.DB.GetUser(ctx, u.ID)
}

// AssignRole adds a role the user does not hold yet.
func (s *Service) AssignRole(ctx context.Context, userID, role string) (*models.User, error) {
	r, err := auth.ParseRole(role)
	if err != nil {
		return nil, apperr.Field("role", err.Error())
	}
	return s.modify(ctx, userID, func(ctx context.Context, tx *db.DB, u *models.User) error {
		if contains(u.RoleNames(), string(r)) {
			return apperr.Business("user already has the %s role", r)
		}
		return tx.InsertRoles(ctx, u.ID, []string{string(r)})
	})
}

// RemoveRole drops a held role. Losing pic also detaches the department.
func (s *Service) RemoveRole(ctx context.Context, userID, role string) (*models.User, error) {
	r, err := auth.ParseRole(role)
	if err != nil {
		return nil, apperr.Field("role", err.Error())
	}
	return s.modify(ctx, userID, func(ctx context.Context, tx *db.DB, u *models.User) error {
		if !contains(u.RoleNames(), string(r)) {
			return apperr.Business("user does not have the %s role", r)
		}
		if err := tx.DeleteRole(ctx, u.ID, string(r)); err != nil {
			return err
		}
		if r == auth.RolePIC && u.DepartmentID != nil {
			return tx.SetDepartment(ctx, u.ID, nil)
		}
		return nil
	})
}

func (s *Service) AttachDepartment(ctx context.Context, userID, departmentID string) (*models.User, error) {
	if strings.TrimSpace(departmentID) == "" {
		return nil, apperr.Field("department_id", "is required")
	}
	return s.modify(ctx, userID, func(ctx context.Context, tx *db.DB, u *models.User) error {
		if !contains(u.RoleNames(), string(auth.RolePIC)) {
			return ErrDepartmentNeedsPIC
		}
		if err := checkDepartment(ctx, tx, departmentID); err != nil {
			return err
		}
		return tx.SetDepartment(ctx, u.ID, &departmentID)
	})
}

func (s *Service) DetachDepartment(ctx context.Context, userID string) (*models.User, error) {
	return s.modify(ctx, userID, func(ctx context.Context, tx *db.DB, u *models.User) error {
		if u.DepartmentID == nil {
			return apperr.Business("user does not belong to a department")
		}
		return tx.SetDepartment(ctx, u.ID, nil)
	})
}

func (s *Service) modify(ctx context.Context, userID string, fn func(ctx context.Context, tx *db.DB, u *models.User) error) (*models.User, error) {
	var out *models.User
	err := s.DB.RunInTx(ctx, func(ctx context.Context, tx *db.DB) error {
		u, err := tx.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		if err := fn(ctx, tx, u); err != nil {
			return err
		}
		out, err = tx.GetUser(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.Logger.Info("ACCOUNT", fmt.Sprintf("Updated user %s: roles %v", out.ID, out.RoleNames()))
	return out, nil
}

type departmentChecker interface {
	DepartmentExists(ctx context.Context, id string) (bool, error)
}

func checkDepartment(ctx context.Context, q departmentChecker, id string) error {
	ok, err := q.DepartmentExists(ctx, id)
	if err != nil {
		return fmt.Errorf("check department: %w", err)
	}
	if !ok {
		return apperr.Field("department_id", "does not exist")
	}
	return nil
}

func dedupeRoles(roles []string) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		r = strings.ToLower(r)
		if !contains(out, r) {
			out = append(out, r)
		}
	}
	return out
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
