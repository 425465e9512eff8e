package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"ms-venue-booking/internal/apperr"
	"ms-venue-booking/internal/logger"
	"ms-venue-booking/internal/models"
)

var (
	ErrDepartmentInUse = apperr.Business("department still has packages, staff or BEOs")
	ErrPackageInUse    = apperr.Business("package is used by a BEO")
)

type DepartmentInput struct {
	Name string `json:"name" validate:"required,max=255"`
}

type PackageInput struct {
	DepartmentID string          `json:"department_id" validate:"required"`
	Name         string          `json:"name" validate:"required,max=255"`
	Description  string          `json:"description" validate:"max=5000"`
	Price        decimal.Decimal `json:"price"`
}

type DBLayer interface {
	ListDepartments(ctx context.Context) ([]models.Department, error)
	GetDepartment(ctx context.Context, id string) (*models.Department, error)
	DepartmentNameTaken(ctx context.Context, name, excludeID string) (bool, error)
	InsertDepartment(ctx context.Context, d *models.Department) error
	RenameDepartment(ctx context.Context, id, name string) error
	DepartmentInUse(ctx context.Context, id string) (bool, error)
	DeleteDepartment(ctx context.Context, id string) error

	ListPackages(ctx context.Context, departmentID string) ([]models.Package, error)
	GetPackage(ctx context.Context, id string) (*models.Package, error)
	InsertPackage(ctx context.Context, p *models.Package) error
	UpdatePackage(ctx context.Context, p *models.Package) error
	PackageInUse(ctx context.Context, id string) (bool, error)
	DeletePackage(ctx context.Context, id string) error
}

type Service struct {
	DB     DBLayer
	Logger *logger.Logger
}

func NewService(db DBLayer, log *logger.Logger) *Service {
	return &Service{DB: db, Logger: log}
}

// ---------------- DEPARTMENTS ----------------

func (s *Service) ListDepartments(ctx context.Context) ([]models.Department, error) {
	return s.DB.ListDepartments(ctx)
}

func (s *Service) GetDepartment(ctx context.Context, id string) (*models.Department, error) {
	return s.DB.GetDepartment(ctx, id)
}

func (s *Service) CreateDepartment(ctx context.Context, in DepartmentInput) (*models.Department, error) {
	name, err := s.checkDepartment(ctx, in, "")
	if err != nil {
		return nil, err
	}
	d := &models.Department{ID: uuid.NewString(), Name: name}
	if err := s.DB.InsertDepartment(ctx, d); err != nil {
		return nil, fmt.Errorf("insert department: %w", err)
	}
	s.Logger.Info("CATALOG", fmt.Sprintf("Created department %s", name))
	return d, nil
}

func (s *Service) UpdateDepartment(ctx context.Context, id string, in DepartmentInput) (*models.Department, error) {
	if _, err := s.DB.GetDepartment(ctx, id); err != nil {
		return nil, err
	}
	name, err := s.checkDepartment(ctx, in, id)
	if err != nil {
		return nil, err
	}
	if err := s.DB.RenameDepartment(ctx, id, name); err != nil {
		return nil, fmt.Errorf("rename department: %w", err)
	}
	return s.DB.GetDepartment(ctx, id)
}

func (s *Service) DeleteDepartment(ctx context.Context, id string) error {
	if _, err := s.DB.GetDepartment(ctx, id); err != nil {
		return err
	}
	used, err := s.DB.DepartmentInUse(ctx, id)
	if err != nil {
		return fmt.Errorf("check department usage: %w", err)
	}
	if used {
		return ErrDepartmentInUse
	}
	return s.DB.DeleteDepartment(ctx, id)
}

func (s *Service) checkDepartment(ctx context.Context, in DepartmentInput, excludeID string) (string, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := apperr.Validate(in); err != nil {
		return "", err
	}
	taken, err := s.DB.DepartmentNameTaken(ctx, in.Name, excludeID)
	if err != nil {
		return "", fmt.Errorf("check department name: %w", err)
	}
	if taken {
		return "", apperr.Field("name", "is already used by another department")
	}
	return in.Name, nil
}

// ---------------- PACKAGES ----------------

func (s *Service) ListPackages(ctx context.Context, departmentID string) ([]models.Package, error) {
	return s.DB.ListPackages(ctx, departmentID)
}

func (s *Service) GetPackage(ctx context.Context, id string) (*models.Package, error) {
	return s.DB.GetPackage(ctx, id)
}

func (s *Service) CreatePackage(ctx context.Context, in PackageInput) (*models.Package, error) {
	if err := s.checkPackage(ctx, in); err != nil {
		return nil, err
	}
	p := &models.Package{ID: uuid.NewString()}
	in.apply(p)
	if err := s.DB.InsertPackage(ctx, p); err != nil {
		return nil, fmt.Errorf("insert package: %w", err)
	}
	s.Logger.Info("CATALOG", fmt.Sprintf("Created package %s at %s", p.Name, p.Price.StringFixed(2)))
	return s.DB.GetPackage(ctx, p.ID)
}

func (s *Service) UpdatePackage(ctx context.Context, id string, in PackageInput) (*models.Package, error) {
	p, err := s.DB.GetPackage(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkPackage(ctx, in); err != nil {
		return nil, err
	}
	in.apply(p)
	if err := s.DB.UpdatePackage(ctx, p); err != nil {
		return nil, fmt.Errorf("update package: %w", err)
	}
	return s.DB.GetPackage(ctx, id)
}

func (s *Service) DeletePackage(ctx context.Context, id string) error {
	if _, err := s.DB.GetPackage(ctx, id); err != nil {
		return err
	}
	used, err := s.DB.PackageInUse(ctx, id)
	if err != nil {
		return fmt.Errorf("check package usage: %w", err)
	}
	if used {
		return ErrPackageInUse
	}
	return s.DB.DeletePackage(ctx, id)
}

func (s *Service) checkPackage(ctx context.Context, in PackageInput) error {
	if err := apperr.Validate(in); err != nil {
		return err
	}
	if in.Price.IsNegative() {
		return apperr.Field("price", "must not be negative")
	}
	if _, err := s.DB.GetDepartment(ctx, in.DepartmentID); err != nil {
		if apperr.IsNotFound(err) {
			return apperr.Field("department_id", "does not exist")
		}
		return err
	}
	return nil
}

func (in PackageInput) apply(p *models.Package) {
	p.DepartmentID = in.DepartmentID
	p.Name = strings.TrimSpace(in.Name)
	p.Description = in.Description
	p.Price = in.Price.Round(2)
}
