package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"ms-venue-booking/internal/apperr"
	"ms-venue-booking/internal/models"
)

type DB struct {
	Bun bun.IDB
}

func New(b bun.IDB) *DB {
	return &DB{Bun: b}
}

func notFound(what, id string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", what, id, apperr.ErrNotFound)
	}
	return err
}

// ---------------- DEPARTMENTS ----------------

func (d *DB) ListDepartments(ctx context.Context) ([]models.Department, error) {
	var depts []models.Department
	err := d.Bun.NewSelect().
		Model(&depts).
		Relation("Packages", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("p.name ASC")
		}).
		Order("d.name ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	return depts, nil
}

func (d *DB) GetDepartment(ctx context.Context, id string) (*models.Department, error) {
	dept := new(models.Department)
	err := d.Bun.NewSelect().
		Model(dept).
		Relation("Packages").
		Where("d.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, notFound("department", id, err)
	}
	return dept, nil
}

func (d *DB) DepartmentNameTaken(ctx context.Context, name, excludeID string) (bool, error) {
	q := d.Bun.NewSelect().Model((*models.Department)(nil)).Where("LOWER(d.name) = LOWER(?)", name)
	if excludeID != "" {
		q = q.Where("d.id <> ?", excludeID)
	}
	return q.Exists(ctx)
}

func (d *DB) InsertDepartment(ctx context.Context, dept *models.Department) error {
	_, err := d.Bun.NewInsert().Model(dept).Exec(ctx)
	return err
}

func (d *DB) RenameDepartment(ctx context.Context, id, name string) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Department)(nil)).
		Set("name = ?", name).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

// DepartmentInUse reports whether packages, staff or live BEOs still reference id.
func (d *DB) DepartmentInUse(ctx context.Context, id string) (bool, error) {
	for _, q := range []*bun.SelectQuery{
		d.Bun.NewSelect().Model((*models.Package)(nil)).Where("p.department_id = ?", id),
		d.Bun.NewSelect().Model((*models.User)(nil)).Where("u.department_id = ?", id),
		d.Bun.NewSelect().Model((*models.Beo)(nil)).WhereAllWithDeleted().Where("b.department_id = ?", id),
	} {
		used, err := q.Exists(ctx)
		if err != nil || used {
			return used, err
		}
	}
	return false, nil
}

func (d *DB) DeleteDepartment(ctx context.Context, id string) error {
	_, err := d.Bun.NewDelete().Model((*models.Department)(nil)).Where("id = ?", id).Exec(ctx)
	return err
}

// ---------------- PACKAGES ----------------

func (d *DB) ListPackages(ctx context.Context, departmentID string) ([]models.Package, error) {
	var pkgs []models.Package
	q := d.Bun.NewSelect().Model(&pkgs).Relation("Department").Order("p.name ASC")
	if departmentID != "" {
		q = q.Where("p.department_id = ?", departmentID)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}
	return pkgs, nil
}

func (d *DB) GetPackage(ctx context.Context, id string) (*models.Package, error) {
	p := new(models.Package)
	err := d.Bun.NewSelect().Model(p).Relation("Department").Where("p.id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		return nil, notFound("package", id, err)
	}
	return p, nil
}

func (d *DB) InsertPackage(ctx context.Context, p *models.Package) error {
	_, err := d.Bun.NewInsert().Model(p).Exec(ctx)
	return err
}

func (d *DB) UpdatePackage(ctx context.Context, p *models.Package) error {
	_, err := d.Bun.NewUpdate().
		Model(p).
		Column("department_id", "name", "description", "price").
		WherePK().
		Exec(ctx)
	return err
}

func (d *DB) PackageInUse(ctx context.Context, id string) (bool, error) {
	return d.Bun.NewSelect().Model((*models.Beo)(nil)).Where("b.package_id = ?", id).Exists(ctx)
}

func (d *DB) DeletePackage(ctx context.Context, id string) error {
	_, err := d.Bun.NewDelete().Model((*models.Package)(nil)).Where("id = ?", id).Exec(ctx)
	return err
}
