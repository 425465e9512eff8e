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

func (d *DB) RunInTx(ctx context.Context, fn func(ctx context.Context, tx *DB) error) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &DB{Bun: tx})
	})
}

func withRoles(q *bun.SelectQuery) *bun.SelectQuery {
	return q.
		Relation("Roles", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("ur.role ASC")
		}).
		Relation("Department")
}

func (d *DB) ListUsers(ctx context.Context, role string) ([]models.User, error) {
	var users []models.User
	q := withRoles(d.Bun.NewSelect().Model(&users)).Order("u.name ASC")
	if role != "" {
		q = q.Where("EXISTS (SELECT 1 FROM user_roles AS r WHERE r.user_id = u.id AND r.role = ?)", role)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (d *DB) GetUser(ctx context.Context, id string) (*models.User, error) {
	u := new(models.User)
	if err := withRoles(d.Bun.NewSelect().Model(u)).Where("u.id = ?", id).Limit(1).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", id, apperr.ErrNotFound)
		}
		return nil, err
	}
	return u, nil
}

// GetUserByEmail returns nil, nil when no user has the address.
func (d *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	u := new(models.User)
	err := withRoles(d.Bun.NewSelect().Model(u)).Where("u.email = ?", email).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (d *DB) EmailTaken(ctx context.Context, email string) (bool, error) {
	return d.Bun.NewSelect().Model((*models.User)(nil)).Where("u.email = ?", email).Exists(ctx)
}

func (d *DB) DepartmentExists(ctx context.Context, id string) (bool, error) {
	return d.Bun.NewSelect().Model((*models.Department)(nil)).Where("d.id = ?", id).Exists(ctx)
}

func (d *DB) InsertUser(ctx context.Context, u *models.User) error {
	_, err := d.Bun.NewInsert().Model(u).Exec(ctx)
	return err
}

func (d *DB) InsertRoles(ctx context.Context, userID string, roles []string) error {
	if len(roles) == 0 {
		return nil
	}
	rows := make([]models.UserRole, len(roles))
	for i, r := range roles {
		rows[i] = models.UserRole{UserID: userID, Role: r}
	}
	_, err := d.Bun.NewInsert().Model(&rows).Exec(ctx)
	return err
}

func (d *DB) DeleteRole(ctx context.Context, userID, role string) error {
	_, err := d.Bun.NewDelete().
		Model((*models.UserRole)(nil)).
		Where("user_id = ?", userID).
		Where("role = ?", role).
		Exec(ctx)
	return err
}

// SetDepartment writes department_id; nil clears it.
func (d *DB) SetDepartment(ctx context.Context, userID string, departmentID *string) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.User)(nil)).
		Set("department_id = ?", departmentID).
		Where("id = ?", userID).
		Exec(ctx)
	return err
}
