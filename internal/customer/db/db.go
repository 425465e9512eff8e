package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

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

const ordersCountExpr = "(SELECT COUNT(*) FROM orders AS oc WHERE oc.customer_id = c.id AND oc.deleted_at IS NULL) AS orders_count"

func (d *DB) List(ctx context.Context, search string) ([]models.Customer, error) {
	var customers []models.Customer
	q := d.Bun.NewSelect().
		Model(&customers).
		Column("c.*").
		ColumnExpr(ordersCountExpr).
		Order("c.organizer ASC")
	if search != "" {
		like := "%" + strings.ToLower(search) + "%"
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("LOWER(c.organizer) LIKE ?", like).
				WhereOr("LOWER(c.contact_person) LIKE ?", like).
				WhereOr("LOWER(c.email) LIKE ?", like)
		})
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return customers, nil
}

func (d *DB) Get(ctx context.Context, id string) (*models.Customer, error) {
	c := new(models.Customer)
	err := d.Bun.NewSelect().
		Model(c).
		Column("c.*").
		ColumnExpr(ordersCountExpr).
		Where("c.id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("customer %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// EmailTaken reports whether another live customer uses email. Deleted
// customers release theirs, matching the partial unique index.
func (d *DB) EmailTaken(ctx context.Context, email, excludeID string) (bool, error) {
	q := d.Bun.NewSelect().Model((*models.Customer)(nil)).Where("LOWER(c.email) = LOWER(?)", email)
	if excludeID != "" {
		q = q.Where("c.id <> ?", excludeID)
	}
	return q.Exists(ctx)
}

func (d *DB) Insert(ctx context.Context, c *models.Customer) error {
	_, err := d.Bun.NewInsert().Model(c).Exec(ctx)
	return err
}

func (d *DB) Update(ctx context.Context, c *models.Customer) error {
	c.UpdatedAt = time.Now().UTC()
	res, err := d.Bun.NewUpdate().
		Model(c).
		Column("organizer", "address", "contact_person", "phone", "email", "kl_status", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("customer %s: %w", c.ID, apperr.ErrNotFound)
	}
	return nil
}

func (d *DB) Delete(ctx context.Context, id string) error {
	_, err := d.Bun.NewDelete().Model((*models.Customer)(nil)).Where("id = ?", id).Exec(ctx)
	return err
}
