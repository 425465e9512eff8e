package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
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

func (d *DB) RunInTx(ctx context.Context, fn func(ctx context.Context, tx *DB) error) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &DB{Bun: tx})
	})
}

func notFound(what, id string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", what, id, apperr.ErrNotFound)
	}
	return err
}

func withDetails(q *bun.SelectQuery) *bun.SelectQuery {
	return q.
		Relation("Department").
		Relation("Package").
		Relation("User").
		Relation("Attachments", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("ba.created_at ASC")
		})
}

// GetOrder loads the order a BEO hangs off, without relations.
func (d *DB) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	o := new(models.Order)
	err := d.Bun.NewSelect().Model(o).Where("o.id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		return nil, notFound("order", id, err)
	}
	return o, nil
}

// SetOrderBeoStatus persists only the approval track.
func (d *DB) SetOrderBeoStatus(ctx context.Context, o *models.Order) error {
	o.UpdatedAt = time.Now().UTC()
	_, err := d.Bun.NewUpdate().
		Model(o).
		Column("status_beo", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update order status_beo: %w", err)
	}
	return nil
}

func (d *DB) ListByOrder(ctx context.Context, orderID string) ([]models.Beo, error) {
	var beos []models.Beo
	err := withDetails(d.Bun.NewSelect().Model(&beos)).
		Where("b.order_id = ?", orderID).
		Order("b.created_at ASC", "b.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list beos: %w", err)
	}
	return beos, nil
}

// ListForUser returns BEOs assigned to the user, with their order. BEOs of
// deleted orders come back with a nil Order.
func (d *DB) ListForUser(ctx context.Context, userID string) ([]models.Beo, error) {
	var beos []models.Beo
	err := withDetails(d.Bun.NewSelect().Model(&beos)).
		Relation("Order").
		Where("b.user_id = ?", userID).
		Order("b.created_at ASC", "b.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list beos for user: %w", err)
	}
	return beos, nil
}

// GetBeo returns the BEO only when it belongs to orderID.
func (d *DB) GetBeo(ctx context.Context, orderID, id string) (*models.Beo, error) {
	b := new(models.Beo)
	err := withDetails(d.Bun.NewSelect().Model(b)).
		Where("b.id = ?", id).
		Where("b.order_id = ?", orderID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, notFound("beo", id, err)
	}
	return b, nil
}

func (d *DB) InsertBeo(ctx context.Context, b *models.Beo) error {
	_, err := d.Bun.NewInsert().Model(b).Exec(ctx)
	return err
}

func (d *DB) UpdateBeo(ctx context.Context, b *models.Beo) error {
	b.UpdatedAt = time.Now().UTC()
	_, err := d.Bun.NewUpdate().
		Model(b).
		Column("department_id", "package_id", "user_id", "notes", "updated_at").
		WherePK().
		Exec(ctx)
	return err
}

func (d *DB) DeleteBeo(ctx context.Context, id string) error {
	_, err := d.Bun.NewDelete().Model((*models.Beo)(nil)).Where("id = ?", id).Exec(ctx)
	return err
}

// ---------------- ATTACHMENTS ----------------

func (d *DB) InsertAttachment(ctx context.Context, a *models.BeoAttachment) error {
	_, err := d.Bun.NewInsert().Model(a).Exec(ctx)
	return err
}

func (d *DB) GetAttachment(ctx context.Context, beoID, id string) (*models.BeoAttachment, error) {
	a := new(models.BeoAttachment)
	err := d.Bun.NewSelect().
		Model(a).
		Where("ba.id = ?", id).
		Where("ba.beo_id = ?", beoID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, notFound("beo attachment", id, err)
	}
	return a, nil
}

func (d *DB) DeleteAttachment(ctx context.Context, id string) error {
	_, err := d.Bun.NewDelete().Model((*models.BeoAttachment)(nil)).Where("id = ?", id).Exec(ctx)
	return err
}

// ---------------- REFERENCES ----------------

func (d *DB) DepartmentExists(ctx context.Context, id string) (bool, error) {
	return d.Bun.NewSelect().Model((*models.Department)(nil)).Where("d.id = ?", id).Exists(ctx)
}

// PackageDepartment returns the department that owns the package.
func (d *DB) PackageDepartment(ctx context.Context, id string) (string, error) {
	p := new(models.Package)
	err := d.Bun.NewSelect().Model(p).Column("p.department_id").Where("p.id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		return "", notFound("package", id, err)
	}
	return p.DepartmentID, nil
}

func (d *DB) UserExists(ctx context.Context, id string) (bool, error) {
	return d.Bun.NewSelect().Model((*models.User)(nil)).Where("u.id = ?", id).Exists(ctx)
}

// GetOrderDetail loads what a printed BEO sheet shows about the order.
func (d *DB) GetOrderDetail(ctx context.Context, id string) (*models.Order, error) {
	o := new(models.Order)
	err := d.Bun.NewSelect().
		Model(o).
		Relation("Venues", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.WhereAllWithDeleted().Order("v.name ASC")
		}).
		Relation("Schedules", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("s.start_date ASC", "s.time_start ASC")
		}).
		Where("o.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, notFound("order", id, err)
	}
	// separate query: WhereAllWithDeleted on the customer join would also
	// return deleted orders
	o.Customer = new(models.Customer)
	err = d.Bun.NewSelect().
		Model(o.Customer).
		WhereAllWithDeleted().
		Where("c.id = ?", o.CustomerID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("load customer of order %s: %w", id, err)
	}
	return o, nil
}
