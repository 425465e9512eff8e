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

// ListVenues returns live venues in calendar column order.
func (d *DB) ListVenues(ctx context.Context) ([]models.Venue, error) {
	var venues []models.Venue
	if err := d.Bun.NewSelect().Model(&venues).Order("v.name ASC", "v.id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list venues: %w", err)
	}
	return venues, nil
}

func (d *DB) Get(ctx context.Context, id string) (*models.Venue, error) {
	v := new(models.Venue)
	err := d.Bun.NewSelect().Model(v).Where("v.id = ?", id).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("venue %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// ShortCodeTaken also counts soft-deleted venues, the column is unique.
func (d *DB) ShortCodeTaken(ctx context.Context, code, excludeID string) (bool, error) {
	q := d.Bun.NewSelect().
		Model((*models.Venue)(nil)).
		WhereAllWithDeleted().
		Where("v.short_code = ?", code)
	if excludeID != "" {
		q = q.Where("v.id <> ?", excludeID)
	}
	return q.Exists(ctx)
}

func (d *DB) Insert(ctx context.Context, v *models.Venue) error {
	_, err := d.Bun.NewInsert().Model(v).Exec(ctx)
	return err
}

func (d *DB) Update(ctx context.Context, v *models.Venue) error {
	v.UpdatedAt = time.Now().UTC()
	_, err := d.Bun.NewUpdate().
		Model(v).
		Column("name", "short_code", "length", "width", "height",
			"capacity_banquet", "capacity_classroom", "capacity_theater", "capacity_reception", "updated_at").
		WherePK().
		Exec(ctx)
	return err
}

// SetFile updates the photo or floor_plan column only.
func (d *DB) SetFile(ctx context.Context, id, column, name string) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Venue)(nil)).
		Set("? = ?", bun.Ident(column), name).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

func (d *DB) Delete(ctx context.Context, id string) error {
	_, err := d.Bun.NewDelete().Model((*models.Venue)(nil)).Where("id = ?", id).Exec(ctx)
	return err
}
