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

// GetOrder loads the live order row the schedules belong to.
func (d *DB) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	o := new(models.Order)
	err := d.Bun.NewSelect().Model(o).Where("o.id = ?", id).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("order %s: %w", id, apperr.ErrNotFound)
	}
	return o, err
}

// InsertSchedules writes the whole batch in one statement.
func (d *DB) InsertSchedules(ctx context.Context, rows []models.Schedule) error {
	if len(rows) == 0 {
		return nil
	}
	_, err := d.Bun.NewInsert().Model(&rows).Exec(ctx)
	return err
}

func (d *DB) ListSchedules(ctx context.Context, orderID string) ([]models.Schedule, error) {
	var rows []models.Schedule
	err := d.Bun.NewSelect().
		Model(&rows).
		Where("s.order_id = ?", orderID).
		Order("s.start_date ASC", "s.time_start ASC").
		Scan(ctx)
	return rows, err
}

func (d *DB) GetSchedule(ctx context.Context, id string) (*models.Schedule, error) {
	s := new(models.Schedule)
	err := d.Bun.NewSelect().Model(s).Where("s.id = ?", id).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("schedule %s: %w", id, apperr.ErrNotFound)
	}
	return s, err
}

func (d *DB) DeleteSchedule(ctx context.Context, id string) error {
	_, err := d.Bun.NewDelete().Model((*models.Schedule)(nil)).Where("id = ?", id).Exec(ctx)
	return err
}
