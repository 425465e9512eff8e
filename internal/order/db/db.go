package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"ms-venue-booking/internal/apperr"
	"ms-venue-booking/internal/booking"
	"ms-venue-booking/internal/models"
)

// DB wraps either the pool or a transaction.
type DB struct {
	Bun bun.IDB
}

func New(b bun.IDB) *DB {
	return &DB{Bun: b}
}

// RunInTx runs fn against a transactional DB. Nested calls reuse bun savepoints.
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

// ListFilter narrows ListOrders. Zero values mean no filter.
type ListFilter struct {
	Status     *models.OrderStatus
	StatusBeo  *models.BeoStatus
	CustomerID string
	From, To   time.Time
	Limit      int
	Offset     int
}

// ---------------- ORDERS ----------------

// CreateOrder inserts the order and its venue junction rows.
func (d *DB) CreateOrder(ctx context.Context, o *models.Order, venueIDs []string) error {
	if _, err := d.Bun.NewInsert().Model(o).Exec(ctx); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return d.attachVenues(ctx, o.ID, venueIDs)
}

func (d *DB) attachVenues(ctx context.Context, orderID string, venueIDs []string) error {
	if len(venueIDs) == 0 {
		return nil
	}
	rows := make([]models.OrderVenue, 0, len(venueIDs))
	for _, id := range venueIDs {
		rows = append(rows, models.OrderVenue{OrderID: orderID, VenueID: id})
	}
	if _, err := d.Bun.NewInsert().Model(&rows).Exec(ctx); err != nil {
		return fmt.Errorf("attach venues: %w", err)
	}
	return nil
}

func (d *DB) detachVenues(ctx context.Context, orderID string) error {
	_, err := d.Bun.NewDelete().
		Model((*models.OrderVenue)(nil)).
		Where("order_id = ?", orderID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("detach venues: %w", err)
	}
	return nil
}

// ReplaceVenues swaps the junction rows of an order.
func (d *DB) ReplaceVenues(ctx context.Context, orderID string, venueIDs []string) error {
	if err := d.detachVenues(ctx, orderID); err != nil {
		return err
	}
	return d.attachVenues(ctx, orderID, venueIDs)
}

// UpdateOrder writes the editable fields.
func (d *DB) UpdateOrder(ctx context.Context, o *models.Order) error {
	o.UpdatedAt = time.Now().UTC()
	res, err := d.Bun.NewUpdate().
		Model(o).
		Column("customer_id", "event_name", "start_date", "end_date", "notes", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	return requireRow(res, "order", o.ID)
}

// UpdateStatus writes both status tracks.
func (d *DB) UpdateStatus(ctx context.Context, o *models.Order) error {
	o.UpdatedAt = time.Now().UTC()
	res, err := d.Bun.NewUpdate().
		Model(o).
		Column("status", "status_beo", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	return requireRow(res, "order", o.ID)
}

func requireRow(res sql.Result, what, id string) error {
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return fmt.Errorf("%s %s: %w", what, id, apperr.ErrNotFound)
	}
	return nil
}

// GetOrderByID loads the order with customer, venues, schedules and attachments.
// Venues and the customer are loaded even if soft-deleted so history keeps its names.
func (d *DB) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	order := new(models.Order)
	err := d.Bun.NewSelect().
		Model(order).
		Relation("Venues", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.WhereAllWithDeleted().Order("v.name ASC")
		}).
		Relation("Schedules", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("s.start_date ASC", "s.time_start ASC")
		}).
		Relation("Attachments").
		Where("o.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, notFound("order", id, err)
	}
	if err := d.attachCustomers(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// attachCustomers fills Order.Customer with a second query. A belongs-to
// relation is a join, and WhereAllWithDeleted on it would also lift the
// soft-delete filter of the orders themselves.
func (d *DB) attachCustomers(ctx context.Context, orders ...*models.Order) error {
	ids := make([]string, 0, len(orders))
	seen := make(map[string]bool, len(orders))
	for _, o := range orders {
		if !seen[o.CustomerID] {
			seen[o.CustomerID] = true
			ids = append(ids, o.CustomerID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	var customers []models.Customer
	err := d.Bun.NewSelect().
		Model(&customers).
		WhereAllWithDeleted().
		Where("c.id IN (?)", bun.In(ids)).
		Scan(ctx)
	if err != nil {
		return fmt.Errorf("load customers: %w", err)
	}
	byID := make(map[string]*models.Customer, len(customers))
	for i := range customers {
		byID[customers[i].ID] = &customers[i]
	}
	for _, o := range orders {
		o.Customer = byID[o.CustomerID]
	}
	return nil
}

// GetOrderForUpdate loads the bare order row.
func (d *DB) GetOrderForUpdate(ctx context.Context, id string) (*models.Order, error) {
	order := new(models.Order)
	err := d.Bun.NewSelect().
		Model(order).
		Relation("Venues").
		Where("o.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, notFound("order", id, err)
	}
	return order, nil
}

// ListOrders returns orders newest first with customer and venues.
func (d *DB) ListOrders(ctx context.Context, f ListFilter) ([]models.Order, error) {
	var orders []models.Order
	q := d.Bun.NewSelect().
		Model(&orders).
		Relation("Venues", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.WhereAllWithDeleted().Order("v.name ASC")
		}).
		Order("o.start_date DESC", "o.id ASC")

	if f.Status != nil {
		q = q.Where("o.status = ?", *f.Status)
	}
	if f.StatusBeo != nil {
		q = q.Where("o.status_beo = ?", *f.StatusBeo)
	}
	if f.CustomerID != "" {
		q = q.Where("o.customer_id = ?", f.CustomerID)
	}
	if !f.From.IsZero() {
		q = q.Where("o.end_date >= ?", f.From)
	}
	if !f.To.IsZero() {
		q = q.Where("o.start_date <= ?", f.To)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	ptrs := make([]*models.Order, len(orders))
	for i := range orders {
		ptrs[i] = &orders[i]
	}
	if err := d.attachCustomers(ctx, ptrs...); err != nil {
		return nil, err
	}
	return orders, nil
}

// DeleteOrder detaches the venues and soft-deletes the order in one transaction.
func (d *DB) DeleteOrder(ctx context.Context, id string) error {
	return d.RunInTx(ctx, func(ctx context.Context, tx *DB) error {
		if err := tx.detachVenues(ctx, id); err != nil {
			return err
		}
		res, err := tx.Bun.NewDelete().
			Model((*models.Order)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("delete order: %w", err)
		}
		return requireRow(res, "order", id)
	})
}

// ---------------- OCCUPANCY ----------------

// OccupiedIntervals derives the committed intervals of venueIDs from live orders.
func (d *DB) OccupiedIntervals(ctx context.Context, venueIDs []string, excludeOrderID string) (booking.Index, error) {
	if len(venueIDs) == 0 {
		return booking.Index{}, nil
	}
	sub := d.Bun.NewSelect().
		Model((*models.OrderVenue)(nil)).
		Column("ov.order_id").
		Where("ov.venue_id IN (?)", bun.In(venueIDs))

	var orders []models.Order
	q := d.Bun.NewSelect().
		Model(&orders).
		Relation("Venues").
		Where("o.id IN (?)", sub)
	if excludeOrderID != "" {
		q = q.Where("o.id <> ?", excludeOrderID)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("load occupied intervals: %w", err)
	}
	return booking.StaticSource(booking.BuildIndex(orders)).OccupiedIntervals(ctx, venueIDs, excludeOrderID)
}

// OrdersInRange returns live orders intersecting [first, last] with venues and schedules.
func (d *DB) OrdersInRange(ctx context.Context, first, last time.Time) ([]models.Order, error) {
	var orders []models.Order
	err := d.Bun.NewSelect().
		Model(&orders).
		Relation("Venues").
		Relation("Schedules").
		Where("o.start_date <= ?", last).
		Where("o.end_date >= ?", first).
		Order("o.start_date ASC", "o.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("orders in range: %w", err)
	}
	return orders, nil
}

// ---------------- LOOKUPS ----------------

func (d *DB) CustomerExists(ctx context.Context, id string) (bool, error) {
	return d.Bun.NewSelect().
		Model((*models.Customer)(nil)).
		Where("c.id = ?", id).
		Exists(ctx)
}

// VenuesByIDs returns the live venues among ids.
func (d *DB) VenuesByIDs(ctx context.Context, ids []string) ([]models.Venue, error) {
	var venues []models.Venue
	if len(ids) == 0 {
		return venues, nil
	}
	err := d.Bun.NewSelect().
		Model(&venues).
		Where("v.id IN (?)", bun.In(ids)).
		Order("v.name ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("load venues: %w", err)
	}
	return venues, nil
}

// InsertSchedules bulk inserts schedules in one statement.
func (d *DB) InsertSchedules(ctx context.Context, rows []models.Schedule) error {
	if len(rows) == 0 {
		return nil
	}
	if _, err := d.Bun.NewInsert().Model(&rows).Exec(ctx); err != nil {
		return fmt.Errorf("insert schedules: %w", err)
	}
	return nil
}

// ---------------- ATTACHMENTS ----------------

func (d *DB) CreateAttachment(ctx context.Context, a *models.OrderAttachment) error {
	_, err := d.Bun.NewInsert().Model(a).Exec(ctx)
	return err
}

func (d *DB) GetAttachment(ctx context.Context, orderID, id string) (*models.OrderAttachment, error) {
	a := new(models.OrderAttachment)
	err := d.Bun.NewSelect().
		Model(a).
		Where("oa.id = ?", id).
		Where("oa.order_id = ?", orderID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, notFound("attachment", id, err)
	}
	return a, nil
}

// SoftDeleteAttachment tombstones the row. The blob is the caller's concern.
func (d *DB) SoftDeleteAttachment(ctx context.Context, id string) error {
	_, err := d.Bun.NewDelete().
		Model((*models.OrderAttachment)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return err
}
