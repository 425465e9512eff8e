package analytics

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"

	"ms-venue-booking/internal/models"
)

// DB runs the aggregate queries behind the reports.
type DB struct {
	bun bun.IDB
}

func NewDB(db bun.IDB) *DB {
	return &DB{bun: db}
}

// StatusCountData is one order status bucket.
type StatusCountData struct {
	Status models.OrderStatus `bun:"status"`
	Count  int                `bun:"order_count"`
}

// StatusCounts groups live orders touching [first, last] by status.
func (db *DB) StatusCounts(ctx context.Context, first, last time.Time) ([]StatusCountData, error) {
	var rows []StatusCountData
	err := db.bun.NewSelect().
		Model((*models.Order)(nil)).
		ColumnExpr("o.status AS status").
		ColumnExpr("COUNT(*) AS order_count").
		Where("o.start_date <= ?", last).
		Where("o.end_date >= ?", first).
		GroupExpr("o.status").
		OrderExpr("o.status").
		Scan(ctx, &rows)
	return rows, err
}

// DepartmentLoadData is the BEO workload of one department.
type DepartmentLoadData struct {
	DepartmentID string          `bun:"department_id"`
	Name         string          `bun:"name"`
	BeoCount     int             `bun:"beo_count"`
	PackageValue decimal.Decimal `bun:"package_value"`
}

// DepartmentLoad sums live BEOs and their package prices for orders touching
// [first, last], per department.
func (db *DB) DepartmentLoad(ctx context.Context, first, last time.Time) ([]DepartmentLoadData, error) {
	var rows []DepartmentLoadData
	err := db.bun.NewRaw(`
		SELECT
			d.id AS department_id,
			d.name AS name,
			COUNT(b.id) AS beo_count,
			COALESCE(SUM(p.price), 0) AS package_value
		FROM beos b
		JOIN orders o ON o.id = b.order_id AND o.deleted_at IS NULL
		JOIN departments d ON d.id = b.department_id
		LEFT JOIN packages p ON p.id = b.package_id
		WHERE b.deleted_at IS NULL
			AND o.start_date <= ?
			AND o.end_date >= ?
		GROUP BY d.id, d.name
		ORDER BY d.name
	`, last, first).Scan(ctx, &rows)
	return rows, err
}
