package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ms-venue-booking/internal/config"
	"ms-venue-booking/internal/logger"
	"ms-venue-booking/internal/models"
)

const maxConnectAttempts = 5

// Connect opens Postgres through lib/pq, retrying while the server comes up.
func Connect(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) (*bun.DB, error) {
	var sqldb *sql.DB
	var err error
	for i := 0; i < maxConnectAttempts; i++ {
		log.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxConnectAttempts))
		sqldb, err = sql.Open("postgres", cfg.DSN)
		if err == nil {
			err = sqldb.PingContext(ctx)
		}
		if err == nil {
			break
		}
		log.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		if sqldb != nil {
			sqldb.Close()
		}
		if i < maxConnectAttempts-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(2 * time.Second):
			}
		}
	}
	if err != nil {
		return nil, fmt.Errorf("connect to postgres after %d attempts: %w", maxConnectAttempts, err)
	}

	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.MaxLifetime)

	db := bun.NewDB(sqldb, pgdialect.New())
	RegisterModels(db)
	log.Info("DATABASE", "PostgreSQL connection successful")
	return db, nil
}

// RegisterModels registers the m2m junction so Relation("Venues") resolves.
func RegisterModels(db *bun.DB) {
	db.RegisterModel((*models.OrderVenue)(nil))
}

// Models lists every table in creation order.
func Models() []interface{} {
	return []interface{}{
		(*models.Customer)(nil),
		(*models.Venue)(nil),
		(*models.Department)(nil),
		(*models.Package)(nil),
		(*models.User)(nil),
		(*models.UserRole)(nil),
		(*models.Order)(nil),
		(*models.OrderVenue)(nil),
		(*models.Schedule)(nil),
		(*models.OrderAttachment)(nil),
		(*models.Beo)(nil),
		(*models.BeoAttachment)(nil),
	}
}

// CreateSchema creates every table from the bun models. Production schema comes
// from the SQL migrations; this is for throwaway databases.
func CreateSchema(ctx context.Context, db bun.IDB) error {
	for _, m := range Models() {
		if _, err := db.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table for %T: %w", m, err)
		}
	}
	_, err := db.NewCreateIndex().
		Model((*models.Customer)(nil)).
		Unique().
		IfNotExists().
		Index("idx_customers_email_live").
		ColumnExpr("LOWER(email)").
		Where("deleted_at IS NULL").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create customer email index: %w", err)
	}
	return nil
}
