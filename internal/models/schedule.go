package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Schedule is a timeline entry inside an order's date range. It has no venue
// of its own: it applies to every venue of its order.
type Schedule struct {
	bun.BaseModel `bun:"table:schedules,alias:s"`

	ID        string           `bun:"id,pk" json:"id"`
	OrderID   string           `bun:"order_id,notnull" json:"order_id"`
	StartDate time.Time        `bun:"start_date,notnull" json:"start_date"`
	EndDate   time.Time        `bun:"end_date,notnull" json:"end_date"`
	TimeStart string           `bun:"time_start,notnull" json:"time_start"`
	TimeEnd   string           `bun:"time_end,notnull" json:"time_end"`
	Function  ScheduleFunction `bun:"function,notnull,default:0" json:"function"`
	Setup     string           `bun:"setup" json:"setup"`
	People    int              `bun:"people" json:"people"`
	Notes     string           `bun:"notes" json:"notes"`
	CreatedAt time.Time        `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	DeletedAt time.Time        `bun:"deleted_at,soft_delete,nullzero" json:"-"`
}

// Covers reports whether the schedule spans the given calendar date.
func (s Schedule) Covers(day time.Time) bool {
	return !day.Before(s.StartDate) && !day.After(s.EndDate)
}
