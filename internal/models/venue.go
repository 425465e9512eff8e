package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Venue struct {
	bun.BaseModel `bun:"table:venues,alias:v"`

	ID                string    `bun:"id,pk" json:"id"`
	Name              string    `bun:"name,notnull" json:"name"`
	ShortCode         string    `bun:"short_code,notnull,unique" json:"short_code"`
	Length            float64   `bun:"length" json:"length"`
	Width             float64   `bun:"width" json:"width"`
	Height            float64   `bun:"height" json:"height"`
	CapacityBanquet   int       `bun:"capacity_banquet" json:"capacity_banquet"`
	CapacityClassroom int       `bun:"capacity_classroom" json:"capacity_classroom"`
	CapacityTheater   int       `bun:"capacity_theater" json:"capacity_theater"`
	CapacityReception int       `bun:"capacity_reception" json:"capacity_reception"`
	Photo             string    `bun:"photo,nullzero" json:"photo,omitempty"`
	FloorPlan         string    `bun:"floor_plan,nullzero" json:"floor_plan,omitempty"`
	CreatedAt         time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt         time.Time `bun:"updated_at,nullzero" json:"updated_at,omitempty"`
	DeletedAt         time.Time `bun:"deleted_at,soft_delete,nullzero" json:"-"`
}

// Area returns the floor area in square metres.
func (v Venue) Area() float64 {
	return v.Length * v.Width
}
