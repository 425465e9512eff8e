package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Customer struct {
	bun.BaseModel `bun:"table:customers,alias:c"`

	ID            string    `bun:"id,pk" json:"id"`
	Organizer     string    `bun:"organizer,notnull" json:"organizer"`
	Address       string    `bun:"address" json:"address"`
	ContactPerson string    `bun:"contact_person" json:"contact_person"`
	Phone         string    `bun:"phone" json:"phone"`
	Email         string    `bun:"email,notnull" json:"email"`
	KLStatus      bool      `bun:"kl_status,notnull,default:false" json:"kl_status"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero" json:"updated_at,omitempty"`
	DeletedAt     time.Time `bun:"deleted_at,soft_delete,nullzero" json:"-"`

	OrdersCount int `bun:"orders_count,scanonly" json:"orders_count"`
}
