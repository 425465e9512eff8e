package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Order struct {
	bun.BaseModel `bun:"table:orders,alias:o"`

	ID         string      `bun:"id,pk" json:"id"`
	CustomerID string      `bun:"customer_id,notnull" json:"customer_id"`
	EventName  string      `bun:"event_name,notnull" json:"event_name"`
	StartDate  time.Time   `bun:"start_date,notnull" json:"start_date"`
	EndDate    time.Time   `bun:"end_date,notnull" json:"end_date"`
	Status     OrderStatus `bun:"status,notnull,default:0" json:"status"`
	StatusBeo  BeoStatus   `bun:"status_beo,notnull,default:0" json:"status_beo"`
	Notes      string      `bun:"notes" json:"notes"`
	CreatedBy  string      `bun:"created_by,nullzero" json:"created_by,omitempty"`
	CreatedAt  time.Time   `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt  time.Time   `bun:"updated_at,nullzero" json:"updated_at,omitempty"`
	DeletedAt  time.Time   `bun:"deleted_at,soft_delete,nullzero" json:"-"`

	Customer    *Customer         `bun:"rel:belongs-to,join:customer_id=id" json:"customer,omitempty"`
	Venues      []Venue           `bun:"m2m:order_venues,join:Order=Venue" json:"venues,omitempty"`
	Schedules   []Schedule        `bun:"rel:has-many,join:id=order_id" json:"schedules,omitempty"`
	Beos        []Beo             `bun:"rel:has-many,join:id=order_id" json:"beos,omitempty"`
	Attachments []OrderAttachment `bun:"rel:has-many,join:id=order_id" json:"attachments,omitempty"`
}

// OrderVenue is the order/venue junction. It carries no attributes.
type OrderVenue struct {
	bun.BaseModel `bun:"table:order_venues,alias:ov"`

	OrderID string `bun:"order_id,pk"`
	Order   *Order `bun:"rel:belongs-to,join:order_id=id"`
	VenueID string `bun:"venue_id,pk"`
	Venue   *Venue `bun:"rel:belongs-to,join:venue_id=id"`
}

// VenueIDs returns the ids of the loaded venues in load order.
func (o Order) VenueIDs() []string {
	ids := make([]string, 0, len(o.Venues))
	for _, v := range o.Venues {
		ids = append(ids, v.ID)
	}
	return ids
}

type OrderAttachment struct {
	bun.BaseModel `bun:"table:order_attachments,alias:oa"`

	ID           string    `bun:"id,pk" json:"id"`
	OrderID      string    `bun:"order_id,notnull" json:"order_id"`
	FileName     string    `bun:"file_name,notnull" json:"file_name"`
	OriginalName string    `bun:"original_name" json:"original_name"`
	URL          string    `bun:"-" json:"url,omitempty"`
	CreatedAt    time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	DeletedAt    time.Time `bun:"deleted_at,soft_delete,nullzero" json:"-"`
}
