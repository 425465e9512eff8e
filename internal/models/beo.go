package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Beo is a Banquet Event Order: one department's task assignment for an order.
type Beo struct {
	bun.BaseModel `bun:"table:beos,alias:b"`

	ID           string    `bun:"id,pk" json:"id"`
	OrderID      string    `bun:"order_id,notnull" json:"order_id"`
	DepartmentID string    `bun:"department_id,notnull" json:"department_id"`
	PackageID    *string   `bun:"package_id" json:"package_id,omitempty"`
	UserID       *string   `bun:"user_id" json:"user_id,omitempty"`
	Notes        string    `bun:"notes" json:"notes"`
	CreatedAt    time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt    time.Time `bun:"updated_at,nullzero" json:"updated_at,omitempty"`
	DeletedAt    time.Time `bun:"deleted_at,soft_delete,nullzero" json:"-"`

	Order       *Order          `bun:"rel:belongs-to,join:order_id=id" json:"order,omitempty"`
	Department  *Department     `bun:"rel:belongs-to,join:department_id=id" json:"department,omitempty"`
	Package     *Package        `bun:"rel:belongs-to,join:package_id=id" json:"package,omitempty"`
	User        *User           `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	Attachments []BeoAttachment `bun:"rel:has-many,join:id=beo_id" json:"attachments,omitempty"`
}

// BeoAttachment rows are soft-deleted, the stored file is removed immediately.
type BeoAttachment struct {
	bun.BaseModel `bun:"table:beo_attachments,alias:ba"`

	ID           string    `bun:"id,pk" json:"id"`
	BeoID        string    `bun:"beo_id,notnull" json:"beo_id"`
	FileName     string    `bun:"file_name,notnull" json:"file_name"`
	OriginalName string    `bun:"original_name" json:"original_name"`
	URL          string    `bun:"-" json:"url,omitempty"`
	CreatedAt    time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	DeletedAt    time.Time `bun:"deleted_at,soft_delete,nullzero" json:"-"`
}
