package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type Department struct {
	bun.BaseModel `bun:"table:departments,alias:d"`

	ID        string    `bun:"id,pk" json:"id"`
	Name      string    `bun:"name,notnull,unique" json:"name"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`

	Packages []Package `bun:"rel:has-many,join:id=department_id" json:"packages,omitempty"`
}

type Package struct {
	bun.BaseModel `bun:"table:packages,alias:p"`

	ID           string          `bun:"id,pk" json:"id"`
	DepartmentID string          `bun:"department_id,notnull" json:"department_id"`
	Name         string          `bun:"name,notnull" json:"name"`
	Description  string          `bun:"description" json:"description"`
	Price        decimal.Decimal `bun:"price,type:numeric(14,2),notnull" json:"price"`
	CreatedAt    time.Time       `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`

	Department *Department `bun:"rel:belongs-to,join:department_id=id" json:"department,omitempty"`
}
