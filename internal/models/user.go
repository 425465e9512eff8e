package models

import (
	"time"

	"github.com/uptrace/bun"
)

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           string    `bun:"id,pk" json:"id"`
	Name         string    `bun:"name,notnull" json:"name"`
	Email        string    `bun:"email,unique,notnull" json:"email"`
	PasswordHash string    `bun:"password_hash,notnull" json:"-"`
	DepartmentID *string   `bun:"department_id" json:"department_id,omitempty"`
	CreatedAt    time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`

	Roles      []UserRole  `bun:"rel:has-many,join:id=user_id" json:"roles,omitempty"`
	Department *Department `bun:"rel:belongs-to,join:department_id=id" json:"department,omitempty"`
}

type UserRole struct {
	bun.BaseModel `bun:"table:user_roles,alias:ur"`

	UserID string `bun:"user_id,pk" json:"-"`
	Role   string `bun:"role,pk" json:"role"`
}

// RoleNames returns the raw role strings held by the user.
func (u User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Role)
	}
	return names
}
