package beo

import (
	"io"
	"strings"
)

// Input is the editable part of a BEO.
type Input struct {
	DepartmentID string  `json:"department_id" validate:"required"`
	PackageID    *string `json:"package_id"`
	UserID       *string `json:"user_id"`
	Notes        string  `json:"notes" validate:"max=5000"`
}

// Upload is one file submitted with a BEO.
type Upload struct {
	Name string
	Body io.Reader
}

// BulkRow creates a BEO when ID is empty and updates it otherwise.
type BulkRow struct {
	ID                  string   `json:"id"`
	DepartmentID        string   `json:"department_id" validate:"required"`
	PackageID           *string  `json:"package_id"`
	UserID              *string  `json:"user_id"`
	Notes               string   `json:"notes" validate:"max=5000"`
	RemoveAttachmentIDs []string `json:"remove_attachment_ids"`
	Files               []Upload `json:"-"`
}

func (r BulkRow) input() Input {
	return Input{DepartmentID: r.DepartmentID, PackageID: r.PackageID, UserID: r.UserID, Notes: r.Notes}
}

type BulkRequest struct {
	Beos []BulkRow `json:"beos" validate:"required,min=1,dive"`
}

// optional maps a blank optional reference to nil.
func optional(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}
