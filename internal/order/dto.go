package order

import (
	"ms-venue-booking/internal/models"
	"ms-venue-booking/internal/schedule"
)

type CreateOrderRequest struct {
	CustomerID string           `json:"customer_id" validate:"required"`
	EventName  string           `json:"event_name" validate:"required,max=255"`
	StartDate  string           `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate    string           `json:"end_date" validate:"required,datetime=2006-01-02"`
	VenueIDs   []string         `json:"venue_ids" validate:"required,min=1,dive,required"`
	Notes      string           `json:"notes" validate:"max=5000"`
	Schedules  []schedule.Input `json:"schedules" validate:"omitempty,dive"`
}

type UpdateOrderRequest struct {
	CustomerID string   `json:"customer_id" validate:"required"`
	EventName  string   `json:"event_name" validate:"required,max=255"`
	StartDate  string   `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate    string   `json:"end_date" validate:"required,datetime=2006-01-02"`
	VenueIDs   []string `json:"venue_ids" validate:"required,min=1,dive,required"`
	Notes      string   `json:"notes" validate:"max=5000"`
}

// View is an order as returned by the API, with both status labels.
type View struct {
	*models.Order
	StatusLabel    string `json:"status_label"`
	StatusBeoLabel string `json:"status_beo_label"`
}

func NewView(o *models.Order) View {
	return View{
		Order:          o,
		StatusLabel:    o.Status.Label(),
		StatusBeoLabel: o.StatusBeo.Label(),
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
