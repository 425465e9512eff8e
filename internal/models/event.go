package models

import "time"

const (
	OrderEventCreated       = "order.created"
	OrderEventUpdated       = "order.updated"
	OrderEventDeleted       = "order.deleted"
	OrderEventStatusChanged = "order.status_changed"
)

// OrderEvent is published to Kafka and pushed to calendar subscribers.
type OrderEvent struct {
	Type       string      `json:"type"`
	OrderID    string      `json:"order_id"`
	EventName  string      `json:"event_name"`
	VenueIDs   []string    `json:"venue_ids"`
	StartDate  string      `json:"start_date"`
	EndDate    string      `json:"end_date"`
	Status     OrderStatus `json:"status"`
	StatusBeo  BeoStatus   `json:"status_beo"`
	ActorID    string      `json:"actor_id,omitempty"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// NewOrderEvent builds an event snapshot of the order.
func NewOrderEvent(eventType string, o Order, actorID string) OrderEvent {
	return OrderEvent{
		Type:       eventType,
		OrderID:    o.ID,
		EventName:  o.EventName,
		VenueIDs:   o.VenueIDs(),
		StartDate:  o.StartDate.Format(DateLayout),
		EndDate:    o.EndDate.Format(DateLayout),
		Status:     o.Status,
		StatusBeo:  o.StatusBeo,
		ActorID:    actorID,
		OccurredAt: time.Now().UTC(),
	}
}

// Months returns the YYYY-MM keys the event's date range touches.
func (e OrderEvent) Months() []string {
	start, err1 := time.Parse(DateLayout, e.StartDate)
	end, err2 := time.Parse(DateLayout, e.EndDate)
	if err1 != nil || err2 != nil {
		return nil
	}
	var months []string
	for m := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC); !m.After(end); m = m.AddDate(0, 1, 0) {
		months = append(months, m.Format(MonthLayout))
	}
	return months
}

const (
	BeoEventCreated = "beo.created"
	BeoEventUpdated = "beo.updated"
	BeoEventDeleted = "beo.deleted"
)

// BeoEvent tells department staff their assignments changed.
type BeoEvent struct {
	Type         string    `json:"type"`
	BeoID        string    `json:"beo_id"`
	OrderID      string    `json:"order_id"`
	DepartmentID string    `json:"department_id"`
	UserID       *string   `json:"user_id,omitempty"`
	StatusBeo    BeoStatus `json:"status_beo"`
	ActorID      string    `json:"actor_id,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

func NewBeoEvent(eventType string, b Beo, status BeoStatus, actorID string) BeoEvent {
	return BeoEvent{
		Type:         eventType,
		BeoID:        b.ID,
		OrderID:      b.OrderID,
		DepartmentID: b.DepartmentID,
		UserID:       b.UserID,
		StatusBeo:    status,
		ActorID:      actorID,
		OccurredAt:   time.Now().UTC(),
	}
}
