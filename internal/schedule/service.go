package schedule

import (
	"context"
	"fmt"

	"ms-venue-booking/internal/apperr"
	"ms-venue-booking/internal/calendar"
	"ms-venue-booking/internal/logger"
	"ms-venue-booking/internal/models"
)

type DBLayer interface {
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	InsertSchedules(ctx context.Context, rows []models.Schedule) error
	ListSchedules(ctx context.Context, orderID string) ([]models.Schedule, error)
	GetSchedule(ctx context.Context, id string) (*models.Schedule, error)
	DeleteSchedule(ctx context.Context, id string) error
}

// View is a schedule with its resolved function label.
type View struct {
	models.Schedule
	FunctionLabel string `json:"function_label"`
}

type Service struct {
	DB     DBLayer
	Logger *logger.Logger
}

func NewService(db DBLayer, log *logger.Logger) *Service {
	return &Service{DB: db, Logger: log}
}

// CreateBulk validates every row and inserts them together or not at all.
func (s *Service) CreateBulk(ctx context.Context, orderID string, req BulkRequest) ([]models.Schedule, error) {
	o, err := s.DB.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	rows, err := BuildRows(*o, req)
	if err != nil {
		return nil, err
	}
	if err := s.DB.InsertSchedules(ctx, rows); err != nil {
		return nil, fmt.Errorf("insert schedules: %w", err)
	}
	s.Logger.LogOrder("SCHEDULES", orderID, fmt.Sprintf("%d schedule(s) created", len(rows)))
	return rows, nil
}

// List returns the order's schedules. A single-day row without an explicit
// function is a show day; multi-day rows are resolved per day by the calendar.
func (s *Service) List(ctx context.Context, orderID string) ([]View, error) {
	if _, err := s.DB.GetOrder(ctx, orderID); err != nil {
		return nil, err
	}
	rows, err := s.DB.ListSchedules(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	views := make([]View, 0, len(rows))
	for _, r := range rows {
		fn := r.Function
		if fn == models.FunctionUnset && r.StartDate.Equal(r.EndDate) {
			fn = calendar.FunctionByPosition(r.StartDate, r.EndDate, r.StartDate)
		}
		views = append(views, View{Schedule: r, FunctionLabel: fn.Label()})
	}
	return views, nil
}

// Delete removes one schedule. A schedule of another order is reported as not found.
func (s *Service) Delete(ctx context.Context, orderID, scheduleID string) error {
	sc, err := s.DB.GetSchedule(ctx, scheduleID)
	if err != nil {
		return err
	}
	if sc.OrderID != orderID {
		return fmt.Errorf("schedule %s in order %s: %w", scheduleID, orderID, apperr.ErrNotFound)
	}
	if err := s.DB.DeleteSchedule(ctx, scheduleID); err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	s.Logger.LogOrder("SCHEDULE_DELETE", orderID, scheduleID)
	return nil
}
