package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"ms-venue-booking/internal/apperr"
	"ms-venue-booking/internal/calendar"
	"ms-venue-booking/internal/logger"
	"ms-venue-booking/internal/models"
)

// MaxRangeMonths caps a single range request.
const MaxRangeMonths = 12

type GridSource interface {
	Month(ctx context.Context, year int, month time.Month) (calendar.Grid, error)
}

type Store interface {
	StatusCounts(ctx context.Context, first, last time.Time) ([]StatusCountData, error)
	DepartmentLoad(ctx context.Context, first, last time.Time) ([]DepartmentLoadData, error)
}

type StatusCount struct {
	Status models.OrderStatus `json:"status"`
	Label  string             `json:"label"`
	Count  int                `json:"count"`
}

type DepartmentLoad struct {
	DepartmentID string          `json:"department_id"`
	Name         string          `json:"name"`
	BeoCount     int             `json:"beo_count"`
	PackageValue decimal.Decimal `json:"package_value"`
}

// UtilizationReport summarises one month of bookings.
type UtilizationReport struct {
	Year        int                `json:"year"`
	Month       time.Month         `json:"month"`
	Venues      []VenueUtilization `json:"venues"`
	OverallRate float64            `json:"overall_rate"`
	Statuses    []StatusCount      `json:"statuses"`
	Departments []DepartmentLoad   `json:"departments"`
}

type Service struct {
	Calendar GridSource
	Store    Store
	Logger   *logger.Logger
}

func NewService(cal GridSource, store Store, log *logger.Logger) *Service {
	return &Service{Calendar: cal, Store: store, Logger: log}
}

func (s *Service) Utilization(ctx context.Context, year int, month time.Month) (*UtilizationReport, error) {
	grid, err := s.Calendar.Month(ctx, year, month)
	if err != nil {
		return nil, err
	}
	venues := Summarize(grid)
	report := &UtilizationReport{
		Year:        year,
		Month:       month,
		Venues:      venues,
		OverallRate: Overall(venues),
		Statuses:    []StatusCount{},
		Departments: []DepartmentLoad{},
	}
	if s.Store == nil {
		return report, nil
	}

	first, last := calendar.MonthBounds(year, month)
	counts, err := s.Store.StatusCounts(ctx, first, last)
	if err != nil {
		return nil, fmt.Errorf("count statuses: %w", err)
	}
	for _, c := range counts {
		report.Statuses = append(report.Statuses, StatusCount{Status: c.Status, Label: c.Status.Label(), Count: c.Count})
	}
	load, err := s.Store.DepartmentLoad(ctx, first, last)
	if err != nil {
		return nil, fmt.Errorf("department load: %w", err)
	}
	for _, d := range load {
		report.Departments = append(report.Departments, DepartmentLoad{
			DepartmentID: d.DepartmentID,
			Name:         d.Name,
			BeoCount:     d.BeoCount,
			PackageValue: d.PackageValue.Round(2),
		})
	}
	s.Logger.Debug("ANALYTICS", fmt.Sprintf("%04d-%02d utilisation %.2f%%", year, month, report.OverallRate*100))
	return report, nil
}

// UtilizationRange reports every month from the first to the last, inclusive.
func (s *Service) UtilizationRange(ctx context.Context, fromYear int, fromMonth time.Month, toYear int, toMonth time.Month) ([]*UtilizationReport, error) {
	from := time.Date(fromYear, fromMonth, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(toYear, toMonth, 1, 0, 0, 0, 0, time.UTC)
	if to.Before(from) {
		return nil, apperr.Field("to", "must not be before from")
	}
	if n := (toYear-fromYear)*12 + int(toMonth-fromMonth) + 1; n > MaxRangeMonths {
		return nil, apperr.Field("to", fmt.Sprintf("range must cover at most %d months", MaxRangeMonths))
	}

	var out []*UtilizationReport
	for m := from; !m.After(to); m = m.AddDate(0, 1, 0) {
		r, err := s.Utilization(ctx, m.Year(), m.Month())
		if err != nil {
			return nil, fmt.Errorf("%04d-%02d: %w", m.Year(), m.Month(), err)
		}
		out = append(out, r)
	}
	return out, nil
}
