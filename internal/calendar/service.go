package calendar

import (
	"context"
	"fmt"
	"time"

	"ms-venue-booking/internal/logger"
	"ms-venue-booking/internal/models"
)

type OrderSource interface {
	OrdersInRange(ctx context.Context, first, last time.Time) ([]models.Order, error)
}

type VenueSource interface {
	ListVenues(ctx context.Context) ([]models.Venue, error)
}

type Service struct {
	Orders OrderSource
	Venues VenueSource
	Logger *logger.Logger
}

func NewService(orders OrderSource, venues VenueSource, log *logger.Logger) *Service {
	return &Service{Orders: orders, Venues: venues, Logger: log}
}

// Month loads live venues and orders and projects them for one month.
func (s *Service) Month(ctx context.Context, year int, month time.Month) (Grid, error) {
	venues, err := s.Venues.ListVenues(ctx)
	if err != nil {
		return Grid{}, fmt.Errorf("load venues: %w", err)
	}
	first, last := MonthBounds(year, month)
	orders, err := s.Orders.OrdersInRange(ctx, first, last)
	if err != nil {
		return Grid{}, fmt.Errorf("load orders: %w", err)
	}
	grid := Project(year, month, venues, orders)
	s.Logger.Debug("CALENDAR", fmt.Sprintf("%04d-%02d: %d venue(s), %d order(s)", year, month, len(venues), len(orders)))
	return grid, nil
}
