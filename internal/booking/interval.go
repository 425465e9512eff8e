package booking

import (
	"context"
	"errors"
	"time"

	"ms-venue-booking/internal/models"
)

var ErrInvertedInterval = errors.New("end date is before start date")

// Interval is a closed range of calendar dates. Both ends are inclusive and
// carry no time of day.
type Interval struct {
	Start time.Time
	End   time.Time
}

func NewInterval(start, end time.Time) (Interval, error) {
	iv := Interval{Start: models.DateOnly(start), End: models.DateOnly(end)}
	if iv.End.Before(iv.Start) {
		return Interval{}, ErrInvertedInterval
	}
	return iv, nil
}

// ParseInterval builds an interval from two YYYY-MM-DD strings.
func ParseInterval(start, end string) (Interval, error) {
	s, err := models.ParseDate(start)
	if err != nil {
		return Interval{}, err
	}
	e, err := models.ParseDate(end)
	if err != nil {
		return Interval{}, err
	}
	return NewInterval(s, e)
}

// Days returns the number of calendar days in the interval.
func (iv Interval) Days() int {
	return int(iv.End.Sub(iv.Start).Hours()/24) + 1
}

func (iv Interval) Contains(day time.Time) bool {
	d := models.DateOnly(day)
	return !d.Before(iv.Start) && !d.After(iv.End)
}

func (iv Interval) String() string {
	return iv.Start.Format(models.DateLayout) + ".." + iv.End.Format(models.DateLayout)
}

// Occupied is a committed interval of one venue, derived from an order.
type Occupied struct {
	VenueID   string
	VenueName string
	OrderID   string
	EventName string
	Interval  Interval
}

// Index maps venue id to the intervals committed on that venue.
type Index map[string][]Occupied

// BuildIndex projects each order's date range onto every venue it books.
// Soft-deleted orders are skipped.
func BuildIndex(orders []models.Order) Index {
	idx := make(Index)
	for _, o := range orders {
		if !o.DeletedAt.IsZero() {
			continue
		}
		iv, err := NewInterval(o.StartDate, o.EndDate)
		if err != nil {
			continue
		}
		for _, v := range o.Venues {
			idx[v.ID] = append(idx[v.ID], Occupied{
				VenueID:   v.ID,
				VenueName: v.Name,
				OrderID:   o.ID,
				EventName: o.EventName,
				Interval:  iv,
			})
		}
	}
	return idx
}

// IntervalSource answers which intervals are committed for the given venues.
// excludeOrderID lets an order be re-checked against everything but itself.
type IntervalSource interface {
	OccupiedIntervals(ctx context.Context, venueIDs []string, excludeOrderID string) (Index, error)
}

// StaticSource serves a precomputed index.
type StaticSource Index

func (s StaticSource) OccupiedIntervals(_ context.Context, venueIDs []string, excludeOrderID string) (Index, error) {
	out := make(Index, len(venueIDs))
	for _, id := range venueIDs {
		for _, occ := range s[id] {
			if excludeOrderID != "" && occ.OrderID == excludeOrderID {
				continue
			}
			out[id] = append(out[id], occ)
		}
	}
	return out, nil
}
