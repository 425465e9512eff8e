package analytics

import (
	"math"

	"ms-venue-booking/internal/calendar"
	"ms-venue-booking/internal/models"
)

// VenueUtilization is one venue's share of booked days in a month.
type VenueUtilization struct {
	VenueID      string         `json:"venue_id"`
	Name         string         `json:"name"`
	ShortCode    string         `json:"short_code"`
	OccupiedDays int            `json:"occupied_days"`
	DaysInMonth  int            `json:"days_in_month"`
	Rate         float64        `json:"rate"`
	Functions    map[string]int `json:"functions"`
	Orders       int            `json:"orders"`
}

// Summarize counts occupied cells per venue column of a projected month.
func Summarize(grid calendar.Grid) []VenueUtilization {
	days := len(grid.Days)
	out := make([]VenueUtilization, len(grid.Venues))
	orders := make([]map[string]struct{}, len(grid.Venues))
	for i, v := range grid.Venues {
		out[i] = VenueUtilization{
			VenueID:     v.ID,
			Name:        v.Name,
			ShortCode:   v.ShortCode,
			DaysInMonth: days,
			Functions:   map[string]int{},
		}
		for _, f := range []models.ScheduleFunction{models.FunctionLoadingIn, models.FunctionShow, models.FunctionLoadingOut} {
			out[i].Functions[f.Label()] = 0
		}
		orders[i] = map[string]struct{}{}
	}

	for _, row := range grid.Days {
		for col, cell := range row.Cells {
			if cell.Slot == nil || col >= len(out) {
				continue
			}
			out[col].OccupiedDays++
			if label := cell.Slot.Function.Label(); label != "" {
				out[col].Functions[label]++
			}
			orders[col][cell.Slot.OrderID] = struct{}{}
		}
	}

	for i := range out {
		out[i].Orders = len(orders[i])
		out[i].Rate = rate(out[i].OccupiedDays, days)
	}
	return out
}

// Overall is the occupied share of every venue-day in the grid.
func Overall(venues []VenueUtilization) float64 {
	occupied, total := 0, 0
	for _, v := range venues {
		occupied += v.OccupiedDays
		total += v.DaysInMonth
	}
	return rate(occupied, total)
}

func rate(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return math.Round(float64(n)/float64(d)*10000) / 10000
}
