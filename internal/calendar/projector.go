package calendar

import (
	"sort"
	"time"

	"ms-venue-booking/internal/models"
)

type VenueColumn struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ShortCode string `json:"short_code"`
}

// Slot describes what occupies one venue on one day.
type Slot struct {
	OrderID       string                  `json:"order_id"`
	ScheduleID    string                  `json:"schedule_id,omitempty"`
	EventName     string                  `json:"event_name"`
	Status        models.OrderStatus      `json:"status"`
	StatusLabel   string                  `json:"status_label"`
	Function      models.ScheduleFunction `json:"function"`
	FunctionLabel string                  `json:"function_label"`
	TimeStart     string                  `json:"time_start,omitempty"`
	TimeEnd       string                  `json:"time_end,omitempty"`
}

// Key is the merge identity of a slot: its schedule, or its order when no
// schedule covers the day.
func (s *Slot) Key() string {
	if s == nil {
		return ""
	}
	if s.ScheduleID != "" {
		return "schedule:" + s.ScheduleID
	}
	return "order:" + s.OrderID
}

type Cell struct {
	VenueID string `json:"venue_id"`
	Slot    *Slot  `json:"slot"`
}

// Span is a run of adjacent venue columns rendered as one cell.
type Span struct {
	StartColumn int   `json:"start_column"`
	Width       int   `json:"width"`
	Slot        *Slot `json:"slot"`
}

type DayRow struct {
	Day   int       `json:"day"`
	Date  time.Time `json:"date"`
	Cells []Cell    `json:"cells"`
	Spans []Span    `json:"spans"`
}

type Grid struct {
	Year   int           `json:"year"`
	Month  time.Month    `json:"month"`
	Venues []VenueColumn `json:"venues"`
	Days   []DayRow      `json:"days"`
}

// CellCount is the number of day x venue cells in the grid.
func (g Grid) CellCount() int {
	n := 0
	for _, d := range g.Days {
		n += len(d.Cells)
	}
	return n
}

// MonthBounds returns the first and last calendar date of the month.
func MonthBounds(year int, month time.Month) (time.Time, time.Time) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return first, first.AddDate(0, 1, -1)
}

// Intersects reports whether the order's range touches [first, last].
func Intersects(o models.Order, first, last time.Time) bool {
	return !models.DateOnly(o.StartDate).After(last) && !models.DateOnly(o.EndDate).Before(first)
}

// Project lays the orders out on a day x venue grid for one month. The grid
// always has daysInMonth rows of len(venues) cells; free cells hold a nil slot.
func Project(year int, month time.Month, venues []models.Venue, orders []models.Order) Grid {
	first, last := MonthBounds(year, month)
	daysInMonth := last.Day()

	grid := Grid{
		Year:   year,
		Month:  month,
		Venues: make([]VenueColumn, len(venues)),
		Days:   make([]DayRow, daysInMonth),
	}
	column := make(map[string]int, len(venues))
	for i, v := range venues {
		grid.Venues[i] = VenueColumn{ID: v.ID, Name: v.Name, ShortCode: v.ShortCode}
		column[v.ID] = i
	}
	for d := 0; d < daysInMonth; d++ {
		row := DayRow{Day: d + 1, Date: first.AddDate(0, 0, d), Cells: make([]Cell, len(venues))}
		for i, v := range venues {
			row.Cells[i] = Cell{VenueID: v.ID}
		}
		grid.Days[d] = row
	}

	selected := make([]models.Order, 0, len(orders))
	for _, o := range orders {
		if o.DeletedAt.IsZero() && Intersects(o, first, last) {
			selected = append(selected, o)
		}
	}
	// Earlier orders claim a cell first when legacy data overlaps.
	sort.SliceStable(selected, func(i, j int) bool {
		if !selected[i].StartDate.Equal(selected[j].StartDate) {
			return selected[i].StartDate.Before(selected[j].StartDate)
		}
		return selected[i].ID < selected[j].ID
	})

	for _, o := range selected {
		start, end := models.DateOnly(o.StartDate), models.DateOnly(o.EndDate)
		schedules := activeSchedules(o.Schedules)
		for day := maxDate(start, first); !day.After(minDate(end, last)); day = day.AddDate(0, 0, 1) {
			slot := slotFor(o, schedules, day)
			row := &grid.Days[day.Day()-1]
			for _, v := range o.Venues {
				col, ok := column[v.ID]
				if !ok || row.Cells[col].Slot != nil {
					continue
				}
				s := slot
				row.Cells[col].Slot = &s
			}
		}
	}

	for d := range grid.Days {
		grid.Days[d].Spans = MergeRow(grid.Days[d].Cells)
	}
	return grid
}

func slotFor(o models.Order, schedules []models.Schedule, day time.Time) Slot {
	slot := Slot{
		OrderID:     o.ID,
		EventName:   o.EventName,
		Status:      o.Status,
		StatusLabel: o.Status.Label(),
	}
	if sch, ok := coveringSchedule(schedules, day); ok {
		slot.ScheduleID = sch.ID
		slot.TimeStart = sch.TimeStart
		slot.TimeEnd = sch.TimeEnd
		slot.Function = sch.Function
		if slot.Function == models.FunctionUnset || !slot.Function.Valid() {
			slot.Function = FunctionByPosition(models.DateOnly(sch.StartDate), models.DateOnly(sch.EndDate), day)
		}
	} else {
		slot.Function = FunctionByPosition(models.DateOnly(o.StartDate), models.DateOnly(o.EndDate), day)
	}
	slot.FunctionLabel = slot.Function.Label()
	return slot
}

// FunctionByPosition infers the day's function from where it sits in a span:
// the first day of a multi-day span is loading in, the last is loading out,
// anything else (including a single-day span) is the show.
func FunctionByPosition(start, end, day time.Time) models.ScheduleFunction {
	if start.Equal(end) {
		return models.FunctionShow
	}
	switch {
	case day.Equal(start):
		return models.FunctionLoadingIn
	case day.Equal(end):
		return models.FunctionLoadingOut
	default:
		return models.FunctionShow
	}
}

func activeSchedules(in []models.Schedule) []models.Schedule {
	out := make([]models.Schedule, 0, len(in))
	for _, s := range in {
		if !s.DeletedAt.IsZero() {
			continue
		}
		s.StartDate, s.EndDate = models.DateOnly(s.StartDate), models.DateOnly(s.EndDate)
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.Before(out[j].StartDate)
		}
		if out[i].TimeStart != out[j].TimeStart {
			return out[i].TimeStart < out[j].TimeStart
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func coveringSchedule(schedules []models.Schedule, day time.Time) (models.Schedule, bool) {
	for _, s := range schedules {
		if s.Covers(day) {
			return s, true
		}
	}
	return models.Schedule{}, false
}

// MergeRow walks one day's cells left to right and coalesces neighbours
// holding the same slot identity. Free cells always stay one column wide.
func MergeRow(cells []Cell) []Span {
	spans := make([]Span, 0, len(cells))
	for i, c := range cells {
		if n := len(spans); n > 0 && c.Slot != nil {
			prev := &spans[n-1]
			if prev.Slot != nil && prev.Slot.Key() == c.Slot.Key() {
				prev.Width++
				continue
			}
		}
		spans = append(spans, Span{StartColumn: i, Width: 1, Slot: c.Slot})
	}
	return spans
}

func maxDate(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minDate(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
