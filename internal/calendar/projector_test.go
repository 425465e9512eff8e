package calendar

import (
	"testing"
	"time"

	"ms-venue-booking/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(s string) time.Time {
	t, err := models.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

var (
	venueA = models.Venue{ID: "va", Name: "Venue A", ShortCode: "A"}
	venueB = models.Venue{ID: "vb", Name: "Venue B", ShortCode: "B"}
	venueC = models.Venue{ID: "vc", Name: "Venue C", ShortCode: "C"}
)

func TestProjectGridIsTotal(t *testing.T) {
	venues := []models.Venue{venueA, venueB, venueC}
	cases := []struct {
		year  int
		month time.Month
		days  int
	}{
		{2025, time.August, 31},
		{2025, time.February, 28},
		{2024, time.February, 29},
		{2025, time.April, 30},
	}
	for _, tc := range cases {
		grid := Project(tc.year, tc.month, venues, nil)
		require.Len(t, grid.Days, tc.days)
		assert.Equal(t, tc.days*len(venues), grid.CellCount())
		for i, row := range grid.Days {
			assert.Equal(t, i+1, row.Day)
			for col, cell := range row.Cells {
				assert.Equal(t, venues[col].ID, cell.VenueID)
				assert.Nil(t, cell.Slot)
			}
			assert.Len(t, row.Spans, len(venues), "free cells never merge")
		}
	}
}

func TestProjectScenarioThreeDayOrderAcrossTwoVenues(t *testing.T) {
	order := models.Order{
		ID:        "o1",
		EventName: "Product Launch",
		StartDate: date("2025-08-05"),
		EndDate:   date("2025-08-07"),
		Status:    models.OrderStatusConfirmed,
		Venues:    []models.Venue{venueA, venueB},
	}
	grid := Project(2025, time.August, []models.Venue{venueA, venueB, venueC}, []models.Order{order})
	require.Equal(t, 31*3, grid.CellCount())

	want := map[int]string{5: "Loading In", 6: "Show", 7: "Loading Out"}
	for d, label := range want {
		row := grid.Days[d-1]
		require.NotNil(t, row.Cells[0].Slot)
		require.NotNil(t, row.Cells[1].Slot)
		assert.Nil(t, row.Cells[2].Slot)
		assert.Equal(t, label, row.Cells[0].Slot.FunctionLabel)
		assert.Equal(t, "Confirmed", row.Cells[0].Slot.StatusLabel)

		require.Len(t, row.Spans, 2)
		assert.Equal(t, Span{StartColumn: 0, Width: 2, Slot: row.Cells[0].Slot}, row.Spans[0])
		assert.Equal(t, 2, row.Spans[1].StartColumn)
		assert.Nil(t, row.Spans[1].Slot)
	}
	assert.Nil(t, grid.Days[3].Cells[0].Slot)
	assert.Nil(t, grid.Days[7].Cells[0].Slot)
}

func TestProjectUsesExplicitScheduleFunction(t *testing.T) {
	order := models.Order{
		ID:        "o1",
		EventName: "Concert",
		StartDate: date("2025-08-10"),
		EndDate:   date("2025-08-12"),
		Venues:    []models.Venue{venueA},
		Schedules: []models.Schedule{
			{ID: "s1", StartDate: date("2025-08-10"), EndDate: date("2025-08-10"), Function: models.FunctionLoadingIn, TimeStart: "08:00", TimeEnd: "22:00"},
			{ID: "s2", StartDate: date("2025-08-11"), EndDate: date("2025-08-11"), Function: models.FunctionUnset, TimeStart: "18:00", TimeEnd: "23:00"},
			{ID: "s3", StartDate: date("2025-08-12"), EndDate: date("2025-08-12"), Function: models.FunctionLoadingOut},
		},
	}
	grid := Project(2025, time.August, []models.Venue{venueA}, []models.Order{order})

	assert.Equal(t, "Loading In", grid.Days[9].Cells[0].Slot.FunctionLabel)
	assert.Equal(t, "s1", grid.Days[9].Cells[0].Slot.ScheduleID)
	assert.Equal(t, "Show", grid.Days[10].Cells[0].Slot.FunctionLabel)
	assert.Equal(t, "18:00", grid.Days[10].Cells[0].Slot.TimeStart)
	assert.Equal(t, "Loading Out", grid.Days[11].Cells[0].Slot.FunctionLabel)
}

func TestFunctionByPosition(t *testing.T) {
	start, end := date("2025-08-01"), date("2025-08-04")
	assert.Equal(t, models.FunctionLoadingIn, FunctionByPosition(start, end, start))
	assert.Equal(t, models.FunctionShow, FunctionByPosition(start, end, date("2025-08-02")))
	assert.Equal(t, models.FunctionShow, FunctionByPosition(start, end, date("2025-08-03")))
	assert.Equal(t, models.FunctionLoadingOut, FunctionByPosition(start, end, end))
	assert.Equal(t, models.FunctionShow, FunctionByPosition(start, start, start))
}

func TestProjectClipsOrdersToMonth(t *testing.T) {
	order := models.Order{
		ID:        "long",
		EventName: "Trade Fair",
		StartDate: date("2025-07-30"),
		EndDate:   date("2025-08-02"),
		Venues:    []models.Venue{venueA},
	}
	outside := models.Order{
		ID:        "later",
		EventName: "September Gala",
		StartDate: date("2025-09-01"),
		EndDate:   date("2025-09-02"),
		Venues:    []models.Venue{venueA},
	}
	grid := Project(2025, time.August, []models.Venue{venueA}, []models.Order{order, outside})

	assert.Equal(t, "Show", grid.Days[0].Cells[0].Slot.FunctionLabel)
	assert.Equal(t, "Loading Out", grid.Days[1].Cells[0].Slot.FunctionLabel)
	assert.Nil(t, grid.Days[2].Cells[0].Slot)
	assert.Nil(t, grid.Days[30].Cells[0].Slot)
}

func TestProjectFirstOrderWinsOnLegacyOverlap(t *testing.T) {
	early := models.Order{ID: "b-early", EventName: "Early", StartDate: date("2025-08-01"), EndDate: date("2025-08-03"), Venues: []models.Venue{venueA}}
	late := models.Order{ID: "a-late", EventName: "Late", StartDate: date("2025-08-03"), EndDate: date("2025-08-04"), Venues: []models.Venue{venueA}}
	grid := Project(2025, time.August, []models.Venue{venueA}, []models.Order{late, early})

	assert.Equal(t, "b-early", grid.Days[2].Cells[0].Slot.OrderID)
	assert.Equal(t, "a-late", grid.Days[3].Cells[0].Slot.OrderID)
}

func TestMergeRow(t *testing.T) {
	orderSlot := func(id string) *Slot { return &Slot{OrderID: id} }
	schedSlot := func(order, sched string) *Slot { return &Slot{OrderID: order, ScheduleID: sched} }

	t.Run("adjacent same schedule merges", func(t *testing.T) {
		spans := MergeRow([]Cell{{Slot: schedSlot("o1", "s1")}, {Slot: schedSlot("o1", "s1")}, {Slot: nil}})
		require.Len(t, spans, 2)
		assert.Equal(t, 2, spans[0].Width)
	})

	t.Run("same order different schedule does not merge", func(t *testing.T) {
		spans := MergeRow([]Cell{{Slot: schedSlot("o1", "s1")}, {Slot: schedSlot("o1", "s2")}})
		assert.Len(t, spans, 2)
	})

	t.Run("falls back to order identity", func(t *testing.T) {
		spans := MergeRow([]Cell{{Slot: orderSlot("o1")}, {Slot: orderSlot("o1")}, {Slot: orderSlot("o1")}})
		require.Len(t, spans, 1)
		assert.Equal(t, 3, spans[0].Width)
	})

	t.Run("non adjacent matches stay apart", func(t *testing.T) {
		spans := MergeRow([]Cell{{Slot: orderSlot("o1")}, {Slot: orderSlot("o2")}, {Slot: orderSlot("o1")}})
		require.Len(t, spans, 3)
		for i, s := range spans {
			assert.Equal(t, i, s.StartColumn)
			assert.Equal(t, 1, s.Width)
		}
	})

	t.Run("schedule slot and bare order slot differ", func(t *testing.T) {
		spans := MergeRow([]Cell{{Slot: schedSlot("o1", "s1")}, {Slot: orderSlot("o1")}})
		assert.Len(t, spans, 2)
	})

	t.Run("empty cells never merge", func(t *testing.T) {
		spans := MergeRow([]Cell{{}, {}, {}})
		assert.Len(t, spans, 3)
	})
}
