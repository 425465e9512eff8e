package schedule

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"ms-venue-booking/internal/apperr"
	"ms-venue-booking/internal/models"
)

// Input is one submitted schedule row.
type Input struct {
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
	TimeStart string `json:"time_start" validate:"required,datetime=15:04"`
	TimeEnd   string `json:"time_end" validate:"required,datetime=15:04"`
	Function  int    `json:"function" validate:"gte=0,lte=3"`
	Setup     string `json:"setup" validate:"max=2000"`
	People    int    `json:"people" validate:"gte=0"`
	Notes     string `json:"notes" validate:"max=2000"`
}

// BulkRequest is validated as one unit: any bad row rejects every row.
type BulkRequest struct {
	Schedules []Input `json:"schedules" validate:"required,min=1,dive"`
}

// BuildRows validates every row against o and returns the schedules to insert.
// Nothing is returned unless all rows pass.
func BuildRows(o models.Order, req BulkRequest) ([]models.Schedule, error) {
	if err := apperr.Validate(req); err != nil {
		return nil, err
	}

	fields := map[string]string{}
	rows := make([]models.Schedule, 0, len(req.Schedules))
	for i, in := range req.Schedules {
		key := func(f string) string { return fmt.Sprintf("schedules[%d].%s", i, f) }

		start, _ := models.ParseDate(in.StartDate)
		end, _ := models.ParseDate(in.EndDate)
		ts, _ := time.Parse(models.TimeLayout, in.TimeStart)
		te, _ := time.Parse(models.TimeLayout, in.TimeEnd)

		switch {
		case end.Before(start):
			fields[key("end_date")] = "must be on or after start_date"
		case start.Before(models.DateOnly(o.StartDate)) || end.After(models.DateOnly(o.EndDate)):
			fields[key("start_date")] = fmt.Sprintf("must lie within the order dates %s to %s",
				o.StartDate.Format(models.DateLayout), o.EndDate.Format(models.DateLayout))
		}
		if start.Equal(end) && !te.After(ts) {
			fields[key("time_end")] = "must be after time_start"
		}

		rows = append(rows, models.Schedule{
			ID:        uuid.NewString(),
			OrderID:   o.ID,
			StartDate: start,
			EndDate:   end,
			TimeStart: in.TimeStart,
			TimeEnd:   in.TimeEnd,
			Function:  models.ScheduleFunction(in.Function),
			Setup:     in.Setup,
			People:    in.People,
			Notes:     in.Notes,
		})
	}
	if len(fields) > 0 {
		return nil, &apperr.ValidationError{Fields: fields}
	}
	return rows, nil
}
