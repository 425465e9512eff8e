package schedule_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-venue-booking/internal/apperr"
	"ms-venue-booking/internal/database/dbtest"
	"ms-venue-booking/internal/logger"
	"ms-venue-booking/internal/models"
	"ms-venue-booking/internal/schedule"
	"ms-venue-booking/internal/schedule/db"
)

func setup(t *testing.T) (*schedule.Service, models.Order) {
	t.Helper()
	b := dbtest.New(t)
	ctx := context.Background()

	c := models.Customer{ID: uuid.NewString(), Organizer: "Acme", Email: "acme@example.com"}
	_, err := b.NewInsert().Model(&c).Exec(ctx)
	require.NoError(t, err)
	o := models.Order{
		ID:         uuid.NewString(),
		CustomerID: c.ID,
		EventName:  "Gala",
		StartDate:  time.Date(2025, 8, 10, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2025, 8, 12, 0, 0, 0, 0, time.UTC),
	}
	_, err = b.NewInsert().Model(&o).Exec(ctx)
	require.NoError(t, err)

	return schedule.NewService(db.New(b), logger.Discard()), o
}

func TestCreateListDelete(t *testing.T) {
	svc, o := setup(t)
	ctx := context.Background()

	rows, err := svc.CreateBulk(ctx, o.ID, schedule.BulkRequest{Schedules: []schedule.Input{
		{StartDate: "2025-08-11", EndDate: "2025-08-12", TimeStart: "18:00", TimeEnd: "02:00", Function: 3},
		{StartDate: "2025-08-10", EndDate: "2025-08-10", TimeStart: "08:00", TimeEnd: "12:00"},
	}})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	views, err := svc.List(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "Show", views[0].FunctionLabel, "single unset day is a show day")
	assert.Equal(t, "Loading Out", views[1].FunctionLabel)

	require.NoError(t, svc.Delete(ctx, o.ID, rows[0].ID))
	views, err = svc.List(ctx, o.ID)
	require.NoError(t, err)
	assert.Len(t, views, 1)
}

func TestCreateBulkIsAllOrNothing(t *testing.T) {
	svc, o := setup(t)
	ctx := context.Background()

	_, err := svc.CreateBulk(ctx, o.ID, schedule.BulkRequest{Schedules: []schedule.Input{
		{StartDate: "2025-08-10", EndDate: "2025-08-10", TimeStart: "08:00", TimeEnd: "12:00"},
		{StartDate: "2025-08-13", EndDate: "2025-08-13", TimeStart: "08:00", TimeEnd: "12:00"},
	}})
	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)

	views, err := svc.List(ctx, o.ID)
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestUnknownOrderAndMismatch(t *testing.T) {
	svc, o := setup(t)
	ctx := context.Background()

	_, err := svc.List(ctx, uuid.NewString())
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = svc.CreateBulk(ctx, uuid.NewString(), schedule.BulkRequest{})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	rows, err := svc.CreateBulk(ctx, o.ID, schedule.BulkRequest{Schedules: []schedule.Input{
		{StartDate: "2025-08-10", EndDate: "2025-08-10", TimeStart: "08:00", TimeEnd: "12:00"},
	}})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, uuid.NewString(), rows[0].ID), apperr.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, o.ID, uuid.NewString()), apperr.ErrNotFound)
}
