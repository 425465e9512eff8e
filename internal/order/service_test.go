package order_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ms-venue-booking/internal/apperr"
	"ms-venue-booking/internal/auth"
	"ms-venue-booking/internal/config"
	"ms-venue-booking/internal/database/dbtest"
	"ms-venue-booking/internal/logger"
	"ms-venue-booking/internal/models"
	"ms-venue-booking/internal/order"
	"ms-venue-booking/internal/order/db"
	orderredis "ms-venue-booking/internal/order/redis"
	"ms-venue-booking/internal/schedule"
	"ms-venue-booking/internal/storage"
	"ms-venue-booking/internal/workflow"
)

type MockLock struct{ mock.Mock }

func (m *MockLock) Acquire(ctx context.Context, venueIDs []string, token string) error {
	return m.Called(venueIDs, token).Error(0)
}

func (m *MockLock) Release(ctx context.Context, venueIDs []string, token string) error {
	return m.Called(venueIDs, token).Error(0)
}

type MockPublisher struct{ mock.Mock }

func (m *MockPublisher) PublishOrderEvent(ctx context.Context, ev models.OrderEvent) error {
	return m.Called(ev.Type).Error(0)
}

type fixture struct {
	svc      *order.OrderService
	lock     *MockLock
	events   *MockPublisher
	customer models.Customer
	hallA    models.Venue
	hallB    models.Venue
	actor    *auth.Principal
}

func setup(t *testing.T) fixture {
	t.Helper()
	b := dbtest.New(t)
	ctx := context.Background()

	f := fixture{
		lock:     &MockLock{},
		events:   &MockPublisher{},
		customer: models.Customer{ID: uuid.NewString(), Organizer: "Acme", Email: "acme@example.com"},
		hallA:    models.Venue{ID: uuid.NewString(), Name: "Hall A", ShortCode: "HA"},
		hallB:    models.Venue{ID: uuid.NewString(), Name: "Hall B", ShortCode: "HB"},
		actor:    auth.NewPrincipal("sales-1", []auth.Role{auth.RoleSales}, nil),
	}
	_, err := b.NewInsert().Model(&f.customer).Exec(ctx)
	require.NoError(t, err)
	venues := []models.Venue{f.hallA, f.hallB}
	_, err = b.NewInsert().Model(&venues).Exec(ctx)
	require.NoError(t, err)

	blobs, err := storage.NewLocal(config.StorageConfig{Root: t.TempDir(), BaseURL: "/files", MaxUploadSize: 1 << 20}, logger.Discard())
	require.NoError(t, err)

	f.lock.On("Acquire", mock.Anything, mock.Anything).Return(nil)
	f.lock.On("Release", mock.Anything, mock.Anything).Return(nil)
	f.events.On("PublishOrderEvent", mock.Anything).Return(nil)

	f.svc = order.NewOrderService(db.New(b), f.lock, f.events, blobs, logger.Discard())
	return f
}

func (f fixture) request(name, start, end string, venueIDs ...string) order.CreateOrderRequest {
	return order.CreateOrderRequest{
		CustomerID: f.customer.ID,
		EventName:  name,
		StartDate:  start,
		EndDate:    end,
		VenueIDs:   venueIDs,
	}
}

func TestCreateOrder(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	req := f.request("Gala", "2025-08-10", "2025-08-12", f.hallA.ID, f.hallA.ID, f.hallB.ID)
	req.Schedules = []schedule.Input{
		{StartDate: "2025-08-10", EndDate: "2025-08-10", TimeStart: "08:00", TimeEnd: "12:00", Function: 1},
	}
	o, err := f.svc.Create(ctx, f.actor, req)
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusNewInquiry, o.Status)
	assert.Equal(t, models.BeoStatusPlanning, o.StatusBeo)
	assert.Equal(t, "sales-1", o.CreatedBy)

	got, err := f.svc.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Len(t, got.Venues, 2, "duplicate venue ids collapse")
	assert.Len(t, got.Schedules, 1)

	f.lock.AssertCalled(t, "Acquire", []string{f.hallA.ID, f.hallB.ID}, o.ID)
	f.lock.AssertCalled(t, "Release", []string{f.hallA.ID, f.hallB.ID}, o.ID)
	f.events.AssertCalled(t, "PublishOrderEvent", models.OrderEventCreated)
}

func TestCreateOrderConflict(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.actor, f.request("Gala", "2025-08-10", "2025-08-12", f.hallA.ID))
	require.NoError(t, err)

	// touching endpoints clash
	_, err = f.svc.Create(ctx, f.actor, f.request("Expo", "2025-08-12", "2025-08-14", f.hallA.ID, f.hallB.ID))
	var cerr *apperr.ConflictError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, []string{"Hall A"}, cerr.VenueNames)

	_, err = f.svc.Create(ctx, f.actor, f.request("Expo", "2025-08-13", "2025-08-14", f.hallA.ID, f.hallB.ID))
	assert.NoError(t, err)
}

func TestCreateOrderRejectsBadInput(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		req   order.CreateOrderRequest
		field string
	}{
		{"inverted", f.request("Gala", "2025-08-12", "2025-08-10", f.hallA.ID), "end_date"},
		{"no venues", f.request("Gala", "2025-08-10", "2025-08-12"), "venue_ids"},
		{"unknown venue", f.request("Gala", "2025-08-10", "2025-08-12", uuid.NewString()), "venue_ids"},
		{"bad date", f.request("Gala", "10/08/2025", "2025-08-12", f.hallA.ID), "start_date"},
		{"missing name", f.request("", "2025-08-10", "2025-08-12", f.hallA.ID), "event_name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, f.actor, tt.req)
			var verr *apperr.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.field)
		})
	}

	req := f.request("Gala", "2025-08-10", "2025-08-12", f.hallA.ID)
	req.CustomerID = uuid.NewString()
	_, err := f.svc.Create(ctx, f.actor, req)
	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "customer_id")

	f.lock.AssertNotCalled(t, "Acquire", mock.Anything, mock.Anything)
}

func TestCreateOrderScheduleOutsideRangeWritesNothing(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	req := f.request("Gala", "2025-08-10", "2025-08-12", f.hallA.ID)
	req.Schedules = []schedule.Input{
		{StartDate: "2025-08-13", EndDate: "2025-08-13", TimeStart: "08:00", TimeEnd: "12:00"},
	}
	_, err := f.svc.Create(ctx, f.actor, req)
	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)

	orders, err := f.svc.List(ctx, db.ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestCreateOrderBusyLock(t *testing.T) {
	f := setup(t)
	lock := &MockLock{}
	lock.On("Acquire", mock.Anything, mock.Anything).Return(orderredis.ErrVenueBusy)
	f.svc.Lock = lock

	_, err := f.svc.Create(context.Background(), f.actor, f.request("Gala", "2025-08-10", "2025-08-12", f.hallA.ID))
	assert.ErrorIs(t, err, order.ErrBookingBusy)
	lock.AssertNotCalled(t, "Release", mock.Anything, mock.Anything)
}

func TestPublishFailureDoesNotFailRequest(t *testing.T) {
	f := setup(t)
	events := &MockPublisher{}
	events.On("PublishOrderEvent", mock.Anything).Return(errors.New("broker down"))
	f.svc.Events = events

	_, err := f.svc.Create(context.Background(), f.actor, f.request("Gala", "2025-08-10", "2025-08-12", f.hallA.ID))
	assert.NoError(t, err)
}

func TestUpdateOrderExcludesItself(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	o, err := f.svc.Create(ctx, f.actor, f.request("Gala", "2025-08-10", "2025-08-12", f.hallA.ID))
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, f.actor, f.request("Expo", "2025-08-20", "2025-08-22", f.hallB.ID))
	require.NoError(t, err)

	upd := order.UpdateOrderRequest{
		CustomerID: f.customer.ID,
		EventName:  "Gala Dinner",
		StartDate:  "2025-08-11",
		EndDate:    "2025-08-13",
		VenueIDs:   []string{f.hallA.ID},
	}
	got, err := f.svc.Update(ctx, f.actor, o.ID, upd)
	require.NoError(t, err)
	assert.Equal(t, "Gala Dinner", got.EventName)
	assert.True(t, got.EndDate.Equal(time.Date(2025, 8, 13, 0, 0, 0, 0, time.UTC)))

	upd.VenueIDs = []string{f.hallA.ID, f.hallB.ID}
	upd.EndDate = "2025-08-20"
	_, err = f.svc.Update(ctx, f.actor, o.ID, upd)
	var cerr *apperr.ConflictError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, []string{"Hall B"}, cerr.VenueNames)

	got, err = f.svc.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Len(t, got.Venues, 1, "rejected update leaves venues untouched")
}

func TestUpdateOrderKeepsSchedulesInRange(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	req := f.request("Gala", "2025-08-10", "2025-08-12", f.hallA.ID)
	req.Schedules = []schedule.Input{
		{StartDate: "2025-08-10", EndDate: "2025-08-10", TimeStart: "08:00", TimeEnd: "12:00"},
	}
	o, err := f.svc.Create(ctx, f.actor, req)
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, f.actor, o.ID, order.UpdateOrderRequest{
		CustomerID: f.customer.ID,
		EventName:  "Gala",
		StartDate:  "2025-08-11",
		EndDate:    "2025-08-12",
		VenueIDs:   []string{f.hallA.ID},
	})
	var verr *apperr.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestDeleteOrderFreesDates(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	o, err := f.svc.Create(ctx, f.actor, f.request("Gala", "2025-08-10", "2025-08-12", f.hallA.ID))
	require.NoError(t, err)
	require.NoError(t, f.svc.Delete(ctx, f.actor, o.ID))

	_, err = f.svc.Get(ctx, o.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.ErrorIs(t, f.svc.Delete(ctx, f.actor, o.ID), apperr.ErrNotFound)

	orders, err := f.svc.List(ctx, db.ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, orders)

	_, err = f.svc.AddAttachment(ctx, o.ID, "rider.pdf", strings.NewReader("x"))
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	res, err := f.svc.Availability(ctx, "2025-08-10", "2025-08-12", []string{f.hallA.ID}, "")
	require.NoError(t, err)
	assert.False(t, res.Conflict)
	f.events.AssertCalled(t, "PublishOrderEvent", models.OrderEventDeleted)
}

func TestAvailability(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	o, err := f.svc.Create(ctx, f.actor, f.request("Gala", "2025-08-10", "2025-08-12", f.hallA.ID))
	require.NoError(t, err)

	res, err := f.svc.Availability(ctx, "2025-08-08", "2025-08-10", []string{f.hallA.ID, f.hallB.ID}, "")
	require.NoError(t, err)
	assert.True(t, res.Conflict)
	assert.Equal(t, []string{"Hall A"}, res.ConflictingVenueNames)

	res, err = f.svc.Availability(ctx, "2025-08-08", "2025-08-10", []string{f.hallA.ID}, o.ID)
	require.NoError(t, err)
	assert.False(t, res.Conflict)

	_, err = f.svc.Availability(ctx, "2025-08-10", "2025-08-08", []string{f.hallA.ID}, "")
	var verr *apperr.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestStatusLifecycle(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	o, err := f.svc.Create(ctx, f.actor, f.request("Gala", "2025-08-10", "2025-08-12", f.hallA.ID))
	require.NoError(t, err)

	_, err = f.svc.MarkComplete(ctx, f.actor, o.ID)
	assert.ErrorIs(t, err, workflow.ErrBeoNotApproved)

	got, err := f.svc.Confirm(ctx, f.actor, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusConfirmed, got.Status)

	_, err = f.svc.Confirm(ctx, f.actor, o.ID)
	assert.ErrorIs(t, err, workflow.ErrNotNewInquiry)

	_, err = f.svc.Approve(ctx, f.actor, o.ID)
	assert.ErrorIs(t, err, workflow.ErrNotAwaitingReview)

	_, err = f.svc.SendToApprover(ctx, f.actor, o.ID)
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, f.actor, o.ID)
	require.NoError(t, err)

	got, err = f.svc.MarkComplete(ctx, f.actor, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, got.Status)

	_, err = f.svc.MarkComplete(ctx, f.actor, o.ID)
	assert.ErrorIs(t, err, workflow.ErrAlreadyCompleted)

	stored, err := f.svc.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, stored.Status)
	assert.Equal(t, models.BeoStatusApproverApproved, stored.StatusBeo)

	_, err = f.svc.Update(ctx, f.actor, o.ID, order.UpdateOrderRequest{
		CustomerID: f.customer.ID,
		EventName:  "Gala",
		StartDate:  "2025-08-10",
		EndDate:    "2025-08-12",
		VenueIDs:   []string{f.hallA.ID},
	})
	var berr *apperr.BusinessError
	assert.ErrorAs(t, err, &berr)

	f.events.AssertNumberOfCalls(t, "PublishOrderEvent", 5)
}

func TestAttachments(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	o, err := f.svc.Create(ctx, f.actor, f.request("Gala", "2025-08-10", "2025-08-12", f.hallA.ID))
	require.NoError(t, err)

	a, err := f.svc.AddAttachment(ctx, o.ID, "rider.pdf", strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(a.FileName, "_rider.pdf"))
	assert.Equal(t, "/files/attachments/"+a.FileName, a.URL)

	got, err := f.svc.Get(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, got.Attachments, 1)
	assert.Equal(t, a.URL, got.Attachments[0].URL)

	require.NoError(t, f.svc.DeleteAttachment(ctx, o.ID, a.ID))
	assert.ErrorIs(t, f.svc.DeleteAttachment(ctx, o.ID, a.ID), apperr.ErrNotFound)

	got, err = f.svc.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Attachments)

	_, err = f.svc.AddAttachment(ctx, uuid.NewString(), "rider.pdf", strings.NewReader("x"))
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

type MockBlobs struct{ mock.Mock }

func (m *MockBlobs) Store(ctx context.Context, bucket, originalName string, r io.Reader) (string, error) {
	args := m.Called(bucket, originalName)
	return args.String(0), args.Error(1)
}

func (m *MockBlobs) Delete(ctx context.Context, bucket, name string) error {
	return m.Called(bucket, name).Error(0)
}

func (m *MockBlobs) URLFor(bucket, name string) string { return "/files/" + bucket + "/" + name }

// failingAttachments refuses to save attachment rows.
type failingAttachments struct{ *db.DB }

func (failingAttachments) CreateAttachment(context.Context, *models.OrderAttachment) error {
	return errors.New("disk full")
}

func TestAttachmentFileRemovedWhenRowFails(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	o, err := f.svc.Create(ctx, f.actor, f.request("Gala", "2025-08-10", "2025-08-12", f.hallA.ID))
	require.NoError(t, err)

	blobs := &MockBlobs{}
	blobs.On("Store", storage.BucketAttachments, "rider.pdf").Return("1_ab_rider.pdf", nil)
	blobs.On("Delete", storage.BucketAttachments, "1_ab_rider.pdf").Return(errors.New("permission denied"))

	var logs bytes.Buffer
	svc := order.NewOrderService(failingAttachments{f.svc.DB.(*db.DB)}, f.lock, f.events, blobs, logger.NewWithWriter(&logs))

	_, err = svc.AddAttachment(ctx, o.ID, "rider.pdf", strings.NewReader("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	blobs.AssertCalled(t, "Delete", storage.BucketAttachments, "1_ab_rider.pdf")
	assert.Contains(t, logs.String(), "1_ab_rider.pdf")
	assert.Contains(t, logs.String(), "permission denied")
}

// Two overlapping bookings racing through the real lock: exactly one wins.
func TestConcurrentCreateOnlyOneWins(t *testing.T) {
	f := setup(t)
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	f.svc.Lock = orderredis.NewRedis(client, config.RedisConfig{
		VenueLockTTL:  5 * time.Second,
		LockRetries:   200,
		LockRetryWait: 5 * time.Millisecond,
	}, logger.Discard())

	reqs := []order.CreateOrderRequest{
		f.request("Gala", "2025-08-10", "2025-08-12", f.hallA.ID),
		f.request("Expo", "2025-08-11", "2025-08-14", f.hallB.ID, f.hallA.ID),
	}
	errs := make([]error, len(reqs))
	var wg sync.WaitGroup
	for i := range reqs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Create(context.Background(), f.actor, reqs[i])
		}(i)
	}
	wg.Wait()

	var won, conflicted int
	for _, err := range errs {
		var cerr *apperr.ConflictError
		switch {
		case err == nil:
			won++
		case errors.As(err, &cerr):
			conflicted++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, 1, conflicted)

	orders, err := f.svc.List(context.Background(), db.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}
