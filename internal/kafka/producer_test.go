package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"ms-venue-booking/internal/models"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishJSON(ctx context.Context, topic, key string, v interface{}) error {
	args := m.Called(ctx, topic, key, v)
	return args.Error(0)
}

func TestOrderEventsKeysByOrderID(t *testing.T) {
	pub := new(MockPublisher)
	events := OrderEvents{Publisher: pub, Topic: "venue.order.events"}

	o := models.Order{
		ID:        "order-1",
		EventName: "Gala",
		StartDate: time.Date(2025, 8, 10, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 8, 12, 0, 0, 0, 0, time.UTC),
		Venues:    []models.Venue{{ID: "hall-a"}},
	}
	ev := models.NewOrderEvent(models.OrderEventCreated, o, "user-1")

	pub.On("PublishJSON", mock.Anything, "venue.order.events", "order-1", ev).Return(nil)

	assert.NoError(t, events.PublishOrderEvent(context.Background(), ev))
	pub.AssertExpectations(t)
}

func TestBeoEventsKeysByOrderID(t *testing.T) {
	pub := new(MockPublisher)
	events := BeoEvents{Publisher: pub, Topic: "venue.beo.events"}

	ev := models.NewBeoEvent(models.BeoEventCreated, models.Beo{ID: "beo-1", OrderID: "order-1", DepartmentID: "fnb"}, models.BeoStatusInProgress, "")
	pub.On("PublishJSON", mock.Anything, "venue.beo.events", "order-1", ev).Return(nil)

	assert.NoError(t, events.PublishBeoEvent(context.Background(), ev))
	pub.AssertExpectations(t)
}

func TestNopPublisher(t *testing.T) {
	assert.NoError(t, Nop{}.PublishJSON(context.Background(), "t", "k", struct{}{}))
}
