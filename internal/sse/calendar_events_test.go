package sse

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-venue-booking/internal/models"
)

func TestEmitReachesEveryTouchedMonth(t *testing.T) {
	e := NewCalendarEventEmitter()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	aug := e.Subscribe(ctx, "2025-08")
	sep := e.Subscribe(ctx, "2025-09")
	oct := e.Subscribe(ctx, "2025-10")

	ev := models.OrderEvent{Type: models.OrderEventCreated, OrderID: "o1", StartDate: "2025-08-30", EndDate: "2025-09-02"}
	require.NoError(t, e.PublishOrderEvent(ctx, ev))

	assert.Equal(t, "o1", (<-aug).OrderID)
	assert.Equal(t, "o1", (<-sep).OrderID)
	select {
	case <-oct:
		t.Fatal("October viewer should not receive an August/September event")
	default:
	}
}

func TestSubscriberRemovedOnCancel(t *testing.T) {
	e := NewCalendarEventEmitter()
	ctx, cancel := context.WithCancel(context.Background())

	ch := e.Subscribe(ctx, "2025-08")
	assert.Equal(t, 1, e.ClientCount("2025-08"))

	cancel()
	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
	assert.Equal(t, 0, e.ClientCount("2025-08"))
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	e := NewCalendarEventEmitter()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	e.Subscribe(ctx, "2025-08")

	done := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			e.Emit(models.OrderEvent{OrderID: "o", StartDate: "2025-08-01", EndDate: "2025-08-01"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("emit blocked on a full subscriber")
	}
}
