package sse

import (
	"context"
	"sync"

	"ms-venue-booking/internal/models"
)

// CalendarEventEmitter fans order events out to calendar viewers subscribed
// to the months those events touch.
type CalendarEventEmitter struct {
	clients map[string][]chan models.OrderEvent
	mu      sync.RWMutex
}

func NewCalendarEventEmitter() *CalendarEventEmitter {
	return &CalendarEventEmitter{clients: make(map[string][]chan models.OrderEvent)}
}

// Subscribe registers a viewer of month (YYYY-MM). The channel closes when ctx ends.
func (e *CalendarEventEmitter) Subscribe(ctx context.Context, month string) <-chan models.OrderEvent {
	ch := make(chan models.OrderEvent, 10)

	e.mu.Lock()
	e.clients[month] = append(e.clients[month], ch)
	e.mu.Unlock()

	go func() {
		<-ctx.Done()
		e.remove(month, ch)
	}()
	return ch
}

// Emit broadcasts ev to every month it touches.
func (e *CalendarEventEmitter) Emit(ev models.OrderEvent) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, month := range ev.Months() {
		for _, ch := range e.clients[month] {
			// Non-blocking send to avoid slowing down emitter if client is slow
			select {
			case ch <- ev:
			default:
			}
		}
	}
}

// PublishOrderEvent lets the emitter stand in for the Kafka publisher.
func (e *CalendarEventEmitter) PublishOrderEvent(_ context.Context, ev models.OrderEvent) error {
	e.Emit(ev)
	return nil
}

func (e *CalendarEventEmitter) remove(month string, ch chan models.OrderEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()

	clients := e.clients[month]
	for i, c := range clients {
		if c == ch {
			e.clients[month] = append(clients[:i], clients[i+1:]...)
			close(ch)
			break
		}
	}
	if len(e.clients[month]) == 0 {
		delete(e.clients, month)
	}
}

// ClientCount returns the number of viewers of month.
func (e *CalendarEventEmitter) ClientCount(month string) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.clients[month])
}
