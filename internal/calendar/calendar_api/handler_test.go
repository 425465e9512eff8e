package calendar_api

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-venue-booking/internal/auth"
	"ms-venue-booking/internal/calendar"
	"ms-venue-booking/internal/logger"
	"ms-venue-booking/internal/models"
	"ms-venue-booking/internal/sse"
	"ms-venue-booking/internal/utils"
)

type stubSource struct{}

func (stubSource) OrdersInRange(context.Context, time.Time, time.Time) ([]models.Order, error) {
	return nil, nil
}

func (stubSource) ListVenues(context.Context) ([]models.Venue, error) {
	return []models.Venue{{ID: "v1", Name: "Hall A", ShortCode: "HA"}}, nil
}

func server(t *testing.T, role auth.Role) (*httptest.Server, *sse.CalendarEventEmitter) {
	t.Helper()
	emitter := sse.NewCalendarEventEmitter()
	h := NewHandler(calendar.NewService(stubSource{}, stubSource{}, logger.Discard()), emitter, logger.Discard())
	h.Heartbeat = time.Hour

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			p := auth.NewPrincipal("u-1", []auth.Role{role}, nil)
			next.ServeHTTP(w, req.WithContext(auth.WithPrincipal(req.Context(), p)))
		})
	})
	r.Route("/calendar", h.RegisterRoutes)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, emitter
}

func TestMonth(t *testing.T) {
	srv, _ := server(t, auth.RolePIC)

	resp, err := http.Get(srv.URL + "/calendar?month=2025-02")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body utils.APIResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	grid := body.Data.(map[string]interface{})
	assert.Len(t, grid["days"], 28)

	bad, err := http.Get(srv.URL + "/calendar?month=feb")
	require.NoError(t, err)
	bad.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, bad.StatusCode)
}

func readEvent(t *testing.T, r *bufio.Reader) (string, string) {
	t.Helper()
	var name, data string
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "" && name != "":
			return name, data
		case strings.HasPrefix(line, "event: "):
			name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func TestStreamDeliversOrderEvents(t *testing.T) {
	srv, emitter := server(t, auth.RoleSales)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/calendar/stream?month=2025-06", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	name, data := readEvent(t, reader)
	assert.Equal(t, "ready", name)
	assert.JSONEq(t, `{"month":"2025-06"}`, data)
	require.Equal(t, 1, emitter.ClientCount("2025-06"))

	// other months are not delivered
	emitter.Emit(models.OrderEvent{Type: models.OrderEventCreated, OrderID: "skip", StartDate: "2025-08-01", EndDate: "2025-08-02"})
	emitter.Emit(models.OrderEvent{Type: models.OrderEventCreated, OrderID: "o1", StartDate: "2025-05-30", EndDate: "2025-06-02"})

	name, data = readEvent(t, reader)
	assert.Equal(t, "order", name)
	var ev models.OrderEvent
	require.NoError(t, json.Unmarshal([]byte(data), &ev))
	assert.Equal(t, "o1", ev.OrderID)

	cancel()
	assert.Eventually(t, func() bool { return emitter.ClientCount("2025-06") == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestStreamForbiddenWithoutCapability(t *testing.T) {
	srv, _ := server(t, auth.Role("guest"))
	resp, err := http.Get(srv.URL + "/calendar/stream")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
