package utils

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-venue-booking/internal/apperr"
)

func TestGenerateFileName(t *testing.T) {
	name := GenerateFileName("../Floor Plan (v2).pdf")
	assert.Regexp(t, regexp.MustCompile(`^\d+_[0-9a-f]{16}_Floor-Plan-v2-.pdf$`), name)

	assert.NotEqual(t, GenerateFileName("a.txt"), GenerateFileName("a.txt"))
}

func TestSanitizeFileName(t *testing.T) {
	assert.Equal(t, "file", SanitizeFileName("///"))
	assert.Equal(t, "report.pdf", SanitizeFileName(`C:\docs\report.pdf`))
}

func TestParseMonth(t *testing.T) {
	now := time.Date(2025, time.March, 4, 0, 0, 0, 0, time.UTC)

	y, m, err := ParseMonth("", now)
	require.NoError(t, err)
	assert.Equal(t, 2025, y)
	assert.Equal(t, time.March, m)

	y, m, err = ParseMonth("2024-02", now)
	require.NoError(t, err)
	assert.Equal(t, 2024, y)
	assert.Equal(t, time.February, m)

	_, _, err = ParseMonth("2024/02", now)
	assert.Error(t, err)
}

func TestWriteError(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{apperr.Field("name", "is required"), http.StatusUnprocessableEntity},
		{&apperr.ConflictError{VenueNames: []string{"Hall A"}}, http.StatusConflict},
		{apperr.Business("customer still has orders"), http.StatusBadRequest},
		{fmt.Errorf("get order: %w", apperr.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("dial tcp: refused"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		WriteError(rec, "failed", tc.err)
		assert.Equal(t, tc.status, rec.Code)

		var body APIResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.False(t, body.Success)
	}

	rec := httptest.NewRecorder()
	WriteError(rec, "invalid", apperr.Field("email", "must be a valid email"))
	var body APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "must be a valid email", body.Fields["email"])

	rec = httptest.NewRecorder()
	WriteError(rec, "failed", fmt.Errorf("pq: secret detail"))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "internal server error", body.Error)
}
