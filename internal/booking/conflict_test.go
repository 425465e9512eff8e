package booking

import (
	"context"
	"testing"
	"time"

	"ms-venue-booking/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := models.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func iv(t *testing.T, start, end string) Interval {
	t.Helper()
	out, err := ParseInterval(start, end)
	require.NoError(t, err)
	return out
}

func TestOverlapsMatchesThreeCaseRule(t *testing.T) {
	base := day("2025-08-01")
	// Every pair of ranges inside a ten day window.
	for cs := 0; cs < 10; cs++ {
		for ce := cs; ce < 10; ce++ {
			for s := 0; s < 10; s++ {
				for e := s; e < 10; e++ {
					cand := Interval{Start: base.AddDate(0, 0, cs), End: base.AddDate(0, 0, ce)}
					existing := Interval{Start: base.AddDate(0, 0, s), End: base.AddDate(0, 0, e)}
					want := cs <= e && ce >= s
					assert.Equal(t, want, Overlaps(cand, existing), "%s vs %s", cand, existing)
					assert.Equal(t, want, overlapsByCases(cand, existing), "%s vs %s", cand, existing)
				}
			}
		}
	}
}

func TestOverlapsTouchingEndpoints(t *testing.T) {
	existing := iv(t, "2025-08-10", "2025-08-12")
	assert.True(t, Overlaps(iv(t, "2025-08-12", "2025-08-14"), existing), "candidate starts on existing end")
	assert.True(t, Overlaps(iv(t, "2025-08-08", "2025-08-10"), existing), "candidate ends on existing start")
	assert.False(t, Overlaps(iv(t, "2025-08-13", "2025-08-14"), existing))
	assert.False(t, Overlaps(iv(t, "2025-08-01", "2025-08-09"), existing))
}

func TestNewIntervalRejectsInvertedRange(t *testing.T) {
	_, err := ParseInterval("2025-08-12", "2025-08-10")
	assert.ErrorIs(t, err, ErrInvertedInterval)

	single := iv(t, "2025-08-10", "2025-08-10")
	assert.Equal(t, 1, single.Days())
	assert.Equal(t, 3, iv(t, "2025-08-10", "2025-08-12").Days())
}

func hallAOrders() []models.Order {
	return []models.Order{
		{
			ID:        "order-1",
			EventName: "Tech Expo",
			StartDate: day("2025-08-10"),
			EndDate:   day("2025-08-12"),
			Venues:    []models.Venue{{ID: "hall-a", Name: "Hall A"}},
		},
		{
			ID:        "order-2",
			EventName: "Wedding",
			StartDate: day("2025-08-20"),
			EndDate:   day("2025-08-21"),
			Venues:    []models.Venue{{ID: "hall-a", Name: "Hall A"}, {ID: "hall-b", Name: "Hall B"}},
		},
		{
			ID:        "order-deleted",
			EventName: "Cancelled gig",
			StartDate: day("2025-08-13"),
			EndDate:   day("2025-08-14"),
			Venues:    []models.Venue{{ID: "hall-a", Name: "Hall A"}},
			DeletedAt: time.Now(),
		},
	}
}

func TestBuildIndexProjectsOrdersOntoVenues(t *testing.T) {
	idx := BuildIndex(hallAOrders())
	require.Len(t, idx["hall-a"], 2)
	require.Len(t, idx["hall-b"], 1)
	assert.Equal(t, "order-2", idx["hall-b"][0].OrderID)
	assert.Equal(t, "Wedding", idx["hall-b"][0].EventName)
}

func TestCheckerScenarios(t *testing.T) {
	checker := NewChecker(StaticSource(BuildIndex(hallAOrders())))
	ctx := context.Background()

	t.Run("touching boundary conflicts", func(t *testing.T) {
		res, err := checker.Check(ctx, iv(t, "2025-08-12", "2025-08-14"), []string{"hall-a"}, "")
		require.NoError(t, err)
		assert.True(t, res.Conflict)
		assert.Equal(t, []string{"Hall A"}, res.ConflictingVenueNames)
	})

	t.Run("day after is free", func(t *testing.T) {
		res, err := checker.Check(ctx, iv(t, "2025-08-13", "2025-08-14"), []string{"hall-a"}, "")
		require.NoError(t, err)
		assert.False(t, res.Conflict)
		assert.Empty(t, res.ConflictingVenueNames)
	})

	t.Run("names every clashing venue once", func(t *testing.T) {
		res, err := checker.Check(ctx, iv(t, "2025-08-01", "2025-08-31"), []string{"hall-b", "hall-a", "hall-c"}, "")
		require.NoError(t, err)
		assert.Equal(t, []string{"Hall A", "Hall B"}, res.ConflictingVenueNames)
		assert.Len(t, res.Clashes, 3)
	})

	t.Run("order does not conflict with itself", func(t *testing.T) {
		res, err := checker.Check(ctx, iv(t, "2025-08-19", "2025-08-21"), []string{"hall-a", "hall-b"}, "order-2")
		require.NoError(t, err)
		assert.False(t, res.Conflict)
	})
}
