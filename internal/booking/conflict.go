package booking

import (
	"context"
	"fmt"
	"sort"
)

// Overlaps is the closed-interval overlap test: two ranges clash when each
// starts no later than the other ends. Touching endpoints clash.
func Overlaps(candidate, existing Interval) bool {
	return !candidate.Start.After(existing.End) && !candidate.End.Before(existing.Start)
}

// overlapsByCases is the three-case formulation used by the booking form:
// the candidate starts inside, ends inside, or swallows the existing range.
// It is kept to prove equivalence with Overlaps in tests.
func overlapsByCases(candidate, existing Interval) bool {
	startsInside := existing.Contains(candidate.Start)
	endsInside := existing.Contains(candidate.End)
	contains := !candidate.Start.After(existing.Start) && !candidate.End.Before(existing.End)
	return startsInside || endsInside || contains
}

type Result struct {
	Conflict              bool       `json:"conflict"`
	ConflictingVenueNames []string   `json:"conflicting_venue_names"`
	Clashes               []Occupied `json:"-"`
}

type Checker struct {
	Source IntervalSource
}

func NewChecker(src IntervalSource) *Checker {
	return &Checker{Source: src}
}

// Check reports which of venueIDs already hold an interval overlapping the
// candidate range.
func (c *Checker) Check(ctx context.Context, candidate Interval, venueIDs []string, excludeOrderID string) (Result, error) {
	idx, err := c.Source.OccupiedIntervals(ctx, venueIDs, excludeOrderID)
	if err != nil {
		return Result{}, fmt.Errorf("load occupied intervals: %w", err)
	}
	return Evaluate(idx, candidate, venueIDs, excludeOrderID), nil
}

// Evaluate runs the overlap test against an already loaded index.
func Evaluate(idx Index, candidate Interval, venueIDs []string, excludeOrderID string) Result {
	res := Result{ConflictingVenueNames: []string{}}
	seen := make(map[string]bool)
	for _, venueID := range venueIDs {
		for _, occ := range idx[venueID] {
			if excludeOrderID != "" && occ.OrderID == excludeOrderID {
				continue
			}
			if !Overlaps(candidate, occ.Interval) {
				continue
			}
			res.Clashes = append(res.Clashes, occ)
			if !seen[venueID] {
				seen[venueID] = true
				name := occ.VenueName
				if name == "" {
					name = venueID
				}
				res.ConflictingVenueNames = append(res.ConflictingVenueNames, name)
			}
		}
	}
	sort.Strings(res.ConflictingVenueNames)
	res.Conflict = len(res.ConflictingVenueNames) > 0
	return res
}
