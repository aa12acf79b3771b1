// Package invariant provides test helpers for the correctness properties
// of the outfit engine: structural validity, score bounds, ranking order,
// laundry exclusion and preference weight bounds.
package invariant

import (
	"context"
	"database/sql"
	"math"
	"testing"

	"github.com/runger/wardrobe/internal/outfits/candidate"
	"github.com/runger/wardrobe/internal/outfits/rank"
	"github.com/runger/wardrobe/internal/outfits/score"
)

const epsilon = 1e-9

// AssertStructure fails for any candidate that is neither top+bottom nor a
// dress, or that mixes the two.
func AssertStructure(t testing.TB, cands []candidate.Candidate) {
	t.Helper()
	for i, c := range cands {
		if err := c.Validate(); err != nil {
			t.Errorf("candidate %d (%s) invalid: %v", i, c.Key(), err)
		}
	}
}

// AssertScoreBounds checks every factor against its range, that raw is the
// factor sum and that final is raw plus bonus clamped to [0, FinalMax].
func AssertScoreBounds(t testing.TB, scored []score.Scored, cfg score.Config) {
	t.Helper()
	for i, s := range scored {
		b := s.Scores
		inRange(t, i, "weather", b.Weather, 0, score.WeatherMax)
		inRange(t, i, "color", b.Color, 0, score.ColorMax)
		inRange(t, i, "pattern", b.Pattern, 0, score.PatternMax)
		inRange(t, i, "variety", b.Variety, 0, score.VarietyMax)
		inRange(t, i, "formality", b.Formality, 0, score.FormalityMax)
		inRange(t, i, "raw", b.Raw, 0, score.RawMax)
		inRange(t, i, "bonus", b.Bonus, cfg.BonusMin, cfg.BonusMax)
		inRange(t, i, "final", b.Final, 0, score.FinalMax)

		sum := b.Weather + b.Color + b.Pattern + b.Variety + b.Formality
		if math.Abs(sum-b.Raw) > epsilon {
			t.Errorf("suggestion %d: raw %v != factor sum %v", i, b.Raw, sum)
		}
		want := math.Max(0, math.Min(score.FinalMax, b.Raw+b.Bonus))
		if math.Abs(want-b.Final) > epsilon {
			t.Errorf("suggestion %d: final %v, want clamp(raw+bonus) = %v", i, b.Final, want)
		}
	}
}

func inRange(t testing.TB, i int, name string, v, lo, hi float64) {
	t.Helper()
	if math.IsNaN(v) || v < lo-epsilon || v > hi+epsilon {
		t.Errorf("suggestion %d: %s = %v outside [%v, %v]", i, name, v, lo, hi)
	}
}

// AssertRanked fails if any suggestion ranks ahead of its predecessor.
func AssertRanked(t testing.TB, scored []score.Scored) {
	t.Helper()
	for i := 1; i < len(scored); i++ {
		if rank.Less(scored[i], scored[i-1]) {
			t.Errorf("suggestion %d (%s) ranks ahead of %d (%s)",
				i, scored[i].Candidate.Key(), i-1, scored[i-1].Candidate.Key())
		}
	}
}

// AssertNoLaundry fails if a suggestion contains an item in the laundry.
func AssertNoLaundry(t testing.TB, scored []score.Scored) {
	t.Helper()
	for i, s := range scored {
		for _, it := range s.Candidate.Items() {
			if it.InLaundry {
				t.Errorf("suggestion %d contains laundry item %d", i, it.ID)
			}
		}
	}
}

// AssertWeightBounds fails if any stored preference weight is outside [lo, hi].
func AssertWeightBounds(t testing.TB, db *sql.DB, lo, hi float64) {
	t.Helper()
	rows, err := db.QueryContext(context.Background(),
		`SELECT preference_type, preference_value, weight FROM style_profile`)
	if err != nil {
		t.Fatalf("failed to query style profile: %v", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			typ, value string
			w          float64
		)
		if err := rows.Scan(&typ, &value, &w); err != nil {
			t.Fatalf("failed to scan preference: %v", err)
		}
		if w < lo-epsilon || w > hi+epsilon {
			t.Errorf("preference %s=%s weight %v outside [%v, %v]", typ, value, w, lo, hi)
		}
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("failed to iterate preferences: %v", err)
	}
}

// AssertWearCounts fails unless every listed item has the given times_worn.
func AssertWearCounts(t testing.TB, db *sql.DB, want map[int64]int) {
	t.Helper()
	for id, n := range want {
		var got int
		err := db.QueryRowContext(context.Background(),
			`SELECT times_worn FROM clothes WHERE id = ?`, id).Scan(&got)
		if err != nil {
			t.Fatalf("failed to read times_worn for %d: %v", id, err)
		}
		if got != n {
			t.Errorf("item %d times_worn = %d, want %d", id, got, n)
		}
	}
}
