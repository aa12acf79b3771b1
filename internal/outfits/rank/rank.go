// Package rank orders scored candidates and picks a diverse top N.
package rank

import (
	"sort"

	"github.com/runger/wardrobe/internal/outfits/score"
)

// Config controls selection.
type Config struct {
	// MaxOverlap is the largest share of slots (relative to the smaller
	// candidate) two suggestions may have in common before the later one
	// is held back as a near-duplicate.
	MaxOverlap float64
}

// DefaultConfig returns the default selection settings.
func DefaultConfig() Config {
	return Config{MaxOverlap: 0.5}
}

// Less reports whether a ranks ahead of b: higher final score, then higher
// variety, then fewer total wears, then the slot-ordered item ids.
func Less(a, b score.Scored) bool {
	if a.Scores.Final != b.Scores.Final {
		return a.Scores.Final > b.Scores.Final
	}
	if a.Scores.Variety != b.Scores.Variety {
		return a.Scores.Variety > b.Scores.Variety
	}
	wa, wb := a.Candidate.TotalTimesWorn(), b.Candidate.TotalTimesWorn()
	if wa != wb {
		return wa < wb
	}
	ia, ib := a.Candidate.IDs(), b.Candidate.IDs()
	for i := range ia {
		if ia[i] != ib[i] {
			return ia[i] < ib[i]
		}
	}
	return false
}

// Sort orders scored in place.
func Sort(scored []score.Scored) {
	sort.SliceStable(scored, func(i, j int) bool { return Less(scored[i], scored[j]) })
}

// TooSimilar reports whether a and b share more than maxOverlap of the
// smaller candidate's slots.
func TooSimilar(a, b score.Scored, maxOverlap float64) bool {
	size := min(a.Candidate.Size(), b.Candidate.Size())
	if size == 0 {
		return false
	}
	return float64(a.Candidate.Overlap(b.Candidate))/float64(size) > maxOverlap
}

// Select sorts scored and returns at most n suggestions. Candidates that
// are too similar to an already accepted one are skipped; if that leaves
// fewer than n, the skipped ones fill the remainder in ranked order.
func Select(scored []score.Scored, n int, cfg Config) []score.Scored {
	if n <= 0 || len(scored) == 0 {
		return nil
	}

	ranked := make([]score.Scored, len(scored))
	copy(ranked, scored)
	Sort(ranked)

	picked := make([]score.Scored, 0, n)
	var skipped []int
	for i, cand := range ranked {
		if len(picked) == n {
			break
		}
		distinct := true
		for _, p := range picked {
			if TooSimilar(cand, p, cfg.MaxOverlap) {
				distinct = false
				break
			}
		}
		if distinct {
			picked = append(picked, cand)
		} else {
			skipped = append(skipped, i)
		}
	}

	if len(picked) < n {
		for _, i := range skipped {
			if len(picked) == n {
				break
			}
			picked = append(picked, ranked[i])
		}
		// Keep the fill-ins in ranked position relative to each other.
		Sort(picked)
	}
	return picked
}
