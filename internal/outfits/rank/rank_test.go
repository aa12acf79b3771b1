package rank

import (
	"math/rand"
	"testing"

	"github.com/runger/wardrobe/internal/outfits/candidate"
	"github.com/runger/wardrobe/internal/outfits/inventory"
	"github.com/runger/wardrobe/internal/outfits/score"
)

func it(id int64, t inventory.ClothingType, worn int) *inventory.ClothingItem {
	return &inventory.ClothingItem{ID: id, Type: t, TimesWorn: worn}
}

func scored(final, variety float64, top, bottom, shoes int64) score.Scored {
	return score.Scored{
		Candidate: candidate.Candidate{
			Top:    it(top, inventory.TypeTop, 0),
			Bottom: it(bottom, inventory.TypeBottom, 0),
			Shoes:  it(shoes, inventory.TypeShoes, 0),
		},
		Scores: score.Breakdown{Final: final, Variety: variety},
	}
}

func keys(s []score.Scored) []string {
	out := make([]string, len(s))
	for i := range s {
		out[i] = s[i].Candidate.Key()
	}
	return out
}

func TestLess_TieBreaks(t *testing.T) {
	t.Parallel()

	a := scored(80, 10, 1, 2, 3)
	b := scored(80, 12, 4, 5, 6)
	if !Less(b, a) {
		t.Error("higher variety should rank first on equal final")
	}

	c := scored(80, 10, 7, 8, 9)
	c.Candidate.Top = it(7, inventory.TypeTop, 4)
	if !Less(a, c) {
		t.Error("fewer total wears should rank first on equal final and variety")
	}

	d := scored(80, 10, 1, 2, 4)
	if !Less(a, d) || Less(d, a) {
		t.Error("lower slot-ordered ids should break the final tie")
	}
	if Less(a, a) {
		t.Error("Less must be irreflexive")
	}
}

func TestSelect_Deterministic(t *testing.T) {
	t.Parallel()

	var pool []score.Scored
	for i := int64(1); i <= 6; i++ {
		for j := int64(10); j <= 13; j++ {
			pool = append(pool, scored(50, 10, i, j, 20+i%2))
		}
	}

	first := keys(Select(pool, 4, DefaultConfig()))

	shuffled := make([]score.Scored, len(pool))
	copy(shuffled, pool)
	rand.New(rand.NewSource(3)).Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	second := keys(Select(shuffled, 4, DefaultConfig()))

	if len(first) != len(second) {
		t.Fatalf("lengths differ: %v vs %v", first, second)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("order differs at %d: %v vs %v", i, first, second)
		}
	}
}

func TestSelect_DiversityFilter(t *testing.T) {
	t.Parallel()

	pool := []score.Scored{
		scored(90, 10, 1, 2, 3),
		scored(89, 10, 1, 2, 4), // shares top and bottom with the best
		scored(80, 10, 5, 6, 3), // shares shoes only
	}

	got := Select(pool, 2, DefaultConfig())
	if len(got) != 2 {
		t.Fatalf("Select() returned %d, want 2", len(got))
	}
	if got[0].Candidate.Key() != pool[0].Candidate.Key() || got[1].Candidate.Key() != pool[2].Candidate.Key() {
		t.Errorf("Select() = %v, want the best and the distinct one", keys(got))
	}
}

func TestSelect_FillsWhenTooFewDistinct(t *testing.T) {
	t.Parallel()

	pool := []score.Scored{
		scored(90, 10, 1, 2, 3),
		scored(85, 10, 1, 2, 4),
		scored(70, 10, 1, 2, 5),
	}
	got := Select(pool, 3, DefaultConfig())
	if len(got) != 3 {
		t.Fatalf("Select() returned %d, want 3", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Scores.Final > got[i-1].Scores.Final {
			t.Errorf("result not in ranked order: %v", keys(got))
		}
	}
}

func TestSelect_Bounds(t *testing.T) {
	t.Parallel()

	pool := []score.Scored{scored(90, 10, 1, 2, 3)}
	if got := Select(pool, 5, DefaultConfig()); len(got) != 1 {
		t.Errorf("Select() returned %d, want 1", len(got))
	}
	if got := Select(pool, 0, DefaultConfig()); got != nil {
		t.Errorf("Select(n=0) = %v, want nil", got)
	}
	if got := Select(nil, 3, DefaultConfig()); got != nil {
		t.Errorf("Select(empty) = %v, want nil", got)
	}
}

func TestTooSimilar_DressVersusRegular(t *testing.T) {
	t.Parallel()

	shoes := it(9, inventory.TypeShoes, 0)
	dress := score.Scored{Candidate: candidate.Candidate{Dress: it(1, inventory.TypeDress, 0), Shoes: shoes}}
	regular := score.Scored{Candidate: candidate.Candidate{
		Top: it(2, inventory.TypeTop, 0), Bottom: it(3, inventory.TypeBottom, 0), Shoes: shoes,
	}}

	// 1 shared slot of min size 2 is exactly half, which is allowed.
	if TooSimilar(dress, regular, 0.5) {
		t.Error("sharing only shoes should not be too similar")
	}
}
