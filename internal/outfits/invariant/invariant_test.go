package invariant

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/runger/wardrobe/internal/outfits/candidate"
	outfitsdb "github.com/runger/wardrobe/internal/outfits/db"
	"github.com/runger/wardrobe/internal/outfits/inventory"
	"github.com/runger/wardrobe/internal/outfits/score"
)

// spy records failures instead of failing the enclosing test.
type spy struct {
	testing.TB
	errors []string
}

func (s *spy) Helper() {}

func (s *spy) Errorf(format string, args ...any) {
	s.errors = append(s.errors, fmt.Sprintf(format, args...))
}

func (s *spy) Fatalf(format string, args ...any) {
	s.errors = append(s.errors, fmt.Sprintf(format, args...))
}

func item(id int64, t inventory.ClothingType) *inventory.ClothingItem {
	return &inventory.ClothingItem{ID: id, Type: t}
}

func TestAssertStructure(t *testing.T) {
	good := []candidate.Candidate{
		{Top: item(1, inventory.TypeTop), Bottom: item(2, inventory.TypeBottom)},
		{Dress: item(3, inventory.TypeDress)},
	}
	AssertStructure(t, good)

	s := &spy{}
	AssertStructure(s, []candidate.Candidate{
		{Top: item(1, inventory.TypeTop)},
		{Top: item(1, inventory.TypeTop), Bottom: item(2, inventory.TypeBottom), Dress: item(3, inventory.TypeDress)},
	})
	if len(s.errors) != 2 {
		t.Errorf("expected 2 structure violations, got %v", s.errors)
	}
}

func TestAssertScoreBounds(t *testing.T) {
	cfg := score.DefaultConfig()
	ok := score.Scored{Scores: score.Breakdown{
		Weather: 25, Color: 25, Pattern: 15, Variety: 20, Formality: 15, Raw: 100, Bonus: 15, Final: 115,
	}}
	AssertScoreBounds(t, []score.Scored{ok}, cfg)

	s := &spy{}
	bad := ok
	bad.Scores.Final = 100
	bad.Scores.Bonus = 20
	AssertScoreBounds(s, []score.Scored{bad}, cfg)
	if len(s.errors) != 2 {
		t.Errorf("expected bonus range and final clamp violations, got %v", s.errors)
	}
}

func TestAssertRanked(t *testing.T) {
	hi := score.Scored{
		Candidate: candidate.Candidate{Dress: item(1, inventory.TypeDress)},
		Scores:    score.Breakdown{Final: 90},
	}
	lo := score.Scored{
		Candidate: candidate.Candidate{Dress: item(2, inventory.TypeDress)},
		Scores:    score.Breakdown{Final: 60},
	}
	AssertRanked(t, []score.Scored{hi, lo})

	s := &spy{}
	AssertRanked(s, []score.Scored{lo, hi})
	if len(s.errors) != 1 {
		t.Errorf("expected 1 ranking violation, got %v", s.errors)
	}
}

func TestAssertNoLaundry(t *testing.T) {
	dirty := item(4, inventory.TypeDress)
	dirty.InLaundry = true

	s := &spy{}
	AssertNoLaundry(s, []score.Scored{{Candidate: candidate.Candidate{Dress: dirty}}})
	if len(s.errors) != 1 {
		t.Errorf("expected 1 laundry violation, got %v", s.errors)
	}
}

func TestAssertDatabaseInvariants(t *testing.T) {
	d, err := outfitsdb.Open(context.Background(), outfitsdb.Options{
		Path:     filepath.Join(t.TempDir(), "invariant.db"),
		SkipLock: true,
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	sqlDB := d.DB()

	_, err = sqlDB.Exec(`INSERT INTO style_profile (preference_type, preference_value, weight, updated_at)
		VALUES ('color', '#000080', 4.5, 0), ('pattern', 'floral', 0.5, 0)`)
	if err != nil {
		t.Fatalf("seed profile: %v", err)
	}
	AssertWeightBounds(t, sqlDB, 0, 5)

	s := &spy{}
	AssertWeightBounds(s, sqlDB, 1, 4)
	if len(s.errors) != 2 {
		t.Errorf("expected 2 weight violations, got %v", s.errors)
	}

	id, err := inventory.NewStore(sqlDB, nil).Add(context.Background(),
		inventory.ClothingItem{Type: inventory.TypeShoes})
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	AssertWearCounts(t, sqlDB, map[int64]int{id: 0})

	s = &spy{}
	AssertWearCounts(s, sqlDB, map[int64]int{id: 3})
	if len(s.errors) != 1 {
		t.Errorf("expected 1 wear count violation, got %v", s.errors)
	}
}
