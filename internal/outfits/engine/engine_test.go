package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"path/filepath"
	"testing"
	"time"

	"github.com/runger/wardrobe/internal/outfits/candidate"
	outfitsdb "github.com/runger/wardrobe/internal/outfits/db"
	"github.com/runger/wardrobe/internal/outfits/history"
	"github.com/runger/wardrobe/internal/outfits/inventory"
	"github.com/runger/wardrobe/internal/outfits/invariant"
	"github.com/runger/wardrobe/internal/outfits/metrics"
	"github.com/runger/wardrobe/internal/outfits/profile"
	"github.com/runger/wardrobe/internal/outfits/score"
)

var wearTime = time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

type harness struct {
	svc      *Service
	inv      *inventory.Store
	counters *metrics.Counters
	db       *outfitsdb.DB
}

func newHarness(t *testing.T) harness {
	t.Helper()

	d, err := outfitsdb.Open(context.Background(), outfitsdb.Options{
		Path:     filepath.Join(t.TempDir(), "wardrobe.db"),
		SkipLock: true,
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	counters := &metrics.Counters{}
	cfg := DefaultConfig()
	cfg.Metrics = counters
	cfg.Now = func() time.Time { return wearTime }
	return harness{
		svc:      NewFromDB(d.DB(), cfg, profile.DefaultConfig()),
		inv:      inventory.NewStore(d.DB(), nil),
		counters: counters,
		db:       d,
	}
}

func (h harness) add(t *testing.T, typ inventory.ClothingType, color string, pattern inventory.Pattern) int64 {
	t.Helper()
	id, err := h.inv.Add(context.Background(), inventory.ClothingItem{Type: typ, ColorPrimary: color, Pattern: pattern})
	if err != nil {
		t.Fatalf("add %s: %v", typ, err)
	}
	return id
}

func TestSuggest_NavyBlackWhite(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.add(t, inventory.TypeTop, "#000080", inventory.PatternSolid)
	h.add(t, inventory.TypeBottom, "#000000", inventory.PatternSolid)
	h.add(t, inventory.TypeShoes, "#ffffff", inventory.PatternSolid)

	resp, err := h.svc.Suggest(context.Background(), Request{
		Weather:  weatherOf(20, "Clear"),
		Occasion: inventory.OccasionCasual,
		Count:    1,
	})
	if err != nil {
		t.Fatalf("Suggest() error = %v", err)
	}
	if resp.RequestID == "" {
		t.Error("response has no request id")
	}
	if resp.Shortfall != candidate.ShortfallNone || len(resp.Suggestions) != 1 {
		t.Fatalf("Suggest() = %+v, want one suggestion", resp)
	}
	got := resp.Suggestions[0]
	if got.Candidate.Size() != 3 || got.Candidate.Shoes == nil {
		t.Errorf("suggestion = %s, want top+bottom+shoes", got.Candidate.Key())
	}
	if got.Scores.Final != score.RawMax {
		t.Errorf("Final = %v, want %v (%+v)", got.Scores.Final, score.RawMax, got.Scores)
	}
	if h.counters.SuggestRequests.Load() != 1 || h.counters.SuggestHits.Load() != 1 {
		t.Errorf("metrics = %v", h.counters.Snapshot())
	}
}

func weatherOf(tempC float64, condition string) *inventory.Weather {
	return &inventory.Weather{TempC: tempC, Condition: condition}
}

func TestSuggest_CountAboveTen(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	for i := 0; i < 15; i++ {
		h.add(t, inventory.TypeTop, fmt.Sprintf("#%02x0000", 16*i), inventory.PatternSolid)
		h.add(t, inventory.TypeBottom, fmt.Sprintf("#0000%02x", 16*i), inventory.PatternSolid)
	}

	resp, err := h.svc.Suggest(context.Background(), Request{Weather: weatherOf(20, "Clear"), Count: 15})
	if err != nil {
		t.Fatalf("Suggest() error = %v", err)
	}
	if resp.Candidates < 15 {
		t.Fatalf("pool has %d candidates, want at least 15", resp.Candidates)
	}
	if len(resp.Suggestions) != 15 {
		t.Errorf("Suggest() returned %d, want 15", len(resp.Suggestions))
	}
	invariant.AssertRanked(t, resp.Suggestions)
}

func TestSuggest_UnknownWeatherIsNeutral(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.add(t, inventory.TypeDress, "#000000", inventory.PatternSolid)

	resp, err := h.svc.Suggest(context.Background(), Request{})
	if err != nil {
		t.Fatalf("Suggest() error = %v", err)
	}
	want := inventory.Weather{TempC: inventory.DefaultTempC, Condition: inventory.DefaultCondition}
	if resp.Weather != want {
		t.Errorf("Weather = %+v, want %+v", resp.Weather, want)
	}

	freezing, err := h.svc.Suggest(context.Background(), Request{Weather: weatherOf(0, "")})
	if err != nil {
		t.Fatalf("Suggest() error = %v", err)
	}
	if freezing.Weather.TempC != 0 || freezing.Weather.Condition != inventory.DefaultCondition {
		t.Errorf("explicit 0°C = %+v, want it kept", freezing.Weather)
	}
}

func TestSuggest_Shortfalls(t *testing.T) {
	t.Parallel()

	t.Run("empty wardrobe", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		resp, err := h.svc.Suggest(context.Background(), Request{})
		if err != nil {
			t.Fatalf("Suggest() error = %v", err)
		}
		if resp.Shortfall != candidate.ShortfallTooFewItems || len(resp.Suggestions) != 0 {
			t.Errorf("Suggest() = %+v, want too_few_items", resp)
		}
		if h.counters.SuggestShortfall.Load() != 1 {
			t.Error("shortfall not counted")
		}
	})

	t.Run("everything in laundry", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		for _, typ := range []inventory.ClothingType{inventory.TypeTop, inventory.TypeBottom, inventory.TypeShoes} {
			id := h.add(t, typ, "#000000", inventory.PatternSolid)
			if err := h.inv.SetLaundry(context.Background(), id, true); err != nil {
				t.Fatalf("SetLaundry() error = %v", err)
			}
		}
		resp, err := h.svc.Suggest(context.Background(), Request{})
		if err != nil {
			t.Fatalf("Suggest() error = %v", err)
		}
		if resp.Shortfall != candidate.ShortfallTooFewItems || len(resp.Suggestions) != 0 {
			t.Errorf("Suggest() = %+v, want too_few_items", resp)
		}
	})

	t.Run("no base outfit", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		h.add(t, inventory.TypeTop, "#000000", inventory.PatternSolid)
		h.add(t, inventory.TypeTop, "#ffffff", inventory.PatternSolid)
		h.add(t, inventory.TypeShoes, "#000000", inventory.PatternSolid)
		resp, err := h.svc.Suggest(context.Background(), Request{})
		if err != nil {
			t.Fatalf("Suggest() error = %v", err)
		}
		if resp.Shortfall != candidate.ShortfallNoBaseOutfit {
			t.Errorf("Shortfall = %q, want no_base_outfit", resp.Shortfall)
		}
	})
}

func TestSuggest_Idempotent(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	seedRandom(t, h, 11, 30)

	req := Request{Now: wearTime, Weather: weatherOf(9, "Rain"), Occasion: inventory.OccasionWork}
	first, err := h.svc.Suggest(context.Background(), req)
	if err != nil {
		t.Fatalf("Suggest() error = %v", err)
	}
	second, err := h.svc.Suggest(context.Background(), req)
	if err != nil {
		t.Fatalf("Suggest() error = %v", err)
	}
	if first.RequestID == second.RequestID {
		t.Error("request ids should be unique per call")
	}
	if len(first.Suggestions) != len(second.Suggestions) {
		t.Fatalf("lengths differ: %d vs %d", len(first.Suggestions), len(second.Suggestions))
	}
	for i := range first.Suggestions {
		a, b := first.Suggestions[i], second.Suggestions[i]
		if a.Candidate.Key() != b.Candidate.Key() || a.Scores != b.Scores {
			t.Errorf("suggestion %d differs: %s %+v vs %s %+v", i, a.Candidate.Key(), a.Scores, b.Candidate.Key(), b.Scores)
		}
	}
}

func TestSuggest_InvariantsOverRandomWardrobes(t *testing.T) {
	t.Parallel()

	for seed := int64(1); seed <= 5; seed++ {
		t.Run(fmt.Sprintf("seed=%d", seed), func(t *testing.T) {
			t.Parallel()
			h := newHarness(t)
			seedRandom(t, h, seed, 40)

			rng := rand.New(rand.NewSource(seed))
			req := Request{
				Weather:  weatherOf(float64(rng.Intn(45)-10), "Clouds"),
				Occasion: inventory.AllOccasions[rng.Intn(len(inventory.AllOccasions))],
				Count:    1 + rng.Intn(12),
			}
			resp, err := h.svc.Suggest(context.Background(), req)
			if err != nil {
				t.Fatalf("Suggest() error = %v", err)
			}
			if resp.Shortfall == candidate.ShortfallNone && len(resp.Suggestions) == 0 {
				t.Fatal("no suggestions without a shortfall")
			}
			if len(resp.Suggestions) > req.Count {
				t.Errorf("returned %d, want at most %d", len(resp.Suggestions), req.Count)
			}

			cands := make([]candidate.Candidate, len(resp.Suggestions))
			for i := range resp.Suggestions {
				cands[i] = resp.Suggestions[i].Candidate
			}
			invariant.AssertStructure(t, cands)
			invariant.AssertScoreBounds(t, resp.Suggestions, score.DefaultConfig())
			invariant.AssertRanked(t, resp.Suggestions)
			invariant.AssertNoLaundry(t, resp.Suggestions)
		})
	}
}

// seedRandom adds n random items and puts roughly a fifth of them in the
// laundry.
func seedRandom(t *testing.T, h harness, seed int64, n int) {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	patterns := []inventory.Pattern{inventory.PatternSolid, inventory.PatternSolid, inventory.PatternStriped, inventory.PatternFloral}
	weights := []inventory.SeasonWeight{inventory.WeightLight, inventory.WeightMedium, inventory.WeightHeavy}
	formalities := []inventory.Formality{inventory.FormalityCasual, inventory.FormalityBusinessCasual, inventory.FormalityFormal, inventory.FormalityAthletic}

	for i := 0; i < n; i++ {
		id, err := h.inv.Add(context.Background(), inventory.ClothingItem{
			Type:         inventory.AllTypes[rng.Intn(len(inventory.AllTypes))],
			ColorPrimary: fmt.Sprintf("#%06x", rng.Intn(1<<24)),
			Pattern:      patterns[rng.Intn(len(patterns))],
			SeasonWeight: weights[rng.Intn(len(weights))],
			Formality:    formalities[rng.Intn(len(formalities))],
		})
		if err != nil {
			t.Fatalf("add item: %v", err)
		}
		if rng.Intn(5) == 0 {
			if err := h.inv.SetLaundry(context.Background(), id, true); err != nil {
				t.Fatalf("SetLaundry() error = %v", err)
			}
		}
	}
}

func TestSuggest_LearnsFromRatings(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()
	red := h.add(t, inventory.TypeDress, "#ff0000", inventory.PatternFloral)
	h.add(t, inventory.TypeDress, "#0000ff", inventory.PatternFloral)

	outfitID, err := h.svc.LogWear(ctx, wearOf(red))
	if err != nil {
		t.Fatalf("LogWear() error = %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := h.svc.Rate(ctx, outfitID, 5, "Great colors"); err != nil {
			t.Fatalf("Rate() error = %v", err)
		}
	}

	resp, err := h.svc.Suggest(ctx, Request{Now: wearTime.Add(30 * 24 * time.Hour)})
	if err != nil {
		t.Fatalf("Suggest() error = %v", err)
	}
	if len(resp.Suggestions) != 2 {
		t.Fatalf("Suggest() returned %d, want 2", len(resp.Suggestions))
	}
	top := resp.Suggestions[0]
	if top.Candidate.Dress == nil || top.Candidate.Dress.ID != red {
		t.Errorf("top suggestion = %s, want the rated red dress", top.Candidate.Key())
	}
	if top.Scores.Bonus <= resp.Suggestions[1].Scores.Bonus {
		t.Errorf("rated dress bonus %v should exceed %v", top.Scores.Bonus, resp.Suggestions[1].Scores.Bonus)
	}

	invariant.AssertWearCounts(t, h.db.DB(), map[int64]int{red: 1})
	invariant.AssertWeightBounds(t, h.db.DB(), 0, 5)
	if h.counters.WearsLogged.Load() != 1 || h.counters.RatingsStored.Load() != 3 {
		t.Errorf("metrics = %v", h.counters.Snapshot())
	}
}

func TestAccept(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()
	dress := h.add(t, inventory.TypeDress, "#000000", inventory.PatternSolid)

	resp, err := h.svc.Suggest(ctx, Request{Occasion: inventory.OccasionDate})
	if err != nil || len(resp.Suggestions) != 1 {
		t.Fatalf("Suggest() = %+v, %v", resp, err)
	}
	if _, err := h.svc.Accept(ctx, resp, 0); err != nil {
		t.Fatalf("Accept() error = %v", err)
	}
	invariant.AssertWearCounts(t, h.db.DB(), map[int64]int{dress: 1})

	if _, err := h.svc.Accept(ctx, resp, 5); err == nil {
		t.Error("Accept() with an out of range index should fail")
	}
}

func TestRate_ProfileFailureIsAtomic(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()
	dress := h.add(t, inventory.TypeDress, "#ff69b4", inventory.PatternFloral)
	outfitID, err := h.svc.LogWear(ctx, wearOf(dress))
	if err != nil {
		t.Fatalf("LogWear() error = %v", err)
	}
	before, err := h.svc.deps.Profile.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}

	if _, err := h.db.DB().ExecContext(ctx, `
		CREATE TRIGGER reject_pattern BEFORE UPDATE ON style_profile
		WHEN NEW.preference_type = 'pattern'
		BEGIN SELECT RAISE(ABORT, 'pattern rejected'); END
	`); err != nil {
		t.Fatalf("create trigger: %v", err)
	}

	if _, err := h.svc.Rate(ctx, outfitID, 5, ""); !errors.Is(err, profile.ErrStoreUnavailable) {
		t.Fatalf("Rate() error = %v, want ErrStoreUnavailable", err)
	}
	after, err := h.svc.deps.Profile.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if len(after) != len(before) {
		t.Fatalf("profile has %d rows after a failed rating, want %d", len(after), len(before))
	}
	for k, w := range before {
		if after[k] != w {
			t.Errorf("%v weight = %v after a failed rating, want %v", k, after[k], w)
		}
	}
	var ratings int
	if err := h.db.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM outfit_ratings`).Scan(&ratings); err != nil {
		t.Fatalf("count ratings: %v", err)
	}
	if ratings != 0 {
		t.Errorf("ratings stored = %d, want 0", ratings)
	}
	if h.counters.RatingsStored.Load() != 0 || h.counters.ProfileErrors.Load() != 1 {
		t.Errorf("metrics = %v", h.counters.Snapshot())
	}
}

func wearOf(dressID int64) history.WearRequest {
	return history.WearRequest{Selection: history.Selection{DressID: dressID}}
}

type brokenInventory struct{}

func (brokenInventory) Eligible(context.Context) (*inventory.Wardrobe, error) {
	return nil, fmt.Errorf("%w: disk gone", inventory.ErrStoreUnavailable)
}

type brokenProfile struct{}

func (brokenProfile) Snapshot(context.Context) (profile.Preferences, error) {
	return nil, fmt.Errorf("%w: disk gone", profile.ErrStoreUnavailable)
}

type staticInventory struct{ w *inventory.Wardrobe }

func (s staticInventory) Eligible(context.Context) (*inventory.Wardrobe, error) { return s.w, nil }

func TestSuggest_StoreUnavailable(t *testing.T) {
	t.Parallel()

	w := inventory.NewWardrobe([]inventory.ClothingItem{{ID: 1, Type: inventory.TypeDress}})
	tests := []struct {
		name string
		deps Deps
		want error
	}{
		{"inventory", Deps{Inventory: brokenInventory{}, Profile: brokenProfile{}}, inventory.ErrStoreUnavailable},
		{"profile", Deps{Inventory: staticInventory{w}, Profile: brokenProfile{}}, profile.ErrStoreUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			counters := &metrics.Counters{}
			svc := New(tt.deps, Config{Metrics: counters})

			resp, err := svc.Suggest(context.Background(), Request{})
			if !errors.Is(err, tt.want) {
				t.Fatalf("Suggest() error = %v, want %v", err, tt.want)
			}
			if resp == nil || len(resp.Suggestions) != 0 || resp.Shortfall != candidate.ShortfallNone {
				t.Errorf("Suggest() response = %+v, want empty", resp)
			}
			if counters.SuggestErrors.Load() != 1 {
				t.Error("store failure not counted")
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	svc := New(Deps{}, Config{Now: func() time.Time { return wearTime }})
	tests := []struct {
		name        string
		in          Request
		want        Request
		wantWeather inventory.Weather
	}{
		{
			name:        "defaults",
			in:          Request{},
			want:        Request{Now: wearTime, Count: DefaultCount, Occasion: inventory.OccasionCasual},
			wantWeather: inventory.Weather{TempC: inventory.DefaultTempC, Condition: inventory.DefaultCondition},
		},
		{
			name:        "unknown occasion and NaN temperature",
			in:          Request{Occasion: "opera", Weather: weatherOf(math.NaN(), "Snow"), Count: 50},
			want:        Request{Now: wearTime, Count: 50, Occasion: inventory.OccasionCasual},
			wantWeather: inventory.Weather{TempC: inventory.DefaultTempC, Condition: "Snow"},
		},
		{
			name:        "valid request kept",
			in:          Request{Now: wearTime.Add(time.Hour), Occasion: inventory.OccasionGym, Weather: weatherOf(-3, "Clear"), Count: 2},
			want:        Request{Now: wearTime.Add(time.Hour), Count: 2, Occasion: inventory.OccasionGym},
			wantWeather: inventory.Weather{TempC: -3, Condition: "Clear"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := svc.Normalize(tt.in)
			if got.Weather == nil || *got.Weather != tt.wantWeather {
				t.Errorf("Normalize().Weather = %v, want %+v", got.Weather, tt.wantWeather)
			}
			got.Weather = nil
			if got != tt.want {
				t.Errorf("Normalize() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSuggest_Canceled(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	seedRandom(t, h, 3, 10)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp, err := h.svc.Suggest(ctx, Request{})
	if err == nil {
		t.Fatal("Suggest() on a canceled context should fail")
	}
	if len(resp.Suggestions) != 0 {
		t.Errorf("canceled request returned %d suggestions", len(resp.Suggestions))
	}
}
