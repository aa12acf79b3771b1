// Package engine orchestrates a suggestion request: it snapshots the
// inventory and the style profile, generates candidates, scores them in
// parallel and returns a ranked, diverse selection.
package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/runger/wardrobe/internal/outfits/candidate"
	"github.com/runger/wardrobe/internal/outfits/feedback"
	"github.com/runger/wardrobe/internal/outfits/history"
	"github.com/runger/wardrobe/internal/outfits/inventory"
	"github.com/runger/wardrobe/internal/outfits/metrics"
	"github.com/runger/wardrobe/internal/outfits/profile"
	"github.com/runger/wardrobe/internal/outfits/rank"
	"github.com/runger/wardrobe/internal/outfits/score"
)

// DefaultCount is the number of suggestions returned when a request does
// not ask for a specific count.
const DefaultCount = 4

// Inventory supplies the eligible wardrobe.
type Inventory interface {
	Eligible(ctx context.Context) (*inventory.Wardrobe, error)
}

// Profile supplies a preference snapshot.
type Profile interface {
	Snapshot(ctx context.Context) (profile.Preferences, error)
}

// WearLogger records accepted outfits.
type WearLogger interface {
	LogWear(ctx context.Context, req history.WearRequest) (int64, error)
}

// Rater stores outfit ratings.
type Rater interface {
	Rate(ctx context.Context, outfitID int64, rating int, text string) (int64, error)
}

// Deps are the stores the service reads and writes.
type Deps struct {
	Inventory Inventory
	Profile   Profile
	History   WearLogger
	Ratings   Rater
}

// Config configures the service.
type Config struct {
	// Logger for diagnostic output (optional).
	Logger *slog.Logger

	// Metrics receives counters (optional, defaults to metrics.Global).
	Metrics *metrics.Counters

	// Now overrides the clock (optional).
	Now func() time.Time

	Candidates candidate.Config
	Scoring    score.Config
	Rank       rank.Config

	// StoreTimeout bounds each store read made by Suggest.
	StoreTimeout time.Duration

	// Workers caps concurrent scoring goroutines (0 = GOMAXPROCS).
	Workers int
}

// DefaultConfig returns the default engine settings.
func DefaultConfig() Config {
	return Config{
		Candidates:   candidate.DefaultConfig(),
		Scoring:      score.DefaultConfig(),
		Rank:         rank.DefaultConfig(),
		StoreTimeout: 2 * time.Second,
	}
}

// Request is one suggestion request. Zero values are replaced by defaults;
// a nil Weather means the weather is unknown and the neutral default is used.
type Request struct {
	Now      time.Time
	Weather  *inventory.Weather
	Occasion inventory.Occasion
	Count    int
}

// Response carries the ranked suggestions. When the wardrobe cannot form
// an outfit, Suggestions is empty and Shortfall says why.
type Response struct {
	RequestID   string              `json:"request_id"`
	Shortfall   candidate.Shortfall `json:"shortfall,omitempty"`
	Weather     inventory.Weather   `json:"weather"`
	Occasion    inventory.Occasion  `json:"occasion"`
	Suggestions []score.Scored      `json:"suggestions"`
	Candidates  int                 `json:"candidates"`
}

// Service is the engine facade.
type Service struct {
	deps    Deps
	scorer  *score.Scorer
	logger  *slog.Logger
	metrics *metrics.Counters
	now     func() time.Time
	cfg     Config
}

// New creates a service over deps.
func New(deps Deps, cfg Config) *Service {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.Global
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = DefaultConfig().StoreTimeout
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	return &Service{
		deps:    deps,
		scorer:  score.NewScorer(cfg.Scoring),
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
		now:     cfg.Now,
		cfg:     cfg,
	}
}

// NewFromDB wires the SQLite-backed stores over db.
func NewFromDB(db *sql.DB, cfg Config, pcfg profile.Config) *Service {
	if pcfg.Logger == nil {
		pcfg.Logger = cfg.Logger
	}
	profiles := profile.NewStore(db, pcfg)
	updater := profile.NewUpdater(profiles)
	hist := history.NewLogger(db, updater, history.Config{Logger: cfg.Logger, Now: cfg.Now})
	return New(Deps{
		Inventory: inventory.NewStore(db, cfg.Logger),
		Profile:   profiles,
		History:   hist,
		Ratings:   feedback.NewStore(db, hist, updater, feedback.Config{Logger: cfg.Logger, Now: cfg.Now}),
	}, cfg)
}

// Normalize replaces missing or invalid request fields with defaults.
func (s *Service) Normalize(req Request) Request {
	req.Occasion = inventory.ParseOccasion(string(req.Occasion))
	w := inventory.Weather{TempC: inventory.DefaultTempC, Condition: inventory.DefaultCondition}
	if req.Weather != nil {
		w = req.Weather.Normalize()
	}
	req.Weather = &w
	if req.Now.IsZero() {
		req.Now = s.now()
	}
	if req.Count <= 0 {
		req.Count = DefaultCount
	}
	return req
}

// Suggest returns up to req.Count ranked outfits. A wardrobe shortfall is
// reported in the response, not as an error. If a store cannot be read the
// response is empty and the error wraps the store's ErrStoreUnavailable.
func (s *Service) Suggest(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	req = s.Normalize(req)
	resp := &Response{
		RequestID:   uuid.NewString(),
		Weather:     *req.Weather,
		Occasion:    req.Occasion,
		Suggestions: []score.Scored{},
	}
	log := s.logger.With("request_id", resp.RequestID)

	s.metrics.SuggestRequests.Add(1)
	defer func() { s.metrics.LatencySumMs.Add(time.Since(start).Milliseconds()) }()

	wardrobe, prefs, err := s.snapshot(ctx)
	if err != nil {
		s.metrics.SuggestErrors.Add(1)
		log.Warn("suggest failed", "error", err)
		return resp, err
	}

	cands, shortfall := candidate.Generate(wardrobe, s.cfg.Candidates)
	if shortfall != candidate.ShortfallNone {
		s.metrics.SuggestShortfall.Add(1)
		log.Info("wardrobe shortfall", "reason", shortfall, "items", wardrobe.Len())
		resp.Shortfall = shortfall
		return resp, nil
	}
	resp.Candidates = len(cands)

	scored, err := s.scoreAll(ctx, cands, score.Context{Now: req.Now, Weather: *req.Weather, Occasion: req.Occasion}, prefs)
	if err != nil {
		return resp, err
	}
	s.metrics.CandidatesScored.Add(int64(len(scored)))

	resp.Suggestions = rank.Select(scored, req.Count, s.cfg.Rank)
	if len(resp.Suggestions) > 0 {
		s.metrics.SuggestHits.Add(1)
	}
	log.Debug("suggest complete",
		"occasion", req.Occasion,
		"temp_c", req.Weather.TempC,
		"candidates", len(cands),
		"returned", len(resp.Suggestions),
		"elapsed", time.Since(start))
	return resp, nil
}

// snapshot reads the wardrobe and the preference map, each under its own
// timeout.
func (s *Service) snapshot(ctx context.Context) (*inventory.Wardrobe, profile.Preferences, error) {
	ictx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	wardrobe, err := s.deps.Inventory.Eligible(ictx)
	cancel()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read inventory: %w", err)
	}

	pctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	prefs, err := s.deps.Profile.Snapshot(pctx)
	cancel()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read style profile: %w", err)
	}
	return wardrobe, prefs, nil
}

// scoreAll scores every candidate concurrently. Each goroutine writes only
// its own slot of the result.
func (s *Service) scoreAll(ctx context.Context, cands []candidate.Candidate, rc score.Context, prefs profile.Preferences) ([]score.Scored, error) {
	out := make([]score.Scored, len(cands))
	chunk := int(math.Ceil(float64(len(cands)) / float64(s.cfg.Workers)))
	if chunk < 1 {
		chunk = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for lo := 0; lo < len(cands); lo += chunk {
		hi := min(lo+chunk, len(cands))
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				out[i] = score.Scored{Candidate: cands[i], Scores: s.scorer.Score(cands[i], rc, prefs)}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scoring canceled: %w", err)
	}
	return out, nil
}

// LogWear records an accepted outfit.
func (s *Service) LogWear(ctx context.Context, req history.WearRequest) (int64, error) {
	id, err := s.deps.History.LogWear(ctx, req)
	if err != nil {
		if errors.Is(err, profile.ErrStoreUnavailable) {
			s.metrics.ProfileErrors.Add(1)
		}
		return 0, err
	}
	s.metrics.WearsLogged.Add(1)
	return id, nil
}

// Accept logs the wear of a suggestion under its request context.
func (s *Service) Accept(ctx context.Context, resp *Response, index int) (int64, error) {
	if resp == nil || index < 0 || index >= len(resp.Suggestions) {
		return 0, fmt.Errorf("%w: no suggestion %d", history.ErrInvalidSelection, index)
	}
	return s.LogWear(ctx, history.WearRequest{
		Weather:   resp.Weather,
		Occasion:  resp.Occasion,
		Selection: history.SelectionOf(resp.Suggestions[index].Candidate),
	})
}

// Rate stores a rating for a logged outfit.
func (s *Service) Rate(ctx context.Context, outfitID int64, rating int, text string) (int64, error) {
	id, err := s.deps.Ratings.Rate(ctx, outfitID, rating, text)
	if err != nil {
		if errors.Is(err, profile.ErrStoreUnavailable) {
			s.metrics.ProfileErrors.Add(1)
		}
		return 0, err
	}
	s.metrics.RatingsStored.Add(1)
	return id, nil
}
