package score

import (
	"time"

	"github.com/runger/wardrobe/internal/outfits/candidate"
	"github.com/runger/wardrobe/internal/outfits/inventory"
	"github.com/runger/wardrobe/internal/outfits/profile"
)

// Context is everything a request contributes to scoring.
type Context struct {
	Now      time.Time
	Weather  inventory.Weather
	Occasion inventory.Occasion
}

// Breakdown holds every factor plus the assembled totals.
type Breakdown struct {
	Weather   float64 `json:"weather"`
	Color     float64 `json:"color"`
	Pattern   float64 `json:"pattern"`
	Variety   float64 `json:"variety"`
	Formality float64 `json:"formality"`
	Raw       float64 `json:"raw"`
	Bonus     float64 `json:"bonus"`
	Final     float64 `json:"final"`
}

// Scored pairs a candidate with its scores.
type Scored struct {
	Candidate candidate.Candidate `json:"outfit"`
	Scores    Breakdown           `json:"scores"`
}

// Scorer applies a Config. It holds no mutable state and is safe for
// concurrent use.
type Scorer struct {
	cfg Config
}

// NewScorer creates a scorer.
func NewScorer(cfg Config) *Scorer {
	return &Scorer{cfg: cfg}
}

// Config returns the scoring constants.
func (s *Scorer) Config() Config {
	return s.cfg
}

// Score computes every factor for c. The final score is the raw sum plus
// the style bonus, clamped to [0, FinalMax].
func (s *Scorer) Score(c candidate.Candidate, rc Context, prefs profile.Preferences) Breakdown {
	b := Breakdown{
		Weather:   s.cfg.Weather(c, rc.Weather),
		Color:     s.cfg.Color(c),
		Pattern:   s.cfg.Pattern(c),
		Variety:   s.cfg.Variety(c, rc.Now),
		Formality: s.cfg.Formality(c, rc.Occasion),
		Bonus:     s.cfg.StyleBonus(c, rc.Occasion, prefs),
	}
	b.Raw = clamp(b.Weather+b.Color+b.Pattern+b.Variety+b.Formality, 0, RawMax)
	b.Final = clamp(b.Raw+b.Bonus, 0, FinalMax)
	return b
}
