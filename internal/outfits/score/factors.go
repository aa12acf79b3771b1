package score

import (
	"math"
	"strings"
	"time"

	"github.com/runger/wardrobe/internal/outfits/candidate"
	"github.com/runger/wardrobe/internal/outfits/inventory"
)

// Band is a coarse temperature class.
type Band int

// Temperature bands.
const (
	BandMild Band = iota
	BandCold
	BandHot
)

// TempBand classifies tempC.
func (cfg Config) TempBand(tempC float64) Band {
	switch {
	case tempC < cfg.ColdBelowC:
		return BandCold
	case tempC > cfg.HotAboveC:
		return BandHot
	}
	return BandMild
}

var precipitation = []string{"rain", "drizzle", "thunderstorm", "snow", "sleet"}

// Precipitating reports whether a condition label implies rain or snow.
func Precipitating(condition string) bool {
	c := strings.ToLower(condition)
	for _, p := range precipitation {
		if strings.Contains(c, p) {
			return true
		}
	}
	return false
}

// garmentFit is how well a season weight suits a band, in [0, 1].
func garmentFit(w inventory.SeasonWeight, b Band) float64 {
	switch b {
	case BandCold:
		switch w {
		case inventory.WeightHeavy:
			return 1
		case inventory.WeightMedium:
			return 0.6
		}
		return 0
	case BandHot:
		switch w {
		case inventory.WeightLight:
			return 1
		case inventory.WeightMedium:
			return 0.6
		}
		return 0
	}
	if w == inventory.WeightMedium {
		return 1
	}
	return 0.6
}

// Weather scores garment warmth against the temperature (0-20) plus an
// outerwear adjustment for the condition (0-5).
func (cfg Config) Weather(c candidate.Candidate, w inventory.Weather) float64 {
	band := cfg.TempBand(w.TempC)

	var sum float64
	var n int
	for _, it := range c.Items() {
		if it.Type == inventory.TypeOuterwear {
			continue
		}
		sum += garmentFit(it.SeasonWeight, band)
		n++
	}
	fit := 0.0
	if n > 0 {
		fit = sum / float64(n) * 20
	}

	hasOuter := c.Outerwear != nil
	var cover float64
	switch {
	case band == BandCold || Precipitating(w.Condition):
		if hasOuter {
			cover = 5
		}
	case band == BandHot:
		if !hasOuter {
			cover = 5
		}
	default:
		cover = 5
		if hasOuter {
			cover = 3
		}
	}
	return clamp(fit+cover, 0, WeatherMax)
}

// Pattern gives full marks for at most one busy pattern and subtracts
// PatternPenalty for each additional one.
func (cfg Config) Pattern(c candidate.Candidate) float64 {
	busy := 0
	for _, it := range c.Items() {
		if it.Pattern.Busy() {
			busy++
		}
	}
	if busy <= 1 {
		return PatternMax
	}
	return clamp(PatternMax-float64(busy-1)*cfg.PatternPenalty, 0, PatternMax)
}

// ItemVariety is the per-item freshness in [0, 1]: half frequency, half
// recency. Days since last wear are counted in whole days so that scores
// are stable within a day.
func (cfg Config) ItemVariety(it inventory.ClothingItem, now time.Time) float64 {
	halfLife := cfg.FreqHalfLife
	if halfLife <= 0 {
		halfLife = 1
	}
	freq := 1 / (1 + float64(max(it.TimesWorn, 0))/halfLife)

	recency := 1.0
	if !it.NeverWorn() {
		days := math.Floor(now.Sub(it.LastWorn).Hours() / 24)
		full := cfg.RecencyFullDays
		if full <= 0 {
			full = 1
		}
		recency = clamp(days/full, 0, 1)
	}
	return 0.5*freq + 0.5*recency
}

// Variety averages item freshness so one over-worn piece does not sink an
// otherwise fresh outfit.
func (cfg Config) Variety(c candidate.Candidate, now time.Time) float64 {
	items := c.Items()
	if len(items) == 0 {
		return 0
	}
	var sum float64
	for _, it := range items {
		sum += cfg.ItemVariety(it, now)
	}
	return clamp(sum/float64(len(items))*VarietyMax, 0, VarietyMax)
}

// occasionFormality lists the formality levels suited to each occasion.
var occasionFormality = map[inventory.Occasion][]inventory.Formality{
	inventory.OccasionGym:    {inventory.FormalityAthletic, inventory.FormalityCasual},
	inventory.OccasionWork:   {inventory.FormalityBusinessCasual, inventory.FormalityFormal},
	inventory.OccasionCasual: {inventory.FormalityCasual, inventory.FormalityBusinessCasual},
	inventory.OccasionDate:   {inventory.FormalityBusinessCasual, inventory.FormalityFormal, inventory.FormalityCasual},
	inventory.OccasionHome:   {inventory.FormalityCasual, inventory.FormalityAthletic},
}

// Suits reports whether formality f fits occasion o.
func Suits(o inventory.Occasion, f inventory.Formality) bool {
	for _, allowed := range occasionFormality[o] {
		if allowed == f {
			return true
		}
	}
	return false
}

// Formality is the weighted share of items whose formality suits the
// occasion, scaled to FormalityMax. Shoes and outerwear count half.
func (cfg Config) Formality(c candidate.Candidate, o inventory.Occasion) float64 {
	var fit, total float64
	for _, it := range c.Items() {
		w := 1.0
		if it.Type == inventory.TypeShoes || it.Type == inventory.TypeOuterwear {
			w = 0.5
		}
		total += w
		if Suits(o, it.Formality) {
			fit += w
		}
	}
	if total == 0 {
		return 0
	}
	return clamp(fit/total*FormalityMax, 0, FormalityMax)
}

// clamp restricts v to the range [lo, hi].
func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
