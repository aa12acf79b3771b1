package score

import (
	"github.com/runger/wardrobe/internal/outfits/candidate"
	"github.com/runger/wardrobe/internal/outfits/inventory"
	"github.com/runger/wardrobe/internal/outfits/profile"
)

func (cfg Config) typeScale(t profile.Type) float64 {
	switch t {
	case profile.TypeColor:
		return cfg.ColorScale
	case profile.TypeFormality:
		return cfg.FormalityScale
	case profile.TypePattern:
		return cfg.PatternScale
	case profile.TypeOccasion:
		return cfg.OccasionScale
	}
	return 0
}

// StyleBonus sums, per preference type, the mean learned deviation from
// the neutral weight over the values present in the candidate. Types with
// nothing learned contribute zero.
func (cfg Config) StyleBonus(c candidate.Candidate, o inventory.Occasion, prefs profile.Preferences) float64 {
	if prefs.Len() == 0 {
		return 0
	}

	sums := make(map[profile.Type]float64, len(profile.AllTypes))
	counts := make(map[profile.Type]int, len(profile.AllTypes))
	for _, k := range profile.KeysFor(c.Items(), o) {
		w, ok := prefs.Weight(k)
		if !ok {
			continue
		}
		sums[k.Type] += w - cfg.NeutralWeight
		counts[k.Type]++
	}

	var bonus float64
	for _, t := range profile.AllTypes {
		if counts[t] == 0 {
			continue
		}
		bonus += sums[t] / float64(counts[t]) * cfg.typeScale(t)
	}
	return clamp(bonus, cfg.BonusMin, cfg.BonusMax)
}
