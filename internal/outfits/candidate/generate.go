package candidate

import (
	"github.com/runger/wardrobe/internal/outfits/inventory"
)

// Shortfall explains an empty generation result. It is not an error.
type Shortfall string

// Shortfall values.
const (
	ShortfallNone         Shortfall = ""
	ShortfallTooFewItems  Shortfall = "too_few_items"
	ShortfallNoBaseOutfit Shortfall = "no_base_outfit"
)

// Config bounds the candidate pool.
type Config struct {
	// PerRoleCap is the most items considered per role before combining.
	PerRoleCap int

	// MaxCandidates caps the pool handed to scoring.
	MaxCandidates int
}

// DefaultConfig returns the default generator bounds.
func DefaultConfig() Config {
	return Config{
		PerRoleCap:    8,
		MaxCandidates: 300,
	}
}

// minPool is the smallest pool that always fits one of each variant.
const minPool = 4

// Generate builds candidates from the wardrobe. Shoes complete a candidate
// when any exist; otherwise candidates are produced without a shoes slot.
// Outerwear is offered both ways.
func Generate(w *inventory.Wardrobe, cfg Config) ([]Candidate, Shortfall) {
	if cfg.PerRoleCap < 1 {
		cfg.PerRoleCap = 1
	}
	if cfg.MaxCandidates < minPool {
		cfg.MaxCandidates = minPool
	}

	tops := w.ByType(inventory.TypeTop)
	bottoms := w.ByType(inventory.TypeBottom)
	dresses := w.ByType(inventory.TypeDress)

	if w.Len() < 2 && len(dresses) == 0 {
		return nil, ShortfallTooFewItems
	}
	if (len(tops) == 0 || len(bottoms) == 0) && len(dresses) == 0 {
		return nil, ShortfallNoBaseOutfit
	}

	caps := fitCaps(w, cfg)
	sel := make(map[inventory.ClothingType][]inventory.ClothingItem, len(caps))
	for t, k := range caps {
		sel[t] = topK(w.ByType(t), k)
	}

	bases := baseOutfits(sel[inventory.TypeTop], sel[inventory.TypeBottom], sel[inventory.TypeDress])
	variants := extras(sel[inventory.TypeShoes], sel[inventory.TypeOuterwear])

	// Interleave so that truncation keeps every base represented.
	out := make([]Candidate, 0, min(len(bases)*len(variants), cfg.MaxCandidates))
	for _, v := range variants {
		for _, b := range bases {
			if len(out) == cfg.MaxCandidates {
				return out, ShortfallNone
			}
			c := b
			c.Shoes = v.Shoes
			c.Outerwear = v.Outerwear
			out = append(out, c)
		}
	}
	return out, ShortfallNone
}

// fitCaps starts every role at PerRoleCap (or its size) and shrinks the
// widest role until the full cross product fits MaxCandidates.
// No role drops below one item.
func fitCaps(w *inventory.Wardrobe, cfg Config) map[inventory.ClothingType]int {
	caps := make(map[inventory.ClothingType]int, len(inventory.AllTypes))
	for _, t := range inventory.AllTypes {
		if n := len(w.ByType(t)); n > 0 {
			caps[t] = min(n, cfg.PerRoleCap)
		}
	}

	// Shrink order for ties: extras first, then base pieces.
	order := []inventory.ClothingType{
		inventory.TypeOuterwear, inventory.TypeShoes, inventory.TypeDress,
		inventory.TypeBottom, inventory.TypeTop,
	}
	for poolSize(caps) > cfg.MaxCandidates {
		widest := inventory.ClothingType("")
		for _, t := range order {
			if caps[t] > 1 && (widest == "" || caps[t] > caps[widest]) {
				widest = t
			}
		}
		if widest == "" {
			break
		}
		caps[widest]--
	}
	return caps
}

func poolSize(caps map[inventory.ClothingType]int) int {
	bases := caps[inventory.TypeTop]*caps[inventory.TypeBottom] + caps[inventory.TypeDress]
	shoes := max(caps[inventory.TypeShoes], 1)
	return bases * shoes * (caps[inventory.TypeOuterwear] + 1)
}

func baseOutfits(tops, bottoms, dresses []inventory.ClothingItem) []Candidate {
	var out []Candidate
	for i := range tops {
		for j := range bottoms {
			out = append(out, Candidate{Top: &tops[i], Bottom: &bottoms[j]})
		}
	}
	for i := range dresses {
		out = append(out, Candidate{Dress: &dresses[i]})
	}
	return out
}

func extras(shoes, outerwear []inventory.ClothingItem) []Candidate {
	shoeOpts := []*inventory.ClothingItem{nil}
	if len(shoes) > 0 {
		shoeOpts = shoeOpts[:0]
		for i := range shoes {
			shoeOpts = append(shoeOpts, &shoes[i])
		}
	}
	outerOpts := []*inventory.ClothingItem{nil}
	for i := range outerwear {
		outerOpts = append(outerOpts, &outerwear[i])
	}

	out := make([]Candidate, 0, len(shoeOpts)*len(outerOpts))
	for _, o := range outerOpts {
		for _, s := range shoeOpts {
			out = append(out, Candidate{Shoes: s, Outerwear: o})
		}
	}
	return out
}
