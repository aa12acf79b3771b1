package score

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/runger/wardrobe/internal/outfits/candidate"
	"github.com/runger/wardrobe/internal/outfits/inventory"
)

// Named neutrals that carry enough chroma to escape the gray test.
var neutralRefs = []colorful.Color{
	mustHex("#000080"), // navy
	mustHex("#f5f5dc"), // beige
}

func mustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// IsNeutral reports whether a hex color is black, white, gray, navy or
// beige. Missing or unparseable colors count as neutral.
func (cfg Config) IsNeutral(hex string) bool {
	c, ok := parseHex(hex)
	if !ok {
		return true
	}
	return cfg.neutral(c)
}

func (cfg Config) neutral(c colorful.Color) bool {
	_, chroma, l := c.Hcl()
	if chroma < cfg.NeutralChroma || l < cfg.NeutralDarkL || l > cfg.NeutralLightL {
		return true
	}
	for _, ref := range neutralRefs {
		if c.DistanceCIEDE2000(ref) < cfg.NeutralRefDistance {
			return true
		}
	}
	return false
}

func parseHex(hex string) (colorful.Color, bool) {
	n := inventory.NormalizeHex(hex)
	if n == "" {
		return colorful.Color{}, false
	}
	c, err := colorful.Hex(n)
	if err != nil {
		return colorful.Color{}, false
	}
	return c, true
}

// hueDistance is the angular distance between two hues in degrees.
func hueDistance(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), 360)
	if d > 180 {
		d = 360 - d
	}
	return d
}

// shade is a distinct saturated color and how many items carry it.
type shade struct {
	color colorful.Color
	hue   float64
	count int
}

// saturated collects the competing colors of a candidate. Near-identical
// shades are merged. Secondary colors count only when they are saturated
// and do not share a hue with any primary.
func (cfg Config) saturated(c candidate.Candidate) []shade {
	var shades []shade
	add := func(col colorful.Color) {
		for i := range shades {
			if col.DistanceCIEDE2000(shades[i].color) < cfg.MonochromeDistance {
				shades[i].count++
				return
			}
		}
		h, _, _ := col.Hcl()
		shades = append(shades, shade{color: col, hue: h, count: 1})
	}

	items := c.Items()
	var primaryHues []float64
	for _, it := range items {
		col, ok := parseHex(it.ColorPrimary)
		if !ok || cfg.neutral(col) {
			continue
		}
		h, _, _ := col.Hcl()
		primaryHues = append(primaryHues, h)
		add(col)
	}

	for _, it := range items {
		col, ok := parseHex(it.ColorSecondary)
		if !ok || cfg.neutral(col) {
			continue
		}
		h, _, _ := col.Hcl()
		matched := false
		for _, ph := range primaryHues {
			if hueDistance(h, ph) < cfg.SameHueDegrees {
				matched = true
				break
			}
		}
		if !matched {
			add(col)
		}
	}
	return shades
}

// Color scores coordination. Neutrals pair with anything; a single accent
// scores full marks; two accents are judged by hue distance; three or more
// compete.
func (cfg Config) Color(c candidate.Candidate) float64 {
	shades := cfg.saturated(c)
	switch len(shades) {
	case 0:
		return ColorMax
	case 1:
		if shades[0].count > 1 {
			return 20 // monochrome
		}
		return ColorMax
	case 2:
		d := hueDistance(shades[0].hue, shades[1].hue)
		switch {
		case math.Abs(d-180) <= cfg.ComplementToleranceDeg:
			return 22
		case d < cfg.SameHueDegrees:
			return 10 // same hue, clashing shades
		}
		return 15
	}
	return clamp(8-4*float64(len(shades)-3), 0, ColorMax)
}
