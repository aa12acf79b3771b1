// Package inventory holds the clothing model and the queries that feed the
// suggestion engine. Scoring never mutates items; wear statistics change only
// through the history logger and the explicit toggles in this package.
package inventory

import (
	"math"
	"strings"
	"time"
)

// ClothingType is the role an item can fill in an outfit.
type ClothingType string

// Clothing types, in slot order.
const (
	TypeTop       ClothingType = "top"
	TypeBottom    ClothingType = "bottom"
	TypeDress     ClothingType = "dress"
	TypeShoes     ClothingType = "shoes"
	TypeOuterwear ClothingType = "outerwear"
)

// AllTypes lists every clothing type in slot order.
var AllTypes = []ClothingType{TypeTop, TypeBottom, TypeDress, TypeShoes, TypeOuterwear}

// Valid reports whether t is a known clothing type.
func (t ClothingType) Valid() bool {
	switch t {
	case TypeTop, TypeBottom, TypeDress, TypeShoes, TypeOuterwear:
		return true
	}
	return false
}

// ParseClothingType normalizes s and reports whether it names a clothing type.
func ParseClothingType(s string) (ClothingType, bool) {
	t := ClothingType(normalize(s))
	return t, t.Valid()
}

// Pattern is the visual pattern of an item.
type Pattern string

// Patterns.
const (
	PatternSolid     Pattern = "solid"
	PatternStriped   Pattern = "striped"
	PatternCheckered Pattern = "checkered"
	PatternFloral    Pattern = "floral"
	PatternPrinted   Pattern = "printed"
)

// Valid reports whether p is a known pattern.
func (p Pattern) Valid() bool {
	switch p {
	case PatternSolid, PatternStriped, PatternCheckered, PatternFloral, PatternPrinted:
		return true
	}
	return false
}

// Busy reports whether p competes visually with other busy patterns.
func (p Pattern) Busy() bool {
	return p.Valid() && p != PatternSolid
}

// ParsePattern normalizes s, falling back to solid for unknown values.
func ParsePattern(s string) Pattern {
	p := Pattern(normalize(s))
	if !p.Valid() {
		return PatternSolid
	}
	return p
}

// Formality is how dressed-up an item is.
type Formality string

// Formality levels.
const (
	FormalityCasual         Formality = "casual"
	FormalityBusinessCasual Formality = "business-casual"
	FormalityFormal         Formality = "formal"
	FormalityAthletic       Formality = "athletic"
)

// Valid reports whether f is a known formality level.
func (f Formality) Valid() bool {
	switch f {
	case FormalityCasual, FormalityBusinessCasual, FormalityFormal, FormalityAthletic:
		return true
	}
	return false
}

// ParseFormality normalizes s, falling back to casual for unknown values.
// Underscores and spaces are accepted in place of the hyphen.
func ParseFormality(s string) Formality {
	n := strings.NewReplacer("_", "-", " ", "-").Replace(normalize(s))
	f := Formality(n)
	if !f.Valid() {
		return FormalityCasual
	}
	return f
}

// SeasonWeight is the warmth class of an item.
type SeasonWeight string

// Season weights.
const (
	WeightLight  SeasonWeight = "light"
	WeightMedium SeasonWeight = "medium"
	WeightHeavy  SeasonWeight = "heavy"
)

// Valid reports whether w is a known season weight.
func (w SeasonWeight) Valid() bool {
	switch w {
	case WeightLight, WeightMedium, WeightHeavy:
		return true
	}
	return false
}

// ParseSeasonWeight normalizes s, falling back to medium for unknown values.
func ParseSeasonWeight(s string) SeasonWeight {
	w := SeasonWeight(normalize(s))
	if !w.Valid() {
		return WeightMedium
	}
	return w
}

// Occasion is what the outfit is for.
type Occasion string

// Occasions.
const (
	OccasionCasual Occasion = "casual"
	OccasionWork   Occasion = "work"
	OccasionGym    Occasion = "gym"
	OccasionDate   Occasion = "date"
	OccasionHome   Occasion = "home"
)

// AllOccasions lists every occasion.
var AllOccasions = []Occasion{OccasionCasual, OccasionWork, OccasionGym, OccasionDate, OccasionHome}

// Valid reports whether o is a known occasion.
func (o Occasion) Valid() bool {
	switch o {
	case OccasionCasual, OccasionWork, OccasionGym, OccasionDate, OccasionHome:
		return true
	}
	return false
}

// ParseOccasion normalizes s, falling back to casual for unknown values.
func ParseOccasion(s string) Occasion {
	o := Occasion(normalize(s))
	if !o.Valid() {
		return OccasionCasual
	}
	return o
}

// Default weather context used when the caller's input is unusable.
const (
	DefaultTempC     = 20.0
	DefaultCondition = "Clear"
)

// Weather is the opaque weather context of a request.
type Weather struct {
	Condition string  `json:"condition"`
	TempC     float64 `json:"temp_c"`
}

// Normalize replaces a non-finite temperature and an empty condition with
// the neutral defaults.
func (w Weather) Normalize() Weather {
	if math.IsNaN(w.TempC) || math.IsInf(w.TempC, 0) {
		w.TempC = DefaultTempC
	}
	w.Condition = strings.TrimSpace(w.Condition)
	if w.Condition == "" {
		w.Condition = DefaultCondition
	}
	return w
}

// ClothingItem is a single piece of clothing in the wardrobe.
type ClothingItem struct {
	CreatedAt      time.Time    `json:"created_at"`
	LastWorn       time.Time    `json:"last_worn,omitempty"`
	ImagePath      string       `json:"image_path,omitempty"`
	ImageHash      string       `json:"image_hash,omitempty"`
	Type           ClothingType `json:"clothing_type"`
	ColorPrimary   string       `json:"color_primary,omitempty"`
	ColorSecondary string       `json:"color_secondary,omitempty"`
	Pattern        Pattern      `json:"pattern"`
	Formality      Formality    `json:"formality"`
	SeasonWeight   SeasonWeight `json:"season_weight"`
	ID             int64        `json:"id"`
	TimesWorn      int          `json:"times_worn"`
	InLaundry      bool         `json:"in_laundry"`
	Favorite       bool         `json:"favorite"`
}

// NeverWorn reports whether the item has no recorded wear.
func (c ClothingItem) NeverWorn() bool {
	return c.LastWorn.IsZero()
}

// NormalizeHex returns a lowercase #rrggbb form of s, expanding #rgb
// shorthand. It returns "" when s is not a hex color.
func NormalizeHex(s string) string {
	s = strings.TrimPrefix(normalize(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return ""
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return ""
		}
	}
	return "#" + s
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
