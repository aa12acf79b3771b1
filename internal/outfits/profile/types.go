// Package profile stores learned style preferences and applies feedback
// events to them. Each (type, value) pair carries one bounded weight.
package profile

import (
	"sort"

	"github.com/runger/wardrobe/internal/outfits/inventory"
)

// Type is the attribute a preference is about.
type Type string

// Preference types.
const (
	TypeColor     Type = "color"
	TypeFormality Type = "formality"
	TypePattern   Type = "pattern"
	TypeOccasion  Type = "occasion"
)

// AllTypes lists the preference types in display order.
var AllTypes = []Type{TypeColor, TypeFormality, TypePattern, TypeOccasion}

// Valid reports whether t is a known preference type.
func (t Type) Valid() bool {
	switch t {
	case TypeColor, TypeFormality, TypePattern, TypeOccasion:
		return true
	}
	return false
}

// Key identifies one preference row.
type Key struct {
	Type  Type
	Value string
}

// Preferences is a read-only snapshot of learned weights.
type Preferences map[Key]float64

// Weight returns the weight for k and whether it has been learned.
func (p Preferences) Weight(k Key) (float64, bool) {
	w, ok := p[k]
	return w, ok
}

// Len returns the number of learned pairs.
func (p Preferences) Len() int {
	return len(p)
}

// Outfit is what a feedback event is about: the worn items and the occasion.
type Outfit struct {
	Occasion inventory.Occasion
	Items    []inventory.ClothingItem
}

// Keys returns the distinct preference pairs present in the outfit,
// sorted by type then value. Items without a valid primary color
// contribute no color key.
func (o Outfit) Keys() []Key {
	return KeysFor(o.Items, o.Occasion)
}

// KeysFor returns the distinct preference pairs of items plus the occasion.
// An empty occasion contributes no occasion key.
func KeysFor(items []inventory.ClothingItem, occasion inventory.Occasion) []Key {
	seen := make(map[Key]struct{})
	add := func(t Type, v string) {
		if v != "" {
			seen[Key{Type: t, Value: v}] = struct{}{}
		}
	}
	for _, it := range items {
		add(TypeColor, inventory.NormalizeHex(it.ColorPrimary))
		add(TypeFormality, string(it.Formality))
		add(TypePattern, string(it.Pattern))
	}
	add(TypeOccasion, string(occasion))

	keys := make([]Key, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sortKeys(keys)
	return keys
}

// sortKeys orders keys by type, then value.
func sortKeys(keys []Key) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Type != keys[j].Type {
			return keys[i].Type < keys[j].Type
		}
		return keys[i].Value < keys[j].Value
	})
}
