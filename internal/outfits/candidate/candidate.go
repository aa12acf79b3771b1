// Package candidate assembles structurally valid outfit skeletons from a
// wardrobe snapshot.
package candidate

import (
	"errors"
	"strconv"
	"strings"

	"github.com/runger/wardrobe/internal/outfits/inventory"
)

// ErrInvalidStructure is returned when a slot assignment is neither
// top+bottom nor a dress, or an item sits in the wrong slot.
var ErrInvalidStructure = errors.New("invalid outfit structure")

// Structure names the base shape of a candidate.
type Structure string

// Base structures.
const (
	StructureRegular Structure = "regular"
	StructureDress   Structure = "dress"
)

// Candidate is a role-slot assignment. Nil slots are empty.
type Candidate struct {
	Top       *inventory.ClothingItem `json:"top,omitempty"`
	Bottom    *inventory.ClothingItem `json:"bottom,omitempty"`
	Dress     *inventory.ClothingItem `json:"dress,omitempty"`
	Shoes     *inventory.ClothingItem `json:"shoes,omitempty"`
	Outerwear *inventory.ClothingItem `json:"outerwear,omitempty"`
}

// Structure reports the base shape.
func (c Candidate) Structure() Structure {
	if c.Dress != nil {
		return StructureDress
	}
	return StructureRegular
}

// Slot returns the item in the slot for role t.
func (c Candidate) Slot(t inventory.ClothingType) *inventory.ClothingItem {
	switch t {
	case inventory.TypeTop:
		return c.Top
	case inventory.TypeBottom:
		return c.Bottom
	case inventory.TypeDress:
		return c.Dress
	case inventory.TypeShoes:
		return c.Shoes
	case inventory.TypeOuterwear:
		return c.Outerwear
	}
	return nil
}

// Items returns the filled slots in slot order.
func (c Candidate) Items() []inventory.ClothingItem {
	out := make([]inventory.ClothingItem, 0, 4)
	for _, t := range inventory.AllTypes {
		if it := c.Slot(t); it != nil {
			out = append(out, *it)
		}
	}
	return out
}

// IDs returns item ids in slot order, zero for empty slots.
func (c Candidate) IDs() [5]int64 {
	var ids [5]int64
	for i, t := range inventory.AllTypes {
		if it := c.Slot(t); it != nil {
			ids[i] = it.ID
		}
	}
	return ids
}

// Size is the number of filled slots.
func (c Candidate) Size() int {
	n := 0
	for _, id := range c.IDs() {
		if id != 0 {
			n++
		}
	}
	return n
}

// Key is a stable slot-ordered identity, e.g. "1-2-0-3-0".
func (c Candidate) Key() string {
	ids := c.IDs()
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, "-")
}

// Overlap counts slots that hold the same item in both candidates.
func (c Candidate) Overlap(other Candidate) int {
	a, b := c.IDs(), other.IDs()
	n := 0
	for i := range a {
		if a[i] != 0 && a[i] == b[i] {
			n++
		}
	}
	return n
}

// TotalTimesWorn sums times_worn across the filled slots.
func (c Candidate) TotalTimesWorn() int {
	total := 0
	for _, it := range c.Items() {
		total += it.TimesWorn
	}
	return total
}

// Validate checks the structural invariant: either top and bottom or a
// dress, never both, and every item in the slot matching its type.
func (c Candidate) Validate() error {
	regular := c.Top != nil && c.Bottom != nil
	dress := c.Dress != nil
	switch {
	case regular && dress:
		return errors.Join(ErrInvalidStructure, errors.New("dress combined with top and bottom"))
	case !regular && !dress:
		return errors.Join(ErrInvalidStructure, errors.New("needs top and bottom or a dress"))
	case dress && (c.Top != nil || c.Bottom != nil):
		return errors.Join(ErrInvalidStructure, errors.New("dress combined with a separate piece"))
	}
	for _, t := range inventory.AllTypes {
		if it := c.Slot(t); it != nil && it.Type != t {
			return errors.Join(ErrInvalidStructure, errors.New(string(it.Type)+" item in "+string(t)+" slot"))
		}
	}
	return nil
}
