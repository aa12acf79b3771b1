package inventory

// Wardrobe is an immutable snapshot of eligible items grouped by role.
type Wardrobe struct {
	byType map[ClothingType][]ClothingItem
	total  int
}

// NewWardrobe groups items by clothing type, keeping input order within
// each group. Items with an unknown type are dropped.
func NewWardrobe(items []ClothingItem) *Wardrobe {
	w := &Wardrobe{byType: make(map[ClothingType][]ClothingItem, len(AllTypes))}
	for _, it := range items {
		if !it.Type.Valid() {
			continue
		}
		w.byType[it.Type] = append(w.byType[it.Type], it)
		w.total++
	}
	return w
}

// ByType returns the items that can fill role t.
// The returned slice must not be modified.
func (w *Wardrobe) ByType(t ClothingType) []ClothingItem {
	if w == nil {
		return nil
	}
	return w.byType[t]
}

// Len returns the number of items in the snapshot.
func (w *Wardrobe) Len() int {
	if w == nil {
		return 0
	}
	return w.total
}

// Items returns every item in slot order.
func (w *Wardrobe) Items() []ClothingItem {
	if w == nil {
		return nil
	}
	out := make([]ClothingItem, 0, w.total)
	for _, t := range AllTypes {
		out = append(out, w.byType[t]...)
	}
	return out
}
