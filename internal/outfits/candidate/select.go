package candidate

import (
	"container/heap"
	"sort"

	"github.com/runger/wardrobe/internal/outfits/inventory"
)

// preferred orders items for consideration: never worn first, then the
// oldest last wear, then fewest wears, then lowest id.
func preferred(a, b inventory.ClothingItem) bool {
	if a.NeverWorn() != b.NeverWorn() {
		return a.NeverWorn()
	}
	if !a.LastWorn.Equal(b.LastWorn) {
		return a.LastWorn.Before(b.LastWorn)
	}
	if a.TimesWorn != b.TimesWorn {
		return a.TimesWorn < b.TimesWorn
	}
	return a.ID < b.ID
}

// evictHeap keeps the least preferred kept item on top so it can be
// replaced when a better one arrives.
type evictHeap []inventory.ClothingItem

func (h evictHeap) Len() int           { return len(h) }
func (h evictHeap) Less(i, j int) bool { return preferred(h[j], h[i]) }
func (h evictHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *evictHeap) Push(x any)        { *h = append(*h, x.(inventory.ClothingItem)) }
func (h *evictHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	*h = old[:n-1]
	return it
}

// topK returns at most k items in preference order without sorting the
// whole input.
func topK(items []inventory.ClothingItem, k int) []inventory.ClothingItem {
	if k < 1 {
		k = 1
	}
	h := make(evictHeap, 0, k)
	for _, it := range items {
		if h.Len() < k {
			heap.Push(&h, it)
			continue
		}
		if preferred(it, h[0]) {
			h[0] = it
			heap.Fix(&h, 0)
		}
	}
	out := []inventory.ClothingItem(h)
	sort.Slice(out, func(i, j int) bool { return preferred(out[i], out[j]) })
	return out
}
