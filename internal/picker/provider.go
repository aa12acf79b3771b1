package picker

import "context"

// Provider supplies the outfits shown for one occasion tab.
type Provider interface {
	Fetch(ctx context.Context, req Request) (Response, error)
}

// Request asks for the suggestions of one tab.
type Request struct {
	RequestID uint64 // Monotonically increasing, for stale response detection
	Tab       string // Occasion of the active tab
	Limit     int
}

// Item is one selectable outfit.
type Item struct {
	Title  string // Outfit summary
	Detail string // Score breakdown shown under the selected item
	Score  float64
}

// Response carries items back from a Provider.
type Response struct {
	RequestID uint64 // Must match Request.RequestID to be accepted
	Items     []Item
	Note      string // Shown instead of the list when Items is empty
}
