// Package metrics provides atomic counters for the outfit engine.
// Counters are lock-free and safe for concurrent use.
package metrics

import (
	"sync/atomic"
)

// Counters holds the engine's observability counters.
type Counters struct {
	SuggestRequests  atomic.Int64 // total Suggest calls
	SuggestHits      atomic.Int64 // requests that produced >= 1 suggestion
	SuggestShortfall atomic.Int64 // requests ended by a wardrobe shortfall
	SuggestErrors    atomic.Int64 // requests failed by an unavailable store
	CandidatesScored atomic.Int64 // candidates scored across all requests
	WearsLogged      atomic.Int64 // committed wear events
	RatingsStored    atomic.Int64 // stored ratings
	ProfileErrors    atomic.Int64 // events rolled back by a failed profile update
	LatencySumMs     atomic.Int64 // cumulative Suggest latency
}

// Global is the process-wide metrics singleton.
var Global = &Counters{}

// Snapshot returns a point-in-time copy of all counters. Each field is
// read atomically but the set is not consistent across fields.
func (c *Counters) Snapshot() map[string]int64 {
	return map[string]int64{
		"suggest_requests":  c.SuggestRequests.Load(),
		"suggest_hits":      c.SuggestHits.Load(),
		"suggest_shortfall": c.SuggestShortfall.Load(),
		"suggest_errors":    c.SuggestErrors.Load(),
		"candidates_scored": c.CandidatesScored.Load(),
		"wears_logged":      c.WearsLogged.Load(),
		"ratings_stored":    c.RatingsStored.Load(),
		"profile_errors":    c.ProfileErrors.Load(),
		"latency_sum_ms":    c.LatencySumMs.Load(),
	}
}

// Reset zeroes all counters.
func (c *Counters) Reset() {
	c.SuggestRequests.Store(0)
	c.SuggestHits.Store(0)
	c.SuggestShortfall.Store(0)
	c.SuggestErrors.Store(0)
	c.CandidatesScored.Store(0)
	c.WearsLogged.Store(0)
	c.RatingsStored.Store(0)
	c.ProfileErrors.Store(0)
	c.LatencySumMs.Store(0)
}

// AverageSuggestLatencyMs returns the mean Suggest latency in milliseconds,
// or 0 before the first request.
func (c *Counters) AverageSuggestLatencyMs() float64 {
	reqs := c.SuggestRequests.Load()
	if reqs == 0 {
		return 0
	}
	return float64(c.LatencySumMs.Load()) / float64(reqs)
}

// HitRate returns the share of requests that produced suggestions.
func (c *Counters) HitRate() float64 {
	reqs := c.SuggestRequests.Load()
	if reqs == 0 {
		return 0
	}
	return float64(c.SuggestHits.Load()) / float64(reqs)
}
