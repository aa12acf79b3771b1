package metrics

import (
	"sync"
	"testing"
)

func TestCounters_SnapshotKeys(t *testing.T) {
	c := &Counters{}
	snap := c.Snapshot()

	expectedKeys := []string{
		"suggest_requests",
		"suggest_hits",
		"suggest_shortfall",
		"suggest_errors",
		"candidates_scored",
		"wears_logged",
		"ratings_stored",
		"profile_errors",
		"latency_sum_ms",
	}
	if len(snap) != len(expectedKeys) {
		t.Errorf("Snapshot() returned %d fields, want %d", len(snap), len(expectedKeys))
	}
	for _, key := range expectedKeys {
		val, ok := snap[key]
		if !ok {
			t.Errorf("Snapshot() missing key %q", key)
			continue
		}
		if val != 0 {
			t.Errorf("Snapshot()[%q] = %d, want 0", key, val)
		}
	}
}

func TestCounters_Reset(t *testing.T) {
	c := &Counters{}
	c.SuggestRequests.Add(3)
	c.WearsLogged.Add(2)
	c.ProfileErrors.Add(1)

	c.Reset()

	for key, val := range c.Snapshot() {
		if val != 0 {
			t.Errorf("after Reset(), Snapshot()[%q] = %d, want 0", key, val)
		}
	}
}

func TestCounters_ConcurrentAccess(t *testing.T) {
	c := &Counters{}

	const goroutines = 50
	const increments = 200

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < increments; j++ {
				c.CandidatesScored.Add(1)
				c.RatingsStored.Add(1)
			}
		}()
	}
	wg.Wait()

	want := int64(goroutines * increments)
	snap := c.Snapshot()
	if snap["candidates_scored"] != want || snap["ratings_stored"] != want {
		t.Errorf("snapshot = %v, want %d for both counters", snap, want)
	}
}

func TestCounters_Rates(t *testing.T) {
	c := &Counters{}
	if c.AverageSuggestLatencyMs() != 0 || c.HitRate() != 0 {
		t.Error("rates should be 0 before any request")
	}

	c.SuggestRequests.Add(4)
	c.SuggestHits.Add(3)
	c.LatencySumMs.Add(100)

	if avg := c.AverageSuggestLatencyMs(); avg != 25 {
		t.Errorf("AverageSuggestLatencyMs() = %f, want 25", avg)
	}
	if rate := c.HitRate(); rate != 0.75 {
		t.Errorf("HitRate() = %f, want 0.75", rate)
	}
}
