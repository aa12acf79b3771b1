package weather

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	outfitsdb "github.com/runger/wardrobe/internal/outfits/db"
)

func newTestStore(t *testing.T, now func() time.Time) *SQLStore {
	t.Helper()
	d, err := outfitsdb.Open(context.Background(), outfitsdb.Options{
		Path:     filepath.Join(t.TempDir(), "wardrobe.db"),
		SkipLock: true,
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return NewSQLStore(d.DB(), now)
}

func TestSQLStore_RoundTrip(t *testing.T) {
	t.Parallel()

	fetched := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	s := newTestStore(t, func() time.Time { return fetched })
	ctx := context.Background()

	if _, _, ok, err := s.LoadReport(ctx, "oslo"); ok || err != nil {
		t.Fatalf("LoadReport() on empty store = %v, %v", ok, err)
	}

	want := Report{City: "Oslo", Condition: "Snow", Description: "light snow", TempC: -4, Humidity: 90}
	if err := s.SaveReport(ctx, "oslo", Report{City: "Oslo", Condition: "Clear", TempC: 3}); err != nil {
		t.Fatalf("SaveReport() error = %v", err)
	}
	if err := s.SaveReport(ctx, "oslo", want); err != nil {
		t.Fatalf("SaveReport() error = %v", err)
	}

	got, at, ok, err := s.LoadReport(ctx, "oslo")
	if err != nil || !ok {
		t.Fatalf("LoadReport() = %v, %v", ok, err)
	}
	if got != want {
		t.Errorf("LoadReport() = %+v, want %+v", got, want)
	}
	if !at.Equal(fetched) {
		t.Errorf("fetched at = %v, want %v", at, fetched)
	}
}

func TestResilient_ServesReportFromEarlierRun(t *testing.T) {
	t.Parallel()

	var status, calls atomic.Int32
	status.Store(http.StatusOK)
	srv := newServer(t, &status, &calls)

	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	store := newTestStore(t, clock)
	client := NewOpenWeatherClient(ClientOptions{BaseURL: srv.URL, APIKey: "k"})

	first := NewResilient(client, ResilientConfig{Store: store, Now: clock})
	fresh, err := first.Current(context.Background(), "Tiruppur")
	if err != nil {
		t.Fatalf("Current() error = %v", err)
	}

	status.Store(http.StatusBadGateway)
	second := NewResilient(client, ResilientConfig{Store: store, Now: clock})
	stale, err := second.Current(context.Background(), " tiruppur")
	if err != nil {
		t.Fatalf("Current() in a new run error = %v", err)
	}
	if !stale.Stale || stale.TempC != fresh.TempC || stale.Condition != fresh.Condition {
		t.Errorf("Current() = %+v, want stale copy of %+v", stale, fresh)
	}

	expired := NewResilient(client, ResilientConfig{
		Store:    store,
		MaxStale: time.Hour,
		Now:      func() time.Time { return now.Add(2 * time.Hour) },
	})
	if _, err := expired.Current(context.Background(), "Tiruppur"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expired report error = %v, want ErrUnavailable", err)
	}
}
