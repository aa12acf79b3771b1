package weather

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// ReportStore keeps the last good report per city across runs.
type ReportStore interface {
	LoadReport(ctx context.Context, city string) (Report, time.Time, bool, error)
	SaveReport(ctx context.Context, city string, r Report) error
}

// SQLStore is a ReportStore over the weather_cache table.
type SQLStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLStore creates a store. now defaults to time.Now.
func NewSQLStore(db *sql.DB, now func() time.Time) *SQLStore {
	if now == nil {
		now = time.Now
	}
	return &SQLStore{db: db, now: now}
}

// LoadReport returns the saved report for city and when it was fetched.
func (s *SQLStore) LoadReport(ctx context.Context, city string) (Report, time.Time, bool, error) {
	var (
		raw       string
		fetchedAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT report, fetched_at FROM weather_cache WHERE city = ?`, city,
	).Scan(&raw, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Report{}, time.Time{}, false, nil
	}
	if err != nil {
		return Report{}, time.Time{}, false, fmt.Errorf("failed to load cached weather: %w", err)
	}

	var r Report
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return Report{}, time.Time{}, false, fmt.Errorf("failed to decode cached weather: %w", err)
	}
	return r, time.UnixMilli(fetchedAt), true, nil
}

// SaveReport replaces the saved report for city.
func (s *SQLStore) SaveReport(ctx context.Context, city string, r Report) error {
	r.Stale = false
	raw, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode weather: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO weather_cache (city, report, fetched_at) VALUES (?, ?, ?)
		ON CONFLICT(city) DO UPDATE SET report = excluded.report, fetched_at = excluded.fetched_at
	`, city, string(raw), s.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to save weather: %w", err)
	}
	return nil
}
