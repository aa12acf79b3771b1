package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"
)

// ErrStoreUnavailable is returned when preferences cannot be read or written.
var ErrStoreUnavailable = errors.New("profile store unavailable")

// Config holds the learning constants.
type Config struct {
	// Logger for diagnostic output (optional).
	Logger *slog.Logger

	// NeutralWeight is the starting weight of a new pair (default 1.0).
	NeutralWeight float64

	// WearStep is added for every pair of a worn outfit (default 0.1).
	WearStep float64

	// RatingStep is added for ratings of 4 or 5 and subtracted for
	// ratings of 1 or 2 (default 0.5).
	RatingStep float64

	// WeightMin and WeightMax bound every weight (default 0 and 5).
	WeightMin float64
	WeightMax float64
}

// DefaultConfig returns the default learning configuration.
func DefaultConfig() Config {
	return Config{
		NeutralWeight: 1.0,
		WearStep:      0.1,
		RatingStep:    0.5,
		WeightMin:     0.0,
		WeightMax:     5.0,
		Logger:        slog.Default(),
	}
}

// Store persists style preferences in the style_profile table.
// It is safe for concurrent use; updates to the same key are serialized.
type Store struct {
	db    *sql.DB
	locks *keyedMutex
	now   func() time.Time
	cfg   Config
}

// NewStore creates a preference store over db.
func NewStore(db *sql.DB, cfg Config) *Store {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.WeightMax <= cfg.WeightMin {
		d := DefaultConfig()
		cfg.WeightMin, cfg.WeightMax = d.WeightMin, d.WeightMax
	}
	return &Store{db: db, cfg: cfg, locks: newKeyedMutex(), now: time.Now}
}

// Config returns the store's learning configuration.
func (s *Store) Config() Config {
	return s.cfg
}

// Adjust moves the weight for k by delta. A missing row is created at the
// neutral weight with delta already applied. The result is clamped to
// [WeightMin, WeightMax] in the same statement.
func (s *Store) Adjust(ctx context.Context, k Key, delta float64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return s.adjustAll(ctx, tx, []Key{k}, delta)
	})
}

// AdjustTx moves every key by delta inside tx. Nothing is written unless
// every key is valid, and the caller's rollback undoes all of it.
func (s *Store) AdjustTx(ctx context.Context, tx *sql.Tx, keys []Key, delta float64) error {
	return s.adjustAll(ctx, tx, keys, delta)
}

// inTx runs fn in a transaction. Key locks are only taken once the
// transaction holds its connection.
func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	defer tx.Rollback() //nolint:errcheck // Best effort rollback on error

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return nil
}

// adjustAll locks the keys in sorted order and holds every lock until the
// last upsert has run.
func (s *Store) adjustAll(ctx context.Context, tx *sql.Tx, keys []Key, delta float64) error {
	sorted := make([]Key, 0, len(keys))
	seen := make(map[Key]struct{}, len(keys))
	for _, k := range keys {
		if !k.Type.Valid() || k.Value == "" {
			return fmt.Errorf("invalid preference key %q=%q", k.Type, k.Value)
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		sorted = append(sorted, k)
	}
	sortKeys(sorted)

	unlocks := make([]func(), 0, len(sorted))
	for _, k := range sorted {
		unlocks = append(unlocks, s.locks.Lock(k))
	}
	defer func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}()

	lo, hi := s.cfg.WeightMin, s.cfg.WeightMax
	initial := clamp(s.cfg.NeutralWeight+delta, lo, hi)
	now := s.now().UnixMilli()
	for _, k := range sorted {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO style_profile (preference_type, preference_value, weight, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(preference_type, preference_value) DO UPDATE SET
				weight = MAX(?, MIN(?, style_profile.weight + ?)),
				updated_at = excluded.updated_at
		`, string(k.Type), k.Value, initial, now, lo, hi, delta)
		if err != nil {
			return fmt.Errorf("%w: failed to adjust %s=%s: %w", ErrStoreUnavailable, k.Type, k.Value, err)
		}
	}
	return nil
}

// Weight returns the current weight for k and whether a row exists.
func (s *Store) Weight(ctx context.Context, k Key) (float64, bool, error) {
	var w float64
	err := s.db.QueryRowContext(ctx, `
		SELECT weight FROM style_profile
		WHERE preference_type = ? AND preference_value = ?
	`, string(k.Type), k.Value).Scan(&w)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return w, true, nil
}

// Snapshot reads every learned weight.
func (s *Store) Snapshot(ctx context.Context) (Preferences, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT preference_type, preference_value, weight FROM style_profile
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	defer rows.Close()

	prefs := make(Preferences)
	for rows.Next() {
		var (
			t, v string
			w    float64
		)
		if err := rows.Scan(&t, &v, &w); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		}
		prefs[Key{Type: Type(t), Value: v}] = w
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return prefs, nil
}

// Entry is one learned value and its weight.
type Entry struct {
	Value  string  `json:"value"`
	Weight float64 `json:"weight"`
}

// Top returns the highest weighted values of type t, best first.
func (s *Store) Top(ctx context.Context, t Type, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT preference_value, weight FROM style_profile
		WHERE preference_type = ?
		ORDER BY weight DESC, preference_value ASC
		LIMIT ?
	`, string(t), limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Value, &e.Weight); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// defaultDistribution is reported before any formality has been learned.
var defaultDistribution = []Entry{
	{Value: "casual", Weight: 33},
	{Value: "business-casual", Weight: 33},
	{Value: "formal", Weight: 34},
}

// Distribution returns each value's share of the total weight of type t
// in percent, largest first. With nothing learned it returns an even split.
func (s *Store) Distribution(ctx context.Context, t Type) ([]Entry, error) {
	entries, err := s.Top(ctx, t, math.MaxInt32)
	if err != nil {
		return nil, err
	}

	var total float64
	for _, e := range entries {
		total += e.Weight
	}
	if len(entries) == 0 || total == 0 {
		out := make([]Entry, len(defaultDistribution))
		copy(out, defaultDistribution)
		return out, nil
	}

	for i := range entries {
		entries[i].Weight = entries[i].Weight / total * 100
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Weight > entries[j].Weight })
	return entries, nil
}

// Reset deletes every learned preference.
func (s *Store) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM style_profile`); err != nil {
		return fmt.Errorf("%w: failed to reset profile: %w", ErrStoreUnavailable, err)
	}
	s.cfg.Logger.Info("style profile reset")
	return nil
}

// clamp restricts v to the range [lo, hi].
func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
