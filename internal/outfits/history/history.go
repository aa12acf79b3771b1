// Package history records worn outfits. Logging a wear is the only path
// that changes an item's wear statistics.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/runger/wardrobe/internal/outfits/candidate"
	"github.com/runger/wardrobe/internal/outfits/inventory"
	"github.com/runger/wardrobe/internal/outfits/profile"
)

var (
	// ErrInvalidSelection is returned when the slots do not form an outfit.
	ErrInvalidSelection = errors.New("invalid outfit selection")

	// ErrItemNotFound is returned when a selected id does not exist in its slot.
	// Nothing is written when it occurs.
	ErrItemNotFound = errors.New("selected item not found")

	// ErrOutfitNotFound is returned when an outfit id does not exist.
	ErrOutfitNotFound = errors.New("outfit not found")
)

// WearRecorder receives the implicit positive signal of a wear inside the
// wear's transaction.
type WearRecorder interface {
	RecordWearTx(ctx context.Context, tx *sql.Tx, o profile.Outfit) error
}

// Selection names the worn item per slot; zero means empty.
type Selection struct {
	TopID       int64 `json:"top_id,omitempty"`
	BottomID    int64 `json:"bottom_id,omitempty"`
	DressID     int64 `json:"dress_id,omitempty"`
	ShoesID     int64 `json:"shoes_id,omitempty"`
	OuterwearID int64 `json:"outerwear_id,omitempty"`
}

// SelectionOf returns the slot ids of a candidate.
func SelectionOf(c candidate.Candidate) Selection {
	ids := c.IDs()
	return Selection{TopID: ids[0], BottomID: ids[1], DressID: ids[2], ShoesID: ids[3], OuterwearID: ids[4]}
}

// slots pairs each clothing type with its selected id, in slot order.
func (s Selection) slots() []slotID {
	return []slotID{
		{inventory.TypeTop, s.TopID},
		{inventory.TypeBottom, s.BottomID},
		{inventory.TypeDress, s.DressID},
		{inventory.TypeShoes, s.ShoesID},
		{inventory.TypeOuterwear, s.OuterwearID},
	}
}

type slotID struct {
	typ inventory.ClothingType
	id  int64
}

// Validate checks for top and bottom or a dress, but not both.
func (s Selection) Validate() error {
	regular := s.TopID != 0 && s.BottomID != 0
	dress := s.DressID != 0
	if regular == dress || (dress && (s.TopID != 0 || s.BottomID != 0)) {
		return fmt.Errorf("%w: need top and bottom, or a dress", ErrInvalidSelection)
	}
	for _, sl := range s.slots() {
		if sl.id < 0 {
			return fmt.Errorf("%w: negative %s id", ErrInvalidSelection, sl.typ)
		}
	}
	return nil
}

// WearRequest is one accepted outfit.
type WearRequest struct {
	Weather   inventory.Weather
	Occasion  inventory.Occasion
	Selection Selection
}

// Config configures the logger.
type Config struct {
	// Logger for diagnostic output (optional).
	Logger *slog.Logger

	// Now overrides the clock (optional).
	Now func() time.Time
}

// Logger writes wear events and reads them back.
type Logger struct {
	db       *sql.DB
	recorder WearRecorder
	logger   *slog.Logger
	now      func() time.Time
}

// NewLogger creates a history logger. recorder may be nil.
func NewLogger(db *sql.DB, recorder WearRecorder, cfg Config) *Logger {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Logger{db: db, recorder: recorder, logger: cfg.Logger, now: cfg.Now}
}

// LogWear stores the outfit, bumps the wear statistics of every worn item
// and passes the wear to the profile recorder, all in one transaction.
// Either all of it commits or none of it does.
func (l *Logger) LogWear(ctx context.Context, req WearRequest) (int64, error) {
	sel := req.Selection
	if err := sel.Validate(); err != nil {
		return 0, err
	}
	occasion := inventory.ParseOccasion(string(req.Occasion))
	weather := req.Weather.Normalize()
	now := l.now()

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Best effort rollback on error

	res, err := tx.ExecContext(ctx, `
		INSERT INTO outfits (top_id, bottom_id, shoes_id, dress_id, outerwear_id,
			occasion, weather_temp, weather_condition, worn_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, nullID(sel.TopID), nullID(sel.BottomID), nullID(sel.ShoesID), nullID(sel.DressID), nullID(sel.OuterwearID),
		string(occasion), weather.TempC, weather.Condition, now.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to insert outfit: %w", err)
	}
	outfitID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read outfit id: %w", err)
	}

	var worn []inventory.ClothingItem
	for _, sl := range sel.slots() {
		if sl.id == 0 {
			continue
		}
		res, err := tx.ExecContext(ctx, `
			UPDATE clothes SET times_worn = times_worn + 1, last_worn = ?
			WHERE id = ? AND clothing_type = ?
		`, now.UnixMilli(), sl.id, string(sl.typ))
		if err != nil {
			return 0, fmt.Errorf("failed to update wear count for %d: %w", sl.id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to read rows affected: %w", err)
		}
		if n != 1 {
			return 0, fmt.Errorf("%w: %s %d", ErrItemNotFound, sl.typ, sl.id)
		}

		item, err := inventory.ScanItem(tx.QueryRowContext(ctx,
			`SELECT `+inventory.ItemColumns+` FROM clothes WHERE id = ?`, sl.id))
		if err != nil {
			return 0, fmt.Errorf("failed to read item %d: %w", sl.id, err)
		}
		worn = append(worn, item)
	}

	if l.recorder != nil {
		if err := l.recorder.RecordWearTx(ctx, tx, profile.Outfit{Occasion: occasion, Items: worn}); err != nil {
			return 0, fmt.Errorf("failed to update style profile: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit wear: %w", err)
	}
	l.logger.Info("outfit worn", "outfit_id", outfitID, "items", len(worn), "occasion", occasion)
	return outfitID, nil
}

// Entry is a logged outfit with its items resolved.
type Entry struct {
	WornAt    time.Time                `json:"worn_at"`
	Weather   inventory.Weather        `json:"weather"`
	Occasion  inventory.Occasion       `json:"occasion"`
	Items     []inventory.ClothingItem `json:"items"`
	Selection Selection                `json:"selection"`
	ID        int64                    `json:"id"`
}

// Outfit converts the entry into a profile event subject.
func (e Entry) Outfit() profile.Outfit {
	return profile.Outfit{Occasion: e.Occasion, Items: e.Items}
}

const outfitColumns = `id, top_id, bottom_id, shoes_id, dress_id, outerwear_id,
	occasion, weather_temp, weather_condition, worn_at`

// Get returns one logged outfit. Items deleted since the wear are omitted.
func (l *Logger) Get(ctx context.Context, id int64) (Entry, error) {
	e, err := scanEntry(l.db.QueryRowContext(ctx, `SELECT `+outfitColumns+` FROM outfits WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("%w: id %d", ErrOutfitNotFound, id)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("failed to get outfit %d: %w", id, err)
	}
	if err := l.resolveItems(ctx, &e); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// Recent returns the latest logged outfits, newest first.
func (l *Logger) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := l.db.QueryContext(ctx, `
		SELECT `+outfitColumns+` FROM outfits
		ORDER BY worn_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan outfit: %w", err)
		}
		entries = append(entries, e)
	}
	// Close before resolving: the single connection is held by rows.
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range entries {
		if err := l.resolveItems(ctx, &entries[i]); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

func (l *Logger) resolveItems(ctx context.Context, e *Entry) error {
	for _, sl := range e.Selection.slots() {
		if sl.id == 0 {
			continue
		}
		item, err := inventory.ScanItem(l.db.QueryRowContext(ctx,
			`SELECT `+inventory.ItemColumns+` FROM clothes WHERE id = ?`, sl.id))
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to resolve item %d: %w", sl.id, err)
		}
		e.Items = append(e.Items, item)
	}
	return nil
}

func scanEntry(sc inventory.Scanner) (Entry, error) {
	var (
		e                                Entry
		top, bottom, shoes, dress, outer sql.NullInt64
		occasion                         string
		temp                             sql.NullFloat64
		condition                        sql.NullString
		wornAt                           int64
	)
	if err := sc.Scan(&e.ID, &top, &bottom, &shoes, &dress, &outer, &occasion, &temp, &condition, &wornAt); err != nil {
		return Entry{}, err
	}
	e.Selection = Selection{
		TopID:       top.Int64,
		BottomID:    bottom.Int64,
		DressID:     dress.Int64,
		ShoesID:     shoes.Int64,
		OuterwearID: outer.Int64,
	}
	e.Occasion = inventory.ParseOccasion(occasion)
	e.Weather = inventory.Weather{TempC: temp.Float64, Condition: condition.String}
	e.WornAt = time.UnixMilli(wornAt)
	return e, nil
}

func nullID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}
