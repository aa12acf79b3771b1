package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

var (
	// ErrStoreUnavailable is returned when the inventory cannot be read.
	ErrStoreUnavailable = errors.New("inventory store unavailable")

	// ErrItemNotFound is returned when an item id does not exist.
	ErrItemNotFound = errors.New("clothing item not found")

	// ErrInvalidItem is returned when an item fails validation on insert.
	ErrInvalidItem = errors.New("invalid clothing item")
)

// ItemColumns is the clothes column list in ScanItem order.
const ItemColumns = `id, image_path, image_hash, clothing_type, color_primary, color_secondary,
	pattern, formality, season_weight, times_worn, last_worn, in_laundry, favorite, created_at`

// Store reads and writes the clothes table.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// NewStore creates an inventory store over db.
func NewStore(db *sql.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger, now: time.Now}
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Type           ClothingType
	ExcludeLaundry bool
	OnlyLaundry    bool
	OnlyFavorites  bool
}

// Add inserts a new item and returns its id. Enum fields are normalized,
// wear statistics start at zero and created_at is set to now.
func (s *Store) Add(ctx context.Context, item ClothingItem) (int64, error) {
	if !item.Type.Valid() {
		return 0, fmt.Errorf("%w: clothing type %q", ErrInvalidItem, item.Type)
	}
	primary := NormalizeHex(item.ColorPrimary)
	if item.ColorPrimary != "" && primary == "" {
		return 0, fmt.Errorf("%w: color %q is not a hex color", ErrInvalidItem, item.ColorPrimary)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO clothes (image_path, image_hash, clothing_type, color_primary, color_secondary,
			pattern, formality, season_weight, in_laundry, favorite, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		item.ImagePath,
		nullStr(item.ImageHash),
		string(item.Type),
		nullStr(primary),
		nullStr(NormalizeHex(item.ColorSecondary)),
		string(ParsePattern(string(item.Pattern))),
		string(ParseFormality(string(item.Formality))),
		string(ParseSeasonWeight(string(item.SeasonWeight))),
		boolToInt(item.InLaundry),
		boolToInt(item.Favorite),
		s.now().UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert item: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read item id: %w", err)
	}
	s.logger.Debug("item added", "id", id, "type", item.Type)
	return id, nil
}

// Get returns the item with the given id.
func (s *Store) Get(ctx context.Context, id int64) (ClothingItem, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+ItemColumns+` FROM clothes WHERE id = ?`, id)
	item, err := ScanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ClothingItem{}, fmt.Errorf("%w: id %d", ErrItemNotFound, id)
	}
	if err != nil {
		return ClothingItem{}, fmt.Errorf("failed to get item %d: %w", id, err)
	}
	return item, nil
}

// FindByImageHash returns the item previously added from the same image.
func (s *Store) FindByImageHash(ctx context.Context, hash string) (ClothingItem, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+ItemColumns+` FROM clothes WHERE image_hash = ? LIMIT 1`, hash)
	item, err := ScanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ClothingItem{}, ErrItemNotFound
	}
	if err != nil {
		return ClothingItem{}, fmt.Errorf("failed to look up image hash: %w", err)
	}
	return item, nil
}

// List returns items matching f ordered by type and id.
func (s *Store) List(ctx context.Context, f Filter) ([]ClothingItem, error) {
	var (
		where []string
		args  []any
	)
	if f.Type != "" {
		where = append(where, "clothing_type = ?")
		args = append(args, string(f.Type))
	}
	if f.ExcludeLaundry {
		where = append(where, "in_laundry = 0")
	}
	if f.OnlyLaundry {
		where = append(where, "in_laundry = 1")
	}
	if f.OnlyFavorites {
		where = append(where, "favorite = 1")
	}

	query := `SELECT ` + ItemColumns + ` FROM clothes`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY clothing_type, id"

	return s.query(ctx, query, args...)
}

// Eligible returns every item not in the laundry, grouped by role.
// Any read failure is reported as ErrStoreUnavailable.
func (s *Store) Eligible(ctx context.Context) (*Wardrobe, error) {
	items, err := s.List(ctx, Filter{ExcludeLaundry: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return NewWardrobe(items), nil
}

// SetLaundry marks an item as in or out of the laundry.
func (s *Store) SetLaundry(ctx context.Context, id int64, inLaundry bool) error {
	return s.setFlag(ctx, id, "in_laundry", inLaundry)
}

// SetFavorite marks an item as favorite or not.
func (s *Store) SetFavorite(ctx context.Context, id int64, favorite bool) error {
	return s.setFlag(ctx, id, "favorite", favorite)
}

// ToggleLaundry flips the laundry flag and returns the new value.
func (s *Store) ToggleLaundry(ctx context.Context, id int64) (bool, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		return false, err
	}
	return !item.InLaundry, s.SetLaundry(ctx, id, !item.InLaundry)
}

// ToggleFavorite flips the favorite flag and returns the new value.
func (s *Store) ToggleFavorite(ctx context.Context, id int64) (bool, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		return false, err
	}
	return !item.Favorite, s.SetFavorite(ctx, id, !item.Favorite)
}

func (s *Store) setFlag(ctx context.Context, id int64, column string, value bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE clothes SET `+column+` = ? WHERE id = ?`, boolToInt(value), id)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", column, err)
	}
	return expectOneRow(res, id)
}

// Delete removes an item. Outfits that referenced it keep a dangling id.
func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM clothes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	return expectOneRow(res, id)
}

// Forgotten returns items not worn in the last days (or never worn),
// excluding laundry, least worn first.
func (s *Store) Forgotten(ctx context.Context, days, limit int) ([]ClothingItem, error) {
	if limit <= 0 {
		limit = 10
	}
	cutoff := s.now().Add(-time.Duration(days) * 24 * time.Hour).UnixMilli()
	return s.query(ctx, `SELECT `+ItemColumns+` FROM clothes
		WHERE in_laundry = 0 AND (last_worn IS NULL OR last_worn < ?)
		ORDER BY times_worn ASC, COALESCE(last_worn, 0) ASC, id ASC
		LIMIT ?`, cutoff, limit)
}

// Stats summarizes the wardrobe.
type Stats struct {
	ByType       map[ClothingType]int `json:"by_type"`
	Total        int                  `json:"total"`
	InLaundry    int                  `json:"in_laundry"`
	Favorites    int                  `json:"favorites"`
	NeverWorn    int                  `json:"never_worn"`
	TotalOutfits int                  `json:"total_outfits"`
}

// Stats returns wardrobe counts.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	st := Stats{ByType: make(map[ClothingType]int)}

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(in_laundry), 0),
			COALESCE(SUM(favorite), 0),
			COALESCE(SUM(CASE WHEN times_worn = 0 THEN 1 ELSE 0 END), 0)
		FROM clothes
	`).Scan(&st.Total, &st.InLaundry, &st.Favorites, &st.NeverWorn)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to count items: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT clothing_type, COUNT(*) FROM clothes GROUP BY clothing_type`)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to count by type: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			t string
			n int
		)
		if err := rows.Scan(&t, &n); err != nil {
			return Stats{}, fmt.Errorf("failed to scan type count: %w", err)
		}
		st.ByType[ClothingType(t)] = n
	}
	if err := rows.Err(); err != nil {
		return Stats{}, err
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM outfits`).Scan(&st.TotalOutfits); err != nil {
		return Stats{}, fmt.Errorf("failed to count outfits: %w", err)
	}
	return st, nil
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]ClothingItem, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	var items []ClothingItem
	for rows.Next() {
		item, err := ScanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Scanner is satisfied by *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

// ScanItem reads one row selected with ItemColumns.
func ScanItem(sc Scanner) (ClothingItem, error) {
	var (
		item                    ClothingItem
		imageHash, primary, sec sql.NullString
		clothingType, pattern   string
		formality, seasonWeight string
		lastWorn                sql.NullInt64
		inLaundry, favorite     int
		createdAt               int64
	)
	err := sc.Scan(&item.ID, &item.ImagePath, &imageHash, &clothingType, &primary, &sec,
		&pattern, &formality, &seasonWeight, &item.TimesWorn, &lastWorn, &inLaundry, &favorite, &createdAt)
	if err != nil {
		return ClothingItem{}, err
	}

	item.ImageHash = imageHash.String
	item.Type = ClothingType(clothingType)
	item.ColorPrimary = primary.String
	item.ColorSecondary = sec.String
	item.Pattern = ParsePattern(pattern)
	item.Formality = ParseFormality(formality)
	item.SeasonWeight = ParseSeasonWeight(seasonWeight)
	if lastWorn.Valid {
		item.LastWorn = time.UnixMilli(lastWorn.Int64)
	}
	item.InLaundry = inLaundry != 0
	item.Favorite = favorite != 0
	item.CreatedAt = time.UnixMilli(createdAt)
	return item, nil
}

func expectOneRow(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: id %d", ErrItemNotFound, id)
	}
	return nil
}

func nullStr(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
