// Package feedback stores explicit outfit ratings and feeds them to the
// style profile.
package feedback

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/runger/wardrobe/internal/outfits/history"
	"github.com/runger/wardrobe/internal/outfits/profile"
)

var (
	// ErrInvalidRating is returned for ratings outside 1..5.
	ErrInvalidRating = profile.ErrInvalidRating

	// ErrOutfitNotFound is returned when the rated outfit does not exist.
	ErrOutfitNotFound = history.ErrOutfitNotFound
)

// QuickTags are canned feedback strings offered next to a rating.
var QuickTags = []string{
	"Perfect fit!",
	"Great colors",
	"Very comfortable",
	"Got compliments!",
	"Too formal",
	"Too casual",
	"Colors clashed",
	"Too warm",
	"Too cold",
	"Didn't feel right",
}

// OutfitSource resolves a logged outfit.
type OutfitSource interface {
	Get(ctx context.Context, id int64) (history.Entry, error)
}

// RatingRecorder receives the explicit signal of a rating inside the
// rating's transaction.
type RatingRecorder interface {
	RecordRatingTx(ctx context.Context, tx *sql.Tx, o profile.Outfit, rating int) error
}

// Config configures the store.
type Config struct {
	// Logger for diagnostic output (optional).
	Logger *slog.Logger

	// Now overrides the clock (optional).
	Now func() time.Time
}

// Store writes and summarizes ratings.
type Store struct {
	db       *sql.DB
	outfits  OutfitSource
	recorder RatingRecorder
	logger   *slog.Logger
	now      func() time.Time
}

// NewStore creates a rating store. recorder may be nil.
func NewStore(db *sql.DB, outfits OutfitSource, recorder RatingRecorder, cfg Config) *Store {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Store{db: db, outfits: outfits, recorder: recorder, logger: cfg.Logger, now: cfg.Now}
}

// Rate stores a rating for a logged outfit and returns the rating id.
// An outfit may be rated any number of times; every rating is a new signal.
// The rating row and the profile update commit together or not at all.
func (s *Store) Rate(ctx context.Context, outfitID int64, rating int, text string) (int64, error) {
	if rating < 1 || rating > 5 {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidRating, rating)
	}
	entry, err := s.outfits.Get(ctx, outfitID)
	if err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Best effort rollback on error

	res, err := tx.ExecContext(ctx, `
		INSERT INTO outfit_ratings (outfit_id, rating, feedback, created_at)
		VALUES (?, ?, ?, ?)
	`, outfitID, rating, nullText(text), s.now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to insert rating: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read rating id: %w", err)
	}

	if s.recorder != nil {
		if err := s.recorder.RecordRatingTx(ctx, tx, entry.Outfit(), rating); err != nil {
			return 0, fmt.Errorf("failed to update style profile: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit rating: %w", err)
	}
	s.logger.Info("outfit rated", "outfit_id", outfitID, "rating", rating)
	return id, nil
}

// Rating is one stored rating.
type Rating struct {
	CreatedAt time.Time `json:"created_at"`
	Feedback  string    `json:"feedback,omitempty"`
	ID        int64     `json:"id"`
	OutfitID  int64     `json:"outfit_id"`
	Rating    int       `json:"rating"`
}

// ForOutfit returns the ratings of one outfit, oldest first.
func (s *Store) ForOutfit(ctx context.Context, outfitID int64) ([]Rating, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, outfit_id, rating, feedback, created_at
		FROM outfit_ratings WHERE outfit_id = ?
		ORDER BY created_at, id
	`, outfitID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ratings: %w", err)
	}
	defer rows.Close()

	var out []Rating
	for rows.Next() {
		var (
			r       Rating
			text    sql.NullString
			created int64
		)
		if err := rows.Scan(&r.ID, &r.OutfitID, &r.Rating, &text, &created); err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		r.Feedback = text.String
		r.CreatedAt = time.UnixMilli(created)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Stats summarizes all ratings.
type Stats struct {
	Distribution map[int]int `json:"distribution"`
	Total        int         `json:"total"`
	Average      float64     `json:"average"`
}

// Stats returns the rating count, the average rounded to one decimal and
// the count per star value.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	st := Stats{Distribution: make(map[int]int)}
	rows, err := s.db.QueryContext(ctx, `SELECT rating, COUNT(*) FROM outfit_ratings GROUP BY rating`)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to query rating stats: %w", err)
	}
	defer rows.Close()

	sum := 0
	for rows.Next() {
		var rating, n int
		if err := rows.Scan(&rating, &n); err != nil {
			return Stats{}, fmt.Errorf("failed to scan rating stats: %w", err)
		}
		st.Distribution[rating] = n
		st.Total += n
		sum += rating * n
	}
	if err := rows.Err(); err != nil {
		return Stats{}, err
	}
	if st.Total > 0 {
		st.Average = math.Round(float64(sum)/float64(st.Total)*10) / 10
	}
	return st, nil
}

func nullText(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}
