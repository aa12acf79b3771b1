package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrInvalidRating is returned for ratings outside 1..5.
var ErrInvalidRating = errors.New("rating must be between 1 and 5")

// Updater turns feedback events into preference adjustments.
// Wears are an implicit positive signal; ratings are signed.
type Updater struct {
	store *Store
}

// NewUpdater creates an updater writing through store.
func NewUpdater(store *Store) *Updater {
	return &Updater{store: store}
}

// RecordWear reinforces every preference pair of a worn outfit by WearStep
// in its own transaction.
func (u *Updater) RecordWear(ctx context.Context, o Outfit) error {
	return u.store.inTx(ctx, func(tx *sql.Tx) error { return u.RecordWearTx(ctx, tx, o) })
}

// RecordWearTx is RecordWear inside the caller's transaction.
func (u *Updater) RecordWearTx(ctx context.Context, tx *sql.Tx, o Outfit) error {
	return u.apply(ctx, tx, o, u.store.cfg.WearStep, "wear")
}

// RecordRating applies an explicit rating in its own transaction. Ratings
// of 4 or 5 raise every pair by RatingStep, 1 or 2 lower it, and 3 leaves
// the profile untouched.
func (u *Updater) RecordRating(ctx context.Context, o Outfit, rating int) error {
	return u.store.inTx(ctx, func(tx *sql.Tx) error { return u.RecordRatingTx(ctx, tx, o, rating) })
}

// RecordRatingTx is RecordRating inside the caller's transaction.
func (u *Updater) RecordRatingTx(ctx context.Context, tx *sql.Tx, o Outfit, rating int) error {
	delta, err := RatingDelta(rating, u.store.cfg.RatingStep)
	if err != nil {
		return err
	}
	if delta == 0 {
		return nil
	}
	return u.apply(ctx, tx, o, delta, "rating")
}

// RatingDelta maps a 1..5 rating onto a signed step.
func RatingDelta(rating int, step float64) (float64, error) {
	switch {
	case rating < 1 || rating > 5:
		return 0, fmt.Errorf("%w: got %d", ErrInvalidRating, rating)
	case rating >= 4:
		return step, nil
	case rating <= 2:
		return -step, nil
	}
	return 0, nil
}

func (u *Updater) apply(ctx context.Context, tx *sql.Tx, o Outfit, delta float64, signal string) error {
	keys := o.Keys()
	if err := u.store.AdjustTx(ctx, tx, keys, delta); err != nil {
		u.store.cfg.Logger.Warn("profile update failed", "signal", signal, "keys", len(keys), "error", err)
		return err
	}
	u.store.cfg.Logger.Debug("profile updated", "signal", signal, "keys", len(keys), "delta", delta)
	return nil
}
