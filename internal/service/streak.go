package service

import (
	"context"
	"time"

	"kidcoins/internal/repository"
)

// StreakTracker counts consecutive calendar days of activity. A day is
// defined in a single fixed location.
type StreakTracker struct {
	core
	loc *time.Location
}

// NewStreakTracker creates a tracker for days in loc (UTC when nil)
func NewStreakTracker(opts Options, loc *time.Location) *StreakTracker {
	if loc == nil {
		loc = time.UTC
	}
	return &StreakTracker{core: newCore(opts), loc: loc}
}

// NextStreak returns the streak after activity at now and whether it changed
func NextStreak(current int, last *time.Time, now time.Time, loc *time.Location) (int, bool) {
	if last == nil {
		return 1, true
	}

	switch days := daysBetween(*last, now, loc); {
	case days <= 0:
		// Same day, or a last update in the future after a clock change
		if current < 1 {
			return 1, true
		}
		return current, false
	case days == 1:
		return current + 1, true
	default:
		return 1, true
	}
}

// daysBetween counts calendar-day boundaries from a to b in loc
func daysBetween(a, b time.Time, loc *time.Location) int {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	dayA := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	dayB := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(dayB.Sub(dayA).Hours() / 24)
}

// touch updates the streak inside the caller's transaction. The caller must
// already hold the user's lock.
func (t *StreakTracker) touch(ctx context.Context, st *repository.Store, userID int64, now time.Time) (int, error) {
	user, err := st.Users.GetUserByID(ctx, userID)
	if err != nil {
		return 0, err
	}
	if user == nil {
		return 0, nil
	}

	next, changed := NextStreak(user.CurrentStreak, user.LastStreakUpdate, now, t.loc)
	if !changed {
		return next, nil
	}
	if err := st.Users.UpdateStreak(ctx, userID, next, now); err != nil {
		return 0, err
	}
	return next, nil
}

// Touch records activity for userID now and returns the resulting streak
func (t *StreakTracker) Touch(ctx context.Context, userID int64) (int, error) {
	now := t.now()
	var streak int
	err := t.inTx(ctx, func(st *repository.Store) error {
		if err := lockUser(ctx, st, userID); err != nil {
			return err
		}
		var err error
		streak, err = t.touch(ctx, st, userID, now)
		return err
	})
	return streak, err
}
