// Package expiry decides whether a user's password has aged out and must be
// changed. The decision is cached in per-session state so the password
// history is not consulted on every request.
package expiry

import (
	"context"
	"errors"
	"time"

	"passguard/internal/models"
	"passguard/internal/repository"

	"github.com/google/uuid"
)

// ErrNoCreationTime is returned when a user has no password history and no
// usable creation timestamp. The caller must treat this as a collaborator
// failure; silently assuming a fresh password would defeat expiry entirely.
var ErrNoCreationTime = errors.New("expiry: user has no password history and no creation time")

// State is the per-session expiry cache: four scalar fields, read from the
// session store at the start of a check and written back afterwards.
type State struct {
	LastChecked    *time.Time
	LastChanged    *time.Time
	ChangeRequired bool
	Expired        bool
}

// StateFromSession extracts the expiry fields from a session row.
func StateFromSession(s *models.Session) State {
	return State{
		LastChecked:    s.LastChecked,
		LastChanged:    s.LastChanged,
		ChangeRequired: s.ChangeRequired,
		Expired:        s.Expired,
	}
}

// JustChanged is the state stored right after a successful password change.
func JustChanged(now time.Time) State {
	n := now
	return State{LastChecked: &n, LastChanged: &n}
}

// Checker derives change-required decisions from password history, the
// forced-change flag and the configured maximum password age.
type Checker struct {
	history          repository.PasswordHistoryRepository
	forced           repository.PasswordChangeRequiredRepository
	duration         time.Duration
	checkOnlyAtLogin bool
}

// NewChecker creates an expiry checker.
func NewChecker(
	history repository.PasswordHistoryRepository,
	forced repository.PasswordChangeRequiredRepository,
	duration time.Duration,
	checkOnlyAtLogin bool,
) *Checker {
	return &Checker{
		history:          history,
		forced:           forced,
		duration:         duration,
		checkOnlyAtLogin: checkOnlyAtLogin,
	}
}

// Check runs the expiry state machine for one request and returns the
// updated state. The caller persists the state and acts on ChangeRequired.
func (c *Checker) Check(ctx context.Context, user *models.User, st State, now time.Time) (State, error) {
	cutoff := now.Add(-c.duration)

	if st.LastChecked == nil {
		checked := now
		st.LastChecked = &checked
	}

	// With check-only-at-login the only request allowed to derive state is
	// the one that stamped the check time. Every later request in the same
	// session reports change-required false; leaving the flag set would
	// redirect forever since no further check ever clears it.
	if c.checkOnlyAtLogin && !st.LastChecked.Equal(now) {
		st.ChangeRequired = false
		return st, nil
	}

	// A known forced change makes the history lookup unnecessary.
	forced, err := c.forced.Exists(ctx, user.ID)
	if err != nil {
		return st, err
	}
	if forced {
		st.ChangeRequired = true
		return st, nil
	}

	// The cached check time itself outlived the duration: drop everything
	// and re-derive from scratch.
	if st.LastChecked.Before(cutoff) {
		checked := now
		st = State{LastChecked: &checked}
	}

	if st.LastChanged == nil {
		lastChanged, err := c.lastChanged(ctx, user)
		if err != nil {
			return st, err
		}
		st.LastChanged = &lastChanged
	}

	if st.LastChanged.Before(cutoff) {
		st.ChangeRequired = true
		st.Expired = true
		if err := c.forced.Create(ctx, user.ID); err != nil {
			return st, err
		}
	} else {
		st.ChangeRequired = false
		st.Expired = false
	}

	return st, nil
}

// lastChanged is the newest history entry's timestamp, or the account
// creation time for users that never changed their password.
func (c *Checker) lastChanged(ctx context.Context, user *models.User) (time.Time, error) {
	newest, err := c.history.Newest(ctx, user.ID)
	if err != nil {
		return time.Time{}, err
	}
	if newest != nil {
		return newest.CreatedAt, nil
	}
	if user.CreatedAt.IsZero() {
		return time.Time{}, ErrNoCreationTime
	}
	return user.CreatedAt, nil
}

// Reset clears the forced-change flag and returns the just-changed session
// state. Called after a successful password change.
func (c *Checker) Reset(ctx context.Context, userID uuid.UUID, now time.Time) (State, error) {
	if err := c.forced.Clear(ctx, userID); err != nil {
		return State{}, err
	}
	return JustChanged(now), nil
}
