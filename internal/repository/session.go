package repository

import (
	"context"
	"time"

	"passguard/internal/models"

	"github.com/google/uuid"
)

// SessionRepository stores server-side sessions and their cached password
// expiry state. The four state fields are always written back together.
type SessionRepository interface {
	Repository
	Create(ctx context.Context, userID uuid.UUID) (*models.Session, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Session, error)
	// SaveState persists the four expiry fields of the session.
	SaveState(ctx context.Context, id uuid.UUID, lastChecked, lastChanged *time.Time, changeRequired, expired bool) error
	Delete(ctx context.Context, id uuid.UUID) error
	// DeleteByUserID removes every session of a user. Called after a
	// password change so no session keeps stale cached state.
	DeleteByUserID(ctx context.Context, userID uuid.UUID) error
	// DeleteExpired removes sessions not updated since the cutoff.
	DeleteExpired(ctx context.Context, updatedBefore time.Time) error
}
