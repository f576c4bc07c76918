package repository

import (
	"context"

	"github.com/google/uuid"
)

// PasswordChangeRequiredRepository tracks the expiry-independent forced
// change flag. The invariant of at most one row per user is enforced by the
// store itself: Create is an idempotent upsert, not a read-then-write.
type PasswordChangeRequiredRepository interface {
	Repository
	Exists(ctx context.Context, userID uuid.UUID) (bool, error)
	Create(ctx context.Context, userID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
}
