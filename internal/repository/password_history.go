package repository

import (
	"context"

	"passguard/internal/models"

	"github.com/google/uuid"
)

// PasswordHistoryRepository defines the interface for password history
// operations. Entries are ordered newest first.
type PasswordHistoryRepository interface {
	Repository
	// Add records a new history entry for the user.
	Add(ctx context.Context, userID uuid.UUID, passwordHash string) error
	// Newest returns the most recent entry, or nil when the user has no
	// history at all.
	Newest(ctx context.Context, userID uuid.UUID) (*models.PasswordHistory, error)
	// Recent returns up to limit entries, newest first.
	Recent(ctx context.Context, userID uuid.UUID, limit int) ([]models.PasswordHistory, error)
	// DeleteExpired removes all but the keepCount+offset newest entries.
	DeleteExpired(ctx context.Context, userID uuid.UUID, keepCount, offset int) error
}
