package repository

import (
	"context"
	"time"

	"passguard/internal/models"

	"github.com/google/uuid"
)

// ResetTokenExpiration is how long a password reset token stays valid.
const ResetTokenExpiration = time.Hour

// PasswordResetRepository defines the interface for password reset tokens
type PasswordResetRepository interface {
	Repository
	Create(ctx context.Context, userID uuid.UUID) (*models.PasswordReset, error)
	GetByToken(ctx context.Context, token string) (*models.PasswordReset, error)
	MarkAsUsed(ctx context.Context, id uuid.UUID) error
	// DeleteExpired removes used and expired tokens.
	DeleteExpired(ctx context.Context) error
}
