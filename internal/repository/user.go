package repository

import (
	"context"
	"time"

	"passguard/internal/models"

	"github.com/google/uuid"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Repository
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, filter UserFilter) ([]models.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, hashedPassword string) error
	UpdateLastLogin(ctx context.Context, id uuid.UUID, lastLoginAt time.Time) error
	IncrementFailedAttempts(ctx context.Context, username string) error
	ResetFailedAttempts(ctx context.Context, username string) error
}

// UserFilter defines the filter options for listing users
type UserFilter struct {
	Search    *string // Search by username or email
	RoleID    *uuid.UUID
	OrderBy   string // Field to order by
	OrderDesc bool   // Order descending
	Limit     *int   // Limit results
	Offset    *int   // Offset results
}
