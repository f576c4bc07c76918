package repository

import (
	"context"

	"passguard/internal/models"

	"github.com/google/uuid"
)

// RoleRepository defines the interface for role-related database operations
type RoleRepository interface {
	Repository
	GetByID(ctx context.Context, id uuid.UUID) (*models.Role, error)
	GetByName(ctx context.Context, name string) (*models.Role, error)
}
