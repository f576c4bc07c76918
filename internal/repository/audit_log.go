package repository

import (
	"context"

	"passguard/internal/models"
)

// AuditLogRepository defines the interface for audit log operations
type AuditLogRepository interface {
	Repository
	Create(ctx context.Context, log *models.CreateAuditLogRequest) error
}
