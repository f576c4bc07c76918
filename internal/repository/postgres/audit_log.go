package postgres

import (
	"context"
	"database/sql"
	"time"

	"passguard/internal/models"
	"passguard/internal/repository"

	"github.com/google/uuid"
)

type auditLogRepository struct {
	repository.BaseRepository
}

// NewAuditLogRepository creates a new PostgreSQL audit log repository
func NewAuditLogRepository(db *sql.DB) repository.AuditLogRepository {
	return &auditLogRepository{
		BaseRepository: repository.NewBaseRepository(db),
	}
}

func (r *auditLogRepository) Create(ctx context.Context, entry *models.CreateAuditLogRequest) error {
	query := `
		INSERT INTO audit_logs (
			id, user_id, action, entity_type, entity_id,
			description, metadata, ip_address, user_agent, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		)`

	_, err := r.DB().ExecContext(ctx, query,
		uuid.New(),
		entry.UserID,
		entry.Action,
		entry.EntityType,
		entry.EntityID,
		entry.Description,
		entry.Metadata,
		entry.IPAddress,
		entry.UserAgent,
		time.Now(),
	)
	return err
}
