package postgres

import (
	"context"
	"database/sql"
	"time"

	"passguard/internal/repository"

	"github.com/google/uuid"
)

type changeRequiredRepository struct {
	repository.BaseRepository
}

// NewPasswordChangeRequiredRepository creates a new PostgreSQL forced-change repository
func NewPasswordChangeRequiredRepository(db *sql.DB) repository.PasswordChangeRequiredRepository {
	return &changeRequiredRepository{
		BaseRepository: repository.NewBaseRepository(db),
	}
}

func (r *changeRequiredRepository) Exists(ctx context.Context, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.DB().QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM password_change_required WHERE user_id = $1)",
		userID,
	).Scan(&exists)
	return exists, err
}

func (r *changeRequiredRepository) Create(ctx context.Context, userID uuid.UUID) error {
	// Idempotent upsert: the unique constraint on user_id guarantees at
	// most one record per user even under concurrent checks.
	query := `
		INSERT INTO password_change_required (id, user_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO NOTHING`

	_, err := r.DB().ExecContext(ctx, query, uuid.New(), userID, time.Now())
	return err
}

func (r *changeRequiredRepository) Clear(ctx context.Context, userID uuid.UUID) error {
	_, err := r.DB().ExecContext(ctx,
		"DELETE FROM password_change_required WHERE user_id = $1",
		userID,
	)
	return err
}
