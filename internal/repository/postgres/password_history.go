package postgres

import (
	"context"
	"database/sql"
	"time"

	"passguard/internal/models"
	"passguard/internal/repository"

	"github.com/google/uuid"
)

type passwordHistoryRepository struct {
	repository.BaseRepository
}

// NewPasswordHistoryRepository creates a new PostgreSQL password history repository
func NewPasswordHistoryRepository(db *sql.DB) repository.PasswordHistoryRepository {
	return &passwordHistoryRepository{
		BaseRepository: repository.NewBaseRepository(db),
	}
}

func (r *passwordHistoryRepository) Add(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	query := `
		INSERT INTO password_history (
			id, user_id, password_hash, created_at
		) VALUES (
			$1, $2, $3, $4
		)`

	_, err := r.DB().ExecContext(ctx, query,
		uuid.New(),
		userID,
		passwordHash,
		time.Now(),
	)

	return err
}

func (r *passwordHistoryRepository) Newest(ctx context.Context, userID uuid.UUID) (*models.PasswordHistory, error) {
	query := `
		SELECT id, user_id, password_hash, created_at
		FROM password_history
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 1`

	var entry models.PasswordHistory
	err := r.DB().QueryRowContext(ctx, query, userID).Scan(
		&entry.ID,
		&entry.UserID,
		&entry.PasswordHash,
		&entry.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *passwordHistoryRepository) Recent(ctx context.Context, userID uuid.UUID, limit int) ([]models.PasswordHistory, error) {
	query := `
		SELECT id, user_id, password_hash, created_at
		FROM password_history
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.DB().QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.PasswordHistory
	for rows.Next() {
		var entry models.PasswordHistory
		if err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.PasswordHash,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

func (r *passwordHistoryRepository) DeleteExpired(ctx context.Context, userID uuid.UUID, keepCount, offset int) error {
	// Keep the keepCount+offset newest entries, drop the rest
	query := `
		DELETE FROM password_history
		WHERE user_id = $1
		AND id NOT IN (
			SELECT id FROM password_history
			WHERE user_id = $1
			ORDER BY created_at DESC
			LIMIT $2
		)`

	_, err := r.DB().ExecContext(ctx, query, userID, keepCount+offset)
	return err
}
