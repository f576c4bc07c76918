package postgres

import (
	"context"
	"database/sql"
	"time"

	"passguard/internal/models"
	"passguard/internal/repository"

	"github.com/google/uuid"
)

type sessionRepository struct {
	repository.BaseRepository
}

// NewSessionRepository creates a new PostgreSQL session repository
func NewSessionRepository(db *sql.DB) repository.SessionRepository {
	return &sessionRepository{
		BaseRepository: repository.NewBaseRepository(db),
	}
}

func (r *sessionRepository) Create(ctx context.Context, userID uuid.UUID) (*models.Session, error) {
	session := &models.Session{
		ID:     uuid.New(),
		UserID: userID,
	}

	query := `
		INSERT INTO sessions (id, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		RETURNING created_at, updated_at`

	err := r.DB().QueryRowContext(ctx, query, session.ID, session.UserID, time.Now()).
		Scan(&session.CreatedAt, &session.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (r *sessionRepository) Get(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	query := `
		SELECT id, user_id, last_checked, last_changed, change_required, expired,
		       created_at, updated_at
		FROM sessions
		WHERE id = $1`

	var session models.Session
	err := r.DB().QueryRowContext(ctx, query, id).Scan(
		&session.ID,
		&session.UserID,
		&session.LastChecked,
		&session.LastChanged,
		&session.ChangeRequired,
		&session.Expired,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, repository.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepository) SaveState(ctx context.Context, id uuid.UUID, lastChecked, lastChanged *time.Time, changeRequired, expired bool) error {
	query := `
		UPDATE sessions
		SET last_checked = $1,
			last_changed = $2,
			change_required = $3,
			expired = $4,
			updated_at = $5
		WHERE id = $6`

	result, err := r.DB().ExecContext(ctx, query,
		lastChecked, lastChanged, changeRequired, expired, time.Now(), id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.ErrSessionNotFound
	}
	return nil
}

func (r *sessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.DB().ExecContext(ctx, "DELETE FROM sessions WHERE id = $1", id)
	return err
}

func (r *sessionRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	_, err := r.DB().ExecContext(ctx, "DELETE FROM sessions WHERE user_id = $1", userID)
	return err
}

func (r *sessionRepository) DeleteExpired(ctx context.Context, updatedBefore time.Time) error {
	_, err := r.DB().ExecContext(ctx,
		"DELETE FROM sessions WHERE updated_at < $1", updatedBefore)
	return err
}
