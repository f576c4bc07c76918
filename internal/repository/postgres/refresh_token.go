package postgres

import (
	"context"
	"database/sql"
	"time"

	"passguard/internal/repository"

	"github.com/google/uuid"
)

type refreshTokenRepository struct {
	repository.BaseRepository
}

// NewRefreshTokenRepository creates a new PostgreSQL refresh token repository
func NewRefreshTokenRepository(db *sql.DB) repository.RefreshTokenRepository {
	return &refreshTokenRepository{
		BaseRepository: repository.NewBaseRepository(db),
	}
}

func (r *refreshTokenRepository) Create(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	query := `
		INSERT INTO refresh_tokens (id, user_id, token, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.DB().ExecContext(ctx, query,
		uuid.New(), userID, token, expiresAt, time.Now())
	return err
}

func (r *refreshTokenRepository) GetByToken(ctx context.Context, token string) (*repository.RefreshToken, error) {
	query := `
		SELECT id, user_id, token, expires_at, created_at
		FROM refresh_tokens
		WHERE token = $1`

	var rt repository.RefreshToken
	err := r.DB().QueryRowContext(ctx, query, token).Scan(
		&rt.ID, &rt.UserID, &rt.Token, &rt.ExpiresAt, &rt.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, repository.ErrTokenNotFound
	}
	if err != nil {
		return nil, err
	}

	if time.Now().After(rt.ExpiresAt) {
		return nil, repository.ErrTokenExpired
	}
	return &rt, nil
}

func (r *refreshTokenRepository) DeleteByToken(ctx context.Context, token string) error {
	_, err := r.DB().ExecContext(ctx,
		"DELETE FROM refresh_tokens WHERE token = $1", token)
	return err
}

func (r *refreshTokenRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	_, err := r.DB().ExecContext(ctx,
		"DELETE FROM refresh_tokens WHERE user_id = $1", userID)
	return err
}
