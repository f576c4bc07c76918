package postgres

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"time"

	"passguard/internal/models"
	"passguard/internal/repository"

	"github.com/google/uuid"
)

type passwordResetRepository struct {
	repository.BaseRepository
}

// NewPasswordResetRepository creates a new PostgreSQL password reset repository
func NewPasswordResetRepository(db *sql.DB) repository.PasswordResetRepository {
	return &passwordResetRepository{
		BaseRepository: repository.NewBaseRepository(db),
	}
}

func generateResetToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func (r *passwordResetRepository) Create(ctx context.Context, userID uuid.UUID) (*models.PasswordReset, error) {
	token, err := generateResetToken()
	if err != nil {
		return nil, err
	}

	reset := &models.PasswordReset{
		ID:        uuid.New(),
		UserID:    userID,
		Token:     token,
		ExpiresAt: time.Now().Add(repository.ResetTokenExpiration),
	}

	query := `
		INSERT INTO password_resets (id, user_id, token, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	err = r.DB().QueryRowContext(ctx, query,
		reset.ID, reset.UserID, reset.Token, reset.ExpiresAt, time.Now(),
	).Scan(&reset.CreatedAt)
	if err != nil {
		return nil, err
	}
	return reset, nil
}

func (r *passwordResetRepository) GetByToken(ctx context.Context, token string) (*models.PasswordReset, error) {
	query := `
		SELECT id, user_id, token, expires_at, used_at, created_at
		FROM password_resets
		WHERE token = $1`

	var reset models.PasswordReset
	err := r.DB().QueryRowContext(ctx, query, token).Scan(
		&reset.ID,
		&reset.UserID,
		&reset.Token,
		&reset.ExpiresAt,
		&reset.UsedAt,
		&reset.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, repository.ErrResetTokenInvalid
	}
	if err != nil {
		return nil, err
	}

	if reset.UsedAt != nil {
		return nil, repository.ErrResetTokenUsed
	}
	if time.Now().After(reset.ExpiresAt) {
		return nil, repository.ErrResetTokenExpired
	}
	return &reset, nil
}

func (r *passwordResetRepository) MarkAsUsed(ctx context.Context, id uuid.UUID) error {
	result, err := r.DB().ExecContext(ctx,
		"UPDATE password_resets SET used_at = $1 WHERE id = $2 AND used_at IS NULL",
		time.Now(), id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.ErrResetTokenUsed
	}
	return nil
}

func (r *passwordResetRepository) DeleteExpired(ctx context.Context) error {
	_, err := r.DB().ExecContext(ctx,
		"DELETE FROM password_resets WHERE expires_at < $1 OR used_at IS NOT NULL",
		time.Now())
	return err
}
