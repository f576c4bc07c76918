package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"passguard/internal/models"
	"passguard/internal/repository"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type userRepository struct {
	repository.BaseRepository
}

// NewUserRepository creates a new PostgreSQL user repository
func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &userRepository{
		BaseRepository: repository.NewBaseRepository(db),
	}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (
			id, username, password, email, role_id,
			failed_login_attempts, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $7
		)
		RETURNING created_at, updated_at`

	now := time.Now()
	user.ID = uuid.New()

	err := r.DB().QueryRowContext(ctx, query,
		user.ID,
		user.Username,
		user.Password,
		user.Email,
		user.RoleID,
		user.FailedLoginAttempts,
		now,
	).Scan(&user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			if strings.Contains(pqErr.Constraint, "email") {
				return repository.ErrEmailExists
			}
			return repository.ErrUsernameExists
		}
		return err
	}
	return nil
}

const userColumns = `
	id, username, password, email, role_id, last_login_at,
	failed_login_attempts, deleted_at, created_at, updated_at`

func (r *userRepository) scanUser(row *sql.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Password,
		&user.Email,
		&user.RoleID,
		&user.LastLoginAt,
		&user.FailedLoginAttempts,
		&user.DeletedAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, repository.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1 AND deleted_at IS NULL`, userColumns)
	return r.scanUser(r.DB().QueryRowContext(ctx, query, id))
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE username = $1 AND deleted_at IS NULL`, userColumns)
	return r.scanUser(r.DB().QueryRowContext(ctx, query, username))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE email = $1 AND deleted_at IS NULL`, userColumns)
	return r.scanUser(r.DB().QueryRowContext(ctx, query, email))
}

func (r *userRepository) List(ctx context.Context, filter repository.UserFilter) ([]models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE deleted_at IS NULL`, userColumns)
	args := []interface{}{}

	if filter.Search != nil {
		args = append(args, "%"+*filter.Search+"%")
		query += fmt.Sprintf(" AND (username ILIKE $%d OR email ILIKE $%d)", len(args), len(args))
	}
	if filter.RoleID != nil {
		args = append(args, *filter.RoleID)
		query += fmt.Sprintf(" AND role_id = $%d", len(args))
	}

	orderBy := "username"
	switch filter.OrderBy {
	case "username", "created_at", "last_login_at":
		orderBy = filter.OrderBy
	}
	query += " ORDER BY " + orderBy
	if filter.OrderDesc {
		query += " DESC"
	}

	if filter.Limit != nil {
		args = append(args, *filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset != nil {
		args = append(args, *filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		if err := rows.Scan(
			&user.ID,
			&user.Username,
			&user.Password,
			&user.Email,
			&user.RoleID,
			&user.LastLoginAt,
			&user.FailedLoginAttempts,
			&user.DeletedAt,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

func (r *userRepository) UpdatePassword(ctx context.Context, id uuid.UUID, hashedPassword string) error {
	query := `
		UPDATE users
		SET password = $1, updated_at = $2
		WHERE id = $3 AND deleted_at IS NULL`

	result, err := r.DB().ExecContext(ctx, query, hashedPassword, time.Now(), id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.ErrUserNotFound
	}
	return nil
}

func (r *userRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID, lastLoginAt time.Time) error {
	query := `UPDATE users SET last_login_at = $1, updated_at = $1 WHERE id = $2`
	_, err := r.DB().ExecContext(ctx, query, lastLoginAt, id)
	return err
}

func (r *userRepository) IncrementFailedAttempts(ctx context.Context, username string) error {
	query := `
		UPDATE users
		SET failed_login_attempts = failed_login_attempts + 1, updated_at = $1
		WHERE username = $2`
	_, err := r.DB().ExecContext(ctx, query, time.Now(), username)
	return err
}

func (r *userRepository) ResetFailedAttempts(ctx context.Context, username string) error {
	query := `
		UPDATE users
		SET failed_login_attempts = 0, updated_at = $1
		WHERE username = $2`
	_, err := r.DB().ExecContext(ctx, query, time.Now(), username)
	return err
}
