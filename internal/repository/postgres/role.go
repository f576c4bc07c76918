package postgres

import (
	"context"
	"database/sql"

	"passguard/internal/models"
	"passguard/internal/repository"

	"github.com/google/uuid"
)

type roleRepository struct {
	repository.BaseRepository
}

// NewRoleRepository creates a new PostgreSQL role repository
func NewRoleRepository(db *sql.DB) repository.RoleRepository {
	return &roleRepository{
		BaseRepository: repository.NewBaseRepository(db),
	}
}

const roleColumns = `id, name, is_admin_group, created_at, updated_at`

func scanRole(row *sql.Row) (*models.Role, error) {
	var role models.Role
	err := row.Scan(
		&role.ID,
		&role.Name,
		&role.IsAdminGroup,
		&role.CreatedAt,
		&role.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, repository.ErrRoleNotFound
	}
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Role, error) {
	query := `SELECT ` + roleColumns + ` FROM roles WHERE id = $1`
	return scanRole(r.DB().QueryRowContext(ctx, query, id))
}

func (r *roleRepository) GetByName(ctx context.Context, name string) (*models.Role, error) {
	query := `SELECT ` + roleColumns + ` FROM roles WHERE name = $1`
	return scanRole(r.DB().QueryRowContext(ctx, query, name))
}
