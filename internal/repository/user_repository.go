package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/crm-realtime/internal/domain"
)

// UserRepository defines the read-only user access this service needs. The
// CRM application owns user mutation.
type UserRepository interface {
	// GetActiveByID loads a user by id; pgx.ErrNoRows when absent.
	GetActiveByID(ctx context.Context, id string) (*domain.User, error)
	// ListActiveByRole returns active users holding role within the
	// organization, used to resolve escalation targets.
	ListActiveByRole(ctx context.Context, orgID string, role domain.UserRole) ([]domain.User, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) GetActiveByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `
        SELECT id, organization_id, name, email, role, active, created_at, updated_at
        FROM users WHERE id=$1`

	var user domain.User
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.OrganizationID,
		&user.Name,
		&user.Email,
		&user.Role,
		&user.Active,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) ListActiveByRole(ctx context.Context, orgID string, role domain.UserRole) ([]domain.User, error) {
	const query = `
        SELECT id, organization_id, name, email, role, active, created_at, updated_at
        FROM users WHERE organization_id=$1 AND role=$2 AND active=TRUE
        ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, orgID, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUsers(rows)
}

func scanUsers(rows pgx.Rows) ([]domain.User, error) {
	var result []domain.User
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(
			&user.ID,
			&user.OrganizationID,
			&user.Name,
			&user.Email,
			&user.Role,
			&user.Active,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, user)
	}
	return result, rows.Err()
}
