package postgres

import (
	"context"
	"errors"
	"fmt"

	"proofhire-backend/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type userRepo struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) domain.UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT id, email, name, role, created_at, updated_at FROM users WHERE id = $1`
	var user domain.User
	err := r.db.QueryRow(ctx, query, id).Scan(
		&user.ID, &user.Email, &user.Name, &user.Role, &user.CreatedAt, &user.UpdatedAt,
	)
	if isMissingRow(err) {
		return nil, notFound("user", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// EnsureExists reads first so the common path is a single indexed lookup.
// A missing email is backfilled once the identity provider supplies one.
func (r *userRepo) EnsureExists(ctx context.Context, user *domain.User) (*domain.User, error) {
	existing, err := r.GetByID(ctx, user.ID)
	if err == nil && (existing.Email != "" || user.Email == "") {
		return existing, nil
	}
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	query := `
		INSERT INTO users (id, email, role, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE
			SET email = CASE WHEN users.email = '' THEN EXCLUDED.email ELSE users.email END,
			    updated_at = CASE WHEN users.email = '' THEN NOW() ELSE users.updated_at END
		RETURNING id, email, name, role, created_at, updated_at`
	var stored domain.User
	err = r.db.QueryRow(ctx, query, user.ID, user.Email, domain.RoleUser).Scan(
		&stored.ID, &stored.Email, &stored.Name, &stored.Role, &stored.CreatedAt, &stored.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to provision user: %w", err)
	}
	return &stored, nil
}
