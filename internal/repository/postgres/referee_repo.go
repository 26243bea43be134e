package postgres

import (
	"context"
	"fmt"
	"time"

	"proofhire-backend/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type refereeRepo struct {
	db *pgxpool.Pool
}

func NewRefereeRepository(db *pgxpool.Pool) domain.RefereeRepository {
	return &refereeRepo{db: db}
}

const refereeColumns = `id, candidate_id, email, token_hash, requested_at, expires_at, verified_at`

func (r *refereeRepo) get(ctx context.Context, where string, arg string) (*domain.Referee, error) {
	var ref domain.Referee
	err := r.db.QueryRow(ctx, `SELECT `+refereeColumns+` FROM referees WHERE `+where+` = $1`, arg).Scan(
		&ref.ID, &ref.CandidateID, &ref.Email, &ref.TokenHash, &ref.RequestedAt, &ref.ExpiresAt, &ref.VerifiedAt,
	)
	if isMissingRow(err) {
		return nil, notFound("referee", where)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get referee: %w", err)
	}
	return &ref, nil
}

func (r *refereeRepo) GetByCandidateID(ctx context.Context, candidateID string) (*domain.Referee, error) {
	return r.get(ctx, "candidate_id", candidateID)
}

func (r *refereeRepo) GetByTokenHash(ctx context.Context, tokenHash string) (*domain.Referee, error) {
	return r.get(ctx, "token_hash", tokenHash)
}

// Upsert keeps the row id of an earlier invitation and resets verification.
func (r *refereeRepo) Upsert(ctx context.Context, ref *domain.Referee) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO referees (id, candidate_id, email, token_hash, requested_at, expires_at, verified_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULL)
		ON CONFLICT (candidate_id) DO UPDATE SET
			email        = EXCLUDED.email,
			token_hash   = EXCLUDED.token_hash,
			requested_at = EXCLUDED.requested_at,
			expires_at   = EXCLUDED.expires_at,
			verified_at  = NULL
		RETURNING id`,
		ref.ID, ref.CandidateID, ref.Email, ref.TokenHash, ref.RequestedAt, ref.ExpiresAt,
	).Scan(&ref.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert referee: %w", err)
	}
	ref.VerifiedAt = nil
	return nil
}

func (r *refereeRepo) MarkVerified(ctx context.Context, id string, at time.Time) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE referees SET verified_at = $2 WHERE id = $1 AND verified_at IS NULL`, id, at)
	if err != nil {
		return fmt.Errorf("failed to verify referee: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound("unverified referee", id)
	}
	return nil
}
