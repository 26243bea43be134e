package postgres

import (
	"context"
	"errors"
	"fmt"

	"proofhire-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

type candidateRepository struct {
	db *pgxpool.Pool
}

func NewCandidateRepository(db *pgxpool.Pool) domain.CandidateRepository {
	return &candidateRepository{db: db}
}

const profileColumns = `
	cp.id, cp.user_id, u.name, u.email,
	cp.phone, cp.years_exp, cp.primary_cloud, cp.tools,
	cp.status, cp.proof_score, cp.created_at, cp.updated_at`

func scanProfile(row pgx.Row) (*domain.CandidateProfile, error) {
	var p domain.CandidateProfile
	var tools []string
	err := row.Scan(
		&p.ID, &p.UserID, &p.Name, &p.Email,
		&p.Phone, &p.YearsExp, &p.PrimaryCloud, pq.Array(&tools),
		&p.Status, &p.ProofScore, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if tools == nil {
		tools = []string{}
	}
	p.Tools = tools
	return &p, nil
}

func (r *candidateRepository) GetByID(ctx context.Context, id string) (*domain.CandidateProfile, error) {
	if uuid.Validate(id) != nil {
		return nil, notFound("candidate", id)
	}
	query := `SELECT` + profileColumns + `
		FROM candidate_profiles cp
		JOIN users u ON u.id = cp.user_id
		WHERE cp.id = $1`
	p, err := scanProfile(r.db.QueryRow(ctx, query, id))
	if isMissingRow(err) {
		return nil, notFound("candidate", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get candidate: %w", err)
	}
	return p, nil
}

func (r *candidateRepository) GetByUserID(ctx context.Context, userID string) (*domain.CandidateProfile, error) {
	query := `SELECT` + profileColumns + `
		FROM candidate_profiles cp
		JOIN users u ON u.id = cp.user_id
		WHERE cp.user_id = $1`
	p, err := scanProfile(r.db.QueryRow(ctx, query, userID))
	if isMissingRow(err) {
		return nil, notFound("candidate for user", userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get candidate: %w", err)
	}
	return p, nil
}

// Ensure relies on UNIQUE(user_id) so concurrent first requests create one row.
func (r *candidateRepository) Ensure(ctx context.Context, userID string) (*domain.CandidateProfile, error) {
	p, err := r.GetByUserID(ctx, userID)
	if err == nil || !errors.Is(err, domain.ErrNotFound) {
		return p, err
	}
	_, err = r.db.Exec(ctx,
		`INSERT INTO candidate_profiles (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to create candidate profile: %w", err)
	}
	return r.GetByUserID(ctx, userID)
}

// UpdateProfile writes the user's name and the profile fields, and moves the
// status only if it still equals ExpectedStatus. Empty strings clear optional fields.
func (r *candidateRepository) UpdateProfile(ctx context.Context, c domain.ProfileChanges) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if c.Name != nil {
		if _, err := tx.Exec(ctx, `UPDATE users SET name = $2, updated_at = NOW() WHERE id = $1`, c.UserID, *c.Name); err != nil {
			return fmt.Errorf("failed to update user name: %w", err)
		}
	}

	var tools any
	if c.Tools != nil {
		tools = pq.Array(c.Tools)
	}
	query := `
		UPDATE candidate_profiles SET
			phone         = CASE WHEN $2::text IS NULL THEN phone ELSE NULLIF($2::text, '') END,
			years_exp     = COALESCE($3::int, years_exp),
			primary_cloud = CASE WHEN $4::text IS NULL THEN primary_cloud ELSE NULLIF($4::text, '') END,
			tools         = COALESCE($5::text[], tools),
			status        = $6,
			updated_at    = NOW()
		WHERE id = $1 AND status = $7`
	tag, err := tx.Exec(ctx, query,
		c.CandidateID, c.Phone, c.YearsExp, c.PrimaryCloud, tools, c.NextStatus, c.ExpectedStatus)
	if err != nil {
		return fmt.Errorf("failed to update candidate profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return resolveStatusMiss(ctx, tx, c.CandidateID, c.ExpectedStatus)
	}
	return tx.Commit(ctx)
}

func (r *candidateRepository) CompareAndSetStatus(ctx context.Context, id string, from, to domain.Status) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE candidate_profiles SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2`,
		id, from, to)
	if isMissingRow(err) {
		return notFound("candidate", id)
	}
	if err != nil {
		return fmt.Errorf("failed to update candidate status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return resolveStatusMiss(ctx, r.db, id, from)
	}
	return nil
}

// GetEvidence reads the three evidence channels in one statement.
func (r *candidateRepository) GetEvidence(ctx context.Context, id string) (domain.Evidence, error) {
	query := `
		SELECT
			EXISTS (SELECT 1 FROM resumes WHERE candidate_id = cp.id AND NOT archived),
			EXISTS (SELECT 1 FROM portfolios
			        WHERE candidate_id = cp.id
			          AND (COALESCE(kaggle_url, '') <> '' OR COALESCE(blog_url, '') <> '' OR COALESCE(site_url, '') <> '')),
			EXISTS (SELECT 1 FROM referees WHERE candidate_id = cp.id AND verified_at IS NOT NULL)
		FROM candidate_profiles cp
		WHERE cp.id = $1`
	var e domain.Evidence
	err := r.db.QueryRow(ctx, query, id).Scan(&e.HasActiveResume, &e.HasPortfolioLink, &e.HasVerifiedReferee)
	if isMissingRow(err) {
		return e, notFound("candidate", id)
	}
	if err != nil {
		return e, fmt.Errorf("failed to read evidence: %w", err)
	}
	return e, nil
}

func (r *candidateRepository) UpdateProofScore(ctx context.Context, id string, score int) error {
	query := `
		UPDATE candidate_profiles
		SET proof_score = $2,
		    updated_at = CASE WHEN proof_score <> $2 THEN NOW() ELSE updated_at END
		WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, id, score)
	if err != nil {
		return fmt.Errorf("failed to update proof score: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound("candidate", id)
	}
	return nil
}

func (r *candidateRepository) ListQueue(ctx context.Context, filter domain.QueueFilter) ([]domain.QueueItem, int64, error) {
	statuses := make([]string, len(filter.Statuses))
	for i, s := range filter.Statuses {
		statuses[i] = string(s)
	}

	var total int64
	if err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM candidate_profiles WHERE status = ANY($1::text[])`, pq.Array(statuses),
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count queue: %w", err)
	}

	query := `
		SELECT
			cp.id, u.name, u.email, cp.status, cp.proof_score,
			EXISTS (SELECT 1 FROM referees rf WHERE rf.candidate_id = cp.id AND rf.verified_at IS NOT NULL),
			EXISTS (SELECT 1 FROM portfolios pf
			        WHERE pf.candidate_id = cp.id
			          AND (COALESCE(pf.kaggle_url, '') <> '' OR COALESCE(pf.blog_url, '') <> '' OR COALESCE(pf.site_url, '') <> '')),
			latest.storage_key,
			cp.updated_at
		FROM candidate_profiles cp
		JOIN users u ON u.id = cp.user_id
		LEFT JOIN LATERAL (
			SELECT storage_key FROM resumes
			WHERE candidate_id = cp.id AND NOT archived
			ORDER BY uploaded_at DESC
			LIMIT 1
		) latest ON TRUE
		WHERE cp.status = ANY($1::text[])
		ORDER BY cp.updated_at DESC, cp.id
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, pq.Array(statuses), filter.Limit, (filter.Page-1)*filter.Limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list queue: %w", err)
	}
	defer rows.Close()

	items := []domain.QueueItem{}
	for rows.Next() {
		var it domain.QueueItem
		if err := rows.Scan(
			&it.CandidateID, &it.Name, &it.Email, &it.Status, &it.ProofScore,
			&it.RefereeVerified, &it.HasPortfolio, &it.LatestResumeKey, &it.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan queue item: %w", err)
		}
		it.Flagged = domain.IsFlagged(it.ProofScore)
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate queue: %w", err)
	}
	return items, total, nil
}
