package postgres

import (
	"context"
	"fmt"

	"proofhire-backend/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type reviewRepo struct {
	db *pgxpool.Pool
}

func NewReviewRepository(db *pgxpool.Pool) domain.ReviewRepository {
	return &reviewRepo{db: db}
}

// ApplyTransition commits the status change and its note together or not at all.
func (r *reviewRepo) ApplyTransition(ctx context.Context, t domain.Transition) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE candidate_profiles SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2`,
		t.CandidateID, t.From, t.To)
	if isMissingRow(err) {
		return notFound("candidate", t.CandidateID)
	}
	if err != nil {
		return fmt.Errorf("failed to update candidate status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return resolveStatusMiss(ctx, tx, t.CandidateID, t.From)
	}

	if n := t.Note; n != nil {
		_, err := tx.Exec(ctx, `
			INSERT INTO review_notes (id, candidate_id, reviewer_id, kind, message, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			n.ID, t.CandidateID, n.ReviewerID, n.Kind, n.Message, n.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to append review note: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transition: %w", err)
	}
	return nil
}

// ListNotes returns the audit trail newest first.
func (r *reviewRepo) ListNotes(ctx context.Context, candidateID string) ([]domain.ReviewNote, error) {
	rows, err := r.db.Query(ctx, `
		SELECT n.id, n.candidate_id, n.reviewer_id, COALESCE(NULLIF(u.name, ''), u.email, ''),
		       n.kind, n.message, n.created_at
		FROM review_notes n
		LEFT JOIN users u ON u.id = n.reviewer_id
		WHERE n.candidate_id = $1
		ORDER BY n.created_at DESC, n.id DESC`, candidateID)
	if err != nil {
		return nil, fmt.Errorf("failed to list review notes: %w", err)
	}
	defer rows.Close()

	notes := []domain.ReviewNote{}
	for rows.Next() {
		var n domain.ReviewNote
		if err := rows.Scan(&n.ID, &n.CandidateID, &n.ReviewerID, &n.ReviewerName, &n.Kind, &n.Message, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan review note: %w", err)
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}
