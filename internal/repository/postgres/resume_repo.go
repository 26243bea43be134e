package postgres

import (
	"context"
	"fmt"

	"proofhire-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type resumeRepo struct {
	db *pgxpool.Pool
}

func NewResumeRepository(db *pgxpool.Pool) domain.ResumeRepository {
	return &resumeRepo{db: db}
}

const resumeColumns = `id, candidate_id, storage_key, mime_type, size_bytes, archived,
	scan_status, threat_name, uploaded_at, archived_at`

func scanResume(row pgx.Row) (domain.Resume, error) {
	var res domain.Resume
	err := row.Scan(
		&res.ID, &res.CandidateID, &res.StorageKey, &res.MimeType, &res.SizeBytes, &res.Archived,
		&res.ScanStatus, &res.ThreatName, &res.UploadedAt, &res.ArchivedAt,
	)
	return res, err
}

func (r *resumeRepo) Create(ctx context.Context, resume *domain.Resume) error {
	query := `
		INSERT INTO resumes (id, candidate_id, storage_key, mime_type, size_bytes, archived, scan_status, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, $6, $7)`
	_, err := r.db.Exec(ctx, query,
		resume.ID, resume.CandidateID, resume.StorageKey, resume.MimeType, resume.SizeBytes,
		resume.ScanStatus, resume.UploadedAt)
	if err != nil {
		return fmt.Errorf("failed to create resume: %w", err)
	}
	return nil
}

func (r *resumeRepo) GetByID(ctx context.Context, id string) (*domain.Resume, error) {
	if uuid.Validate(id) != nil {
		return nil, notFound("resume", id)
	}
	res, err := scanResume(r.db.QueryRow(ctx, `SELECT `+resumeColumns+` FROM resumes WHERE id = $1`, id))
	if isMissingRow(err) {
		return nil, notFound("resume", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get resume: %w", err)
	}
	return &res, nil
}

func (r *resumeRepo) ListActive(ctx context.Context, candidateID string) ([]domain.Resume, error) {
	return r.list(ctx, `SELECT `+resumeColumns+` FROM resumes
		WHERE candidate_id = $1 AND NOT archived
		ORDER BY uploaded_at DESC, id DESC`, candidateID)
}

// ListByCandidate returns every version, newest first.
func (r *resumeRepo) ListByCandidate(ctx context.Context, candidateID string) ([]domain.Resume, error) {
	return r.list(ctx, `SELECT `+resumeColumns+` FROM resumes
		WHERE candidate_id = $1
		ORDER BY uploaded_at DESC, id DESC`, candidateID)
}

func (r *resumeRepo) list(ctx context.Context, query string, args ...any) ([]domain.Resume, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list resumes: %w", err)
	}
	defer rows.Close()

	resumes := []domain.Resume{}
	for rows.Next() {
		res, err := scanResume(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan resume: %w", err)
		}
		resumes = append(resumes, res)
	}
	return resumes, rows.Err()
}

func (r *resumeRepo) MarkArchived(ctx context.Context, id, archivedKey string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE resumes
		SET archived = TRUE, storage_key = $2, archived_at = COALESCE(archived_at, NOW())
		WHERE id = $1`, id, archivedKey)
	if isMissingRow(err) {
		return notFound("resume", id)
	}
	if err != nil {
		return fmt.Errorf("failed to archive resume: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound("resume", id)
	}
	return nil
}

func (r *resumeRepo) UpdateScanStatus(ctx context.Context, id string, status domain.ScanStatus, threat *string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE resumes SET scan_status = $2, threat_name = $3 WHERE id = $1`, id, status, threat)
	if err != nil {
		return fmt.Errorf("failed to update scan status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound("resume", id)
	}
	return nil
}
