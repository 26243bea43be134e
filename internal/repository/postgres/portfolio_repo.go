package postgres

import (
	"context"
	"fmt"

	"proofhire-backend/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type portfolioRepo struct {
	db *pgxpool.Pool
}

func NewPortfolioRepository(db *pgxpool.Pool) domain.PortfolioRepository {
	return &portfolioRepo{db: db}
}

func (r *portfolioRepo) GetByCandidateID(ctx context.Context, candidateID string) (*domain.Portfolio, error) {
	var p domain.Portfolio
	err := r.db.QueryRow(ctx, `
		SELECT candidate_id, kaggle_url, blog_url, site_url, updated_at
		FROM portfolios WHERE candidate_id = $1`, candidateID,
	).Scan(&p.CandidateID, &p.KaggleURL, &p.BlogURL, &p.SiteURL, &p.UpdatedAt)
	if isMissingRow(err) {
		return nil, notFound("portfolio", candidateID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get portfolio: %w", err)
	}
	return &p, nil
}

// Upsert replaces all three links; a nil link clears the stored one.
func (r *portfolioRepo) Upsert(ctx context.Context, p *domain.Portfolio) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO portfolios (candidate_id, kaggle_url, blog_url, site_url, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (candidate_id) DO UPDATE SET
			kaggle_url = EXCLUDED.kaggle_url,
			blog_url   = EXCLUDED.blog_url,
			site_url   = EXCLUDED.site_url,
			updated_at = NOW()
		RETURNING updated_at`,
		p.CandidateID, p.KaggleURL, p.BlogURL, p.SiteURL,
	).Scan(&p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert portfolio: %w", err)
	}
	return nil
}
