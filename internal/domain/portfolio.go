package domain

import (
	"context"
	"time"
)

// Portfolio holds up to three optional evidence links.
type Portfolio struct {
	CandidateID string    `json:"candidate_id"`
	KaggleURL   *string   `json:"kaggle_url,omitempty"`
	BlogURL     *string   `json:"blog_url,omitempty"`
	SiteURL     *string   `json:"site_url,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// HasLinks reports whether any of the three URLs is non-empty.
func (p *Portfolio) HasLinks() bool {
	if p == nil {
		return false
	}
	for _, u := range []*string{p.KaggleURL, p.BlogURL, p.SiteURL} {
		if u != nil && *u != "" {
			return true
		}
	}
	return false
}

// PortfolioInput replaces all three links; an empty string clears a link.
type PortfolioInput struct {
	KaggleURL string `json:"kaggle_url" validate:"omitempty,url,max=500"`
	BlogURL   string `json:"blog_url" validate:"omitempty,url,max=500"`
	SiteURL   string `json:"site_url" validate:"omitempty,url,max=500"`
}

type PortfolioResult struct {
	Portfolio  *Portfolio `json:"portfolio"`
	ProofScore int        `json:"proof_score"`
	Flagged    bool       `json:"flagged"`
}

type PortfolioRepository interface {
	GetByCandidateID(ctx context.Context, candidateID string) (*Portfolio, error)
	Upsert(ctx context.Context, portfolio *Portfolio) error
}
