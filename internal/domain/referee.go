package domain

import (
	"context"
	"time"
)

// Referee is the third-party attestation record. Only the hash of the
// verification token is stored.
type Referee struct {
	ID          string     `json:"id"`
	CandidateID string     `json:"candidate_id"`
	Email       string     `json:"email"`
	TokenHash   string     `json:"-"`
	RequestedAt time.Time  `json:"requested_at"`
	ExpiresAt   time.Time  `json:"expires_at"`
	VerifiedAt  *time.Time `json:"verified_at,omitempty"`
}

func (r *Referee) Verified() bool {
	return r != nil && r.VerifiedAt != nil
}

// Expired reports whether the outstanding token can no longer be redeemed.
func (r *Referee) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && now.After(r.ExpiresAt)
}

type InviteRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
}

type InviteResult struct {
	RefereeID   string    `json:"referee_id"`
	Email       string    `json:"email"`
	RequestedAt time.Time `json:"requested_at"`
	ExpiresAt   time.Time `json:"expires_at"`
	Delivered   bool      `json:"delivered"`
	ProofScore  int       `json:"proof_score"`
	Flagged     bool      `json:"flagged"`
}

type ConfirmResult struct {
	CandidateID string    `json:"candidate_id"`
	VerifiedAt  time.Time `json:"verified_at"`
	ProofScore  int       `json:"proof_score"`
}

type RefereeRepository interface {
	GetByCandidateID(ctx context.Context, candidateID string) (*Referee, error)
	GetByTokenHash(ctx context.Context, tokenHash string) (*Referee, error)
	// Upsert replaces the candidate's referee invitation and clears verified_at.
	Upsert(ctx context.Context, referee *Referee) error
	// MarkVerified sets verified_at once; it returns ErrNotFound when the row is
	// gone or already verified.
	MarkVerified(ctx context.Context, id string, at time.Time) error
}

type RefereeUsecase interface {
	Invite(ctx context.Context, principal Principal, req InviteRequest) (*InviteResult, error)
	Confirm(ctx context.Context, rawToken string) (*ConfirmResult, error)
}
