package domain

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned (wrapped) by repositories when a row is absent.
var ErrNotFound = errors.New("not found")

// CloudPlatform constants
const (
	CloudGCP   = "GCP"
	CloudAWS   = "AWS"
	CloudAzure = "Azure"
)

// CandidateProfile is the per-user verification record. ProofScore is derived
// and only ever written by the score recomputation.
type CandidateProfile struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Name         string    `json:"name,omitempty"`  // Joined from users
	Email        string    `json:"email,omitempty"` // Joined from users
	Phone        *string   `json:"phone,omitempty"`
	YearsExp     *int      `json:"years_exp,omitempty"`
	PrimaryCloud *string   `json:"primary_cloud,omitempty"`
	Tools        []string  `json:"tools"`
	Status       Status    `json:"status"`
	ProofScore   int       `json:"proof_score"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ProfileUpdateRequest holds the editable fields. Nil means "keep current value".
type ProfileUpdateRequest struct {
	Name         *string  `json:"name" validate:"omitempty,min=2,max=120,no_emoji"`
	Phone        *string  `json:"phone" validate:"omitempty,indian_phone"`
	YearsExp     *int     `json:"years_exp" validate:"omitempty,min=0,max=50"`
	PrimaryCloud *string  `json:"primary_cloud" validate:"omitempty,oneof=GCP AWS Azure"`
	Tools        []string `json:"tools" validate:"omitempty,max=20,dive,max=40"`
	Submit       bool     `json:"submit"`
}

// ProfileChanges is what the repository persists for an update, atomically.
type ProfileChanges struct {
	CandidateID    string
	UserID         string
	Name           *string
	Phone          *string
	YearsExp       *int
	PrimaryCloud   *string
	Tools          []string
	ExpectedStatus Status
	NextStatus     Status
}

// CandidateView is the candidate-facing aggregate returned by profile operations.
type CandidateView struct {
	Profile   *CandidateProfile `json:"profile"`
	Resumes   []Resume          `json:"resumes"`
	Portfolio *Portfolio        `json:"portfolio,omitempty"`
	Referee   *Referee          `json:"referee,omitempty"`
	Flagged   bool              `json:"flagged"`
}

// CandidateDetail is the reviewer-facing aggregate.
type CandidateDetail struct {
	Profile   *CandidateProfile `json:"profile"`
	Resumes   []ResumeDownload  `json:"resumes"`
	Portfolio *Portfolio        `json:"portfolio,omitempty"`
	Referee   *Referee          `json:"referee,omitempty"`
	Notes     []ReviewNote      `json:"notes"`
	Flagged   bool              `json:"flagged"`
}

// QueueItem is one row of the review queue.
type QueueItem struct {
	CandidateID     string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Status          Status    `json:"status"`
	ProofScore      int       `json:"proof_score"`
	Flagged         bool      `json:"flagged"`
	RefereeVerified bool      `json:"referee_verified"`
	HasPortfolio    bool      `json:"has_portfolio"`
	LatestResumeKey *string   `json:"latest_resume_key,omitempty"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type QueueFilter struct {
	Statuses []Status `json:"statuses,omitempty"`
	Page     int      `json:"page"`
	Limit    int      `json:"limit"`
}

// PaginatedResult for list responses
type PaginatedResult[T any] struct {
	Data       []T   `json:"data"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	TotalPages int   `json:"totalPages"`
}

// StatusChange is returned by status-mutating operations.
type StatusChange struct {
	CandidateID    string  `json:"candidate_id"`
	PreviousStatus Status  `json:"previous_status"`
	Status         Status  `json:"status"`
	NoteID         *string `json:"note_id,omitempty"`
	ProofScore     int     `json:"proof_score"`
	Changed        bool    `json:"changed"`
}

type CandidateRepository interface {
	// Ensure returns the user's profile, creating a DRAFT one on first access.
	Ensure(ctx context.Context, userID string) (*CandidateProfile, error)
	GetByID(ctx context.Context, id string) (*CandidateProfile, error)
	GetByUserID(ctx context.Context, userID string) (*CandidateProfile, error)
	UpdateProfile(ctx context.Context, changes ProfileChanges) error
	// CompareAndSetStatus moves from -> to; it returns ErrInvalidTransition when
	// the stored status is no longer from.
	CompareAndSetStatus(ctx context.Context, id string, from, to Status) error
	GetEvidence(ctx context.Context, id string) (Evidence, error)
	UpdateProofScore(ctx context.Context, id string, score int) error
	ListQueue(ctx context.Context, filter QueueFilter) ([]QueueItem, int64, error)
}

type CandidateUsecase interface {
	GetMyProfile(ctx context.Context, principal Principal) (*CandidateView, error)
	UpdateMyProfile(ctx context.Context, principal Principal, req ProfileUpdateRequest) (*CandidateView, error)
	Submit(ctx context.Context, principal Principal) (*StatusChange, error)
	UpsertPortfolio(ctx context.Context, principal Principal, req PortfolioInput) (*PortfolioResult, error)
}
