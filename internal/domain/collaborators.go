package domain

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrObjectNotFound is returned by ObjectStorage when a key does not exist.
var ErrObjectNotFound = errors.New("object not found")

// Credential is a time-limited signed URL.
type Credential struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ObjectStorage is the S3-compatible store holding resume files.
type ObjectStorage interface {
	IssueWriteCredential(ctx context.Context, key, contentType string, ttl time.Duration) (*Credential, error)
	IssueReadCredential(ctx context.Context, key string, ttl time.Duration) (*Credential, error)
	// Relocate moves src to dst, overwriting dst. Missing src is ErrObjectNotFound.
	Relocate(ctx context.Context, src, dst string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// RefereeInvitation is what the mailer needs to render an invite.
type RefereeInvitation struct {
	To            string
	CandidateName string
	ConfirmURL    string
	ExpiresAt     time.Time
}

type RefereeMailer interface {
	SendRefereeInvitation(ctx context.Context, inv RefereeInvitation) error
}

// Lifecycle event types
const (
	EventStatusChanged    = "candidate.status_changed"
	EventRefereeConfirmed = "referee.confirmed"
	EventResumeUploaded   = "resume.uploaded"
)

type LifecycleEvent struct {
	Type        string    `json:"type"`
	CandidateID string    `json:"candidate_id"`
	ActorID     string    `json:"actor_id,omitempty"`
	From        Status    `json:"from,omitempty"`
	To          Status    `json:"to,omitempty"`
	ResourceID  string    `json:"resource_id,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// EventPublisher delivers lifecycle events downstream. Delivery is best-effort.
type EventPublisher interface {
	Publish(ctx context.Context, event LifecycleEvent) error
}
