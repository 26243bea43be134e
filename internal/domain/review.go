package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// NoteKind classifies an audit entry by the decision it accompanied.
type NoteKind string

const (
	NoteVerify NoteKind = "VERIFY"
	NoteRework NoteKind = "REWORK"
	NoteReject NoteKind = "REJECT"
)

const (
	MaxNoteLength       = 500
	MinRejectNoteLength = 10
)

// ReviewNote is append-only. There is no update or delete path.
type ReviewNote struct {
	ID           string    `json:"id"`
	CandidateID  string    `json:"candidate_id"`
	ReviewerID   string    `json:"reviewer_id"`
	ReviewerName string    `json:"reviewer_name,omitempty"`
	Kind         NoteKind  `json:"kind"`
	Message      string    `json:"message"`
	CreatedAt    time.Time `json:"created_at"`
}

// NoteKindFor maps reviewer actions to the note kind they record.
func NoteKindFor(action Action) (NoteKind, bool) {
	switch action {
	case ActionVerify:
		return NoteVerify, true
	case ActionRequestRework:
		return NoteRework, true
	case ActionReject:
		return NoteReject, true
	}
	return "", false
}

// ValidateNoteMessage checks a note against its kind's length rules. The
// returned string is the trimmed message; empty means "no note".
func ValidateNoteMessage(kind NoteKind, msg string) (string, error) {
	msg = strings.TrimSpace(msg)
	n := utf8.RuneCountInString(msg)
	if n > MaxNoteLength {
		return "", fmt.Errorf("message must be at most %d characters", MaxNoteLength)
	}
	switch kind {
	case NoteReject:
		if n < MinRejectNoteLength {
			return "", fmt.Errorf("message must be at least %d characters", MinRejectNoteLength)
		}
	case NoteRework:
		if n == 0 {
			return "", fmt.Errorf("message is required")
		}
	case NoteVerify:
		// optional
	default:
		return "", fmt.Errorf("unknown note kind %q", kind)
	}
	return msg, nil
}

type ReviewActionRequest struct {
	Message string `json:"message"`
}

// Transition is the atomic unit applied by the review repository: a
// compare-and-set on the status plus an optional note.
type Transition struct {
	CandidateID string
	From        Status
	To          Status
	Note        *ReviewNote
}

type ReviewRepository interface {
	// ApplyTransition writes status and note in one transaction. A status that no
	// longer matches From yields ErrInvalidTransition; a missing profile ErrNotFound.
	ApplyTransition(ctx context.Context, t Transition) error
	ListNotes(ctx context.Context, candidateID string) ([]ReviewNote, error)
}

type ReviewUsecase interface {
	StartReview(ctx context.Context, principal Principal, candidateID string) (*StatusChange, error)
	Verify(ctx context.Context, principal Principal, candidateID string, req ReviewActionRequest) (*StatusChange, error)
	RequestRework(ctx context.Context, principal Principal, candidateID string, req ReviewActionRequest) (*StatusChange, error)
	Reject(ctx context.Context, principal Principal, candidateID string, req ReviewActionRequest) (*StatusChange, error)
	ListQueue(ctx context.Context, principal Principal, filter QueueFilter) (*PaginatedResult[QueueItem], error)
	ExportQueue(ctx context.Context, principal Principal, filter QueueFilter, format string) (*ExportFile, error)
	GetCandidateDetail(ctx context.Context, principal Principal, candidateID string) (*CandidateDetail, error)
}

// ExportFile is a rendered queue export.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}
