package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Accepted resume MIME types
const (
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeDOC  = "application/msword"

	MaxResumeBytes = 10 * 1024 * 1024

	uploadPrefix  = "uploads/"
	archivePrefix = "archive/"
)

// UploadKey is the storage key for a fresh upload:
// uploads/<candidate>/<UTC timestamp>-<resume id>.<ext>. The resume id keeps
// keys unique when two versions share a timestamp.
func UploadKey(candidateID, resumeID, ext string, at time.Time) string {
	at = at.UTC()
	stamp := fmt.Sprintf("%s-%03dZ", at.Format("2006-01-02T15-04-05"), at.Nanosecond()/int(time.Millisecond))
	return fmt.Sprintf("%s%s/%s-%s.%s", uploadPrefix, candidateID, stamp, resumeID, ext)
}

// ArchiveKey maps a key into the archive namespace, keeping the candidate
// segment and filename. Keys already archived map to themselves.
func ArchiveKey(key string) string {
	if strings.HasPrefix(key, archivePrefix) {
		return key
	}
	candidate, filename, _ := strings.Cut(strings.TrimPrefix(key, uploadPrefix), "/")
	return archivePrefix + candidate + "/" + filename
}

// IsArchiveKey reports whether key lives in the archive namespace.
func IsArchiveKey(key string) bool {
	return strings.HasPrefix(key, archivePrefix)
}

// ScanStatus is the outcome of the asynchronous content-safety scan.
type ScanStatus string

const (
	ScanPending  ScanStatus = "PENDING"
	ScanClean    ScanStatus = "CLEAN"
	ScanInfected ScanStatus = "INFECTED"
	ScanFailed   ScanStatus = "FAILED"
)

// Resume is one uploaded version. Records are never deleted; superseded versions
// are relocated into the archive namespace and flagged.
type Resume struct {
	ID          string     `json:"id"`
	CandidateID string     `json:"candidate_id"`
	StorageKey  string     `json:"storage_key"`
	MimeType    string     `json:"mime_type"`
	SizeBytes   int64      `json:"size_bytes"`
	Archived    bool       `json:"archived"`
	ScanStatus  ScanStatus `json:"scan_status"`
	ThreatName  *string    `json:"threat_name,omitempty"`
	UploadedAt  time.Time  `json:"uploaded_at"`
	ArchivedAt  *time.Time `json:"archived_at,omitempty"`
}

type UploadRequest struct {
	MimeType string `json:"mime_type" validate:"required"`
	Size     int64  `json:"size" validate:"required,gt=0"`
}

// UploadTicket is handed back to the candidate, who transfers the bytes out of band.
type UploadTicket struct {
	ResumeID          string    `json:"resume_id"`
	StorageKey        string    `json:"storage_key"`
	UploadURL         string    `json:"upload_url"`
	ExpiresAt         time.Time `json:"expires_at"`
	ArchivedResumeIDs []string  `json:"archived_resume_ids"`
	ProofScore        int       `json:"proof_score"`
	Flagged           bool      `json:"flagged"`
}

type ArchiveResult struct {
	ResumeID   string `json:"resume_id"`
	StorageKey string `json:"storage_key"`
	Archived   bool   `json:"archived"`
	ProofScore int    `json:"proof_score"`
	Flagged    bool   `json:"flagged"`
}

// ResumeDownload is resume metadata plus an optional read credential. The
// credential is absent when storage could not issue one.
type ResumeDownload struct {
	Resume
	DownloadURL *string    `json:"download_url,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

type ResumeRepository interface {
	Create(ctx context.Context, resume *Resume) error
	GetByID(ctx context.Context, id string) (*Resume, error)
	ListActive(ctx context.Context, candidateID string) ([]Resume, error)
	// ListByCandidate returns every version, newest first.
	ListByCandidate(ctx context.Context, candidateID string) ([]Resume, error)
	MarkArchived(ctx context.Context, id string, archivedKey string) error
	UpdateScanStatus(ctx context.Context, id string, status ScanStatus, threat *string) error
}

type ResumeUsecase interface {
	RequestUpload(ctx context.Context, principal Principal, req UploadRequest) (*UploadTicket, error)
	Archive(ctx context.Context, principal Principal, resumeID string) (*ArchiveResult, error)
	IssueDownload(ctx context.Context, principal Principal, resumeID string) (*ResumeDownload, error)
	// WithDownloads attaches read credentials to each resume, best-effort.
	WithDownloads(ctx context.Context, resumes []Resume) []ResumeDownload
}
