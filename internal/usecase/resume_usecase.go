package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"proofhire-backend/internal/domain"
	"proofhire-backend/pkg/apperror"
	"proofhire-backend/pkg/logger"
	"proofhire-backend/pkg/metrics"
	"proofhire-backend/pkg/security"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentCredentials bounds presign calls fanned out for one detail view.
const maxConcurrentCredentials = 4

// ScanScheduler queues a stored resume for content scanning.
type ScanScheduler interface {
	Schedule(resume domain.Resume)
}

type resumeUsecase struct {
	repos        Repositories
	storage      domain.ObjectStorage
	scores       *ScoreRecomputer
	scans        ScanScheduler
	events       domain.EventPublisher
	metrics      *metrics.Metrics
	signedURLTTL time.Duration
	now          func() time.Time
}

func NewResumeUsecase(repos Repositories, storage domain.ObjectStorage, scores *ScoreRecomputer, scans ScanScheduler, events domain.EventPublisher, m *metrics.Metrics, signedURLTTL time.Duration) domain.ResumeUsecase {
	return &resumeUsecase{
		repos:        repos,
		storage:      storage,
		scores:       scores,
		scans:        scans,
		events:       events,
		metrics:      m,
		signedURLTTL: signedURLTTL,
		now:          time.Now,
	}
}

// RequestUpload validates the declared file, issues a write credential, moves
// earlier versions into the archive and records the new version.
func (u *resumeUsecase) RequestUpload(ctx context.Context, principal domain.Principal, req domain.UploadRequest) (*domain.UploadTicket, error) {
	if err := requireAuth(principal); err != nil {
		return nil, err
	}
	fileType, ok := security.LookupResumeType(req.MimeType)
	if !ok {
		return nil, apperror.UnsupportedMediaType("Only PDF, DOC and DOCX resumes are accepted")
	}
	if req.Size <= 0 {
		return nil, apperror.InvalidInput("Validation failed", map[string]string{"size": "must be greater than 0"})
	}
	if req.Size > domain.MaxResumeBytes {
		return nil, apperror.PayloadTooLarge("Resume must be 10 MB or smaller")
	}

	profile, err := u.repos.Candidates.Ensure(ctx, principal.UserID)
	if err != nil {
		return nil, mapRepoError(err, "Candidate profile not found")
	}

	resumeID := uuid.NewString()
	key := domain.UploadKey(profile.ID, resumeID, fileType.Extension, u.now())
	cred, err := u.storage.IssueWriteCredential(ctx, key, fileType.MIME, u.signedURLTTL)
	if err != nil {
		u.metrics.IncrementUpstreamFailure("storage", "issue_write_credential")
		logger.Log.Error("Failed to issue upload credential", "candidate_id", profile.ID, "error", err)
		return nil, apperror.UpstreamUnavailable("Storage is unavailable, please retry", err)
	}

	previous, err := u.repos.Resumes.ListActive(ctx, profile.ID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	archivedIDs := make([]string, 0, len(previous))
	for i := range previous {
		if err := u.archiveOne(ctx, &previous[i]); err != nil {
			// Best-effort: a failed move leaves the old version active.
			u.metrics.IncrementUpstreamFailure("storage", "archive")
			logger.Log.Warn("Failed to archive previous resume",
				"candidate_id", profile.ID, "resume_id", previous[i].ID, "error", err)
			continue
		}
		archivedIDs = append(archivedIDs, previous[i].ID)
	}

	resume := &domain.Resume{
		ID:          resumeID,
		CandidateID: profile.ID,
		StorageKey:  key,
		MimeType:    fileType.MIME,
		SizeBytes:   req.Size,
		ScanStatus:  domain.ScanPending,
		UploadedAt:  u.now().UTC(),
	}
	if err := u.repos.Resumes.Create(ctx, resume); err != nil {
		return nil, apperror.Internal(err)
	}

	score, err := u.scores.Recompute(ctx, profile.ID)
	if err != nil {
		return nil, err
	}

	if u.scans != nil {
		u.scans.Schedule(*resume)
	}
	publish(ctx, u.events, u.metrics, domain.LifecycleEvent{
		Type:        domain.EventResumeUploaded,
		CandidateID: profile.ID,
		ActorID:     principal.UserID,
		ResourceID:  resume.ID,
	})

	return &domain.UploadTicket{
		ResumeID:          resume.ID,
		StorageKey:        key,
		UploadURL:         cred.URL,
		ExpiresAt:         cred.ExpiresAt,
		ArchivedResumeIDs: archivedIDs,
		ProofScore:        score.Score,
		Flagged:           score.Flagged,
	}, nil
}

// archiveOne relocates the object and flags the record. A version whose bytes
// were never uploaded is flagged in place.
func (u *resumeUsecase) archiveOne(ctx context.Context, resume *domain.Resume) error {
	dst := domain.ArchiveKey(resume.StorageKey)
	if err := u.storage.Relocate(ctx, resume.StorageKey, dst); err != nil {
		if !errors.Is(err, domain.ErrObjectNotFound) {
			return err
		}
		dst = resume.StorageKey
	}
	if err := u.repos.Resumes.MarkArchived(ctx, resume.ID, dst); err != nil {
		return fmt.Errorf("mark archived: %w", err)
	}
	resume.Archived = true
	resume.StorageKey = dst
	return nil
}

func (u *resumeUsecase) Archive(ctx context.Context, principal domain.Principal, resumeID string) (*domain.ArchiveResult, error) {
	if err := requireAuth(principal); err != nil {
		return nil, err
	}
	resume, err := u.repos.Resumes.GetByID(ctx, resumeID)
	if err != nil {
		return nil, mapRepoError(err, "Resume not found")
	}
	profile, err := u.repos.Candidates.GetByID(ctx, resume.CandidateID)
	if err != nil {
		return nil, mapRepoError(err, "Resume not found")
	}
	if profile.UserID != principal.UserID {
		security.DefaultLogger().LogForbidden(ctx, principal.UserID, string(principal.Role), "resume:"+resumeID)
		return nil, apperror.Forbidden("You can only archive your own resumes")
	}

	if !resume.Archived {
		if err := u.archiveOne(ctx, resume); err != nil {
			u.metrics.IncrementUpstreamFailure("storage", "archive")
			logger.Log.Error("Failed to archive resume", "candidate_id", profile.ID, "resume_id", resume.ID, "error", err)
			return nil, apperror.UpstreamUnavailable("Archive failed, please retry", err)
		}
	}

	score, err := u.scores.Recompute(ctx, profile.ID)
	if err != nil {
		return nil, err
	}
	return &domain.ArchiveResult{
		ResumeID:   resume.ID,
		StorageKey: resume.StorageKey,
		Archived:   true,
		ProofScore: score.Score,
		Flagged:    score.Flagged,
	}, nil
}

func (u *resumeUsecase) IssueDownload(ctx context.Context, principal domain.Principal, resumeID string) (*domain.ResumeDownload, error) {
	if err := requireReviewer(principal); err != nil {
		return nil, err
	}
	resume, err := u.repos.Resumes.GetByID(ctx, resumeID)
	if err != nil {
		return nil, mapRepoError(err, "Resume not found")
	}
	download := u.withCredential(ctx, *resume)
	return &download, nil
}

// WithDownloads issues read credentials concurrently. Failures only drop the URL.
func (u *resumeUsecase) WithDownloads(ctx context.Context, resumes []domain.Resume) []domain.ResumeDownload {
	out := make([]domain.ResumeDownload, len(resumes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentCredentials)
	for i := range resumes {
		g.Go(func() error {
			out[i] = u.withCredential(gctx, resumes[i])
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (u *resumeUsecase) withCredential(ctx context.Context, resume domain.Resume) domain.ResumeDownload {
	download := domain.ResumeDownload{Resume: resume}
	cred, err := u.storage.IssueReadCredential(ctx, resume.StorageKey, u.signedURLTTL)
	if err != nil {
		u.metrics.IncrementUpstreamFailure("storage", "issue_read_credential")
		logger.Log.Warn("Failed to issue download credential",
			"candidate_id", resume.CandidateID, "resume_id", resume.ID, "error", err)
		return download
	}
	download.DownloadURL = &cred.URL
	download.ExpiresAt = &cred.ExpiresAt
	return download
}
