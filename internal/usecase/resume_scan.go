package usecase

import (
	"bufio"
	"context"
	"errors"
	"io"
	"path"
	"sync"
	"time"

	"proofhire-backend/internal/domain"
	"proofhire-backend/pkg/logger"
	"proofhire-backend/pkg/metrics"
	"proofhire-backend/pkg/security"
	"proofhire-backend/pkg/security/antivirus"
)

// ScanConfig bounds a single background scan.
type ScanConfig struct {
	Timeout      time.Duration
	PollAttempts int
	PollInterval time.Duration
}

// ResumeScanner waits for an uploaded resume to land in storage, checks its
// header against the declared type and streams it to the antivirus scanner.
// Results are recorded on the resume and never gate status transitions.
type ResumeScanner struct {
	repo     domain.ResumeRepository
	storage  domain.ObjectStorage
	scanner  antivirus.Scanner
	metrics  *metrics.Metrics
	security *security.SecurityLogger
	cfg      ScanConfig
	wg       sync.WaitGroup
}

var _ ScanScheduler = (*ResumeScanner)(nil)

func NewResumeScanner(repo domain.ResumeRepository, storage domain.ObjectStorage, scanner antivirus.Scanner, m *metrics.Metrics, sl *security.SecurityLogger, cfg ScanConfig) *ResumeScanner {
	if cfg.PollAttempts <= 0 {
		cfg.PollAttempts = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	return &ResumeScanner{
		repo:     repo,
		storage:  storage,
		scanner:  scanner,
		metrics:  m,
		security: sl,
		cfg:      cfg,
	}
}

// Schedule runs the scan in the background, detached from the request.
func (s *ResumeScanner) Schedule(resume domain.Resume) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)
		defer cancel()
		s.Scan(ctx, resume)
	}()
}

// Wait blocks until every scheduled scan has finished. Used on shutdown.
func (s *ResumeScanner) Wait() {
	s.wg.Wait()
}

// Scan runs synchronously and returns the recorded status. PENDING means the
// object never appeared within the polling budget.
func (s *ResumeScanner) Scan(ctx context.Context, resume domain.Resume) domain.ScanStatus {
	log := logger.Log.With("candidate_id", resume.CandidateID, "resume_id", resume.ID)

	body, err := s.waitForObject(ctx, resume.StorageKey)
	if err != nil {
		log.Warn("Resume never reached storage, leaving scan pending", "error", err)
		return domain.ScanPending
	}
	defer body.Close()

	status, threat := s.inspect(ctx, resume, bufio.NewReaderSize(body, 64*1024))

	if err := s.repo.UpdateScanStatus(ctx, resume.ID, status, threat); err != nil {
		log.Error("Failed to record scan result", "status", status, "error", err)
	}
	s.metrics.IncrementScanResult(string(status))
	return status
}

func (s *ResumeScanner) inspect(ctx context.Context, resume domain.Resume, r *bufio.Reader) (domain.ScanStatus, *string) {
	log := logger.Log.With("candidate_id", resume.CandidateID, "resume_id", resume.ID)

	fileType, ok := security.LookupResumeType(resume.MimeType)
	header, _ := r.Peek(security.MagicHeaderSize)
	if !ok || !fileType.MatchesContent(header) {
		threat := "Heuristics.ContentTypeMismatch"
		s.security.LogContentFinding(ctx, security.EventContentMismatch, resume.CandidateID, resume.ID, resume.MimeType)
		return domain.ScanInfected, &threat
	}

	result := s.scanner.Scan(ctx, path.Base(resume.StorageKey), r)
	switch {
	case result.Error != nil:
		s.metrics.IncrementUpstreamFailure("scanner", result.ScannerName)
		log.Warn("Content scan failed", "scanner", result.ScannerName, "error", result.Error)
		return domain.ScanFailed, nil
	case result.Infected:
		threat := result.ThreatName
		s.security.LogContentFinding(ctx, security.EventContentThreat, resume.CandidateID, resume.ID, threat)
		return domain.ScanInfected, &threat
	default:
		return domain.ScanClean, nil
	}
}

func (s *ResumeScanner) waitForObject(ctx context.Context, key string) (io.ReadCloser, error) {
	var lastErr error
	for attempt := 0; attempt < s.cfg.PollAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.cfg.PollInterval):
			}
		}
		body, err := s.storage.Open(ctx, key)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !errors.Is(err, domain.ErrObjectNotFound) {
			s.metrics.IncrementUpstreamFailure("storage", "open")
		}
	}
	return nil, lastErr
}
