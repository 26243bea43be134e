package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"proofhire-backend/internal/domain"
	"proofhire-backend/pkg/apperror"
	"proofhire-backend/pkg/metrics"
	"proofhire-backend/pkg/security"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	defaultQueuePageSize = 20
	maxQueuePageSize     = 100
	// maxExportRows caps a single queue export.
	maxExportRows = 5000
)

type reviewUsecase struct {
	repos    Repositories
	resumes  domain.ResumeUsecase
	scores   *ScoreRecomputer
	events   domain.EventPublisher
	metrics  *metrics.Metrics
	security *security.SecurityLogger
	now      func() time.Time
}

func NewReviewUsecase(repos Repositories, resumes domain.ResumeUsecase, scores *ScoreRecomputer, events domain.EventPublisher, m *metrics.Metrics, sl *security.SecurityLogger) domain.ReviewUsecase {
	return &reviewUsecase{
		repos:    repos,
		resumes:  resumes,
		scores:   scores,
		events:   events,
		metrics:  m,
		security: sl,
		now:      time.Now,
	}
}

func (u *reviewUsecase) StartReview(ctx context.Context, principal domain.Principal, candidateID string) (*domain.StatusChange, error) {
	return u.transition(ctx, principal, candidateID, domain.ActionStartReview, "")
}

func (u *reviewUsecase) Verify(ctx context.Context, principal domain.Principal, candidateID string, req domain.ReviewActionRequest) (*domain.StatusChange, error) {
	return u.transition(ctx, principal, candidateID, domain.ActionVerify, req.Message)
}

func (u *reviewUsecase) RequestRework(ctx context.Context, principal domain.Principal, candidateID string, req domain.ReviewActionRequest) (*domain.StatusChange, error) {
	return u.transition(ctx, principal, candidateID, domain.ActionRequestRework, req.Message)
}

func (u *reviewUsecase) Reject(ctx context.Context, principal domain.Principal, candidateID string, req domain.ReviewActionRequest) (*domain.StatusChange, error) {
	return u.transition(ctx, principal, candidateID, domain.ActionReject, req.Message)
}

// transition checks role, note and table, then applies status and note as one unit.
func (u *reviewUsecase) transition(ctx context.Context, principal domain.Principal, candidateID string, action domain.Action, message string) (*domain.StatusChange, error) {
	if err := requireAuth(principal); err != nil {
		return nil, err
	}
	if !domain.CanPerform(principal.Role, action) {
		u.security.LogForbidden(ctx, principal.UserID, string(principal.Role), "candidate:"+candidateID+":"+string(action))
		return nil, apperror.Forbidden("Your role cannot " + strings.ReplaceAll(string(action), "_", " ") + " candidates")
	}

	var note *domain.ReviewNote
	if kind, ok := domain.NoteKindFor(action); ok {
		msg, err := domain.ValidateNoteMessage(kind, message)
		if err != nil {
			return nil, apperror.InvalidInput("Validation failed", map[string]string{"message": err.Error()})
		}
		if msg != "" {
			note = &domain.ReviewNote{
				ID:          uuid.NewString(),
				CandidateID: candidateID,
				ReviewerID:  principal.UserID,
				Kind:        kind,
				Message:     msg,
				CreatedAt:   u.now().UTC(),
			}
		}
	}

	profile, err := u.repos.Candidates.GetByID(ctx, candidateID)
	if err != nil {
		return nil, mapRepoError(err, "Candidate not found")
	}
	next, err := domain.NextStatus(profile.Status, action)
	if err != nil {
		return nil, apperror.InvalidStateTransition("Cannot " + strings.ReplaceAll(string(action), "_", " ") + " a candidate in status " + string(profile.Status))
	}

	if err := u.repos.Reviews.ApplyTransition(ctx, domain.Transition{
		CandidateID: candidateID,
		From:        profile.Status,
		To:          next,
		Note:        note,
	}); err != nil {
		return nil, mapRepoError(err, "Candidate not found")
	}

	u.metrics.IncrementTransition(string(action), string(next))
	publish(ctx, u.events, u.metrics, domain.LifecycleEvent{
		Type:        domain.EventStatusChanged,
		CandidateID: candidateID,
		ActorID:     principal.UserID,
		From:        profile.Status,
		To:          next,
	})

	change := &domain.StatusChange{
		CandidateID:    candidateID,
		PreviousStatus: profile.Status,
		Status:         next,
		ProofScore:     profile.ProofScore,
		Changed:        next != profile.Status || note != nil,
	}
	if note != nil {
		change.NoteID = &note.ID
	}
	return change, nil
}

func (u *reviewUsecase) ListQueue(ctx context.Context, principal domain.Principal, filter domain.QueueFilter) (*domain.PaginatedResult[domain.QueueItem], error) {
	if err := requireReviewer(principal); err != nil {
		return nil, err
	}
	filter, err := normalizeQueueFilter(filter)
	if err != nil {
		return nil, err
	}

	items, total, err := u.repos.Candidates.ListQueue(ctx, filter)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if items == nil {
		items = []domain.QueueItem{}
	}
	totalPages := int((total + int64(filter.Limit) - 1) / int64(filter.Limit))
	return &domain.PaginatedResult[domain.QueueItem]{
		Data:       items,
		Total:      total,
		Page:       filter.Page,
		PageSize:   filter.Limit,
		TotalPages: totalPages,
	}, nil
}

func normalizeQueueFilter(filter domain.QueueFilter) (domain.QueueFilter, error) {
	if len(filter.Statuses) == 0 {
		filter.Statuses = domain.QueueStatuses
	}
	for _, s := range filter.Statuses {
		if !s.Valid() {
			return filter, apperror.InvalidInput("Validation failed", map[string]string{"status": "unknown status " + string(s)})
		}
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = defaultQueuePageSize
	}
	if filter.Limit > maxQueuePageSize {
		filter.Limit = maxQueuePageSize
	}
	return filter, nil
}

func (u *reviewUsecase) ExportQueue(ctx context.Context, principal domain.Principal, filter domain.QueueFilter, format string) (*domain.ExportFile, error) {
	if err := requireReviewer(principal); err != nil {
		return nil, err
	}
	filter, err := normalizeQueueFilter(filter)
	if err != nil {
		return nil, err
	}
	filter.Page, filter.Limit = 1, maxExportRows

	items, _, err := u.repos.Candidates.ListQueue(ctx, filter)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	var file *domain.ExportFile
	format = strings.ToLower(format)
	switch format {
	case "csv":
		file, err = exportQueueCSV(items, u.now())
	case "xlsx", "":
		format = "xlsx"
		file, err = exportQueueExcel(items, u.now())
	default:
		return nil, apperror.InvalidInput("Validation failed", map[string]string{"format": "must be one of: xlsx, csv"})
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}
	u.security.LogDataExport(ctx, principal.UserID, format, len(items))
	return file, nil
}

// GetCandidateDetail loads the reviewer view. The four reads are independent
// and run concurrently.
func (u *reviewUsecase) GetCandidateDetail(ctx context.Context, principal domain.Principal, candidateID string) (*domain.CandidateDetail, error) {
	if err := requireReviewer(principal); err != nil {
		return nil, err
	}
	profile, err := u.repos.Candidates.GetByID(ctx, candidateID)
	if err != nil {
		return nil, mapRepoError(err, "Candidate not found")
	}

	var (
		resumes   []domain.Resume
		portfolio *domain.Portfolio
		referee   *domain.Referee
		notes     []domain.ReviewNote
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		resumes, err = u.repos.Resumes.ListByCandidate(gctx, candidateID)
		return err
	})
	g.Go(func() error {
		p, err := u.repos.Portfolios.GetByCandidateID(gctx, candidateID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		portfolio = p
		return nil
	})
	g.Go(func() error {
		r, err := u.repos.Referees.GetByCandidateID(gctx, candidateID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		referee = r
		return nil
	})
	g.Go(func() (err error) {
		notes, err = u.repos.Reviews.ListNotes(gctx, candidateID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, apperror.Internal(err)
	}

	if notes == nil {
		notes = []domain.ReviewNote{}
	}
	return &domain.CandidateDetail{
		Profile:   profile,
		Resumes:   u.resumes.WithDownloads(ctx, resumes),
		Portfolio: portfolio,
		Referee:   referee,
		Notes:     notes,
		Flagged:   domain.IsFlagged(profile.ProofScore),
	}, nil
}
