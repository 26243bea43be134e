package usecase

import (
	"context"
	"errors"
	"strings"

	"proofhire-backend/internal/domain"
	"proofhire-backend/pkg/apperror"
	"proofhire-backend/pkg/metrics"

	"github.com/go-playground/validator/v10"
)

type candidateUsecase struct {
	repos    Repositories
	validate *validator.Validate
	scores   *ScoreRecomputer
	events   domain.EventPublisher
	metrics  *metrics.Metrics
}

func NewCandidateUsecase(repos Repositories, validate *validator.Validate, scores *ScoreRecomputer, events domain.EventPublisher, m *metrics.Metrics) domain.CandidateUsecase {
	return &candidateUsecase{
		repos:    repos,
		validate: validate,
		scores:   scores,
		events:   events,
		metrics:  m,
	}
}

func (u *candidateUsecase) GetMyProfile(ctx context.Context, principal domain.Principal) (*domain.CandidateView, error) {
	if err := requireAuth(principal); err != nil {
		return nil, err
	}
	profile, err := u.repos.Candidates.Ensure(ctx, principal.UserID)
	if err != nil {
		return nil, mapRepoError(err, "Candidate profile not found")
	}
	return u.view(ctx, profile)
}

func (u *candidateUsecase) view(ctx context.Context, profile *domain.CandidateProfile) (*domain.CandidateView, error) {
	resumes, err := u.repos.Resumes.ListByCandidate(ctx, profile.ID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	portfolio, err := u.repos.Portfolios.GetByCandidateID(ctx, profile.ID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, apperror.Internal(err)
	}
	referee, err := u.repos.Referees.GetByCandidateID(ctx, profile.ID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, apperror.Internal(err)
	}
	if resumes == nil {
		resumes = []domain.Resume{}
	}
	return &domain.CandidateView{
		Profile:   profile,
		Resumes:   resumes,
		Portfolio: portfolio,
		Referee:   referee,
		Flagged:   domain.IsFlagged(profile.ProofScore),
	}, nil
}

// UpdateMyProfile writes the editable fields and, when requested, the submit
// transition in one repository transaction.
func (u *candidateUsecase) UpdateMyProfile(ctx context.Context, principal domain.Principal, req domain.ProfileUpdateRequest) (*domain.CandidateView, error) {
	if err := requireAuth(principal); err != nil {
		return nil, err
	}
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		req.Name = &trimmed
	}
	if err := validateStruct(u.validate, req); err != nil {
		return nil, err
	}

	profile, err := u.repos.Candidates.Ensure(ctx, principal.UserID)
	if err != nil {
		return nil, mapRepoError(err, "Candidate profile not found")
	}

	next := profile.Status
	if req.Submit {
		next, err = domain.NextStatus(profile.Status, domain.ActionSubmit)
		if err != nil {
			return nil, apperror.InvalidStateTransition("Profile cannot be submitted from status " + string(profile.Status))
		}
	}

	changes := domain.ProfileChanges{
		CandidateID:    profile.ID,
		UserID:         principal.UserID,
		Name:           req.Name,
		Phone:          req.Phone,
		YearsExp:       req.YearsExp,
		PrimaryCloud:   req.PrimaryCloud,
		Tools:          normalizeTools(req.Tools),
		ExpectedStatus: profile.Status,
		NextStatus:     next,
	}
	if err := u.repos.Candidates.UpdateProfile(ctx, changes); err != nil {
		return nil, mapRepoError(err, "Candidate profile not found")
	}

	if next != profile.Status {
		u.metrics.IncrementTransition(string(domain.ActionSubmit), string(next))
		publish(ctx, u.events, u.metrics, domain.LifecycleEvent{
			Type:        domain.EventStatusChanged,
			CandidateID: profile.ID,
			ActorID:     principal.UserID,
			From:        profile.Status,
			To:          next,
		})
	}

	if _, err := u.scores.Recompute(ctx, profile.ID); err != nil {
		return nil, err
	}

	updated, err := u.repos.Candidates.GetByID(ctx, profile.ID)
	if err != nil {
		return nil, mapRepoError(err, "Candidate profile not found")
	}
	return u.view(ctx, updated)
}

func (u *candidateUsecase) Submit(ctx context.Context, principal domain.Principal) (*domain.StatusChange, error) {
	if err := requireAuth(principal); err != nil {
		return nil, err
	}
	profile, err := u.repos.Candidates.Ensure(ctx, principal.UserID)
	if err != nil {
		return nil, mapRepoError(err, "Candidate profile not found")
	}

	next, err := domain.NextStatus(profile.Status, domain.ActionSubmit)
	if err != nil {
		return nil, apperror.InvalidStateTransition("Profile cannot be submitted from status " + string(profile.Status))
	}

	change := &domain.StatusChange{
		CandidateID:    profile.ID,
		PreviousStatus: profile.Status,
		Status:         next,
		ProofScore:     profile.ProofScore,
	}
	if next == profile.Status {
		// Resubmitting, or submitting an already verified profile, changes nothing.
		return change, nil
	}

	if err := u.repos.Candidates.CompareAndSetStatus(ctx, profile.ID, profile.Status, next); err != nil {
		return nil, mapRepoError(err, "Candidate profile not found")
	}
	change.Changed = true

	u.metrics.IncrementTransition(string(domain.ActionSubmit), string(next))
	publish(ctx, u.events, u.metrics, domain.LifecycleEvent{
		Type:        domain.EventStatusChanged,
		CandidateID: profile.ID,
		ActorID:     principal.UserID,
		From:        profile.Status,
		To:          next,
	})
	return change, nil
}

func (u *candidateUsecase) UpsertPortfolio(ctx context.Context, principal domain.Principal, req domain.PortfolioInput) (*domain.PortfolioResult, error) {
	if err := requireAuth(principal); err != nil {
		return nil, err
	}
	req.KaggleURL = strings.TrimSpace(req.KaggleURL)
	req.BlogURL = strings.TrimSpace(req.BlogURL)
	req.SiteURL = strings.TrimSpace(req.SiteURL)
	if err := validateStruct(u.validate, req); err != nil {
		return nil, err
	}

	profile, err := u.repos.Candidates.Ensure(ctx, principal.UserID)
	if err != nil {
		return nil, mapRepoError(err, "Candidate profile not found")
	}

	portfolio := &domain.Portfolio{
		CandidateID: profile.ID,
		KaggleURL:   ptrIfNotEmpty(req.KaggleURL),
		BlogURL:     ptrIfNotEmpty(req.BlogURL),
		SiteURL:     ptrIfNotEmpty(req.SiteURL),
	}
	if err := u.repos.Portfolios.Upsert(ctx, portfolio); err != nil {
		return nil, apperror.Internal(err)
	}

	score, err := u.scores.Recompute(ctx, profile.ID)
	if err != nil {
		return nil, err
	}
	return &domain.PortfolioResult{
		Portfolio:  portfolio,
		ProofScore: score.Score,
		Flagged:    score.Flagged,
	}, nil
}

// normalizeTools trims entries and drops blanks and duplicates, keeping order.
func normalizeTools(tools []string) []string {
	if tools == nil {
		return nil
	}
	out := make([]string, 0, len(tools))
	seen := make(map[string]bool, len(tools))
	for _, t := range tools {
		t = strings.TrimSpace(t)
		key := strings.ToLower(t)
		if t == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out
}
