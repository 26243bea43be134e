package usecase

import (
	"context"
	"errors"
	"time"

	"proofhire-backend/internal/domain"
	"proofhire-backend/pkg/apperror"
	"proofhire-backend/pkg/logger"
	"proofhire-backend/pkg/metrics"
	"proofhire-backend/pkg/validation"

	"github.com/go-playground/validator/v10"
)

// Repositories bundles the persistence ports shared by the lifecycle usecases.
type Repositories struct {
	Users      domain.UserRepository
	Candidates domain.CandidateRepository
	Resumes    domain.ResumeRepository
	Portfolios domain.PortfolioRepository
	Referees   domain.RefereeRepository
	Reviews    domain.ReviewRepository
}

// ScoreRecomputer is the single place proof scores are written. Every call
// reloads evidence from the store, so the last writer always persists a score
// that matches current truth.
type ScoreRecomputer struct {
	repo    domain.CandidateRepository
	metrics *metrics.Metrics
}

func NewScoreRecomputer(repo domain.CandidateRepository, m *metrics.Metrics) *ScoreRecomputer {
	return &ScoreRecomputer{repo: repo, metrics: m}
}

func (r *ScoreRecomputer) Recompute(ctx context.Context, candidateID string) (domain.ProofScore, error) {
	evidence, err := r.repo.GetEvidence(ctx, candidateID)
	if err != nil {
		return domain.ProofScore{}, mapRepoError(err, "Candidate not found")
	}
	score := domain.ComputeProofScore(evidence)
	if err := r.repo.UpdateProofScore(ctx, candidateID, score.Score); err != nil {
		return domain.ProofScore{}, mapRepoError(err, "Candidate not found")
	}
	r.metrics.ObserveProofScore(score.Score)
	return score, nil
}

func requireAuth(p domain.Principal) error {
	if !p.Authenticated() {
		return apperror.Unauthorized("User not authenticated")
	}
	return nil
}

func requireReviewer(p domain.Principal) error {
	if err := requireAuth(p); err != nil {
		return err
	}
	if !p.IsReviewer() {
		return apperror.Forbidden("Reviewer access required")
	}
	return nil
}

// mapRepoError translates repository sentinels into API errors.
func mapRepoError(err error, notFoundMsg string) error {
	var appErr *apperror.AppError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, domain.ErrNotFound):
		return apperror.NotFound(notFoundMsg)
	case errors.Is(err, domain.ErrInvalidTransition):
		return apperror.InvalidStateTransition("Candidate status changed concurrently; reload and retry")
	default:
		return apperror.Internal(err)
	}
}

func validateStruct(v *validator.Validate, s any) error {
	if err := v.Struct(s); err != nil {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			return apperror.Internal(err)
		}
		return apperror.InvalidInput("Validation failed", validation.FormatValidationErrors(err))
	}
	return nil
}

// publish delivers a lifecycle event best-effort.
func publish(ctx context.Context, events domain.EventPublisher, m *metrics.Metrics, event domain.LifecycleEvent) {
	if events == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	if err := events.Publish(ctx, event); err != nil {
		m.IncrementUpstreamFailure("events", event.Type)
		logger.Log.Warn("Failed to publish lifecycle event",
			"event", event.Type, "candidate_id", event.CandidateID, "error", err)
	}
}

func ptrIfNotEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
