package usecase

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"proofhire-backend/internal/domain"
	"proofhire-backend/pkg/apperror"
	"proofhire-backend/pkg/logger"
	"proofhire-backend/pkg/metrics"
	"proofhire-backend/pkg/security"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// DefaultBlockedRefereeDomains are free mailbox providers; a referee must use a work address.
var DefaultBlockedRefereeDomains = []string{"gmail.com", "yahoo.com", "hotmail.com", "outlook.com", "icloud.com"}

type RefereeConfig struct {
	AppBaseURL     string
	TokenTTL       time.Duration
	BlockedDomains []string
}

type refereeUsecase struct {
	repos    Repositories
	validate *validator.Validate
	mailer   domain.RefereeMailer
	scores   *ScoreRecomputer
	events   domain.EventPublisher
	metrics  *metrics.Metrics
	security *security.SecurityLogger
	cfg      RefereeConfig
	blocked  map[string]bool
	now      func() time.Time
}

func NewRefereeUsecase(repos Repositories, validate *validator.Validate, mailer domain.RefereeMailer, scores *ScoreRecomputer, events domain.EventPublisher, m *metrics.Metrics, sl *security.SecurityLogger, cfg RefereeConfig) domain.RefereeUsecase {
	blocked := make(map[string]bool)
	for _, d := range append(append([]string{}, DefaultBlockedRefereeDomains...), cfg.BlockedDomains...) {
		blocked[strings.ToLower(strings.TrimSpace(d))] = true
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 7 * 24 * time.Hour
	}
	return &refereeUsecase{
		repos:    repos,
		validate: validate,
		mailer:   mailer,
		scores:   scores,
		events:   events,
		metrics:  m,
		security: sl,
		cfg:      cfg,
		blocked:  blocked,
		now:      time.Now,
	}
}

// Invite replaces any earlier invitation. Mail delivery is attempted after the
// record is stored and its failure is reported, not raised.
func (u *refereeUsecase) Invite(ctx context.Context, principal domain.Principal, req domain.InviteRequest) (*domain.InviteResult, error) {
	if err := requireAuth(principal); err != nil {
		return nil, err
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validateStruct(u.validate, req); err != nil {
		return nil, err
	}
	_, mailDomain, _ := strings.Cut(req.Email, "@")
	if mailDomain == "" || u.blocked[mailDomain] {
		return nil, apperror.InvalidInput("Use a work domain email", map[string]string{"email": "use a work domain email"})
	}
	if strings.EqualFold(req.Email, principal.Email) {
		return nil, apperror.InvalidInput("You cannot be your own referee", map[string]string{"email": "must not be your own address"})
	}

	profile, err := u.repos.Candidates.Ensure(ctx, principal.UserID)
	if err != nil {
		return nil, mapRepoError(err, "Candidate profile not found")
	}

	rawToken, tokenHash, err := security.GenerateToken()
	if err != nil {
		return nil, apperror.Internal(err)
	}

	now := u.now().UTC()
	referee := &domain.Referee{
		ID:          uuid.NewString(),
		CandidateID: profile.ID,
		Email:       req.Email,
		TokenHash:   tokenHash,
		RequestedAt: now,
		ExpiresAt:   now.Add(u.cfg.TokenTTL),
	}
	if err := u.repos.Referees.Upsert(ctx, referee); err != nil {
		return nil, apperror.Internal(err)
	}

	candidateName := profile.Name
	if candidateName == "" {
		candidateName = "The candidate"
	}
	delivered := true
	if err := u.mailer.SendRefereeInvitation(ctx, domain.RefereeInvitation{
		To:            referee.Email,
		CandidateName: candidateName,
		ConfirmURL:    u.confirmURL(rawToken),
		ExpiresAt:     referee.ExpiresAt,
	}); err != nil {
		delivered = false
		u.metrics.IncrementUpstreamFailure("mail", "referee_invite")
		logger.Log.Warn("Failed to send referee invitation", "candidate_id", profile.ID, "error", err)
	}

	score, err := u.scores.Recompute(ctx, profile.ID)
	if err != nil {
		return nil, err
	}

	return &domain.InviteResult{
		RefereeID:   referee.ID,
		Email:       referee.Email,
		RequestedAt: referee.RequestedAt,
		ExpiresAt:   referee.ExpiresAt,
		Delivered:   delivered,
		ProofScore:  score.Score,
		Flagged:     score.Flagged,
	}, nil
}

func (u *refereeUsecase) confirmURL(rawToken string) string {
	return u.cfg.AppBaseURL + "/v1/referees/confirm?token=" + url.QueryEscape(rawToken)
}

// Confirm redeems a token once. Unknown, expired and already used tokens are
// indistinguishable to the caller.
func (u *refereeUsecase) Confirm(ctx context.Context, rawToken string) (*domain.ConfirmResult, error) {
	rawToken = strings.TrimSpace(rawToken)
	if len(rawToken) < security.MinTokenLength {
		return nil, u.invalidToken(ctx, rawToken, "malformed")
	}

	referee, err := u.repos.Referees.GetByTokenHash(ctx, security.HashToken(rawToken))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, u.invalidToken(ctx, rawToken, "unknown")
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}
	now := u.now().UTC()
	if referee.Verified() {
		return nil, u.invalidToken(ctx, rawToken, "already_used")
	}
	if referee.Expired(now) {
		return nil, u.invalidToken(ctx, rawToken, "expired")
	}

	if err := u.repos.Referees.MarkVerified(ctx, referee.ID, now); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Lost a race with a concurrent confirmation or re-invite.
			return nil, u.invalidToken(ctx, rawToken, "already_used")
		}
		return nil, apperror.Internal(err)
	}
	u.metrics.IncrementRefereeConfirmation("confirmed")

	score, err := u.scores.Recompute(ctx, referee.CandidateID)
	if err != nil {
		return nil, err
	}

	publish(ctx, u.events, u.metrics, domain.LifecycleEvent{
		Type:        domain.EventRefereeConfirmed,
		CandidateID: referee.CandidateID,
		ResourceID:  referee.ID,
		OccurredAt:  now,
	})

	return &domain.ConfirmResult{
		CandidateID: referee.CandidateID,
		VerifiedAt:  now,
		ProofScore:  score.Score,
	}, nil
}

func (u *refereeUsecase) invalidToken(ctx context.Context, rawToken, reason string) error {
	u.metrics.IncrementRefereeConfirmation(reason)
	u.security.LogTokenInvalid(ctx, rawToken, reason)
	return apperror.TokenInvalid("Token is invalid or expired")
}
