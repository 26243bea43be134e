package usecase_test

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"proofhire-backend/internal/domain"
	"proofhire-backend/internal/usecase"
	"proofhire-backend/pkg/security"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// Mock Repositories
type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepo) EnsureExists(ctx context.Context, user *domain.User) (*domain.User, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

type MockCandidateRepo struct {
	mock.Mock
}

func (m *MockCandidateRepo) Ensure(ctx context.Context, userID string) (*domain.CandidateProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CandidateProfile), args.Error(1)
}

func (m *MockCandidateRepo) GetByID(ctx context.Context, id string) (*domain.CandidateProfile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CandidateProfile), args.Error(1)
}

func (m *MockCandidateRepo) GetByUserID(ctx context.Context, userID string) (*domain.CandidateProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CandidateProfile), args.Error(1)
}

func (m *MockCandidateRepo) UpdateProfile(ctx context.Context, changes domain.ProfileChanges) error {
	return m.Called(ctx, changes).Error(0)
}

func (m *MockCandidateRepo) CompareAndSetStatus(ctx context.Context, id string, from, to domain.Status) error {
	return m.Called(ctx, id, from, to).Error(0)
}

func (m *MockCandidateRepo) GetEvidence(ctx context.Context, id string) (domain.Evidence, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Evidence), args.Error(1)
}

func (m *MockCandidateRepo) UpdateProofScore(ctx context.Context, id string, score int) error {
	return m.Called(ctx, id, score).Error(0)
}

func (m *MockCandidateRepo) ListQueue(ctx context.Context, filter domain.QueueFilter) ([]domain.QueueItem, int64, error) {
	args := m.Called(ctx, filter)
	var items []domain.QueueItem
	if args.Get(0) != nil {
		items = args.Get(0).([]domain.QueueItem)
	}
	return items, args.Get(1).(int64), args.Error(2)
}

type MockResumeRepo struct {
	mock.Mock
}

func (m *MockResumeRepo) Create(ctx context.Context, resume *domain.Resume) error {
	return m.Called(ctx, resume).Error(0)
}

func (m *MockResumeRepo) GetByID(ctx context.Context, id string) (*domain.Resume, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Resume), args.Error(1)
}

func (m *MockResumeRepo) ListActive(ctx context.Context, candidateID string) ([]domain.Resume, error) {
	args := m.Called(ctx, candidateID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Resume), args.Error(1)
}

func (m *MockResumeRepo) ListByCandidate(ctx context.Context, candidateID string) ([]domain.Resume, error) {
	args := m.Called(ctx, candidateID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Resume), args.Error(1)
}

func (m *MockResumeRepo) MarkArchived(ctx context.Context, id, archivedKey string) error {
	return m.Called(ctx, id, archivedKey).Error(0)
}

func (m *MockResumeRepo) UpdateScanStatus(ctx context.Context, id string, status domain.ScanStatus, threat *string) error {
	return m.Called(ctx, id, status, threat).Error(0)
}

type MockPortfolioRepo struct {
	mock.Mock
}

func (m *MockPortfolioRepo) GetByCandidateID(ctx context.Context, candidateID string) (*domain.Portfolio, error) {
	args := m.Called(ctx, candidateID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Portfolio), args.Error(1)
}

func (m *MockPortfolioRepo) Upsert(ctx context.Context, portfolio *domain.Portfolio) error {
	return m.Called(ctx, portfolio).Error(0)
}

type MockRefereeRepo struct {
	mock.Mock
}

func (m *MockRefereeRepo) GetByCandidateID(ctx context.Context, candidateID string) (*domain.Referee, error) {
	args := m.Called(ctx, candidateID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Referee), args.Error(1)
}

func (m *MockRefereeRepo) GetByTokenHash(ctx context.Context, tokenHash string) (*domain.Referee, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Referee), args.Error(1)
}

func (m *MockRefereeRepo) Upsert(ctx context.Context, referee *domain.Referee) error {
	return m.Called(ctx, referee).Error(0)
}

func (m *MockRefereeRepo) MarkVerified(ctx context.Context, id string, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

type MockReviewRepo struct {
	mock.Mock
}

func (m *MockReviewRepo) ApplyTransition(ctx context.Context, t domain.Transition) error {
	return m.Called(ctx, t).Error(0)
}

func (m *MockReviewRepo) ListNotes(ctx context.Context, candidateID string) ([]domain.ReviewNote, error) {
	args := m.Called(ctx, candidateID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ReviewNote), args.Error(1)
}

// Mock collaborators
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) IssueWriteCredential(ctx context.Context, key, contentType string, ttl time.Duration) (*domain.Credential, error) {
	args := m.Called(ctx, key, contentType, ttl)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Credential), args.Error(1)
}

func (m *MockStorage) IssueReadCredential(ctx context.Context, key string, ttl time.Duration) (*domain.Credential, error) {
	args := m.Called(ctx, key, ttl)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Credential), args.Error(1)
}

func (m *MockStorage) Relocate(ctx context.Context, src, dst string) error {
	return m.Called(ctx, src, dst).Error(0)
}

func (m *MockStorage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return io.NopCloser(bytes.NewReader(args.Get(0).([]byte))), args.Error(1)
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendRefereeInvitation(ctx context.Context, inv domain.RefereeInvitation) error {
	return m.Called(ctx, inv).Error(0)
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.LifecycleEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event domain.LifecycleEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type recordingScheduler struct {
	scheduled []domain.Resume
}

func (s *recordingScheduler) Schedule(resume domain.Resume) {
	s.scheduled = append(s.scheduled, resume)
}

type repoSet struct {
	users      *MockUserRepo
	candidates *MockCandidateRepo
	resumes    *MockResumeRepo
	portfolios *MockPortfolioRepo
	referees   *MockRefereeRepo
	reviews    *MockReviewRepo
}

func newRepoSet() *repoSet {
	return &repoSet{
		users:      new(MockUserRepo),
		candidates: new(MockCandidateRepo),
		resumes:    new(MockResumeRepo),
		portfolios: new(MockPortfolioRepo),
		referees:   new(MockRefereeRepo),
		reviews:    new(MockReviewRepo),
	}
}

func (r *repoSet) Repositories() usecase.Repositories {
	return usecase.Repositories{
		Users:      r.users,
		Candidates: r.candidates,
		Resumes:    r.resumes,
		Portfolios: r.portfolios,
		Referees:   r.referees,
		Reviews:    r.reviews,
	}
}

// expectRecompute wires the score recomputation for candidateID with the given evidence.
func (r *repoSet) expectRecompute(candidateID string, evidence domain.Evidence) {
	r.candidates.On("GetEvidence", mock.Anything, candidateID).Return(evidence, nil)
	r.candidates.On("UpdateProofScore", mock.Anything, candidateID, domain.ComputeProofScore(evidence).Score).Return(nil)
}

func nopSecurityLogger() *security.SecurityLogger {
	return security.NewSecurityLogger(zap.NewNop(), "proofhire-backend", "test")
}

func candidatePrincipal() domain.Principal {
	return domain.Principal{UserID: "user-1", Email: "asha@example.com", Role: domain.RoleUser}
}

func reviewerPrincipal() domain.Principal {
	return domain.Principal{UserID: "rev-1", Email: "rev@proofhire.in", Role: domain.RoleReviewer}
}

func adminPrincipal() domain.Principal {
	return domain.Principal{UserID: "admin-1", Email: "admin@proofhire.in", Role: domain.RoleAdmin}
}

func draftProfile() *domain.CandidateProfile {
	return &domain.CandidateProfile{
		ID:     "cand-1",
		UserID: "user-1",
		Name:   "Asha Rao",
		Email:  "asha@example.com",
		Status: domain.StatusDraft,
	}
}
