//go:build integration

package postgres_test

import (
	"context"
	"net/url"
	"sync"
	"testing"
	"time"

	"proofhire-backend/internal/domain"
	"proofhire-backend/internal/repository/postgres"
	"proofhire-backend/internal/usecase"
	"proofhire-backend/pkg/apperror"
	"proofhire-backend/pkg/database"
	"proofhire-backend/pkg/security"
	"proofhire-backend/pkg/validation"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"go.uber.org/zap"
)

func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("proofhire"),
		tcpostgres.WithUsername("proofhire"),
		tcpostgres.WithPassword("proofhire"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := database.NewPostgresConnection(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, postgres.RunMigrations(ctx, pool))
	return pool
}

type fixture struct {
	users      domain.UserRepository
	candidates domain.CandidateRepository
	resumes    domain.ResumeRepository
	portfolios domain.PortfolioRepository
	referees   domain.RefereeRepository
	reviews    domain.ReviewRepository
}

func newFixture(pool *pgxpool.Pool) fixture {
	return fixture{
		users:      postgres.NewUserRepository(pool),
		candidates: postgres.NewCandidateRepository(pool),
		resumes:    postgres.NewResumeRepository(pool),
		portfolios: postgres.NewPortfolioRepository(pool),
		referees:   postgres.NewRefereeRepository(pool),
		reviews:    postgres.NewReviewRepository(pool),
	}
}

func (f fixture) repositories() usecase.Repositories {
	return usecase.Repositories{
		Users:      f.users,
		Candidates: f.candidates,
		Resumes:    f.resumes,
		Portfolios: f.portfolios,
		Referees:   f.referees,
		Reviews:    f.reviews,
	}
}

// outbox keeps every invitation so tests can follow the confirm link.
type outbox struct {
	mu   sync.Mutex
	sent []domain.RefereeInvitation
}

func (o *outbox) SendRefereeInvitation(_ context.Context, inv domain.RefereeInvitation) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, inv)
	return nil
}

func (o *outbox) lastToken(t *testing.T) string {
	t.Helper()
	o.mu.Lock()
	defer o.mu.Unlock()
	require.NotEmpty(t, o.sent)
	u, err := url.Parse(o.sent[len(o.sent)-1].ConfirmURL)
	require.NoError(t, err)
	return u.Query().Get("token")
}

func TestRepositories(t *testing.T) {
	pool := startPostgres(t)
	f := newFixture(pool)
	ctx := context.Background()

	user, err := f.users.EnsureExists(ctx, &domain.User{ID: "user-1", Email: "asha@acme.io"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, user.Role)
	_, err = f.users.EnsureExists(ctx, &domain.User{ID: "admin-1", Email: "admin@proofhire.in"})
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `UPDATE users SET role = 'ADMIN', name = 'Meera' WHERE id = 'admin-1'`)
	require.NoError(t, err)

	profile, err := f.candidates.Ensure(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDraft, profile.Status)
	again, err := f.candidates.Ensure(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, profile.ID, again.ID)

	t.Run("profile update and submit commit together", func(t *testing.T) {
		name := "Asha Rao"
		cloud := domain.CloudGCP
		err := f.candidates.UpdateProfile(ctx, domain.ProfileChanges{
			CandidateID: profile.ID, UserID: "user-1", Name: &name, PrimaryCloud: &cloud,
			Tools: []string{"Terraform", "BigQuery"}, ExpectedStatus: domain.StatusDraft, NextStatus: domain.StatusSubmitted,
		})
		require.NoError(t, err)

		got, err := f.candidates.GetByID(ctx, profile.ID)
		require.NoError(t, err)
		assert.Equal(t, "Asha Rao", got.Name)
		assert.Equal(t, domain.StatusSubmitted, got.Status)
		assert.Equal(t, []string{"Terraform", "BigQuery"}, got.Tools)

		err = f.candidates.UpdateProfile(ctx, domain.ProfileChanges{
			CandidateID: profile.ID, UserID: "user-1", ExpectedStatus: domain.StatusDraft, NextStatus: domain.StatusSubmitted,
		})
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("evidence follows archive and referee verification", func(t *testing.T) {
		res := &domain.Resume{
			ID: uuid.NewString(), CandidateID: profile.ID, StorageKey: "uploads/" + profile.ID + "/a.pdf",
			MimeType: domain.MimePDF, SizeBytes: 100, ScanStatus: domain.ScanPending, UploadedAt: time.Now(),
		}
		require.NoError(t, f.resumes.Create(ctx, res))
		require.NoError(t, f.portfolios.Upsert(ctx, &domain.Portfolio{CandidateID: profile.ID}))

		e, err := f.candidates.GetEvidence(ctx, profile.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.Evidence{HasActiveResume: true}, e)

		require.NoError(t, f.resumes.MarkArchived(ctx, res.ID, "archive/"+profile.ID+"/a.pdf"))
		all, err := f.resumes.ListByCandidate(ctx, profile.ID)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.True(t, all[0].Archived)

		ref := &domain.Referee{
			ID: uuid.NewString(), CandidateID: profile.ID, Email: "boss@acme.io", TokenHash: "hash-1",
			RequestedAt: time.Now(), ExpiresAt: time.Now().Add(time.Hour),
		}
		require.NoError(t, f.referees.Upsert(ctx, ref))
		require.NoError(t, f.referees.MarkVerified(ctx, ref.ID, time.Now()))
		assert.ErrorIs(t, f.referees.MarkVerified(ctx, ref.ID, time.Now()), domain.ErrNotFound)

		e, err = f.candidates.GetEvidence(ctx, profile.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.Evidence{HasVerifiedReferee: true}, e)

		reinvite := &domain.Referee{
			ID: uuid.NewString(), CandidateID: profile.ID, Email: "cto@acme.io", TokenHash: "hash-2",
			RequestedAt: time.Now(), ExpiresAt: time.Now().Add(time.Hour),
		}
		require.NoError(t, f.referees.Upsert(ctx, reinvite))
		assert.Equal(t, ref.ID, reinvite.ID)
		stored, err := f.referees.GetByTokenHash(ctx, "hash-2")
		require.NoError(t, err)
		assert.Nil(t, stored.VerifiedAt)
	})

	t.Run("transition and note are atomic", func(t *testing.T) {
		note := &domain.ReviewNote{
			ID: uuid.NewString(), ReviewerID: "admin-1", Kind: domain.NoteReject,
			Message: "Referee could not be reached", CreatedAt: time.Now(),
		}
		err := f.reviews.ApplyTransition(ctx, domain.Transition{
			CandidateID: profile.ID, From: domain.StatusDraft, To: domain.StatusRejected, Note: note,
		})
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
		notes, err := f.reviews.ListNotes(ctx, profile.ID)
		require.NoError(t, err)
		assert.Empty(t, notes)

		require.NoError(t, f.reviews.ApplyTransition(ctx, domain.Transition{
			CandidateID: profile.ID, From: domain.StatusSubmitted, To: domain.StatusRejected, Note: note,
		}))
		notes, err = f.reviews.ListNotes(ctx, profile.ID)
		require.NoError(t, err)
		require.Len(t, notes, 1)
		assert.Equal(t, "Meera", notes[0].ReviewerName)

		err = f.reviews.ApplyTransition(ctx, domain.Transition{
			CandidateID: uuid.NewString(), From: domain.StatusSubmitted, To: domain.StatusRejected,
		})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("queue lists actionable candidates", func(t *testing.T) {
		other, err := f.users.EnsureExists(ctx, &domain.User{ID: "user-2", Email: "vik@acme.io"})
		require.NoError(t, err)
		p2, err := f.candidates.Ensure(ctx, other.ID)
		require.NoError(t, err)
		require.NoError(t, f.candidates.CompareAndSetStatus(ctx, p2.ID, domain.StatusDraft, domain.StatusSubmitted))
		require.NoError(t, f.candidates.UpdateProofScore(ctx, p2.ID, 20))

		items, total, err := f.candidates.ListQueue(ctx, domain.QueueFilter{Statuses: domain.QueueStatuses, Page: 1, Limit: 10})
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		require.Len(t, items, 1)
		assert.Equal(t, p2.ID, items[0].CandidateID)
		assert.True(t, items[0].Flagged)
		assert.Nil(t, items[0].LatestResumeKey)
	})
}

func TestMalformedIDsAreNotFound(t *testing.T) {
	pool := startPostgres(t)
	f := newFixture(pool)
	ctx := context.Background()

	_, err := f.candidates.GetByID(ctx, "abc")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.candidates.GetEvidence(ctx, "abc")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.resumes.GetByID(ctx, "abc")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.referees.GetByCandidateID(ctx, "abc")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, f.candidates.CompareAndSetStatus(ctx, "abc", domain.StatusDraft, domain.StatusSubmitted), domain.ErrNotFound)
}

func TestEvidenceDrivesProofScore(t *testing.T) {
	pool := startPostgres(t)
	f := newFixture(pool)
	ctx := context.Background()

	_, err := f.users.EnsureExists(ctx, &domain.User{ID: "user-3", Email: "neha@acme.io"})
	require.NoError(t, err)
	profile, err := f.candidates.Ensure(ctx, "user-3")
	require.NoError(t, err)

	scores := usecase.NewScoreRecomputer(f.candidates, nil)
	mail := &outbox{}
	referees := usecase.NewRefereeUsecase(f.repositories(), validation.New(), mail, scores, nil, nil,
		security.NewSecurityLogger(zap.NewNop(), "proofhire-backend", "test"),
		usecase.RefereeConfig{AppBaseURL: "https://api.proofhire.test"})
	me := domain.Principal{UserID: "user-3", Email: "neha@acme.io", Role: domain.RoleUser}

	storedScore := func(t *testing.T) int {
		t.Helper()
		p, err := f.candidates.GetByID(ctx, profile.ID)
		require.NoError(t, err)
		return p.ProofScore
	}

	// A fresh draft has no evidence.
	score, err := scores.Recompute(ctx, profile.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ProofScore{Score: 0, Flagged: true}, score)
	assert.Equal(t, domain.StatusDraft, profile.Status)

	resumeID := uuid.NewString()
	require.NoError(t, f.resumes.Create(ctx, &domain.Resume{
		ID: resumeID, CandidateID: profile.ID, StorageKey: domain.UploadKey(profile.ID, resumeID, "pdf", time.Now()),
		MimeType: domain.MimePDF, SizeBytes: 2048, ScanStatus: domain.ScanPending, UploadedAt: time.Now(),
	}))
	score, err = scores.Recompute(ctx, profile.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ProofScore{Score: 40, Flagged: false}, score)
	assert.Equal(t, 40, storedScore(t))

	first, err := referees.Invite(ctx, me, domain.InviteRequest{Email: "lead@acme.io"})
	require.NoError(t, err)
	firstToken := mail.lastToken(t)
	assert.Equal(t, 40, first.ProofScore)

	second, err := referees.Invite(ctx, me, domain.InviteRequest{Email: "lead@acme.io"})
	require.NoError(t, err)
	secondToken := mail.lastToken(t)
	require.NotEqual(t, firstToken, secondToken)

	t.Run("re-invite with the same email supersedes the earlier token", func(t *testing.T) {
		_, err := f.referees.GetByTokenHash(ctx, security.HashToken(firstToken))
		assert.ErrorIs(t, err, domain.ErrNotFound)

		current, err := f.referees.GetByCandidateID(ctx, profile.ID)
		require.NoError(t, err)
		assert.Equal(t, first.RefereeID, current.ID)
		assert.Equal(t, security.HashToken(secondToken), current.TokenHash)

		_, err = referees.Confirm(ctx, firstToken)
		assert.Equal(t, apperror.KindTokenInvalid, apperror.KindOf(err))
		assert.Equal(t, 40, storedScore(t))
	})

	t.Run("confirming adds exactly the referee weight", func(t *testing.T) {
		before := storedScore(t)
		result, err := referees.Confirm(ctx, secondToken)
		require.NoError(t, err)
		assert.Equal(t, profile.ID, result.CandidateID)
		assert.Equal(t, 80, result.ProofScore)
		assert.Equal(t, before+domain.WeightVerifiedReferee, storedScore(t))
		assert.Equal(t, second.RefereeID, first.RefereeID)
	})

	t.Run("a used token cannot be redeemed again", func(t *testing.T) {
		_, err := referees.Confirm(ctx, secondToken)
		assert.Equal(t, apperror.KindTokenInvalid, apperror.KindOf(err))
		assert.Equal(t, 80, storedScore(t))
	})
}
