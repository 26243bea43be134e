package usecase_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"proofhire-backend/internal/domain"
	"proofhire-backend/internal/usecase"
	"proofhire-backend/pkg/security/antivirus"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type fakeScanner struct {
	result antivirus.ScanResult
	seen   []byte
}

func (f *fakeScanner) Scan(_ context.Context, _ string, data io.Reader) antivirus.ScanResult {
	f.seen, _ = io.ReadAll(data)
	f.result.ScannerName = f.Name()
	return f.result
}

func (f *fakeScanner) Name() string { return "fake" }

var pdfBytes = []byte("%PDF-1.7\n1 0 obj\n<<>>\nendobj\n")

func scanResume() domain.Resume {
	return domain.Resume{
		ID:          "res-1",
		CandidateID: "cand-1",
		StorageKey:  "uploads/cand-1/2026-10-16T03-35-07-042Z.pdf",
		MimeType:    domain.MimePDF,
		ScanStatus:  domain.ScanPending,
	}
}

func newScanner(repo *MockResumeRepo, storage *MockStorage, av antivirus.Scanner) *usecase.ResumeScanner {
	return usecase.NewResumeScanner(repo, storage, av, nil, nopSecurityLogger(), usecase.ScanConfig{
		Timeout:      time.Second,
		PollAttempts: 2,
		PollInterval: time.Millisecond,
	})
}

func threatIs(name string) any {
	return mock.MatchedBy(func(threat *string) bool { return threat != nil && *threat == name })
}

func TestResumeScanner(t *testing.T) {
	ctx := context.Background()
	resume := scanResume()

	t.Run("Should record a clean file", func(t *testing.T) {
		repo, storage := new(MockResumeRepo), new(MockStorage)
		av := &fakeScanner{}
		storage.On("Open", ctx, resume.StorageKey).Return(pdfBytes, nil)
		repo.On("UpdateScanStatus", ctx, "res-1", domain.ScanClean, (*string)(nil)).Return(nil)

		assert.Equal(t, domain.ScanClean, newScanner(repo, storage, av).Scan(ctx, resume))
		assert.Equal(t, pdfBytes, av.seen)
		repo.AssertExpectations(t)
	})

	t.Run("Should record the threat name of an infected file", func(t *testing.T) {
		repo, storage := new(MockResumeRepo), new(MockStorage)
		av := &fakeScanner{result: antivirus.ScanResult{Infected: true, ThreatName: "Eicar-Signature"}}
		storage.On("Open", ctx, resume.StorageKey).Return(pdfBytes, nil)
		repo.On("UpdateScanStatus", ctx, "res-1", domain.ScanInfected, threatIs("Eicar-Signature")).Return(nil)

		assert.Equal(t, domain.ScanInfected, newScanner(repo, storage, av).Scan(ctx, resume))
	})

	t.Run("Should flag content that does not match the declared type", func(t *testing.T) {
		repo, storage := new(MockResumeRepo), new(MockStorage)
		av := &fakeScanner{}
		storage.On("Open", ctx, resume.StorageKey).Return([]byte("MZ\x90\x00 not a pdf"), nil)
		repo.On("UpdateScanStatus", ctx, "res-1", domain.ScanInfected, threatIs("Heuristics.ContentTypeMismatch")).Return(nil)

		assert.Equal(t, domain.ScanInfected, newScanner(repo, storage, av).Scan(ctx, resume))
		assert.Nil(t, av.seen)
	})

	t.Run("Should record a scanner failure without marking the file infected", func(t *testing.T) {
		repo, storage := new(MockResumeRepo), new(MockStorage)
		av := &fakeScanner{result: antivirus.ScanResult{Error: errors.New("clamd unreachable")}}
		storage.On("Open", ctx, resume.StorageKey).Return(pdfBytes, nil)
		repo.On("UpdateScanStatus", ctx, "res-1", domain.ScanFailed, (*string)(nil)).Return(nil)

		assert.Equal(t, domain.ScanFailed, newScanner(repo, storage, av).Scan(ctx, resume))
	})

	t.Run("Should leave the scan pending when the object never arrives", func(t *testing.T) {
		repo, storage := new(MockResumeRepo), new(MockStorage)
		storage.On("Open", ctx, resume.StorageKey).Return(nil, domain.ErrObjectNotFound)

		assert.Equal(t, domain.ScanPending, newScanner(repo, storage, &fakeScanner{}).Scan(ctx, resume))
		storage.AssertNumberOfCalls(t, "Open", 2)
		repo.AssertNotCalled(t, "UpdateScanStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestResumeScannerScheduleRunsInBackground(t *testing.T) {
	repo, storage := new(MockResumeRepo), new(MockStorage)
	resume := scanResume()
	storage.On("Open", mock.Anything, resume.StorageKey).Return(pdfBytes, nil)
	repo.On("UpdateScanStatus", mock.Anything, "res-1", domain.ScanClean, (*string)(nil)).Return(nil)

	s := newScanner(repo, storage, antivirus.NewNoOpScanner())
	s.Schedule(resume)
	s.Wait()

	repo.AssertExpectations(t)
}
