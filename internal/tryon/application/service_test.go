package application

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogdom "github.com/vastralabs/vastra/internal/catalog/domain"
	"github.com/vastralabs/vastra/internal/tryon/domain"
)

type fakeSessionRepo struct {
	sessions map[string]domain.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: map[string]domain.Session{}}
}

func (f *fakeSessionRepo) Create(_ context.Context, s domain.Session) error {
	f.sessions[s.ID] = s
	return nil
}

func (f *fakeSessionRepo) Get(_ context.Context, id string) (domain.Session, error) {
	s, ok := f.sessions[id]
	if !ok {
		return domain.Session{}, domain.ErrNotFound
	}
	return s, nil
}

func (f *fakeSessionRepo) ClaimQueued(_ context.Context, workerID string, limit int, lease time.Duration) ([]domain.Session, error) {
	var claimed []domain.Session
	for id, s := range f.sessions {
		if len(claimed) == limit {
			break
		}
		if s.Status != domain.StatusQueued {
			continue
		}
		s.Status = domain.StatusProcessing
		s.WorkerID = workerID
		s.LeaseUntil = time.Now().Add(lease)
		f.sessions[id] = s
		claimed = append(claimed, s)
	}
	return claimed, nil
}

func (f *fakeSessionRepo) MarkCompleted(_ context.Context, id, resultURL string, _ []byte) error {
	s, ok := f.sessions[id]
	if !ok || s.Status != domain.StatusProcessing {
		return domain.ErrStaleClaim
	}
	s.Status = domain.StatusCompleted
	s.ResultImageURL = resultURL
	f.sessions[id] = s
	return nil
}

func (f *fakeSessionRepo) MarkFailed(_ context.Context, id, message string, _ []byte) error {
	s, ok := f.sessions[id]
	if !ok || s.Status != domain.StatusProcessing {
		return domain.ErrStaleClaim
	}
	s.Status = domain.StatusFailed
	s.ErrorMessage = message
	f.sessions[id] = s
	return nil
}

func (f *fakeSessionRepo) ReclaimStale(_ context.Context) (int64, error) {
	var n int64
	for id, s := range f.sessions {
		if s.Status == domain.StatusProcessing && time.Now().After(s.LeaseUntil) {
			s.Status = domain.StatusQueued
			s.WorkerID = ""
			f.sessions[id] = s
			n++
		}
	}
	return n, nil
}

type fakeTryonCatalog struct {
	garments map[string]catalogdom.Garment
}

func (f *fakeTryonCatalog) Get(_ context.Context, id string) (catalogdom.Garment, error) {
	g, ok := f.garments[id]
	if !ok {
		return catalogdom.Garment{}, catalogdom.ErrNotFound
	}
	return g, nil
}

type fakeBlob struct {
	err  error
	puts int
}

func (f *fakeBlob) Put(_ context.Context, name string, _ []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.puts++
	return "https://blob.vastralabs.in/" + name, nil
}

func testCatalog() *fakeTryonCatalog {
	return &fakeTryonCatalog{garments: map[string]catalogdom.Garment{
		"g-saree": {ID: "g-saree", Name: "Kanjivaram Silk Saree", ImageURL: "https://img/saree.jpg"},
	}}
}

func newTryonService(repo *fakeSessionRepo, blob *fakeBlob) *Service {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(log, repo, testCatalog(), blob, "https://vastralabs.in/")
}

func TestSubmitQueuesSession(t *testing.T) {
	repo := newFakeSessionRepo()
	svc := newTryonService(repo, &fakeBlob{})

	receipt, err := svc.Submit(context.Background(), "user-1", "g-saree", "image/jpeg", []byte("jpegdata"))
	require.NoError(t, err)

	assert.Equal(t, string(domain.StatusQueued), receipt.Status)
	assert.Equal(t, domain.EstimatedSeconds, receipt.EstimatedSeconds)
	assert.NotEmpty(t, receipt.SessionID)

	s, ok := repo.sessions[receipt.SessionID]
	require.True(t, ok)
	assert.Equal(t, domain.StatusQueued, s.Status)
	assert.Contains(t, s.InputImageURL, "tryon/")
}

func TestSubmitRejectsUnknownGarment(t *testing.T) {
	svc := newTryonService(newFakeSessionRepo(), &fakeBlob{})
	_, err := svc.Submit(context.Background(), "user-1", "g-missing", "image/jpeg", []byte("jpegdata"))
	assert.ErrorIs(t, err, catalogdom.ErrNotFound)
}

func TestSubmitRejectsNonImageUpload(t *testing.T) {
	svc := newTryonService(newFakeSessionRepo(), &fakeBlob{})
	_, err := svc.Submit(context.Background(), "user-1", "g-saree", "application/pdf", []byte("%PDF"))
	assert.ErrorIs(t, err, domain.ErrNotAnImage)
}

func TestSubmitRejectsEmptyUpload(t *testing.T) {
	svc := newTryonService(newFakeSessionRepo(), &fakeBlob{})
	_, err := svc.Submit(context.Background(), "user-1", "g-saree", "image/png", nil)
	assert.ErrorIs(t, err, domain.ErrNotAnImage)
}

func TestSubmitRejectsOversizedUpload(t *testing.T) {
	svc := newTryonService(newFakeSessionRepo(), &fakeBlob{})
	_, err := svc.Submit(context.Background(), "user-1", "g-saree", "image/jpeg",
		make([]byte, domain.MaxUploadBytes+1))
	assert.ErrorIs(t, err, domain.ErrImageTooLarge)
}

func TestStatusUnknownSession(t *testing.T) {
	svc := newTryonService(newFakeSessionRepo(), &fakeBlob{})
	_, err := svc.Status(context.Background(), "no-such-session")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStatusExpiredSession(t *testing.T) {
	repo := newFakeSessionRepo()
	svc := newTryonService(repo, &fakeBlob{})

	s := domain.NewSession("user-1", "g-saree", "https://blob/in.jpg", time.Now().Add(-domain.TTL-time.Hour))
	repo.sessions[s.ID] = s

	_, err := svc.Status(context.Background(), s.ID)
	assert.ErrorIs(t, err, domain.ErrExpired)
}

func TestStatusWhileQueued(t *testing.T) {
	repo := newFakeSessionRepo()
	svc := newTryonService(repo, &fakeBlob{})

	s := domain.NewSession("user-1", "g-saree", "https://blob/in.jpg", time.Now())
	repo.sessions[s.ID] = s

	view, err := svc.Status(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusQueued), view.Status)
	assert.Equal(t, 3, view.PollAfterSeconds)
	assert.Empty(t, view.ResultImageURL)
	assert.Empty(t, view.ShareURL)
}

func TestStatusCompletedIncludesResultAndShareLink(t *testing.T) {
	repo := newFakeSessionRepo()
	svc := newTryonService(repo, &fakeBlob{})

	s := domain.NewSession("user-1", "g-saree", "https://blob/in.jpg", time.Now())
	s.Status = domain.StatusCompleted
	s.ResultImageURL = "https://blob/results/1.jpg"
	repo.sessions[s.ID] = s

	view, err := svc.Status(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusCompleted), view.Status)
	assert.Equal(t, "https://blob/results/1.jpg", view.ResultImageURL)
	assert.Equal(t, fmt.Sprintf("https://vastralabs.in/share/%s", s.ShareToken), view.ShareURL)
	require.NotNil(t, view.Garment)
	assert.Equal(t, "g-saree", view.Garment.ID)
	assert.Zero(t, view.PollAfterSeconds)
}

func TestStatusFailedIncludesMessageOnly(t *testing.T) {
	repo := newFakeSessionRepo()
	svc := newTryonService(repo, &fakeBlob{})

	s := domain.NewSession("user-1", "g-saree", "https://blob/in.jpg", time.Now())
	s.Status = domain.StatusFailed
	s.ErrorMessage = "generation failed"
	repo.sessions[s.ID] = s

	view, err := svc.Status(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusFailed), view.Status)
	assert.Equal(t, "generation failed", view.ErrorMessage)
	assert.Empty(t, view.ResultImageURL)
	assert.Empty(t, view.ShareURL)
}
