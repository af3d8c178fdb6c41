package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	catalogdom "github.com/vastralabs/vastra/internal/catalog/domain"
	"github.com/vastralabs/vastra/internal/tryon/domain"
)

type Service struct {
	log     *slog.Logger
	repo    SessionRepository
	catalog GarmentCatalog
	blob    BlobStore
	appURL  string
}

func NewService(log *slog.Logger, repo SessionRepository, catalog GarmentCatalog, blob BlobStore, appURL string) *Service {
	return &Service{log: log, repo: repo, catalog: catalog, blob: blob, appURL: strings.TrimRight(appURL, "/")}
}

// Receipt is returned immediately on submit; the work itself runs on the
// worker pool.
type Receipt struct {
	SessionID        string `json:"sessionId"`
	Status           string `json:"status"`
	Message          string `json:"message"`
	EstimatedSeconds int    `json:"estimatedTime"`
}

// Submit validates the upload, stores the input photo, and enqueues a
// session in QUEUED. It never runs synthesis inline.
func (s *Service) Submit(ctx context.Context, userID, garmentID, contentType string, image []byte) (Receipt, error) {
	if _, err := s.catalog.Get(ctx, garmentID); err != nil {
		return Receipt{}, err
	}
	if !strings.HasPrefix(contentType, "image/") {
		return Receipt{}, domain.ErrNotAnImage
	}
	if len(image) == 0 {
		return Receipt{}, domain.ErrNotAnImage
	}
	if len(image) > domain.MaxUploadBytes {
		return Receipt{}, domain.ErrImageTooLarge
	}

	now := time.Now()
	inputURL, err := s.blob.Put(ctx, fmt.Sprintf("tryon/%d.jpg", now.UnixMilli()), image)
	if err != nil {
		return Receipt{}, fmt.Errorf("store input image: %w", err)
	}

	session := domain.NewSession(userID, garmentID, inputURL, now)
	if err := s.repo.Create(ctx, session); err != nil {
		return Receipt{}, fmt.Errorf("enqueue session: %w", err)
	}

	s.log.Info("try-on queued", "session_id", session.ID, "garment_id", garmentID)
	return Receipt{
		SessionID:        session.ID,
		Status:           string(domain.StatusQueued),
		Message:          "Your try-on is being processed",
		EstimatedSeconds: domain.EstimatedSeconds,
	}, nil
}

// StatusView is the polling projection. Fields are populated per status.
type StatusView struct {
	SessionID        string              `json:"sessionId"`
	Status           string              `json:"status"`
	Message          string              `json:"message,omitempty"`
	PollAfterSeconds int                 `json:"pollAfterSeconds,omitempty"`
	ResultImageURL   string              `json:"resultImageUrl,omitempty"`
	Garment          *catalogdom.Garment `json:"garment,omitempty"`
	ShareURL         string              `json:"shareUrl,omitempty"`
	ErrorMessage     string              `json:"errorMessage,omitempty"`
}

// Status is a pure read for client polling. Expired sessions are rejected at
// read time regardless of stored status.
func (s *Service) Status(ctx context.Context, sessionID string) (StatusView, error) {
	session, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return StatusView{}, err
	}
	if session.Expired(time.Now()) {
		return StatusView{}, domain.ErrExpired
	}

	view := StatusView{SessionID: session.ID, Status: string(session.Status)}
	switch session.Status {
	case domain.StatusCompleted:
		garment, err := s.catalog.Get(ctx, session.GarmentID)
		if err == nil {
			view.Garment = &garment
		} else {
			s.log.Warn("completed session references missing garment", "session_id", session.ID, "err", err)
		}
		view.ResultImageURL = session.ResultImageURL
		view.ShareURL = s.appURL + "/share/" + session.ShareToken
	case domain.StatusFailed:
		view.ErrorMessage = session.ErrorMessage
	default:
		view.Message = "Processing..."
		view.PollAfterSeconds = 3
	}
	return view, nil
}
