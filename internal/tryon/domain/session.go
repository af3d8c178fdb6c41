package domain

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusQueued     Status = "QUEUED"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

// IsTerminal reports whether no further transition may leave the status.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

const (
	// TTL bounds how long a session and its result stay valid.
	TTL = 24 * time.Hour

	// EstimatedSeconds is the processing hint returned on submit.
	EstimatedSeconds = 30

	// MaxUploadBytes caps the input photo size.
	MaxUploadBytes = 10 << 20
)

var (
	ErrNotFound      = errors.New("try-on session not found")
	ErrExpired       = errors.New("try-on session expired")
	ErrNotAnImage    = errors.New("upload must be an image")
	ErrImageTooLarge = errors.New("image exceeds size limit")

	// ErrStaleClaim marks a terminal transition attempted after the worker's
	// claim was reclaimed or another worker already finished the job.
	ErrStaleClaim = errors.New("session claim no longer held")
)

// Session is one try-on job. Its status is the work-queue state: workers
// claim QUEUED rows and drive them to a terminal status exactly once.
type Session struct {
	ID             string
	UserID         string
	GarmentID      string
	InputImageURL  string
	ResultImageURL string
	ErrorMessage   string
	Status         Status
	ShareToken     string
	WorkerID       string
	LeaseUntil     time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
	ExpiresAt      time.Time
}

func NewSession(userID, garmentID, inputImageURL string, now time.Time) Session {
	return Session{
		ID:            uuid.NewString(),
		UserID:        userID,
		GarmentID:     garmentID,
		InputImageURL: inputImageURL,
		Status:        StatusQueued,
		ShareToken:    NewShareToken(),
		CreatedAt:     now.UTC(),
		UpdatedAt:     now.UTC(),
		ExpiresAt:     now.UTC().Add(TTL),
	}
}

func (s Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// NewShareToken returns an unguessable opaque token for unauthenticated
// result sharing.
func NewShareToken() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	return hex.EncodeToString(b)
}
