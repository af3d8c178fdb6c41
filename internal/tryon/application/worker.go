package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/vastralabs/vastra/internal/tryon/domain"
	"github.com/vastralabs/vastra/pkg/metrics"
)

// Worker drains QUEUED try-on sessions. Sessions double as the durable work
// queue: claiming is a guarded QUEUED to PROCESSING update with a lease, so a
// crashed worker's jobs are reclaimed and re-run, never stranded.
type Worker struct {
	log      *slog.Logger
	repo     SessionRepository
	catalog  GarmentCatalog
	blob     BlobStore
	synth    Synthesizer
	met      *metrics.Metrics
	tracer   trace.Tracer
	workerID string

	batchSize    int
	interval     time.Duration
	lease        time.Duration
	synthTimeout time.Duration
}

func NewWorker(log *slog.Logger, repo SessionRepository, catalog GarmentCatalog, blob BlobStore, synth Synthesizer, met *metrics.Metrics, workerID string) *Worker {
	return &Worker{
		log:       log.With("worker_id", workerID),
		repo:      repo,
		catalog:   catalog,
		blob:      blob,
		synth:     synth,
		met:       met,
		tracer:    otel.Tracer("tryon-worker"),
		workerID:  workerID,
		batchSize: 4,
		interval:  time.Second,
		// The lease must outlast a whole claimed batch at worst case,
		// batchSize jobs of synthTimeout plus upload, or the reclaim
		// sweep hands still-running jobs to a second worker.
		lease:        10 * time.Minute,
		synthTimeout: 90 * time.Second,
	}
}

// Run polls for claimable work until the context is cancelled. Each tick
// first returns stale PROCESSING rows to QUEUED, then claims a fresh batch.
func (w *Worker) Run(ctx context.Context) error {
	t := time.NewTicker(w.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("worker stopping")
			return nil
		case <-t.C:
			if n, err := w.repo.ReclaimStale(ctx); err != nil {
				w.log.Error("reclaim sweep failed", "err", err)
			} else if n > 0 {
				w.log.Warn("reclaimed stale sessions", "count", n)
			}

			sessions, err := w.repo.ClaimQueued(ctx, w.workerID, w.batchSize, w.lease)
			if err != nil {
				w.log.Error("claim failed", "err", err)
				continue
			}
			for _, s := range sessions {
				w.process(ctx, s)
			}
		}
	}
}

// process drives one claimed session to a terminal state. Every failure path
// ends in MarkFailed: a claimed job must never stay PROCESSING past its
// lease by this worker's doing.
func (w *Worker) process(ctx context.Context, s domain.Session) {
	ctx, span := w.tracer.Start(ctx, "ProcessTryOn")
	defer span.End()

	log := w.log.With("session_id", s.ID, "garment_id", s.GarmentID)

	garment, err := w.catalog.Get(ctx, s.GarmentID)
	if err != nil {
		w.fail(ctx, log, s, "garment no longer available", err)
		return
	}

	synthCtx, cancel := context.WithTimeout(ctx, w.synthTimeout)
	result, err := w.synth.Generate(synthCtx, s.InputImageURL, garment.ImageURL)
	cancel()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			w.fail(ctx, log, s, "generation timed out", err)
		} else {
			w.fail(ctx, log, s, "generation failed", err)
		}
		return
	}

	resultURL, err := w.blob.Put(ctx, fmt.Sprintf("results/%d.jpg", time.Now().UnixMilli()), result)
	if err != nil {
		w.fail(ctx, log, s, "could not store result image", err)
		return
	}

	payload, _ := json.Marshal(domain.Completed{
		SessionID:      s.ID,
		GarmentID:      s.GarmentID,
		ResultImageURL: resultURL,
	})
	if err := w.repo.MarkCompleted(ctx, s.ID, resultURL, payload); err != nil {
		if errors.Is(err, domain.ErrStaleClaim) {
			log.Warn("lost claim before completion")
			return
		}
		log.Error("mark completed failed", "err", err)
		return
	}
	w.met.IncTryOnJob("completed")
	log.Info("try-on completed", "result_url", resultURL)
}

// fail records the terminal FAILED state with a caller-safe message. The
// underlying error goes to the log, not to the shopper.
func (w *Worker) fail(ctx context.Context, log *slog.Logger, s domain.Session, message string, cause error) {
	log.Error("try-on failed", "reason", message, "err", cause)

	payload, _ := json.Marshal(domain.Failed{
		SessionID:    s.ID,
		GarmentID:    s.GarmentID,
		ErrorMessage: message,
	})
	if err := w.repo.MarkFailed(ctx, s.ID, message, payload); err != nil {
		if errors.Is(err, domain.ErrStaleClaim) {
			log.Warn("lost claim before failure record")
			return
		}
		log.Error("mark failed errored", "err", err)
		return
	}
	w.met.IncTryOnJob("failed")
}
