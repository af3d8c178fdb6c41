package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	catalogdom "github.com/vastralabs/vastra/internal/catalog/domain"
	"github.com/vastralabs/vastra/internal/tryon/application"
	"github.com/vastralabs/vastra/internal/tryon/domain"
)

type Handler struct {
	log     *slog.Logger
	service *application.Service
	tracer  trace.Tracer
}

func NewHandler(log *slog.Logger, service *application.Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
		tracer:  otel.Tracer("tryon-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/upload", h.upload)
	r.Get("/status/{id}", h.status)
	return r
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SubmitTryOn")
	defer span.End()

	// slack above the domain limit so the limit check owns the error message
	r.Body = http.MaxBytesReader(w, r.Body, domain.MaxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(domain.MaxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart body"})
		return
	}

	garmentID := r.FormValue("garmentId")
	if garmentID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "garmentId is required"})
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No file uploaded"})
		return
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "could not read upload"})
		return
	}

	receipt, err := h.service.Submit(ctx, r.Header.Get("X-User-Id"), garmentID, header.Header.Get("Content-Type"), image)
	switch {
	case errors.Is(err, catalogdom.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Garment not found"})
		return
	case errors.Is(err, domain.ErrNotAnImage):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "File must be an image"})
		return
	case errors.Is(err, domain.ErrImageTooLarge):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Image exceeds 10MB limit"})
		return
	case err != nil:
		h.log.Error("try-on submit failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "TryOnStatus")
	defer span.End()

	view, err := h.service.Status(ctx, chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Session not found"})
		return
	case errors.Is(err, domain.ErrExpired):
		writeJSON(w, http.StatusGone, map[string]string{"error": "Session expired"})
		return
	case err != nil:
		h.log.Error("try-on status failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
