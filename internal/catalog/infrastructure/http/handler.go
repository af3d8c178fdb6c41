package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/vastralabs/vastra/internal/catalog/application"
	"github.com/vastralabs/vastra/internal/catalog/domain"
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
		tracer:  otel.Tracer("catalog-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	return r
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ListGarments")
	defer span.End()

	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	listing, err := h.service.List(ctx, domain.Filter{
		Category: q.Get("category"),
		Search:   q.Get("search"),
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		h.log.Error("garment list failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	garments := listing.Garments
	if garments == nil {
		garments = []domain.Garment{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data": garments,
		"pagination": map[string]int{
			"page":       listing.Page,
			"limit":      listing.Limit,
			"total":      listing.Total,
			"totalPages": listing.TotalPages,
		},
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetGarment")
	defer span.End()

	garment, err := h.service.Get(ctx, chi.URLParam(r, "id"))
	if errors.Is(err, domain.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Garment not found"})
		return
	}
	if err != nil {
		h.log.Error("garment get failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, garment)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
