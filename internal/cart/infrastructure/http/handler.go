package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/vastralabs/vastra/internal/cart/application"
	"github.com/vastralabs/vastra/internal/cart/domain"
	catalogdom "github.com/vastralabs/vastra/internal/catalog/domain"
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
		tracer:  otel.Tracer("cart-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.getCart)
	r.Post("/items", h.addItem)
	r.Delete("/items/{id}", h.removeItem)
	return r
}

func ownerFromRequest(r *http.Request) (domain.Owner, error) {
	return domain.ParseOwner(r.Header.Get("X-User-Id"), r.Header.Get("X-Session-Id"))
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetCart")
	defer span.End()

	owner, err := ownerFromRequest(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "User ID or Session ID required"})
		return
	}

	view, err := h.service.Get(ctx, owner)
	if err != nil {
		h.log.Error("cart read failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type addItemReq struct {
	GarmentID string `json:"garmentId"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "AddCartItem")
	defer span.End()

	owner, err := ownerFromRequest(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "User ID or Session ID required"})
		return
	}

	var req addItemReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	line, err := h.service.AddItem(ctx, owner, req.GarmentID, req.Size, req.Quantity)
	switch {
	case errors.Is(err, catalogdom.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Garment not found"})
		return
	case errors.Is(err, domain.ErrInvalidQuantity):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	case err != nil:
		h.log.Error("add cart item failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, line)
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "RemoveCartItem")
	defer span.End()

	owner, err := ownerFromRequest(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "User ID or Session ID required"})
		return
	}

	err = h.service.RemoveItem(ctx, owner, chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, domain.ErrItemNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Cart item not found"})
		return
	case err != nil:
		h.log.Error("remove cart item failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
