package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	orderapp "github.com/vastralabs/vastra/internal/order/application"
	orderdom "github.com/vastralabs/vastra/internal/order/domain"
	paymentapp "github.com/vastralabs/vastra/internal/payment/application"
	paymentdom "github.com/vastralabs/vastra/internal/payment/domain"
)

// Handler serves the order surface: checkout, payment initiation retry, the
// gateway callback, and order history reads.
type Handler struct {
	log      *slog.Logger
	orders   *orderapp.Service
	payments *paymentapp.Service
	tracer   trace.Tracer
}

func NewHandler(log *slog.Logger, orders *orderapp.Service, payments *paymentapp.Service) *Handler {
	return &Handler{
		log:      log,
		orders:   orders,
		payments: payments,
		tracer:   otel.Tracer("order-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/checkout", h.checkout)
	r.Post("/verify", h.verify)
	r.Post("/{id}/payment", h.retryPayment)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	return r
}

type checkoutReq struct {
	Items           []orderapp.LineInput `json:"items"`
	ShippingAddress orderdom.Address     `json:"shippingAddress"`
}

type checkoutResp struct {
	OrderID     string `json:"orderId"`
	OrderNumber string `json:"orderNumber"`
	IntentID    string `json:"razorpayOrderId,omitempty"`
	KeyID       string `json:"razorpayKeyId,omitempty"`
	AmountCents int64  `json:"amount"`
	Currency    string `json:"currency,omitempty"`
	Retryable   bool   `json:"paymentInitiationPending,omitempty"`
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "Checkout")
	defer span.End()

	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Authentication required"})
		return
	}

	var req checkoutReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	o, err := h.orders.Create(ctx, userID, req.Items, req.ShippingAddress)
	switch {
	case errors.Is(err, orderdom.ErrEmptyOrder), errors.Is(err, orderdom.ErrInvalidQuantity):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	case errors.Is(err, orderdom.ErrUnknownGarment):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	case err != nil:
		h.log.Error("checkout failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	params, err := h.payments.Initiate(ctx, o.ID)
	if err != nil {
		// Order stands in PENDING; the client can retry initiation without
		// creating a second order.
		h.log.Error("payment initiation failed", "order_id", o.ID, "err", err)
		writeJSON(w, http.StatusBadGateway, checkoutResp{
			OrderID:     o.ID,
			OrderNumber: o.OrderNumber,
			AmountCents: o.TotalCents,
			Retryable:   true,
		})
		return
	}

	writeJSON(w, http.StatusOK, checkoutResp{
		OrderID:     params.OrderID,
		OrderNumber: params.OrderNumber,
		IntentID:    params.IntentID,
		KeyID:       params.KeyID,
		AmountCents: params.AmountCents,
		Currency:    params.Currency,
	})
}

func (h *Handler) retryPayment(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "RetryPaymentInitiation")
	defer span.End()

	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Authentication required"})
		return
	}
	orderID := chi.URLParam(r, "id")
	if _, err := h.orders.GetForUser(ctx, orderID, userID); err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Order not found"})
		return
	}

	params, err := h.payments.Initiate(ctx, orderID)
	if errors.Is(err, orderdom.ErrInvalidTransition) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "Order is not awaiting payment"})
		return
	}
	if errors.Is(err, paymentdom.ErrGatewayUnavailable) {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "payment gateway unavailable, retry later"})
		return
	}
	if err != nil {
		h.log.Error("payment initiation retry failed", "order_id", orderID, "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, params)
}

func (h *Handler) verify(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "VerifyPayment")
	defer span.End()

	var cb paymentdom.Callback
	if err := json.NewDecoder(r.Body).Decode(&cb); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	settlement, err := h.payments.Settle(ctx, cb)
	switch {
	case errors.Is(err, paymentdom.ErrInvalidSignature):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid signature"})
		return
	case errors.Is(err, paymentdom.ErrUnknownOrder):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Order not found"})
		return
	case errors.Is(err, orderdom.ErrInvalidTransition):
		// the order left PENDING through some path other than settlement;
		// this is an integration fault, not a caller mistake
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return
	case err != nil:
		h.log.Error("settlement failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"orderId":     settlement.OrderID,
		"orderNumber": settlement.OrderNumber,
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ListOrders")
	defer span.End()

	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Authentication required"})
		return
	}

	orders, err := h.orders.ListForUser(ctx, userID)
	if err != nil {
		h.log.Error("order list failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if orders == nil {
		orders = []orderdom.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetOrder")
	defer span.End()

	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Authentication required"})
		return
	}

	o, err := h.orders.GetForUser(ctx, chi.URLParam(r, "id"), userID)
	if errors.Is(err, orderdom.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Order not found"})
		return
	}
	if err != nil {
		h.log.Error("order get failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
