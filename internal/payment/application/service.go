package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	cartdom "github.com/vastralabs/vastra/internal/cart/domain"
	orderdom "github.com/vastralabs/vastra/internal/order/domain"
	"github.com/vastralabs/vastra/internal/payment/domain"
	"github.com/vastralabs/vastra/pkg/metrics"
)

const currency = "INR"

// Service coordinates payment settlement: intent creation before payment and
// idempotent confirmation when the gateway's signed callback arrives.
type Service struct {
	log    *slog.Logger
	ledger Ledger
	cart   CartCleaner
	gw     Gateway
	dedupe Deduper
	secret string
	met    *metrics.Metrics
}

func NewService(log *slog.Logger, ledger Ledger, cart CartCleaner, gw Gateway, dedupe Deduper, secret string, met *metrics.Metrics) *Service {
	return &Service{log: log, ledger: ledger, cart: cart, gw: gw, dedupe: dedupe, secret: secret, met: met}
}

// Initiate creates a gateway intent for the order total and records the
// intent id on the order. Only a PENDING order may be initiated: a settled
// order is immutable and must never reach the gateway again. A gateway
// failure leaves the order PENDING with no payment id; the caller may retry,
// no funds have moved.
func (s *Service) Initiate(ctx context.Context, orderID string) (domain.ClientParams, error) {
	o, err := s.ledger.Get(ctx, orderID)
	if err != nil {
		return domain.ClientParams{}, err
	}
	if o.Status != orderdom.StatusPending {
		return domain.ClientParams{}, fmt.Errorf("%w: %s is %s", orderdom.ErrInvalidTransition, o.ID, o.Status)
	}

	intentID, err := s.gw.CreateIntent(ctx, o.TotalCents, currency, o.OrderNumber)
	if err != nil {
		s.log.Error("intent creation failed", "order_id", o.ID, "err", err)
		return domain.ClientParams{}, fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}
	if err := s.ledger.AttachPaymentIntent(ctx, o.ID, intentID); err != nil {
		return domain.ClientParams{}, fmt.Errorf("attach intent: %w", err)
	}

	s.log.Info("payment initiated", "order_id", o.ID, "intent_id", intentID)
	return domain.ClientParams{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		IntentID:    intentID,
		KeyID:       s.gw.KeyID(),
		AmountCents: o.TotalCents,
		Currency:    currency,
	}, nil
}

// Settle processes one gateway callback delivery. It is safe to invoke any
// number of times with the same callback: the signature check mutates
// nothing, and confirmation is a guarded state transition.
func (s *Service) Settle(ctx context.Context, cb domain.Callback) (domain.Settlement, error) {
	if !domain.VerifySignature(cb.OrderRef, cb.PaymentRef, cb.Signature, s.secret) {
		s.met.IncCallbackRejected("invalid_signature")
		s.log.Warn("callback signature rejected", "order_ref", cb.OrderRef, "payment_ref", cb.PaymentRef)
		return domain.Settlement{}, domain.ErrInvalidSignature
	}

	if s.dedupe != nil {
		seen, err := s.dedupe.Seen(ctx, s.dedupe.CallbackKey(cb.OrderRef, cb.PaymentRef))
		if err != nil {
			s.log.Warn("callback dedupe unavailable", "err", err)
		} else if seen {
			// advisory only; the guarded update below stays authoritative
			s.log.Info("duplicate callback delivery", "order_ref", cb.OrderRef)
		}
	}

	o, err := s.ledger.FindByPaymentID(ctx, cb.OrderRef)
	if err != nil {
		if errors.Is(err, orderdom.ErrNotFound) {
			s.met.IncCallbackRejected("unknown_order")
			s.log.Warn("callback for unknown order", "order_ref", cb.OrderRef)
			return domain.Settlement{}, domain.ErrUnknownOrder
		}
		return domain.Settlement{}, err
	}

	confirmed, err := s.ledger.Confirm(ctx, o.ID)
	if err != nil {
		return domain.Settlement{}, err
	}

	// Best effort: a failed cart clear never fails the settlement. The
	// financial transition above is the invariant that matters.
	lines := make([]cartdom.PurchasedLine, 0, len(confirmed.Items))
	for _, it := range confirmed.Items {
		lines = append(lines, cartdom.PurchasedLine{GarmentID: it.GarmentID, Size: it.Size})
	}
	if err := s.cart.ClearPurchased(ctx, confirmed.UserID, lines); err != nil {
		s.log.Warn("cart clear after settlement failed", "order_id", confirmed.ID, "err", err)
	}

	return domain.Settlement{OrderID: confirmed.ID, OrderNumber: confirmed.OrderNumber}, nil
}
