package application

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vastralabs/vastra/internal/order/domain"
	"github.com/vastralabs/vastra/pkg/metrics"
	"github.com/vastralabs/vastra/pkg/tracing"
)

// LineInput is one requested order line before price resolution.
type LineInput struct {
	GarmentID string `json:"garmentId"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
}

// Service is the order ledger: it creates orders from priced snapshots and
// owns the order state machine. It never talks to the payment gateway.
type Service struct {
	log     *slog.Logger
	repo    OrderRepository
	catalog GarmentCatalog
	met     *metrics.Metrics
}

func NewService(log *slog.Logger, repo OrderRepository, catalog GarmentCatalog, met *metrics.Metrics) *Service {
	return &Service{log: log, repo: repo, catalog: catalog, met: met}
}

// Create resolves all garments in one batch, freezes unit prices, and
// persists order plus items plus the OrderCreated event atomically.
func (s *Service) Create(ctx context.Context, userID string, lines []LineInput, addr domain.Address) (domain.Order, error) {
	if len(lines) == 0 {
		return domain.Order{}, domain.ErrEmptyOrder
	}

	// Duplicate (garment, size) lines fold into one; the ledger stores at
	// most one row per pair.
	merged := make([]LineInput, 0, len(lines))
	seen := map[[2]string]int{}
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		if l.Quantity < 1 {
			return domain.Order{}, fmt.Errorf("%w: garment %s", domain.ErrInvalidQuantity, l.GarmentID)
		}
		key := [2]string{l.GarmentID, l.Size}
		if i, ok := seen[key]; ok {
			merged[i].Quantity += l.Quantity
			continue
		}
		seen[key] = len(merged)
		merged = append(merged, l)
		ids = append(ids, l.GarmentID)
	}
	lines = merged

	garments, err := s.catalog.GetBatch(ctx, ids)
	if err != nil {
		return domain.Order{}, fmt.Errorf("resolve garments: %w", err)
	}

	items := make([]domain.Item, 0, len(lines))
	for _, l := range lines {
		g, ok := garments[l.GarmentID]
		if !ok {
			return domain.Order{}, fmt.Errorf("%w: %s", domain.ErrUnknownGarment, l.GarmentID)
		}
		items = append(items, domain.Item{
			GarmentID:      l.GarmentID,
			Size:           l.Size,
			Quantity:       l.Quantity,
			UnitPriceCents: g.PriceCents,
		})
	}

	o := domain.New(uuid.NewString(), userID, items, addr, time.Now())

	payload, err := json.Marshal(domain.Created{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		UserID:      o.UserID,
		TotalCents:  o.TotalCents,
		Items:       o.Items,
	})
	if err != nil {
		return domain.Order{}, err
	}
	if err := s.repo.CreateWithOutbox(ctx, o, payload, tracing.Traceparent(ctx)); err != nil {
		return domain.Order{}, fmt.Errorf("persist order: %w", err)
	}

	s.met.IncOrderCreated()
	s.log.Info("order created", "order_id", o.ID, "order_number", o.OrderNumber, "total_cents", o.TotalCents)
	return o, nil
}

// Confirm moves PENDING to CONFIRMED and payment status to PAID in one
// guarded update. Confirming an already CONFIRMED order is a no-op success;
// any other starting state is an invalid transition.
func (s *Service) Confirm(ctx context.Context, orderID string) (domain.Order, error) {
	o, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	switch o.Status {
	case domain.StatusConfirmed:
		return o, nil
	case domain.StatusPending:
	default:
		return domain.Order{}, fmt.Errorf("%w: %s is %s", domain.ErrInvalidTransition, orderID, o.Status)
	}

	payload, err := json.Marshal(domain.Confirmed{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		UserID:      o.UserID,
		PaymentID:   o.PaymentID,
		TotalCents:  o.TotalCents,
	})
	if err != nil {
		return domain.Order{}, err
	}

	won, status, err := s.repo.ConfirmWithOutbox(ctx, orderID, payload, tracing.Traceparent(ctx))
	if err != nil {
		return domain.Order{}, err
	}
	if !won && status != domain.StatusConfirmed {
		// a concurrent writer moved the order somewhere else entirely
		return domain.Order{}, fmt.Errorf("%w: %s is %s", domain.ErrInvalidTransition, orderID, status)
	}
	if won {
		s.met.IncOrderConfirmed()
		s.log.Info("order confirmed", "order_id", o.ID, "order_number", o.OrderNumber)
	}

	o.Status = domain.StatusConfirmed
	o.PaymentStatus = domain.PaymentPaid
	return o, nil
}

// AttachPaymentIntent records the gateway intent id on a pending order.
func (s *Service) AttachPaymentIntent(ctx context.Context, orderID, intentID string) error {
	return s.repo.AttachPaymentIntent(ctx, orderID, intentID)
}

func (s *Service) Get(ctx context.Context, id string) (domain.Order, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) GetForUser(ctx context.Context, id, userID string) (domain.Order, error) {
	return s.repo.GetForUser(ctx, id, userID)
}

func (s *Service) ListForUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return s.repo.ListForUser(ctx, userID)
}

func (s *Service) FindByPaymentID(ctx context.Context, paymentID string) (domain.Order, error) {
	return s.repo.FindByPaymentID(ctx, paymentID)
}
