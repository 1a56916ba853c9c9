package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fjod/printshop/internal/domain"
	"github.com/fjod/printshop/internal/pricing"
	"github.com/fjod/printshop/internal/repository"
	"github.com/fjod/printshop/pkg/logger"
	"go.uber.org/zap"
)

const maxOrderIDAttempts = 3

// SubmitOrder turns a paid checkout into an Order: validate, reject reused payment
// references, price on the server, dispatch to the print partner, store, then email.
// Once the partner has the order the remaining steps ignore caller cancellation.
func (s *OrderService) SubmitOrder(ctx context.Context, req *domain.CheckoutRequest) (*domain.Order, error) {
	if err := validateSubmission(req); err != nil {
		return nil, err
	}
	log := logger.WithContext(ctx, s.logger).With(zap.String("payment_reference", req.PaymentReference))

	existing, err := s.repo.GetOrderByPaymentReference(ctx, req.PaymentReference)
	if err == nil {
		log.Info("duplicate order submission", zap.String("order_id", existing.ID))
		return nil, &DuplicatePaymentError{PaymentReference: req.PaymentReference, OrderID: existing.ID}
	}
	if !errors.Is(err, repository.ErrOrderNotFound) {
		return nil, fmt.Errorf("failed to check payment reference: %w", err)
	}

	orderID, err := s.allocateOrderID(ctx, log)
	if err != nil {
		return nil, err
	}
	order := s.buildOrder(orderID, req)
	log = log.With(zap.String("order_id", order.ID))

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.dispatch(ctx, order, log); err != nil {
		return nil, err
	}

	detached := context.WithoutCancel(ctx)
	if err := s.persist(detached, order, log); err != nil {
		return nil, err
	}
	s.notify(detached, order, log)

	log.Info("order placed",
		zap.String("fulfillment_reference", order.FulfillmentReference),
		zap.Bool("pending_manual_fulfillment", order.PendingManualFulfillment),
		zap.String("total", order.Total.StringFixed(2)))
	return order, nil
}

func validateSubmission(req *domain.CheckoutRequest) error {
	if req == nil {
		return &ValidationError{Fields: map[string]string{"body": "is required"}}
	}
	problems := req.Problems()
	if strings.TrimSpace(req.PaymentReference) == "" {
		problems["payment_reference"] = "is required"
	}
	if len(problems) > 0 {
		return &ValidationError{Fields: problems}
	}
	return nil
}

// allocateOrderID draws ids until one is free so the id the partner sees is the id stored.
func (s *OrderService) allocateOrderID(ctx context.Context, log *zap.Logger) (string, error) {
	for attempt := 1; attempt <= maxOrderIDAttempts; attempt++ {
		id, err := s.newID(s.now())
		if err != nil {
			return "", err
		}
		_, err = s.repo.GetOrderByID(ctx, id)
		if errors.Is(err, repository.ErrOrderNotFound) {
			return id, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to check order id: %w", err)
		}
		log.Warn("order id collision", zap.String("order_id", id), zap.Int("attempt", attempt))
	}
	return "", fmt.Errorf("no free order id after %d attempts", maxOrderIDAttempts)
}

// buildOrder prices the submitted items. Client-side totals are never consulted.
func (s *OrderService) buildOrder(id string, req *domain.CheckoutRequest) *domain.Order {
	totals := pricing.ComputeTotals(pricing.FromOrderItems(req.Items), s.rules)
	items := make([]domain.OrderItem, len(req.Items))
	copy(items, req.Items)
	now := s.now().UTC()

	return &domain.Order{
		ID:               id,
		Items:            items,
		ShipToAddress:    *req.ShipToAddress,
		CustomerEmail:    strings.TrimSpace(req.CustomerEmail),
		Subtotal:         totals.Subtotal,
		Shipping:         totals.Shipping,
		Tax:              totals.Tax,
		Total:            totals.Total,
		Currency:         s.currency,
		PaymentReference: req.PaymentReference,
		Status:           domain.OrderStatusProcessing,
		SessionID:        req.SessionID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func (s *OrderService) persist(ctx context.Context, order *domain.Order, log *zap.Logger) error {
	persistCtx, cancel := context.WithTimeout(ctx, s.persistTimeout)
	defer cancel()

	if err := s.repo.CreateOrder(persistCtx, order); err != nil {
		log.Error("order accepted by partner but not stored",
			zap.String("fulfillment_reference", order.FulfillmentReference),
			zap.Error(err))
		return &PersistenceError{
			OrderID:              order.ID,
			PaymentReference:     order.PaymentReference,
			FulfillmentReference: order.FulfillmentReference,
			Err:                  err,
		}
	}
	return nil
}
