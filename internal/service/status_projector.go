package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/printshop/internal/cache"
	"github.com/fjod/printshop/internal/domain"
	"github.com/fjod/printshop/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const deliveryEstimate = 7 * 24 * time.Hour

// StatusView is the customer-facing projection of an Order.
type StatusView struct {
	OrderID                  string             `json:"order_id"`
	Status                   domain.OrderStatus `json:"status"`
	CreatedAt                time.Time          `json:"created_at"`
	Items                    []domain.OrderItem `json:"items"`
	ShipToAddress            domain.Address     `json:"ship_to_address"`
	Total                    string             `json:"total"`
	Currency                 string             `json:"currency"`
	TrackingReference        string             `json:"tracking_reference,omitempty"`
	EstimatedDelivery        *time.Time         `json:"estimated_delivery,omitempty"`
	PendingManualFulfillment bool               `json:"pending_manual_fulfillment,omitempty"`
}

func projectStatus(order *domain.Order) *StatusView {
	view := &StatusView{
		OrderID:                  order.ID,
		Status:                   order.Status,
		CreatedAt:                order.CreatedAt,
		Items:                    order.Items,
		ShipToAddress:            order.ShipToAddress,
		Total:                    order.Total.StringFixed(2),
		Currency:                 order.Currency,
		TrackingReference:        order.TrackingReference,
		PendingManualFulfillment: order.PendingManualFulfillment,
	}
	if order.Status != domain.OrderStatusDelivered {
		eta := order.CreatedAt.Add(deliveryEstimate)
		view.EstimatedDelivery = &eta
	}
	return view
}

type StatusProjector struct {
	repo   repository.OrderRepository
	cache  cache.OrderCache
	sfg    singleflight.Group
	locks  stripedLock
	logger *zap.Logger
}

func NewStatusProjector(repo repository.OrderRepository, cache cache.OrderCache, logger *zap.Logger) *StatusProjector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatusProjector{
		repo:   repo,
		cache:  cache,
		logger: logger,
	}
}

func (p *StatusProjector) GetStatus(ctx context.Context, orderID string) (*StatusView, error) {
	if orderID == "" {
		return nil, ErrNotFound
	}
	mu := p.locks.of(orderID)
	mu.Lock()
	defer mu.Unlock()

	order, err := p.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return projectStatus(order), nil
}

// loadOrder reads through the cache. Callers hold the order lock, so a fill cannot
// land after AdvanceStatus has invalidated the entry.
func (p *StatusProjector) loadOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	v, err, _ := p.sfg.Do(orderID, func() (interface{}, error) {
		order, err := p.cache.Get(ctx, orderID)
		if err == nil {
			return order, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			p.logger.Warn("order cache get failed", zap.String("order_id", orderID), zap.Error(err))
		}

		order, err = p.repo.GetOrderByID(ctx, orderID)
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load order: %w", err)
		}

		setCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if errSet := p.cache.Set(setCtx, orderID, order); errSet != nil {
			p.logger.Warn("order cache set failed", zap.String("order_id", orderID), zap.Error(errSet))
		}
		return order, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Order), nil
}

// AdvanceStatus moves an order forward in its lifecycle. A repeated status with a new
// tracking reference only updates the tracking reference.
func (p *StatusProjector) AdvanceStatus(ctx context.Context, orderID string, status domain.OrderStatus, trackingRef string) (*StatusView, error) {
	if !status.IsValid() {
		return nil, &ValidationError{Fields: map[string]string{"status": "is not a known order status"}}
	}

	mu := p.locks.of(orderID)
	mu.Lock()
	defer mu.Unlock()

	order, err := p.repo.GetOrderByID(ctx, orderID)
	if errors.Is(err, repository.ErrOrderNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	sameStatus := order.Status == status
	if sameStatus && (trackingRef == "" || trackingRef == order.TrackingReference) {
		return projectStatus(order), nil
	}
	if !sameStatus && !order.Status.CanTransitionTo(status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, order.Status, status)
	}

	err = p.repo.UpdateOrderStatus(ctx, orderID, status, trackingRef)
	if errors.Is(err, repository.ErrOrderNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	p.invalidate(orderID)

	p.logger.Info("order status advanced",
		zap.String("order_id", orderID),
		zap.Stringer("from", order.Status),
		zap.Stringer("to", status))

	order.Status = status
	if trackingRef != "" {
		order.TrackingReference = trackingRef
	}
	order.UpdatedAt = time.Now().UTC()
	return projectStatus(order), nil
}

func (p *StatusProjector) invalidate(orderID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := p.cache.Delete(ctx, orderID); err != nil {
		p.logger.Warn("order cache invalidate failed", zap.String("order_id", orderID), zap.Error(err))
	}
}
