package service

import (
	"context"

	"github.com/fjod/printshop/internal/domain"
	"go.uber.org/zap"
)

// notify is best effort; the order already exists.
func (s *OrderService) notify(ctx context.Context, order *domain.Order, log *zap.Logger) {
	if s.notification == nil {
		return
	}
	notifyCtx, cancel := context.WithTimeout(ctx, s.notification.timeout)
	defer cancel()

	if err := s.notification.notifier.SendOrderConfirmation(notifyCtx, order); err != nil {
		log.Warn("order confirmation email failed",
			zap.String("customer_email", order.CustomerEmail),
			zap.Error(err))
	}
}
