package service

import (
	"context"
	"errors"

	"github.com/fjod/printshop/internal/domain"
	"github.com/fjod/printshop/internal/gooten"
	"go.uber.org/zap"
)

var errEmptyFulfillmentReference = errors.New("partner returned no order reference")

func (s *OrderService) dispatch(ctx context.Context, order *domain.Order, log *zap.Logger) error {
	if s.fulfillment == nil {
		order.PendingManualFulfillment = true
		log.Warn("fulfillment disabled, order needs manual fulfillment")
		return nil
	}

	fulfillCtx, cancel := context.WithTimeout(ctx, s.fulfillment.timeout)
	defer cancel()
	ref, err := s.fulfillment.partner.SubmitOrder(fulfillCtx, domain.FulfillmentRequest{
		OrderID:          order.ID,
		Items:            order.Items,
		ShipToAddress:    order.ShipToAddress,
		CustomerEmail:    order.CustomerEmail,
		PaymentReference: order.PaymentReference,
	})
	if err == nil && ref == "" {
		err = errEmptyFulfillmentReference
	}
	if err != nil {
		if isDefinitiveRejection(err) {
			log.Error("fulfillment rejected", zap.Error(err))
			return &FulfillmentRejectedError{PaymentReference: order.PaymentReference, Err: err}
		}
		log.Error("fulfillment outcome unknown", zap.Error(err))
		return &FulfillmentIndeterminateError{
			OrderID:          order.ID,
			PaymentReference: order.PaymentReference,
			Err:              err,
		}
	}

	order.FulfillmentReference = ref
	return nil
}

// isDefinitiveRejection reports whether the partner certainly holds no order.
func isDefinitiveRejection(err error) bool {
	var rejected *gooten.RejectedError
	return errors.As(err, &rejected) || errors.Is(err, gooten.ErrUnavailable)
}
