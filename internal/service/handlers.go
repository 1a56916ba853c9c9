package service

import (
	"context"
	"time"

	"github.com/fjod/printshop/internal/domain"
)

type PaymentProcessor interface {
	CreateIntent(ctx context.Context, req domain.IntentRequest) (*domain.Intent, error)
	GetIntent(ctx context.Context, intentID string) (*domain.IntentDetails, error)
}

type FulfillmentPartner interface {
	SubmitOrder(ctx context.Context, req domain.FulfillmentRequest) (string, error)
}

type ShippingQuoter interface {
	ShippingOptions(ctx context.Context, req domain.ShippingEstimateRequest) ([]domain.ShippingOption, error)
}

type Notifier interface {
	SendOrderConfirmation(ctx context.Context, order *domain.Order) error
}

type PaymentHandler struct {
	processor PaymentProcessor
	timeout   time.Duration
}

func NewPaymentHandler(processor PaymentProcessor, timeout time.Duration) *PaymentHandler {
	return &PaymentHandler{
		processor: processor,
		timeout:   timeout,
	}
}

type FulfillmentHandler struct {
	partner FulfillmentPartner
	timeout time.Duration
}

// NewFulfillmentHandler returns nil when partner is nil, which disables dispatch.
func NewFulfillmentHandler(partner FulfillmentPartner, timeout time.Duration) *FulfillmentHandler {
	if partner == nil {
		return nil
	}
	return &FulfillmentHandler{
		partner: partner,
		timeout: timeout,
	}
}

type NotificationHandler struct {
	notifier Notifier
	timeout  time.Duration
}

func NewNotificationHandler(notifier Notifier, timeout time.Duration) *NotificationHandler {
	return &NotificationHandler{
		notifier: notifier,
		timeout:  timeout,
	}
}

type ShippingHandler struct {
	quoter  ShippingQuoter
	timeout time.Duration
}

// NewShippingHandler returns nil when quoter is nil; estimates then report
// ErrShippingUnavailable.
func NewShippingHandler(quoter ShippingQuoter, timeout time.Duration) *ShippingHandler {
	if quoter == nil {
		return nil
	}
	return &ShippingHandler{
		quoter:  quoter,
		timeout: timeout,
	}
}
