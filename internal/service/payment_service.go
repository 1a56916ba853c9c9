package service

import (
	"context"
	"errors"
	"strings"

	"github.com/fjod/printshop/internal/domain"
	"github.com/fjod/printshop/internal/pricing"
	"github.com/fjod/printshop/internal/stripe"
	"go.uber.org/zap"
)

// PaymentService opens and polls payment intents. It never charges or re-authorizes.
type PaymentService struct {
	payment  *PaymentHandler
	rules    pricing.Rules
	currency string
	logger   *zap.Logger
}

func NewPaymentService(payment *PaymentHandler, rules pricing.Rules, currency string, logger *zap.Logger) *PaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{
		payment:  payment,
		rules:    rules,
		currency: strings.ToLower(currency),
		logger:   logger,
	}
}

// AmountFor prices a checkout the same way the order pipeline will, in minor units.
func (s *PaymentService) AmountFor(checkout *domain.CheckoutRequest) int64 {
	if checkout == nil {
		return 0
	}
	totals := pricing.ComputeTotals(pricing.FromOrderItems(checkout.Items), s.rules)
	return pricing.MinorUnits(totals.Total)
}

func (s *PaymentService) CreateIntent(ctx context.Context, req domain.IntentRequest) (*domain.Intent, error) {
	if req.AmountMinorUnits <= 0 {
		return nil, ErrInvalidAmount
	}
	if req.Checkout == nil {
		return nil, &ValidationError{
			Fields: map[string]string{"checkout": "is required"},
			cause:  ErrIncompleteCheckoutData,
		}
	}
	if problems := req.Checkout.Problems(); len(problems) > 0 {
		return nil, &ValidationError{Fields: problems, cause: ErrIncompleteCheckoutData}
	}
	if req.Currency == "" {
		req.Currency = s.currency
	}

	paymentCtx, cancel := context.WithTimeout(ctx, s.payment.timeout)
	defer cancel()
	intent, err := s.payment.processor.CreateIntent(paymentCtx, req)
	if err != nil {
		s.logger.Error("create payment intent failed",
			zap.Int64("amount", req.AmountMinorUnits),
			zap.String("customer_email", req.Checkout.CustomerEmail),
			zap.Error(err))
		return nil, &ProcessorError{Op: "create intent", Err: err}
	}

	s.logger.Info("payment intent created",
		zap.String("intent_id", intent.IntentID),
		zap.Int64("amount", req.AmountMinorUnits),
		zap.String("currency", req.Currency))
	return intent, nil
}

func (s *PaymentService) RetrieveIntent(ctx context.Context, intentID string) (*domain.IntentDetails, error) {
	if strings.TrimSpace(intentID) == "" {
		return nil, ErrNotFound
	}

	paymentCtx, cancel := context.WithTimeout(ctx, s.payment.timeout)
	defer cancel()
	details, err := s.payment.processor.GetIntent(paymentCtx, intentID)
	if errors.Is(err, stripe.ErrIntentNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &ProcessorError{Op: "retrieve intent", Err: err}
	}
	return details, nil
}
