package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fjod/printshop/internal/domain"
	"github.com/fjod/printshop/internal/gooten"
	"go.uber.org/zap"
)

// ShippingService quotes partner shipping methods for a destination. Quotes are
// informational; order totals keep the flat shipping rule.
type ShippingService struct {
	shipping *ShippingHandler
	currency string
	logger   *zap.Logger
}

func NewShippingService(shipping *ShippingHandler, currency string, logger *zap.Logger) *ShippingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ShippingService{
		shipping: shipping,
		currency: currency,
		logger:   logger,
	}
}

func (s *ShippingService) Estimate(ctx context.Context, req *domain.ShippingEstimateRequest) ([]domain.ShippingOption, error) {
	if req == nil {
		return nil, &ValidationError{Fields: map[string]string{"request": "is required"}}
	}
	if problems := req.Problems(); len(problems) > 0 {
		return nil, &ValidationError{Fields: problems}
	}
	if s.shipping == nil {
		return nil, fmt.Errorf("%w: fulfillment partner is disabled", ErrShippingUnavailable)
	}

	quote := *req
	if quote.Currency == "" {
		quote.Currency = s.currency
	}

	ctx, cancel := context.WithTimeout(ctx, s.shipping.timeout)
	defer cancel()

	opts, err := s.shipping.quoter.ShippingOptions(ctx, quote)
	if err == nil {
		return opts, nil
	}

	var rejected *gooten.RejectedError
	if errors.As(err, &rejected) {
		return nil, &ValidationError{Fields: partnerFields(rejected)}
	}
	s.logger.Warn("shipping quote failed", zap.Int("items", len(req.Items)), zap.Error(err))
	return nil, fmt.Errorf("%w: %v", ErrShippingUnavailable, err)
}

// partnerFields turns the partner's per-property messages into validation fields.
func partnerFields(rejected *gooten.RejectedError) map[string]string {
	fields := map[string]string{}
	for _, d := range rejected.Errors {
		name := strings.TrimSpace(d.PropertyName)
		if name == "" {
			name = "request"
		}
		fields[name] = d.ErrorMessage
	}
	if len(fields) == 0 {
		fields["request"] = "was rejected by the print partner"
	}
	return fields
}
