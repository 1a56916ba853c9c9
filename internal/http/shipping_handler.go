package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/printshop/internal/domain"
	"go.uber.org/zap"
)

type ShippingEstimator interface {
	Estimate(ctx context.Context, req *domain.ShippingEstimateRequest) ([]domain.ShippingOption, error)
}

type ShippingHandler struct {
	shipping ShippingEstimator
	timeout  time.Duration
	logger   *zap.Logger
}

func NewShippingHandler(shipping ShippingEstimator, timeout time.Duration, logger *zap.Logger) *ShippingHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ShippingHandler{
		shipping: shipping,
		timeout:  timeout,
		logger:   logger,
	}
}

type ShippingEstimateResponseDTO struct {
	Options []domain.ShippingOption `json:"options"`
}

// POST /api/v1/shipping/estimate
func (h *ShippingHandler) Estimate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req domain.ShippingEstimateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	options, err := h.shipping.Estimate(ctx, &req)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	if options == nil {
		options = []domain.ShippingOption{}
	}
	respondJSON(w, http.StatusOK, ShippingEstimateResponseDTO{Options: options})
}
