package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/printshop/internal/domain"
	"github.com/fjod/printshop/pkg/logger"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type PaymentCoordinator interface {
	AmountFor(checkout *domain.CheckoutRequest) int64
	CreateIntent(ctx context.Context, req domain.IntentRequest) (*domain.Intent, error)
	RetrieveIntent(ctx context.Context, intentID string) (*domain.IntentDetails, error)
}

type PaymentHandler struct {
	payments PaymentCoordinator
	timeout  time.Duration
	logger   *zap.Logger
}

func NewPaymentHandler(payments PaymentCoordinator, timeout time.Duration, logger *zap.Logger) *PaymentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentHandler{
		payments: payments,
		timeout:  timeout,
		logger:   logger,
	}
}

type CreateIntentRequestDTO struct {
	Items         []domain.OrderItem `json:"items"`
	ShipToAddress *domain.Address    `json:"ship_to_address"`
	CustomerEmail string             `json:"customer_email"`
	// AmountMinorUnits is what the client displayed. It is compared, never charged.
	AmountMinorUnits *int64 `json:"amount_minor_units,omitempty"`
}

type CreateIntentResponseDTO struct {
	IntentID         string `json:"intent_id"`
	ClientAuthToken  string `json:"client_auth_token"`
	AmountMinorUnits int64  `json:"amount_minor_units"`
}

// POST /api/v1/payment/intents
func (h *PaymentHandler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CreateIntentRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	checkout := &domain.CheckoutRequest{
		ShipToAddress: req.ShipToAddress,
		Items:         req.Items,
		CustomerEmail: req.CustomerEmail,
		SessionID:     getSessionID(r.Context()),
	}
	amount := h.payments.AmountFor(checkout)
	if req.AmountMinorUnits != nil && *req.AmountMinorUnits != amount {
		logger.WithContext(r.Context(), h.logger).Warn("client amount differs from computed amount",
			zap.Int64("client_amount", *req.AmountMinorUnits),
			zap.Int64("computed_amount", amount))
	}

	intent, err := h.payments.CreateIntent(ctx, domain.IntentRequest{
		AmountMinorUnits: amount,
		Checkout:         checkout,
	})
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusCreated, CreateIntentResponseDTO{
		IntentID:         intent.IntentID,
		ClientAuthToken:  intent.ClientAuthToken,
		AmountMinorUnits: amount,
	})
}

// GET /api/v1/payment/intents/{intent_id}
func (h *PaymentHandler) GetIntent(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	details, err := h.payments.RetrieveIntent(ctx, chi.URLParam(r, "intent_id"))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, details)
}
