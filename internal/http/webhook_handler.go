package http

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/fjod/printshop/internal/domain"
	"github.com/fjod/printshop/internal/service"
	"go.uber.org/zap"
)

const WebhookSecretHeader = "X-Webhook-Secret"

type StatusAdvancer interface {
	AdvanceStatus(ctx context.Context, orderID string, status domain.OrderStatus, trackingRef string) (*service.StatusView, error)
}

// WebhookHandler receives production and shipping updates from the print partner.
type WebhookHandler struct {
	statuses StatusAdvancer
	secret   []byte
	timeout  time.Duration
	logger   *zap.Logger
}

func NewWebhookHandler(statuses StatusAdvancer, secret string, timeout time.Duration, logger *zap.Logger) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookHandler{
		statuses: statuses,
		secret:   []byte(secret),
		timeout:  timeout,
		logger:   logger,
	}
}

type FulfillmentUpdateDTO struct {
	OrderID           string `json:"order_id"`
	Status            string `json:"status"`
	TrackingReference string `json:"tracking_reference,omitempty"`
}

// POST /internal/webhooks/fulfillment
func (h *WebhookHandler) FulfillmentUpdate(w http.ResponseWriter, r *http.Request) {
	// an unset secret disables the endpoint
	given := []byte(r.Header.Get(WebhookSecretHeader))
	if len(h.secret) == 0 || subtle.ConstantTimeCompare(given, h.secret) != 1 {
		respondError(w, http.StatusUnauthorized, "unauthorized", "invalid webhook secret")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req FulfillmentUpdateDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.OrderID == "" {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order_id is required")
		return
	}

	view, err := h.statuses.AdvanceStatus(ctx, req.OrderID, domain.OrderStatus(req.Status), req.TrackingReference)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}
