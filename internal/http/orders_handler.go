package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/printshop/internal/domain"
	"github.com/fjod/printshop/internal/service"
	"github.com/fjod/printshop/pkg/logger"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type StatusReader interface {
	GetStatus(ctx context.Context, orderID string) (*service.StatusView, error)
}

type SessionClearer interface {
	ClearSession(ctx context.Context, sessionID string, placedAt time.Time) error
}

type OrdersHandler struct {
	orders   service.OrderSubmitter
	statuses StatusReader
	carts    SessionClearer
	timeout  time.Duration
	logger   *zap.Logger
}

// NewOrdersHandler takes the submit timeout, which must cover the fulfillment call.
func NewOrdersHandler(
	orders service.OrderSubmitter,
	statuses StatusReader,
	carts SessionClearer,
	timeout time.Duration,
	logger *zap.Logger) *OrdersHandler {

	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrdersHandler{
		orders:   orders,
		statuses: statuses,
		carts:    carts,
		timeout:  timeout,
		logger:   logger,
	}
}

type SubmitOrderRequestDTO struct {
	Items            []domain.OrderItem `json:"items"`
	ShipToAddress    *domain.Address    `json:"ship_to_address"`
	CustomerEmail    string             `json:"customer_email"`
	PaymentReference string             `json:"payment_reference"`
}

// POST /api/v1/orders
func (h *OrdersHandler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req SubmitOrderRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	sessionID := getSessionID(r.Context())
	order, err := h.orders.SubmitOrder(ctx, &domain.CheckoutRequest{
		ShipToAddress:    req.ShipToAddress,
		Items:            req.Items,
		CustomerEmail:    req.CustomerEmail,
		PaymentReference: req.PaymentReference,
		SessionID:        sessionID,
	})
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	// the order-events consumer clears it again if this fails
	clearCtx, clearCancel := context.WithTimeout(context.WithoutCancel(r.Context()), time.Second)
	defer clearCancel()
	if err := h.carts.ClearSession(clearCtx, sessionID, order.CreatedAt); err != nil {
		logger.WithContext(r.Context(), h.logger).Warn("failed to clear cart after order",
			zap.String("order_id", order.ID), zap.Error(err))
	}

	respondJSON(w, http.StatusCreated, order)
}

// GET /api/v1/orders/{order_id}
func (h *OrdersHandler) GetOrderStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	view, err := h.statuses.GetStatus(ctx, chi.URLParam(r, "order_id"))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}
