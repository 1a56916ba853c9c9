package http

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/fjod/printshop/internal/domain"
	"github.com/fjod/printshop/internal/pricing"
	"github.com/fjod/printshop/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type CartManager interface {
	GetCart(ctx context.Context, sessionID string) (*domain.CartSession, error)
	AddItem(ctx context.Context, sessionID string, req service.AddItemRequest) (*domain.CartSession, error)
	UpdateQuantity(ctx context.Context, sessionID, variantKey string, quantity int) (*domain.CartSession, error)
	RemoveItem(ctx context.Context, sessionID, variantKey string) (*domain.CartSession, error)
	Clear(ctx context.Context, sessionID string) (*domain.CartSession, error)
	SetVisible(ctx context.Context, sessionID string, visible *bool) (*domain.CartSession, error)
	Totals(ctx context.Context, sessionID string) (pricing.Totals, error)
	ClearSession(ctx context.Context, sessionID string, placedAt time.Time) error
}

type CartHandler struct {
	carts   CartManager
	timeout time.Duration
	logger  *zap.Logger
}

func NewCartHandler(carts CartManager, timeout time.Duration, logger *zap.Logger) *CartHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CartHandler{
		carts:   carts,
		timeout: timeout,
		logger:  logger,
	}
}

type AddItemRequestDTO struct {
	ProductID string `json:"product_id"`
	Size      string `json:"size"`
	Frame     string `json:"frame"`
	Quantity  int    `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity *int `json:"quantity"`
}

type VisibilityRequestDTO struct {
	// Visible toggles the cart when omitted.
	Visible *bool `json:"visible"`
}

type CartResponseDTO struct {
	SessionID string `json:"session_id"`
	domain.CartState
	UpdatedAt time.Time `json:"updated_at"`
}

func toCartResponse(session *domain.CartSession) CartResponseDTO {
	return CartResponseDTO{
		SessionID: session.SessionID,
		CartState: session.State,
		UpdatedAt: session.UpdatedAt,
	}
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	session, err := h.carts.GetCart(ctx, getSessionID(r.Context()))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, toCartResponse(session))
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Quantity <= 0 || req.Quantity > service.MaxItemQuantity {
		respondError(w, http.StatusBadRequest, "invalid_quantity", quantityMessage(service.MaxItemQuantity))
		return
	}

	session, err := h.carts.AddItem(ctx, getSessionID(r.Context()), service.AddItemRequest{
		ProductID: req.ProductID,
		Size:      req.Size,
		Frame:     req.Frame,
		Quantity:  req.Quantity,
	})
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, toCartResponse(session))
}

// PUT /api/v1/cart/items/{variant_key}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	variantKey := variantKeyParam(r)
	if variantKey == "" {
		respondError(w, http.StatusBadRequest, "invalid_variant_key", "variant_key is required")
		return
	}
	var req UpdateQuantityRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Quantity == nil {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity is required")
		return
	}
	if *req.Quantity > service.MaxItemQuantity {
		respondError(w, http.StatusBadRequest, "invalid_quantity", quantityMessage(service.MaxItemQuantity))
		return
	}

	session, err := h.carts.UpdateQuantity(ctx, getSessionID(r.Context()), variantKey, *req.Quantity)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, toCartResponse(session))
}

// DELETE /api/v1/cart/items/{variant_key}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	variantKey := variantKeyParam(r)
	if variantKey == "" {
		respondError(w, http.StatusBadRequest, "invalid_variant_key", "variant_key is required")
		return
	}

	session, err := h.carts.RemoveItem(ctx, getSessionID(r.Context()), variantKey)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, toCartResponse(session))
}

// DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	session, err := h.carts.Clear(ctx, getSessionID(r.Context()))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, toCartResponse(session))
}

// POST /api/v1/cart/visibility
func (h *CartHandler) SetVisibility(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req VisibilityRequestDTO
	if !decodeOptionalJSON(w, r, &req) {
		return
	}

	session, err := h.carts.SetVisible(ctx, getSessionID(r.Context()), req.Visible)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, toCartResponse(session))
}

// GET /api/v1/cart/totals
func (h *CartHandler) GetTotals(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	totals, err := h.carts.Totals(ctx, getSessionID(r.Context()))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, totals)
}

// variantKeyParam returns the decoded {variant_key}; frame names contain spaces.
func variantKeyParam(r *http.Request) string {
	raw := chi.URLParam(r, "variant_key")
	if key, err := url.PathUnescape(raw); err == nil {
		return key
	}
	return raw
}
