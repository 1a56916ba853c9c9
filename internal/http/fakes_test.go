package http

import (
	"context"
	"sync"
	"time"

	"github.com/fjod/printshop/internal/domain"
	"github.com/fjod/printshop/internal/pricing"
	"github.com/fjod/printshop/internal/service"
	"github.com/shopspring/decimal"
)

var orderPlacedAt = time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

type fakeCarts struct {
	m           sync.Mutex
	err         error
	lastKey     string
	lastQty     int
	lastAdd     service.AddItemRequest
	visible     *bool
	toggled     bool
	cleared     []string
	clearedUpTo time.Time
	clearErr    error
	sessionIDs  []string
}

func (f *fakeCarts) session(sessionID string) *domain.CartSession {
	f.sessionIDs = append(f.sessionIDs, sessionID)
	return &domain.CartSession{
		SessionID: sessionID,
		State: domain.CartState{
			Items: []domain.LineItem{{
				VariantKey: "surf-break-01-16x20-Black Frame", ProductID: "surf-break-01",
				UnitPrice: decimal.RequireFromString("29.99"), Quantity: 2,
			}},
			IsVisible: true,
			Subtotal:  decimal.RequireFromString("59.98"),
			ItemCount: 2,
		},
		UpdatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (f *fakeCarts) GetCart(_ context.Context, sessionID string) (*domain.CartSession, error) {
	f.m.Lock()
	defer f.m.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.session(sessionID), nil
}

func (f *fakeCarts) AddItem(_ context.Context, sessionID string, req service.AddItemRequest) (*domain.CartSession, error) {
	f.m.Lock()
	defer f.m.Unlock()
	f.lastAdd = req
	if f.err != nil {
		return nil, f.err
	}
	return f.session(sessionID), nil
}

func (f *fakeCarts) UpdateQuantity(_ context.Context, sessionID, key string, qty int) (*domain.CartSession, error) {
	f.m.Lock()
	defer f.m.Unlock()
	f.lastKey, f.lastQty = key, qty
	if f.err != nil {
		return nil, f.err
	}
	return f.session(sessionID), nil
}

func (f *fakeCarts) RemoveItem(_ context.Context, sessionID, key string) (*domain.CartSession, error) {
	f.m.Lock()
	defer f.m.Unlock()
	f.lastKey = key
	if f.err != nil {
		return nil, f.err
	}
	return f.session(sessionID), nil
}

func (f *fakeCarts) Clear(_ context.Context, sessionID string) (*domain.CartSession, error) {
	f.m.Lock()
	defer f.m.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &domain.CartSession{SessionID: sessionID, State: domain.EmptyCart()}, nil
}

func (f *fakeCarts) SetVisible(_ context.Context, sessionID string, visible *bool) (*domain.CartSession, error) {
	f.m.Lock()
	defer f.m.Unlock()
	f.visible = visible
	f.toggled = visible == nil
	return f.session(sessionID), nil
}

func (f *fakeCarts) Totals(context.Context, string) (pricing.Totals, error) {
	f.m.Lock()
	defer f.m.Unlock()
	if f.err != nil {
		return pricing.Totals{}, f.err
	}
	return pricing.Totals{
		Subtotal: decimal.RequireFromString("59.98"),
		Shipping: decimal.RequireFromString("8.99"),
		Tax:      decimal.RequireFromString("4.2"),
		Total:    decimal.RequireFromString("73.17"),
	}, nil
}

func (f *fakeCarts) ClearSession(_ context.Context, sessionID string, placedAt time.Time) error {
	f.m.Lock()
	defer f.m.Unlock()
	f.cleared = append(f.cleared, sessionID)
	f.clearedUpTo = placedAt
	return f.clearErr
}

type fakePayments struct {
	amount   int64
	err      error
	details  *domain.IntentDetails
	requests []domain.IntentRequest
}

func (f *fakePayments) AmountFor(*domain.CheckoutRequest) int64 { return f.amount }

func (f *fakePayments) CreateIntent(_ context.Context, req domain.IntentRequest) (*domain.Intent, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Intent{IntentID: "pi_1", ClientAuthToken: "pi_1_secret_abc"}, nil
}

func (f *fakePayments) RetrieveIntent(_ context.Context, id string) (*domain.IntentDetails, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.details == nil || f.details.ID != id {
		return nil, service.ErrNotFound
	}
	return f.details, nil
}

type fakeOrders struct {
	err      error
	requests []*domain.CheckoutRequest
}

func (f *fakeOrders) SubmitOrder(_ context.Context, req *domain.CheckoutRequest) (*domain.Order, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Order{
		ID:                   "FL-1700000000000-abcdefghi",
		Items:                req.Items,
		CustomerEmail:        req.CustomerEmail,
		Total:                decimal.RequireFromString("73.17"),
		Currency:             "usd",
		PaymentReference:     req.PaymentReference,
		FulfillmentReference: "gooten-1",
		Status:               domain.OrderStatusProcessing,
		SessionID:            req.SessionID,
		CreatedAt:            orderPlacedAt,
	}, nil
}

type fakeStatuses struct {
	err      error
	advanced []domain.OrderStatus
}

func (f *fakeStatuses) GetStatus(_ context.Context, orderID string) (*service.StatusView, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &service.StatusView{OrderID: orderID, Status: domain.OrderStatusShipped, Total: "73.17"}, nil
}

func (f *fakeStatuses) AdvanceStatus(_ context.Context, orderID string, status domain.OrderStatus, tracking string) (*service.StatusView, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.advanced = append(f.advanced, status)
	return &service.StatusView{OrderID: orderID, Status: status, TrackingReference: tracking}, nil
}

type fakeShipping struct {
	err      error
	options  []domain.ShippingOption
	requests []*domain.ShippingEstimateRequest
}

func (f *fakeShipping) Estimate(_ context.Context, req *domain.ShippingEstimateRequest) ([]domain.ShippingOption, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.options, nil
}
