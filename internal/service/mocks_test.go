package service

import (
	"context"
	"sync"
	"time"

	"github.com/fjod/printshop/internal/cache"
	"github.com/fjod/printshop/internal/catalog"
	"github.com/fjod/printshop/internal/domain"
	"github.com/fjod/printshop/internal/repository"
	"github.com/shopspring/decimal"
)

type mockOrderRepository struct {
	m         sync.Mutex
	orders    map[string]*domain.Order
	createErr error
	getErr    error
	created   int
	lookups   int
}

func newMockOrderRepository() *mockOrderRepository {
	return &mockOrderRepository{orders: map[string]*domain.Order{}}
}

func (r *mockOrderRepository) CreateOrder(_ context.Context, order *domain.Order) error {
	r.m.Lock()
	defer r.m.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	if _, ok := r.orders[order.ID]; ok {
		return repository.ErrOrderIDConflict
	}
	for _, o := range r.orders {
		if o.PaymentReference == order.PaymentReference {
			return repository.ErrDuplicatePaymentReference
		}
	}
	stored := *order
	r.orders[order.ID] = &stored
	r.created++
	return nil
}

func (r *mockOrderRepository) GetOrderByID(_ context.Context, id string) (*domain.Order, error) {
	r.m.Lock()
	defer r.m.Unlock()
	r.lookups++
	if r.getErr != nil {
		return nil, r.getErr
	}
	o, ok := r.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *mockOrderRepository) GetOrderByPaymentReference(_ context.Context, ref string) (*domain.Order, error) {
	r.m.Lock()
	defer r.m.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	for _, o := range r.orders {
		if o.PaymentReference == ref {
			cp := *o
			return &cp, nil
		}
	}
	return nil, repository.ErrOrderNotFound
}

func (r *mockOrderRepository) UpdateOrderStatus(_ context.Context, id string, status domain.OrderStatus, tracking string) error {
	r.m.Lock()
	defer r.m.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return repository.ErrOrderNotFound
	}
	o.Status = status
	if tracking != "" {
		o.TrackingReference = tracking
	}
	return nil
}

func (r *mockOrderRepository) count() int {
	r.m.Lock()
	defer r.m.Unlock()
	return len(r.orders)
}

func (r *mockOrderRepository) lookupCount() int {
	r.m.Lock()
	defer r.m.Unlock()
	return r.lookups
}

type mockOrderCache struct {
	m       sync.Mutex
	orders  map[string]*domain.Order
	getErr  error
	deletes int

	// when set, Set reports on setStarted and waits for releaseSet
	setStarted chan struct{}
	releaseSet chan struct{}
}

func newMockOrderCache() *mockOrderCache {
	return &mockOrderCache{orders: map[string]*domain.Order{}}
}

func (c *mockOrderCache) Get(_ context.Context, id string) (*domain.Order, error) {
	c.m.Lock()
	defer c.m.Unlock()
	if c.getErr != nil {
		return nil, c.getErr
	}
	o, ok := c.orders[id]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return o, nil
}

func (c *mockOrderCache) Set(_ context.Context, id string, order *domain.Order) error {
	if c.releaseSet != nil {
		c.setStarted <- struct{}{}
		<-c.releaseSet
	}
	c.m.Lock()
	defer c.m.Unlock()
	c.orders[id] = order
	return nil
}

func (c *mockOrderCache) Delete(_ context.Context, id string) error {
	c.m.Lock()
	defer c.m.Unlock()
	delete(c.orders, id)
	c.deletes++
	return nil
}

func (c *mockOrderCache) has(id string) bool {
	c.m.Lock()
	defer c.m.Unlock()
	_, ok := c.orders[id]
	return ok
}

type mockCartRepository struct {
	m         sync.Mutex
	carts     map[string]*domain.CartSession
	upsertErr error
	gets      int
}

func newMockCartRepository() *mockCartRepository {
	return &mockCartRepository{carts: map[string]*domain.CartSession{}}
}

func (r *mockCartRepository) GetCart(_ context.Context, sessionID string) (*domain.CartSession, error) {
	r.m.Lock()
	defer r.m.Unlock()
	r.gets++
	c, ok := r.carts[sessionID]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	cp := *c
	cp.State.Items = append([]domain.LineItem(nil), c.State.Items...)
	// the mongo repository does not store derived totals
	cp.State.Subtotal = decimal.Zero
	cp.State.ItemCount = 0
	return &cp, nil
}

func (r *mockCartRepository) UpsertCart(_ context.Context, session *domain.CartSession) error {
	r.m.Lock()
	defer r.m.Unlock()
	if r.upsertErr != nil {
		return r.upsertErr
	}
	cp := *session
	r.carts[session.SessionID] = &cp
	return nil
}

func (r *mockCartRepository) DeleteCart(_ context.Context, sessionID string, notAfter time.Time) error {
	r.m.Lock()
	defer r.m.Unlock()
	c, ok := r.carts[sessionID]
	if !ok || c.UpdatedAt.After(notAfter) {
		return repository.ErrCartNotFound
	}
	delete(r.carts, sessionID)
	return nil
}

func (r *mockCartRepository) stored(sessionID string) (*domain.CartSession, bool) {
	r.m.Lock()
	defer r.m.Unlock()
	c, ok := r.carts[sessionID]
	return c, ok
}

type mockCartCache struct {
	m     sync.Mutex
	carts map[string]*domain.CartSession
}

func newMockCartCache() *mockCartCache {
	return &mockCartCache{carts: map[string]*domain.CartSession{}}
}

func (c *mockCartCache) Get(_ context.Context, sessionID string) (*domain.CartSession, error) {
	c.m.Lock()
	defer c.m.Unlock()
	s, ok := c.carts[sessionID]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return s, nil
}

func (c *mockCartCache) Set(_ context.Context, sessionID string, session *domain.CartSession) error {
	c.m.Lock()
	defer c.m.Unlock()
	c.carts[sessionID] = session
	return nil
}

func (c *mockCartCache) Delete(_ context.Context, sessionID string) error {
	c.m.Lock()
	defer c.m.Unlock()
	delete(c.carts, sessionID)
	return nil
}

func (c *mockCartCache) has(sessionID string) bool {
	c.m.Lock()
	defer c.m.Unlock()
	_, ok := c.carts[sessionID]
	return ok
}

type mockCatalog struct {
	variants map[string]*catalog.Variant
	errs     map[string]error
}

func (c *mockCatalog) GetVariant(_ context.Context, productID, size, frame string) (*catalog.Variant, error) {
	if err, ok := c.errs[productID]; ok {
		return nil, err
	}
	v, ok := c.variants[domain.VariantKey(productID, size, frame)]
	if !ok {
		return nil, catalog.ErrVariantNotFound
	}
	return v, nil
}

type mockProcessor struct {
	m        sync.Mutex
	intent   *domain.Intent
	details  *domain.IntentDetails
	err      error
	requests []domain.IntentRequest
	deadline bool
}

func (p *mockProcessor) CreateIntent(ctx context.Context, req domain.IntentRequest) (*domain.Intent, error) {
	p.m.Lock()
	defer p.m.Unlock()
	_, p.deadline = ctx.Deadline()
	p.requests = append(p.requests, req)
	if p.err != nil {
		return nil, p.err
	}
	return p.intent, nil
}

func (p *mockProcessor) GetIntent(_ context.Context, _ string) (*domain.IntentDetails, error) {
	p.m.Lock()
	defer p.m.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	return p.details, nil
}

type mockPartner struct {
	m        sync.Mutex
	ref      string
	err      error
	delay    time.Duration
	onSubmit func()
	requests []domain.FulfillmentRequest
}

func (p *mockPartner) SubmitOrder(ctx context.Context, req domain.FulfillmentRequest) (string, error) {
	p.m.Lock()
	p.requests = append(p.requests, req)
	ref, err, delay, onSubmit := p.ref, p.err, p.delay, p.onSubmit
	p.m.Unlock()

	if onSubmit != nil {
		onSubmit()
	}
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err != nil {
		return "", err
	}
	return ref, nil
}

func (p *mockPartner) calls() int {
	p.m.Lock()
	defer p.m.Unlock()
	return len(p.requests)
}

type mockNotifier struct {
	m      sync.Mutex
	err    error
	orders []*domain.Order
}

func (n *mockNotifier) SendOrderConfirmation(_ context.Context, order *domain.Order) error {
	n.m.Lock()
	defer n.m.Unlock()
	n.orders = append(n.orders, order)
	return n.err
}

func (n *mockNotifier) sent() int {
	n.m.Lock()
	defer n.m.Unlock()
	return len(n.orders)
}

type mockQuoter struct {
	m        sync.Mutex
	options  []domain.ShippingOption
	err      error
	delay    time.Duration
	requests []domain.ShippingEstimateRequest
}

func (q *mockQuoter) ShippingOptions(ctx context.Context, req domain.ShippingEstimateRequest) ([]domain.ShippingOption, error) {
	q.m.Lock()
	q.requests = append(q.requests, req)
	opts, err, delay := q.options, q.err, q.delay
	q.m.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return opts, err
}
