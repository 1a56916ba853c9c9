package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fjod/printshop/internal/cache"
	"github.com/fjod/printshop/internal/cart"
	"github.com/fjod/printshop/internal/catalog"
	"github.com/fjod/printshop/internal/domain"
	"github.com/fjod/printshop/internal/pricing"
	"github.com/fjod/printshop/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const MaxItemQuantity = 99

// AddItemRequest names a catalog variant; everything else comes from the catalog.
type AddItemRequest struct {
	ProductID string `json:"product_id"`
	Size      string `json:"size"`
	Frame     string `json:"frame"`
	Quantity  int    `json:"quantity"`
}

func (r AddItemRequest) validate() error {
	fields := map[string]string{}
	if strings.TrimSpace(r.ProductID) == "" {
		fields["product_id"] = "is required"
	}
	if strings.TrimSpace(r.Size) == "" {
		fields["size"] = "is required"
	}
	if strings.TrimSpace(r.Frame) == "" {
		fields["frame"] = "is required"
	}
	if r.Quantity < 1 || r.Quantity > MaxItemQuantity {
		fields["quantity"] = fmt.Sprintf("must be between 1 and %d", MaxItemQuantity)
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// CartService keeps one cart per browsing session. Commands for the same session are
// serialized inside this process; the stored state is always the output of cart.Apply.
type CartService struct {
	repo    repository.CartRepository
	cache   cache.CartCache
	catalog catalog.Lookup
	rules   pricing.Rules
	sfg     singleflight.Group
	locks   stripedLock
	logger  *zap.Logger
	now     func() time.Time
}

func NewCartService(
	repo repository.CartRepository,
	cache cache.CartCache,
	lookup catalog.Lookup,
	rules pricing.Rules,
	logger *zap.Logger) *CartService {

	if logger == nil {
		logger = zap.NewNop()
	}
	return &CartService{
		repo:    repo,
		cache:   cache,
		catalog: lookup,
		rules:   rules,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *CartService) GetCart(ctx context.Context, sessionID string) (*domain.CartSession, error) {
	mu := s.locks.of(sessionID)
	mu.Lock()
	defer mu.Unlock()
	return s.load(ctx, sessionID)
}

// load reads through the cache. Callers hold the session lock, so the cache fill
// cannot race an invalidation from a concurrent command.
func (s *CartService) load(ctx context.Context, sessionID string) (*domain.CartSession, error) {
	v, err, _ := s.sfg.Do(sessionID, func() (interface{}, error) {
		session, err := s.cache.Get(ctx, sessionID)
		if err == nil {
			return session, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("cart cache get failed", zap.String("session_id", sessionID), zap.Error(err))
		}

		session, err = s.repo.GetCart(ctx, sessionID)
		if errors.Is(err, repository.ErrCartNotFound) {
			now := s.now().UTC()
			return &domain.CartSession{
				SessionID: sessionID,
				State:     domain.EmptyCart(),
				CreatedAt: now,
				UpdatedAt: now,
			}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load cart: %w", err)
		}
		// stored snapshots carry items only; totals are derived here
		session.State = cart.Restore(session.State).State()

		setCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if errSet := s.cache.Set(setCtx, sessionID, session); errSet != nil {
			s.logger.Warn("cart cache set failed", zap.String("session_id", sessionID), zap.Error(errSet))
		}
		return session, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.CartSession), nil
}

func (s *CartService) AddItem(ctx context.Context, sessionID string, req AddItemRequest) (*domain.CartSession, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	variant, err := s.catalog.GetVariant(ctx, req.ProductID, req.Size, req.Frame)
	switch {
	case errors.Is(err, catalog.ErrProductNotFound), errors.Is(err, catalog.ErrVariantNotFound):
		return nil, fmt.Errorf("%w: %s %s %s", ErrNotFound, req.ProductID, req.Size, req.Frame)
	case errors.Is(err, catalog.ErrProductUnavailable):
		return nil, fmt.Errorf("%w: %s", ErrProductUnavailable, req.ProductID)
	case err != nil:
		return nil, fmt.Errorf("failed to look up product: %w", err)
	}

	return s.apply(ctx, sessionID, cart.AddItem{Candidate: cart.Candidate{
		ProductID:         variant.ProductID,
		Title:             variant.Title,
		Style:             variant.Style,
		UnitPrice:         variant.UnitPrice,
		OriginalUnitPrice: variant.OriginalUnitPrice,
		ImageRef:          variant.ImageRef,
		Size:              variant.Size,
		Frame:             variant.Frame,
		Quantity:          req.Quantity,
	}})
}

// UpdateQuantity sets a line's quantity; zero or less removes the line.
func (s *CartService) UpdateQuantity(ctx context.Context, sessionID, variantKey string, quantity int) (*domain.CartSession, error) {
	if quantity > MaxItemQuantity {
		return nil, &ValidationError{Fields: map[string]string{
			"quantity": fmt.Sprintf("must be at most %d", MaxItemQuantity),
		}}
	}
	return s.apply(ctx, sessionID, cart.UpdateQuantity{VariantKey: variantKey, Quantity: quantity})
}

func (s *CartService) RemoveItem(ctx context.Context, sessionID, variantKey string) (*domain.CartSession, error) {
	return s.apply(ctx, sessionID, cart.RemoveItem{VariantKey: variantKey})
}

func (s *CartService) Clear(ctx context.Context, sessionID string) (*domain.CartSession, error) {
	return s.apply(ctx, sessionID, cart.Clear{})
}

// SetVisible opens or closes the cart panel; a nil visible toggles it.
func (s *CartService) SetVisible(ctx context.Context, sessionID string, visible *bool) (*domain.CartSession, error) {
	if visible == nil {
		return s.apply(ctx, sessionID, cart.ToggleVisible{})
	}
	return s.apply(ctx, sessionID, cart.SetVisible{Visible: *visible})
}

func (s *CartService) Totals(ctx context.Context, sessionID string) (pricing.Totals, error) {
	session, err := s.GetCart(ctx, sessionID)
	if err != nil {
		return pricing.Totals{}, err
	}
	return pricing.ComputeTotals(session.State.Items, s.rules), nil
}

// ClearSession drops the cart that became an order placed at placedAt. A cart the
// shopper touched after that is a new cart and is kept. Clearing an already cleared
// session is not an error.
func (s *CartService) ClearSession(ctx context.Context, sessionID string, placedAt time.Time) error {
	if sessionID == "" {
		return nil
	}
	mu := s.locks.of(sessionID)
	mu.Lock()
	defer mu.Unlock()

	err := s.repo.DeleteCart(ctx, sessionID, placedAt)
	if err != nil && !errors.Is(err, repository.ErrCartNotFound) {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	s.invalidate(sessionID)
	return nil
}

func (s *CartService) apply(ctx context.Context, sessionID string, cmd cart.Command) (*domain.CartSession, error) {
	mu := s.locks.of(sessionID)
	mu.Lock()
	defer mu.Unlock()

	current, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	store := cart.Restore(current.State)
	next := &domain.CartSession{
		SessionID: sessionID,
		State:     store.Dispatch(cmd),
		CreatedAt: current.CreatedAt,
		UpdatedAt: s.now().UTC(),
	}

	if err := s.repo.UpsertCart(ctx, next); err != nil {
		s.logger.Error("cart save failed", zap.String("session_id", sessionID), zap.Error(err))
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}
	s.invalidate(sessionID)
	return next, nil
}

func (s *CartService) invalidate(sessionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, sessionID); err != nil {
		s.logger.Warn("cart cache invalidate failed", zap.String("session_id", sessionID), zap.Error(err))
	}
}
