package cache

import (
	"context"
	"errors"

	"github.com/fjod/printshop/internal/domain"
)

type CartCache interface {
	Get(ctx context.Context, sessionID string) (*domain.CartSession, error)
	Set(ctx context.Context, sessionID string, cart *domain.CartSession) error
	Delete(ctx context.Context, sessionID string) error
}

type OrderCache interface {
	Get(ctx context.Context, orderID string) (*domain.Order, error)
	Set(ctx context.Context, orderID string, order *domain.Order) error
	Delete(ctx context.Context, orderID string) error
}

var ErrCacheMiss = errors.New("cache miss")
