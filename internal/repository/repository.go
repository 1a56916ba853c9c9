package repository

import (
	"context"
	"errors"
	"time"

	"github.com/fjod/printshop/internal/domain"
	"github.com/google/uuid"
)

var (
	ErrOrderNotFound             = errors.New("order not found")
	ErrOrderIDConflict           = errors.New("order id already in use")
	ErrDuplicatePaymentReference = errors.New("an order for this payment reference already exists")
	ErrCartNotFound              = errors.New("cart not found")
)

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

// OutboxEvent is a row of outbox_events. Payload is already JSON.
type OutboxEvent struct {
	ID          uuid.UUID
	AggregateID string
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

type OrderRepository interface {
	// CreateOrder inserts the order and its order.placed outbox event in one transaction.
	CreateOrder(ctx context.Context, order *domain.Order) error
	GetOrderByID(ctx context.Context, id string) (*domain.Order, error)
	GetOrderByPaymentReference(ctx context.Context, paymentReference string) (*domain.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus, trackingReference string) error
}

type OutboxRepository interface {
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, id uuid.UUID) error
	DeleteProcessedEvents(ctx context.Context, olderThan time.Time) (int64, error)
}

// CartRepository stores one cart per browsing session.
type CartRepository interface {
	GetCart(ctx context.Context, sessionID string) (*domain.CartSession, error)
	UpsertCart(ctx context.Context, session *domain.CartSession) error
	// DeleteCart removes the session cart unless it was updated after notAfter.
	// ErrCartNotFound means there was no cart that old.
	DeleteCart(ctx context.Context, sessionID string, notAfter time.Time) error
}
