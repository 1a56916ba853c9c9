package service

import (
	"context"
	"strings"
	"time"

	"github.com/fjod/printshop/internal/domain"
	"github.com/fjod/printshop/internal/pricing"
	"github.com/fjod/printshop/internal/repository"
	"go.uber.org/zap"
)

type OrderSubmitter interface {
	SubmitOrder(ctx context.Context, req *domain.CheckoutRequest) (*domain.Order, error)
}

type OrderConfig struct {
	Rules          pricing.Rules
	Currency       string
	PersistTimeout time.Duration
}

type OrderService struct {
	repo           repository.OrderRepository
	fulfillment    *FulfillmentHandler
	notification   *NotificationHandler
	rules          pricing.Rules
	currency       string
	persistTimeout time.Duration
	logger         *zap.Logger

	now   func() time.Time
	newID func(time.Time) (string, error)
}

// NewOrderService wires the pipeline. A nil fulfillment handler stores orders as
// pending manual fulfillment; a nil notification handler skips the email.
func NewOrderService(
	repo repository.OrderRepository,
	fulfillment *FulfillmentHandler,
	notification *NotificationHandler,
	cfg OrderConfig,
	log *zap.Logger) *OrderService {

	if log == nil {
		log = zap.NewNop()
	}
	if cfg.PersistTimeout <= 0 {
		cfg.PersistTimeout = 10 * time.Second
	}
	return &OrderService{
		repo:           repo,
		fulfillment:    fulfillment,
		notification:   notification,
		rules:          cfg.Rules,
		currency:       strings.ToLower(cfg.Currency),
		persistTimeout: cfg.PersistTimeout,
		logger:         log,
		now:            time.Now,
		newID:          newOrderID,
	}
}
