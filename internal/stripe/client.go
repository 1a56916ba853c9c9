// Package stripe adapts the Stripe PaymentIntents API to the payment coordinator.
package stripe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/fjod/printshop/internal/domain"
	"github.com/fjod/printshop/pkg/circuitbreaker"
	stripego "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"go.uber.org/zap"
)

// OrderType tags every intent created by the storefront.
const OrderType = "print-shop-order"

var (
	ErrIntentNotFound = errors.New("payment intent not found")
	// ErrUnavailable means the processor was not called because the breaker is open.
	ErrUnavailable = errors.New("payment processor unavailable")
)

type Client struct {
	api     *client.API
	breaker *circuitbreaker.Breaker[*stripego.PaymentIntent]
	logger  *zap.Logger
}

// NewClient builds a client for secretKey. backends overrides the Stripe endpoints and
// is nil outside tests.
func NewClient(secretKey string, backends *stripego.Backends, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	api := &client.API{}
	api.Init(secretKey, backends)

	cfg := circuitbreaker.DefaultConfig("stripe")
	cfg.IsSuccessful = isClientError
	return &Client{
		api:     api,
		breaker: circuitbreaker.New[*stripego.PaymentIntent](cfg, logger),
		logger:  logger,
	}
}

func (c *Client) CreateIntent(ctx context.Context, req domain.IntentRequest) (*domain.Intent, error) {
	params := &stripego.PaymentIntentParams{
		Amount:   stripego.Int64(req.AmountMinorUnits),
		Currency: stripego.String(req.Currency),
		AutomaticPaymentMethods: &stripego.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripego.Bool(true),
		},
	}
	params.Context = ctx

	if co := req.Checkout; co != nil {
		params.ReceiptEmail = stripego.String(co.CustomerEmail)
		params.AddMetadata("order_type", OrderType)
		params.AddMetadata("customer_email", co.CustomerEmail)
		params.AddMetadata("item_count", strconv.Itoa(len(co.Items)))
		if a := co.ShipToAddress; a != nil {
			params.Shipping = &stripego.ShippingDetailsParams{
				Name: stripego.String(a.Name),
				Address: &stripego.AddressParams{
					Line1:      stripego.String(a.Line1),
					City:       stripego.String(a.City),
					State:      stripego.String(a.Region),
					PostalCode: stripego.String(a.PostalCode),
					Country:    stripego.String(a.CountryCode),
				},
			}
			if a.Line2 != "" {
				params.Shipping.Address.Line2 = stripego.String(a.Line2)
			}
			if a.Phone != "" {
				params.Shipping.Phone = stripego.String(a.Phone)
			}
		}
	}

	pi, err := c.breaker.Execute(func() (*stripego.PaymentIntent, error) {
		return c.api.PaymentIntents.New(params)
	})
	if err != nil {
		return nil, c.wrap("create payment intent", err)
	}

	c.logger.Info("payment intent created",
		zap.String("intent_id", pi.ID),
		zap.Int64("amount", pi.Amount),
		zap.String("currency", string(pi.Currency)),
	)
	return &domain.Intent{IntentID: pi.ID, ClientAuthToken: pi.ClientSecret}, nil
}

func (c *Client) GetIntent(ctx context.Context, intentID string) (*domain.IntentDetails, error) {
	params := &stripego.PaymentIntentParams{}
	params.Context = ctx

	pi, err := c.breaker.Execute(func() (*stripego.PaymentIntent, error) {
		return c.api.PaymentIntents.Get(intentID, params)
	})
	if err != nil {
		var stripeErr *stripego.Error
		if errors.As(err, &stripeErr) &&
			(stripeErr.Code == stripego.ErrorCodeResourceMissing || stripeErr.HTTPStatusCode == http.StatusNotFound) {
			return nil, ErrIntentNotFound
		}
		return nil, c.wrap("retrieve payment intent", err)
	}

	return &domain.IntentDetails{
		ID:               pi.ID,
		Status:           domain.IntentStatus(pi.Status),
		AmountMinorUnits: pi.Amount,
		Currency:         string(pi.Currency),
		CreatedAt:        time.Unix(pi.Created, 0).UTC(),
	}, nil
}

func (c *Client) wrap(op string, err error) error {
	if circuitbreaker.IsOpen(err) {
		return fmt.Errorf("%s: %w", op, ErrUnavailable)
	}
	c.logger.Warn("stripe call failed", zap.String("op", op), zap.Error(err))
	return fmt.Errorf("%s: %w", op, err)
}

// isClientError keeps card and request errors from tripping the breaker; only
// processor-side failures count.
func isClientError(err error) bool {
	var stripeErr *stripego.Error
	if !errors.As(err, &stripeErr) {
		return false
	}
	return stripeErr.HTTPStatusCode >= 400 && stripeErr.HTTPStatusCode < 500
}
