// Package gooten submits print orders to the Gooten fulfillment API and quotes shipping.
package gooten

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fjod/printshop/internal/domain"
	"github.com/fjod/printshop/pkg/circuitbreaker"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const orderSource = "printshop"

var (
	// ErrIndeterminate means the request may have reached Gooten but no answer came back.
	ErrIndeterminate = errors.New("fulfillment outcome unknown")
	// ErrUnavailable means nothing was sent: the breaker is open or Gooten could not be reached.
	ErrUnavailable = errors.New("fulfillment partner unavailable")
)

// RejectedError is a definitive refusal: Gooten answered and did not create the order.
type RejectedError struct {
	StatusCode    int
	ReferenceCode string
	Errors        []ErrorDetail
}

func (e *RejectedError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("gooten rejected request (status %d)", e.StatusCode)
	}
	msgs := make([]string, len(e.Errors))
	for i, d := range e.Errors {
		msgs[i] = d.ErrorMessage
	}
	return fmt.Sprintf("gooten rejected request (status %d): %s", e.StatusCode, strings.Join(msgs, "; "))
}

type Config struct {
	BaseURL           string
	RecipeID          string
	PartnerBillingKey string
	TestMode          bool
}

type Client struct {
	cfg        Config
	httpClient *http.Client
	breaker    *circuitbreaker.Breaker[string]
	quotes     *circuitbreaker.Breaker[[]domain.ShippingOption]
	logger     *zap.Logger
}

func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	cbCfg := circuitbreaker.DefaultConfig("gooten")
	cbCfg.IsSuccessful = func(err error) bool {
		var rejected *RejectedError
		return errors.As(err, &rejected)
	}
	quoteCfg := cbCfg
	quoteCfg.Name = "gooten-shipping"
	return &Client{
		cfg: Config{
			BaseURL:           strings.TrimSuffix(cfg.BaseURL, "/"),
			RecipeID:          cfg.RecipeID,
			PartnerBillingKey: cfg.PartnerBillingKey,
			TestMode:          cfg.TestMode,
		},
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		breaker:    circuitbreaker.New[string](cbCfg, logger),
		quotes:     circuitbreaker.New[[]domain.ShippingOption](quoteCfg, logger),
		logger:     logger,
	}
}

// SubmitOrder creates the order at Gooten and returns Gooten's order id. The call
// is bounded by ctx; callers set the deadline.
func (c *Client) SubmitOrder(ctx context.Context, req domain.FulfillmentRequest) (string, error) {
	ref, err := c.breaker.Execute(func() (string, error) {
		return c.submit(ctx, req)
	})
	if circuitbreaker.IsOpen(err) {
		return "", ErrUnavailable
	}
	return ref, err
}

func (c *Client) submit(ctx context.Context, req domain.FulfillmentRequest) (string, error) {
	httpReq, err := c.newRequest(ctx, "/orders", c.buildOrder(req))
	if err != nil {
		return "", err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Warn("gooten order request failed",
			zap.String("order_id", req.OrderID),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		if isDialError(err) {
			return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return "", fmt.Errorf("%w: %v", ErrIndeterminate, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: reading response: %v", ErrIndeterminate, err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return "", fmt.Errorf("%w: gooten returned %d", ErrIndeterminate, resp.StatusCode)
	}

	var out orderResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return "", &RejectedError{StatusCode: resp.StatusCode}
		}
		return "", fmt.Errorf("%w: undecodable response: %v", ErrIndeterminate, err)
	}
	if out.HadError || resp.StatusCode >= http.StatusBadRequest {
		return "", &RejectedError{
			StatusCode:    resp.StatusCode,
			ReferenceCode: out.ErrorReferenceCode,
			Errors:        out.Errors,
		}
	}
	if out.ID == "" {
		return "", fmt.Errorf("%w: response without order id", ErrIndeterminate)
	}

	c.logger.Info("gooten order accepted",
		zap.String("order_id", req.OrderID),
		zap.String("gooten_order_id", out.ID),
	)
	return out.ID, nil
}

// ShippingOptions quotes the shipping methods Gooten offers for the items at the
// destination. Nothing is created at Gooten, so every failure to get an answer is
// ErrUnavailable.
func (c *Client) ShippingOptions(ctx context.Context, req domain.ShippingEstimateRequest) ([]domain.ShippingOption, error) {
	opts, err := c.quotes.Execute(func() ([]domain.ShippingOption, error) {
		return c.shipOptions(ctx, req)
	})
	if circuitbreaker.IsOpen(err) {
		return nil, ErrUnavailable
	}
	return opts, err
}

func (c *Client) shipOptions(ctx context.Context, req domain.ShippingEstimateRequest) ([]domain.ShippingOption, error) {
	currency := strings.ToUpper(req.Currency)
	if currency == "" {
		currency = "USD"
	}
	payload := shipOptionsRequest{CurrencyCode: currency, Items: make([]shipItem, len(req.Items))}
	if req.ShipToAddress != nil {
		payload.ShipToAddress = toAddress(*req.ShipToAddress, "")
	}
	for i, item := range req.Items {
		payload.Items[i] = shipItem{SKU: item.SKU, Quantity: item.Quantity}
	}

	httpReq, err := c.newRequest(ctx, "/shipoptions", payload)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Warn("gooten shipping quote failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrUnavailable, err)
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: gooten returned %d", ErrUnavailable, resp.StatusCode)
	}

	out, err := decodeShipOptions(raw)
	if err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return nil, &RejectedError{StatusCode: resp.StatusCode}
		}
		return nil, fmt.Errorf("%w: undecodable response: %v", ErrUnavailable, err)
	}
	if out.HadError || resp.StatusCode >= http.StatusBadRequest {
		return nil, &RejectedError{
			StatusCode:    resp.StatusCode,
			ReferenceCode: out.ErrorReferenceCode,
			Errors:        out.Errors,
		}
	}

	options := make([]domain.ShippingOption, len(out.Result))
	for i, o := range out.Result {
		options[i] = domain.ShippingOption{
			ID:                    o.ID,
			Name:                  o.Name,
			Price:                 o.Price,
			Currency:              currency,
			BusinessDaysInTransit: o.BusinessDaysInTransit,
			IsAvailable:           o.IsAvailable,
		}
	}
	return options, nil
}

// newRequest builds a JSON POST to path. Gooten wants the recipe id on every call.
func (c *Client) newRequest(ctx context.Context, path string, payload any) (*http.Request, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal gooten request: %w", err)
	}

	u, err := url.Parse(c.cfg.BaseURL + path)
	if err != nil {
		return nil, fmt.Errorf("gooten base url: %w", err)
	}
	q := u.Query()
	q.Set("recipeId", c.cfg.RecipeID)
	u.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build gooten request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	return httpReq, nil
}

func (c *Client) buildOrder(req domain.FulfillmentRequest) orderRequest {
	addr := toAddress(req.ShipToAddress, req.CustomerEmail)
	items := make([]orderItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = orderItem{
			SKU:      item.SKU,
			Quantity: item.Quantity,
			ShipType: "standard",
			SourceID: item.ProductID,
			Meta: map[string]string{
				"ProductName": item.ProductName,
				"Size":        item.Size,
				"Frame":       item.Frame,
			},
		}
	}
	return orderRequest{
		ShipToAddress:           addr,
		BillingAddress:          addr,
		Items:                   items,
		Payment:                 payment{PartnerBillingKey: c.cfg.PartnerBillingKey},
		IsInTestMode:            c.cfg.TestMode,
		SourceID:                req.OrderID,
		IsPartnerSourceIDUnique: true,
		Meta: map[string]string{
			"Source":           orderSource,
			"OrderId":          req.OrderID,
			"CustomerEmail":    req.CustomerEmail,
			"PaymentReference": req.PaymentReference,
		},
	}
}

func toAddress(a domain.Address, fallbackEmail string) address {
	first, last := a.SplitName()
	email := a.Email
	if email == "" {
		email = fallbackEmail
	}
	return address{
		FirstName:   first,
		LastName:    last,
		Line1:       a.Line1,
		Line2:       a.Line2,
		City:        a.City,
		State:       a.Region,
		PostalCode:  a.PostalCode,
		CountryCode: a.CountryCode,
		Email:       email,
		Phone:       a.Phone,
	}
}

// decodeShipOptions accepts both a bare option list and the HadError envelope.
func decodeShipOptions(raw []byte) (shipOptionsResponse, error) {
	var out shipOptionsResponse
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		err := json.Unmarshal(trimmed, &out.Result)
		return out, err
	}
	err := json.Unmarshal(trimmed, &out)
	return out, err
}

// isDialError reports failures where no request bytes can have reached Gooten.
func isDialError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial" && !opErr.Timeout()
}
