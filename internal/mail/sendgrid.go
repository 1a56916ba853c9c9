// Package mail sends order confirmation emails through SendGrid.
package mail

import (
	"context"
	"errors"
	"fmt"

	"github.com/fjod/printshop/internal/domain"
	"github.com/fjod/printshop/internal/pricing"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

var ErrNotConfigured = errors.New("sendgrid api key is empty")

// sender is the part of *sendgrid.Client the mailer uses.
type sender interface {
	SendWithContext(ctx context.Context, email *sgmail.SGMailV3) (*rest.Response, error)
}

type Config struct {
	APIKey    string
	FromEmail string
	FromName  string
}

type SendGridMailer struct {
	cfg    Config
	client sender
	logger *zap.Logger
}

func NewSendGridMailer(cfg Config, logger *zap.Logger) *SendGridMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SendGridMailer{
		cfg:    cfg,
		client: sendgrid.NewSendClient(cfg.APIKey),
		logger: logger,
	}
}

// SendOrderConfirmation emails the customer a summary of order.
func (m *SendGridMailer) SendOrderConfirmation(ctx context.Context, order *domain.Order) error {
	if m.cfg.APIKey == "" {
		return ErrNotConfigured
	}
	if order.CustomerEmail == "" {
		return fmt.Errorf("order %s has no customer email", order.ID)
	}

	html, text, err := renderConfirmation(order)
	if err != nil {
		return err
	}

	from := sgmail.NewEmail(m.cfg.FromName, m.cfg.FromEmail)
	to := sgmail.NewEmail(order.ShipToAddress.Name, order.CustomerEmail)
	subject := fmt.Sprintf("Order Confirmation - %s", order.ID)
	message := sgmail.NewSingleEmail(from, subject, to, text, html)

	resp, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send error: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send failed: status=%d, body=%s", resp.StatusCode, resp.Body)
	}

	m.logger.Info("order confirmation sent",
		zap.String("order_id", order.ID),
		zap.Int("status", resp.StatusCode),
	)
	return nil
}

type confirmationView struct {
	OrderID   string
	FirstName string
	Items     []confirmationLine
	Subtotal  string
	Shipping  string
	Tax       string
	Total     string
	Address   domain.Address
	Pending   bool
}

type confirmationLine struct {
	Name      string
	Size      string
	Frame     string
	Quantity  int
	UnitPrice string
	LineTotal string
}

func newConfirmationView(order *domain.Order) confirmationView {
	first, _ := order.ShipToAddress.SplitName()
	lines := make([]confirmationLine, len(order.Items))
	for i, item := range order.Items {
		lines[i] = confirmationLine{
			Name:      item.ProductName,
			Size:      item.Size,
			Frame:     item.Frame,
			Quantity:  item.Quantity,
			UnitPrice: pricing.Format(item.UnitPrice),
			LineTotal: pricing.Format(item.LineTotal()),
		}
	}
	shipping := "Free"
	if !order.Shipping.IsZero() {
		shipping = pricing.Format(order.Shipping)
	}
	return confirmationView{
		OrderID:   order.ID,
		FirstName: first,
		Items:     lines,
		Subtotal:  pricing.Format(order.Subtotal),
		Shipping:  shipping,
		Tax:       pricing.Format(order.Tax),
		Total:     pricing.Format(order.Total),
		Address:   order.ShipToAddress,
		Pending:   order.PendingManualFulfillment,
	}
}
