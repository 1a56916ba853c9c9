package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is the durable record of a completed checkout. Monetary fields never
// change after creation.
type Order struct {
	ID                       string          `json:"order_id"`
	Items                    []OrderItem     `json:"items"`
	ShipToAddress            Address         `json:"ship_to_address"`
	CustomerEmail            string          `json:"customer_email"`
	Subtotal                 decimal.Decimal `json:"subtotal"`
	Shipping                 decimal.Decimal `json:"shipping"`
	Tax                      decimal.Decimal `json:"tax"`
	Total                    decimal.Decimal `json:"total"`
	Currency                 string          `json:"currency"`
	PaymentReference         string          `json:"payment_reference"`
	FulfillmentReference     string          `json:"fulfillment_reference,omitempty"`
	PendingManualFulfillment bool            `json:"pending_manual_fulfillment"`
	Status                   OrderStatus     `json:"status"`
	TrackingReference        string          `json:"tracking_reference,omitempty"`
	// SessionID is the browsing session whose cart became this order.
	SessionID                string          `json:"-"`
	CreatedAt                time.Time       `json:"created_at"`
	UpdatedAt                time.Time       `json:"updated_at"`
}

const EventOrderPlaced = "order.placed"

// OrderPlacedEvent is published on order-events once an order is durably stored.
type OrderPlacedEvent struct {
	OrderID          string          `json:"order_id"`
	SessionID        string          `json:"session_id,omitempty"`
	PaymentReference string          `json:"payment_reference"`
	CustomerEmail    string          `json:"customer_email"`
	ItemCount        int             `json:"item_count"`
	Total            decimal.Decimal `json:"total"`
	Currency         string          `json:"currency"`
	PlacedAt         time.Time       `json:"placed_at"`
}

func (o *Order) PlacedEvent() OrderPlacedEvent {
	count := 0
	for _, item := range o.Items {
		count += item.Quantity
	}
	return OrderPlacedEvent{
		OrderID:          o.ID,
		SessionID:        o.SessionID,
		PaymentReference: o.PaymentReference,
		CustomerEmail:    o.CustomerEmail,
		ItemCount:        count,
		Total:            o.Total,
		Currency:         o.Currency,
		PlacedAt:         o.CreatedAt,
	}
}
