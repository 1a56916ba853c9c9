package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineItem is one cart row. VariantKey is unique within a cart.
type LineItem struct {
	VariantKey        string           `json:"variant_key"`
	ProductID         string           `json:"product_id"`
	Title             string           `json:"title"`
	Style             string           `json:"style"`
	UnitPrice         decimal.Decimal  `json:"unit_price"`
	OriginalUnitPrice *decimal.Decimal `json:"original_unit_price,omitempty"`
	ImageRef          string           `json:"image_ref"`
	Size              string           `json:"size"`
	Frame             string           `json:"frame"`
	Quantity          int              `json:"quantity"`
}

// LineTotal is unit price times quantity.
func (i LineItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ToOrderItem translates a cart row into the order item submitted at checkout.
func (i LineItem) ToOrderItem() OrderItem {
	return OrderItem{
		SKU:         i.VariantKey,
		Quantity:    i.Quantity,
		ProductID:   i.ProductID,
		ProductName: i.Title,
		UnitPrice:   i.UnitPrice,
		Size:        i.Size,
		Frame:       i.Frame,
	}
}

// CartState is the whole cart of one session. Subtotal and ItemCount are derived
// from Items and are only ever written together with them.
type CartState struct {
	Items     []LineItem      `json:"items"`
	IsVisible bool            `json:"is_visible"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	ItemCount int             `json:"item_count"`
}

// EmptyCart returns the state a new session starts with.
func EmptyCart() CartState {
	return CartState{
		Items:    []LineItem{},
		Subtotal: decimal.Zero,
	}
}

// IndexOf returns the position of the item with the given key, or -1.
func (s CartState) IndexOf(variantKey string) int {
	for i := range s.Items {
		if s.Items[i].VariantKey == variantKey {
			return i
		}
	}
	return -1
}

// OrderItems snapshots the cart for checkout.
func (s CartState) OrderItems() []OrderItem {
	items := make([]OrderItem, len(s.Items))
	for i, item := range s.Items {
		items[i] = item.ToOrderItem()
	}
	return items
}

// CartSession binds a CartState to the browsing session that owns it.
type CartSession struct {
	SessionID string    `json:"session_id"`
	State     CartState `json:"state"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
