// Package pricing derives order totals from cart lines. All arithmetic is decimal;
// rounding to cents happens only where amounts leave the process.
package pricing

import (
	"github.com/fjod/printshop/internal/domain"
	"github.com/shopspring/decimal"
)

// Rules are the deployment-level pricing constants.
type Rules struct {
	FreeShippingThreshold decimal.Decimal
	FlatShipping          decimal.Decimal
	TaxRate               decimal.Decimal
}

func DefaultRules() Rules {
	return Rules{
		FreeShippingThreshold: decimal.RequireFromString("75.00"),
		FlatShipping:          decimal.RequireFromString("8.99"),
		TaxRate:               decimal.RequireFromString("0.07"),
	}
}

type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// ComputeTotals prices a list of line items. It is a pure function of its input.
func ComputeTotals(items []domain.LineItem, rules Rules) Totals {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal())
	}

	shipping := rules.FlatShipping
	if subtotal.GreaterThanOrEqual(rules.FreeShippingThreshold) {
		shipping = decimal.Zero
	}
	tax := subtotal.Mul(rules.TaxRate).Round(2)

	return Totals{
		Subtotal: subtotal,
		Shipping: shipping,
		Tax:      tax,
		Total:    subtotal.Add(shipping).Add(tax),
	}
}

// FromOrderItems lets the order pipeline price submitted items exactly like the cart.
func FromOrderItems(items []domain.OrderItem) []domain.LineItem {
	lines := make([]domain.LineItem, len(items))
	for i, item := range items {
		lines[i] = domain.LineItem{
			VariantKey: item.SKU,
			ProductID:  item.ProductID,
			Title:      item.ProductName,
			UnitPrice:  item.UnitPrice,
			Size:       item.Size,
			Frame:      item.Frame,
			Quantity:   item.Quantity,
		}
	}
	return lines
}

// MinorUnits converts an amount to integer cents for external submission.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Round(2).Shift(2).IntPart()
}

// Format renders an amount for customers, e.g. "$1,234.50".
func Format(amount decimal.Decimal) string {
	s := amount.Abs().StringFixed(2)
	whole, cents := s[:len(s)-3], s[len(s)-2:]
	for i := len(whole) - 3; i > 0; i -= 3 {
		whole = whole[:i] + "," + whole[i:]
	}
	if amount.IsNegative() {
		return "-$" + whole + "." + cents
	}
	return "$" + whole + "." + cents
}
