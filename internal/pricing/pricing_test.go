package pricing

import (
	"testing"

	"github.com/fjod/printshop/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func line(price string, qty int) domain.LineItem {
	return domain.LineItem{
		VariantKey: domain.VariantKey("P"+price, "16x20", "Black Frame"),
		ProductID:  "P" + price,
		UnitPrice:  decimal.RequireFromString(price),
		Quantity:   qty,
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestComputeTotals(t *testing.T) {
	tests := []struct {
		name     string
		items    []domain.LineItem
		subtotal string
		shipping string
		tax      string
		total    string
	}{
		{"empty cart", nil, "0", "8.99", "0", "8.99"},
		{"below threshold", []domain.LineItem{line("45.00", 1)}, "45.00", "8.99", "3.15", "57.14"},
		{"one cent below threshold", []domain.LineItem{line("74.99", 1)}, "74.99", "8.99", "5.25", "89.23"},
		{"exactly threshold", []domain.LineItem{line("75.00", 1)}, "75.00", "0", "5.25", "80.25"},
		{"multiple lines", []domain.LineItem{line("29.99", 2), line("19.99", 1)}, "79.97", "0", "5.60", "85.57"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeTotals(tt.items, DefaultRules())
			assert.True(t, dec(tt.subtotal).Equal(got.Subtotal), "subtotal %s", got.Subtotal)
			assert.True(t, dec(tt.shipping).Equal(got.Shipping), "shipping %s", got.Shipping)
			assert.True(t, dec(tt.tax).Equal(got.Tax), "tax %s", got.Tax)
			assert.True(t, dec(tt.total).Equal(got.Total), "total %s", got.Total)
		})
	}
}

func TestComputeTotals_NoFloatDrift(t *testing.T) {
	items := make([]domain.LineItem, 0, 100)
	for i := 0; i < 100; i++ {
		items = append(items, line("0.10", 1))
	}
	got := ComputeTotals(items, DefaultRules())
	assert.Equal(t, "10", got.Subtotal.String())
}

func TestComputeTotals_CustomRules(t *testing.T) {
	rules := Rules{
		FreeShippingThreshold: dec("50"),
		FlatShipping:          dec("5"),
		TaxRate:               dec("0.10"),
	}
	got := ComputeTotals([]domain.LineItem{line("50.00", 1)}, rules)
	assert.True(t, got.Shipping.IsZero())
	assert.Equal(t, "55", got.Total.String())
}

func TestFromOrderItems(t *testing.T) {
	items := []domain.OrderItem{
		{SKU: "P1-16x20-Black Frame", ProductID: "P1", ProductName: "Surf Break", Quantity: 3, UnitPrice: dec("12.50")},
	}
	lines := FromOrderItems(items)
	assert.Len(t, lines, 1)
	assert.Equal(t, "P1-16x20-Black Frame", lines[0].VariantKey)
	assert.Equal(t, "37.5", lines[0].LineTotal().String())
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(5714), MinorUnits(dec("57.14")))
	assert.Equal(t, int64(5715), MinorUnits(dec("57.145")))
	assert.Equal(t, int64(0), MinorUnits(decimal.Zero))
	assert.Equal(t, int64(100), MinorUnits(dec("1")))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "$0.00", Format(decimal.Zero))
	assert.Equal(t, "$8.99", Format(decimal.RequireFromString("8.99")))
	assert.Equal(t, "$85.57", Format(decimal.RequireFromString("85.565")))
	assert.Equal(t, "$1,234.50", Format(decimal.RequireFromString("1234.5")))
	assert.Equal(t, "$1,000,000.00", Format(decimal.NewFromInt(1000000)))
	assert.Equal(t, "-$3.10", Format(decimal.RequireFromString("-3.1")))
}
