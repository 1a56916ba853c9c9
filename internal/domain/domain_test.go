package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestVariantKey(t *testing.T) {
	assert.Equal(t, "P1-16x20-Black Frame", VariantKey("P1", "16x20", "Black Frame"))
	assert.Equal(t, VariantKey("P1", "16x20", "Oak"), VariantKey("P1", "16x20", "Oak"))
	assert.NotEqual(t, VariantKey("P1", "16x20", "Oak"), VariantKey("P1", "11x14", "Oak"))
	assert.NotEqual(t, VariantKey("P1", "16x20", "Oak"), VariantKey("P2", "16x20", "Oak"))
}

func TestOrderStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		want     bool
	}{
		{OrderStatusProcessing, OrderStatusInProduction, true},
		{OrderStatusProcessing, OrderStatusShipped, true},
		{OrderStatusInProduction, OrderStatusDelivered, true},
		{OrderStatusShipped, OrderStatusDelivered, true},
		{OrderStatusShipped, OrderStatusShipped, false},
		{OrderStatusShipped, OrderStatusProcessing, false},
		{OrderStatusDelivered, OrderStatusShipped, false},
		{OrderStatusProcessing, OrderStatus("cancelled"), false},
		{OrderStatus("unknown"), OrderStatusShipped, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestOrderStatus_IsTerminal(t *testing.T) {
	assert.True(t, OrderStatusDelivered.IsTerminal())
	assert.False(t, OrderStatusShipped.IsTerminal())
	assert.False(t, OrderStatus("bogus").IsValid())
}

func validRequest() *CheckoutRequest {
	return &CheckoutRequest{
		ShipToAddress: &Address{
			Name:        "Ana Reyes",
			Line1:       "12 Ocean Dr",
			City:        "Miami",
			Region:      "FL",
			PostalCode:  "33139",
			CountryCode: "US",
		},
		Items: []OrderItem{
			{SKU: "P1-16x20-Oak", ProductID: "P1", Quantity: 1, UnitPrice: decimal.RequireFromString("29.99")},
		},
		CustomerEmail: "ana@example.com",
	}
}

func TestCheckoutRequest_Problems(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.Empty(t, validRequest().Problems())
	})

	t.Run("missing address", func(t *testing.T) {
		req := validRequest()
		req.ShipToAddress = nil
		assert.Contains(t, req.Problems(), "ship_to_address")
	})

	t.Run("blank address fields", func(t *testing.T) {
		req := validRequest()
		req.ShipToAddress.City = " "
		req.ShipToAddress.PostalCode = ""
		problems := req.Problems()
		assert.Contains(t, problems, "ship_to_address.city")
		assert.Contains(t, problems, "ship_to_address.postal_code")
		assert.Len(t, problems, 2)
	})

	t.Run("bad email", func(t *testing.T) {
		req := validRequest()
		req.CustomerEmail = "ana.example.com"
		assert.Equal(t, "is not an email address", req.Problems()["customer_email"])
	})

	t.Run("empty items", func(t *testing.T) {
		req := validRequest()
		req.Items = nil
		assert.Contains(t, req.Problems(), "items")
	})

	t.Run("bad item", func(t *testing.T) {
		req := validRequest()
		req.Items = append(req.Items, OrderItem{Quantity: 0, UnitPrice: decimal.NewFromInt(-1)})
		problems := req.Problems()
		assert.Contains(t, problems, "items[1].product_id")
		assert.Contains(t, problems, "items[1].quantity")
		assert.Contains(t, problems, "items[1].unit_price")
	})
}

func TestAddress_SplitName(t *testing.T) {
	first, last := Address{Name: "Ana Maria Reyes"}.SplitName()
	assert.Equal(t, "Ana", first)
	assert.Equal(t, "Maria Reyes", last)

	first, last = Address{Name: "Cher"}.SplitName()
	assert.Equal(t, "Cher", first)
	assert.Empty(t, last)
}

func TestCartState_OrderItems(t *testing.T) {
	state := CartState{Items: []LineItem{
		{VariantKey: "P1-8x10-Oak", ProductID: "P1", Title: "Pier", UnitPrice: decimal.NewFromInt(10), Size: "8x10", Frame: "Oak", Quantity: 2},
	}}
	items := state.OrderItems()
	assert.Equal(t, "P1-8x10-Oak", items[0].SKU)
	assert.Equal(t, "Pier", items[0].ProductName)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, -1, state.IndexOf("missing"))
}

func TestShippingEstimateRequest_Problems(t *testing.T) {
	req := &ShippingEstimateRequest{
		ShipToAddress: &Address{Line1: "1 Ocean Dr", City: "Miami", Region: "FL", CountryCode: "US"},
		Items:         []ShippingItem{{SKU: "", Quantity: 0}},
	}

	problems := req.Problems()

	assert.Equal(t, map[string]string{
		"ship_to_address.postal_code": "is required",
		"items[0].sku":                "is required",
		"items[0].quantity":           "must be at least 1",
	}, problems)

	assert.Equal(t, map[string]string{
		"ship_to_address": "is required",
		"items":           "must not be empty",
	}, (&ShippingEstimateRequest{}).Problems())
}
