package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ShippingItem is one partner SKU to quote shipping for.
type ShippingItem struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
}

type ShippingEstimateRequest struct {
	ShipToAddress *Address       `json:"ship_to_address"`
	Items         []ShippingItem `json:"items"`
	Currency      string         `json:"currency,omitempty"`
}

// Problems reports missing or malformed fields keyed by JSON path. A quote needs a
// destination, not a recipient, so the name is optional.
func (r *ShippingEstimateRequest) Problems() map[string]string {
	problems := map[string]string{}
	if r.ShipToAddress == nil {
		problems["ship_to_address"] = "is required"
	} else {
		for k, v := range r.ShipToAddress.Missing("ship_to_address.") {
			if k != "ship_to_address.name" {
				problems[k] = v
			}
		}
	}
	if len(r.Items) == 0 {
		problems["items"] = "must not be empty"
	}
	for i, item := range r.Items {
		if strings.TrimSpace(item.SKU) == "" {
			problems[itemField(i, "sku")] = "is required"
		}
		if item.Quantity < 1 {
			problems[itemField(i, "quantity")] = "must be at least 1"
		}
	}
	return problems
}

// ShippingOption is a partner shipping method with its quoted price.
type ShippingOption struct {
	ID                    string          `json:"id"`
	Name                  string          `json:"name"`
	Price                 decimal.Decimal `json:"price"`
	Currency              string          `json:"currency"`
	BusinessDaysInTransit int             `json:"business_days_in_transit"`
	IsAvailable           bool            `json:"is_available"`
}
