package domain

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

type Address struct {
	Name        string `json:"name"`
	Line1       string `json:"line1"`
	Line2       string `json:"line2,omitempty"`
	City        string `json:"city"`
	Region      string `json:"region"`
	PostalCode  string `json:"postal_code"`
	CountryCode string `json:"country_code"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
}

// SplitName splits Name into first and last name at the first space.
func (a Address) SplitName() (string, string) {
	name := strings.TrimSpace(a.Name)
	first, last, _ := strings.Cut(name, " ")
	return first, strings.TrimSpace(last)
}

// Missing returns the required address fields that are blank, keyed by field name.
func (a Address) Missing(prefix string) map[string]string {
	missing := map[string]string{}
	required := []struct {
		field string
		value string
	}{
		{"name", a.Name},
		{"line1", a.Line1},
		{"city", a.City},
		{"region", a.Region},
		{"postal_code", a.PostalCode},
		{"country_code", a.CountryCode},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing[prefix+r.field] = "is required"
		}
	}
	return missing
}

type OrderItem struct {
	SKU         string          `json:"sku"`
	Quantity    int             `json:"quantity"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Size        string          `json:"size,omitempty"`
	Frame       string          `json:"frame,omitempty"`
}

// CheckoutRequest is the transient input of the order pipeline.
type CheckoutRequest struct {
	ShipToAddress    *Address    `json:"ship_to_address"`
	Items            []OrderItem `json:"items"`
	CustomerEmail    string      `json:"customer_email"`
	PaymentReference string      `json:"payment_reference,omitempty"`
	// SessionID names the cart session to clear once the order exists.
	SessionID string `json:"session_id,omitempty"`
}

// Problems lists every missing or malformed field. An empty map means the request
// may proceed to payment and order submission.
func (r *CheckoutRequest) Problems() map[string]string {
	problems := map[string]string{}
	if r.ShipToAddress == nil {
		problems["ship_to_address"] = "is required"
	} else {
		for k, v := range r.ShipToAddress.Missing("ship_to_address.") {
			problems[k] = v
		}
	}
	if strings.TrimSpace(r.CustomerEmail) == "" {
		problems["customer_email"] = "is required"
	} else if !strings.Contains(r.CustomerEmail, "@") {
		problems["customer_email"] = "is not an email address"
	}
	if len(r.Items) == 0 {
		problems["items"] = "must not be empty"
	}
	for i, item := range r.Items {
		if item.ProductID == "" {
			problems[itemField(i, "product_id")] = "is required"
		}
		if item.Quantity < 1 {
			problems[itemField(i, "quantity")] = "must be at least 1"
		}
		if item.UnitPrice.IsNegative() {
			problems[itemField(i, "unit_price")] = "must not be negative"
		}
	}
	return problems
}

func itemField(i int, field string) string {
	return "items[" + strconv.Itoa(i) + "]." + field
}

func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
