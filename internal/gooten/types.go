package gooten

import "github.com/shopspring/decimal"

type address struct {
	FirstName   string `json:"FirstName"`
	LastName    string `json:"LastName"`
	Line1       string `json:"Line1"`
	Line2       string `json:"Line2,omitempty"`
	City        string `json:"City"`
	State       string `json:"State"`
	PostalCode  string `json:"PostalCode"`
	CountryCode string `json:"CountryCode"`
	Email       string `json:"Email,omitempty"`
	Phone       string `json:"Phone,omitempty"`
}

type orderItem struct {
	SKU      string            `json:"SKU"`
	Quantity int               `json:"Quantity"`
	ShipType string            `json:"ShipType"`
	SourceID string            `json:"SourceId"`
	Meta     map[string]string `json:"Meta,omitempty"`
}

type payment struct {
	PartnerBillingKey string `json:"PartnerBillingKey"`
}

type orderRequest struct {
	ShipToAddress           address           `json:"ShipToAddress"`
	BillingAddress          address           `json:"BillingAddress"`
	Items                   []orderItem       `json:"Items"`
	Payment                 payment           `json:"Payment"`
	IsInTestMode            bool              `json:"IsInTestMode"`
	SourceID                string            `json:"SourceId"`
	IsPartnerSourceIDUnique bool              `json:"IsPartnerSourceIdUnique"`
	Meta                    map[string]string `json:"Meta,omitempty"`
}

type ErrorDetail struct {
	PropertyName   string `json:"PropertyName"`
	AttemptedValue any    `json:"AttemptedValue"`
	ErrorMessage   string `json:"ErrorMessage"`
}

type orderResponse struct {
	ID                 string        `json:"Id"`
	HadError           bool          `json:"HadError"`
	ErrorReferenceCode string        `json:"ErrorReferenceCode"`
	Errors             []ErrorDetail `json:"Errors"`
}

type shipItem struct {
	SKU      string `json:"SKU"`
	Quantity int    `json:"Quantity"`
}

type shipOptionsRequest struct {
	ShipToAddress address    `json:"ShipToAddress"`
	Items         []shipItem `json:"Items"`
	CurrencyCode  string     `json:"CurrencyCode"`
}

type shipOption struct {
	ID                    string          `json:"Id"`
	Name                  string          `json:"Name"`
	Price                 decimal.Decimal `json:"Price"`
	BusinessDaysInTransit int             `json:"BusinessDaysInTransit"`
	IsAvailable           bool            `json:"IsAvailable"`
}

type shipOptionsResponse struct {
	HadError           bool          `json:"HadError"`
	ErrorReferenceCode string        `json:"ErrorReferenceCode"`
	Errors             []ErrorDetail `json:"Errors"`
	Result             []shipOption  `json:"Result"`
}
