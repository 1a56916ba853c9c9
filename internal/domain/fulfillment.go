package domain

// FulfillmentRequest is what the print partner needs to produce and ship an order.
type FulfillmentRequest struct {
	OrderID          string
	Items            []OrderItem
	ShipToAddress    Address
	CustomerEmail    string
	PaymentReference string
}
