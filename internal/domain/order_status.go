package domain

// OrderStatus is a linear lifecycle with no cancellation branch.
type OrderStatus string

const (
	OrderStatusProcessing   OrderStatus = "processing"
	OrderStatusInProduction OrderStatus = "in_production"
	OrderStatusShipped      OrderStatus = "shipped"
	OrderStatusDelivered    OrderStatus = "delivered"
)

var statusRank = map[OrderStatus]int{
	OrderStatusProcessing:   0,
	OrderStatusInProduction: 1,
	OrderStatusShipped:      2,
	OrderStatusDelivered:    3,
}

func (s OrderStatus) IsValid() bool {
	_, ok := statusRank[s]
	return ok
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered
}

// CanTransitionTo allows forward moves only. Skipping a stage is fine, going back is not.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	from, ok := statusRank[s]
	if !ok {
		return false
	}
	to, ok := statusRank[next]
	if !ok {
		return false
	}
	return to > from
}

// String representation (for logging)
func (s OrderStatus) String() string {
	return string(s)
}
