package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound               = errors.New("not found")
	ErrInvalidAmount          = errors.New("amount must be a positive number of minor units")
	ErrIncompleteCheckoutData = errors.New("checkout data is incomplete")
	ErrDuplicatePayment       = errors.New("payment reference already belongs to an order")
	ErrIllegalTransition      = errors.New("illegal transition of order status")
	ErrProductUnavailable     = errors.New("product is not available")
	ErrShippingUnavailable    = errors.New("shipping quotes are unavailable")
)

// ValidationError lists every offending field with a short reason.
type ValidationError struct {
	Fields map[string]string
	cause  error
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + " " + e.Fields[k]
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error { return e.cause }

// ProcessorError is any failure talking to the payment processor. The client may retry.
type ProcessorError struct {
	Op  string
	Err error
}

func (e *ProcessorError) Error() string {
	return fmt.Sprintf("payment processor %s: %v", e.Op, e.Err)
}

func (e *ProcessorError) Unwrap() error { return e.Err }

func (e *ProcessorError) Retryable() bool { return true }

// FulfillmentRejectedError means the partner definitively did not create the order.
// The payment has been authorized and needs manual handling.
type FulfillmentRejectedError struct {
	PaymentReference string
	Err              error
}

func (e *FulfillmentRejectedError) Error() string {
	return fmt.Sprintf("fulfillment rejected for payment %s: %v", e.PaymentReference, e.Err)
}

func (e *FulfillmentRejectedError) Unwrap() error { return e.Err }

// FulfillmentIndeterminateError means the partner may or may not have accepted the order.
// No order was stored; the payment reference is what support reconciles against.
type FulfillmentIndeterminateError struct {
	OrderID          string
	PaymentReference string
	Err              error
}

func (e *FulfillmentIndeterminateError) Error() string {
	return fmt.Sprintf("fulfillment outcome unknown for order %s (payment %s): %v", e.OrderID, e.PaymentReference, e.Err)
}

func (e *FulfillmentIndeterminateError) Unwrap() error { return e.Err }

// PersistenceError means the partner accepted the order but it could not be stored.
type PersistenceError struct {
	OrderID              string
	PaymentReference     string
	FulfillmentReference string
	Err                  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("order %s accepted by partner as %s but not stored (payment %s): %v",
		e.OrderID, e.FulfillmentReference, e.PaymentReference, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// DuplicatePaymentError carries the order that already owns the payment reference.
type DuplicatePaymentError struct {
	PaymentReference string
	OrderID          string
}

func (e *DuplicatePaymentError) Error() string {
	return fmt.Sprintf("payment %s already used by order %s", e.PaymentReference, e.OrderID)
}

func (e *DuplicatePaymentError) Is(target error) bool { return target == ErrDuplicatePayment }
