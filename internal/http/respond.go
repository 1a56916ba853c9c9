package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/fjod/printshop/internal/service"
	"github.com/fjod/printshop/pkg/logger"
	"go.uber.org/zap"
)

const maxRequestBodySize = 1 << 20 // 1MB

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

func respondErrorDetails(w http.ResponseWriter, status int, code, message string, details any) {
	respondJSON(w, status, ErrorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	return decodeBody(w, r, dst, false)
}

// decodeOptionalJSON leaves dst untouched when the body is empty, whatever the
// Content-Length says (chunked requests report -1).
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	return decodeBody(w, r, dst, true)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any, optional bool) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || (optional && errors.Is(err, io.EOF)) {
		return true
	}
	respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
	return false
}

// handleServiceError maps service failures to status codes. Anything unrecognized is
// logged and reported as a bare 500.
func handleServiceError(w http.ResponseWriter, r *http.Request, l *zap.Logger, err error) {
	var (
		validation    *service.ValidationError
		processor     *service.ProcessorError
		rejected      *service.FulfillmentRejectedError
		indeterminate *service.FulfillmentIndeterminateError
		persistence   *service.PersistenceError
		duplicate     *service.DuplicatePaymentError
	)

	switch {
	case errors.As(err, &validation):
		code := "validation_failed"
		if errors.Is(err, service.ErrIncompleteCheckoutData) {
			code = "incomplete_checkout_data"
		}
		respondErrorDetails(w, http.StatusBadRequest, code, "request is invalid",
			map[string]any{"fields": validation.Fields})
	case errors.Is(err, service.ErrInvalidAmount):
		respondError(w, http.StatusBadRequest, "invalid_amount", err.Error())
	case errors.As(err, &duplicate):
		respondErrorDetails(w, http.StatusConflict, "duplicate_payment",
			"an order already exists for this payment",
			map[string]string{"order_id": duplicate.OrderID})
	case errors.As(err, &processor):
		respondErrorDetails(w, http.StatusBadGateway, "payment_processor_error",
			"payment processor is unavailable, please retry",
			map[string]bool{"retryable": processor.Retryable()})
	case errors.As(err, &rejected):
		respondErrorDetails(w, http.StatusUnprocessableEntity, "fulfillment_rejected",
			"the print partner could not accept this order; your payment will be handled by support",
			map[string]string{"payment_reference": rejected.PaymentReference})
	case errors.As(err, &indeterminate):
		respondErrorDetails(w, http.StatusGatewayTimeout, "fulfillment_indeterminate",
			"we could not confirm your order with the print partner; support will reconcile it",
			map[string]string{"payment_reference": indeterminate.PaymentReference})
	case errors.As(err, &persistence):
		respondErrorDetails(w, http.StatusInternalServerError, "order_incomplete",
			"your order was accepted but could not be recorded; please contact support",
			map[string]string{
				"payment_reference":     persistence.PaymentReference,
				"fulfillment_reference": persistence.FulfillmentReference,
			})
	case errors.Is(err, service.ErrShippingUnavailable):
		respondError(w, http.StatusServiceUnavailable, "shipping_unavailable",
			"shipping quotes are unavailable right now")
	case errors.Is(err, service.ErrProductUnavailable):
		respondError(w, http.StatusNotFound, "product_unavailable", "product is not available")
	case errors.Is(err, service.ErrNotFound):
		respondError(w, http.StatusNotFound, "not_found", "resource not found")
	case errors.Is(err, service.ErrIllegalTransition):
		respondError(w, http.StatusConflict, "illegal_transition", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "timeout", "request timed out")
	default:
		logger.WithContext(r.Context(), l).Error("unhandled error",
			zap.String("path", r.URL.Path), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func quantityMessage(max int) string {
	return fmt.Sprintf("quantity must be between 1 and %d", max)
}
