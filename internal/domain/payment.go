package domain

import "time"

// IntentStatus is the processor-side state of a payment intent as observed here.
type IntentStatus string

const (
	IntentStatusRequiresPaymentMethod IntentStatus = "requires_payment_method"
	IntentStatusRequiresConfirmation  IntentStatus = "requires_confirmation"
	IntentStatusRequiresAction        IntentStatus = "requires_action"
	IntentStatusProcessing            IntentStatus = "processing"
	IntentStatusRequiresCapture       IntentStatus = "requires_capture"
	IntentStatusSucceeded             IntentStatus = "succeeded"
	IntentStatusCanceled              IntentStatus = "canceled"
	IntentStatusFailed                IntentStatus = "failed"
)

func (s IntentStatus) IsTerminal() bool {
	return s == IntentStatusSucceeded || s == IntentStatusCanceled || s == IntentStatusFailed
}

// Intent is what the client needs to confirm a card payment with the processor.
type Intent struct {
	IntentID        string `json:"intent_id"`
	ClientAuthToken string `json:"client_auth_token"`
}

// IntentDetails is the read-only view returned when polling an intent.
type IntentDetails struct {
	ID               string       `json:"id"`
	Status           IntentStatus `json:"status"`
	AmountMinorUnits int64        `json:"amount"`
	Currency         string       `json:"currency"`
	CreatedAt        time.Time    `json:"created"`
}

// IntentRequest asks the processor to authorize AmountMinorUnits for a checkout.
type IntentRequest struct {
	AmountMinorUnits int64
	Currency         string
	Checkout         *CheckoutRequest
}
