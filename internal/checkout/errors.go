package checkout

import "errors"

// ErrSessionConsumed is returned by Open when the session has already been
// opened or closed. Sessions are single use.
var ErrSessionConsumed = errors.New("checkout: session already consumed")

// Failure reasons surfaced through Error.Reason.
const (
	ReasonOriginNotAllowed = "origin_not_allowed"
	ReasonInvalidKey       = "invalid_key"
	ReasonPremiumRequired  = "premium_feature_required"
	ReasonOrderCreation    = "order_creation_failed"
	ReasonTimeout          = "timeout"
	ReasonPaymentFailed    = "payment_failed"
	ReasonUnknown          = "unknown"
)

// Error codes carried on integrator-facing failures.
const (
	CodeInternalError = "INTERNAL_ERROR"
	CodePaymentFailed = "PAYMENT_FAILED"
)

// Error is the structured failure delivered to OnFailure.
type Error struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Source      string `json:"source"`
	Step        string `json:"step"`
	Reason      string `json:"reason"`
	Err         error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Description
}

// Unwrap allows errors.Is/As to inspect the underlying error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// setupError builds a failure raised during the preflight pipeline.
func setupError(reason, description string, err error) *Error {
	return &Error{
		Code:        CodeInternalError,
		Description: description,
		Source:      "server",
		Step:        "initialization",
		Reason:      reason,
		Err:         err,
	}
}

// paymentError builds a customer-sourced failure observed during payment.
func paymentError(code, description, reason string) *Error {
	if code == "" {
		code = CodePaymentFailed
	}
	if description == "" {
		description = "Payment failed"
	}
	if reason == "" {
		reason = ReasonUnknown
	}
	return &Error{
		Code:        code,
		Description: description,
		Source:      "customer",
		Step:        "payment",
		Reason:      reason,
	}
}
