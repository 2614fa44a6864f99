package checkout

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/crazzype/checkout-go/internal/gateway"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Prefill carries customer details forwarded to the gateway on order creation.
type Prefill struct {
	Name    string
	Email   string `validate:"omitempty,email"`
	Contact string
}

// Notes carries the merchant's free-form user-defined fields.
type Notes struct {
	UDF1 string
	UDF2 string
	UDF3 string
}

// Options is the explicit configuration structure for one checkout attempt.
// Unknown fields are impossible by construction; every recognized field and
// its default is enumerated here.
type Options struct {
	Key         string `validate:"required"`
	Amount      string `validate:"required,numeric"`
	Currency    string
	Name        string
	Description string
	Image       string `validate:"omitempty,url"`
	OrderID     string
	CallbackURL string `validate:"omitempty,url"`
	Prefill     Prefill
	Notes       Notes

	// Handler is invoked synchronously alongside OnSuccess.
	Handler   func(SuccessResponse)
	OnSuccess func(SuccessResponse)
	OnFailure func(*Error)
	OnDismiss func()
	// OnVerification receives the finalization result. It is informational:
	// success delivery never depends on it.
	OnVerification func(gateway.FinalizeResult)

	// Collaborators.
	Gateway   Gateway
	Presenter Presenter
	// Frame is the embedded payment surface handle, when the integrator
	// hosts one. Without it only the status-poll channel is armed.
	Frame  Frame
	Logger zerolog.Logger
}

func (o *Options) applyDefaults() {
	if o.Currency == "" {
		o.Currency = "INR"
	}
	if o.Name == "" {
		o.Name = "CrazzyPe"
	}
	if o.Description == "" {
		o.Description = "Payment"
	}
	if o.Prefill.Name == "" {
		o.Prefill.Name = "Customer"
	}
	if o.Presenter == nil {
		o.Presenter = NopPresenter{}
	}
}

func (o *Options) validateOptions() error {
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("checkout: invalid options: %w", err)
	}
	if o.Gateway == nil {
		return fmt.Errorf("checkout: invalid options: gateway is required")
	}
	return nil
}

// SuccessResponse is delivered to Handler and OnSuccess. It carries the
// result under both the namespaced and the plain key sets for backward
// compatibility.
type SuccessResponse struct {
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
	Signature string `json:"signature"`

	CrazzypeOrderID   string `json:"crazzype_order_id"`
	CrazzypePaymentID string `json:"crazzype_payment_id"`
	CrazzypeSignature string `json:"crazzype_signature"`
}

func newSuccessResponse(orderID, paymentID, signature string) SuccessResponse {
	if paymentID == "" {
		paymentID = orderID
	}
	return SuccessResponse{
		OrderID:           orderID,
		PaymentID:         paymentID,
		Signature:         signature,
		CrazzypeOrderID:   orderID,
		CrazzypePaymentID: paymentID,
		CrazzypeSignature: signature,
	}
}
