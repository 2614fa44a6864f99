package gateway

import "fmt"

// OrderDraft carries the merchant-supplied fields for order creation.
type OrderDraft struct {
	TxnID          string `json:"txn_id"`
	Amount         string `json:"amount"`
	Description    string `json:"p_info"`
	CustomerName   string `json:"customer_name"`
	CustomerEmail  string `json:"customer_email"`
	CustomerMobile string `json:"customer_mobile"`
	RedirectURL    string `json:"redirect_url"`
	UDF1           string `json:"udf1"`
	UDF2           string `json:"udf2"`
	UDF3           string `json:"udf3"`
}

// OrderRecord is the gateway's view of a created order.
type OrderRecord struct {
	OrderID       string
	PaymentURL    string
	QRCode        string
	UPIIntentLink string
}

// Payable reports whether the record carries enough data to present payment.
func (r OrderRecord) Payable() bool {
	return r.PaymentURL != "" || r.QRCode != "" || r.UPIIntentLink != ""
}

// StatusResult is the normalised outcome of a status check.
type StatusResult struct {
	Terminal    bool
	Success     bool
	PaymentID   string
	RedirectURL string
	Signature   string
}

// FinalizeMode selects the finalization strategy.
type FinalizeMode string

const (
	// FinalizeModeCallback notifies the merchant-configured callback endpoint.
	FinalizeModeCallback FinalizeMode = "callback"
	// FinalizeModeVerify asks the gateway to verify the result signature.
	FinalizeModeVerify FinalizeMode = "verify"
)

// FinalizeRequest carries the signed result of a confirmed payment.
type FinalizeRequest struct {
	Mode        FinalizeMode
	OrderID     string
	PaymentID   string
	Signature   string
	CallbackURL string
}

// FinalizeResult is a tagged result: finalization failures are reported here,
// never as a returned error, so callers can apply their own delivery policy.
type FinalizeResult struct {
	Acknowledged bool
	Verified     bool
	Message      string
	Err          error
}

// StatusError represents a non-success HTTP response from the gateway.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("gateway: status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("gateway: status %d", e.Status)
}

type entitlementResponse struct {
	Status       string `json:"status"`
	HasIncognito bool   `json:"hasIncognito"`
}

type createOrderResponse struct {
	Status        string `json:"status"`
	Message       string `json:"message"`
	OrderID       string `json:"order_id"`
	PaymentURL    string `json:"payment_url"`
	QRCode        string `json:"qr_code"`
	UPIIntentLink string `json:"upi_intent_link"`
}

type statusCheckRequest struct {
	OrderID string `json:"order_id"`
}

type statusCheckResponse struct {
	Status    string `json:"status"`
	TxnStatus string `json:"txn_status"`
	Data      struct {
		UPITxnID    string `json:"upi_txn_id"`
		RedirectURL string `json:"redirect_url"`
	} `json:"data"`
}

type verifyRequest struct {
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
	Signature string `json:"signature"`
}

type callbackRequest struct {
	OrderID     string `json:"order_id"`
	PaymentID   string `json:"payment_id"`
	Signature   string `json:"signature"`
	CallbackURL string `json:"callback_url"`
}

type verifyResponse struct {
	Verified bool   `json:"verified"`
	Message  string `json:"message"`
}

type callbackResponse struct {
	Status   string `json:"status"`
	Verified bool   `json:"verified"`
}
