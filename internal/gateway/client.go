package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

const (
	pathCheckEntitlement = "/api/orders/check-incognito-feature"
	pathCreateOrder      = "/api/orders/create-order"
	pathCheckStatus      = "/api/orders/check-order-status"
	pathVerifyPayment    = "/api/orders/verify-payment"
	pathServerCallback   = "/api/orders/incognito-callback"
)

// Client issues the four checkout operations against the merchant API.
// Every operation is a single request with no built-in retry; steady-state
// retry policy belongs to the caller.
type Client struct {
	rest   *resty.Client
	logger zerolog.Logger
}

// NewClient builds a gateway client authenticated with the merchant key.
func NewClient(baseURL, key string, timeout time.Duration, logger zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	rest := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetAuthToken(key).
		SetTimeout(timeout).
		SetHeader("User-Agent", "crazzype-checkout-go/1.0")
	return &Client{
		rest:   rest,
		logger: logger.With().Str("component", "gateway").Logger(),
	}
}

// CheckEntitlement asks whether the merchant key carries the incognito
// checkout feature. 401/403 responses surface as *StatusError so callers can
// distinguish credential and origin rejections from plain transport failures.
func (c *Client) CheckEntitlement(ctx context.Context) (bool, error) {
	var out entitlementResponse
	resp, err := c.rest.R().
		SetContext(ctx).
		SetResult(&out).
		Get(pathCheckEntitlement)
	if err != nil {
		return false, fmt.Errorf("check entitlement: %w", err)
	}
	if resp.IsError() {
		return false, &StatusError{Status: resp.StatusCode()}
	}
	return out.Status == "success" && out.HasIncognito, nil
}

// CreateOrder registers the order with the gateway. The returned record must
// be payable; a success envelope without any payment surface is an error.
func (c *Client) CreateOrder(ctx context.Context, draft OrderDraft) (OrderRecord, error) {
	var out createOrderResponse
	resp, err := c.rest.R().
		SetContext(ctx).
		SetBody(draft).
		SetResult(&out).
		SetError(&out).
		Post(pathCreateOrder)
	if err != nil {
		return OrderRecord{}, fmt.Errorf("create order: %w", err)
	}
	if resp.IsError() {
		return OrderRecord{}, &StatusError{Status: resp.StatusCode(), Message: out.Message}
	}
	if out.Status != "success" {
		msg := out.Message
		if msg == "" {
			msg = "order was not accepted"
		}
		return OrderRecord{}, errors.New(msg)
	}
	record := OrderRecord{
		OrderID:       out.OrderID,
		PaymentURL:    out.PaymentURL,
		QRCode:        out.QRCode,
		UPIIntentLink: out.UPIIntentLink,
	}
	if record.OrderID == "" {
		record.OrderID = draft.TxnID
	}
	if !record.Payable() {
		return OrderRecord{}, errors.New("order response carries no payment surface")
	}
	c.logger.Debug().Str("order_id", record.OrderID).Msg("order created")
	return record, nil
}

// CheckStatus fetches the current transaction status for the order. Only
// TXN_SUCCESS and TXN_FAILED are terminal; every other status leaves
// Terminal unset so pollers keep going.
func (c *Client) CheckStatus(ctx context.Context, orderID string) (StatusResult, error) {
	var out statusCheckResponse
	resp, err := c.rest.R().
		SetContext(ctx).
		SetBody(statusCheckRequest{OrderID: orderID}).
		SetResult(&out).
		Post(pathCheckStatus)
	if err != nil {
		return StatusResult{}, fmt.Errorf("check status: %w", err)
	}
	if resp.IsError() {
		return StatusResult{}, &StatusError{Status: resp.StatusCode()}
	}
	if out.Status != "success" {
		return StatusResult{}, nil
	}
	switch out.TxnStatus {
	case "TXN_SUCCESS":
		return StatusResult{
			Terminal:    true,
			Success:     true,
			PaymentID:   out.Data.UPITxnID,
			RedirectURL: out.Data.RedirectURL,
			Signature:   signatureFromRedirect(out.Data.RedirectURL),
		}, nil
	case "TXN_FAILED":
		return StatusResult{Terminal: true}, nil
	default:
		return StatusResult{}, nil
	}
}

// Finalize delivers the confirmed result using the requested strategy. It
// never returns a Go error: failures are folded into the result so the
// session's guaranteed-delivery rule can apply.
func (c *Client) Finalize(ctx context.Context, req FinalizeRequest) FinalizeResult {
	switch req.Mode {
	case FinalizeModeCallback:
		return c.finalizeCallback(ctx, req)
	case FinalizeModeVerify:
		return c.finalizeVerify(ctx, req)
	default:
		return FinalizeResult{Err: fmt.Errorf("unknown finalize mode %q", req.Mode)}
	}
}

func (c *Client) finalizeCallback(ctx context.Context, req FinalizeRequest) FinalizeResult {
	var out callbackResponse
	resp, err := c.rest.R().
		SetContext(ctx).
		SetBody(callbackRequest{
			OrderID:     req.OrderID,
			PaymentID:   req.PaymentID,
			Signature:   req.Signature,
			CallbackURL: req.CallbackURL,
		}).
		SetResult(&out).
		Post(pathServerCallback)
	if err != nil {
		return FinalizeResult{Err: fmt.Errorf("server callback: %w", err)}
	}
	if resp.IsError() {
		return FinalizeResult{Err: &StatusError{Status: resp.StatusCode()}}
	}
	return FinalizeResult{
		Acknowledged: out.Status == "success",
		Verified:     out.Verified,
	}
}

func (c *Client) finalizeVerify(ctx context.Context, req FinalizeRequest) FinalizeResult {
	var out verifyResponse
	resp, err := c.rest.R().
		SetContext(ctx).
		SetBody(verifyRequest{
			OrderID:   req.OrderID,
			PaymentID: req.PaymentID,
			Signature: req.Signature,
		}).
		SetResult(&out).
		Post(pathVerifyPayment)
	if err != nil {
		return FinalizeResult{Err: fmt.Errorf("verify payment: %w", err)}
	}
	if resp.IsError() {
		return FinalizeResult{Err: &StatusError{Status: resp.StatusCode()}}
	}
	return FinalizeResult{
		Acknowledged: out.Verified,
		Verified:     out.Verified,
		Message:      out.Message,
	}
}

// signatureFromRedirect extracts the URL-decoded hash marker from a gateway
// redirect URL. Missing or unparsable URLs yield an empty signature.
func signatureFromRedirect(raw string) string {
	if raw == "" {
		return ""
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return parsed.Query().Get("hash")
}
