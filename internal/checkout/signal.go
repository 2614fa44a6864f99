package checkout

import "errors"

// SignalKind classifies a terminal signal.
type SignalKind int

const (
	SignalSuccess SignalKind = iota
	SignalFailure
)

func (k SignalKind) String() string {
	if k == SignalSuccess {
		return "success"
	}
	return "failure"
}

// Source identifies the confirmation channel that produced a signal. The
// numeric order is the channel registration order and doubles as the
// deterministic tie-break: lower wins when several signals arrive in the
// same turn.
type Source int

const (
	SourceMessage Source = iota
	SourceLocation
	SourceStatusPoll
)

func (s Source) String() string {
	switch s {
	case SourceMessage:
		return "message"
	case SourceLocation:
		return "location"
	case SourceStatusPoll:
		return "status_poll"
	default:
		return "unknown"
	}
}

// TerminalSignal is an observation from a confirmation channel asserting
// SUCCESS or FAILURE for the current order. The session accepts the first
// and discards the rest.
type TerminalSignal struct {
	Kind      SignalKind
	Source    Source
	OrderID   string
	PaymentID string
	Signature string

	// Failure details, meaningful only when Kind is SignalFailure.
	Code        string
	Description string
	Reason      string
}

// Message types posted by the embedded payment surface.
const (
	MessagePaymentSuccess = "crazzype-payment-success"
	MessagePaymentFailure = "crazzype-payment-failure"
)

// Message is a structured outcome message posted back by the payment surface.
type Message struct {
	Type             string
	OrderID          string
	PaymentID        string
	Signature        string
	ErrorCode        string
	ErrorDescription string
	Reason           string
}

// ErrCrossOrigin reports that the frame's address is not readable from this
// process. Pollers treat it as "still pending", never as a failure.
var ErrCrossOrigin = errors.New("checkout: frame location not accessible")

// Frame is the embedded payment surface as observed by the confirmation
// channels: a stream of posted messages and a navigable address.
type Frame interface {
	Messages() <-chan Message
	Location() (string, error)
}
