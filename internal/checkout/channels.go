package checkout

import (
	"context"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/crazzype/checkout-go/internal/gateway"
	"github.com/crazzype/checkout-go/internal/obs"
)

// Gateway is the transport surface the session and its channels depend on.
// *gateway.Client satisfies it; tests substitute stubs.
type Gateway interface {
	CheckEntitlement(ctx context.Context) (bool, error)
	CreateOrder(ctx context.Context, draft gateway.OrderDraft) (gateway.OrderRecord, error)
	CheckStatus(ctx context.Context, orderID string) (gateway.StatusResult, error)
	Finalize(ctx context.Context, req gateway.FinalizeRequest) gateway.FinalizeResult
}

// channel is one independent vantage point on the payment attempt. A channel
// runs until its context is cancelled and delivers at most one terminal
// signal into the session's inbound port.
type channel interface {
	source() Source
	run(ctx context.Context, sink chan<- TerminalSignal)
}

func deliver(ctx context.Context, sink chan<- TerminalSignal, sig TerminalSignal) {
	if obs.TerminalSignals != nil {
		obs.TerminalSignals.WithLabelValues(sig.Source.String(), "observed").Inc()
	}
	select {
	case sink <- sig:
	case <-ctx.Done():
	}
}

// messageChannel listens for structured outcome messages posted by the
// embedded payment surface.
type messageChannel struct {
	frame   Frame
	orderID string
}

func (messageChannel) source() Source { return SourceMessage }

func (m messageChannel) run(ctx context.Context, sink chan<- TerminalSignal) {
	msgs := m.frame.Messages()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			switch msg.Type {
			case MessagePaymentSuccess:
				orderID := msg.OrderID
				if orderID == "" {
					orderID = m.orderID
				}
				deliver(ctx, sink, TerminalSignal{
					Kind:      SignalSuccess,
					Source:    SourceMessage,
					OrderID:   orderID,
					PaymentID: msg.PaymentID,
					Signature: msg.Signature,
				})
				return
			case MessagePaymentFailure:
				deliver(ctx, sink, TerminalSignal{
					Kind:        SignalFailure,
					Source:      SourceMessage,
					OrderID:     m.orderID,
					Code:        msg.ErrorCode,
					Description: msg.ErrorDescription,
					Reason:      msg.Reason,
				})
				return
			}
		}
	}
}

// locationChannel periodically inspects the frame's address for success or
// failure markers. Cross-origin and parse failures are swallowed as "still
// pending"; a success marker is resolved to payment details through the
// gateway before the signal is delivered.
type locationChannel struct {
	frame    Frame
	gw       Gateway
	orderID  string
	interval time.Duration
	logger   zerolog.Logger
}

func (locationChannel) source() Source { return SourceLocation }

func (l locationChannel) run(ctx context.Context, sink chan<- TerminalSignal) {
	interval := l.interval
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			loc, err := l.frame.Location()
			if err != nil {
				// Cross-origin access is expected while the frame shows
				// the provider's pages; keep polling.
				continue
			}
			sig, terminal := l.inspect(ctx, loc)
			if !terminal {
				continue
			}
			deliver(ctx, sink, sig)
			return
		}
	}
}

func (l locationChannel) inspect(ctx context.Context, loc string) (TerminalSignal, bool) {
	parsed, err := url.Parse(loc)
	if err != nil {
		return TerminalSignal{}, false
	}
	query := parsed.Query()
	switch query.Get("status") {
	case "success":
		orderID := query.Get("order_id")
		hash := query.Get("hash")
		if orderID == "" || hash == "" {
			return TerminalSignal{}, false
		}
		return l.resolveSuccess(ctx, orderID, hash), true
	case "failed":
		return TerminalSignal{
			Kind:        SignalFailure,
			Source:      SourceLocation,
			OrderID:     l.orderID,
			Description: "Payment failed",
			Reason:      ReasonPaymentFailed,
		}, true
	default:
		return TerminalSignal{}, false
	}
}

// resolveSuccess fetches payment details for a success marker; the redirect
// only carries the order id and hash, the payment id lives on the order.
func (l locationChannel) resolveSuccess(ctx context.Context, orderID, hash string) TerminalSignal {
	res, err := l.gw.CheckStatus(ctx, orderID)
	if err != nil || !res.Terminal || !res.Success {
		if err != nil {
			l.logger.Warn().Err(err).Str("order_id", orderID).Msg("payment detail lookup failed")
		}
		return TerminalSignal{
			Kind:        SignalFailure,
			Source:      SourceLocation,
			OrderID:     orderID,
			Description: "Payment verification failed",
			Reason:      ReasonPaymentFailed,
		}
	}
	return TerminalSignal{
		Kind:      SignalSuccess,
		Source:    SourceLocation,
		OrderID:   orderID,
		PaymentID: res.PaymentID,
		Signature: hash,
	}
}

// statusPollChannel asks the gateway for the order status on a fixed
// interval. Transport errors and non-terminal statuses keep the poll going;
// it never aborts on a single failed request.
type statusPollChannel struct {
	gw       Gateway
	orderID  string
	interval time.Duration
	logger   zerolog.Logger
}

func (statusPollChannel) source() Source { return SourceStatusPoll }

func (p statusPollChannel) run(ctx context.Context, sink chan<- TerminalSignal) {
	interval := p.interval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			res, err := p.gw.CheckStatus(ctx, p.orderID)
			if err != nil {
				if obs.StatusPollTotal != nil {
					obs.StatusPollTotal.WithLabelValues("error").Inc()
				}
				p.logger.Debug().Err(err).Str("order_id", p.orderID).Msg("status poll failed")
				continue
			}
			if !res.Terminal {
				if obs.StatusPollTotal != nil {
					obs.StatusPollTotal.WithLabelValues("pending").Inc()
				}
				continue
			}
			if res.Success {
				if obs.StatusPollTotal != nil {
					obs.StatusPollTotal.WithLabelValues("success").Inc()
				}
				deliver(ctx, sink, TerminalSignal{
					Kind:      SignalSuccess,
					Source:    SourceStatusPoll,
					OrderID:   p.orderID,
					PaymentID: res.PaymentID,
					Signature: res.Signature,
				})
				return
			}
			if obs.StatusPollTotal != nil {
				obs.StatusPollTotal.WithLabelValues("failed").Inc()
			}
			deliver(ctx, sink, TerminalSignal{
				Kind:        SignalFailure,
				Source:      SourceStatusPoll,
				OrderID:     p.orderID,
				Description: "Payment failed",
				Reason:      ReasonPaymentFailed,
			})
			return
		}
	}
}
