package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/crazzype/checkout-go/internal/gateway"
	"github.com/crazzype/checkout-go/internal/obs"
)

// DefaultDeadline bounds the confirmation wait for one checkout attempt.
const DefaultDeadline = 300 * time.Second

// Session drives one checkout attempt from Open to a terminal outcome.
// Exactly one of OnSuccess, OnFailure or OnDismiss fires per session, at
// most once, regardless of how many confirmation channels report.
type Session struct {
	opts   Options
	logger zerolog.Logger

	mu             sync.Mutex
	state          State
	orderID        string
	outcome        *TerminalSignal
	consumed       bool
	closeRequested bool
	resolved       bool
	cancelChannels context.CancelFunc
	countdown      *Countdown

	closeCh   chan struct{}
	startedAt time.Time

	// Timing knobs, fixed in production and compressed by tests.
	deadline          time.Duration
	countdownInterval time.Duration
	statusInterval    time.Duration
	locationInterval  time.Duration
}

// New validates the options and builds a single-use session.
func New(opts Options) (*Session, error) {
	opts.applyDefaults()
	if err := opts.validateOptions(); err != nil {
		return nil, err
	}
	return &Session{
		opts:              opts,
		logger:            opts.Logger.With().Str("component", "checkout").Logger(),
		state:             StateIdle,
		closeCh:           make(chan struct{}, 1),
		deadline:          DefaultDeadline,
		countdownInterval: time.Second,
		statusInterval:    2 * time.Second,
		locationInterval:  time.Second,
	}, nil
}

// State returns the session's current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// OrderID returns the order id once assigned. It is never reassigned after
// order creation completes.
func (s *Session) OrderID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orderID
}

// Outcome returns the accepted terminal signal, if any.
func (s *Session) Outcome() (TerminalSignal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.outcome == nil {
		return TerminalSignal{}, false
	}
	return *s.outcome, true
}

// Open runs the checkout pipeline and blocks until the session reaches a
// terminal state. The outcome is delivered through the configured callbacks;
// Open itself only reports usage errors. A session can be opened once.
func (s *Session) Open(ctx context.Context) error {
	s.mu.Lock()
	if s.consumed || s.closeRequested {
		s.mu.Unlock()
		return ErrSessionConsumed
	}
	s.consumed = true
	s.startedAt = time.Now()
	s.mu.Unlock()

	if obs.SessionsStarted != nil {
		obs.SessionsStarted.Inc()
	}
	ctx, span := otel.Tracer("checkout.Session").Start(ctx, "Session.Open")
	defer span.End()

	// Origin validation rides on the entitlement request. Only explicit
	// credential rejections are fatal here; everything else defers
	// enforcement to the backend on later calls.
	s.transition(StateValidatingOrigin)
	entitled, entErr := s.opts.Gateway.CheckEntitlement(ctx)
	if entErr != nil {
		var se *gateway.StatusError
		if errors.As(entErr, &se) {
			switch se.Status {
			case http.StatusForbidden:
				s.fail(setupError(ReasonOriginNotAllowed, "This origin is not allowed for the supplied key", entErr))
				return nil
			case http.StatusUnauthorized:
				s.fail(setupError(ReasonInvalidKey, "The supplied API key was rejected", entErr))
				return nil
			}
		}
		s.logger.Warn().Err(entErr).Msg("origin validation inconclusive, deferring enforcement to the backend")
	}
	if s.interrupted(ctx) {
		return nil
	}

	s.transition(StateCheckingEntitlement)
	if entErr != nil {
		entitled, entErr = s.opts.Gateway.CheckEntitlement(ctx)
	}
	if entErr != nil || !entitled {
		s.fail(setupError(ReasonPremiumRequired, "Incognito checkout requires a premium plan", entErr))
		return nil
	}
	if s.interrupted(ctx) {
		return nil
	}

	s.transition(StateCreatingOrder)
	txnID := s.opts.OrderID
	if txnID == "" {
		txnID = generateOrderID()
	}
	record, err := s.opts.Gateway.CreateOrder(ctx, gateway.OrderDraft{
		TxnID:          txnID,
		Amount:         s.opts.Amount,
		Description:    s.opts.Description,
		CustomerName:   s.opts.Prefill.Name,
		CustomerEmail:  s.opts.Prefill.Email,
		CustomerMobile: s.opts.Prefill.Contact,
		RedirectURL:    s.opts.CallbackURL,
		UDF1:           s.opts.Notes.UDF1,
		UDF2:           s.opts.Notes.UDF2,
		UDF3:           s.opts.Notes.UDF3,
	})
	if err != nil {
		s.fail(setupError(ReasonOrderCreation, orderFailureDescription(err), err))
		return nil
	}
	s.mu.Lock()
	s.orderID = record.OrderID
	s.mu.Unlock()
	span.SetAttributes(attribute.String("order.id", record.OrderID))
	s.logger.Info().Str("order_id", record.OrderID).Msg("order created")
	if s.interrupted(ctx) {
		return nil
	}

	s.transition(StateAwaitingConfirmation)
	s.opts.Presenter.ShowPayment(Surface{
		OrderID:       record.OrderID,
		PaymentURL:    record.PaymentURL,
		QRCode:        record.QRCode,
		UPIIntentLink: record.UPIIntentLink,
	})
	s.await(ctx)
	return nil
}

// await arms the countdown and the confirmation channels, then arbitrates
// the first terminal signal.
func (s *Session) await(ctx context.Context) {
	chCtx, cancel := context.WithCancel(ctx)
	countdown := NewCountdown(s.deadline)
	countdown.interval = s.countdownInterval
	s.mu.Lock()
	s.cancelChannels = cancel
	s.countdown = countdown
	s.mu.Unlock()
	defer s.teardown()

	signals := make(chan TerminalSignal, 8)
	for _, ch := range s.buildChannels() {
		go ch.run(chCtx, signals)
	}

	ticks := make(chan int, 1)
	expired := make(chan struct{})
	countdown.Start(
		func(remaining int) {
			select {
			case ticks <- remaining:
			default:
			}
		},
		func() { close(expired) },
	)

	for {
		if s.closeWasRequested() {
			s.dismiss()
			return
		}
		select {
		case <-ctx.Done():
			s.dismiss()
			return
		case <-s.closeCh:
			s.dismiss()
			return
		case remaining := <-ticks:
			s.opts.Presenter.CountdownTick(remaining)
		case <-expired:
			s.teardown()
			s.fail(&Error{
				Code:        CodePaymentFailed,
				Description: "Payment was not confirmed before the deadline",
				Source:      "customer",
				Step:        "payment",
				Reason:      ReasonTimeout,
			})
			return
		case sig := <-signals:
			sig = preferEarliest(sig, signals)
			// Teardown happens with acceptance: losers are stopped,
			// not merely ignored.
			s.teardown()
			s.accept(ctx, sig)
			return
		}
	}
}

func (s *Session) buildChannels() []channel {
	orderID := s.OrderID()
	var chans []channel
	if s.opts.Frame != nil {
		chans = append(chans,
			messageChannel{frame: s.opts.Frame, orderID: orderID},
			locationChannel{
				frame:    s.opts.Frame,
				gw:       s.opts.Gateway,
				orderID:  orderID,
				interval: s.locationInterval,
				logger:   s.logger,
			},
		)
	}
	chans = append(chans, statusPollChannel{
		gw:       s.opts.Gateway,
		orderID:  orderID,
		interval: s.statusInterval,
		logger:   s.logger,
	})
	return chans
}

// preferEarliest drains signals already queued in the same turn and keeps
// the one from the earliest-registered channel.
func preferEarliest(first TerminalSignal, signals <-chan TerminalSignal) TerminalSignal {
	best := first
	for {
		select {
		case sig := <-signals:
			if sig.Source < best.Source {
				discard(best)
				best = sig
			} else {
				discard(sig)
			}
		default:
			return best
		}
	}
}

func discard(sig TerminalSignal) {
	if obs.TerminalSignals != nil {
		obs.TerminalSignals.WithLabelValues(sig.Source.String(), "discarded").Inc()
	}
}

// accept resolves the session with the first accepted terminal signal.
func (s *Session) accept(ctx context.Context, sig TerminalSignal) {
	if !s.claim(&sig) {
		discard(sig)
		return
	}
	if obs.TerminalSignals != nil {
		obs.TerminalSignals.WithLabelValues(sig.Source.String(), "accepted").Inc()
	}
	s.logger.Info().
		Stringer("source", sig.Source).
		Stringer("kind", sig.Kind).
		Str("order_id", sig.OrderID).
		Msg("terminal signal accepted")
	if sig.Kind == SignalFailure {
		s.deliverFailure(paymentError(sig.Code, sig.Description, sig.Reason))
		return
	}
	s.finalize(ctx, sig)
}

// finalize runs the configured finalization strategy and then delivers the
// success callbacks. Delivery never depends on the finalization result: the
// terminal signal already carries a backend-confirmed success.
func (s *Session) finalize(ctx context.Context, sig TerminalSignal) {
	s.transition(StateFinalizing)
	ctx, span := otel.Tracer("checkout.Session").Start(ctx, "Session.Finalize")
	defer span.End()

	mode := gateway.FinalizeModeVerify
	if s.opts.CallbackURL != "" {
		mode = gateway.FinalizeModeCallback
	}
	result := s.opts.Gateway.Finalize(ctx, gateway.FinalizeRequest{
		Mode:        mode,
		OrderID:     s.OrderID(),
		PaymentID:   sig.PaymentID,
		Signature:   sig.Signature,
		CallbackURL: s.opts.CallbackURL,
	})
	resultLabel := "ok"
	switch {
	case result.Err != nil:
		resultLabel = "error"
		s.logger.Warn().Err(result.Err).Str("mode", string(mode)).
			Msg("finalization failed, delivering success regardless")
	case !result.Acknowledged:
		resultLabel = "rejected"
		s.logger.Warn().Str("mode", string(mode)).Str("message", result.Message).
			Msg("finalization was not acknowledged")
	}
	span.SetAttributes(
		attribute.String("finalize.mode", string(mode)),
		attribute.String("finalize.result", resultLabel),
	)
	if obs.FinalizeTotal != nil {
		obs.FinalizeTotal.WithLabelValues(string(mode), resultLabel).Inc()
	}
	if s.opts.OnVerification != nil {
		s.opts.OnVerification(result)
	}

	s.transition(StateSettled)
	s.opts.Presenter.Close()
	s.recordOutcome("success")
	response := newSuccessResponse(s.OrderID(), sig.PaymentID, sig.Signature)
	if s.opts.Handler != nil {
		s.opts.Handler(response)
	}
	if s.opts.OnSuccess != nil {
		s.opts.OnSuccess(response)
	}
}

// fail resolves the session as FAILED, claiming the terminal slot first.
func (s *Session) fail(e *Error) {
	sig := TerminalSignal{
		Kind:        SignalFailure,
		Code:        e.Code,
		Description: e.Description,
		Reason:      e.Reason,
		OrderID:     s.OrderID(),
	}
	if !s.claim(&sig) {
		return
	}
	s.deliverFailure(e)
}

// deliverFailure performs the FAILED transition and callback. The caller
// must already hold the terminal claim.
func (s *Session) deliverFailure(e *Error) {
	s.teardown()
	s.transition(StateFailed)
	s.opts.Presenter.Close()
	s.recordOutcome("failure")
	if s.opts.OnFailure != nil {
		s.opts.OnFailure(e)
		return
	}
	// Never fail silently.
	s.logger.Error().
		Str("code", e.Code).
		Str("reason", e.Reason).
		Str("step", e.Step).
		Err(e.Err).
		Msg(e.Description)
}

// dismiss resolves the session as DISMISSED, when no terminal outcome has
// been claimed yet.
func (s *Session) dismiss() {
	if !s.claim(nil) {
		return
	}
	s.teardown()
	s.transition(StateDismissed)
	s.opts.Presenter.Close()
	s.recordOutcome("dismissed")
	if s.opts.OnDismiss != nil {
		s.opts.OnDismiss()
	}
}

// claim atomically takes the right to deliver the terminal outcome. Every
// later claimant loses; that is the exactly-once guarantee.
func (s *Session) claim(outcome *TerminalSignal) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resolved {
		return false
	}
	s.resolved = true
	s.outcome = outcome
	return true
}

// teardown stops the countdown and every confirmation channel. It is
// idempotent; results from requests already in flight are discarded on
// arrival because the terminal slot is claimed.
func (s *Session) teardown() {
	s.mu.Lock()
	cancel := s.cancelChannels
	countdown := s.countdown
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	if countdown != nil {
		countdown.Cancel()
	}
}

// Close requests teardown and dismissal. Before a terminal outcome it fires
// OnDismiss exactly once; afterwards, and on repeat calls, it is a no-op.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closeRequested {
		s.mu.Unlock()
		return
	}
	s.closeRequested = true
	running := s.consumed
	terminal := s.state.Terminal()
	s.mu.Unlock()
	if terminal {
		return
	}
	s.teardown()
	if !running {
		s.dismiss()
		return
	}
	select {
	case s.closeCh <- struct{}{}:
	default:
	}
}

func (s *Session) closeWasRequested() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeRequested
}

// interrupted handles a close request or context cancellation between
// pipeline stages.
func (s *Session) interrupted(ctx context.Context) bool {
	if ctx.Err() != nil || s.closeWasRequested() {
		s.dismiss()
		return true
	}
	return false
}

func (s *Session) transition(next State) {
	s.mu.Lock()
	prev := s.state
	s.state = next
	s.mu.Unlock()
	s.logger.Debug().Stringer("from", prev).Stringer("to", next).Msg("state transition")
	s.opts.Presenter.StateChanged(next)
}

func (s *Session) recordOutcome(outcome string) {
	if obs.SessionOutcomes != nil {
		obs.SessionOutcomes.WithLabelValues(outcome).Inc()
	}
	if obs.SessionDuration != nil && !s.startedAt.IsZero() {
		obs.SessionDuration.WithLabelValues(outcome).Observe(obs.DurationMillis(time.Since(s.startedAt)))
	}
}

func generateOrderID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("order_%d_%s", time.Now().UnixMilli(), suffix)
}

func orderFailureDescription(err error) string {
	var se *gateway.StatusError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	if err != nil && err.Error() != "" {
		return err.Error()
	}
	return "Failed to create order"
}
