package checkout

import "github.com/rs/zerolog"

// Surface carries everything a presenter needs to show the payment step.
type Surface struct {
	OrderID       string
	PaymentURL    string
	QRCode        string
	UPIIntentLink string
}

// Presenter renders state transitions it is told about. It consumes session
// events and never drives the session; user cancellation reaches the session
// through Session.Close, not through this interface.
type Presenter interface {
	ShowPayment(Surface)
	CountdownTick(remaining int)
	StateChanged(State)
	Close()
}

// NopPresenter discards all presentation events.
type NopPresenter struct{}

func (NopPresenter) ShowPayment(Surface) {}
func (NopPresenter) CountdownTick(int)   {}
func (NopPresenter) StateChanged(State)  {}
func (NopPresenter) Close()              {}

// LogPresenter writes presentation events to a logger. It is the default
// presenter for headless integrations.
type LogPresenter struct {
	Logger zerolog.Logger
}

func (p LogPresenter) ShowPayment(s Surface) {
	evt := p.Logger.Info().Str("order_id", s.OrderID)
	if s.PaymentURL != "" {
		evt = evt.Str("payment_url", s.PaymentURL)
	}
	if s.UPIIntentLink != "" {
		evt = evt.Str("upi_intent_link", s.UPIIntentLink)
	}
	if s.QRCode != "" {
		evt = evt.Str("qr_code", s.QRCode)
	}
	evt.Msg("payment surface ready")
}

func (p LogPresenter) CountdownTick(remaining int) {
	if remaining%30 == 0 {
		p.Logger.Debug().Int("remaining_s", remaining).Msg("awaiting confirmation")
	}
}

func (p LogPresenter) StateChanged(s State) {
	p.Logger.Debug().Stringer("state", s).Msg("session state changed")
}

func (p LogPresenter) Close() {
	p.Logger.Debug().Msg("payment surface closed")
}
