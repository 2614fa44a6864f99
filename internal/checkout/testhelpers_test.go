package checkout

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/crazzype/checkout-go/internal/gateway"
)

// stubGateway is an in-memory Gateway with overridable behaviour per
// operation and call counters for assertions.
type stubGateway struct {
	mu          sync.Mutex
	entitlement func(call int) (bool, error)
	create      func(draft gateway.OrderDraft) (gateway.OrderRecord, error)
	status      func(call int, orderID string) (gateway.StatusResult, error)
	finalize    func(req gateway.FinalizeRequest) gateway.FinalizeResult

	entitlementCalls int
	createCalls      int
	statusCalls      int
	finalizeCalls    int
	lastDraft        gateway.OrderDraft
	lastStatusOrder  string
	lastFinalize     gateway.FinalizeRequest
}

func (g *stubGateway) CheckEntitlement(context.Context) (bool, error) {
	g.mu.Lock()
	g.entitlementCalls++
	call := g.entitlementCalls
	fn := g.entitlement
	g.mu.Unlock()
	if fn != nil {
		return fn(call)
	}
	return true, nil
}

func (g *stubGateway) CreateOrder(_ context.Context, draft gateway.OrderDraft) (gateway.OrderRecord, error) {
	g.mu.Lock()
	g.createCalls++
	g.lastDraft = draft
	fn := g.create
	g.mu.Unlock()
	if fn != nil {
		return fn(draft)
	}
	return gateway.OrderRecord{OrderID: draft.TxnID, PaymentURL: "https://pay.example/tok"}, nil
}

func (g *stubGateway) CheckStatus(_ context.Context, orderID string) (gateway.StatusResult, error) {
	g.mu.Lock()
	g.statusCalls++
	call := g.statusCalls
	g.lastStatusOrder = orderID
	fn := g.status
	g.mu.Unlock()
	if fn != nil {
		return fn(call, orderID)
	}
	return gateway.StatusResult{}, nil
}

func (g *stubGateway) Finalize(_ context.Context, req gateway.FinalizeRequest) gateway.FinalizeResult {
	g.mu.Lock()
	g.finalizeCalls++
	g.lastFinalize = req
	fn := g.finalize
	g.mu.Unlock()
	if fn != nil {
		return fn(req)
	}
	return gateway.FinalizeResult{Acknowledged: true, Verified: true}
}

func (g *stubGateway) counts() (entitlement, create, status, finalize int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.entitlementCalls, g.createCalls, g.statusCalls, g.finalizeCalls
}

// stubFrame simulates the embedded payment surface. Its location starts
// cross-origin, matching a frame showing the provider's pages.
type stubFrame struct {
	mu     sync.Mutex
	msgs   chan Message
	loc    string
	locErr error
}

func newStubFrame() *stubFrame {
	return &stubFrame{msgs: make(chan Message, 4), locErr: ErrCrossOrigin}
}

func (f *stubFrame) Messages() <-chan Message { return f.msgs }

func (f *stubFrame) Location() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loc, f.locErr
}

func (f *stubFrame) setLocation(loc string) {
	f.mu.Lock()
	f.loc = loc
	f.locErr = nil
	f.mu.Unlock()
}

func (f *stubFrame) post(msg Message) { f.msgs <- msg }

// recorder captures integrator callbacks for assertion.
type recorder struct {
	handler chan SuccessResponse
	success chan SuccessResponse
	failure chan *Error
	dismiss chan struct{}
	verify  chan gateway.FinalizeResult
}

func newRecorder() *recorder {
	return &recorder{
		handler: make(chan SuccessResponse, 4),
		success: make(chan SuccessResponse, 4),
		failure: make(chan *Error, 4),
		dismiss: make(chan struct{}, 4),
		verify:  make(chan gateway.FinalizeResult, 4),
	}
}

func (r *recorder) bind(opts *Options) {
	opts.Handler = func(resp SuccessResponse) { r.handler <- resp }
	opts.OnSuccess = func(resp SuccessResponse) { r.success <- resp }
	opts.OnFailure = func(e *Error) { r.failure <- e }
	opts.OnDismiss = func() { r.dismiss <- struct{}{} }
	opts.OnVerification = func(res gateway.FinalizeResult) { r.verify <- res }
}

func (r *recorder) waitSuccess(t *testing.T) SuccessResponse {
	t.Helper()
	select {
	case resp := <-r.success:
		return resp
	case e := <-r.failure:
		t.Fatalf("expected success, got failure %q (%s)", e.Description, e.Reason)
	case <-r.dismiss:
		t.Fatal("expected success, got dismissal")
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for success callback")
	}
	return SuccessResponse{}
}

func (r *recorder) waitFailure(t *testing.T) *Error {
	t.Helper()
	select {
	case e := <-r.failure:
		return e
	case <-r.success:
		t.Fatal("expected failure, got success")
	case <-r.dismiss:
		t.Fatal("expected failure, got dismissal")
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for failure callback")
	}
	return nil
}

func (r *recorder) waitDismiss(t *testing.T) {
	t.Helper()
	select {
	case <-r.dismiss:
	case <-r.success:
		t.Fatal("expected dismissal, got success")
	case e := <-r.failure:
		t.Fatalf("expected dismissal, got failure %q", e.Description)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for dismiss callback")
	}
}

// assertQuiet verifies that no further terminal callback arrives.
func (r *recorder) assertQuiet(t *testing.T) {
	t.Helper()
	select {
	case <-r.success:
		t.Fatal("unexpected extra success callback")
	case e := <-r.failure:
		t.Fatalf("unexpected extra failure callback: %s", e.Reason)
	case <-r.dismiss:
		t.Fatal("unexpected extra dismiss callback")
	case <-time.After(100 * time.Millisecond):
	}
}

func newTestSession(t *testing.T, opts Options) *Session {
	t.Helper()
	if opts.Key == "" {
		opts.Key = "key_test_123"
	}
	if opts.Amount == "" {
		opts.Amount = "49900"
	}
	opts.Logger = zerolog.Nop()
	s, err := New(opts)
	require.NoError(t, err)
	s.deadline = 2 * time.Second
	s.countdownInterval = 10 * time.Millisecond
	s.statusInterval = 10 * time.Millisecond
	s.locationInterval = 10 * time.Millisecond
	return s
}

func openAsync(s *Session) <-chan error {
	done := make(chan error, 1)
	go func() { done <- s.Open(context.Background()) }()
	return done
}

func waitOpen(t *testing.T, done <-chan error) {
	t.Helper()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("session did not reach a terminal state")
	}
}
