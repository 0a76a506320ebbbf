package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"solana-lp-watch/internal/domain"
	"solana-lp-watch/internal/filter"
	"solana-lp-watch/internal/solana"
)

type fakeConn struct {
	frames     [][]byte
	pos        int
	subscribed []solana.LogsFilter
	closed     bool
}

func (c *fakeConn) SubscribeLogs(f solana.LogsFilter) error {
	c.subscribed = append(c.subscribed, f)
	return nil
}

func (c *fakeConn) ReadMessage() ([]byte, error) {
	if c.pos >= len(c.frames) {
		return nil, io.EOF
	}
	data := c.frames[c.pos]
	c.pos++
	return data, nil
}

func (c *fakeConn) Ping() error { return nil }

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

type fakeDecoder struct {
	fact *domain.LiquidityAddition
}

func (d *fakeDecoder) Decode(tx *solana.Transaction) *domain.LiquidityAddition {
	return d.fact
}

type fakeEnricher struct{}

func (e *fakeEnricher) Enrich(ctx context.Context, fact *domain.LiquidityAddition) *domain.EnrichedEvent {
	return &domain.EnrichedEvent{
		Fact:          fact,
		Pair:          "MEME/SOL",
		TokenSymbol:   "MEME",
		HasMarketData: true,
		PairAgeKnown:  true,
		PairAge:       10 * time.Minute,
	}
}

type fakeEngine struct {
	decision filter.Decision
	inputs   []filter.Input
}

func (e *fakeEngine) Evaluate(in filter.Input) filter.Decision {
	e.inputs = append(e.inputs, in)
	return e.decision
}

type fakeSink struct {
	emitted []filter.Decision
}

func (s *fakeSink) Emit(ctx context.Context, ev *domain.EnrichedEvent, d filter.Decision) error {
	s.emitted = append(s.emitted, d)
	return nil
}

func ackFrame(id int) []byte {
	return []byte(fmt.Sprintf(`{"jsonrpc":"2.0","id":1,"result":%d}`, id))
}

func logsFrame(signature string, logs string) []byte {
	return []byte(fmt.Sprintf(`{
		"jsonrpc": "2.0",
		"method": "logsNotification",
		"params": {
			"result": {
				"context": {"slot": 100},
				"value": {"signature": %q, "err": null, "logs": [%q]}
			}
		}
	}`, signature, logs))
}

func newListenerHarness(conn Conn, engine Engine, sink Sink) (*Listener, *fakeRPC) {
	rpc := &fakeRPC{results: []fetchResult{
		{&solana.Transaction{Signature: "sig1"}, nil},
		{&solana.Transaction{Signature: "sig2"}, nil},
		{&solana.Transaction{Signature: "sig3"}, nil},
	}}

	l := NewListener(ListenerOptions{
		Dial:     func(ctx context.Context) (Conn, error) { return conn, nil },
		RPC:      rpc,
		Decoder:  &fakeDecoder{fact: &domain.LiquidityAddition{Signature: "sig1", TokenMint: "mint", QuoteAmountSOL: 500}},
		Enricher: &fakeEnricher{},
		Engine:   engine,
		Sink:     sink,
	})
	l.sleep = func(ctx context.Context, d time.Duration) {}
	return l, rpc
}

func TestListener_ProcessesNotification(t *testing.T) {
	conn := &fakeConn{frames: [][]byte{
		ackFrame(7),
		logsFrame("sig1", "Program log: initialize2"),
	}}
	engine := &fakeEngine{decision: filter.Decision{ShouldAlert: true, ShouldLog: true, Priority: filter.PriorityHigh}}
	sink := &fakeSink{}

	l, _ := newListenerHarness(conn, engine, sink)

	err := l.runConnection(context.Background())
	if !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF at end of frames, got %v", err)
	}

	if len(conn.subscribed) != 1 {
		t.Fatalf("expected 1 subscription, got %d", len(conn.subscribed))
	}
	if len(conn.subscribed[0].Mentions) != 1 {
		t.Errorf("expected default program mention, got %v", conn.subscribed[0].Mentions)
	}

	if len(engine.inputs) != 1 {
		t.Fatalf("expected 1 evaluation, got %d", len(engine.inputs))
	}
	if engine.inputs[0].LPAddedSOL != 500 {
		t.Errorf("unexpected input: %+v", engine.inputs[0])
	}

	if len(sink.emitted) != 1 {
		t.Fatalf("expected 1 emit, got %d", len(sink.emitted))
	}

	stats := l.Stats()
	if stats.Messages != 1 || stats.LPEvents != 1 || stats.Alerts != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestListener_DeduplicatesSignatures(t *testing.T) {
	conn := &fakeConn{frames: [][]byte{
		ackFrame(7),
		logsFrame("sig1", "Program log: initialize2"),
		logsFrame("sig1", "Program log: initialize2"),
	}}
	engine := &fakeEngine{decision: filter.Decision{ShouldLog: true}}
	sink := &fakeSink{}

	l, rpc := newListenerHarness(conn, engine, sink)
	l.runConnection(context.Background())

	if rpc.calls != 1 {
		t.Errorf("expected 1 fetch for duplicate notifications, got %d", rpc.calls)
	}
	if len(sink.emitted) != 1 {
		t.Errorf("expected 1 emit, got %d", len(sink.emitted))
	}
}

func TestListener_PrefilterSkipsFetch(t *testing.T) {
	conn := &fakeConn{frames: [][]byte{
		ackFrame(7),
		logsFrame("sig1", "Program log: Instruction: Swap"),
	}}
	engine := &fakeEngine{decision: filter.Decision{ShouldLog: true}}
	sink := &fakeSink{}

	l, rpc := newListenerHarness(conn, engine, sink)
	l.runConnection(context.Background())

	if rpc.calls != 0 {
		t.Errorf("expected no fetch for pre-filtered notification, got %d", rpc.calls)
	}
	if len(sink.emitted) != 0 {
		t.Errorf("expected no emits, got %d", len(sink.emitted))
	}
}

func TestListener_SkipsFailedTransactions(t *testing.T) {
	conn := &fakeConn{frames: [][]byte{
		ackFrame(7),
		[]byte(`{
			"jsonrpc": "2.0",
			"method": "logsNotification",
			"params": {
				"result": {
					"context": {"slot": 100},
					"value": {"signature": "sigX", "err": {"InstructionError": [0, "Custom"]}, "logs": ["Program log: deposit"]}
				}
			}
		}`),
	}}
	engine := &fakeEngine{decision: filter.Decision{ShouldLog: true}}
	sink := &fakeSink{}

	l, rpc := newListenerHarness(conn, engine, sink)
	l.runConnection(context.Background())

	if rpc.calls != 0 {
		t.Errorf("expected no fetch for failed transaction, got %d", rpc.calls)
	}
}

func TestListener_RateLimitForcesMaxBackoff(t *testing.T) {
	conn := &fakeConn{frames: [][]byte{
		[]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32003,"message":"rate limited"}}`),
	}}
	engine := &fakeEngine{}
	sink := &fakeSink{}

	l, _ := newListenerHarness(conn, engine, sink)

	err := l.runConnection(context.Background())
	if !errors.Is(err, io.EOF) {
		t.Fatalf("rate limit frame must not tear down the connection, got %v", err)
	}

	if got := l.backoff.Next(); got != DefaultBackoffMax {
		t.Errorf("expected backoff forced to max, got %v", got)
	}
}

func TestListener_ErrorFrameKeepsConnection(t *testing.T) {
	conn := &fakeConn{frames: [][]byte{
		ackFrame(7),
		[]byte(`{"jsonrpc":"2.0","id":2,"error":{"code":-32602,"message":"invalid params"}}`),
		logsFrame("sig1", "Program log: initialize2"),
	}}
	engine := &fakeEngine{decision: filter.Decision{ShouldLog: true}}
	sink := &fakeSink{}

	l, _ := newListenerHarness(conn, engine, sink)

	err := l.runConnection(context.Background())
	if !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF at end of frames, got %v", err)
	}

	if len(sink.emitted) != 1 {
		t.Errorf("expected the notification after the error frame to be processed, got %d emits", len(sink.emitted))
	}
	if got := l.backoff.Next(); got == DefaultBackoffMax {
		t.Error("non-rate-limit error frame must not force max backoff")
	}
}

func TestListener_AckResetsBackoff(t *testing.T) {
	conn := &fakeConn{frames: [][]byte{ackFrame(7)}}
	engine := &fakeEngine{}
	sink := &fakeSink{}

	l, _ := newListenerHarness(conn, engine, sink)
	l.backoff.Next()
	l.backoff.Next()

	l.runConnection(context.Background())

	if got := l.backoff.Next(); got != DefaultBackoffInitial {
		t.Errorf("expected backoff reset after ack, got %v", got)
	}
}

// blockingConn simulates a quiet stream: reads block until the
// connection is closed.
type blockingConn struct {
	closeOnce sync.Once
	closed    chan struct{}
}

func newBlockingConn() *blockingConn {
	return &blockingConn{closed: make(chan struct{})}
}

func (c *blockingConn) SubscribeLogs(solana.LogsFilter) error { return nil }

func (c *blockingConn) ReadMessage() ([]byte, error) {
	<-c.closed
	return nil, errors.New("use of closed connection")
}

func (c *blockingConn) Ping() error { return nil }

func (c *blockingConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func TestListener_CancelClosesConnection(t *testing.T) {
	conn := newBlockingConn()
	engine := &fakeEngine{}
	sink := &fakeSink{}

	l, _ := newListenerHarness(conn, engine, sink)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return promptly after cancellation; transport not closed on shutdown")
	}

	select {
	case <-conn.closed:
	default:
		t.Error("expected the connection to be closed on shutdown")
	}
}

func TestListener_EmitsNonAlerts(t *testing.T) {
	conn := &fakeConn{frames: [][]byte{
		ackFrame(7),
		logsFrame("sig1", "Program log: deposit"),
	}}
	engine := &fakeEngine{decision: filter.Decision{ShouldAlert: false, ShouldLog: true}}
	sink := &fakeSink{}

	l, _ := newListenerHarness(conn, engine, sink)
	l.runConnection(context.Background())

	if len(sink.emitted) != 1 {
		t.Fatalf("expected rejected event to still reach the sink, got %d emits", len(sink.emitted))
	}
	if stats := l.Stats(); stats.Alerts != 0 {
		t.Errorf("expected no alerts, got %d", stats.Alerts)
	}
}
