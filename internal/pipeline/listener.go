// Package pipeline connects the WebSocket log stream to the decoder,
// enrichment, and filter stages. It owns reconnection, deduplication,
// and the cheap log pre-filter.
package pipeline

import (
	"context"
	"io"
	"log"
	"sync/atomic"
	"time"

	"solana-lp-watch/internal/domain"
	"solana-lp-watch/internal/filter"
	"solana-lp-watch/internal/observability"
	"solana-lp-watch/internal/raydium"
	"solana-lp-watch/internal/solana"
)

// DefaultPingInterval keeps idle connections alive.
const DefaultPingInterval = 30 * time.Second

// SignalTypeLPAdd labels liquidity additions in the corroboration
// window.
const SignalTypeLPAdd = "lp_add"

// Conn is one live logs connection.
type Conn interface {
	SubscribeLogs(filter solana.LogsFilter) error
	ReadMessage() ([]byte, error)
	Ping() error
	Close() error
}

// DialFunc opens a fresh connection. Called once per reconnect
// attempt.
type DialFunc func(ctx context.Context) (Conn, error)

// Decoder extracts liquidity additions from transactions.
type Decoder interface {
	Decode(tx *solana.Transaction) *domain.LiquidityAddition
}

// Enricher attaches market data to decoded facts.
type Enricher interface {
	Enrich(ctx context.Context, fact *domain.LiquidityAddition) *domain.EnrichedEvent
}

// Engine evaluates enriched events against the early-stage gates.
type Engine interface {
	Evaluate(in filter.Input) filter.Decision
}

// Sink receives every loggable event with its decision.
type Sink interface {
	Emit(ctx context.Context, ev *domain.EnrichedEvent, decision filter.Decision) error
}

// Stats are session counters, reported on shutdown.
type Stats struct {
	Messages uint64
	LPEvents uint64
	Alerts   uint64
}

// Listener runs the watch loop: subscribe, read, triage, process.
type Listener struct {
	dial     DialFunc
	rpc      solana.RPCClient
	decoder  Decoder
	enricher Enricher
	engine   Engine
	sink     Sink
	logger   *log.Logger

	programs     []string
	backoff      *Backoff
	cache        *SignatureCache
	pingInterval time.Duration
	sleep        func(ctx context.Context, d time.Duration)

	messages atomic.Uint64
	lpEvents atomic.Uint64
	alerts   atomic.Uint64
}

// ListenerOptions configures a Listener.
type ListenerOptions struct {
	Dial     DialFunc
	RPC      solana.RPCClient
	Decoder  Decoder
	Enricher Enricher
	Engine   Engine
	Sink     Sink
	Logger   *log.Logger

	// Programs are the addresses the logs subscription mentions.
	// Defaults to the Raydium AMM V4 program.
	Programs []string

	BackoffInitial time.Duration
	BackoffMax     time.Duration
	DedupCapacity  int
	DedupEvict     int
	PingInterval   time.Duration
}

// NewListener creates a Listener.
func NewListener(opts ListenerOptions) *Listener {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	programs := opts.Programs
	if len(programs) == 0 {
		programs = []string{raydium.AMMV4Program}
	}
	pingInterval := opts.PingInterval
	if pingInterval == 0 {
		pingInterval = DefaultPingInterval
	}
	return &Listener{
		dial:         opts.Dial,
		rpc:          opts.RPC,
		decoder:      opts.Decoder,
		enricher:     opts.Enricher,
		engine:       opts.Engine,
		sink:         opts.Sink,
		logger:       logger,
		programs:     programs,
		backoff:      NewBackoff(opts.BackoffInitial, opts.BackoffMax),
		cache:        NewSignatureCache(opts.DedupCapacity, opts.DedupEvict),
		pingInterval: pingInterval,
		sleep:        sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

// Stats returns the session counters.
func (l *Listener) Stats() Stats {
	return Stats{
		Messages: l.messages.Load(),
		LPEvents: l.lpEvents.Load(),
		Alerts:   l.alerts.Load(),
	}
}

// Run watches the log stream until the context is cancelled,
// reconnecting with exponential backoff after every failure.
func (l *Listener) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if err := l.runConnection(ctx); err != nil && ctx.Err() == nil {
			observability.RecordReconnect()
			delay := l.backoff.Next()
			l.logger.Printf("connection lost: %v, reconnecting in %s", err, delay)
			l.sleep(ctx, delay)
		}
	}
}

// runConnection dials, subscribes, and drains one connection. Returns
// when the connection fails or the context is cancelled.
func (l *Listener) runConnection(ctx context.Context) error {
	conn, err := l.dial(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	// Cancellation must unblock a pending read immediately.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if err := conn.SubscribeLogs(solana.LogsFilter{Mentions: l.programs}); err != nil {
		return err
	}

	pingDone := make(chan struct{})
	defer close(pingDone)
	go l.pingLoop(conn, pingDone)

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		msg, err := solana.ParseLogsMessage(data)
		if err != nil {
			l.logger.Printf("skipping malformed frame: %v", err)
			continue
		}

		switch msg.Kind {
		case solana.MessageSubscribeAck:
			l.logger.Printf("subscribed (id=%d)", msg.SubscriptionID)
			l.backoff.Reset()

		case solana.MessageError:
			// Error frames do not invalidate the subscription; keep
			// reading. Rate limiting makes the next reconnect wait the
			// full backoff.
			if msg.Err.Code == solana.ErrCodeRateLimit {
				l.backoff.ForceMax()
			}
			l.logger.Printf("error frame: %v", msg.Err)

		case solana.MessageLogs:
			l.processNotification(ctx, msg.Logs)
		}
	}
}

func (l *Listener) pingLoop(conn Conn, done <-chan struct{}) {
	ticker := time.NewTicker(l.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.Ping(); err != nil {
				return
			}
		}
	}
}

// processNotification runs one logs notification through dedup, the
// pre-filter, fetch, decode, enrichment, and the gates. Every decision
// worth logging reaches the sink, alert or not.
func (l *Listener) processNotification(ctx context.Context, n *solana.LogNotification) {
	l.messages.Add(1)
	observability.RecordWSMessage()

	if n.Err != nil || len(n.Logs) == 0 || n.Signature == "" {
		return
	}

	if l.cache.Seen(n.Signature) {
		observability.RecordDuplicateSkipped()
		return
	}

	if !LooksLikeLiquidityAddition(n.Logs) {
		observability.RecordPrefilterReject()
		return
	}

	start := time.Now()
	tx, err := fetchTransaction(ctx, l.rpc, n.Signature, func(d time.Duration) { l.sleep(ctx, d) })
	observability.RecordFetchDuration(time.Since(start))
	if err != nil {
		observability.RecordFetchFailure()
		l.logger.Printf("fetch %s: %v", n.Signature, err)
		return
	}

	fact := l.decoder.Decode(tx)
	if fact == nil {
		return
	}
	l.lpEvents.Add(1)
	observability.RecordFactDecoded()

	ev := l.enricher.Enrich(ctx, fact)
	decision := l.engine.Evaluate(filter.Input{
		Pair:          ev.Pair,
		TokenSymbol:   ev.TokenSymbol,
		TokenMint:     fact.TokenMint,
		LPAddedSOL:    fact.QuoteAmountSOL,
		LPBeforeSOL:   ev.LPBeforeSOL(),
		IsNewPool:     fact.IsPoolCreation,
		HasMarketData: ev.HasMarketData,
		MarketCapUSD:  ev.MarketCapUSD,
		PairAge:       ev.PairAge,
		PairAgeKnown:  ev.PairAgeKnown,
		SignalType:    SignalTypeLPAdd,
	})

	if decision.ShouldAlert {
		l.alerts.Add(1)
		observability.RecordAlert(decision.Priority)
	}

	if decision.ShouldLog {
		if err := l.sink.Emit(ctx, ev, decision); err != nil {
			l.logger.Printf("emit %s: %v", n.Signature, err)
		}
	}
}
