package enrich

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"solana-lp-watch/internal/domain"
)

// Enricher turns decoded liquidity additions into enriched events
// ready for filtering.
type Enricher struct {
	resolver PairResolver
	prices   *PriceService
	logger   *log.Logger
	now      func() time.Time
}

// EnricherOptions configures an Enricher.
type EnricherOptions struct {
	Resolver PairResolver
	Prices   *PriceService
	Logger   *log.Logger
}

// NewEnricher creates an Enricher.
func NewEnricher(opts EnricherOptions) *Enricher {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Enricher{
		resolver: opts.Resolver,
		prices:   opts.Prices,
		logger:   logger,
		now:      time.Now,
	}
}

// Enrich attaches market data to a decoded fact. Lookup failures are
// not fatal: the event comes back with HasMarketData=false and a
// placeholder pair name so downstream stages can still log it.
func (e *Enricher) Enrich(ctx context.Context, fact *domain.LiquidityAddition) *domain.EnrichedEvent {
	now := e.now()
	ev := &domain.EnrichedEvent{
		Fact:        fact,
		SOLPriceUSD: e.prices.SOLPrice(ctx),
		Timestamp:   now,
	}
	ev.SOLAmountUSD = fact.QuoteAmountSOL * ev.SOLPriceUSD

	info, err := e.resolver.ResolvePair(ctx, fact.TokenMint)
	if err != nil {
		e.logger.Printf("resolve pair for %s: %v", fact.TokenMint, err)
	}
	if err != nil || info == nil {
		ev.TokenSymbol = shortMint(fact.TokenMint)
		ev.Pair = ev.TokenSymbol + "/SOL"
		return ev
	}

	ev.HasMarketData = true
	ev.TokenSymbol = info.Symbol
	ev.Pair = fmt.Sprintf("%s/SOL", info.Symbol)
	ev.MarketCapUSD = info.MarketCapUSD
	ev.LiquidityUSD = info.LiquidityUSD
	ev.LiquiditySOL = info.LiquidityQuote
	ev.PriceUSD = info.PriceUSD
	ev.DexScreenerURL = info.URL

	if !info.PairCreatedAt.IsZero() {
		ev.PairAge = now.Sub(info.PairCreatedAt)
		ev.PairAgeKnown = true
	}
	return ev
}

// shortMint abbreviates a mint address for pair names when no symbol
// is known.
func shortMint(mint string) string {
	if len(mint) <= 8 {
		return mint
	}
	return mint[:4] + ".." + mint[len(mint)-4:]
}
