package domain

import "time"

// EnrichedEvent is a LiquidityAddition plus best-effort market metadata
// from external lookup services. Never mutated after construction.
type EnrichedEvent struct {
	Fact *LiquidityAddition

	TokenSymbol string
	Pair        string // "SYMBOL/SOL"

	MarketCapUSD float64
	LiquiditySOL float64 // total pool liquidity in SOL
	LiquidityUSD float64
	PriceUSD     float64

	PairAge      time.Duration
	PairAgeKnown bool

	SOLPriceUSD  float64 // native asset price used for USD conversions
	SOLAmountUSD float64 // QuoteAmountSOL * SOLPriceUSD

	DexScreenerURL string

	// HasMarketData is false when every lookup failed; the filter
	// engine treats that as "log only, no alert".
	HasMarketData bool

	Timestamp time.Time
}

// LPBeforeSOL returns the baseline liquidity before this addition,
// preferring the decoder's vault balance and falling back to
// total liquidity minus the added amount.
func (e *EnrichedEvent) LPBeforeSOL() float64 {
	if e.Fact != nil && e.Fact.LiquidityBeforeSOL > 0 {
		return e.Fact.LiquidityBeforeSOL
	}
	before := e.LiquiditySOL
	if e.Fact != nil {
		before -= e.Fact.QuoteAmountSOL
	}
	if before < 0 {
		return 0
	}
	return before
}
