// Package filter decides which enriched liquidity additions deserve an
// alert. Events pass through ordered gates; each gate leaves an entry
// in the decision's audit trail.
package filter

import (
	"fmt"
	"io"
	"log"
	"strings"
	"time"
)

// Check statuses.
const (
	StatusPass      = "PASS"
	StatusFail      = "FAIL"
	StatusSkip      = "SKIP"
	StatusBlock     = "BLOCK"
	StatusBypass    = "BYPASS"
	StatusPreferred = "PREFERRED"
	StatusWait      = "WAIT"
	StatusAlert     = "ALERT"
)

// Alert priorities.
const (
	PriorityHigh   = "HIGH"
	PriorityMedium = "MEDIUM"
	PriorityLow    = "LOW"
)

// Age bands for priority assignment.
const (
	priorityHighMaxAge   = 30 * time.Minute
	priorityMediumMaxAge = 2 * time.Hour

	// birthEventMaxAge bounds the corroboration bypass for additions
	// into near-empty pools.
	birthEventMaxAge = 1 * time.Hour
)

// Input is everything the gates need about one liquidity addition.
type Input struct {
	Pair        string // "SYMBOL/SOL"
	TokenSymbol string
	TokenMint   string

	LPAddedSOL  float64
	LPBeforeSOL float64

	IsNewPool bool

	HasMarketData bool
	MarketCapUSD  float64
	PairAge       time.Duration
	PairAgeKnown  bool

	// SignalType labels this event in the corroboration window.
	SignalType string
}

// Check is one gate's entry in the audit trail.
type Check struct {
	Rule   string
	Status string
	Reason string
}

// Decision is the outcome of evaluating one event.
type Decision struct {
	ShouldAlert    bool
	ShouldLog      bool
	Priority       string
	IgnitionPassed bool
	Checks         []Check
}

func (d *Decision) add(rule, status, reason string) {
	d.Checks = append(d.Checks, Check{Rule: rule, Status: status, Reason: reason})
}

// Engine runs the early-stage gates. Safe for concurrent use.
type Engine struct {
	thresholds Thresholds
	signals    *SignalWindow
	logger     *log.Logger
}

// EngineOptions configures an Engine.
type EngineOptions struct {
	Thresholds Thresholds
	Logger     *log.Logger
}

// NewEngine creates an Engine with its own signal window.
func NewEngine(opts EngineOptions) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	th := opts.Thresholds
	if th.SignalWindow == 0 {
		th = DefaultThresholds()
	}
	return &Engine{
		thresholds: th,
		signals:    NewSignalWindow(th.SignalWindow),
		logger:     logger,
	}
}

// Evaluate runs the gates in order and stops at the first terminal
// outcome. ShouldLog is true for every decision except degenerate
// input with no pair at all.
func (e *Engine) Evaluate(in Input) Decision {
	d := Decision{ShouldLog: true}
	th := e.thresholds

	// Gate 1: pair shape.
	if in.Pair == "" {
		d.ShouldLog = false
		d.add("pair_shape", StatusFail, "empty pair")
		return d
	}
	base, quote, ok := strings.Cut(in.Pair, "/")
	if !ok || base == "" || quote != "SOL" {
		d.add("pair_shape", StatusFail, fmt.Sprintf("not a SOL pair: %s", in.Pair))
		return d
	}
	d.add("pair_shape", StatusPass, "SOL-quoted pair")

	// Gate 2: legacy meme denylist.
	if th.LegacyMemes[strings.ToUpper(in.TokenSymbol)] {
		d.add("legacy_denylist", StatusBlock, fmt.Sprintf("established meme token %s", in.TokenSymbol))
		return d
	}
	d.add("legacy_denylist", StatusPass, "not a legacy meme")

	// Gate 3: market data availability. No data means the pool is too
	// fresh for the lookup services; log it, never alert on it.
	if !in.HasMarketData {
		d.add("market_data", StatusSkip, "no market data available")
		return d
	}
	d.add("market_data", StatusPass, "market data available")

	// Gate 4: pair age.
	switch {
	case !in.PairAgeKnown:
		d.Priority = PriorityLow
		d.add("pair_age", StatusSkip, "pair age unknown")
	case in.PairAge > th.HardRejectPairAge:
		d.add("pair_age", StatusBlock,
			fmt.Sprintf("pair age %.1fh exceeds %.0fh", in.PairAge.Hours(), th.HardRejectPairAge.Hours()))
		return d
	case in.PairAge <= priorityHighMaxAge:
		d.Priority = PriorityHigh
		d.add("pair_age", StatusPass, fmt.Sprintf("fresh pair (%.1fh)", in.PairAge.Hours()))
	case in.PairAge <= priorityMediumMaxAge:
		d.Priority = PriorityMedium
		d.add("pair_age", StatusPass, fmt.Sprintf("young pair (%.1fh)", in.PairAge.Hours()))
	case in.PairAge <= th.PreferredPairAge:
		d.Priority = PriorityLow
		d.add("pair_age", StatusPreferred, fmt.Sprintf("sweet spot (%.1fh)", in.PairAge.Hours()))
	default:
		d.Priority = PriorityLow
		d.add("pair_age", StatusPass, fmt.Sprintf("late window (%.1fh)", in.PairAge.Hours()))
	}

	// Gate 5: market cap.
	if in.MarketCapUSD >= th.HardRejectMarketCapUSD {
		d.add("market_cap", StatusFail,
			fmt.Sprintf("market cap $%.0f at or above $%.0f", in.MarketCapUSD, th.HardRejectMarketCapUSD))
		return d
	}
	d.add("market_cap", StatusPass, fmt.Sprintf("market cap $%.0f", in.MarketCapUSD))

	// Gate 6: near-zero ignition.
	if in.LPBeforeSOL > th.HardRejectBaselineSOL || in.LPAddedSOL < th.MinIgniteSOL {
		d.add("ignition", StatusFail,
			fmt.Sprintf("baseline %.1f SOL, added %.1f SOL", in.LPBeforeSOL, in.LPAddedSOL))
		return d
	}
	d.IgnitionPassed = true
	d.add("ignition", StatusPass,
		fmt.Sprintf("baseline %.1f SOL, added %.1f SOL", in.LPBeforeSOL, in.LPAddedSOL))

	// Gate 7: multi-signal corroboration.
	switch {
	case !th.RequireMultiSignal:
		d.add("multi_signal", StatusBypass, "corroboration disabled")
	case in.IsNewPool:
		d.add("multi_signal", StatusBypass, "pool creation event")
	case in.LPBeforeSOL <= th.NearZeroBaselineSOL && in.PairAgeKnown && in.PairAge <= birthEventMaxAge:
		d.add("multi_signal", StatusBypass, "birth event on near-empty pool")
	default:
		count := e.signals.Observe(in.TokenMint, in.SignalType)
		if count < th.MinSignalsRequired {
			d.add("multi_signal", StatusWait,
				fmt.Sprintf("%d of %d distinct signal types in window", count, th.MinSignalsRequired))
			return d
		}
		d.add("multi_signal", StatusPass,
			fmt.Sprintf("%d distinct signal types in window", count))
	}

	d.ShouldAlert = true
	d.add("final", StatusAlert, "all early-stage rules passed")
	return d
}
