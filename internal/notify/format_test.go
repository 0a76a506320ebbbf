package notify

import (
	"strings"
	"testing"
	"time"

	"solana-lp-watch/internal/domain"
	"solana-lp-watch/internal/filter"
)

func testEvent() *domain.EnrichedEvent {
	return &domain.EnrichedEvent{
		Fact: &domain.LiquidityAddition{
			Signature:          "5a1b2c3d",
			PoolAddress:        "pool1",
			TokenMint:          "mint1",
			QuoteAmountSOL:     500,
			LiquidityBeforeSOL: 3,
			LiquidityAfterSOL:  503,
			IsPoolCreation:     true,
		},
		TokenSymbol:   "MEME",
		Pair:          "MEME/SOL",
		MarketCapUSD:  100000,
		LiquiditySOL:  503,
		PairAge:       12 * time.Minute,
		PairAgeKnown:  true,
		SOLPriceUSD:   150,
		SOLAmountUSD:  75000,
		HasMarketData: true,
		Timestamp:     time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestFormatAlertMessage(t *testing.T) {
	d := filter.Decision{
		ShouldAlert:    true,
		Priority:       filter.PriorityHigh,
		IgnitionPassed: true,
	}

	msg := FormatAlertMessage(testEvent(), d, domain.ModeTest)

	for _, want := range []string{
		"New Pool Created",
		"[TEST]",
		"<b>MEME/SOL</b>",
		"HIGH priority",
		"+500.00 SOL",
		"$75,000",
		"3.00 → 503.00 SOL",
		"Market cap: $100,000",
		"Pair age: 12m",
		"Near-zero baseline ignition",
		"<code>5a1b2c3d</code>",
		"NOT a trade signal",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("Message missing %q:\n%s", want, msg)
		}
	}
}

func TestFormatAlertMessage_EscapesHTML(t *testing.T) {
	ev := testEvent()
	ev.Pair = "<script>/SOL"

	msg := FormatAlertMessage(ev, filter.Decision{}, domain.ModeLive)
	if strings.Contains(msg, "<script>") {
		t.Error("Pair must be HTML-escaped")
	}
	if !strings.Contains(msg, "&lt;script&gt;/SOL") {
		t.Errorf("Expected escaped pair in message:\n%s", msg)
	}
}

func TestFormatUSD(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{75000, "75,000"},
		{20000000, "20,000,000"},
		{-5, "0"},
	}
	for _, tt := range tests {
		if got := formatUSD(tt.in); got != tt.want {
			t.Errorf("formatUSD(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatAge(t *testing.T) {
	if got := formatAge(12 * time.Minute); got != "12m" {
		t.Errorf("Expected 12m, got %s", got)
	}
	if got := formatAge(90 * time.Minute); got != "1.5h" {
		t.Errorf("Expected 1.5h, got %s", got)
	}
}

func TestSuppressionReason(t *testing.T) {
	th := filter.DefaultThresholds()

	// Fresh ignition into a near-empty pool delivers.
	if reason := suppressionReason(testEvent(), th); reason != "" {
		t.Errorf("Expected delivery, got suppression: %s", reason)
	}

	// A large add into an established pool is a rotation.
	ev := testEvent()
	ev.Fact.LiquidityBeforeSOL = 400
	ev.Fact.LiquidityAfterSOL = 900
	ev.LiquiditySOL = 900
	if reason := suppressionReason(ev, th); reason == "" {
		t.Error("Expected rotation suppression")
	}

	// Market cap re-check at delivery time.
	ev = testEvent()
	ev.MarketCapUSD = 25_000_000
	if reason := suppressionReason(ev, th); reason == "" {
		t.Error("Expected market cap suppression")
	}
}
