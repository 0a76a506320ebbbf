package notify

import (
	"fmt"
	"html"
	"strings"
	"time"

	"solana-lp-watch/internal/domain"
	"solana-lp-watch/internal/filter"
)

// FormatAlertMessage renders one alert as a Telegram HTML message.
func FormatAlertMessage(ev *domain.EnrichedEvent, decision filter.Decision, mode string) string {
	fact := ev.Fact

	var b strings.Builder

	header := "🚨 <b>Liquidity Added</b>"
	if fact.IsPoolCreation {
		header = "🆕 <b>New Pool Created</b>"
	}
	fmt.Fprintf(&b, "%s [%s]\n", header, html.EscapeString(mode))
	fmt.Fprintf(&b, "<b>%s</b>", html.EscapeString(ev.Pair))
	if decision.Priority != "" {
		fmt.Fprintf(&b, " — %s priority", decision.Priority)
	}
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "💧 +%.2f SOL (~$%s)\n", fact.QuoteAmountSOL, formatUSD(ev.SOLAmountUSD))
	fmt.Fprintf(&b, "📊 Liquidity: %.2f → %.2f SOL\n", ev.LPBeforeSOL(), ev.LPBeforeSOL()+fact.QuoteAmountSOL)

	if ev.HasMarketData {
		fmt.Fprintf(&b, "💰 Market cap: $%s\n", formatUSD(ev.MarketCapUSD))
	}
	if ev.PairAgeKnown {
		fmt.Fprintf(&b, "⏱ Pair age: %s\n", formatAge(ev.PairAge))
	}
	if decision.IgnitionPassed {
		b.WriteString("🔥 Near-zero baseline ignition\n")
	}

	fmt.Fprintf(&b, "\n<code>%s</code>\n", html.EscapeString(fact.Signature))
	b.WriteString("\n⚠️ This is NOT a trade signal.")

	return b.String()
}

// formatUSD renders a dollar amount with thousands separators and no cents.
func formatUSD(v float64) string {
	if v < 0 {
		v = 0
	}
	s := fmt.Sprintf("%.0f", v)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// formatAge renders a duration as minutes under an hour, hours otherwise.
func formatAge(d time.Duration) string {
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	return fmt.Sprintf("%.1fh", d.Hours())
}
