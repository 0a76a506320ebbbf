package notify

import (
	"context"
	"io"
	"log"

	"solana-lp-watch/internal/alerting"
	"solana-lp-watch/internal/domain"
	"solana-lp-watch/internal/filter"
)

// LogNotifier writes alerts to a logger. Used when no Telegram token
// is configured.
type LogNotifier struct {
	logger *log.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *log.Logger) *LogNotifier {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &LogNotifier{logger: logger}
}

// Compile-time interface check.
var _ alerting.Notifier = (*LogNotifier)(nil)

// Notify logs the alert in one line.
func (n *LogNotifier) Notify(_ context.Context, ev *domain.EnrichedEvent, decision filter.Decision) error {
	n.logger.Printf("ALERT %s +%.2f SOL priority=%s new_pool=%v sig=%s",
		ev.Pair, ev.Fact.QuoteAmountSOL,
		decision.Priority, ev.Fact.IsPoolCreation, ev.Fact.Signature)
	return nil
}
