// Package alerting persists filter decisions and delivers alerts.
package alerting

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/google/uuid"

	"solana-lp-watch/internal/domain"
	"solana-lp-watch/internal/filter"
	"solana-lp-watch/internal/observability"
	"solana-lp-watch/internal/pipeline"
	"solana-lp-watch/internal/storage"
)

// Compile-time interface check.
var _ pipeline.Sink = (*Recorder)(nil)

// Notifier delivers an alert to an external channel.
type Notifier interface {
	Notify(ctx context.Context, ev *domain.EnrichedEvent, decision filter.Decision) error
}

// Recorder persists every loggable decision and notifies on alerts.
// It implements the pipeline sink.
type Recorder struct {
	alerts    storage.AlertStore
	decisions storage.DecisionLogStore
	notifier  Notifier
	mode      string
	logger    *log.Logger
	newID     func() string
	now       func() time.Time
}

// RecorderOptions configures a Recorder. Alerts and Decisions are
// required; Notifier may be nil to record without delivering.
type RecorderOptions struct {
	Alerts    storage.AlertStore
	Decisions storage.DecisionLogStore
	Notifier  Notifier
	Mode      string
	Logger    *log.Logger
}

// NewRecorder creates a Recorder.
func NewRecorder(opts RecorderOptions) *Recorder {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	mode := opts.Mode
	if mode == "" {
		mode = domain.ModeTest
	}
	return &Recorder{
		alerts:    opts.Alerts,
		decisions: opts.Decisions,
		notifier:  opts.Notifier,
		mode:      mode,
		logger:    logger,
		newID:     uuid.NewString,
		now:       time.Now,
	}
}

// Emit archives the decision, persists an alert row, and delivers the
// notification when the decision says to alert. A duplicate signature
// is not an error: reprocessing the same transaction is a no-op.
func (r *Recorder) Emit(ctx context.Context, ev *domain.EnrichedEvent, decision filter.Decision) error {
	if ev == nil || ev.Fact == nil {
		return fmt.Errorf("emit: event without fact")
	}

	if err := r.decisions.InsertBulk(ctx, []*domain.DecisionRecord{buildDecision(ev, decision)}); err != nil {
		r.logger.Printf("archive decision %s: %v", ev.Fact.Signature, err)
	}

	err := r.alerts.Insert(ctx, r.buildAlert(ev, decision))
	if errors.Is(err, storage.ErrDuplicateKey) {
		r.logger.Printf("alert for %s already recorded", ev.Fact.Signature)
		return nil
	}
	if err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}

	if decision.ShouldAlert && r.notifier != nil {
		if err := r.notifier.Notify(ctx, ev, decision); err != nil {
			observability.RecordNotifyError()
			r.logger.Printf("notify %s: %v", ev.Fact.Signature, err)
		}
	}

	return nil
}

func (r *Recorder) buildAlert(ev *domain.EnrichedEvent, decision filter.Decision) *domain.AlertRecord {
	fact := ev.Fact

	var ageHours float64
	if ev.PairAgeKnown {
		ageHours = ev.PairAge.Hours()
	}

	triggeredAt := ev.Timestamp
	if triggeredAt.IsZero() {
		triggeredAt = r.now()
	}

	after := fact.LiquidityAfterSOL
	if after == 0 {
		after = ev.LPBeforeSOL() + fact.QuoteAmountSOL
	}

	return &domain.AlertRecord{
		ID:           r.newID(),
		Type:         domain.AlertTypeLPAdd,
		Chain:        "solana",
		Pair:         ev.Pair,
		TokenMint:    fact.TokenMint,
		PoolAddress:  fact.PoolAddress,
		TxSignature:  fact.Signature,
		ValueSOL:     fact.QuoteAmountSOL,
		ValueUSD:     ev.SOLAmountUSD,
		LPSOLBefore:  ev.LPBeforeSOL(),
		LPSOLAfter:   after,
		MarketCapUSD: ev.MarketCapUSD,
		PairAgeHours: ageHours,
		IsNewPool:    fact.IsPoolCreation,
		Passed:       decision.ShouldAlert,
		Priority:     decision.Priority,
		Mode:         r.mode,
		TriggeredAt:  triggeredAt,
	}
}

func buildDecision(ev *domain.EnrichedEvent, decision filter.Decision) *domain.DecisionRecord {
	fact := ev.Fact

	rules := make([]string, 0, len(decision.Checks))
	statuses := make([]string, 0, len(decision.Checks))
	reasons := make([]string, 0, len(decision.Checks))
	for _, c := range decision.Checks {
		rules = append(rules, c.Rule)
		statuses = append(statuses, c.Status)
		reasons = append(reasons, c.Reason)
	}

	return &domain.DecisionRecord{
		TxSignature:    fact.Signature,
		Pair:           ev.Pair,
		TokenMint:      fact.TokenMint,
		LPAddedSOL:     fact.QuoteAmountSOL,
		LPBeforeSOL:    ev.LPBeforeSOL(),
		ShouldAlert:    decision.ShouldAlert,
		Priority:       decision.Priority,
		IgnitionPassed: decision.IgnitionPassed,
		CheckRules:     rules,
		CheckStatuses:  statuses,
		CheckReasons:   reasons,
		TriggeredAt:    ev.Timestamp,
	}
}
