package clickhouse

import (
	"context"
	"fmt"

	"solana-lp-watch/internal/domain"
	"solana-lp-watch/internal/storage"
)

// chRows is the subset of driver.Rows used by scan helpers.
type chRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// DecisionLogStore implements storage.DecisionLogStore using ClickHouse.
type DecisionLogStore struct {
	conn *Conn
}

// NewDecisionLogStore creates a new DecisionLogStore.
func NewDecisionLogStore(conn *Conn) *DecisionLogStore {
	return &DecisionLogStore{conn: conn}
}

// Compile-time interface check.
var _ storage.DecisionLogStore = (*DecisionLogStore)(nil)

// InsertBulk archives multiple decision records. Signatures already
// archived are skipped silently; re-evaluating a transaction must not
// fail the batch.
func (s *DecisionLogStore) InsertBulk(ctx context.Context, records []*domain.DecisionRecord) error {
	if len(records) == 0 {
		return nil
	}

	seen := make(map[string]struct{})
	var fresh []*domain.DecisionRecord
	for _, r := range records {
		if r == nil || r.TxSignature == "" {
			return storage.ErrInvalidInput
		}
		if _, dup := seen[r.TxSignature]; dup {
			continue
		}
		seen[r.TxSignature] = struct{}{}

		exists, err := s.exists(ctx, r.TxSignature)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			continue
		}
		fresh = append(fresh, r)
	}

	if len(fresh) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO decision_log (
			tx_signature, pair, token_mint, lp_added_sol, lp_before_sol,
			should_alert, priority, ignition_passed,
			check_rules, check_statuses, check_reasons, triggered_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, r := range fresh {
		err = batch.Append(
			r.TxSignature, r.Pair, r.TokenMint, r.LPAddedSOL, r.LPBeforeSOL,
			r.ShouldAlert, r.Priority, r.IgnitionPassed,
			r.CheckRules, r.CheckStatuses, r.CheckReasons, r.TriggeredAt,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByTokenMint retrieves all decisions for a token, ordered by triggered_at ASC.
func (s *DecisionLogStore) GetByTokenMint(ctx context.Context, mint string) ([]*domain.DecisionRecord, error) {
	query := `
		SELECT tx_signature, pair, token_mint, lp_added_sol, lp_before_sol,
		       should_alert, priority, ignition_passed,
		       check_rules, check_statuses, check_reasons, triggered_at
		FROM decision_log
		WHERE token_mint = ?
		ORDER BY triggered_at ASC
	`

	rows, err := s.conn.Query(ctx, query, mint)
	if err != nil {
		return nil, fmt.Errorf("query by token mint: %w", err)
	}
	defer rows.Close()

	return scanDecisions(rows)
}

// exists checks if a decision with the given signature is already archived.
func (s *DecisionLogStore) exists(ctx context.Context, signature string) (bool, error) {
	query := `SELECT count(*) FROM decision_log WHERE tx_signature = ?`

	var count uint64
	err := s.conn.QueryRow(ctx, query, signature).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// scanDecisions scans multiple rows.
func scanDecisions(rows chRows) ([]*domain.DecisionRecord, error) {
	var records []*domain.DecisionRecord

	for rows.Next() {
		var r domain.DecisionRecord

		err := rows.Scan(
			&r.TxSignature, &r.Pair, &r.TokenMint, &r.LPAddedSOL, &r.LPBeforeSOL,
			&r.ShouldAlert, &r.Priority, &r.IgnitionPassed,
			&r.CheckRules, &r.CheckStatuses, &r.CheckReasons, &r.TriggeredAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan decision row: %w", err)
		}

		records = append(records, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate decision rows: %w", err)
	}

	return records, nil
}
