package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-lp-watch/internal/domain"
	"solana-lp-watch/internal/storage"
)

// AlertStore implements storage.AlertStore using PostgreSQL.
type AlertStore struct {
	pool *Pool
}

// NewAlertStore creates a new AlertStore.
func NewAlertStore(pool *Pool) *AlertStore {
	return &AlertStore{pool: pool}
}

// Compile-time interface check.
var _ storage.AlertStore = (*AlertStore)(nil)

const alertColumns = `
	id, alert_type, chain, pair, token_mint, pool_address, tx_signature,
	value_sol, value_usd, lp_sol_before, lp_sol_after,
	market_cap_usd, pair_age_hours, is_new_pool, passed, priority, mode,
	triggered_at, created_at
`

// Insert adds a new alert record. Returns ErrDuplicateKey if the
// transaction signature was already recorded.
func (s *AlertStore) Insert(ctx context.Context, a *domain.AlertRecord) error {
	if a == nil || a.ID == "" || a.TxSignature == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO alerts (
			id, alert_type, chain, pair, token_mint, pool_address, tx_signature,
			value_sol, value_usd, lp_sol_before, lp_sol_after,
			market_cap_usd, pair_age_hours, is_new_pool, passed, priority, mode,
			triggered_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	_, err := s.pool.Exec(ctx, query,
		a.ID,
		a.Type,
		a.Chain,
		a.Pair,
		a.TokenMint,
		a.PoolAddress,
		a.TxSignature,
		a.ValueSOL,
		a.ValueUSD,
		a.LPSOLBefore,
		a.LPSOLAfter,
		a.MarketCapUSD,
		a.PairAgeHours,
		a.IsNewPool,
		a.Passed,
		a.Priority,
		a.Mode,
		a.TriggeredAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert alert: %w", err)
	}
	return nil
}

// GetByID retrieves an alert by its ID. Returns ErrNotFound if not exists.
func (s *AlertStore) GetByID(ctx context.Context, id string) (*domain.AlertRecord, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE id = $1`

	a, err := scanAlert(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get alert by id: %w", err)
	}
	return a, nil
}

// GetBySignature retrieves the alert for a transaction signature.
// Returns ErrNotFound if not exists.
func (s *AlertStore) GetBySignature(ctx context.Context, signature string) (*domain.AlertRecord, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE tx_signature = $1`

	a, err := scanAlert(s.pool.QueryRow(ctx, query, signature))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get alert by signature: %w", err)
	}
	return a, nil
}

// GetByTokenMint retrieves all alerts for a token, ordered by triggered_at ASC.
func (s *AlertStore) GetByTokenMint(ctx context.Context, mint string) ([]*domain.AlertRecord, error) {
	query := `
		SELECT ` + alertColumns + `
		FROM alerts
		WHERE token_mint = $1
		ORDER BY triggered_at ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, mint)
	if err != nil {
		return nil, fmt.Errorf("get alerts by token mint: %w", err)
	}
	defer rows.Close()

	return scanAlerts(rows)
}

// GetRecent retrieves the most recent alerts, newest first.
func (s *AlertStore) GetRecent(ctx context.Context, limit int) ([]*domain.AlertRecord, error) {
	query := `
		SELECT ` + alertColumns + `
		FROM alerts
		ORDER BY triggered_at DESC, id DESC
		LIMIT $1
	`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("get recent alerts: %w", err)
	}
	defer rows.Close()

	return scanAlerts(rows)
}

// scanAlert scans a single row into an AlertRecord.
func scanAlert(row pgx.Row) (*domain.AlertRecord, error) {
	var a domain.AlertRecord
	err := row.Scan(
		&a.ID,
		&a.Type,
		&a.Chain,
		&a.Pair,
		&a.TokenMint,
		&a.PoolAddress,
		&a.TxSignature,
		&a.ValueSOL,
		&a.ValueUSD,
		&a.LPSOLBefore,
		&a.LPSOLAfter,
		&a.MarketCapUSD,
		&a.PairAgeHours,
		&a.IsNewPool,
		&a.Passed,
		&a.Priority,
		&a.Mode,
		&a.TriggeredAt,
		&a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// scanAlerts scans multiple rows into a slice of AlertRecord.
func scanAlerts(rows pgx.Rows) ([]*domain.AlertRecord, error) {
	var alerts []*domain.AlertRecord

	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("scan alert row: %w", err)
		}
		alerts = append(alerts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alert rows: %w", err)
	}

	return alerts, nil
}
