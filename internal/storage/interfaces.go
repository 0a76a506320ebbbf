package storage

import (
	"context"

	"solana-lp-watch/internal/domain"
)

// AlertStore provides access to alerts storage.
type AlertStore interface {
	// Insert adds a new alert record. Returns ErrDuplicateKey if the
	// transaction signature was already recorded.
	Insert(ctx context.Context, a *domain.AlertRecord) error

	// GetByID retrieves an alert by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.AlertRecord, error)

	// GetBySignature retrieves the alert for a transaction signature.
	// Returns ErrNotFound if not exists.
	GetBySignature(ctx context.Context, signature string) (*domain.AlertRecord, error)

	// GetByTokenMint retrieves all alerts for a token, ordered by triggered_at ASC.
	GetByTokenMint(ctx context.Context, mint string) ([]*domain.AlertRecord, error)

	// GetRecent retrieves the most recent alerts, newest first.
	GetRecent(ctx context.Context, limit int) ([]*domain.AlertRecord, error)
}

// DecisionLogStore provides access to the filter decision archive.
type DecisionLogStore interface {
	// InsertBulk adds multiple decision records. Records already
	// archived for the same signature are skipped, not an error.
	InsertBulk(ctx context.Context, records []*domain.DecisionRecord) error

	// GetByTokenMint retrieves all decisions for a token, ordered by triggered_at ASC.
	GetByTokenMint(ctx context.Context, mint string) ([]*domain.DecisionRecord, error)
}
