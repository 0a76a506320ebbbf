package memory

import (
	"context"
	"sort"
	"sync"

	"solana-lp-watch/internal/domain"
	"solana-lp-watch/internal/storage"
)

// AlertStore is an in-memory implementation of storage.AlertStore.
type AlertStore struct {
	mu   sync.RWMutex
	data map[string]*domain.AlertRecord // keyed by tx signature
	byID map[string]string              // alert ID -> tx signature
}

// NewAlertStore creates a new in-memory alert store.
func NewAlertStore() *AlertStore {
	return &AlertStore{
		data: make(map[string]*domain.AlertRecord),
		byID: make(map[string]string),
	}
}

// Insert adds a new alert record. Returns ErrDuplicateKey if the
// transaction signature was already recorded.
func (s *AlertStore) Insert(_ context.Context, a *domain.AlertRecord) error {
	if a == nil || a.ID == "" || a.TxSignature == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[a.TxSignature]; exists {
		return storage.ErrDuplicateKey
	}

	alertCopy := *a
	s.data[a.TxSignature] = &alertCopy
	s.byID[a.ID] = a.TxSignature
	return nil
}

// GetByID retrieves an alert by its ID. Returns ErrNotFound if not exists.
func (s *AlertStore) GetByID(_ context.Context, id string) (*domain.AlertRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sig, ok := s.byID[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	alertCopy := *s.data[sig]
	return &alertCopy, nil
}

// GetBySignature retrieves the alert for a transaction signature.
// Returns ErrNotFound if not exists.
func (s *AlertStore) GetBySignature(_ context.Context, signature string) (*domain.AlertRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.data[signature]
	if !ok {
		return nil, storage.ErrNotFound
	}
	alertCopy := *a
	return &alertCopy, nil
}

// GetByTokenMint retrieves all alerts for a token, ordered by triggered_at ASC.
func (s *AlertStore) GetByTokenMint(_ context.Context, mint string) ([]*domain.AlertRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.AlertRecord
	for _, a := range s.data {
		if a.TokenMint == mint {
			alertCopy := *a
			result = append(result, &alertCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].TriggeredAt.Before(result[j].TriggeredAt)
	})

	return result, nil
}

// GetRecent retrieves the most recent alerts, newest first.
func (s *AlertStore) GetRecent(_ context.Context, limit int) ([]*domain.AlertRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.AlertRecord, 0, len(s.data))
	for _, a := range s.data {
		alertCopy := *a
		result = append(result, &alertCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].TriggeredAt.After(result[j].TriggeredAt)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

var _ storage.AlertStore = (*AlertStore)(nil)
