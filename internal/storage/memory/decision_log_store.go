package memory

import (
	"context"
	"sort"
	"sync"

	"solana-lp-watch/internal/domain"
	"solana-lp-watch/internal/storage"
)

// DecisionLogStore is an in-memory implementation of storage.DecisionLogStore.
type DecisionLogStore struct {
	mu   sync.RWMutex
	data map[string]*domain.DecisionRecord // keyed by tx signature
}

// NewDecisionLogStore creates a new in-memory decision log store.
func NewDecisionLogStore() *DecisionLogStore {
	return &DecisionLogStore{
		data: make(map[string]*domain.DecisionRecord),
	}
}

// InsertBulk adds multiple decision records. Records already archived
// for the same signature are skipped, not an error.
func (s *DecisionLogStore) InsertBulk(_ context.Context, records []*domain.DecisionRecord) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range records {
		if r == nil || r.TxSignature == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[r.TxSignature]; exists {
			continue
		}
		recordCopy := *r
		s.data[r.TxSignature] = &recordCopy
	}
	return nil
}

// GetByTokenMint retrieves all decisions for a token, ordered by triggered_at ASC.
func (s *DecisionLogStore) GetByTokenMint(_ context.Context, mint string) ([]*domain.DecisionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.DecisionRecord
	for _, r := range s.data {
		if r.TokenMint == mint {
			recordCopy := *r
			result = append(result, &recordCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].TriggeredAt.Before(result[j].TriggeredAt)
	})

	return result, nil
}

var _ storage.DecisionLogStore = (*DecisionLogStore)(nil)
