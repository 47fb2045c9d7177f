package memory

import (
	"context"
	"sort"
	"sync"

	"trade-risk-lab/internal/domain"
	"trade-risk-lab/internal/storage"
)

// BatchStore is an in-memory implementation of storage.BatchStore.
type BatchStore struct {
	mu   sync.RWMutex
	data map[string]*domain.BatchRecord // keyed by batch_id
}

// NewBatchStore creates a new in-memory batch store.
func NewBatchStore() *BatchStore {
	return &BatchStore{
		data: make(map[string]*domain.BatchRecord),
	}
}

// Compile-time interface check.
var _ storage.BatchStore = (*BatchStore)(nil)

// Insert adds batch metadata. Returns ErrDuplicateKey if batch_id exists.
func (s *BatchStore) Insert(_ context.Context, b *domain.BatchRecord) error {
	if b == nil || b.BatchID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[b.BatchID]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *b
	s.data[b.BatchID] = &copy
	return nil
}

// GetByID retrieves metadata by batch_id. Returns ErrNotFound if not exists.
func (s *BatchStore) GetByID(_ context.Context, batchID string) (*domain.BatchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, exists := s.data[batchID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	copy := *b
	return &copy, nil
}

// GetAll retrieves all batch records, ordered by created_at ASC.
func (s *BatchStore) GetAll(_ context.Context) ([]*domain.BatchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.BatchRecord, 0, len(s.data))
	for _, b := range s.data {
		copy := *b
		out = append(out, &copy)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].BatchID < out[j].BatchID
	})
	return out, nil
}
