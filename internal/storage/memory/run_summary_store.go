package memory

import (
	"context"
	"sync"

	"trade-risk-lab/internal/domain"
	"trade-risk-lab/internal/storage"
)

// RunSummaryStore is an in-memory implementation of storage.RunSummaryStore.
type RunSummaryStore struct {
	mu   sync.RWMutex
	data map[string][]domain.RunSummary // keyed by batch_id, run order preserved
}

// NewRunSummaryStore creates a new in-memory run summary store.
func NewRunSummaryStore() *RunSummaryStore {
	return &RunSummaryStore{
		data: make(map[string][]domain.RunSummary),
	}
}

// Compile-time interface check.
var _ storage.RunSummaryStore = (*RunSummaryStore)(nil)

// InsertBulk adds the summaries of one batch in run order. Returns
// ErrDuplicateKey if the batch already has summaries stored.
func (s *RunSummaryStore) InsertBulk(_ context.Context, batchID string, summaries []domain.RunSummary) error {
	if batchID == "" || len(summaries) == 0 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[batchID]; exists {
		return storage.ErrDuplicateKey
	}

	stored := make([]domain.RunSummary, len(summaries))
	copy(stored, summaries)
	s.data[batchID] = stored
	return nil
}

// GetByBatchID retrieves a batch's summaries ordered by run index.
// Returns ErrNotFound if the batch has none.
func (s *RunSummaryStore) GetByBatchID(_ context.Context, batchID string) ([]domain.RunSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, exists := s.data[batchID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	out := make([]domain.RunSummary, len(stored))
	copy(out, stored)
	return out, nil
}
