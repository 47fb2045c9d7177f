package memory

import (
	"context"
	"sort"
	"sync"

	"trade-risk-lab/internal/domain"
	"trade-risk-lab/internal/storage"
)

// RiskStatisticsStore is an in-memory implementation of storage.RiskStatisticsStore.
type RiskStatisticsStore struct {
	mu   sync.RWMutex
	data map[string]*domain.RiskStatistics // keyed by batch_id
}

// NewRiskStatisticsStore creates a new in-memory risk statistics store.
func NewRiskStatisticsStore() *RiskStatisticsStore {
	return &RiskStatisticsStore{
		data: make(map[string]*domain.RiskStatistics),
	}
}

// Compile-time interface check.
var _ storage.RiskStatisticsStore = (*RiskStatisticsStore)(nil)

// Insert adds statistics. Returns ErrDuplicateKey if batch_id exists.
func (s *RiskStatisticsStore) Insert(_ context.Context, stats *domain.RiskStatistics) error {
	if stats == nil || stats.BatchID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[stats.BatchID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[stats.BatchID] = cloneStats(stats)
	return nil
}

// GetByBatchID retrieves statistics by batch_id. Returns ErrNotFound if not exists.
func (s *RiskStatisticsStore) GetByBatchID(_ context.Context, batchID string) (*domain.RiskStatistics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats, exists := s.data[batchID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return cloneStats(stats), nil
}

// GetAll retrieves all stored statistics, ordered by batch_id ASC.
func (s *RiskStatisticsStore) GetAll(_ context.Context) ([]*domain.RiskStatistics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.RiskStatistics, 0, len(s.data))
	for _, stats := range s.data {
		out = append(out, cloneStats(stats))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BatchID < out[j].BatchID })
	return out, nil
}

// cloneStats deep-copies statistics so callers never alias stored slices.
func cloneStats(in *domain.RiskStatistics) *domain.RiskStatistics {
	out := *in
	out.DrawdownBreaches = append([]domain.ThresholdProbability(nil), in.DrawdownBreaches...)
	out.TailRisks = append([]domain.TailRisk(nil), in.TailRisks...)
	return &out
}
