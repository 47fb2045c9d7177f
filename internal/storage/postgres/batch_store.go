package postgres

import (
	"context"
	"fmt"

	"trade-risk-lab/internal/domain"
	"trade-risk-lab/internal/storage"
)

// BatchStore implements storage.BatchStore using PostgreSQL.
type BatchStore struct {
	pool *Pool
}

// NewBatchStore creates a new BatchStore.
func NewBatchStore(pool *Pool) *BatchStore {
	return &BatchStore{pool: pool}
}

// Compile-time interface check.
var _ storage.BatchStore = (*BatchStore)(nil)

// Insert adds batch metadata. Returns ErrDuplicateKey if batch_id exists.
func (s *BatchStore) Insert(ctx context.Context, b *domain.BatchRecord) error {
	if b == nil || b.BatchID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO simulation_batches (
			batch_id, created_at, outcome_count, trades_per_sim,
			requested, completed, seed, unstable_runs
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)
	`
	_, err := s.pool.Exec(ctx, query,
		b.BatchID, b.CreatedAt, b.OutcomeCount, b.TradesPerSim,
		b.Requested, b.Completed, b.Seed, b.UnstableRuns,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert batch record: %w", err)
	}
	return nil
}

// GetByID retrieves metadata by batch_id. Returns ErrNotFound if not exists.
func (s *BatchStore) GetByID(ctx context.Context, batchID string) (*domain.BatchRecord, error) {
	query := `
		SELECT batch_id, created_at, outcome_count, trades_per_sim,
		       requested, completed, seed, unstable_runs
		FROM simulation_batches
		WHERE batch_id = $1
	`
	b := &domain.BatchRecord{}
	err := s.pool.QueryRow(ctx, query, batchID).Scan(
		&b.BatchID, &b.CreatedAt, &b.OutcomeCount, &b.TradesPerSim,
		&b.Requested, &b.Completed, &b.Seed, &b.UnstableRuns,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get batch record: %w", err)
	}
	return b, nil
}

// GetAll retrieves all batch records, ordered by created_at ASC.
func (s *BatchStore) GetAll(ctx context.Context) ([]*domain.BatchRecord, error) {
	query := `
		SELECT batch_id, created_at, outcome_count, trades_per_sim,
		       requested, completed, seed, unstable_runs
		FROM simulation_batches
		ORDER BY created_at ASC, batch_id ASC
	`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query batch records: %w", err)
	}
	defer rows.Close()

	var records []*domain.BatchRecord
	for rows.Next() {
		b := &domain.BatchRecord{}
		err := rows.Scan(
			&b.BatchID, &b.CreatedAt, &b.OutcomeCount, &b.TradesPerSim,
			&b.Requested, &b.Completed, &b.Seed, &b.UnstableRuns,
		)
		if err != nil {
			return nil, fmt.Errorf("scan batch record: %w", err)
		}
		records = append(records, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate batch records: %w", err)
	}
	return records, nil
}
