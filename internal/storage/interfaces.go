// Package storage defines the persistence boundaries of the risk lab.
// Historical trades and batch metadata live in PostgreSQL; the
// high-volume per-run summaries and the derived statistics live in
// ClickHouse. In-memory implementations back tests and fixture mode.
package storage

import (
	"context"

	"trade-risk-lab/internal/domain"
)

// TradeStore provides access to historical trades, the raw material of
// the outcome set.
type TradeStore interface {
	// Insert adds a new trade. Returns ErrDuplicateKey if trade_id exists.
	Insert(ctx context.Context, t *domain.Trade) error

	// InsertBulk adds multiple trades atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, trades []*domain.Trade) error

	// GetAll retrieves all trades, ordered by closed_at ASC, trade_id ASC.
	GetAll(ctx context.Context) ([]*domain.Trade, error)

	// GetClosed retrieves closed trades only, in the same order.
	GetClosed(ctx context.Context) ([]*domain.Trade, error)
}

// BatchStore provides access to simulation batch metadata.
type BatchStore interface {
	// Insert adds batch metadata. Returns ErrDuplicateKey if batch_id exists.
	Insert(ctx context.Context, b *domain.BatchRecord) error

	// GetByID retrieves metadata by batch_id. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, batchID string) (*domain.BatchRecord, error)

	// GetAll retrieves all batch records, ordered by created_at ASC.
	GetAll(ctx context.Context) ([]*domain.BatchRecord, error)
}

// RunSummaryStore provides access to per-run summaries of a batch.
type RunSummaryStore interface {
	// InsertBulk adds the summaries of one batch in run order. Returns
	// ErrDuplicateKey if the batch already has summaries stored.
	InsertBulk(ctx context.Context, batchID string, summaries []domain.RunSummary) error

	// GetByBatchID retrieves a batch's summaries ordered by run index.
	// Returns ErrNotFound if the batch has none.
	GetByBatchID(ctx context.Context, batchID string) ([]domain.RunSummary, error)
}

// RiskStatisticsStore provides access to computed risk statistics.
type RiskStatisticsStore interface {
	// Insert adds statistics. Returns ErrDuplicateKey if batch_id exists.
	Insert(ctx context.Context, s *domain.RiskStatistics) error

	// GetByBatchID retrieves statistics by batch_id. Returns ErrNotFound if not exists.
	GetByBatchID(ctx context.Context, batchID string) (*domain.RiskStatistics, error)

	// GetAll retrieves all stored statistics.
	GetAll(ctx context.Context) ([]*domain.RiskStatistics, error)
}
