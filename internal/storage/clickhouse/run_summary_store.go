package clickhouse

import (
	"context"
	"fmt"

	"trade-risk-lab/internal/domain"
	"trade-risk-lab/internal/storage"
)

// RunSummaryStore implements storage.RunSummaryStore using ClickHouse.
// Summaries are keyed by (batch_id, run_index); run_index preserves the
// deterministic run ordering of the batch.
type RunSummaryStore struct {
	conn *Conn
}

// NewRunSummaryStore creates a new RunSummaryStore.
func NewRunSummaryStore(conn *Conn) *RunSummaryStore {
	return &RunSummaryStore{conn: conn}
}

// Compile-time interface check.
var _ storage.RunSummaryStore = (*RunSummaryStore)(nil)

// InsertBulk adds the summaries of one batch in run order. Returns
// ErrDuplicateKey if the batch already has summaries stored.
func (s *RunSummaryStore) InsertBulk(ctx context.Context, batchID string, summaries []domain.RunSummary) error {
	if batchID == "" {
		return storage.ErrInvalidInput
	}
	if len(summaries) == 0 {
		return nil
	}

	// ClickHouse MergeTree doesn't enforce uniqueness at insert time;
	// check against existing rows before writing.
	exists, err := s.exists(ctx, batchID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO run_summaries (
			batch_id, run_index, terminal_return, max_drawdown, win_rate
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for i, r := range summaries {
		err = batch.Append(
			batchID, uint32(i), r.TerminalReturn, r.MaxDrawdown, r.WinRate,
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

// GetByBatchID retrieves a batch's summaries ordered by run index.
// Returns ErrNotFound if the batch has none.
func (s *RunSummaryStore) GetByBatchID(ctx context.Context, batchID string) ([]domain.RunSummary, error) {
	query := `
		SELECT terminal_return, max_drawdown, win_rate
		FROM run_summaries
		WHERE batch_id = ?
		ORDER BY run_index ASC
	`

	rows, err := s.conn.Query(ctx, query, batchID)
	if err != nil {
		return nil, fmt.Errorf("query by batch id: %w", err)
	}
	defer rows.Close()

	summaries, err := scanRunSummaries(rows)
	if err != nil {
		return nil, err
	}
	if len(summaries) == 0 {
		return nil, storage.ErrNotFound
	}
	return summaries, nil
}

// exists checks if any summaries are stored for the batch.
func (s *RunSummaryStore) exists(ctx context.Context, batchID string) (bool, error) {
	query := `
		SELECT count(*) FROM run_summaries
		WHERE batch_id = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, batchID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// scanRunSummaries scans multiple rows.
func scanRunSummaries(rows chRows) ([]domain.RunSummary, error) {
	var summaries []domain.RunSummary

	for rows.Next() {
		var r domain.RunSummary
		err := rows.Scan(&r.TerminalReturn, &r.MaxDrawdown, &r.WinRate)
		if err != nil {
			return nil, fmt.Errorf("scan run summary row: %w", err)
		}
		summaries = append(summaries, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run summary rows: %w", err)
	}

	return summaries, nil
}
