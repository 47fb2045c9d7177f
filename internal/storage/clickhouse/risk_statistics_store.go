package clickhouse

import (
	"context"
	"fmt"

	"trade-risk-lab/internal/domain"
	"trade-risk-lab/internal/storage"
)

// RiskStatisticsStore implements storage.RiskStatisticsStore using
// ClickHouse. The three metric summaries are flattened into prefixed
// columns; the threshold and tail ladders are stored as parallel arrays.
type RiskStatisticsStore struct {
	conn *Conn
}

// NewRiskStatisticsStore creates a new RiskStatisticsStore.
func NewRiskStatisticsStore(conn *Conn) *RiskStatisticsStore {
	return &RiskStatisticsStore{conn: conn}
}

// Compile-time interface check.
var _ storage.RiskStatisticsStore = (*RiskStatisticsStore)(nil)

// Insert adds statistics. Returns ErrDuplicateKey if batch_id exists.
func (s *RiskStatisticsStore) Insert(ctx context.Context, stats *domain.RiskStatistics) error {
	if stats == nil || stats.BatchID == "" {
		return storage.ErrInvalidInput
	}

	exists, err := s.exists(ctx, stats.BatchID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	thresholds := make([]float64, len(stats.DrawdownBreaches))
	probabilities := make([]float64, len(stats.DrawdownBreaches))
	for i, b := range stats.DrawdownBreaches {
		thresholds[i] = b.Threshold
		probabilities[i] = b.Probability
	}

	levels := make([]float64, len(stats.TailRisks))
	vars := make([]float64, len(stats.TailRisks))
	cvars := make([]float64, len(stats.TailRisks))
	for i, tr := range stats.TailRisks {
		levels[i] = tr.Level
		vars[i] = tr.VaR
		cvars[i] = tr.CVaR
	}

	query := `
		INSERT INTO risk_statistics (
			batch_id, requested, completed,
			terminal_mean, terminal_stddev, terminal_p5, terminal_p25, terminal_p50, terminal_p75, terminal_p95,
			drawdown_mean, drawdown_stddev, drawdown_p5, drawdown_p25, drawdown_p50, drawdown_p75, drawdown_p95,
			win_rate_mean, win_rate_stddev, win_rate_p5, win_rate_p25, win_rate_p50, win_rate_p75, win_rate_p95,
			prob_positive_return,
			drawdown_thresholds, drawdown_probabilities,
			tail_levels, tail_var, tail_cvar,
			unstable_runs
		) VALUES (
			?, ?, ?,
			?, ?, ?, ?, ?, ?, ?,
			?, ?, ?, ?, ?, ?, ?,
			?, ?, ?, ?, ?, ?, ?,
			?,
			?, ?,
			?, ?, ?,
			?
		)
	`
	err = s.conn.Exec(ctx, query,
		stats.BatchID, uint32(stats.Requested), uint32(stats.Completed),
		stats.TerminalReturn.Mean, stats.TerminalReturn.Stddev,
		stats.TerminalReturn.P5, stats.TerminalReturn.P25, stats.TerminalReturn.P50,
		stats.TerminalReturn.P75, stats.TerminalReturn.P95,
		stats.MaxDrawdown.Mean, stats.MaxDrawdown.Stddev,
		stats.MaxDrawdown.P5, stats.MaxDrawdown.P25, stats.MaxDrawdown.P50,
		stats.MaxDrawdown.P75, stats.MaxDrawdown.P95,
		stats.WinRate.Mean, stats.WinRate.Stddev,
		stats.WinRate.P5, stats.WinRate.P25, stats.WinRate.P50,
		stats.WinRate.P75, stats.WinRate.P95,
		stats.ProbPositiveReturn,
		thresholds, probabilities,
		levels, vars, cvars,
		uint32(stats.UnstableRuns),
	)
	if err != nil {
		return fmt.Errorf("insert risk statistics: %w", err)
	}
	return nil
}

// GetByBatchID retrieves statistics by batch_id. Returns ErrNotFound if not exists.
func (s *RiskStatisticsStore) GetByBatchID(ctx context.Context, batchID string) (*domain.RiskStatistics, error) {
	query := selectRiskStatistics + `
		WHERE batch_id = ?
	`

	rows, err := s.conn.Query(ctx, query, batchID)
	if err != nil {
		return nil, fmt.Errorf("query by batch id: %w", err)
	}
	defer rows.Close()

	all, err := scanRiskStatistics(rows)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, storage.ErrNotFound
	}
	return all[0], nil
}

// GetAll retrieves all stored statistics.
func (s *RiskStatisticsStore) GetAll(ctx context.Context) ([]*domain.RiskStatistics, error) {
	query := selectRiskStatistics + `
		ORDER BY batch_id ASC
	`

	rows, err := s.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query all: %w", err)
	}
	defer rows.Close()

	return scanRiskStatistics(rows)
}

// exists checks if statistics are stored for the batch.
func (s *RiskStatisticsStore) exists(ctx context.Context, batchID string) (bool, error) {
	query := `
		SELECT count(*) FROM risk_statistics
		WHERE batch_id = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, batchID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

const selectRiskStatistics = `
	SELECT batch_id, requested, completed,
	       terminal_mean, terminal_stddev, terminal_p5, terminal_p25, terminal_p50, terminal_p75, terminal_p95,
	       drawdown_mean, drawdown_stddev, drawdown_p5, drawdown_p25, drawdown_p50, drawdown_p75, drawdown_p95,
	       win_rate_mean, win_rate_stddev, win_rate_p5, win_rate_p25, win_rate_p50, win_rate_p75, win_rate_p95,
	       prob_positive_return,
	       drawdown_thresholds, drawdown_probabilities,
	       tail_levels, tail_var, tail_cvar,
	       unstable_runs
	FROM risk_statistics
`

// scanRiskStatistics scans multiple rows, rebuilding the nested ladders
// from their parallel array columns.
func scanRiskStatistics(rows chRows) ([]*domain.RiskStatistics, error) {
	var all []*domain.RiskStatistics

	for rows.Next() {
		var st domain.RiskStatistics
		var requested, completed, unstable uint32
		var thresholds, probabilities []float64
		var levels, vars, cvars []float64

		err := rows.Scan(
			&st.BatchID, &requested, &completed,
			&st.TerminalReturn.Mean, &st.TerminalReturn.Stddev,
			&st.TerminalReturn.P5, &st.TerminalReturn.P25, &st.TerminalReturn.P50,
			&st.TerminalReturn.P75, &st.TerminalReturn.P95,
			&st.MaxDrawdown.Mean, &st.MaxDrawdown.Stddev,
			&st.MaxDrawdown.P5, &st.MaxDrawdown.P25, &st.MaxDrawdown.P50,
			&st.MaxDrawdown.P75, &st.MaxDrawdown.P95,
			&st.WinRate.Mean, &st.WinRate.Stddev,
			&st.WinRate.P5, &st.WinRate.P25, &st.WinRate.P50,
			&st.WinRate.P75, &st.WinRate.P95,
			&st.ProbPositiveReturn,
			&thresholds, &probabilities,
			&levels, &vars, &cvars,
			&unstable,
		)
		if err != nil {
			return nil, fmt.Errorf("scan risk statistics row: %w", err)
		}

		st.Requested = int(requested)
		st.Completed = int(completed)
		st.UnstableRuns = int(unstable)

		st.DrawdownBreaches = make([]domain.ThresholdProbability, len(thresholds))
		for i := range thresholds {
			st.DrawdownBreaches[i] = domain.ThresholdProbability{
				Threshold:   thresholds[i],
				Probability: probabilities[i],
			}
		}

		st.TailRisks = make([]domain.TailRisk, len(levels))
		for i := range levels {
			st.TailRisks[i] = domain.TailRisk{
				Level: levels[i],
				VaR:   vars[i],
				CVaR:  cvars[i],
			}
		}

		all = append(all, &st)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate risk statistics rows: %w", err)
	}

	return all, nil
}
