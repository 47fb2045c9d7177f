package postgres

import (
	"context"
	"fmt"

	"trade-risk-lab/internal/domain"
	"trade-risk-lab/internal/storage"
)

// TradeStore implements storage.TradeStore using PostgreSQL.
type TradeStore struct {
	pool *Pool
}

// NewTradeStore creates a new TradeStore.
func NewTradeStore(pool *Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

const insertTradeQuery = `
	INSERT INTO trades (
		trade_id, pair, is_open, opened_at, closed_at, close_profit, r_multiple
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7
	)
`

// Insert adds a new trade. Returns ErrDuplicateKey if trade_id exists.
func (s *TradeStore) Insert(ctx context.Context, t *domain.Trade) error {
	if t == nil || t.TradeID == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, insertTradeQuery,
		t.TradeID, t.Pair, t.IsOpen, t.OpenedAt, t.ClosedAt, t.CloseProfit, t.RMultiple,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert trade: %w", err)
	}
	return nil
}

// InsertBulk adds multiple trades atomically. Fails entire batch on any duplicate.
func (s *TradeStore) InsertBulk(ctx context.Context, trades []*domain.Trade) error {
	if len(trades) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, t := range trades {
		if t == nil || t.TradeID == "" {
			return storage.ErrInvalidInput
		}
		_, err := tx.Exec(ctx, insertTradeQuery,
			t.TradeID, t.Pair, t.IsOpen, t.OpenedAt, t.ClosedAt, t.CloseProfit, t.RMultiple,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert trade %s: %w", t.TradeID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetAll retrieves all trades, ordered by closed_at ASC, trade_id ASC.
func (s *TradeStore) GetAll(ctx context.Context) ([]*domain.Trade, error) {
	return s.query(ctx, `
		SELECT trade_id, pair, is_open, opened_at, closed_at, close_profit, r_multiple
		FROM trades
		ORDER BY closed_at ASC, trade_id ASC
	`)
}

// GetClosed retrieves closed trades only, in the same order.
func (s *TradeStore) GetClosed(ctx context.Context) ([]*domain.Trade, error) {
	return s.query(ctx, `
		SELECT trade_id, pair, is_open, opened_at, closed_at, close_profit, r_multiple
		FROM trades
		WHERE is_open = FALSE
		ORDER BY closed_at ASC, trade_id ASC
	`)
}

func (s *TradeStore) query(ctx context.Context, sql string) ([]*domain.Trade, error) {
	rows, err := s.pool.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()

	var trades []*domain.Trade
	for rows.Next() {
		t := &domain.Trade{}
		err := rows.Scan(&t.TradeID, &t.Pair, &t.IsOpen, &t.OpenedAt, &t.ClosedAt, &t.CloseProfit, &t.RMultiple)
		if err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trades: %w", err)
	}
	return trades, nil
}
