package postgres

import (
	"context"
	"fmt"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/storage"
)

// PoolStateStore implements storage.PoolStateStore using PostgreSQL.
// The state lives in a single row with a pinned id.
type PoolStateStore struct {
	pool *Pool
}

// NewPoolStateStore creates a new PoolStateStore.
func NewPoolStateStore(pool *Pool) *PoolStateStore {
	return &PoolStateStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PoolStateStore = (*PoolStateStore)(nil)

// Save upserts the pool state.
func (s *PoolStateStore) Save(ctx context.Context, state domain.PoolState) error {
	query := `
		INSERT INTO pool_state (
			id, session_number, initial_pool_usd, target_pool_usd,
			current_pool_usd, position_size_usd, trades_executed,
			trade_limit, session_started_at, duration_seconds, completed
		) VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			session_number = EXCLUDED.session_number,
			initial_pool_usd = EXCLUDED.initial_pool_usd,
			target_pool_usd = EXCLUDED.target_pool_usd,
			current_pool_usd = EXCLUDED.current_pool_usd,
			position_size_usd = EXCLUDED.position_size_usd,
			trades_executed = EXCLUDED.trades_executed,
			trade_limit = EXCLUDED.trade_limit,
			session_started_at = EXCLUDED.session_started_at,
			duration_seconds = EXCLUDED.duration_seconds,
			completed = EXCLUDED.completed
	`
	_, err := s.pool.Exec(ctx, query,
		state.SessionNumber, state.InitialPoolUsd, state.TargetPoolUsd,
		state.CurrentPoolUsd, state.PositionSizeUsd, state.TradesExecuted,
		state.TradeLimit, state.SessionStartedAt, state.DurationSeconds,
		state.Completed,
	)
	if err != nil {
		return fmt.Errorf("save pool state: %w", err)
	}
	return nil
}

// Load retrieves the persisted pool state.
func (s *PoolStateStore) Load(ctx context.Context) (domain.PoolState, error) {
	query := `
		SELECT session_number, initial_pool_usd, target_pool_usd,
			current_pool_usd, position_size_usd, trades_executed,
			trade_limit, session_started_at, duration_seconds, completed
		FROM pool_state
		WHERE id = 1
	`
	var state domain.PoolState
	err := s.pool.QueryRow(ctx, query).Scan(
		&state.SessionNumber, &state.InitialPoolUsd, &state.TargetPoolUsd,
		&state.CurrentPoolUsd, &state.PositionSizeUsd, &state.TradesExecuted,
		&state.TradeLimit, &state.SessionStartedAt, &state.DurationSeconds,
		&state.Completed,
	)
	if err != nil {
		if isNotFoundError(err) {
			return domain.PoolState{}, storage.ErrNotFound
		}
		return domain.PoolState{}, fmt.Errorf("load pool state: %w", err)
	}
	return state, nil
}
