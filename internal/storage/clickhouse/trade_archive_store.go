package clickhouse

import (
	"context"
	"fmt"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/storage"
)

// TradeArchiveStore implements storage.TradeArchive using ClickHouse.
// MergeTree does not enforce uniqueness; the engine appends each close
// exactly once.
type TradeArchiveStore struct {
	conn *Conn
}

// NewTradeArchiveStore creates a new TradeArchiveStore.
func NewTradeArchiveStore(conn *Conn) *TradeArchiveStore {
	return &TradeArchiveStore{conn: conn}
}

// Compile-time interface check.
var _ storage.TradeArchive = (*TradeArchiveStore)(nil)

// Append adds a closed-trade row.
func (s *TradeArchiveStore) Append(ctx context.Context, row *domain.TradeArchiveRow) error {
	if row == nil || row.Mint == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO trade_archive (
			mint, session_number, opened_at, closed_at, entry_price,
			exit_price, quantity, cost_basis_usd, proceeds_usd,
			realized_pnl_usd, exit_reason, hold_duration_ms, peak_price,
			quality_score
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	err := s.conn.Exec(ctx, query,
		row.Mint, uint32(row.SessionNumber), uint64(row.OpenedAt), uint64(row.ClosedAt),
		row.EntryPrice, row.ExitPrice, row.Quantity, row.CostBasisUsd,
		row.ProceedsUsd, row.RealizedPnlUsd, row.ExitReason,
		uint64(row.HoldDurationMs), row.PeakPrice, uint8(row.QualityScore),
	)
	if err != nil {
		return fmt.Errorf("append trade archive row: %w", err)
	}
	return nil
}

// ListBySession retrieves all rows for a session, ordered by ClosedAt
// ascending.
func (s *TradeArchiveStore) ListBySession(ctx context.Context, sessionNumber int) ([]*domain.TradeArchiveRow, error) {
	query := `
		SELECT mint, session_number, opened_at, closed_at, entry_price,
			exit_price, quantity, cost_basis_usd, proceeds_usd,
			realized_pnl_usd, exit_reason, hold_duration_ms, peak_price,
			quality_score
		FROM trade_archive
		WHERE session_number = ?
		ORDER BY closed_at ASC, mint ASC
	`
	rows, err := s.conn.Query(ctx, query, uint32(sessionNumber))
	if err != nil {
		return nil, fmt.Errorf("list trade archive by session: %w", err)
	}
	defer rows.Close()

	var result []*domain.TradeArchiveRow
	for rows.Next() {
		var r domain.TradeArchiveRow
		var sessionNum uint32
		var openedAt, closedAt, holdMs uint64
		var score uint8

		err := rows.Scan(
			&r.Mint, &sessionNum, &openedAt, &closedAt, &r.EntryPrice,
			&r.ExitPrice, &r.Quantity, &r.CostBasisUsd, &r.ProceedsUsd,
			&r.RealizedPnlUsd, &r.ExitReason, &holdMs, &r.PeakPrice, &score,
		)
		if err != nil {
			return nil, fmt.Errorf("scan trade archive row: %w", err)
		}

		r.SessionNumber = int(sessionNum)
		r.OpenedAt = int64(openedAt)
		r.ClosedAt = int64(closedAt)
		r.HoldDurationMs = int64(holdMs)
		r.QualityScore = int(score)
		result = append(result, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade archive rows: %w", err)
	}

	return result, nil
}
