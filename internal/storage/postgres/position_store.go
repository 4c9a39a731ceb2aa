package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/storage"
)

// PositionStore implements storage.PositionStore using PostgreSQL.
type PositionStore struct {
	pool *Pool
}

// NewPositionStore creates a new PositionStore.
func NewPositionStore(pool *Pool) *PositionStore {
	return &PositionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PositionStore = (*PositionStore)(nil)

const positionColumns = `
	mint, wallet_ref, client_order_id, entry_price, quantity,
	cost_basis_usd, peak_price, quality_score, opened_at, closed_at,
	state, exit_reason, proceeds_usd, realized_pnl_usd
`

// Insert adds a new position. The partial unique index on live
// positions maps a second live insert for the same mint onto
// ErrDuplicateKey.
func (s *PositionStore) Insert(ctx context.Context, p *domain.Position) error {
	if p == nil || p.Mint == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO positions (` + positionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := s.pool.Exec(ctx, query,
		p.Mint, p.WalletRef, p.ClientOrderID, p.EntryPrice, p.Quantity,
		p.CostBasisUsd, p.PeakPrice, p.QualityScore, p.OpenedAt, p.ClosedAt,
		string(p.State), p.ExitReason, p.ProceedsUsd, p.RealizedPnlUsd,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert position: %w", err)
	}
	return nil
}

// Update overwrites the stored position identified by mint and open
// time.
func (s *PositionStore) Update(ctx context.Context, p *domain.Position) error {
	if p == nil || p.Mint == "" {
		return storage.ErrInvalidInput
	}

	query := `
		UPDATE positions SET
			wallet_ref = $3, client_order_id = $4, entry_price = $5,
			quantity = $6, cost_basis_usd = $7, peak_price = $8,
			quality_score = $9, closed_at = $10, state = $11,
			exit_reason = $12, proceeds_usd = $13, realized_pnl_usd = $14
		WHERE mint = $1 AND opened_at = $2
	`
	tag, err := s.pool.Exec(ctx, query,
		p.Mint, p.OpenedAt, p.WalletRef, p.ClientOrderID, p.EntryPrice,
		p.Quantity, p.CostBasisUsd, p.PeakPrice, p.QualityScore, p.ClosedAt,
		string(p.State), p.ExitReason, p.ProceedsUsd, p.RealizedPnlUsd,
	)
	if err != nil {
		return fmt.Errorf("update position: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetByMint retrieves the most recent position for a mint.
func (s *PositionStore) GetByMint(ctx context.Context, mint string) (*domain.Position, error) {
	query := `
		SELECT ` + positionColumns + `
		FROM positions
		WHERE mint = $1
		ORDER BY opened_at DESC
		LIMIT 1
	`
	row := s.pool.QueryRow(ctx, query, mint)
	p, err := scanPosition(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get position by mint: %w", err)
	}
	return p, nil
}

// ListByState retrieves all positions in the given state, ordered by
// OpenedAt ascending.
func (s *PositionStore) ListByState(ctx context.Context, state domain.PositionState) ([]*domain.Position, error) {
	query := `
		SELECT ` + positionColumns + `
		FROM positions
		WHERE state = $1
		ORDER BY opened_at ASC, mint ASC
	`
	rows, err := s.pool.Query(ctx, query, string(state))
	if err != nil {
		return nil, fmt.Errorf("list positions by state: %w", err)
	}
	defer rows.Close()

	return scanPositions(rows)
}

// ListOpen retrieves all non-terminal positions, ordered by OpenedAt
// ascending.
func (s *PositionStore) ListOpen(ctx context.Context) ([]*domain.Position, error) {
	query := `
		SELECT ` + positionColumns + `
		FROM positions
		WHERE state NOT IN ($1, $2)
		ORDER BY opened_at ASC, mint ASC
	`
	rows, err := s.pool.Query(ctx, query,
		string(domain.PositionClosed), string(domain.PositionAborted))
	if err != nil {
		return nil, fmt.Errorf("list open positions: %w", err)
	}
	defer rows.Close()

	return scanPositions(rows)
}

// scanPosition scans a single row into a Position.
func scanPosition(row pgx.Row) (*domain.Position, error) {
	var p domain.Position
	var stateStr string

	err := row.Scan(
		&p.Mint, &p.WalletRef, &p.ClientOrderID, &p.EntryPrice, &p.Quantity,
		&p.CostBasisUsd, &p.PeakPrice, &p.QualityScore, &p.OpenedAt, &p.ClosedAt,
		&stateStr, &p.ExitReason, &p.ProceedsUsd, &p.RealizedPnlUsd,
	)
	if err != nil {
		return nil, err
	}

	p.State = domain.PositionState(stateStr)
	return &p, nil
}

// scanPositions scans multiple rows into a slice of Position.
func scanPositions(rows pgx.Rows) ([]*domain.Position, error) {
	var positions []*domain.Position

	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan position row: %w", err)
		}
		positions = append(positions, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate position rows: %w", err)
	}

	return positions, nil
}
