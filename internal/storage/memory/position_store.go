// Package memory provides in-memory storage implementations, used in
// tests and when the engine runs without a durable backend.
package memory

import (
	"context"
	"sort"
	"sync"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/storage"
)

// PositionStore is an in-memory implementation of storage.PositionStore.
type PositionStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Position // keyed by mint, latest position
}

// NewPositionStore creates a new in-memory position store.
func NewPositionStore() *PositionStore {
	return &PositionStore{data: make(map[string]*domain.Position)}
}

// Compile-time interface check.
var _ storage.PositionStore = (*PositionStore)(nil)

// Insert adds a new position. Returns ErrDuplicateKey when a live
// position for the mint already exists.
func (s *PositionStore) Insert(_ context.Context, p *domain.Position) error {
	if p == nil || p.Mint == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.data[p.Mint]; ok && !existing.State.IsTerminal() {
		return storage.ErrDuplicateKey
	}

	cp := *p
	s.data[p.Mint] = &cp
	return nil
}

// Update overwrites the stored position for the mint.
func (s *PositionStore) Update(_ context.Context, p *domain.Position) error {
	if p == nil || p.Mint == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[p.Mint]; !ok {
		return storage.ErrNotFound
	}

	cp := *p
	s.data[p.Mint] = &cp
	return nil
}

// GetByMint retrieves the most recent position for a mint.
func (s *PositionStore) GetByMint(_ context.Context, mint string) (*domain.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.data[mint]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

// ListByState retrieves all positions in the given state, ordered by
// OpenedAt ascending.
func (s *PositionStore) ListByState(_ context.Context, state domain.PositionState) ([]*domain.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Position
	for _, p := range s.data {
		if p.State == state {
			cp := *p
			result = append(result, &cp)
		}
	}
	sortByOpenedAt(result)
	return result, nil
}

// ListOpen retrieves all non-terminal positions, ordered by OpenedAt
// ascending.
func (s *PositionStore) ListOpen(_ context.Context) ([]*domain.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Position
	for _, p := range s.data {
		if !p.State.IsTerminal() {
			cp := *p
			result = append(result, &cp)
		}
	}
	sortByOpenedAt(result)
	return result, nil
}

func sortByOpenedAt(positions []*domain.Position) {
	sort.Slice(positions, func(i, j int) bool {
		if positions[i].OpenedAt != positions[j].OpenedAt {
			return positions[i].OpenedAt < positions[j].OpenedAt
		}
		return positions[i].Mint < positions[j].Mint
	})
}
