package memory

import (
	"context"
	"sync"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/storage"
)

// PoolStateStore is an in-memory implementation of
// storage.PoolStateStore.
type PoolStateStore struct {
	mu    sync.RWMutex
	state *domain.PoolState
}

// NewPoolStateStore creates a new in-memory pool state store.
func NewPoolStateStore() *PoolStateStore {
	return &PoolStateStore{}
}

// Compile-time interface check.
var _ storage.PoolStateStore = (*PoolStateStore)(nil)

// Save upserts the pool state.
func (s *PoolStateStore) Save(_ context.Context, state domain.PoolState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := state
	s.state = &cp
	return nil
}

// Load retrieves the persisted pool state.
func (s *PoolStateStore) Load(_ context.Context) (domain.PoolState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == nil {
		return domain.PoolState{}, storage.ErrNotFound
	}
	return *s.state, nil
}
