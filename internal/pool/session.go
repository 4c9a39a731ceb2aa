// Package pool owns the capital pool for one bounded trading session:
// position sizing, realized P&L accounting, and the target / trade
// limit / deadline termination checks.
package pool

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"solana-sniper/internal/config"
	"solana-sniper/internal/domain"
)

// Sentinel errors returned by sizing and accounting operations.
var (
	// ErrSessionComplete means the session hit its target, trade limit,
	// or deadline; no further acquisitions are permitted.
	ErrSessionComplete = errors.New("session complete")
	// ErrPoolDepleted means the current pool cannot fund any position.
	ErrPoolDepleted = errors.New("pool depleted")
	// ErrInvariantViolation means an accounting operation would break a
	// pool invariant.
	ErrInvariantViolation = errors.New("pool invariant violation")
)

// Session owns the mutable PoolState for one session run. All methods
// are safe for concurrent use.
type Session struct {
	mu     sync.Mutex
	state  domain.PoolState
	sizing config.SizingConfig
	now    func() int64 // Unix ms, swappable in tests
}

// NewSession starts a fresh session from configuration.
func NewSession(sessionCfg config.SessionConfig, sizing config.SizingConfig) *Session {
	s := &Session{
		sizing: sizing,
		now:    nowMs,
	}
	s.state = domain.PoolState{
		SessionNumber:    1,
		InitialPoolUsd:   sessionCfg.InitialPoolUsd,
		TargetPoolUsd:    sessionCfg.TargetPoolUsd,
		CurrentPoolUsd:   sessionCfg.InitialPoolUsd,
		PositionSizeUsd:  sizing.AbsoluteUsd,
		TradeLimit:       sessionCfg.TradeLimit,
		SessionStartedAt: s.now(),
		DurationSeconds:  sessionCfg.DurationSeconds,
	}
	return s
}

// Restore resumes a persisted session so a restart continues mid-run
// without re-sizing or double-counting capital.
func Restore(state domain.PoolState, sizing config.SizingConfig) *Session {
	return &Session{
		state:  state,
		sizing: sizing,
		now:    nowMs,
	}
}

func nowMs() int64 {
	return time.Now().UnixMilli()
}

// SizeNextPosition returns the USD amount for the next acquisition.
// The amount follows the configured policy and is clamped so it never
// exceeds the current pool. Returns ErrSessionComplete when no further
// acquisitions are permitted, ErrPoolDepleted when the pool cannot fund
// a position.
func (s *Session) SizeNextPosition() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.completedLocked() {
		return 0, ErrSessionComplete
	}
	if s.state.CurrentPoolUsd <= 0 {
		return 0, ErrPoolDepleted
	}

	var size float64
	switch s.sizing.Policy {
	case config.SizingAbsolute:
		size = s.sizing.AbsoluteUsd
	default:
		size = s.state.CurrentPoolUsd * s.sizing.Fraction
	}

	if size > s.state.CurrentPoolUsd {
		size = s.state.CurrentPoolUsd
	}
	if size <= 0 {
		return 0, ErrPoolDepleted
	}
	return size, nil
}

// RecordRealized folds a realized close into the pool: adds pnlUsd to
// the current pool, increments the trade count, and evaluates
// completion. Returns the updated snapshot.
func (s *Session) RecordRealized(pnlUsd float64) (domain.PoolState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.TradesExecuted >= s.state.TradeLimit {
		return s.state, fmt.Errorf("%w: trade count %d at limit %d",
			ErrInvariantViolation, s.state.TradesExecuted, s.state.TradeLimit)
	}

	s.state.CurrentPoolUsd += pnlUsd
	if s.state.CurrentPoolUsd < 0 {
		s.state.CurrentPoolUsd = 0
	}
	s.state.TradesExecuted++

	if s.completedLocked() {
		s.state.Completed = true
	}
	return s.state, nil
}

// Complete force-marks the session complete (shutdown path).
func (s *Session) Complete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Completed = true
}

// Completed reports whether the session has terminated.
func (s *Session) Completed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completedLocked()
}

// completedLocked evaluates every termination condition. Callers hold
// the mutex.
func (s *Session) completedLocked() bool {
	if s.state.Completed {
		return true
	}
	if s.state.CurrentPoolUsd >= s.state.TargetPoolUsd {
		return true
	}
	if s.state.TradesExecuted >= s.state.TradeLimit {
		return true
	}
	elapsed := s.now() - s.state.SessionStartedAt
	return elapsed >= s.state.DurationSeconds*1000
}

// DeadlineExceeded reports whether the session duration has elapsed,
// independent of the other completion conditions.
func (s *Session) DeadlineExceeded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now()-s.state.SessionStartedAt >= s.state.DurationSeconds*1000
}

// Snapshot returns a copy of the current pool state.
func (s *Session) Snapshot() domain.PoolState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// FinalPlanEntry computes the progression entry for this session from
// its final state, using the configured tax reserve and reinvestment
// percentages. Surfaced at session completion.
func (s *Session) FinalPlanEntry(taxReservePct, reinvestmentPct float64) domain.SessionPlanEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return planEntry(s.state.SessionNumber, s.state.InitialPoolUsd, s.state.TargetPoolUsd,
		s.state.PositionSizeUsd, taxReservePct, reinvestmentPct)
}
