package engine

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-sniper/internal/config"
	"solana-sniper/internal/dedup"
	"solana-sniper/internal/domain"
	"solana-sniper/internal/filter"
)

type stubSource struct {
	ch chan domain.DetectionEvent
}

func (s *stubSource) Events(_ context.Context) (<-chan domain.DetectionEvent, error) {
	return s.ch, nil
}

type stubFacts struct {
	mu    sync.Mutex
	facts map[string]*domain.TokenFacts
	err   error
	calls int
}

func (s *stubFacts) Fetch(_ context.Context, mint string) (*domain.TokenFacts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.facts[mint], nil
}

func (s *stubFacts) fetchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubDriver struct {
	mu        sync.Mutex
	opened    []string
	monitored []string
	reattach  []*domain.Position
	openErr   error
}

func (d *stubDriver) Open(_ context.Context, verdict *domain.QualityVerdict) (*domain.Position, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.openErr != nil {
		return nil, d.openErr
	}
	d.opened = append(d.opened, verdict.Mint)
	return &domain.Position{Mint: verdict.Mint, State: domain.PositionHeld}, nil
}

func (d *stubDriver) Monitor(ctx context.Context, p *domain.Position) {
	d.mu.Lock()
	d.monitored = append(d.monitored, p.Mint)
	d.mu.Unlock()
	<-ctx.Done()
}

func (d *stubDriver) Reattach(_ context.Context) ([]*domain.Position, error) {
	return d.reattach, nil
}

func (d *stubDriver) openedMints() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.opened))
	copy(out, d.opened)
	return out
}

func (d *stubDriver) monitoredMints() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.monitored))
	copy(out, d.monitored)
	return out
}

type stubSessionState struct {
	mu       sync.Mutex
	complete bool
}

func (s *stubSessionState) Completed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.complete
}

func permissiveQuality() config.QualityConfig {
	return config.QualityConfig{
		MinScore:            10,
		LiquidityFloorUsd:   1000,
		TopHolderCeilingPct: 40,
		MarketCountFloor:    1,
		LPProviderFloor:     1,
		MinAgeSeconds:       0,
		MaxAgeSeconds:       3600,
		WeightLiquidity:     0.4,
		WeightHolders:       0.3,
		WeightLPProviders:   0.2,
		WeightAge:           0.1,
		LiquidityCapUsd:     50000,
		LPProviderCap:       100,
		AgeCapSeconds:       3600,
	}
}

func goodFacts(mint string) *domain.TokenFacts {
	return &domain.TokenFacts{
		Mint:                  mint,
		Name:                  "Sensible Token",
		Symbol:                "SNS",
		AuthorityDataComplete: true,
		TopHolderPct:          10,
		LiquidityUsd:          25000,
		MarketCount:           2,
		LPProviderCount:       50,
		AgeSeconds:            60,
	}
}

type harness struct {
	engine   *Engine
	source   *stubSource
	facts    *stubFacts
	driver   *stubDriver
	session  *stubSessionState
	registry *dedup.Registry
}

func newHarness(queueSize, workers int) *harness {
	h := &harness{
		source:   &stubSource{ch: make(chan domain.DetectionEvent, 100)},
		facts:    &stubFacts{facts: make(map[string]*domain.TokenFacts)},
		driver:   &stubDriver{},
		session:  &stubSessionState{},
		registry: dedup.NewRegistry(),
	}
	h.engine = New(Options{
		Source:    h.source,
		Registry:  h.registry,
		Facts:     h.facts,
		Evaluator: filter.NewEvaluator(permissiveQuality()),
		Lifecycle: h.driver,
		Session:   h.session,
		QueueSize: queueSize,
		Workers:   workers,
		Logger:    log.New(io.Discard, "", 0),
	})
	return h
}

func runEngine(t *testing.T, h *harness) (cancel context.CancelFunc, done chan error) {
	t.Helper()
	ctx, cancelFn := context.WithCancel(context.Background())
	done = make(chan error, 1)
	go func() { done <- h.engine.Run(ctx) }()
	return cancelFn, done
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestEngineOpensAdmittedCandidate(t *testing.T) {
	h := newHarness(16, 2)
	h.facts.facts["mint-a"] = goodFacts("mint-a")

	cancel, done := runEngine(t, h)
	defer cancel()

	h.source.ch <- domain.DetectionEvent{Mint: "mint-a", ObservedAt: 1, SourceProgram: domain.ProgramCreation}

	waitFor(t, func() bool { return len(h.driver.openedMints()) == 1 })
	waitFor(t, func() bool { return len(h.driver.monitoredMints()) == 1 })
	assert.Equal(t, []string{"mint-a"}, h.driver.openedMints())

	cancel()
	require.NoError(t, <-done)
}

func TestEngineDeduplicatesRepeatDetections(t *testing.T) {
	h := newHarness(16, 1)
	h.facts.facts["mint-a"] = goodFacts("mint-a")

	cancel, done := runEngine(t, h)
	defer cancel()

	for i := 0; i < 5; i++ {
		h.source.ch <- domain.DetectionEvent{Mint: "mint-a", SourceProgram: domain.ProgramCreation}
	}

	waitFor(t, func() bool { return len(h.driver.openedMints()) == 1 })
	// Repeats never reach the facts fetch.
	waitFor(t, func() bool { return h.facts.fetchCount() == 1 })

	cancel()
	require.NoError(t, <-done)
}

func TestEngineRejectsOnMissingFacts(t *testing.T) {
	h := newHarness(16, 1)
	// No facts registered: Fetch returns nil and the filter fails closed.

	cancel, done := runEngine(t, h)
	defer cancel()

	h.source.ch <- domain.DetectionEvent{Mint: "mint-unknown", SourceProgram: domain.ProgramCreation}

	waitFor(t, func() bool { return h.facts.fetchCount() == 1 })
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, h.driver.openedMints())

	cancel()
	require.NoError(t, <-done)
}

func TestEngineRetriesAfterFactsOutage(t *testing.T) {
	h := newHarness(16, 1)
	h.facts.err = errors.New("report api down")

	cancel, done := runEngine(t, h)
	defer cancel()

	h.source.ch <- domain.DetectionEvent{Mint: "mint-a", SourceProgram: domain.ProgramCreation}
	waitFor(t, func() bool { return h.facts.fetchCount() == 1 })
	waitFor(t, func() bool { return !h.registry.Seen("mint-a") })

	// The outage clears and the mint is detected again; the
	// metadata-only rejection must not have blackholed it.
	h.facts.mu.Lock()
	h.facts.err = nil
	h.facts.facts["mint-a"] = goodFacts("mint-a")
	h.facts.mu.Unlock()

	h.source.ch <- domain.DetectionEvent{Mint: "mint-a", SourceProgram: domain.ProgramCreation}

	waitFor(t, func() bool { return len(h.driver.openedMints()) == 1 })
	assert.Equal(t, 2, h.facts.fetchCount())

	cancel()
	require.NoError(t, <-done)
}

func TestEngineReattachesHeldPositions(t *testing.T) {
	h := newHarness(16, 1)
	h.driver.reattach = []*domain.Position{
		{Mint: "mint-held", State: domain.PositionHeld},
	}

	cancel, done := runEngine(t, h)
	defer cancel()

	waitFor(t, func() bool { return len(h.driver.monitoredMints()) == 1 })
	assert.Equal(t, []string{"mint-held"}, h.driver.monitoredMints())

	cancel()
	require.NoError(t, <-done)
}

func TestEngineStopsIntakeOnSessionCompletion(t *testing.T) {
	h := newHarness(16, 1)

	cancel, done := runEngine(t, h)
	defer cancel()

	h.session.mu.Lock()
	h.session.complete = true
	h.session.mu.Unlock()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("engine did not stop after session completion")
	}
}
