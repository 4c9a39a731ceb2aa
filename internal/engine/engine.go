// Package engine wires ingestion, filtering, and the position
// lifecycle together. Flow: event source → dedup registry → bounded
// work queue → worker pool (facts fetch + quality verdict + open) →
// one monitor goroutine per held position.
package engine

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"solana-sniper/internal/dedup"
	"solana-sniper/internal/domain"
	"solana-sniper/internal/eventsource"
	"solana-sniper/internal/filter"
	"solana-sniper/internal/observability"
)

// completionPollInterval bounds how long intake stays open after the
// session reaches a terminal condition.
const completionPollInterval = time.Second

// FactsFetcher resolves token facts for a candidate mint.
// *filter.FactsClient satisfies it.
type FactsFetcher interface {
	Fetch(ctx context.Context, mint string) (*domain.TokenFacts, error)
}

// PositionDriver is the lifecycle surface the engine drives.
// *position.Lifecycle satisfies it.
type PositionDriver interface {
	Open(ctx context.Context, verdict *domain.QualityVerdict) (*domain.Position, error)
	Monitor(ctx context.Context, p *domain.Position)
	Reattach(ctx context.Context) ([]*domain.Position, error)
}

// SessionState is the completion surface the engine polls.
type SessionState interface {
	Completed() bool
}

// Options collects the engine's collaborators.
type Options struct {
	Source    eventsource.Source
	Registry  *dedup.Registry
	Facts     FactsFetcher
	Evaluator *filter.Evaluator
	Lifecycle PositionDriver
	Session   SessionState
	QueueSize int
	Workers   int
	Logger    *log.Logger
}

// Engine runs the sniper control loop.
type Engine struct {
	source    eventsource.Source
	registry  *dedup.Registry
	facts     FactsFetcher
	evaluator *filter.Evaluator
	lifecycle PositionDriver
	session   SessionState
	queueSize int
	workers   int
	logger    *log.Logger

	monitors sync.WaitGroup
	open     atomic.Int64
}

// New creates an engine from its options.
func New(opts Options) *Engine {
	return &Engine{
		source:    opts.Source,
		registry:  opts.Registry,
		facts:     opts.Facts,
		evaluator: opts.Evaluator,
		lifecycle: opts.Lifecycle,
		session:   opts.Session,
		queueSize: opts.QueueSize,
		workers:   opts.Workers,
		logger:    opts.Logger,
	}
}

// Run blocks until ctx is canceled or the session completes with no
// position left open. Intake stops the moment either happens; open
// positions keep closing normally, and on cancellation Held positions
// stay persisted for reattach on the next run.
func (e *Engine) Run(ctx context.Context) error {
	// Recover persisted positions before any new detection is accepted,
	// so a re-detection of a held mint cannot race the reattach.
	held, err := e.lifecycle.Reattach(ctx)
	if err != nil {
		return fmt.Errorf("reattach: %w", err)
	}
	for _, p := range held {
		e.startMonitor(ctx, p)
	}
	if len(held) > 0 {
		e.logger.Printf("[engine] reattached %d held positions", len(held))
	}

	// Intake has its own context so session completion stops new
	// candidates without tearing down in-flight monitors.
	intakeCtx, stopIntake := context.WithCancel(ctx)
	defer stopIntake()

	events, err := e.source.Events(intakeCtx)
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	queue := make(chan domain.DetectionEvent, e.queueSize)

	g, gctx := errgroup.WithContext(intakeCtx)

	g.Go(func() error {
		defer close(queue)
		return e.intake(gctx, events, queue)
	})

	for i := 0; i < e.workers; i++ {
		g.Go(func() error {
			return e.work(ctx, queue)
		})
	}

	g.Go(func() error {
		ticker := time.NewTicker(completionPollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if e.session.Completed() {
					e.logger.Printf("[engine] session complete, closing intake")
					stopIntake()
					return nil
				}
			}
		}
	})

	runErr := g.Wait()
	e.monitors.Wait()

	if runErr != nil && ctx.Err() == nil && intakeCtx.Err() != nil {
		// Intake closed deliberately, not a failure.
		runErr = nil
	}
	return runErr
}

// intake applies the dedup registry and enqueues survivors. A full
// queue drops the event with a logged reason; ingestion never blocks.
func (e *Engine) intake(ctx context.Context, events <-chan domain.DetectionEvent, queue chan<- domain.DetectionEvent) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				e.logger.Printf("[engine] event source closed")
				return nil
			}

			if !e.registry.TryMark(event.Mint) {
				observability.RecordEventDeduplicated()
				continue
			}

			select {
			case queue <- event:
				observability.SetQueueDepth(len(queue))
			default:
				// The mark is rolled back so a later detection can
				// retry once the burst subsides.
				e.registry.Unmark(event.Mint)
				observability.RecordEventDropped("queue_full")
				e.logger.Printf("[engine] queue full, dropped detection %s", event.Mint)
			}
		}
	}
}

// work drains the queue: fetch facts, evaluate, open, monitor. The
// pool size caps concurrent metadata fetches and acquisitions
// regardless of burst size.
func (e *Engine) work(ctx context.Context, queue <-chan domain.DetectionEvent) error {
	for event := range queue {
		observability.SetQueueDepth(len(queue))

		facts, err := e.facts.Fetch(ctx, event.Mint)
		if err != nil {
			// Fail closed: the evaluator turns missing facts into a
			// METADATA_UNAVAILABLE rejection.
			e.logger.Printf("[engine] facts fetch %s: %v", event.Mint, err)
			facts = nil
		}

		verdict := e.evaluator.Evaluate(event.Mint, facts)
		observability.RecordVerdict(verdict.Admitted, verdict.Score, verdict.BlockedReasons)
		if !verdict.Admitted {
			if metadataOnly(verdict) {
				// Facts outage, not a judgement on the token: release
				// the mark so a later detection can retry.
				e.registry.Unmark(event.Mint)
			}
			e.logger.Printf("[engine] rejected %s score=%d reasons=%v",
				event.Mint, verdict.Score, verdict.BlockedReasons)
			continue
		}

		p, err := e.lifecycle.Open(ctx, verdict)
		if err != nil {
			e.logger.Printf("[engine] open %s: %v", event.Mint, err)
			continue
		}
		e.startMonitor(ctx, p)
	}
	return nil
}

// metadataOnly reports whether the verdict was blocked solely because
// token facts could not be resolved.
func metadataOnly(v *domain.QualityVerdict) bool {
	return len(v.BlockedReasons) == 1 && v.BlockedReasons[0] == domain.ReasonMetadataUnavailable
}

// startMonitor runs one monitor goroutine for a held position. Ticks
// are independent across mints; monitors never serialize against each
// other or against new-candidate processing.
func (e *Engine) startMonitor(ctx context.Context, p *domain.Position) {
	e.monitors.Add(1)
	observability.SetOpenPositions(int(e.open.Add(1)))
	go func() {
		defer e.monitors.Done()
		defer func() { observability.SetOpenPositions(int(e.open.Add(-1))) }()
		e.lifecycle.Monitor(ctx, p)
	}()
}
