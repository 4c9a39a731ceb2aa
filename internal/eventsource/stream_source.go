package eventsource

import (
	"context"
	"log"
	"time"

	"solana-sniper/internal/chain"
	"solana-sniper/internal/domain"
	"solana-sniper/internal/observability"
)

// StreamTransport is the multiplexed-stream subscription surface.
// *chain.StreamClient satisfies it.
type StreamTransport interface {
	Subscribe(ctx context.Context, filter chain.StreamFilter) (<-chan chain.StreamUpdate, error)
}

// StreamSource emits detection events from a single multiplexed
// subscription. Updates already carry account keys and block time, so
// no per-event RPC fetch is needed.
type StreamSource struct {
	stream   StreamTransport
	programs []string
	wallets  []string
	logger   *log.Logger
	now      func() int64
}

// NewStreamSource creates a source over the given monitored program
// IDs and optional wallet addresses.
func NewStreamSource(stream StreamTransport, programs, wallets []string, logger *log.Logger) *StreamSource {
	return &StreamSource{
		stream:   stream,
		programs: programs,
		wallets:  wallets,
		logger:   logger,
		now:      func() int64 { return time.Now().UnixMilli() },
	}
}

var _ Source = (*StreamSource)(nil)

// Events opens one subscription covering every monitored program and
// wallet. The returned channel closes when ctx is canceled.
func (s *StreamSource) Events(ctx context.Context) (<-chan domain.DetectionEvent, error) {
	mode := "program"
	if len(s.wallets) > 0 {
		mode = "wallet"
	}
	updates, err := s.stream.Subscribe(ctx, chain.StreamFilter{
		Programs: s.programs,
		Wallets:  s.wallets,
		Mode:     mode,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Printf("[stream-source] subscribed to %d programs, %d wallets", len(s.programs), len(s.wallets))

	events := make(chan domain.DetectionEvent, 100)
	go func() {
		defer close(events)
		for {
			select {
			case <-ctx.Done():
				return
			case update, ok := <-updates:
				if !ok {
					s.logger.Printf("[stream-source] update channel closed")
					return
				}
				if event, matched := s.resolve(update); matched {
					observability.RecordEventObserved(event.SourceProgram.String())
					select {
					case events <- event:
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()

	return events, nil
}

// resolve turns a stream update into a detection event, or reports
// false when the update is not a new-token observation. Wallet-matched
// frames arrive without a program tag; their program is read off the
// logs.
func (s *StreamSource) resolve(update chain.StreamUpdate) (domain.DetectionEvent, bool) {
	var program domain.Program
	var ok bool
	if update.Program != "" {
		if program, ok = programFor(update.Program); !ok {
			return domain.DetectionEvent{}, false
		}
		ok = logsMatch(update.Logs, discriminatorFor(program))
	} else {
		program, ok = matchProgram(update.Logs)
	}
	if !ok {
		return domain.DetectionEvent{}, false
	}

	mint := extractMint(update.AccountKeys)
	if mint == "" {
		s.logger.Printf("[stream-source] no mint in tx %s, detection dropped", update.Signature)
		return domain.DetectionEvent{}, false
	}

	observedAt := update.BlockTimeMs
	if observedAt <= 0 {
		observedAt = s.now()
	}

	s.logger.Printf("[stream-source] detected mint=%s program=%s tx=%s", mint, program, update.Signature)
	return domain.DetectionEvent{
		Mint:          mint,
		ObservedAt:    observedAt,
		SourceProgram: program,
	}, true
}
