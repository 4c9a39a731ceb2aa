package eventsource

import (
	"context"
	"log"
	"time"

	"solana-sniper/internal/chain"
	"solana-sniper/internal/domain"
	"solana-sniper/internal/observability"
)

const (
	maxFetchRetries = 3
	baseFetchDelay  = 500 * time.Millisecond
)

// LogsTransport is the push-socket subscription surface.
// *chain.WSClient satisfies it.
type LogsTransport interface {
	SubscribeLogs(ctx context.Context, filter chain.LogsFilter) (<-chan chain.LogNotification, error)
}

// TransactionFetcher resolves a signature to its full transaction.
// *chain.HTTPClient satisfies it.
type TransactionFetcher interface {
	GetTransaction(ctx context.Context, signature string) (*chain.Transaction, error)
}

// WSSource emits detection events from per-program and per-wallet log
// subscriptions. Log notifications carry no account keys, so each
// match costs one RPC fetch for the full transaction.
type WSSource struct {
	ws       LogsTransport
	rpc      TransactionFetcher
	programs []string
	wallets  []string
	logger   *log.Logger
	now      func() int64
}

// NewWSSource creates a source over the given monitored program IDs
// and optional wallet addresses.
func NewWSSource(ws LogsTransport, rpc TransactionFetcher, programs, wallets []string, logger *log.Logger) *WSSource {
	return &WSSource{
		ws:       ws,
		rpc:      rpc,
		programs: programs,
		wallets:  wallets,
		logger:   logger,
		now:      func() int64 { return time.Now().UnixMilli() },
	}
}

var _ Source = (*WSSource)(nil)

// Events subscribes to logs for each program and wallet separately;
// some providers only accept one address per subscription. The
// returned channel closes when ctx is canceled.
func (s *WSSource) Events(ctx context.Context) (<-chan domain.DetectionEvent, error) {
	type taggedLogs struct {
		program domain.Program
		tagged  bool
		notif   chain.LogNotification
	}

	merged := make(chan taggedLogs, 1000)
	forward := func(program domain.Program, tagged bool, logsCh <-chan chain.LogNotification) {
		for notif := range logsCh {
			select {
			case merged <- taggedLogs{program: program, tagged: tagged, notif: notif}:
			case <-ctx.Done():
				return
			}
		}
	}

	for _, programID := range s.programs {
		program, ok := programFor(programID)
		if !ok {
			s.logger.Printf("[ws-source] skipping unknown program %s", programID)
			continue
		}

		logsCh, err := s.ws.SubscribeLogs(ctx, chain.LogsFilter{Mentions: []string{programID}})
		if err != nil {
			return nil, err
		}
		s.logger.Printf("[ws-source] subscribed to program %s", programID)
		go forward(program, true, logsCh)
	}

	// Wallet subscriptions see every transaction the wallet touches;
	// the program is inferred from the logs per notification.
	for _, wallet := range s.wallets {
		logsCh, err := s.ws.SubscribeLogs(ctx, chain.LogsFilter{Mentions: []string{wallet}})
		if err != nil {
			return nil, err
		}
		s.logger.Printf("[ws-source] subscribed to wallet %s", wallet)
		go forward("", false, logsCh)
	}

	events := make(chan domain.DetectionEvent, 100)
	go func() {
		defer close(events)
		for {
			select {
			case <-ctx.Done():
				return
			case tl := <-merged:
				if event, ok := s.resolve(ctx, tl.program, tl.tagged, tl.notif); ok {
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

// resolve turns a raw log notification into a detection event, or
// reports false when the notification is not a new-token observation.
// Untagged notifications come from wallet subscriptions; their program
// is read off the logs.
func (s *WSSource) resolve(ctx context.Context, program domain.Program, tagged bool, notif chain.LogNotification) (domain.DetectionEvent, bool) {
	// Failed transactions never create anything.
	if notif.Err != nil {
		return domain.DetectionEvent{}, false
	}
	if tagged {
		if !logsMatch(notif.Logs, discriminatorFor(program)) {
			return domain.DetectionEvent{}, false
		}
	} else {
		var ok bool
		if program, ok = matchProgram(notif.Logs); !ok {
			return domain.DetectionEvent{}, false
		}
	}

	tx, err := s.fetchTransaction(ctx, notif.Signature)
	if err != nil || tx == nil {
		s.logger.Printf("[ws-source] fetch %s failed after %d retries, detection dropped: %v",
			notif.Signature, maxFetchRetries, err)
		return domain.DetectionEvent{}, false
	}

	var accountKeys []string
	if tx.Message != nil {
		accountKeys = tx.Message.AccountKeys
	}
	mint := extractMint(accountKeys)
	if mint == "" {
		s.logger.Printf("[ws-source] no mint in tx %s, detection dropped", notif.Signature)
		return domain.DetectionEvent{}, false
	}

	observedAt := s.now()
	if tx.BlockTime > 0 {
		observedAt = tx.BlockTime * 1000
	}

	s.logger.Printf("[ws-source] detected mint=%s program=%s tx=%s", mint, program, notif.Signature)
	return domain.DetectionEvent{
		Mint:          mint,
		ObservedAt:    observedAt,
		SourceProgram: program,
	}, true
}

// fetchTransaction retries with exponential backoff: 500ms, 1s, 2s.
func (s *WSSource) fetchTransaction(ctx context.Context, signature string) (*chain.Transaction, error) {
	var lastErr error
	for attempt := 0; attempt < maxFetchRetries; attempt++ {
		tx, err := s.rpc.GetTransaction(ctx, signature)
		if err == nil {
			return tx, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		delay := baseFetchDelay * time.Duration(1<<attempt)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}
