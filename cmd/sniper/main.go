package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"solana-sniper/internal/chain"
	"solana-sniper/internal/config"
	"solana-sniper/internal/dedup"
	"solana-sniper/internal/engine"
	"solana-sniper/internal/eventsource"
	"solana-sniper/internal/execution"
	"solana-sniper/internal/filter"
	"solana-sniper/internal/ledger"
	"solana-sniper/internal/observability"
	"solana-sniper/internal/pool"
	"solana-sniper/internal/position"
	"solana-sniper/internal/reporting"
	"solana-sniper/internal/storage"
	chstore "solana-sniper/internal/storage/clickhouse"
	"solana-sniper/internal/storage/memory"
	"solana-sniper/internal/storage/migrations"
	pgstore "solana-sniper/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "sniper.toml", "Path to the TOML configuration file")
	flag.Parse()

	logger := log.New(os.Stdout, "[sniper] ", log.LstdFlags)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	if cfg.Metrics.Addr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			logger.Printf("Starting metrics server on %s", cfg.Metrics.Addr)
			if err := http.ListenAndServe(cfg.Metrics.Addr, mux); err != nil && err != http.ErrServerClosed {
				logger.Printf("Metrics server error: %v", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan error, 1)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	err = run(ctx, cfg, logger)

	done <- err
	cancel()

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("Error: %v", err)
	}

	logger.Println("Shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	// Storage backend.
	var positionStore storage.PositionStore = memory.NewPositionStore()
	var poolStateStore storage.PoolStateStore = memory.NewPoolStateStore()
	var archive storage.TradeArchive = memory.NewTradeArchive()

	if cfg.Storage.Backend == config.StoragePostgres {
		pgPool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		defer pgPool.Close()

		if err := migrations.RunPostgresMigrations(ctx, pgPool); err != nil {
			return fmt.Errorf("run postgres migrations: %w", err)
		}
		positionStore = pgstore.NewPositionStore(pgPool)
		poolStateStore = pgstore.NewPoolStateStore(pgPool)
	}

	if cfg.Storage.ClickhouseDSN != "" {
		conn, err := chstore.NewConn(ctx, cfg.Storage.ClickhouseDSN)
		if err != nil {
			return fmt.Errorf("connect to clickhouse: %w", err)
		}
		defer conn.Close()

		if err := migrations.RunClickhouseMigrations(ctx, conn); err != nil {
			return fmt.Errorf("run clickhouse migrations: %w", err)
		}
		archive = chstore.NewTradeArchiveStore(conn)
	}

	// Resume a persisted session when one is mid-run; otherwise start
	// fresh from the configured plan.
	var session *pool.Session
	switch state, err := poolStateStore.Load(ctx); {
	case err == nil && !state.Completed:
		session = pool.Restore(state, cfg.Sizing)
		logger.Printf("Resumed session %d: pool=%.2f trades=%d/%d",
			state.SessionNumber, state.CurrentPoolUsd, state.TradesExecuted, state.TradeLimit)
	case err == nil || errors.Is(err, storage.ErrNotFound):
		session = pool.NewSession(cfg.Session, cfg.Sizing)
		if err := poolStateStore.Save(ctx, session.Snapshot()); err != nil {
			return fmt.Errorf("persist initial pool state: %w", err)
		}
		logger.Printf("Started session: pool=%.2f target=%.2f",
			cfg.Session.InitialPoolUsd, cfg.Session.TargetPoolUsd)
	default:
		return fmt.Errorf("load pool state: %w", err)
	}

	// Chain and market clients.
	rpc := chain.NewHTTPClient(cfg.RPC.Endpoint,
		chain.WithTimeout(cfg.RPCTimeout()),
		chain.WithMaxRetries(cfg.RPC.MaxRetries))

	var source eventsource.Source
	switch cfg.Transport.Kind {
	case config.TransportWebSocket:
		ws, err := chain.NewWSClient(ctx, cfg.Transport.WSEndpoint, nil)
		if err != nil {
			return fmt.Errorf("connect websocket transport: %w", err)
		}
		defer ws.Close()
		source = eventsource.NewWSSource(ws, rpc, cfg.Transport.Programs, cfg.Transport.Wallets, logger)
	case config.TransportStream:
		stream, err := chain.NewStreamClient(ctx, cfg.Transport.StreamEndpoint, cfg.Transport.StreamToken, nil)
		if err != nil {
			return fmt.Errorf("connect stream transport: %w", err)
		}
		defer stream.Close()
		source = eventsource.NewStreamSource(stream, cfg.Transport.Programs, cfg.Transport.Wallets, logger)
	default:
		return fmt.Errorf("unknown transport kind %q", cfg.Transport.Kind)
	}

	quotes := execution.NewQuoteClient(cfg.Quote.Endpoint, cfg.QuoteTimeout())
	executor := execution.NewPaperExecutor(quotes, cfg.Execution, logger)
	facts := filter.NewFactsClient(cfg.Facts.Endpoint, cfg.FactsTimeout(), rpc, logger)
	capLedger := ledger.NewFIFOLedger(cfg.WashSaleWindow())
	registry := dedup.NewRegistry()

	lifecycle := position.NewLifecycle(position.Config{
		WalletRef:           cfg.WalletRef,
		TakeProfitRatio:     cfg.Exit.TakeProfitRatio,
		StopLossRatio:       cfg.Exit.StopLossRatio,
		TrailingStopPct:     cfg.Exit.TrailingStopPct,
		MaxHold:             cfg.MaxHold(),
		PollInterval:        cfg.PollInterval(),
		DisposalRetryBudget: cfg.Exit.DisposalRetryBudget,
	}, registry, session, capLedger, executor, quotes,
		positionStore, poolStateStore, archive, logger)

	eng := engine.New(engine.Options{
		Source:    source,
		Registry:  registry,
		Facts:     facts,
		Evaluator: filter.NewEvaluator(cfg.Quality),
		Lifecycle: lifecycle,
		Session:   session,
		QueueSize: cfg.Engine.QueueSize,
		Workers:   cfg.Engine.Workers,
		Logger:    logger,
	})

	logger.Printf("Starting engine: transport=%s programs=%v workers=%d",
		cfg.Transport.Kind, cfg.Transport.Programs, cfg.Engine.Workers)
	runErr := eng.Run(ctx)

	// Write the session summary regardless of how the run ended; a
	// killed run still leaves a useful trail.
	if err := writeReport(cfg, session, archive, logger); err != nil {
		logger.Printf("write session report: %v", err)
	}

	return runErr
}

func writeReport(cfg *config.Config, session *pool.Session, archive storage.TradeArchive, logger *log.Logger) error {
	// The engine has stopped; a short deadline keeps shutdown bounded.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	state := session.Snapshot()
	plan := session.FinalPlanEntry(cfg.Session.TaxReservePct, cfg.Session.ReinvestmentPct)

	report, err := reporting.NewGenerator(archive).Generate(ctx, state, plan)
	if err != nil {
		return err
	}
	if err := reporting.WriteFiles(cfg.Report.Dir, report); err != nil {
		return err
	}

	logger.Printf("Session %d summary: pool=%.2f pnl=%.2f trades=%d completed=%t, report in %s",
		state.SessionNumber, state.CurrentPoolUsd, report.Session.TotalPnlUsd,
		state.TradesExecuted, state.Completed, cfg.Report.Dir)
	if state.Completed {
		logger.Printf("Next session plan: initial=%.2f target=%.2f size=%.2f",
			plan.NextSessionPool, plan.NextSessionPool*plan.GrowthMultiplier, plan.PositionSizeUsd)
	}
	return nil
}
