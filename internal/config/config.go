// Package config defines the immutable process configuration for the
// sniper engine and provides validation helpers. The configuration is
// read once at startup; a missing required field fails startup instead
// of silently defaulting mid-run.
package config

import (
	"fmt"
	"strings"
	"time"

	"solana-sniper/internal/chain"
)

// Transport kinds for event ingestion.
const (
	TransportWebSocket = "websocket"
	TransportStream    = "stream"
)

// Sizing policies.
const (
	SizingFraction = "fraction"
	SizingAbsolute = "absolute"
)

// Storage backends.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Config is the root configuration structure. Fields are populated from
// a TOML file and then optionally overridden by SNIPER_* environment
// variables.
type Config struct {
	WalletRef string `toml:"wallet_ref"`

	Transport TransportConfig `toml:"transport"`
	RPC       RPCConfig       `toml:"rpc"`
	Facts     FactsConfig     `toml:"facts"`
	Quote     QuoteConfig     `toml:"quote"`
	Quality   QualityConfig   `toml:"quality"`
	Sizing    SizingConfig    `toml:"sizing"`
	Session   SessionConfig   `toml:"session"`
	Exit      ExitConfig      `toml:"exit"`
	Execution ExecutionConfig `toml:"execution"`
	Engine    EngineConfig    `toml:"engine"`
	Ledger    LedgerConfig    `toml:"ledger"`
	Storage   StorageConfig   `toml:"storage"`
	Metrics   MetricsConfig   `toml:"metrics"`
	Report    ReportConfig    `toml:"report"`
}

// TransportConfig selects and parameterizes the ingestion transport.
type TransportConfig struct {
	Kind           string   `toml:"kind"` // websocket | stream
	WSEndpoint     string   `toml:"ws_endpoint"`
	StreamEndpoint string   `toml:"stream_endpoint"`
	StreamToken    string   `toml:"stream_token"`
	Programs       []string `toml:"programs"` // creation + pool program ids
	Wallets        []string `toml:"wallets"`  // optional wallet-scoped subscriptions
}

// RPCConfig holds the chain JSON-RPC endpoint used for price polling
// and account lookups.
type RPCConfig struct {
	Endpoint       string `toml:"endpoint"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	MaxRetries     int    `toml:"max_retries"`
}

// FactsConfig holds the token-report API used by the quality filter.
type FactsConfig struct {
	Endpoint       string `toml:"endpoint"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// QuoteConfig holds the price quote API polled by position monitors
// and used by the paper executor to fill orders.
type QuoteConfig struct {
	Endpoint       string `toml:"endpoint"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// QualityConfig holds filter thresholds and score weights.
type QualityConfig struct {
	MinScore            int      `toml:"min_score"`              // 0..100
	LiquidityFloorUsd   float64  `toml:"liquidity_floor_usd"`    // hard block below
	TopHolderCeilingPct float64  `toml:"top_holder_ceiling_pct"` // hard block above
	MarketCountFloor    int      `toml:"market_count_floor"`
	LPProviderFloor     int      `toml:"lp_provider_floor"`
	MinAgeSeconds       int64    `toml:"min_age_seconds"`
	MaxAgeSeconds       int64    `toml:"max_age_seconds"`
	BlockedNames        []string `toml:"blocked_names"` // case-insensitive substrings

	// Score weights must sum to 1.0.
	WeightLiquidity   float64 `toml:"weight_liquidity"`
	WeightHolders     float64 `toml:"weight_holders"`
	WeightLPProviders float64 `toml:"weight_lp_providers"`
	WeightAge         float64 `toml:"weight_age"`

	// Normalization caps: the value at which a factor scores 100.
	LiquidityCapUsd  float64 `toml:"liquidity_cap_usd"`
	LPProviderCap    int     `toml:"lp_provider_cap"`
	AgeCapSeconds    int64   `toml:"age_cap_seconds"`
}

// SizingConfig selects the position sizing policy.
type SizingConfig struct {
	Policy      string  `toml:"policy"`   // fraction | absolute
	Fraction    float64 `toml:"fraction"` // of current pool, (0,1]
	AbsoluteUsd float64 `toml:"absolute_usd"`
}

// SessionConfig parameterizes the capital progression session.
type SessionConfig struct {
	InitialPoolUsd  float64 `toml:"initial_pool_usd"`
	TargetPoolUsd   float64 `toml:"target_pool_usd"`
	TradeLimit      int     `toml:"trade_limit"`
	DurationSeconds int64   `toml:"duration_seconds"`
	TaxReservePct   float64 `toml:"tax_reserve_pct"`
	ReinvestmentPct float64 `toml:"reinvestment_pct"`
	PlannedSessions int     `toml:"planned_sessions"`
}

// ExitConfig holds the exit conditions evaluated on every monitor tick.
type ExitConfig struct {
	TakeProfitRatio     float64 `toml:"take_profit_ratio"` // e.g. 2.0 = +100%
	StopLossRatio       float64 `toml:"stop_loss_ratio"`   // e.g. 0.5 = -50%
	TrailingStopPct     float64 `toml:"trailing_stop_pct"` // drop from peak, (0,1)
	MaxHoldSeconds      int64   `toml:"max_hold_seconds"`
	PollIntervalMs      int64   `toml:"poll_interval_ms"`
	DisposalRetryBudget int     `toml:"disposal_retry_budget"`
}

// ExecutionConfig parameterizes order submission.
type ExecutionConfig struct {
	SlippageBps         int     `toml:"slippage_bps"`
	OrderTimeoutSeconds int     `toml:"order_timeout_seconds"`
	FeeUsd              float64 `toml:"fee_usd"` // flat per-order fee for the paper executor
}

// EngineConfig bounds the detection work queue and worker pool.
type EngineConfig struct {
	QueueSize int `toml:"queue_size"`
	Workers   int `toml:"workers"`
}

// LedgerConfig parameterizes the cost-basis ledger.
type LedgerConfig struct {
	WashSaleWindowDays int `toml:"wash_sale_window_days"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Backend       string `toml:"backend"` // memory | postgres
	PostgresDSN   string `toml:"postgres_dsn"`
	ClickhouseDSN string `toml:"clickhouse_dsn"` // optional trade archive
}

// MetricsConfig holds the Prometheus endpoint address.
type MetricsConfig struct {
	Addr string `toml:"addr"` // empty disables the metrics server
}

// ReportConfig holds the session report output directory.
type ReportConfig struct {
	Dir string `toml:"dir"`
}

// RPCTimeout returns the RPC timeout as a duration.
func (c *Config) RPCTimeout() time.Duration {
	return time.Duration(c.RPC.TimeoutSeconds) * time.Second
}

// FactsTimeout returns the facts fetch timeout as a duration.
func (c *Config) FactsTimeout() time.Duration {
	return time.Duration(c.Facts.TimeoutSeconds) * time.Second
}

// QuoteTimeout returns the price quote timeout as a duration.
func (c *Config) QuoteTimeout() time.Duration {
	return time.Duration(c.Quote.TimeoutSeconds) * time.Second
}

// OrderTimeout returns the order submission timeout as a duration.
func (c *Config) OrderTimeout() time.Duration {
	return time.Duration(c.Execution.OrderTimeoutSeconds) * time.Second
}

// PollInterval returns the monitor polling interval as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Exit.PollIntervalMs) * time.Millisecond
}

// MaxHold returns the maximum hold duration.
func (c *Config) MaxHold() time.Duration {
	return time.Duration(c.Exit.MaxHoldSeconds) * time.Second
}

// SessionDuration returns the session duration cutoff.
func (c *Config) SessionDuration() time.Duration {
	return time.Duration(c.Session.DurationSeconds) * time.Second
}

// WashSaleWindow returns the wash-sale window as a duration.
func (c *Config) WashSaleWindow() time.Duration {
	return time.Duration(c.Ledger.WashSaleWindowDays) * 24 * time.Hour
}

// Validate checks the configuration for completeness and consistency.
// It returns an error describing every problem found, not just the
// first.
func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if c.WalletRef == "" {
		add("wallet_ref is required")
	}

	switch c.Transport.Kind {
	case TransportWebSocket:
		if c.Transport.WSEndpoint == "" {
			add("transport.ws_endpoint is required for kind=websocket")
		}
	case TransportStream:
		if c.Transport.StreamEndpoint == "" {
			add("transport.stream_endpoint is required for kind=stream")
		}
	default:
		add("transport.kind must be %q or %q, got %q", TransportWebSocket, TransportStream, c.Transport.Kind)
	}
	if len(c.Transport.Programs) == 0 {
		add("transport.programs must list at least one program id")
	}
	for _, p := range c.Transport.Programs {
		if !chain.IsValidAddress(p) {
			add("transport.programs contains invalid address %q", p)
		}
	}
	for _, w := range c.Transport.Wallets {
		if !chain.IsValidAddress(w) {
			add("transport.wallets contains invalid address %q", w)
		}
	}

	if c.RPC.Endpoint == "" {
		add("rpc.endpoint is required")
	}
	if c.RPC.TimeoutSeconds <= 0 {
		add("rpc.timeout_seconds must be positive")
	}
	if c.Facts.Endpoint == "" {
		add("facts.endpoint is required")
	}
	if c.Facts.TimeoutSeconds <= 0 {
		add("facts.timeout_seconds must be positive")
	}
	if c.Quote.Endpoint == "" {
		add("quote.endpoint is required")
	}
	if c.Quote.TimeoutSeconds <= 0 {
		add("quote.timeout_seconds must be positive")
	}

	if c.Quality.MinScore < 0 || c.Quality.MinScore > 100 {
		add("quality.min_score must be within [0,100], got %d", c.Quality.MinScore)
	}
	if c.Quality.LiquidityFloorUsd <= 0 {
		add("quality.liquidity_floor_usd must be positive")
	}
	if c.Quality.TopHolderCeilingPct <= 0 || c.Quality.TopHolderCeilingPct > 100 {
		add("quality.top_holder_ceiling_pct must be within (0,100]")
	}
	if c.Quality.MaxAgeSeconds <= c.Quality.MinAgeSeconds {
		add("quality.max_age_seconds must exceed quality.min_age_seconds")
	}
	weightSum := c.Quality.WeightLiquidity + c.Quality.WeightHolders + c.Quality.WeightLPProviders + c.Quality.WeightAge
	if weightSum < 0.999 || weightSum > 1.001 {
		add("quality score weights must sum to 1.0, got %.3f", weightSum)
	}
	if c.Quality.LiquidityCapUsd <= c.Quality.LiquidityFloorUsd {
		add("quality.liquidity_cap_usd must exceed quality.liquidity_floor_usd")
	}
	if c.Quality.LPProviderCap <= 0 {
		add("quality.lp_provider_cap must be positive")
	}
	if c.Quality.AgeCapSeconds <= 0 {
		add("quality.age_cap_seconds must be positive")
	}

	switch c.Sizing.Policy {
	case SizingFraction:
		if c.Sizing.Fraction <= 0 || c.Sizing.Fraction > 1 {
			add("sizing.fraction must be within (0,1] for policy=fraction")
		}
	case SizingAbsolute:
		if c.Sizing.AbsoluteUsd <= 0 {
			add("sizing.absolute_usd must be positive for policy=absolute")
		}
	default:
		add("sizing.policy must be %q or %q, got %q", SizingFraction, SizingAbsolute, c.Sizing.Policy)
	}

	if c.Session.InitialPoolUsd <= 0 {
		add("session.initial_pool_usd must be positive")
	}
	if c.Session.TargetPoolUsd <= c.Session.InitialPoolUsd {
		add("session.target_pool_usd must exceed session.initial_pool_usd")
	}
	if c.Session.TradeLimit <= 0 {
		add("session.trade_limit must be positive")
	}
	if c.Session.DurationSeconds <= 0 {
		add("session.duration_seconds must be positive")
	}
	if c.Session.TaxReservePct < 0 || c.Session.TaxReservePct >= 100 {
		add("session.tax_reserve_pct must be within [0,100)")
	}
	if c.Session.ReinvestmentPct <= 0 || c.Session.ReinvestmentPct > 100 {
		add("session.reinvestment_pct must be within (0,100]")
	}
	if c.Session.PlannedSessions <= 0 {
		add("session.planned_sessions must be positive")
	}

	if c.Exit.TakeProfitRatio <= 1 {
		add("exit.take_profit_ratio must exceed 1.0")
	}
	if c.Exit.StopLossRatio <= 0 || c.Exit.StopLossRatio >= 1 {
		add("exit.stop_loss_ratio must be within (0,1)")
	}
	if c.Exit.TrailingStopPct <= 0 || c.Exit.TrailingStopPct >= 1 {
		add("exit.trailing_stop_pct must be within (0,1)")
	}
	if c.Exit.MaxHoldSeconds <= 0 {
		add("exit.max_hold_seconds must be positive")
	}
	if c.Exit.PollIntervalMs <= 0 {
		add("exit.poll_interval_ms must be positive")
	}
	if c.Exit.DisposalRetryBudget <= 0 {
		add("exit.disposal_retry_budget must be positive")
	}

	if c.Execution.SlippageBps < 0 {
		add("execution.slippage_bps must not be negative")
	}
	if c.Execution.OrderTimeoutSeconds <= 0 {
		add("execution.order_timeout_seconds must be positive")
	}

	if c.Engine.QueueSize <= 0 {
		add("engine.queue_size must be positive")
	}
	if c.Engine.Workers <= 0 {
		add("engine.workers must be positive")
	}

	if c.Ledger.WashSaleWindowDays <= 0 {
		add("ledger.wash_sale_window_days must be positive")
	}

	switch c.Storage.Backend {
	case StorageMemory:
	case StoragePostgres:
		if c.Storage.PostgresDSN == "" {
			add("storage.postgres_dsn is required for backend=postgres")
		}
	default:
		add("storage.backend must be %q or %q, got %q", StorageMemory, StoragePostgres, c.Storage.Backend)
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}
