package config

import (
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies SNIPER_* environment variable overrides,
// validates the result, and returns the final Config. The returned
// Config is immutable for the process lifetime.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env if present; ignore when missing.
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Defaults returns the built-in defaults. Required fields (endpoints,
// wallet ref, DSNs) are intentionally left empty so that Validate
// rejects a config that never set them.
func Defaults() Config {
	return Config{
		Transport: TransportConfig{
			Kind: TransportWebSocket,
		},
		RPC: RPCConfig{
			TimeoutSeconds: 30,
			MaxRetries:     3,
		},
		Facts: FactsConfig{
			TimeoutSeconds: 10,
		},
		Quote: QuoteConfig{
			TimeoutSeconds: 5,
		},
		Quality: QualityConfig{
			MinScore:            60,
			LiquidityFloorUsd:   2000,
			TopHolderCeilingPct: 30,
			MarketCountFloor:    1,
			LPProviderFloor:     1,
			MinAgeSeconds:       0,
			MaxAgeSeconds:       1800,
			WeightLiquidity:     0.35,
			WeightHolders:       0.30,
			WeightLPProviders:   0.20,
			WeightAge:           0.15,
			LiquidityCapUsd:     50000,
			LPProviderCap:       20,
			AgeCapSeconds:       600,
		},
		Sizing: SizingConfig{
			Policy:   SizingFraction,
			Fraction: 0.015,
		},
		Session: SessionConfig{
			InitialPoolUsd:  600,
			TargetPoolUsd:   7000,
			TradeLimit:      20,
			DurationSeconds: 4 * 3600,
			TaxReservePct:   40,
			ReinvestmentPct: 50,
			PlannedSessions: 4,
		},
		Exit: ExitConfig{
			TakeProfitRatio:     2.0,
			StopLossRatio:       0.5,
			TrailingStopPct:     0.20,
			MaxHoldSeconds:      900,
			PollIntervalMs:      2000,
			DisposalRetryBudget: 3,
		},
		Execution: ExecutionConfig{
			SlippageBps:         200,
			OrderTimeoutSeconds: 20,
			FeeUsd:              0.05,
		},
		Engine: EngineConfig{
			QueueSize: 256,
			Workers:   8,
		},
		Ledger: LedgerConfig{
			WashSaleWindowDays: 30,
		},
		Storage: StorageConfig{
			Backend: StorageMemory,
		},
		Metrics: MetricsConfig{
			Addr: ":9090",
		},
		Report: ReportConfig{
			Dir: "reports",
		},
	}
}

// applyEnvOverrides reads well-known SNIPER_* environment variables and
// overwrites the corresponding Config fields when set. This lets
// operators inject endpoints and secrets at deploy time without
// touching the TOML file.
func applyEnvOverrides(cfg *Config) {
	setStr(&cfg.WalletRef, "SNIPER_WALLET_REF")

	setStr(&cfg.Transport.Kind, "SNIPER_TRANSPORT_KIND")
	setStr(&cfg.Transport.WSEndpoint, "SNIPER_WS_ENDPOINT")
	setStr(&cfg.Transport.StreamEndpoint, "SNIPER_STREAM_ENDPOINT")
	setStr(&cfg.Transport.StreamToken, "SNIPER_STREAM_TOKEN")

	setStr(&cfg.RPC.Endpoint, "SNIPER_RPC_ENDPOINT")
	setStr(&cfg.Facts.Endpoint, "SNIPER_FACTS_ENDPOINT")
	setStr(&cfg.Quote.Endpoint, "SNIPER_QUOTE_ENDPOINT")

	setStr(&cfg.Storage.Backend, "SNIPER_STORAGE_BACKEND")
	setStr(&cfg.Storage.PostgresDSN, "SNIPER_POSTGRES_DSN")
	setStr(&cfg.Storage.ClickhouseDSN, "SNIPER_CLICKHOUSE_DSN")

	setStr(&cfg.Metrics.Addr, "SNIPER_METRICS_ADDR")
	setStr(&cfg.Report.Dir, "SNIPER_REPORT_DIR")

	setInt(&cfg.Session.TradeLimit, "SNIPER_TRADE_LIMIT")
	setInt64(&cfg.Session.DurationSeconds, "SNIPER_SESSION_DURATION_SECONDS")
	setFloat(&cfg.Session.InitialPoolUsd, "SNIPER_INITIAL_POOL_USD")
	setFloat(&cfg.Session.TargetPoolUsd, "SNIPER_TARGET_POOL_USD")
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}
