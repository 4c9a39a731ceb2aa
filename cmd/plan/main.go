// Command plan prints the capital progression table for a
// configuration without starting the engine. Useful for sanity-checking
// session targets before a live run.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"solana-sniper/internal/config"
	"solana-sniper/internal/pool"
)

func main() {
	configPath := flag.String("config", "sniper.toml", "Path to the TOML configuration file")
	sessions := flag.Int("sessions", 0, "Override the number of planned sessions")
	flag.Parse()

	logger := log.New(os.Stderr, "[plan] ", log.LstdFlags)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	sessionCfg := cfg.Session
	if *sessions > 0 {
		sessionCfg.PlannedSessions = *sessions
	}

	plan, err := pool.BuildPlan(sessionCfg, cfg.Sizing)
	if err != nil {
		logger.Fatalf("build plan: %v", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SESSION\tINITIAL\tTARGET\tPROFIT\tMULTIPLIER\tPOSITION\tTAX%\tREINVEST%\tNEXT POOL")
	for _, e := range plan {
		fmt.Fprintf(w, "%d\t$%.2f\t$%.2f\t$%.2f\t%.2fx\t$%.2f\t%.1f\t%.1f\t$%.2f\n",
			e.SessionNumber, e.InitialPool, e.TargetPool, e.ProfitRequired,
			e.GrowthMultiplier, e.PositionSizeUsd, e.TaxReservePct,
			e.ReinvestmentPct, e.NextSessionPool)
	}
	w.Flush()
}
