package filter

import (
	"strings"

	"solana-sniper/internal/config"
	"solana-sniper/internal/domain"
)

// Evaluator renders admit/reject verdicts from token facts. It fails
// closed: absent or incomplete facts block, and a rejected verdict
// carries every failed check rather than the first one hit.
type Evaluator struct {
	cfg config.QualityConfig
	// blockedNames holds the lowercased block list.
	blockedNames []string
}

// NewEvaluator creates an evaluator from the quality configuration.
func NewEvaluator(cfg config.QualityConfig) *Evaluator {
	lowered := make([]string, len(cfg.BlockedNames))
	for i, n := range cfg.BlockedNames {
		lowered[i] = strings.ToLower(n)
	}
	return &Evaluator{cfg: cfg, blockedNames: lowered}
}

// Evaluate renders the verdict for one candidate. facts may be nil
// when the fetch failed entirely.
func (e *Evaluator) Evaluate(mint string, facts *domain.TokenFacts) *domain.QualityVerdict {
	v := &domain.QualityVerdict{Mint: mint}

	if facts == nil {
		v.BlockedReasons = append(v.BlockedReasons, domain.ReasonMetadataUnavailable)
		return v
	}

	if !facts.AuthorityDataComplete {
		v.BlockedReasons = append(v.BlockedReasons, domain.ReasonMetadataUnavailable)
	} else {
		if facts.MintAuthorityPresent {
			v.BlockedReasons = append(v.BlockedReasons, domain.ReasonMintAuthorityPresent)
		}
		if facts.FreezeAuthorityPresent {
			v.BlockedReasons = append(v.BlockedReasons, domain.ReasonFreezeAuthorityPresent)
		}
	}

	if facts.TopHolderPct > e.cfg.TopHolderCeilingPct {
		v.BlockedReasons = append(v.BlockedReasons, domain.ReasonTopHolderConcentration)
	}
	if facts.LiquidityUsd < e.cfg.LiquidityFloorUsd {
		v.BlockedReasons = append(v.BlockedReasons, domain.ReasonLiquidityBelowFloor)
	}
	if facts.MarketCount < e.cfg.MarketCountFloor || facts.LPProviderCount < e.cfg.LPProviderFloor {
		v.BlockedReasons = append(v.BlockedReasons, domain.ReasonInsufficientMarkets)
	}
	if facts.AgeSeconds < e.cfg.MinAgeSeconds || facts.AgeSeconds > e.cfg.MaxAgeSeconds {
		v.BlockedReasons = append(v.BlockedReasons, domain.ReasonAgeOutOfWindow)
	}
	if e.nameBlocked(facts.Name) || e.nameBlocked(facts.Symbol) {
		v.BlockedReasons = append(v.BlockedReasons, domain.ReasonBlockedName)
	}

	v.Score = e.score(facts)
	if v.Score < e.cfg.MinScore {
		v.BlockedReasons = append(v.BlockedReasons, domain.ReasonScoreBelowMinimum)
	}

	v.Admitted = len(v.BlockedReasons) == 0
	return v
}

// nameBlocked reports whether s matches any blocked substring,
// case-insensitively.
func (e *Evaluator) nameBlocked(s string) bool {
	if s == "" {
		return false
	}
	lowered := strings.ToLower(s)
	for _, blocked := range e.blockedNames {
		if strings.Contains(lowered, blocked) {
			return true
		}
	}
	return false
}

// score computes the weighted composite quality score, 0..100. Each
// factor normalizes to [0,1] against its cap before weighting.
func (e *Evaluator) score(facts *domain.TokenFacts) int {
	liquidity := clamp01(facts.LiquidityUsd / e.cfg.LiquidityCapUsd)
	holders := clamp01((100 - facts.TopHolderPct) / 100)
	lp := clamp01(float64(facts.LPProviderCount) / float64(e.cfg.LPProviderCap))
	// Fresher is better: a token at or past the age cap scores zero.
	age := clamp01(1 - float64(facts.AgeSeconds)/float64(e.cfg.AgeCapSeconds))

	weighted := liquidity*e.cfg.WeightLiquidity +
		holders*e.cfg.WeightHolders +
		lp*e.cfg.WeightLPProviders +
		age*e.cfg.WeightAge

	s := int(weighted * 100)
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
