package domain

// Block reason codes reported in QualityVerdict.BlockedReasons.
const (
	ReasonMetadataUnavailable    = "METADATA_UNAVAILABLE"
	ReasonMintAuthorityPresent   = "MINT_AUTHORITY_PRESENT"
	ReasonFreezeAuthorityPresent = "FREEZE_AUTHORITY_PRESENT"
	ReasonTopHolderConcentration = "TOP_HOLDER_CONCENTRATION"
	ReasonLiquidityBelowFloor    = "LIQUIDITY_BELOW_FLOOR"
	ReasonInsufficientMarkets    = "INSUFFICIENT_MARKETS"
	ReasonAgeOutOfWindow         = "AGE_OUT_OF_WINDOW"
	ReasonBlockedName            = "BLOCKED_NAME"
	ReasonScoreBelowMinimum      = "SCORE_BELOW_MINIMUM"
)

// QualityVerdict is the filter's admit/reject decision for a candidate.
// Produced once, immutable. A rejected verdict carries every failed
// check, not just the first, so the operator sees all contributing
// factors.
type QualityVerdict struct {
	Mint           string
	Admitted       bool
	Score          int // composite quality score, 0..100
	BlockedReasons []string
}

// Blocked reports whether any hard-block reason fired.
func (v *QualityVerdict) Blocked() bool {
	return len(v.BlockedReasons) > 0
}
