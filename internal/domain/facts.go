package domain

// TokenFacts holds the metadata and on-chain facts used by the quality
// filter. Fetched on demand per candidate and discarded after the
// verdict; facts for a freshly launched token go stale in seconds.
type TokenFacts struct {
	Mint   string
	Name   string
	Symbol string

	MintAuthorityPresent   bool
	FreezeAuthorityPresent bool
	// AuthorityDataComplete is false when the report did not include
	// authority fields. The filter treats that as a hard block.
	AuthorityDataComplete bool

	TopHolderPct    float64 // largest single holder, percent of supply
	LiquidityUsd    float64
	MarketCount     int
	LPProviderCount int
	AgeSeconds      int64
}
