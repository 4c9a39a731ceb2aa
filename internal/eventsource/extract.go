package eventsource

import "solana-sniper/internal/chain"

// Addresses that show up in every creation/initialization transaction
// and can never be the new mint.
var wellKnownAddresses = map[string]struct{}{
	chain.PumpFun:      {},
	chain.RaydiumAMMV4: {},
	// System program
	"11111111111111111111111111111111": {},
	// SPL token program
	"TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA": {},
	// Associated token account program
	"ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL": {},
	// Compute budget program
	"ComputeBudget111111111111111111111111111111": {},
	// Rent sysvar
	"SysvarRent111111111111111111111111111111111": {},
	// Wrapped SOL
	"So11111111111111111111111111111111111111112": {},
}

// extractMint picks the new token mint out of a transaction's account
// keys. Key 0 is the fee payer; pool, authority, and vault accounts
// are program-derived and land off the ed25519 curve, while mint
// accounts are ordinary keypair accounts. The first valid on-curve
// key that is not a well-known address is the mint.
func extractMint(accountKeys []string) string {
	for i, key := range accountKeys {
		if i == 0 {
			continue
		}
		if _, known := wellKnownAddresses[key]; known {
			continue
		}
		if !chain.IsValidAddress(key) || !chain.IsOnCurve(key) {
			continue
		}
		return key
	}
	return ""
}
