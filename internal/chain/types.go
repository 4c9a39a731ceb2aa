package chain

// Well-known program IDs monitored for new-token activity.
const (
	// PumpFun is the pump.fun token creation program ID.
	PumpFun = "6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P"
	// RaydiumAMMV4 is the Raydium AMM v4 pool program ID.
	RaydiumAMMV4 = "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"
)

// Transaction represents a chain transaction.
type Transaction struct {
	Slot      int64
	Signature string
	BlockTime int64 // Unix timestamp (seconds)
	Meta      *TransactionMeta
	Message   *TransactionMessage
}

// TransactionMeta contains transaction metadata.
type TransactionMeta struct {
	Err         interface{}
	LogMessages []string
}

// TransactionMessage contains the parsed transaction message.
type TransactionMessage struct {
	AccountKeys []string
}

// MintAuthorities holds the authority fields of a mint account.
type MintAuthorities struct {
	MintAuthority   *string // nil when revoked
	FreezeAuthority *string // nil when revoked
	Decimals        int
	Supply          string
}

// LogsFilter selects which program logs a subscription receives.
type LogsFilter struct {
	// Mentions filters to transactions mentioning these addresses.
	Mentions []string
}

// LogNotification is a single push-socket log event.
type LogNotification struct {
	Signature string
	Slot      int64
	Logs      []string
	Err       interface{}
}

// StreamFilter selects programs and wallets on the multiplexed stream.
// One subscription request covers every filter; updates carry the
// matched program so the consumer can demultiplex.
type StreamFilter struct {
	Programs []string
	Wallets  []string
	Mode     string // "program" | "wallet"
}

// StreamUpdate is one tagged frame from the multiplexed stream.
type StreamUpdate struct {
	Program     string
	Signature   string
	Slot        int64
	BlockTimeMs int64
	AccountKeys []string
	Logs        []string
}
