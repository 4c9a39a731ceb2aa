package domain

// Program identifies which on-chain program produced a detection event.
type Program string

const (
	// ProgramCreation is the token creation program (new mint launches).
	ProgramCreation Program = "CREATION_PROGRAM"
	// ProgramPool is the liquidity pool program (new pool initializations).
	ProgramPool Program = "POOL_PROGRAM"
)

// String returns the string representation of Program.
func (p Program) String() string {
	return string(p)
}

// IsValid checks if the program is a known value.
func (p Program) IsValid() bool {
	return p == ProgramCreation || p == ProgramPool
}

// DetectionEvent is a normalized new-token observation produced by an
// event source. Immutable, consumed once by the engine.
type DetectionEvent struct {
	Mint          string  // token mint address
	ObservedAt    int64   // Unix timestamp in milliseconds
	SourceProgram Program // CREATION_PROGRAM | POOL_PROGRAM
}
