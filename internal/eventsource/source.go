// Package eventsource normalizes transport notifications into
// detection events. Two interchangeable transports produce the same
// event shape; the rest of the system never sees the wire format.
package eventsource

import (
	"context"
	"strings"

	"solana-sniper/internal/chain"
	"solana-sniper/internal/domain"
)

// Source emits detection events until the context is canceled. A
// source never re-delivers reliably; callers dedup downstream.
type Source interface {
	Events(ctx context.Context) (<-chan domain.DetectionEvent, error)
}

// Log discriminators marking the instructions we snipe on.
const (
	// creationDiscriminator appears when a new mint is initialized.
	creationDiscriminator = "Program log: Instruction: InitializeMint2"
	// poolDiscriminator appears when a new AMM pool is initialized.
	poolDiscriminator = "Program log: initialize2: InitializeInstruction2"
)

// programFor maps a monitored program ID to its event tag.
func programFor(programID string) (domain.Program, bool) {
	switch programID {
	case chain.PumpFun:
		return domain.ProgramCreation, true
	case chain.RaydiumAMMV4:
		return domain.ProgramPool, true
	}
	return "", false
}

// discriminatorFor returns the log line that confirms the interesting
// instruction for a program.
func discriminatorFor(program domain.Program) string {
	if program == domain.ProgramCreation {
		return creationDiscriminator
	}
	return poolDiscriminator
}

// matchProgram infers the source program from untagged logs, as
// delivered by wallet-scoped subscriptions, by trying both
// discriminators.
func matchProgram(logs []string) (domain.Program, bool) {
	switch {
	case logsMatch(logs, creationDiscriminator):
		return domain.ProgramCreation, true
	case logsMatch(logs, poolDiscriminator):
		return domain.ProgramPool, true
	}
	return "", false
}

// logsMatch reports whether any log line carries the discriminator.
func logsMatch(logs []string, discriminator string) bool {
	for _, line := range logs {
		if strings.Contains(line, discriminator) {
			return true
		}
	}
	return false
}
