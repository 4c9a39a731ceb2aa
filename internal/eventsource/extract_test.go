package eventsource

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Real addresses: the fee payer and mint are keypair accounts
// (on-curve); the Raydium authority is a program-derived address
// (off-curve).
const (
	testFeePayer = "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"
	testMint     = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	testPDA      = "5Q544fKrFoe6tsEbD7S8EmxGTJYAKtTVhAW5Q5pge4j1"
)

func TestExtractMintSkipsFeePayerAndKnownAddresses(t *testing.T) {
	keys := []string{
		testFeePayer,
		"11111111111111111111111111111111",
		"TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA",
		"So11111111111111111111111111111111111111112",
		testMint,
	}
	assert.Equal(t, testMint, extractMint(keys))
}

func TestExtractMintSkipsOffCurveAccounts(t *testing.T) {
	keys := []string{testFeePayer, testPDA, testMint}
	assert.Equal(t, testMint, extractMint(keys))
}

func TestExtractMintNoCandidate(t *testing.T) {
	assert.Equal(t, "", extractMint(nil))
	assert.Equal(t, "", extractMint([]string{testFeePayer}))
	assert.Equal(t, "", extractMint([]string{testFeePayer, "not-base58!", testPDA}))
}

func TestLogsMatch(t *testing.T) {
	logs := []string{
		"Program 6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P invoke [1]",
		"Program log: Instruction: InitializeMint2",
		"Program 6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P success",
	}
	assert.True(t, logsMatch(logs, creationDiscriminator))
	assert.False(t, logsMatch(logs, poolDiscriminator))
	assert.False(t, logsMatch(nil, creationDiscriminator))
}
