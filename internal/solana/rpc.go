package solana

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"solana-holder-lab/internal/domain"
)

// Token program IDs.
const (
	TokenProgramID     = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	Token2022ProgramID = "TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb"
)

// TokenAccountSize is the data size of a standard SPL token account.
const TokenAccountSize = 165

// MaxLargestAccounts is the upper bound returned by getTokenLargestAccounts.
const MaxLargestAccounts = 20

// ErrAccountNotFound is returned when a queried account does not exist.
var ErrAccountNotFound = errors.New("account not found")

// ErrNotMint is returned when an account exists but is not a token mint.
var ErrNotMint = errors.New("account is not a token mint")

// ChainQueryError wraps a failed chain query.
type ChainQueryError struct {
	Method  string
	Address string
	Err     error
}

func (e *ChainQueryError) Error() string {
	return fmt.Sprintf("chain query %s(%s): %v", e.Method, e.Address, e.Err)
}

func (e *ChainQueryError) Unwrap() error {
	return e.Err
}

// RPCClient defines the Solana chain queries used by holder analysis.
type RPCClient interface {
	// GetMintInfo retrieves mint supply, decimals and authorities.
	// Returns *ChainQueryError wrapping ErrAccountNotFound if the mint does not exist.
	GetMintInfo(ctx context.Context, mint string) (*domain.MintInfo, error)

	// GetLargestTokenAccounts retrieves up to MaxLargestAccounts largest token accounts of a mint.
	GetLargestTokenAccounts(ctx context.Context, mint string) ([]LargestAccount, error)

	// GetOwnerOfTokenAccount resolves the wallet owning a token account.
	// Returns the input unchanged if the account is not a recognizable token account.
	GetOwnerOfTokenAccount(ctx context.Context, tokenAccount string) (string, error)

	// GetProgramAccounts enumerates token accounts owned by programID matching filter.
	// Entries that do not parse as token accounts are skipped.
	GetProgramAccounts(ctx context.Context, programID string, filter ProgramAccountsFilter) ([]domain.HolderRecord, error)

	// GetSlot retrieves the current slot.
	GetSlot(ctx context.Context) (int64, error)
}

// LargestAccount is one entry of getTokenLargestAccounts.
type LargestAccount struct {
	Address   string
	RawAmount *big.Int
	Decimals  int
}

// ProgramAccountsFilter restricts getProgramAccounts.
type ProgramAccountsFilter struct {
	DataSize   int    // 0 disables the size filter
	MintPrefix string // base58 mint compared at offset 0; empty disables
}

// TokenAccountFilter returns the filter for token accounts of mint under programID.
// Token-2022 accounts carry extensions, so only the mint prefix is applied there.
func TokenAccountFilter(programID, mint string) ProgramAccountsFilter {
	f := ProgramAccountsFilter{MintPrefix: mint}
	if programID == TokenProgramID {
		f.DataSize = TokenAccountSize
	}
	return f
}
