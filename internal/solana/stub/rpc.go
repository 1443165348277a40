package stub

import (
	"context"
	"math/big"
	"sort"

	"solana-holder-lab/internal/domain"
	"solana-holder-lab/internal/solana"
)

// RPCClient implements solana.RPCClient for testing.
type RPCClient struct {
	Mints    map[string]*domain.MintInfo
	Accounts map[string][]domain.HolderRecord // program ID -> token accounts
	Slot     int64

	// FailPrograms makes GetProgramAccounts fail for the listed program IDs.
	FailPrograms map[string]error
	// FailLargest makes GetLargestTokenAccounts fail.
	FailLargest error

	OwnerCalls int
}

// NewRPCClient creates a new stub RPC client.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		Mints:        make(map[string]*domain.MintInfo),
		Accounts:     make(map[string][]domain.HolderRecord),
		FailPrograms: make(map[string]error),
	}
}

// GetMintInfo retrieves a mint from the stub store.
func (c *RPCClient) GetMintInfo(_ context.Context, mint string) (*domain.MintInfo, error) {
	info, ok := c.Mints[mint]
	if !ok {
		return nil, &solana.ChainQueryError{Method: "getAccountInfo", Address: mint, Err: solana.ErrAccountNotFound}
	}
	cp := *info
	return &cp, nil
}

// GetLargestTokenAccounts returns the largest stored accounts of mint, balance descending.
func (c *RPCClient) GetLargestTokenAccounts(_ context.Context, mint string) ([]solana.LargestAccount, error) {
	if c.FailLargest != nil {
		return nil, c.FailLargest
	}

	var all []domain.HolderRecord
	for _, recs := range c.Accounts {
		all = append(all, recs...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].RawBalance.Cmp(all[j].RawBalance) > 0
	})

	var out []solana.LargestAccount
	for _, rec := range all {
		if len(out) == solana.MaxLargestAccounts {
			break
		}
		out = append(out, solana.LargestAccount{
			Address:   rec.TokenAccount,
			RawAmount: new(big.Int).Set(rec.RawBalance),
			Decimals:  rec.Decimals,
		})
	}
	return out, nil
}

// GetOwnerOfTokenAccount returns the stored owner or the input unchanged.
func (c *RPCClient) GetOwnerOfTokenAccount(_ context.Context, tokenAccount string) (string, error) {
	c.OwnerCalls++
	for _, recs := range c.Accounts {
		for _, rec := range recs {
			if rec.TokenAccount == tokenAccount {
				return rec.Owner, nil
			}
		}
	}
	return tokenAccount, nil
}

// GetProgramAccounts returns the stored accounts for programID.
func (c *RPCClient) GetProgramAccounts(_ context.Context, programID string, _ solana.ProgramAccountsFilter) ([]domain.HolderRecord, error) {
	if err := c.FailPrograms[programID]; err != nil {
		return nil, err
	}
	recs := c.Accounts[programID]
	out := make([]domain.HolderRecord, len(recs))
	copy(out, recs)
	return out, nil
}

// GetSlot returns the configured slot.
func (c *RPCClient) GetSlot(_ context.Context) (int64, error) {
	return c.Slot, nil
}

// AddMint adds a mint to the stub store.
func (c *RPCClient) AddMint(info *domain.MintInfo) {
	c.Mints[info.Address] = info
}

// AddTokenAccount adds a token account under programID.
func (c *RPCClient) AddTokenAccount(programID string, rec domain.HolderRecord) {
	c.Accounts[programID] = append(c.Accounts[programID], rec)
}

var _ solana.RPCClient = (*RPCClient)(nil)
