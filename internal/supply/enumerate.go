// Package supply decomposes token supply into CEX, DEX and on-chain buckets.
package supply

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"

	"github.com/rs/zerolog"

	"solana-holder-lab/internal/domain"
	"solana-holder-lab/internal/observability"
	"solana-holder-lab/internal/solana"
)

// DefaultPrograms are the token programs scanned for holder accounts.
var DefaultPrograms = []string{solana.TokenProgramID, solana.Token2022ProgramID}

// EnumerateAccounts returns every token account of mint across programIDs.
// A program whose enumeration fails contributes no accounts; the error is
// returned only if every program failed.
func EnumerateAccounts(ctx context.Context, chain solana.RPCClient, mint string, programIDs []string, logger zerolog.Logger) ([]domain.HolderRecord, error) {
	var all []domain.HolderRecord
	var errs []error

	for _, programID := range programIDs {
		recs, err := chain.GetProgramAccounts(ctx, programID, solana.TokenAccountFilter(programID, mint))
		if err != nil {
			logger.Warn().Err(err).Str("program", programID).Msg("token account enumeration failed")
			observability.RecordProviderError("solana", "getProgramAccounts")
			errs = append(errs, fmt.Errorf("program %s: %w", programID, err))
			continue
		}
		observability.RecordAccountsScanned(programID, len(recs))
		all = append(all, recs...)
	}

	if len(programIDs) > 0 && len(errs) == len(programIDs) {
		return nil, errors.Join(errs...)
	}
	return all, nil
}

// AggregateOwners sums token account balances per owner, sorted by raw balance
// descending with owner address as tiebreak.
func AggregateOwners(records []domain.HolderRecord) []domain.OwnerBalance {
	byOwner := make(map[string]*domain.OwnerBalance)
	var order []string

	for _, rec := range records {
		if rec.Owner == "" || rec.RawBalance == nil {
			continue
		}
		ob, ok := byOwner[rec.Owner]
		if !ok {
			ob = &domain.OwnerBalance{
				Owner:         rec.Owner,
				RawBalance:    new(big.Int),
				Decimals:      rec.Decimals,
				OwnerOffCurve: rec.OwnerOffCurve,
			}
			byOwner[rec.Owner] = ob
			order = append(order, rec.Owner)
		}
		ob.RawBalance.Add(ob.RawBalance, rec.RawBalance)
		ob.TokenAccounts = append(ob.TokenAccounts, rec.TokenAccount)
	}

	owners := make([]domain.OwnerBalance, 0, len(order))
	for _, addr := range order {
		ob := byOwner[addr]
		ob.UIBalance = domain.UIAmount(ob.RawBalance, ob.Decimals)
		owners = append(owners, *ob)
	}

	sort.SliceStable(owners, func(i, j int) bool {
		if c := owners[i].RawBalance.Cmp(owners[j].RawBalance); c != 0 {
			return c > 0
		}
		return owners[i].Owner < owners[j].Owner
	})

	return owners
}

// MinBalanceRaw returns the lookup threshold: bps basis points of supply.
func MinBalanceRaw(supplyRaw *big.Int, bps int64) *big.Int {
	if supplyRaw == nil || bps <= 0 {
		return new(big.Int)
	}
	t := new(big.Int).Mul(supplyRaw, big.NewInt(bps))
	return t.Quo(t, big.NewInt(10000))
}
