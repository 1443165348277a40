package domain

import "math/big"

// MintInfo describes a token mint. Fetched once per analysis run.
type MintInfo struct {
	Address         string
	ProgramID       string   // owning token program (Token or Token-2022)
	Decimals        int
	RawSupply       *big.Int // total supply in base units
	Supply          float64  // RawSupply / 10^Decimals
	MintAuthority   *string  // nil when revoked
	FreezeAuthority *string  // nil when revoked
}

// HasFreezeAuthority reports whether token accounts of this mint can still be frozen.
func (m *MintInfo) HasFreezeAuthority() bool {
	return m != nil && m.FreezeAuthority != nil
}
