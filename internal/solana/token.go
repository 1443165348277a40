package solana

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"

	"solana-holder-lab/internal/domain"
)

// Mint account layout offsets.
const (
	mintLayoutSize           = 82
	mintAuthorityOptOffset   = 0
	mintAuthorityOffset      = 4
	mintSupplyOffset         = 36
	mintDecimalsOffset       = 44
	mintInitializedOffset    = 45
	freezeAuthorityOptOffset = 46
	freezeAuthorityOffset    = 50
	pubkeySize               = 32
)

// decodeMint parses base64 mint account data into MintInfo.
func decodeMint(address, programID, data string) (*domain.MintInfo, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}
	if len(raw) < mintLayoutSize {
		return nil, fmt.Errorf("%w: data length %d", ErrNotMint, len(raw))
	}
	if raw[mintInitializedOffset] != 1 {
		return nil, fmt.Errorf("%w: not initialized", ErrNotMint)
	}

	supply := new(big.Int).SetUint64(binary.LittleEndian.Uint64(raw[mintSupplyOffset : mintSupplyOffset+8]))
	decimals := int(raw[mintDecimalsOffset])

	info := &domain.MintInfo{
		Address:         address,
		ProgramID:       programID,
		Decimals:        decimals,
		RawSupply:       supply,
		Supply:          domain.UIAmount(supply, decimals),
		MintAuthority:   decodeCOptionPubkey(raw, mintAuthorityOptOffset, mintAuthorityOffset),
		FreezeAuthority: decodeCOptionPubkey(raw, freezeAuthorityOptOffset, freezeAuthorityOffset),
	}
	return info, nil
}

// decodeCOptionPubkey reads a COption<Pubkey>: u32 tag followed by 32 bytes.
func decodeCOptionPubkey(raw []byte, tagOffset, keyOffset int) *string {
	if binary.LittleEndian.Uint32(raw[tagOffset:tagOffset+4]) == 0 {
		return nil
	}
	key := base58.Encode(raw[keyOffset : keyOffset+pubkeySize])
	return &key
}

// IsOnCurve reports whether a base58 address is a point on the ed25519 curve.
// Program-derived addresses are off-curve. Invalid addresses return false.
func IsOnCurve(address string) bool {
	b, err := base58.Decode(address)
	if err != nil || len(b) != pubkeySize {
		return false
	}
	_, err = new(edwards25519.Point).SetBytes(b)
	return err == nil
}

// parsedAccountData is the jsonParsed shape of a token account.
type parsedAccountData struct {
	Program string `json:"program"`
	Parsed  struct {
		Type string `json:"type"`
		Info struct {
			Mint        string `json:"mint"`
			Owner       string `json:"owner"`
			State       string `json:"state"`
			TokenAmount struct {
				Amount   string `json:"amount"`
				Decimals int    `json:"decimals"`
			} `json:"tokenAmount"`
		} `json:"info"`
	} `json:"parsed"`
}

// parseTokenAccount validates jsonParsed account data. ok is false when data
// is not a parsed token account (base64 fallback, other account types, bad amount).
func parseTokenAccount(address string, data json.RawMessage) (rec domain.HolderRecord, ok bool) {
	if len(data) == 0 || data[0] != '{' {
		return rec, false
	}
	var parsed parsedAccountData
	if err := json.Unmarshal(data, &parsed); err != nil {
		return rec, false
	}
	if parsed.Parsed.Type != "account" || parsed.Parsed.Info.Owner == "" {
		return rec, false
	}
	info := parsed.Parsed.Info
	amount := domain.ParseRawAmount(info.TokenAmount.Amount)
	if amount == nil || amount.Sign() < 0 {
		return rec, false
	}

	return domain.HolderRecord{
		TokenAccount:  address,
		Owner:         info.Owner,
		RawBalance:    amount,
		UIBalance:     domain.UIAmount(amount, info.TokenAmount.Decimals),
		Decimals:      info.TokenAmount.Decimals,
		State:         strings.ToLower(info.State),
		OwnerOffCurve: !IsOnCurve(info.Owner),
	}, true
}
