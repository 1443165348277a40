package domain

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// pctScale is the integer scale applied before division so that the
// resulting percentage keeps two decimal places.
var pctScale = big.NewInt(10000)

// UIAmount converts a raw integer amount to UI units (raw / 10^decimals).
func UIAmount(raw *big.Int, decimals int) float64 {
	if raw == nil {
		return 0
	}
	return decimal.NewFromBigInt(raw, int32(-decimals)).InexactFloat64()
}

// SupplyPct returns raw as a percentage of supply with two-decimal precision.
// The ratio is computed on integers (raw * 10000 / supply) and only then
// divided by 100, so SupplyPct(x, x) is exactly 100.
func SupplyPct(raw, supply *big.Int) float64 {
	if raw == nil || supply == nil || supply.Sign() <= 0 || raw.Sign() <= 0 {
		return 0
	}
	scaled := new(big.Int).Mul(raw, pctScale)
	scaled.Quo(scaled, supply)
	return decimal.NewFromBigInt(scaled, -2).InexactFloat64()
}

// ParseRawAmount parses a base-10 integer string. Returns nil if invalid.
func ParseRawAmount(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil
	}
	return v
}
