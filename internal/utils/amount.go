package utils

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// TokenUnits converts a decimal amount into a token's native integer
// units, truncating anything below the token's precision. 100.5 USDC
// (6 decimals) becomes 100500000.
func TokenUnits(amount decimal.Decimal, decimals uint8) *big.Int {
	return amount.Shift(int32(decimals)).Truncate(0).BigInt()
}

// FromTokenUnits is the inverse boundary conversion, used when an
// on-chain integer amount enters the ledger.
func FromTokenUnits(units *big.Int, decimals uint8) decimal.Decimal {
	return decimal.NewFromBigInt(units, -int32(decimals))
}

func MinBig(a, b *big.Int) *big.Int {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}
