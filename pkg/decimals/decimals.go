// Package decimals renders integer token amounts in their display units.
package decimals

import (
	"github.com/gaze-network/uint128"
	"github.com/shopspring/decimal"
)

// MaxDivisibility is the largest number of decimal places a rune may declare.
const MaxDivisibility = 38

// FromUint128 scales amount down by 10^divisibility.
func FromUint128(amount uint128.Uint128, divisibility uint8) decimal.Decimal {
	return decimal.NewFromBigInt(amount.Big(), -int32(divisibility))
}

// Format returns amount in display units, e.g. 12345 with divisibility 2 is "123.45".
func Format(amount uint128.Uint128, divisibility uint8) string {
	return FromUint128(amount, divisibility).StringFixed(int32(divisibility))
}
