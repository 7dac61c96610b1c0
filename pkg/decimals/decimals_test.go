package decimals

import (
	"testing"

	"github.com/gaze-network/uint128"
	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	testcases := []struct {
		amount       uint128.Uint128
		divisibility uint8
		expected     string
	}{
		{uint128.From64(1), 0, "1"},
		{uint128.From64(1), 1, "0.1"},
		{uint128.From64(12345), 2, "123.45"},
		{uint128.From64(1000), 3, "1.000"},
		{uint128.Zero, 4, "0.0000"},
		{uint128.Max, 0, "340282366920938463463374607431768211455"},
		{uint128.Max, MaxDivisibility, "3.40282366920938463463374607431768211455"},
	}
	for _, tc := range testcases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, Format(tc.amount, tc.divisibility))
		})
	}
}
