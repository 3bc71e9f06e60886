package gauge

import (
	"fmt"
	"math/big"

	sdkmath "cosmossdk.io/math"
)

// log2FracBits is the number of fractional bits computed by Log2. 64 bits
// resolve finer than LegacyDec's 18 decimal places.
const log2FracBits = 64

var decScale = new(big.Int).Exp(big.NewInt(10), big.NewInt(sdkmath.LegacyPrecision), nil)

// Log2 returns the base-2 logarithm of a positive fixed-point value.
//
// The integer part comes from power-of-two normalization of the argument
// into [1, 2); the fractional part from the classic bit-by-bit squaring
// recurrence in Q64.64. The result is exact to 64 fractional bits and never
// approximated through a natural logarithm.
func Log2(d sdkmath.LegacyDec) (sdkmath.LegacyDec, error) {
	if d.IsNil() || !d.IsPositive() {
		return sdkmath.LegacyDec{}, fmt.Errorf("%w: got %v", ErrLog2Domain, d)
	}

	// d == num/den with num the raw 18-decimal mantissa.
	num := d.BigInt()
	den := new(big.Int).Set(decScale)

	// Normalize num/den into [1, 2); n collects the integer part.
	n := int64(0)
	twice := new(big.Int)
	for twice.Lsh(den, 1); num.Cmp(twice) >= 0; twice.Lsh(den, 1) {
		den.Lsh(den, 1)
		n++
	}
	for num.Cmp(den) < 0 {
		num.Lsh(num, 1)
		n--
	}

	// v = num/den in Q64.64, 1 <= v < 2.
	v := new(big.Int).Lsh(num, log2FracBits)
	v.Quo(v, den)

	two := new(big.Int).Lsh(big.NewInt(1), log2FracBits+1)
	frac := new(big.Int)
	for i := 0; i < log2FracBits; i++ {
		v.Mul(v, v)
		v.Rsh(v, log2FracBits)
		frac.Lsh(frac, 1)
		if v.Cmp(two) >= 0 {
			v.Rsh(v, 1)
			frac.Or(frac, big.NewInt(1))
		}
	}

	fracDen := new(big.Int).Lsh(big.NewInt(1), log2FracBits)
	fracDec := sdkmath.LegacyNewDecFromBigInt(frac).QuoTruncate(sdkmath.LegacyNewDecFromBigInt(fracDen))
	return sdkmath.LegacyNewDec(n).Add(fracDec), nil
}
