/*

This file contains the bounded step primitives shared by every gauge:
directional, magnitude-bounded linear adjustment, piecewise-linear
interpolation, and the inverse-magnitude convention used for asymmetric
decay.

All arithmetic is 18-decimal fixed point (LegacyDec) and rounds toward zero.

*/

package gauge

import (
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"
)

// Error definitions for zero-tolerance contract handling. These indicate a
// caller bug, not a recoverable telemetry condition, and abort the season.
var (
	ErrInvertedRange = errors.New("interpolation output range is inverted")
	ErrZeroMagnitude = errors.New("cannot invert a zero magnitude")
	ErrLog2Domain    = errors.New("log2 requires a positive argument")
)

// inversePrecision is the 6-decimal granularity of the inverse-magnitude
// convention K / magnitude. At the protocol's 6-decimal integer encoding K
// is 1e12, which is exactly the reciprocal in fractional terms; the
// quotient is truncated back to 6 decimals to match that encoding.
const inversePrecision = 1_000_000

// BoundedStep moves current toward ceiling (increasing) or floor
// (decreasing) by magnitude, saturating at the bound. Negative current and
// bounds are permitted for ratio-type values.
func BoundedStep(current sdkmath.LegacyDec, increasing bool, magnitude, floor, ceiling sdkmath.LegacyDec) sdkmath.LegacyDec {
	if increasing {
		next := current.Add(magnitude)
		if next.GT(ceiling) {
			return ceiling
		}
		return next
	}
	next := current.Sub(magnitude)
	if next.LT(floor) {
		return floor
	}
	return next
}

// BoundedStepUint is the magnitude-only variant for season counters. It
// saturates at the bounds and never wraps.
func BoundedStepUint(current uint64, increasing bool, magnitude, floor, ceiling uint64) uint64 {
	if increasing {
		next := current + magnitude
		if next < current || next > ceiling {
			return ceiling
		}
		return next
	}
	if magnitude > current || current-magnitude < floor {
		return floor
	}
	return current - magnitude
}

// Interpolate maps x, clamped to [xLower, xUpper], linearly onto
// [outLower, outUpper]. When increasingWithX is false the output range is
// applied in reverse, so higher x maps toward outLower.
//
// A degenerate input range (xUpper == xLower) returns outLower. An inverted
// output range is a contract violation.
func Interpolate(x sdkmath.LegacyDec, increasingWithX bool, xLower, xUpper, outLower, outUpper sdkmath.LegacyDec) (sdkmath.LegacyDec, error) {
	if outUpper.LT(outLower) {
		return sdkmath.LegacyDec{}, fmt.Errorf("%w: [%s, %s]", ErrInvertedRange, outLower, outUpper)
	}
	if x.LT(xLower) {
		x = xLower
	}
	if x.GT(xUpper) {
		x = xUpper
	}
	if xUpper.Equal(xLower) {
		return outLower, nil
	}

	offset := outUpper.Sub(outLower).Mul(x.Sub(xLower)).QuoTruncate(xUpper.Sub(xLower))
	if increasingWithX {
		return outLower.Add(offset), nil
	}
	return outUpper.Sub(offset), nil
}

// Inverse returns K / magnitude, the asymmetric decay counterpart of an
// interpolated step. A zero magnitude is a fatal input-contract violation.
func Inverse(magnitude sdkmath.LegacyDec) (sdkmath.LegacyDec, error) {
	if magnitude.IsNil() || magnitude.IsZero() {
		return sdkmath.LegacyDec{}, ErrZeroMagnitude
	}
	inv := sdkmath.LegacyOneDec().QuoTruncate(magnitude)
	// Truncate to the 6-decimal wire granularity of the K/magnitude form.
	return sdkmath.LegacyNewDecFromIntWithPrec(inv.MulInt64(inversePrecision).TruncateInt(), 6), nil
}
