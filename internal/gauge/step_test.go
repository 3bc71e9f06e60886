package gauge

import (
	"math"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) sdkmath.LegacyDec {
	return sdkmath.LegacyMustNewDecFromStr(s)
}

func TestBoundedStepSaturation(t *testing.T) {
	floor := dec("0.001")
	ceiling := dec("1.0")

	// Ordinary step up
	got := BoundedStep(dec("0.5"), true, dec("0.02"), floor, ceiling)
	assert.True(t, got.Equal(dec("0.52")), "got %s", got)

	// Step up saturates at ceiling
	got = BoundedStep(dec("0.99"), true, dec("0.02"), floor, ceiling)
	assert.True(t, got.Equal(ceiling), "got %s", got)

	// Step down saturates at floor
	got = BoundedStep(dec("0.01"), false, dec("0.02"), floor, ceiling)
	assert.True(t, got.Equal(floor), "got %s", got)

	// Landing exactly on a bound is not clamped past it
	got = BoundedStep(dec("0.98"), true, dec("0.02"), floor, ceiling)
	assert.True(t, got.Equal(ceiling), "got %s", got)
}

func TestBoundedStepNegativeRange(t *testing.T) {
	// Ratio-type values may live in a negative range.
	got := BoundedStep(dec("-0.5"), false, dec("0.3"), dec("-1.0"), dec("1.0"))
	assert.True(t, got.Equal(dec("-0.8")), "got %s", got)

	got = BoundedStep(dec("-0.9"), false, dec("0.3"), dec("-1.0"), dec("1.0"))
	assert.True(t, got.Equal(dec("-1.0")), "got %s", got)
}

func TestBoundedStepUint(t *testing.T) {
	assert.Equal(t, uint64(6), BoundedStepUint(5, true, 1, 0, 24))
	assert.Equal(t, uint64(4), BoundedStepUint(5, false, 1, 0, 24))

	// Saturation at both bounds
	assert.Equal(t, uint64(24), BoundedStepUint(24, true, 1, 0, 24))
	assert.Equal(t, uint64(0), BoundedStepUint(0, false, 1, 0, 24))

	// Magnitude larger than current never wraps below the floor
	assert.Equal(t, uint64(0), BoundedStepUint(3, false, 10, 0, 24))

	// Addition overflow saturates at the ceiling instead of wrapping
	assert.Equal(t, uint64(24), BoundedStepUint(math.MaxUint64-1, true, 10, 0, 24))
}

func TestInterpolateEndpoints(t *testing.T) {
	xLower, xUpper := dec("0.05"), dec("0.25")
	outLower, outUpper := dec("0.005"), dec("0.02")

	// Increasing: endpoints map exactly
	got, err := Interpolate(xLower, true, xLower, xUpper, outLower, outUpper)
	require.NoError(t, err)
	assert.True(t, got.Equal(outLower), "got %s", got)

	got, err = Interpolate(xUpper, true, xLower, xUpper, outLower, outUpper)
	require.NoError(t, err)
	assert.True(t, got.Equal(outUpper), "got %s", got)

	// Decreasing: endpoints map in reverse
	got, err = Interpolate(xLower, false, xLower, xUpper, outLower, outUpper)
	require.NoError(t, err)
	assert.True(t, got.Equal(outUpper), "got %s", got)

	got, err = Interpolate(xUpper, false, xLower, xUpper, outLower, outUpper)
	require.NoError(t, err)
	assert.True(t, got.Equal(outLower), "got %s", got)
}

func TestInterpolateMidpointAndClamp(t *testing.T) {
	// Midpoint of [0, 1] -> [0, 10] is exactly 5.
	got, err := Interpolate(dec("0.5"), true, dec("0"), dec("1"), dec("0"), dec("10"))
	require.NoError(t, err)
	assert.True(t, got.Equal(dec("5")), "got %s", got)

	// Input outside the range behaves like the nearest endpoint.
	clamped, err := Interpolate(dec("3.7"), true, dec("0"), dec("1"), dec("0"), dec("10"))
	require.NoError(t, err)
	assert.True(t, clamped.Equal(dec("10")), "got %s", clamped)

	clamped, err = Interpolate(dec("-2"), true, dec("0"), dec("1"), dec("0"), dec("10"))
	require.NoError(t, err)
	assert.True(t, clamped.Equal(dec("0")), "got %s", clamped)
}

func TestInterpolateDegenerateRange(t *testing.T) {
	got, err := Interpolate(dec("0.5"), true, dec("0.5"), dec("0.5"), dec("1"), dec("2"))
	require.NoError(t, err)
	assert.True(t, got.Equal(dec("1")), "got %s", got)
}

func TestInterpolateInvertedOutputRange(t *testing.T) {
	_, err := Interpolate(dec("0.5"), true, dec("0"), dec("1"), dec("2"), dec("1"))
	require.ErrorIs(t, err, ErrInvertedRange)
}

func TestInverse(t *testing.T) {
	got, err := Inverse(dec("0.5"))
	require.NoError(t, err)
	assert.True(t, got.Equal(dec("2.0")), "got %s", got)

	// Truncated to 6 decimals: 1/3 -> 0.333333
	got, err = Inverse(dec("3"))
	require.NoError(t, err)
	assert.True(t, got.Equal(dec("0.333333")), "got %s", got)

	got, err = Inverse(dec("0.02"))
	require.NoError(t, err)
	assert.True(t, got.Equal(dec("50")), "got %s", got)

	_, err = Inverse(sdkmath.LegacyZeroDec())
	require.ErrorIs(t, err, ErrZeroMagnitude)
}

func TestLog2ExactPowers(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"1", "0"},
		{"2", "1"},
		{"4", "2"},
		{"8", "3"},
		{"1024", "10"},
		{"0.5", "-1"},
		{"0.25", "-2"},
	}
	for _, tc := range cases {
		got, err := Log2(dec(tc.in))
		require.NoError(t, err, "log2(%s)", tc.in)
		assert.True(t, got.Equal(dec(tc.want)), "log2(%s) = %s, want %s", tc.in, got, tc.want)
	}
}

func TestLog2NonPowers(t *testing.T) {
	// log2(3) = 1.584962500721156...
	got, err := Log2(dec("3"))
	require.NoError(t, err)
	diff := got.Sub(dec("1.584962500721156181")).Abs()
	assert.True(t, diff.LTE(dec("0.000000000000001")), "log2(3) = %s", got)

	// log2 is strictly increasing
	lo, err := Log2(dec("1000000"))
	require.NoError(t, err)
	hi, err := Log2(dec("1000001"))
	require.NoError(t, err)
	assert.True(t, hi.GT(lo))
}

func TestLog2Domain(t *testing.T) {
	_, err := Log2(sdkmath.LegacyZeroDec())
	require.ErrorIs(t, err, ErrLog2Domain)

	_, err = Log2(dec("-1"))
	require.ErrorIs(t, err, ErrLog2Domain)
}
