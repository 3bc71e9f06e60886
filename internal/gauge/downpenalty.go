/*

Convert-down penalty gauge.

Tracks the share of grown yield forfeited on a below-peg redemption. The
penalty scales with the liquidity-to-supply ratio and decays on a base-2
logarithmic curve as the rolling count of above-peg seasons approaches its
cap, so time spent above peg forgives the penalty with diminishing marginal
effect near the cap.

*/

package gauge

import (
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/pegfield/gauged/internal/types"
)

// logTimeScale is the fixed-point scale inside the logarithmic time-decay
// term: timeRatio = log2(rolling*scale + scale) / log2(cap*scale + scale).
const logTimeScale = 1_000_000

// ConvertDownPenalty advances the down-penalty gauge one season.
func ConvertDownPenalty(value, data types.GaugePayload, snap types.SystemSnapshot) (Result, error) {
	v, ok := value.(types.ConvertDownPenaltyValue)
	if !ok {
		return Result{}, fmt.Errorf("%w: convert-down penalty value is %T", types.ErrPayloadShape, value)
	}
	d, ok := data.(types.ConvertDownPenaltyData)
	if !ok {
		return Result{}, fmt.Errorf("%w: convert-down penalty data is %T", types.ErrPayloadShape, data)
	}
	if d.RollingCap == 0 {
		return Result{}, fmt.Errorf("convert-down penalty: rolling cap must be positive")
	}

	v.RollingSeasonsAbovePeg = BoundedStepUint(
		v.RollingSeasonsAbovePeg, snap.TwaDeltaB.IsPositive(), d.RollingRate, 0, d.RollingCap)

	// Liquidity ratio unavailable: keep the penalty exactly as it was, but
	// the rolling count above still advanced.
	if snap.LiquidityToSupplyRatio.IsZero() {
		return Result{Value: v, Data: d}, nil
	}

	bound := snap.LpToSupplyRatioUpperBound
	l2sr := snap.LiquidityToSupplyRatio
	if l2sr.GT(bound) {
		l2sr = bound
	}
	l2srRatio := l2sr.QuoTruncate(bound)

	timeRatio, err := logTimeRatio(v.RollingSeasonsAbovePeg, d.RollingCap)
	if err != nil {
		return Result{}, fmt.Errorf("convert-down penalty: %w", err)
	}

	penalty := l2srRatio.MulTruncate(sdkmath.LegacyOneDec().Sub(timeRatio))
	if penalty.GT(sdkmath.LegacyOneDec()) {
		penalty = sdkmath.LegacyOneDec()
	}
	if penalty.IsNegative() {
		penalty = sdkmath.LegacyZeroDec()
	}
	v.PenaltyRatio = penalty

	return Result{Value: v, Data: d}, nil
}

// logTimeRatio computes the saturating time-decay term in [0, 1]. It is 1
// exactly when rolling == rollingCap.
func logTimeRatio(rolling, rollingCap uint64) (sdkmath.LegacyDec, error) {
	num, err := Log2(scaledSeasons(rolling))
	if err != nil {
		return sdkmath.LegacyDec{}, err
	}
	den, err := Log2(scaledSeasons(rollingCap))
	if err != nil {
		return sdkmath.LegacyDec{}, err
	}
	return num.QuoTruncate(den), nil
}

func scaledSeasons(seasons uint64) sdkmath.LegacyDec {
	return sdkmath.LegacyNewDec(int64(seasons)).MulInt64(logTimeScale).
		Add(sdkmath.LegacyNewDec(logTimeScale))
}
