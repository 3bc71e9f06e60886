package gauge

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pegfield/gauged/internal/types"
)

func penaltyData() types.ConvertDownPenaltyData {
	return types.ConvertDownPenaltyData{RollingRate: 1, RollingCap: 24}
}

func penaltySnap() types.SystemSnapshot {
	return types.SystemSnapshot{
		TwaDeltaB:                 dec("100"),
		LiquidityToSupplyRatio:    dec("0.4"),
		LpToSupplyRatioUpperBound: dec("0.8"),
	}
}

func TestConvertDownPenaltyRollingCount(t *testing.T) {
	v := types.ConvertDownPenaltyValue{
		PenaltyRatio:           sdkmath.LegacyZeroDec(),
		RollingSeasonsAbovePeg: 5,
	}

	// Above peg increments
	res, err := ConvertDownPenalty(v, penaltyData(), penaltySnap())
	require.NoError(t, err)
	assert.Equal(t, uint64(6), res.Value.(types.ConvertDownPenaltyValue).RollingSeasonsAbovePeg)

	// Below peg decrements
	snap := penaltySnap()
	snap.TwaDeltaB = dec("-100")
	res, err = ConvertDownPenalty(v, penaltyData(), snap)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), res.Value.(types.ConvertDownPenaltyValue).RollingSeasonsAbovePeg)

	// Saturates at the cap
	v.RollingSeasonsAbovePeg = 24
	res, err = ConvertDownPenalty(v, penaltyData(), penaltySnap())
	require.NoError(t, err)
	assert.Equal(t, uint64(24), res.Value.(types.ConvertDownPenaltyValue).RollingSeasonsAbovePeg)
}

func TestConvertDownPenaltyZeroAtCap(t *testing.T) {
	v := types.ConvertDownPenaltyValue{
		PenaltyRatio:           dec("0.5"),
		RollingSeasonsAbovePeg: 24,
	}

	// At the cap the time term saturates and the penalty is fully forgiven.
	res, err := ConvertDownPenalty(v, penaltyData(), penaltySnap())
	require.NoError(t, err)
	outV := res.Value.(types.ConvertDownPenaltyValue)
	assert.True(t, outV.PenaltyRatio.IsZero(), "got %s", outV.PenaltyRatio)
}

func TestConvertDownPenaltyDecaysWithTimeAbovePeg(t *testing.T) {
	compute := func(rolling uint64) sdkmath.LegacyDec {
		v := types.ConvertDownPenaltyValue{
			PenaltyRatio:           sdkmath.LegacyZeroDec(),
			RollingSeasonsAbovePeg: rolling,
		}
		snap := penaltySnap()
		snap.TwaDeltaB = dec("-100") // hold the count where it started (minus one)
		res, err := ConvertDownPenalty(v, penaltyData(), snap)
		require.NoError(t, err)
		return res.Value.(types.ConvertDownPenaltyValue).PenaltyRatio
	}

	fresh := compute(1)   // count ends at 0
	partway := compute(13) // count ends at 12
	forgiven := compute(25) // count ends at 24 (clamped)

	assert.True(t, fresh.GT(partway), "fresh %s partway %s", fresh, partway)
	assert.True(t, partway.GT(forgiven), "partway %s forgiven %s", partway, forgiven)
	assert.True(t, forgiven.IsZero())

	// Half the liquidity bound caps the penalty at the liquidity ratio.
	assert.True(t, fresh.LTE(dec("0.5")))
	assert.True(t, fresh.IsPositive())
}

func TestConvertDownPenaltyLiquiditySentinel(t *testing.T) {
	v := types.ConvertDownPenaltyValue{
		PenaltyRatio:           dec("0.7"),
		RollingSeasonsAbovePeg: 5,
	}
	snap := penaltySnap()
	snap.TwaDeltaB = dec("-100")
	snap.LiquidityToSupplyRatio = sdkmath.LegacyZeroDec()

	res, err := ConvertDownPenalty(v, penaltyData(), snap)
	require.NoError(t, err)

	// The rolling count still moved, but the penalty held.
	outV := res.Value.(types.ConvertDownPenaltyValue)
	assert.Equal(t, uint64(4), outV.RollingSeasonsAbovePeg)
	assert.True(t, outV.PenaltyRatio.Equal(dec("0.7")))
}

func TestConvertDownPenaltyLiquidityRatioClamped(t *testing.T) {
	v := types.ConvertDownPenaltyValue{
		PenaltyRatio:           sdkmath.LegacyZeroDec(),
		RollingSeasonsAbovePeg: 0,
	}
	snap := penaltySnap()
	snap.TwaDeltaB = dec("-100")
	snap.LiquidityToSupplyRatio = dec("2.0") // far above the bound

	res, err := ConvertDownPenalty(v, penaltyData(), snap)
	require.NoError(t, err)

	outV := res.Value.(types.ConvertDownPenaltyValue)
	assert.True(t, outV.PenaltyRatio.LTE(sdkmath.LegacyOneDec()))
	assert.True(t, outV.PenaltyRatio.IsPositive())
}

func TestConvertDownPenaltyZeroCapIsFatal(t *testing.T) {
	v := types.ConvertDownPenaltyValue{PenaltyRatio: sdkmath.LegacyZeroDec()}
	d := types.ConvertDownPenaltyData{RollingRate: 1, RollingCap: 0}

	_, err := ConvertDownPenalty(v, d, penaltySnap())
	require.Error(t, err)
}

func TestConvertDownPenaltyRejectsWrongPayload(t *testing.T) {
	_, err := ConvertDownPenalty(types.CultivationFactorValue{}, penaltyData(), penaltySnap())
	require.ErrorIs(t, err, types.ErrPayloadShape)
}
