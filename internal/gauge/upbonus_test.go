package gauge

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pegfield/gauged/internal/types"
)

func upBonusData() types.ConvertUpBonusData {
	return types.ConvertUpBonusData{
		BdvConvertedThisSeason: sdkmath.LegacyZeroDec(),
		BdvConvertedLastSeason: sdkmath.LegacyZeroDec(),

		WarmupSeasons:        12,
		SeedBonusStalkPerBdv: dec("0.0002"),

		MinBonusFactor: dec("0.01"),
		MaxBonusFactor: dec("1.0"),
		BonusStepSize:  dec("0.01"),

		MinCapacityFactor: dec("0.1"),
		MaxCapacityFactor: dec("1.0"),
		MinDeltaCapacity:  dec("0.01"),
		MaxDeltaCapacity:  dec("0.05"),

		MinSeasonTarget: dec("6"),
		MaxSeasonTarget: dec("24"),

		MinDemandRatio: dec("0.95"),
		MaxDemandRatio: dec("1.05"),
	}
}

func armedUpBonusValue() types.ConvertUpBonusValue {
	return types.ConvertUpBonusValue{
		BaseBonusStalkPerBdv:  dec("0.0002"),
		ConvertBonusFactor:    dec("0.05"),
		ConvertCapacityFactor: dec("0.5"),
		MaxConvertCapacity:    dec("10"),
	}
}

func upBonusSnap(season, pegCross uint64) types.SystemSnapshot {
	return types.SystemSnapshot{
		Season:            season,
		PegCrossSeason:    pegCross,
		TwaDeltaB:         dec("-120"),
		PodRate:           dec("0.05"),
		BdvConverted:      sdkmath.LegacyZeroDec(),
		PodRateLowerBound: dec("0.05"),
		PodRateUpperBound: dec("0.25"),
	}
}

func TestConvertUpBonusResetsOnPegCross(t *testing.T) {
	v := armedUpBonusValue()
	d := upBonusData()
	d.BdvConvertedThisSeason = dec("100")

	snap := upBonusSnap(100, 100)
	snap.TwaDeltaB = dec("50") // above peg on the crossing season

	res, err := ConvertUpBonus(v, d, snap)
	require.NoError(t, err)

	outV := res.Value.(types.ConvertUpBonusValue)
	assert.True(t, outV.BaseBonusStalkPerBdv.IsZero())
	assert.True(t, outV.ConvertBonusFactor.IsZero())
	assert.True(t, outV.ConvertCapacityFactor.IsZero())
	assert.True(t, outV.MaxConvertCapacity.IsZero())

	// Counters still roll on the crossing season.
	outD := res.Data.(types.ConvertUpBonusData)
	assert.True(t, outD.BdvConvertedLastSeason.Equal(dec("100")))
	assert.True(t, outD.BdvConvertedThisSeason.IsZero())
}

func TestConvertUpBonusResetHappensOnlyOnce(t *testing.T) {
	v := armedUpBonusValue()

	snap := upBonusSnap(101, 100) // season after the crossing
	snap.TwaDeltaB = dec("50")

	res, err := ConvertUpBonus(v, upBonusData(), snap)
	require.NoError(t, err)

	// Still above peg: hold whatever the crossing season left behind.
	outV := res.Value.(types.ConvertUpBonusValue)
	assert.Equal(t, v, outV)
}

func TestConvertUpBonusWarmupFreezes(t *testing.T) {
	v := armedUpBonusValue()

	res, err := ConvertUpBonus(v, upBonusData(), upBonusSnap(105, 100)) // 5 of 12
	require.NoError(t, err)

	assert.Equal(t, v, res.Value.(types.ConvertUpBonusValue))
}

func TestConvertUpBonusSeedsAtWarmupBoundary(t *testing.T) {
	v := types.ConvertUpBonusValue{
		BaseBonusStalkPerBdv:  sdkmath.LegacyZeroDec(),
		ConvertBonusFactor:    sdkmath.LegacyZeroDec(),
		ConvertCapacityFactor: sdkmath.LegacyZeroDec(),
		MaxConvertCapacity:    sdkmath.LegacyZeroDec(),
	}
	d := upBonusData()

	res, err := ConvertUpBonus(v, d, upBonusSnap(112, 100)) // exactly 12
	require.NoError(t, err)

	outV := res.Value.(types.ConvertUpBonusValue)
	assert.True(t, outV.BaseBonusStalkPerBdv.Equal(d.SeedBonusStalkPerBdv))
	assert.True(t, outV.ConvertBonusFactor.Equal(d.MinBonusFactor))
	assert.True(t, outV.ConvertCapacityFactor.Equal(d.MaxCapacityFactor))

	// Pod rate at its lower bound maps to the slowest target, 24 seasons:
	// |deltaB| * capacityFactor / target = 120 * 1.0 / 24 = 5
	assert.True(t, outV.MaxConvertCapacity.Equal(dec("5")), "got %s", outV.MaxConvertCapacity)
}

func TestConvertUpBonusDemandIncreasing(t *testing.T) {
	v := armedUpBonusValue()
	d := upBonusData()
	d.BdvConvertedThisSeason = dec("110")
	d.BdvConvertedLastSeason = dec("100") // ratio 1.1 >= 1.05

	res, err := ConvertUpBonus(v, d, upBonusSnap(113, 100))
	require.NoError(t, err)

	// Hot demand: pay less per BDV, allow more volume.
	outV := res.Value.(types.ConvertUpBonusValue)
	assert.True(t, outV.ConvertBonusFactor.Equal(dec("0.04")), "got %s", outV.ConvertBonusFactor)
	assert.True(t, outV.ConvertCapacityFactor.Equal(dec("0.51")), "got %s", outV.ConvertCapacityFactor)
}

func TestConvertUpBonusDemandDecreasing(t *testing.T) {
	v := armedUpBonusValue()
	d := upBonusData()
	d.BdvConvertedThisSeason = dec("50")
	d.BdvConvertedLastSeason = dec("100") // ratio 0.5 < 0.95

	res, err := ConvertUpBonus(v, d, upBonusSnap(113, 100))
	require.NoError(t, err)

	outV := res.Value.(types.ConvertUpBonusValue)
	assert.True(t, outV.ConvertBonusFactor.Equal(dec("0.06")), "got %s", outV.ConvertBonusFactor)
	assert.True(t, outV.ConvertCapacityFactor.Equal(dec("0.49")), "got %s", outV.ConvertCapacityFactor)
}

func TestConvertUpBonusDemandSteadyHoldsFactors(t *testing.T) {
	v := armedUpBonusValue()
	d := upBonusData()
	d.BdvConvertedThisSeason = dec("100")
	d.BdvConvertedLastSeason = dec("100") // ratio 1.0, inside the band

	res, err := ConvertUpBonus(v, d, upBonusSnap(113, 100))
	require.NoError(t, err)

	outV := res.Value.(types.ConvertUpBonusValue)
	assert.True(t, outV.ConvertBonusFactor.Equal(v.ConvertBonusFactor))
	assert.True(t, outV.ConvertCapacityFactor.Equal(v.ConvertCapacityFactor))

	// The capacity target still recomputes every armed season:
	// 120 * 0.5 / 24 = 2.5
	assert.True(t, outV.MaxConvertCapacity.Equal(dec("2.5")), "got %s", outV.MaxConvertCapacity)
}

func TestConvertUpBonusZeroVolumeCountsAsDecreasing(t *testing.T) {
	v := armedUpBonusValue()
	d := upBonusData() // both counters zero

	res, err := ConvertUpBonus(v, d, upBonusSnap(113, 100))
	require.NoError(t, err)

	outV := res.Value.(types.ConvertUpBonusValue)
	assert.True(t, outV.ConvertBonusFactor.Equal(dec("0.06")), "got %s", outV.ConvertBonusFactor)
}

func TestConvertUpBonusFirstVolumeCountsAsIncreasing(t *testing.T) {
	v := armedUpBonusValue()
	d := upBonusData()
	d.BdvConvertedThisSeason = dec("10") // last season had none

	res, err := ConvertUpBonus(v, d, upBonusSnap(113, 100))
	require.NoError(t, err)

	outV := res.Value.(types.ConvertUpBonusValue)
	assert.True(t, outV.ConvertBonusFactor.Equal(dec("0.04")), "got %s", outV.ConvertBonusFactor)
}

func TestConvertUpBonusObservedVolumeDrivesDemand(t *testing.T) {
	v := armedUpBonusValue()
	d := upBonusData() // counters start empty

	step := func(season uint64, volume string) {
		snap := upBonusSnap(season, 100)
		snap.BdvConverted = dec(volume)
		res, err := ConvertUpBonus(v, d, snap)
		require.NoError(t, err)
		v = res.Value.(types.ConvertUpBonusValue)
		d = res.Data.(types.ConvertUpBonusData)
	}

	// First observed volume against an empty prior season reads as demand
	// appearing: the bonus factor steps down.
	step(113, "100")
	assert.True(t, v.ConvertBonusFactor.Equal(dec("0.04")), "got %s", v.ConvertBonusFactor)
	assert.True(t, d.BdvConvertedLastSeason.Equal(dec("100")))
	assert.True(t, d.BdvConvertedThisSeason.IsZero())

	// Volume grew 1.2x: still increasing, another step down.
	step(114, "120")
	assert.True(t, v.ConvertBonusFactor.Equal(dec("0.03")), "got %s", v.ConvertBonusFactor)
	assert.True(t, d.BdvConvertedLastSeason.Equal(dec("120")))

	// Volume collapsed below the lower demand bound: the factor steps back
	// up. The classifier is fed purely by observed telemetry.
	step(115, "50")
	assert.True(t, v.ConvertBonusFactor.Equal(dec("0.04")), "got %s", v.ConvertBonusFactor)
	assert.True(t, d.BdvConvertedLastSeason.Equal(dec("50")))
}

func TestConvertUpBonusZeroSeasonTargetIsFatal(t *testing.T) {
	d := upBonusData()
	d.MinSeasonTarget = sdkmath.LegacyZeroDec()
	d.MaxSeasonTarget = sdkmath.LegacyZeroDec()

	_, err := ConvertUpBonus(armedUpBonusValue(), d, upBonusSnap(113, 100))
	require.Error(t, err)
}

func TestConvertUpBonusRejectsWrongPayload(t *testing.T) {
	_, err := ConvertUpBonus(types.CultivationFactorValue{}, upBonusData(), upBonusSnap(113, 100))
	require.ErrorIs(t, err, types.ErrPayloadShape)
}
