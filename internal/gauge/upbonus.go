/*

Convert-up bonus gauge.

Pays extra grown yield for arbitrage-correcting upward conversions while the
price sits below peg. Activation is gated on the peg crossing: crossing back
above peg zeroes every bonus factor on that exact season, and a fresh
below-peg stretch must survive a warm-up period before the bonus re-arms.
Once armed, demand for the bonus is classified from the ratio of converted
volume this season versus last (volume arrives on the season snapshot and
accumulates into the gauge's counters), and the bonus and capacity factors
step in opposite directions so a hot market pays less per BDV but allows
more of it.

*/

package gauge

import (
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/pegfield/gauged/internal/types"
)

type demandTrend int

const (
	demandDecreasing demandTrend = iota
	demandSteady
	demandIncreasing
)

// ConvertUpBonus advances the up-bonus gauge one season.
func ConvertUpBonus(value, data types.GaugePayload, snap types.SystemSnapshot) (Result, error) {
	v, ok := value.(types.ConvertUpBonusValue)
	if !ok {
		return Result{}, fmt.Errorf("%w: convert-up bonus value is %T", types.ErrPayloadShape, value)
	}
	d, ok := data.(types.ConvertUpBonusData)
	if !ok {
		return Result{}, fmt.Errorf("%w: convert-up bonus data is %T", types.ErrPayloadShape, data)
	}

	// Fold the volume the snapshot observed for the season just ended into
	// the running counter, then roll the pair. A snapshot without volume
	// telemetry adds nothing.
	thisVol := d.BdvConvertedThisSeason
	if !snap.BdvConverted.IsNil() {
		thisVol = thisVol.Add(snap.BdvConverted)
	}
	next := d
	next.BdvConvertedLastSeason = thisVol
	next.BdvConvertedThisSeason = sdkmath.LegacyZeroDec()

	if snap.AbovePeg() {
		// Hysteresis reset: zero everything once, on the crossing season.
		if snap.Season == snap.PegCrossSeason {
			v = types.ConvertUpBonusValue{
				BaseBonusStalkPerBdv:  sdkmath.LegacyZeroDec(),
				ConvertBonusFactor:    sdkmath.LegacyZeroDec(),
				ConvertCapacityFactor: sdkmath.LegacyZeroDec(),
				MaxConvertCapacity:    sdkmath.LegacyZeroDec(),
			}
		}
		return Result{Value: v, Data: next}, nil
	}

	seasonsBelowPeg := snap.Season - snap.PegCrossSeason
	if seasonsBelowPeg < d.WarmupSeasons {
		// Still warming up: freeze the factors.
		return Result{Value: v, Data: next}, nil
	}

	if seasonsBelowPeg == d.WarmupSeasons {
		// Seed the control loop: cheapest bonus, widest capacity.
		v.BaseBonusStalkPerBdv = d.SeedBonusStalkPerBdv
		v.ConvertBonusFactor = d.MinBonusFactor
		v.ConvertCapacityFactor = d.MaxCapacityFactor
	} else {
		trend := classifyDemand(thisVol, d.BdvConvertedLastSeason, d)

		capacityDelta, err := Interpolate(snap.PodRate, true,
			snap.PodRateLowerBound, snap.PodRateUpperBound, d.MinDeltaCapacity, d.MaxDeltaCapacity)
		if err != nil {
			return Result{}, fmt.Errorf("convert-up bonus capacity delta: %w", err)
		}

		// The two factors always move in opposite directions, each by its
		// own delta within its own bounds.
		switch trend {
		case demandIncreasing:
			v.ConvertBonusFactor = BoundedStep(v.ConvertBonusFactor, false,
				d.BonusStepSize, d.MinBonusFactor, d.MaxBonusFactor)
			v.ConvertCapacityFactor = BoundedStep(v.ConvertCapacityFactor, true,
				capacityDelta, d.MinCapacityFactor, d.MaxCapacityFactor)
		case demandDecreasing:
			v.ConvertBonusFactor = BoundedStep(v.ConvertBonusFactor, true,
				d.BonusStepSize, d.MinBonusFactor, d.MaxBonusFactor)
			v.ConvertCapacityFactor = BoundedStep(v.ConvertCapacityFactor, false,
				capacityDelta, d.MinCapacityFactor, d.MaxCapacityFactor)
		}
	}

	// Higher pod rate means the deficit should be worked off over fewer
	// seasons, so the per-season capacity grows.
	targetSeasons, err := Interpolate(snap.PodRate, false,
		snap.PodRateLowerBound, snap.PodRateUpperBound, d.MinSeasonTarget, d.MaxSeasonTarget)
	if err != nil {
		return Result{}, fmt.Errorf("convert-up bonus season target: %w", err)
	}
	if targetSeasons.IsZero() {
		return Result{}, fmt.Errorf("convert-up bonus: season target interpolated to zero")
	}
	v.MaxConvertCapacity = snap.TwaDeltaB.Abs().
		MulTruncate(v.ConvertCapacityFactor).QuoTruncate(targetSeasons)

	return Result{Value: v, Data: next}, nil
}

// classifyDemand compares the volume converted in the season just ended
// against the season before.
func classifyDemand(thisVol, lastVol sdkmath.LegacyDec, d types.ConvertUpBonusData) demandTrend {
	if lastVol.IsZero() {
		if thisVol.IsZero() {
			return demandDecreasing
		}
		return demandIncreasing
	}

	ratio := thisVol.QuoTruncate(lastVol)
	switch {
	case ratio.GTE(d.MaxDemandRatio):
		return demandIncreasing
	case ratio.LT(d.MinDemandRatio):
		return demandDecreasing
	default:
		return demandSteady
	}
}
