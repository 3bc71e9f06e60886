/*

This file contains the default gauge seeds and evaluation bounds for the
engine.

These values are designed for a protocol whose peg incentives move real
capital every season. Each value balances responsiveness against the risk of
creating exploitable discontinuities between consecutive seasons.

*/

package config

import (
	sdkmath "cosmossdk.io/math"

	"github.com/pegfield/gauged/internal/gauge"
	"github.com/pegfield/gauged/internal/types"
)

// EvaluationBounds are the configured clamp bounds carried on every system
// snapshot. Gauges interpolate against these, never against raw telemetry.
type EvaluationBounds struct {
	PodRateLowerBound         sdkmath.LegacyDec
	PodRateUpperBound         sdkmath.LegacyDec
	LpToSupplyRatioLowerBound sdkmath.LegacyDec
	LpToSupplyRatioUpperBound sdkmath.LegacyDec
	DeltaPodDemandLowerBound  sdkmath.LegacyDec
}

// DefaultEvaluationBounds provides the baseline clamp bounds.
var DefaultEvaluationBounds = EvaluationBounds{
	PodRateLowerBound: sdkmath.LegacyNewDecWithPrec(5, 2), // 5%
	// Rationale: below a 5% pod rate the credit line is short enough that
	// issuance incentives should move at full step size.

	PodRateUpperBound: sdkmath.LegacyNewDecWithPrec(25, 2), // 25%
	// Rationale: past 25% the protocol is heavily indebted; step sizes are
	// already at their configured extreme and further debt changes nothing.

	LpToSupplyRatioLowerBound: sdkmath.LegacyNewDecWithPrec(12, 2), // 12%
	LpToSupplyRatioUpperBound: sdkmath.LegacyNewDecWithPrec(80, 2), // 80%
	// Rationale: 80% liquidity-to-supply is treated as fully healthy; the
	// down-penalty saturates there rather than rewarding excess liquidity.

	DeltaPodDemandLowerBound: sdkmath.LegacyNewDecWithPrec(95, 2), // 0.95
	// Rationale: demand is "decreasing" only when this season's sowing runs
	// below 95% of last season's. The 5% dead band absorbs ordinary noise.
}

// DefaultGauges returns the initial registry contents used when the state
// store is empty (first boot or post-reset).
func DefaultGauges() []types.Gauge {
	return []types.Gauge{
		{
			ID:            types.GaugeCultivationFactor,
			TransitionRef: gauge.CultivationFactorRef,
			Value: types.CultivationFactorValue{
				Factor: sdkmath.LegacyNewDecWithPrec(50, 2), // 50%
				// Rationale: start in the middle of the range so the first
				// seasons of feedback can move in either direction.
			},
			Data: types.CultivationFactorData{
				MinDelta: sdkmath.LegacyNewDecWithPrec(5, 3), // 0.5% per season
				MaxDelta: sdkmath.LegacyNewDecWithPrec(2, 2), // 2% per season
				// Rationale: a 2% ceiling keeps the factor from moving more
				// than a few percent across any plausible run of seasons,
				// closing the door on single-season arbitrage of the factor.

				MinFactor: sdkmath.LegacyNewDecWithPrec(1, 3), // 0.1%
				MaxFactor: sdkmath.LegacyOneDec(),             // 100%

				CultivationTemp: sdkmath.LegacyOneDec(),
				PrevSeasonTemp:  sdkmath.LegacyOneDec(),
			},
		},
		{
			ID:            types.GaugeConvertDownPenalty,
			TransitionRef: gauge.ConvertDownPenaltyRef,
			Value: types.ConvertDownPenaltyValue{
				PenaltyRatio:           sdkmath.LegacyZeroDec(),
				RollingSeasonsAbovePeg: 0,
			},
			Data: types.ConvertDownPenaltyData{
				RollingRate: 1,
				RollingCap:  24,
				// Rationale: a full day of hourly seasons above peg fully
				// forgives the penalty; the base-2 decay makes the last few
				// seasons before the cap nearly free.
			},
		},
		{
			ID:            types.GaugeConvertUpBonus,
			TransitionRef: gauge.ConvertUpBonusRef,
			Value: types.ConvertUpBonusValue{
				BaseBonusStalkPerBdv:  sdkmath.LegacyZeroDec(),
				ConvertBonusFactor:    sdkmath.LegacyZeroDec(),
				ConvertCapacityFactor: sdkmath.LegacyZeroDec(),
				MaxConvertCapacity:    sdkmath.LegacyZeroDec(),
			},
			Data: types.ConvertUpBonusData{
				BdvConvertedThisSeason: sdkmath.LegacyZeroDec(),
				BdvConvertedLastSeason: sdkmath.LegacyZeroDec(),

				WarmupSeasons: 12,
				// Rationale: half a day below peg before paying anyone to
				// convert up. Shorter warm-ups let round-trip converters
				// farm the bonus across routine peg wobble.

				SeedBonusStalkPerBdv: sdkmath.LegacyNewDecWithPrec(2, 4), // 0.0002
				MinBonusFactor:       sdkmath.LegacyNewDecWithPrec(1, 2), // 1%
				MaxBonusFactor:       sdkmath.LegacyOneDec(),
				BonusStepSize:        sdkmath.LegacyNewDecWithPrec(1, 2), // 1% per season

				MinCapacityFactor: sdkmath.LegacyNewDecWithPrec(10, 2), // 10%
				MaxCapacityFactor: sdkmath.LegacyOneDec(),
				MinDeltaCapacity:  sdkmath.LegacyNewDecWithPrec(1, 2), // 1% per season
				MaxDeltaCapacity:  sdkmath.LegacyNewDecWithPrec(5, 2), // 5% per season

				MinSeasonTarget: sdkmath.LegacyNewDec(6),
				MaxSeasonTarget: sdkmath.LegacyNewDec(24),
				// Rationale: at a high pod rate the peg deficit should clear
				// within ~6 seasons; with little debt, a full day is fine.

				MinDemandRatio: sdkmath.LegacyNewDecWithPrec(95, 2),  // 0.95
				MaxDemandRatio: sdkmath.LegacyNewDecWithPrec(105, 2), // 1.05
			},
		},
	}
}
