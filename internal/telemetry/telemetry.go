/*

Package telemetry turns raw protocol observations into the evaluated system
snapshot the gauges consume. The evaluator owns every normalization rule:
price clamping, the liquidity-ratio sentinel, and soil demand classification.
Gauges never see raw indexer data.

*/

package telemetry

import (
	"time"

	sdkmath "cosmossdk.io/math"

	"github.com/pegfield/gauged/internal/config"
	"github.com/pegfield/gauged/internal/logger"
	"github.com/pegfield/gauged/internal/types"
)

// Observation is one raw telemetry row as written by the protocol indexer.
// Nothing here is clamped or validated yet.
type Observation struct {
	Season         uint64
	ObservedAt     time.Time
	TwaPrice       sdkmath.LegacyDec
	TwaDeltaB      sdkmath.LegacyDec
	PodRate        sdkmath.LegacyDec
	DeltaPodDemand sdkmath.LegacyDec
	PoolLiquidity  sdkmath.LegacyDec
	CreditSupply   sdkmath.LegacyDec
	Temperature    sdkmath.LegacyDec
	// BdvConverted is the BDV volume upward-converted during the season
	// that just ended.
	BdvConverted sdkmath.LegacyDec
	// LastSowSeconds is how far into the season the last sow landed.
	// Negative means no sow was observed.
	LastSowSeconds int64
}

// Source provides the latest raw observation. The production implementation
// reads the indexer's Postgres tables; tests substitute fixtures.
type Source interface {
	Latest() (Observation, error)
}

// Evaluator converts raw observations into evaluated snapshots using the
// configured clamp bounds and soil demand windows.
type Evaluator struct {
	bounds config.EvaluationBounds

	soldOutWindow       time.Duration
	mostlySoldOutWindow time.Duration
}

// NewEvaluator builds an evaluator from the loaded configuration.
func NewEvaluator(bounds config.EvaluationBounds) *Evaluator {
	return &Evaluator{
		bounds:              bounds,
		soldOutWindow:       config.SoilSoldOutWindow,
		mostlySoldOutWindow: config.SoilMostlySoldOutWindow,
	}
}

// Evaluate normalizes a raw observation into the snapshot handed to every
// gauge this season. Season and PegCrossSeason are stamped by the engine,
// not here.
func (e *Evaluator) Evaluate(obs Observation) types.SystemSnapshot {
	componentLog := logger.GetForComponent("telemetry_evaluator")

	price := obs.TwaPrice
	if price.IsNegative() {
		componentLog.Warn().
			Str("twa_price", price.String()).
			Msg("Negative TWA price observed, clamping to zero")
		price = sdkmath.LegacyZeroDec()
	}

	podRate := obs.PodRate
	if podRate.IsNegative() {
		podRate = sdkmath.LegacyZeroDec()
	}

	demand := obs.DeltaPodDemand
	if demand.IsNegative() {
		demand = sdkmath.LegacyZeroDec()
	}

	converted := obs.BdvConverted
	if converted.IsNil() || converted.IsNegative() {
		converted = sdkmath.LegacyZeroDec()
	}

	return types.SystemSnapshot{
		TwaPrice:               price,
		TwaDeltaB:              obs.TwaDeltaB,
		PodRate:                podRate,
		DeltaPodDemand:         demand,
		LiquidityToSupplyRatio: e.liquidityRatio(obs),
		BdvConverted:           converted,
		Temperature:            obs.Temperature,
		Soil:                   e.classifySoil(obs.LastSowSeconds),

		PodRateLowerBound:         e.bounds.PodRateLowerBound,
		PodRateUpperBound:         e.bounds.PodRateUpperBound,
		LpToSupplyRatioLowerBound: e.bounds.LpToSupplyRatioLowerBound,
		LpToSupplyRatioUpperBound: e.bounds.LpToSupplyRatioUpperBound,
		DeltaPodDemandLowerBound:  e.bounds.DeltaPodDemandLowerBound,
	}
}

// liquidityRatio computes pool liquidity over credit supply. Zero is the
// "could not be computed" sentinel: returned when the supply is zero or
// either input is negative. Gauges that depend on the ratio skip their
// update when they see it.
func (e *Evaluator) liquidityRatio(obs Observation) sdkmath.LegacyDec {
	if obs.CreditSupply.IsNil() || !obs.CreditSupply.IsPositive() {
		return sdkmath.LegacyZeroDec()
	}
	if obs.PoolLiquidity.IsNil() || obs.PoolLiquidity.IsNegative() {
		return sdkmath.LegacyZeroDec()
	}
	return obs.PoolLiquidity.QuoTruncate(obs.CreditSupply)
}

// classifySoil buckets the last-sow offset into a demand state. A negative
// offset means no sow happened, so soil did not sell out.
func (e *Evaluator) classifySoil(lastSowSeconds int64) types.SoilDemandState {
	if lastSowSeconds < 0 {
		return types.SoilNotSoldOut
	}
	offset := time.Duration(lastSowSeconds) * time.Second
	switch {
	case offset <= e.soldOutWindow:
		return types.SoilSoldOut
	case offset <= e.mostlySoldOutWindow:
		return types.SoilMostlySoldOut
	default:
		return types.SoilNotSoldOut
	}
}
