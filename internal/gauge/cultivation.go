/*

Cultivation factor gauge.

The factor is the discount/incentive applied to credit issued below peg.
It ratchets up while soil keeps selling out, holds in the mostly-sold-out
dead zone, and decays asymmetrically (by the inverted magnitude) once soil
stops selling and sowing demand has fallen off. The temperature pair in the
gauge data decides whether a demand drop is "real": the comparison
temperature is frozen from the previous season's temperature while soil is
at least mostly sold out and demand is not decreasing, so a later sow at a
lower temperature registers as softening demand.

*/

package gauge

import (
	"fmt"

	"github.com/pegfield/gauged/internal/types"
)

// CultivationFactor advances the cultivation factor one season.
func CultivationFactor(value, data types.GaugePayload, snap types.SystemSnapshot) (Result, error) {
	v, ok := value.(types.CultivationFactorValue)
	if !ok {
		return Result{}, fmt.Errorf("%w: cultivation factor value is %T", types.ErrPayloadShape, value)
	}
	d, ok := data.(types.CultivationFactorData)
	if !ok {
		return Result{}, fmt.Errorf("%w: cultivation factor data is %T", types.ErrPayloadShape, data)
	}

	// No price telemetry: nothing can be scaled safely this season.
	if snap.TwaPrice.IsZero() {
		return Result{Value: v, Data: d}, nil
	}

	price := snap.TwaPrice
	if price.GT(priceCeiling) {
		price = priceCeiling
	}

	// Higher pod rate means the credit line is already long, so steps shrink.
	magnitude, err := Interpolate(snap.PodRate, false,
		snap.PodRateLowerBound, snap.PodRateUpperBound, d.MinDelta, d.MaxDelta)
	if err != nil {
		return Result{}, fmt.Errorf("cultivation factor magnitude: %w", err)
	}
	magnitude = magnitude.MulTruncate(price).QuoTruncate(priceCeiling)

	demandDecreasing := snap.DeltaPodDemand.LT(snap.DeltaPodDemandLowerBound)

	// next carries the refreshed temperature pair; comparisons above always
	// use the persisted (pre-refresh) values.
	next := d
	next.PrevSeasonTemp = snap.Temperature

	switch snap.Soil {
	case types.SoilSoldOut:
		if !demandDecreasing {
			next.CultivationTemp = d.PrevSeasonTemp
		}
		v.Factor = BoundedStep(v.Factor, true, magnitude, d.MinFactor, d.MaxFactor)
		return Result{Value: v, Data: next}, nil

	case types.SoilMostlySoldOut:
		if !demandDecreasing {
			next.CultivationTemp = d.PrevSeasonTemp
			return Result{Value: v, Data: next}, nil
		}
		// Dead zone: hold everything to avoid oscillation at the boundary.
		return Result{Value: v, Data: d}, nil

	default:
		if demandDecreasing && d.PrevSeasonTemp.LT(d.CultivationTemp) {
			inverted, err := Inverse(magnitude)
			if err != nil {
				return Result{}, fmt.Errorf("cultivation factor decay: %w", err)
			}
			v.Factor = BoundedStep(v.Factor, false, inverted, d.MinFactor, d.MaxFactor)
		}
		return Result{Value: v, Data: next}, nil
	}
}
