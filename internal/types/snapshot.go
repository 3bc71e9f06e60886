package types

import (
	"encoding/json"
	"time"

	sdkmath "cosmossdk.io/math"
)

// SoilDemandState classifies how quickly this season's soil was consumed.
// It is derived by the evaluator from the last-sow-time sentinel.
type SoilDemandState string

const (
	SoilSoldOut       SoilDemandState = "sold_out"
	SoilMostlySoldOut SoilDemandState = "mostly_sold_out"
	SoilNotSoldOut    SoilDemandState = "not_sold_out"
)

// SystemSnapshot is the read-only telemetry bundle handed to every gauge
// transition within a season. All ratios are non-negative;
// LiquidityToSupplyRatio of zero is the "could not be computed" sentinel.
type SystemSnapshot struct {
	Season         uint64 `json:"season"`
	PegCrossSeason uint64 `json:"peg_cross_season"`

	// TwaPrice is the time-weighted credit-asset price in peg units
	// (1.0 == peg). Clamped non-negative; zero means unavailable.
	TwaPrice sdkmath.LegacyDec `json:"twa_price"`
	// TwaDeltaB is the signed time-weighted imbalance versus peg.
	TwaDeltaB sdkmath.LegacyDec `json:"twa_delta_b"`

	PodRate                sdkmath.LegacyDec `json:"pod_rate"`
	DeltaPodDemand         sdkmath.LegacyDec `json:"delta_pod_demand"`
	LiquidityToSupplyRatio sdkmath.LegacyDec `json:"liquidity_to_supply_ratio"`

	// BdvConverted is the BDV volume upward-converted during the season that
	// just ended. Clamped non-negative.
	BdvConverted sdkmath.LegacyDec `json:"bdv_converted"`

	// Temperature is the credit-issuance interest rate observed this season,
	// as a fraction (1.0 == 100%).
	Temperature sdkmath.LegacyDec `json:"temperature"`
	Soil        SoilDemandState   `json:"soil"`

	PodRateLowerBound         sdkmath.LegacyDec `json:"pod_rate_lower_bound"`
	PodRateUpperBound         sdkmath.LegacyDec `json:"pod_rate_upper_bound"`
	LpToSupplyRatioLowerBound sdkmath.LegacyDec `json:"lp_to_supply_ratio_lower_bound"`
	LpToSupplyRatioUpperBound sdkmath.LegacyDec `json:"lp_to_supply_ratio_upper_bound"`
	DeltaPodDemandLowerBound  sdkmath.LegacyDec `json:"delta_pod_demand_lower_bound"`
}

// AbovePeg reports whether the snapshot's imbalance sign counts as above peg.
// Zero imbalance counts as above peg.
func (s SystemSnapshot) AbovePeg() bool {
	return !s.TwaDeltaB.IsNegative()
}

// GaugeCommit is the serialized outcome of one gauge transition, kept for
// the season audit trail.
type GaugeCommit struct {
	ID    GaugeID         `json:"id"`
	Value json.RawMessage `json:"value"`
	Data  json.RawMessage `json:"data"`
}

// SeasonRecord is the persisted outcome of one season sweep: the snapshot
// the gauges saw and the payloads that were (or would have been) committed.
type SeasonRecord struct {
	RecordID  int64          `json:"record_id"`
	Season    uint64         `json:"season"`
	SweepID   string         `json:"sweep_id"`
	Timestamp time.Time      `json:"timestamp"`
	Snapshot  SystemSnapshot `json:"snapshot"`
	Committed bool           `json:"committed"`
	Commits   []GaugeCommit  `json:"commits"`
}
