/*

This file contains the gauge data model: gauge identifiers, the persisted
gauge record, and the per-gauge payload variants.

Payloads are a closed tagged union keyed by GaugeID. Each gauge's value and
data are concrete structs, so a transition function that receives the wrong
shape fails with ErrPayloadShape instead of silently misreading fields.

*/

package types

import (
	"encoding/json"
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"
)

// GaugeID identifies a gauge in the registry. IDs are stable across upgrades
// and double as storage keys.
type GaugeID string

const (
	GaugeCultivationFactor  GaugeID = "cultivation_factor"
	GaugeConvertDownPenalty GaugeID = "convert_down_penalty"
	GaugeConvertUpBonus     GaugeID = "convert_up_bonus"

	// GaugeLiquidityWeightPrefix keys the per-pool liquidity-weight family;
	// those gauges register dynamically, one per whitelisted pool.
	GaugeLiquidityWeightPrefix = "liquidity_weight/"
)

// LiquidityWeightGaugeID returns the registry key for one pool's
// liquidity-weight gauge.
func LiquidityWeightGaugeID(pool string) GaugeID {
	return GaugeID(GaugeLiquidityWeightPrefix + pool)
}

var (
	ErrPayloadShape   = errors.New("gauge payload has unexpected shape")
	ErrUnknownGaugeID = errors.New("unknown gauge id")
)

// ActiveGaugeIDs is the sweep order. Deterministic ordering keeps season
// commits and their audit rows reproducible.
var ActiveGaugeIDs = []GaugeID{
	GaugeCultivationFactor,
	GaugeConvertDownPenalty,
	GaugeConvertUpBonus,
}

// GaugePayload is the closed union of per-gauge value and data records.
type GaugePayload interface {
	isGaugePayload()
}

// Gauge is one registered control loop: its committed value, its
// configuration, and a reference to the transition capability that computes
// the next state. The registry owns all gauges; no gauge references another.
type Gauge struct {
	ID            GaugeID      `json:"id"`
	Value         GaugePayload `json:"value"`
	Data          GaugePayload `json:"data"`
	TransitionRef string       `json:"transition_ref"`
	LastSeason    uint64       `json:"last_season"`
}

// --- Cultivation factor ---

// CultivationFactorValue is the committed factor, a fraction where 1.0 means
// 100%.
type CultivationFactorValue struct {
	Factor sdkmath.LegacyDec `json:"factor"`
}

// CultivationFactorData configures the factor's step sizes and bounds and
// tracks the temperature pair used to gate downward adjustment.
type CultivationFactorData struct {
	MinDelta  sdkmath.LegacyDec `json:"min_delta"`
	MaxDelta  sdkmath.LegacyDec `json:"max_delta"`
	MinFactor sdkmath.LegacyDec `json:"min_factor"`
	MaxFactor sdkmath.LegacyDec `json:"max_factor"`

	// CultivationTemp is the comparison temperature, frozen from
	// PrevSeasonTemp while soil is selling out and demand is not decreasing.
	CultivationTemp sdkmath.LegacyDec `json:"cultivation_temp"`
	// PrevSeasonTemp is the temperature observed one season ago.
	PrevSeasonTemp sdkmath.LegacyDec `json:"prev_season_temp"`
}

// --- Convert-down penalty ---

// ConvertDownPenaltyValue holds the penalty ratio applied to grown yield on
// below-peg redemptions and the rolling count of consecutive-ish seasons
// spent above peg.
type ConvertDownPenaltyValue struct {
	PenaltyRatio           sdkmath.LegacyDec `json:"penalty_ratio"`
	RollingSeasonsAbovePeg uint64            `json:"rolling_seasons_above_peg"`
}

// ConvertDownPenaltyData configures how fast the rolling count moves and
// where it saturates.
type ConvertDownPenaltyData struct {
	RollingRate uint64 `json:"rolling_rate"`
	RollingCap  uint64 `json:"rolling_cap"`
}

// --- Convert-up bonus ---

// ConvertUpBonusValue tracks the four bonus factors. All four are zeroed on
// the season the peg is crossed from below.
type ConvertUpBonusValue struct {
	BaseBonusStalkPerBdv  sdkmath.LegacyDec `json:"base_bonus_stalk_per_bdv"`
	ConvertBonusFactor    sdkmath.LegacyDec `json:"convert_bonus_factor"`
	ConvertCapacityFactor sdkmath.LegacyDec `json:"convert_capacity_factor"`
	MaxConvertCapacity    sdkmath.LegacyDec `json:"max_convert_capacity"`
}

// ConvertUpBonusData carries the per-season converted-volume counters and
// the configuration for warm-up, demand classification, and factor stepping.
type ConvertUpBonusData struct {
	BdvConvertedThisSeason sdkmath.LegacyDec `json:"bdv_converted_this_season"`
	BdvConvertedLastSeason sdkmath.LegacyDec `json:"bdv_converted_last_season"`

	// WarmupSeasons is the minimum number of below-peg seasons before the
	// bonus activates.
	WarmupSeasons uint64 `json:"warmup_seasons"`

	// SeedBonusStalkPerBdv seeds BaseBonusStalkPerBdv when the warm-up
	// boundary is reached.
	SeedBonusStalkPerBdv sdkmath.LegacyDec `json:"seed_bonus_stalk_per_bdv"`

	MinBonusFactor sdkmath.LegacyDec `json:"min_bonus_factor"`
	MaxBonusFactor sdkmath.LegacyDec `json:"max_bonus_factor"`
	BonusStepSize  sdkmath.LegacyDec `json:"bonus_step_size"`

	MinCapacityFactor sdkmath.LegacyDec `json:"min_capacity_factor"`
	MaxCapacityFactor sdkmath.LegacyDec `json:"max_capacity_factor"`
	MinDeltaCapacity  sdkmath.LegacyDec `json:"min_delta_capacity"`
	MaxDeltaCapacity  sdkmath.LegacyDec `json:"max_delta_capacity"`

	MinSeasonTarget sdkmath.LegacyDec `json:"min_season_target"`
	MaxSeasonTarget sdkmath.LegacyDec `json:"max_season_target"`

	// Demand-trend bounds for the this-season / last-season volume ratio.
	MinDemandRatio sdkmath.LegacyDec `json:"min_demand_ratio"`
	MaxDemandRatio sdkmath.LegacyDec `json:"max_demand_ratio"`
}

func (CultivationFactorValue) isGaugePayload()  {}
func (CultivationFactorData) isGaugePayload()   {}
func (ConvertDownPenaltyValue) isGaugePayload() {}
func (ConvertDownPenaltyData) isGaugePayload()  {}
func (ConvertUpBonusValue) isGaugePayload()     {}
func (ConvertUpBonusData) isGaugePayload()      {}

// EncodePayload serializes a payload for storage.
func EncodePayload(p GaugePayload) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: nil payload", ErrPayloadShape)
	}
	return json.Marshal(p)
}

// DecodeValue decodes a stored value payload for the given gauge.
func DecodeValue(id GaugeID, raw []byte) (GaugePayload, error) {
	switch id {
	case GaugeCultivationFactor:
		var v CultivationFactorValue
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decode %s value: %w", id, err)
		}
		return v, nil
	case GaugeConvertDownPenalty:
		var v ConvertDownPenaltyValue
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decode %s value: %w", id, err)
		}
		return v, nil
	case GaugeConvertUpBonus:
		var v ConvertUpBonusValue
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decode %s value: %w", id, err)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownGaugeID, id)
	}
}

// DecodeData decodes a stored data payload for the given gauge.
func DecodeData(id GaugeID, raw []byte) (GaugePayload, error) {
	switch id {
	case GaugeCultivationFactor:
		var d CultivationFactorData
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, fmt.Errorf("decode %s data: %w", id, err)
		}
		return d, nil
	case GaugeConvertDownPenalty:
		var d ConvertDownPenaltyData
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, fmt.Errorf("decode %s data: %w", id, err)
		}
		return d, nil
	case GaugeConvertUpBonus:
		var d ConvertUpBonusData
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, fmt.Errorf("decode %s data: %w", id, err)
		}
		return d, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownGaugeID, id)
	}
}
