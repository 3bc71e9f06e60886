package gauge

import (
	sdkmath "cosmossdk.io/math"

	"github.com/pegfield/gauged/internal/types"
)

// Transition references. A gauge stores one of these alongside its state;
// the registry resolves the reference to the function below at dispatch
// time, so swapping a gauge's implementation is a data change.
const (
	CultivationFactorRef  = "gauge/cultivation_factor/v2"
	ConvertDownPenaltyRef = "gauge/convert_down_penalty/v1"
	ConvertUpBonusRef     = "gauge/convert_up_bonus/v3"
)

// Result is the outcome of one transition: the next value and data payloads.
// Both are always populated; an unchanged gauge returns its inputs.
type Result struct {
	Value types.GaugePayload
	Data  types.GaugePayload
}

// TransitionFunc advances a gauge one season. Implementations are pure:
// they never touch storage, never block, and fail only on contract
// violations (which abort the season's commit).
type TransitionFunc func(value, data types.GaugePayload, snap types.SystemSnapshot) (Result, error)

// Transitions maps every known transition reference to its implementation.
// The registry seeds its capability table from this map.
var Transitions = map[string]TransitionFunc{
	CultivationFactorRef:  CultivationFactor,
	ConvertDownPenaltyRef: ConvertDownPenalty,
	ConvertUpBonusRef:     ConvertUpBonus,
}

// priceCeiling caps the price multiplier at peg so a price spike cannot
// amplify a step beyond its configured delta.
var priceCeiling = sdkmath.LegacyOneDec()
