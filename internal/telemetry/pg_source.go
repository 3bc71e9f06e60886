// ./internal/telemetry/pg_source.go
package telemetry

import (
	"database/sql"
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"

	"github.com/pegfield/gauged/internal/state"
)

// PGSource reads raw observations from the indexer's Postgres table. It
// shares the global connection pool owned by the state package.
type PGSource struct{}

// NewPGSource returns a Postgres-backed observation source.
func NewPGSource() *PGSource {
	return &PGSource{}
}

// Latest returns the most recent observation row.
func (s *PGSource) Latest() (Observation, error) {
	if state.DB == nil {
		return Observation{}, fmt.Errorf("database not initialized")
	}

	query := `
		SELECT season, observed_at, twa_price, twa_delta_b, pod_rate,
		       delta_pod_demand, pool_liquidity, credit_supply, temperature,
		       bdv_converted, last_sow_seconds
		FROM telemetry_observations
		ORDER BY observed_at DESC
		LIMIT 1;`

	var (
		obs        Observation
		season     int64
		observedAt time.Time
		decimals   [8]string
	)
	err := state.DB.QueryRow(query).Scan(
		&season, &observedAt,
		&decimals[0], &decimals[1], &decimals[2], &decimals[3],
		&decimals[4], &decimals[5], &decimals[6], &decimals[7],
		&obs.LastSowSeconds,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return Observation{}, fmt.Errorf("no telemetry observations available")
		}
		return Observation{}, fmt.Errorf("failed to query latest observation: %w", err)
	}

	obs.Season = uint64(season)
	obs.ObservedAt = observedAt

	fields := []struct {
		name string
		dst  *sdkmath.LegacyDec
		raw  string
	}{
		{"twa_price", &obs.TwaPrice, decimals[0]},
		{"twa_delta_b", &obs.TwaDeltaB, decimals[1]},
		{"pod_rate", &obs.PodRate, decimals[2]},
		{"delta_pod_demand", &obs.DeltaPodDemand, decimals[3]},
		{"pool_liquidity", &obs.PoolLiquidity, decimals[4]},
		{"credit_supply", &obs.CreditSupply, decimals[5]},
		{"temperature", &obs.Temperature, decimals[6]},
		{"bdv_converted", &obs.BdvConverted, decimals[7]},
	}
	for _, f := range fields {
		dec, err := sdkmath.LegacyNewDecFromStr(f.raw)
		if err != nil {
			return Observation{}, fmt.Errorf("failed to parse %s %q: %w", f.name, f.raw, err)
		}
		*f.dst = dec
	}

	return obs, nil
}
