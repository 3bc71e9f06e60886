/*

This file manages the persistent global season counter and the peg-cross
bookkeeping. Both live in the database so the engine resumes where it left
off across restarts.

*/

package state

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"
)

// SeasonState is the persisted time bookkeeping read at the start of every
// sweep.
type SeasonState struct {
	CurrentSeason  uint64
	PegCrossSeason uint64
	// LastDeltaSign is +1 when the last observed twaDeltaB counted as above
	// peg, -1 otherwise.
	LastDeltaSign int
}

// GetSeasonState retrieves the current season bookkeeping.
func GetSeasonState() (SeasonState, error) {
	if DB == nil {
		return SeasonState{}, fmt.Errorf("database not initialized")
	}

	query := `SELECT current_season, peg_cross_season, last_delta_sign FROM season_counter WHERE id = 1;`

	var st SeasonState
	var current, pegCross int64
	err := DB.QueryRow(query).Scan(&current, &pegCross, &st.LastDeltaSign)
	if err != nil {
		if err == sql.ErrNoRows {
			log.Warn().Msg("No season counter row found, starting from season 0")
			return SeasonState{LastDeltaSign: 1}, nil
		}
		return SeasonState{}, fmt.Errorf("failed to get season state: %w", err)
	}
	st.CurrentSeason = uint64(current)
	st.PegCrossSeason = uint64(pegCross)
	return st, nil
}

// IncrementSeason advances the season counter and returns the new value.
func IncrementSeason() (uint64, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	updateQuery := `
		UPDATE season_counter
		SET current_season = current_season + 1,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = 1
		RETURNING current_season;`

	var newSeason int64
	if err := DB.QueryRow(updateQuery).Scan(&newSeason); err != nil {
		return 0, fmt.Errorf("failed to increment season: %w", err)
	}

	log.Info().Int64("season", newSeason).Msg("Advanced season counter")
	return uint64(newSeason), nil
}

// RecordPegCross stores the season the peg was crossed along with the new
// imbalance sign.
func RecordPegCross(season uint64, sign int) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}
	if sign != 1 && sign != -1 {
		return fmt.Errorf("delta sign must be +1 or -1, got %d", sign)
	}

	updateQuery := `
		UPDATE season_counter
		SET peg_cross_season = $1,
		    last_delta_sign = $2,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = 1;`

	result, err := DB.Exec(updateQuery, int64(season), sign)
	if err != nil {
		return fmt.Errorf("failed to record peg cross at season %d: %w", season, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("no rows updated when recording peg cross")
	}

	log.Info().Uint64("season", season).Int("sign", sign).Msg("Recorded peg cross")
	return nil
}

// ResetSeason resets the season counter to a specific value (for
// testing/maintenance).
func ResetSeason(season uint64) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	updateQuery := `
		UPDATE season_counter
		SET current_season = $1,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = 1;`

	if _, err := DB.Exec(updateQuery, int64(season)); err != nil {
		return fmt.Errorf("failed to reset season to %d: %w", season, err)
	}

	log.Warn().Uint64("season", season).Msg("Reset season counter")
	return nil
}
