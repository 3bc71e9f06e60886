// ./internal/state/gauge_store.go
package state

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/pegfield/gauged/internal/types"
)

// SeedGauges inserts the given gauges if they do not already exist. Existing
// rows are left untouched so a restart never clobbers committed state.
func SeedGauges(gauges []types.Gauge) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	stmt := `
		INSERT INTO gauges (gauge_id, transition_ref, value_payload, data_payload, last_season)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (gauge_id) DO NOTHING;`

	for _, g := range gauges {
		valueJSON, err := types.EncodePayload(g.Value)
		if err != nil {
			return fmt.Errorf("failed to encode value for gauge %s: %w", g.ID, err)
		}
		dataJSON, err := types.EncodePayload(g.Data)
		if err != nil {
			return fmt.Errorf("failed to encode data for gauge %s: %w", g.ID, err)
		}
		if _, err := DB.Exec(stmt, string(g.ID), g.TransitionRef, valueJSON, dataJSON, g.LastSeason); err != nil {
			return fmt.Errorf("failed to seed gauge %s: %w", g.ID, err)
		}
	}

	log.Info().Int("gauges", len(gauges)).Msg("Gauge seed ensured")
	return nil
}

// LoadGauges returns every persisted gauge with decoded payloads.
func LoadGauges() ([]types.Gauge, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	query := `
		SELECT gauge_id, transition_ref, value_payload, data_payload, last_season
		FROM gauges
		ORDER BY gauge_id;`

	rows, err := DB.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query gauges: %w", err)
	}
	defer rows.Close()

	var gauges []types.Gauge
	for rows.Next() {
		var (
			id            string
			transitionRef string
			valueJSON     []byte
			dataJSON      []byte
			lastSeason    int64
		)
		if err := rows.Scan(&id, &transitionRef, &valueJSON, &dataJSON, &lastSeason); err != nil {
			return nil, fmt.Errorf("failed to scan gauge row: %w", err)
		}

		gaugeID := types.GaugeID(id)
		value, err := types.DecodeValue(gaugeID, valueJSON)
		if err != nil {
			return nil, fmt.Errorf("failed to decode stored value for %s: %w", id, err)
		}
		data, err := types.DecodeData(gaugeID, dataJSON)
		if err != nil {
			return nil, fmt.Errorf("failed to decode stored data for %s: %w", id, err)
		}

		gauges = append(gauges, types.Gauge{
			ID:            gaugeID,
			Value:         value,
			Data:          data,
			TransitionRef: transitionRef,
			LastSeason:    uint64(lastSeason),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("gauge row iteration failed: %w", err)
	}

	log.Info().Int("gauges", len(gauges)).Msg("Loaded persisted gauges")
	return gauges, nil
}

// CommitSeason persists an entire season sweep in one transaction: every
// gauge's new payload pair, the matching history rows, and the season
// record. Either the whole sweep lands or none of it does.
func CommitSeason(rec types.SeasonRecord, gauges []types.Gauge) (int64, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	tx, err := DB.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p) // Re-panic after rollback
		} else if err != nil {
			tx.Rollback() // Rollback if error occurred
		}
	}()

	updateStmt := `
		UPDATE gauges
		SET value_payload = $1, data_payload = $2, last_season = $3, updated_at = CURRENT_TIMESTAMP
		WHERE gauge_id = $4;`
	historyStmt := `
		INSERT INTO gauge_history (gauge_id, season, value_payload, data_payload)
		VALUES ($1, $2, $3, $4);`

	for _, g := range gauges {
		valueJSON, encErr := types.EncodePayload(g.Value)
		if encErr != nil {
			err = fmt.Errorf("failed to encode value for gauge %s: %w", g.ID, encErr)
			return 0, err
		}
		dataJSON, encErr := types.EncodePayload(g.Data)
		if encErr != nil {
			err = fmt.Errorf("failed to encode data for gauge %s: %w", g.ID, encErr)
			return 0, err
		}

		var res sql.Result
		res, err = tx.Exec(updateStmt, valueJSON, dataJSON, rec.Season, string(g.ID))
		if err != nil {
			return 0, fmt.Errorf("failed to update gauge %s: %w", g.ID, err)
		}
		affected, raErr := res.RowsAffected()
		if raErr == nil && affected == 0 {
			err = fmt.Errorf("gauge %s missing from storage during commit", g.ID)
			return 0, err
		}

		if _, err = tx.Exec(historyStmt, string(g.ID), rec.Season, valueJSON, dataJSON); err != nil {
			return 0, fmt.Errorf("failed to append history for gauge %s: %w", g.ID, err)
		}
	}

	recordID, err := insertSeasonRecord(tx, rec)
	if err != nil {
		return 0, err
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Info().
		Uint64("season", rec.Season).
		Int("gauges", len(gauges)).
		Int64("record_id", recordID).
		Msg("Season sweep committed")
	return recordID, nil
}

// SaveSeasonRecord stores a season record outside the commit path (preview
// sweeps and aborted seasons keep an audit trail too).
func SaveSeasonRecord(rec types.SeasonRecord) (int64, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	tx, err := DB.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	recordID, err := insertSeasonRecord(tx, rec)
	if err != nil {
		tx.Rollback()
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return recordID, nil
}

func insertSeasonRecord(tx *sql.Tx, rec types.SeasonRecord) (int64, error) {
	snapshotJSON, err := json.Marshal(rec.Snapshot)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal season snapshot: %w", err)
	}
	commitsJSON, err := json.Marshal(rec.Commits)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal season commits: %w", err)
	}

	query := `
		INSERT INTO season_snapshots (season, sweep_id, snapshot_timestamp, snapshot, committed, commits)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING record_id;`

	var recordID int64
	err = tx.QueryRow(query,
		rec.Season, rec.SweepID, rec.Timestamp, snapshotJSON, rec.Committed, commitsJSON,
	).Scan(&recordID)
	if err != nil {
		return 0, fmt.Errorf("failed to save season record: %w", err)
	}
	return recordID, nil
}
