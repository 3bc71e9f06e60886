// ./internal/state/history.go
package state

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/pegfield/gauged/internal/types"
)

// GetRecentSeasons retrieves recent season records, newest first.
func GetRecentSeasons(limit int) ([]types.SeasonRecord, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	if limit <= 0 || limit > 100 {
		limit = 10 // Default limit
	}

	query := `
		SELECT record_id, season, sweep_id, snapshot_timestamp, snapshot, committed, commits
		FROM season_snapshots
		ORDER BY snapshot_timestamp DESC
		LIMIT $1;`

	rows, err := DB.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent seasons: %w", err)
	}
	defer rows.Close()

	var records []types.SeasonRecord
	for rows.Next() {
		rec, err := scanSeasonRecord(rows)
		if err != nil {
			log.Error().Err(err).Msg("Failed to scan season record")
			continue // Skip this row and continue with others
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("season record iteration failed: %w", err)
	}
	return records, nil
}

// GetSeasonByNumber retrieves the most recent record for a season.
func GetSeasonByNumber(season uint64) (types.SeasonRecord, error) {
	if DB == nil {
		return types.SeasonRecord{}, fmt.Errorf("database not initialized")
	}

	query := `
		SELECT record_id, season, sweep_id, snapshot_timestamp, snapshot, committed, commits
		FROM season_snapshots
		WHERE season = $1
		ORDER BY snapshot_timestamp DESC
		LIMIT 1;`

	row := DB.QueryRow(query, int64(season))
	rec, err := scanSeasonRecord(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return types.SeasonRecord{}, fmt.Errorf("no record found for season %d", season)
		}
		return types.SeasonRecord{}, fmt.Errorf("failed to get season %d: %w", season, err)
	}
	return rec, nil
}

// GetGaugeHistory returns the committed payloads for one gauge, newest
// first.
func GetGaugeHistory(id types.GaugeID, limit int) ([]types.GaugeCommit, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	query := `
		SELECT value_payload, data_payload
		FROM gauge_history
		WHERE gauge_id = $1
		ORDER BY season DESC
		LIMIT $2;`

	rows, err := DB.Query(query, string(id), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query gauge history for %s: %w", id, err)
	}
	defer rows.Close()

	var commits []types.GaugeCommit
	for rows.Next() {
		var valueJSON, dataJSON []byte
		if err := rows.Scan(&valueJSON, &dataJSON); err != nil {
			return nil, fmt.Errorf("failed to scan gauge history row: %w", err)
		}
		commits = append(commits, types.GaugeCommit{
			ID:    id,
			Value: json.RawMessage(valueJSON),
			Data:  json.RawMessage(dataJSON),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("gauge history iteration failed: %w", err)
	}
	return commits, nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSeasonRecord(row rowScanner) (types.SeasonRecord, error) {
	var (
		rec          types.SeasonRecord
		season       int64
		snapshotJSON []byte
		commitsJSON  []byte
	)
	if err := row.Scan(&rec.RecordID, &season, &rec.SweepID, &rec.Timestamp,
		&snapshotJSON, &rec.Committed, &commitsJSON); err != nil {
		return types.SeasonRecord{}, err
	}
	rec.Season = uint64(season)

	if err := json.Unmarshal(snapshotJSON, &rec.Snapshot); err != nil {
		return types.SeasonRecord{}, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	if len(commitsJSON) > 0 {
		if err := json.Unmarshal(commitsJSON, &rec.Commits); err != nil {
			return types.SeasonRecord{}, fmt.Errorf("failed to unmarshal commits: %w", err)
		}
	}
	return rec, nil
}
