package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pegfield/gauged/internal/gauge"
	"github.com/pegfield/gauged/internal/logger"
	"github.com/pegfield/gauged/internal/registry"
	"github.com/pegfield/gauged/internal/state"
	"github.com/pegfield/gauged/internal/telemetry"
	"github.com/pegfield/gauged/internal/types"
)

// ModeLive is the only mode that persists gauge commits. Any other mode runs
// preview sweeps: transitions are computed and audited but nothing commits.
const ModeLive = "live"

// Store is the persistence surface the engine drives each season.
type Store interface {
	IncrementSeason() (uint64, error)
	GetSeasonState() (state.SeasonState, error)
	RecordPegCross(season uint64, sign int) error
	CommitSeason(rec types.SeasonRecord, gauges []types.Gauge) (int64, error)
	SaveSeasonRecord(rec types.SeasonRecord) (int64, error)
}

// PGStore adapts the state package's Postgres functions to the Store
// interface.
type PGStore struct{}

func (PGStore) IncrementSeason() (uint64, error)         { return state.IncrementSeason() }
func (PGStore) GetSeasonState() (state.SeasonState, error) { return state.GetSeasonState() }
func (PGStore) RecordPegCross(season uint64, sign int) error {
	return state.RecordPegCross(season, sign)
}
func (PGStore) CommitSeason(rec types.SeasonRecord, gauges []types.Gauge) (int64, error) {
	return state.CommitSeason(rec, gauges)
}
func (PGStore) SaveSeasonRecord(rec types.SeasonRecord) (int64, error) {
	return state.SaveSeasonRecord(rec)
}

// Engine runs the season sweep: advance the season, evaluate telemetry into
// a snapshot, dispatch every gauge transition, and commit the results
// atomically.
type Engine struct {
	logger    zerolog.Logger
	registry  *registry.Registry
	source    telemetry.Source
	evaluator *telemetry.Evaluator
	store     Store
	mode      string

	seasonCount int
}

// Config holds the dependencies for creating a new Engine instance.
type Config struct {
	Registry  *registry.Registry
	Source    telemetry.Source
	Evaluator *telemetry.Evaluator
	Store     Store
	Mode      string
}

// New creates an Engine with dependency injection.
func New(cfg Config) (*Engine, error) {
	if cfg.Registry == nil {
		return nil, fmt.Errorf("registry cannot be nil")
	}
	if cfg.Source == nil {
		return nil, fmt.Errorf("telemetry source cannot be nil")
	}
	if cfg.Evaluator == nil {
		return nil, fmt.Errorf("telemetry evaluator cannot be nil")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}

	e := &Engine{
		logger:    logger.GetForComponent("gauge_engine"),
		registry:  cfg.Registry,
		source:    cfg.Source,
		evaluator: cfg.Evaluator,
		store:     cfg.Store,
		mode:      cfg.Mode,
	}

	e.logger.Info().
		Str("mode", e.mode).
		Bool("live", e.mode == ModeLive).
		Msg("Engine instance created")

	return e, nil
}

// RunLoop starts the season loop with the specified interval.
func (e *Engine) RunLoop(ctx context.Context, interval time.Duration) {
	e.logger.Info().
		Dur("interval", interval).
		Msg("Starting gauge engine season loop")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Run first sweep immediately
	e.seasonCount++
	e.logger.Info().Int("sweep", e.seasonCount).Msg("Initiating season sweep")
	if err := e.RunSeason(ctx); err != nil {
		e.logger.Error().Err(err).Int("sweep", e.seasonCount).Msg("Season sweep failed")
	}

	for {
		select {
		case <-ctx.Done():
			e.logger.Info().Msg("Engine loop stopped due to context cancellation")
			return
		case <-ticker.C:
			e.seasonCount++
			e.logger.Info().Int("sweep", e.seasonCount).Msg("Initiating season sweep")
			if err := e.RunSeason(ctx); err != nil {
				e.logger.Error().Err(err).Int("sweep", e.seasonCount).Msg("Season sweep failed")
			}
		}
	}
}

// RunSeason executes one complete season sweep. Every gauge transition is
// computed against the same snapshot before anything commits; a single
// failure aborts the whole season and leaves every gauge at its previous
// committed state.
func (e *Engine) RunSeason(ctx context.Context) error {
	sweepStart := time.Now()

	// Unique sweep ID for tracing logs across the entire season
	sweepID := uuid.New().String()
	sweepLogger := e.logger.With().Str("sweep_id", sweepID).Logger()

	sweepLogger.Info().Msg("--- Starting season sweep ---")

	// --- Step 1: Advance the season counter ---
	season, err := e.store.IncrementSeason()
	if err != nil {
		return fmt.Errorf("failed to advance season: %w", err)
	}
	seasonState, err := e.store.GetSeasonState()
	if err != nil {
		return fmt.Errorf("failed to read season state: %w", err)
	}

	// --- Step 2: Evaluate telemetry into this season's snapshot ---
	sweepLogger.Info().Uint64("season", season).Msg("Step 2: Evaluating telemetry...")
	obs, err := e.source.Latest()
	if err != nil {
		return fmt.Errorf("season %d aborted, telemetry unavailable: %w", season, err)
	}
	snap := e.evaluator.Evaluate(obs)
	snap.Season = season

	// Peg-cross detection: if the imbalance sign flipped since the last
	// sweep, this season becomes the peg-cross season and the gauges see
	// Season == PegCrossSeason.
	sign := -1
	if snap.AbovePeg() {
		sign = 1
	}
	pegCrossSeason := seasonState.PegCrossSeason
	if sign != seasonState.LastDeltaSign {
		pegCrossSeason = season
		if err := e.store.RecordPegCross(season, sign); err != nil {
			return fmt.Errorf("failed to record peg cross: %w", err)
		}
		sweepLogger.Info().
			Uint64("season", season).
			Int("sign", sign).
			Msg("Peg crossed")
	}
	snap.PegCrossSeason = pegCrossSeason

	sweepLogger.Info().
		Str("twa_price", snap.TwaPrice.String()).
		Str("twa_delta_b", snap.TwaDeltaB.String()).
		Str("pod_rate", snap.PodRate.String()).
		Str("soil", string(snap.Soil)).
		Msg("Snapshot evaluated")

	// --- Step 3: Compute every gauge transition (pure, no commits yet) ---
	sweepLogger.Info().Msg("Step 3: Dispatching gauge transitions...")
	ids := e.registry.IDs()
	results := make(map[types.GaugeID]gauge.Result, len(ids))
	updated := make([]types.Gauge, 0, len(ids))
	commits := make([]types.GaugeCommit, 0, len(ids))

	for _, id := range ids {
		g, err := e.registry.Get(id)
		if err != nil {
			return e.abortSeason(sweepLogger, sweepID, sweepStart, snap, err)
		}
		res, err := e.registry.ComputeResult(g, snap)
		if err != nil {
			err = fmt.Errorf("gauge %s transition failed: %w", id, err)
			return e.abortSeason(sweepLogger, sweepID, sweepStart, snap, err)
		}
		results[id] = res

		g.Value = res.Value
		g.Data = res.Data
		g.LastSeason = season
		updated = append(updated, g)

		valueJSON, err := types.EncodePayload(res.Value)
		if err != nil {
			return e.abortSeason(sweepLogger, sweepID, sweepStart, snap, err)
		}
		dataJSON, err := types.EncodePayload(res.Data)
		if err != nil {
			return e.abortSeason(sweepLogger, sweepID, sweepStart, snap, err)
		}
		commits = append(commits, types.GaugeCommit{ID: id, Value: valueJSON, Data: dataJSON})
	}
	sweepLogger.Info().Int("gauges", len(results)).Msg("Step 3: All transitions computed.")

	rec := types.SeasonRecord{
		Season:    season,
		SweepID:   sweepID,
		Timestamp: sweepStart,
		Snapshot:  snap,
		Commits:   commits,
	}

	// --- Step 4: Commit or preview ---
	if e.mode != ModeLive {
		rec.Committed = false
		recordID, err := e.store.SaveSeasonRecord(rec)
		if err != nil {
			sweepLogger.Error().Err(err).Msg("Failed to save preview season record")
		}
		sweepLogger.Info().
			Int64("record_id", recordID).
			Str("mode", e.mode).
			Dur("elapsed", time.Since(sweepStart)).
			Msg("--- Season sweep complete (preview, nothing committed) ---")
		return nil
	}

	rec.Committed = true
	recordID, err := e.store.CommitSeason(rec, updated)
	if err != nil {
		return fmt.Errorf("season %d aborted, commit failed: %w", season, err)
	}

	// Persistence succeeded, now apply in memory. A failure here means the
	// registry lost a gauge mid-sweep and the restart path will reload from
	// storage anyway.
	for _, id := range ids {
		if err := e.registry.Commit(id, results[id], season); err != nil {
			sweepLogger.Error().Err(err).Str("gauge", string(id)).Msg("In-memory commit failed after persist")
		}
	}

	sweepLogger.Info().
		Uint64("season", season).
		Int64("record_id", recordID).
		Int("gauges", len(updated)).
		Dur("elapsed", time.Since(sweepStart)).
		Msg("--- Season sweep committed ---")
	return nil
}

// abortSeason records a failed sweep for the audit trail and returns the
// error. No gauge state changes on an aborted season.
func (e *Engine) abortSeason(sweepLogger zerolog.Logger, sweepID string, start time.Time, snap types.SystemSnapshot, cause error) error {
	sweepLogger.Error().Err(cause).Uint64("season", snap.Season).Msg("Season sweep aborted, no gauges committed")

	rec := types.SeasonRecord{
		Season:    snap.Season,
		SweepID:   sweepID,
		Timestamp: start,
		Snapshot:  snap,
		Committed: false,
	}
	if _, err := e.store.SaveSeasonRecord(rec); err != nil {
		sweepLogger.Error().Err(err).Msg("Failed to save aborted season record")
	}
	return cause
}
