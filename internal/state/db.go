// ./internal/state/db.go
package state

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/rs/zerolog/log"
)

// DB is a global database connection pool.
var DB *sql.DB

// DBConfig holds database connection parameters.
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string // "disable", "require", "verify-full", etc.
}

// InitDB initializes the database connection pool.
func InitDB(cfg DBConfig) error {
	psqlInfo := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	var err error
	DB, err = sql.Open("postgres", psqlInfo)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	DB.SetMaxOpenConns(25)
	DB.SetMaxIdleConns(25)
	DB.SetConnMaxLifetime(5 * time.Minute)

	err = DB.Ping()
	if err != nil {
		DB.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().Msg("Successfully connected to the PostgreSQL database!")
	return nil
}

// CloseDB closes the database connection pool.
func CloseDB() {
	if DB != nil {
		log.Info().Msg("Closing database connection...")
		if err := DB.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing database connection")
		}
	}
}

// EnsureSchema applies the necessary DDL to create tables if they don't exist.
func EnsureSchema() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	schemaSQL := `
		CREATE TABLE IF NOT EXISTS gauges (
			gauge_id VARCHAR(64) PRIMARY KEY,
			transition_ref VARCHAR(128) NOT NULL,
			value_payload JSONB NOT NULL,
			data_payload JSONB NOT NULL,
			last_season BIGINT NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS gauge_history (
			history_id SERIAL PRIMARY KEY,
			gauge_id VARCHAR(64) NOT NULL,
			season BIGINT NOT NULL,
			value_payload JSONB NOT NULL,
			data_payload JSONB NOT NULL,
			committed_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			CONSTRAINT uq_gauge_history_gauge_season UNIQUE (gauge_id, season)
		);
		CREATE INDEX IF NOT EXISTS idx_gauge_history_gauge_season ON gauge_history(gauge_id, season DESC);

		CREATE TABLE IF NOT EXISTS season_snapshots (
			record_id SERIAL PRIMARY KEY,
			season BIGINT NOT NULL,
			sweep_id VARCHAR(64) NOT NULL,
			snapshot_timestamp TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			snapshot JSONB NOT NULL,
			committed BOOLEAN NOT NULL,
			commits JSONB
		);
		CREATE INDEX IF NOT EXISTS idx_season_snapshots_season ON season_snapshots(season DESC);
		CREATE INDEX IF NOT EXISTS idx_season_snapshots_timestamp ON season_snapshots(snapshot_timestamp DESC);

		-- Season counter: persistent global season number plus peg-cross
		-- bookkeeping, continuity across restarts.
		CREATE TABLE IF NOT EXISTS season_counter (
			id INTEGER PRIMARY KEY DEFAULT 1,
			current_season BIGINT NOT NULL DEFAULT 0,
			peg_cross_season BIGINT NOT NULL DEFAULT 0,
			last_delta_sign INTEGER NOT NULL DEFAULT 1,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			CONSTRAINT single_row_check CHECK (id = 1)
		);

		-- Insert initial row if it doesn't exist
		INSERT INTO season_counter (id, current_season)
		VALUES (1, 0)
		ON CONFLICT (id) DO NOTHING;

		-- Telemetry observations are written by the protocol indexer and
		-- read by the Postgres telemetry source.
		CREATE TABLE IF NOT EXISTS telemetry_observations (
			observation_id SERIAL PRIMARY KEY,
			season BIGINT NOT NULL,
			observed_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			twa_price DECIMAL(30, 18) NOT NULL,
			twa_delta_b DECIMAL(30, 18) NOT NULL,
			pod_rate DECIMAL(30, 18) NOT NULL,
			delta_pod_demand DECIMAL(30, 18) NOT NULL,
			pool_liquidity DECIMAL(30, 18) NOT NULL,
			credit_supply DECIMAL(30, 18) NOT NULL,
			temperature DECIMAL(30, 18) NOT NULL,
			bdv_converted DECIMAL(30, 18) NOT NULL DEFAULT 0,
			last_sow_seconds BIGINT NOT NULL DEFAULT -1
		);
		CREATE INDEX IF NOT EXISTS idx_telemetry_observations_season ON telemetry_observations(season DESC, observed_at DESC);
	`
	_, err := DB.Exec(schemaSQL)
	if err != nil {
		return fmt.Errorf("failed to execute schema DDL: %w", err)
	}
	log.Info().Msg("Database schema ensured.")
	return nil
}

// TestDBConnection tests if the database connection is healthy
func TestDBConnection() error {
	if DB == nil {
		return fmt.Errorf("database connection is nil")
	}

	// Use a short timeout context for health checks
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := DB.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	return nil
}
