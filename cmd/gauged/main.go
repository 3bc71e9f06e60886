package main

import (
	"context"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/pegfield/gauged/internal/config"
	"github.com/pegfield/gauged/internal/engine"
	"github.com/pegfield/gauged/internal/logger"
	"github.com/pegfield/gauged/internal/registry"
	"github.com/pegfield/gauged/internal/state"
	"github.com/pegfield/gauged/internal/telemetry"
	"github.com/pegfield/gauged/internal/web"
)

// main is the entry point for the gauge engine.
func main() {
	// --- 1. Initialization Phase ---
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("Warning: .env file not found. Relying on OS environment variables.")
	}

	// Load configuration from environment variables
	if err := config.LoadConfig(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Initialize(os.Getenv("LOG_LEVEL"))
	log.Info().Msg("Gauge engine starting...")

	// Initialize database connection
	dbCfg := state.DBConfig{
		Host: os.Getenv("DB_HOST"), Port: mustAtoi(os.Getenv("DB_PORT"), 5432),
		User: os.Getenv("DB_USER"), Password: os.Getenv("DB_PASSWORD"),
		DBName: os.Getenv("DB_NAME"), SSLMode: os.Getenv("DB_SSLMODE"),
	}
	if err := state.InitDB(dbCfg); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer state.CloseDB()
	if err := state.EnsureSchema(); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure database schema")
	}

	// --- 2. Seed and restore gauge state ---
	if err := state.SeedGauges(config.DefaultGauges()); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed default gauges")
	}
	gauges, err := state.LoadGauges()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load persisted gauges")
	}

	reg := registry.New(registry.TokenAuthorizer{Token: config.GovernanceToken})
	if err := reg.Load(gauges); err != nil {
		log.Fatal().Err(err).Msg("Failed to restore gauges into registry")
	}
	log.Info().Int("gauges", len(gauges)).Msg("Gauge registry restored from storage.")

	// --- 3. Start web dashboard ---
	webServer := web.NewWebServer(config.WebPort, reg)
	go func() {
		log.Info().Str("port", config.WebPort).Str("url", "http://localhost:"+config.WebPort).Msg("Starting gauge dashboard")
		if err := webServer.Start(); err != nil {
			log.Error().Err(err).Msg("Web server failed to start")
		}
	}()

	// --- 4. Create engine instance (with safety switch) ---
	if config.Mode == engine.ModeLive {
		log.Warn().Msg("Running in LIVE mode. Gauge commits will be persisted every season.")
	} else {
		log.Warn().Str("mode", config.Mode).Msg("Running in preview mode. Sweeps compute but never commit. Set GAUGE_MODE=live to persist.")
	}

	eng, err := engine.New(engine.Config{
		Registry:  reg,
		Source:    telemetry.NewPGSource(),
		Evaluator: telemetry.NewEvaluator(config.DefaultEvaluationBounds),
		Store:     engine.PGStore{},
		Mode:      config.Mode,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create engine instance")
	}

	// --- 5. Start the season loop ---
	log.Info().Str("interval", config.SeasonInterval.String()).Msg("Starting season loop")

	ctx := context.Background()
	eng.RunLoop(ctx, config.SeasonInterval)
}

// Helper to convert string to int with a default value
func mustAtoi(s string, defaultValue int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return i
}
