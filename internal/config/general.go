package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// AppConfig holds all application configuration loaded from environment
// variables. These are populated at startup by LoadConfig.
var (
	// SeasonInterval is how often the engine runs a gauge sweep.
	SeasonInterval time.Duration

	// Mode is the engine mode: "live" commits results, anything else runs
	// preview sweeps that compute but never persist.
	Mode string

	// GovernanceToken authorizes privileged registry mutations.
	GovernanceToken string

	// WebPort is the dashboard listen port.
	WebPort string

	// SoilSoldOutWindow and SoilMostlySoldOutWindow classify soil demand
	// from the last-sow offset within a season.
	SoilSoldOutWindow       time.Duration
	SoilMostlySoldOutWindow time.Duration
)

// LoadConfig loads configuration from environment variables and sets the
// global config vars. Required variables must be set; the rest default.
func LoadConfig() error {
	log.Info().Msg("Loading application configuration from environment variables...")

	var err error

	SeasonInterval, err = getEnvAsDuration("GAUGE_SEASON_INTERVAL")
	if err != nil {
		return err
	}

	Mode, err = getEnv("GAUGE_MODE")
	if err != nil {
		return err
	}

	GovernanceToken, err = getEnv("GAUGE_GOVERNANCE_TOKEN")
	if err != nil {
		return err
	}

	WebPort = getEnvOrDefault("WEB_PORT", "8080")

	soldOutSecs, err := getEnvAsInt64OrDefault("SOIL_SOLD_OUT_WINDOW_SECONDS", 600)
	if err != nil {
		return err
	}
	SoilSoldOutWindow = time.Duration(soldOutSecs) * time.Second

	mostlySecs, err := getEnvAsInt64OrDefault("SOIL_MOSTLY_SOLD_OUT_WINDOW_SECONDS", 1800)
	if err != nil {
		return err
	}
	SoilMostlySoldOutWindow = time.Duration(mostlySecs) * time.Second

	if SoilMostlySoldOutWindow < SoilSoldOutWindow {
		return errors.New("SOIL_MOSTLY_SOLD_OUT_WINDOW_SECONDS must be >= SOIL_SOLD_OUT_WINDOW_SECONDS")
	}

	log.Debug().
		Dur("SeasonInterval", SeasonInterval).
		Str("Mode", Mode).
		Str("WebPort", WebPort).
		Msg("Configuration loaded successfully.")

	return nil
}

// getEnv retrieves a string environment variable. Returns error if not set.
func getEnv(key string) (string, error) {
	if value, exists := os.LookupEnv(key); exists {
		return value, nil
	}
	return "", errors.New("environment variable " + key + " is required but not set")
}

func getEnvOrDefault(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

// getEnvAsDuration retrieves an environment variable as a time.Duration
// (e.g. "1h", "10m"). Returns error if not set or invalid.
func getEnvAsDuration(key string) (time.Duration, error) {
	valueStr, err := getEnv(key)
	if err != nil {
		return 0, err
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return 0, errors.New("environment variable " + key + " must be a valid duration, got: " + valueStr)
	}
	return value, nil
}

func getEnvAsInt64OrDefault(key string, fallback int64) (int64, error) {
	valueStr, exists := os.LookupEnv(key)
	if !exists || valueStr == "" {
		return fallback, nil
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return 0, errors.New("environment variable " + key + " must be a valid int64, got: " + valueStr)
	}
	return value, nil
}
