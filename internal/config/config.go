package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the service
type Config struct {
	// HTTP trigger
	Port int

	// Secrets: when SecretsDir is set, secrets are read from files in
	// that directory instead of environment variables
	SecretsDir string

	// Database
	DatabasePath string

	// Static data
	PlayersFile      string // JSON list of tracked players
	ChampionDataFile string // Data Dragon champion.json

	// Riot API routing
	PlatformBaseURL string // platform-scoped endpoints (spectator, league)
	RegionalBaseURL string // regionally-routed endpoints (account, match)

	// Polling
	PollCron            string // optional in-process schedule; empty means HTTP trigger only
	MaxConcurrentChecks int

	// Logging
	LogLevel string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		SecretsDir:       os.Getenv("SECRETS_DIR"),
		DatabasePath:     getEnvOrDefault("DATABASE_PATH", "./data/ladwatch.db"),
		PlayersFile:      getEnvOrDefault("PLAYERS_FILE", "./data/lads.json"),
		ChampionDataFile: getEnvOrDefault("CHAMPION_DATA_FILE", "./data/champion.json"),
		PlatformBaseURL:  getEnvOrDefault("RIOT_PLATFORM_BASE_URL", "https://na1.api.riotgames.com"),
		RegionalBaseURL:  getEnvOrDefault("RIOT_REGIONAL_BASE_URL", "https://americas.api.riotgames.com"),
		PollCron:         os.Getenv("POLL_CRON"),
		LogLevel:         getEnvOrDefault("LOG_LEVEL", "info"),
	}

	port, err := strconv.Atoi(getEnvOrDefault("PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}
	cfg.Port = port

	maxChecks, err := strconv.Atoi(getEnvOrDefault("MAX_CONCURRENT_CHECKS", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_CONCURRENT_CHECKS: %w", err)
	}
	if maxChecks < 1 {
		return nil, fmt.Errorf("MAX_CONCURRENT_CHECKS must be at least 1")
	}
	cfg.MaxConcurrentChecks = maxChecks

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
