package config

import (
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

// Load reads configuration from environment variables and .env file.
func Load() Config {
	err := godotenv.Load()
	if err != nil {
		log.Info("No .env file found, reading from environment variables")
	}

	// A helper function to get a required env var. It will fail if the env var is not set.
	getEnv := func(key string) string {
		if value, ok := os.LookupEnv(key); ok {
			return value
		}
		log.Fatalf("Error: Required environment variable %s is not set.", key)
		return "" // This line is never reached
	}

	// Optional env var with a fallback.
	getEnvOr := func(key, fallback string) string {
		if value, ok := os.LookupEnv(key); ok {
			return value
		}
		return fallback
	}

	trophyWindow, err := strconv.Atoi(getEnvOr("MATCHMAKING_TROPHY_WINDOW", "200"))
	if err != nil {
		log.Fatalf("Error: MATCHMAKING_TROPHY_WINDOW must be an integer: %s", err)
	}
	searchInterval, err := time.ParseDuration(getEnvOr("MATCHMAKING_SEARCH_INTERVAL", "3s"))
	if err != nil {
		log.Fatalf("Error: MATCHMAKING_SEARCH_INTERVAL must be a duration: %s", err)
	}

	cfg := Config{
		DBName:        getEnv("DB_NAME"),
		MigrationsDir: getEnvOr("MIGRATIONS_DIR", "./migrations"),
		Port:          getEnv("PORT"),
		Turso: TursoConfig{
			PrimaryURL: getEnvOr("TURSO_PRIMARY_URL", ""),
			AuthToken:  getEnvOr("TURSO_AUTH_TOKEN", ""),
		},
		ProjectID: getEnv("GCP_PROJECT"),
		Matchmaking: MatchmakingConfig{
			TrophyWindow:   trophyWindow,
			SearchInterval: searchInterval,
		},
	}
	return cfg
}
