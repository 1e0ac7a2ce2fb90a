package config

import "time"

// Config holds all configuration for the application.
type Config struct {
	DBName        string
	MigrationsDir string
	Port          string
	Turso         TursoConfig
	ProjectID     string
	Matchmaking   MatchmakingConfig
}

type TursoConfig struct {
	PrimaryURL string
	AuthToken  string
}

// MatchmakingConfig tunes the queue search behaviour.
type MatchmakingConfig struct {
	TrophyWindow   int
	SearchInterval time.Duration
}
