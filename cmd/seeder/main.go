package main

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/saeedinster/chotto.world/internal/cards"
	"github.com/saeedinster/chotto.world/internal/database"
)

// Simplified config loading for the script
func loadConfig() (dbName, primaryURL, authToken, migrationsDir string) {
	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file found, reading from environment variables")
	}

	dbName = os.Getenv("DB_NAME")
	if dbName == "" {
		dbName = "battle.db"
	}
	migrationsDir = os.Getenv("MIGRATIONS_DIR")
	if migrationsDir == "" {
		migrationsDir = "migrations"
	}
	return dbName, os.Getenv("TURSO_PRIMARY_URL"), os.Getenv("TURSO_AUTH_TOKEN"), migrationsDir
}

func main() {
	log.Info("Starting database seeder...")
	dbName, primaryURL, authToken, migrationsDir := loadConfig()

	db, teardown, err := database.InitDB(dbName, primaryURL, authToken, migrationsDir)
	if err != nil {
		log.Fatalf("Failed to initialize database: %s", err)
	}
	defer teardown()

	startTime := time.Now()

	cardStore := cards.New(db)
	catalog := cards.DefaultCatalog()
	if err := cardStore.SeedCatalog(catalog); err != nil {
		log.Fatalf("Failed to seed card catalog: %s", err)
	}
	log.Info("Seeded card catalog", "cards", len(catalog))

	// Demo players with starter decks make a fresh install playable.
	demoPlayers := []string{"demo-player-1", "demo-player-2", "demo-player-3", "demo-player-4"}
	for _, playerID := range demoPlayers {
		granted, err := cardStore.UnlockStarterCards(playerID)
		if err != nil {
			log.Fatalf("Failed to grant starter cards to %s: %s", playerID, err)
		}
		log.Info("Ensured demo player has a starter deck", "playerID", playerID, "granted", granted)
	}

	// Spread the demo players across trophy bands so matchmaking and the
	// leaderboard have something to show.
	for i, playerID := range demoPlayers {
		trophies := i * 150
		_, err := db.Exec(`
			INSERT INTO player_battle_stats (player_id, trophies, arena_level, highest_trophies, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (player_id) DO UPDATE SET
				trophies = excluded.trophies,
				arena_level = excluded.arena_level,
				highest_trophies = excluded.highest_trophies,
				updated_at = excluded.updated_at
		`, playerID, trophies, trophies/400, trophies, time.Now().Unix())
		if err != nil {
			log.Fatalf("Failed to seed stats for %s: %s", playerID, err)
		}
	}

	fmt.Printf("Seeding finished in %s\n", time.Since(startTime))
}
