package settlement

import "github.com/saeedinster/chotto.world/internal/battle"

// SettlementStore records match outcomes and serves player stats.
type SettlementStore interface {
	// SettleMatch applies trophy deltas, appends history rows and upserts
	// player stats for a completed match. Each participant settles in its
	// own transaction; a failed side is logged and left retryable without
	// touching the other side. The computer opponent gets no records.
	// Returns ErrMatchNotComplete while the match is active and
	// ErrAlreadySettled when every side was recorded before.
	SettleMatch(match *battle.Match) (*SettlementResult, error)

	// GetStats returns a player's running record. Players with no settled
	// matches get a zeroed record, not an error.
	GetStats(playerID string) (*PlayerStats, error)

	// GetMatchHistory returns the player's most recent settled matches.
	GetMatchHistory(playerID string, limit int) ([]MatchRecord, error)

	// Leaderboard returns the top players by trophies.
	Leaderboard(limit int) ([]LeaderboardEntry, error)

	// Rank returns a player's leaderboard position: one more than the count
	// of players with strictly more trophies.
	Rank(playerID string) (int, error)
}
