package settlement

import (
	"database/sql"
	"errors"
	"sync"

	"github.com/saeedinster/chotto.world/internal/metrics"
	"github.com/saeedinster/chotto.world/internal/pubsub"
)

// store handles database operations for settled outcomes and player stats.
type store struct {
	db      *sql.DB
	pubsub  pubsub.PubSubClient
	metrics metrics.Metrics
	mu      sync.Mutex
}

// Trophy deltas applied at settlement. Totals never drop below zero.
const (
	TrophyWin  = 30
	TrophyLoss = 15
)

// ArenaTrophyStep is how many trophies unlock the next arena.
const ArenaTrophyStep = 400

// ErrAlreadySettled is returned when a match outcome was recorded before.
var ErrAlreadySettled = errors.New("match has already been settled")

// ErrMatchNotComplete is returned when settlement is attempted on a match
// that is still being played.
var ErrMatchNotComplete = errors.New("match is not completed")

// Result is the outcome of a match from one player's perspective.
type Result string

const (
	ResultWin  Result = "win"
	ResultLoss Result = "loss"
	ResultDraw Result = "draw"
)

// MatchRecord is one player's row in the append-only match history.
type MatchRecord struct {
	ID              string `json:"id"`
	PlayerID        string `json:"player_id"`
	OpponentType    string `json:"opponent_type"`
	OpponentID      string `json:"opponent_id,omitempty"`
	Result          Result `json:"result"`
	TrophiesGained  int    `json:"trophies_gained"`
	TrophiesLost    int    `json:"trophies_lost"`
	DurationSeconds int    `json:"duration_seconds"`
	PlayedAt        int64  `json:"played_at"`
}

// PlayerStats is the running battle record for one player.
type PlayerStats struct {
	PlayerID           string `json:"player_id"`
	Trophies           int    `json:"trophies"`
	ArenaLevel         int    `json:"arena_level"`
	TotalWins          int    `json:"total_wins"`
	TotalLosses        int    `json:"total_losses"`
	TotalDraws         int    `json:"total_draws"`
	WinStreak          int    `json:"win_streak"`
	BestWinStreak      int    `json:"best_win_streak"`
	HighestTrophies    int    `json:"highest_trophies"`
	TotalCardsUnlocked int    `json:"total_cards_unlocked"`
	UpdatedAt          int64  `json:"updated_at"`
}

// PlayerOutcome is the settled result for one participant.
type PlayerOutcome struct {
	PlayerID    string `json:"player_id" msgpack:"player_id"`
	Result      Result `json:"result" msgpack:"result"`
	TrophyDelta int    `json:"trophy_delta" msgpack:"trophy_delta"`
	Trophies    int    `json:"trophies" msgpack:"trophies"`
}

// SettlementResult sums up a settled match.
type SettlementResult struct {
	MatchID  string          `json:"match_id" msgpack:"match_id"`
	WinnerID *string         `json:"winner_id,omitempty" msgpack:"winner_id"`
	Outcomes []PlayerOutcome `json:"outcomes" msgpack:"outcomes"`
}

// LeaderboardEntry is one row of the trophy leaderboard.
type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	PlayerID string `json:"player_id"`
	Trophies int    `json:"trophies"`
	Wins     int    `json:"wins"`
}

// ArenaLevel derives the arena a trophy count belongs to.
func ArenaLevel(trophies int) int {
	if trophies < 0 {
		return 0
	}
	return trophies / ArenaTrophyStep
}
