package matchmaking

import (
	"database/sql"
	"errors"
	"sync"

	"github.com/saeedinster/chotto.world/internal/battle"
	"github.com/saeedinster/chotto.world/internal/pubsub"
)

// store handles database operations for the matchmaking queue.
type store struct {
	db           *sql.DB
	matches      battle.MatchStore
	pubsub       pubsub.PubSubClient
	trophyWindow int
	mu           sync.Mutex
}

// QueueStatus is the lifecycle state of a queue entry.
type QueueStatus string

const (
	StatusWaiting QueueStatus = "waiting"
	StatusMatched QueueStatus = "matched"
)

// DefaultTrophyWindow is the half-width of the trophy band a searcher
// accepts opponents from.
const DefaultTrophyWindow = 200

// ErrNotQueued is returned when an operation needs a waiting queue entry and
// the player has none.
var ErrNotQueued = errors.New("player is not in the matchmaking queue")

// QueueEntry is one player's place in the matchmaking queue. At most one
// entry exists per player.
type QueueEntry struct {
	PlayerID    string      `json:"player_id"`
	Trophies    int         `json:"trophies"`
	TrophyMin   int         `json:"trophy_min"`
	TrophyMax   int         `json:"trophy_max"`
	Status      QueueStatus `json:"status"`
	MatchedWith *string     `json:"matched_with,omitempty"`
	MatchID     *string     `json:"match_id,omitempty"`
	EnqueuedAt  int64       `json:"enqueued_at"`
}

// PairResult identifies a formed match.
type PairResult struct {
	MatchID    string `json:"match_id" msgpack:"match_id"`
	OpponentID string `json:"opponent_id" msgpack:"opponent_id"`
}

// MatchFoundEvent is published on the change feed when a searcher pairs two
// players, so the counterpart side learns about it without polling.
type MatchFoundEvent struct {
	MatchID   string `msgpack:"match_id"`
	Player1ID string `msgpack:"player1_id"`
	Player2ID string `msgpack:"player2_id"`
}
