package battle

import (
	"database/sql"
	"errors"
	"sync"

	"github.com/saeedinster/chotto.world/internal/metrics"
	"github.com/saeedinster/chotto.world/internal/pubsub"
)

// store handles database operations for live matches.
type store struct {
	db      *sql.DB
	pubsub  pubsub.PubSubClient
	metrics metrics.Metrics
	mu      sync.RWMutex
}

// Status is the lifecycle state of a live match.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

const (
	// StartingHealth is each player's health at match creation, and the cap
	// healing can never exceed.
	StartingHealth = 1000
	// StartingElixir is each player's elixir at match creation.
	StartingElixir = 10
	// MaxElixir caps the regenerating resource.
	MaxElixir = 10
	// ElixirRegen is credited to the non-acting player per accepted play, and
	// to both sides after an AI combat round.
	ElixirRegen = 2
	// AIOpponentID is the synthetic opponent for single-player matches.
	AIOpponentID = "ai-opponent"
	// logLimit bounds the persisted battle log.
	logLimit = 50
)

// Play precondition violations. All are reported to the actor without
// consuming the turn; ErrStaleTurn additionally signals that the caller read
// an outdated match and must reload.
var (
	ErrNotYourTurn        = errors.New("it is not your turn")
	ErrInsufficientElixir = errors.New("not enough elixir to play this card")
	ErrMatchNotFound      = errors.New("match not found")
	ErrMatchCompleted     = errors.New("match is already completed")
	ErrStaleTurn          = errors.New("match was modified concurrently, reload and retry")
)

// Unit is a spawned character or building fighting for one side.
type Unit struct {
	ID        string `json:"id" msgpack:"id"`
	CardID    string `json:"card_id" msgpack:"card_id"`
	Name      string `json:"name" msgpack:"name"`
	Emoji     string `json:"emoji" msgpack:"emoji"`
	OwnerID   string `json:"owner_id" msgpack:"owner_id"`
	Attack    int    `json:"attack" msgpack:"attack"`
	Health    int    `json:"health" msgpack:"health"`
	MaxHealth int    `json:"max_health" msgpack:"max_health"`
}

// Match is the authoritative record of an in-progress battle. It is the only
// concurrently mutated resource: both clients submit plays against it, and
// turn ownership plus the turn-number write guard decide whose write lands.
type Match struct {
	ID            string  `json:"id" msgpack:"id"`
	Player1ID     string  `json:"player1_id" msgpack:"player1_id"`
	Player2ID     string  `json:"player2_id" msgpack:"player2_id"`
	CurrentTurn   string  `json:"current_turn" msgpack:"current_turn"`
	TurnNumber    int     `json:"turn_number" msgpack:"turn_number"`
	Player1Health int     `json:"player1_health" msgpack:"player1_health"`
	Player2Health int     `json:"player2_health" msgpack:"player2_health"`
	Player1Elixir int     `json:"player1_elixir" msgpack:"player1_elixir"`
	Player2Elixir int     `json:"player2_elixir" msgpack:"player2_elixir"`
	Units         []Unit  `json:"units" msgpack:"units"`
	Log           []string `json:"log" msgpack:"log"`
	Status        Status  `json:"status" msgpack:"status"`
	WinnerID      *string `json:"winner_id,omitempty" msgpack:"winner_id"`
	Solo          bool    `json:"solo" msgpack:"solo"`
	CreatedAt     int64   `json:"created_at" msgpack:"created_at"`
	LastActionAt  int64   `json:"last_action_at" msgpack:"last_action_at"`
	CompletedAt   *int64  `json:"completed_at,omitempty" msgpack:"completed_at"`
}

// OpponentOf returns the other participant's id.
func (m *Match) OpponentOf(playerID string) string {
	if playerID == m.Player1ID {
		return m.Player2ID
	}
	return m.Player1ID
}

// HealthOf returns the given participant's health.
func (m *Match) HealthOf(playerID string) int {
	if playerID == m.Player1ID {
		return m.Player1Health
	}
	return m.Player2Health
}

// ElixirOf returns the given participant's elixir.
func (m *Match) ElixirOf(playerID string) int {
	if playerID == m.Player1ID {
		return m.Player1Elixir
	}
	return m.Player2Elixir
}

func (m *Match) setHealth(playerID string, health int) {
	if playerID == m.Player1ID {
		m.Player1Health = health
	} else {
		m.Player2Health = health
	}
}

func (m *Match) setElixir(playerID string, elixir int) {
	if playerID == m.Player1ID {
		m.Player1Elixir = elixir
	} else {
		m.Player2Elixir = elixir
	}
}

// unitsOf returns the live units owned by playerID, in spawn order.
func (m *Match) unitsOf(playerID string) []*Unit {
	var units []*Unit
	for i := range m.Units {
		if m.Units[i].OwnerID == playerID {
			units = append(units, &m.Units[i])
		}
	}
	return units
}

// clone returns a deep copy so the engine can stay a pure transition function.
func (m *Match) clone() Match {
	next := *m
	next.Units = make([]Unit, len(m.Units))
	copy(next.Units, m.Units)
	next.Log = make([]string, len(m.Log))
	copy(next.Log, m.Log)
	if m.WinnerID != nil {
		winner := *m.WinnerID
		next.WinnerID = &winner
	}
	if m.CompletedAt != nil {
		completed := *m.CompletedAt
		next.CompletedAt = &completed
	}
	return next
}
