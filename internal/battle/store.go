package battle

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/saeedinster/chotto.world/internal/metrics"
	"github.com/saeedinster/chotto.world/internal/pubsub"
)

// NewStore creates a new MatchStore.
func NewStore(db *sql.DB, ps pubsub.PubSubClient, m metrics.Metrics) MatchStore {
	return &store{
		db:      db,
		pubsub:  ps,
		metrics: m,
	}
}

func (s *store) CreateMatch(player1ID, player2ID string, solo bool) (*Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().Unix()
	match := &Match{
		ID:            uuid.New().String(),
		Player1ID:     player1ID,
		Player2ID:     player2ID,
		CurrentTurn:   player1ID,
		TurnNumber:    0,
		Player1Health: StartingHealth,
		Player2Health: StartingHealth,
		Player1Elixir: StartingElixir,
		Player2Elixir: StartingElixir,
		Units:         []Unit{},
		Log:           []string{"Battle started!"},
		Status:        StatusActive,
		Solo:          solo,
		CreatedAt:     now,
		LastActionAt:  now,
	}

	unitsJSON, logJSON, err := marshalState(match)
	if err != nil {
		return nil, err
	}

	soloInt := 0
	if solo {
		soloInt = 1
	}
	_, err = s.db.Exec(`
		INSERT INTO live_matches (id, player1_id, player2_id, current_turn, turn_number,
			player1_health, player2_health, player1_elixir, player2_elixir,
			units_json, log_json, status, solo, created_at, last_action_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, match.ID, match.Player1ID, match.Player2ID, match.CurrentTurn, match.TurnNumber,
		match.Player1Health, match.Player2Health, match.Player1Elixir, match.Player2Elixir,
		unitsJSON, logJSON, string(match.Status), soloInt, match.CreatedAt, match.LastActionAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}

	s.metrics.IncMatchesCreated()
	log.Info("Created live match", "matchID", match.ID, "player1", player1ID, "player2", player2ID, "solo", solo)
	return match, nil
}

func (s *store) GetMatch(matchID string) (*Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(selectMatch+" WHERE id = ?", matchID)
	match, err := scanMatch(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	return match, nil
}

func (s *store) GetActiveMatchForPlayer(playerID string) (*Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(selectMatch+`
		WHERE status = ? AND (player1_id = ? OR player2_id = ?)
		ORDER BY created_at DESC LIMIT 1
	`, string(StatusActive), playerID, playerID)
	match, err := scanMatch(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to get active match: %w", err)
	}
	return match, nil
}

func (s *store) SubmitPlay(matchID string, play PlayCard) (*Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRow(selectMatch+" WHERE id = ?", matchID)
	current, err := scanMatch(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to load match for play: %w", err)
	}

	next, err := Apply(*current, play)
	if err != nil {
		s.metrics.IncPlaysRejected()
		return nil, err
	}

	if err := s.persistTransition(&next, current.TurnNumber); err != nil {
		return nil, err
	}

	s.metrics.IncPlaysAccepted()
	if next.Status == StatusCompleted {
		s.metrics.IncMatchesCompleted()
	}
	return &next, nil
}

func (s *store) SubmitTurn(next *Match, prevTurnNumber int) (*Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persistTransition(next, prevTurnNumber); err != nil {
		return nil, err
	}
	if next.Status == StatusCompleted {
		s.metrics.IncMatchesCompleted()
	}
	return next, nil
}

// persistTransition writes the next state guarded on (active, turn number).
// Zero rows affected means another write landed first; the caller reads the
// fresh state and retries or reports ErrNotYourTurn upstream.
func (s *store) persistTransition(next *Match, prevTurnNumber int) error {
	unitsJSON, logJSON, err := marshalState(next)
	if err != nil {
		return err
	}

	next.LastActionAt = time.Now().Unix()
	var completedAt any
	if next.Status == StatusCompleted {
		now := time.Now().Unix()
		next.CompletedAt = &now
		completedAt = now
	}
	var winnerID any
	if next.WinnerID != nil {
		winnerID = *next.WinnerID
	}

	res, err := s.db.Exec(`
		UPDATE live_matches SET
			current_turn = ?, turn_number = ?,
			player1_health = ?, player2_health = ?,
			player1_elixir = ?, player2_elixir = ?,
			units_json = ?, log_json = ?,
			status = ?, winner_id = ?, last_action_at = ?, completed_at = ?
		WHERE id = ? AND status = ? AND turn_number = ?
	`, next.CurrentTurn, next.TurnNumber,
		next.Player1Health, next.Player2Health,
		next.Player1Elixir, next.Player2Elixir,
		unitsJSON, logJSON,
		string(next.Status), winnerID, next.LastActionAt, completedAt,
		next.ID, string(StatusActive), prevTurnNumber)
	if err != nil {
		return fmt.Errorf("failed to persist match transition: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		log.Warn("Rejected stale match write", "matchID", next.ID, "turnNumber", prevTurnNumber)
		return ErrStaleTurn
	}

	// Push the updated record so the opposing client sees it without polling.
	if err := s.pubsub.SendMessage(pubsub.TopicMatchUpdated, next); err != nil {
		log.Error("Failed to publish match update", "error", err, "matchID", next.ID)
	}
	return nil
}

const selectMatch = `
	SELECT id, player1_id, player2_id, current_turn, turn_number,
	       player1_health, player2_health, player1_elixir, player2_elixir,
	       units_json, log_json, status, winner_id, solo, created_at, last_action_at, completed_at
	FROM live_matches`

func scanMatch(scanner interface{ Scan(...any) error }) (*Match, error) {
	var match Match
	var unitsJSON, logJSON string
	var winnerID sql.NullString
	var completedAt sql.NullInt64
	var solo int

	err := scanner.Scan(
		&match.ID, &match.Player1ID, &match.Player2ID, &match.CurrentTurn, &match.TurnNumber,
		&match.Player1Health, &match.Player2Health, &match.Player1Elixir, &match.Player2Elixir,
		&unitsJSON, &logJSON, &match.Status, &winnerID, &solo, &match.CreatedAt, &match.LastActionAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}

	if winnerID.Valid {
		match.WinnerID = &winnerID.String
	}
	if completedAt.Valid {
		match.CompletedAt = &completedAt.Int64
	}
	match.Solo = solo != 0

	if err := json.Unmarshal([]byte(unitsJSON), &match.Units); err != nil {
		log.Error("Failed to unmarshal units_json", "error", err, "matchID", match.ID)
		match.Units = []Unit{}
	}
	if err := json.Unmarshal([]byte(logJSON), &match.Log); err != nil {
		log.Error("Failed to unmarshal log_json", "error", err, "matchID", match.ID)
		match.Log = []string{}
	}
	return &match, nil
}

func marshalState(m *Match) (string, string, error) {
	unitsJSON, err := json.Marshal(m.Units)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal units: %w", err)
	}
	logJSON, err := json.Marshal(m.Log)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal log: %w", err)
	}
	return string(unitsJSON), string(logJSON), nil
}
