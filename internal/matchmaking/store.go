package matchmaking

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/saeedinster/chotto.world/internal/battle"
	"github.com/saeedinster/chotto.world/internal/pubsub"
)

// NewStore creates a new QueueService. trophyWindow <= 0 falls back to the
// default band of ±200.
func NewStore(db *sql.DB, matches battle.MatchStore, ps pubsub.PubSubClient, trophyWindow int) QueueService {
	if trophyWindow <= 0 {
		trophyWindow = DefaultTrophyWindow
	}
	return &store{
		db:           db,
		matches:      matches,
		pubsub:       ps,
		trophyWindow: trophyWindow,
	}
}

func (s *store) Enqueue(playerID string, trophies int) (*QueueEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin enqueue transaction: %w", err)
	}
	defer tx.Rollback()

	// A fresh search always replaces whatever entry was left behind.
	if _, err := tx.Exec(`DELETE FROM matchmaking_queue WHERE player_id = ?`, playerID); err != nil {
		return nil, fmt.Errorf("failed to remove stale queue entry: %w", err)
	}

	entry := &QueueEntry{
		PlayerID:   playerID,
		Trophies:   trophies,
		TrophyMin:  max(0, trophies-s.trophyWindow),
		TrophyMax:  trophies + s.trophyWindow,
		Status:     StatusWaiting,
		EnqueuedAt: time.Now().UnixNano(),
	}
	_, err = tx.Exec(`
		INSERT INTO matchmaking_queue (player_id, trophies, trophy_min, trophy_max, status, enqueued_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, entry.PlayerID, entry.Trophies, entry.TrophyMin, entry.TrophyMax, string(entry.Status), entry.EnqueuedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert queue entry: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit enqueue: %w", err)
	}

	log.Info("Player joined matchmaking queue", "playerID", playerID, "trophies", trophies,
		"window", fmt.Sprintf("[%d,%d]", entry.TrophyMin, entry.TrophyMax))
	return entry, nil
}

// Search checks candidates against the searcher's window only. The reverse
// check, searcher inside the candidate's window, is not applied.
func (s *store) Search(playerID string) (*PairResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.getEntry(playerID)
	if err != nil {
		return nil, err
	}

	// A counterpart paired by someone else's search finds out here when the
	// push notification did not reach them. Consuming the entry keeps the
	// at-most-one-entry-per-player invariant for the next search.
	if entry.Status == StatusMatched && entry.MatchID != nil && entry.MatchedWith != nil {
		if _, err := s.db.Exec(`DELETE FROM matchmaking_queue WHERE player_id = ?`, playerID); err != nil {
			log.Error("Failed to consume matched queue entry", "error", err, "playerID", playerID)
		}
		return &PairResult{MatchID: *entry.MatchID, OpponentID: *entry.MatchedWith}, nil
	}
	if entry.Status != StatusWaiting {
		return nil, ErrNotQueued
	}

	var candidateID string
	err = s.db.QueryRow(`
		SELECT player_id FROM matchmaking_queue
		WHERE player_id != ? AND status = ? AND trophies >= ? AND trophies <= ?
		ORDER BY enqueued_at ASC
		LIMIT 1
	`, playerID, string(StatusWaiting), entry.TrophyMin, entry.TrophyMax).Scan(&candidateID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan for opponents: %w", err)
	}

	// Claim both entries before creating the match. The status guard means a
	// concurrent searcher claiming the same pair loses cleanly: fewer than
	// two rows change and the whole claim rolls back.
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin pairing transaction: %w", err)
	}
	defer tx.Rollback()

	claimed := 0
	for _, pair := range [][2]string{{playerID, candidateID}, {candidateID, playerID}} {
		res, err := tx.Exec(`
			UPDATE matchmaking_queue SET status = ?, matched_with = ?
			WHERE player_id = ? AND status = ?
		`, string(StatusMatched), pair[1], pair[0], string(StatusWaiting))
		if err != nil {
			return nil, fmt.Errorf("failed to claim queue entry: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("failed to read claim result: %w", err)
		}
		claimed += int(n)
	}
	if claimed != 2 {
		log.Debug("Pairing claim lost to a concurrent searcher", "playerID", playerID, "candidateID", candidateID)
		return nil, nil
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit pairing claim: %w", err)
	}

	// The searcher initiates, so they hold the first turn.
	match, err := s.matches.CreateMatch(playerID, candidateID, false)
	if err != nil {
		s.releaseClaim(playerID, candidateID)
		return nil, fmt.Errorf("failed to create live match: %w", err)
	}

	// The searcher's own entry is done; the counterpart keeps a matched
	// entry carrying the match id so their next poll can pick it up.
	if _, err := s.db.Exec(`UPDATE matchmaking_queue SET match_id = ? WHERE player_id = ?`, match.ID, candidateID); err != nil {
		log.Error("Failed to record match id on counterpart entry", "error", err, "matchID", match.ID)
	}
	if _, err := s.db.Exec(`DELETE FROM matchmaking_queue WHERE player_id = ?`, playerID); err != nil {
		log.Error("Failed to clear queue entry after pairing", "error", err, "matchID", match.ID)
	}

	event := MatchFoundEvent{MatchID: match.ID, Player1ID: playerID, Player2ID: candidateID}
	if err := s.pubsub.SendMessage(pubsub.TopicMatchFound, event); err != nil {
		log.Error("Failed to publish match-found event", "error", err, "matchID", match.ID)
	}

	log.Info("Matchmaking paired players", "matchID", match.ID, "player1", playerID, "player2", candidateID)
	return &PairResult{MatchID: match.ID, OpponentID: candidateID}, nil
}

// releaseClaim puts both entries back to waiting after a failed match
// creation, so the players keep searching instead of being stranded.
func (s *store) releaseClaim(playerID, candidateID string) {
	_, err := s.db.Exec(`
		UPDATE matchmaking_queue SET status = ?, matched_with = NULL
		WHERE player_id IN (?, ?)
	`, string(StatusWaiting), playerID, candidateID)
	if err != nil {
		log.Error("Failed to release pairing claim", "error", err, "playerID", playerID)
	}
}

func (s *store) Cancel(playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM matchmaking_queue WHERE player_id = ?`, playerID)
	if err != nil {
		return fmt.Errorf("failed to cancel matchmaking: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		log.Info("Player left matchmaking queue", "playerID", playerID)
	}
	return nil
}

func (s *store) GetEntry(playerID string) (*QueueEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getEntry(playerID)
}

func (s *store) getEntry(playerID string) (*QueueEntry, error) {
	var entry QueueEntry
	var matchedWith, matchID sql.NullString
	err := s.db.QueryRow(`
		SELECT player_id, trophies, trophy_min, trophy_max, status, matched_with, match_id, enqueued_at
		FROM matchmaking_queue
		WHERE player_id = ?
	`, playerID).Scan(&entry.PlayerID, &entry.Trophies, &entry.TrophyMin, &entry.TrophyMax,
		&entry.Status, &matchedWith, &matchID, &entry.EnqueuedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotQueued
		}
		return nil, fmt.Errorf("failed to get queue entry: %w", err)
	}
	if matchedWith.Valid {
		entry.MatchedWith = &matchedWith.String
	}
	if matchID.Valid {
		entry.MatchID = &matchID.String
	}
	return &entry, nil
}
