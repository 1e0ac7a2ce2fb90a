package settlement

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/saeedinster/chotto.world/internal/battle"
	"github.com/saeedinster/chotto.world/internal/metrics"
	"github.com/saeedinster/chotto.world/internal/pubsub"
)

// errSideRecorded marks a participant whose outcome row already exists.
var errSideRecorded = errors.New("side already recorded")

func NewStore(db *sql.DB, ps pubsub.PubSubClient, m metrics.Metrics) SettlementStore {
	return &store{
		db:      db,
		pubsub:  ps,
		metrics: m,
	}
}

func (s *store) SettleMatch(match *battle.Match) (*SettlementResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if match.Status != battle.StatusCompleted {
		return nil, ErrMatchNotComplete
	}

	result := &SettlementResult{MatchID: match.ID, WinnerID: match.WinnerID}

	var settleErr error
	recorded, skipped := 0, 0
	for _, playerID := range []string{match.Player1ID, match.Player2ID} {
		if playerID == battle.AIOpponentID {
			continue
		}
		outcome, err := s.settleSide(match, playerID)
		if err != nil {
			if errors.Is(err, errSideRecorded) {
				skipped++
				continue
			}
			log.Error("Failed to settle match side", "error", err, "matchID", match.ID, "playerID", playerID)
			s.metrics.IncSettlementFailed()
			settleErr = errors.Join(settleErr, err)
			continue
		}
		recorded++
		result.Outcomes = append(result.Outcomes, *outcome)
	}

	if recorded == 0 {
		if skipped > 0 && settleErr == nil {
			return nil, ErrAlreadySettled
		}
		return result, settleErr
	}

	if recorded > 0 {
		if err := s.pubsub.SendMessage(pubsub.TopicMatchSettled, result); err != nil {
			log.Error("Failed to publish settlement event", "error", err, "matchID", match.ID)
		}
		log.Info("Match settled", "matchID", match.ID, "outcomes", len(result.Outcomes))
	}

	return result, settleErr
}

// settleSide records one participant's outcome: history row plus stats upsert
// in a single transaction, so a failure leaves the side fully retryable.
func (s *store) settleSide(match *battle.Match, playerID string) (*PlayerOutcome, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin settlement transaction: %w", err)
	}
	defer tx.Rollback()

	historyID := fmt.Sprintf("%s:%s", match.ID, playerID)
	var exists int
	err = tx.QueryRow(`SELECT COUNT(*) FROM battle_matches WHERE id = ?`, historyID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check match history: %w", err)
	}
	if exists > 0 {
		return nil, errSideRecorded
	}

	result := resultFor(match, playerID)

	stats, err := scanStats(tx.QueryRow(`
		SELECT player_id, trophies, arena_level, total_wins, total_losses, total_draws,
		       win_streak, best_win_streak, highest_trophies, total_cards_unlocked, updated_at
		FROM player_battle_stats WHERE player_id = ?
	`, playerID), playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load player stats: %w", err)
	}

	before := stats.Trophies
	switch result {
	case ResultWin:
		stats.Trophies += TrophyWin
		stats.TotalWins++
		stats.WinStreak++
		stats.BestWinStreak = max(stats.BestWinStreak, stats.WinStreak)
	case ResultLoss:
		stats.Trophies = max(0, stats.Trophies-TrophyLoss)
		stats.TotalLosses++
		stats.WinStreak = 0
	case ResultDraw:
		stats.TotalDraws++
		stats.WinStreak = 0
	}
	stats.HighestTrophies = max(stats.HighestTrophies, stats.Trophies)
	stats.ArenaLevel = ArenaLevel(stats.Trophies)
	stats.UpdatedAt = time.Now().Unix()

	gained, lost := 0, 0
	if stats.Trophies > before {
		gained = stats.Trophies - before
	} else {
		lost = before - stats.Trophies
	}

	opponentID := match.OpponentOf(playerID)
	opponentType := "player"
	if opponentID == battle.AIOpponentID {
		opponentType = "ai"
	}
	duration := int64(0)
	if match.CompletedAt != nil {
		duration = *match.CompletedAt - match.CreatedAt
	}

	_, err = tx.Exec(`
		INSERT INTO battle_matches (id, player_id, opponent_type, opponent_id, result,
			trophies_gained, trophies_lost, duration_seconds, played_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, historyID, playerID, opponentType, opponentID, string(result), gained, lost, duration, time.Now().Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to insert match history: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO player_battle_stats (player_id, trophies, arena_level, total_wins,
			total_losses, total_draws, win_streak, best_win_streak, highest_trophies,
			total_cards_unlocked, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (player_id) DO UPDATE SET
			trophies = excluded.trophies,
			arena_level = excluded.arena_level,
			total_wins = excluded.total_wins,
			total_losses = excluded.total_losses,
			total_draws = excluded.total_draws,
			win_streak = excluded.win_streak,
			best_win_streak = excluded.best_win_streak,
			highest_trophies = excluded.highest_trophies,
			updated_at = excluded.updated_at
	`, stats.PlayerID, stats.Trophies, stats.ArenaLevel, stats.TotalWins, stats.TotalLosses,
		stats.TotalDraws, stats.WinStreak, stats.BestWinStreak, stats.HighestTrophies,
		stats.TotalCardsUnlocked, stats.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert player stats: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit settlement: %w", err)
	}

	return &PlayerOutcome{
		PlayerID:    playerID,
		Result:      result,
		TrophyDelta: stats.Trophies - before,
		Trophies:    stats.Trophies,
	}, nil
}

func (s *store) GetStats(playerID string) (*PlayerStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats, err := scanStats(s.db.QueryRow(`
		SELECT player_id, trophies, arena_level, total_wins, total_losses, total_draws,
		       win_streak, best_win_streak, highest_trophies, total_cards_unlocked, updated_at
		FROM player_battle_stats WHERE player_id = ?
	`, playerID), playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get player stats: %w", err)
	}
	return stats, nil
}

func (s *store) GetMatchHistory(playerID string, limit int) ([]MatchRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT id, player_id, opponent_type, opponent_id, result,
		       trophies_gained, trophies_lost, duration_seconds, played_at
		FROM battle_matches
		WHERE player_id = ?
		ORDER BY played_at DESC
		LIMIT ?
	`, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query match history: %w", err)
	}
	defer rows.Close()

	var records []MatchRecord
	for rows.Next() {
		var r MatchRecord
		var opponentID sql.NullString
		if err := rows.Scan(&r.ID, &r.PlayerID, &r.OpponentType, &opponentID, &r.Result,
			&r.TrophiesGained, &r.TrophiesLost, &r.DurationSeconds, &r.PlayedAt); err != nil {
			return nil, fmt.Errorf("failed to scan match record: %w", err)
		}
		r.OpponentID = opponentID.String
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *store) Leaderboard(limit int) ([]LeaderboardEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.Query(`
		SELECT player_id, trophies, total_wins
		FROM player_battle_stats
		ORDER BY trophies DESC, player_id ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []LeaderboardEntry
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.PlayerID, &e.Trophies, &e.Wins); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		e.Rank = len(entries) + 1
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *store) Rank(playerID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var trophies int
	err := s.db.QueryRow(`SELECT trophies FROM player_battle_stats WHERE player_id = ?`, playerID).Scan(&trophies)
	if err != nil && err != sql.ErrNoRows {
		return 0, fmt.Errorf("failed to get player trophies: %w", err)
	}

	var above int
	err = s.db.QueryRow(`SELECT COUNT(*) FROM player_battle_stats WHERE trophies > ?`, trophies).Scan(&above)
	if err != nil {
		return 0, fmt.Errorf("failed to count higher-ranked players: %w", err)
	}
	return above + 1, nil
}

// resultFor maps the match winner onto one player's perspective.
func resultFor(match *battle.Match, playerID string) Result {
	if match.WinnerID == nil {
		return ResultDraw
	}
	if *match.WinnerID == playerID {
		return ResultWin
	}
	return ResultLoss
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanStats reads one stats row, producing a zeroed record for players who
// have never settled a match.
func scanStats(row rowScanner, playerID string) (*PlayerStats, error) {
	var stats PlayerStats
	err := row.Scan(&stats.PlayerID, &stats.Trophies, &stats.ArenaLevel, &stats.TotalWins,
		&stats.TotalLosses, &stats.TotalDraws, &stats.WinStreak, &stats.BestWinStreak,
		&stats.HighestTrophies, &stats.TotalCardsUnlocked, &stats.UpdatedAt)
	if err == sql.ErrNoRows {
		return &PlayerStats{PlayerID: playerID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
