package friends

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/saeedinster/chotto.world/internal/battle"
)

func NewStore(db *sql.DB, matches battle.MatchStore) FriendStore {
	return &store{
		db:      db,
		matches: matches,
	}
}

func (s *store) SendRequest(userID, friendID string) (*Friendship, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if userID == friendID {
		return nil, ErrSelfFriend
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin request transaction: %w", err)
	}
	defer tx.Rollback()

	// An edge in either direction blocks a new request, whatever its status.
	var existing int
	err = tx.QueryRow(`
		SELECT COUNT(*) FROM battle_friends
		WHERE (user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)
	`, userID, friendID, friendID, userID).Scan(&existing)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing friendship: %w", err)
	}
	if existing > 0 {
		return nil, ErrRequestExists
	}

	friendship := &Friendship{
		ID:        uuid.New().String(),
		UserID:    userID,
		FriendID:  friendID,
		Status:    StatusPending,
		CreatedAt: time.Now().Unix(),
	}
	_, err = tx.Exec(`
		INSERT INTO battle_friends (id, user_id, friend_id, status, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, friendship.ID, friendship.UserID, friendship.FriendID, string(friendship.Status), friendship.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert friend request: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit friend request: %w", err)
	}

	log.Info("Friend request sent", "userID", userID, "friendID", friendID)
	return friendship, nil
}

func (s *store) AcceptRequest(userID, requesterID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`
		UPDATE battle_friends SET status = ?
		WHERE user_id = ? AND friend_id = ? AND status = ?
	`, string(StatusAccepted), requesterID, userID, string(StatusPending))
	if err != nil {
		return fmt.Errorf("failed to accept friend request: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read accept result: %w", err)
	}
	if n == 0 {
		return ErrRequestNotFound
	}

	log.Info("Friend request accepted", "userID", userID, "requesterID", requesterID)
	return nil
}

func (s *store) RejectRequest(userID, requesterID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`
		DELETE FROM battle_friends
		WHERE user_id = ? AND friend_id = ? AND status = ?
	`, requesterID, userID, string(StatusPending))
	if err != nil {
		return fmt.Errorf("failed to reject friend request: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read reject result: %w", err)
	}
	if n == 0 {
		return ErrRequestNotFound
	}
	return nil
}

func (s *store) RemoveFriend(userID, friendID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`
		DELETE FROM battle_friends
		WHERE status = ?
		  AND ((user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?))
	`, string(StatusAccepted), userID, friendID, friendID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove friend: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read removal result: %w", err)
	}
	if n == 0 {
		return ErrNotFriends
	}
	return nil
}

func (s *store) ListFriends(userID string) ([]Friendship, error) {
	return s.list(`
		SELECT id, user_id, friend_id, status, created_at FROM battle_friends
		WHERE status = ? AND (user_id = ? OR friend_id = ?)
		ORDER BY created_at ASC
	`, string(StatusAccepted), userID, userID)
}

func (s *store) ListRequests(userID string) ([]Friendship, error) {
	return s.list(`
		SELECT id, user_id, friend_id, status, created_at FROM battle_friends
		WHERE status = ? AND friend_id = ?
		ORDER BY created_at ASC
	`, string(StatusPending), userID)
}

func (s *store) list(query string, args ...any) ([]Friendship, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query friendships: %w", err)
	}
	defer rows.Close()

	var friendships []Friendship
	for rows.Next() {
		var f Friendship
		if err := rows.Scan(&f.ID, &f.UserID, &f.FriendID, &f.Status, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan friendship: %w", err)
		}
		friendships = append(friendships, f)
	}
	return friendships, rows.Err()
}

func (s *store) Challenge(challengerID, friendID string) (*battle.Match, error) {
	s.mu.Lock()

	var accepted int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM battle_friends
		WHERE status = ?
		  AND ((user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?))
	`, string(StatusAccepted), challengerID, friendID, friendID, challengerID).Scan(&accepted)
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to check friendship: %w", err)
	}
	if accepted == 0 {
		return nil, ErrNotFriends
	}

	match, err := s.matches.CreateMatch(challengerID, friendID, false)
	if err != nil {
		return nil, fmt.Errorf("failed to create challenge match: %w", err)
	}

	log.Info("Friend challenge started", "matchID", match.ID, "challenger", challengerID, "friend", friendID)
	return match, nil
}
