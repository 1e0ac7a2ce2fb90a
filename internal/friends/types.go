package friends

import (
	"database/sql"
	"errors"
	"sync"

	"github.com/saeedinster/chotto.world/internal/battle"
)

// store handles database operations for the friends graph.
type store struct {
	db      *sql.DB
	matches battle.MatchStore
	mu      sync.Mutex
}

// FriendStatus is the lifecycle state of a friendship row.
type FriendStatus string

const (
	StatusPending  FriendStatus = "pending"
	StatusAccepted FriendStatus = "accepted"
)

var (
	ErrSelfFriend      = errors.New("cannot befriend yourself")
	ErrRequestExists   = errors.New("a friendship or request already exists between these players")
	ErrRequestNotFound = errors.New("friend request not found")
	ErrNotFriends      = errors.New("players are not friends")
)

// Friendship is one edge in the friends graph. The user is the side that
// sent the request.
type Friendship struct {
	ID        string       `json:"id"`
	UserID    string       `json:"user_id"`
	FriendID  string       `json:"friend_id"`
	Status    FriendStatus `json:"status"`
	CreatedAt int64        `json:"created_at"`
}
