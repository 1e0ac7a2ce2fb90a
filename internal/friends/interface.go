package friends

import "github.com/saeedinster/chotto.world/internal/battle"

// FriendStore manages the friends graph and friend challenges.
type FriendStore interface {
	// SendRequest creates a pending friendship from user to friend. Rejects
	// self-friending and duplicates in either direction.
	SendRequest(userID, friendID string) (*Friendship, error)

	// AcceptRequest accepts a pending request that requester sent to user.
	AcceptRequest(userID, requesterID string) error

	// RejectRequest removes a pending request that requester sent to user.
	RejectRequest(userID, requesterID string) error

	// RemoveFriend deletes an accepted friendship in whichever direction it
	// was stored.
	RemoveFriend(userID, friendID string) error

	// ListFriends returns all accepted friendships touching the user.
	ListFriends(userID string) ([]Friendship, error)

	// ListRequests returns pending requests waiting on the user's answer.
	ListRequests(userID string) ([]Friendship, error)

	// Challenge starts a live match between two accepted friends, with the
	// challenger holding the first turn.
	Challenge(challengerID, friendID string) (*battle.Match, error)
}
