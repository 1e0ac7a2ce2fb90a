package matchmaking

// QueueService manages the matchmaking queue. Each player's entry is
// independently keyed, so a failed mutation never corrupts other entries.
type QueueService interface {
	// Enqueue removes any stale entry for the player and inserts a fresh
	// waiting entry with a trophy window around their count.
	Enqueue(playerID string, trophies int) (*QueueEntry, error)

	// Search scans for a compatible waiting opponent. On success both entries
	// are claimed, a live match is created with the searcher holding the
	// first turn, both entries are deleted and the counterpart is notified
	// on the change feed. Returns (nil, nil) when no candidate is available,
	// and ErrNotQueued when the searcher has no waiting entry.
	Search(playerID string) (*PairResult, error)

	// Cancel deletes the player's queue entry. Canceling without an entry is
	// a no-op, not an error.
	Cancel(playerID string) error

	// GetEntry returns the player's queue entry, or ErrNotQueued.
	GetEntry(playerID string) (*QueueEntry, error)
}
