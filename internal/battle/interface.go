package battle

// MatchStore defines the persistence operations for live matches. All writes
// that advance a match are guarded on the turn number, so a stale client's
// write is rejected instead of silently winning "last write wins".
type MatchStore interface {
	// CreateMatch creates an active match with full health, full elixir and
	// the first player holding the turn.
	CreateMatch(player1ID, player2ID string, solo bool) (*Match, error)

	// GetMatch returns a match by id, or ErrMatchNotFound.
	GetMatch(matchID string) (*Match, error)

	// GetActiveMatchForPlayer returns the active match the player is in, or
	// ErrMatchNotFound.
	GetActiveMatchForPlayer(playerID string) (*Match, error)

	// SubmitPlay validates and applies a play intent, persists the next state
	// guarded on the current turn number and publishes the updated match on
	// the change feed. Returns ErrStaleTurn when a concurrent write landed
	// between read and write.
	SubmitPlay(matchID string, play PlayCard) (*Match, error)

	// SubmitTurn persists an externally computed transition (the AI driver's
	// round) with the same turn-number guard and change-feed publish.
	// prevTurnNumber is the turn number the transition was computed from.
	SubmitTurn(next *Match, prevTurnNumber int) (*Match, error)
}
