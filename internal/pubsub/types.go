package pubsub

import "cloud.google.com/go/pubsub"

type client struct {
	client   *pubsub.Client
	teardown func()
}

// Topic identifies a pubsub topic used for change notifications.
type Topic string

const (
	// TopicMatchUpdated carries the full live match record after every
	// accepted play, so the opposing client sees the new state without polling.
	TopicMatchUpdated Topic = "battle-match-updated"
	// TopicMatchFound notifies a queued player that the counterpart side
	// paired them while they were between polls.
	TopicMatchFound Topic = "matchmaking-match-found"
	// TopicMatchSettled carries settlement results (trophies, streaks).
	TopicMatchSettled Topic = "battle-match-settled"
)
