package pubsub

import "context"

// PubSubClient is the change-notification collaborator. Publishers push
// updated records onto a topic; interested clients receive them through a
// subscription instead of polling the database.
type PubSubClient interface {
	SendMessage(topic Topic, data any) error
	// Subscribe blocks, delivering each message payload to handler until ctx
	// is cancelled.
	Subscribe(ctx context.Context, subscriptionID string, handler func(data []byte)) error
	ProcessMessage(data []byte, returnValue any) error
	Close()
}
