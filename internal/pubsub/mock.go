package pubsub

import (
	"context"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// MockPubSubClient is a mock implementation of PubSubClient for testing.
// It is safe for concurrent use.
type MockPubSubClient struct {
	mu sync.Mutex

	// Spies for method calls
	SendMessageFunc func(topic Topic, data any) error

	// Call records
	SendMessageCalls []SendMessageCall

	// Handlers registered via Subscribe, keyed by subscription ID. Tests can
	// inject messages with Deliver.
	handlers map[string]func(data []byte)
	done     map[string]chan struct{}
}

// SendMessageCall holds the arguments for a call to SendMessage.
type SendMessageCall struct {
	Topic string
	Data  any
}

// NewMock creates a new mock PubSubClient.
func NewMock() *MockPubSubClient {
	return &MockPubSubClient{
		handlers: make(map[string]func(data []byte)),
		done:     make(map[string]chan struct{}),
	}
}

// Reset clears all call records.
func (m *MockPubSubClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendMessageCalls = nil
}

// SendMessage records the call and executes the mock function if provided.
func (m *MockPubSubClient) SendMessage(topic Topic, data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendMessageCalls = append(m.SendMessageCalls, SendMessageCall{Topic: string(topic), Data: data})
	if m.SendMessageFunc != nil {
		return m.SendMessageFunc(topic, data)
	}
	return nil
}

// Subscribe registers the handler and blocks until ctx is cancelled,
// mirroring the real client's Receive semantics.
func (m *MockPubSubClient) Subscribe(ctx context.Context, subscriptionID string, handler func(data []byte)) error {
	m.mu.Lock()
	m.handlers[subscriptionID] = handler
	m.mu.Unlock()

	<-ctx.Done()

	m.mu.Lock()
	delete(m.handlers, subscriptionID)
	m.mu.Unlock()
	return nil
}

// Deliver pushes a msgpack-encoded payload to a registered subscription handler.
// Returns false if no handler is registered.
func (m *MockPubSubClient) Deliver(subscriptionID string, data any) bool {
	m.mu.Lock()
	handler, ok := m.handlers[subscriptionID]
	m.mu.Unlock()
	if !ok {
		return false
	}
	payload, err := msgpack.Marshal(data)
	if err != nil {
		return false
	}
	handler(payload)
	return true
}

// HasSubscriber reports whether a handler is currently registered.
func (m *MockPubSubClient) HasSubscriber(subscriptionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.handlers[subscriptionID]
	return ok
}

// ProcessMessage unmarshals the payload like the real client.
func (m *MockPubSubClient) ProcessMessage(data []byte, returnValue any) error {
	return msgpack.Unmarshal(data, returnValue)
}

// Close is a no-op for the mock.
func (m *MockPubSubClient) Close() {}
