package metrics

import "sync"

// Mock is a mock implementation of the Metrics interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu                 sync.Mutex
	matchesCreated     int
	matchesCompleted   int
	playsAccepted      int
	playsRejected      int
	queueWaitDurations []float64
	settlementFailed   int
	startupTime        float64
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{
		queueWaitDurations: make([]float64, 0),
	}
}

func (m *Mock) IncMatchesCreated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matchesCreated++
}

func (m *Mock) IncMatchesCompleted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matchesCompleted++
}

func (m *Mock) IncPlaysAccepted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playsAccepted++
}

func (m *Mock) IncPlaysRejected() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playsRejected++
}

func (m *Mock) ObserveQueueWaitDuration(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queueWaitDurations = append(m.queueWaitDurations, duration)
}

func (m *Mock) IncSettlementFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settlementFailed++
}

func (m *Mock) SetStartupTime(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startupTime = duration
}

// MatchesCreated returns the number of times IncMatchesCreated was called.
func (m *Mock) MatchesCreated() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.matchesCreated
}

// MatchesCompleted returns the number of times IncMatchesCompleted was called.
func (m *Mock) MatchesCompleted() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.matchesCompleted
}

// PlaysRejected returns the number of times IncPlaysRejected was called.
func (m *Mock) PlaysRejected() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playsRejected
}

// SettlementFailed returns the number of times IncSettlementFailed was called.
func (m *Mock) SettlementFailed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settlementFailed
}
