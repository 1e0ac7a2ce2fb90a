package metrics

// Metrics defines the interface for collecting application metrics.
// This decouples the application from the specific metrics implementation (e.g., Prometheus).
type Metrics interface {
	IncMatchesCreated()
	IncMatchesCompleted()
	IncPlaysAccepted()
	IncPlaysRejected()
	ObserveQueueWaitDuration(duration float64)
	IncSettlementFailed()
	SetStartupTime(duration float64)
}
