package metrics

import "github.com/prometheus/client_golang/prometheus"

// Service holds all the Prometheus metrics for the application.
// By defining them all in one place, we ensure consistency in naming and labeling.
type Service struct {
	MatchesCreated     prometheus.Counter
	MatchesCompleted   prometheus.Counter
	PlaysAccepted      prometheus.Counter
	PlaysRejected      prometheus.Counter
	QueueWaitDuration  prometheus.Histogram
	SettlementFailed   prometheus.Counter
	StartupTimeSeconds prometheus.Gauge
}
