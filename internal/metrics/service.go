package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ Metrics = (*Service)(nil)

// NewMetricsHandler returns an http.Handler for the given Gatherer.
// If no gatherer is provided, it uses the default one.
func NewMetricsHandler(gatherer ...prometheus.Gatherer) http.Handler {
	gath := prometheus.DefaultGatherer
	if len(gatherer) > 0 {
		gath = gatherer[0]
	}
	return promhttp.HandlerFor(gath, promhttp.HandlerOpts{})
}

// NewService creates and registers the Prometheus metrics.
// If no registerer is provided, it uses the default Prometheus registerer.
func NewService(registerer ...prometheus.Registerer) *Service {
	reg := prometheus.DefaultRegisterer
	if len(registerer) > 0 {
		reg = registerer[0]
	}

	s := &Service{
		MatchesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "battle_matches_created_total",
			Help: "The total number of live matches created.",
		}),
		MatchesCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "battle_matches_completed_total",
			Help: "The total number of matches that reached a terminal state.",
		}),
		PlaysAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "battle_plays_accepted_total",
			Help: "The total number of card plays accepted by the state machine.",
		}),
		PlaysRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "battle_plays_rejected_total",
			Help: "The total number of card plays rejected by precondition checks.",
		}),
		QueueWaitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "battle_matchmaking_wait_seconds",
			Help:    "Time a player spent in the matchmaking queue before pairing.",
			Buckets: []float64{1, 3, 5, 10, 30, 60, 120, 300},
		}),
		SettlementFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "battle_settlement_failures_total",
			Help: "The total number of settlement updates that failed and need retry.",
		}),
		StartupTimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "battle_startup_duration_seconds",
			Help: "The duration of the application startup in seconds.",
		}),
	}

	reg.MustRegister(
		s.MatchesCreated,
		s.MatchesCompleted,
		s.PlaysAccepted,
		s.PlaysRejected,
		s.QueueWaitDuration,
		s.SettlementFailed,
		s.StartupTimeSeconds,
	)

	return s
}

func (s *Service) IncMatchesCreated() {
	s.MatchesCreated.Inc()
}

func (s *Service) IncMatchesCompleted() {
	s.MatchesCompleted.Inc()
}

func (s *Service) IncPlaysAccepted() {
	s.PlaysAccepted.Inc()
}

func (s *Service) IncPlaysRejected() {
	s.PlaysRejected.Inc()
}

func (s *Service) ObserveQueueWaitDuration(duration float64) {
	s.QueueWaitDuration.Observe(duration)
}

func (s *Service) IncSettlementFailed() {
	s.SettlementFailed.Inc()
}

func (s *Service) SetStartupTime(duration float64) {
	s.StartupTimeSeconds.Set(duration)
}
