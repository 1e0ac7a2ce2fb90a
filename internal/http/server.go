package http

import (
	"math/rand"
	"net/http"
	"time"

	"github.com/saeedinster/chotto.world/internal/battle"
	"github.com/saeedinster/chotto.world/internal/cards"
	"github.com/saeedinster/chotto.world/internal/config"
	"github.com/saeedinster/chotto.world/internal/friends"
	"github.com/saeedinster/chotto.world/internal/matchmaking"
	"github.com/saeedinster/chotto.world/internal/metrics"
	"github.com/saeedinster/chotto.world/internal/pubsub"
	"github.com/saeedinster/chotto.world/internal/settlement"
)

func NewServer(cardStore cards.CardStore, matchStore battle.MatchStore, queue matchmaking.QueueService, settlementStore settlement.SettlementStore, friendStore friends.FriendStore, metricsSvc metrics.Metrics, metricsHandler http.Handler, cfg config.Config, ps pubsub.PubSubClient) *Server {
	server := &Server{
		Cards:          cardStore,
		Matches:        matchStore,
		Queue:          queue,
		Settlement:     settlementStore,
		Friends:        friendStore,
		Metrics:        metricsSvc,
		MetricsHandler: metricsHandler,
		Cfg:            cfg,
		Router:         http.NewServeMux(),
		aiDriver:       battle.NewDriver(rand.NewSource(time.Now().UnixNano())),
		searcher:       matchmaking.NewSearcher(queue, ps, metricsSvc, cfg.Matchmaking.SearchInterval),
	}

	server.routes()
	return server
}

func (s *Server) routes() {
	// All handlers are wrapped with middleware using the Chain helper.
	// This makes it easy to add more middlewares in the future, like an
	// authentication middleware.
	s.Router.Handle("/metrics", s.MetricsHandler)
	s.Router.Handle("/health", Chain(s.HealthCheckHandler(), paramsMiddleware))
	s.Router.Handle("/cards", Chain(s.ListCardsHandler(), paramsMiddleware))
	s.Router.Handle("/cards/starter", Chain(s.StarterCardsHandler(), paramsMiddleware))
	s.Router.Handle("/cards/upgrade", Chain(s.UpgradeCardHandler(), paramsMiddleware))
	s.Router.Handle("/matchmaking/enqueue", Chain(s.EnqueueHandler(), paramsMiddleware))
	s.Router.Handle("/matchmaking/search", Chain(s.SearchHandler(), paramsMiddleware))
	s.Router.Handle("/matchmaking/cancel", Chain(s.CancelHandler(), paramsMiddleware))
	s.Router.Handle("/battle/state", Chain(s.BattleStateHandler(), paramsMiddleware))
	s.Router.Handle("/battle/play", Chain(s.PlayCardHandler(), paramsMiddleware))
	s.Router.Handle("/battle/solo", Chain(s.SoloBattleHandler(), paramsMiddleware))
	s.Router.Handle("/battle/ai-turn", Chain(s.AITurnHandler(), paramsMiddleware))
	s.Router.Handle("/battle/settle", Chain(s.SettleHandler(), paramsMiddleware))
	s.Router.Handle("/leaderboard", Chain(s.LeaderboardHandler(), paramsMiddleware))
	s.Router.Handle("/stats", Chain(s.PlayerStatsHandler(), paramsMiddleware))
	s.Router.Handle("/friends", Chain(s.ListFriendsHandler(), paramsMiddleware))
	s.Router.Handle("/friends/request", Chain(s.FriendRequestHandler(), paramsMiddleware))
	s.Router.Handle("/friends/respond", Chain(s.FriendRespondHandler(), paramsMiddleware))
	s.Router.Handle("/friends/challenge", Chain(s.ChallengeHandler(), paramsMiddleware))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}
