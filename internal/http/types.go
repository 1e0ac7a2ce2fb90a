package http

import (
	"net/http"

	"github.com/saeedinster/chotto.world/internal/battle"
	"github.com/saeedinster/chotto.world/internal/cards"
	"github.com/saeedinster/chotto.world/internal/config"
	"github.com/saeedinster/chotto.world/internal/friends"
	"github.com/saeedinster/chotto.world/internal/matchmaking"
	"github.com/saeedinster/chotto.world/internal/metrics"
	"github.com/saeedinster/chotto.world/internal/settlement"
)

type Server struct {
	Cards          cards.CardStore
	Matches        battle.MatchStore
	Queue          matchmaking.QueueService
	Settlement     settlement.SettlementStore
	Friends        friends.FriendStore
	Metrics        metrics.Metrics
	MetricsHandler http.Handler
	Cfg            config.Config
	Router         *http.ServeMux

	aiDriver *battle.Driver
	searcher *matchmaking.Searcher
}
