package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/saeedinster/chotto.world/internal/battle"
	"github.com/saeedinster/chotto.world/internal/cards"
	"github.com/saeedinster/chotto.world/internal/config"
	"github.com/saeedinster/chotto.world/internal/database"
	"github.com/saeedinster/chotto.world/internal/friends"
	"github.com/saeedinster/chotto.world/internal/matchmaking"
	"github.com/saeedinster/chotto.world/internal/metrics"
	"github.com/saeedinster/chotto.world/internal/pubsub"
	"github.com/saeedinster/chotto.world/internal/settlement"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestServer initializes a new server with a test database and a seeded
// card catalog.
func setupTestServer(t *testing.T) (*Server, func()) {
	t.Helper()

	db, dbTeardown, err := database.InitDB(":memory:", "", "", "../../migrations")
	require.NoError(t, err)

	cardStore := cards.New(db)
	require.NoError(t, cardStore.SeedCatalog(cards.DefaultCatalog()))

	reg := prometheus.NewRegistry()
	metricsSvc := metrics.NewService(reg)
	metricsHandler := metrics.NewMetricsHandler(reg)
	ps := pubsub.NewMock()

	matchStore := battle.NewStore(db, ps, metricsSvc)
	queue := matchmaking.NewStore(db, matchStore, ps, matchmaking.DefaultTrophyWindow)
	settlementStore := settlement.NewStore(db, ps, metricsSvc)
	friendStore := friends.NewStore(db, matchStore)

	server := NewServer(cardStore, matchStore, queue, settlementStore, friendStore, metricsSvc, metricsHandler, config.Config{}, ps)

	return server, dbTeardown
}

func doRequest(t *testing.T, server *Server, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, target, reader)
	rr := httptest.NewRecorder()
	server.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&v))
	return v
}

func cardIDByName(t *testing.T, server *Server, name string) string {
	t.Helper()
	catalog, err := server.Cards.GetCatalog()
	require.NoError(t, err)
	for _, card := range catalog {
		if card.Name == name {
			return card.ID
		}
	}
	t.Fatalf("card %q not in catalog", name)
	return ""
}

func TestHealthCheckHandler(t *testing.T) {
	server, teardown := setupTestServer(t)
	defer teardown()

	rr := doRequest(t, server, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "OK!", rr.Body.String())
}

func TestCardCatalogEndpoint(t *testing.T) {
	server, teardown := setupTestServer(t)
	defer teardown()

	rr := doRequest(t, server, http.MethodGet, "/cards", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	catalog := decodeBody[[]cards.BattleCard](t, rr)
	assert.Len(t, catalog, 16)
}

func TestStarterCardsEndpoint(t *testing.T) {
	server, teardown := setupTestServer(t)
	defer teardown()

	rr := doRequest(t, server, http.MethodPost, "/cards/starter?playerID=alice", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	granted := decodeBody[map[string]int](t, rr)
	assert.Equal(t, 6, granted["granted"])

	// A second grant is a no-op.
	rr = doRequest(t, server, http.MethodPost, "/cards/starter?playerID=alice", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	granted = decodeBody[map[string]int](t, rr)
	assert.Equal(t, 0, granted["granted"])

	rr = doRequest(t, server, http.MethodGet, "/cards?playerID=alice", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	owned := decodeBody[[]cards.OwnedCard](t, rr)
	assert.Len(t, owned, 6)
}

func TestStarterCardsMissingPlayer(t *testing.T) {
	server, teardown := setupTestServer(t)
	defer teardown()

	rr := doRequest(t, server, http.MethodPost, "/cards/starter", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUpgradeCardEndpoint(t *testing.T) {
	server, teardown := setupTestServer(t)
	defer teardown()

	doRequest(t, server, http.MethodPost, "/cards/starter?playerID=alice", nil)
	knightID := cardIDByName(t, server, "Knight")
	require.NoError(t, server.Cards.GrantCard("alice", knightID, 10))

	rr := doRequest(t, server, http.MethodPost, "/cards/upgrade", map[string]string{
		"player_id": "alice",
		"card_id":   knightID,
	})
	require.Equal(t, http.StatusOK, rr.Code)
	upgraded := decodeBody[cards.PlayerCard](t, rr)
	assert.Equal(t, 2, upgraded.Level)

	// Not enough copies for the next level.
	rr = doRequest(t, server, http.MethodPost, "/cards/upgrade", map[string]string{
		"player_id": "alice",
		"card_id":   knightID,
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUpgradeUnownedCard(t *testing.T) {
	server, teardown := setupTestServer(t)
	defer teardown()

	knightID := cardIDByName(t, server, "Knight")
	rr := doRequest(t, server, http.MethodPost, "/cards/upgrade", map[string]string{
		"player_id": "ghost",
		"card_id":   knightID,
	})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestMatchmakingFlow(t *testing.T) {
	server, teardown := setupTestServer(t)
	defer teardown()

	rr := doRequest(t, server, http.MethodPost, "/matchmaking/enqueue?playerID=alice", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	entry := decodeBody[matchmaking.QueueEntry](t, rr)
	assert.Equal(t, matchmaking.StatusWaiting, entry.Status)

	rr = doRequest(t, server, http.MethodPost, "/matchmaking/enqueue?playerID=bob", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doRequest(t, server, http.MethodPost, "/matchmaking/search?playerID=alice", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	result := decodeBody[matchmaking.PairResult](t, rr)
	assert.Equal(t, "bob", result.OpponentID)
	require.NotEmpty(t, result.MatchID)

	rr = doRequest(t, server, http.MethodGet, "/battle/state?playerID=alice", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	match := decodeBody[battle.Match](t, rr)
	assert.Equal(t, result.MatchID, match.ID)
	assert.Equal(t, "alice", match.CurrentTurn)

	// The counterpart's poll resolves to the same match.
	rr = doRequest(t, server, http.MethodPost, "/matchmaking/search?playerID=bob", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	bobResult := decodeBody[matchmaking.PairResult](t, rr)
	assert.Equal(t, result.MatchID, bobResult.MatchID)

	rr = doRequest(t, server, http.MethodPost, "/matchmaking/cancel?playerID=alice", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestSearchWhileWaiting(t *testing.T) {
	server, teardown := setupTestServer(t)
	defer teardown()

	doRequest(t, server, http.MethodPost, "/matchmaking/enqueue?playerID=alice", nil)

	rr := doRequest(t, server, http.MethodPost, "/matchmaking/search?playerID=alice", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	status := decodeBody[map[string]string](t, rr)
	assert.Equal(t, "waiting", status["status"])
}

func TestSearchWaitPairsImmediately(t *testing.T) {
	server, teardown := setupTestServer(t)
	defer teardown()

	doRequest(t, server, http.MethodPost, "/matchmaking/enqueue?playerID=alice", nil)
	doRequest(t, server, http.MethodPost, "/matchmaking/enqueue?playerID=bob", nil)

	// Both players are queued, so the first scan pairs without blocking.
	rr := doRequest(t, server, http.MethodPost, "/matchmaking/search?playerID=alice&wait=true", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	result := decodeBody[matchmaking.PairResult](t, rr)
	assert.Equal(t, "bob", result.OpponentID)
}

func TestSearchNotQueued(t *testing.T) {
	server, teardown := setupTestServer(t)
	defer teardown()

	rr := doRequest(t, server, http.MethodPost, "/matchmaking/search?playerID=ghost", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSoloBattleFlow(t *testing.T) {
	server, teardown := setupTestServer(t)
	defer teardown()

	doRequest(t, server, http.MethodPost, "/cards/starter?playerID=alice", nil)

	rr := doRequest(t, server, http.MethodPost, "/battle/solo?playerID=alice", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	match := decodeBody[battle.Match](t, rr)
	assert.True(t, match.Solo)
	assert.Equal(t, "alice", match.CurrentTurn)
	assert.Equal(t, battle.AIOpponentID, match.Player2ID)

	knightID := cardIDByName(t, server, "Knight")
	rr = doRequest(t, server, http.MethodPost, "/battle/play", map[string]string{
		"match_id":  match.ID,
		"player_id": "alice",
		"card_id":   knightID,
	})
	require.Equal(t, http.StatusOK, rr.Code)
	afterPlay := decodeBody[battle.Match](t, rr)
	assert.Equal(t, battle.AIOpponentID, afterPlay.CurrentTurn)
	assert.Equal(t, 1, afterPlay.TurnNumber)
	require.Len(t, afterPlay.Units, 1)

	rr = doRequest(t, server, http.MethodPost, "/battle/ai-turn?matchID="+match.ID, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	afterAI := decodeBody[battle.Match](t, rr)
	assert.Equal(t, "alice", afterAI.CurrentTurn)
	assert.Equal(t, 2, afterAI.TurnNumber)
}

func TestPlayCardDryRunLeavesMatchUntouched(t *testing.T) {
	server, teardown := setupTestServer(t)
	defer teardown()

	doRequest(t, server, http.MethodPost, "/cards/starter?playerID=alice", nil)
	rr := doRequest(t, server, http.MethodPost, "/battle/solo?playerID=alice", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	match := decodeBody[battle.Match](t, rr)

	knightID := cardIDByName(t, server, "Knight")
	rr = doRequest(t, server, http.MethodPost, "/battle/play?dry_run=true", map[string]string{
		"match_id":  match.ID,
		"player_id": "alice",
		"card_id":   knightID,
	})
	require.Equal(t, http.StatusOK, rr.Code)
	preview := decodeBody[battle.Match](t, rr)
	assert.Equal(t, 1, preview.TurnNumber)

	rr = doRequest(t, server, http.MethodGet, "/battle/state?matchID="+match.ID, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	persisted := decodeBody[battle.Match](t, rr)
	assert.Equal(t, 0, persisted.TurnNumber)
	assert.Equal(t, "alice", persisted.CurrentTurn)
}

func TestPlayCardNotOwned(t *testing.T) {
	server, teardown := setupTestServer(t)
	defer teardown()

	rr := doRequest(t, server, http.MethodPost, "/battle/solo?playerID=alice", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	match := decodeBody[battle.Match](t, rr)

	knightID := cardIDByName(t, server, "Knight")
	rr = doRequest(t, server, http.MethodPost, "/battle/play", map[string]string{
		"match_id":  match.ID,
		"player_id": "alice",
		"card_id":   knightID,
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestPlayCardOutOfTurn(t *testing.T) {
	server, teardown := setupTestServer(t)
	defer teardown()

	doRequest(t, server, http.MethodPost, "/cards/starter?playerID=alice", nil)
	rr := doRequest(t, server, http.MethodPost, "/battle/solo?playerID=alice", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	match := decodeBody[battle.Match](t, rr)

	knightID := cardIDByName(t, server, "Knight")
	play := map[string]string{"match_id": match.ID, "player_id": "alice", "card_id": knightID}

	rr = doRequest(t, server, http.MethodPost, "/battle/play", play)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doRequest(t, server, http.MethodPost, "/battle/play", play)
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestAITurnRejectsVersusMatch(t *testing.T) {
	server, teardown := setupTestServer(t)
	defer teardown()

	match, err := server.Matches.CreateMatch("alice", "bob", false)
	require.NoError(t, err)

	rr := doRequest(t, server, http.MethodPost, "/battle/ai-turn?matchID="+match.ID, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSettleEndpointRejectsActiveMatch(t *testing.T) {
	server, teardown := setupTestServer(t)
	defer teardown()

	rr := doRequest(t, server, http.MethodPost, "/battle/solo?playerID=alice", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	match := decodeBody[battle.Match](t, rr)

	rr = doRequest(t, server, http.MethodPost, "/battle/settle?matchID="+match.ID, nil)
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestLeaderboardAndStatsEndpoints(t *testing.T) {
	server, teardown := setupTestServer(t)
	defer teardown()

	winner := "alice"
	completedAt := int64(1700000100)
	_, err := server.Settlement.SettleMatch(&battle.Match{
		ID:          "m1",
		Player1ID:   "alice",
		Player2ID:   "bob",
		Status:      battle.StatusCompleted,
		WinnerID:    &winner,
		CreatedAt:   1700000000,
		CompletedAt: &completedAt,
	})
	require.NoError(t, err)

	rr := doRequest(t, server, http.MethodGet, "/leaderboard?limit=5", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	entries := decodeBody[[]settlement.LeaderboardEntry](t, rr)
	require.Len(t, entries, 2)
	assert.Equal(t, "alice", entries[0].PlayerID)
	assert.Equal(t, 30, entries[0].Trophies)

	rr = doRequest(t, server, http.MethodGet, "/stats?playerID=alice", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var stats struct {
		Stats   settlement.PlayerStats   `json:"stats"`
		Rank    int                      `json:"rank"`
		History []settlement.MatchRecord `json:"history"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&stats))
	assert.Equal(t, 30, stats.Stats.Trophies)
	assert.Equal(t, 1, stats.Rank)
	assert.Len(t, stats.History, 1)
}

func TestFriendsEndpoints(t *testing.T) {
	server, teardown := setupTestServer(t)
	defer teardown()

	rr := doRequest(t, server, http.MethodPost, "/friends/request", map[string]string{
		"user_id":   "alice",
		"friend_id": "bob",
	})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doRequest(t, server, http.MethodPost, "/friends/request", map[string]string{
		"user_id":   "bob",
		"friend_id": "alice",
	})
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = doRequest(t, server, http.MethodPost, "/friends/respond", map[string]any{
		"user_id":      "bob",
		"requester_id": "alice",
		"accept":       true,
	})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doRequest(t, server, http.MethodGet, "/friends?playerID=alice", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var listing struct {
		Friends  []friends.Friendship `json:"friends"`
		Requests []friends.Friendship `json:"requests"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&listing))
	require.Len(t, listing.Friends, 1)
	assert.Empty(t, listing.Requests)

	rr = doRequest(t, server, http.MethodPost, "/friends/challenge", map[string]string{
		"challenger_id": "bob",
		"friend_id":     "alice",
	})
	require.Equal(t, http.StatusOK, rr.Code)
	match := decodeBody[battle.Match](t, rr)
	assert.Equal(t, "bob", match.Player1ID)
	assert.Equal(t, "bob", match.CurrentTurn)

	rr = doRequest(t, server, http.MethodPost, "/friends/challenge", map[string]string{
		"challenger_id": "bob",
		"friend_id":     "carol",
	})
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestChallengeRejectsUnknownFriend(t *testing.T) {
	server, teardown := setupTestServer(t)
	defer teardown()

	rr := doRequest(t, server, http.MethodPost, "/friends/challenge", map[string]string{
		"challenger_id": "alice",
		"friend_id":     "bob",
	})
	assert.Equal(t, http.StatusForbidden, rr.Code)
}
