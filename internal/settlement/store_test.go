package settlement_test

import (
	"fmt"
	"testing"

	"github.com/saeedinster/chotto.world/internal/battle"
	"github.com/saeedinster/chotto.world/internal/database"
	"github.com/saeedinster/chotto.world/internal/metrics"
	"github.com/saeedinster/chotto.world/internal/pubsub"
	"github.com/saeedinster/chotto.world/internal/settlement"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) (settlement.SettlementStore, *pubsub.MockPubSubClient, func()) {
	t.Helper()

	db, dbTeardown, err := database.InitDB(":memory:", "", "", "../../migrations")
	require.NoError(t, err)

	ps := pubsub.NewMock()
	store := settlement.NewStore(db, ps, metrics.NewMock())

	return store, ps, dbTeardown
}

func completedMatch(id, player1, player2 string, winner *string) *battle.Match {
	completedAt := int64(1700000180)
	return &battle.Match{
		ID:            id,
		Player1ID:     player1,
		Player2ID:     player2,
		Status:        battle.StatusCompleted,
		WinnerID:      winner,
		CreatedAt:     1700000000,
		LastActionAt:  completedAt,
		CompletedAt:   &completedAt,
	}
}

func strPtr(s string) *string { return &s }

func TestSettleWinnerAndLoser(t *testing.T) {
	store, ps, teardown := setupTestStore(t)
	defer teardown()

	result, err := store.SettleMatch(completedMatch("m1", "alice", "bob", strPtr("alice")))
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 2)

	aliceStats, err := store.GetStats("alice")
	require.NoError(t, err)
	assert.Equal(t, 30, aliceStats.Trophies)
	assert.Equal(t, 1, aliceStats.TotalWins)
	assert.Equal(t, 1, aliceStats.WinStreak)
	assert.Equal(t, 30, aliceStats.HighestTrophies)

	// Bob starts at zero, so the loss deduction clamps instead of going negative.
	bobStats, err := store.GetStats("bob")
	require.NoError(t, err)
	assert.Equal(t, 0, bobStats.Trophies)
	assert.Equal(t, 1, bobStats.TotalLosses)
	assert.Equal(t, 0, bobStats.WinStreak)

	published := false
	for _, call := range ps.SendMessageCalls {
		if call.Topic == string(pubsub.TopicMatchSettled) {
			published = true
		}
	}
	assert.True(t, published)
}

func TestSettleDeductsFromExistingTrophies(t *testing.T) {
	store, _, teardown := setupTestStore(t)
	defer teardown()

	_, err := store.SettleMatch(completedMatch("m1", "alice", "bob", strPtr("bob")))
	require.NoError(t, err)
	_, err = store.SettleMatch(completedMatch("m2", "alice", "bob", strPtr("alice")))
	require.NoError(t, err)

	bobStats, err := store.GetStats("bob")
	require.NoError(t, err)
	assert.Equal(t, 15, bobStats.Trophies)
	assert.Equal(t, 1, bobStats.TotalWins)
	assert.Equal(t, 1, bobStats.TotalLosses)
	assert.Equal(t, 0, bobStats.WinStreak)
	assert.Equal(t, 30, bobStats.HighestTrophies)
}

func TestSettleIsIdempotent(t *testing.T) {
	store, _, teardown := setupTestStore(t)
	defer teardown()

	match := completedMatch("m1", "alice", "bob", strPtr("alice"))
	_, err := store.SettleMatch(match)
	require.NoError(t, err)

	_, err = store.SettleMatch(match)
	assert.ErrorIs(t, err, settlement.ErrAlreadySettled)

	aliceStats, err := store.GetStats("alice")
	require.NoError(t, err)
	assert.Equal(t, 30, aliceStats.Trophies)
}

func TestSettleRejectsActiveMatch(t *testing.T) {
	store, _, teardown := setupTestStore(t)
	defer teardown()

	match := completedMatch("m1", "alice", "bob", nil)
	match.Status = battle.StatusActive
	match.CompletedAt = nil

	_, err := store.SettleMatch(match)
	assert.ErrorIs(t, err, settlement.ErrMatchNotComplete)
}

func TestSettleDraw(t *testing.T) {
	store, _, teardown := setupTestStore(t)
	defer teardown()

	result, err := store.SettleMatch(completedMatch("m1", "alice", "bob", nil))
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 2)
	assert.Equal(t, settlement.ResultDraw, result.Outcomes[0].Result)

	aliceStats, err := store.GetStats("alice")
	require.NoError(t, err)
	assert.Equal(t, 0, aliceStats.Trophies)
	assert.Equal(t, 1, aliceStats.TotalDraws)
}

func TestSoloMatchSkipsComputerOpponent(t *testing.T) {
	store, _, teardown := setupTestStore(t)
	defer teardown()

	match := completedMatch("m1", "alice", battle.AIOpponentID, strPtr("alice"))
	match.Solo = true

	result, err := store.SettleMatch(match)
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, "alice", result.Outcomes[0].PlayerID)

	entries, err := store.Leaderboard(10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "alice", entries[0].PlayerID)

	history, err := store.GetMatchHistory("alice", 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "ai", history[0].OpponentType)
}

func TestWinStreakTracking(t *testing.T) {
	store, _, teardown := setupTestStore(t)
	defer teardown()

	for i := 0; i < 3; i++ {
		_, err := store.SettleMatch(completedMatch(fmt.Sprintf("m%d", i), "alice", "bob", strPtr("alice")))
		require.NoError(t, err)
	}
	_, err := store.SettleMatch(completedMatch("m3", "alice", "bob", strPtr("bob")))
	require.NoError(t, err)

	aliceStats, err := store.GetStats("alice")
	require.NoError(t, err)
	assert.Equal(t, 0, aliceStats.WinStreak)
	assert.Equal(t, 3, aliceStats.BestWinStreak)
	assert.Equal(t, 75, aliceStats.Trophies)
	assert.Equal(t, 90, aliceStats.HighestTrophies)
}

func TestArenaLevelAdvancesWithTrophies(t *testing.T) {
	store, _, teardown := setupTestStore(t)
	defer teardown()

	// 14 wins puts alice at 420 trophies, past the first arena boundary.
	for i := 0; i < 14; i++ {
		_, err := store.SettleMatch(completedMatch(fmt.Sprintf("m%d", i), "alice", battle.AIOpponentID, strPtr("alice")))
		require.NoError(t, err)
	}

	aliceStats, err := store.GetStats("alice")
	require.NoError(t, err)
	assert.Equal(t, 420, aliceStats.Trophies)
	assert.Equal(t, 1, aliceStats.ArenaLevel)
}

func TestLeaderboardAndRank(t *testing.T) {
	store, _, teardown := setupTestStore(t)
	defer teardown()

	_, err := store.SettleMatch(completedMatch("m1", "alice", "bob", strPtr("alice")))
	require.NoError(t, err)
	_, err = store.SettleMatch(completedMatch("m2", "alice", "carol", strPtr("alice")))
	require.NoError(t, err)
	_, err = store.SettleMatch(completedMatch("m3", "bob", "carol", strPtr("bob")))
	require.NoError(t, err)

	// alice 60, bob 30 (one loss clamped, one win), carol 0.
	entries, err := store.Leaderboard(10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "alice", entries[0].PlayerID)
	assert.Equal(t, 60, entries[0].Trophies)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, "bob", entries[1].PlayerID)
	assert.Equal(t, 2, entries[1].Rank)

	rank, err := store.Rank("bob")
	require.NoError(t, err)
	assert.Equal(t, 2, rank)

	rank, err = store.Rank("carol")
	require.NoError(t, err)
	assert.Equal(t, 3, rank)

	// Unknown players rank below everyone with trophies.
	rank, err = store.Rank("ghost")
	require.NoError(t, err)
	assert.Equal(t, 3, rank)
}

func TestGetStatsUnknownPlayer(t *testing.T) {
	store, _, teardown := setupTestStore(t)
	defer teardown()

	stats, err := store.GetStats("ghost")
	require.NoError(t, err)
	assert.Equal(t, "ghost", stats.PlayerID)
	assert.Equal(t, 0, stats.Trophies)
	assert.Equal(t, 0, stats.ArenaLevel)
}

func TestGetMatchHistoryHonorsLimit(t *testing.T) {
	store, _, teardown := setupTestStore(t)
	defer teardown()

	for i := 0; i < 5; i++ {
		_, err := store.SettleMatch(completedMatch(fmt.Sprintf("m%d", i), "alice", "bob", strPtr("alice")))
		require.NoError(t, err)
	}

	history, err := store.GetMatchHistory("alice", 3)
	require.NoError(t, err)
	assert.Len(t, history, 3)
}
