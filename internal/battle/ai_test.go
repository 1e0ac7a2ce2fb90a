package battle_test

import (
	"math/rand"
	"testing"

	"github.com/saeedinster/chotto.world/internal/battle"
	"github.com/saeedinster/chotto.world/internal/cards"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSoloMatch() battle.Match {
	m := newTestMatch()
	m.Player2ID = battle.AIOpponentID
	m.CurrentTurn = battle.AIOpponentID
	m.Solo = true
	return m
}

func TestAITurnPlaysOnlyAffordableCards(t *testing.T) {
	m := newSoloMatch()
	m.Player2Elixir = 3

	// Knight costs 3 and is affordable; Lightning Bolt costs 4 and is not.
	deck := []cards.OwnedCard{
		{PlayerCard: cards.PlayerCard{Level: 1}, Card: knight()},
		{PlayerCard: cards.PlayerCard{Level: 1}, Card: lightningBolt()},
	}

	driver := battle.NewDriver(rand.NewSource(1))
	next, err := driver.TakeTurn(m, deck)
	require.NoError(t, err)

	require.Len(t, next.Units, 1, "only the affordable card can be played")
	assert.Equal(t, battle.AIOpponentID, next.Units[0].OwnerID)
	assert.Equal(t, "Knight", next.Units[0].Name)
	// The spawned knight already strikes in the same round's combat pass.
	assert.Equal(t, 950, next.Player1Health)
	assert.Equal(t, 2, next.Player2Elixir, "3 - 3 cost + 2 regen")
}

func TestAITurnSkipsPlayWhenNothingAffordable(t *testing.T) {
	m := newSoloMatch()
	m.Player2Elixir = 1

	deck := []cards.OwnedCard{
		{PlayerCard: cards.PlayerCard{Level: 1}, Card: knight()},
	}

	driver := battle.NewDriver(rand.NewSource(1))
	next, err := driver.TakeTurn(m, deck)
	require.NoError(t, err)

	assert.Empty(t, next.Units)
	assert.Equal(t, 3, next.Player2Elixir, "regen still happens")
	assert.Equal(t, "alice", next.CurrentTurn)
	assert.Equal(t, 1, next.TurnNumber)
}

func TestAITurnMeleeCombat(t *testing.T) {
	m := newSoloMatch()
	m.Units = []battle.Unit{
		{ID: "u-player", OwnerID: "alice", Name: "Wizard", Attack: 100, Health: 500, MaxHealth: 500},
		{ID: "u-ai", OwnerID: battle.AIOpponentID, Name: "Golem", Attack: 20, Health: 150, MaxHealth: 150},
	}

	driver := battle.NewDriver(rand.NewSource(1))

	// First pass: 150 -> 50, not killed. Player units resolve before AI units,
	// so the wounded golem still strikes back.
	next, err := driver.TakeTurn(m, nil)
	require.NoError(t, err)
	aiUnit := unitByID(t, next, "u-ai")
	assert.Equal(t, 50, aiUnit.Health)
	playerUnit := unitByID(t, next, "u-player")
	assert.Equal(t, 480, playerUnit.Health)

	// Second identical hit on a later round brings it to <=0 and removes it.
	next.CurrentTurn = battle.AIOpponentID
	next, err = driver.TakeTurn(next, nil)
	require.NoError(t, err)
	require.Len(t, next.Units, 1, "defeated unit leaves active combat")
	assert.Equal(t, "u-player", next.Units[0].ID)
}

func TestAITurnUnitsHitPlayerDirectlyWithNoDefenders(t *testing.T) {
	m := newSoloMatch()
	m.Units = []battle.Unit{
		{ID: "u-ai", OwnerID: battle.AIOpponentID, Name: "Baby Dragon", Attack: 100, Health: 200, MaxHealth: 200},
	}

	driver := battle.NewDriver(rand.NewSource(1))
	next, err := driver.TakeTurn(m, nil)
	require.NoError(t, err)

	assert.Equal(t, 900, next.Player1Health)
	assert.Equal(t, 1000, next.Player2Health)
}

func TestAITurnEndsMatchWhenPlayerFalls(t *testing.T) {
	m := newSoloMatch()
	m.Player1Health = 80
	m.Units = []battle.Unit{
		{ID: "u-ai", OwnerID: battle.AIOpponentID, Name: "Phoenix", Attack: 150, Health: 300, MaxHealth: 300},
	}

	driver := battle.NewDriver(rand.NewSource(1))
	next, err := driver.TakeTurn(m, nil)
	require.NoError(t, err)

	assert.Equal(t, battle.StatusCompleted, next.Status)
	require.NotNil(t, next.WinnerID)
	assert.Equal(t, battle.AIOpponentID, *next.WinnerID)
	assert.Equal(t, 0, next.Player1Health)
}

func TestAITurnRequiresAITurnOwnership(t *testing.T) {
	m := newSoloMatch()
	m.CurrentTurn = "alice"

	driver := battle.NewDriver(rand.NewSource(1))
	_, err := driver.TakeTurn(m, nil)
	assert.ErrorIs(t, err, battle.ErrNotYourTurn)
}

func unitByID(t *testing.T, m battle.Match, id string) battle.Unit {
	t.Helper()
	for _, unit := range m.Units {
		if unit.ID == id {
			return unit
		}
	}
	t.Fatalf("unit %s not found", id)
	return battle.Unit{}
}
