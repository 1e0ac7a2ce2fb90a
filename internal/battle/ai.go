package battle

import (
	"fmt"
	"math/rand"

	"github.com/saeedinster/chotto.world/internal/cards"
)

// Driver plays the AI side of a single-player match. The rand source is
// injectable so tests can pin card selection.
type Driver struct {
	rng *rand.Rand
}

// NewDriver creates an AI driver seeded from src.
func NewDriver(src rand.Source) *Driver {
	return &Driver{rng: rand.New(src)}
}

// TakeTurn runs one full AI round: play a random affordable card with the
// same effect rules as a human play, resolve unit combat, regenerate elixir
// on both sides and advance the round. The input match is not mutated.
func (d *Driver) TakeTurn(m Match, deck []cards.OwnedCard) (Match, error) {
	if m.Status != StatusActive {
		return Match{}, ErrMatchCompleted
	}
	if m.CurrentTurn != AIOpponentID {
		return Match{}, ErrNotYourTurn
	}

	next := m.clone()
	human := next.OpponentOf(AIOpponentID)

	var affordable []cards.OwnedCard
	for _, oc := range deck {
		if oc.Card.Cost <= next.ElixirOf(AIOpponentID) {
			affordable = append(affordable, oc)
		}
	}

	if len(affordable) > 0 {
		pick := affordable[d.rng.Intn(len(affordable))]
		next.setElixir(AIOpponentID, next.ElixirOf(AIOpponentID)-pick.Card.Cost)

		if pick.Card.CardType == cards.TypeSpell {
			applySpell(&next, AIOpponentID, pick.Card)
		} else {
			unit := spawnUnit(AIOpponentID, pick.Card, pick.Level)
			next.Units = append(next.Units, unit)
			next.appendLog(fmt.Sprintf("Opponent played %s %s", pick.Card.Emoji, pick.Card.Name))
		}
	}

	resolveCombat(&next, human)

	next.setElixir(human, capElixir(next.ElixirOf(human)+ElixirRegen))
	next.setElixir(AIOpponentID, capElixir(next.ElixirOf(AIOpponentID)+ElixirRegen))
	next.TurnNumber++
	next.CurrentTurn = human

	checkGameOver(&next)
	return next, nil
}

// resolveCombat runs the directed-attack pass: the human side's units act
// first, each hitting the front-most enemy unit, or the enemy player directly
// when no units remain. Defeated units are removed before the next side acts.
func resolveCombat(m *Match, human string) {
	attackPass(m, human, AIOpponentID)
	attackPass(m, AIOpponentID, human)
}

func attackPass(m *Match, attacker, defender string) {
	// Work from a snapshot of ids: removing a defeated unit shifts the
	// backing slice, so pointers must be re-resolved every iteration.
	var ids []string
	for i := range m.Units {
		if m.Units[i].OwnerID == attacker {
			ids = append(ids, m.Units[i].ID)
		}
	}
	for _, id := range ids {
		unit := findUnit(m, id)
		if unit == nil || unit.Health <= 0 {
			continue
		}
		target := frontMost(m.unitsOf(defender))
		if target == nil {
			m.setHealth(defender, clampHealth(m.HealthOf(defender)-unit.Attack))
			m.appendLog(fmt.Sprintf("%s %s hit the enemy for %d", unit.Emoji, unit.Name, unit.Attack))
			continue
		}
		target.Health -= unit.Attack
		if target.Health <= 0 {
			m.appendLog(fmt.Sprintf("%s %s defeated %s", unit.Emoji, unit.Name, target.Name))
			removeUnit(m, target.ID)
		} else {
			m.appendLog(fmt.Sprintf("%s %s attacked %s for %d", unit.Emoji, unit.Name, target.Name, unit.Attack))
		}
	}
}

func frontMost(units []*Unit) *Unit {
	for _, unit := range units {
		if unit.Health > 0 {
			return unit
		}
	}
	return nil
}

func findUnit(m *Match, unitID string) *Unit {
	for i := range m.Units {
		if m.Units[i].ID == unitID {
			return &m.Units[i]
		}
	}
	return nil
}

func removeUnit(m *Match, unitID string) {
	for i := range m.Units {
		if m.Units[i].ID == unitID {
			m.Units = append(m.Units[:i], m.Units[i+1:]...)
			return
		}
	}
}
