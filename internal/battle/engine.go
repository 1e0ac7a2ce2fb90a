package battle

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/saeedinster/chotto.world/internal/cards"
)

// PlayCard is a client intent: the actor wants to play one card. The server
// validates and computes the next state; clients never submit computed state.
type PlayCard struct {
	Actor string
	Card  cards.BattleCard
	Level int
}

// Apply is the authoritative transition function for a live match. It
// validates turn ownership and elixir server-side, applies the card's effect,
// rebalances elixir, flips the turn and re-checks game over. The input match
// is never mutated; precondition violations return the zero Match and a
// sentinel error, leaving the turn with the actor.
func Apply(m Match, play PlayCard) (Match, error) {
	if m.Status != StatusActive {
		return Match{}, ErrMatchCompleted
	}
	if play.Actor != m.Player1ID && play.Actor != m.Player2ID {
		return Match{}, ErrNotYourTurn
	}
	if m.CurrentTurn != play.Actor {
		return Match{}, ErrNotYourTurn
	}
	if m.ElixirOf(play.Actor) < play.Card.Cost {
		return Match{}, ErrInsufficientElixir
	}

	level := play.Level
	if level < 1 {
		level = 1
	}

	next := m.clone()
	opponent := next.OpponentOf(play.Actor)

	switch play.Card.CardType {
	case cards.TypeSpell:
		applySpell(&next, play.Actor, play.Card)
	default:
		unit := spawnUnit(play.Actor, play.Card, level)
		next.Units = append(next.Units, unit)
		next.appendLog(fmt.Sprintf("%s played %s %s", play.Actor, play.Card.Emoji, play.Card.Name))
	}

	// Resource rebalancing: the opponent regenerates during the actor's move.
	next.setElixir(play.Actor, next.ElixirOf(play.Actor)-play.Card.Cost)
	next.setElixir(opponent, capElixir(next.ElixirOf(opponent)+ElixirRegen))

	next.TurnNumber++
	next.CurrentTurn = opponent

	checkGameOver(&next)
	return next, nil
}

func applySpell(m *Match, actor string, card cards.BattleCard) {
	opponent := m.OpponentOf(actor)

	switch card.EffectKind {
	case cards.EffectDamage:
		m.setHealth(opponent, clampHealth(m.HealthOf(opponent)-card.Attack))
		m.appendLog(fmt.Sprintf("%s %s dealt %d damage", card.Emoji, card.Name, card.Attack))
	case cards.EffectHeal:
		healed := m.HealthOf(actor) + card.Attack
		if healed > StartingHealth {
			healed = StartingHealth
		}
		m.setHealth(actor, healed)
		for _, unit := range m.unitsOf(actor) {
			unit.Health = min(unit.Health+card.Attack, unit.MaxHealth)
		}
		m.appendLog(fmt.Sprintf("%s %s healed for %d", card.Emoji, card.Name, card.Attack))
	case cards.EffectArea:
		survivors := m.Units[:0]
		for _, unit := range m.Units {
			if unit.OwnerID == opponent {
				unit.Health -= card.Attack
				if unit.Health <= 0 {
					m.appendLog(fmt.Sprintf("%s was defeated by %s", unit.Name, card.Name))
					continue
				}
			}
			survivors = append(survivors, unit)
		}
		m.Units = survivors
		m.appendLog(fmt.Sprintf("%s %s hit all enemies for %d", card.Emoji, card.Name, card.Attack))
	default:
		// A spell without an effect kind burns elixir and does nothing.
		m.appendLog(fmt.Sprintf("%s %s fizzled", card.Emoji, card.Name))
	}
}

func spawnUnit(owner string, card cards.BattleCard, level int) Unit {
	return Unit{
		ID:        uuid.New().String(),
		CardID:    card.ID,
		Name:      card.Name,
		Emoji:     card.Emoji,
		OwnerID:   owner,
		Attack:    card.Attack * level,
		Health:    card.Health * level,
		MaxHealth: card.Health * level,
	}
}

// checkGameOver marks the match completed the instant either side's health
// reaches zero. When a combat pass drops both sides, player 1 is checked
// first and loses the tie.
func checkGameOver(m *Match) {
	if m.Status != StatusActive {
		return
	}
	if m.Player1Health <= 0 {
		winner := m.Player2ID
		m.Status = StatusCompleted
		m.WinnerID = &winner
	} else if m.Player2Health <= 0 {
		winner := m.Player1ID
		m.Status = StatusCompleted
		m.WinnerID = &winner
	}
}

func (m *Match) appendLog(entry string) {
	m.Log = append(m.Log, entry)
	if len(m.Log) > logLimit {
		m.Log = m.Log[len(m.Log)-logLimit:]
	}
}

func clampHealth(health int) int {
	if health < 0 {
		return 0
	}
	return health
}

func capElixir(elixir int) int {
	if elixir > MaxElixir {
		return MaxElixir
	}
	return elixir
}
