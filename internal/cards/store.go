package cards

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// New creates a new CardStore.
func New(db *sql.DB) CardStore {
	return &store{
		db: db,
	}
}

// SeedCatalog upserts the static card definitions keyed by name, so reseeding
// never duplicates cards or disturbs existing ownership references.
func (s *store) SeedCatalog(catalog []BattleCard) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin catalog transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO battle_cards (id, name, emoji, card_type, rarity, cost, health, attack, effect_kind, special_ability, description, unlock_arena, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			emoji = excluded.emoji,
			card_type = excluded.card_type,
			rarity = excluded.rarity,
			cost = excluded.cost,
			health = excluded.health,
			attack = excluded.attack,
			effect_kind = excluded.effect_kind,
			special_ability = excluded.special_ability,
			description = excluded.description,
			unlock_arena = excluded.unlock_arena;
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare catalog upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for _, card := range catalog {
		id := card.ID
		if id == "" {
			id = uuid.New().String()
		}
		_, err = stmt.Exec(id, card.Name, card.Emoji, string(card.CardType), string(card.Rarity),
			card.Cost, card.Health, card.Attack, string(card.EffectKind), card.SpecialAbility,
			card.Description, card.UnlockArena, now)
		if err != nil {
			return fmt.Errorf("failed to upsert card %q: %w", card.Name, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit catalog transaction: %w", err)
	}

	log.Info("Seeded card catalog", "count", len(catalog))
	return nil
}

func (s *store) GetCatalog() ([]BattleCard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, name, emoji, card_type, rarity, cost, health, attack, effect_kind, special_ability, description, unlock_arena
		FROM battle_cards
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog: %w", err)
	}
	defer rows.Close()

	var catalog []BattleCard
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan catalog row: %w", err)
		}
		catalog = append(catalog, *card)
	}
	return catalog, rows.Err()
}

func (s *store) GetCard(cardID string) (*BattleCard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
		SELECT id, name, emoji, card_type, rarity, cost, health, attack, effect_kind, special_ability, description, unlock_arena
		FROM battle_cards
		WHERE id = ?
	`, cardID)

	card, err := scanCard(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCardNotFound
		}
		return nil, fmt.Errorf("failed to get card: %w", err)
	}
	return card, nil
}

func (s *store) GetPlayerCards(playerID string, limit int) ([]OwnedCard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT pc.id, pc.player_id, pc.card_id, pc.level, pc.quantity,
		       c.id, c.name, c.emoji, c.card_type, c.rarity, c.cost, c.health, c.attack, c.effect_kind, c.special_ability, c.description, c.unlock_arena
		FROM player_cards pc
		JOIN battle_cards c ON c.id = pc.card_id
		WHERE pc.player_id = ?
	`
	args := []any{playerID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query player cards: %w", err)
	}
	defer rows.Close()

	var owned []OwnedCard
	for rows.Next() {
		var oc OwnedCard
		var ability sql.NullString
		err := rows.Scan(
			&oc.ID, &oc.PlayerID, &oc.CardID, &oc.Level, &oc.Quantity,
			&oc.Card.ID, &oc.Card.Name, &oc.Card.Emoji, &oc.Card.CardType, &oc.Card.Rarity,
			&oc.Card.Cost, &oc.Card.Health, &oc.Card.Attack, &oc.Card.EffectKind,
			&ability, &oc.Card.Description, &oc.Card.UnlockArena,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan player card row: %w", err)
		}
		if ability.Valid {
			oc.Card.SpecialAbility = &ability.String
		}
		owned = append(owned, oc)
	}
	return owned, rows.Err()
}

func (s *store) GetPlayerCard(playerID, cardID string) (*PlayerCard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getPlayerCard(s.db, playerID, cardID)
}

type querier interface {
	QueryRow(query string, args ...any) *sql.Row
}

func (s *store) getPlayerCard(q querier, playerID, cardID string) (*PlayerCard, error) {
	var pc PlayerCard
	err := q.QueryRow(`
		SELECT id, player_id, card_id, level, quantity
		FROM player_cards
		WHERE player_id = ? AND card_id = ?
	`, playerID, cardID).Scan(&pc.ID, &pc.PlayerID, &pc.CardID, &pc.Level, &pc.Quantity)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCardNotFound
		}
		return nil, fmt.Errorf("failed to get player card: %w", err)
	}
	return &pc, nil
}

// UpgradeCard re-validates the preconditions inside the transaction so a
// concurrent grant or upgrade cannot be double counted.
func (s *store) UpgradeCard(playerID, cardID string) (*PlayerCard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin upgrade transaction: %w", err)
	}
	defer tx.Rollback()

	pc, err := s.getPlayerCard(tx, playerID, cardID)
	if err != nil {
		return nil, err
	}

	if pc.Level >= MaxCardLevel {
		return nil, ErrMaxLevelReached
	}
	cost := UpgradeCost(pc.Level)
	if pc.Quantity < cost {
		return nil, ErrInsufficientCards
	}

	_, err = tx.Exec(`
		UPDATE player_cards SET level = level + 1, quantity = quantity - ?
		WHERE id = ?
	`, cost, pc.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to upgrade card: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit upgrade: %w", err)
	}

	pc.Level++
	pc.Quantity -= cost
	log.Info("Upgraded card", "playerID", playerID, "cardID", cardID, "level", pc.Level)
	return pc, nil
}

// UnlockStarterCards grants one copy of every arena-0 common card. The
// emptiness check and the grants share one transaction, which closes the
// double-grant race two concurrent callers would otherwise hit.
func (s *store) UnlockStarterCards(playerID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin starter transaction: %w", err)
	}
	defer tx.Rollback()

	var existing int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM player_cards WHERE player_id = ?`, playerID).Scan(&existing); err != nil {
		return 0, fmt.Errorf("failed to check existing inventory: %w", err)
	}
	if existing > 0 {
		log.Debug("Starter cards already granted", "playerID", playerID)
		return 0, nil
	}

	rows, err := tx.Query(`SELECT id FROM battle_cards WHERE unlock_arena = 0 AND rarity = ?`, string(RarityCommon))
	if err != nil {
		return 0, fmt.Errorf("failed to query starter cards: %w", err)
	}
	var starterIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, fmt.Errorf("failed to scan starter card id: %w", err)
		}
		starterIDs = append(starterIDs, id)
	}
	rows.Close()

	now := time.Now().Unix()
	for _, cardID := range starterIDs {
		_, err = tx.Exec(`
			INSERT INTO player_cards (id, player_id, card_id, level, quantity, unlocked_at)
			VALUES (?, ?, ?, 1, 1, ?)
		`, uuid.New().String(), playerID, cardID, now)
		if err != nil {
			return 0, fmt.Errorf("failed to grant starter card: %w", err)
		}
	}

	// Keep the aggregate unlock counter in step with the inventory.
	_, err = tx.Exec(`
		INSERT INTO player_battle_stats (player_id, total_cards_unlocked, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(player_id) DO UPDATE SET
			total_cards_unlocked = total_cards_unlocked + excluded.total_cards_unlocked,
			updated_at = excluded.updated_at;
	`, playerID, len(starterIDs), now)
	if err != nil {
		return 0, fmt.Errorf("failed to update unlock counter: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit starter grant: %w", err)
	}

	log.Info("Unlocked starter cards", "playerID", playerID, "count", len(starterIDs))
	return len(starterIDs), nil
}

func (s *store) GrantCard(playerID, cardID string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().Unix()
	_, err := s.db.Exec(`
		INSERT INTO player_cards (id, player_id, card_id, level, quantity, unlocked_at)
		VALUES (?, ?, ?, 1, ?, ?)
		ON CONFLICT(player_id, card_id) DO UPDATE SET
			quantity = quantity + excluded.quantity;
	`, uuid.New().String(), playerID, cardID, quantity, now)
	if err != nil {
		return fmt.Errorf("failed to grant card: %w", err)
	}
	return nil
}

func (s *store) HasCards(playerID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM player_cards WHERE player_id = ?`, playerID).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to count player cards: %w", err)
	}
	return count > 0, nil
}

func scanCard(scanner interface{ Scan(...any) error }) (*BattleCard, error) {
	var card BattleCard
	var ability sql.NullString
	err := scanner.Scan(
		&card.ID, &card.Name, &card.Emoji, &card.CardType, &card.Rarity,
		&card.Cost, &card.Health, &card.Attack, &card.EffectKind,
		&ability, &card.Description, &card.UnlockArena,
	)
	if err != nil {
		return nil, err
	}
	if ability.Valid {
		card.SpecialAbility = &ability.String
	}
	return &card, nil
}
