package cards

import (
	"database/sql"
	"errors"
	"sync"
)

// store handles all database operations for the card catalog and inventory.
type store struct {
	db *sql.DB
	mu sync.RWMutex
}

// CardType classifies how a card behaves when played.
type CardType string

const (
	TypeCharacter CardType = "character"
	TypeSpell     CardType = "spell"
	TypeBuilding  CardType = "building"
)

// Rarity is the collectability tier of a card.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// EffectKind is the tagged dispatch for spell cards. Characters and buildings
// use EffectNone and spawn units instead.
type EffectKind string

const (
	EffectNone   EffectKind = "none"
	EffectDamage EffectKind = "damage"
	EffectHeal   EffectKind = "heal"
	EffectArea   EffectKind = "area"
)

const (
	// MaxCardLevel caps upgrades.
	MaxCardLevel = 13
	// UpgradeCostPerLevel: upgrading from level L consumes L*UpgradeCostPerLevel copies.
	UpgradeCostPerLevel = 10
)

// Upgrade precondition violations. Reported to the player, no state change.
var (
	ErrInsufficientCards = errors.New("not enough card copies to upgrade")
	ErrMaxLevelReached   = errors.New("card is already at max level")
	ErrCardNotFound      = errors.New("card not found")
)

// BattleCard is an immutable catalog entry.
type BattleCard struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Emoji          string     `json:"emoji"`
	CardType       CardType   `json:"card_type"`
	Rarity         Rarity     `json:"rarity"`
	Cost           int        `json:"cost"`
	Health         int        `json:"health"`
	Attack         int        `json:"attack"`
	EffectKind     EffectKind `json:"effect_kind"`
	SpecialAbility *string    `json:"special_ability,omitempty"`
	Description    string     `json:"description"`
	UnlockArena    int        `json:"unlock_arena"`
}

// PlayerCard is one player's ownership record for a catalog card.
type PlayerCard struct {
	ID       string `json:"id"`
	PlayerID string `json:"player_id"`
	CardID   string `json:"card_id"`
	Level    int    `json:"level"`
	Quantity int    `json:"quantity"`
}

// OwnedCard joins an ownership record with its catalog definition.
type OwnedCard struct {
	PlayerCard
	Card BattleCard `json:"card"`
}

// UpgradeCost returns the number of copies consumed to upgrade from level.
func UpgradeCost(level int) int {
	return level * UpgradeCostPerLevel
}
