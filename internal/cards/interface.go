package cards

// CardStore defines the interface for the card catalog and player inventory.
type CardStore interface {
	// SeedCatalog upserts the static card definitions. Safe to run repeatedly.
	SeedCatalog(catalog []BattleCard) error

	// GetCatalog returns every catalog card.
	GetCatalog() ([]BattleCard, error)

	// GetCard returns a single catalog card by id.
	GetCard(cardID string) (*BattleCard, error)

	// GetPlayerCards returns up to limit owned cards joined with their catalog
	// definition. No ordering guarantee. limit <= 0 means no limit.
	GetPlayerCards(playerID string, limit int) ([]OwnedCard, error)

	// GetPlayerCard returns one ownership record.
	GetPlayerCard(playerID, cardID string) (*PlayerCard, error)

	// UpgradeCard consumes level*10 copies and increments the level by one.
	// Fails with ErrInsufficientCards or ErrMaxLevelReached, leaving the
	// record unchanged.
	UpgradeCard(playerID, cardID string) (*PlayerCard, error)

	// UnlockStarterCards grants one copy of every arena-0 common card. It is a
	// no-op when the player already owns any card; callers get the number of
	// cards granted.
	UnlockStarterCards(playerID string) (int, error)

	// GrantCard accumulates quantity on an ownership record, creating it at
	// level 1 when the player does not own the card yet.
	GrantCard(playerID, cardID string, quantity int) error

	// HasCards reports whether the player owns any card at all.
	HasCards(playerID string) (bool, error)
}
