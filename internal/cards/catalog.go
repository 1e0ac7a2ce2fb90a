package cards

func strPtr(s string) *string { return &s }

// DefaultCatalog is the static card set seeded at install time. Arena-0
// commons double as the starter deck.
func DefaultCatalog() []BattleCard {
	return []BattleCard{
		{Name: "Knight", Emoji: "🛡️", CardType: TypeCharacter, Rarity: RarityCommon, Cost: 3, Health: 150, Attack: 50, EffectKind: EffectNone, Description: "A brave knight with a sturdy shield.", UnlockArena: 0},
		{Name: "Archer", Emoji: "🏹", CardType: TypeCharacter, Rarity: RarityCommon, Cost: 2, Health: 80, Attack: 60, EffectKind: EffectNone, Description: "Fires arrows from a safe distance.", UnlockArena: 0},
		{Name: "Goblin Gang", Emoji: "👺", CardType: TypeCharacter, Rarity: RarityCommon, Cost: 2, Health: 60, Attack: 40, EffectKind: EffectNone, Description: "A rowdy bunch of little troublemakers.", UnlockArena: 0},
		{Name: "Cannon", Emoji: "💣", CardType: TypeBuilding, Rarity: RarityCommon, Cost: 3, Health: 200, Attack: 45, EffectKind: EffectNone, Description: "A stout defensive cannon.", UnlockArena: 0},
		{Name: "Spear Thrower", Emoji: "🔱", CardType: TypeCharacter, Rarity: RarityCommon, Cost: 2, Health: 70, Attack: 55, EffectKind: EffectNone, Description: "Hurls spears across the arena.", UnlockArena: 0},
		{Name: "Shield Bearer", Emoji: "🪖", CardType: TypeCharacter, Rarity: RarityCommon, Cost: 4, Health: 220, Attack: 30, EffectKind: EffectNone, Description: "Soaks up damage for the team.", UnlockArena: 0},

		{Name: "Lightning Bolt", Emoji: "⚡", CardType: TypeSpell, Rarity: RarityRare, Cost: 4, Health: 0, Attack: 300, EffectKind: EffectDamage, SpecialAbility: strPtr("direct-damage"), Description: "Strikes the enemy directly for heavy damage.", UnlockArena: 1},
		{Name: "Healing Wave", Emoji: "💚", CardType: TypeSpell, Rarity: RarityRare, Cost: 3, Health: 0, Attack: 50, EffectKind: EffectHeal, SpecialAbility: strPtr("heal"), Description: "Restores health to you and your units.", UnlockArena: 1},
		{Name: "Wizard", Emoji: "🧙", CardType: TypeCharacter, Rarity: RarityRare, Cost: 5, Health: 120, Attack: 90, EffectKind: EffectNone, Description: "Flings fireballs at anything nearby.", UnlockArena: 1},
		{Name: "Tesla Tower", Emoji: "🗼", CardType: TypeBuilding, Rarity: RarityRare, Cost: 4, Health: 250, Attack: 70, EffectKind: EffectNone, Description: "Zaps enemies that wander too close.", UnlockArena: 1},

		{Name: "Meteor Storm", Emoji: "☄️", CardType: TypeSpell, Rarity: RarityEpic, Cost: 6, Health: 0, Attack: 120, EffectKind: EffectArea, SpecialAbility: strPtr("area-damage"), Description: "Rains meteors on every enemy unit.", UnlockArena: 2},
		{Name: "Baby Dragon", Emoji: "🐉", CardType: TypeCharacter, Rarity: RarityEpic, Cost: 5, Health: 200, Attack: 100, EffectKind: EffectNone, Description: "Small, flappy, and surprisingly fierce.", UnlockArena: 2},
		{Name: "Golem", Emoji: "🗿", CardType: TypeCharacter, Rarity: RarityEpic, Cost: 7, Health: 400, Attack: 80, EffectKind: EffectNone, Description: "A slow-moving wall of stone.", UnlockArena: 2},

		{Name: "Phoenix", Emoji: "🔥", CardType: TypeCharacter, Rarity: RarityLegendary, Cost: 8, Health: 300, Attack: 150, EffectKind: EffectNone, SpecialAbility: strPtr("rebirth"), Description: "A blazing bird of legend.", UnlockArena: 3},
		{Name: "Ice Queen", Emoji: "❄️", CardType: TypeCharacter, Rarity: RarityLegendary, Cost: 7, Health: 260, Attack: 130, EffectKind: EffectNone, SpecialAbility: strPtr("freeze"), Description: "Commands the cold itself.", UnlockArena: 3},
		{Name: "Royal Fortress", Emoji: "🏰", CardType: TypeBuilding, Rarity: RarityLegendary, Cost: 9, Health: 600, Attack: 60, EffectKind: EffectNone, Description: "The ultimate defensive stronghold.", UnlockArena: 3},
	}
}
