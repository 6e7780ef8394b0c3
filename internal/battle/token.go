package battle

import (
	"slices"

	"github.com/KirkDiggler/dnd-tactics/internal/grid"
	"github.com/KirkDiggler/dnd-tactics/internal/rules"
)

// Token is a combatant on the battle map
type Token struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	HP    int    `json:"hp"`
	MaxHP int    `json:"max_hp"`
	AC    int    `json:"ac"`

	// Speed is in grid cells per turn
	Speed      int                `json:"speed"`
	Position   grid.WorldPosition `json:"position"`
	Conditions []rules.Condition  `json:"conditions,omitempty"`

	IsEnemy  bool `json:"is_enemy"`
	IsPlayer bool `json:"is_player"`

	DexterityModifier int    `json:"dexterity_modifier"`
	AttackBonus       int    `json:"attack_bonus"`
	DamageRoll        string `json:"damage_roll"`
}

// HasCondition reports whether the token currently has c
func (t *Token) HasCondition(c rules.Condition) bool {
	return slices.Contains(t.Conditions, c)
}

// IsConscious is true while the token has hit points left
func (t *Token) IsConscious() bool {
	return t.HP > 0 && !t.HasCondition(rules.ConditionUnconscious)
}

func (t *Token) clone() Token {
	c := *t
	c.Conditions = slices.Clone(t.Conditions)
	return c
}
