package dnd5e

// DefaultSpeedFeet is used when a stat block carries no walking speed
const DefaultSpeedFeet = 30

// MonsterTemplate is a monster stat block as the API describes it
type MonsterTemplate struct {
	Key               string           `json:"key"`
	Name              string           `json:"name"`
	Type              string           `json:"type"`
	ArmorClass        int              `json:"armor_class"`
	HitPoints         int              `json:"hit_points"`
	HitDice           string           `json:"hit_dice"`
	ChallengeRating   float64          `json:"challenge_rating"`
	SpeedFeet         int              `json:"speed_feet"`
	DexterityModifier int              `json:"dexterity_modifier"`
	Actions           []*MonsterAction `json:"actions"`
}

// MonsterAction is one attack from a stat block. DamageDice is an NdM+K
// expression.
type MonsterAction struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	AttackBonus int    `json:"attack_bonus"`
	DamageDice  string `json:"damage_dice"`
}

// TokenTemplate is what a battle token needs from a stat block
type TokenTemplate struct {
	Key               string `json:"key"`
	Name              string `json:"name"`
	HP                int    `json:"hp"`
	AC                int    `json:"ac"`
	SpeedFeet         int    `json:"speed_feet"`
	DexterityModifier int    `json:"dexterity_modifier"`
	AttackBonus       int    `json:"attack_bonus"`
	DamageRoll        string `json:"damage_roll"`
}

// PrimaryAttack returns the first action that deals damage
func (m *MonsterTemplate) PrimaryAttack() (*MonsterAction, bool) {
	for _, a := range m.Actions {
		if a != nil && a.DamageDice != "" {
			return a, true
		}
	}
	return nil, false
}

// TokenTemplate flattens the stat block, taking the attack from the primary
// action. A monster without a damaging action gets an unarmed 1d4.
func (m *MonsterTemplate) TokenTemplate() *TokenTemplate {
	t := &TokenTemplate{
		Key:               m.Key,
		Name:              m.Name,
		HP:                m.HitPoints,
		AC:                m.ArmorClass,
		SpeedFeet:         m.SpeedFeet,
		DexterityModifier: m.DexterityModifier,
		DamageRoll:        "1d4",
	}
	if t.SpeedFeet <= 0 {
		t.SpeedFeet = DefaultSpeedFeet
	}
	if a, ok := m.PrimaryAttack(); ok {
		t.AttackBonus = a.AttackBonus
		t.DamageRoll = a.DamageDice
	}
	return t
}
