package rules

// Condition represents standard D&D 5e conditions
type Condition string

const (
	ConditionBlinded       Condition = "blinded"
	ConditionCharmed       Condition = "charmed"
	ConditionDeafened      Condition = "deafened"
	ConditionFrightened    Condition = "frightened"
	ConditionGrappled      Condition = "grappled"
	ConditionIncapacitated Condition = "incapacitated"
	ConditionInvisible     Condition = "invisible"
	ConditionParalyzed     Condition = "paralyzed"
	ConditionPetrified     Condition = "petrified"
	ConditionPoisoned      Condition = "poisoned"
	ConditionProne         Condition = "prone"
	ConditionRestrained    Condition = "restrained"
	ConditionStunned       Condition = "stunned"
	ConditionUnconscious   Condition = "unconscious"
	ConditionExhaustion    Condition = "exhaustion"
)

// ConditionDefinition describes what a condition does at the table
type ConditionDefinition struct {
	Condition   Condition `json:"condition"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Effects     []string  `json:"effects"`

	// PreventsActions blocks actions, bonus actions and reactions
	PreventsActions bool `json:"prevents_actions"`
	// PreventsMovement drops speed to zero
	PreventsMovement bool `json:"prevents_movement"`
}

// Conditions defines the conditions the engine knows how to apply
var Conditions = map[Condition]*ConditionDefinition{
	ConditionBlinded: {
		Condition:   ConditionBlinded,
		Name:        "Blinded",
		Description: "A blinded creature can't see and automatically fails any ability check that requires sight.",
		Effects: []string{
			"Attack rolls against the creature have advantage",
			"The creature's attack rolls have disadvantage",
		},
	},
	ConditionGrappled: {
		Condition:        ConditionGrappled,
		Name:             "Grappled",
		Description:      "A grappled creature's speed becomes 0.",
		Effects:          []string{"Speed 0"},
		PreventsMovement: true,
	},
	ConditionIncapacitated: {
		Condition:       ConditionIncapacitated,
		Name:            "Incapacitated",
		Description:     "An incapacitated creature can't take actions or reactions.",
		PreventsActions: true,
	},
	ConditionParalyzed: {
		Condition:   ConditionParalyzed,
		Name:        "Paralyzed",
		Description: "A paralyzed creature is incapacitated and can't move or speak.",
		Effects: []string{
			"Automatically fails Strength and Dexterity saving throws",
			"Attacks within 5 feet that hit are critical hits",
		},
		PreventsActions:  true,
		PreventsMovement: true,
	},
	ConditionPoisoned: {
		Condition:   ConditionPoisoned,
		Name:        "Poisoned",
		Description: "A poisoned creature has disadvantage on attack rolls and ability checks.",
		Effects: []string{
			"Disadvantage on attack rolls",
			"Disadvantage on ability checks",
		},
	},
	ConditionProne: {
		Condition:   ConditionProne,
		Name:        "Prone",
		Description: "A prone creature's only movement option is to crawl, unless it stands up.",
		Effects: []string{
			"Disadvantage on attack rolls",
			"Attack rolls against the creature have advantage if attacker is within 5 feet",
			"Must spend half movement to stand up",
		},
	},
	ConditionRestrained: {
		Condition:   ConditionRestrained,
		Name:        "Restrained",
		Description: "A restrained creature's speed becomes 0.",
		Effects: []string{
			"Attack rolls against the creature have advantage",
			"The creature's attack rolls have disadvantage",
		},
		PreventsMovement: true,
	},
	ConditionStunned: {
		Condition:   ConditionStunned,
		Name:        "Stunned",
		Description: "A stunned creature is incapacitated, can't move, and can speak only falteringly.",
		Effects: []string{
			"Automatically fails Strength and Dexterity saving throws",
			"Attack rolls against the creature have advantage",
		},
		PreventsActions:  true,
		PreventsMovement: true,
	},
	ConditionUnconscious: {
		Condition:   ConditionUnconscious,
		Name:        "Unconscious",
		Description: "An unconscious creature is incapacitated, can't move or speak, and is unaware of its surroundings.",
		Effects: []string{
			"Drops whatever it's holding and falls prone",
			"Attacks within 5 feet that hit are critical hits",
		},
		PreventsActions:  true,
		PreventsMovement: true,
	},
	ConditionPetrified: {
		Condition:        ConditionPetrified,
		Name:             "Petrified",
		Description:      "A petrified creature is transformed into a solid inanimate substance.",
		PreventsActions:  true,
		PreventsMovement: true,
	},
}

// PreventsActions reports whether any of the conditions stop a creature acting
func PreventsActions(conditions []Condition) bool {
	for _, c := range conditions {
		if def, ok := Conditions[c]; ok && def.PreventsActions {
			return true
		}
	}
	return false
}

// PreventsMovement reports whether any of the conditions stop a creature moving
func PreventsMovement(conditions []Condition) bool {
	for _, c := range conditions {
		if def, ok := Conditions[c]; ok && def.PreventsMovement {
			return true
		}
	}
	return false
}
