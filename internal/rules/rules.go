// Package rules holds the static D&D 5e tables the combat engine runs on
package rules

const (
	// FeetPerCell is the size of one grid square
	FeetPerCell = 5

	// DefaultSpeedCells is 30 ft of movement
	DefaultSpeedCells = 6

	// Action economy maxima
	MaxActions      = 1
	MaxBonusActions = 1
	MaxReactions    = 1

	// InitiativeDie is the die rolled for initiative unless configured otherwise
	InitiativeDie = 20

	// AttackDie is rolled for every attack
	AttackDie = 20

	// NaturalCrit always hits
	NaturalCrit = 20
	// NaturalFumble always misses
	NaturalFumble = 1

	// MaxEventLog is how many battle events are retained
	MaxEventLog = 100
)

// Vision ranges in feet
const (
	DefaultVisionRangeFeet = 60
	DarkvisionRangeFeet    = 60
)

// ActionType identifies which pool an action draws from
type ActionType string

const (
	ActionTypeAction      ActionType = "action"
	ActionTypeBonusAction ActionType = "bonus_action"
	ActionTypeReaction    ActionType = "reaction"
	ActionTypeMovement    ActionType = "movement"
	ActionTypeFree        ActionType = "free"
)

// Valid reports whether t is a known action type
func (t ActionType) Valid() bool {
	switch t {
	case ActionTypeAction, ActionTypeBonusAction, ActionTypeReaction, ActionTypeMovement, ActionTypeFree:
		return true
	}
	return false
}

// VisionType is how a token sees
type VisionType string

const (
	VisionNormal     VisionType = "normal"
	VisionDarkvision VisionType = "darkvision"
)

// FeetToCells converts feet to whole cells of feetPerCell, rounding up.
// A non-positive feetPerCell means FeetPerCell.
func FeetToCells(feet, feetPerCell int) int {
	if feet <= 0 {
		return 0
	}
	if feetPerCell <= 0 {
		feetPerCell = FeetPerCell
	}
	return (feet + feetPerCell - 1) / feetPerCell
}

// VisionRangeCells returns the default sight radius for a vision type on a
// grid of feetPerCell
func VisionRangeCells(v VisionType, feetPerCell int) int {
	if v == VisionDarkvision {
		return FeetToCells(DarkvisionRangeFeet, feetPerCell)
	}
	return FeetToCells(DefaultVisionRangeFeet, feetPerCell)
}

// AbilityModifier converts an ability score to its modifier, rounding down
func AbilityModifier(score int) int {
	diff := score - 10
	if diff < 0 {
		return (diff - 1) / 2
	}
	return diff / 2
}
