package actions

import (
	"math"

	"github.com/KirkDiggler/dnd-tactics/internal/rules"
)

// Resources is a token's remaining action economy against its maxima
type Resources struct {
	Actions      int     `json:"actions"`
	BonusActions int     `json:"bonus_actions"`
	Reactions    int     `json:"reactions"`
	Movement     float64 `json:"movement"`

	MaxActions      int     `json:"max_actions"`
	MaxBonusActions int     `json:"max_bonus_actions"`
	MaxReactions    int     `json:"max_reactions"`
	MaxMovement     float64 `json:"max_movement"`
}

// NewResources returns a full pool with the standard maxima
func NewResources(maxMovement float64) Resources {
	if maxMovement < 0 {
		maxMovement = 0
	}
	return Resources{
		Actions:         rules.MaxActions,
		BonusActions:    rules.MaxBonusActions,
		Reactions:       rules.MaxReactions,
		Movement:        maxMovement,
		MaxActions:      rules.MaxActions,
		MaxBonusActions: rules.MaxBonusActions,
		MaxReactions:    rules.MaxReactions,
		MaxMovement:     maxMovement,
	}
}

func (r *Resources) has(actionType rules.ActionType, cost float64) bool {
	switch actionType {
	case rules.ActionTypeAction:
		return float64(r.Actions) >= cost
	case rules.ActionTypeBonusAction:
		return float64(r.BonusActions) >= cost
	case rules.ActionTypeReaction:
		return float64(r.Reactions) >= cost
	case rules.ActionTypeMovement:
		return r.Movement >= cost
	case rules.ActionTypeFree:
		return true
	default:
		return false
	}
}

// spend assumes has already returned true
func (r *Resources) spend(actionType rules.ActionType, cost float64) {
	whole := int(math.Ceil(cost))
	switch actionType {
	case rules.ActionTypeAction:
		r.Actions -= whole
	case rules.ActionTypeBonusAction:
		r.BonusActions -= whole
	case rules.ActionTypeReaction:
		r.Reactions -= whole
	case rules.ActionTypeMovement:
		r.Movement -= cost
	}
}

func (r *Resources) resetTurn() {
	r.Actions = r.MaxActions
	r.BonusActions = r.MaxBonusActions
	r.Movement = r.MaxMovement
}

func (r *Resources) resetRound() {
	r.Reactions = r.MaxReactions
}
