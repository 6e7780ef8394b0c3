package actions

import (
	"github.com/KirkDiggler/dnd-tactics/internal/rules"
)

// Action is something a token may do on its turn
type Action struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Type        rules.ActionType `json:"type"`
	Description string           `json:"description"`
	Range       int              `json:"range,omitempty"`
}

var (
	attackAction = Action{
		ID:          "attack",
		Name:        "Attack",
		Type:        rules.ActionTypeAction,
		Description: "Make a melee or ranged attack against a target",
		Range:       1,
	}
	castSpellAction = Action{
		ID:          "cast_spell",
		Name:        "Cast a Spell",
		Type:        rules.ActionTypeAction,
		Description: "Cast a spell with a casting time of one action",
	}
	secondWindAction = Action{
		ID:          "second_wind",
		Name:        "Second Wind",
		Type:        rules.ActionTypeBonusAction,
		Description: "Regain hit points",
	}
	interactAction = Action{
		ID:          "interact",
		Name:        "Interact",
		Type:        rules.ActionTypeFree,
		Description: "Interact with an object",
	}
)

// AvailableActions lists what the token's remaining pool allows. Unknown
// tokens get nothing.
func (s *System) AvailableActions(tokenID string) []Action {
	r, ok := s.resources[tokenID]
	if !ok {
		return nil
	}

	var out []Action
	if r.Actions > 0 {
		out = append(out, attackAction, castSpellAction)
	}
	if r.BonusActions > 0 {
		out = append(out, secondWindAction)
	}
	// free actions are always on the table
	out = append(out, interactAction)

	return out
}
