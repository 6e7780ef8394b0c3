package battle

import (
	"slices"

	"github.com/KirkDiggler/dnd-tactics/internal/actions"
	"github.com/KirkDiggler/dnd-tactics/internal/initiative"
	"github.com/KirkDiggler/dnd-tactics/internal/rules"
)

// State is a point in time copy of a battle. It carries enough to rebuild
// the engine with Restore.
type State struct {
	IsActive       bool    `json:"is_active"`
	Round          int     `json:"round"`
	Phase          Phase   `json:"phase"`
	Tokens         []Token `json:"tokens"`
	CurrentTokenID string  `json:"current_token_id,omitempty"`
	Events         []Event `json:"events"`

	Initiative   []initiative.Entry           `json:"initiative,omitempty"`
	CurrentIndex int                          `json:"current_index"`
	Resources    map[string]actions.Resources `json:"resources,omitempty"`
}

// State returns a deep copy of the battle
func (e *Engine) State() State {
	s := State{
		IsActive:       e.active,
		Round:          e.round,
		Phase:          e.phase,
		Tokens:         e.Tokens(),
		CurrentTokenID: e.currentID,
		Events:         e.EventHistory(),
		Initiative:     e.initiative.Order(),
		CurrentIndex:   e.initiative.CurrentIndex(),
		Resources:      make(map[string]actions.Resources, len(e.tokens)),
	}
	for _, t := range e.tokens {
		if r, ok := e.actions.Resources(t.ID); ok {
			s.Resources[t.ID] = r
		}
	}
	return s
}

// Restore replaces the engine's state with s. Subscribers are kept and are
// not notified.
func (e *Engine) Restore(s State) {
	e.active = s.IsActive
	e.round = s.Round
	e.phase = s.Phase
	if e.phase == "" {
		e.phase = PhaseSetup
	}
	e.currentID = s.CurrentTokenID
	e.events = slices.Clone(s.Events)

	e.tokens = make([]*Token, 0, len(s.Tokens))
	e.actions.Reset()
	for i := range s.Tokens {
		t := s.Tokens[i].clone()
		e.tokens = append(e.tokens, &t)
		if r, ok := s.Resources[t.ID]; ok {
			e.actions.SetResources(t.ID, r)
		} else {
			e.actions.InitializeResources(t.ID, float64(t.Speed))
		}
	}

	e.initiative.Reset()
	if e.phase == PhaseCombat && len(s.Initiative) > 0 {
		e.initiative.Restore(s.Initiative, s.CurrentIndex, s.Round)
	}
}

// Phase returns the current phase
func (e *Engine) Phase() Phase {
	return e.phase
}

// Round returns the current round, zero before the battle starts
func (e *Engine) Round() int {
	return e.round
}

// CurrentTokenID returns whose turn it is, empty outside combat
func (e *Engine) CurrentTokenID() string {
	return e.currentID
}

// Token returns a copy of one token
func (e *Engine) Token(tokenID string) (Token, bool) {
	t := e.find(tokenID)
	if t == nil {
		return Token{}, false
	}
	return t.clone(), true
}

// Tokens returns copies of every token in roster order
func (e *Engine) Tokens() []Token {
	out := make([]Token, len(e.tokens))
	for i, t := range e.tokens {
		out[i] = t.clone()
	}
	return out
}

func (e *Engine) InitiativeOrder() []initiative.Entry {
	return e.initiative.Order()
}

func (e *Engine) TokenResources(tokenID string) (actions.Resources, bool) {
	return e.actions.Resources(tokenID)
}

// CanTokenAct is true during combat for the token whose turn it is
func (e *Engine) CanTokenAct(tokenID string) bool {
	return e.phase == PhaseCombat && e.currentID == tokenID && e.initiative.CanTokenAct(tokenID)
}

func (e *Engine) EventHistory() []Event {
	return slices.Clone(e.events)
}

// AvailableActions lists what a token can still do this turn. A token whose
// conditions prevent actions is limited to free actions.
func (e *Engine) AvailableActions(tokenID string) []actions.Action {
	token := e.find(tokenID)
	if token == nil {
		return nil
	}

	available := e.actions.AvailableActions(tokenID)
	if !rules.PreventsActions(token.Conditions) {
		return available
	}

	var free []actions.Action
	for _, a := range available {
		if a.Type == rules.ActionTypeFree {
			free = append(free, a)
		}
	}
	return free
}
