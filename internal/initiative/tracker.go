// Package initiative keeps the turn order for one battle
package initiative

import (
	"sort"

	"github.com/KirkDiggler/dnd-tactics/internal/dice"
	"github.com/KirkDiggler/dnd-tactics/internal/rules"
)

// Entry is one combatant's place in the turn order
type Entry struct {
	TokenID           string `json:"token_id"`
	Name              string `json:"name"`
	Initiative        int    `json:"initiative"`
	DexterityModifier int    `json:"dexterity_modifier"`
	HasActed          bool   `json:"has_acted"`
}

// Config configures a Tracker
type Config struct {
	Roller  dice.Roller
	DieSize int
}

// Tracker orders entries by initiative and walks through turns and rounds.
// Not safe for concurrent use.
type Tracker struct {
	roller  dice.Roller
	dieSize int

	entries []*Entry
	current int
	round   int
	started bool
}

// NewTracker creates a Tracker. A nil roller uses random dice and a zero die
// size means d20.
func NewTracker(cfg *Config) *Tracker {
	t := &Tracker{
		dieSize: rules.InitiativeDie,
		round:   1,
	}
	if cfg != nil {
		t.roller = cfg.Roller
		if cfg.DieSize > 0 {
			t.dieSize = cfg.DieSize
		}
	}
	if t.roller == nil {
		t.roller = dice.NewRandomRoller()
	}
	return t
}

// Roll rolls initiative: one die plus the dexterity modifier
func (t *Tracker) Roll(dexterityModifier int) (int, error) {
	result, err := t.roller.Roll(1, t.dieSize, dexterityModifier)
	if err != nil {
		return 0, err
	}
	return result.Total, nil
}

// Add rolls initiative for a token and inserts it into the order. Adding a
// token that is already present returns its existing entry.
func (t *Tracker) Add(tokenID, name string, dexterityModifier int) (Entry, error) {
	if existing := t.find(tokenID); existing >= 0 {
		return *t.entries[existing], nil
	}

	total, err := t.Roll(dexterityModifier)
	if err != nil {
		return Entry{}, err
	}

	entry := Entry{
		TokenID:           tokenID,
		Name:              name,
		Initiative:        total,
		DexterityModifier: dexterityModifier,
	}
	t.AddEntry(entry)
	return entry, nil
}

// AddEntry inserts an already rolled entry, replacing any entry for the same
// token. Once started, the turn in progress stays with the same token.
func (t *Tracker) AddEntry(entry Entry) {
	active := ""
	if t.started {
		active = t.currentID()
	}

	if idx := t.find(entry.TokenID); idx >= 0 {
		*t.entries[idx] = entry
	} else {
		e := entry
		t.entries = append(t.entries, &e)
	}

	sort.SliceStable(t.entries, func(i, j int) bool {
		a, b := t.entries[i], t.entries[j]
		if a.Initiative != b.Initiative {
			return a.Initiative > b.Initiative
		}
		return a.DexterityModifier > b.DexterityModifier
	})

	if active != "" {
		t.current = t.find(active)
	}
}

// Start begins round 1 with the highest initiative entry
func (t *Tracker) Start() (Entry, bool) {
	t.started = true
	t.current = 0
	t.round = 1
	for _, e := range t.entries {
		e.HasActed = false
	}
	return t.Current()
}

// Started reports whether Start has been called since the last Reset
func (t *Tracker) Started() bool {
	return t.started
}

// NextTurn ends the current turn and returns the entry whose turn it now is.
// Passing the last entry starts a new round. Returns false when empty.
func (t *Tracker) NextTurn() (Entry, bool) {
	if len(t.entries) == 0 {
		return Entry{}, false
	}

	t.entries[t.current].HasActed = true
	t.current++

	if t.current >= len(t.entries) {
		t.current = 0
		t.round++
		for _, e := range t.entries {
			e.HasActed = false
		}
	}

	return *t.entries[t.current], true
}

// Remove drops a token from the order, keeping the current turn on the same
// token where possible. Returns false if the token was not present.
func (t *Tracker) Remove(tokenID string) bool {
	idx := t.find(tokenID)
	if idx < 0 {
		return false
	}

	t.entries = append(t.entries[:idx], t.entries[idx+1:]...)

	if idx < t.current {
		t.current--
	}
	if t.current >= len(t.entries) {
		t.current = 0
	}
	return true
}

// CanTokenAct reports whether it is the token's turn and it has not acted
func (t *Tracker) CanTokenAct(tokenID string) bool {
	if len(t.entries) == 0 {
		return false
	}
	e := t.entries[t.current]
	return e.TokenID == tokenID && !e.HasActed
}

// Current returns the entry whose turn it is
func (t *Tracker) Current() (Entry, bool) {
	if len(t.entries) == 0 {
		return Entry{}, false
	}
	return *t.entries[t.current], true
}

// Order returns a copy of the turn order
func (t *Tracker) Order() []Entry {
	out := make([]Entry, len(t.entries))
	for i, e := range t.entries {
		out[i] = *e
	}
	return out
}

// Round returns the current round, starting at 1
func (t *Tracker) Round() int {
	return t.round
}

// CurrentIndex returns the position of the active entry in Order
func (t *Tracker) CurrentIndex() int {
	return t.current
}

// Len returns the number of entries
func (t *Tracker) Len() int {
	return len(t.entries)
}

// Contains reports whether the token is in the order
func (t *Tracker) Contains(tokenID string) bool {
	return t.find(tokenID) >= 0
}

// Restore replaces the whole order, used when loading a saved battle
func (t *Tracker) Restore(entries []Entry, current, round int) {
	t.entries = make([]*Entry, len(entries))
	for i := range entries {
		e := entries[i]
		t.entries[i] = &e
	}
	t.current = current
	if t.current < 0 || t.current >= len(t.entries) {
		t.current = 0
	}
	t.round = round
	if t.round < 1 {
		t.round = 1
	}
	t.started = len(t.entries) > 0
}

// Reset clears the order and returns to round 1
func (t *Tracker) Reset() {
	t.entries = nil
	t.current = 0
	t.round = 1
	t.started = false
}

func (t *Tracker) find(tokenID string) int {
	for i, e := range t.entries {
		if e.TokenID == tokenID {
			return i
		}
	}
	return -1
}

func (t *Tracker) currentID() string {
	if len(t.entries) == 0 {
		return ""
	}
	return t.entries[t.current].TokenID
}
