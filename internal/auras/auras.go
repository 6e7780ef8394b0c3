// Package auras anchors radius effects to tokens and works out which other
// tokens each aura touches. Auras ignore walls.
package auras

import (
	"maps"
	"math"
	"slices"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/KirkDiggler/dnd-tactics/internal/grid"
	"github.com/KirkDiggler/dnd-tactics/internal/logging"
	"github.com/KirkDiggler/dnd-tactics/internal/uuid"
)

type Shape string

const (
	ShapeCircle Shape = "circle"
	ShapeSquare Shape = "square"
)

type EffectKind string

const (
	EffectBuff    EffectKind = "buff"
	EffectDebuff  EffectKind = "debuff"
	EffectNeutral EffectKind = "neutral"
)

// Effect is what an aura does to whoever stands in it
type Effect struct {
	Kind        EffectKind `json:"kind"`
	Description string     `json:"description"`
}

// Aura is a radius around a token
type Aura struct {
	ID               string  `json:"id"`
	TokenID          string  `json:"token_id"`
	Name             string  `json:"name"`
	RadiusFeet       float64 `json:"radius_feet"`
	Color            string  `json:"color,omitempty"`
	Opacity          float64 `json:"opacity,omitempty"`
	VisibleToPlayers bool    `json:"visible_to_players"`
	Shape            Shape   `json:"shape"`
	Effect           *Effect `json:"effect,omitempty"`
	Enabled          bool    `json:"enabled"`
}

func (a *Aura) clone() Aura {
	c := *a
	if a.Effect != nil {
		e := *a.Effect
		c.Effect = &e
	}
	return c
}

// EffectAt is an aura effect reaching a position
type EffectAt struct {
	Aura         Aura    `json:"aura"`
	DistanceFeet float64 `json:"distance_feet"`
}

// State is a copy of the engine's auras and the derived membership
type State struct {
	Auras []Aura `json:"auras"`
	// AffectedTokens maps a token id to the ids of the auras it stands in
	AffectedTokens map[string][]string `json:"affected_tokens"`
}

// Config configures an Engine
type Config struct {
	Grid   *grid.Grid
	IDs    uuid.Generator
	Logger logrus.FieldLogger
}

// Engine tracks auras and token positions for one map. Not safe for
// concurrent use.
type Engine struct {
	grid      *grid.Grid
	auras     []*Aura
	positions map[string]grid.Position
	affected  map[string][]string

	subscribers []changeSubscriber
	nextSubID   int

	ids uuid.Generator
	log logrus.FieldLogger
}

type changeSubscriber struct {
	id int
	fn func(State)
}

func NewEngine(cfg *Config) *Engine {
	if cfg == nil {
		cfg = &Config{}
	}
	e := &Engine{
		grid:      cfg.Grid,
		positions: make(map[string]grid.Position),
		affected:  make(map[string][]string),
		ids:       cfg.IDs,
		log:       logging.OrDiscard(cfg.Logger),
	}
	if e.grid == nil {
		e.grid = grid.New(grid.Config{})
	}
	if e.ids == nil {
		e.ids = uuid.NewGoogleUUIDGenerator()
	}
	return e
}

// AddAura anchors aura to a token and returns its id. An empty shape is a
// circle.
func (e *Engine) AddAura(tokenID string, aura Aura) string {
	a := aura.clone()
	if a.ID == "" {
		a.ID = e.ids.New()
	}
	a.TokenID = tokenID
	if a.Shape == "" {
		a.Shape = ShapeCircle
	}
	e.auras = append(e.auras, &a)
	e.changed()
	return a.ID
}

// UpdateAura replaces the aura with the same ID. The aura stays on its token.
func (e *Engine) UpdateAura(aura Aura) bool {
	existing := e.find(aura.ID)
	if existing == nil {
		return false
	}
	a := aura.clone()
	a.TokenID = existing.TokenID
	if a.Shape == "" {
		a.Shape = ShapeCircle
	}
	*existing = a
	e.changed()
	return true
}

func (e *Engine) RemoveAura(id string) bool {
	for i, a := range e.auras {
		if a.ID == id {
			e.auras = slices.Delete(e.auras, i, i+1)
			e.changed()
			return true
		}
	}
	return false
}

// RemoveTokenAuras drops every aura anchored to a token and returns how many
// there were
func (e *Engine) RemoveTokenAuras(tokenID string) int {
	before := len(e.auras)
	e.auras = slices.DeleteFunc(e.auras, func(a *Aura) bool { return a.TokenID == tokenID })
	removed := before - len(e.auras)
	if removed > 0 {
		e.changed()
	}
	return removed
}

// RemoveToken forgets a token entirely: its position and its auras
func (e *Engine) RemoveToken(tokenID string) {
	delete(e.positions, tokenID)
	e.auras = slices.DeleteFunc(e.auras, func(a *Aura) bool { return a.TokenID == tokenID })
	e.changed()
}

// ToggleAura flips an aura on or off
func (e *Engine) ToggleAura(id string) bool {
	a := e.find(id)
	if a == nil {
		return false
	}
	return e.SetAuraEnabled(id, !a.Enabled)
}

func (e *Engine) SetAuraEnabled(id string, enabled bool) bool {
	a := e.find(id)
	if a == nil {
		return false
	}
	a.Enabled = enabled
	e.changed()
	return true
}

// UpdateTokenPosition records where a token stands and recomputes membership
func (e *Engine) UpdateTokenPosition(tokenID string, pos grid.Position) {
	e.positions[tokenID] = pos
	e.changed()
}

// ClearAllAuras drops every aura and every tracked position
func (e *Engine) ClearAllAuras() {
	e.auras = nil
	clear(e.positions)
	e.changed()
}

// TokenAuras returns the auras anchored to a token
func (e *Engine) TokenAuras(tokenID string) []Aura {
	var out []Aura
	for _, a := range e.auras {
		if a.TokenID == tokenID {
			out = append(out, a.clone())
		}
	}
	return out
}

// ActiveAuras returns every enabled aura
func (e *Engine) ActiveAuras() []Aura {
	var out []Aura
	for _, a := range e.auras {
		if a.Enabled {
			out = append(out, a.clone())
		}
	}
	return out
}

// AurasAffectingToken returns the auras a token stands in
func (e *Engine) AurasAffectingToken(tokenID string) []Aura {
	var out []Aura
	for _, id := range e.affected[tokenID] {
		if a := e.find(id); a != nil {
			out = append(out, a.clone())
		}
	}
	return out
}

// AffectedTokens returns a copy of the token to aura ids membership
func (e *Engine) AffectedTokens() map[string][]string {
	out := make(map[string][]string, len(e.affected))
	for tokenID, ids := range e.affected {
		out[tokenID] = slices.Clone(ids)
	}
	return out
}

// TokensInAura returns the ids of the tokens inside an enabled aura, sorted.
// The aura's own token is never included.
func (e *Engine) TokensInAura(auraID string) []string {
	a := e.find(auraID)
	if a == nil || !a.Enabled {
		return nil
	}
	source, ok := e.positions[a.TokenID]
	if !ok {
		return nil
	}

	var out []string
	for _, tokenID := range slices.Sorted(maps.Keys(e.positions)) {
		if tokenID == a.TokenID {
			continue
		}
		if e.grid.Measure(source, e.positions[tokenID]).Feet <= a.RadiusFeet {
			out = append(out, tokenID)
		}
	}
	return out
}

// AuraCells returns the map cells an enabled aura covers
func (e *Engine) AuraCells(auraID string) []grid.Position {
	a := e.find(auraID)
	if a == nil || !a.Enabled {
		return nil
	}
	source, ok := e.positions[a.TokenID]
	if !ok {
		return nil
	}

	radius := e.radiusCells(a)
	if a.Shape == ShapeSquare {
		return e.grid.CellsInRect(
			grid.Position{X: source.X - radius, Y: source.Y - radius},
			grid.Position{X: source.X + radius, Y: source.Y + radius},
		)
	}
	return e.grid.CellsInRadius(source, radius)
}

// IsPositionInAura reports whether pos is within an enabled aura's radius
func (e *Engine) IsPositionInAura(auraID string, pos grid.Position) bool {
	a := e.find(auraID)
	if a == nil || !a.Enabled {
		return false
	}
	source, ok := e.positions[a.TokenID]
	if !ok {
		return false
	}
	return e.grid.Measure(source, pos).Feet <= a.RadiusFeet
}

// EffectsAtPosition returns the enabled auras with an effect that reach pos,
// nearest source first
func (e *Engine) EffectsAtPosition(pos grid.Position) []EffectAt {
	var out []EffectAt
	for _, a := range e.auras {
		if !a.Enabled || a.Effect == nil {
			continue
		}
		source, ok := e.positions[a.TokenID]
		if !ok {
			continue
		}
		if d := e.grid.Measure(source, pos).Feet; d <= a.RadiusFeet {
			out = append(out, EffectAt{Aura: a.clone(), DistanceFeet: d})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceFeet < out[j].DistanceFeet })
	return out
}

// State returns a copy of the auras and membership
func (e *Engine) State() State {
	s := State{
		Auras:          make([]Aura, len(e.auras)),
		AffectedTokens: e.AffectedTokens(),
	}
	for i, a := range e.auras {
		s.Auras[i] = a.clone()
	}
	return s
}

// OnChange registers fn to receive the state after every mutation. The
// returned func unsubscribes.
func (e *Engine) OnChange(fn func(State)) func() {
	e.nextSubID++
	id := e.nextSubID
	e.subscribers = append(e.subscribers, changeSubscriber{id: id, fn: fn})
	return func() {
		for i, s := range e.subscribers {
			if s.id == id {
				e.subscribers = slices.Delete(e.subscribers, i, i+1)
				return
			}
		}
	}
}

func (e *Engine) changed() {
	e.recomputeAffectedTokens()
	if len(e.subscribers) == 0 {
		return
	}
	state := e.State()
	for _, s := range e.subscribers {
		s.fn(state)
	}
}

// recomputeAffectedTokens rebuilds membership from nothing so a removed or
// disabled aura can never leave a token behind
func (e *Engine) recomputeAffectedTokens() {
	affected := make(map[string][]string)
	for _, a := range e.auras {
		if !a.Enabled {
			continue
		}
		for _, tokenID := range e.TokensInAura(a.ID) {
			affected[tokenID] = append(affected[tokenID], a.ID)
		}
	}
	e.affected = affected
	e.log.WithField("auras", len(e.auras)).Debug("aura membership recomputed")
}

func (e *Engine) radiusCells(a *Aura) int {
	if a.RadiusFeet <= 0 {
		return 0
	}
	return int(math.Min(math.Ceil(a.RadiusFeet/float64(e.grid.FeetPerCell())), math.MaxInt32))
}

func (e *Engine) find(id string) *Aura {
	for _, a := range e.auras {
		if a.ID == id {
			return a
		}
	}
	return nil
}
