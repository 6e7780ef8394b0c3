// Package battle runs one battle: the token roster, turn order, action
// economy and the event log.
package battle

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/KirkDiggler/dnd-tactics/internal/actions"
	"github.com/KirkDiggler/dnd-tactics/internal/dice"
	dnderr "github.com/KirkDiggler/dnd-tactics/internal/errors"
	"github.com/KirkDiggler/dnd-tactics/internal/grid"
	"github.com/KirkDiggler/dnd-tactics/internal/initiative"
	"github.com/KirkDiggler/dnd-tactics/internal/logging"
	"github.com/KirkDiggler/dnd-tactics/internal/rules"
	"github.com/KirkDiggler/dnd-tactics/internal/uuid"
)

// ErrNoTokens is returned when a battle is started with an empty roster
var ErrNoTokens = errors.New("battle has no tokens")

// Phase is where the battle is in its lifecycle
type Phase string

const (
	PhaseSetup      Phase = "setup"
	PhaseInitiative Phase = "initiative"
	PhaseCombat     Phase = "combat"
	PhaseEnded      Phase = "ended"
)

// Config configures an Engine. Every field is optional.
type Config struct {
	Roller        dice.Roller
	CritPolicy    actions.CritPolicy
	InitiativeDie int
	IDs           uuid.Generator
	Clock         func() time.Time
	Logger        logrus.FieldLogger
}

// Engine owns the canonical state of one battle. It is not safe for
// concurrent use; callers sharing an Engine must serialize access.
type Engine struct {
	tokens    []*Token
	phase     Phase
	active    bool
	round     int
	currentID string
	events    []Event

	subscribers []subscriber
	nextSubID   int

	initiative *initiative.Tracker
	actions    *actions.System
	ids        uuid.Generator
	now        func() time.Time
	log        logrus.FieldLogger
}

// NewEngine creates an Engine in the setup phase
func NewEngine(cfg *Config) *Engine {
	if cfg == nil {
		cfg = &Config{}
	}

	roller := cfg.Roller
	if roller == nil {
		roller = dice.NewRandomRoller()
	}
	log := logging.OrDiscard(cfg.Logger)

	e := &Engine{
		phase: PhaseSetup,
		initiative: initiative.NewTracker(&initiative.Config{
			Roller:  roller,
			DieSize: cfg.InitiativeDie,
		}),
		actions: actions.NewSystem(&actions.Config{
			Roller:     roller,
			CritPolicy: cfg.CritPolicy,
			Logger:     log,
		}),
		ids: cfg.IDs,
		now: cfg.Clock,
		log: log,
	}
	if e.ids == nil {
		e.ids = uuid.NewGoogleUUIDGenerator()
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// AddToken puts a token on the roster. A token joining mid-combat rolls
// initiative immediately. Adding an id that is already present does nothing
// and returns false.
func (e *Engine) AddToken(token Token) bool {
	if e.find(token.ID) != nil {
		e.log.WithField("token_id", token.ID).Warn("token already in battle")
		return false
	}

	t := token.clone()
	t.HP = clamp(t.HP, 0, t.MaxHP)
	e.tokens = append(e.tokens, &t)
	e.actions.InitializeResources(t.ID, float64(t.Speed))

	if e.phase == PhaseCombat {
		if _, err := e.initiative.Add(t.ID, t.Name, t.DexterityModifier); err != nil {
			e.log.WithError(err).WithField("token_id", t.ID).Error("failed to roll initiative for joining token")
		}
	}

	e.addEvent(Event{
		Actor:  t.Name,
		Action: ActionJoined,
		Result: fmt.Sprintf("%s joined the battle", t.Name),
	})
	return true
}

// RemoveToken takes a token off the roster along with its initiative entry
// and resources. If it was the token's turn, the turn passes on first.
func (e *Engine) RemoveToken(tokenID string) bool {
	token := e.find(tokenID)
	if token == nil {
		return false
	}
	name := token.Name

	if e.phase == PhaseCombat && e.currentID == tokenID {
		if e.initiative.Len() > 1 {
			e.NextTurn()
		} else {
			e.currentID = ""
		}
	}

	e.initiative.Remove(tokenID)
	e.actions.RemoveToken(tokenID)
	for i, t := range e.tokens {
		if t.ID == tokenID {
			e.tokens = append(e.tokens[:i], e.tokens[i+1:]...)
			break
		}
	}

	e.addEvent(Event{
		Actor:  name,
		Action: ActionLeft,
		Result: fmt.Sprintf("%s left the battle", name),
	})
	return true
}

// StartBattle rolls initiative for every token and begins round 1 with the
// highest roll. It fails when there are no tokens, combat is already running
// or the battle has ended. An ended battle only starts again after Reset.
func (e *Engine) StartBattle() error {
	if len(e.tokens) == 0 {
		return dnderr.WrapWithCode(ErrNoTokens, dnderr.CodeFailedPrecondition, "cannot start battle")
	}
	switch e.phase {
	case PhaseCombat:
		return dnderr.FailedPrecondition("battle already in progress")
	case PhaseEnded:
		return dnderr.FailedPrecondition("battle has ended; reset it first")
	}

	e.phase = PhaseInitiative
	e.initiative.Reset()
	for _, t := range e.tokens {
		if _, err := e.initiative.Add(t.ID, t.Name, t.DexterityModifier); err != nil {
			e.initiative.Reset()
			e.phase = PhaseSetup
			return dnderr.Wrapf(err, "failed to roll initiative for %s", t.ID)
		}
		e.actions.ResetTurnResources(t.ID)
		e.actions.ResetRoundResources(t.ID)
	}

	e.phase = PhaseCombat
	e.active = true
	e.round = 1

	first, ok := e.initiative.Start()
	if ok {
		e.currentID = first.TokenID
	}

	e.addEvent(Event{
		Actor:  SystemActor,
		Action: ActionBattleStart,
		Result: "Battle started! Initiative order is set.",
	})
	if ok {
		e.addEvent(Event{
			Actor:  first.Name,
			Action: ActionTurn,
			Result: fmt.Sprintf("%s's turn", first.Name),
		})
	}

	e.log.WithField("tokens", len(e.tokens)).Info("battle started")
	return nil
}

// EndBattle stops combat and clears the turn order. Tokens stay on the roster.
func (e *Engine) EndBattle() {
	e.active = false
	e.phase = PhaseEnded
	e.currentID = ""
	e.initiative.Reset()

	e.addEvent(Event{
		Actor:  SystemActor,
		Action: ActionBattleEnd,
		Result: "The battle is over.",
	})
	e.log.WithField("round", e.round).Info("battle ended")
}

// NextTurn passes the turn to the next token in initiative order. Returns
// false outside combat or when nobody is left in the order.
func (e *Engine) NextTurn() (Token, bool) {
	if e.phase != PhaseCombat {
		return Token{}, false
	}

	next, ok := e.initiative.NextTurn()

	if round := e.initiative.Round(); round > e.round {
		e.round = round
		e.addEvent(Event{
			Actor:  SystemActor,
			Action: ActionNewRound,
			Result: fmt.Sprintf("Round %d begins", round),
		})
		for _, t := range e.tokens {
			e.actions.ResetRoundResources(t.ID)
		}
	}

	if !ok {
		return Token{}, false
	}

	e.currentID = next.TokenID
	e.actions.ResetTurnResources(next.TokenID)
	e.addEvent(Event{
		Actor:  next.Name,
		Action: ActionTurn,
		Result: fmt.Sprintf("%s's turn", next.Name),
	})

	token := e.find(next.TokenID)
	if token == nil {
		return Token{}, false
	}
	return token.clone(), true
}

// PerformAttack has the attacker attack the target with its own attack bonus
// and damage roll. The attacker must be the active token with its action
// unspent. A hit spends the action and applies the damage. Every resolved
// attack is logged, hit or miss.
func (e *Engine) PerformAttack(attackerID, targetID string) actions.Result {
	attacker := e.find(attackerID)
	target := e.find(targetID)
	if attacker == nil || target == nil {
		return actions.Result{Message: "invalid attack participants"}
	}

	if !e.CanTokenAct(attackerID) {
		return actions.Result{Message: fmt.Sprintf("it is not %s's turn", attacker.Name)}
	}
	if rules.PreventsActions(attacker.Conditions) {
		return actions.Result{Message: fmt.Sprintf("%s cannot take actions", attacker.Name)}
	}
	if !e.actions.CanPerform(attackerID, rules.ActionTypeAction, 1) {
		return actions.Result{Message: fmt.Sprintf("%s has already used their action", attacker.Name)}
	}

	result, err := e.actions.PerformAttack(attackerID, targetID, attacker.AttackBonus, target.AC, attacker.DamageRoll)
	if err != nil {
		e.log.WithError(err).WithFields(logrus.Fields{
			"attacker_id": attackerID,
			"target_id":   targetID,
		}).Error("attack could not be resolved")
		return actions.Result{Message: "attack could not be resolved"}
	}

	if result.Success {
		e.actions.Consume(attackerID, rules.ActionTypeAction, 1)
	}

	e.addEvent(Event{
		Actor:  attacker.Name,
		Action: ActionAttack,
		Target: target.Name,
		Result: result.Message,
		Damage: result.Damage,
	})

	if result.Success && result.Damage > 0 {
		e.applyDamage(target, result.Damage)
	}

	return result
}

// MoveToken moves a token to pos, spending distance cells of movement. The
// move is refused, and nothing changes, when the token cannot afford it or it
// is another token's turn.
func (e *Engine) MoveToken(tokenID string, pos grid.WorldPosition, distance float64) bool {
	token := e.find(tokenID)
	if token == nil {
		return false
	}
	if e.phase == PhaseCombat && !e.CanTokenAct(tokenID) {
		return false
	}
	if rules.PreventsMovement(token.Conditions) {
		return false
	}
	if !e.actions.Consume(tokenID, rules.ActionTypeMovement, distance) {
		return false
	}

	token.Position = pos
	e.addEvent(Event{
		Actor:  token.Name,
		Action: ActionMove,
		Result: fmt.Sprintf("%s moved %s cells", token.Name, formatCells(distance)),
	})
	return true
}

// ApplyDamage takes hit points from a token, never below zero
func (e *Engine) ApplyDamage(tokenID string, damage int) bool {
	token := e.find(tokenID)
	if token == nil {
		return false
	}

	e.addEvent(Event{
		Actor:  token.Name,
		Action: ActionDamage,
		Result: fmt.Sprintf("%s took %d damage", token.Name, max(0, damage)),
		Damage: max(0, damage),
	})
	e.applyDamage(token, damage)
	return true
}

func (e *Engine) applyDamage(token *Token, damage int) {
	before := token.HP
	token.HP = clamp(token.HP-max(0, damage), 0, token.MaxHP)

	if token.HP == 0 && before > 0 {
		e.addCondition(token, rules.ConditionUnconscious)
		e.addEvent(Event{
			Actor:  token.Name,
			Action: ActionUnconscious,
			Result: fmt.Sprintf("%s fell unconscious", token.Name),
		})
	}
}

// HealToken restores hit points up to the token's maximum, waking it if it
// was unconscious
func (e *Engine) HealToken(tokenID string, amount int) bool {
	token := e.find(tokenID)
	if token == nil {
		return false
	}

	before := token.HP
	token.HP = clamp(token.HP+max(0, amount), 0, token.MaxHP)
	healed := token.HP - before

	if token.HP > 0 && token.HasCondition(rules.ConditionUnconscious) {
		e.removeCondition(token, rules.ConditionUnconscious)
	}

	e.addEvent(Event{
		Actor:  token.Name,
		Action: ActionHeal,
		Result: fmt.Sprintf("%s restored %d HP", token.Name, healed),
	})
	return true
}

// AddCondition gives a token a condition. Returns false for unknown tokens
// and conditions the token already has.
func (e *Engine) AddCondition(tokenID string, condition rules.Condition) bool {
	token := e.find(tokenID)
	if token == nil {
		return false
	}
	return e.addCondition(token, condition)
}

func (e *Engine) addCondition(token *Token, condition rules.Condition) bool {
	if token.HasCondition(condition) {
		return false
	}

	token.Conditions = append(token.Conditions, condition)
	e.addEvent(Event{
		Actor:  token.Name,
		Action: ActionCondition,
		Result: fmt.Sprintf("%s gained condition: %s", token.Name, condition),
	})
	return true
}

// RemoveCondition clears a condition. Returns false if it was not present.
func (e *Engine) RemoveCondition(tokenID string, condition rules.Condition) bool {
	token := e.find(tokenID)
	if token == nil {
		return false
	}
	return e.removeCondition(token, condition)
}

func (e *Engine) removeCondition(token *Token, condition rules.Condition) bool {
	idx := -1
	for i, c := range token.Conditions {
		if c == condition {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}

	token.Conditions = append(token.Conditions[:idx], token.Conditions[idx+1:]...)
	e.addEvent(Event{
		Actor:  token.Name,
		Action: ActionConditionGone,
		Result: fmt.Sprintf("%s is no longer %s", token.Name, condition),
	})
	return true
}

// OnBattleEvent registers fn for every event appended from now on. Handlers
// are called in registration order. The returned func unsubscribes.
func (e *Engine) OnBattleEvent(fn EventHandler) func() {
	e.nextSubID++
	id := e.nextSubID
	e.subscribers = append(e.subscribers, subscriber{id: id, fn: fn})

	return func() {
		for i, s := range e.subscribers {
			if s.id == id {
				e.subscribers = append(e.subscribers[:i], e.subscribers[i+1:]...)
				return
			}
		}
	}
}

func (e *Engine) addEvent(event Event) {
	event.ID = e.ids.New()
	event.Timestamp = e.now()
	event.Round = e.round

	e.events = append(e.events, event)
	if len(e.events) > rules.MaxEventLog {
		e.events = append([]Event(nil), e.events[len(e.events)-rules.MaxEventLog:]...)
	}

	for _, s := range e.subscribers {
		s.fn(event)
	}
}

// Reset returns the engine to an empty setup phase and drops all subscribers
func (e *Engine) Reset() {
	e.tokens = nil
	e.phase = PhaseSetup
	e.active = false
	e.round = 0
	e.currentID = ""
	e.events = nil
	e.subscribers = nil
	e.initiative.Reset()
	e.actions.Reset()
}

func (e *Engine) find(tokenID string) *Token {
	for _, t := range e.tokens {
		if t.ID == tokenID {
			return t
		}
	}
	return nil
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	return min(max(v, lo), hi)
}

func formatCells(distance float64) string {
	if distance == float64(int(distance)) {
		return fmt.Sprintf("%d", int(distance))
	}
	return fmt.Sprintf("%.1f", distance)
}
