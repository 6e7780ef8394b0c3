// Package actions tracks each token's action economy and resolves attacks.
package actions

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/KirkDiggler/dnd-tactics/internal/dice"
	"github.com/KirkDiggler/dnd-tactics/internal/logging"
	"github.com/KirkDiggler/dnd-tactics/internal/rules"
)

// CritPolicy decides how a critical hit's damage is rolled
type CritPolicy string

const (
	// CritRollTwice rolls the whole damage expression twice and sums the
	// results, so the flat modifier counts twice.
	CritRollTwice CritPolicy = "roll_twice"
	// CritDoubleDice doubles the dice and adds the modifier once
	CritDoubleDice CritPolicy = "double_dice"
)

// Valid reports whether p is a known policy
func (p CritPolicy) Valid() bool {
	return p == CritRollTwice || p == CritDoubleDice
}

// Result is the outcome of an attack, heal or spell
type Result struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Damage  int      `json:"damage,omitempty"`
	Effects []string `json:"effects,omitempty"`

	AttackRoll   int  `json:"attack_roll,omitempty"`
	TotalAttack  int  `json:"total_attack,omitempty"`
	Critical     bool `json:"critical,omitempty"`
	CriticalMiss bool `json:"critical_miss,omitempty"`
}

// Config configures a System
type Config struct {
	Roller     dice.Roller
	CritPolicy CritPolicy
	Logger     logrus.FieldLogger
}

// System owns the resource pools of every token in a battle
type System struct {
	resources  map[string]*Resources
	roller     dice.Roller
	critPolicy CritPolicy
	log        logrus.FieldLogger
}

// NewSystem creates a System. Nil dependencies fall back to random dice, the
// roll twice crit policy and a discarding logger.
func NewSystem(cfg *Config) *System {
	s := &System{
		resources:  make(map[string]*Resources),
		critPolicy: CritRollTwice,
	}
	if cfg != nil {
		s.roller = cfg.Roller
		if cfg.CritPolicy.Valid() {
			s.critPolicy = cfg.CritPolicy
		}
		s.log = cfg.Logger
	}
	if s.roller == nil {
		s.roller = dice.NewRandomRoller()
	}
	s.log = logging.OrDiscard(s.log)
	return s
}

// CritPolicy returns the policy in effect
func (s *System) CritPolicy() CritPolicy {
	return s.critPolicy
}

// InitializeResources gives a token a full pool, replacing any existing one
func (s *System) InitializeResources(tokenID string, maxMovement float64) {
	r := NewResources(maxMovement)
	s.resources[tokenID] = &r
}

// SetResources installs a pool as is, used when restoring a saved battle
func (s *System) SetResources(tokenID string, r Resources) {
	s.resources[tokenID] = &r
}

// Resources returns a copy of a token's pool
func (s *System) Resources(tokenID string) (Resources, bool) {
	r, ok := s.resources[tokenID]
	if !ok {
		return Resources{}, false
	}
	return *r, true
}

// RemoveToken forgets a token's pool
func (s *System) RemoveToken(tokenID string) {
	delete(s.resources, tokenID)
}

// Reset forgets every pool
func (s *System) Reset() {
	s.resources = make(map[string]*Resources)
}

// CanPerform reports whether a token can pay cost from the pool for
// actionType. Free actions are always allowed for known tokens.
func (s *System) CanPerform(tokenID string, actionType rules.ActionType, cost float64) bool {
	r, ok := s.resources[tokenID]
	if !ok || cost < 0 {
		return false
	}
	return r.has(actionType, cost)
}

// Consume pays cost from the pool. Returns false, leaving the pool untouched,
// when the token cannot afford it.
func (s *System) Consume(tokenID string, actionType rules.ActionType, cost float64) bool {
	if !s.CanPerform(tokenID, actionType, cost) {
		return false
	}
	s.resources[tokenID].spend(actionType, cost)
	return true
}

// ResetTurnResources restores actions, bonus actions and movement
func (s *System) ResetTurnResources(tokenID string) {
	if r, ok := s.resources[tokenID]; ok {
		r.resetTurn()
	}
}

// ResetRoundResources restores reactions
func (s *System) ResetRoundResources(tokenID string) {
	if r, ok := s.resources[tokenID]; ok {
		r.resetRound()
	}
}

// PerformAttack rolls a d20 attack and, on a hit, the damage. A natural 1
// always misses and a natural 20 always hits. Resources are not touched.
func (s *System) PerformAttack(attackerID, targetID string, attackBonus, targetAC int, damageExpr string) (Result, error) {
	roll, err := s.roller.Roll(1, rules.AttackDie, attackBonus)
	if err != nil {
		return Result{}, fmt.Errorf("attack roll: %w", err)
	}

	natural := roll.Natural()
	result := Result{
		AttackRoll:   natural,
		TotalAttack:  roll.Total,
		Critical:     natural == rules.NaturalCrit,
		CriticalMiss: natural == rules.NaturalFumble,
	}

	log := s.log.WithFields(logrus.Fields{
		"attacker_id": attackerID,
		"target_id":   targetID,
		"roll":        natural,
		"total":       roll.Total,
		"target_ac":   targetAC,
	})

	if result.CriticalMiss {
		result.Message = fmt.Sprintf("Critical miss! (%d)", natural)
		log.Debug("attack critically missed")
		return result, nil
	}

	if roll.Total < targetAC && !result.Critical {
		result.Message = fmt.Sprintf("Miss! (%d vs AC %d)", roll.Total, targetAC)
		log.Debug("attack missed")
		return result, nil
	}

	damage, err := s.rollDamage(damageExpr, result.Critical)
	if err != nil {
		return Result{}, err
	}

	result.Success = true
	result.Damage = damage
	if result.Critical {
		result.Message = fmt.Sprintf("Critical hit! (%d) - %d damage", natural, damage)
	} else {
		result.Message = fmt.Sprintf("Hit! (%d vs AC %d) - %d damage", roll.Total, targetAC, damage)
	}
	log.WithField("damage", damage).Debug("attack hit")

	return result, nil
}

// rollDamage rolls a damage expression. An unparseable expression deals no
// damage. Each roll is floored at zero.
func (s *System) rollDamage(damageExpr string, critical bool) (int, error) {
	expr, err := dice.ParseExpression(damageExpr)
	if err != nil {
		s.log.WithError(err).Warn("unparseable damage expression, dealing no damage")
		return 0, nil
	}

	if critical && s.critPolicy == CritDoubleDice {
		// the extra dice are a second roll so neither exceeds dice.MaxDiceCount
		first, err := expr.Roll(s.roller)
		if err != nil {
			return 0, fmt.Errorf("damage roll: %w", err)
		}
		extra, err := s.roller.Roll(expr.Count, expr.Sides, 0)
		if err != nil {
			return 0, fmt.Errorf("damage roll: %w", err)
		}
		return max(0, first.Total+extra.Total), nil
	}

	damage, err := s.rollOnce(expr)
	if err != nil {
		return 0, err
	}
	if critical {
		extra, err := s.rollOnce(expr)
		if err != nil {
			return 0, err
		}
		damage += extra
	}
	return damage, nil
}

func (s *System) rollOnce(expr dice.Expression) (int, error) {
	result, err := expr.Roll(s.roller)
	if err != nil {
		return 0, fmt.Errorf("damage roll: %w", err)
	}
	return max(0, result.Total), nil
}

// PerformHeal describes a heal. Damage is the negated amount.
func (s *System) PerformHeal(targetID string, amount int) Result {
	return Result{
		Success: true,
		Message: fmt.Sprintf("Healed for %d HP", amount),
		Damage:  -amount,
	}
}

// PerformSpell describes a spell landing on its targets
func (s *System) PerformSpell(casterID, spellName string, targets []string, effect string) Result {
	noun := "target"
	if len(targets) != 1 {
		noun = "targets"
	}
	return Result{
		Success: true,
		Message: fmt.Sprintf("%s applied to %d %s", spellName, len(targets), noun),
		Effects: []string{effect},
	}
}
