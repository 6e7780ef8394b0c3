package battle

import (
	"time"
)

// Event labels used in the battle log
const (
	ActionJoined        = "Joined battle"
	ActionLeft          = "Left battle"
	ActionBattleStart   = "Battle started"
	ActionBattleEnd     = "Battle ended"
	ActionTurn          = "Turn"
	ActionNewRound      = "New round"
	ActionAttack        = "Attack"
	ActionMove          = "Move"
	ActionDamage        = "Damage"
	ActionHeal          = "Heal"
	ActionUnconscious   = "Unconscious"
	ActionCondition     = "Condition"
	ActionConditionGone = "Condition removed"
)

// SystemActor is the actor recorded for events no token caused
const SystemActor = "System"

// Event is one immutable entry of the battle log
type Event struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Round     int       `json:"round"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Target    string    `json:"target,omitempty"`
	Result    string    `json:"result"`
	Damage    int       `json:"damage,omitempty"`
}

// EventHandler receives events as they are appended. Handlers run
// synchronously and must not call back into the engine.
type EventHandler func(Event)

type subscriber struct {
	id int
	fn EventHandler
}
