package dice

import (
	"errors"
	"math/rand/v2"
	"sync"
)

// MaxDiceCount is the most dice a single roll may throw
const MaxDiceCount = 100

var (
	// ErrInvalidCount is returned when asked to roll fewer than one die or
	// more than MaxDiceCount
	ErrInvalidCount = errors.New("invalid dice count")
	// ErrInvalidSides is returned for dice with fewer than one side
	ErrInvalidSides = errors.New("invalid dice size")
)

// randomRoller implements Roller with a pseudo-random source
type randomRoller struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomRoller creates a new random dice roller
func NewRandomRoller() Roller {
	return &randomRoller{
		rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

// NewSeededRoller creates a random roller that replays the same sequence for
// the same seed
func NewSeededRoller(seed uint64) Roller {
	return &randomRoller{
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

func (r *randomRoller) die(sides int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.IntN(sides) + 1
}

// Roll implements Roller.Roll
func (r *randomRoller) Roll(count, sides, bonus int) (*RollResult, error) {
	if count < 1 || count > MaxDiceCount {
		return nil, ErrInvalidCount
	}
	if sides < 1 {
		return nil, ErrInvalidSides
	}

	rolls := make([]int, count)
	for i := range rolls {
		rolls[i] = r.die(sides)
	}

	return NewRollResult(rolls, sides, bonus), nil
}

// RollWithAdvantage implements Roller.RollWithAdvantage
func (r *randomRoller) RollWithAdvantage(sides, bonus int) (*RollResult, error) {
	if sides < 1 {
		return nil, ErrInvalidSides
	}

	roll1, roll2 := r.die(sides), r.die(sides)
	return newKeptResult(roll1, roll2, max(roll1, roll2), sides, bonus), nil
}

// RollWithDisadvantage implements Roller.RollWithDisadvantage
func (r *randomRoller) RollWithDisadvantage(sides, bonus int) (*RollResult, error) {
	if sides < 1 {
		return nil, ErrInvalidSides
	}

	roll1, roll2 := r.die(sides), r.die(sides)
	return newKeptResult(roll1, roll2, min(roll1, roll2), sides, bonus), nil
}
