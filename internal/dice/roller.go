package dice

//go:generate mockgen -destination=mock/mock_roller.go -package=mockdice -source=roller.go

// Roller provides an interface for rolling dice
// This allows us to inject different implementations for testing
type Roller interface {
	// Roll rolls a number of dice with the given sides and adds a bonus
	Roll(count, sides, bonus int) (*RollResult, error)

	// RollWithAdvantage rolls with advantage (roll twice, take higher)
	RollWithAdvantage(sides, bonus int) (*RollResult, error)

	// RollWithDisadvantage rolls with disadvantage (roll twice, take lower)
	RollWithDisadvantage(sides, bonus int) (*RollResult, error)
}

// RollResult is the outcome of one roll
type RollResult struct {
	Total    int   `json:"total"`
	Rolls    []int `json:"rolls"`
	Bonus    int   `json:"bonus"`
	Count    int   `json:"count"`
	Sides    int   `json:"sides"`
	RawTotal int   `json:"raw_total"`

	// IsCrit and IsFumble are only set for a single d20
	IsCrit   bool `json:"is_crit"`
	IsFumble bool `json:"is_fumble"`
}

// Natural returns the kept die of a single-die roll
func (r *RollResult) Natural() int {
	return r.RawTotal
}

// NewRollResult assembles a RollResult from individual die faces
func NewRollResult(rolls []int, sides, bonus int) *RollResult {
	raw := 0
	for _, roll := range rolls {
		raw += roll
	}

	result := &RollResult{
		Total:    raw + bonus,
		Rolls:    rolls,
		Bonus:    bonus,
		Count:    len(rolls),
		Sides:    sides,
		RawTotal: raw,
	}
	markCrit(result, len(rolls), raw)
	return result
}

// newKeptResult builds the result of an advantage or disadvantage roll
func newKeptResult(roll1, roll2, kept, sides, bonus int) *RollResult {
	result := &RollResult{
		Total:    kept + bonus,
		Rolls:    []int{roll1, roll2},
		Bonus:    bonus,
		Count:    1,
		Sides:    sides,
		RawTotal: kept,
	}
	markCrit(result, 1, kept)
	return result
}

func markCrit(result *RollResult, count, natural int) {
	// Check for crit/fumble on d20
	if count == 1 && result.Sides == 20 {
		result.IsCrit = natural == 20
		result.IsFumble = natural == 1
	}
}
