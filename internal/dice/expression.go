package dice

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var expressionPattern = regexp.MustCompile(`^(\d*)d(\d+)(?:([+-])(\d+))?$`)

// Expression is a parsed "NdM+K" damage or healing formula
type Expression struct {
	Count    int
	Sides    int
	Modifier int
}

// ParseExpression parses "NdM", "NdM+K" or "NdM-K". Whitespace and case are
// ignored and a missing N means one die.
func ParseExpression(s string) (Expression, error) {
	compact := strings.ToLower(strings.Join(strings.Fields(s), ""))
	match := expressionPattern.FindStringSubmatch(compact)
	if match == nil {
		return Expression{}, fmt.Errorf("invalid dice expression %q", s)
	}

	count := 1
	if match[1] != "" {
		n, err := strconv.Atoi(match[1])
		if err != nil {
			return Expression{}, fmt.Errorf("invalid dice count in %q: %w", s, err)
		}
		count = n
	}
	sides, err := strconv.Atoi(match[2])
	if err != nil {
		return Expression{}, fmt.Errorf("invalid dice size in %q: %w", s, err)
	}
	if count < 1 || count > MaxDiceCount {
		return Expression{}, fmt.Errorf("%w in %q", ErrInvalidCount, s)
	}
	if sides < 1 {
		return Expression{}, fmt.Errorf("%w in %q", ErrInvalidSides, s)
	}

	modifier := 0
	if match[4] != "" {
		modifier, err = strconv.Atoi(match[4])
		if err != nil {
			return Expression{}, fmt.Errorf("invalid modifier in %q: %w", s, err)
		}
		if match[3] == "-" {
			modifier = -modifier
		}
	}

	return Expression{Count: count, Sides: sides, Modifier: modifier}, nil
}

// String formats the expression back into dice notation
func (e Expression) String() string {
	switch {
	case e.Modifier > 0:
		return fmt.Sprintf("%dd%d+%d", e.Count, e.Sides, e.Modifier)
	case e.Modifier < 0:
		return fmt.Sprintf("%dd%d%d", e.Count, e.Sides, e.Modifier)
	default:
		return fmt.Sprintf("%dd%d", e.Count, e.Sides)
	}
}

// Min is the lowest possible total
func (e Expression) Min() int {
	return e.Count + e.Modifier
}

// Max is the highest possible total
func (e Expression) Max() int {
	return e.Count*e.Sides + e.Modifier
}

// Roll rolls the expression with the given roller
func (e Expression) Roll(roller Roller) (*RollResult, error) {
	return roller.Roll(e.Count, e.Sides, e.Modifier)
}

// RollString parses and rolls an expression in one step
func RollString(roller Roller, s string) (*RollResult, error) {
	expr, err := ParseExpression(s)
	if err != nil {
		return nil, err
	}
	return expr.Roll(roller)
}
