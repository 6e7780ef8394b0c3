package grid

import (
	"strconv"
	"strings"
)

// CellKey encodes a position as "x,y"
func CellKey(pos Position) string {
	return strconv.Itoa(pos.X) + "," + strconv.Itoa(pos.Y)
}

// ParseCellKey is the inverse of CellKey. Anything CellKey could not have
// produced returns false.
func ParseCellKey(key string) (Position, bool) {
	xs, ys, found := strings.Cut(key, ",")
	if !found {
		return Position{}, false
	}

	x, err := strconv.Atoi(xs)
	if err != nil {
		return Position{}, false
	}
	y, err := strconv.Atoi(ys)
	if err != nil {
		return Position{}, false
	}

	pos := Position{X: x, Y: y}
	if CellKey(pos) != key {
		// rejects "+1,2", "01,2" and friends
		return Position{}, false
	}
	return pos, true
}
