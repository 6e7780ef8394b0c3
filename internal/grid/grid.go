// Package grid holds the square-grid coordinate math shared by every
// battlefield subsystem. A Grid is an immutable value; none of its queries
// fail, out of range input is clamped or filtered instead.
package grid

import (
	"math"
)

const (
	// DefaultFeetPerCell is the D&D 5-foot square
	DefaultFeetPerCell = 5
	// DefaultCellSize is the width of a cell in world units
	DefaultCellSize = 1.0
)

// DiagonalRule selects how Measure counts diagonal steps
type DiagonalRule string

const (
	// DiagonalFiveTenFive counts every diagonal as one cell (Chebyshev)
	DiagonalFiveTenFive DiagonalRule = "5-10-5"
	// DiagonalEuclid uses straight-line distance between cell centers
	DiagonalEuclid DiagonalRule = "euclid"
)

// Position is an integer cell coordinate
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// WorldPosition is a point in world units. Y is elevation and is ignored by
// grid math; grid Y maps to world Z.
type WorldPosition struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Config describes a grid
type Config struct {
	Width        int
	Height       int
	CellSize     float64
	FeetPerCell  int
	DiagonalRule DiagonalRule
}

// Grid performs coordinate math for one map
type Grid struct {
	width        int
	height       int
	cellSize     float64
	feetPerCell  int
	diagonalRule DiagonalRule
}

// New creates a Grid. Zero values fall back to defaults and dimensions below
// one cell are raised to one.
func New(cfg Config) *Grid {
	g := &Grid{
		width:        cfg.Width,
		height:       cfg.Height,
		cellSize:     cfg.CellSize,
		feetPerCell:  cfg.FeetPerCell,
		diagonalRule: cfg.DiagonalRule,
	}
	if g.width < 1 {
		g.width = 1
	}
	if g.height < 1 {
		g.height = 1
	}
	if g.cellSize <= 0 {
		g.cellSize = DefaultCellSize
	}
	if g.feetPerCell <= 0 {
		g.feetPerCell = DefaultFeetPerCell
	}
	if g.diagonalRule == "" {
		g.diagonalRule = DiagonalFiveTenFive
	}
	return g
}

// Width returns the number of columns
func (g *Grid) Width() int { return g.width }

// Height returns the number of rows
func (g *Grid) Height() int { return g.height }

// FeetPerCell returns the real-world size of one cell
func (g *Grid) FeetPerCell() int { return g.feetPerCell }

// CellArea returns the square footage of one cell
func (g *Grid) CellArea() int { return g.feetPerCell * g.feetPerCell }

// InBounds reports whether pos is a valid cell
func (g *Grid) InBounds(pos Position) bool {
	return pos.X >= 0 && pos.X < g.width && pos.Y >= 0 && pos.Y < g.height
}

// Clamp moves pos onto the nearest valid cell
func (g *Grid) Clamp(pos Position) Position {
	return Position{
		X: clampInt(pos.X, 0, g.width-1),
		Y: clampInt(pos.Y, 0, g.height-1),
	}
}

// WorldToGrid converts a world point to the cell containing it. The map is
// centered on the world origin. Points off the map saturate to the edge.
func (g *Grid) WorldToGrid(p WorldPosition) Position {
	halfW := float64(g.width) * g.cellSize / 2
	halfH := float64(g.height) * g.cellSize / 2

	x := int(math.Floor((p.X + halfW) / g.cellSize))
	y := int(math.Floor((p.Z + halfH) / g.cellSize))

	return g.Clamp(Position{X: x, Y: y})
}

// GridToWorld returns the world point at the center of a cell
func (g *Grid) GridToWorld(pos Position) WorldPosition {
	halfW := float64(g.width) * g.cellSize / 2
	halfH := float64(g.height) * g.cellSize / 2

	return WorldPosition{
		X: float64(pos.X)*g.cellSize - halfW + g.cellSize/2,
		Y: 0,
		Z: float64(pos.Y)*g.cellSize - halfH + g.cellSize/2,
	}
}

// Distance is the 5-foot-rule grid distance, max(|dx|, |dy|)
func (g *Grid) Distance(a, b Position) int {
	return Chebyshev(a, b)
}

// DistanceFeet is Distance converted to feet
func (g *Grid) DistanceFeet(a, b Position) int {
	return Chebyshev(a, b) * g.feetPerCell
}

// EuclideanDistance is the exact distance between cell centers in cells
func (g *Grid) EuclideanDistance(a, b Position) float64 {
	return Euclidean(a, b)
}

// Measured is a distance in cells and feet rounded to two decimals
type Measured struct {
	Cells float64 `json:"cells"`
	Feet  float64 `json:"feet"`
}

// Measure returns the distance between two cells under the grid's diagonal rule
func (g *Grid) Measure(a, b Position) Measured {
	var cells float64
	if g.diagonalRule == DiagonalEuclid {
		cells = Euclidean(a, b)
	} else {
		cells = float64(Chebyshev(a, b))
	}
	return Measured{
		Cells: round2(cells),
		Feet:  round2(cells * float64(g.feetPerCell)),
	}
}

// LineOfSightCells rasterizes the segment between two cells, endpoints
// included, keeping only cells on the map.
func (g *Grid) LineOfSightCells(from, to Position) []Position {
	line := Line(from, to)
	out := line[:0]
	for _, p := range line {
		if g.InBounds(p) {
			out = append(out, p)
		}
	}
	return out
}

// CellsInRadius returns all valid cells within radius grid distance of center.
// Only the part of the box that overlaps the map is visited.
func (g *Grid) CellsInRadius(center Position, radius int) []Position {
	if radius < 0 {
		return nil
	}
	// any larger radius already covers the whole map
	if reach := maxInt(g.width, g.height) + maxInt(absInt(center.X), absInt(center.Y)); radius > reach {
		radius = reach
	}

	lo, hi, ok := g.clipBox(
		Position{X: center.X - radius, Y: center.Y - radius},
		Position{X: center.X + radius, Y: center.Y + radius},
	)
	if !ok {
		return nil
	}

	var cells []Position
	for x := lo.X; x <= hi.X; x++ {
		for y := lo.Y; y <= hi.Y; y++ {
			p := Position{X: x, Y: y}
			if Chebyshev(center, p) <= radius {
				cells = append(cells, p)
			}
		}
	}
	return cells
}

// CellsInRect returns the valid cells of the inclusive box [lo, hi]
func (g *Grid) CellsInRect(lo, hi Position) []Position {
	lo, hi, ok := g.clipBox(lo, hi)
	if !ok {
		return nil
	}

	cells := make([]Position, 0, (hi.X-lo.X+1)*(hi.Y-lo.Y+1))
	for x := lo.X; x <= hi.X; x++ {
		for y := lo.Y; y <= hi.Y; y++ {
			cells = append(cells, Position{X: x, Y: y})
		}
	}
	return cells
}

// clipBox intersects the inclusive box [lo, hi] with the map. It returns
// false when they do not overlap.
func (g *Grid) clipBox(lo, hi Position) (Position, Position, bool) {
	if hi.X < 0 || hi.Y < 0 || lo.X >= g.width || lo.Y >= g.height || lo.X > hi.X || lo.Y > hi.Y {
		return Position{}, Position{}, false
	}
	lo = Position{X: maxInt(lo.X, 0), Y: maxInt(lo.Y, 0)}
	hi = Position{X: min(hi.X, g.width-1), Y: min(hi.Y, g.height-1)}
	return lo, hi, true
}

var (
	orthogonal = []Position{{0, -1}, {1, 0}, {0, 1}, {-1, 0}}
	diagonal   = []Position{{1, -1}, {1, 1}, {-1, 1}, {-1, -1}}
)

// AdjacentCells returns the 4 or 8 neighbors of pos that are on the map
func (g *Grid) AdjacentCells(pos Position, includeDiagonals bool) []Position {
	cells := make([]Position, 0, 8)
	for _, d := range orthogonal {
		if p := (Position{X: pos.X + d.X, Y: pos.Y + d.Y}); g.InBounds(p) {
			cells = append(cells, p)
		}
	}
	if includeDiagonals {
		for _, d := range diagonal {
			if p := (Position{X: pos.X + d.X, Y: pos.Y + d.Y}); g.InBounds(p) {
				cells = append(cells, p)
			}
		}
	}
	return cells
}

// Line is an unbounded Bresenham rasterization from one cell to another,
// inclusive of both endpoints.
func Line(from, to Position) []Position {
	dx := absInt(to.X - from.X)
	dy := absInt(to.Y - from.Y)
	sx, sy := 1, 1
	if from.X > to.X {
		sx = -1
	}
	if from.Y > to.Y {
		sy = -1
	}

	cells := make([]Position, 0, maxInt(dx, dy)+1)
	err := dx - dy
	x, y := from.X, from.Y
	for {
		cells = append(cells, Position{X: x, Y: y})
		if x == to.X && y == to.Y {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x += sx
		}
		if e2 < dx {
			err += dx
			y += sy
		}
	}
	return cells
}

// Chebyshev returns max(|dx|, |dy|)
func Chebyshev(a, b Position) int {
	return maxInt(absInt(a.X-b.X), absInt(a.Y-b.Y))
}

// Euclidean returns the straight-line distance in cells
func Euclidean(a, b Position) float64 {
	return math.Hypot(float64(a.X-b.X), float64(a.Y-b.Y))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
