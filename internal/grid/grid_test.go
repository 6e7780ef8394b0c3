package grid_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KirkDiggler/dnd-tactics/internal/grid"
)

func newTestGrid() *grid.Grid {
	return grid.New(grid.Config{Width: 10, Height: 10, CellSize: 1, FeetPerCell: 5})
}

func TestGrid_WorldToGrid(t *testing.T) {
	g := newTestGrid()

	tests := []struct {
		name  string
		world grid.WorldPosition
		want  grid.Position
	}{
		{name: "origin is the middle cell", world: grid.WorldPosition{X: 0, Z: 0}, want: grid.Position{X: 5, Y: 5}},
		{name: "top left corner", world: grid.WorldPosition{X: -5, Z: -5}, want: grid.Position{X: 0, Y: 0}},
		{name: "inside a cell", world: grid.WorldPosition{X: 1.7, Z: -2.2}, want: grid.Position{X: 6, Y: 2}},
		{name: "elevation ignored", world: grid.WorldPosition{X: 0.5, Y: 30, Z: 0.5}, want: grid.Position{X: 5, Y: 5}},
		{name: "far left saturates", world: grid.WorldPosition{X: -500, Z: 0}, want: grid.Position{X: 0, Y: 5}},
		{name: "far corner saturates", world: grid.WorldPosition{X: 500, Z: 500}, want: grid.Position{X: 9, Y: 9}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, g.WorldToGrid(tt.world))
		})
	}
}

func TestGrid_RoundTripIsCellCenter(t *testing.T) {
	g := newTestGrid()

	points := []grid.WorldPosition{
		{X: 0.1, Z: 0.9},
		{X: -3.4, Z: 2.5},
		{X: 4.99, Z: -4.99},
	}
	for _, p := range points {
		cell := g.WorldToGrid(p)
		center := g.GridToWorld(cell)

		assert.Equal(t, cell, g.WorldToGrid(center), "center must lie in the same cell")
		assert.Equal(t, center, g.GridToWorld(g.WorldToGrid(center)), "round trip must be idempotent")
		assert.InDelta(t, p.X, center.X, 0.5)
		assert.InDelta(t, p.Z, center.Z, 0.5)
	}
}

func TestGrid_Distance(t *testing.T) {
	g := newTestGrid()

	tests := []struct {
		name   string
		a, b   grid.Position
		cells  int
		feet   int
		euclid float64
	}{
		{name: "same cell", a: grid.Position{X: 2, Y: 2}, b: grid.Position{X: 2, Y: 2}, cells: 0, feet: 0, euclid: 0},
		{name: "straight", a: grid.Position{X: 0, Y: 0}, b: grid.Position{X: 0, Y: 4}, cells: 4, feet: 20, euclid: 4},
		{name: "diagonal counts once", a: grid.Position{X: 0, Y: 0}, b: grid.Position{X: 3, Y: 3}, cells: 3, feet: 15, euclid: 4.2426},
		{name: "mixed", a: grid.Position{X: 1, Y: 1}, b: grid.Position{X: 4, Y: 2}, cells: 3, feet: 15, euclid: 3.1623},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.cells, g.Distance(tt.a, tt.b))
			assert.Equal(t, tt.feet, g.DistanceFeet(tt.a, tt.b))
			assert.InDelta(t, tt.euclid, g.EuclideanDistance(tt.a, tt.b), 0.001)
		})
	}
}

func TestGrid_Measure(t *testing.T) {
	chebyshev := newTestGrid()
	euclid := grid.New(grid.Config{Width: 10, Height: 10, DiagonalRule: grid.DiagonalEuclid})

	a, b := grid.Position{X: 0, Y: 0}, grid.Position{X: 1, Y: 1}

	assert.Equal(t, grid.Measured{Cells: 1, Feet: 5}, chebyshev.Measure(a, b))
	assert.Equal(t, grid.Measured{Cells: 1.41, Feet: 7.07}, euclid.Measure(a, b))
}

func TestLine(t *testing.T) {
	tests := []struct {
		name string
		from grid.Position
		to   grid.Position
		want []grid.Position
	}{
		{
			name: "single cell",
			from: grid.Position{X: 3, Y: 3},
			to:   grid.Position{X: 3, Y: 3},
			want: []grid.Position{{X: 3, Y: 3}},
		},
		{
			name: "horizontal",
			from: grid.Position{X: 0, Y: 0},
			to:   grid.Position{X: 3, Y: 0},
			want: []grid.Position{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}, {X: 3, Y: 0}},
		},
		{
			name: "reverse diagonal",
			from: grid.Position{X: 2, Y: 2},
			to:   grid.Position{X: 0, Y: 0},
			want: []grid.Position{{X: 2, Y: 2}, {X: 1, Y: 1}, {X: 0, Y: 0}},
		},
		{
			name: "shallow slope",
			from: grid.Position{X: 0, Y: 0},
			to:   grid.Position{X: 4, Y: 2},
			want: []grid.Position{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 1}, {X: 3, Y: 1}, {X: 4, Y: 2}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := grid.Line(tt.from, tt.to)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.from, got[0])
			assert.Equal(t, tt.to, got[len(got)-1])
		})
	}
}

func TestGrid_LineOfSightCellsDropsOffGridCells(t *testing.T) {
	g := newTestGrid()

	cells := g.LineOfSightCells(grid.Position{X: -2, Y: 0}, grid.Position{X: 2, Y: 0})

	assert.Equal(t, []grid.Position{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}}, cells)
}

func TestGrid_CellsInRadius(t *testing.T) {
	g := newTestGrid()

	t.Run("full square in the middle", func(t *testing.T) {
		cells := g.CellsInRadius(grid.Position{X: 5, Y: 5}, 2)
		assert.Len(t, cells, 25)
		for _, c := range cells {
			assert.LessOrEqual(t, g.Distance(grid.Position{X: 5, Y: 5}, c), 2)
		}
	})

	t.Run("clipped at the corner", func(t *testing.T) {
		cells := g.CellsInRadius(grid.Position{X: 0, Y: 0}, 1)
		assert.ElementsMatch(t, []grid.Position{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}}, cells)
	})

	t.Run("zero radius is the center", func(t *testing.T) {
		assert.Equal(t, []grid.Position{{X: 4, Y: 4}}, g.CellsInRadius(grid.Position{X: 4, Y: 4}, 0))
	})

	t.Run("negative radius is empty", func(t *testing.T) {
		assert.Empty(t, g.CellsInRadius(grid.Position{X: 4, Y: 4}, -1))
	})

	t.Run("center off the map", func(t *testing.T) {
		assert.Empty(t, g.CellsInRadius(grid.Position{X: 50, Y: 50}, 3))
	})

	t.Run("huge radius covers the map once", func(t *testing.T) {
		cells := g.CellsInRadius(grid.Position{X: 5, Y: 5}, math.MaxInt32)
		assert.Len(t, cells, g.Width()*g.Height())
	})

	t.Run("huge radius from off the map", func(t *testing.T) {
		cells := g.CellsInRadius(grid.Position{X: -1_000_000, Y: 3}, 2_000_000)
		assert.Len(t, cells, g.Width()*g.Height())
	})
}

func TestGrid_CellsInRect(t *testing.T) {
	g := newTestGrid()

	tests := []struct {
		name   string
		lo, hi grid.Position
		want   int
	}{
		{name: "inside", lo: grid.Position{X: 1, Y: 1}, hi: grid.Position{X: 3, Y: 2}, want: 6},
		{name: "clipped", lo: grid.Position{X: -2, Y: -2}, hi: grid.Position{X: 0, Y: 1}, want: 2},
		{name: "huge box", lo: grid.Position{X: -1_000_000_000, Y: -1_000_000_000}, hi: grid.Position{X: 1_000_000_000, Y: 1_000_000_000}, want: g.Width() * g.Height()},
		{name: "inverted", lo: grid.Position{X: 3, Y: 3}, hi: grid.Position{X: 1, Y: 1}, want: 0},
		{name: "off the map", lo: grid.Position{X: 100, Y: 100}, hi: grid.Position{X: 200, Y: 200}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cells := g.CellsInRect(tt.lo, tt.hi)
			assert.Len(t, cells, tt.want)
			for _, c := range cells {
				assert.True(t, g.InBounds(c))
			}
		})
	}
}

func TestGrid_AdjacentCells(t *testing.T) {
	g := newTestGrid()

	assert.Len(t, g.AdjacentCells(grid.Position{X: 5, Y: 5}, false), 4)
	assert.Len(t, g.AdjacentCells(grid.Position{X: 5, Y: 5}, true), 8)
	assert.ElementsMatch(t,
		[]grid.Position{{X: 1, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}},
		g.AdjacentCells(grid.Position{X: 0, Y: 0}, true))
	assert.ElementsMatch(t,
		[]grid.Position{{X: 8, Y: 9}, {X: 9, Y: 8}},
		g.AdjacentCells(grid.Position{X: 9, Y: 9}, false))
}

func TestCellKey(t *testing.T) {
	positions := []grid.Position{{X: 0, Y: 0}, {X: 12, Y: 7}, {X: -3, Y: 4}}
	for _, p := range positions {
		parsed, ok := grid.ParseCellKey(grid.CellKey(p))
		require.True(t, ok)
		assert.Equal(t, p, parsed)
	}

	assert.Equal(t, "3,4", grid.CellKey(grid.Position{X: 3, Y: 4}))
}

func TestParseCellKey_Malformed(t *testing.T) {
	for _, key := range []string{"", "3", "3,", ",4", "a,b", "3,4,5", " 3,4", "+3,4", "03,4"} {
		t.Run(key, func(t *testing.T) {
			_, ok := grid.ParseCellKey(key)
			assert.False(t, ok)
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	g := grid.New(grid.Config{})

	assert.Equal(t, 1, g.Width())
	assert.Equal(t, 1, g.Height())
	assert.Equal(t, grid.DefaultFeetPerCell, g.FeetPerCell())
	assert.Equal(t, 25, g.CellArea())
}
