package measurements_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KirkDiggler/dnd-tactics/internal/grid"
	"github.com/KirkDiggler/dnd-tactics/internal/measurements"
)

func TestCreateTemplate(t *testing.T) {
	tests := []struct {
		name       string
		kind       measurements.TemplateKind
		origin     grid.Position
		params     measurements.TemplateParams
		wantCells  int
		wantSqFeet int
	}{
		{
			name:       "fireball sphere",
			kind:       measurements.TemplateSphere,
			origin:     grid.Position{X: 10, Y: 10},
			params:     measurements.TemplateParams{RadiusFeet: 10},
			wantCells:  25,
			wantSqFeet: 625,
		},
		{
			name:       "circle clipped by the map edge",
			kind:       measurements.TemplateCircle,
			origin:     grid.Position{X: 0, Y: 0},
			params:     measurements.TemplateParams{RadiusFeet: 10},
			wantCells:  9,
			wantSqFeet: 225,
		},
		{
			name:       "thunderwave cube",
			kind:       measurements.TemplateCube,
			origin:     grid.Position{X: 10, Y: 10},
			params:     measurements.TemplateParams{SizeFeet: 15},
			wantCells:  9,
			wantSqFeet: 225,
		},
		{
			name:       "lightning bolt line",
			kind:       measurements.TemplateLine,
			origin:     grid.Position{X: 5, Y: 5},
			params:     measurements.TemplateParams{LengthFeet: 30, WidthFeet: 5},
			wantCells:  7,
			wantSqFeet: 175,
		},
		{
			name:      "circle without radius",
			kind:      measurements.TemplateCircle,
			origin:    grid.Position{X: 5, Y: 5},
			wantCells: 0,
		},
		{
			name:      "cone without angle",
			kind:      measurements.TemplateCone,
			origin:    grid.Position{X: 5, Y: 5},
			params:    measurements.TemplateParams{LengthFeet: 15},
			wantCells: 0,
		},
		{
			name:      "unknown kind",
			kind:      measurements.TemplateKind("wall"),
			origin:    grid.Position{X: 5, Y: 5},
			params:    measurements.TemplateParams{RadiusFeet: 10},
			wantCells: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, g := newEngine(t, "")

			tmpl := e.CreateTemplate(tt.kind, g.GridToWorld(tt.origin), tt.params)

			assert.Equal(t, tt.kind, tmpl.Kind)
			assert.Equal(t, tt.origin, tmpl.Origin.Cell)
			assert.Len(t, tmpl.Cells, tt.wantCells)
			assert.Equal(t, tt.wantCells, tmpl.Area.Cells)
			assert.Equal(t, tt.wantSqFeet, tmpl.Area.SquareFeet)
		})
	}
}

func TestLineTemplateFollowsDirection(t *testing.T) {
	e, g := newEngine(t, "")

	tmpl := e.CreateTemplate(measurements.TemplateLine, g.GridToWorld(grid.Position{X: 5, Y: 5}), measurements.TemplateParams{
		LengthFeet:       15,
		DirectionDegrees: 90,
	})

	assert.Equal(t, []grid.Position{{X: 5, Y: 5}, {X: 5, Y: 6}, {X: 5, Y: 7}, {X: 5, Y: 8}}, tmpl.Cells)
}

func TestConeApproximate(t *testing.T) {
	e, g := newEngine(t, measurements.ConeApproximate)
	origin := grid.Position{X: 10, Y: 10}

	tmpl := e.CreateTemplate(measurements.TemplateCone, g.GridToWorld(origin), measurements.TemplateParams{
		LengthFeet:   15,
		AngleDegrees: 90,
	})

	require.Len(t, tmpl.Cells, 15)
	assert.NotContains(t, tmpl.Cells, origin)
	assert.Contains(t, tmpl.Cells, grid.Position{X: 11, Y: 9})
	assert.Contains(t, tmpl.Cells, grid.Position{X: 13, Y: 13})
	assert.NotContains(t, tmpl.Cells, grid.Position{X: 9, Y: 10})
}

func TestConeExact(t *testing.T) {
	e, g := newEngine(t, measurements.ConeExact)
	assert.Equal(t, measurements.ConeExact, e.ConePolicy())
	origin := grid.Position{X: 10, Y: 10}

	tmpl := e.CreateTemplate(measurements.TemplateCone, g.GridToWorld(origin), measurements.TemplateParams{
		LengthFeet:   15,
		AngleDegrees: 90,
	})

	require.Len(t, tmpl.Cells, 9)
	assert.Contains(t, tmpl.Cells, grid.Position{X: 12, Y: 12}, "on the cone edge")
	assert.Contains(t, tmpl.Cells, grid.Position{X: 13, Y: 10})
	assert.NotContains(t, tmpl.Cells, grid.Position{X: 13, Y: 11}, "beyond the length")
	assert.NotContains(t, tmpl.Cells, grid.Position{X: 10, Y: 11}, "outside the angle")
}

func TestConeDedupesAndClips(t *testing.T) {
	e, g := newEngine(t, measurements.ConeApproximate)

	tmpl := e.CreateTemplate(measurements.TemplateCone, g.GridToWorld(grid.Position{X: 19, Y: 10}), measurements.TemplateParams{
		LengthFeet:   30,
		AngleDegrees: 120,
	})

	assert.Empty(t, tmpl.Cells, "pointing off the map")

	tmpl = e.CreateTemplate(measurements.TemplateCone, g.GridToWorld(grid.Position{X: 10, Y: 10}), measurements.TemplateParams{
		LengthFeet:       15,
		AngleDegrees:     60,
		DirectionDegrees: 45,
	})
	seen := make(map[grid.Position]bool)
	for _, c := range tmpl.Cells {
		assert.False(t, seen[c], "duplicate %v", c)
		seen[c] = true
	}
}

func TestUnknownConePolicyDefaultsToApproximate(t *testing.T) {
	e, _ := newEngine(t, measurements.ConePolicy("fancy"))
	assert.Equal(t, measurements.ConeApproximate, e.ConePolicy())
}

func TestWideCones(t *testing.T) {
	tests := []struct {
		name   string
		policy measurements.ConePolicy
		angle  float64
		want   int
	}{
		{name: "approximate 179 is capped at its length", policy: measurements.ConeApproximate, angle: 179, want: 21},
		{name: "exact 179", policy: measurements.ConeExact, angle: 179, want: 11},
		{name: "approximate 180 is a half disc", policy: measurements.ConeApproximate, angle: 180, want: 17},
		{name: "exact 180 is a half disc", policy: measurements.ConeExact, angle: 180, want: 17},
		{name: "approximate 270", policy: measurements.ConeApproximate, angle: 270, want: 23},
		{name: "exact 270", policy: measurements.ConeExact, angle: 270, want: 23},
		{name: "360 is the whole disc", policy: measurements.ConeApproximate, angle: 360, want: 28},
		{name: "past 360 clamps", policy: measurements.ConeExact, angle: 400, want: 28},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, g := newEngine(t, tt.policy)
			origin := grid.Position{X: 10, Y: 10}

			tmpl := e.CreateTemplate(measurements.TemplateCone, g.GridToWorld(origin), measurements.TemplateParams{
				LengthFeet:   15,
				AngleDegrees: tt.angle,
			})

			assert.Len(t, tmpl.Cells, tt.want)
			assert.NotContains(t, tmpl.Cells, origin)
			for _, c := range tmpl.Cells {
				assert.LessOrEqual(t, grid.Chebyshev(origin, c), 3)
			}
		})
	}
}

func TestHugeTemplatesStayOnTheMap(t *testing.T) {
	tests := []struct {
		name   string
		policy measurements.ConePolicy
		kind   measurements.TemplateKind
		origin grid.Position
		params measurements.TemplateParams
		want   int
	}{
		{
			name:   "approximate cone",
			policy: measurements.ConeApproximate,
			kind:   measurements.TemplateCone,
			origin: grid.Position{X: 10, Y: 10},
			params: measurements.TemplateParams{LengthFeet: 1e9, AngleDegrees: 90},
			want:   99,
		},
		{
			name:   "exact cone",
			policy: measurements.ConeExact,
			kind:   measurements.TemplateCone,
			origin: grid.Position{X: 10, Y: 10},
			params: measurements.TemplateParams{LengthFeet: 1e9, AngleDegrees: 90},
			want:   99,
		},
		{
			name:   "line",
			kind:   measurements.TemplateLine,
			origin: grid.Position{X: 5, Y: 5},
			params: measurements.TemplateParams{LengthFeet: 1e12},
			want:   15,
		},
		{
			name:   "sphere",
			kind:   measurements.TemplateSphere,
			origin: grid.Position{X: 3, Y: 3},
			params: measurements.TemplateParams{RadiusFeet: 1e12},
			want:   400,
		},
		{
			name:   "cube",
			kind:   measurements.TemplateCube,
			origin: grid.Position{X: 3, Y: 3},
			params: measurements.TemplateParams{SizeFeet: 1e12},
			want:   400,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, g := newEngine(t, tt.policy)

			tmpl := e.CreateTemplate(tt.kind, g.GridToWorld(tt.origin), tt.params)

			assert.Len(t, tmpl.Cells, tt.want)
		})
	}
}
