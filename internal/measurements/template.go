package measurements

import (
	"math"

	"github.com/KirkDiggler/dnd-tactics/internal/grid"
)

// TemplateKind is the shape of an area of effect
type TemplateKind string

const (
	TemplateCone   TemplateKind = "cone"
	TemplateLine   TemplateKind = "line"
	TemplateCircle TemplateKind = "circle"
	TemplateCube   TemplateKind = "cube"
	TemplateSphere TemplateKind = "sphere"
)

// ConePolicy selects how cone templates are rasterized
type ConePolicy string

const (
	// ConeApproximate widens the cone by tan(half angle) cells per step
	// along its axis
	ConeApproximate ConePolicy = "approximate"
	// ConeExact takes every cell whose center lies within the cone's length
	// and half angle
	ConeExact ConePolicy = "exact"
)

// wideConeDegrees is the angle from which a cone no longer fits strips
// perpendicular to its axis. Cones this wide always use the exact test.
const wideConeDegrees = 180

func (p ConePolicy) Valid() bool {
	return p == ConeApproximate || p == ConeExact
}

// angleEpsilon absorbs float error for cells sitting exactly on a cone edge
const angleEpsilon = 1e-9

// TemplateParams sizes a template. Lengths are in feet, angles in degrees;
// direction is measured from +X toward +Y.
type TemplateParams struct {
	LengthFeet       float64 `json:"length_feet,omitempty"`
	WidthFeet        float64 `json:"width_feet,omitempty"`
	RadiusFeet       float64 `json:"radius_feet,omitempty"`
	SizeFeet         float64 `json:"size_feet,omitempty"`
	AngleDegrees     float64 `json:"angle_degrees,omitempty"`
	DirectionDegrees float64 `json:"direction_degrees,omitempty"`
}

// Area is the size of a template
type Area struct {
	Cells      int `json:"cells"`
	SquareFeet int `json:"square_feet"`
}

// Template is a placed area of effect and the cells it covers
type Template struct {
	Kind   TemplateKind    `json:"kind"`
	Origin Point           `json:"origin"`
	Params TemplateParams  `json:"params"`
	Cells  []grid.Position `json:"cells"`
	Area   Area            `json:"area"`
}

// CreateTemplate places a template with its origin snapped to the cell
// containing origin. Missing size params give an empty template.
func (e *Engine) CreateTemplate(kind TemplateKind, origin grid.WorldPosition, params TemplateParams) Template {
	o := e.point(origin, true)
	cells := e.templateCells(kind, o.Cell, params)
	return Template{
		Kind:   kind,
		Origin: o,
		Params: params,
		Cells:  cells,
		Area: Area{
			Cells:      len(cells),
			SquareFeet: len(cells) * e.grid.CellArea(),
		},
	}
}

func (e *Engine) templateCells(kind TemplateKind, origin grid.Position, p TemplateParams) []grid.Position {
	switch kind {
	case TemplateCircle, TemplateSphere:
		if p.RadiusFeet <= 0 {
			return nil
		}
		return e.grid.CellsInRadius(origin, e.cells(p.RadiusFeet))

	case TemplateCube:
		if p.SizeFeet <= 0 {
			return nil
		}
		half := e.cells(p.SizeFeet) / 2
		return e.grid.CellsInRect(
			grid.Position{X: origin.X - half, Y: origin.Y - half},
			grid.Position{X: origin.X + half, Y: origin.Y + half},
		)

	case TemplateLine:
		if p.LengthFeet <= 0 {
			return nil
		}
		length := float64(e.reach(p.LengthFeet))
		dir := radians(p.DirectionDegrees)
		end := grid.Position{
			X: roundHalfUp(float64(origin.X) + math.Cos(dir)*length),
			Y: roundHalfUp(float64(origin.Y) + math.Sin(dir)*length),
		}
		return e.grid.LineOfSightCells(origin, end)

	case TemplateCone:
		if p.LengthFeet <= 0 || p.AngleDegrees <= 0 {
			return nil
		}
		p.AngleDegrees = math.Min(p.AngleDegrees, 360)
		if e.conePolicy == ConeExact || p.AngleDegrees >= wideConeDegrees {
			return e.exactCone(origin, p)
		}
		return e.approximateCone(origin, p)
	}
	return nil
}

// approximateCone walks the axis one cell at a time and fills a strip
// perpendicular to it. Strips are never wider than the cone is long.
func (e *Engine) approximateCone(origin grid.Position, p TemplateParams) []grid.Position {
	length := e.reach(p.LengthFeet)
	dir := radians(p.DirectionDegrees)
	halfAngle := radians(p.AngleDegrees / 2)
	perp := dir + math.Pi/2

	seen := make(map[grid.Position]struct{})
	var cells []grid.Position
	for d := 1; d <= length; d++ {
		width := int(math.Min(math.Ceil(math.Tan(halfAngle)*float64(d)), float64(length)))
		for offset := -width; offset <= width; offset++ {
			c := grid.Position{
				X: roundHalfUp(float64(origin.X) + math.Cos(dir)*float64(d) + math.Cos(perp)*float64(offset)),
				Y: roundHalfUp(float64(origin.Y) + math.Sin(dir)*float64(d) + math.Sin(perp)*float64(offset)),
			}
			if _, ok := seen[c]; ok || !e.grid.InBounds(c) {
				continue
			}
			seen[c] = struct{}{}
			cells = append(cells, c)
		}
	}
	return cells
}

func (e *Engine) exactCone(origin grid.Position, p TemplateParams) []grid.Position {
	length := e.reach(p.LengthFeet)
	dir := radians(p.DirectionDegrees)
	halfAngle := radians(p.AngleDegrees / 2)

	var cells []grid.Position
	for y := max(origin.Y-length, 0); y <= min(origin.Y+length, e.grid.Height()-1); y++ {
		for x := max(origin.X-length, 0); x <= min(origin.X+length, e.grid.Width()-1); x++ {
			c := grid.Position{X: x, Y: y}
			if c == origin {
				continue
			}
			dx, dy := float64(x-origin.X), float64(y-origin.Y)
			if math.Hypot(dx, dy) > float64(length)+angleEpsilon {
				continue
			}
			if angleBetween(math.Atan2(dy, dx), dir) > halfAngle+angleEpsilon {
				continue
			}
			cells = append(cells, c)
		}
	}
	return cells
}

// cells converts feet to whole cells, saturating so huge sizes cannot
// overflow
func (e *Engine) cells(feet float64) int {
	return int(math.Min(math.Ceil(feet/float64(e.grid.FeetPerCell())), math.MaxInt32))
}

// reach is cells capped at the width plus the height of the map. A template
// anchored on the map leaves it before going any farther.
func (e *Engine) reach(feet float64) int {
	return min(e.cells(feet), e.grid.Width()+e.grid.Height())
}

// angleBetween is the absolute difference of two angles in radians, in [0, pi]
func angleBetween(a, b float64) float64 {
	d := math.Mod(a-b, 2*math.Pi)
	if d > math.Pi {
		d -= 2 * math.Pi
	} else if d < -math.Pi {
		d += 2 * math.Pi
	}
	return math.Abs(d)
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// roundHalfUp rounds .5 toward positive infinity
func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
