package lighting

import (
	"math"
)

// RecomputeVisibility rebuilds the raster: ambient light first, then every
// enabled light, then token vision. Each cell keeps the brightest value any
// of them gives it.
func (e *Engine) RecomputeVisibility() {
	if len(e.mask) != e.width*e.height {
		e.mask = make([]uint8, e.width*e.height)
	}

	ambient := uint8(math.Floor(e.global * 255))
	for i := range e.mask {
		e.mask[i] = ambient
	}

	for _, l := range e.lights {
		if l.Enabled {
			e.applyLight(l)
		}
	}
	for _, t := range e.tokens {
		e.applyVision(t)
	}
	e.applyShadows()
}

func (e *Engine) applyLight(l *Light) {
	radius := e.feetToCells(l.RadiusFeet)
	if radius <= 0 {
		return
	}
	cx, cy := l.Position.cell()
	cone := l.ConeAngle > 0 && l.ConeAngle < 360

	x0, x1, y0, y1, ok := e.clip(cx, cy, radius)
	if !ok {
		return
	}
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			dx, dy := x-cx, y-cy
			d := math.Hypot(float64(dx), float64(dy))
			if d > float64(radius) {
				continue
			}
			if cone && (dx != 0 || dy != 0) && !withinCone(dx, dy, l.Direction, l.ConeAngle) {
				continue
			}
			if !e.HasLineOfSight(l.Position, CellCenter(x, y)) {
				continue
			}

			level := uint8(math.Floor((1 - d/float64(radius)) * l.Intensity * 255))
			e.brighten(x, y, level)
		}
	}
}

func (e *Engine) applyVision(t *VisionToken) {
	cx, cy := t.Position.cell()

	full := max(t.VisionRangeFeet, t.BlindsightFeet, t.TruesightFeet)
	e.applyVisionRange(cx, cy, e.feetToCells(full), fullVision)

	if t.DarkvisionRangeFeet > 0 {
		e.applyVisionRange(cx, cy, e.feetToCells(t.DarkvisionRangeFeet), darkVision)
	}
}

func (e *Engine) applyVisionRange(cx, cy, radius int, level uint8) {
	if radius < 0 {
		return
	}
	center := CellCenter(cx, cy)

	x0, x1, y0, y1, ok := e.clip(cx, cy, radius)
	if !ok {
		return
	}
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			dx, dy := x-cx, y-cy
			if math.Hypot(float64(dx), float64(dy)) > float64(radius) {
				continue
			}
			if !e.HasLineOfSight(center, CellCenter(x, y)) {
				continue
			}
			e.brighten(x, y, level)
		}
	}
}

// applyShadows is where walls would cast penumbra and shadow shapes. Walls
// only gate line of sight for now.
func (e *Engine) applyShadows() {}

func (e *Engine) brighten(x, y int, level uint8) {
	i := y*e.width + x
	if level > e.mask[i] {
		e.mask[i] = level
	}
}

// feetToCells converts a range to raster cells. Huge ranges saturate so the
// conversion cannot overflow; clip keeps the loops on the raster.
func (e *Engine) feetToCells(feet float64) int {
	if feet <= 0 {
		return 0
	}
	cells := math.Ceil(feet / float64(e.feetPerCell))
	return int(math.Min(cells, math.MaxInt32))
}

// clip bounds the square of radius around (cx, cy) to the raster
func (e *Engine) clip(cx, cy, radius int) (x0, x1, y0, y1 int, ok bool) {
	x0, x1 = max(cx-radius, 0), min(cx+radius, e.width-1)
	y0, y1 = max(cy-radius, 0), min(cy+radius, e.height-1)
	return x0, x1, y0, y1, x0 <= x1 && y0 <= y1
}

// withinCone reports whether offset (dx, dy) lies within half of angle
// degrees either side of direction
func withinCone(dx, dy int, direction, angle float64) bool {
	bearing := math.Atan2(float64(dy), float64(dx)) * 180 / math.Pi
	diff := math.Mod(bearing-direction, 360)
	if diff > 180 {
		diff -= 360
	} else if diff < -180 {
		diff += 360
	}
	return math.Abs(diff) <= angle/2
}

// crosses reports whether segment a-b intersects any segment of the polyline
func crosses(a, b Point, polyline []Point) bool {
	for i := 0; i+1 < len(polyline); i++ {
		if segmentsIntersect(a, b, polyline[i], polyline[i+1]) {
			return true
		}
	}
	return false
}

// segmentsIntersect tests p1-q1 against p2-q2. Parallel segments, including
// collinear overlaps, never intersect.
func segmentsIntersect(p1, q1, p2, q2 Point) bool {
	det := (q1.X-p1.X)*(q2.Y-p2.Y) - (q1.Y-p1.Y)*(q2.X-p2.X)
	if math.Abs(det) < 1e-10 {
		return false
	}

	t := ((p2.X-p1.X)*(q2.Y-p2.Y) - (p2.Y-p1.Y)*(q2.X-p2.X)) / det
	u := ((p2.X-p1.X)*(q1.Y-p1.Y) - (p2.Y-p1.Y)*(q1.X-p1.X)) / det

	return t >= 0 && t <= 1 && u >= 0 && u <= 1
}
