// Package measurements is the ruler and spell template tool. It only reads
// the grid and holds no battle state.
package measurements

import (
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/KirkDiggler/dnd-tactics/internal/grid"
	"github.com/KirkDiggler/dnd-tactics/internal/logging"
	"github.com/KirkDiggler/dnd-tactics/internal/uuid"
)

// Point is a measured location. World is the snapped world point when the
// measurement snaps to the grid, otherwise the raw input.
type Point struct {
	World grid.WorldPosition `json:"world"`
	Cell  grid.Position      `json:"cell"`
}

// Segment is one leg of a ruler measurement
type Segment struct {
	From     Point         `json:"from"`
	To       Point         `json:"to"`
	Distance grid.Measured `json:"distance"`
}

// Measurement is a multi-leg ruler
type Measurement struct {
	ID         string        `json:"id"`
	Segments   []Segment     `json:"segments"`
	Total      grid.Measured `json:"total"`
	SnapToGrid bool          `json:"snap_to_grid"`
}

func (m *Measurement) clone() Measurement {
	c := *m
	c.Segments = slices.Clone(m.Segments)
	return c
}

// Line is the result of a one-off MeasureLine
type Line struct {
	Distance grid.Measured   `json:"distance"`
	Cells    []grid.Position `json:"cells"`
}

type Config struct {
	Grid       *grid.Grid
	ConePolicy ConePolicy
	IDs        uuid.Generator
	Logger     logrus.FieldLogger
}

// Engine holds finished measurements and at most one active one. Not safe
// for concurrent use.
type Engine struct {
	grid       *grid.Grid
	conePolicy ConePolicy

	active   *Measurement
	finished []*Measurement

	subscribers []changeSubscriber
	nextSubID   int

	ids uuid.Generator
	log logrus.FieldLogger
}

type changeSubscriber struct {
	id int
	fn func([]Measurement)
}

func NewEngine(cfg *Config) *Engine {
	if cfg == nil {
		cfg = &Config{}
	}
	e := &Engine{
		grid:       cfg.Grid,
		conePolicy: cfg.ConePolicy,
		ids:        cfg.IDs,
		log:        logging.OrDiscard(cfg.Logger),
	}
	if e.grid == nil {
		e.grid = grid.New(grid.Config{})
	}
	if !e.conePolicy.Valid() {
		e.conePolicy = ConeApproximate
	}
	if e.ids == nil {
		e.ids = uuid.NewGoogleUUIDGenerator()
	}
	return e
}

// ConePolicy returns the cone rasterization in effect
func (e *Engine) ConePolicy() ConePolicy {
	return e.conePolicy
}

// Start begins a new active measurement anchored at p, replacing any active
// one, and returns its id
func (e *Engine) Start(p grid.WorldPosition, snap bool) string {
	if e.active != nil {
		e.log.WithField("measurement_id", e.active.ID).Debug("active measurement replaced")
	}

	anchor := e.point(p, snap)
	e.active = &Measurement{
		ID:         e.ids.New(),
		Segments:   []Segment{{From: anchor, To: anchor}},
		SnapToGrid: snap,
	}
	e.notify()
	return e.active.ID
}

// AddPoint ends the current leg at p and starts a new one from there
func (e *Engine) AddPoint(p grid.WorldPosition) bool {
	if e.active == nil {
		return false
	}

	pt := e.point(p, e.active.SnapToGrid)
	e.setLastPoint(pt)
	e.active.Segments = append(e.active.Segments, Segment{From: pt, To: pt})
	e.updateTotal()
	e.notify()
	return true
}

// UpdateLastPoint moves the end of the current leg, as when dragging
func (e *Engine) UpdateLastPoint(p grid.WorldPosition) bool {
	if e.active == nil || len(e.active.Segments) == 0 {
		return false
	}

	e.setLastPoint(e.point(p, e.active.SnapToGrid))
	e.updateTotal()
	e.notify()
	return true
}

// Finish closes the active measurement. A trailing zero length leg is
// dropped, and only measurements with at least one leg are kept.
func (e *Engine) Finish() (Measurement, bool) {
	if e.active == nil {
		return Measurement{}, false
	}

	m := e.active
	e.active = nil
	if n := len(m.Segments); n > 0 && m.Segments[n-1].Distance.Cells == 0 {
		m.Segments = m.Segments[:n-1]
	}
	e.total(m)
	if len(m.Segments) > 0 {
		e.finished = append(e.finished, m)
	}

	e.notify()
	return m.clone(), true
}

// Cancel discards the active measurement
func (e *Engine) Cancel() {
	e.active = nil
	e.notify()
}

func (e *Engine) Active() (Measurement, bool) {
	if e.active == nil {
		return Measurement{}, false
	}
	return e.active.clone(), true
}

// All returns the finished measurements followed by the active one
func (e *Engine) All() []Measurement {
	out := make([]Measurement, 0, len(e.finished)+1)
	for _, m := range e.finished {
		out = append(out, m.clone())
	}
	if e.active != nil {
		out = append(out, e.active.clone())
	}
	return out
}

// Remove deletes a finished measurement
func (e *Engine) Remove(id string) bool {
	for i, m := range e.finished {
		if m.ID == id {
			e.finished = slices.Delete(e.finished, i, i+1)
			e.notify()
			return true
		}
	}
	return false
}

// Clear drops every measurement, active included
func (e *Engine) Clear() {
	e.finished = nil
	e.active = nil
	e.notify()
}

// MeasureLine measures between two points without touching the ruler state
func (e *Engine) MeasureLine(from, to grid.WorldPosition) Line {
	a := e.grid.WorldToGrid(from)
	b := e.grid.WorldToGrid(to)
	return Line{
		Distance: e.grid.Measure(a, b),
		Cells:    e.grid.LineOfSightCells(a, b),
	}
}

// OnChange registers fn to receive every measurement after each change. The
// returned func unsubscribes.
func (e *Engine) OnChange(fn func([]Measurement)) func() {
	e.nextSubID++
	id := e.nextSubID
	e.subscribers = append(e.subscribers, changeSubscriber{id: id, fn: fn})
	return func() {
		for i, s := range e.subscribers {
			if s.id == id {
				e.subscribers = slices.Delete(e.subscribers, i, i+1)
				return
			}
		}
	}
}

func (e *Engine) notify() {
	if len(e.subscribers) == 0 {
		return
	}
	all := e.All()
	for _, s := range e.subscribers {
		s.fn(all)
	}
}

func (e *Engine) point(p grid.WorldPosition, snap bool) Point {
	cell := e.grid.WorldToGrid(p)
	if snap {
		p = e.grid.GridToWorld(cell)
	}
	return Point{World: p, Cell: cell}
}

func (e *Engine) setLastPoint(pt Point) {
	last := &e.active.Segments[len(e.active.Segments)-1]
	last.To = pt
	last.Distance = e.grid.Measure(last.From.Cell, last.To.Cell)
}

func (e *Engine) updateTotal() {
	e.total(e.active)
}

func (e *Engine) total(m *Measurement) {
	var cells, feet float64
	for _, s := range m.Segments {
		cells += s.Distance.Cells
		feet += s.Distance.Feet
	}
	m.Total = grid.Measured{Cells: round2(cells), Feet: round2(feet)}
}
