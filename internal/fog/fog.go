// Package fog tracks which cells of a battle map have been seen and which
// are visible right now.
package fog

import (
	"time"

	"github.com/sirupsen/logrus"

	dnderr "github.com/KirkDiggler/dnd-tactics/internal/errors"
	"github.com/KirkDiggler/dnd-tactics/internal/grid"
	"github.com/KirkDiggler/dnd-tactics/internal/logging"
	"github.com/KirkDiggler/dnd-tactics/internal/rules"
)

// State is the visibility of one cell
type State int

const (
	// Dark cells have never been seen
	Dark State = iota
	// Dim cells were seen before but are not visible now
	Dim
	// Bright cells are visible now
	Bright
)

func (s State) String() string {
	switch s {
	case Dark:
		return "dark"
	case Dim:
		return "dim"
	case Bright:
		return "bright"
	default:
		return "unknown"
	}
}

func (s State) valid() bool {
	return s >= Dark && s <= Bright
}

// Cell is the fog state of a single grid cell
type Cell struct {
	State    State
	LastSeen time.Time
}

// CellData is the exported form of a Cell. LastSeen is unix milliseconds,
// zero for never.
type CellData struct {
	State    State `json:"state"`
	LastSeen int64 `json:"lastSeen"`
}

// VisionSource is a token that reveals cells around it
type VisionSource struct {
	TokenID  string           `json:"token_id"`
	Position grid.Position    `json:"position"`
	Range    int              `json:"range"`
	Type     rules.VisionType `json:"type"`
}

// Statistics summarizes how much of the map has been explored
type Statistics struct {
	TotalCells            int     `json:"total_cells"`
	DarkCells             int     `json:"dark_cells"`
	DimCells              int     `json:"dim_cells"`
	BrightCells           int     `json:"bright_cells"`
	ExplorationPercentage float64 `json:"exploration_percentage"`
}

// Config configures a Map
type Config struct {
	Grid   *grid.Grid
	Clock  func() time.Time
	Logger logrus.FieldLogger
}

// Map holds one Cell per grid cell. Not safe for concurrent use.
type Map struct {
	grid    *grid.Grid
	cells   []Cell
	sources map[string]*VisionSource
	order   []string
	now     func() time.Time
	log     logrus.FieldLogger
}

// NewMap creates a Map with every cell Dark. A nil grid uses grid defaults.
func NewMap(cfg *Config) *Map {
	if cfg == nil {
		cfg = &Config{}
	}
	g := cfg.Grid
	if g == nil {
		g = grid.New(grid.Config{})
	}

	m := &Map{
		grid:    g,
		cells:   make([]Cell, g.Width()*g.Height()),
		sources: make(map[string]*VisionSource),
		now:     cfg.Clock,
		log:     logging.OrDiscard(cfg.Logger),
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

// Grid returns the grid the map covers
func (m *Map) Grid() *grid.Grid {
	return m.grid
}

// AddVisionSource registers or replaces the source for a token. Range is in
// cells.
func (m *Map) AddVisionSource(tokenID string, pos grid.Position, rangeCells int, visionType rules.VisionType) {
	if _, ok := m.sources[tokenID]; !ok {
		m.order = append(m.order, tokenID)
	}
	if visionType == "" {
		visionType = rules.VisionNormal
	}
	m.sources[tokenID] = &VisionSource{
		TokenID:  tokenID,
		Position: m.grid.Clamp(pos),
		Range:    max(0, rangeCells),
		Type:     visionType,
	}
}

// UpdateVisionSource moves a token's source. Returns false if the token has
// no source.
func (m *Map) UpdateVisionSource(tokenID string, pos grid.Position) bool {
	source, ok := m.sources[tokenID]
	if !ok {
		return false
	}
	source.Position = m.grid.Clamp(pos)
	return true
}

// RemoveVisionSource drops a token's source. Removing an unknown token is a
// no-op that returns false.
func (m *Map) RemoveVisionSource(tokenID string) bool {
	if _, ok := m.sources[tokenID]; !ok {
		return false
	}
	delete(m.sources, tokenID)
	for i, id := range m.order {
		if id == tokenID {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true
}

// VisionSources returns copies of the registered sources in the order they
// were added
func (m *Map) VisionSources() []VisionSource {
	out := make([]VisionSource, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, *m.sources[id])
	}
	return out
}

// RecomputeVision demotes every Bright cell to Dim, then lights up every cell
// a source can see. Obstacles are cell keys; they block the cells behind
// them but are visible themselves.
func (m *Map) RecomputeVision(obstacles map[string]struct{}) {
	now := m.now()

	for i := range m.cells {
		if m.cells[i].State == Bright {
			m.cells[i].State = Dim
		}
	}

	for _, id := range m.order {
		source := m.sources[id]
		for _, cell := range m.grid.CellsInRadius(source.Position, source.Range) {
			if m.hasLineOfSight(source.Position, cell, obstacles) {
				m.light(cell, now)
			}
		}
	}

	m.log.WithField("sources", len(m.order)).Debug("fog recomputed")
}

func (m *Map) hasLineOfSight(from, to grid.Position, obstacles map[string]struct{}) bool {
	if len(obstacles) == 0 {
		return true
	}
	line := m.grid.LineOfSightCells(from, to)
	// the endpoints never block
	for i := 1; i < len(line)-1; i++ {
		if _, blocked := obstacles[grid.CellKey(line[i])]; blocked {
			return false
		}
	}
	return true
}

func (m *Map) light(pos grid.Position, now time.Time) {
	c := &m.cells[m.index(pos)]
	c.State = Bright
	c.LastSeen = now
}

// Cell returns the fog cell at pos. Off-map positions are Dark.
func (m *Map) Cell(pos grid.Position) Cell {
	if !m.grid.InBounds(pos) {
		return Cell{}
	}
	return m.cells[m.index(pos)]
}

// State returns the state at pos. Off-map positions are Dark.
func (m *Map) State(pos grid.Position) State {
	return m.Cell(pos).State
}

// IsVisible reports whether pos is Bright
func (m *Map) IsVisible(pos grid.Position) bool {
	return m.State(pos) == Bright
}

// IsExplored reports whether pos has ever been seen
func (m *Map) IsExplored(pos grid.Position) bool {
	return m.State(pos) != Dark
}

// RevealCell makes one cell Bright regardless of vision
func (m *Map) RevealCell(pos grid.Position) {
	if m.grid.InBounds(pos) {
		m.light(pos, m.now())
	}
}

// HideCell returns one cell to Dark
func (m *Map) HideCell(pos grid.Position) {
	if m.grid.InBounds(pos) {
		m.cells[m.index(pos)].State = Dark
	}
}

// RevealArea makes every cell within radius of center Bright
func (m *Map) RevealArea(center grid.Position, radius int) {
	now := m.now()
	for _, cell := range m.grid.CellsInRadius(center, radius) {
		m.light(cell, now)
	}
}

// RevealAll makes the whole map Bright
func (m *Map) RevealAll() {
	now := m.now()
	for i := range m.cells {
		m.cells[i] = Cell{State: Bright, LastSeen: now}
	}
}

// ResetFog returns every cell to Dark and forgets when it was last seen.
// Vision sources are kept.
func (m *Map) ResetFog() {
	clear(m.cells)
}

// Statistics counts cells by state
func (m *Map) Statistics() Statistics {
	stats := Statistics{TotalCells: len(m.cells)}
	for _, c := range m.cells {
		switch c.State {
		case Dark:
			stats.DarkCells++
		case Dim:
			stats.DimCells++
		case Bright:
			stats.BrightCells++
		}
	}
	if stats.TotalCells > 0 {
		explored := stats.DimCells + stats.BrightCells
		stats.ExplorationPercentage = float64(explored) / float64(stats.TotalCells) * 100
	}
	return stats
}

// ExportFogData returns every cell keyed by its cell key
func (m *Map) ExportFogData() map[string]CellData {
	data := make(map[string]CellData, len(m.cells))
	for y := 0; y < m.grid.Height(); y++ {
		for x := 0; x < m.grid.Width(); x++ {
			pos := grid.Position{X: x, Y: y}
			c := m.cells[m.index(pos)]
			data[grid.CellKey(pos)] = CellData{State: c.State, LastSeen: toMillis(c.LastSeen)}
		}
	}
	return data
}

// ImportFogData replaces the fog with data. Cells missing from data become
// Dark. Nothing changes if any key is malformed, off the map, or carries an
// unknown state.
func (m *Map) ImportFogData(data map[string]CellData) error {
	cells := make([]Cell, len(m.cells))
	for key, d := range data {
		pos, ok := grid.ParseCellKey(key)
		if !ok {
			return dnderr.InvalidArgumentf("malformed cell key %q", key)
		}
		if !m.grid.InBounds(pos) {
			return dnderr.InvalidArgumentf("cell %s is outside the map", key)
		}
		if !d.State.valid() {
			return dnderr.InvalidArgumentf("cell %s has unknown state %d", key, d.State)
		}
		cells[m.index(pos)] = Cell{State: d.State, LastSeen: fromMillis(d.LastSeen)}
	}

	m.cells = cells
	return nil
}

func (m *Map) index(pos grid.Position) int {
	return pos.Y*m.grid.Width() + pos.X
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
