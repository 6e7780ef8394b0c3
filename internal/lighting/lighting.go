// Package lighting computes how well lit each cell of a map is from light
// sources, token vision and the walls that block both.
package lighting

import (
	"math"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/KirkDiggler/dnd-tactics/internal/logging"
	"github.com/KirkDiggler/dnd-tactics/internal/uuid"
)

const (
	DefaultWidth              = 100
	DefaultHeight             = 100
	DefaultGlobalIllumination = 0.1
	DefaultFeetPerCell        = 5

	// DefaultVisibilityThreshold is the level at which a cell counts as visible
	DefaultVisibilityThreshold uint8 = 50

	fullVision uint8 = 255
	darkVision uint8 = 128
)

// Point is a location in raster cell units. Cell (x, y) spans [x, x+1).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// CellCenter returns the center of cell (x, y)
func CellCenter(x, y int) Point {
	return Point{X: float64(x) + 0.5, Y: float64(y) + 0.5}
}

func (p Point) cell() (int, int) {
	return int(math.Floor(p.X)), int(math.Floor(p.Y))
}

// Light is a point or cone light
type Light struct {
	ID         string  `json:"id"`
	Position   Point   `json:"position"`
	RadiusFeet float64 `json:"radius_feet"`
	Color      string  `json:"color,omitempty"`
	Enabled    bool    `json:"enabled"`

	// Intensity is 0 to 1
	Intensity float64 `json:"intensity"`

	// ConeAngle is in degrees; zero or 360 and above lights every direction.
	// Direction is in degrees, measured from +X toward +Y.
	ConeAngle float64 `json:"cone_angle,omitempty"`
	Direction float64 `json:"direction,omitempty"`
}

// WallKind distinguishes plain walls from doors and windows
type WallKind string

const (
	WallKindWall   WallKind = "wall"
	WallKindDoor   WallKind = "door"
	WallKindWindow WallKind = "window"
)

// Wall is a polyline that may block light and movement. Doors also track
// whether they are open.
type Wall struct {
	ID             string   `json:"id"`
	Points         []Point  `json:"points"`
	BlocksLight    bool     `json:"blocks_light"`
	BlocksMovement bool     `json:"blocks_movement"`
	Kind           WallKind `json:"kind"`
	IsOpen         bool     `json:"is_open,omitempty"`
}

func (w *Wall) blocksLight() bool {
	return w.BlocksLight && !(w.Kind == WallKindDoor && w.IsOpen)
}

func (w *Wall) blocksMovement() bool {
	return w.BlocksMovement && !(w.Kind == WallKindDoor && w.IsOpen)
}

// VisionToken is a token's senses. Ranges are in feet.
type VisionToken struct {
	ID                  string  `json:"id"`
	Position            Point   `json:"position"`
	VisionRangeFeet     float64 `json:"vision_range_feet"`
	DarkvisionRangeFeet float64 `json:"darkvision_range_feet,omitempty"`
	BlindsightFeet      float64 `json:"blindsight_feet,omitempty"`
	TruesightFeet       float64 `json:"truesight_feet,omitempty"`
}

// State is a copy of everything that feeds the raster
type State struct {
	Lights             []Light       `json:"lights"`
	Walls              []Wall        `json:"walls"`
	Tokens             []VisionToken `json:"tokens"`
	GlobalIllumination float64       `json:"global_illumination"`
}

// Mask is the computed raster, row major. 0 is pitch black, 255 fully visible.
type Mask struct {
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Data   []uint8 `json:"data"`
}

// Config configures an Engine. GlobalIllumination is used as given, clamped
// to 0..1.
type Config struct {
	Width              int
	Height             int
	FeetPerCell        int
	GlobalIllumination float64
	IDs                uuid.Generator
	Logger             logrus.FieldLogger
}

// Engine owns the lighting state of one map. Every mutation recomputes the
// raster and notifies OnChange subscribers. Not safe for concurrent use.
type Engine struct {
	width, height int
	feetPerCell   int

	lights []*Light
	walls  []*Wall
	tokens []*VisionToken
	global float64

	mask []uint8

	subscribers []changeSubscriber
	nextSubID   int

	ids uuid.Generator
	log logrus.FieldLogger
}

type changeSubscriber struct {
	id int
	fn func(State)
}

// NewEngine creates an Engine and computes its initial raster. A nil config
// uses a 100x100 raster at 0.1 global illumination.
func NewEngine(cfg *Config) *Engine {
	if cfg == nil {
		cfg = &Config{GlobalIllumination: DefaultGlobalIllumination}
	}

	e := &Engine{
		width:       cfg.Width,
		height:      cfg.Height,
		feetPerCell: cfg.FeetPerCell,
		global:      clampUnit(cfg.GlobalIllumination),
		ids:         cfg.IDs,
		log:         logging.OrDiscard(cfg.Logger),
	}
	if e.width <= 0 {
		e.width = DefaultWidth
	}
	if e.height <= 0 {
		e.height = DefaultHeight
	}
	if e.feetPerCell <= 0 {
		e.feetPerCell = DefaultFeetPerCell
	}
	if e.ids == nil {
		e.ids = uuid.NewGoogleUUIDGenerator()
	}

	e.RecomputeVisibility()
	return e
}

// AddLight adds a light and returns its id. An empty ID is generated.
func (e *Engine) AddLight(light Light) string {
	if light.ID == "" {
		light.ID = e.ids.New()
	}
	light.Intensity = clampUnit(light.Intensity)
	e.lights = append(e.lights, &light)
	e.changed()
	return light.ID
}

// UpdateLight replaces the light with the same ID
func (e *Engine) UpdateLight(light Light) bool {
	for i, l := range e.lights {
		if l.ID == light.ID {
			light.Intensity = clampUnit(light.Intensity)
			e.lights[i] = &light
			e.changed()
			return true
		}
	}
	return false
}

func (e *Engine) RemoveLight(id string) bool {
	for i, l := range e.lights {
		if l.ID == id {
			e.lights = slices.Delete(e.lights, i, i+1)
			e.changed()
			return true
		}
	}
	return false
}

// AddWall adds a wall and returns its id. An empty kind is a plain wall.
func (e *Engine) AddWall(wall Wall) string {
	if wall.ID == "" {
		wall.ID = e.ids.New()
	}
	if wall.Kind == "" {
		wall.Kind = WallKindWall
	}
	wall.Points = slices.Clone(wall.Points)
	e.walls = append(e.walls, &wall)
	e.changed()
	return wall.ID
}

// AddDoor adds a door. A closed door blocks light and movement, an open one
// blocks neither.
func (e *Engine) AddDoor(door Wall) string {
	door.Kind = WallKindDoor
	door.BlocksLight = !door.IsOpen
	door.BlocksMovement = !door.IsOpen
	return e.AddWall(door)
}

// ToggleDoor opens a closed door or closes an open one. Returns false for
// unknown ids and walls that are not doors.
func (e *Engine) ToggleDoor(id string) bool {
	w := e.wall(id)
	if w == nil || w.Kind != WallKindDoor {
		return false
	}
	return e.SetDoorOpen(id, !w.IsOpen)
}

// SetDoorOpen opens or closes a door
func (e *Engine) SetDoorOpen(id string, open bool) bool {
	w := e.wall(id)
	if w == nil || w.Kind != WallKindDoor {
		return false
	}
	w.IsOpen = open
	w.BlocksLight = !open
	w.BlocksMovement = !open
	e.changed()
	return true
}

func (e *Engine) RemoveWall(id string) bool {
	for i, w := range e.walls {
		if w.ID == id {
			e.walls = slices.Delete(e.walls, i, i+1)
			e.changed()
			return true
		}
	}
	return false
}

// AddVisionToken adds or replaces a token's senses
func (e *Engine) AddVisionToken(token VisionToken) {
	for i, t := range e.tokens {
		if t.ID == token.ID {
			e.tokens[i] = &token
			e.changed()
			return
		}
	}
	e.tokens = append(e.tokens, &token)
	e.changed()
}

// UpdateVisionToken moves a token. Returns false if it is unknown.
func (e *Engine) UpdateVisionToken(id string, pos Point) bool {
	for _, t := range e.tokens {
		if t.ID == id {
			t.Position = pos
			e.changed()
			return true
		}
	}
	return false
}

func (e *Engine) RemoveVisionToken(id string) bool {
	for i, t := range e.tokens {
		if t.ID == id {
			e.tokens = slices.Delete(e.tokens, i, i+1)
			e.changed()
			return true
		}
	}
	return false
}

// SetGlobalIllumination sets the ambient level, clamped to 0..1
func (e *Engine) SetGlobalIllumination(level float64) {
	e.global = clampUnit(level)
	e.changed()
}

// OnChange registers fn to receive a copy of the state after every
// mutation. The returned func unsubscribes.
func (e *Engine) OnChange(fn func(State)) func() {
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

func (e *Engine) changed() {
	e.RecomputeVisibility()
	e.log.WithFields(logrus.Fields{
		"lights": len(e.lights),
		"walls":  len(e.walls),
		"tokens": len(e.tokens),
	}).Debug("lighting recomputed")
	if len(e.subscribers) == 0 {
		return
	}
	state := e.State()
	for _, s := range e.subscribers {
		s.fn(state)
	}
}

// State returns a deep copy of the lighting inputs
func (e *Engine) State() State {
	s := State{
		Lights:             make([]Light, len(e.lights)),
		Walls:              make([]Wall, len(e.walls)),
		Tokens:             make([]VisionToken, len(e.tokens)),
		GlobalIllumination: e.global,
	}
	for i, l := range e.lights {
		s.Lights[i] = *l
	}
	for i, w := range e.walls {
		s.Walls[i] = *w
		s.Walls[i].Points = slices.Clone(w.Points)
	}
	for i, t := range e.tokens {
		s.Tokens[i] = *t
	}
	return s
}

// VisibilityMask returns a copy of the raster
func (e *Engine) VisibilityMask() Mask {
	return Mask{Width: e.width, Height: e.height, Data: slices.Clone(e.mask)}
}

// Level returns the light level of a cell, 0 off the raster
func (e *Engine) Level(x, y int) uint8 {
	if !e.inBounds(x, y) {
		return 0
	}
	return e.mask[y*e.width+x]
}

// IsVisible reports whether a cell is lit to at least threshold. Cells off
// the raster are never visible.
func (e *Engine) IsVisible(x, y int, threshold uint8) bool {
	if !e.inBounds(x, y) {
		return false
	}
	return e.mask[y*e.width+x] >= threshold
}

// HasLineOfSight is false when a light blocking wall crosses the segment
// from a to b. Open doors never block.
func (e *Engine) HasLineOfSight(a, b Point) bool {
	for _, w := range e.walls {
		if w.blocksLight() && crosses(a, b, w.Points) {
			return false
		}
	}
	return true
}

// BlocksMovement reports whether a movement blocking wall crosses the
// segment from a to b
func (e *Engine) BlocksMovement(a, b Point) bool {
	for _, w := range e.walls {
		if w.blocksMovement() && crosses(a, b, w.Points) {
			return true
		}
	}
	return false
}

func (e *Engine) wall(id string) *Wall {
	for _, w := range e.walls {
		if w.ID == id {
			return w
		}
	}
	return nil
}

func (e *Engine) inBounds(x, y int) bool {
	return x >= 0 && x < e.width && y >= 0 && y < e.height
}

func clampUnit(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
