// Package battlefield runs one battle map: the battle engine plus the fog,
// lighting and aura state that follows its tokens around.
package battlefield

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/KirkDiggler/dnd-tactics/internal/actions"
	"github.com/KirkDiggler/dnd-tactics/internal/auras"
	"github.com/KirkDiggler/dnd-tactics/internal/battle"
	"github.com/KirkDiggler/dnd-tactics/internal/dice"
	dnderr "github.com/KirkDiggler/dnd-tactics/internal/errors"
	"github.com/KirkDiggler/dnd-tactics/internal/fog"
	"github.com/KirkDiggler/dnd-tactics/internal/grid"
	"github.com/KirkDiggler/dnd-tactics/internal/lighting"
	"github.com/KirkDiggler/dnd-tactics/internal/logging"
	"github.com/KirkDiggler/dnd-tactics/internal/repositories/snapshots"
	"github.com/KirkDiggler/dnd-tactics/internal/rules"
	"github.com/KirkDiggler/dnd-tactics/internal/services/monster"
	"github.com/KirkDiggler/dnd-tactics/internal/uuid"
)

// defaultDamageRoll is used for tokens added without an attack
const defaultDamageRoll = "1d4"

// Service is one battle map. Every method is safe for concurrent use.
type Service interface {
	MapID() string

	// Tokens

	AddToken(ctx context.Context, input *AddTokenInput) (*battle.Token, error)
	AddMonster(ctx context.Context, input *AddMonsterInput) (*battle.Token, error)
	RemoveToken(ctx context.Context, tokenID string) error
	// MoveToken spends movement equal to the grid distance and lets fog,
	// lighting and auras know where the token went
	MoveToken(ctx context.Context, tokenID string, to grid.Position) error
	GetToken(ctx context.Context, tokenID string) (*battle.Token, error)
	ListTokens(ctx context.Context) []battle.Token

	// Combat

	StartBattle(ctx context.Context) error
	EndBattle(ctx context.Context) error
	NextTurn(ctx context.Context) (*battle.Token, error)
	Attack(ctx context.Context, attackerID, targetID string) (*actions.Result, error)
	ApplyDamage(ctx context.Context, tokenID string, amount int) error
	Heal(ctx context.Context, tokenID string, amount int) error
	AddCondition(ctx context.Context, tokenID string, condition rules.Condition) error
	RemoveCondition(ctx context.Context, tokenID string, condition rules.Condition) error
	State(ctx context.Context) *battle.State
	Events(ctx context.Context) []battle.Event

	// Fog of war

	SetObstacle(ctx context.Context, pos grid.Position) error
	ClearObstacle(ctx context.Context, pos grid.Position) bool
	RecomputeVision(ctx context.Context)
	RevealArea(ctx context.Context, center grid.Position, radius int)
	ResetFog(ctx context.Context)
	FogState(ctx context.Context, pos grid.Position) fog.State
	FogStatistics(ctx context.Context) fog.Statistics

	// Lighting

	AddLight(ctx context.Context, light lighting.Light) string
	RemoveLight(ctx context.Context, id string) error
	AddWall(ctx context.Context, wall lighting.Wall) string
	AddDoor(ctx context.Context, door lighting.Wall) string
	ToggleDoor(ctx context.Context, id string) error
	RemoveWall(ctx context.Context, id string) error
	SetGlobalIllumination(ctx context.Context, level float64)
	VisibilityMask(ctx context.Context) lighting.Mask
	IsCellLit(ctx context.Context, pos grid.Position) bool

	// Auras

	AddAura(ctx context.Context, tokenID string, aura auras.Aura) (string, error)
	RemoveAura(ctx context.Context, auraID string) error
	ToggleAura(ctx context.Context, auraID string) error
	AurasAffectingToken(ctx context.Context, tokenID string) []auras.Aura
	AuraEffectsAt(ctx context.Context, pos grid.Position) []auras.EffectAt

	// Persistence

	SaveSnapshot(ctx context.Context) error
	LoadSnapshot(ctx context.Context) error
}

// EventArchive stores battle events outside the engine's capped log
type EventArchive interface {
	Append(ctx context.Context, mapID string, event battle.Event) error
}

// AddTokenInput describes a new token. ID is generated when empty and HP
// defaults to MaxHP.
type AddTokenInput struct {
	ID                string
	Name              string
	HP                int
	MaxHP             int
	AC                int
	Speed             int // in cells
	Position          grid.Position
	IsEnemy           bool
	IsPlayer          bool
	DexterityModifier int
	AttackBonus       int
	DamageRoll        string

	Vision         rules.VisionType
	BlindsightFeet float64
	TruesightFeet  float64
}

// AddMonsterInput places a bestiary monster as an enemy token. Name defaults
// to the stat block's name.
type AddMonsterInput struct {
	Key      string
	ID       string
	Name     string
	Position grid.Position
}

// ServiceConfig holds configuration for the service
type ServiceConfig struct {
	MapID string     // Required
	Grid  *grid.Grid // Required

	Roller        dice.Roller
	CritPolicy    actions.CritPolicy
	InitiativeDie int

	// LightingWidth and LightingHeight size the lighting raster; zero
	// matches the grid
	LightingWidth      int
	LightingHeight     int
	GlobalIllumination float64

	Snapshots snapshots.Repository // Optional
	Archive   EventArchive         // Optional
	Monsters  monster.Service      // Optional

	IDs    uuid.Generator
	Clock  func() time.Time
	Logger logrus.FieldLogger
}

type tracked struct {
	vision         rules.VisionType
	blindsightFeet float64
	truesightFeet  float64
}

type service struct {
	mu sync.Mutex

	mapID    string
	grid     *grid.Grid
	engine   *battle.Engine
	fog      *fog.Map
	lighting *lighting.Engine
	auras    *auras.Engine

	observers []tokenObserver
	tracked   map[string]tracked
	obstacles map[string]struct{}
	pending   []battle.Event

	lightScaleX float64
	lightScaleY float64

	snapshots snapshots.Repository
	archive   EventArchive
	monsters  monster.Service

	ids uuid.Generator
	log logrus.FieldLogger
}

// NewService creates a new battlefield service
func NewService(cfg *ServiceConfig) Service {
	if cfg == nil {
		panic("battlefield config is required")
	}
	if cfg.MapID == "" {
		panic("map id is required")
	}
	if cfg.Grid == nil {
		panic("grid is required")
	}

	ids := cfg.IDs
	if ids == nil {
		ids = uuid.NewGoogleUUIDGenerator()
	}
	log := logging.OrDiscard(cfg.Logger).WithField("map_id", cfg.MapID)

	lw, lh := cfg.LightingWidth, cfg.LightingHeight
	if lw <= 0 {
		lw = cfg.Grid.Width()
	}
	if lh <= 0 {
		lh = cfg.Grid.Height()
	}
	scaleX := float64(lw) / float64(cfg.Grid.Width())
	scaleY := float64(lh) / float64(cfg.Grid.Height())

	s := &service{
		mapID: cfg.MapID,
		grid:  cfg.Grid,
		engine: battle.NewEngine(&battle.Config{
			Roller:        cfg.Roller,
			CritPolicy:    cfg.CritPolicy,
			InitiativeDie: cfg.InitiativeDie,
			IDs:           ids,
			Clock:         cfg.Clock,
			Logger:        log,
		}),
		fog: fog.NewMap(&fog.Config{
			Grid:   cfg.Grid,
			Clock:  cfg.Clock,
			Logger: log,
		}),
		lighting: lighting.NewEngine(&lighting.Config{
			Width:              lw,
			Height:             lh,
			FeetPerCell:        max(1, int(math.Round(float64(cfg.Grid.FeetPerCell())/scaleX))),
			GlobalIllumination: cfg.GlobalIllumination,
			IDs:                ids,
			Logger:             log,
		}),
		auras: auras.NewEngine(&auras.Config{
			Grid:   cfg.Grid,
			IDs:    ids,
			Logger: log,
		}),
		tracked:     make(map[string]tracked),
		obstacles:   make(map[string]struct{}),
		lightScaleX: scaleX,
		lightScaleY: scaleY,
		snapshots:   cfg.Snapshots,
		archive:     cfg.Archive,
		monsters:    cfg.Monsters,
		ids:         ids,
		log:         log,
	}

	s.observers = []tokenObserver{
		fogObserver{fog: s.fog},
		lightingObserver{lighting: s.lighting, toPoint: s.lightPoint},
		auraObserver{auras: s.auras},
	}
	s.engine.OnBattleEvent(func(e battle.Event) {
		s.pending = append(s.pending, e)
	})

	return s
}

func (s *service) MapID() string {
	return s.mapID
}

func (s *service) AddToken(ctx context.Context, input *AddTokenInput) (*battle.Token, error) {
	if input == nil {
		return nil, dnderr.InvalidArgument("input is required")
	}
	if input.Name == "" {
		return nil, dnderr.InvalidArgument("token name is required")
	}
	if input.MaxHP <= 0 {
		return nil, dnderr.InvalidArgumentf("token %s needs positive max HP", input.Name)
	}
	if !s.grid.InBounds(input.Position) {
		return nil, dnderr.InvalidArgumentf("position %s is outside the map", grid.CellKey(input.Position))
	}
	damageRoll := input.DamageRoll
	if damageRoll == "" {
		damageRoll = defaultDamageRoll
	}
	if _, err := dice.ParseExpression(damageRoll); err != nil {
		return nil, dnderr.WrapWithCode(err, dnderr.CodeInvalidArgument, "invalid damage roll")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := input.ID
	if id == "" {
		id = s.ids.New()
	}
	hp := input.HP
	if hp <= 0 {
		hp = input.MaxHP
	}

	token := battle.Token{
		ID:                id,
		Name:              input.Name,
		HP:                min(hp, input.MaxHP),
		MaxHP:             input.MaxHP,
		AC:                input.AC,
		Speed:             input.Speed,
		Position:          s.grid.GridToWorld(input.Position),
		IsEnemy:           input.IsEnemy,
		IsPlayer:          input.IsPlayer,
		DexterityModifier: input.DexterityModifier,
		AttackBonus:       input.AttackBonus,
		DamageRoll:        damageRoll,
	}
	if !s.engine.AddToken(token) {
		return nil, dnderr.AlreadyExistsf("token %s already on the map", id)
	}

	s.track(token, tracked{
		vision:         input.Vision,
		blindsightFeet: input.BlindsightFeet,
		truesightFeet:  input.TruesightFeet,
	})
	s.fog.RecomputeVision(s.obstacles)
	s.flush(ctx)

	added, _ := s.engine.Token(id)
	return &added, nil
}

// AddMonster looks the monster up in the bestiary and adds it as an enemy
func (s *service) AddMonster(ctx context.Context, input *AddMonsterInput) (*battle.Token, error) {
	if input == nil {
		return nil, dnderr.InvalidArgument("input is required")
	}
	if s.monsters == nil {
		return nil, dnderr.FailedPrecondition("no bestiary configured")
	}

	template, err := s.monsters.GetTokenTemplate(ctx, input.Key)
	if err != nil {
		return nil, dnderr.Wrapf(err, "failed to get monster '%s'", input.Key)
	}

	name := input.Name
	if name == "" {
		name = template.Name
	}

	return s.AddToken(ctx, &AddTokenInput{
		ID:                input.ID,
		Name:              name,
		HP:                template.HP,
		MaxHP:             template.HP,
		AC:                template.AC,
		Speed:             template.SpeedFeet / s.grid.FeetPerCell(),
		Position:          input.Position,
		IsEnemy:           true,
		DexterityModifier: template.DexterityModifier,
		AttackBonus:       template.AttackBonus,
		DamageRoll:        template.DamageRoll,
	})
}

func (s *service) RemoveToken(ctx context.Context, tokenID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.engine.RemoveToken(tokenID) {
		return dnderr.NotFoundf("token %s not found", tokenID)
	}
	s.untrack(tokenID)
	s.fog.RecomputeVision(s.obstacles)
	s.flush(ctx)
	return nil
}

func (s *service) MoveToken(ctx context.Context, tokenID string, to grid.Position) error {
	if !s.grid.InBounds(to) {
		return dnderr.InvalidArgumentf("position %s is outside the map", grid.CellKey(to))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok := s.engine.Token(tokenID)
	if !ok {
		return dnderr.NotFoundf("token %s not found", tokenID)
	}

	from := s.grid.WorldToGrid(token.Position)
	if s.lighting.BlocksMovement(s.lightPoint(from), s.lightPoint(to)) {
		return dnderr.FailedPrecondition("a wall blocks the way")
	}

	distance := float64(s.grid.Distance(from, to))
	if !s.engine.MoveToken(tokenID, s.grid.GridToWorld(to), distance) {
		s.flush(ctx)
		return dnderr.FailedPrecondition("move refused")
	}

	s.tokenMoved(tokenID, to)
	s.flush(ctx)
	return nil
}

func (s *service) GetToken(_ context.Context, tokenID string) (*battle.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok := s.engine.Token(tokenID)
	if !ok {
		return nil, dnderr.NotFoundf("token %s not found", tokenID)
	}
	return &token, nil
}

func (s *service) ListTokens(_ context.Context) []battle.Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Tokens()
}

func (s *service) StartBattle(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.engine.StartBattle()
	s.flush(ctx)
	return err
}

func (s *service) EndBattle(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.engine.Phase() != battle.PhaseCombat {
		return dnderr.FailedPrecondition("no battle in progress")
	}
	s.engine.EndBattle()
	s.flush(ctx)
	return nil
}

func (s *service) NextTurn(ctx context.Context) (*battle.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.engine.Phase() != battle.PhaseCombat {
		return nil, dnderr.FailedPrecondition("no battle in progress")
	}
	next, ok := s.engine.NextTurn()
	s.flush(ctx)
	if !ok {
		return nil, dnderr.FailedPrecondition("nobody left in the turn order")
	}
	return &next, nil
}

// Attack resolves an attack. A refused or missed attack is not an error; the
// result says what happened.
func (s *service) Attack(ctx context.Context, attackerID, targetID string) (*actions.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.engine.Token(attackerID); !ok {
		return nil, dnderr.NotFoundf("attacker %s not found", attackerID)
	}
	if _, ok := s.engine.Token(targetID); !ok {
		return nil, dnderr.NotFoundf("target %s not found", targetID)
	}

	result := s.engine.PerformAttack(attackerID, targetID)
	s.flush(ctx)
	return &result, nil
}

func (s *service) ApplyDamage(ctx context.Context, tokenID string, amount int) error {
	if amount < 0 {
		return dnderr.InvalidArgument("damage cannot be negative")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.engine.ApplyDamage(tokenID, amount) {
		return dnderr.NotFoundf("token %s not found", tokenID)
	}
	s.flush(ctx)
	return nil
}

func (s *service) Heal(ctx context.Context, tokenID string, amount int) error {
	if amount < 0 {
		return dnderr.InvalidArgument("healing cannot be negative")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.engine.HealToken(tokenID, amount) {
		return dnderr.NotFoundf("token %s not found", tokenID)
	}
	s.flush(ctx)
	return nil
}

func (s *service) AddCondition(ctx context.Context, tokenID string, condition rules.Condition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.engine.Token(tokenID); !ok {
		return dnderr.NotFoundf("token %s not found", tokenID)
	}
	if !s.engine.AddCondition(tokenID, condition) {
		return dnderr.AlreadyExistsf("token %s is already %s", tokenID, condition)
	}
	s.flush(ctx)
	return nil
}

func (s *service) RemoveCondition(ctx context.Context, tokenID string, condition rules.Condition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.engine.Token(tokenID); !ok {
		return dnderr.NotFoundf("token %s not found", tokenID)
	}
	if !s.engine.RemoveCondition(tokenID, condition) {
		return dnderr.NotFoundf("token %s is not %s", tokenID, condition)
	}
	s.flush(ctx)
	return nil
}

func (s *service) State(_ context.Context) *battle.State {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.engine.State()
	return &state
}

func (s *service) Events(_ context.Context) []battle.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.EventHistory()
}

// SetObstacle marks a cell that blocks sight for the fog and recomputes it
func (s *service) SetObstacle(_ context.Context, pos grid.Position) error {
	if !s.grid.InBounds(pos) {
		return dnderr.InvalidArgumentf("position %s is outside the map", grid.CellKey(pos))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.obstacles[grid.CellKey(pos)] = struct{}{}
	s.fog.RecomputeVision(s.obstacles)
	return nil
}

func (s *service) ClearObstacle(_ context.Context, pos grid.Position) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := grid.CellKey(pos)
	if _, ok := s.obstacles[key]; !ok {
		return false
	}
	delete(s.obstacles, key)
	s.fog.RecomputeVision(s.obstacles)
	return true
}

func (s *service) RecomputeVision(_ context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fog.RecomputeVision(s.obstacles)
}

func (s *service) RevealArea(_ context.Context, center grid.Position, radius int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fog.RevealArea(center, radius)
}

func (s *service) ResetFog(_ context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fog.ResetFog()
}

func (s *service) FogState(_ context.Context, pos grid.Position) fog.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fog.State(pos)
}

func (s *service) FogStatistics(_ context.Context) fog.Statistics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fog.Statistics()
}

func (s *service) AddLight(_ context.Context, light lighting.Light) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lighting.AddLight(light)
}

func (s *service) RemoveLight(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.lighting.RemoveLight(id) {
		return dnderr.NotFoundf("light %s not found", id)
	}
	return nil
}

func (s *service) AddWall(_ context.Context, wall lighting.Wall) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lighting.AddWall(wall)
}

func (s *service) AddDoor(_ context.Context, door lighting.Wall) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lighting.AddDoor(door)
}

func (s *service) ToggleDoor(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.lighting.ToggleDoor(id) {
		return dnderr.NotFoundf("door %s not found", id)
	}
	return nil
}

func (s *service) RemoveWall(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.lighting.RemoveWall(id) {
		return dnderr.NotFoundf("wall %s not found", id)
	}
	return nil
}

func (s *service) SetGlobalIllumination(_ context.Context, level float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lighting.SetGlobalIllumination(level)
}

func (s *service) VisibilityMask(_ context.Context) lighting.Mask {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lighting.VisibilityMask()
}

// IsCellLit reports whether the center of a grid cell is visible on the
// lighting raster
func (s *service) IsCellLit(_ context.Context, pos grid.Position) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.lightPoint(pos)
	return s.lighting.IsVisible(int(p.X), int(p.Y), lighting.DefaultVisibilityThreshold)
}

func (s *service) AddAura(_ context.Context, tokenID string, aura auras.Aura) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.engine.Token(tokenID); !ok {
		return "", dnderr.NotFoundf("token %s not found", tokenID)
	}
	return s.auras.AddAura(tokenID, aura), nil
}

func (s *service) RemoveAura(_ context.Context, auraID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.auras.RemoveAura(auraID) {
		return dnderr.NotFoundf("aura %s not found", auraID)
	}
	return nil
}

func (s *service) ToggleAura(_ context.Context, auraID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.auras.ToggleAura(auraID) {
		return dnderr.NotFoundf("aura %s not found", auraID)
	}
	return nil
}

func (s *service) AurasAffectingToken(_ context.Context, tokenID string) []auras.Aura {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.auras.AurasAffectingToken(tokenID)
}

func (s *service) AuraEffectsAt(_ context.Context, pos grid.Position) []auras.EffectAt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.auras.EffectsAtPosition(pos)
}

// SaveSnapshot stores the fog and the battle under the map id
func (s *service) SaveSnapshot(ctx context.Context) error {
	if s.snapshots == nil {
		return dnderr.FailedPrecondition("no snapshot repository configured")
	}

	s.mu.Lock()
	state := s.engine.State()
	snapshot := &snapshots.Snapshot{
		MapID:  s.mapID,
		Fog:    s.fog.ExportFogData(),
		Battle: &state,
	}
	s.mu.Unlock()

	if err := s.snapshots.Save(ctx, snapshot); err != nil {
		return dnderr.Wrapf(err, "failed to save snapshot for map %s", s.mapID)
	}
	s.log.WithField("tokens", len(state.Tokens)).Info("snapshot saved")
	return nil
}

// LoadSnapshot replaces the fog and the battle with the stored snapshot.
// Tokens that were not on the map before get normal vision.
func (s *service) LoadSnapshot(ctx context.Context) error {
	if s.snapshots == nil {
		return dnderr.FailedPrecondition("no snapshot repository configured")
	}

	snapshot, err := s.snapshots.Load(ctx, s.mapID)
	if err != nil {
		return dnderr.Wrapf(err, "failed to load snapshot for map %s", s.mapID)
	}
	if snapshot.Battle == nil {
		return dnderr.Internalf("snapshot for map %s has no battle", s.mapID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fog.ImportFogData(snapshot.Fog); err != nil {
		return dnderr.Wrapf(err, "snapshot for map %s has bad fog", s.mapID)
	}
	s.engine.Restore(*snapshot.Battle)

	present := make(map[string]bool, len(snapshot.Battle.Tokens))
	for _, t := range snapshot.Battle.Tokens {
		present[t.ID] = true
		if _, ok := s.tracked[t.ID]; ok {
			s.tokenMoved(t.ID, s.grid.WorldToGrid(t.Position))
			continue
		}
		s.track(t, tracked{})
	}
	for id := range s.tracked {
		if !present[id] {
			s.untrack(id)
		}
	}

	s.log.WithField("tokens", len(snapshot.Battle.Tokens)).Info("snapshot loaded")
	return nil
}

// track registers a token with every subsystem. Enemies do not reveal fog
// or contribute vision to the lighting raster.
func (s *service) track(token battle.Token, t tracked) {
	if t.vision == "" {
		t.vision = rules.VisionNormal
	}
	cell := s.grid.WorldToGrid(token.Position)

	s.auras.UpdateTokenPosition(token.ID, cell)
	if !token.IsEnemy {
		s.fog.AddVisionSource(token.ID, cell, rules.VisionRangeCells(t.vision, s.grid.FeetPerCell()), t.vision)

		vt := lighting.VisionToken{
			ID:              token.ID,
			Position:        s.lightPoint(cell),
			VisionRangeFeet: rules.DefaultVisionRangeFeet,
			BlindsightFeet:  t.blindsightFeet,
			TruesightFeet:   t.truesightFeet,
		}
		if t.vision == rules.VisionDarkvision {
			vt.DarkvisionRangeFeet = rules.DarkvisionRangeFeet
		}
		s.lighting.AddVisionToken(vt)
	}
	s.tracked[token.ID] = t
}

func (s *service) untrack(tokenID string) {
	for _, o := range s.observers {
		o.tokenRemoved(tokenID)
	}
	delete(s.tracked, tokenID)
}

// tokenMoved tells every subsystem about a move, then recomputes the fog
func (s *service) tokenMoved(tokenID string, cell grid.Position) {
	for _, o := range s.observers {
		o.tokenMoved(tokenID, cell)
	}
	s.fog.RecomputeVision(s.obstacles)
}

// lightPoint maps a grid cell to the center of its area on the lighting
// raster
func (s *service) lightPoint(pos grid.Position) lighting.Point {
	return lighting.Point{
		X: (float64(pos.X) + 0.5) * s.lightScaleX,
		Y: (float64(pos.Y) + 0.5) * s.lightScaleY,
	}
}

// flush hands events queued by the engine to the archive. Archive failures
// are logged and do not fail the operation that raised the event.
func (s *service) flush(ctx context.Context) {
	pending := s.pending
	s.pending = nil
	if s.archive == nil {
		return
	}

	for _, e := range pending {
		if err := s.archive.Append(ctx, s.mapID, e); err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{
				"event_id": e.ID,
				"action":   e.Action,
			}).Warn("failed to archive battle event")
		}
	}
}
