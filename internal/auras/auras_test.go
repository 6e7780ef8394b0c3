package auras_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KirkDiggler/dnd-tactics/internal/auras"
	"github.com/KirkDiggler/dnd-tactics/internal/grid"
	"github.com/KirkDiggler/dnd-tactics/internal/uuid"
)

func newEngine(t *testing.T, feetPerCell int) *auras.Engine {
	t.Helper()
	return auras.NewEngine(&auras.Config{
		Grid: grid.New(grid.Config{Width: 20, Height: 20, FeetPerCell: feetPerCell}),
		IDs:  uuid.NewSequenceGenerator("aura"),
	})
}

func pos(x, y int) grid.Position { return grid.Position{X: x, Y: y} }

func TestMembershipFollowsMovement(t *testing.T) {
	// 4 ft cells put the 8 ft and 12 ft marks exactly on cell boundaries
	e := newEngine(t, 4)
	e.UpdateTokenPosition("paladin", pos(0, 0))
	id := e.AddAura("paladin", auras.Aura{Name: "Aura of Protection", RadiusFeet: 10, Enabled: true})

	e.UpdateTokenPosition("rogue", pos(2, 0))
	assert.Equal(t, []string{"rogue"}, e.TokensInAura(id))
	require.Len(t, e.AurasAffectingToken("rogue"), 1)

	e.UpdateTokenPosition("rogue", pos(3, 0))
	assert.Empty(t, e.TokensInAura(id))
	assert.Empty(t, e.AurasAffectingToken("rogue"))
	assert.NotContains(t, e.AffectedTokens(), "rogue")
}

func TestSourceIsNeverAMember(t *testing.T) {
	e := newEngine(t, 5)
	e.UpdateTokenPosition("paladin", pos(5, 5))
	id := e.AddAura("paladin", auras.Aura{RadiusFeet: 30, Enabled: true})
	e.UpdateTokenPosition("fighter", pos(5, 5))

	assert.Equal(t, []string{"fighter"}, e.TokensInAura(id))
	assert.Empty(t, e.AurasAffectingToken("paladin"))
}

func TestRadiusBoundaryIsInclusive(t *testing.T) {
	e := newEngine(t, 5)
	e.UpdateTokenPosition("paladin", pos(5, 5))
	id := e.AddAura("paladin", auras.Aura{RadiusFeet: 10, Enabled: true})

	assert.True(t, e.IsPositionInAura(id, pos(7, 7)))
	assert.False(t, e.IsPositionInAura(id, pos(8, 5)))
	assert.False(t, e.IsPositionInAura("missing", pos(5, 5)))
}

func TestDisabledAurasAffectNothing(t *testing.T) {
	e := newEngine(t, 5)
	e.UpdateTokenPosition("paladin", pos(5, 5))
	e.UpdateTokenPosition("rogue", pos(6, 5))
	id := e.AddAura("paladin", auras.Aura{RadiusFeet: 10})

	assert.Empty(t, e.TokensInAura(id))
	assert.Empty(t, e.AuraCells(id))
	assert.Empty(t, e.ActiveAuras())

	require.True(t, e.ToggleAura(id))
	assert.Equal(t, []string{"rogue"}, e.TokensInAura(id))
	assert.Len(t, e.ActiveAuras(), 1)

	require.True(t, e.SetAuraEnabled(id, false))
	assert.Empty(t, e.AffectedTokens())

	assert.False(t, e.ToggleAura("missing"))
}

func TestAuraCells(t *testing.T) {
	tests := []struct {
		name   string
		shape  auras.Shape
		center grid.Position
		want   int
	}{
		{name: "circle", shape: auras.ShapeCircle, center: pos(5, 5), want: 25},
		{name: "square", shape: auras.ShapeSquare, center: pos(5, 5), want: 25},
		{name: "clipped at the corner", shape: auras.ShapeCircle, center: pos(0, 0), want: 9},
		{name: "default shape", shape: "", center: pos(5, 5), want: 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngine(t, 5)
			e.UpdateTokenPosition("paladin", tt.center)
			id := e.AddAura("paladin", auras.Aura{RadiusFeet: 10, Shape: tt.shape, Enabled: true})

			assert.Len(t, e.AuraCells(id), tt.want)
		})
	}
}

func TestHugeAuraCoversTheMapOnce(t *testing.T) {
	e := newEngine(t, 5)
	e.UpdateTokenPosition("tarrasque", pos(19, 0))
	circle := e.AddAura("tarrasque", auras.Aura{RadiusFeet: 1e12, Enabled: true})
	square := e.AddAura("tarrasque", auras.Aura{RadiusFeet: 1e12, Shape: auras.ShapeSquare, Enabled: true})

	assert.Len(t, e.AuraCells(circle), 400)
	assert.Len(t, e.AuraCells(square), 400)
}

func TestAuraWithoutPositionCoversNothing(t *testing.T) {
	e := newEngine(t, 5)
	id := e.AddAura("ghost", auras.Aura{RadiusFeet: 10, Enabled: true})

	assert.Nil(t, e.AuraCells(id))
	assert.Nil(t, e.TokensInAura(id))
	assert.False(t, e.IsPositionInAura(id, pos(0, 0)))
}

func TestRemoval(t *testing.T) {
	e := newEngine(t, 5)
	e.UpdateTokenPosition("paladin", pos(5, 5))
	e.UpdateTokenPosition("rogue", pos(6, 6))
	first := e.AddAura("paladin", auras.Aura{RadiusFeet: 10, Enabled: true})
	e.AddAura("paladin", auras.Aura{RadiusFeet: 20, Enabled: true})
	require.Len(t, e.AurasAffectingToken("rogue"), 2)

	assert.True(t, e.RemoveAura(first))
	assert.False(t, e.RemoveAura(first))
	assert.Len(t, e.AurasAffectingToken("rogue"), 1)

	assert.Equal(t, 1, e.RemoveTokenAuras("paladin"))
	assert.Equal(t, 0, e.RemoveTokenAuras("paladin"))
	assert.Empty(t, e.AffectedTokens())
	assert.Empty(t, e.TokenAuras("paladin"))
}

func TestRemoveToken(t *testing.T) {
	e := newEngine(t, 5)
	e.UpdateTokenPosition("paladin", pos(5, 5))
	e.UpdateTokenPosition("cleric", pos(6, 5))
	e.UpdateTokenPosition("rogue", pos(7, 5))
	paladin := e.AddAura("paladin", auras.Aura{RadiusFeet: 15, Enabled: true})
	e.AddAura("cleric", auras.Aura{RadiusFeet: 15, Enabled: true})

	e.RemoveToken("cleric")

	assert.Equal(t, []string{"rogue"}, e.TokensInAura(paladin))
	assert.Len(t, e.State().Auras, 1)
	assert.NotContains(t, e.AffectedTokens(), "cleric")
}

func TestUpdateAuraKeepsItsToken(t *testing.T) {
	e := newEngine(t, 5)
	e.UpdateTokenPosition("paladin", pos(5, 5))
	e.UpdateTokenPosition("rogue", pos(8, 5))
	id := e.AddAura("paladin", auras.Aura{Name: "small", RadiusFeet: 5, Enabled: true})
	assert.Empty(t, e.TokensInAura(id))

	require.True(t, e.UpdateAura(auras.Aura{ID: id, TokenID: "rogue", Name: "large", RadiusFeet: 15, Enabled: true}))

	got := e.TokenAuras("paladin")
	require.Len(t, got, 1)
	assert.Equal(t, "large", got[0].Name)
	assert.Equal(t, auras.ShapeCircle, got[0].Shape)
	assert.Equal(t, []string{"rogue"}, e.TokensInAura(id))

	assert.False(t, e.UpdateAura(auras.Aura{ID: "missing"}))
}

func TestEffectsAtPositionNearestFirst(t *testing.T) {
	e := newEngine(t, 5)
	e.UpdateTokenPosition("paladin", pos(0, 0))
	e.UpdateTokenPosition("cleric", pos(5, 0))
	e.AddAura("paladin", auras.Aura{
		Name:       "Aura of Courage",
		RadiusFeet: 30,
		Enabled:    true,
		Effect:     &auras.Effect{Kind: auras.EffectBuff, Description: "immune to fear"},
	})
	e.AddAura("cleric", auras.Aura{
		Name:       "Spirit Guardians",
		RadiusFeet: 15,
		Enabled:    true,
		Effect:     &auras.Effect{Kind: auras.EffectDebuff, Description: "3d8 radiant"},
	})
	e.AddAura("cleric", auras.Aura{Name: "Light", RadiusFeet: 20, Enabled: true})

	got := e.EffectsAtPosition(pos(4, 0))
	require.Len(t, got, 2)
	assert.Equal(t, "Spirit Guardians", got[0].Aura.Name)
	assert.InDelta(t, 5, got[0].DistanceFeet, 1e-9)
	assert.Equal(t, "Aura of Courage", got[1].Aura.Name)
	assert.InDelta(t, 20, got[1].DistanceFeet, 1e-9)

	assert.Empty(t, e.EffectsAtPosition(pos(19, 19)))
}

func TestClearAllAuras(t *testing.T) {
	e := newEngine(t, 5)
	e.UpdateTokenPosition("paladin", pos(5, 5))
	e.UpdateTokenPosition("rogue", pos(6, 5))
	e.AddAura("paladin", auras.Aura{RadiusFeet: 10, Enabled: true})

	e.ClearAllAuras()

	state := e.State()
	assert.Empty(t, state.Auras)
	assert.Empty(t, state.AffectedTokens)
}

func TestOnChange(t *testing.T) {
	e := newEngine(t, 5)
	e.UpdateTokenPosition("paladin", pos(5, 5))

	var states []auras.State
	unsubscribe := e.OnChange(func(s auras.State) { states = append(states, s) })

	id := e.AddAura("paladin", auras.Aura{RadiusFeet: 10, Enabled: true})
	e.UpdateTokenPosition("rogue", pos(6, 6))
	require.Len(t, states, 2)
	assert.Empty(t, states[0].AffectedTokens)
	assert.Equal(t, []string{id}, states[1].AffectedTokens["rogue"])

	unsubscribe()
	unsubscribe()
	e.RemoveAura(id)
	assert.Len(t, states, 2)
}

func TestReadersReturnCopies(t *testing.T) {
	e := newEngine(t, 5)
	e.UpdateTokenPosition("paladin", pos(5, 5))
	e.UpdateTokenPosition("rogue", pos(6, 5))
	e.AddAura("paladin", auras.Aura{
		RadiusFeet: 10,
		Enabled:    true,
		Effect:     &auras.Effect{Kind: auras.EffectBuff, Description: "+1 saves"},
	})

	got := e.TokenAuras("paladin")
	got[0].Effect.Description = "changed"
	assert.Equal(t, "+1 saves", e.TokenAuras("paladin")[0].Effect.Description)

	affected := e.AffectedTokens()
	affected["rogue"][0] = "changed"
	assert.Equal(t, "aura-1", e.AffectedTokens()["rogue"][0])
}
