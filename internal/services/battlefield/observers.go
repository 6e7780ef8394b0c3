package battlefield

import (
	"github.com/KirkDiggler/dnd-tactics/internal/auras"
	"github.com/KirkDiggler/dnd-tactics/internal/fog"
	"github.com/KirkDiggler/dnd-tactics/internal/grid"
	"github.com/KirkDiggler/dnd-tactics/internal/lighting"
)

// tokenObserver is a subsystem that keeps its own copy of where tokens are
type tokenObserver interface {
	tokenMoved(tokenID string, pos grid.Position)
	tokenRemoved(tokenID string)
}

type fogObserver struct {
	fog *fog.Map
}

func (o fogObserver) tokenMoved(tokenID string, pos grid.Position) {
	o.fog.UpdateVisionSource(tokenID, pos)
}

func (o fogObserver) tokenRemoved(tokenID string) {
	o.fog.RemoveVisionSource(tokenID)
}

type lightingObserver struct {
	lighting *lighting.Engine
	toPoint  func(grid.Position) lighting.Point
}

func (o lightingObserver) tokenMoved(tokenID string, pos grid.Position) {
	o.lighting.UpdateVisionToken(tokenID, o.toPoint(pos))
}

func (o lightingObserver) tokenRemoved(tokenID string) {
	o.lighting.RemoveVisionToken(tokenID)
}

type auraObserver struct {
	auras *auras.Engine
}

func (o auraObserver) tokenMoved(tokenID string, pos grid.Position) {
	o.auras.UpdateTokenPosition(tokenID, pos)
}

func (o auraObserver) tokenRemoved(tokenID string) {
	o.auras.RemoveToken(tokenID)
}
