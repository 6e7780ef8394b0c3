package snapshots

//go:generate mockgen -destination=mock/mock_repository.go -package=mocksnapshots -source=repository.go

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/KirkDiggler/dnd-tactics/internal/battle"
	"github.com/KirkDiggler/dnd-tactics/internal/fog"
)

// Snapshot is everything needed to bring a battle map back: the explored
// fog and the battle itself
type Snapshot struct {
	MapID  string                  `json:"map_id"`
	Fog    map[string]fog.CellData `json:"fog"`
	Battle *battle.State           `json:"battle"`
}

// Repository stores battle map snapshots by map id
type Repository interface {
	// Save writes the fog and battle of a snapshot together
	Save(ctx context.Context, snapshot *Snapshot) error

	// SaveFog replaces the stored fog of a map
	SaveFog(ctx context.Context, mapID string, data map[string]fog.CellData) error

	// GetFog returns the stored fog of a map
	GetFog(ctx context.Context, mapID string) (map[string]fog.CellData, error)

	// SaveBattle replaces the stored battle of a map
	SaveBattle(ctx context.Context, mapID string, state *battle.State) error

	// GetBattle returns the stored battle of a map
	GetBattle(ctx context.Context, mapID string) (*battle.State, error)

	// Load returns both halves of a snapshot. Either half missing is NotFound.
	Load(ctx context.Context, mapID string) (*Snapshot, error)

	// Delete removes both halves of a snapshot
	Delete(ctx context.Context, mapID string) error
}

// load fetches the two halves concurrently
func load(ctx context.Context, r Repository, mapID string) (*Snapshot, error) {
	snapshot := &Snapshot{MapID: mapID}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		data, err := r.GetFog(ctx, mapID)
		if err != nil {
			return err
		}
		snapshot.Fog = data
		return nil
	})
	g.Go(func() error {
		state, err := r.GetBattle(ctx, mapID)
		if err != nil {
			return err
		}
		snapshot.Battle = state
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snapshot, nil
}
