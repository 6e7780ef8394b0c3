package snapshots

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/KirkDiggler/dnd-tactics/internal/battle"
	dnderr "github.com/KirkDiggler/dnd-tactics/internal/errors"
	"github.com/KirkDiggler/dnd-tactics/internal/fog"
)

// inMemoryRepository keeps the serialized form so callers never share
// memory with the store
type inMemoryRepository struct {
	mu      sync.RWMutex
	fog     map[string][]byte
	battles map[string][]byte
}

// NewInMemoryRepository creates a new in-memory snapshot repository
func NewInMemoryRepository() Repository {
	return &inMemoryRepository{
		fog:     make(map[string][]byte),
		battles: make(map[string][]byte),
	}
}

func (r *inMemoryRepository) Save(ctx context.Context, snapshot *Snapshot) error {
	if snapshot == nil {
		return dnderr.InvalidArgument("snapshot cannot be nil")
	}
	if snapshot.MapID == "" {
		return dnderr.InvalidArgument("map ID cannot be empty")
	}
	if snapshot.Battle == nil {
		return dnderr.InvalidArgument("snapshot battle cannot be nil")
	}

	fogData, err := json.Marshal(snapshot.Fog)
	if err != nil {
		return dnderr.Wrap(err, "failed to serialize fog")
	}
	battleData, err := json.Marshal(snapshot.Battle)
	if err != nil {
		return dnderr.Wrap(err, "failed to serialize battle")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.fog[snapshot.MapID] = fogData
	r.battles[snapshot.MapID] = battleData
	return nil
}

func (r *inMemoryRepository) SaveFog(ctx context.Context, mapID string, data map[string]fog.CellData) error {
	if mapID == "" {
		return dnderr.InvalidArgument("map ID cannot be empty")
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return dnderr.Wrap(err, "failed to serialize fog")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.fog[mapID] = raw
	return nil
}

func (r *inMemoryRepository) GetFog(ctx context.Context, mapID string) (map[string]fog.CellData, error) {
	r.mu.RLock()
	raw, exists := r.fog[mapID]
	r.mu.RUnlock()
	if !exists {
		return nil, dnderr.NotFoundf("fog not found for map %s", mapID)
	}

	var data map[string]fog.CellData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, dnderr.Wrap(err, "failed to deserialize fog")
	}
	return data, nil
}

func (r *inMemoryRepository) SaveBattle(ctx context.Context, mapID string, state *battle.State) error {
	if mapID == "" {
		return dnderr.InvalidArgument("map ID cannot be empty")
	}
	if state == nil {
		return dnderr.InvalidArgument("battle state cannot be nil")
	}

	raw, err := json.Marshal(state)
	if err != nil {
		return dnderr.Wrap(err, "failed to serialize battle")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.battles[mapID] = raw
	return nil
}

func (r *inMemoryRepository) GetBattle(ctx context.Context, mapID string) (*battle.State, error) {
	r.mu.RLock()
	raw, exists := r.battles[mapID]
	r.mu.RUnlock()
	if !exists {
		return nil, dnderr.NotFoundf("battle not found for map %s", mapID)
	}

	var state battle.State
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, dnderr.Wrap(err, "failed to deserialize battle")
	}
	return &state, nil
}

func (r *inMemoryRepository) Load(ctx context.Context, mapID string) (*Snapshot, error) {
	return load(ctx, r, mapID)
}

func (r *inMemoryRepository) Delete(ctx context.Context, mapID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, hasFog := r.fog[mapID]
	_, hasBattle := r.battles[mapID]
	if !hasFog && !hasBattle {
		return dnderr.NotFoundf("snapshot not found for map %s", mapID)
	}

	delete(r.fog, mapID)
	delete(r.battles, mapID)
	return nil
}
