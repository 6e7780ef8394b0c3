package snapshots

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/KirkDiggler/dnd-tactics/internal/battle"
	dnderr "github.com/KirkDiggler/dnd-tactics/internal/errors"
	"github.com/KirkDiggler/dnd-tactics/internal/fog"
)

const (
	fogKeyPattern    = "battlemap:%s:fog"
	battleKeyPattern = "battlemap:%s:battle"

	// TTL for snapshots (30 days)
	snapshotTTL = 30 * 24 * time.Hour
)

// RedisRepoConfig holds configuration for the Redis repository
type RedisRepoConfig struct {
	Client redis.UniversalClient
	// TTL of 0 uses the 30 day default; a negative TTL keeps snapshots forever
	TTL time.Duration
}

type redisRepository struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisRepository creates a new Redis-backed snapshot repository
func NewRedisRepository(cfg *RedisRepoConfig) Repository {
	if cfg == nil || cfg.Client == nil {
		panic("redis client is required")
	}

	ttl := cfg.TTL
	switch {
	case ttl == 0:
		ttl = snapshotTTL
	case ttl < 0:
		ttl = 0
	}

	return &redisRepository{
		client: cfg.Client,
		ttl:    ttl,
	}
}

// NewRedis creates a Redis-backed snapshot repository with the default TTL
func NewRedis(client redis.UniversalClient) Repository {
	return NewRedisRepository(&RedisRepoConfig{Client: client})
}

func fogKey(mapID string) string    { return fmt.Sprintf(fogKeyPattern, mapID) }
func battleKey(mapID string) string { return fmt.Sprintf(battleKeyPattern, mapID) }

// Save writes both halves in one transaction
func (r *redisRepository) Save(ctx context.Context, snapshot *Snapshot) error {
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

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, fogKey(snapshot.MapID), string(fogData), r.ttl)
	pipe.Set(ctx, battleKey(snapshot.MapID), string(battleData), r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return dnderr.Wrapf(err, "failed to save snapshot for map %s", snapshot.MapID)
	}

	return nil
}

func (r *redisRepository) SaveFog(ctx context.Context, mapID string, data map[string]fog.CellData) error {
	if mapID == "" {
		return dnderr.InvalidArgument("map ID cannot be empty")
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return dnderr.Wrap(err, "failed to serialize fog")
	}

	if err := r.client.Set(ctx, fogKey(mapID), string(raw), r.ttl).Err(); err != nil {
		return dnderr.Wrapf(err, "failed to save fog for map %s", mapID)
	}
	return nil
}

func (r *redisRepository) GetFog(ctx context.Context, mapID string) (map[string]fog.CellData, error) {
	raw, err := r.get(ctx, fogKey(mapID), "fog", mapID)
	if err != nil {
		return nil, err
	}

	var data map[string]fog.CellData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, dnderr.Wrap(err, "failed to deserialize fog")
	}
	return data, nil
}

func (r *redisRepository) SaveBattle(ctx context.Context, mapID string, state *battle.State) error {
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

	if err := r.client.Set(ctx, battleKey(mapID), string(raw), r.ttl).Err(); err != nil {
		return dnderr.Wrapf(err, "failed to save battle for map %s", mapID)
	}
	return nil
}

func (r *redisRepository) GetBattle(ctx context.Context, mapID string) (*battle.State, error) {
	raw, err := r.get(ctx, battleKey(mapID), "battle", mapID)
	if err != nil {
		return nil, err
	}

	var state battle.State
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, dnderr.Wrap(err, "failed to deserialize battle")
	}
	return &state, nil
}

func (r *redisRepository) Load(ctx context.Context, mapID string) (*Snapshot, error) {
	return load(ctx, r, mapID)
}

func (r *redisRepository) Delete(ctx context.Context, mapID string) error {
	deleted, err := r.client.Del(ctx, fogKey(mapID), battleKey(mapID)).Result()
	if err != nil {
		return dnderr.Wrapf(err, "failed to delete snapshot for map %s", mapID)
	}
	if deleted == 0 {
		return dnderr.NotFoundf("snapshot not found for map %s", mapID)
	}
	return nil
}

func (r *redisRepository) get(ctx context.Context, key, what, mapID string) ([]byte, error) {
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, dnderr.NotFoundf("%s not found for map %s", what, mapID)
		}
		return nil, dnderr.Wrapf(err, "failed to get %s for map %s", what, mapID)
	}
	return raw, nil
}
