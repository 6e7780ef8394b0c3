//go:build integration
// +build integration

package snapshots_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dnderr "github.com/KirkDiggler/dnd-tactics/internal/errors"
	"github.com/KirkDiggler/dnd-tactics/internal/repositories/snapshots"
	"github.com/KirkDiggler/dnd-tactics/internal/testutils"
)

func TestRedisRepository_Integration(t *testing.T) {
	client := testutils.StartRedisContainer(t)
	repo := snapshots.NewRedisRepository(&snapshots.RedisRepoConfig{
		Client: client,
		TTL:    time.Minute,
	})
	ctx := context.Background()

	t.Run("save and load a snapshot", func(t *testing.T) {
		require.NoError(t, repo.Save(ctx, &snapshots.Snapshot{MapID: "crypt", Fog: testFog(), Battle: testBattle()}))

		got, err := repo.Load(ctx, "crypt")
		require.NoError(t, err)
		assert.Equal(t, testFog(), got.Fog)
		assert.Equal(t, testBattle(), got.Battle)

		ttl, err := client.TTL(ctx, "battlemap:crypt:battle").Result()
		require.NoError(t, err)
		assert.Greater(t, ttl, time.Duration(0))
	})

	t.Run("delete removes both halves", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, "crypt"))

		_, err := repo.GetFog(ctx, "crypt")
		assert.True(t, dnderr.IsNotFound(err))
		_, err = repo.GetBattle(ctx, "crypt")
		assert.True(t, dnderr.IsNotFound(err))
	})
}
