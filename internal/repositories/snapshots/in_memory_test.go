package snapshots_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dnderr "github.com/KirkDiggler/dnd-tactics/internal/errors"
	"github.com/KirkDiggler/dnd-tactics/internal/repositories/snapshots"
)

func TestInMemoryRepository_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	repo := snapshots.NewInMemoryRepository()

	t.Run("missing map is not found", func(t *testing.T) {
		_, err := repo.Load(ctx, "crypt")
		require.Error(t, err)
		assert.True(t, dnderr.IsNotFound(err))
	})

	t.Run("save then load", func(t *testing.T) {
		require.NoError(t, repo.Save(ctx, &snapshots.Snapshot{MapID: "crypt", Fog: testFog(), Battle: testBattle()}))

		got, err := repo.Load(ctx, "crypt")
		require.NoError(t, err)
		assert.Equal(t, testFog(), got.Fog)
		assert.Equal(t, testBattle(), got.Battle)
	})

	t.Run("loaded state is a copy", func(t *testing.T) {
		got, err := repo.GetBattle(ctx, "crypt")
		require.NoError(t, err)
		got.Tokens[0].HP = 0

		again, err := repo.GetBattle(ctx, "crypt")
		require.NoError(t, err)
		assert.Equal(t, 12, again.Tokens[0].HP)
	})

	t.Run("halves can be replaced separately", func(t *testing.T) {
		require.NoError(t, repo.SaveFog(ctx, "crypt", nil))

		data, err := repo.GetFog(ctx, "crypt")
		require.NoError(t, err)
		assert.Empty(t, data)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, "crypt"))
		assert.True(t, dnderr.IsNotFound(repo.Delete(ctx, "crypt")))

		_, err := repo.GetFog(ctx, "crypt")
		assert.True(t, dnderr.IsNotFound(err))
	})
}

func TestInMemoryRepository_Validation(t *testing.T) {
	ctx := context.Background()
	repo := snapshots.NewInMemoryRepository()

	assert.True(t, dnderr.IsInvalidArgument(repo.Save(ctx, nil)))
	assert.True(t, dnderr.IsInvalidArgument(repo.SaveFog(ctx, "", testFog())))
	assert.True(t, dnderr.IsInvalidArgument(repo.SaveBattle(ctx, "crypt", nil)))
}

func TestInMemoryRepository_LoadNeedsBothHalves(t *testing.T) {
	ctx := context.Background()
	repo := snapshots.NewInMemoryRepository()
	require.NoError(t, repo.SaveBattle(ctx, "crypt", testBattle()))

	_, err := repo.Load(ctx, "crypt")
	assert.True(t, dnderr.IsNotFound(err))
}
