//go:build integration
// +build integration

package dnd5e_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KirkDiggler/dnd-tactics/internal/clients/dnd5e"
)

func TestClient_GetMonster_Integration(t *testing.T) {
	// This test requires network access to the D&D 5e API
	client, err := dnd5e.New(&dnd5e.Config{
		HttpClient: http.DefaultClient,
	})
	require.NoError(t, err)

	goblin, err := client.GetMonster("goblin")
	require.NoError(t, err)

	assert.Equal(t, "Goblin", goblin.Name)
	assert.Positive(t, goblin.HitPoints)
	assert.Positive(t, goblin.ArmorClass)

	token := goblin.TokenTemplate()
	assert.NotEmpty(t, token.DamageRoll)
	assert.Positive(t, token.AttackBonus)
}

func TestClient_ListMonstersByCR_Integration(t *testing.T) {
	client, err := dnd5e.New(&dnd5e.Config{
		HttpClient: http.DefaultClient,
	})
	require.NoError(t, err)

	monsters, err := client.ListMonstersByCR(0, 0.25)
	require.NoError(t, err)
	assert.NotEmpty(t, monsters)

	for _, monster := range monsters {
		assert.LessOrEqual(t, monster.ChallengeRating, 0.25)
		assert.GreaterOrEqual(t, monster.ChallengeRating, 0.0)
	}
}
