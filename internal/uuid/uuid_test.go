package uuid_test

import (
	"testing"

	googleuuid "github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KirkDiggler/dnd-tactics/internal/uuid"
)

func TestGoogleUUIDGenerator_New(t *testing.T) {
	gen := uuid.NewGoogleUUIDGenerator()

	first := gen.New()
	second := gen.New()

	_, err := googleuuid.Parse(first)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestSequenceGenerator_New(t *testing.T) {
	gen := uuid.NewSequenceGenerator("evt")

	assert.Equal(t, "evt-1", gen.New())
	assert.Equal(t, "evt-2", gen.New())
	assert.Equal(t, "evt-3", gen.New())
}
