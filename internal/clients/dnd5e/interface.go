package dnd5e

//go:generate mockgen -destination=mock/mock_client.go -package=mockdnd5e . Client

// Client is the slice of the D&D 5e API the battle map needs: monster stat
// blocks to turn into tokens
type Client interface {
	GetMonster(key string) (*MonsterTemplate, error)
	ListMonstersByCR(minCR, maxCR float64) ([]*MonsterTemplate, error)
}
