package monster

//go:generate mockgen -destination=mock/mock_service.go -package=mockmonster -source=service.go

import (
	"context"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/KirkDiggler/dnd-tactics/internal/clients/dnd5e"
	"github.com/KirkDiggler/dnd-tactics/internal/dice"
	dnderr "github.com/KirkDiggler/dnd-tactics/internal/errors"
	"github.com/KirkDiggler/dnd-tactics/internal/logging"
	"github.com/KirkDiggler/dnd-tactics/internal/rules"
)

// Difficulty picks the challenge rating band for random monsters
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	DifficultyDeadly Difficulty = "deadly"
)

// Service is the bestiary: stat blocks by key, ready to become tokens
type Service interface {
	// GetMonster fetches a specific monster by key
	GetMonster(ctx context.Context, key string) (*dnd5e.MonsterTemplate, error)

	// GetTokenTemplate returns the battle stats for a monster
	GetTokenTemplate(ctx context.Context, key string) (*dnd5e.TokenTemplate, error)

	// GetMonstersByCR returns monsters within a CR range
	GetMonstersByCR(ctx context.Context, minCR, maxCR float64) ([]*dnd5e.MonsterTemplate, error)

	// GetRandomMonsters returns random monsters for a given difficulty
	GetRandomMonsters(ctx context.Context, difficulty Difficulty, count int) ([]*dnd5e.MonsterTemplate, error)
}

type service struct {
	dndClient dnd5e.Client
	roller    dice.Roller
	log       logrus.FieldLogger

	mu sync.RWMutex
	// Cache of monster templates by key
	monsterCache map[string]*dnd5e.MonsterTemplate
}

// ServiceConfig holds configuration for the service
type ServiceConfig struct {
	// DNDClient is optional; without it only the built in stat blocks exist
	DNDClient dnd5e.Client
	Roller    dice.Roller
	Logger    logrus.FieldLogger
}

// NewService creates a new monster service
func NewService(cfg *ServiceConfig) Service {
	if cfg == nil {
		panic("monster service config is required")
	}

	roller := cfg.Roller
	if roller == nil {
		roller = dice.NewRandomRoller()
	}

	return &service{
		dndClient:    cfg.DNDClient,
		roller:       roller,
		log:          logging.OrDiscard(cfg.Logger),
		monsterCache: make(map[string]*dnd5e.MonsterTemplate),
	}
}

// GetMonster checks the cache, then the API, then the built in stat blocks.
// An API failure for a monster that has a built in stat block is logged and
// the built in one is used.
func (s *service) GetMonster(ctx context.Context, key string) (*dnd5e.MonsterTemplate, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return nil, dnderr.InvalidArgument("monster key is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	cached, ok := s.monsterCache[key]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	monster, err := s.fetch(key)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.monsterCache[key] = monster
	s.mu.Unlock()

	return monster, nil
}

func (s *service) fetch(key string) (*dnd5e.MonsterTemplate, error) {
	fallback, hasFallback := builtinMonster(key)

	if s.dndClient == nil {
		if !hasFallback {
			return nil, dnderr.NotFoundf("monster '%s' not found", key)
		}
		return fallback, nil
	}

	monster, err := s.dndClient.GetMonster(key)
	if err == nil && monster != nil {
		if monster.SpeedFeet == 0 && hasFallback {
			monster.SpeedFeet = fallback.SpeedFeet
			monster.DexterityModifier = fallback.DexterityModifier
		}
		return monster, nil
	}

	if hasFallback {
		s.log.WithError(err).WithField("monster", key).Warn("bestiary lookup failed, using built in stat block")
		return fallback, nil
	}
	if err == nil {
		return nil, dnderr.NotFoundf("monster '%s' not found", key)
	}
	return nil, dnderr.Wrapf(err, "failed to get monster '%s'", key)
}

func (s *service) GetTokenTemplate(ctx context.Context, key string) (*dnd5e.TokenTemplate, error) {
	monster, err := s.GetMonster(ctx, key)
	if err != nil {
		return nil, err
	}
	return monster.TokenTemplate(), nil
}

// GetMonstersByCR returns monsters within a CR range
func (s *service) GetMonstersByCR(ctx context.Context, minCR, maxCR float64) ([]*dnd5e.MonsterTemplate, error) {
	if minCR > maxCR {
		return nil, dnderr.InvalidArgumentf("min CR %.3g is above max CR %.3g", minCR, maxCR)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if s.dndClient != nil {
		monsters, err := s.dndClient.ListMonstersByCR(minCR, maxCR)
		if err != nil {
			s.log.WithError(err).Warn("failed to list monsters by CR, using built in stat blocks")
		} else if len(monsters) > 0 {
			return monsters, nil
		}
	}

	var monsters []*dnd5e.MonsterTemplate
	for _, key := range builtinKeys {
		m, _ := builtinMonster(key)
		if m.ChallengeRating >= minCR && m.ChallengeRating <= maxCR {
			monsters = append(monsters, m)
		}
	}
	return monsters, nil
}

// GetRandomMonsters returns random monsters for a given difficulty
func (s *service) GetRandomMonsters(ctx context.Context, difficulty Difficulty, count int) ([]*dnd5e.MonsterTemplate, error) {
	var minCR, maxCR float64

	switch Difficulty(strings.ToLower(string(difficulty))) {
	case DifficultyEasy:
		minCR, maxCR = 0, 0.5
	case DifficultyMedium:
		minCR, maxCR = 0.25, 1
	case DifficultyHard:
		minCR, maxCR = 0.5, 2
	case DifficultyDeadly:
		minCR, maxCR = 1, 3
	default:
		return nil, dnderr.InvalidArgument("difficulty must be easy, medium, hard, or deadly")
	}
	if count <= 0 {
		return nil, dnderr.InvalidArgument("count must be positive")
	}

	availableMonsters, err := s.GetMonstersByCR(ctx, minCR, maxCR)
	if err != nil {
		return nil, err
	}

	if len(availableMonsters) == 0 {
		return nil, dnderr.NotFound("no monsters found for difficulty")
	}

	result := make([]*dnd5e.MonsterTemplate, 0, count)
	for i := 0; i < count; i++ {
		roll, err := s.roller.Roll(1, len(availableMonsters), 0)
		if err != nil {
			return nil, dnderr.Wrap(err, "failed to pick a monster")
		}
		result = append(result, availableMonsters[roll.Total-1])
	}

	return result, nil
}

// builtinKeys orders the built in stat blocks by challenge rating
var builtinKeys = []string{"goblin", "skeleton", "orc", "dire-wolf", "owlbear"}

// builtinMonster returns a fresh copy of a built in stat block. Dexterity
// modifiers come from the SRD ability scores.
func builtinMonster(key string) (*dnd5e.MonsterTemplate, bool) {
	var m dnd5e.MonsterTemplate
	switch key {
	case "goblin":
		m = dnd5e.MonsterTemplate{
			Name: "Goblin", Type: "humanoid", ArmorClass: 15, HitPoints: 7, HitDice: "2d6",
			ChallengeRating: 0.25, SpeedFeet: 30, DexterityModifier: rules.AbilityModifier(14),
			Actions: []*dnd5e.MonsterAction{{
				Name: "Scimitar", AttackBonus: 4, DamageDice: "1d6+2",
				Description: "Melee Weapon Attack: +4 to hit, reach 5 ft., one target.",
			}},
		}
	case "skeleton":
		m = dnd5e.MonsterTemplate{
			Name: "Skeleton", Type: "undead", ArmorClass: 13, HitPoints: 13, HitDice: "2d8",
			ChallengeRating: 0.25, SpeedFeet: 30, DexterityModifier: rules.AbilityModifier(14),
			Actions: []*dnd5e.MonsterAction{{
				Name: "Shortsword", AttackBonus: 4, DamageDice: "1d6+2",
				Description: "Melee Weapon Attack: +4 to hit, reach 5 ft., one target.",
			}},
		}
	case "orc":
		m = dnd5e.MonsterTemplate{
			Name: "Orc", Type: "humanoid", ArmorClass: 13, HitPoints: 15, HitDice: "2d8",
			ChallengeRating: 0.5, SpeedFeet: 30, DexterityModifier: rules.AbilityModifier(12),
			Actions: []*dnd5e.MonsterAction{{
				Name: "Greataxe", AttackBonus: 5, DamageDice: "1d12+3",
				Description: "Melee Weapon Attack: +5 to hit, reach 5 ft., one target.",
			}},
		}
	case "dire-wolf":
		m = dnd5e.MonsterTemplate{
			Name: "Dire Wolf", Type: "beast", ArmorClass: 14, HitPoints: 37, HitDice: "5d10",
			ChallengeRating: 1, SpeedFeet: 50, DexterityModifier: rules.AbilityModifier(15),
			Actions: []*dnd5e.MonsterAction{{
				Name: "Bite", AttackBonus: 5, DamageDice: "2d6+3",
				Description: "Melee Weapon Attack: +5 to hit, reach 5 ft., one target.",
			}},
		}
	case "owlbear":
		m = dnd5e.MonsterTemplate{
			Name: "Owlbear", Type: "monstrosity", ArmorClass: 13, HitPoints: 59, HitDice: "7d10",
			ChallengeRating: 3, SpeedFeet: 40, DexterityModifier: rules.AbilityModifier(12),
			Actions: []*dnd5e.MonsterAction{{
				Name: "Beak", AttackBonus: 7, DamageDice: "1d10+5",
				Description: "Melee Weapon Attack: +7 to hit, reach 5 ft., one creature.",
			}},
		}
	default:
		return nil, false
	}
	m.Key = key
	return &m, true
}
