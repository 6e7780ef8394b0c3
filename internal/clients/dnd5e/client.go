package dnd5e

import (
	"net/http"
	"strings"

	"github.com/fadedpez/dnd5e-api/clients/dnd5e"
	apiEntities "github.com/fadedpez/dnd5e-api/entities"
	"github.com/sirupsen/logrus"

	dnderr "github.com/KirkDiggler/dnd-tactics/internal/errors"
	"github.com/KirkDiggler/dnd-tactics/internal/logging"
)

// standardCRs are the challenge ratings the API can filter on exactly
var standardCRs = []float64{0, 0.125, 0.25, 0.5, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10,
	11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 21, 22, 23, 24, 25, 26, 27, 28, 29, 30}

// TODO: add context to functions once the API client accepts one
type client struct {
	client dnd5e.Interface
	log    logrus.FieldLogger
}

type Config struct {
	HttpClient *http.Client
	Logger     logrus.FieldLogger
}

func New(cfg *Config) (Client, error) {
	if cfg == nil {
		return nil, dnderr.InvalidArgument("cfg is required")
	}

	dndClient, err := dnd5e.NewDND5eAPI(&dnd5e.DND5eAPIConfig{
		Client: cfg.HttpClient,
	})
	if err != nil {
		return nil, dnderr.Wrap(err, "failed to create dnd5e api client")
	}

	return &client{
		client: dndClient,
		log:    logging.OrDiscard(cfg.Logger),
	}, nil
}

func (c *client) GetMonster(key string) (*MonsterTemplate, error) {
	monster, err := c.client.GetMonster(key)
	if err != nil {
		return nil, dnderr.Wrapf(err, "failed to get monster '%s'", key)
	}
	if monster == nil {
		return nil, dnderr.NotFoundf("monster '%s' not found", key)
	}

	return apiToMonsterTemplate(monster), nil
}

// ListMonstersByCR returns monsters within a challenge rating range. The API
// only filters on exact ratings, so every standard rating in range is queried.
func (c *client) ListMonstersByCR(minCR, maxCR float64) ([]*MonsterTemplate, error) {
	monsters := make([]*MonsterTemplate, 0)
	seen := make(map[string]bool)

	for _, cr := range crValuesInRange(minCR, maxCR) {
		refs, err := c.client.ListMonstersWithFilter(&dnd5e.ListMonstersInput{
			ChallengeRating: &cr,
		})
		if err != nil {
			c.log.WithError(err).WithField("cr", cr).Warn("failed to list monsters")
			continue
		}

		for _, ref := range refs {
			if ref == nil || ref.Key == "" || seen[ref.Key] {
				continue
			}
			monster, err := c.client.GetMonster(ref.Key)
			if err != nil {
				c.log.WithError(err).WithField("monster", ref.Key).Warn("failed to get monster")
				continue
			}
			if monster != nil {
				monsters = append(monsters, apiToMonsterTemplate(monster))
				seen[ref.Key] = true
			}
		}
	}

	return monsters, nil
}

func crValuesInRange(minCR, maxCR float64) []float64 {
	var result []float64
	for _, cr := range standardCRs {
		if cr >= minCR && cr <= maxCR {
			result = append(result, cr)
		}
	}
	return result
}

func apiToMonsterTemplate(input *apiEntities.Monster) *MonsterTemplate {
	if input == nil {
		return nil
	}

	return &MonsterTemplate{
		Key:             input.Key,
		Name:            input.Name,
		Type:            input.Type,
		ArmorClass:      int(input.ArmorClass),
		HitPoints:       int(input.HitPoints),
		HitDice:         input.HitDice,
		ChallengeRating: float64(input.ChallengeRating),
		Actions:         apisToMonsterActions(input.MonsterActions),
	}
}

func apisToMonsterActions(input []*apiEntities.MonsterAction) []*MonsterAction {
	if input == nil {
		return nil
	}

	var monsterActions []*MonsterAction
	for _, ma := range input {
		if ma == nil {
			continue
		}
		monsterActions = append(monsterActions, apiToMonsterAction(ma))
	}

	return monsterActions
}

// apiToMonsterAction keeps the first damage entry; extra riders such as
// poison damage are not modeled
func apiToMonsterAction(input *apiEntities.MonsterAction) *MonsterAction {
	action := &MonsterAction{
		Name:        input.Name,
		Description: input.Description,
		AttackBonus: int(input.AttackBonus),
	}
	for _, d := range input.Damage {
		if d != nil && d.DamageDice != "" {
			action.DamageDice = strings.ReplaceAll(d.DamageDice, " ", "")
			break
		}
	}
	return action
}
