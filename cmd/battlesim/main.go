// Command battlesim plays a short scripted skirmish on one battle map and
// prints what happened.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/KirkDiggler/dnd-tactics/internal/actions"
	"github.com/KirkDiggler/dnd-tactics/internal/auras"
	"github.com/KirkDiggler/dnd-tactics/internal/battle"
	"github.com/KirkDiggler/dnd-tactics/internal/clients/dnd5e"
	"github.com/KirkDiggler/dnd-tactics/internal/config"
	dnderr "github.com/KirkDiggler/dnd-tactics/internal/errors"
	"github.com/KirkDiggler/dnd-tactics/internal/grid"
	"github.com/KirkDiggler/dnd-tactics/internal/lighting"
	"github.com/KirkDiggler/dnd-tactics/internal/logging"
	"github.com/KirkDiggler/dnd-tactics/internal/measurements"
	"github.com/KirkDiggler/dnd-tactics/internal/repositories/eventlog"
	"github.com/KirkDiggler/dnd-tactics/internal/repositories/snapshots"
	"github.com/KirkDiggler/dnd-tactics/internal/rules"
	"github.com/KirkDiggler/dnd-tactics/internal/services/battlefield"
	"github.com/KirkDiggler/dnd-tactics/internal/services/monster"
)

const (
	mapID     = "goblin-ambush"
	maxRounds = 5
)

func main() {
	// Load .env file
	envErr := godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.Log)
	if envErr != nil {
		log.Debug("No .env file found")
	}

	ctx := context.Background()
	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).WithField("code", dnderr.GetCode(err)).Fatal("battlesim failed")
	}
}

func run(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	g := grid.New(grid.Config{
		Width:        cfg.Grid.Width,
		Height:       cfg.Grid.Height,
		CellSize:     cfg.Grid.CellSize,
		FeetPerCell:  cfg.Grid.FeetPerCell,
		DiagonalRule: grid.DiagonalRule(cfg.Grid.DiagonalRule),
	})

	repo, closeRepo := snapshotRepository(ctx, cfg, log)
	defer closeRepo()

	var archive battlefield.EventArchive
	if cfg.Archive.Path != "" {
		store, err := eventlog.Open(cfg.Archive.Path)
		if err != nil {
			return err
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.WithError(err).Warn("Failed to close event archive")
			}
		}()
		archive = store
		log.WithField("path", cfg.Archive.Path).Info("Archiving battle events")
	}

	svc := battlefield.NewService(&battlefield.ServiceConfig{
		MapID:              mapID,
		Grid:               g,
		CritPolicy:         actions.CritPolicy(cfg.Rules.CritPolicy),
		InitiativeDie:      cfg.Rules.InitiativeDie,
		LightingWidth:      cfg.Lighting.Width,
		LightingHeight:     cfg.Lighting.Height,
		GlobalIllumination: cfg.Lighting.GlobalIllumination,
		Snapshots:          repo,
		Archive:            archive,
		Monsters:           bestiary(cfg, log),
		Logger:             log,
	})

	if err := setUp(ctx, svc, g); err != nil {
		return err
	}

	ruler := measurements.NewEngine(&measurements.Config{
		Grid:       g,
		ConePolicy: measurements.ConePolicy(cfg.Rules.ConePolicy),
		Logger:     log,
	})
	printOpening(ctx, svc, g, ruler)

	if err := svc.StartBattle(ctx); err != nil {
		return err
	}
	if err := fight(ctx, svc, g); err != nil {
		return err
	}

	printReport(ctx, svc)

	if err := svc.SaveSnapshot(ctx); err != nil {
		return err
	}
	fmt.Printf("\nSnapshot saved for map %s\n", svc.MapID())
	return nil
}

// snapshotRepository uses Redis when REDIS_URL is set and reachable, and
// memory otherwise
func snapshotRepository(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (snapshots.Repository, func()) {
	noop := func() {}
	if cfg.Redis.URL == "" {
		log.Info("No REDIS_URL found, using in-memory snapshots")
		return snapshots.NewInMemoryRepository(), noop
	}

	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		log.WithError(err).Warn("Failed to parse Redis URL, falling back to in-memory snapshots")
		return snapshots.NewInMemoryRepository(), noop
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.WithError(err).Warn("Failed to connect to Redis, falling back to in-memory snapshots")
		_ = client.Close()
		return snapshots.NewInMemoryRepository(), noop
	}

	log.Info("Using Redis for snapshots")
	return snapshots.NewRedis(client), func() {
		if err := client.Close(); err != nil {
			log.WithError(err).Warn("Failed to close Redis client")
		}
	}
}

// bestiary reads stat blocks from the D&D 5e API when enabled. The built in
// stat blocks are always there to fall back on.
func bestiary(cfg *config.Config, log logrus.FieldLogger) monster.Service {
	monsterCfg := &monster.ServiceConfig{Logger: log}
	if cfg.DND5E.Enabled {
		client, err := dnd5e.New(&dnd5e.Config{
			HttpClient: &http.Client{Timeout: cfg.DND5E.Timeout},
			Logger:     log,
		})
		if err != nil {
			log.WithError(err).Warn("Failed to create D&D 5e client, using built in stat blocks")
		} else {
			monsterCfg.DNDClient = client
		}
	}
	return monster.NewService(monsterCfg)
}

func setUp(ctx context.Context, svc battlefield.Service, g *grid.Grid) error {
	heroes := []*battlefield.AddTokenInput{
		{
			ID: "fighter", Name: "Fighter", MaxHP: 28, AC: 18, Speed: 6,
			Position: grid.Position{X: 2, Y: 2}, IsPlayer: true,
			DexterityModifier: 1, AttackBonus: 5, DamageRoll: "1d8+3",
		},
		{
			ID: "rogue", Name: "Rogue", MaxHP: 21, AC: 14, Speed: 6,
			Position: grid.Position{X: 2, Y: 4}, IsPlayer: true,
			DexterityModifier: 4, AttackBonus: 6, DamageRoll: "1d6+4",
			Vision: rules.VisionDarkvision,
		},
	}
	for _, hero := range heroes {
		if _, err := svc.AddToken(ctx, hero); err != nil {
			return err
		}
	}

	ambush := []*battlefield.AddMonsterInput{
		{Key: "goblin", ID: "goblin-1", Name: "Goblin Scout", Position: grid.Position{X: 9, Y: 3}},
		{Key: "goblin", ID: "goblin-2", Name: "Goblin Archer", Position: grid.Position{X: 10, Y: 5}},
	}
	for _, m := range ambush {
		if _, err := svc.AddMonster(ctx, m); err != nil {
			return err
		}
	}

	if _, err := svc.AddAura(ctx, "fighter", auras.Aura{
		Name:       "Rallying Presence",
		RadiusFeet: 10,
		Enabled:    true,
		Effect:     &auras.Effect{Kind: auras.EffectBuff, Description: "allies gain advantage on fear saves"},
	}); err != nil {
		return err
	}

	svc.AddLight(ctx, lighting.Light{
		Position:   lighting.CellCenter(2, 2),
		RadiusFeet: 20,
		Intensity:  1,
		Color:      "#ffaa33",
		Enabled:    true,
	})

	// a ruined wall south of the road with a broken pillar at its end
	svc.AddWall(ctx, lighting.Wall{
		Points:         []lighting.Point{{X: 6, Y: 8}, {X: 6, Y: float64(g.Height())}},
		BlocksLight:    true,
		BlocksMovement: true,
		Kind:           lighting.WallKindWall,
	})
	return svc.SetObstacle(ctx, grid.Position{X: 6, Y: 7})
}

func printOpening(ctx context.Context, svc battlefield.Service, g *grid.Grid, ruler *measurements.Engine) {
	fighter, _ := svc.GetToken(ctx, "fighter")
	scout, _ := svc.GetToken(ctx, "goblin-1")
	line := ruler.MeasureLine(fighter.Position, scout.Position)
	fmt.Printf("Fighter to Goblin Scout: %.0f ft over %d cells\n", line.Distance.Feet, len(line.Cells))

	cone := ruler.CreateTemplate(measurements.TemplateCone, scout.Position, measurements.TemplateParams{
		LengthFeet:       15,
		AngleDegrees:     90,
		DirectionDegrees: 180,
	})
	fmt.Printf("A 15 ft cone from the scout covers %d cells (%d sq ft)\n", cone.Area.Cells, cone.Area.SquareFeet)

	for _, effect := range svc.AuraEffectsAt(ctx, g.WorldToGrid(fighter.Position)) {
		fmt.Printf("Aura at the fighter: %s (%s)\n", effect.Aura.Name, effect.Aura.Effect.Description)
	}
	fmt.Println()
}

// fight plays turns until one side is down or the round limit is reached.
// Every token walks toward the nearest conscious foe and attacks once in
// reach.
func fight(ctx context.Context, svc battlefield.Service, g *grid.Grid) error {
	for {
		state := svc.State(ctx)
		if state.Round > maxRounds || sideDown(state.Tokens, true) || sideDown(state.Tokens, false) {
			return svc.EndBattle(ctx)
		}

		current, err := svc.GetToken(ctx, state.CurrentTokenID)
		if err != nil {
			return err
		}
		if current.IsConscious() {
			if err := takeTurn(ctx, svc, g, current, state.Tokens); err != nil {
				return err
			}
		}

		if _, err := svc.NextTurn(ctx); err != nil {
			return err
		}
	}
}

func takeTurn(ctx context.Context, svc battlefield.Service, g *grid.Grid, token *battle.Token, tokens []battle.Token) error {
	target, ok := nearestFoe(g, token, tokens)
	if !ok {
		return nil
	}

	from := g.WorldToGrid(token.Position)
	to := g.WorldToGrid(target.Position)
	if grid.Chebyshev(from, to) > 1 {
		occupied := make(map[grid.Position]bool, len(tokens))
		for _, t := range tokens {
			if t.ID != token.ID {
				occupied[g.WorldToGrid(t.Position)] = true
			}
		}
		path, found := g.FindPath(from, to, func(p grid.Position) bool { return p != to && occupied[p] })
		if found {
			// stop next to the target, never on it
			steps := min(token.Speed, len(path)-2)
			for _, step := range path[1 : steps+1] {
				if err := svc.MoveToken(ctx, token.ID, step); err != nil {
					fmt.Printf("%s stops short: %v\n", token.Name, err)
					break
				}
			}
		}
	}

	moved, err := svc.GetToken(ctx, token.ID)
	if err != nil {
		return err
	}
	if grid.Chebyshev(g.WorldToGrid(moved.Position), to) > 1 {
		return nil
	}

	result, err := svc.Attack(ctx, token.ID, target.ID)
	if err != nil {
		return err
	}
	fmt.Printf("%s attacks %s: %s\n", token.Name, target.Name, result.Message)
	return nil
}

func nearestFoe(g *grid.Grid, token *battle.Token, tokens []battle.Token) (battle.Token, bool) {
	from := g.WorldToGrid(token.Position)
	best, bestDistance := battle.Token{}, -1
	for _, t := range tokens {
		if t.IsEnemy == token.IsEnemy || !t.IsConscious() {
			continue
		}
		d := g.Distance(from, g.WorldToGrid(t.Position))
		if bestDistance < 0 || d < bestDistance {
			best, bestDistance = t, d
		}
	}
	return best, bestDistance >= 0
}

func sideDown(tokens []battle.Token, enemies bool) bool {
	for _, t := range tokens {
		if t.IsEnemy == enemies && t.IsConscious() {
			return false
		}
	}
	return true
}

func printReport(ctx context.Context, svc battlefield.Service) {
	fmt.Println("\nBattle log:")
	for _, e := range svc.Events(ctx) {
		line := fmt.Sprintf("  [round %d] %s - %s", e.Round, e.Action, e.Result)
		if e.Damage > 0 {
			line += fmt.Sprintf(" (%d damage)", e.Damage)
		}
		fmt.Println(line)
	}

	fmt.Println("\nSurvivors:")
	for _, t := range svc.ListTokens(ctx) {
		fmt.Printf("  %-14s %2d/%2d HP %v\n", t.Name, t.HP, t.MaxHP, t.Conditions)
	}

	stats := svc.FogStatistics(ctx)
	fmt.Printf("\nFog: %d bright, %d dim, %d dark (%.1f%% explored)\n",
		stats.BrightCells, stats.DimCells, stats.DarkCells, stats.ExplorationPercentage)
}
