package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/KirkDiggler/dnd-tactics/internal/logging"
)

// Config holds all configuration for the application
type Config struct {
	Grid     GridConfig
	Rules    RulesConfig
	Lighting LightingConfig
	Redis    RedisConfig
	Archive  ArchiveConfig
	DND5E    DND5EConfig
	Log      logging.Config
}

// GridConfig describes the battle map
type GridConfig struct {
	Width       int     `env:"GRID_WIDTH" envDefault:"20"`
	Height      int     `env:"GRID_HEIGHT" envDefault:"20"`
	CellSize    float64 `env:"GRID_CELL_SIZE" envDefault:"1"`
	FeetPerCell int     `env:"GRID_FEET_PER_CELL" envDefault:"5"`
	// DiagonalRule is "5-10-5" (every diagonal is one cell) or "euclid"
	DiagonalRule string `env:"GRID_DIAGONAL_RULE" envDefault:"5-10-5"`
}

// RulesConfig holds the rule switches that have more than one accepted reading
type RulesConfig struct {
	InitiativeDie int    `env:"RULES_INITIATIVE_DIE" envDefault:"20"`
	CritPolicy    string `env:"RULES_CRIT_POLICY" envDefault:"roll_twice"`
	ConePolicy    string `env:"RULES_CONE_POLICY" envDefault:"approximate"`
}

// LightingConfig holds lighting raster settings
type LightingConfig struct {
	// Width and Height size the raster; zero matches the grid
	Width              int     `env:"LIGHTING_WIDTH" envDefault:"0"`
	Height             int     `env:"LIGHTING_HEIGHT" envDefault:"0"`
	GlobalIllumination float64 `env:"LIGHTING_GLOBAL" envDefault:"0.1"`
}

// RedisConfig holds Redis-specific configuration.
// An empty URL disables Redis and snapshots stay in memory.
type RedisConfig struct {
	URL      string `env:"REDIS_URL"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// ArchiveConfig holds the battle event archive settings.
// An empty path disables archiving.
type ArchiveConfig struct {
	Path string `env:"ARCHIVE_PATH"`
}

// DND5EConfig holds D&D 5e API configuration
type DND5EConfig struct {
	Enabled bool          `env:"DND5E_ENABLED" envDefault:"false"`
	Timeout time.Duration `env:"DND5E_TIMEOUT" envDefault:"10s"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the values Load cannot express as defaults
func (c *Config) Validate() error {
	if c.Grid.Width <= 0 || c.Grid.Height <= 0 {
		return fmt.Errorf("grid dimensions must be positive, got %dx%d", c.Grid.Width, c.Grid.Height)
	}
	if c.Grid.CellSize <= 0 {
		return fmt.Errorf("GRID_CELL_SIZE must be positive")
	}
	if c.Grid.FeetPerCell <= 0 {
		return fmt.Errorf("GRID_FEET_PER_CELL must be positive")
	}
	switch c.Grid.DiagonalRule {
	case "5-10-5", "euclid":
	default:
		return fmt.Errorf("unknown GRID_DIAGONAL_RULE %q", c.Grid.DiagonalRule)
	}
	if c.Rules.InitiativeDie < 2 {
		return fmt.Errorf("RULES_INITIATIVE_DIE must be at least 2")
	}
	switch c.Rules.CritPolicy {
	case "roll_twice", "double_dice":
	default:
		return fmt.Errorf("unknown RULES_CRIT_POLICY %q", c.Rules.CritPolicy)
	}
	switch c.Rules.ConePolicy {
	case "approximate", "exact":
	default:
		return fmt.Errorf("unknown RULES_CONE_POLICY %q", c.Rules.ConePolicy)
	}
	if c.Lighting.Width < 0 || c.Lighting.Height < 0 {
		return fmt.Errorf("lighting dimensions cannot be negative")
	}
	if c.DND5E.Timeout <= 0 {
		return fmt.Errorf("DND5E_TIMEOUT must be positive")
	}

	return nil
}
