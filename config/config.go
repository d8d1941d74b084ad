package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Game    GameConfig    `toml:"game"`
	Arena   ArenaConfig   `toml:"arena"`
	Logging LoggingConfig `toml:"logging"`
	Prefabs PrefabsConfig `toml:"prefabs"`
}

// GameConfig holds the gameplay tunables of the merge engine.
type GameConfig struct {
	MaxLevels         int           `toml:"max_levels"`
	MergeCap          int           `toml:"merge_cap"`   // 0 = max_levels-1
	StillSpeed        float64       `toml:"still_speed"` // units/s below which a body counts as resting
	DangerDwell       time.Duration `toml:"danger_dwell"`
	DespawnDuration   time.Duration `toml:"despawn_duration"`
	SpawnDuration     time.Duration `toml:"spawn_duration"`
	ShootImpulse      float64       `toml:"shoot_impulse"`
	ShootCooldown     time.Duration `toml:"shoot_cooldown"`
	NextLevelMin      int           `toml:"next_level_min"`
	NextLevelMax      int           `toml:"next_level_max"`
	MergeImpulse      float64       `toml:"merge_impulse"`
	ScaleBase         float64       `toml:"scale_base"`
	ScaleStep         float64       `toml:"scale_step"`
	MassBase          float64       `toml:"mass_base"`
	MassStep          float64       `toml:"mass_step"`
	BaseRadius        float64       `toml:"base_radius"` // collider radius at scale 1
	ExplosionLifetime time.Duration `toml:"explosion_lifetime"`
	Seed              int64         `toml:"seed"` // 0 = seed from the clock
}

type ArenaConfig struct {
	Width          float64 `toml:"width"`
	Height         float64 `toml:"height"`
	Gravity        float64 `toml:"gravity"`
	WallFriction   float64 `toml:"wall_friction"`
	DiscFriction   float64 `toml:"disc_friction"`
	DiscElasticity float64 `toml:"disc_elasticity"`
	DangerLineY    float64 `toml:"danger_line_y"` // zone spans y in [0, danger_line_y]
	LauncherX      float64 `toml:"launcher_x"`
	LauncherY      float64 `toml:"launcher_y"`
	TimeStep       float64 `toml:"time_step"` // seconds per physics step
	Iterations     uint    `toml:"iterations"`
	WallThickness  float64 `toml:"wall_thickness"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

type PrefabsConfig struct {
	Dir   string `toml:"dir"`
	Watch bool   `toml:"watch"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config %s: %w", path, err)
	}
	return cfg, nil
}

func Default() *Config {
	return &Config{
		Game: GameConfig{
			MaxLevels:         20,
			StillSpeed:        10,
			DangerDwell:       2 * time.Second,
			DespawnDuration:   150 * time.Millisecond,
			SpawnDuration:     400 * time.Millisecond,
			ShootImpulse:      2500,
			ShootCooldown:     500 * time.Millisecond,
			NextLevelMin:      0,
			NextLevelMax:      3,
			MergeImpulse:      200,
			ScaleBase:         0.12,
			ScaleStep:         0.05,
			MassBase:          1,
			MassStep:          0.5,
			BaseRadius:        240,
			ExplosionLifetime: time.Second,
		},
		Arena: ArenaConfig{
			Width:          720,
			Height:         1280,
			Gravity:        980,
			WallFriction:   0.8,
			DiscFriction:   0.6,
			DiscElasticity: 0.1,
			DangerLineY:    220,
			LauncherX:      360,
			LauncherY:      120,
			TimeStep:       1.0 / 60.0,
			Iterations:     20,
			WallThickness:  4,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Prefabs: PrefabsConfig{
			Dir: "prefabs",
		},
	}
}

var ErrInvalidConfig = errors.New("config: invalid value")

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	g := c.Game
	var errs []error
	if g.MaxLevels < 1 {
		errs = append(errs, fmt.Errorf("%w: max_levels %d < 1", ErrInvalidConfig, g.MaxLevels))
	}
	if g.MergeCap < 0 || g.MergeCap > g.MaxLevels-1 {
		errs = append(errs, fmt.Errorf("%w: merge_cap %d outside [0,%d]", ErrInvalidConfig, g.MergeCap, g.MaxLevels-1))
	}
	if g.NextLevelMin < 0 || g.NextLevelMax < g.NextLevelMin || g.NextLevelMax > g.MaxLevels-1 {
		errs = append(errs, fmt.Errorf("%w: next level range [%d,%d]", ErrInvalidConfig, g.NextLevelMin, g.NextLevelMax))
	}
	if g.StillSpeed < 0 || g.DangerDwell <= 0 {
		errs = append(errs, fmt.Errorf("%w: danger monitor needs still_speed >= 0 and danger_dwell > 0", ErrInvalidConfig))
	}
	if g.ScaleBase <= 0 || g.ScaleStep < 0 || g.MassBase <= 0 || g.MassStep < 0 || g.BaseRadius <= 0 {
		errs = append(errs, fmt.Errorf("%w: disc scale/mass must be positive and non-decreasing", ErrInvalidConfig))
	}
	if c.Arena.TimeStep <= 0 || c.Arena.Iterations == 0 {
		errs = append(errs, fmt.Errorf("%w: arena time_step and iterations must be positive", ErrInvalidConfig))
	}
	if c.Arena.Width <= 0 || c.Arena.Height <= 0 {
		errs = append(errs, fmt.Errorf("%w: arena size %vx%v", ErrInvalidConfig, c.Arena.Width, c.Arena.Height))
	}
	return errors.Join(errs...)
}

// MergeCapLevel returns the first level that can no longer merge.
func (g GameConfig) MergeCapLevel() int {
	if g.MergeCap > 0 {
		return g.MergeCap
	}
	return g.MaxLevels - 1
}
