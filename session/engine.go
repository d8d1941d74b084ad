package session

import (
	"fmt"
	"math/rand"

	"github.com/milk9111/discmerge/config"
	"github.com/milk9111/discmerge/ecs"
	"github.com/milk9111/discmerge/ecs/component"
	"github.com/milk9111/discmerge/ecs/entity"
	"github.com/milk9111/discmerge/ecs/system"
	"github.com/milk9111/discmerge/prefabs"
	"go.uber.org/zap"
)

// Engine is the assembled simulation: world, systems in frame order, and
// the static arena.
type Engine struct {
	World     *ecs.World
	Physics   *system.PhysicsSystem
	Lifecycle *system.LifecycleSystem
	Merge     *system.MergeResolver
	Zones     *system.DangerZoneSystem
	Scheduler *ecs.Scheduler

	Arena    ecs.Entity
	Zone     ecs.Entity
	Launcher ecs.Entity
}

// Rules derives the disc level table from the game config.
func Rules(g config.GameConfig) component.DiscRules {
	return component.DiscRules{
		MaxLevels:  g.MaxLevels,
		MergeCap:   g.MergeCapLevel(),
		ScaleBase:  g.ScaleBase,
		ScaleStep:  g.ScaleStep,
		MassBase:   g.MassBase,
		MassStep:   g.MassStep,
		BaseRadius: g.BaseRadius,
	}
}

func NewEngine(cfg *config.Config, palette *prefabs.Palette, rng *rand.Rand, log *zap.Logger) (*Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("engine: config is nil")
	}
	dt := cfg.Arena.TimeStep
	rules := Rules(cfg.Game)

	e := &Engine{World: ecs.NewWorld()}
	e.Physics = system.NewPhysicsSystem(cfg.Arena, log)
	e.Lifecycle = system.NewLifecycleSystem(system.LifecycleConfig{
		Rules:             rules,
		DespawnDuration:   cfg.Game.DespawnDuration.Seconds(),
		SpawnDuration:     cfg.Game.SpawnDuration.Seconds(),
		ExplosionLifetime: cfg.Game.ExplosionLifetime.Seconds(),
		Friction:          cfg.Arena.DiscFriction,
		Elasticity:        cfg.Arena.DiscElasticity,
	}, e.Physics, palette, log)
	e.Merge = system.NewMergeResolver(rules, cfg.Game.MergeImpulse, rng, e.Lifecycle, log)
	e.Zones = system.NewDangerZoneSystem(cfg.Game.StillSpeed, cfg.Game.DangerDwell.Seconds(), dt, e.Physics, log)

	e.Physics.AddContactListener(e.Merge)
	e.Physics.AddZoneListener(e.Zones)

	e.Scheduler = ecs.NewScheduler(
		e.Physics,
		e.Lifecycle,
		system.NewTweenSystem(dt),
		e.Zones,
		system.NewTTLSystem(dt),
		system.NewCooldownSystem(dt),
	)

	var err error
	e.Arena, e.Zone, err = entity.NewArena(e.World, cfg.Arena)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	e.Launcher, err = entity.NewLauncher(e.World, cfg.Arena.LauncherX, cfg.Arena.LauncherY)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	return e, nil
}

// Step runs one fixed physics frame.
func (e *Engine) Step() {
	e.Scheduler.Update(e.World)
}

// Clear removes every disc and effect and forgets queued work. The arena
// and launcher stay.
func (e *Engine) Clear() {
	e.Lifecycle.Reset()
	for _, ent := range e.World.Query(component.DiscComponent) {
		e.World.DestroyEntity(ent)
	}
	for _, ent := range e.World.Query(component.ExplosionComponent) {
		e.World.DestroyEntity(ent)
	}
	ecs.Remove(e.World, e.Launcher, component.CooldownComponent)
	e.Zones.Reset(e.World)
}
