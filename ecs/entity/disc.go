package entity

import (
	"fmt"

	"github.com/milk9111/discmerge/ecs"
	"github.com/milk9111/discmerge/ecs/component"
)

type DiscParams struct {
	Level  int
	Serial uint64
	X, Y   float64
	// Scale is the starting visual scale; zero starts at the level scale.
	Scale      float64
	Merged     bool
	Friction   float64
	Elasticity float64
	Rules      component.DiscRules
}

// NewDisc validates the level before creating anything, so a bad request
// never leaves a half-built entity behind.
func NewDisc(w *ecs.World, p DiscParams) (ecs.Entity, error) {
	if w == nil {
		return 0, fmt.Errorf("disc: world is nil")
	}
	disc, err := component.NewDisc(p.Level, p.Serial, p.Rules)
	if err != nil {
		return 0, fmt.Errorf("disc: %w", err)
	}
	disc.Merged = p.Merged

	scale := p.Scale
	if scale == 0 {
		scale = p.Rules.Scale(p.Level)
	}

	e := w.CreateEntity()
	if err := ecs.Add(w, e, component.DiscComponent, &disc); err != nil {
		w.DestroyEntity(e)
		return 0, fmt.Errorf("disc: add disc: %w", err)
	}
	if err := ecs.Add(w, e, component.TransformComponent, &component.Transform{
		X:      p.X,
		Y:      p.Y,
		ScaleX: scale,
		ScaleY: scale,
	}); err != nil {
		w.DestroyEntity(e)
		return 0, fmt.Errorf("disc: add transform: %w", err)
	}
	if err := ecs.Add(w, e, component.PhysicsBodyComponent, &component.PhysicsBody{
		Radius:     p.Rules.Radius(p.Level),
		Mass:       p.Rules.Mass(p.Level),
		Friction:   p.Friction,
		Elasticity: p.Elasticity,
	}); err != nil {
		w.DestroyEntity(e)
		return 0, fmt.Errorf("disc: add physics body: %w", err)
	}
	return e, nil
}
