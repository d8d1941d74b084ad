package entity

import (
	"fmt"
	"image/color"

	"github.com/milk9111/discmerge/ecs"
	"github.com/milk9111/discmerge/ecs/component"
)

// NewExplosion leaves a short-lived burst at a merge point. The TTL system
// removes it once lifetime seconds have passed.
func NewExplosion(w *ecs.World, level int, c color.Color, x, y, lifetime float64) (ecs.Entity, error) {
	if w == nil {
		return 0, fmt.Errorf("explosion: world is nil")
	}
	if lifetime <= 0 {
		return 0, fmt.Errorf("explosion: lifetime %v must be positive", lifetime)
	}
	e := w.CreateEntity()
	if err := ecs.Add(w, e, component.ExplosionComponent, &component.Explosion{Level: level, Color: c, Lifetime: lifetime}); err != nil {
		w.DestroyEntity(e)
		return 0, fmt.Errorf("explosion: add explosion: %w", err)
	}
	if err := ecs.Add(w, e, component.TransformComponent, &component.Transform{X: x, Y: y, ScaleX: 1, ScaleY: 1}); err != nil {
		w.DestroyEntity(e)
		return 0, fmt.Errorf("explosion: add transform: %w", err)
	}
	if err := ecs.Add(w, e, component.TTLComponent, &component.TTL{Seconds: lifetime}); err != nil {
		w.DestroyEntity(e)
		return 0, fmt.Errorf("explosion: add ttl: %w", err)
	}
	return e, nil
}
