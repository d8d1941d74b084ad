package entity

import (
	"fmt"

	"github.com/milk9111/discmerge/config"
	"github.com/milk9111/discmerge/ecs"
	"github.com/milk9111/discmerge/ecs/component"
)

// NewArena creates the container walls and the danger zone spanning the
// mouth of the container down to the danger line.
func NewArena(w *ecs.World, cfg config.ArenaConfig) (arena, zone ecs.Entity, err error) {
	if w == nil {
		return 0, 0, fmt.Errorf("arena: world is nil")
	}

	arena = w.CreateEntity()
	if err := ecs.Add(w, arena, component.ArenaBoundsComponent, &component.ArenaBounds{
		Width:     cfg.Width,
		Height:    cfg.Height,
		Thickness: cfg.WallThickness,
		Friction:  cfg.WallFriction,
	}); err != nil {
		w.DestroyEntity(arena)
		return 0, 0, fmt.Errorf("arena: add bounds: %w", err)
	}
	if err := ecs.Add(w, arena, component.WallTagComponent, &component.WallTag{}); err != nil {
		w.DestroyEntity(arena)
		return 0, 0, fmt.Errorf("arena: add wall tag: %w", err)
	}

	zone = w.CreateEntity()
	if err := ecs.Add(w, zone, component.DangerZoneComponent, &component.DangerZone{
		Left:   0,
		Top:    0,
		Right:  cfg.Width,
		Bottom: cfg.DangerLineY,
	}); err != nil {
		w.DestroyEntity(zone)
		w.DestroyEntity(arena)
		return 0, 0, fmt.Errorf("arena: add danger zone: %w", err)
	}
	return arena, zone, nil
}
