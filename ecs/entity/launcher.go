package entity

import (
	"fmt"

	"github.com/milk9111/discmerge/ecs"
	"github.com/milk9111/discmerge/ecs/component"
)

func NewLauncher(w *ecs.World, x, y float64) (ecs.Entity, error) {
	if w == nil {
		return 0, fmt.Errorf("launcher: world is nil")
	}
	e := w.CreateEntity()
	if err := ecs.Add(w, e, component.LauncherTagComponent, &component.LauncherTag{}); err != nil {
		w.DestroyEntity(e)
		return 0, fmt.Errorf("launcher: add tag: %w", err)
	}
	if err := ecs.Add(w, e, component.TransformComponent, &component.Transform{X: x, Y: y, ScaleX: 1, ScaleY: 1}); err != nil {
		w.DestroyEntity(e)
		return 0, fmt.Errorf("launcher: add transform: %w", err)
	}
	return e, nil
}
