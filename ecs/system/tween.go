package system

import (
	"github.com/milk9111/discmerge/ecs"
	"github.com/milk9111/discmerge/ecs/component"
)

// TweenSystem advances scale tweens and writes the result to the transform.
// A finished tween is removed, or takes its entity with it when
// DestroyOnDone is set.
type TweenSystem struct {
	dt float64
}

func NewTweenSystem(dt float64) *TweenSystem {
	return &TweenSystem{dt: dt}
}

func (s *TweenSystem) Update(w *ecs.World) {
	if w == nil {
		return
	}
	ecs.ForEach(w, component.ScaleTweenComponent, func(e ecs.Entity, tw *component.ScaleTween) {
		tw.Elapsed += s.dt
		if t, ok := ecs.Get(w, e, component.TransformComponent); ok {
			v := tw.Value()
			t.ScaleX, t.ScaleY = v, v
		}
		if !tw.Done() {
			return
		}
		if tw.DestroyOnDone {
			w.DestroyEntity(e)
			return
		}
		ecs.Remove(w, e, component.ScaleTweenComponent)
	})
}
