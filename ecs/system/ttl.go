package system

import (
	"github.com/milk9111/discmerge/ecs"
	"github.com/milk9111/discmerge/ecs/component"
)

// TTLSystem counts TTL components down by dt and destroys entities whose
// TTL reaches zero.
type TTLSystem struct {
	dt float64
}

func NewTTLSystem(dt float64) *TTLSystem {
	return &TTLSystem{dt: dt}
}

func (s *TTLSystem) Update(w *ecs.World) {
	if w == nil {
		return
	}

	ecs.ForEach(w, component.TTLComponent, func(e ecs.Entity, ttl *component.TTL) {
		ttl.Seconds -= s.dt
		if ttl.Seconds > 0 {
			return
		}
		w.DestroyEntity(e)
	})
}
