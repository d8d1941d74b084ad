package system

import (
	"github.com/milk9111/discmerge/ecs"
	"github.com/milk9111/discmerge/ecs/component"
)

// CooldownSystem counts cooldowns down by dt and removes them once they
// finish, which is what re-enables the gated action.
type CooldownSystem struct {
	dt float64
}

func NewCooldownSystem(dt float64) *CooldownSystem {
	return &CooldownSystem{dt: dt}
}

func (s *CooldownSystem) Update(w *ecs.World) {
	if w == nil {
		return
	}

	ecs.ForEach(w, component.CooldownComponent, func(e ecs.Entity, cd *component.Cooldown) {
		if cd.Seconds > 0 {
			cd.Seconds -= s.dt
		}
		if cd.Seconds <= 0 {
			ecs.Remove(w, e, component.CooldownComponent)
		}
	})
}
