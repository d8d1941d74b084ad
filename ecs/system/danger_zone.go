package system

import (
	"github.com/milk9111/discmerge/ecs"
	"github.com/milk9111/discmerge/ecs/component"
	"github.com/milk9111/discmerge/logging"
	"go.uber.org/zap"
)

// LossMonitor tracks the bodies inside one danger zone and decides when the
// game is lost: some occupant has been nearly still for dwell seconds
// without a break.
type LossMonitor struct {
	stillSpeed float64
	dwell      float64

	state     component.MonitorState
	elapsed   float64
	occupants map[ecs.Entity]struct{}
}

func NewLossMonitor(stillSpeed, dwell float64) *LossMonitor {
	return &LossMonitor{
		stillSpeed: stillSpeed,
		dwell:      dwell,
		occupants:  make(map[ecs.Entity]struct{}),
	}
}

func (m *LossMonitor) Enter(e ecs.Entity) {
	m.occupants[e] = struct{}{}
	if m.state == component.MonitorIdle {
		m.state = component.MonitorWatching
	}
}

func (m *LossMonitor) Exit(e ecs.Entity) {
	delete(m.occupants, e)
	if len(m.occupants) == 0 && m.state != component.MonitorGameOver {
		m.state = component.MonitorIdle
		m.elapsed = 0
	}
}

// Tick advances the monitor by dt. speedOf reports an occupant's speed, or
// false when it is gone or despawning, in which case it is dropped. Tick
// returns true exactly once, on the transition into GameOver.
func (m *LossMonitor) Tick(dt float64, speedOf func(ecs.Entity) (float64, bool)) bool {
	if m.state == component.MonitorGameOver {
		return false
	}

	danger := false
	for e := range m.occupants {
		speed, ok := speedOf(e)
		if !ok {
			delete(m.occupants, e)
			continue
		}
		if speed < m.stillSpeed {
			danger = true
		}
	}

	if len(m.occupants) == 0 {
		m.state = component.MonitorIdle
		m.elapsed = 0
		return false
	}
	if !danger {
		m.state = component.MonitorWatching
		m.elapsed = 0
		return false
	}

	m.state = component.MonitorDanger
	m.elapsed += dt
	if m.elapsed >= m.dwell {
		m.state = component.MonitorGameOver
		return true
	}
	return false
}

func (m *LossMonitor) State() component.MonitorState {
	return m.state
}

func (m *LossMonitor) Elapsed() float64 {
	return m.elapsed
}

func (m *LossMonitor) Occupants() int {
	return len(m.occupants)
}

// Reset forgets every occupant and returns to Idle.
func (m *LossMonitor) Reset() {
	clear(m.occupants)
	m.state = component.MonitorIdle
	m.elapsed = 0
}

// SpeedProbe reports a body's current speed.
type SpeedProbe interface {
	Speed(e ecs.Entity) (float64, bool)
}

// DangerZoneSystem runs one LossMonitor per DangerZone entity, fed by the
// physics sensor callbacks, and mirrors its state onto the component.
type DangerZoneSystem struct {
	stillSpeed float64
	dwell      float64
	dt         float64

	speeds   SpeedProbe
	monitors map[ecs.Entity]*LossMonitor
	world    *ecs.World

	onGameOver []func()
	log        *zap.Logger
}

func NewDangerZoneSystem(stillSpeed, dwell, dt float64, speeds SpeedProbe, log *zap.Logger) *DangerZoneSystem {
	return &DangerZoneSystem{
		stillSpeed: stillSpeed,
		dwell:      dwell,
		dt:         dt,
		speeds:     speeds,
		monitors:   make(map[ecs.Entity]*LossMonitor),
		log:        logging.OrNop(log).Named("danger_zone"),
	}
}

// AddGameOverListener registers fn to run when a zone reaches GameOver.
func (s *DangerZoneSystem) AddGameOverListener(fn func()) {
	if fn != nil {
		s.onGameOver = append(s.onGameOver, fn)
	}
}

func (s *DangerZoneSystem) monitor(zone ecs.Entity) *LossMonitor {
	m := s.monitors[zone]
	if m == nil {
		m = NewLossMonitor(s.stillSpeed, s.dwell)
		s.monitors[zone] = m
	}
	return m
}

func (s *DangerZoneSystem) OnZoneEnter(w *ecs.World, zone, body ecs.Entity) {
	if w == nil || !ecs.Has(w, zone, component.DangerZoneComponent) {
		return
	}
	if disc, ok := ecs.Get(w, body, component.DiscComponent); !ok || disc.Despawning {
		return
	}
	s.monitor(zone).Enter(body)
}

func (s *DangerZoneSystem) OnZoneExit(w *ecs.World, zone, body ecs.Entity) {
	if m := s.monitors[zone]; m != nil {
		m.Exit(body)
	}
}

// Monitor returns the monitor of zone, if any body has entered it.
func (s *DangerZoneSystem) Monitor(zone ecs.Entity) (*LossMonitor, bool) {
	m, ok := s.monitors[zone]
	return m, ok
}

// Reset empties every zone and puts it back to Idle, component included.
func (s *DangerZoneSystem) Reset(w *ecs.World) {
	for _, m := range s.monitors {
		m.Reset()
	}
	if w == nil {
		return
	}
	ecs.ForEach(w, component.DangerZoneComponent, func(_ ecs.Entity, dz *component.DangerZone) {
		dz.State = component.MonitorIdle
		dz.Elapsed = 0
	})
}

func (s *DangerZoneSystem) Update(w *ecs.World) {
	if w == nil {
		return
	}
	s.world = w

	for zone := range s.monitors {
		if !ecs.Has(w, zone, component.DangerZoneComponent) {
			delete(s.monitors, zone)
		}
	}

	ecs.ForEach(w, component.DangerZoneComponent, func(zone ecs.Entity, dz *component.DangerZone) {
		m := s.monitor(zone)
		if m.Tick(s.dt, s.speedOf) {
			s.log.Info("game over", zap.Stringer("zone", zone), zap.Float64("dwell", m.Elapsed()))
			for _, fn := range s.onGameOver {
				fn()
			}
		}
		dz.State = m.State()
		dz.Elapsed = m.Elapsed()
	})
}

func (s *DangerZoneSystem) speedOf(e ecs.Entity) (float64, bool) {
	if s.world == nil || !s.world.IsAlive(e) {
		return 0, false
	}
	disc, ok := ecs.Get(s.world, e, component.DiscComponent)
	if !ok || disc.Despawning {
		return 0, false
	}
	if s.speeds == nil {
		return 0, true
	}
	return s.speeds.Speed(e)
}
