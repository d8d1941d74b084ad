package system

import (
	"errors"
	"image/color"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/discmerge/ecs"
	"github.com/milk9111/discmerge/ecs/component"
	"github.com/milk9111/discmerge/ecs/entity"
	"github.com/milk9111/discmerge/logging"
	"github.com/milk9111/discmerge/prefabs"
	"go.uber.org/zap"
)

// SpawnRequest asks for a new disc at the next safe point.
type SpawnRequest struct {
	Level    int
	Position cp.Vector
	Impulse  cp.Vector
	Merged   bool
}

// MergeCompleted is emitted once per applied merge spawn.
type MergeCompleted struct {
	ID       uint64
	Level    int
	Position cp.Vector
	Color    color.Color
	Entity   ecs.Entity
}

// BodyController is the slice of the physics system the coordinator needs.
type BodyController interface {
	EnsureBody(w *ecs.World, e ecs.Entity) error
	ApplyImpulse(e ecs.Entity, impulse cp.Vector) error
	Freeze(w *ecs.World, e ecs.Entity) error
}

type LifecycleConfig struct {
	Rules             component.DiscRules
	DespawnDuration   float64 // seconds
	SpawnDuration     float64 // seconds
	ExplosionLifetime float64 // seconds
	Friction          float64
	Elasticity        float64
}

type lifecycleOp int

const (
	opDespawn lifecycleOp = iota
	opSpawn
)

type lifecycleCommand struct {
	op      lifecycleOp
	entity  ecs.Entity
	spawn   SpawnRequest
	mergeID uint64
}

// LifecycleSystem is the only place discs are created or retired. Requests
// queue up from anywhere, including collision callbacks, and are applied in
// full when the system runs, after the step and before the next one.
type LifecycleSystem struct {
	cfg     LifecycleConfig
	bodies  BodyController
	palette *prefabs.Palette

	queue   ecs.Queue[lifecycleCommand]
	pending map[ecs.Entity]struct{}

	serial   uint64
	mergeSeq uint64

	listeners []func(MergeCompleted)
	log       *zap.Logger
}

func NewLifecycleSystem(cfg LifecycleConfig, bodies BodyController, palette *prefabs.Palette, log *zap.Logger) *LifecycleSystem {
	return &LifecycleSystem{
		cfg:     cfg,
		bodies:  bodies,
		palette: palette,
		pending: make(map[ecs.Entity]struct{}),
		log:     logging.OrNop(log).Named("lifecycle"),
	}
}

func (s *LifecycleSystem) SetPalette(p *prefabs.Palette) {
	s.palette = p
}

// AddMergeListener registers fn for every MergeCompleted.
func (s *LifecycleSystem) AddMergeListener(fn func(MergeCompleted)) {
	if fn != nil {
		s.listeners = append(s.listeners, fn)
	}
}

// RequestDespawn queues e for retirement. Repeated requests for the same
// entity collapse into one.
func (s *LifecycleSystem) RequestDespawn(e ecs.Entity) {
	if !s.claim(e) {
		return
	}
	s.queue.Push(lifecycleCommand{op: opDespawn, entity: e})
}

func (s *LifecycleSystem) RequestSpawn(req SpawnRequest) {
	s.queue.Push(lifecycleCommand{op: opSpawn, spawn: req})
}

// RequestMerge queues both despawns and the product spawn together so one
// drain applies all of them.
func (s *LifecycleSystem) RequestMerge(a, b ecs.Entity, spawn SpawnRequest) {
	s.mergeSeq++
	id := s.mergeSeq
	batch := make([]lifecycleCommand, 0, 3)
	for _, e := range []ecs.Entity{a, b} {
		if s.claim(e) {
			batch = append(batch, lifecycleCommand{op: opDespawn, entity: e, mergeID: id})
		}
	}
	spawn.Merged = true
	batch = append(batch, lifecycleCommand{op: opSpawn, spawn: spawn, mergeID: id})
	s.queue.Push(batch...)
}

func (s *LifecycleSystem) claim(e ecs.Entity) bool {
	if _, ok := s.pending[e]; ok {
		return false
	}
	s.pending[e] = struct{}{}
	return true
}

// Pending returns the number of queued commands.
func (s *LifecycleSystem) Pending() int {
	return s.queue.Len()
}

// Reset drops every queued command.
func (s *LifecycleSystem) Reset() {
	s.queue.Clear()
	s.pending = make(map[ecs.Entity]struct{})
}

func (s *LifecycleSystem) Update(w *ecs.World) {
	s.Drain(w)
}

// Drain applies every queued command, including ones queued while draining.
func (s *LifecycleSystem) Drain(w *ecs.World) {
	if s == nil || w == nil {
		return
	}
	for e := range s.pending {
		if !w.IsAlive(e) {
			delete(s.pending, e)
		}
	}
	for s.queue.Len() > 0 {
		for _, cmd := range s.queue.Drain() {
			switch cmd.op {
			case opDespawn:
				s.despawn(w, cmd.entity)
			case opSpawn:
				s.spawn(w, cmd)
			}
		}
	}
}

func (s *LifecycleSystem) despawn(w *ecs.World, e ecs.Entity) {
	if !w.IsAlive(e) {
		s.log.Debug("despawn of dead entity", zap.Stringer("entity", e))
		return
	}
	if disc, ok := ecs.Get(w, e, component.DiscComponent); ok {
		disc.MarkDespawning()
	}
	if s.bodies != nil {
		if err := s.bodies.Freeze(w, e); err != nil && !errors.Is(err, ErrNoBody) {
			s.log.Warn("freeze body", zap.Stringer("entity", e), zap.Error(err))
		}
	}

	if s.cfg.DespawnDuration <= 0 {
		w.DestroyEntity(e)
		return
	}

	from := 1.0
	if t, ok := ecs.Get(w, e, component.TransformComponent); ok {
		from = t.ScaleX
	}
	_ = ecs.Add(w, e, component.ScaleTweenComponent, &component.ScaleTween{
		From:          from,
		To:            0,
		Duration:      s.cfg.DespawnDuration,
		Ease:          component.EaseQuadOut,
		DestroyOnDone: true,
	})
}

func (s *LifecycleSystem) spawn(w *ecs.World, cmd lifecycleCommand) {
	req := cmd.spawn
	if err := s.cfg.Rules.Validate(req.Level); err != nil {
		s.log.Warn("spawn dropped", zap.Int("level", req.Level), zap.Error(err))
		return
	}

	s.serial++
	e, err := entity.NewDisc(w, entity.DiscParams{
		Level:      req.Level,
		Serial:     s.serial,
		X:          req.Position.X,
		Y:          req.Position.Y,
		Merged:     req.Merged,
		Friction:   s.cfg.Friction,
		Elasticity: s.cfg.Elasticity,
		Rules:      s.cfg.Rules,
	})
	if err != nil {
		s.log.Warn("spawn dropped", zap.Int("level", req.Level), zap.Error(err))
		return
	}

	if s.bodies != nil {
		if err := s.bodies.EnsureBody(w, e); err != nil {
			s.log.Error("insert body", zap.Stringer("entity", e), zap.Error(err))
			w.DestroyEntity(e)
			return
		}
		if req.Impulse.X != 0 || req.Impulse.Y != 0 {
			if err := s.bodies.ApplyImpulse(e, req.Impulse); err != nil {
				s.log.Warn("apply impulse", zap.Stringer("entity", e), zap.Error(err))
			}
		}
	}

	if !req.Merged {
		return
	}

	if s.cfg.SpawnDuration > 0 {
		if t, ok := ecs.Get(w, e, component.TransformComponent); ok {
			t.ScaleX, t.ScaleY = 0, 0
		}
		_ = ecs.Add(w, e, component.ScaleTweenComponent, &component.ScaleTween{
			From:     0,
			To:       s.cfg.Rules.Scale(req.Level),
			Duration: s.cfg.SpawnDuration,
			Ease:     component.EaseBackOut,
		})
	}

	c := s.palette.Style(req.Level).Color
	if s.cfg.ExplosionLifetime > 0 {
		if _, err := entity.NewExplosion(w, req.Level, c, req.Position.X, req.Position.Y, s.cfg.ExplosionLifetime); err != nil {
			s.log.Warn("explosion", zap.Error(err))
		}
	}

	evt := MergeCompleted{
		ID:       cmd.mergeID,
		Level:    req.Level,
		Position: req.Position,
		Color:    c,
		Entity:   e,
	}
	for _, fn := range s.listeners {
		fn(evt)
	}
}
