package system

import (
	"testing"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/discmerge/ecs"
	"github.com/milk9111/discmerge/ecs/component"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

type fakeBodies struct {
	ensured  []ecs.Entity
	frozen   map[ecs.Entity]int
	impulses map[ecs.Entity]cp.Vector
}

func newFakeBodies() *fakeBodies {
	return &fakeBodies{frozen: map[ecs.Entity]int{}, impulses: map[ecs.Entity]cp.Vector{}}
}

func (f *fakeBodies) EnsureBody(_ *ecs.World, e ecs.Entity) error {
	f.ensured = append(f.ensured, e)
	return nil
}

func (f *fakeBodies) ApplyImpulse(e ecs.Entity, impulse cp.Vector) error {
	f.impulses[e] = impulse
	return nil
}

func (f *fakeBodies) Freeze(_ *ecs.World, e ecs.Entity) error {
	f.frozen[e]++
	return nil
}

func testLifecycleConfig() LifecycleConfig {
	return LifecycleConfig{
		Rules:             testRules(),
		DespawnDuration:   0.15,
		SpawnDuration:     0.4,
		ExplosionLifetime: 1,
	}
}

func TestDespawnIsIdempotent(t *testing.T) {
	w := ecs.NewWorld()
	bodies := newFakeBodies()
	s := NewLifecycleSystem(testLifecycleConfig(), bodies, nil, zaptest.NewLogger(t))
	e := newDisc(t, w, 3, 1, 0, 0)
	tr, _ := ecs.Get(w, e, component.TransformComponent)
	tr.ScaleX, tr.ScaleY = 0.2, 0.2

	s.RequestDespawn(e)
	s.RequestDespawn(e)
	if s.Pending() != 1 {
		t.Fatalf("duplicate despawn queued: %d", s.Pending())
	}
	s.Drain(w)
	s.RequestDespawn(e)
	s.Drain(w)

	if bodies.frozen[e] != 1 {
		t.Fatalf("body frozen %d times", bodies.frozen[e])
	}
	d, _ := ecs.Get(w, e, component.DiscComponent)
	if !d.Despawning {
		t.Fatalf("disc not flagged")
	}
	tw, ok := ecs.Get(w, e, component.ScaleTweenComponent)
	if !ok {
		t.Fatalf("shrink tween missing")
	}
	if tw.From != 0.2 || tw.To != 0 || !tw.DestroyOnDone || tw.Ease != component.EaseQuadOut {
		t.Fatalf("unexpected shrink %+v", tw)
	}

	tween := NewTweenSystem(0.05)
	for i := 0; i < 4; i++ {
		tween.Update(w)
	}
	if w.IsAlive(e) {
		t.Fatalf("entity should be destroyed once the shrink ends")
	}
}

func TestDespawnWithoutDurationDestroysAtOnce(t *testing.T) {
	w := ecs.NewWorld()
	cfg := testLifecycleConfig()
	cfg.DespawnDuration = 0
	s := NewLifecycleSystem(cfg, newFakeBodies(), nil, zaptest.NewLogger(t))
	e := newDisc(t, w, 0, 1, 0, 0)
	s.RequestDespawn(e)
	s.Drain(w)
	if w.IsAlive(e) {
		t.Fatalf("entity should be gone")
	}
}

func TestInvalidLevelIsDroppedAndLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	w := ecs.NewWorld()
	bodies := newFakeBodies()
	s := NewLifecycleSystem(testLifecycleConfig(), bodies, nil, zap.New(core))

	s.RequestSpawn(SpawnRequest{Level: 20})
	s.RequestSpawn(SpawnRequest{Level: -3})
	s.RequestSpawn(SpawnRequest{Level: 0, Impulse: cp.Vector{X: 1}})
	s.Drain(w)

	if n := logs.FilterMessage("spawn dropped").Len(); n != 2 {
		t.Fatalf("expected 2 dropped spawns logged, got %d", n)
	}
	if w.Len() != 1 || len(bodies.ensured) != 1 {
		t.Fatalf("only the valid spawn should exist: entities=%d bodies=%d", w.Len(), len(bodies.ensured))
	}
	if _, ok := bodies.impulses[bodies.ensured[0]]; !ok {
		t.Fatalf("impulse not applied after insertion")
	}
}

func TestMergeBatchAppliedTogether(t *testing.T) {
	w := ecs.NewWorld()
	bodies := newFakeBodies()
	s := NewLifecycleSystem(testLifecycleConfig(), bodies, nil, zaptest.NewLogger(t))
	var events []MergeCompleted
	s.AddMergeListener(func(evt MergeCompleted) { events = append(events, evt) })

	a := newDisc(t, w, 4, 1, 0, 0)
	b := newDisc(t, w, 4, 2, 10, 0)
	c := newDisc(t, w, 4, 3, 100, 0)
	d := newDisc(t, w, 4, 4, 110, 0)
	s.RequestMerge(a, b, SpawnRequest{Level: 5, Position: cp.Vector{X: 5}})
	s.RequestMerge(c, d, SpawnRequest{Level: 5, Position: cp.Vector{X: 105}})
	s.Drain(w)

	if s.Pending() != 0 {
		t.Fatalf("queue not drained")
	}
	for _, e := range []ecs.Entity{a, b, c, d} {
		if bodies.frozen[e] != 1 {
			t.Fatalf("%s frozen %d times", e, bodies.frozen[e])
		}
	}
	if len(events) != 2 || events[0].ID == events[1].ID {
		t.Fatalf("each merge batch gets its own event: %+v", events)
	}

	product := events[0].Entity
	disc, ok := ecs.Get(w, product, component.DiscComponent)
	if !ok || disc.Level != 5 || !disc.Merged {
		t.Fatalf("unexpected product %+v", disc)
	}
	tw, ok := ecs.Get(w, product, component.ScaleTweenComponent)
	if !ok || tw.From != 0 || tw.To != testRules().Scale(5) || tw.Ease != component.EaseBackOut {
		t.Fatalf("grow tween missing or wrong: %+v", tw)
	}
	pb, _ := ecs.Get(w, product, component.PhysicsBodyComponent)
	if pb.Radius != testRules().Radius(5) {
		t.Fatalf("collider must use the level radius from creation, got %v", pb.Radius)
	}
	if len(w.Query(component.ExplosionComponent)) != 2 {
		t.Fatalf("expected an explosion per merge")
	}
}

func TestResetClearsQueue(t *testing.T) {
	w := ecs.NewWorld()
	s := NewLifecycleSystem(testLifecycleConfig(), newFakeBodies(), nil, zaptest.NewLogger(t))
	e := newDisc(t, w, 0, 1, 0, 0)
	s.RequestDespawn(e)
	s.RequestSpawn(SpawnRequest{Level: 1})
	s.Reset()
	s.Drain(w)
	if w.Len() != 1 {
		t.Fatalf("reset should drop queued work")
	}
	s.RequestDespawn(e)
	if s.Pending() != 1 {
		t.Fatalf("reset should forget claimed entities")
	}
}
