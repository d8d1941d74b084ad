package system

import (
	"math"
	"math/rand"
	"testing"

	"github.com/milk9111/discmerge/ecs"
	"github.com/milk9111/discmerge/ecs/component"
	"github.com/milk9111/discmerge/ecs/entity"
	"go.uber.org/zap/zaptest"
)

type mergeCall struct {
	a, b  ecs.Entity
	spawn SpawnRequest
}

type recordingQueue struct {
	calls []mergeCall
}

func (q *recordingQueue) RequestMerge(a, b ecs.Entity, spawn SpawnRequest) {
	q.calls = append(q.calls, mergeCall{a: a, b: b, spawn: spawn})
}

func testRules() component.DiscRules {
	return component.DiscRules{
		MaxLevels:  20,
		MergeCap:   19,
		ScaleBase:  0.12,
		ScaleStep:  0.05,
		MassBase:   1,
		MassStep:   0.5,
		BaseRadius: 240,
	}
}

func newDisc(t *testing.T, w *ecs.World, level int, serial uint64, x, y float64) ecs.Entity {
	t.Helper()
	e, err := entity.NewDisc(w, entity.DiscParams{Level: level, Serial: serial, X: x, Y: y, Rules: testRules()})
	if err != nil {
		t.Fatalf("NewDisc: %v", err)
	}
	return e
}

func newResolver(t *testing.T, q MergeQueue) *MergeResolver {
	return NewMergeResolver(testRules(), 200, rand.New(rand.NewSource(1)), q, zaptest.NewLogger(t))
}

func TestResolverDuplicateNotifications(t *testing.T) {
	w := ecs.NewWorld()
	q := &recordingQueue{}
	r := newResolver(t, q)
	a := newDisc(t, w, 2, 1, 0, 0)
	b := newDisc(t, w, 2, 2, 10, 20)

	r.OnContact(w, b, a)
	if len(q.calls) != 0 {
		t.Fatalf("higher serial must not initiate")
	}
	r.OnContact(w, a, b)
	r.OnContact(w, b, a)
	r.OnContact(w, a, b)
	if len(q.calls) != 1 {
		t.Fatalf("expected one merge, got %d", len(q.calls))
	}

	call := q.calls[0]
	if call.a != a || call.b != b {
		t.Fatalf("wrong pair %v %v", call.a, call.b)
	}
	if call.spawn.Level != 3 || !call.spawn.Merged {
		t.Fatalf("unexpected spawn %+v", call.spawn)
	}
	if call.spawn.Position.X != 5 || call.spawn.Position.Y != 10 {
		t.Fatalf("spawn not at midpoint: %v", call.spawn.Position)
	}
	if got := call.spawn.Impulse.Length(); math.Abs(got-200) > 1e-9 {
		t.Fatalf("impulse magnitude = %v", got)
	}
	for _, e := range []ecs.Entity{a, b} {
		d, _ := ecs.Get(w, e, component.DiscComponent)
		if !d.Despawning {
			t.Fatalf("%s should be flagged despawning", e)
		}
	}
}

func TestResolverIgnores(t *testing.T) {
	cases := []struct {
		name  string
		setup func(t *testing.T, w *ecs.World) (ecs.Entity, ecs.Entity)
	}{
		{"different_levels", func(t *testing.T, w *ecs.World) (ecs.Entity, ecs.Entity) {
			return newDisc(t, w, 1, 1, 0, 0), newDisc(t, w, 2, 2, 0, 0)
		}},
		{"terminal", func(t *testing.T, w *ecs.World) (ecs.Entity, ecs.Entity) {
			return newDisc(t, w, 19, 1, 0, 0), newDisc(t, w, 19, 2, 0, 0)
		}},
		{"despawning", func(t *testing.T, w *ecs.World) (ecs.Entity, ecs.Entity) {
			a, b := newDisc(t, w, 0, 1, 0, 0), newDisc(t, w, 0, 2, 0, 0)
			d, _ := ecs.Get(w, b, component.DiscComponent)
			d.MarkDespawning()
			return a, b
		}},
		{"dead", func(t *testing.T, w *ecs.World) (ecs.Entity, ecs.Entity) {
			a, b := newDisc(t, w, 0, 1, 0, 0), newDisc(t, w, 0, 2, 0, 0)
			w.DestroyEntity(b)
			return a, b
		}},
		{"not_a_disc", func(t *testing.T, w *ecs.World) (ecs.Entity, ecs.Entity) {
			return newDisc(t, w, 0, 1, 0, 0), w.CreateEntity()
		}},
		{"self", func(t *testing.T, w *ecs.World) (ecs.Entity, ecs.Entity) {
			a := newDisc(t, w, 0, 1, 0, 0)
			return a, a
		}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w := ecs.NewWorld()
			q := &recordingQueue{}
			r := newResolver(t, q)
			a, b := c.setup(t, w)
			r.OnContact(w, a, b)
			r.OnContact(w, b, a)
			if len(q.calls) != 0 {
				t.Fatalf("expected no merge, got %+v", q.calls)
			}
		})
	}
}
