package system

import (
	"math"
	"math/rand"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/discmerge/ecs"
	"github.com/milk9111/discmerge/ecs/component"
	"github.com/milk9111/discmerge/logging"
	"go.uber.org/zap"
)

// MergeQueue accepts the commands of one merge as a single batch.
type MergeQueue interface {
	RequestMerge(a, b ecs.Entity, spawn SpawnRequest)
}

// MergeResolver decides whether two touching discs merge. It never touches
// the space: it flags both discs and hands the work to the queue.
type MergeResolver struct {
	rules   component.DiscRules
	impulse float64
	rng     *rand.Rand
	queue   MergeQueue
	log     *zap.Logger
}

func NewMergeResolver(rules component.DiscRules, impulse float64, rng *rand.Rand, queue MergeQueue, log *zap.Logger) *MergeResolver {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &MergeResolver{
		rules:   rules,
		impulse: impulse,
		rng:     rng,
		queue:   queue,
		log:     logging.OrNop(log).Named("merge"),
	}
}

// OnContact is called for every collision start between self and other.
// Repeated or mirrored notifications for the same pair are harmless: only
// the lower serial acts, and only while neither disc is despawning.
func (m *MergeResolver) OnContact(w *ecs.World, self, other ecs.Entity) {
	if m == nil || w == nil || self == other {
		return
	}
	a, okA := ecs.Get(w, self, component.DiscComponent)
	b, okB := ecs.Get(w, other, component.DiscComponent)
	if !okA || !okB {
		m.log.Debug("stale contact", zap.Stringer("self", self), zap.Stringer("other", other))
		return
	}
	if a.Despawning || b.Despawning {
		return
	}
	if a.Level != b.Level {
		return
	}
	if m.rules.Terminal(a.Level) {
		return
	}
	if a.Serial >= b.Serial {
		return
	}

	posA := position(w, self)
	posB := position(w, other)
	mid := posA.Add(posB).Mult(0.5)

	a.MarkDespawning()
	b.MarkDespawning()

	angle := m.rng.Float64() * 2 * math.Pi
	spawn := SpawnRequest{
		Level:    a.Level + 1,
		Position: mid,
		Impulse:  cp.Vector{X: math.Cos(angle), Y: math.Sin(angle)}.Mult(m.impulse),
		Merged:   true,
	}
	if m.queue != nil {
		m.queue.RequestMerge(self, other, spawn)
	}
	m.log.Debug("merge resolved",
		zap.Stringer("a", self),
		zap.Stringer("b", other),
		zap.Int("level", spawn.Level),
	)
}

// position prefers the live body position over the last synced transform.
func position(w *ecs.World, e ecs.Entity) cp.Vector {
	if bodyComp, ok := ecs.Get(w, e, component.PhysicsBodyComponent); ok && bodyComp.Body != nil {
		return bodyComp.Body.Position()
	}
	if t, ok := ecs.Get(w, e, component.TransformComponent); ok {
		return cp.Vector{X: t.X, Y: t.Y}
	}
	return cp.Vector{}
}
