package system

import (
	"errors"
	"fmt"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/discmerge/config"
	"github.com/milk9111/discmerge/ecs"
	"github.com/milk9111/discmerge/ecs/component"
	"github.com/milk9111/discmerge/logging"
	"go.uber.org/zap"
)

const (
	collisionTypeDisc cp.CollisionType = iota + 1
	collisionTypeWall
	collisionTypeZone
)

// ErrSpaceLocked is returned for body insertion, removal or type changes
// requested while the space is stepping.
var ErrSpaceLocked = errors.New("physics: space is locked mid-step")

var ErrNoBody = errors.New("physics: entity has no body")

// ContactListener is told about every disc/disc collision start, once from
// each body's side.
type ContactListener interface {
	OnContact(w *ecs.World, self, other ecs.Entity)
}

// ZoneListener is told when a disc starts or stops overlapping a sensor zone.
type ZoneListener interface {
	OnZoneEnter(w *ecs.World, zone, body ecs.Entity)
	OnZoneExit(w *ecs.World, zone, body ecs.Entity)
}

type PhysicsSystem struct {
	cfg           config.ArenaConfig
	space         *cp.Space
	handlersReady bool
	stepping      bool
	world         *ecs.World

	entities map[ecs.Entity]*bodyInfo
	shapes   map[*cp.Shape]ecs.Entity

	contacts []ContactListener
	zones    []ZoneListener

	log *zap.Logger
}

type bodyInfo struct {
	body   *cp.Body
	shapes []*cp.Shape
	static bool
}

func NewPhysicsSystem(cfg config.ArenaConfig, log *zap.Logger) *PhysicsSystem {
	ps := &PhysicsSystem{
		cfg: cfg,
		log: logging.OrNop(log).Named("physics"),
	}
	ps.resetSpace()
	return ps
}

func (ps *PhysicsSystem) resetSpace() {
	space := cp.NewSpace()
	space.Iterations = ps.cfg.Iterations
	if space.Iterations == 0 {
		space.Iterations = 20
	}
	space.SetGravity(cp.Vector{X: 0, Y: ps.cfg.Gravity})
	ps.space = space
	ps.handlersReady = false
	ps.entities = make(map[ecs.Entity]*bodyInfo)
	ps.shapes = make(map[*cp.Shape]ecs.Entity)
}

func (ps *PhysicsSystem) Space() *cp.Space {
	if ps == nil {
		return nil
	}
	return ps.space
}

func (ps *PhysicsSystem) AddContactListener(l ContactListener) {
	if l != nil {
		ps.contacts = append(ps.contacts, l)
	}
}

func (ps *PhysicsSystem) AddZoneListener(l ZoneListener) {
	if l != nil {
		ps.zones = append(ps.zones, l)
	}
}

func (ps *PhysicsSystem) Update(w *ecs.World) {
	if ps == nil || w == nil {
		return
	}
	ps.world = w

	ps.ensureHandlers()
	ps.cleanupEntities(w)
	ps.syncArena(w)
	ps.syncZones(w)
	ps.syncEntities(w)

	step := ps.cfg.TimeStep
	if step <= 0 {
		step = 1.0 / 60.0
	}
	ps.stepping = true
	ps.space.Step(step)
	ps.stepping = false

	ps.syncTransforms(w)
}

func (ps *PhysicsSystem) ensureHandlers() {
	if ps.handlersReady || ps.space == nil {
		return
	}

	discHandler := ps.space.NewCollisionHandler(collisionTypeDisc, collisionTypeDisc)
	discHandler.UserData = ps
	discHandler.BeginFunc = func(arb *cp.Arbiter, space *cp.Space, userData interface{}) bool {
		sys, ok := userData.(*PhysicsSystem)
		if !ok || sys == nil {
			return true
		}
		a, b, ok := sys.pair(arb)
		if !ok {
			return true
		}
		if sys.inert(a) || sys.inert(b) {
			return false
		}
		for _, l := range sys.contacts {
			l.OnContact(sys.world, a, b)
			l.OnContact(sys.world, b, a)
		}
		// a merge just claimed both discs
		return !sys.inert(a) && !sys.inert(b)
	}
	discHandler.PreSolveFunc = func(arb *cp.Arbiter, space *cp.Space, userData interface{}) bool {
		sys, ok := userData.(*PhysicsSystem)
		if !ok || sys == nil {
			return true
		}
		a, b, ok := sys.pair(arb)
		if !ok {
			return true
		}
		return !sys.inert(a) && !sys.inert(b)
	}

	zoneHandler := ps.space.NewCollisionHandler(collisionTypeDisc, collisionTypeZone)
	zoneHandler.UserData = ps
	zoneHandler.BeginFunc = func(arb *cp.Arbiter, space *cp.Space, userData interface{}) bool {
		sys, ok := userData.(*PhysicsSystem)
		if !ok || sys == nil {
			return true
		}
		body, zone, ok := sys.pair(arb)
		if !ok {
			return true
		}
		for _, l := range sys.zones {
			l.OnZoneEnter(sys.world, zone, body)
		}
		return true
	}
	zoneHandler.SeparateFunc = func(arb *cp.Arbiter, space *cp.Space, userData interface{}) {
		sys, ok := userData.(*PhysicsSystem)
		if !ok || sys == nil {
			return
		}
		body, zone, ok := sys.pair(arb)
		if !ok {
			return
		}
		for _, l := range sys.zones {
			l.OnZoneExit(sys.world, zone, body)
		}
	}

	ps.handlersReady = true
}

// pair maps the arbiter's shapes back to entities, in handler order.
func (ps *PhysicsSystem) pair(arb *cp.Arbiter) (ecs.Entity, ecs.Entity, bool) {
	shapeA, shapeB := arb.Shapes()
	a, okA := ps.shapes[shapeA]
	b, okB := ps.shapes[shapeB]
	return a, b, okA && okB
}

// inert reports whether a disc should no longer take part in collisions.
func (ps *PhysicsSystem) inert(e ecs.Entity) bool {
	if ps.world == nil || !ps.world.IsAlive(e) {
		return true
	}
	disc, ok := ecs.Get(ps.world, e, component.DiscComponent)
	return ok && disc.Despawning
}

func (ps *PhysicsSystem) syncEntities(w *ecs.World) {
	for _, e := range w.Query(component.PhysicsBodyComponent, component.TransformComponent) {
		if _, ok := ps.entities[e]; ok {
			continue
		}
		if err := ps.EnsureBody(w, e); err != nil {
			ps.log.Warn("create body", zap.Stringer("entity", e), zap.Error(err))
		}
	}
}

// EnsureBody inserts the entity's circle body into the space if it is not
// there yet.
func (ps *PhysicsSystem) EnsureBody(w *ecs.World, e ecs.Entity) error {
	if ps.stepping {
		return ErrSpaceLocked
	}
	if _, ok := ps.entities[e]; ok {
		return nil
	}
	bodyComp, ok := ecs.Get(w, e, component.PhysicsBodyComponent)
	if !ok {
		return fmt.Errorf("ensure body %s: %w", e, ErrNoBody)
	}
	transform, ok := ecs.Get(w, e, component.TransformComponent)
	if !ok {
		return fmt.Errorf("ensure body %s: missing transform", e)
	}
	if bodyComp.Radius <= 0 {
		return fmt.Errorf("ensure body %s: radius %v", e, bodyComp.Radius)
	}

	mass := bodyComp.Mass
	if mass <= 0 {
		mass = 1
	}
	body := cp.NewBody(mass, cp.MomentForCircle(mass, 0, bodyComp.Radius, cp.Vector{}))
	body.SetPosition(cp.Vector{X: transform.X, Y: transform.Y})
	body.SetAngle(transform.Rotation)

	shape := cp.NewCircle(body, bodyComp.Radius, cp.Vector{})
	shape.SetFriction(bodyComp.Friction)
	shape.SetElasticity(bodyComp.Elasticity)
	if ecs.Has(w, e, component.DiscComponent) {
		shape.SetCollisionType(collisionTypeDisc)
	} else {
		shape.SetCollisionType(collisionTypeWall)
	}

	ps.space.AddBody(body)
	ps.space.AddShape(shape)

	ps.entities[e] = &bodyInfo{body: body, shapes: []*cp.Shape{shape}}
	ps.shapes[shape] = e
	bodyComp.Body = body
	bodyComp.Shape = shape
	return nil
}

// syncArena builds the static container once per arena entity: two side
// walls and a floor. The walls run above the top edge so shots aimed high
// fall back inside.
func (ps *PhysicsSystem) syncArena(w *ecs.World) {
	for _, e := range w.Query(component.ArenaBoundsComponent) {
		if _, exists := ps.entities[e]; exists {
			continue
		}
		bounds, ok := ecs.Get(w, e, component.ArenaBoundsComponent)
		if !ok || bounds.Width <= 0 || bounds.Height <= 0 {
			continue
		}

		width, height := bounds.Width, bounds.Height
		thickness := bounds.Thickness
		if thickness <= 0 {
			thickness = 1
		}
		segments := []struct {
			a cp.Vector
			b cp.Vector
		}{
			{a: cp.Vector{X: 0, Y: height}, b: cp.Vector{X: width, Y: height}}, // floor
			{a: cp.Vector{X: 0, Y: -height}, b: cp.Vector{X: 0, Y: height}},     // left
			{a: cp.Vector{X: width, Y: -height}, b: cp.Vector{X: width, Y: height}},
		}

		info := &bodyInfo{static: true, body: ps.space.StaticBody}
		for _, seg := range segments {
			shape := cp.NewSegment(ps.space.StaticBody, seg.a, seg.b, thickness)
			shape.SetFriction(bounds.Friction)
			shape.SetCollisionType(collisionTypeWall)
			ps.space.AddShape(shape)
			ps.shapes[shape] = e
			info.shapes = append(info.shapes, shape)
		}
		ps.entities[e] = info
	}
}

func (ps *PhysicsSystem) syncZones(w *ecs.World) {
	for _, e := range w.Query(component.DangerZoneComponent) {
		if _, exists := ps.entities[e]; exists {
			continue
		}
		zone, ok := ecs.Get(w, e, component.DangerZoneComponent)
		if !ok || zone.Right <= zone.Left || zone.Bottom <= zone.Top {
			continue
		}
		bb := cp.BB{L: zone.Left, B: zone.Top, R: zone.Right, T: zone.Bottom}
		shape := cp.NewBox2(ps.space.StaticBody, bb, 0)
		shape.SetSensor(true)
		shape.SetCollisionType(collisionTypeZone)
		ps.space.AddShape(shape)
		ps.shapes[shape] = e
		ps.entities[e] = &bodyInfo{static: true, body: ps.space.StaticBody, shapes: []*cp.Shape{shape}}
	}
}

func (ps *PhysicsSystem) syncTransforms(w *ecs.World) {
	ecs.ForEach2(w, component.PhysicsBodyComponent, component.TransformComponent, func(e ecs.Entity, bodyComp *component.PhysicsBody, transform *component.Transform) {
		if bodyComp.Body == nil {
			return
		}
		pos := bodyComp.Body.Position()
		transform.X = pos.X
		transform.Y = pos.Y
		transform.Rotation = bodyComp.Body.Angle()
	})
}

// cleanupEntities detaches bodies whose entity died or lost the components
// that own them.
func (ps *PhysicsSystem) cleanupEntities(w *ecs.World) {
	for e, info := range ps.entities {
		if w.IsAlive(e) && (ecs.Has(w, e, component.PhysicsBodyComponent) ||
			ecs.Has(w, e, component.ArenaBoundsComponent) ||
			ecs.Has(w, e, component.DangerZoneComponent)) {
			continue
		}
		ps.detach(e, info)
	}
}

func (ps *PhysicsSystem) detach(e ecs.Entity, info *bodyInfo) {
	for _, shape := range info.shapes {
		if shape == nil {
			continue
		}
		ps.space.RemoveShape(shape)
		delete(ps.shapes, shape)
	}
	if info.body != nil && !info.static {
		ps.space.RemoveBody(info.body)
	}
	delete(ps.entities, e)
	ps.log.Debug("body detached", zap.Stringer("entity", e))
}

func (ps *PhysicsSystem) body(e ecs.Entity) (*cp.Body, error) {
	info, ok := ps.entities[e]
	if !ok || info.body == nil || info.static {
		return nil, fmt.Errorf("%s: %w", e, ErrNoBody)
	}
	return info.body, nil
}

// RemoveBody detaches e's body immediately.
func (ps *PhysicsSystem) RemoveBody(e ecs.Entity) error {
	if ps.stepping {
		return ErrSpaceLocked
	}
	info, ok := ps.entities[e]
	if !ok {
		return nil
	}
	ps.detach(e, info)
	return nil
}

func (ps *PhysicsSystem) ApplyImpulse(e ecs.Entity, impulse cp.Vector) error {
	body, err := ps.body(e)
	if err != nil {
		return err
	}
	body.ApplyImpulseAtWorldPoint(impulse, body.Position())
	return nil
}

func (ps *PhysicsSystem) Velocity(e ecs.Entity) (cp.Vector, bool) {
	body, err := ps.body(e)
	if err != nil {
		return cp.Vector{}, false
	}
	return body.Velocity(), true
}

// Speed is the length of e's velocity.
func (ps *PhysicsSystem) Speed(e ecs.Entity) (float64, bool) {
	v, ok := ps.Velocity(e)
	if !ok {
		return 0, false
	}
	return v.Length(), true
}

// Freeze turns e's body kinematic with no velocity and filters out every
// collision, leaving it in place for its shrink.
func (ps *PhysicsSystem) Freeze(w *ecs.World, e ecs.Entity) error {
	if ps.stepping {
		return ErrSpaceLocked
	}
	body, err := ps.body(e)
	if err != nil {
		return err
	}
	body.SetType(cp.BODY_KINEMATIC)
	body.SetVelocity(0, 0)
	body.SetAngularVelocity(0)
	for _, shape := range ps.entities[e].shapes {
		shape.SetFilter(cp.SHAPE_FILTER_NONE)
	}
	if bodyComp, ok := ecs.Get(w, e, component.PhysicsBodyComponent); ok {
		bodyComp.Frozen = true
	}
	return nil
}

// BodyCount returns the number of dynamic bodies in the space.
func (ps *PhysicsSystem) BodyCount() int {
	n := 0
	for _, info := range ps.entities {
		if !info.static {
			n++
		}
	}
	return n
}
