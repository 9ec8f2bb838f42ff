package engine

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// Collision filter groups. A pair collides when each body's group is in the
// other's mask.
const (
	DefaultFilter   = 1
	StaticFilter    = 2
	KinematicFilter = 4
	DebrisFilter    = 8
	SensorTrigger   = 16
	CharacterFilter = 32
	AllFilter       = -1
)

type WorldConfig struct {
	Gravity          mgl64.Vec3
	SolverIterations int
	// ContactBreakingThreshold is the largest separation still reported as
	// a contact point.
	ContactBreakingThreshold float64
}

func DefaultWorldConfig() WorldConfig {
	return WorldConfig{
		Gravity:                  mgl64.Vec3{0, -10, 0},
		SolverIterations:         10,
		ContactBreakingThreshold: 0.02,
	}
}

// World is a discrete dynamics world: bodies, joints and the contact
// manifolds between them.
type World struct {
	cfg         WorldConfig
	bodies      []*RigidBody
	constraints []Constraint
	linked      map[pairKey]bool
	dispatcher  *Dispatcher
	nextSeq     int64
	localTime   float64

	geoms map[*RigidBody][]geometry
}

func NewDiscreteDynamicsWorld(cfg WorldConfig) *World {
	if cfg.SolverIterations <= 0 {
		cfg.SolverIterations = DefaultWorldConfig().SolverIterations
	}
	if cfg.ContactBreakingThreshold <= 0 {
		cfg.ContactBreakingThreshold = DefaultWorldConfig().ContactBreakingThreshold
	}
	return &World{
		cfg:        cfg,
		linked:     make(map[pairKey]bool),
		dispatcher: newDispatcher(),
		geoms:      make(map[*RigidBody][]geometry),
	}
}

func (w *World) SetGravity(g mgl64.Vec3) { w.cfg.Gravity = g }
func (w *World) Gravity() mgl64.Vec3     { return w.cfg.Gravity }
func (w *World) Dispatcher() *Dispatcher { return w.dispatcher }
func (w *World) Bodies() []*RigidBody    { return w.bodies }
func (w *World) Constraints() []Constraint {
	return w.constraints
}
func (w *World) NumCollisionObjects() int { return len(w.bodies) }

// AddRigidBody registers b with the default filter for its kind.
func (w *World) AddRigidBody(b *RigidBody) {
	if b.IsStaticOrKinematicObject() {
		w.AddRigidBodyFiltered(b, StaticFilter, AllFilter^StaticFilter)
		return
	}
	w.AddRigidBodyFiltered(b, DefaultFilter, AllFilter)
}

// AddRigidBodyFiltered registers b with an explicit group and mask. Adding a
// body that is already in the world is a no-op.
func (w *World) AddRigidBodyFiltered(b *RigidBody, group, mask int) {
	if b.world != nil {
		return
	}
	w.nextSeq++
	b.world = w
	b.regSeq = w.nextSeq
	b.group, b.mask = group, mask
	if b.IsStaticObject() && !b.IsKinematicObject() {
		b.SetActivationState(IslandSleeping)
	}
	b.updateInertiaTensor()
	w.bodies = append(w.bodies, b)
}

// RemoveRigidBody unregisters b and drops its manifolds. Bodies it was
// touching are woken.
func (w *World) RemoveRigidBody(b *RigidBody) {
	if b.world != w {
		return
	}
	for i, o := range w.bodies {
		if o == b {
			w.bodies = append(w.bodies[:i], w.bodies[i+1:]...)
			break
		}
	}
	for _, o := range w.dispatcher.removeBody(b) {
		o.Activate(false)
	}
	delete(w.geoms, b)
	b.world = nil
}

// AddConstraint registers a joint. When disableCollisions is set the two
// linked bodies never generate contacts with each other.
func (w *World) AddConstraint(c Constraint, disableCollisions bool) {
	w.constraints = append(w.constraints, c)
	if disableCollisions && c.BodyB() != nil {
		w.linked[linkKey(c.BodyA(), c.BodyB())] = true
	}
}

func (w *World) RemoveConstraint(c Constraint) {
	for i, o := range w.constraints {
		if o == c {
			w.constraints = append(w.constraints[:i], w.constraints[i+1:]...)
			break
		}
	}
	if c.BodyB() != nil {
		delete(w.linked, linkKey(c.BodyA(), c.BodyB()))
	}
}

func linkKey(a, b *RigidBody) pairKey {
	if a.id > b.id {
		a, b = b, a
	}
	return pairKey{a.id, b.id}
}

// StepSimulation advances the world by dt. With fixedTimeStep zero it runs
// exactly maxSubSteps sub steps of dt/maxSubSteps. Otherwise time is
// accumulated and consumed in fixedTimeStep sized steps, at most maxSubSteps
// per call. It returns the number of sub steps taken.
func (w *World) StepSimulation(dt float64, maxSubSteps int, fixedTimeStep float64) int {
	if dt <= 0 || math.IsNaN(dt) {
		return 0
	}
	if maxSubSteps < 1 {
		maxSubSteps = 1
	}

	var steps int
	var h float64
	if fixedTimeStep <= 0 {
		steps, h = maxSubSteps, dt/float64(maxSubSteps)
	} else {
		w.localTime += dt
		steps = int(w.localTime / fixedTimeStep)
		w.localTime -= float64(steps) * fixedTimeStep
		if steps > maxSubSteps {
			steps = maxSubSteps
		}
		h = fixedTimeStep
	}
	if steps == 0 {
		return 0
	}

	w.prepareKinematic(float64(steps) * h)
	for i := 0; i < steps; i++ {
		w.internalStep(h)
	}
	w.finishKinematic()
	w.writeMotionStates()
	for _, b := range w.bodies {
		b.ClearForces()
	}
	return steps
}

// prepareKinematic gives every kinematic body the velocity that carries it
// to its motion state pose over the coming step.
func (w *World) prepareKinematic(total float64) {
	for _, b := range w.bodies {
		if !b.IsKinematicObject() || b.motionState == nil {
			continue
		}
		target := b.motionState.GetWorldTransform()
		b.kinematicTarget = target
		b.linVel = target.Origin.Sub(b.transform.Origin).Mul(1 / total)
		b.angVel = angularVelocityBetween(b.transform.Rotation, target.Rotation, total)
	}
}

func (w *World) finishKinematic() {
	for _, b := range w.bodies {
		if !b.IsKinematicObject() || b.motionState == nil {
			continue
		}
		b.transform = b.kinematicTarget
		b.updateInertiaTensor()
	}
}

func (w *World) writeMotionStates() {
	for _, b := range w.bodies {
		if b.motionState == nil || !b.isDynamic() || !b.IsActive() {
			continue
		}
		b.motionState.SetWorldTransform(b.transform)
	}
}

func (w *World) internalStep(h float64) {
	for _, b := range w.bodies {
		b.integrateVelocities(w.cfg.Gravity, h)
	}
	w.performCollisionDetection()
	w.wakeTouched()
	solve(w.activeConstraints(), w.dispatcher.manifolds, w.cfg.SolverIterations, h)
	for _, b := range w.bodies {
		b.integrateTransform(h)
	}
	for _, b := range w.bodies {
		b.updateDeactivation(h)
	}
}

func (w *World) activeConstraints() []Constraint {
	out := w.constraints[:0:0]
	for _, c := range w.constraints {
		a, b := c.BodyA(), c.BodyB()
		if a.world != w || (b != nil && b.world != w) {
			continue
		}
		out = append(out, c)
	}
	return out
}

type proxy struct {
	body     *RigidBody
	min, max mgl64.Vec3
}

// performCollisionDetection runs a sweep and prune over body bounds, then
// refreshes the manifold of every overlapping pair. Pairs where neither body
// is awake keep their previous contacts.
func (w *World) performCollisionDetection() {
	margin := w.cfg.ContactBreakingThreshold
	proxies := make([]proxy, 0, len(w.bodies))
	for _, b := range w.bodies {
		gs := b.geometries(w.geoms[b][:0])
		w.geoms[b] = gs
		lo, hi := geometryBounds(gs)
		proxies = append(proxies, proxy{body: b, min: lo, max: hi})
	}
	sort.Slice(proxies, func(i, j int) bool { return proxies[i].min[0] < proxies[j].min[0] })

	live := make(map[pairKey]bool)
	var buf []contact
	for i := range proxies {
		p := &proxies[i]
		for j := i + 1; j < len(proxies); j++ {
			q := &proxies[j]
			if q.min[0]-margin > p.max[0] {
				break
			}
			if !boundsOverlap(p.min, p.max, q.min, q.max, margin) {
				continue
			}
			a, b := p.body, q.body
			if !w.needsCollision(a, b) {
				continue
			}
			m, existed := w.dispatcher.manifoldFor(a, b)
			live[pairKey{m.body0.regSeq, m.body1.regSeq}] = true
			if existed && !a.IsActive() && !b.IsActive() {
				continue
			}
			buf = w.narrowphase(m, buf[:0])
		}
	}
	w.dispatcher.retain(live)
}

func boundsOverlap(aMin, aMax, bMin, bMax mgl64.Vec3, margin float64) bool {
	for i := 0; i < 3; i++ {
		if aMin[i]-margin > bMax[i] || bMin[i]-margin > aMax[i] {
			return false
		}
	}
	return true
}

func (w *World) needsCollision(a, b *RigidBody) bool {
	if a.group&b.mask == 0 || b.group&a.mask == 0 {
		return false
	}
	if !a.isDynamic() && !b.isDynamic() {
		return false
	}
	if a.activation == DisableSimulation || b.activation == DisableSimulation {
		return false
	}
	return !w.linked[linkKey(a, b)]
}

func (w *World) narrowphase(m *PersistentManifold, buf []contact) []contact {
	threshold := w.cfg.ContactBreakingThreshold
	ga, gb := w.geoms[m.body0], w.geoms[m.body1]
	for i := range ga {
		for j := range gb {
			if !ga[i].overlaps(&gb[j], threshold) {
				continue
			}
			buf = collide(&ga[i], &gb[j], threshold, buf)
		}
	}
	m.refresh(reduceContacts(buf))
	return buf
}

// wakeTouched activates sleeping bodies in contact with something moving.
func (w *World) wakeTouched() {
	for _, m := range w.dispatcher.manifolds {
		if m.NumContacts() == 0 {
			continue
		}
		a, b := m.body0, m.body1
		if !a.IsActive() && b.moving() {
			a.Activate(false)
		}
		if !b.IsActive() && a.moving() {
			b.Activate(false)
		}
	}
}
