package engine

import (
	"math"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl64"
)

// CollisionFlags mark a body as static or kinematic.
type CollisionFlags int

const (
	CollisionFlagStaticObject    CollisionFlags = 1
	CollisionFlagKinematicObject CollisionFlags = 2
)

type ActivationState int

const (
	ActiveTag ActivationState = iota + 1
	IslandSleeping
	WantsDeactivation
	DisableDeactivation
	DisableSimulation
)

const (
	deactivationTime     = 2.0
	linearSleepThreshold = 0.8
	angularSleepThresh   = 1.0
	defaultFriction      = 0.5
)

// MotionState carries a body's pose between the engine and its owner.
type MotionState interface {
	GetWorldTransform() Transform
	SetWorldTransform(t Transform)
}

// DefaultMotionState stores the last pose written by the world.
type DefaultMotionState struct {
	transform Transform
}

func NewDefaultMotionState(start Transform) *DefaultMotionState {
	return &DefaultMotionState{transform: start}
}

func (m *DefaultMotionState) GetWorldTransform() Transform  { return m.transform }
func (m *DefaultMotionState) SetWorldTransform(t Transform) { m.transform = t }

type RigidBodyConstructionInfo struct {
	Mass         float64
	MotionState  MotionState
	Shape        Shape
	LocalInertia mgl64.Vec3
	// StartWorldTransform is used when MotionState is nil.
	StartWorldTransform Transform
	Friction            float64
	Restitution         float64
}

func NewRigidBodyConstructionInfo(mass float64, ms MotionState, shape Shape, localInertia mgl64.Vec3) RigidBodyConstructionInfo {
	return RigidBodyConstructionInfo{
		Mass:                mass,
		MotionState:         ms,
		Shape:               shape,
		LocalInertia:        localInertia,
		StartWorldTransform: IdentityTransform(),
		Friction:            defaultFriction,
	}
}

var bodyIDs atomic.Int64

type RigidBody struct {
	id          int64
	shape       Shape
	motionState MotionState
	transform   Transform

	mass            float64
	invMass         float64
	localInertia    mgl64.Vec3
	invInertiaLocal mgl64.Vec3
	invInertiaWorld mgl64.Mat3

	linVel      mgl64.Vec3
	angVel      mgl64.Vec3
	totalForce  mgl64.Vec3
	totalTorque mgl64.Vec3

	friction        float64
	restitution     float64
	rollingFriction float64

	flags       CollisionFlags
	activation  ActivationState
	sleepTimer  float64
	group, mask int
	userIndex   int

	world  *World
	regSeq int64

	kinematicTarget Transform
}

func NewRigidBody(info RigidBodyConstructionInfo) (*RigidBody, error) {
	if info.Shape == nil {
		return nil, ErrNilShape
	}
	if info.Mass < 0 || math.IsNaN(info.Mass) || math.IsInf(info.Mass, 0) {
		return nil, ErrInvalidMass
	}
	if info.Mass > 0 && info.Shape.Type() == TriangleMeshShapeType {
		return nil, ErrConcaveDynamic
	}
	if c, ok := info.Shape.(*CompoundShape); ok && c.NumChildShapes() == 0 {
		return nil, degenerate(CompoundShapeType, "compound has no children")
	}

	start := info.StartWorldTransform
	if info.MotionState != nil {
		start = info.MotionState.GetWorldTransform()
	}
	if start.Rotation == (mgl64.Quat{}) {
		start.Rotation = mgl64.QuatIdent()
	}

	b := &RigidBody{
		id:          bodyIDs.Add(1),
		shape:       info.Shape,
		motionState: info.MotionState,
		transform:   start,
		mass:        info.Mass,
		friction:    info.Friction,
		restitution: info.Restitution,
		activation:  ActiveTag,
		userIndex:   -1,
	}
	if info.Mass > 0 {
		b.invMass = 1 / info.Mass
	} else {
		b.flags |= CollisionFlagStaticObject
	}
	b.setMassProps(info.LocalInertia)
	b.kinematicTarget = start
	return b, nil
}

func (b *RigidBody) setMassProps(inertia mgl64.Vec3) {
	b.localInertia = inertia
	for i := 0; i < 3; i++ {
		if inertia[i] > 0 && b.invMass > 0 {
			b.invInertiaLocal[i] = 1 / inertia[i]
		} else {
			b.invInertiaLocal[i] = 0
		}
	}
	b.updateInertiaTensor()
}

func (b *RigidBody) updateInertiaTensor() {
	r := b.transform.Basis()
	b.invInertiaWorld = r.Mul3(mgl64.Diag3(b.invInertiaLocal)).Mul3(r.Transpose())
}

func (b *RigidBody) ID() int64                   { return b.id }
func (b *RigidBody) CollisionShape() Shape       { return b.shape }
func (b *RigidBody) MotionState() MotionState    { return b.motionState }
func (b *RigidBody) WorldTransform() Transform   { return b.transform }
func (b *RigidBody) Mass() float64               { return b.mass }
func (b *RigidBody) InvMass() float64            { return b.invMass }
func (b *RigidBody) LocalInertia() mgl64.Vec3    { return b.localInertia }
func (b *RigidBody) LinearVelocity() mgl64.Vec3  { return b.linVel }
func (b *RigidBody) AngularVelocity() mgl64.Vec3 { return b.angVel }
func (b *RigidBody) Friction() float64           { return b.friction }
func (b *RigidBody) Restitution() float64        { return b.restitution }
func (b *RigidBody) RollingFriction() float64    { return b.rollingFriction }
func (b *RigidBody) CollisionFlags() CollisionFlags {
	return b.flags
}
func (b *RigidBody) ActivationState() ActivationState { return b.activation }
func (b *RigidBody) UserIndex() int                   { return b.userIndex }
func (b *RigidBody) SetUserIndex(i int)               { b.userIndex = i }
func (b *RigidBody) SetFriction(f float64)            { b.friction = f }
func (b *RigidBody) SetRestitution(r float64)         { b.restitution = r }
func (b *RigidBody) SetRollingFriction(r float64)     { b.rollingFriction = r }
func (b *RigidBody) InWorld() bool                    { return b.world != nil }

// CollisionFilter returns the group and mask assigned when the body was
// added to a world.
func (b *RigidBody) CollisionFilter() (group, mask int) { return b.group, b.mask }

func (b *RigidBody) SetCollisionFlags(f CollisionFlags) {
	b.flags = f
	if b.IsStaticOrKinematicObject() {
		b.linVel, b.angVel = mgl64.Vec3{}, mgl64.Vec3{}
	}
}

func (b *RigidBody) IsStaticObject() bool {
	return b.flags&CollisionFlagStaticObject != 0
}

func (b *RigidBody) IsKinematicObject() bool {
	return b.flags&CollisionFlagKinematicObject != 0
}

func (b *RigidBody) IsStaticOrKinematicObject() bool {
	return b.flags&(CollisionFlagStaticObject|CollisionFlagKinematicObject) != 0
}

// isDynamic reports whether the solver moves this body in response to
// impulses.
func (b *RigidBody) isDynamic() bool {
	return b.invMass > 0 && !b.IsStaticOrKinematicObject()
}

func (b *RigidBody) IsActive() bool {
	return b.activation != IslandSleeping && b.activation != DisableSimulation
}

// SetActivationState leaves DisableDeactivation and DisableSimulation in
// place; use ForceActivationState to override them.
func (b *RigidBody) SetActivationState(s ActivationState) {
	if b.activation != DisableDeactivation && b.activation != DisableSimulation {
		b.activation = s
	}
}

func (b *RigidBody) ForceActivationState(s ActivationState) {
	b.activation = s
}

// Activate wakes a sleeping body. Static and kinematic bodies are only woken
// when forced.
func (b *RigidBody) Activate(force bool) {
	if force || !b.IsStaticOrKinematicObject() {
		b.SetActivationState(ActiveTag)
		b.sleepTimer = 0
	}
}

func (b *RigidBody) SetLinearVelocity(v mgl64.Vec3) {
	if b.isDynamic() {
		b.linVel = v
	}
}

func (b *RigidBody) SetAngularVelocity(w mgl64.Vec3) {
	if b.isDynamic() {
		b.angVel = w
	}
}

func (b *RigidBody) ApplyCentralForce(f mgl64.Vec3) {
	if b.isDynamic() {
		b.totalForce = b.totalForce.Add(f)
	}
}

// ApplyForce applies f at relPos from the center of mass; the offset induces
// torque. Forces are cleared after each step.
func (b *RigidBody) ApplyForce(f, relPos mgl64.Vec3) {
	if !b.isDynamic() {
		return
	}
	b.totalForce = b.totalForce.Add(f)
	b.totalTorque = b.totalTorque.Add(relPos.Cross(f))
}

func (b *RigidBody) ApplyTorque(t mgl64.Vec3) {
	if b.isDynamic() {
		b.totalTorque = b.totalTorque.Add(t)
	}
}

func (b *RigidBody) ClearForces() {
	b.totalForce, b.totalTorque = mgl64.Vec3{}, mgl64.Vec3{}
}

func (b *RigidBody) TotalForce() mgl64.Vec3 { return b.totalForce }

func (b *RigidBody) ApplyCentralImpulse(j mgl64.Vec3) {
	if b.isDynamic() {
		b.linVel = b.linVel.Add(j.Mul(b.invMass))
	}
}

func (b *RigidBody) ApplyTorqueImpulse(j mgl64.Vec3) {
	if b.isDynamic() {
		b.angVel = b.angVel.Add(b.invInertiaWorld.Mul3x1(j))
	}
}

func (b *RigidBody) ApplyImpulse(j, relPos mgl64.Vec3) {
	if !b.isDynamic() {
		return
	}
	b.ApplyCentralImpulse(j)
	b.ApplyTorqueImpulse(relPos.Cross(j))
}

// SetWorldTransform teleports the body and its motion state.
func (b *RigidBody) SetWorldTransform(t Transform) {
	b.transform = t
	b.kinematicTarget = t
	b.updateInertiaTensor()
	if b.motionState != nil {
		b.motionState.SetWorldTransform(t)
	}
}

func (b *RigidBody) VelocityInLocalPoint(rel mgl64.Vec3) mgl64.Vec3 {
	return b.linVel.Add(b.angVel.Cross(rel))
}

func (b *RigidBody) effectiveInvMass() float64 {
	if !b.isDynamic() || !b.IsActive() {
		return 0
	}
	return b.invMass
}

func (b *RigidBody) effectiveInvInertia() mgl64.Mat3 {
	if !b.isDynamic() || !b.IsActive() {
		return mgl64.Mat3{}
	}
	return b.invInertiaWorld
}

func (b *RigidBody) applySolverImpulse(j, rel mgl64.Vec3) {
	if !b.isDynamic() || !b.IsActive() {
		return
	}
	b.linVel = b.linVel.Add(j.Mul(b.invMass))
	b.angVel = b.angVel.Add(b.invInertiaWorld.Mul3x1(rel.Cross(j)))
}

func (b *RigidBody) applySolverAngularImpulse(j mgl64.Vec3) {
	if !b.isDynamic() || !b.IsActive() {
		return
	}
	b.angVel = b.angVel.Add(b.invInertiaWorld.Mul3x1(j))
}

func (b *RigidBody) integrateVelocities(gravity mgl64.Vec3, h float64) {
	if !b.isDynamic() || !b.IsActive() {
		return
	}
	acc := gravity.Add(b.totalForce.Mul(b.invMass))
	b.linVel = b.linVel.Add(acc.Mul(h))
	b.angVel = b.angVel.Add(b.invInertiaWorld.Mul3x1(b.totalTorque).Mul(h))
}

func (b *RigidBody) integrateTransform(h float64) {
	if b.IsStaticObject() && !b.IsKinematicObject() {
		return
	}
	if !b.IsKinematicObject() && !b.IsActive() {
		return
	}
	b.transform.Origin = b.transform.Origin.Add(b.linVel.Mul(h))
	if b.angVel.LenSqr() > 0 {
		b.transform.Rotation = integrateRotation(b.transform.Rotation, b.angVel, h)
	}
	b.updateInertiaTensor()
}

// updateDeactivation puts a slow dynamic body to sleep once it has been
// below the thresholds for deactivationTime seconds.
func (b *RigidBody) updateDeactivation(h float64) {
	if !b.isDynamic() {
		return
	}
	if b.activation == IslandSleeping || b.activation == DisableDeactivation || b.activation == DisableSimulation {
		return
	}
	if b.linVel.LenSqr() < linearSleepThreshold*linearSleepThreshold &&
		b.angVel.LenSqr() < angularSleepThresh*angularSleepThresh {
		b.sleepTimer += h
	} else {
		b.sleepTimer = 0
	}
	if b.sleepTimer > deactivationTime {
		b.activation = IslandSleeping
		b.linVel, b.angVel = mgl64.Vec3{}, mgl64.Vec3{}
	}
}

// moving reports whether the body can disturb a sleeping neighbour.
func (b *RigidBody) moving() bool {
	if b.IsKinematicObject() {
		return b.linVel.LenSqr() > 0 || b.angVel.LenSqr() > 0
	}
	if !b.isDynamic() || !b.IsActive() {
		return false
	}
	return b.linVel.LenSqr() >= linearSleepThreshold*linearSleepThreshold ||
		b.angVel.LenSqr() >= angularSleepThresh*angularSleepThresh
}

func (b *RigidBody) geometries(dst []geometry) []geometry {
	return b.shape.appendGeometry(b.transform, dst)
}
