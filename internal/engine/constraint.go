package engine

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Constraint is a joint between two bodies solved alongside contacts.
type Constraint interface {
	BodyA() *RigidBody
	BodyB() *RigidBody

	prepare(h float64)
	solve(h float64)
}

// fixedBody stands in for the world when a joint is attached to a single
// body. It has zero inverse mass so solver impulses never move it.
var fixedBody = &RigidBody{
	transform:  IdentityTransform(),
	flags:      CollisionFlagStaticObject,
	activation: ActiveTag,
}

const jointERP = 0.3

func orFixed(b *RigidBody) *RigidBody {
	if b == nil {
		return fixedBody
	}
	return b
}

// linearMass returns the inverse effective mass of a point constraint along
// dir.
func linearMass(a, b *RigidBody, rA, rB, dir mgl64.Vec3) float64 {
	k := a.effectiveInvMass() + b.effectiveInvMass()
	k += a.effectiveInvInertia().Mul3x1(rA.Cross(dir)).Cross(rA).Dot(dir)
	k += b.effectiveInvInertia().Mul3x1(rB.Cross(dir)).Cross(rB).Dot(dir)
	return k
}

func angularMass(a, b *RigidBody, axis mgl64.Vec3) float64 {
	return axis.Dot(a.effectiveInvInertia().Mul3x1(axis)) + axis.Dot(b.effectiveInvInertia().Mul3x1(axis))
}

// pointJoint keeps a pivot on A coincident with a pivot on B.
type pointJoint struct {
	a, b           *RigidBody
	pivotA, pivotB mgl64.Vec3
	rA, rB         mgl64.Vec3
	errW           mgl64.Vec3
}

func (j *pointJoint) prepare() {
	j.rA = j.a.transform.ApplyVector(j.pivotA)
	j.rB = j.b.transform.ApplyVector(j.pivotB)
	j.errW = j.a.transform.Origin.Add(j.rA).Sub(j.b.transform.Origin.Add(j.rB))
}

func (j *pointJoint) solve(h float64) {
	axes := [3]mgl64.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	for _, e := range axes {
		k := linearMass(j.a, j.b, j.rA, j.rB, e)
		if k < 1e-12 {
			continue
		}
		rel := j.a.VelocityInLocalPoint(j.rA).Sub(j.b.VelocityInLocalPoint(j.rB)).Dot(e)
		bias := jointERP / h * j.errW.Dot(e)
		lambda := -(rel + bias) / k
		imp := e.Mul(lambda)
		j.a.applySolverImpulse(imp, j.rA)
		j.b.applySolverImpulse(imp.Mul(-1), j.rB)
	}
}

// Point2PointConstraint is a ball-and-socket joint.
type Point2PointConstraint struct {
	joint pointJoint
}

// NewPoint2PointConstraint links pivotA in A's frame to pivotB in B's
// frame. A nil b pins A to the world point pivotB.
func NewPoint2PointConstraint(a, b *RigidBody, pivotA, pivotB mgl64.Vec3) *Point2PointConstraint {
	return &Point2PointConstraint{joint: pointJoint{a: a, b: orFixed(b), pivotA: pivotA, pivotB: pivotB}}
}

func (c *Point2PointConstraint) BodyA() *RigidBody { return c.joint.a }

func (c *Point2PointConstraint) BodyB() *RigidBody {
	if c.joint.b == fixedBody {
		return nil
	}
	return c.joint.b
}

func (c *Point2PointConstraint) PivotInA() mgl64.Vec3 { return c.joint.pivotA }
func (c *Point2PointConstraint) PivotInB() mgl64.Vec3 { return c.joint.pivotB }

// PivotSeparation is the world distance between the two pivots.
func (c *Point2PointConstraint) PivotSeparation() float64 {
	j := &c.joint
	pa := j.a.transform.Apply(j.pivotA)
	pb := j.b.transform.Apply(j.pivotB)
	return pa.Sub(pb).Len()
}

func (c *Point2PointConstraint) prepare(float64) { c.joint.prepare() }
func (c *Point2PointConstraint) solve(h float64) { c.joint.solve(h) }

// HingeConstraint allows rotation about one axis and can drive it with a
// motor.
type HingeConstraint struct {
	joint        pointJoint
	axisA, axisB mgl64.Vec3

	worldAxisA mgl64.Vec3
	worldAxisB mgl64.Vec3

	motorEnabled   bool
	targetVelocity float64
	maxImpulse     float64
	motorImpulse   float64
}

// NewHingeConstraint aligns axisA (in A's frame) with axisB (in B's frame)
// and joins the pivots.
func NewHingeConstraint(a, b *RigidBody, pivotA, pivotB, axisA, axisB mgl64.Vec3) *HingeConstraint {
	return &HingeConstraint{
		joint: pointJoint{a: a, b: orFixed(b), pivotA: pivotA, pivotB: pivotB},
		axisA: axisA.Normalize(),
		axisB: axisB.Normalize(),
	}
}

func (c *HingeConstraint) BodyA() *RigidBody { return c.joint.a }

func (c *HingeConstraint) BodyB() *RigidBody {
	if c.joint.b == fixedBody {
		return nil
	}
	return c.joint.b
}

// EnableAngularMotor drives the relative angular velocity of A about the
// hinge axis towards targetVelocity, using at most maxImpulse per step.
func (c *HingeConstraint) EnableAngularMotor(enable bool, targetVelocity, maxImpulse float64) {
	c.motorEnabled = enable
	c.targetVelocity = targetVelocity
	c.maxImpulse = math.Abs(maxImpulse)
}

func (c *HingeConstraint) MotorEnabled() bool           { return c.motorEnabled }
func (c *HingeConstraint) MotorTargetVelocity() float64 { return c.targetVelocity }
func (c *HingeConstraint) MaxMotorImpulse() float64     { return c.maxImpulse }

// AxisAlignment is the cosine between the two hinge axes in world space.
func (c *HingeConstraint) AxisAlignment() float64 {
	wa := c.joint.a.transform.ApplyVector(c.axisA)
	wb := c.joint.b.transform.ApplyVector(c.axisB)
	return wa.Dot(wb)
}

// RelativeAngularVelocity is the spin of A relative to B about the hinge
// axis.
func (c *HingeConstraint) RelativeAngularVelocity() float64 {
	wa := c.joint.a.transform.ApplyVector(c.axisA)
	return c.joint.a.angVel.Sub(c.joint.b.angVel).Dot(wa)
}

func (c *HingeConstraint) prepare(float64) {
	c.joint.prepare()
	c.worldAxisA = c.joint.a.transform.ApplyVector(c.axisA)
	c.worldAxisB = c.joint.b.transform.ApplyVector(c.axisB)
	c.motorImpulse = 0
}

func (c *HingeConstraint) solve(h float64) {
	c.joint.solve(h)

	a, b := c.joint.a, c.joint.b
	axis := c.worldAxisA
	misalign := axis.Cross(c.worldAxisB)
	u1, u2 := orthonormalBasis(axis)
	for _, u := range [2]mgl64.Vec3{u1, u2} {
		k := angularMass(a, b, u)
		if k < 1e-12 {
			continue
		}
		rel := a.angVel.Sub(b.angVel).Dot(u)
		target := jointERP / h * misalign.Dot(u)
		lambda := (target - rel) / k
		a.applySolverAngularImpulse(u.Mul(lambda))
		b.applySolverAngularImpulse(u.Mul(-lambda))
	}

	if !c.motorEnabled {
		return
	}
	k := angularMass(a, b, axis)
	if k < 1e-12 {
		return
	}
	rel := a.angVel.Sub(b.angVel).Dot(axis)
	lambda := (c.targetVelocity - rel) / k
	prev := c.motorImpulse
	c.motorImpulse = mgl64.Clamp(prev+lambda, -c.maxImpulse, c.maxImpulse)
	lambda = c.motorImpulse - prev
	a.applySolverAngularImpulse(axis.Mul(lambda))
	b.applySolverAngularImpulse(axis.Mul(-lambda))
}
