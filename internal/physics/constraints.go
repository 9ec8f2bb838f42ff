package physics

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/rigidsync/internal/engine"
)

// AddP2PConstraint pins pivotA on a to pivotB on b. The two bodies no
// longer collide with each other.
func (w *World) AddP2PConstraint(a, b *Handle, pivotA, pivotB mgl64.Vec3) *engine.Point2PointConstraint {
	if !w.jointReady(a, b, "p2p") {
		return nil
	}
	c := engine.NewPoint2PointConstraint(a.body, b.body, pivotA, pivotB)
	w.dyn.AddConstraint(c, true)
	w.joints = append(w.joints, c)
	return c
}

// AddHingeConstraint joins a and b about a shared axis and drives it with
// the configured motor. The bodies keep colliding with each other.
func (w *World) AddHingeConstraint(a, b *Handle, pivotA, pivotB, axisA, axisB mgl64.Vec3) *engine.HingeConstraint {
	if !w.jointReady(a, b, "hinge") {
		return nil
	}
	c := engine.NewHingeConstraint(a.body, b.body, pivotA, pivotB, axisA, axisB)
	c.EnableAngularMotor(true, w.cfg.HingeMotor.TargetVelocity, w.cfg.HingeMotor.MaxImpulse)
	w.dyn.AddConstraint(c, false)
	w.joints = append(w.joints, c)
	return c
}

func (w *World) jointReady(a, b *Handle, kind string) bool {
	if w.dyn == nil {
		return false
	}
	if a == nil || b == nil {
		w.logger.Warn("constraint skipped, missing body", "kind", kind, "a", a != nil, "b", b != nil)
		return false
	}
	return true
}

func (w *World) dropJoints(b *engine.RigidBody) {
	kept := w.joints[:0]
	for _, c := range w.joints {
		if c.BodyA() == b || c.BodyB() == b {
			w.dyn.RemoveConstraint(c)
			continue
		}
		kept = append(kept, c)
	}
	w.joints = kept
}
