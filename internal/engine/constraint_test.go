package engine

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestPoint2PointHoldsPendulum(t *testing.T) {
	w := NewDiscreteDynamicsWorld(DefaultWorldConfig())
	bob := newBody(t, sphere(t, 0.2), 1, mgl64.Vec3{1, 5, 0})
	w.AddRigidBody(bob)

	c := NewPoint2PointConstraint(bob, nil, mgl64.Vec3{-1, 0, 0}, mgl64.Vec3{0, 5, 0})
	w.AddConstraint(c, false)
	if c.BodyB() != nil {
		t.Error("expected world-pinned joint to report no second body")
	}

	for i := 0; i < 120; i++ {
		w.StepSimulation(frame, 10, 0)
		if sep := c.PivotSeparation(); sep > 0.05 {
			t.Fatalf("step %d: pivots drifted %.4f apart", i, sep)
		}
	}
	if y := bob.WorldTransform().Origin.Y(); y >= 5 {
		t.Errorf("expected bob to swing down, y %.4f", y)
	}
}

func TestLinkedBodiesSkipContacts(t *testing.T) {
	cfg := DefaultWorldConfig()
	cfg.Gravity = mgl64.Vec3{}
	w := NewDiscreteDynamicsWorld(cfg)
	a := newBody(t, sphere(t, 0.5), 1, mgl64.Vec3{})
	b := newBody(t, sphere(t, 0.5), 1, mgl64.Vec3{0.8, 0, 0})
	w.AddRigidBody(a)
	w.AddRigidBody(b)
	c := NewPoint2PointConstraint(a, b, mgl64.Vec3{0.4, 0, 0}, mgl64.Vec3{-0.4, 0, 0})
	w.AddConstraint(c, true)

	w.StepSimulation(frame, 1, 0)
	if n := w.Dispatcher().NumManifolds(); n != 0 {
		t.Errorf("expected linked pair without manifold, got %d", n)
	}

	w.RemoveConstraint(c)
	w.StepSimulation(frame, 1, 0)
	if n := w.Dispatcher().NumManifolds(); n != 1 {
		t.Errorf("expected manifold once unlinked, got %d", n)
	}
}

func TestHingeMotorReachesTargetVelocity(t *testing.T) {
	cfg := DefaultWorldConfig()
	cfg.Gravity = mgl64.Vec3{}
	w := NewDiscreteDynamicsWorld(cfg)
	base := newBody(t, box(t, mgl64.Vec3{0.2, 0.2, 0.2}), 0, mgl64.Vec3{})
	arm := newBody(t, box(t, mgl64.Vec3{1, 0.1, 0.1}), 1, mgl64.Vec3{1.5, 0, 0})
	w.AddRigidBody(base)
	w.AddRigidBody(arm)

	axis := mgl64.Vec3{0, 0, 1}
	h := NewHingeConstraint(arm, base, mgl64.Vec3{-1.5, 0, 0}, mgl64.Vec3{}, axis, axis)
	h.EnableAngularMotor(true, 1, 50)
	w.AddConstraint(h, false)

	for i := 0; i < 60; i++ {
		w.StepSimulation(frame, 10, 0)
	}

	if v := h.RelativeAngularVelocity(); math.Abs(v-1) > 0.05 {
		t.Errorf("expected hinge spin ~1 rad/s, got %.4f", v)
	}
	if a := h.AxisAlignment(); a < 0.999 {
		t.Errorf("expected hinge axes to stay aligned, cos %.5f", a)
	}
	if d := arm.WorldTransform().Origin.Len(); math.Abs(d-1.5) > 0.05 {
		t.Errorf("expected arm to orbit at radius 1.5, got %.4f", d)
	}
}

func TestHingeMotorImpulseLimit(t *testing.T) {
	cfg := DefaultWorldConfig()
	cfg.Gravity = mgl64.Vec3{}
	w := NewDiscreteDynamicsWorld(cfg)
	wheel := newBody(t, sphere(t, 1), 100, mgl64.Vec3{})
	w.AddRigidBody(wheel)

	axis := mgl64.Vec3{0, 1, 0}
	h := NewHingeConstraint(wheel, nil, mgl64.Vec3{}, mgl64.Vec3{}, axis, axis)
	h.EnableAngularMotor(true, 10, 0.01)
	w.AddConstraint(h, false)

	w.StepSimulation(frame, 1, 0)

	// Inertia is 40, so a 0.01 impulse gives at most 0.00025 rad/s.
	if v := h.RelativeAngularVelocity(); v > 0.00026 {
		t.Errorf("expected motor limited by max impulse, got %.6f", v)
	}
}
