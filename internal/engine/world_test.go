package engine

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

const frame = 1.0 / 60

func newBody(t *testing.T, shape Shape, mass float64, pos mgl64.Vec3) *RigidBody {
	t.Helper()
	info := NewRigidBodyConstructionInfo(mass, NewDefaultMotionState(NewTransform(pos, mgl64.QuatIdent())), shape, shape.CalculateLocalInertia(mass))
	b, err := NewRigidBody(info)
	if err != nil {
		t.Fatalf("new body: %v", err)
	}
	return b
}

func ground(t *testing.T, w *World) *RigidBody {
	t.Helper()
	plane, err := NewStaticPlaneShape(mgl64.Vec3{0, 1, 0}, 0)
	if err != nil {
		t.Fatal(err)
	}
	b := newBody(t, plane, 0, mgl64.Vec3{})
	w.AddRigidBody(b)
	return b
}

func sphere(t *testing.T, r float64) *SphereShape {
	t.Helper()
	s, err := NewSphereShape(r)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func box(t *testing.T, half mgl64.Vec3) *BoxShape {
	t.Helper()
	s, err := NewBoxShape(half)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func stepFor(w *World, seconds float64) {
	n := int(math.Round(seconds / frame))
	for i := 0; i < n; i++ {
		w.StepSimulation(frame, 1, 0)
	}
}

func TestFreeFall(t *testing.T) {
	w := NewDiscreteDynamicsWorld(DefaultWorldConfig())
	b := newBody(t, sphere(t, 0.5), 1, mgl64.Vec3{0, 10, 0})
	w.AddRigidBody(b)

	stepFor(w, 1)

	y := b.WorldTransform().Origin.Y()
	if math.Abs(y-5) > 0.2 {
		t.Errorf("expected y ~5 after 1s of free fall, got %.4f", y)
	}
	if ms := b.MotionState().GetWorldTransform().Origin.Y(); ms != y {
		t.Errorf("expected motion state to match body (%.4f), got %.4f", y, ms)
	}
}

func TestSphereRestsOnPlane(t *testing.T) {
	w := NewDiscreteDynamicsWorld(DefaultWorldConfig())
	floor := ground(t, w)
	b := newBody(t, sphere(t, 0.5), 1, mgl64.Vec3{0, 2, 0})
	w.AddRigidBody(b)

	stepFor(w, 3)

	y := b.WorldTransform().Origin.Y()
	if math.Abs(y-0.5) > 0.02 {
		t.Errorf("expected sphere to rest at y ~0.5, got %.4f", y)
	}
	if floor.WorldTransform().Origin != (mgl64.Vec3{}) {
		t.Errorf("expected static floor to stay put, got %v", floor.WorldTransform().Origin)
	}

	d := w.Dispatcher()
	if d.NumManifolds() != 1 {
		t.Fatalf("expected 1 manifold, got %d", d.NumManifolds())
	}
	m := d.ManifoldByIndexInternal(0)
	if m.Body0() != floor || m.Body1() != b {
		t.Errorf("expected manifold ordered by registration")
	}
	if m.NumContacts() == 0 {
		t.Fatal("expected at least one contact")
	}
	if dist := m.ContactPoint(0).Distance(); dist >= 0 {
		t.Errorf("expected resting contact to be penetrating, got distance %.5f", dist)
	}
	if n := m.ContactPoint(0).NormalWorldOnB(); n.Y() > -0.99 {
		t.Errorf("expected normal on the sphere pointing down at the floor, got %v", n)
	}
}

func TestBoxRestsFlat(t *testing.T) {
	w := NewDiscreteDynamicsWorld(DefaultWorldConfig())
	ground(t, w)
	b := newBody(t, box(t, mgl64.Vec3{0.5, 0.5, 0.5}), 2, mgl64.Vec3{0, 1.5, 0})
	w.AddRigidBody(b)

	stepFor(w, 3)

	tr := b.WorldTransform()
	if math.Abs(tr.Origin.Y()-0.5) > 0.03 {
		t.Errorf("expected box to rest at y ~0.5, got %.4f", tr.Origin.Y())
	}
	up := tr.ApplyVector(mgl64.Vec3{0, 1, 0})
	if up.Y() < 0.999 {
		t.Errorf("expected box to stay upright, up axis %v", up)
	}
}

func TestStaticBodyNeverMoves(t *testing.T) {
	w := NewDiscreteDynamicsWorld(DefaultWorldConfig())
	pos := mgl64.Vec3{1, 2, 3}
	b := newBody(t, box(t, mgl64.Vec3{1, 1, 1}), 0, pos)
	w.AddRigidBody(b)
	b.ApplyCentralImpulse(mgl64.Vec3{100, 0, 0})
	b.ApplyCentralForce(mgl64.Vec3{0, 100, 0})

	stepFor(w, 1)

	if got := b.WorldTransform().Origin; got != pos {
		t.Errorf("expected static body at %v, got %v", pos, got)
	}
	if b.ActivationState() != IslandSleeping {
		t.Errorf("expected static body to be sleeping, got %d", b.ActivationState())
	}
}

func TestCentralImpulse(t *testing.T) {
	cfg := DefaultWorldConfig()
	cfg.Gravity = mgl64.Vec3{}
	w := NewDiscreteDynamicsWorld(cfg)
	b := newBody(t, sphere(t, 1), 2, mgl64.Vec3{})
	w.AddRigidBody(b)

	b.ApplyCentralImpulse(mgl64.Vec3{2, 0, 0})
	if v := b.LinearVelocity().X(); math.Abs(v-1) > 1e-12 {
		t.Errorf("expected velocity 1, got %f", v)
	}

	stepFor(w, 1)
	if x := b.WorldTransform().Origin.X(); math.Abs(x-1) > 1e-6 {
		t.Errorf("expected x 1 after 1s, got %f", x)
	}
}

func TestForceAtOffsetSpins(t *testing.T) {
	cfg := DefaultWorldConfig()
	cfg.Gravity = mgl64.Vec3{}
	w := NewDiscreteDynamicsWorld(cfg)
	b := newBody(t, sphere(t, 1), 1, mgl64.Vec3{})
	w.AddRigidBody(b)

	b.ApplyForce(mgl64.Vec3{-500, 0, 0}, mgl64.Vec3{1, 0, 0})
	if tf := b.TotalForce(); tf.X() != -500 {
		t.Errorf("expected accumulated force -500, got %v", tf)
	}
	w.StepSimulation(frame, 1, 0)

	if b.LinearVelocity().X() >= 0 {
		t.Errorf("expected body pushed towards -x, got %v", b.LinearVelocity())
	}
	if b.TotalForce() != (mgl64.Vec3{}) {
		t.Errorf("expected forces cleared after step, got %v", b.TotalForce())
	}
}

func TestSubStepModes(t *testing.T) {
	tests := []struct {
		name     string
		dt       float64
		maxSteps int
		fixed    float64
		want     int
	}{
		{"fixed count", frame, 10, 0, 10},
		{"single", frame, 1, 0, 1},
		{"accumulated", 0.5, 10, 0.125, 4},
		{"clamped", 1, 3, 0.25, 3},
		{"too short", 0.0625, 10, 0.125, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewDiscreteDynamicsWorld(DefaultWorldConfig())
			if got := w.StepSimulation(tt.dt, tt.maxSteps, tt.fixed); got != tt.want {
				t.Errorf("expected %d sub steps, got %d", tt.want, got)
			}
		})
	}
}

func TestKinematicFollowsMotionState(t *testing.T) {
	w := NewDiscreteDynamicsWorld(DefaultWorldConfig())
	b := newBody(t, box(t, mgl64.Vec3{1, 0.1, 1}), 0, mgl64.Vec3{})
	b.SetCollisionFlags(b.CollisionFlags() | CollisionFlagKinematicObject)
	b.ForceActivationState(DisableDeactivation)
	w.AddRigidBody(b)

	target := NewTransform(mgl64.Vec3{0, 0.5, 0}, mgl64.QuatIdent())
	b.MotionState().SetWorldTransform(target)
	w.StepSimulation(frame, 10, 0)

	if got := b.WorldTransform().Origin; !got.ApproxEqualThreshold(target.Origin, 1e-9) {
		t.Errorf("expected kinematic body at %v, got %v", target.Origin, got)
	}
	if v := b.LinearVelocity().Y(); math.Abs(v-30) > 1e-6 {
		t.Errorf("expected kinematic velocity 30, got %f", v)
	}
}

func TestKinematicCarriesBody(t *testing.T) {
	w := NewDiscreteDynamicsWorld(DefaultWorldConfig())
	lift := newBody(t, box(t, mgl64.Vec3{2, 0.1, 2}), 0, mgl64.Vec3{})
	lift.SetCollisionFlags(lift.CollisionFlags() | CollisionFlagKinematicObject)
	lift.ForceActivationState(DisableDeactivation)
	w.AddRigidBody(lift)
	ball := newBody(t, sphere(t, 0.5), 1, mgl64.Vec3{0, 0.6, 0})
	w.AddRigidBody(ball)

	stepFor(w, 0.5)
	for i := 0; i < 60; i++ {
		tr := lift.MotionState().GetWorldTransform()
		tr.Origin = tr.Origin.Add(mgl64.Vec3{0, 0.02, 0})
		lift.MotionState().SetWorldTransform(tr)
		w.StepSimulation(frame, 10, 0)
	}

	if y := ball.WorldTransform().Origin.Y(); y < 1.5 {
		t.Errorf("expected ball lifted above 1.5, got %.4f", y)
	}
}

func TestBodiesFallAsleep(t *testing.T) {
	w := NewDiscreteDynamicsWorld(DefaultWorldConfig())
	ground(t, w)
	b := newBody(t, sphere(t, 0.5), 1, mgl64.Vec3{0, 1, 0})
	w.AddRigidBody(b)
	awake := newBody(t, sphere(t, 0.5), 1, mgl64.Vec3{3, 1, 0})
	awake.ForceActivationState(DisableDeactivation)
	w.AddRigidBody(awake)

	stepFor(w, 5)

	if b.IsActive() {
		t.Errorf("expected resting sphere to sleep, state %d", b.ActivationState())
	}
	if !awake.IsActive() {
		t.Error("expected DisableDeactivation body to stay awake")
	}
	awake.SetActivationState(IslandSleeping)
	if awake.ActivationState() != DisableDeactivation {
		t.Error("expected SetActivationState to keep DisableDeactivation")
	}

	b.Activate(false)
	if !b.IsActive() {
		t.Error("expected Activate to wake the sphere")
	}
}

func TestCollisionFilter(t *testing.T) {
	w := NewDiscreteDynamicsWorld(DefaultWorldConfig())
	a := newBody(t, sphere(t, 1), 1, mgl64.Vec3{})
	b := newBody(t, sphere(t, 1), 1, mgl64.Vec3{0.5, 0, 0})
	w.AddRigidBodyFiltered(a, 1, 4)
	w.AddRigidBodyFiltered(b, 2, AllFilter)

	w.StepSimulation(frame, 1, 0)

	if n := w.Dispatcher().NumManifolds(); n != 0 {
		t.Errorf("expected filtered pair to have no manifold, got %d", n)
	}
	if g, m := a.CollisionFilter(); g != 1 || m != 4 {
		t.Errorf("expected filter (1,4), got (%d,%d)", g, m)
	}
}

func TestManifoldDroppedWhenBoundsSeparate(t *testing.T) {
	cfg := DefaultWorldConfig()
	cfg.Gravity = mgl64.Vec3{}
	w := NewDiscreteDynamicsWorld(cfg)
	a := newBody(t, sphere(t, 0.5), 1, mgl64.Vec3{})
	b := newBody(t, sphere(t, 0.5), 1, mgl64.Vec3{0.9, 0, 0})
	w.AddRigidBody(a)
	w.AddRigidBody(b)

	w.StepSimulation(frame, 1, 0)
	if n := w.Dispatcher().NumManifolds(); n != 1 {
		t.Fatalf("expected 1 manifold, got %d", n)
	}

	b.SetWorldTransform(NewTransform(mgl64.Vec3{10, 0, 0}, mgl64.QuatIdent()))
	w.StepSimulation(frame, 1, 0)
	if n := w.Dispatcher().NumManifolds(); n != 0 {
		t.Errorf("expected manifold removed, got %d", n)
	}
}

func TestRemoveRigidBody(t *testing.T) {
	w := NewDiscreteDynamicsWorld(DefaultWorldConfig())
	ground(t, w)
	b := newBody(t, sphere(t, 0.5), 1, mgl64.Vec3{0, 0.5, 0})
	w.AddRigidBody(b)
	w.StepSimulation(frame, 1, 0)

	w.RemoveRigidBody(b)
	if b.InWorld() {
		t.Error("expected body detached")
	}
	if n := w.NumCollisionObjects(); n != 1 {
		t.Errorf("expected 1 body left, got %d", n)
	}
	if n := w.Dispatcher().NumManifolds(); n != 0 {
		t.Errorf("expected manifolds of removed body dropped, got %d", n)
	}
}
