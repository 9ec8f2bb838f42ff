package physics_test

import (
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/rigidsync/internal/collision"
	"github.com/san-kum/rigidsync/internal/engine"
	"github.com/san-kum/rigidsync/internal/physics"
	"github.com/san-kum/rigidsync/internal/scene"
)

const frame = 1.0 / 60

var gravity = mgl64.Vec3{0, -9.82, 0}

func proxyAt(name string, pos mgl64.Vec3) *scene.Proxy {
	p := scene.NewProxy(name)
	p.SetPosition(pos)
	return p
}

func sphere(r float64) engine.Shape {
	s, err := engine.NewSphereShape(r)
	Expect(err).NotTo(HaveOccurred())
	return s
}

func box(half mgl64.Vec3) engine.Shape {
	s, err := engine.NewBoxShape(half)
	Expect(err).NotTo(HaveOccurred())
	return s
}

func addBody(w *physics.World, shape engine.Shape, p *scene.Proxy, m physics.Motion, opts ...physics.BodyOption) *physics.Handle {
	h, err := physics.CreateRigidBody(shape, p, m, opts...)
	Expect(err).NotTo(HaveOccurred())
	w.AddBody(h)
	return h
}

func addFloor(w *physics.World) *physics.Handle {
	plane, err := engine.NewStaticPlaneShape(mgl64.Vec3{0, 1, 0}, 0)
	Expect(err).NotTo(HaveOccurred())
	return addBody(w, plane, scene.NewProxy("floor"), physics.StaticMotion())
}

func run(w *physics.World, frames int) {
	for i := 0; i < frames; i++ {
		w.Update(frame)
	}
}

func newWorld(cfg physics.Config) *physics.World {
	w := physics.New(cfg)
	w.Initialize(gravity)
	return w
}

var _ = Describe("World", func() {
	var w *physics.World

	BeforeEach(func() {
		w = newWorld(physics.DefaultConfig())
	})

	Describe("before Initialize", func() {
		It("ignores every call", func() {
			raw := physics.New(physics.DefaultConfig())
			h, err := physics.CreateRigidBody(sphere(1), scene.NewProxy("ball"), physics.DynamicMotion(1))
			Expect(err).NotTo(HaveOccurred())
			raw.AddBody(h)
			Expect(raw.Handles()).To(BeEmpty())
			Expect(raw.Update(frame)).To(BeNil())
			Expect(raw.Step(frame)).To(Equal(0))
			_, err = raw.ReplaceBody(h.Proxy(), physics.DynamicMotion(2))
			Expect(errors.Is(err, physics.ErrNotInitialized)).To(BeTrue())
		})
	})

	Describe("static bodies", func() {
		It("keep their creation transform", func() {
			floor := addFloor(w)
			pillar := proxyAt("pillar", mgl64.Vec3{2, 3, 4})
			rot := mgl64.QuatRotate(0.4, mgl64.Vec3{0, 1, 0})
			pillar.SetOrientation(rot)
			addBody(w, box(mgl64.Vec3{0.5, 3, 0.5}), pillar, physics.StaticMotion())
			ball := addBody(w, sphere(0.5), proxyAt("ball", mgl64.Vec3{2, 8, 4}), physics.DynamicMotion(1))

			run(w, 120)

			Expect(pillar.Position()).To(Equal(mgl64.Vec3{2, 3, 4}))
			Expect(pillar.Orientation().ApproxEqualThreshold(rot, 1e-12)).To(BeTrue())
			Expect(floor.Proxy().Position()).To(Equal(mgl64.Vec3{}))
			Expect(ball.Proxy().Position().Y()).To(BeNumerically(">", 6))
		})
	})

	Describe("free fall", func() {
		It("follows y0 + g t²/2", func() {
			ball := addBody(w, sphere(0.5), proxyAt("ball", mgl64.Vec3{0, 50, 0}), physics.DynamicMotion(1))
			run(w, 60)
			Expect(ball.Proxy().Position().Y()).To(BeNumerically("~", 50-0.5*9.82, 0.05))
		})

		It("clamps long frames to MaxDelta", func() {
			ball := addBody(w, sphere(0.5), proxyAt("ball", mgl64.Vec3{0, 50, 0}), physics.DynamicMotion(1))
			Expect(w.Step(5)).To(Equal(10))
			Expect(ball.Body().LinearVelocity().Y()).To(BeNumerically("~", -0.982, 1e-9))
		})
	})

	Describe("scenario: two spheres settle on a plane", func() {
		It("comes to rest at y ~1", func() {
			addFloor(w)
			a := addBody(w, sphere(1), proxyAt("a", mgl64.Vec3{-3, 10, 0}), physics.DynamicMotion(1))
			b := addBody(w, sphere(1), proxyAt("b", mgl64.Vec3{3, 10, 0}), physics.DynamicMotion(1))

			run(w, 300)

			Expect(a.Proxy().Position().Y()).To(BeNumerically("~", 1, 0.05))
			Expect(b.Proxy().Position().Y()).To(BeNumerically("~", 1, 0.05))
		})
	})

	Describe("scenario: central impulse", func() {
		It("gives impulse/mass velocity immediately", func() {
			h := addBody(w, sphere(1), proxyAt("crate", mgl64.Vec3{0, 5, 0}), physics.DynamicMotion(5))
			w.ApplyCentralImpulse(h, mgl64.Vec3{100, 0, 0})
			v := h.Body().LinearVelocity()
			Expect(v.X()).To(BeNumerically("~", 20, 1e-9))
			Expect(v.Y()).To(BeNumerically("~", 0, 1e-9))
			Expect(h.Body().AngularVelocity()).To(Equal(mgl64.Vec3{}))
		})
	})

	Describe("scenario: hammer and laser button", func() {
		var (
			hammer *physics.Handle
			key    collision.Key
		)

		BeforeEach(func() {
			cfg := physics.DefaultConfig()
			cfg.KeyPolicy = collision.PolicyDiscovery
			w = newWorld(cfg)
			hammer = addBody(w, sphere(0.5), proxyAt("hammer", mgl64.Vec3{0, 4, 0}), physics.DynamicMotion(2))
			addBody(w, box(mgl64.Vec3{1, 0.25, 1}), proxyAt("laserButton", mgl64.Vec3{}), physics.StaticMotion())
			key = collision.Key{A: "hammer", B: "laserButton"}
		})

		It("fires on the first touching step and not before", func() {
			onset := -1
			for i := 0; i < 240 && onset < 0; i++ {
				before := w.Tracker().Query(key)
				Expect(before).To(BeFalse())
				fired := w.Update(frame)
				if w.Tracker().Query(key) {
					onset = i
					Expect(fired).To(ContainElement(key))
					touching := false
					for _, m := range w.ContactManifolds() {
						for _, d := range m.Distances {
							if d <= 0 {
								touching = true
							}
						}
					}
					Expect(touching).To(BeTrue())
				}
			}
			Expect(onset).To(BeNumerically(">", 0))
			Expect(w.Tracker().Query(key.Reversed())).To(BeFalse())
		})

		It("clears on acknowledge and re-arms while touching", func() {
			run(w, 180)
			Expect(w.Tracker().Query(key)).To(BeTrue())

			w.Tracker().Acknowledge(key)
			Expect(w.Tracker().Query(key)).To(BeFalse())

			w.Update(frame)
			Expect(w.Tracker().Query(key)).To(BeTrue())
		})

		It("stays clear after acknowledge once the hammer is gone", func() {
			run(w, 180)
			w.RemoveBody(hammer)
			w.Tracker().Acknowledge(key)
			run(w, 5)
			Expect(w.Tracker().Query(key)).To(BeFalse())
		})
	})

	Describe("unnamed bodies", func() {
		It("are skipped by the tracker", func() {
			addFloor(w)
			addBody(w, sphere(0.5), proxyAt("", mgl64.Vec3{0, 0.5, 0}), physics.DynamicMotion(1))
			run(w, 10)
			Expect(w.Tracker().Known()).To(BeEmpty())
			Expect(w.Tracker().Stats().Skipped).To(BeNumerically(">", 0))
		})
	})

	Describe("kinematic bodies", func() {
		It("carry dynamic bodies and ignore forces", func() {
			lift := addBody(w, box(mgl64.Vec3{2, 0.1, 2}), proxyAt("elevator", mgl64.Vec3{}), physics.KinematicMotion())
			ball := addBody(w, sphere(0.5), proxyAt("ball", mgl64.Vec3{0, 0.6, 0}), physics.DynamicMotion(1))
			run(w, 30)

			for i := 0; i < 60; i++ {
				w.MoveKinematic(lift.Proxy(), mgl64.Vec3{0, 0.02, 0})
				w.ApplyForce(lift.Proxy(), mgl64.Vec3{1000, 0, 0}, mgl64.Vec3{})
				w.Update(frame)
			}

			Expect(lift.Proxy().Position().X()).To(BeNumerically("~", 0, 1e-9))
			Expect(lift.Proxy().Position().Y()).To(BeNumerically("~", 1.2, 1e-9))
			Expect(ball.Proxy().Position().Y()).To(BeNumerically(">", 1.5))
		})

		It("is never inferred from mass", func() {
			Expect(physics.MotionForMass(0).Kind).To(Equal(physics.Static))
			Expect(physics.MotionForMass(3)).To(Equal(physics.DynamicMotion(3)))
		})

		It("ignores kinematic moves on other bodies", func() {
			ball := addBody(w, sphere(0.5), proxyAt("ball", mgl64.Vec3{0, 5, 0}), physics.DynamicMotion(1))
			w.MoveKinematic(ball.Proxy(), mgl64.Vec3{10, 0, 0})
			w.Update(frame)
			Expect(ball.Proxy().Position().X()).To(BeNumerically("~", 0, 1e-9))
		})
	})

	Describe("registry", func() {
		It("binds proxies and bodies both ways", func() {
			h := addBody(w, sphere(1), proxyAt("ball", mgl64.Vec3{}), physics.DynamicMotion(1))
			Expect(w.HandleFor(h.Proxy())).To(BeIdenticalTo(h))
			Expect(w.ProxyFor(h.Body())).To(BeIdenticalTo(h.Proxy()))
			Expect(h.Registered()).To(BeTrue())

			w.RemoveBody(h)
			Expect(w.HandleFor(h.Proxy())).To(BeNil())
			Expect(w.ProxyFor(h.Body())).To(BeNil())
			Expect(h.Registered()).To(BeFalse())
			Expect(w.Engine().NumCollisionObjects()).To(Equal(0))
		})

		It("replaces a body and keeps the proxy", func() {
			ball := proxyAt("hangingBall", mgl64.Vec3{0, 5, 0})
			old := addBody(w, sphere(1), ball, physics.DynamicMotion(1), physics.WithFriction(0.9), physics.WithCollisionFilter(1, 3))

			h, err := w.ReplaceBody(ball, physics.DynamicMotion(35))
			Expect(err).NotTo(HaveOccurred())
			Expect(h.Body().Mass()).To(Equal(35.0))
			Expect(h.Friction()).To(Equal(0.9))
			g, m, ok := h.CollisionFilter()
			Expect(ok).To(BeTrue())
			Expect([]int{g, m}).To(Equal([]int{1, 3}))
			Expect(h.Shape()).To(BeIdenticalTo(old.Shape()))

			Expect(w.HandleFor(ball)).To(BeIdenticalTo(h))
			Expect(w.ProxyFor(old.Body())).To(BeNil())
			Expect(old.Body().InWorld()).To(BeFalse())
			Expect(w.Handles()).To(HaveLen(1))
		})

		It("refuses to replace a proxy without a body", func() {
			_, err := w.ReplaceBody(scene.NewProxy("ghost"), physics.DynamicMotion(1))
			Expect(errors.Is(err, physics.ErrNoBody)).To(BeTrue())
		})

		It("applies explicit collision filters", func() {
			addBody(w, box(mgl64.Vec3{2, 0.5, 2}), proxyAt("shelf", mgl64.Vec3{}), physics.StaticMotion(),
				physics.WithCollisionFilter(2, 2))
			ball := addBody(w, sphere(0.5), proxyAt("ball", mgl64.Vec3{0, 2, 0}), physics.DynamicMotion(1),
				physics.WithCollisionFilter(1, 1))
			run(w, 60)
			Expect(ball.Proxy().Position().Y()).To(BeNumerically("<", 0))
		})
	})

	Describe("forces", func() {
		It("ignores proxies without bodies", func() {
			Expect(func() {
				w.ApplyForce(scene.NewProxy("loading"), mgl64.Vec3{1, 0, 0}, mgl64.Vec3{})
				w.ApplyForce(nil, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{})
				w.ApplyCentralImpulse(nil, mgl64.Vec3{1, 0, 0})
			}).NotTo(Panic())
		})

		It("leaves static bodies alone", func() {
			h := addBody(w, box(mgl64.Vec3{1, 1, 1}), proxyAt("wall", mgl64.Vec3{5, 0, 0}), physics.StaticMotion())
			w.ApplyForce(h.Proxy(), mgl64.Vec3{1000, 0, 0}, mgl64.Vec3{0, 1, 0})
			w.ApplyCentralImpulse(h, mgl64.Vec3{1000, 0, 0})
			run(w, 10)
			Expect(h.Proxy().Position()).To(Equal(mgl64.Vec3{5, 0, 0}))
		})

		It("wakes a sleeping body and spins it with an offset force", func() {
			addFloor(w)
			ball := addBody(w, sphere(0.5), proxyAt("ball", mgl64.Vec3{0, 0.5, 0}), physics.DynamicMotion(1))
			run(w, 240)
			Expect(ball.Body().IsActive()).To(BeFalse())

			w.ApplyForce(ball.Proxy(), mgl64.Vec3{-500, 0, 0}, mgl64.Vec3{0, 1, 0})
			Expect(ball.Body().IsActive()).To(BeTrue())
			w.Update(frame)
			Expect(ball.Body().LinearVelocity().X()).To(BeNumerically("<", 0))
			Expect(ball.Body().AngularVelocity().Len()).To(BeNumerically(">", 0))
		})
	})

	Describe("constraints", func() {
		It("returns nil for missing bodies", func() {
			h := addBody(w, sphere(1), proxyAt("ball", mgl64.Vec3{}), physics.DynamicMotion(1))
			Expect(w.AddP2PConstraint(h, nil, mgl64.Vec3{}, mgl64.Vec3{})).To(BeNil())
			Expect(w.AddHingeConstraint(nil, h, mgl64.Vec3{}, mgl64.Vec3{}, mgl64.Vec3{0, 0, 1}, mgl64.Vec3{0, 0, 1})).To(BeNil())
			Expect(w.Joints()).To(BeEmpty())
		})

		It("keeps a point joint together", func() {
			anchor := addBody(w, box(mgl64.Vec3{0.2, 0.2, 0.2}), proxyAt("anchor", mgl64.Vec3{0, 10, 0}), physics.StaticMotion())
			bob := addBody(w, sphere(0.3), proxyAt("bob", mgl64.Vec3{2, 10, 0}), physics.DynamicMotion(1))
			c := w.AddP2PConstraint(bob, anchor, mgl64.Vec3{-2, 0, 0}, mgl64.Vec3{})
			Expect(c).NotTo(BeNil())

			run(w, 120)
			Expect(c.PivotSeparation()).To(BeNumerically("<", 0.05))
			Expect(bob.Proxy().Position().Y()).To(BeNumerically("<", 10))
		})

		It("drops joints together with their body", func() {
			anchor := addBody(w, box(mgl64.Vec3{0.2, 0.2, 0.2}), proxyAt("anchor", mgl64.Vec3{0, 10, 0}), physics.StaticMotion())
			bob := addBody(w, sphere(0.3), proxyAt("bob", mgl64.Vec3{2, 10, 0}), physics.DynamicMotion(1))
			w.AddP2PConstraint(bob, anchor, mgl64.Vec3{-2, 0, 0}, mgl64.Vec3{})
			Expect(w.Joints()).To(HaveLen(1))

			w.RemoveBody(bob)
			Expect(w.Joints()).To(BeEmpty())
			Expect(w.Engine().Constraints()).To(BeEmpty())
		})

		It("drives hinges with the configured motor", func() {
			cfg := physics.DefaultConfig()
			w = physics.New(cfg)
			w.Initialize(mgl64.Vec3{})
			base := addBody(w, box(mgl64.Vec3{0.2, 0.2, 0.2}), proxyAt("base", mgl64.Vec3{}), physics.StaticMotion())
			arm := addBody(w, box(mgl64.Vec3{1, 0.1, 0.1}), proxyAt("arm", mgl64.Vec3{1.5, 0, 0}), physics.DynamicMotion(1))
			axis := mgl64.Vec3{0, 0, 1}
			h := w.AddHingeConstraint(arm, base, mgl64.Vec3{-1.5, 0, 0}, mgl64.Vec3{}, axis, axis)
			Expect(h.MotorEnabled()).To(BeTrue())
			Expect(h.MotorTargetVelocity()).To(Equal(cfg.HingeMotor.TargetVelocity))
			Expect(h.MaxMotorImpulse()).To(Equal(cfg.HingeMotor.MaxImpulse))

			run(w, 60)
			Expect(h.RelativeAngularVelocity()).To(BeNumerically("~", 1, 0.05))
		})
	})

	Describe("compound bodies", func() {
		It("have the same world geometry whatever the child order", func() {
			children := func() []engine.CompoundChild {
				return []engine.CompoundChild{
					{Transform: engine.NewTransform(mgl64.Vec3{0, 0, 0}, mgl64.QuatIdent()), Shape: box(mgl64.Vec3{1, 0.1, 1})},
					{Transform: engine.NewTransform(mgl64.Vec3{0, 1, 0}, mgl64.QuatIdent()), Shape: sphere(0.4)},
					{Transform: engine.NewTransform(mgl64.Vec3{0.8, 0.5, 0}, mgl64.QuatRotate(0.3, mgl64.Vec3{1, 0, 0})), Shape: box(mgl64.Vec3{0.1, 0.5, 0.1})},
				}
			}
			fwd := children()
			rev := children()
			rev[0], rev[2] = rev[2], rev[0]

			a, err := physics.NewCompound(fwd...)
			Expect(err).NotTo(HaveOccurred())
			b, err := physics.NewCompound(rev...)
			Expect(err).NotTo(HaveOccurred())

			pose := mgl64.QuatRotate(0.7, mgl64.Vec3{0, 1, 0})
			pa := proxyAt("tableA", mgl64.Vec3{1, 2, 3})
			pa.SetOrientation(pose)
			pb := proxyAt("tableB", mgl64.Vec3{1, 2, 3})
			pb.SetOrientation(pose)
			ha := addBody(w, a, pa, physics.DynamicMotion(2))
			hb := addBody(w, b, pb, physics.DynamicMotion(2))

			loA, hiA := ha.Shape().AABB(ha.Body().WorldTransform())
			loB, hiB := hb.Shape().AABB(hb.Body().WorldTransform())
			for i := 0; i < 3; i++ {
				Expect(loA[i]).To(BeNumerically("~", loB[i], 1e-9))
				Expect(hiA[i]).To(BeNumerically("~", hiB[i], 1e-9))
			}
			Expect(ha.Body().LocalInertia().ApproxEqualThreshold(hb.Body().LocalInertia(), 1e-9)).To(BeTrue())
		})

		It("rejects nested compounds", func() {
			inner := engine.NewCompoundShape()
			_, err := physics.NewCompound(engine.CompoundChild{Transform: engine.IdentityTransform(), Shape: inner})
			Expect(errors.Is(err, engine.ErrNestedCompound)).To(BeTrue())
		})
	})

	Describe("CreateRigidBody", func() {
		It("writes the proxy scale onto the shape", func() {
			s := box(mgl64.Vec3{1, 1, 1}).(*engine.BoxShape)
			p := proxyAt("crate", mgl64.Vec3{})
			p.SetScale(mgl64.Vec3{2, 1, 3})
			_, err := physics.CreateRigidBody(s, p, physics.DynamicMotion(1))
			Expect(err).NotTo(HaveOccurred())
			Expect(s.HalfExtents()).To(Equal(mgl64.Vec3{2, 1, 3}))
		})

		It("gives static bodies zero inertia", func() {
			h, err := physics.CreateRigidBody(sphere(1), proxyAt("rock", mgl64.Vec3{}), physics.StaticMotion())
			Expect(err).NotTo(HaveOccurred())
			Expect(h.Body().LocalInertia()).To(Equal(mgl64.Vec3{}))
			Expect(h.Body().InvMass()).To(Equal(0.0))
		})

		It("rejects bad input", func() {
			_, err := physics.CreateRigidBody(sphere(1), nil, physics.StaticMotion())
			Expect(errors.Is(err, physics.ErrNilProxy)).To(BeTrue())

			_, err = physics.CreateRigidBody(nil, scene.NewProxy("x"), physics.StaticMotion())
			Expect(errors.Is(err, engine.ErrNilShape)).To(BeTrue())

			_, err = physics.CreateRigidBody(sphere(1), scene.NewProxy("x"), physics.DynamicMotion(-1))
			Expect(errors.Is(err, physics.ErrInvalidMass)).To(BeTrue())

			_, err = physics.CreateRigidBody(sphere(1), scene.NewProxy("x"), physics.DynamicMotion(0))
			Expect(errors.Is(err, physics.ErrInvalidMass)).To(BeTrue())
		})

		It("rejects zero and non-finite proxy scales", func() {
			for _, sc := range []mgl64.Vec3{{1, 0, 1}, {math.NaN(), 1, 1}, {1, 1, math.Inf(1)}} {
				shape := box(mgl64.Vec3{1, 1, 1}).(*engine.BoxShape)
				p := scene.NewProxy("flat")
				p.SetScale(sc)
				_, err := physics.CreateRigidBody(shape, p, physics.DynamicMotion(1))
				Expect(errors.Is(err, engine.ErrDegenerateShape)).To(BeTrue(), "scale %v", sc)

				var se *engine.ShapeError
				Expect(errors.As(err, &se)).To(BeTrue())
				Expect(se.Shape).To(Equal(engine.BoxShapeType))
				Expect(shape.HalfExtents()).To(Equal(mgl64.Vec3{1, 1, 1}))
			}
		})

		It("marks kinematic bodies explicitly", func() {
			h, err := physics.CreateRigidBody(box(mgl64.Vec3{1, 1, 1}), scene.NewProxy("lift"), physics.KinematicMotion())
			Expect(err).NotTo(HaveOccurred())
			Expect(h.Body().IsKinematicObject()).To(BeTrue())
			Expect(h.Body().ActivationState()).To(Equal(engine.DisableDeactivation))
		})
	})
})
