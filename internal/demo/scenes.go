package demo

import (
	"fmt"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/rigidsync/internal/engine"
	"github.com/san-kum/rigidsync/internal/physics"
)

const pebbles = 3

func buildDrop(s *Scene, seed int64) error {
	if err := s.addFloor(); err != nil {
		return err
	}
	if _, err := s.addSphere("ball", mgl64.Vec3{0, 4, 0}, 0.5, physics.DynamicMotion(1), physics.WithRestitution(0.3)); err != nil {
		return err
	}

	crate := proxyAt("crate", mgl64.Vec3{2.5, 6, 0})
	crate.SetOrientation(mgl64.QuatRotate(0.4, mgl64.Vec3{0, 0, 1}))
	b, err := engine.NewBoxShape(mgl64.Vec3{0.5, 0.5, 0.5})
	if err != nil {
		return err
	}
	if _, err := s.add(crate, b, physics.DynamicMotion(2)); err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(seed))
	for i := 0; i < pebbles; i++ {
		pos := mgl64.Vec3{
			-4 + 3*rng.Float64(),
			2 + 6*rng.Float64(),
			-1 + 2*rng.Float64(),
		}
		if _, err := s.addSphere(fmt.Sprintf("pebble%d", i), pos, 0.25, physics.DynamicMotion(0.2)); err != nil {
			return err
		}
	}
	return nil
}

// buildHammer registers the hammer before the button so the discovery key
// reads hammer-laserButton.
func buildHammer(s *Scene, _ int64) error {
	if err := s.addFloor(); err != nil {
		return err
	}
	hook, err := s.addBox("hook", mgl64.Vec3{-2, 5, 0}, mgl64.Vec3{0.1, 0.1, 0.1}, physics.StaticMotion())
	if err != nil {
		return err
	}
	ball, err := s.addSphere("hangingBall", mgl64.Vec3{-2, 3.5, 0}, 0.3, physics.DynamicMotion(1))
	if err != nil {
		return err
	}
	s.World.AddP2PConstraint(ball, hook, mgl64.Vec3{0, 1.5, 0}, mgl64.Vec3{})

	head, err := engine.NewBoxShape(mgl64.Vec3{0.3, 0.15, 0.3})
	if err != nil {
		return err
	}
	grip, err := engine.NewBoxShape(mgl64.Vec3{0.05, 0.35, 0.05})
	if err != nil {
		return err
	}
	hammer, err := physics.NewCompound(
		engine.CompoundChild{Transform: engine.NewTransform(mgl64.Vec3{0, -0.2, 0}, mgl64.QuatIdent()), Shape: head},
		engine.CompoundChild{Transform: engine.NewTransform(mgl64.Vec3{0, 0.3, 0}, mgl64.QuatIdent()), Shape: grip},
	)
	if err != nil {
		return err
	}
	if _, err := s.add(proxyAt("hammer", mgl64.Vec3{2, 1.5, 0}), hammer, physics.DynamicMotion(2),
		physics.WithCollisionFilter(GroupHammer, engine.AllFilter)); err != nil {
		return err
	}
	if _, err := s.addBox("laserButton", mgl64.Vec3{2, 0.1, 0}, mgl64.Vec3{0.5, 0.1, 0.5}, physics.StaticMotion(),
		physics.WithCollisionFilter(GroupButton, engine.AllFilter)); err != nil {
		return err
	}

	s.Rules = append(s.Rules, NewLaserButtonRule(s.logger))
	return nil
}

func buildDominos(s *Scene, _ int64) error {
	// The food container shares the static group bit, so the floor has to
	// accept every group.
	if err := s.addFloor(physics.WithCollisionFilter(engine.StaticFilter, engine.AllFilter)); err != nil {
		return err
	}
	for i := 0; i < dominoCount; i++ {
		pos := mgl64.Vec3{float64(i) * 0.6, 0.5, 0}
		if _, err := s.addBox(dominoName(i), pos, mgl64.Vec3{0.1, 0.5, 0.25}, physics.DynamicMotion(1),
			physics.WithCollisionFilter(GroupDomino, engine.AllFilter)); err != nil {
			return err
		}
	}
	if _, err := s.addBox("foodContainer", mgl64.Vec3{float64(dominoCount) * 0.6, 0.4, 0}, mgl64.Vec3{0.1, 0.4, 0.25}, physics.DynamicMotion(0.5),
		physics.WithCollisionFilter(GroupFoodContainer, engine.AllFilter)); err != nil {
		return err
	}

	s.Rules = append(s.Rules,
		NewKickRule(dominoName(0), mgl64.Vec3{60, 0, 0}, mgl64.Vec3{0, 0.4, 0}, 1),
		NewDominoRule(s.logger),
		NewFeedFishRule(s.logger),
	)
	return nil
}

func buildElevator(s *Scene, _ int64) error {
	if err := s.addFloor(); err != nil {
		return err
	}
	if _, err := s.addBox("elevator", mgl64.Vec3{0, 0.5, 0}, mgl64.Vec3{1, 0.1, 1}, physics.KinematicMotion()); err != nil {
		return err
	}
	if _, err := s.addSphere("elevatorBall", mgl64.Vec3{0, 0.9, 0}, 0.3, physics.DynamicMotion(1)); err != nil {
		return err
	}
	s.Rules = append(s.Rules, NewElevatorRule("elevator", "elevatorBall", 1, 3, s.logger))
	return nil
}

const ropeLinks = 4

func buildRope(s *Scene, _ int64) error {
	hook, err := s.addBox("hook", mgl64.Vec3{0, 6, 0}, mgl64.Vec3{0.1, 0.1, 0.1}, physics.StaticMotion())
	if err != nil {
		return err
	}
	prev, prevPivot := hook, mgl64.Vec3{0.2, 0, 0}
	for i := 0; i < ropeLinks; i++ {
		pos := mgl64.Vec3{0.4 * float64(i+1), 6, 0}
		link, err := s.addSphere(fmt.Sprintf("link%d", i), pos, 0.15, physics.DynamicMotion(0.5))
		if err != nil {
			return err
		}
		s.World.AddP2PConstraint(link, prev, mgl64.Vec3{-0.2, 0, 0}, prevPivot)
		prev, prevPivot = link, mgl64.Vec3{0.2, 0, 0}
	}
	return nil
}

func buildArm(s *Scene, _ int64) error {
	base, err := s.addBox("base", mgl64.Vec3{0, 1, 0}, mgl64.Vec3{0.2, 0.2, 0.2}, physics.StaticMotion())
	if err != nil {
		return err
	}
	arm, err := s.addBox("arm", mgl64.Vec3{1.5, 1, 0}, mgl64.Vec3{1, 0.1, 0.1}, physics.DynamicMotion(1))
	if err != nil {
		return err
	}
	axis := mgl64.Vec3{0, 0, 1}
	s.World.AddHingeConstraint(arm, base, mgl64.Vec3{-1.5, 0, 0}, mgl64.Vec3{}, axis, axis)
	return nil
}
