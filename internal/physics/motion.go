package physics

import (
	"fmt"
	"math"
)

type MotionKind int

const (
	Static MotionKind = iota
	Dynamic
	Kinematic
)

func (k MotionKind) String() string {
	switch k {
	case Static:
		return "static"
	case Dynamic:
		return "dynamic"
	case Kinematic:
		return "kinematic"
	default:
		return fmt.Sprintf("MotionKind(%d)", int(k))
	}
}

// Motion says how a body moves. It is fixed when the body is created; the
// mass is only meaningful for dynamic bodies.
type Motion struct {
	Kind MotionKind
	Mass float64
}

func StaticMotion() Motion { return Motion{Kind: Static} }

func DynamicMotion(mass float64) Motion { return Motion{Kind: Dynamic, Mass: mass} }

// KinematicMotion is a body moved by writing its pose each frame. It pushes
// dynamic bodies but ignores gravity and forces.
func KinematicMotion() Motion { return Motion{Kind: Kinematic} }

// MotionForMass maps a bare mass to a motion: zero is static, anything else
// dynamic. It never yields a kinematic motion.
func MotionForMass(mass float64) Motion {
	if mass == 0 {
		return StaticMotion()
	}
	return DynamicMotion(mass)
}

func (m Motion) validate() error {
	if m.Kind != Dynamic {
		return nil
	}
	if !(m.Mass > 0) || math.IsInf(m.Mass, 0) {
		return fmt.Errorf("%w: %g", ErrInvalidMass, m.Mass)
	}
	return nil
}

// bodyMass is the mass handed to the engine; static and kinematic bodies
// have infinite mass.
func (m Motion) bodyMass() float64 {
	if m.Kind == Dynamic {
		return m.Mass
	}
	return 0
}

func (m Motion) String() string {
	if m.Kind == Dynamic {
		return fmt.Sprintf("dynamic(%g)", m.Mass)
	}
	return m.Kind.String()
}
