package physics

import (
	"github.com/san-kum/rigidsync/internal/collision"
)

type MotorConfig struct {
	TargetVelocity float64
	MaxImpulse     float64
}

type Config struct {
	// SubSteps is the number of solver steps per Step call. With
	// FixedTimeStep zero every call runs exactly this many.
	SubSteps int
	// FixedTimeStep switches to an accumulator of fixed internal steps, at
	// most SubSteps per call.
	FixedTimeStep float64
	// MaxDelta clamps the frame delta passed to Step; zero disables it.
	MaxDelta         float64
	SolverIterations int
	KeyPolicy        collision.Policy
	HingeMotor       MotorConfig
}

func DefaultConfig() Config {
	return Config{
		SubSteps:         10,
		FixedTimeStep:    0,
		MaxDelta:         0.1,
		SolverIterations: 10,
		KeyPolicy:        collision.PolicyCanonical,
		HingeMotor: MotorConfig{
			TargetVelocity: 1,
			MaxImpulse:     50,
		},
	}
}
