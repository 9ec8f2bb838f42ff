package metrics

import (
	"math"

	"github.com/san-kum/rigidsync/internal/physics"
	"github.com/san-kum/rigidsync/internal/sim"
)

// KineticEnergy is the mean total kinetic energy of the dynamic bodies,
// translational plus rotational, over the observed frames.
type KineticEnergy struct {
	name        string
	samples     int
	totalEnergy float64
}

func NewKineticEnergy() *KineticEnergy {
	return &KineticEnergy{name: "kinetic_energy"}
}

func (e *KineticEnergy) Name() string { return e.name }

func (e *KineticEnergy) Observe(f sim.Frame) {
	e.totalEnergy += TotalKineticEnergy(f.World)
	e.samples++
}

func (e *KineticEnergy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.totalEnergy / float64(e.samples)
}

func (e *KineticEnergy) Reset() {
	e.totalEnergy = 0
	e.samples = 0
}

// TotalKineticEnergy sums the kinetic energy of every dynamic body in w.
func TotalKineticEnergy(w *physics.World) float64 {
	var total float64
	for _, h := range w.Handles() {
		if h.Motion().Kind != physics.Dynamic {
			continue
		}
		b := h.Body()
		v := b.LinearVelocity()
		total += 0.5 * b.Mass() * v.Dot(v)

		local := b.WorldTransform().Rotation.Conjugate().Rotate(b.AngularVelocity())
		inertia := b.LocalInertia()
		for i := 0; i < 3; i++ {
			total += 0.5 * inertia[i] * local[i] * local[i]
		}
	}
	return total
}

// MaxSpeed is the largest linear speed any dynamic body reached.
type MaxSpeed struct {
	name string
	max  float64
}

func NewMaxSpeed() *MaxSpeed {
	return &MaxSpeed{name: "max_speed"}
}

func (m *MaxSpeed) Name() string { return m.name }

func (m *MaxSpeed) Observe(f sim.Frame) {
	for _, h := range f.World.Handles() {
		if h.Motion().Kind != physics.Dynamic {
			continue
		}
		m.max = math.Max(m.max, h.Body().LinearVelocity().Len())
	}
}

func (m *MaxSpeed) Value() float64 { return m.max }

func (m *MaxSpeed) Reset() { m.max = 0 }
