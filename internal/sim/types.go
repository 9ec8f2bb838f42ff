package sim

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/rigidsync/internal/collision"
	"github.com/san-kum/rigidsync/internal/physics"
	"github.com/san-kum/rigidsync/internal/scene"
)

// Frame is what rules, metrics and observers see after each update.
type Frame struct {
	Index  int
	Time   float64
	Dt     float64
	World  *physics.World
	Graph  *scene.Graph
	Onsets []collision.Key
}

// Rule reacts to collision flags and may change the world between frames.
type Rule interface {
	Name() string
	Apply(f Frame)
}

type Metric interface {
	Name() string
	Observe(f Frame)
	Value() float64
	Reset()
}

type Observer interface {
	OnFrame(f Frame)
}

type Config struct {
	Dt       float64
	Duration float64
	Seed     int64
	// Track names the proxies whose positions are recorded. Empty records
	// every named proxy with a body.
	Track         []string
	ValidateState bool
}

func DefaultConfig() Config {
	return Config{
		Dt:            1.0 / 60.0,
		Duration:      10,
		ValidateState: true,
	}
}

type Track struct {
	Name      string
	Positions []mgl64.Vec3
}

type Onset struct {
	Frame int
	Time  float64
	Key   collision.Key
}

type Result struct {
	Times      []float64
	Tracks     []Track
	Onsets     []Onset
	Metrics    map[string]float64
	StepsTaken int
	Errors     []error
}

// Track returns the recorded positions of name.
func (r *Result) Track(name string) ([]mgl64.Vec3, bool) {
	for _, t := range r.Tracks {
		if t.Name == name {
			return t.Positions, true
		}
	}
	return nil, false
}

type SimError struct {
	Time    float64
	Step    int
	Message string
}

func (e SimError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %s", e.Step, e.Time, e.Message)
}

func validPosition(v mgl64.Vec3) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
