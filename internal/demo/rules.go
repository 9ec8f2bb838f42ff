package demo

import (
	"fmt"
	"math"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/rigidsync/internal/physics"
	"github.com/san-kum/rigidsync/internal/sim"
)

const (
	dominoCount = 5
	heavyMass   = 35.0
	// feedTilt is the roll, in radians, past which the food container
	// counts as tipped.
	feedTilt = 0.7
)

func dominoName(i int) string { return fmt.Sprintf("domino%d", i) }

// LaserButtonRule makes the hanging ball heavy once the hammer lands on the
// laser button, and re-pins it to its hook.
type LaserButtonRule struct {
	logger  *log.Logger
	presses int
}

func NewLaserButtonRule(logger *log.Logger) *LaserButtonRule {
	return &LaserButtonRule{logger: logger}
}

func (r *LaserButtonRule) Name() string { return "laser_button" }
func (r *LaserButtonRule) Presses() int { return r.presses }

func (r *LaserButtonRule) Apply(f sim.Frame) {
	tr := f.World.Tracker()
	if !tr.QueryNames("hammer", "laserButton") {
		return
	}
	tr.AcknowledgeNames("hammer", "laserButton")
	r.presses++

	ball, ok := f.Graph.ObjectByName("hangingBall")
	if !ok {
		return
	}
	h := f.World.HandleFor(ball)
	if h == nil || h.Motion().Mass == heavyMass {
		return
	}
	h, err := f.World.ReplaceBody(ball, physics.DynamicMotion(heavyMass))
	if err != nil {
		r.logger.Error("replace hanging ball", "err", err)
		return
	}
	if hook, ok := f.Graph.ObjectByName("hook"); ok {
		if hh := f.World.HandleFor(hook); hh != nil {
			pivot := h.Body().WorldTransform().Inverse().Apply(hh.Body().WorldTransform().Origin)
			f.World.AddP2PConstraint(h, hh, pivot, mgl64.Vec3{})
		}
	}
	r.logger.Info("laser button pressed", "frame", f.Index, "mass", heavyMass)
}

// DominoRule logs a hit for every neighbouring pair of dominos that touched
// and clears their flags.
type DominoRule struct {
	logger *log.Logger
	hits   map[string]int
}

func NewDominoRule(logger *log.Logger) *DominoRule {
	return &DominoRule{logger: logger, hits: make(map[string]int)}
}

func (r *DominoRule) Name() string { return "domino_hits" }

// Hits returns how often the pair starting at domino i fired.
func (r *DominoRule) Hits(i int) int {
	return r.hits[dominoName(i)]
}

func (r *DominoRule) Apply(f sim.Frame) {
	tr := f.World.Tracker()
	for i := 0; i < dominoCount-1; i++ {
		a, b := dominoName(i), dominoName(i+1)
		if !tr.QueryNames(a, b) {
			continue
		}
		if r.hits[a] == 0 {
			r.logger.Info("domino hit", "a", a, "b", b, "frame", f.Index)
		}
		r.hits[a]++
		tr.AcknowledgeNames(a, b)
	}
}

// FeedFishRule feeds the fish once the last domino has knocked the food
// container past feedTilt. A touch without enough tilt leaves the flag set.
type FeedFishRule struct {
	logger *log.Logger
	fed    bool
}

func NewFeedFishRule(logger *log.Logger) *FeedFishRule {
	return &FeedFishRule{logger: logger}
}

func (r *FeedFishRule) Name() string { return "feed_fish" }
func (r *FeedFishRule) Fed() bool    { return r.fed }

func (r *FeedFishRule) Apply(f sim.Frame) {
	tr := f.World.Tracker()
	if !tr.QueryNames("foodContainer", dominoName(dominoCount-1)) {
		return
	}
	food, ok := f.Graph.ObjectByName("foodContainer")
	if !ok || math.Abs(EulerZ(food.Orientation())) <= feedTilt {
		return
	}
	tr.AcknowledgeNames("foodContainer", dominoName(dominoCount-1))
	if !r.fed {
		r.logger.Info("feeding fish", "frame", f.Index)
	}
	r.fed = true
}

// EulerZ is the z angle of q decomposed in XYZ order.
func EulerZ(q mgl64.Quat) float64 {
	m := q.Normalize().Mat4()
	if math.Abs(m.At(0, 2)) >= 0.9999999 {
		return 0
	}
	return math.Atan2(-m.At(0, 1), m.At(0, 0))
}

// ElevatorRule raises a kinematic platform at speed until it reaches top,
// then pushes the ball riding on it sideways once.
type ElevatorRule struct {
	platform, ball string
	speed, top     float64
	logger         *log.Logger
	pushed         bool
}

func NewElevatorRule(platform, ball string, speed, top float64, logger *log.Logger) *ElevatorRule {
	return &ElevatorRule{platform: platform, ball: ball, speed: speed, top: top, logger: logger}
}

func (r *ElevatorRule) Name() string { return "elevator" }
func (r *ElevatorRule) Pushed() bool { return r.pushed }

func (r *ElevatorRule) Apply(f sim.Frame) {
	p, ok := f.Graph.ObjectByName(r.platform)
	if !ok {
		return
	}
	y := p.Position().Y()
	if y < r.top-1e-9 {
		f.World.MoveKinematic(p, mgl64.Vec3{0, math.Min(r.speed*f.Dt, r.top-y), 0})
		return
	}
	if r.pushed {
		return
	}
	ball, ok := f.Graph.ObjectByName(r.ball)
	if !ok {
		return
	}
	f.World.ApplyForce(ball, mgl64.Vec3{-500, 0, 0}, mgl64.Vec3{1, 0, 0})
	r.pushed = true
	r.logger.Info("elevator at top", "frame", f.Index, "y", y)
}

// KickRule applies a force to one proxy on a single frame.
type KickRule struct {
	proxy         string
	force, relPos mgl64.Vec3
	frame         int
}

func NewKickRule(proxy string, force, relPos mgl64.Vec3, frame int) *KickRule {
	return &KickRule{proxy: proxy, force: force, relPos: relPos, frame: frame}
}

func (r *KickRule) Name() string { return "kick" }

func (r *KickRule) Apply(f sim.Frame) {
	if f.Index != r.frame {
		return
	}
	if p, ok := f.Graph.ObjectByName(r.proxy); ok {
		f.World.ApplyForce(p, r.force, r.relPos)
	}
}
