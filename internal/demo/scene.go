package demo

import (
	"errors"
	"fmt"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/rigidsync/internal/engine"
	"github.com/san-kum/rigidsync/internal/physics"
	"github.com/san-kum/rigidsync/internal/scene"
	"github.com/san-kum/rigidsync/internal/sim"
)

const (
	GroupDomino        = 1
	GroupFoodContainer = 2
	GroupHammer        = 4
	GroupButton        = 8
)

var ErrUnknownScene = errors.New("demo: unknown scene")

type Options struct {
	Physics physics.Config
	Gravity mgl64.Vec3
	Seed    int64
	Logger  *log.Logger
}

func DefaultOptions() Options {
	return Options{
		Physics: physics.DefaultConfig(),
		Gravity: mgl64.Vec3{0, -9.82, 0},
	}
}

// Scene is a populated world, its proxies and the rules that drive it.
type Scene struct {
	Name  string
	World *physics.World
	Graph *scene.Graph
	Rules []sim.Rule

	logger *log.Logger
}

type entry struct {
	description string
	build       func(s *Scene, seed int64) error
}

var registry = map[string]entry{
	"drop":     {"spheres and a crate dropped on a floor", buildDrop},
	"hammer":   {"hammer on a laser button swaps a hanging ball for a heavy one", buildHammer},
	"dominos":  {"domino chain tipping a food container", buildDominos},
	"elevator": {"kinematic elevator that throws its ball at the top", buildElevator},
	"rope":     {"spheres chained to a hook with point joints", buildRope},
	"arm":      {"motorised hinge arm", buildArm},
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func Description(name string) string {
	return registry[name].description
}

// Build creates a fresh world and populates it with the named scene.
func Build(name string, opts Options) (*Scene, error) {
	e, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s (available: %v)", ErrUnknownScene, name, Names())
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	w := physics.New(opts.Physics, physics.WithLogger(logger))
	w.Initialize(opts.Gravity)
	s := &Scene{
		Name:   name,
		World:  w,
		Graph:  scene.NewGraph(),
		logger: logger,
	}
	if err := e.build(s, opts.Seed); err != nil {
		return nil, fmt.Errorf("demo: build %s: %w", name, err)
	}
	logger.Info("scene built", "scene", name, "bodies", len(w.Handles()), "joints", len(w.Joints()))
	return s, nil
}

// Handle returns the current body of the named proxy.
func (s *Scene) Handle(name string) *physics.Handle {
	p, ok := s.Graph.ObjectByName(name)
	if !ok {
		return nil
	}
	return s.World.HandleFor(p)
}

// Driver wires the scene rules into a new frame driver.
func (s *Scene) Driver(opts ...sim.Option) *sim.Driver {
	d := sim.New(s.World, s.Graph, append([]sim.Option{sim.WithLogger(s.logger)}, opts...)...)
	for _, r := range s.Rules {
		d.AddRule(r)
	}
	return d
}

func proxyAt(name string, pos mgl64.Vec3) *scene.Proxy {
	p := scene.NewProxy(name)
	p.SetPosition(pos)
	return p
}

func (s *Scene) add(p *scene.Proxy, shape engine.Shape, motion physics.Motion, opts ...physics.BodyOption) (*physics.Handle, error) {
	if err := s.Graph.Add(p); err != nil {
		return nil, err
	}
	h, err := physics.CreateRigidBody(shape, p, motion, opts...)
	if err != nil {
		return nil, err
	}
	s.World.AddBody(h)
	return h, nil
}

func (s *Scene) addFloor(opts ...physics.BodyOption) error {
	plane, err := engine.NewStaticPlaneShape(mgl64.Vec3{0, 1, 0}, 0)
	if err != nil {
		return err
	}
	_, err = s.add(scene.NewProxy("floor"), plane, physics.StaticMotion(), opts...)
	return err
}

func (s *Scene) addBox(name string, pos, half mgl64.Vec3, motion physics.Motion, opts ...physics.BodyOption) (*physics.Handle, error) {
	b, err := engine.NewBoxShape(half)
	if err != nil {
		return nil, err
	}
	return s.add(proxyAt(name, pos), b, motion, opts...)
}

func (s *Scene) addSphere(name string, pos mgl64.Vec3, radius float64, motion physics.Motion, opts ...physics.BodyOption) (*physics.Handle, error) {
	sp, err := engine.NewSphereShape(radius)
	if err != nil {
		return nil, err
	}
	return s.add(proxyAt(name, pos), sp, motion, opts...)
}
