package physics

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/rigidsync/internal/engine"
	"github.com/san-kum/rigidsync/internal/scene"
)

const defaultFriction = 0.5

type bodyOptions struct {
	friction    float64
	restitution float64
	rolling     float64
	filtered    bool
	group, mask int
}

type BodyOption func(*bodyOptions)

func WithFriction(f float64) BodyOption {
	return func(o *bodyOptions) { o.friction = f }
}

func WithRestitution(r float64) BodyOption {
	return func(o *bodyOptions) { o.restitution = r }
}

func WithRollingFriction(r float64) BodyOption {
	return func(o *bodyOptions) { o.rolling = r }
}

// WithCollisionFilter registers the body with an explicit group and mask
// instead of the engine defaults.
func WithCollisionFilter(group, mask int) BodyOption {
	return func(o *bodyOptions) {
		o.filtered = true
		o.group, o.mask = group, mask
	}
}

// CreateRigidBody builds a body for proxy from its current position,
// orientation and scale. The scale is written onto the shape, so a shape
// must not be shared between proxies of different scale.
func CreateRigidBody(shape engine.Shape, proxy *scene.Proxy, motion Motion, opts ...BodyOption) (*Handle, error) {
	if proxy == nil {
		return nil, ErrNilProxy
	}
	if shape == nil {
		return nil, fmt.Errorf("physics: create body for %q: %w", proxy.Name(), engine.ErrNilShape)
	}
	if err := motion.validate(); err != nil {
		return nil, fmt.Errorf("physics: create body for %q: %w", proxy.Name(), err)
	}

	if err := validScale(shape, proxy.Scale()); err != nil {
		return nil, fmt.Errorf("physics: create body for %q: %w", proxy.Name(), err)
	}

	o := bodyOptions{friction: defaultFriction}
	for _, opt := range opts {
		opt(&o)
	}

	shape.SetLocalScaling(proxy.Scale())
	mass := motion.bodyMass()
	start := engine.NewTransform(proxy.Position(), proxy.Orientation())

	info := engine.NewRigidBodyConstructionInfo(mass, engine.NewDefaultMotionState(start), shape, shape.CalculateLocalInertia(mass))
	info.Friction = o.friction
	info.Restitution = o.restitution

	body, err := engine.NewRigidBody(info)
	if err != nil {
		return nil, fmt.Errorf("physics: create body for %q: %w", proxy.Name(), err)
	}
	body.SetRollingFriction(o.rolling)
	if motion.Kind == Kinematic {
		body.SetCollisionFlags(body.CollisionFlags() | engine.CollisionFlagKinematicObject)
		body.ForceActivationState(engine.DisableDeactivation)
	}

	return &Handle{
		body:        body,
		shape:       shape,
		proxy:       proxy,
		motion:      motion,
		friction:    o.friction,
		restitution: o.restitution,
		rolling:     o.rolling,
		filtered:    o.filtered,
		group:       o.group,
		mask:        o.mask,
		slot:        -1,
	}, nil
}

// validScale rejects scales that would collapse or blow up the shape.
func validScale(shape engine.Shape, sc mgl64.Vec3) error {
	for i, v := range sc {
		if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return &engine.ShapeError{Shape: shape.Type(), Reason: fmt.Sprintf("scale axis %d is %g", i, v)}
		}
	}
	return nil
}

// NewCompound builds a compound shape from children in the given order.
func NewCompound(children ...engine.CompoundChild) (*engine.CompoundShape, error) {
	c := engine.NewCompoundShape()
	for i, ch := range children {
		if err := c.AddChildShape(ch.Transform, ch.Shape); err != nil {
			return nil, fmt.Errorf("physics: compound child %d: %w", i, err)
		}
	}
	return c, nil
}
