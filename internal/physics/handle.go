package physics

import (
	"github.com/san-kum/rigidsync/internal/engine"
	"github.com/san-kum/rigidsync/internal/scene"
)

// Handle is a rigid body together with everything needed to rebuild it:
// its shape, motion, surface properties, filter and owning proxy.
type Handle struct {
	body   *engine.RigidBody
	shape  engine.Shape
	proxy  *scene.Proxy
	motion Motion

	friction    float64
	restitution float64
	rolling     float64

	filtered    bool
	group, mask int

	slot int
}

func (h *Handle) Body() *engine.RigidBody { return h.body }
func (h *Handle) Shape() engine.Shape     { return h.shape }
func (h *Handle) Proxy() *scene.Proxy     { return h.proxy }
func (h *Handle) Motion() Motion          { return h.motion }
func (h *Handle) Friction() float64       { return h.friction }
func (h *Handle) Restitution() float64    { return h.restitution }
func (h *Handle) RollingFriction() float64 {
	return h.rolling
}

// CollisionFilter returns the explicit group and mask; ok is false when the
// engine defaults apply.
func (h *Handle) CollisionFilter() (group, mask int, ok bool) {
	return h.group, h.mask, h.filtered
}

// Registered reports whether the handle is currently in a world.
func (h *Handle) Registered() bool { return h.slot >= 0 }

func (h *Handle) Name() string {
	if h.proxy == nil {
		return ""
	}
	return h.proxy.Name()
}
