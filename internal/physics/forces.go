package physics

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/rigidsync/internal/scene"
)

// ApplyForce wakes the body of proxy and applies force at relPos from its
// center of mass. Proxies without a body and static bodies are ignored.
func (w *World) ApplyForce(proxy *scene.Proxy, force, relPos mgl64.Vec3) {
	h := w.HandleFor(proxy)
	if h == nil {
		w.logger.Debug("force on proxy without body", "proxy", proxyName(proxy))
		return
	}
	if h.motion.Kind != Dynamic {
		return
	}
	h.body.Activate(true)
	h.body.ApplyForce(force, relPos)
}

// ApplyCentralImpulse wakes the body and changes its velocity by
// impulse/mass.
func (w *World) ApplyCentralImpulse(h *Handle, impulse mgl64.Vec3) {
	if h == nil || h.motion.Kind != Dynamic {
		return
	}
	h.body.Activate(true)
	h.body.ApplyCentralImpulse(impulse)
}
