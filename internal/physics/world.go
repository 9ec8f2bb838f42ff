package physics

import (
	"math"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/rigidsync/internal/collision"
	"github.com/san-kum/rigidsync/internal/engine"
	"github.com/san-kum/rigidsync/internal/scene"
)

// World owns the dynamics world and the body registry. Registered handles
// live in an arena; each proxy stores the slot of its body and each body
// stores its slot as user index.
type World struct {
	cfg    Config
	dyn    *engine.World
	slots  []*Handle
	free   []int
	joints []engine.Constraint

	tracker *collision.Tracker
	logger  *log.Logger
	sync    SyncStats
}

type Option func(*World)

func WithLogger(l *log.Logger) Option {
	return func(w *World) { w.logger = l }
}

// WithTracker replaces the tracker built from Config.KeyPolicy.
func WithTracker(t *collision.Tracker) Option {
	return func(w *World) { w.tracker = t }
}

func New(cfg Config, opts ...Option) *World {
	if cfg.SubSteps <= 0 {
		cfg.SubSteps = DefaultConfig().SubSteps
	}
	w := &World{cfg: cfg, logger: log.Default()}
	for _, opt := range opts {
		opt(w)
	}
	if w.tracker == nil {
		w.tracker = collision.NewTracker(collision.WithPolicy(cfg.KeyPolicy), collision.WithLogger(w.logger))
	}
	return w
}

// Initialize creates the dynamics world with a fixed gravity. Until it is
// called every other method does nothing.
func (w *World) Initialize(gravity mgl64.Vec3) {
	wc := engine.DefaultWorldConfig()
	wc.Gravity = gravity
	if w.cfg.SolverIterations > 0 {
		wc.SolverIterations = w.cfg.SolverIterations
	}
	w.dyn = engine.NewDiscreteDynamicsWorld(wc)
}

func (w *World) Initialized() bool           { return w.dyn != nil }
func (w *World) Engine() *engine.World       { return w.dyn }
func (w *World) Tracker() *collision.Tracker { return w.tracker }
func (w *World) Config() Config              { return w.cfg }
func (w *World) Logger() *log.Logger         { return w.logger }
func (w *World) Joints() []engine.Constraint { return w.joints }

// AddBody registers h with the world and binds its proxy. Handles already
// registered are left alone.
func (w *World) AddBody(h *Handle) {
	if h == nil || w.dyn == nil {
		w.logger.Debug("add body skipped", "nil_handle", h == nil, "initialized", w.dyn != nil)
		return
	}
	if h.slot >= 0 {
		return
	}

	slot := len(w.slots)
	if n := len(w.free); n > 0 {
		slot = w.free[n-1]
		w.free = w.free[:n-1]
		w.slots[slot] = h
	} else {
		w.slots = append(w.slots, h)
	}
	h.slot = slot
	h.body.SetUserIndex(slot)
	h.proxy.BindBody(slot)

	if h.filtered {
		w.dyn.AddRigidBodyFiltered(h.body, h.group, h.mask)
	} else {
		w.dyn.AddRigidBody(h.body)
	}
}

// RemoveBody unregisters h together with the joints attached to it. The
// proxy is kept and unbound.
func (w *World) RemoveBody(h *Handle) {
	if h == nil || w.dyn == nil || h.slot < 0 {
		return
	}
	w.dropJoints(h.body)
	w.dyn.RemoveRigidBody(h.body)
	w.slots[h.slot] = nil
	w.free = append(w.free, h.slot)
	if i, ok := h.proxy.BodyIndex(); ok && i == h.slot {
		h.proxy.UnbindBody()
	}
	h.body.SetUserIndex(-1)
	h.slot = -1
}

// ReplaceBody rebuilds the body of proxy with a new motion, keeping its
// shape, surface properties and filter unless opts override them. The new
// body starts at rest at the proxy's current pose.
func (w *World) ReplaceBody(proxy *scene.Proxy, motion Motion, opts ...BodyOption) (*Handle, error) {
	if w.dyn == nil {
		return nil, ErrNotInitialized
	}
	old := w.HandleFor(proxy)
	if old == nil {
		return nil, ErrNoBody
	}

	base := []BodyOption{
		WithFriction(old.friction),
		WithRestitution(old.restitution),
		WithRollingFriction(old.rolling),
	}
	if old.filtered {
		base = append(base, WithCollisionFilter(old.group, old.mask))
	}
	h, err := CreateRigidBody(old.shape, proxy, motion, append(base, opts...)...)
	if err != nil {
		return nil, err
	}
	w.RemoveBody(old)
	w.AddBody(h)
	w.logger.Debug("replaced body", "proxy", proxy.Name(), "motion", motion)
	return h, nil
}

func (w *World) HandleFor(proxy *scene.Proxy) *Handle {
	if proxy == nil {
		return nil
	}
	i, ok := proxy.BodyIndex()
	if !ok || i >= len(w.slots) {
		return nil
	}
	h := w.slots[i]
	if h == nil || h.proxy != proxy {
		return nil
	}
	return h
}

func (w *World) ProxyFor(body *engine.RigidBody) *scene.Proxy {
	if body == nil {
		return nil
	}
	i := body.UserIndex()
	if i < 0 || i >= len(w.slots) {
		return nil
	}
	h := w.slots[i]
	if h == nil || h.body != body {
		return nil
	}
	return h.proxy
}

// Handles returns the registered handles in slot order.
func (w *World) Handles() []*Handle {
	out := make([]*Handle, 0, len(w.slots))
	for _, h := range w.slots {
		if h != nil {
			out = append(out, h)
		}
	}
	return out
}

// Step advances the simulation by dt, clamped to MaxDelta, and returns the
// number of solver sub steps taken.
func (w *World) Step(dt float64) int {
	if w.dyn == nil || !(dt > 0) || math.IsInf(dt, 0) {
		return 0
	}
	if w.cfg.MaxDelta > 0 && dt > w.cfg.MaxDelta {
		w.logger.Debug("clamping frame delta", "dt", dt, "max", w.cfg.MaxDelta)
		dt = w.cfg.MaxDelta
	}
	return w.dyn.StepSimulation(dt, w.cfg.SubSteps, w.cfg.FixedTimeStep)
}

// Update runs one frame: step, copy poses to proxies, then scan contacts.
// It returns the collision keys that fired during this frame.
func (w *World) Update(dt float64) []collision.Key {
	if w.dyn == nil {
		return nil
	}
	w.Step(dt)
	w.SyncTransforms()
	return w.tracker.Scan(w)
}

// ContactManifolds resolves the engine manifolds that have contacts to
// proxy names, in discovery order.
func (w *World) ContactManifolds() []collision.Manifold {
	if w.dyn == nil {
		return nil
	}
	d := w.dyn.Dispatcher()
	out := make([]collision.Manifold, 0, d.NumManifolds())
	for i := 0; i < d.NumManifolds(); i++ {
		m := d.ManifoldByIndexInternal(i)
		if m.NumContacts() == 0 {
			continue
		}
		cm := collision.Manifold{
			NameA:     w.nameOf(m.Body0()),
			NameB:     w.nameOf(m.Body1()),
			Distances: make([]float64, m.NumContacts()),
		}
		for j := range cm.Distances {
			cm.Distances[j] = m.ContactPoint(j).Distance()
		}
		out = append(out, cm)
	}
	return out
}

func (w *World) nameOf(b *engine.RigidBody) string {
	if p := w.ProxyFor(b); p != nil {
		return p.Name()
	}
	return ""
}

// MoveKinematic shifts the target pose of a kinematic body by delta. The
// body reaches it during the next step.
func (w *World) MoveKinematic(proxy *scene.Proxy, delta mgl64.Vec3) {
	h := w.kinematic(proxy)
	if h == nil {
		return
	}
	ms := h.body.MotionState()
	t := ms.GetWorldTransform()
	t.Origin = t.Origin.Add(delta)
	ms.SetWorldTransform(t)
}

func (w *World) SetKinematicPose(proxy *scene.Proxy, pos mgl64.Vec3, rot mgl64.Quat) {
	h := w.kinematic(proxy)
	if h == nil {
		return
	}
	h.body.MotionState().SetWorldTransform(engine.NewTransform(pos, rot))
}

func (w *World) kinematic(proxy *scene.Proxy) *Handle {
	h := w.HandleFor(proxy)
	if h == nil || h.motion.Kind != Kinematic {
		w.logger.Debug("kinematic move skipped", "proxy", proxyName(proxy))
		return nil
	}
	return h
}

func proxyName(p *scene.Proxy) string {
	if p == nil {
		return ""
	}
	return p.Name()
}
