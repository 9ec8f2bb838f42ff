package scene

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Proxy is the visual object mirrored from a rigid body. Its name is used
// for lookups and for building collision keys.
type Proxy struct {
	name     string
	position mgl64.Vec3
	rotation mgl64.Quat
	scale    mgl64.Vec3
	children []*Proxy

	bodyIndex int
}

func NewProxy(name string) *Proxy {
	return &Proxy{
		name:      name,
		rotation:  mgl64.QuatIdent(),
		scale:     mgl64.Vec3{1, 1, 1},
		bodyIndex: -1,
	}
}

func (p *Proxy) Name() string { return p.name }

func (p *Proxy) Position() mgl64.Vec3     { return p.position }
func (p *Proxy) SetPosition(v mgl64.Vec3) { p.position = v }

func (p *Proxy) Orientation() mgl64.Quat { return p.rotation }

// SetOrientation stores q normalized; a zero quaternion resets to identity.
func (p *Proxy) SetOrientation(q mgl64.Quat) {
	if q.Len() == 0 {
		p.rotation = mgl64.QuatIdent()
		return
	}
	p.rotation = q.Normalize()
}

func (p *Proxy) Scale() mgl64.Vec3     { return p.scale }
func (p *Proxy) SetScale(s mgl64.Vec3) { p.scale = s }

// Add groups child under p for display. Children have no physics
// relationship with their parent.
func (p *Proxy) Add(child *Proxy) {
	if child != nil && child != p {
		p.children = append(p.children, child)
	}
}

func (p *Proxy) Children() []*Proxy { return p.children }

// BodyIndex returns the arena slot of the body bound to p.
func (p *Proxy) BodyIndex() (int, bool) {
	return p.bodyIndex, p.bodyIndex >= 0
}

func (p *Proxy) BindBody(i int) { p.bodyIndex = i }
func (p *Proxy) UnbindBody()    { p.bodyIndex = -1 }

// Transform returns a copy of the pose for display or recording.
func (p *Proxy) Transform() (mgl64.Vec3, mgl64.Quat) {
	return p.position, p.rotation
}
