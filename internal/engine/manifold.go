package engine

import (
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// ManifoldPoint is one contact between the two bodies of a manifold.
type ManifoldPoint struct {
	pointA, pointB mgl64.Vec3
	normal         mgl64.Vec3
	distance       float64
	appliedImpulse float64
	lifeTime       int
}

// Distance is negative when the bodies interpenetrate.
func (p ManifoldPoint) Distance() float64            { return p.distance }
func (p ManifoldPoint) PositionWorldOnA() mgl64.Vec3 { return p.pointA }
func (p ManifoldPoint) PositionWorldOnB() mgl64.Vec3 { return p.pointB }
func (p ManifoldPoint) NormalWorldOnB() mgl64.Vec3   { return p.normal }
func (p ManifoldPoint) AppliedImpulse() float64      { return p.appliedImpulse }
func (p ManifoldPoint) LifeTime() int                { return p.lifeTime }

func (p ManifoldPoint) String() string {
	return fmt.Sprintf("contact(a=%v b=%v d=%.4f)", p.pointA, p.pointB, p.distance)
}

// PersistentManifold holds up to four contacts for an overlapping pair. It
// lives as long as the pair's bounds overlap, so it may report zero contacts.
type PersistentManifold struct {
	body0, body1 *RigidBody
	points       []ManifoldPoint
}

func (m *PersistentManifold) Body0() *RigidBody { return m.body0 }
func (m *PersistentManifold) Body1() *RigidBody { return m.body1 }
func (m *PersistentManifold) NumContacts() int  { return len(m.points) }

func (m *PersistentManifold) ContactPoint(i int) ManifoldPoint { return m.points[i] }

// refresh replaces the contacts with cs, carrying impulse and age over from
// nearby previous points.
func (m *PersistentManifold) refresh(cs []contact) {
	const matchDist = 0.02
	next := make([]ManifoldPoint, 0, len(cs))
	for _, c := range cs {
		p := ManifoldPoint{pointA: c.pointA, pointB: c.pointB, normal: c.normal, distance: c.distance}
		for _, old := range m.points {
			if old.pointB.Sub(c.pointB).LenSqr() < matchDist*matchDist {
				p.appliedImpulse = old.appliedImpulse
				p.lifeTime = old.lifeTime + 1
				break
			}
		}
		next = append(next, p)
	}
	m.points = next
}

type pairKey struct {
	lo, hi int64
}

// Dispatcher owns the contact manifolds of a world, ordered by the
// registration order of their bodies.
type Dispatcher struct {
	manifolds []*PersistentManifold
	byPair    map[pairKey]*PersistentManifold
}

func newDispatcher() *Dispatcher {
	return &Dispatcher{byPair: make(map[pairKey]*PersistentManifold)}
}

func (d *Dispatcher) NumManifolds() int { return len(d.manifolds) }

func (d *Dispatcher) ManifoldByIndexInternal(i int) *PersistentManifold {
	return d.manifolds[i]
}

func (d *Dispatcher) Manifolds() []*PersistentManifold {
	return d.manifolds
}

func (d *Dispatcher) manifoldFor(a, b *RigidBody) (*PersistentManifold, bool) {
	if a.regSeq > b.regSeq {
		a, b = b, a
	}
	k := pairKey{a.regSeq, b.regSeq}
	m, ok := d.byPair[k]
	if !ok {
		m = &PersistentManifold{body0: a, body1: b}
		d.byPair[k] = m
	}
	return m, ok
}

// retain drops every manifold whose pair is not in live and rebuilds the
// ordered list.
func (d *Dispatcher) retain(live map[pairKey]bool) {
	d.manifolds = d.manifolds[:0]
	for k, m := range d.byPair {
		if !live[k] {
			delete(d.byPair, k)
			continue
		}
		d.manifolds = append(d.manifolds, m)
	}
	sort.Slice(d.manifolds, func(i, j int) bool {
		mi, mj := d.manifolds[i], d.manifolds[j]
		if mi.body0.regSeq != mj.body0.regSeq {
			return mi.body0.regSeq < mj.body0.regSeq
		}
		return mi.body1.regSeq < mj.body1.regSeq
	})
}

func (d *Dispatcher) removeBody(b *RigidBody) []*RigidBody {
	var touching []*RigidBody
	kept := d.manifolds[:0]
	for _, m := range d.manifolds {
		if m.body0 != b && m.body1 != b {
			kept = append(kept, m)
			continue
		}
		other := m.body0
		if other == b {
			other = m.body1
		}
		touching = append(touching, other)
		delete(d.byPair, pairKey{m.body0.regSeq, m.body1.regSeq})
	}
	d.manifolds = kept
	return touching
}
