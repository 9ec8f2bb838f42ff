package engine

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	contactERP            = 0.2
	linearSlop            = 0.005
	restitutionThreshold  = 1.0
	warmStartFactor       = 0.85
	maxRollingFrictionSum = 10.0
)

type contactRow struct {
	a, b   *RigidBody
	point  *ManifoldPoint
	rA, rB mgl64.Vec3
	n      mgl64.Vec3
	t1, t2 mgl64.Vec3

	massN, massT1, massT2 float64
	target                float64

	friction float64
	rolling  float64

	accN, accT1, accT2 float64
	accRoll            mgl64.Vec3
}

// prepareContacts builds one row per contact of manifolds that involve at
// least one awake dynamic body.
func prepareContacts(manifolds []*PersistentManifold, h float64) []contactRow {
	var rows []contactRow
	for _, m := range manifolds {
		a, b := m.body0, m.body1
		if !(a.isDynamic() && a.IsActive()) && !(b.isDynamic() && b.IsActive()) {
			continue
		}
		for i := range m.points {
			p := &m.points[i]
			r := contactRow{
				a:        a,
				b:        b,
				point:    p,
				rA:       p.pointA.Sub(a.transform.Origin),
				rB:       p.pointB.Sub(b.transform.Origin),
				n:        p.normal,
				friction: a.friction * b.friction,
				rolling:  math.Min(a.rollingFriction*b.friction+b.rollingFriction*a.friction, maxRollingFrictionSum),
			}
			r.t1, r.t2 = orthonormalBasis(r.n)
			k := linearMass(a, b, r.rA, r.rB, r.n)
			if k < 1e-12 {
				continue
			}
			r.massN = 1 / k
			if kt := linearMass(a, b, r.rA, r.rB, r.t1); kt > 1e-12 {
				r.massT1 = 1 / kt
			}
			if kt := linearMass(a, b, r.rA, r.rB, r.t2); kt > 1e-12 {
				r.massT2 = 1 / kt
			}

			gap := p.distance + linearSlop
			if gap > 0 {
				r.target = -gap / h
			} else {
				r.target = contactERP * -gap / h
			}
			vn := r.relativeVelocity().Dot(r.n)
			if e := a.restitution * b.restitution; e > 0 && vn < -restitutionThreshold {
				r.target = math.Max(r.target, -e*vn)
			}

			if p.appliedImpulse > 0 {
				r.accN = warmStartFactor * p.appliedImpulse
				r.apply(r.n.Mul(r.accN))
			}
			rows = append(rows, r)
		}
	}
	return rows
}

func (r *contactRow) relativeVelocity() mgl64.Vec3 {
	return r.a.VelocityInLocalPoint(r.rA).Sub(r.b.VelocityInLocalPoint(r.rB))
}

func (r *contactRow) apply(imp mgl64.Vec3) {
	r.a.applySolverImpulse(imp, r.rA)
	r.b.applySolverImpulse(imp.Mul(-1), r.rB)
}

func (r *contactRow) solveNormal() {
	vn := r.relativeVelocity().Dot(r.n)
	lambda := r.massN * (r.target - vn)
	prev := r.accN
	r.accN = math.Max(prev+lambda, 0)
	r.apply(r.n.Mul(r.accN - prev))
}

func (r *contactRow) solveFriction() {
	limit := r.friction * r.accN
	if limit <= 0 {
		return
	}
	rel := r.relativeVelocity()
	if r.massT1 > 0 {
		lambda := -r.massT1 * rel.Dot(r.t1)
		prev := r.accT1
		r.accT1 = mgl64.Clamp(prev+lambda, -limit, limit)
		r.apply(r.t1.Mul(r.accT1 - prev))
	}
	rel = r.relativeVelocity()
	if r.massT2 > 0 {
		lambda := -r.massT2 * rel.Dot(r.t2)
		prev := r.accT2
		r.accT2 = mgl64.Clamp(prev+lambda, -limit, limit)
		r.apply(r.t2.Mul(r.accT2 - prev))
	}
}

// solveRolling resists relative spin, bounded by the normal impulse.
func (r *contactRow) solveRolling() {
	limit := r.rolling * r.accN
	if limit <= 0 {
		return
	}
	axes := [3]mgl64.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	for i, axis := range axes {
		k := angularMass(r.a, r.b, axis)
		if k < 1e-12 {
			continue
		}
		rel := r.a.angVel.Sub(r.b.angVel).Dot(axis)
		prev := r.accRoll[i]
		r.accRoll[i] = mgl64.Clamp(prev-rel/k, -limit, limit)
		d := axis.Mul(r.accRoll[i] - prev)
		r.a.applySolverAngularImpulse(d)
		r.b.applySolverAngularImpulse(d.Mul(-1))
	}
}

// solve runs the sequential impulse iterations: joints first, then contact
// normals, then friction.
func solve(constraints []Constraint, manifolds []*PersistentManifold, iterations int, h float64) {
	for _, c := range constraints {
		c.prepare(h)
	}
	rows := prepareContacts(manifolds, h)
	for it := 0; it < iterations; it++ {
		for _, c := range constraints {
			c.solve(h)
		}
		for i := range rows {
			rows[i].solveNormal()
		}
		for i := range rows {
			rows[i].solveFriction()
			rows[i].solveRolling()
		}
	}
	for i := range rows {
		rows[i].point.appliedImpulse = rows[i].accN
	}
}
