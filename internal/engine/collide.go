package engine

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// contact follows the manifold convention: normal is expressed on B and
// points from B towards A, and pointA = pointB + normal*distance.
type contact struct {
	pointA   mgl64.Vec3
	pointB   mgl64.Vec3
	normal   mgl64.Vec3
	distance float64
}

func (c contact) flipped() contact {
	return contact{pointA: c.pointB, pointB: c.pointA, normal: c.normal.Mul(-1), distance: c.distance}
}

const (
	edgeAxisBias   = 1e-3
	featureTol     = 0.02
	maxManifoldPts = 4
)

// collide appends the contacts between two convex pieces whose distance is
// below threshold.
func collide(a, b *geometry, threshold float64, dst []contact) []contact {
	switch {
	case a.kind == geomPlane && b.kind == geomPlane:
		return dst
	case b.kind == geomPlane:
		return collidePlane(a, b.plane, threshold, dst)
	case a.kind == geomPlane:
		return appendFlipped(dst, collidePlane(b, a.plane, threshold, nil))
	case a.kind == geomSphere && b.kind == geomSphere:
		return collideSpheres(a, b, threshold, dst)
	case a.kind == geomSphere:
		return collideSpherePoly(a, b, threshold, dst)
	case b.kind == geomSphere:
		return appendFlipped(dst, collideSpherePoly(b, a, threshold, nil))
	default:
		return collidePolys(a, b, threshold, dst)
	}
}

func appendFlipped(dst, src []contact) []contact {
	for _, c := range src {
		dst = append(dst, c.flipped())
	}
	return dst
}

func collidePlane(g *geometry, pl planeEq, threshold float64, dst []contact) []contact {
	n := pl.normal
	if g.kind == geomSphere {
		s := n.Dot(g.center) - pl.constant
		d := s - g.radius
		if d > threshold {
			return dst
		}
		return append(dst, contact{
			pointA:   g.center.Sub(n.Mul(g.radius)),
			pointB:   g.center.Sub(n.Mul(s)),
			normal:   n,
			distance: d,
		})
	}
	for _, v := range g.poly.verts {
		s := n.Dot(v) - pl.constant
		if s > threshold {
			continue
		}
		dst = append(dst, contact{pointA: v, pointB: v.Sub(n.Mul(s)), normal: n, distance: s})
	}
	return dst
}

func collideSpheres(a, b *geometry, threshold float64, dst []contact) []contact {
	delta := a.center.Sub(b.center)
	dist := delta.Len()
	n := mgl64.Vec3{0, 1, 0}
	if dist > 1e-12 {
		n = delta.Mul(1 / dist)
	}
	d := dist - a.radius - b.radius
	if d > threshold {
		return dst
	}
	return append(dst, contact{
		pointA:   a.center.Sub(n.Mul(a.radius)),
		pointB:   b.center.Add(n.Mul(b.radius)),
		normal:   n,
		distance: d,
	})
}

func collideSpherePoly(s, p *geometry, threshold float64, dst []contact) []contact {
	switch {
	case p.box != nil:
		return collideSphereBox(s, p.box, threshold, dst)
	case p.tri != nil:
		return collideSphereTriangle(s, p, threshold, dst)
	}

	best := math.Inf(-1)
	var n mgl64.Vec3
	test := func(axis mgl64.Vec3) bool {
		c := s.center.Dot(axis)
		lo, hi := p.poly.project(axis)
		up := c - s.radius - hi
		down := lo - (c + s.radius)
		g, dir := up, axis
		if down > up {
			g, dir = down, axis.Mul(-1)
		}
		if g > threshold {
			return false
		}
		if g > best {
			best, n = g, dir
		}
		return true
	}
	for _, fn := range p.poly.normals {
		if !test(fn) {
			return dst
		}
	}
	for _, v := range p.poly.verts {
		axis := s.center.Sub(v)
		if axis.Len() < 1e-9 {
			continue
		}
		if !test(axis.Normalize()) {
			return dst
		}
	}

	pa := s.center.Sub(n.Mul(s.radius))
	return append(dst, contact{pointA: pa, pointB: pa.Sub(n.Mul(best)), normal: n, distance: best})
}

func collideSphereBox(s *geometry, box *obb, threshold float64, dst []contact) []contact {
	local := box.basis.Transpose().Mul3x1(s.center.Sub(box.center))
	q := local
	for i := 0; i < 3; i++ {
		q[i] = mgl64.Clamp(q[i], -box.half[i], box.half[i])
	}

	var nl mgl64.Vec3
	var d float64
	diff := local.Sub(q)
	if dist := diff.Len(); dist > 1e-9 {
		nl = diff.Mul(1 / dist)
		d = dist - s.radius
	} else {
		axis, depth := 0, math.Inf(1)
		for i := 0; i < 3; i++ {
			if pen := box.half[i] - math.Abs(local[i]); pen < depth {
				axis, depth = i, pen
			}
		}
		sign := 1.0
		if local[axis] < 0 {
			sign = -1
		}
		nl[axis] = sign
		q[axis] = sign * box.half[axis]
		d = -depth - s.radius
	}
	if d > threshold {
		return dst
	}

	n := box.basis.Mul3x1(nl)
	return append(dst, contact{
		pointA:   s.center.Sub(n.Mul(s.radius)),
		pointB:   box.center.Add(box.basis.Mul3x1(q)),
		normal:   n,
		distance: d,
	})
}

func collideSphereTriangle(s, p *geometry, threshold float64, dst []contact) []contact {
	tri := p.tri
	q := closestPointOnTriangle(s.center, tri[0], tri[1], tri[2])
	diff := s.center.Sub(q)
	dist := diff.Len()
	var n mgl64.Vec3
	if dist > 1e-9 {
		n = diff.Mul(1 / dist)
	} else {
		n = p.poly.normals[0]
	}
	d := dist - s.radius
	if d > threshold {
		return dst
	}
	return append(dst, contact{pointA: s.center.Sub(n.Mul(s.radius)), pointB: q, normal: n, distance: d})
}

func closestPointOnTriangle(p, a, b, c mgl64.Vec3) mgl64.Vec3 {
	ab, ac, ap := b.Sub(a), c.Sub(a), p.Sub(a)
	d1, d2 := ab.Dot(ap), ac.Dot(ap)
	if d1 <= 0 && d2 <= 0 {
		return a
	}
	bp := p.Sub(b)
	d3, d4 := ab.Dot(bp), ac.Dot(bp)
	if d3 >= 0 && d4 <= d3 {
		return b
	}
	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		return a.Add(ab.Mul(d1 / (d1 - d3)))
	}
	cp := p.Sub(c)
	d5, d6 := ab.Dot(cp), ac.Dot(cp)
	if d6 >= 0 && d5 <= d6 {
		return c
	}
	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		return a.Add(ac.Mul(d2 / (d2 - d6)))
	}
	va := d3*d6 - d5*d4
	if va <= 0 && d4-d3 >= 0 && d5-d6 >= 0 {
		return b.Add(c.Sub(b).Mul((d4 - d3) / ((d4 - d3) + (d5 - d6))))
	}
	denom := 1 / (va + vb + vc)
	return a.Add(ab.Mul(vb * denom)).Add(ac.Mul(vc * denom))
}

// collidePolys runs a separating axis test over face normals and edge
// cross products, then gathers the vertices of each support feature that
// lie within the other polytope.
func collidePolys(a, b *geometry, threshold float64, dst []contact) []contact {
	best := math.Inf(-1)
	var n mgl64.Vec3
	test := func(axis mgl64.Vec3, bias float64) bool {
		loA, hiA := a.poly.project(axis)
		loB, hiB := b.poly.project(axis)
		up := loA - hiB
		down := loB - hiA
		g, dir := up, axis
		if down > up {
			g, dir = down, axis.Mul(-1)
		}
		if g > threshold {
			return false
		}
		if g > best+bias {
			best, n = g, dir
		}
		return true
	}

	for _, fn := range a.poly.normals {
		if !test(fn, 0) {
			return dst
		}
	}
	for _, fn := range b.poly.normals {
		if !test(fn, 0) {
			return dst
		}
	}
	for _, ea := range a.poly.edges {
		for _, eb := range b.poly.edges {
			axis := ea.Cross(eb)
			if axis.Len() < 1e-6 {
				continue
			}
			if !test(axis.Normalize(), edgeAxisBias) {
				return dst
			}
		}
	}

	loA, _ := a.poly.project(n)
	_, hiB := b.poly.project(n)
	slab := math.Max(-best, 0) + featureTol

	var found []contact
	for _, v := range a.poly.verts {
		h := n.Dot(v)
		if h-loA > featureTol || !b.poly.contains(v, n, slab) {
			continue
		}
		d := h - hiB
		found = append(found, contact{pointA: v, pointB: v.Sub(n.Mul(d)), normal: n, distance: d})
	}
	for _, w := range b.poly.verts {
		h := n.Dot(w)
		if hiB-h > featureTol || !a.poly.contains(w, n, slab) {
			continue
		}
		d := loA - h
		found = append(found, contact{pointA: w.Add(n.Mul(d)), pointB: w, normal: n, distance: d})
	}

	if len(found) == 0 {
		var sum mgl64.Vec3
		count := 0
		for _, v := range a.poly.verts {
			if n.Dot(v)-loA <= featureTol {
				sum = sum.Add(v)
				count++
			}
		}
		pa := sum.Mul(1 / float64(count))
		found = append(found, contact{pointA: pa, pointB: pa.Sub(n.Mul(best)), normal: n, distance: best})
	}
	return append(dst, found...)
}

// reduceContacts keeps the deepest points of a manifold.
func reduceContacts(cs []contact) []contact {
	if len(cs) <= maxManifoldPts {
		return cs
	}
	sort.SliceStable(cs, func(i, j int) bool { return cs[i].distance < cs[j].distance })
	return cs[:maxManifoldPts]
}
