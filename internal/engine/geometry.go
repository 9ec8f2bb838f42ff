package engine

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

type geomKind int

const (
	geomSphere geomKind = iota
	geomPoly
	geomPlane
)

// polytope is a convex polyhedron: points are inside when n·p <= offset for
// every face.
type polytope struct {
	verts   []mgl64.Vec3
	normals []mgl64.Vec3
	offsets []float64
	edges   []mgl64.Vec3
}

func (p polytope) transform(t Transform) polytope {
	out := polytope{
		verts:   make([]mgl64.Vec3, len(p.verts)),
		normals: make([]mgl64.Vec3, len(p.normals)),
		offsets: make([]float64, len(p.offsets)),
		edges:   make([]mgl64.Vec3, len(p.edges)),
	}
	for i, v := range p.verts {
		out.verts[i] = t.Apply(v)
	}
	for i, n := range p.normals {
		wn := t.ApplyVector(n)
		out.normals[i] = wn
		out.offsets[i] = p.offsets[i] + wn.Dot(t.Origin)
	}
	for i, e := range p.edges {
		out.edges[i] = t.ApplyVector(e)
	}
	return out
}

func (p polytope) project(axis mgl64.Vec3) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range p.verts {
		d := v.Dot(axis)
		lo = math.Min(lo, d)
		hi = math.Max(hi, d)
	}
	return lo, hi
}

// contains reports whether p lies inside every face plane, ignoring faces
// whose normal is (anti)parallel to skip, expanded by tol.
func (p polytope) contains(pt, skip mgl64.Vec3, tol float64) bool {
	for i, n := range p.normals {
		if math.Abs(n.Dot(skip)) > 1-1e-6 {
			continue
		}
		if n.Dot(pt)-p.offsets[i] > tol {
			return false
		}
	}
	return true
}

func (p polytope) bounds() (mgl64.Vec3, mgl64.Vec3) {
	lo := mgl64.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	hi := mgl64.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for _, v := range p.verts {
		lo = vecMin(lo, v)
		hi = vecMax(hi, v)
	}
	return lo, hi
}

// obb keeps the exact box description alongside its polytope for the
// sphere-box closest point test.
type obb struct {
	center mgl64.Vec3
	basis  mgl64.Mat3
	half   mgl64.Vec3
}

type planeEq struct {
	normal   mgl64.Vec3
	constant float64
}

// geometry is one world-space convex piece of a body's collision shape.
type geometry struct {
	kind     geomKind
	center   mgl64.Vec3
	radius   float64
	poly     polytope
	box      *obb
	tri      *[3]mgl64.Vec3
	plane    planeEq
	min, max mgl64.Vec3
}

const planeExtent = 1e30

func sphereGeometry(center mgl64.Vec3, radius float64) geometry {
	r := mgl64.Vec3{radius, radius, radius}
	return geometry{
		kind:   geomSphere,
		center: center,
		radius: radius,
		min:    center.Sub(r),
		max:    center.Add(r),
	}
}

func polyGeometry(p polytope) geometry {
	lo, hi := p.bounds()
	c := lo.Add(hi).Mul(0.5)
	return geometry{kind: geomPoly, poly: p, center: c, min: lo, max: hi}
}

func planeGeometry(pl planeEq) geometry {
	return geometry{
		kind:  geomPlane,
		plane: pl,
		min:   mgl64.Vec3{-planeExtent, -planeExtent, -planeExtent},
		max:   mgl64.Vec3{planeExtent, planeExtent, planeExtent},
	}
}

func (g *geometry) overlaps(o *geometry, margin float64) bool {
	for i := 0; i < 3; i++ {
		if g.min[i]-margin > o.max[i] || o.min[i]-margin > g.max[i] {
			return false
		}
	}
	return true
}

func boxTemplate(h mgl64.Vec3) polytope {
	p := polytope{
		verts: make([]mgl64.Vec3, 0, 8),
		normals: []mgl64.Vec3{
			{1, 0, 0}, {-1, 0, 0},
			{0, 1, 0}, {0, -1, 0},
			{0, 0, 1}, {0, 0, -1},
		},
		offsets: []float64{h[0], h[0], h[1], h[1], h[2], h[2]},
		edges:   []mgl64.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
	}
	for i := 0; i < 8; i++ {
		v := h
		if i&1 == 0 {
			v[0] = -v[0]
		}
		if i&2 == 0 {
			v[1] = -v[1]
		}
		if i&4 == 0 {
			v[2] = -v[2]
		}
		p.verts = append(p.verts, v)
	}
	return p
}

const cylinderSegments = 16

// cylinderTemplate approximates a Y-axis cylinder as a prism whose ring
// vertices lie on the ellipse with radii h.x and h.z.
func cylinderTemplate(h mgl64.Vec3) polytope {
	ring := make([]mgl64.Vec3, cylinderSegments)
	for k := range ring {
		a := 2 * math.Pi * float64(k) / cylinderSegments
		ring[k] = mgl64.Vec3{h[0] * math.Cos(a), 0, h[2] * math.Sin(a)}
	}

	p := polytope{
		normals: []mgl64.Vec3{{0, 1, 0}, {0, -1, 0}},
		offsets: []float64{h[1], h[1]},
		edges:   []mgl64.Vec3{{0, 1, 0}},
	}
	for _, r := range ring {
		p.verts = append(p.verts, mgl64.Vec3{r[0], h[1], r[2]}, mgl64.Vec3{r[0], -h[1], r[2]})
	}
	for k := range ring {
		a, b := ring[k], ring[(k+1)%len(ring)]
		e := b.Sub(a).Normalize()
		n := mgl64.Vec3{e[2], 0, -e[0]}
		if n.Dot(a.Add(b)) < 0 {
			n = n.Mul(-1)
		}
		p.normals = append(p.normals, n)
		p.offsets = append(p.offsets, n.Dot(a))
		p.edges = appendUniqueDir(p.edges, e)
	}
	return p
}

func triangleTemplate(a, b, c mgl64.Vec3) (polytope, bool) {
	n := b.Sub(a).Cross(c.Sub(a))
	if n.Len() < 1e-12 {
		return polytope{}, false
	}
	n = n.Normalize()
	centroid := a.Add(b).Add(c).Mul(1.0 / 3)

	p := polytope{
		verts:   []mgl64.Vec3{a, b, c},
		normals: []mgl64.Vec3{n, n.Mul(-1)},
		offsets: []float64{n.Dot(a), -n.Dot(a)},
	}
	pts := [3]mgl64.Vec3{a, b, c}
	for i := 0; i < 3; i++ {
		p0, p1 := pts[i], pts[(i+1)%3]
		e := p1.Sub(p0).Normalize()
		s := e.Cross(n)
		if s.Dot(p0.Sub(centroid)) < 0 {
			s = s.Mul(-1)
		}
		p.normals = append(p.normals, s)
		p.offsets = append(p.offsets, s.Dot(p0))
		p.edges = append(p.edges, e)
	}
	return p, true
}

func appendUniqueDir(dirs []mgl64.Vec3, d mgl64.Vec3) []mgl64.Vec3 {
	for _, e := range dirs {
		if math.Abs(e.Dot(d)) > 1-1e-6 {
			return dirs
		}
	}
	return append(dirs, d)
}

// hullPlanes finds the face planes of the convex hull of pts by testing every
// vertex triple as a supporting plane.
func hullPlanes(pts []mgl64.Vec3) ([]mgl64.Vec3, []float64) {
	const eps = 1e-7
	var normals []mgl64.Vec3
	var offsets []float64

	add := func(n mgl64.Vec3, off float64) {
		for _, m := range normals {
			if m.Dot(n) > 1-1e-6 {
				return
			}
		}
		normals = append(normals, n)
		offsets = append(offsets, off)
	}

	for i := 0; i < len(pts); i++ {
		for j := i + 1; j < len(pts); j++ {
			for k := j + 1; k < len(pts); k++ {
				n := pts[j].Sub(pts[i]).Cross(pts[k].Sub(pts[i]))
				if n.Len() < 1e-10 {
					continue
				}
				n = n.Normalize()
				off := n.Dot(pts[i])
				above, below := false, false
				for _, p := range pts {
					s := n.Dot(p) - off
					if s > eps {
						above = true
					} else if s < -eps {
						below = true
					}
					if above && below {
						break
					}
				}
				switch {
				case !above:
					add(n, off)
				case !below:
					add(n.Mul(-1), -off)
				}
			}
		}
	}
	return normals, offsets
}

func hullEdges(normals []mgl64.Vec3) []mgl64.Vec3 {
	var edges []mgl64.Vec3
	for i := 0; i < len(normals); i++ {
		for j := i + 1; j < len(normals); j++ {
			e := normals[i].Cross(normals[j])
			if e.Len() < 1e-6 {
				continue
			}
			edges = appendUniqueDir(edges, e.Normalize())
		}
	}
	return edges
}
