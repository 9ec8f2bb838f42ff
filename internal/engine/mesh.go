package engine

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// MaxHullPoints bounds the point count of a convex hull; face discovery is
// cubic in the number of points.
const MaxHullPoints = 128

// TriangleMesh accumulates triangles for mesh and hull shapes.
type TriangleMesh struct {
	triangles [][3]mgl64.Vec3
}

func NewTriangleMesh() *TriangleMesh {
	return &TriangleMesh{}
}

// TriangleMeshFromVertices builds a mesh from a flat array holding nine
// coordinates per triangle.
func TriangleMeshFromVertices(vertices []float64) (*TriangleMesh, error) {
	if len(vertices) == 0 || len(vertices)%9 != 0 {
		return nil, degenerate(TriangleMeshShapeType, "vertex array length %d is not a positive multiple of 9", len(vertices))
	}
	m := NewTriangleMesh()
	for i := 0; i < len(vertices); i += 9 {
		m.AddTriangle(
			mgl64.Vec3{vertices[i], vertices[i+1], vertices[i+2]},
			mgl64.Vec3{vertices[i+3], vertices[i+4], vertices[i+5]},
			mgl64.Vec3{vertices[i+6], vertices[i+7], vertices[i+8]},
		)
	}
	return m, nil
}

func (m *TriangleMesh) AddTriangle(a, b, c mgl64.Vec3) {
	m.triangles = append(m.triangles, [3]mgl64.Vec3{a, b, c})
}

func (m *TriangleMesh) NumTriangles() int { return len(m.triangles) }

// Vertices returns the distinct vertices of the mesh.
func (m *TriangleMesh) Vertices() []mgl64.Vec3 {
	var out []mgl64.Vec3
	for _, t := range m.triangles {
		for _, v := range t {
			out = appendUniquePoint(out, v)
		}
	}
	return out
}

func appendUniquePoint(pts []mgl64.Vec3, p mgl64.Vec3) []mgl64.Vec3 {
	for _, q := range pts {
		if q.ApproxEqualThreshold(p, 1e-9) {
			return pts
		}
	}
	return append(pts, p)
}

// ConvexHullShape is the convex hull of a point cloud.
type ConvexHullShape struct {
	shapeBase
	points   []mgl64.Vec3
	template polytope
}

func NewConvexHullShape(points []mgl64.Vec3) (*ConvexHullShape, error) {
	var unique []mgl64.Vec3
	for _, p := range points {
		unique = appendUniquePoint(unique, p)
	}
	if len(unique) < 4 {
		return nil, degenerate(ConvexHullShapeType, "need at least 4 distinct points, got %d", len(unique))
	}
	if len(unique) > MaxHullPoints {
		return nil, degenerate(ConvexHullShapeType, "%d points exceeds limit of %d", len(unique), MaxHullPoints)
	}
	h := &ConvexHullShape{shapeBase: newShapeBase(), points: unique}
	if err := h.rebuild(); err != nil {
		return nil, err
	}
	return h, nil
}

// NewConvexTriangleMeshShape wraps the vertices of a mesh in a convex hull.
func NewConvexTriangleMeshShape(m *TriangleMesh) (*ConvexHullShape, error) {
	if m == nil || m.NumTriangles() == 0 {
		return nil, degenerate(ConvexHullShapeType, "empty triangle mesh")
	}
	return NewConvexHullShape(m.Vertices())
}

func (h *ConvexHullShape) rebuild() error {
	verts := make([]mgl64.Vec3, len(h.points))
	for i, p := range h.points {
		verts[i] = mulElem(p, h.scaling)
	}
	normals, offsets := hullPlanes(verts)
	if len(normals) < 4 {
		return degenerate(ConvexHullShapeType, "points are coplanar")
	}
	h.template = polytope{
		verts:   verts,
		normals: normals,
		offsets: offsets,
		edges:   hullEdges(normals),
	}
	return nil
}

func (h *ConvexHullShape) Type() ShapeType { return ConvexHullShapeType }

func (h *ConvexHullShape) NumFaces() int { return len(h.template.normals) }

func (h *ConvexHullShape) SetLocalScaling(s mgl64.Vec3) {
	prev := h.scaling
	h.scaling = s
	if err := h.rebuild(); err != nil {
		// A flattening scale keeps the previous geometry.
		h.scaling = prev
		_ = h.rebuild()
	}
}

func (h *ConvexHullShape) CalculateLocalInertia(mass float64) mgl64.Vec3 {
	lo, hi := h.template.bounds()
	return boxInertia(mass, hi.Sub(lo).Mul(0.5))
}

func (h *ConvexHullShape) AABB(t Transform) (mgl64.Vec3, mgl64.Vec3) {
	return h.template.transform(t).bounds()
}

func (h *ConvexHullShape) appendGeometry(t Transform, dst []geometry) []geometry {
	return append(dst, polyGeometry(h.template.transform(t)))
}

// BvhTriangleMeshShape is a concave triangle soup; it may only back static
// bodies.
type BvhTriangleMeshShape struct {
	shapeBase
	mesh      *TriangleMesh
	triangles [][3]mgl64.Vec3
	templates []polytope
}

func NewBvhTriangleMeshShape(m *TriangleMesh) (*BvhTriangleMeshShape, error) {
	if m == nil || m.NumTriangles() == 0 {
		return nil, degenerate(TriangleMeshShapeType, "empty triangle mesh")
	}
	s := &BvhTriangleMeshShape{shapeBase: newShapeBase(), mesh: m}
	s.rebuild()
	if len(s.templates) == 0 {
		return nil, degenerate(TriangleMeshShapeType, "all %d triangles have zero area", m.NumTriangles())
	}
	return s, nil
}

func (s *BvhTriangleMeshShape) rebuild() {
	s.triangles = s.triangles[:0]
	s.templates = s.templates[:0]
	for _, t := range s.mesh.triangles {
		a, b, c := mulElem(t[0], s.scaling), mulElem(t[1], s.scaling), mulElem(t[2], s.scaling)
		p, ok := triangleTemplate(a, b, c)
		if !ok {
			continue
		}
		s.triangles = append(s.triangles, [3]mgl64.Vec3{a, b, c})
		s.templates = append(s.templates, p)
	}
}

func (s *BvhTriangleMeshShape) Type() ShapeType { return TriangleMeshShapeType }

func (s *BvhTriangleMeshShape) SetLocalScaling(sc mgl64.Vec3) {
	s.scaling = sc
	s.rebuild()
}

func (s *BvhTriangleMeshShape) CalculateLocalInertia(float64) mgl64.Vec3 { return mgl64.Vec3{} }

func (s *BvhTriangleMeshShape) AABB(t Transform) (mgl64.Vec3, mgl64.Vec3) {
	return geometryBounds(s.appendGeometry(t, nil))
}

func (s *BvhTriangleMeshShape) appendGeometry(t Transform, dst []geometry) []geometry {
	for i, p := range s.templates {
		g := polyGeometry(p.transform(t))
		tri := [3]mgl64.Vec3{t.Apply(s.triangles[i][0]), t.Apply(s.triangles[i][1]), t.Apply(s.triangles[i][2])}
		g.tri = &tri
		dst = append(dst, g)
	}
	return dst
}

func (s *BvhTriangleMeshShape) String() string {
	return fmt.Sprintf("BvhTriangleMeshShape(%d triangles)", len(s.templates))
}
