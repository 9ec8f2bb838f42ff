package engine

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

type ShapeType int

const (
	BoxShapeType ShapeType = iota
	SphereShapeType
	CylinderShapeType
	StaticPlaneShapeType
	CompoundShapeType
	ConvexHullShapeType
	TriangleMeshShapeType
)

func (t ShapeType) String() string {
	switch t {
	case BoxShapeType:
		return "box"
	case SphereShapeType:
		return "sphere"
	case CylinderShapeType:
		return "cylinder"
	case StaticPlaneShapeType:
		return "static_plane"
	case CompoundShapeType:
		return "compound"
	case ConvexHullShapeType:
		return "convex_hull"
	case TriangleMeshShapeType:
		return "triangle_mesh"
	default:
		return "unknown"
	}
}

const defaultMargin = 0.04

// Shape is collision geometry in body-local space.
type Shape interface {
	Type() ShapeType
	LocalScaling() mgl64.Vec3
	SetLocalScaling(scaling mgl64.Vec3)
	Margin() float64
	SetMargin(margin float64)
	// CalculateLocalInertia returns the diagonal of the inertia tensor for
	// the given mass; zero mass yields a zero vector.
	CalculateLocalInertia(mass float64) mgl64.Vec3
	// AABB returns the world bounds of the shape placed at t.
	AABB(t Transform) (mgl64.Vec3, mgl64.Vec3)

	appendGeometry(t Transform, dst []geometry) []geometry
}

type shapeBase struct {
	scaling mgl64.Vec3
	margin  float64
}

func newShapeBase() shapeBase {
	return shapeBase{scaling: mgl64.Vec3{1, 1, 1}, margin: defaultMargin}
}

func (s *shapeBase) LocalScaling() mgl64.Vec3 { return s.scaling }
func (s *shapeBase) Margin() float64          { return s.margin }
func (s *shapeBase) SetMargin(m float64)      { s.margin = m }

func boxInertia(mass float64, half mgl64.Vec3) mgl64.Vec3 {
	if mass == 0 {
		return mgl64.Vec3{}
	}
	lx, ly, lz := 2*half[0], 2*half[1], 2*half[2]
	return mgl64.Vec3{
		mass / 12 * (ly*ly + lz*lz),
		mass / 12 * (lx*lx + lz*lz),
		mass / 12 * (lx*lx + ly*ly),
	}
}

func geometryBounds(gs []geometry) (mgl64.Vec3, mgl64.Vec3) {
	lo := mgl64.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	hi := mgl64.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for _, g := range gs {
		lo = vecMin(lo, g.min)
		hi = vecMax(hi, g.max)
	}
	return lo, hi
}

func positiveExtents(kind ShapeType, v mgl64.Vec3) error {
	for i := 0; i < 3; i++ {
		if !(v[i] > 0) || math.IsInf(v[i], 0) {
			return degenerate(kind, "extent %d must be positive and finite, got %g", i, v[i])
		}
	}
	return nil
}

// BoxShape is an oriented box given by its half extents.
type BoxShape struct {
	shapeBase
	unscaled mgl64.Vec3
	half     mgl64.Vec3
	template polytope
}

func NewBoxShape(halfExtents mgl64.Vec3) (*BoxShape, error) {
	if err := positiveExtents(BoxShapeType, halfExtents); err != nil {
		return nil, err
	}
	b := &BoxShape{shapeBase: newShapeBase(), unscaled: halfExtents}
	b.rebuild()
	return b, nil
}

func (b *BoxShape) rebuild() {
	b.half = mulElem(b.unscaled, b.scaling)
	b.template = boxTemplate(b.half)
}

func (b *BoxShape) Type() ShapeType { return BoxShapeType }

func (b *BoxShape) HalfExtents() mgl64.Vec3 { return b.half }

func (b *BoxShape) SetLocalScaling(s mgl64.Vec3) {
	b.scaling = s
	b.rebuild()
}

func (b *BoxShape) CalculateLocalInertia(mass float64) mgl64.Vec3 {
	return boxInertia(mass, b.half)
}

func (b *BoxShape) AABB(t Transform) (mgl64.Vec3, mgl64.Vec3) {
	return geometryBounds(b.appendGeometry(t, nil))
}

func (b *BoxShape) appendGeometry(t Transform, dst []geometry) []geometry {
	g := polyGeometry(b.template.transform(t))
	g.box = &obb{center: t.Origin, basis: t.Basis(), half: b.half}
	return append(dst, g)
}

// SphereShape uses the x component of the local scaling, matching the
// uniform-only scaling of a sphere.
type SphereShape struct {
	shapeBase
	unscaled float64
	radius   float64
}

func NewSphereShape(radius float64) (*SphereShape, error) {
	if !(radius > 0) || math.IsInf(radius, 0) {
		return nil, degenerate(SphereShapeType, "radius must be positive and finite, got %g", radius)
	}
	return &SphereShape{shapeBase: newShapeBase(), unscaled: radius, radius: radius}, nil
}

func (s *SphereShape) Type() ShapeType { return SphereShapeType }
func (s *SphereShape) Radius() float64 { return s.radius }

func (s *SphereShape) SetLocalScaling(sc mgl64.Vec3) {
	s.scaling = sc
	s.radius = s.unscaled * math.Abs(sc[0])
}

func (s *SphereShape) CalculateLocalInertia(mass float64) mgl64.Vec3 {
	i := 0.4 * mass * s.radius * s.radius
	return mgl64.Vec3{i, i, i}
}

func (s *SphereShape) AABB(t Transform) (mgl64.Vec3, mgl64.Vec3) {
	g := sphereGeometry(t.Origin, s.radius)
	return g.min, g.max
}

func (s *SphereShape) appendGeometry(t Transform, dst []geometry) []geometry {
	return append(dst, sphereGeometry(t.Origin, s.radius))
}

// CylinderShape is aligned with the local Y axis; half extents are
// (radius, halfHeight, radius).
type CylinderShape struct {
	shapeBase
	unscaled mgl64.Vec3
	half     mgl64.Vec3
	template polytope
}

func NewCylinderShape(halfExtents mgl64.Vec3) (*CylinderShape, error) {
	if err := positiveExtents(CylinderShapeType, halfExtents); err != nil {
		return nil, err
	}
	c := &CylinderShape{shapeBase: newShapeBase(), unscaled: halfExtents}
	c.rebuild()
	return c, nil
}

func (c *CylinderShape) rebuild() {
	c.half = mulElem(c.unscaled, c.scaling)
	c.template = cylinderTemplate(c.half)
}

func (c *CylinderShape) Type() ShapeType         { return CylinderShapeType }
func (c *CylinderShape) HalfExtents() mgl64.Vec3 { return c.half }

func (c *CylinderShape) SetLocalScaling(s mgl64.Vec3) {
	c.scaling = s
	c.rebuild()
}

func (c *CylinderShape) CalculateLocalInertia(mass float64) mgl64.Vec3 {
	r := c.half[0]
	h := 2 * c.half[1]
	side := mass * (3*r*r + h*h) / 12
	return mgl64.Vec3{side, mass * r * r / 2, side}
}

func (c *CylinderShape) AABB(t Transform) (mgl64.Vec3, mgl64.Vec3) {
	return geometryBounds(c.appendGeometry(t, nil))
}

func (c *CylinderShape) appendGeometry(t Transform, dst []geometry) []geometry {
	return append(dst, polyGeometry(c.template.transform(t)))
}

// StaticPlaneShape is the half space n·x <= constant, used for floors.
type StaticPlaneShape struct {
	shapeBase
	normal   mgl64.Vec3
	constant float64
}

func NewStaticPlaneShape(normal mgl64.Vec3, constant float64) (*StaticPlaneShape, error) {
	if normal.Len() < 1e-9 {
		return nil, degenerate(StaticPlaneShapeType, "normal must be non-zero")
	}
	return &StaticPlaneShape{shapeBase: newShapeBase(), normal: normal.Normalize(), constant: constant}, nil
}

func (p *StaticPlaneShape) Type() ShapeType              { return StaticPlaneShapeType }
func (p *StaticPlaneShape) Normal() mgl64.Vec3           { return p.normal }
func (p *StaticPlaneShape) Constant() float64            { return p.constant }
func (p *StaticPlaneShape) SetLocalScaling(s mgl64.Vec3) { p.scaling = s }

func (p *StaticPlaneShape) CalculateLocalInertia(float64) mgl64.Vec3 { return mgl64.Vec3{} }

func (p *StaticPlaneShape) AABB(Transform) (mgl64.Vec3, mgl64.Vec3) {
	g := planeGeometry(planeEq{})
	return g.min, g.max
}

func (p *StaticPlaneShape) appendGeometry(t Transform, dst []geometry) []geometry {
	n := t.ApplyVector(p.normal)
	return append(dst, planeGeometry(planeEq{normal: n, constant: p.constant + n.Dot(t.Origin)}))
}
