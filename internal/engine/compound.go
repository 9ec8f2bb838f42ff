package engine

import (
	"github.com/go-gl/mathgl/mgl64"
)

// CompoundChild is one sub-shape of a compound at a fixed local offset.
type CompoundChild struct {
	Transform Transform
	Shape     Shape
}

// CompoundShape groups primitive shapes into a single rigid collision
// shape. Children cannot themselves be compounds.
type CompoundShape struct {
	shapeBase
	children []CompoundChild
	base     []compoundBase
}

// compoundBase is a child's offset and scaling at compound scale one.
type compoundBase struct {
	origin  mgl64.Vec3
	scaling mgl64.Vec3
}

func NewCompoundShape() *CompoundShape {
	return &CompoundShape{shapeBase: newShapeBase()}
}

func (c *CompoundShape) Type() ShapeType { return CompoundShapeType }

func (c *CompoundShape) AddChildShape(local Transform, child Shape) error {
	if child == nil {
		return ErrNilShape
	}
	switch child.Type() {
	case CompoundShapeType:
		return ErrNestedCompound
	case StaticPlaneShapeType, TriangleMeshShapeType:
		return degenerate(CompoundShapeType, "%s cannot be a compound child", child.Type())
	}
	local.Rotation = local.Rotation.Normalize()
	c.base = append(c.base, compoundBase{origin: local.Origin, scaling: child.LocalScaling()})
	local.Origin = mulElem(local.Origin, c.scaling)
	child.SetLocalScaling(mulElem(child.LocalScaling(), c.scaling))
	c.children = append(c.children, CompoundChild{Transform: local, Shape: child})
	return nil
}

func (c *CompoundShape) NumChildShapes() int { return len(c.children) }

func (c *CompoundShape) Child(i int) CompoundChild { return c.children[i] }

// SetLocalScaling scales child offsets and child shapes from their values at
// unit scale, so an axis scaled to zero can be restored later.
func (c *CompoundShape) SetLocalScaling(s mgl64.Vec3) {
	for i := range c.children {
		ch := &c.children[i]
		ch.Transform.Origin = mulElem(c.base[i].origin, s)
		ch.Shape.SetLocalScaling(mulElem(c.base[i].scaling, s))
	}
	c.scaling = s
}

// CalculateLocalInertia approximates the compound by the box inertia of its
// local bounds, which does not depend on child order.
func (c *CompoundShape) CalculateLocalInertia(mass float64) mgl64.Vec3 {
	if len(c.children) == 0 {
		return mgl64.Vec3{}
	}
	lo, hi := c.AABB(IdentityTransform())
	return boxInertia(mass, hi.Sub(lo).Mul(0.5))
}

func (c *CompoundShape) AABB(t Transform) (mgl64.Vec3, mgl64.Vec3) {
	if len(c.children) == 0 {
		return t.Origin, t.Origin
	}
	return geometryBounds(c.appendGeometry(t, nil))
}

func (c *CompoundShape) appendGeometry(t Transform, dst []geometry) []geometry {
	for _, ch := range c.children {
		dst = ch.Shape.appendGeometry(t.Mul(ch.Transform), dst)
	}
	return dst
}
