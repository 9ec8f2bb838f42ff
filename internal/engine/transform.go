package engine

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Transform is a rigid transform: rotation followed by translation.
type Transform struct {
	Origin   mgl64.Vec3
	Rotation mgl64.Quat
}

func IdentityTransform() Transform {
	return Transform{Rotation: mgl64.QuatIdent()}
}

func NewTransform(origin mgl64.Vec3, rotation mgl64.Quat) Transform {
	return Transform{Origin: origin, Rotation: rotation.Normalize()}
}

// Apply maps a point from local to world space.
func (t Transform) Apply(p mgl64.Vec3) mgl64.Vec3 {
	return t.Rotation.Rotate(p).Add(t.Origin)
}

// ApplyVector rotates a direction without translating it.
func (t Transform) ApplyVector(v mgl64.Vec3) mgl64.Vec3 {
	return t.Rotation.Rotate(v)
}

// Mul returns t∘o: first o, then t.
func (t Transform) Mul(o Transform) Transform {
	return Transform{
		Origin:   t.Apply(o.Origin),
		Rotation: t.Rotation.Mul(o.Rotation).Normalize(),
	}
}

func (t Transform) Inverse() Transform {
	inv := t.Rotation.Conjugate()
	return Transform{
		Origin:   inv.Rotate(t.Origin.Mul(-1)),
		Rotation: inv,
	}
}

// Basis returns the rotation as a 3x3 matrix with the rotated unit axes as
// columns.
func (t Transform) Basis() mgl64.Mat3 {
	return rotationMatrix(t.Rotation)
}

func rotationMatrix(q mgl64.Quat) mgl64.Mat3 {
	return mgl64.Mat3FromCols(
		q.Rotate(mgl64.Vec3{1, 0, 0}),
		q.Rotate(mgl64.Vec3{0, 1, 0}),
		q.Rotate(mgl64.Vec3{0, 0, 1}),
	)
}

// integrateRotation advances q by angular velocity w over h.
func integrateRotation(q mgl64.Quat, w mgl64.Vec3, h float64) mgl64.Quat {
	spin := mgl64.Quat{W: 0, V: w}.Mul(q)
	return mgl64.Quat{
		W: q.W + 0.5*h*spin.W,
		V: q.V.Add(spin.V.Mul(0.5 * h)),
	}.Normalize()
}

// angularVelocityBetween returns the constant angular velocity that rotates
// from into to over dt.
func angularVelocityBetween(from, to mgl64.Quat, dt float64) mgl64.Vec3 {
	d := to.Mul(from.Conjugate()).Normalize()
	if d.W < 0 {
		d = mgl64.Quat{W: -d.W, V: d.V.Mul(-1)}
	}
	w := math.Min(1, d.W)
	angle := 2 * math.Acos(w)
	s := math.Sqrt(1 - w*w)
	if s < 1e-9 || dt <= 0 {
		return mgl64.Vec3{}
	}
	return d.V.Mul(angle / (s * dt))
}

func orthonormalBasis(n mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	var t mgl64.Vec3
	if math.Abs(n.X()) > 0.7071 {
		t = mgl64.Vec3{n.Y(), -n.X(), 0}
	} else {
		t = mgl64.Vec3{0, n.Z(), -n.Y()}
	}
	t = t.Normalize()
	return t, n.Cross(t)
}

func vecMin(a, b mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{math.Min(a[0], b[0]), math.Min(a[1], b[1]), math.Min(a[2], b[2])}
}

func vecMax(a, b mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{math.Max(a[0], b[0]), math.Max(a[1], b[1]), math.Max(a[2], b[2])}
}

func mulElem(a, b mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}
