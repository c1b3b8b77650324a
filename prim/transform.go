package prim

import "github.com/go-gl/mathgl/mgl64"

// Transform places a geometry in world space: world = Position + Rotation·(Scale·local)
type Transform struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
	Scale    float64
}

// NewTransform creates an identity transform
func NewTransform() Transform {
	return Transform{
		Position: mgl64.Vec3{0, 0, 0},
		Rotation: mgl64.QuatIdent(),
		Scale:    1,
	}
}

// IsIdentityRotation reports whether the rotation can be skipped
func (t Transform) IsIdentityRotation() bool {
	return t.Rotation.W == 1 && t.Rotation.V == (mgl64.Vec3{})
}

// Apply transforms a local point into world space
func (t Transform) Apply(p mgl64.Vec3) mgl64.Vec3 {
	return t.Rotation.Rotate(p.Mul(t.scale())).Add(t.Position)
}

// ApplyDir rotates a local direction into world space
func (t Transform) ApplyDir(d mgl64.Vec3) mgl64.Vec3 {
	return t.Rotation.Rotate(d)
}

// Inverse transforms a world point into local space
func (t Transform) Inverse(p mgl64.Vec3) mgl64.Vec3 {
	return t.Rotation.Conjugate().Rotate(p.Sub(t.Position)).Mul(1 / t.scale())
}

// Basis returns the rotation as a row basis (rows are the rotated local axes), the
// convention used by Box and Heightfield.
func (t Transform) Basis() mgl64.Mat3 {
	return t.Rotation.Normalize().Mat4().Mat3().Transpose()
}

func (t Transform) scale() float64 {
	if t.Scale == 0 {
		return 1
	}
	return t.Scale
}

// Transformed places a geometry-local box in world space
func (b *Box) Transformed(t Transform) Box {
	s := t.scale()
	out := Box{
		Center: t.Apply(b.Center),
		Size:   b.Size.Mul(s),
		Basis:  mgl64.Ident3(),
	}

	switch {
	case t.IsIdentityRotation():
		out.Basis, out.Oriented = b.Basis, b.Oriented
	case b.Oriented:
		out.Basis, out.Oriented = b.Basis.Mul3(t.Basis()), true
	default:
		out.Basis, out.Oriented = t.Basis(), true
	}
	if !out.Oriented {
		out.Basis = mgl64.Ident3()
	}
	return out
}
