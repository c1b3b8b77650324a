package prim

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// AABB represents an axis-aligned bounding box
type AABB struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// AABBFromPoints returns the smallest AABB containing all the points
func AABBFromPoints(points ...mgl64.Vec3) AABB {
	if len(points) == 0 {
		return AABB{}
	}

	aabb := AABB{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		aabb = aabb.Extend(p)
	}
	return aabb
}

// ContainsPoint checks if a point is inside the AABB
func (a AABB) ContainsPoint(point mgl64.Vec3) bool {
	return point.X() >= a.Min.X() && point.X() <= a.Max.X() &&
		point.Y() >= a.Min.Y() && point.Y() <= a.Max.Y() &&
		point.Z() >= a.Min.Z() && point.Z() <= a.Max.Z()
}

// Overlaps checks if two AABBs overlap
func (a AABB) Overlaps(other AABB) bool {
	return a.Max.X() >= other.Min.X() && a.Min.X() <= other.Max.X() &&
		a.Max.Y() >= other.Min.Y() && a.Min.Y() <= other.Max.Y() &&
		a.Max.Z() >= other.Min.Z() && a.Min.Z() <= other.Max.Z()
}

// Extend grows the box to include p
func (a AABB) Extend(p mgl64.Vec3) AABB {
	for i := 0; i < 3; i++ {
		a.Min[i] = math.Min(a.Min[i], p[i])
		a.Max[i] = math.Max(a.Max[i], p[i])
	}
	return a
}

// Union returns the AABB containing both boxes
func (a AABB) Union(other AABB) AABB {
	return a.Extend(other.Min).Extend(other.Max)
}

func (a AABB) Center() mgl64.Vec3 {
	return a.Min.Add(a.Max).Mul(0.5)
}

func (a AABB) HalfExtents() mgl64.Vec3 {
	return a.Max.Sub(a.Min).Mul(0.5)
}

// Box converts the AABB into an axis-aligned Box primitive
func (a AABB) Box() Box {
	return Box{Center: a.Center(), Size: a.HalfExtents(), Basis: mgl64.Ident3()}
}

// BoundingAABB returns the world AABB of an oriented box
func (b *Box) BoundingAABB() AABB {
	if !b.Oriented {
		return AABB{Min: b.Center.Sub(b.Size), Max: b.Center.Add(b.Size)}
	}

	// |Basisᵀ|·Size is the half extent along each world axis
	ext := b.Basis.Transpose().Abs().Mul3x1(b.Size)
	return AABB{Min: b.Center.Sub(ext), Max: b.Center.Add(ext)}
}
