// Package prim holds the primitive value types produced by geometries for a single
// intersection call: boxes, spheres, cylinders, triangles, rays, heightfield and
// voxel grid views.
//
// Primitives are plain values. A geometry builds them in world space (usually inside a
// caller's scratch slot) and they are not retained beyond the call that produced them.
package prim

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Kind tags a primitive shape. It indexes the overlap predicate table.
type Kind int

const (
	KindBox Kind = iota
	KindTriangle
	KindSphere
	KindCylinder
	KindRay
	KindHeightfield
	KindVoxelGrid
	NumKinds
)

var kindNames = [NumKinds]string{"box", "triangle", "sphere", "cylinder", "ray", "heightfield", "voxelgrid"}

func (k Kind) String() string {
	if k < 0 || k >= NumKinds {
		return "unknown"
	}
	return kindNames[k]
}

// Shape is implemented by every primitive
type Shape interface {
	Kind() Kind
}

// Convex is implemented by the primitives that have a support mapping, so GJK and EPA
// can run on them.
type Convex interface {
	Shape
	// Support returns the furthest point of the shape along direction, in world space
	Support(direction mgl64.Vec3) mgl64.Vec3
	// Centroid returns an interior point, used to seed the GJK search direction
	Centroid() mgl64.Vec3
}

// Item is a world-space primitive tagged with its index in the geometry that produced it
type Item struct {
	Shape Shape
	Index int
}

var incMod3 = [3]int{1, 2, 0}
var decMod3 = [3]int{2, 0, 1}

// Box is an oriented box. Basis rows are the box axes in world space, so
// local = Basis·(p-Center) and world = Basisᵀ·local + Center.
// When Oriented is false the basis is ignored and treated as identity.
type Box struct {
	Center   mgl64.Vec3
	Size     mgl64.Vec3
	Basis    mgl64.Mat3
	Oriented bool
}

func (b *Box) Kind() Kind { return KindBox }

// Axis returns the i-th box axis in world space
func (b *Box) Axis(i int) mgl64.Vec3 {
	if !b.Oriented {
		var axis mgl64.Vec3
		axis[i] = 1
		return axis
	}
	return b.Basis.Row(i)
}

// ToLocal transforms a world point into the box frame (center at the origin)
func (b *Box) ToLocal(p mgl64.Vec3) mgl64.Vec3 {
	d := p.Sub(b.Center)
	if !b.Oriented {
		return d
	}
	return b.Basis.Mul3x1(d)
}

// DirToLocal rotates a world direction into the box frame
func (b *Box) DirToLocal(d mgl64.Vec3) mgl64.Vec3 {
	if !b.Oriented {
		return d
	}
	return b.Basis.Mul3x1(d)
}

// ToWorld transforms a box-local point back into world space
func (b *Box) ToWorld(local mgl64.Vec3) mgl64.Vec3 {
	return b.DirToWorld(local).Add(b.Center)
}

// DirToWorld rotates a box-local direction into world space
func (b *Box) DirToWorld(local mgl64.Vec3) mgl64.Vec3 {
	if !b.Oriented {
		return local
	}
	return b.Basis.Transpose().Mul3x1(local)
}

// Vertex returns the local position of the corner ivtx: bit i set means +Size along axis i
func (b *Box) Vertex(ivtx int) mgl64.Vec3 {
	v := b.Size
	for i := 0; i < 3; i++ {
		if ivtx>>i&1 == 0 {
			v[i] = -v[i]
		}
	}
	return v
}

// Volume of the box
func (b *Box) Volume() float64 {
	return 8 * b.Size.X() * b.Size.Y() * b.Size.Z()
}

// Support returns the corner furthest along direction
func (b *Box) Support(direction mgl64.Vec3) mgl64.Vec3 {
	local := b.DirToLocal(direction)
	hx, hy, hz := b.Size.X(), b.Size.Y(), b.Size.Z()

	if local.X() < 0 {
		hx = -hx
	}
	if local.Y() < 0 {
		hy = -hy
	}
	if local.Z() < 0 {
		hz = -hz
	}

	return b.ToWorld(mgl64.Vec3{hx, hy, hz})
}

func (b *Box) Centroid() mgl64.Vec3 { return b.Center }

// Sphere is a ball of radius R
type Sphere struct {
	Center mgl64.Vec3
	R      float64
}

func (s *Sphere) Kind() Kind { return KindSphere }

func (s *Sphere) Support(direction mgl64.Vec3) mgl64.Vec3 {
	l := direction.Len()
	if l < 1e-12 {
		return s.Center
	}
	return s.Center.Add(direction.Mul(s.R / l))
}

func (s *Sphere) Centroid() mgl64.Vec3 { return s.Center }

// Cylinder is a capped cylinder around Axis (unit length) with radius R and half height HH
type Cylinder struct {
	Center mgl64.Vec3
	Axis   mgl64.Vec3
	R      float64
	HH     float64
}

func (c *Cylinder) Kind() Kind { return KindCylinder }

// Support picks the cap along direction, then the rim point along its radial part
func (c *Cylinder) Support(direction mgl64.Vec3) mgl64.Vec3 {
	along := direction.Dot(c.Axis)
	p := c.Center
	if along >= 0 {
		p = p.Add(c.Axis.Mul(c.HH))
	} else {
		p = p.Sub(c.Axis.Mul(c.HH))
	}

	radial := direction.Sub(c.Axis.Mul(along))
	if l := radial.Len(); l > 1e-12 {
		p = p.Add(radial.Mul(c.R / l))
	}
	return p
}

func (c *Cylinder) Centroid() mgl64.Vec3 { return c.Center }

// Triangle with an unnormalized face normal N = (Pt1-Pt0)×(Pt2-Pt0).
// Callers must not assume |N| == 1.
type Triangle struct {
	Pt [3]mgl64.Vec3
	N  mgl64.Vec3
}

// NewTriangle builds a triangle and its unnormalized normal
func NewTriangle(p0, p1, p2 mgl64.Vec3) Triangle {
	return Triangle{
		Pt: [3]mgl64.Vec3{p0, p1, p2},
		N:  p1.Sub(p0).Cross(p2.Sub(p0)),
	}
}

func (t *Triangle) Kind() Kind { return KindTriangle }

func (t *Triangle) Support(direction mgl64.Vec3) mgl64.Vec3 {
	best := 0
	bestDot := t.Pt[0].Dot(direction)
	for i := 1; i < 3; i++ {
		if d := t.Pt[i].Dot(direction); d > bestDot {
			best, bestDot = i, d
		}
	}
	return t.Pt[best]
}

func (t *Triangle) Centroid() mgl64.Vec3 {
	return t.Pt[0].Add(t.Pt[1]).Add(t.Pt[2]).Mul(1.0 / 3)
}

// Ray is a segment from Origin to Origin+Dir. The length of Dir is the maximum travel
// distance of the query, not 1.
type Ray struct {
	Origin mgl64.Vec3
	Dir    mgl64.Vec3
}

func (r *Ray) Kind() Kind { return KindRay }

// End returns Origin+Dir
func (r *Ray) End() mgl64.Vec3 { return r.Origin.Add(r.Dir) }

func (r *Ray) Support(direction mgl64.Vec3) mgl64.Vec3 {
	if r.Dir.Dot(direction) > 0 {
		return r.End()
	}
	return r.Origin
}

func (r *Ray) Centroid() mgl64.Vec3 { return r.Origin.Add(r.Dir.Mul(0.5)) }

// TangentBasis returns an orthonormal pair perpendicular to the unit vector n
func TangentBasis(n mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	t1 := mgl64.Vec3{1, 0, 0}
	if math.Abs(n.X()) > 0.9 {
		t1 = mgl64.Vec3{0, 1, 0}
	}

	t1 = t1.Sub(n.Mul(t1.Dot(n))).Normalize()
	t2 := n.Cross(t1).Normalize()

	return t1, t2
}
