package overlap

import (
	"math"

	"github.com/akmonengine/quill/prim"
	"github.com/go-gl/mathgl/mgl64"
)

// BoxEpsilonScale scales the separating margin of the box tests: the margin is
// BoxEpsilonScale × (sum of the box half-extents), the larger sum for box pairs.
const BoxEpsilonScale = 1e-4

var incMod3 = [3]int{1, 2, 0}
var decMod3 = [3]int{2, 0, 1}

func boxEpsilon(b *prim.Box) float64 {
	return BoxEpsilonScale * (b.Size.X() + b.Size.Y() + b.Size.Z())
}

// BoxBox is the separating axis test between two oriented boxes over the 15 candidate
// axes: 3 faces of a, 3 faces of b and the 9 edge cross products.
//
// Every projected gap is compared against a margin of BoxEpsilonScale times the larger
// of the two half-extent sums, so nearly touching boxes report an overlap and the
// result does not depend on the argument order.
//
// c caches the relative basis of b in the frame of a between calls; a nil cache
// computes it every time.
func BoxBox(a, b *prim.Box, c *Cache) bool {
	r, absR := c.Relative(a, b)
	t := a.ToLocal(b.Center)
	ea, eb := a.Size, b.Size
	eps := math.Max(boxEpsilon(a), boxEpsilon(b))

	// faces of a
	for i := 0; i < 3; i++ {
		rb := eb[0]*absR.At(i, 0) + eb[1]*absR.At(i, 1) + eb[2]*absR.At(i, 2)
		if math.Abs(t[i]) > ea[i]+rb+eps {
			return false
		}
	}

	// faces of b
	for j := 0; j < 3; j++ {
		ra := ea[0]*absR.At(0, j) + ea[1]*absR.At(1, j) + ea[2]*absR.At(2, j)
		d := t[0]*r.At(0, j) + t[1]*r.At(1, j) + t[2]*r.At(2, j)
		if math.Abs(d) > ra+eb[j]+eps {
			return false
		}
	}

	// axis(a, i) × axis(b, j)
	for i := 0; i < 3; i++ {
		i1, i2 := incMod3[i], decMod3[i]
		for j := 0; j < 3; j++ {
			j1, j2 := incMod3[j], decMod3[j]
			ra := ea[i1]*absR.At(i2, j) + ea[i2]*absR.At(i1, j)
			rb := eb[j1]*absR.At(i, j2) + eb[j2]*absR.At(i, j1)
			d := t[i2]*r.At(i1, j) - t[i1]*r.At(i2, j)
			if math.Abs(d) > ra+rb+eps {
				return false
			}
		}
	}

	return true
}

// BoxTriangle is the 13 axis separating test: 3 box faces, the triangle normal and the
// 9 cross products of box axes with triangle edges.
func BoxTriangle(box *prim.Box, tri *prim.Triangle, c *Cache) bool {
	var v [3]mgl64.Vec3
	for k := 0; k < 3; k++ {
		v[k] = box.ToLocal(tri.Pt[k])
	}
	return boxTriangleLocal(box.Size, v, box.DirToLocal(tri.N), boxEpsilon(box))
}

// boxTriangleLocal runs the test with the box centered at the origin, axis aligned
func boxTriangleLocal(e mgl64.Vec3, v [3]mgl64.Vec3, n mgl64.Vec3, eps float64) bool {
	// box faces: the triangle's extent along each axis against the slab
	for i := 0; i < 3; i++ {
		lo := math.Min(v[0][i], math.Min(v[1][i], v[2][i]))
		hi := math.Max(v[0][i], math.Max(v[1][i], v[2][i]))
		if lo > e[i]+eps || hi < -e[i]-eps {
			return false
		}
	}

	// triangle plane
	r := e[0]*math.Abs(n[0]) + e[1]*math.Abs(n[1]) + e[2]*math.Abs(n[2])
	if math.Abs(n.Dot(v[0])) > r+eps*n.Len() {
		return false
	}

	// edge cross products
	for k := 0; k < 3; k++ {
		f := v[incMod3[k]].Sub(v[k])
		for i := 0; i < 3; i++ {
			var axisI mgl64.Vec3
			axisI[i] = 1
			a := axisI.Cross(f)
			la := a.Len()
			if la < 1e-12 {
				continue
			}

			p0, p1, p2 := a.Dot(v[0]), a.Dot(v[1]), a.Dot(v[2])
			r := e[0]*math.Abs(a[0]) + e[1]*math.Abs(a[1]) + e[2]*math.Abs(a[2]) + eps*la
			if math.Min(p0, math.Min(p1, p2)) > r || math.Max(p0, math.Max(p1, p2)) < -r {
				return false
			}
		}
	}

	return true
}

// BoxRay tests the ray segment against the box in box space. l is the segment
// half-vector and m its midpoint.
func BoxRay(box *prim.Box, ray *prim.Ray, c *Cache) bool {
	l := box.DirToLocal(ray.Dir).Mul(0.5)
	m := box.ToLocal(ray.Origin).Add(l)
	e := box.Size
	eps := boxEpsilon(box)

	adx, ady, adz := math.Abs(l[0]), math.Abs(l[1]), math.Abs(l[2])
	if math.Abs(m[0]) > e[0]+adx+eps ||
		math.Abs(m[1]) > e[1]+ady+eps ||
		math.Abs(m[2]) > e[2]+adz+eps {
		return false
	}

	// box edges × ray direction
	adx, ady, adz = adx+eps, ady+eps, adz+eps
	if math.Abs(m[1]*l[2]-m[2]*l[1]) > e[1]*adz+e[2]*ady {
		return false
	}
	if math.Abs(m[2]*l[0]-m[0]*l[2]) > e[0]*adz+e[2]*adx {
		return false
	}
	if math.Abs(m[0]*l[1]-m[1]*l[0]) > e[0]*ady+e[1]*adx {
		return false
	}

	return true
}

// BoxSphere clamps the sphere center onto the box. With a zero radius it agrees with
// point classification: the boundary counts as inside.
func BoxSphere(box *prim.Box, s *prim.Sphere, c *Cache) bool {
	local := box.ToLocal(s.Center)
	var d mgl64.Vec3
	for i := 0; i < 3; i++ {
		d[i] = local[i] - mgl64.Clamp(local[i], -box.Size[i], box.Size[i])
	}
	return d.LenSqr() <= s.R*s.R
}
