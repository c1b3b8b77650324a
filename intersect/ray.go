package intersect

import (
	"math"

	"github.com/akmonengine/quill/prim"
	"github.com/go-gl/mathgl/mgl64"
)

// RayTriangle intersects the ray segment with a triangle, from either side. A ray
// parallel to the triangle plane never hits.
func RayTriangle(ray *prim.Ray, tri *prim.Triangle, out *Result) bool {
	e1 := tri.Pt[1].Sub(tri.Pt[0])
	e2 := tri.Pt[2].Sub(tri.Pt[0])
	p := ray.Dir.Cross(e2)
	det := e1.Dot(p)
	if math.Abs(det) <= 1e-12*e1.Len()*e2.Len()*ray.Dir.Len() {
		return false
	}

	inv := 1 / det
	s := ray.Origin.Sub(tri.Pt[0])
	u := s.Dot(p) * inv
	if u < 0 || u > 1 {
		return false
	}
	q := s.Cross(e1)
	v := ray.Dir.Dot(q) * inv
	if v < 0 || u+v > 1 {
		return false
	}
	t := e2.Dot(q) * inv
	if t < 0 || t > 1 {
		return false
	}

	out.Pt = ray.Origin.Add(ray.Dir.Mul(t))
	out.N = tri.N.Normalize()
	out.T = t
	out.IFeature = [2]int{RayFeature, SurfaceFeature}
	return true
}

// RayBox clips the ray against the box slabs. The entry face is reported, or the exit
// face when the ray starts inside the box. A ray lying fully inside reports nothing.
func RayBox(ray *prim.Ray, box *prim.Box, out *Result) bool {
	origin := box.ToLocal(ray.Origin)
	dir := box.DirToLocal(ray.Dir)

	tmin, tmax := 0.0, 1.0
	bestMin, bestMax := -1, -1
	for i := 0; i < 3; i++ {
		if math.Abs(dir[i]) < 1e-12 {
			if math.Abs(origin[i]) > box.Size[i] {
				return false
			}
			continue
		}

		inv := 1 / dir[i]
		t0 := (-box.Size[i] - origin[i]) * inv
		t1 := (box.Size[i] - origin[i]) * inv
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		if t0 > tmin {
			tmin, bestMin = t0, i
		}
		if t1 < tmax {
			tmax, bestMax = t1, i
		}
	}

	if tmin > tmax || (bestMin < 0 && bestMax < 0) {
		return false
	}

	t, axis := tmin, bestMin
	if bestMin < 0 {
		t, axis = tmax, bestMax
	}

	out.Pt = ray.Origin.Add(ray.Dir.Mul(t))
	n := box.Axis(axis)
	if n.Dot(out.Pt.Sub(box.Center)) < 0 {
		n = n.Mul(-1)
	}
	out.N = n
	out.T = t
	out.IFeature = [2]int{RayFeature, prim.BoxFace(axis, box.DirToLocal(n)[axis] > 0)}
	return true
}

// RaySphere reports the first crossing of the sphere surface within the segment
func RaySphere(ray *prim.Ray, s *prim.Sphere, out *Result) bool {
	d := ray.Origin.Sub(s.Center)
	a := ray.Dir.LenSqr()
	if a < 1e-24 {
		return false
	}
	b := ray.Dir.Dot(d)
	c := d.LenSqr() - s.R*s.R

	disc := b*b - a*c
	if disc < 0 {
		return false
	}
	disc = math.Sqrt(disc)

	t := (-b - disc) / a
	if t < 0 || t > 1 {
		t = (-b + disc) / a
		if t < 0 || t > 1 {
			return false
		}
	}

	out.Pt = ray.Origin.Add(ray.Dir.Mul(t))
	out.N = out.Pt.Sub(s.Center)
	if l := out.N.Len(); l > 0 {
		out.N = out.N.Mul(1 / l)
	}
	out.T = t
	out.IFeature = [2]int{RayFeature, SurfaceFeature}
	return true
}

// SphereSphere reports the midpoint of the overlap lens
func SphereSphere(a, b *prim.Sphere, out *Result) bool {
	dc := b.Center.Sub(a.Center)
	r := a.R + b.R
	dist2 := dc.LenSqr()
	if dist2 > r*r {
		return false
	}

	dist := math.Sqrt(dist2)
	n := mgl64.Vec3{0, 0, 1}
	if dist > 1e-12 {
		n = dc.Mul(1 / dist)
	}

	// halfway between the two deepest points
	out.Pt = a.Center.Add(n.Mul(a.R)).Add(b.Center.Sub(n.Mul(b.R))).Mul(0.5)
	out.N = n
	out.T = r - dist
	out.IFeature = [2]int{SurfaceFeature, SurfaceFeature}
	return true
}
