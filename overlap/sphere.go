package overlap

import (
	"math"

	"github.com/akmonengine/quill/prim"
	"github.com/go-gl/mathgl/mgl64"
)

// SphereTriangle bootstraps from the triangle vertex nearest to the sphere center,
// then classifies the center against the edge half-planes. Inside all of them the
// distance is the plane distance, otherwise the distance to the nearest edge segment.
func SphereTriangle(s *prim.Sphere, tri *prim.Triangle, c *Cache) bool {
	return sphereTriangleDistSq(s.Center, tri) <= s.R*s.R
}

func sphereTriangleDistSq(center mgl64.Vec3, tri *prim.Triangle) float64 {
	best := 0
	bestDist := center.Sub(tri.Pt[0]).LenSqr()
	for k := 1; k < 3; k++ {
		if d := center.Sub(tri.Pt[k]).LenSqr(); d < bestDist {
			best, bestDist = k, d
		}
	}

	// outward side of edge k (Pt[k] -> Pt[k+1]) within the triangle plane
	outside := func(k int) bool {
		edge := tri.Pt[incMod3[k]].Sub(tri.Pt[k])
		return edge.Cross(tri.N).Dot(center.Sub(tri.Pt[k])) > 0
	}

	// the two edges adjoining the nearest vertex, then the opposite one
	outNext := outside(best)
	outPrev := outside(decMod3[best])
	outOpposite := outside(incMod3[best])

	if !outNext && !outPrev && !outOpposite {
		nn := tri.N.LenSqr()
		if nn < 1e-24 {
			return bestDist
		}
		d := tri.N.Dot(center.Sub(tri.Pt[0]))
		return d * d / nn
	}

	for k, out := range [3]bool{outNext, outOpposite, outPrev} {
		if !out {
			continue
		}
		edge := (best + k) % 3
		if d := segmentDistSq(center, tri.Pt[edge], tri.Pt[incMod3[edge]]); d < bestDist {
			bestDist = d
		}
	}
	return bestDist
}

// segmentDistSq returns the squared distance from p to the segment [a, b]
func segmentDistSq(p, a, b mgl64.Vec3) float64 {
	ab := b.Sub(a)
	l := ab.LenSqr()
	if l < 1e-24 {
		return p.Sub(a).LenSqr()
	}
	t := mgl64.Clamp(p.Sub(a).Dot(ab)/l, 0, 1)
	return p.Sub(a.Add(ab.Mul(t))).LenSqr()
}

// SphereSphere compares the center distance with the sum of radii
func SphereSphere(a, b *prim.Sphere, c *Cache) bool {
	r := a.R + b.R
	return a.Center.Sub(b.Center).LenSqr() <= r*r
}

// SphereRay compares the distance from the center to the ray segment with the radius
func SphereRay(s *prim.Sphere, ray *prim.Ray, c *Cache) bool {
	return segmentDistSq(s.Center, ray.Origin, ray.End()) <= s.R*s.R
}

// RayTriangle is the Möller-Trumbore test restricted to the segment [0, 1] of the ray.
// A ray lying in the triangle plane is reported as overlapping.
func RayTriangle(ray *prim.Ray, tri *prim.Triangle, c *Cache) bool {
	e1 := tri.Pt[1].Sub(tri.Pt[0])
	e2 := tri.Pt[2].Sub(tri.Pt[0])
	p := ray.Dir.Cross(e2)
	det := e1.Dot(p)

	scale := e1.Len() * e2.Len() * ray.Dir.Len()
	if math.Abs(det) <= 1e-12*scale {
		// parallel: overlapping only when coplanar, let the exact stage decide
		return math.Abs(tri.N.Dot(ray.Origin.Sub(tri.Pt[0]))) <= 1e-9*tri.N.Len()
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
	return t >= 0 && t <= 1
}
