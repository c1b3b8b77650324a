package epa

import (
	"math"

	"github.com/akmonengine/quill/prim"
	"github.com/go-gl/mathgl/mgl64"
)

// alignedCos is the |cos| above which a face counts as facing the contact normal
const alignedCos = 0.99

// GenerateManifold clips the contact features of a and b (Sutherland-Hodgman) and
// returns 1 to 4 world contact points. normal points from a toward b.
//
// The feature with fewer points is the incident one. It is clipped against the side
// planes of the reference feature and only the points behind the reference plane are
// kept.
func GenerateManifold(a, b prim.Convex, normal mgl64.Vec3) []mgl64.Vec3 {
	featureA := ContactFeature(a, normal)
	featureB := ContactFeature(b, normal.Mul(-1))

	incident, reference := featureB, featureA
	refNormal := normal
	if len(featureB) > len(featureA) {
		incident, reference = featureA, featureB
		refNormal = normal.Mul(-1)
	}

	if len(incident) == 1 {
		return []mgl64.Vec3{incident[0]}
	}
	if len(reference) == 2 {
		// edge against edge
		pa, pb := closestSegmentPoints(reference[0], reference[1], incident[0], incident[1])
		return []mgl64.Vec3{pa.Add(pb).Mul(0.5)}
	}

	clipped := clipIncidentAgainstReference(incident, reference, refNormal)

	var points []mgl64.Vec3
	if len(clipped) > 0 {
		plane := reference[1].Sub(reference[0]).Cross(reference[2].Sub(reference[0])).Normalize()
		if plane.Dot(refNormal) < 0 {
			plane = plane.Mul(-1)
		}
		offset := reference[0].Dot(plane)

		for _, p := range clipped {
			if p.Dot(plane)-offset <= 1e-9 {
				points = append(points, p)
			}
		}
	}

	if len(points) == 0 {
		points = append(points, b.Support(normal.Mul(-1)))
	}
	if len(points) > 4 {
		points = reduceTo4Points(points, normal)
	}

	return points
}

// ContactFeature returns the world-space vertex, edge or face of c that is extreme
// along direction.
func ContactFeature(c prim.Convex, direction mgl64.Vec3) []mgl64.Vec3 {
	dir := direction.Normalize()

	switch s := c.(type) {
	case *prim.Box:
		return boxFace(s, dir)
	case *prim.Triangle:
		return triangleFeature(s, dir)
	case *prim.Cylinder:
		return cylinderFeature(s, dir)
	case *prim.Ray:
		if math.Abs(s.Dir.Normalize().Dot(dir)) < 1e-3 {
			return []mgl64.Vec3{s.Origin, s.End()}
		}
	}
	return []mgl64.Vec3{c.Support(dir)}
}

// boxFace returns the corners of the box face most aligned with dir, counter-clockwise
// seen from outside.
func boxFace(b *prim.Box, dir mgl64.Vec3) []mgl64.Vec3 {
	local := b.DirToLocal(dir)

	axis := 0
	for i := 1; i < 3; i++ {
		if math.Abs(local[i]) > math.Abs(local[axis]) {
			axis = i
		}
	}
	u, v := (axis+1)%3, (axis+2)%3

	sign := 1.0
	if local[axis] < 0 {
		sign = -1
	}

	corners := [4][2]float64{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}
	face := make([]mgl64.Vec3, 4)
	for k, uv := range corners {
		var p mgl64.Vec3
		p[axis] = sign * b.Size[axis]
		p[u] = uv[0] * b.Size[u]
		p[v] = uv[1] * sign * b.Size[v]
		face[k] = b.ToWorld(p)
	}
	return face
}

func triangleFeature(t *prim.Triangle, dir mgl64.Vec3) []mgl64.Vec3 {
	if n := t.N.Len(); n > 0 && math.Abs(t.N.Dot(dir))/n > alignedCos {
		return []mgl64.Vec3{t.Pt[0], t.Pt[1], t.Pt[2]}
	}

	// two best vertices: an edge when they tie
	best, second := 0, -1
	for i := 1; i < 3; i++ {
		if t.Pt[i].Dot(dir) > t.Pt[best].Dot(dir) {
			best, second = i, best
		} else if second < 0 || t.Pt[i].Dot(dir) > t.Pt[second].Dot(dir) {
			second = i
		}
	}

	scale := t.Pt[best].Sub(t.Pt[second]).Len()
	if t.Pt[best].Dot(dir)-t.Pt[second].Dot(dir) < 1e-3*scale {
		return []mgl64.Vec3{t.Pt[best], t.Pt[second]}
	}
	return []mgl64.Vec3{t.Pt[best]}
}

func cylinderFeature(c *prim.Cylinder, dir mgl64.Vec3) []mgl64.Vec3 {
	along := c.Axis.Dot(dir)
	if math.Abs(along) > alignedCos {
		// cap, approximated by its inscribed square
		center := c.Center.Add(c.Axis.Mul(math.Copysign(c.HH, along)))
		t1, t2 := prim.TangentBasis(c.Axis)
		return []mgl64.Vec3{
			center.Add(t1.Mul(c.R)),
			center.Add(t2.Mul(c.R)),
			center.Sub(t1.Mul(c.R)),
			center.Sub(t2.Mul(c.R)),
		}
	}

	if math.Abs(along) < 1-alignedCos {
		// side line
		radial := dir.Sub(c.Axis.Mul(along)).Normalize().Mul(c.R)
		return []mgl64.Vec3{
			c.Center.Add(radial).Sub(c.Axis.Mul(c.HH)),
			c.Center.Add(radial).Add(c.Axis.Mul(c.HH)),
		}
	}

	return []mgl64.Vec3{c.Support(dir)}
}

// clipIncidentAgainstReference clips the incident polygon by the side planes of the
// reference polygon
func clipIncidentAgainstReference(incident, reference []mgl64.Vec3, normal mgl64.Vec3) []mgl64.Vec3 {
	output := incident
	center := computeCenter(reference)

	for i := 0; i < len(reference) && len(output) > 0; i++ {
		v1 := reference[i]
		v2 := reference[(i+1)%len(reference)]

		clipNormal := v2.Sub(v1).Cross(normal).Normalize()
		if center.Sub(v1).Dot(clipNormal) < 0 {
			clipNormal = clipNormal.Mul(-1)
		}

		output = clipPolygonAgainstPlane(output, v1, clipNormal)
	}

	return output
}

// clipPolygonAgainstPlane keeps the part of the polygon on the positive side of the plane
func clipPolygonAgainstPlane(polygon []mgl64.Vec3, planePoint, planeNormal mgl64.Vec3) []mgl64.Vec3 {
	const tolerance = 1e-6

	var output []mgl64.Vec3
	for i := 0; i < len(polygon); i++ {
		current := polygon[i]
		next := polygon[(i+1)%len(polygon)]

		currentDist := current.Sub(planePoint).Dot(planeNormal)
		nextDist := next.Sub(planePoint).Dot(planeNormal)

		if currentDist >= -tolerance {
			output = append(output, current)
			if nextDist < -tolerance {
				output = append(output, lineIntersectPlane(current, next, planePoint, planeNormal))
			}
		} else if nextDist >= -tolerance {
			output = append(output, lineIntersectPlane(current, next, planePoint, planeNormal))
		}
	}

	return output
}

func lineIntersectPlane(p1, p2, planePoint, planeNormal mgl64.Vec3) mgl64.Vec3 {
	dir := p2.Sub(p1)
	denom := dir.Dot(planeNormal)
	if math.Abs(denom) < 1e-10 {
		return p1
	}

	t := mgl64.Clamp(-p1.Sub(planePoint).Dot(planeNormal)/denom, 0, 1)
	return p1.Add(dir.Mul(t))
}

// closestSegmentPoints returns the closest points between segments [p1,q1] and [p2,q2]
func closestSegmentPoints(p1, q1, p2, q2 mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	d1 := q1.Sub(p1)
	d2 := q2.Sub(p2)
	r := p1.Sub(p2)
	a, e, f := d1.LenSqr(), d2.LenSqr(), d2.Dot(r)

	var s, t float64
	switch {
	case a <= 1e-12 && e <= 1e-12:
		return p1, p2
	case a <= 1e-12:
		t = mgl64.Clamp(f/e, 0, 1)
	default:
		c := d1.Dot(r)
		if e <= 1e-12 {
			s = mgl64.Clamp(-c/a, 0, 1)
		} else {
			b := d1.Dot(d2)
			denom := a*e - b*b
			if denom > 1e-12 {
				s = mgl64.Clamp((b*f-c*e)/denom, 0, 1)
			}
			t = (b*s + f) / e
			if t < 0 {
				t, s = 0, mgl64.Clamp(-c/a, 0, 1)
			} else if t > 1 {
				t, s = 1, mgl64.Clamp((b-c)/a, 0, 1)
			}
		}
	}

	return p1.Add(d1.Mul(s)), p2.Add(d2.Mul(t))
}

func computeCenter(points []mgl64.Vec3) mgl64.Vec3 {
	if len(points) == 0 {
		return mgl64.Vec3{}
	}

	sum := mgl64.Vec3{}
	for _, p := range points {
		sum = sum.Add(p)
	}
	return sum.Mul(1 / float64(len(points)))
}

// reduceTo4Points keeps the extreme points along two tangent directions
func reduceTo4Points(points []mgl64.Vec3, normal mgl64.Vec3) []mgl64.Vec3 {
	t1, t2 := prim.TangentBasis(normal)

	var extremes [4]int
	var values = [4]float64{math.Inf(1), math.Inf(-1), math.Inf(1), math.Inf(-1)}
	for i, p := range points {
		x, y := p.Dot(t1), p.Dot(t2)
		if x < values[0] {
			values[0], extremes[0] = x, i
		}
		if x > values[1] {
			values[1], extremes[1] = x, i
		}
		if y < values[2] {
			values[2], extremes[2] = y, i
		}
		if y > values[3] {
			values[3], extremes[3] = y, i
		}
	}

	result := make([]mgl64.Vec3, 0, 4)
	for k, idx := range extremes {
		duplicate := false
		for _, prev := range extremes[:k] {
			duplicate = duplicate || prev == idx
		}
		if !duplicate {
			result = append(result, points[idx])
		}
	}
	return result
}
