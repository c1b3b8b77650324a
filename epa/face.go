package epa

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Face is a triangle of the polytope with its outward normal and distance to the origin
type Face struct {
	Points   [3]mgl64.Vec3
	Normal   mgl64.Vec3
	Distance float64
}

// newFaceOutward builds a face whose normal points away from the interior point and
// away from the origin.
func newFaceOutward(p0, p1, p2, interior mgl64.Vec3) Face {
	face := Face{Points: [3]mgl64.Vec3{p0, p1, p2}}

	normal := p1.Sub(p0).Cross(p2.Sub(p0))
	length := normal.Len()
	if length < 1e-8 {
		face.Normal = mgl64.Vec3{0, 0, 1}
		face.Distance = MinFaceDistance
		return face
	}
	normal = normal.Mul(1 / length)

	if normal.Dot(interior.Sub(p0)) > 0 {
		normal = normal.Mul(-1)
	}

	distance := p0.Dot(normal)
	if distance < 0 {
		normal = normal.Mul(-1)
		distance = -distance
	}

	face.Normal = snapNormalToAxis(normal)
	face.Distance = max(distance, MinFaceDistance)
	return face
}

// compareVec3 orders vectors lexicographically
func compareVec3(a, b mgl64.Vec3) int {
	for i := 0; i < 3; i++ {
		if a[i] < b[i] {
			return -1
		}
		if a[i] > b[i] {
			return 1
		}
	}
	return 0
}

// vec3Equal is exact: polytope vertices are shared by value
func vec3Equal(a, b mgl64.Vec3) bool {
	return a[0] == b[0] && a[1] == b[1] && a[2] == b[2]
}
