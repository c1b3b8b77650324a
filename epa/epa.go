// Package epa implements the Expanding Polytope Algorithm for convex primitives.
//
// EPA runs after GJK reported an overlap. It expands the final GJK simplex inside the
// Minkowski difference A-B until the face closest to the origin is found: its normal
// is the separating direction and its distance the penetration depth. The contact
// region is then built by clipping the two contact features against each other.
//
// References:
//   - Van den Bergen: "Proximity Queries and Penetration Depth Computation on 3D Game Objects" (2001)
package epa

import (
	"math"

	"github.com/akmonengine/quill/gjk"
	"github.com/akmonengine/quill/prim"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

const (
	// MaxIterations limits polytope expansion
	MaxIterations = 32

	// ConvergenceTolerance: expansion stops when a new support point improves the
	// closest face distance by less than this
	ConvergenceTolerance = 0.001

	// MinFaceDistance is the smallest distance kept for a polytope face
	MinFaceDistance = 0.0001

	// NormalSnapThreshold clamps nearly-zero normal components to zero
	NormalSnapThreshold = 1e-8

	// DegeneratePenetrationEstimate is the depth reported when GJK stopped on a
	// touching configuration with no volume to expand
	DegeneratePenetrationEstimate = 0.01

	polytopeInitialCapacity = 4
)

// ErrNoConvergence is returned when the polytope did not converge in MaxIterations
var ErrNoConvergence = errors.New("epa: no convergence")

// Penetration is the result of EPA: Normal points from a toward b, Depth is positive
// and Points holds the 1-4 contact points of the clipped features.
type Penetration struct {
	Normal mgl64.Vec3
	Depth  float64
	Points []mgl64.Vec3
}

// EPA computes the penetration of two overlapping convex primitives from the simplex
// left by gjk.GJK.
func EPA(a, b prim.Convex, simplex *gjk.Simplex) (Penetration, error) {
	if simplex.Count < 4 {
		return handleDegenerateSimplex(a, b, simplex), nil
	}

	builder := polytopeBuilderPool.Get().(*PolytopeBuilder)
	defer polytopeBuilderPool.Put(builder)
	builder.Reset()

	if err := builder.BuildInitialFaces(simplex); err != nil {
		return Penetration{}, err
	}

	for i := 0; i < MaxIterations; i++ {
		if len(builder.faces) == 0 {
			break
		}

		closestIndex := builder.FindClosestFaceIndex()
		closest := builder.faces[closestIndex]

		if closest.Distance < MinFaceDistance {
			builder.faces[closestIndex] = builder.faces[len(builder.faces)-1]
			builder.faces = builder.faces[:len(builder.faces)-1]
			continue
		}

		support := gjk.MinkowskiSupport(a, b, closest.Normal)
		if support.Dot(closest.Normal)-closest.Distance < ConvergenceTolerance {
			return newPenetration(a, b, closest.Normal, closest.Distance), nil
		}

		builder.AddPointAndRebuildFaces(support, closestIndex)
	}

	return Penetration{}, errors.Wrapf(ErrNoConvergence, "after %d iterations", MaxIterations)
}

func newPenetration(a, b prim.Convex, normal mgl64.Vec3, depth float64) Penetration {
	return Penetration{
		Normal: normal,
		Depth:  depth,
		Points: GenerateManifold(a, b, normal),
	}
}

// handleDegenerateSimplex estimates the penetration when GJK ended before building a
// tetrahedron, which happens for touching shapes.
func handleDegenerateSimplex(a, b prim.Convex, simplex *gjk.Simplex) Penetration {
	if simplex.Count >= 2 {
		// closest of the first two points, skipping points at the origin which carry
		// no direction
		p, q := simplex.Points[0], simplex.Points[1]
		if q.Len() > NormalSnapThreshold && (q.Len() < p.Len() || p.Len() <= NormalSnapThreshold) {
			p = q
		}
		if d := p.Len(); d > NormalSnapThreshold {
			return newPenetration(a, b, p.Mul(1/d), d)
		}
	}

	normal := b.Centroid().Sub(a.Centroid())
	if l := normal.Len(); l < NormalSnapThreshold {
		normal = mgl64.Vec3{0, 0, 1}
	} else {
		normal = normal.Mul(1 / l)
	}

	return newPenetration(a, b, normal, DegeneratePenetrationEstimate)
}

// snapNormalToAxis clamps nearly-zero components to zero and renormalizes, so axis
// aligned contacts keep exact axis normals.
func snapNormalToAxis(normal mgl64.Vec3) mgl64.Vec3 {
	for i := 0; i < 3; i++ {
		if math.Abs(normal[i]) < NormalSnapThreshold {
			normal[i] = 0
		}
	}

	length := normal.Len()
	if length <= 1e-8 {
		return mgl64.Vec3{0, 0, 1}
	}
	return normal.Mul(1 / length)
}
