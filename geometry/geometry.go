// Package geometry implements the collision geometries seen by the intersection driver:
// oriented boxes, heightfields and rays. A geometry lives in its own local frame and is
// placed in the world by the prim.Transform of each query.
package geometry

import (
	"io"

	"github.com/akmonengine/quill/bv"
	"github.com/akmonengine/quill/prim"
	"github.com/akmonengine/quill/scratch"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// Kind identifies the concrete geometry type in persisted records
type Kind int

const (
	KindBox Kind = iota + 1
	KindHeightfield
	KindRay
)

func (k Kind) String() string {
	switch k {
	case KindBox:
		return "box"
	case KindHeightfield:
		return "heightfield"
	case KindRay:
		return "ray"
	}
	return "unknown"
}

// Location is the result of a point classification
type Location int

const (
	Outside Location = iota
	Inside
)

func (l Location) String() string {
	if l == Inside {
		return "inside"
	}
	return "outside"
}

// CullMode selects which triangle sides a ray may hit
type CullMode int

const (
	CullNone CullMode = iota
	// CullBack keeps only triangles facing the ray
	CullBack
	// CullFront keeps only triangles facing away from the ray
	CullFront
)

// Tolerances groups the numeric thresholds of the geometries
type Tolerances struct {
	// MinVertexDistance scales the sum of the box half-extents into the distance under
	// which two vertices are considered equal
	MinVertexDistance float64
	// FeatureReclassify is the fraction of a half-extent within which a contact on a
	// face is promoted to the nearby edge or vertex
	FeatureReclassify float64
	// RayDDAEpsilon pads the travel bound of heightfield ray walks, in cells
	RayDDAEpsilon float64
	// PatchStackBytes is the largest height scratch built without a heap allocation
	PatchStackBytes int
	// MaxPatchCells refuses patches larger than this many cells
	MaxPatchCells int
}

// DefaultTolerances returns the thresholds used by the constructors
func DefaultTolerances() Tolerances {
	return Tolerances{
		MinVertexDistance: 1e-4,
		FeatureReclassify: 1e-3,
		RayDDAEpsilon:     1e-4,
		PatchStackBytes:   16 << 10,
		MaxPatchCells:     1 << 16,
	}
}

// Query is the per-side state of one intersection call. The driver fills Slot,
// Transform and the limits; PrepareForIntersectionTest installs BV.
type Query struct {
	Slot      *scratch.Slot
	Transform prim.Transform
	BV        bv.Tree

	// Sweep is the world-space displacement of the side over the query, zero for
	// static tests
	Sweep mgl64.Vec3
	Cull  CullMode

	MaxContacts int
	StopAtFirst bool
	// Stop is raised by the core when the query must end early. The core never
	// clears it.
	Stop bool
}

// DebugSink receives wireframe output. Nothing in the package calls it outside of
// DrawWireframe.
type DebugSink interface {
	DrawLine(p0, p1 mgl64.Vec3, color int)
	DrawGeometry(g Geometry, t prim.Transform, color int)
}

// Geometry is what the driver needs from a collision shape
type Geometry interface {
	Kind() Kind
	ID() uuid.UUID
	// ComputeAABB returns the world bounds of the geometry placed by t
	ComputeAABB(t prim.Transform) prim.AABB
	// ClassifyPoint tells whether a geometry-local point is inside the solid
	ClassifyPoint(p mgl64.Vec3) Location
	// PrepareForIntersectionTest installs the bounding-volume view of q. It returns
	// false when the pair provably cannot touch.
	PrepareForIntersectionTest(q *Query, collider Geometry, cq *Query) bool
	// GetPrimitiveList appends every primitive of the geometry in world space
	GetPrimitiveList(t prim.Transform, slot *scratch.Slot, out []prim.Item) []prim.Item
	// GetFeature writes the geometry-local points of a feature of primitive iPrim and
	// returns how many were written
	GetFeature(iPrim, iFeature int, pts *[4]mgl64.Vec3) int
	Save(w io.Writer) error
	Load(r io.Reader) error
	DrawWireframe(sink DebugSink, t prim.Transform, color int)
}

func newID() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}

// localAABB converts a world AABB into the local frame of t, as the bounds of its
// eight transformed corners
func localAABB(world prim.AABB, t prim.Transform) prim.AABB {
	var corners [8]mgl64.Vec3
	for i := range corners {
		var c mgl64.Vec3
		for axis := 0; axis < 3; axis++ {
			if i>>axis&1 == 0 {
				c[axis] = world.Min[axis]
			} else {
				c[axis] = world.Max[axis]
			}
		}
		corners[i] = t.Inverse(c)
	}
	return prim.AABBFromPoints(corners[:]...)
}

// localDir rotates and scales a world displacement into the local frame of t
func localDir(d mgl64.Vec3, t prim.Transform) mgl64.Vec3 {
	return t.Inverse(d.Add(t.Position)).Sub(t.Inverse(t.Position))
}
