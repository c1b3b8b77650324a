package geometry

import (
	"github.com/akmonengine/quill/bv"
	"github.com/akmonengine/quill/contact"
	"github.com/akmonengine/quill/intersect"
	"github.com/akmonengine/quill/prim"
	"github.com/akmonengine/quill/scratch"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// Ray adapts a segment query to the geometry interface. It has no volume: every point
// classifies as outside.
type Ray struct {
	id   uuid.UUID
	ray  prim.Ray
	tree bv.SingleBox
}

// NewRay creates a ray from origin to origin+dir, in geometry-local space
func NewRay(origin, dir mgl64.Vec3) *Ray {
	g := &Ray{id: newID()}
	g.set(prim.Ray{Origin: origin, Dir: dir})
	return g
}

func (g *Ray) set(r prim.Ray) {
	g.ray = r
	g.tree = bv.SingleBox{Box: g.boundingBox(), Lister: g, AxisAligned: true}
}

func (g *Ray) Kind() Kind { return KindRay }

func (g *Ray) ID() uuid.UUID { return g.id }

// Ray returns the geometry-local segment
func (g *Ray) Ray() prim.Ray { return g.ray }

// boundingBox is the cube centered on the segment midpoint with half-extent |Dir|/2
func (g *Ray) boundingBox() prim.Box {
	half := g.ray.Dir.Len() / 2
	return prim.Box{
		Center: g.ray.Centroid(),
		Size:   mgl64.Vec3{half, half, half},
		Basis:  mgl64.Ident3(),
	}
}

// ComputeBoundingBox returns the world box of the ray, axis-aligned
func (g *Ray) ComputeBoundingBox(t prim.Transform) prim.Box {
	local := g.boundingBox()
	b := local.Transformed(t)
	if b.Oriented {
		return b.BoundingAABB().Box()
	}
	return b
}

func (g *Ray) ComputeAABB(t prim.Transform) prim.AABB {
	return prim.AABBFromPoints(t.Apply(g.ray.Origin), t.Apply(g.ray.End()))
}

// World returns the segment placed by t
func (g *Ray) World(t prim.Transform) prim.Ray {
	origin := t.Apply(g.ray.Origin)
	return prim.Ray{Origin: origin, Dir: t.Apply(g.ray.End()).Sub(origin)}
}

func (g *Ray) ClassifyPoint(p mgl64.Vec3) Location { return Outside }

func (g *Ray) PrepareForIntersectionTest(q *Query, collider Geometry, cq *Query) bool {
	q.BV = &g.tree
	return true
}

func (g *Ray) GetPrimitiveList(t prim.Transform, slot *scratch.Slot, out []prim.Item) []prim.Item {
	r := slot.Rays.Next()
	*r = g.World(t)
	return append(out, prim.Item{Shape: r})
}

// GetFeature writes both ends of the segment for the ray feature
func (g *Ray) GetFeature(iPrim, iFeature int, pts *[4]mgl64.Vec3) int {
	if iFeature != intersect.RayFeature {
		return 0
	}
	pts[0], pts[1] = g.ray.Origin, g.ray.End()
	return 2
}

// RegisterIntersection fills c from a primitive hit, measuring T as the distance along
// the world ray, and raises the stop flag of q when only the first hit is wanted
func (g *Ray) RegisterIntersection(res *intersect.Result, t prim.Transform, q *Query, c *contact.Contact) {
	world := g.World(t)

	c.Pt = res.Pt
	c.N = res.N
	c.T = res.Pt.Sub(world.Origin).Dot(world.Dir.Normalize())

	if q.StopAtFirst {
		q.Stop = true
	}
}

func (g *Ray) DrawWireframe(sink DebugSink, t prim.Transform, color int) {
	w := g.World(t)
	sink.DrawLine(w.Origin, w.End(), color)
}
