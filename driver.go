// Package quill drives intersection tests between collision geometries: it prepares
// both sides, walks their bounding volumes, filters primitive pairs through the
// overlap table and turns the confirmed ones into contacts.
package quill

import (
	"github.com/akmonengine/quill/conlog"
	"github.com/akmonengine/quill/contact"
	"github.com/akmonengine/quill/epa"
	"github.com/akmonengine/quill/geometry"
	"github.com/akmonengine/quill/gjk"
	"github.com/akmonengine/quill/intersect"
	"github.com/akmonengine/quill/overlap"
	"github.com/akmonengine/quill/prim"
	"github.com/akmonengine/quill/scratch"
	"github.com/go-gl/mathgl/mgl64"
)

// Params are the limits of one intersection test
type Params struct {
	Cull geometry.CullMode
	// MaxContacts ends the test once reached, 0 means no limit
	MaxContacts int
	StopAtFirst bool

	// SweepA and SweepB are the world displacements of the two sides over the test
	SweepA mgl64.Vec3
	SweepB mgl64.Vec3
}

// Driver owns the scratch arena and the predicate tables used by every test
type Driver struct {
	Arena   *scratch.Arena
	Overlap *overlap.Table
	Exact   *intersect.Table
}

func NewDriver() *Driver {
	return &Driver{
		Arena:   scratch.NewArena(),
		Overlap: overlap.Default,
		Exact:   intersect.Default,
	}
}

// pairTest is the state of one call to Intersect
type pairTest struct {
	d      *Driver
	slot   *scratch.Slot
	geoms  [2]geometry.Geometry
	q      [2]*geometry.Query
	params Params
	out    []contact.Contact
	found  int
}

// Intersect tests a placed by ta against b placed by tb, using the scratch slot of
// caller, and appends the contacts to out. Normals point from a toward b.
//
// The primitive and contact rings of the slot are rewound first, so contacts returned
// by an earlier call on the same caller are overwritten. Contacts appended to out are
// copies and stay valid.
//
// A ray against a heightfield walks the grid cells under the ray and yields at most
// one contact. Any other pair asks both geometries to prepare a bounding-volume tree,
// then tests every pair of overlapping nodes. The test stops early once
// params.MaxContacts contacts are found, or after the first one when
// params.StopAtFirst is set.
//
// Two calls with the same caller must not run concurrently. Calls on different callers
// may.
func (d *Driver) Intersect(caller int, a, b geometry.Geometry, ta, tb prim.Transform, params Params, out []contact.Contact) []contact.Contact {
	slot := d.Arena.Slot(caller)
	slot.ResetPrims()
	slot.ResetContacts()

	pt := &pairTest{
		d:      d,
		slot:   slot,
		geoms:  [2]geometry.Geometry{a, b},
		params: params,
		out:    out,
	}
	sweeps := [2]mgl64.Vec3{params.SweepA, params.SweepB}
	for side, t := range [2]prim.Transform{ta, tb} {
		pt.q[side] = &geometry.Query{
			Slot:        slot,
			Transform:   t,
			Sweep:       sweeps[side],
			Cull:        params.Cull,
			MaxContacts: params.MaxContacts,
			StopAtFirst: params.StopAtFirst,
		}
	}

	if pt.rayHeightfield() {
		return pt.out
	}

	if !a.PrepareForIntersectionTest(pt.q[0], b, pt.q[1]) || !b.PrepareForIntersectionTest(pt.q[1], a, pt.q[0]) {
		return pt.out
	}
	pt.walk()

	return pt.out
}

// done reports whether the test must end
func (pt *pairTest) done() bool {
	if pt.q[0].Stop || pt.q[1].Stop {
		return true
	}
	return pt.params.MaxContacts > 0 && pt.found >= pt.params.MaxContacts
}

// rayHeightfield walks the grid cells under a ray instead of building a patch under
// its bounds. It reports false when the pair is not a ray and a heightfield.
func (pt *pairTest) rayHeightfield() bool {
	for side := 0; side < 2; side++ {
		ray, ok := pt.geoms[side].(*geometry.Ray)
		if !ok {
			continue
		}
		hf, ok := pt.geoms[1-side].(*geometry.Heightfield)
		if !ok {
			continue
		}

		c, hit := hf.IntersectRay(ray.World(pt.q[side].Transform), pt.q[1-side].Transform, pt.params.Cull)
		if hit {
			dst := pt.slot.Contacts.Next()
			*dst = c
			if side == 1 {
				dst.Swap()
			}
			pt.emit(dst)
			if pt.params.StopAtFirst {
				pt.q[side].Stop = true
			}
		}
		return true
	}
	return false
}

func (pt *pairTest) walk() {
	slot := pt.slot
	bvA, bvB := pt.q[0].BV, pt.q[1].BV
	ta, tb := pt.q[0].Transform, pt.q[1].Transform

	for i := 0; i < bvA.NodeCount(); i++ {
		for j := 0; j < bvB.NodeCount(); j++ {
			nodeA := bvA.GetNodeBV(i, ta, slot)
			nodeB := bvB.GetNodeBV(j, tb, slot)
			if !overlap.BoxBox(nodeA, nodeB, &slot.Cache) {
				continue
			}

			slot.Items[0] = bvA.GetNodeContents(i, nodeB, ta, slot, slot.Items[0][:0])
			slot.Items[1] = bvB.GetNodeContents(j, nodeA, tb, slot, slot.Items[1][:0])

			for _, pa := range slot.Items[0] {
				for _, pb := range slot.Items[1] {
					if !pt.d.Overlap.Overlap(pa.Shape, pb.Shape, &slot.Cache) {
						continue
					}
					pt.collide(pa, pb)
					if pt.done() {
						return
					}
				}
			}
		}
	}
}

// collide turns an overlapping primitive pair into contacts, with the exact
// intersection table when it knows the pair and GJK/EPA otherwise
func (pt *pairTest) collide(pa, pb prim.Item) {
	ka, kb := pa.Shape.Kind(), pb.Shape.Kind()

	if pt.d.Exact.Registered(ka, kb) {
		var res intersect.Result
		if !pt.d.Exact.Intersect(pa.Shape, pb.Shape, &res) {
			return
		}

		c := pt.slot.Contacts.Next()
		c.Reset()
		c.IFeature = res.IFeature
		c.IPrim = [2]int{pa.Index, pb.Index}

		switch {
		case pt.registerRay(0, &res, c):
		case pt.registerRay(1, &res, c):
		default:
			c.Pt, c.N, c.T = res.Pt, res.N, res.T
		}
		pt.finish(c)
		return
	}

	ca, okA := pa.Shape.(prim.Convex)
	cb, okB := pb.Shape.(prim.Convex)
	if !okA || !okB {
		conlog.DPrintf("quill: no contact routine for %v/%v\n", ka, kb)
		return
	}

	simplex := gjk.SimplexPool.Get().(*gjk.Simplex)
	defer gjk.SimplexPool.Put(simplex)
	simplex.Reset()

	if !gjk.GJK(ca, cb, simplex) {
		return
	}
	pen, err := epa.EPA(ca, cb, simplex)
	if err != nil {
		conlog.DPrintf("quill: %v/%v: %v\n", ka, kb, err)
		return
	}

	for _, p := range pen.Points {
		c := pt.slot.Contacts.Next()
		c.Reset()
		c.Pt, c.N, c.T = p, pen.Normal, pen.Depth
		c.IPrim = [2]int{pa.Index, pb.Index}
		pt.finish(c)
		if pt.done() {
			return
		}
	}
}

// registerRay lets the ray geometry of side fill the contact. The distance is measured
// along the ray, so the side order does not matter.
func (pt *pairTest) registerRay(side int, res *intersect.Result, c *contact.Contact) bool {
	ray, ok := pt.geoms[side].(*geometry.Ray)
	if !ok {
		return false
	}
	ray.RegisterIntersection(res, pt.q[side].Transform, pt.q[side], c)
	return true
}

// finish refines the features of both sides and emits the contact
func (pt *pairTest) finish(c *contact.Contact) {
	for side := 0; side < 2; side++ {
		switch g := pt.geoms[side].(type) {
		case *geometry.Box:
			g.GetUnprojectionCandidates(side, c, pt.q[side].Transform, pt.slot)
		case *geometry.Heightfield:
			if c.IFeature[side] == prim.FeatureNone {
				c.IFeature[side] = prim.TriFace
			}
			c.ID[side] = g.SurfaceType(c.IPrim[side])
		}
	}
	pt.emit(c)
}

func (pt *pairTest) emit(c *contact.Contact) {
	pt.out = append(pt.out, *c)
	pt.found++
}
