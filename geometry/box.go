package geometry

import (
	"math"

	"github.com/akmonengine/quill/bv"
	"github.com/akmonengine/quill/contact"
	"github.com/akmonengine/quill/prim"
	"github.com/akmonengine/quill/scratch"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// faceQuads lists the corners of each face (index axis*2+positive), counter-clockwise
// seen from outside the box
var faceQuads = [6][4]int{
	{0, 4, 6, 2}, {1, 3, 7, 5},
	{0, 1, 5, 4}, {2, 6, 7, 3},
	{0, 2, 3, 1}, {4, 5, 7, 6},
}

// boxTriangles splits every face quad into two outward-facing triangles
var boxTriangles = [36]int32{
	0, 4, 6, 0, 6, 2,
	1, 3, 7, 1, 7, 5,
	0, 1, 5, 0, 5, 4,
	2, 6, 7, 2, 7, 3,
	0, 2, 3, 0, 3, 1,
	4, 5, 7, 4, 7, 6,
}

// Box is a solid oriented box
type Box struct {
	Tolerances Tolerances

	id   uuid.UUID
	box  prim.Box
	tree bv.SingleBox
}

// NewBox creates a box geometry around b, given in geometry-local space
func NewBox(b prim.Box) *Box {
	g := &Box{Tolerances: DefaultTolerances(), id: newID()}
	g.set(b)
	return g
}

func (g *Box) set(b prim.Box) {
	if !b.Oriented {
		b.Basis = mgl64.Ident3()
	}
	g.box = b
	g.tree = bv.SingleBox{Box: b, Lister: g}
}

func (g *Box) Kind() Kind { return KindBox }

func (g *Box) ID() uuid.UUID { return g.id }

// Box returns the geometry-local box
func (g *Box) Box() prim.Box { return g.box }

// ComputeBoundingBox places the box in world space
func (g *Box) ComputeBoundingBox(t prim.Transform) prim.Box {
	return g.box.Transformed(t)
}

func (g *Box) ComputeAABB(t prim.Transform) prim.AABB {
	b := g.ComputeBoundingBox(t)
	return b.BoundingAABB()
}

// MassProperties of a solid of unit density
type MassProperties struct {
	Volume float64
	Center mgl64.Vec3
	// Inertia holds the principal moments, expressed along the rows of Orientation
	Inertia     mgl64.Vec3
	Orientation mgl64.Mat3
}

func (g *Box) ComputeMassProperties() MassProperties {
	x, y, z := g.box.Size.X(), g.box.Size.Y(), g.box.Size.Z()
	v := g.box.Volume()

	return MassProperties{
		Volume:      v,
		Center:      g.box.Center,
		Inertia:     mgl64.Vec3{y*y + z*z, x*x + z*z, x*x + y*y}.Mul(v / 3),
		Orientation: g.box.Basis,
	}
}

// ClassifyPoint reports points on the surface as inside
func (g *Box) ClassifyPoint(p mgl64.Vec3) Location {
	local := g.box.ToLocal(p)
	for i := 0; i < 3; i++ {
		if math.Abs(local[i]) > g.box.Size[i] {
			return Outside
		}
	}
	return Inside
}

// minVertexDistance is the distance under which two points of the box coincide
func (g *Box) minVertexDistance() float64 {
	return (g.box.Size.X() + g.box.Size.Y() + g.box.Size.Z()) * g.Tolerances.MinVertexDistance
}

func (g *Box) PrepareForIntersectionTest(q *Query, collider Geometry, cq *Query) bool {
	q.BV = &g.tree
	return true
}

func (g *Box) GetPrimitiveList(t prim.Transform, slot *scratch.Slot, out []prim.Item) []prim.Item {
	b := slot.Boxes.Next()
	*b = g.box.Transformed(t)
	return append(out, prim.Item{Shape: b})
}

// GetFeature writes 1 point for a vertex, 2 for an edge and the 4 corners of a face in
// winding order. Unknown ids write nothing.
func (g *Box) GetFeature(iPrim, iFeature int, pts *[4]mgl64.Vec3) int {
	f, ok := prim.DecodeBoxFeature(iFeature)
	if !ok {
		return 0
	}

	switch f.Kind {
	case prim.FeatureVertex:
		pts[0] = g.box.ToWorld(g.box.Vertex(int(f.Signs)))
		return 1
	case prim.FeatureEdge:
		for end := 0; end < 2; end++ {
			pts[end] = g.box.ToWorld(g.box.Vertex(prim.VertexFromEdge(f, end)))
		}
		return 2
	default:
		for i, ivtx := range faceQuads[f.Axis*2+int(f.Signs&1)] {
			pts[i] = g.box.ToWorld(g.box.Vertex(ivtx))
		}
		return 4
	}
}

// PreparePolygon writes the world-space points of a feature into the slot
func (g *Box) PreparePolygon(iFeature int, t prim.Transform, slot *scratch.Slot) []mgl64.Vec3 {
	var pts [4]mgl64.Vec3
	n := g.GetFeature(0, iFeature, &pts)
	if n == 0 {
		return nil
	}

	out := slot.Points.Take(n)
	for i := range out {
		out[i] = t.Apply(pts[i])
	}
	return out
}

// FindClosestPointOnSegment returns the closest pair between the box surface and the
// segment [p0, p1], with the box feature holding ptBox. A segment that crosses the box
// returns its entry point twice. All points are geometry-local.
func (g *Box) FindClosestPointOnSegment(p0, p1 mgl64.Vec3) (ptBox, ptSeg mgl64.Vec3, feature int) {
	size := g.box.Size
	a, b := g.box.ToLocal(p0), g.box.ToLocal(p1)
	d := b.Sub(a)

	minDist := g.minVertexDistance()
	if d.LenSqr() <= minDist*minDist {
		local, f := closestOnBox(size, a)
		return g.box.ToWorld(local), p0, f
	}

	if tin, axis, positive, ok := clipSegment(size, a, d); ok {
		if axis < 0 {
			// starts inside
			_, f := closestOnBox(size, a)
			return p0, p0, f
		}
		pt := g.box.ToWorld(a.Add(d.Mul(tin)))
		return pt, pt, prim.BoxFace(axis, positive)
	}

	best := math.Inf(1)
	try := func(t float64) {
		s := a.Add(d.Mul(t))
		local, f := closestOnBox(size, s)
		if dist := local.Sub(s).LenSqr(); dist < best {
			best = dist
			ptBox, ptSeg, feature = g.box.ToWorld(local), g.box.ToWorld(s), f
		}
	}
	try(0)
	try(1)

	// The distance to the box is convex along the segment, and its minimum lies at an
	// endpoint, at the closest approach to one of the 12 edges, or at the projection of
	// one of the 8 vertices.
	for axis := 0; axis < 3; axis++ {
		inc, dec := (axis+1)%3, (axis+2)%3
		for signs := 0; signs < 4; signs++ {
			var e0, e1 mgl64.Vec3
			e0[axis], e1[axis] = -size[axis], size[axis]
			e0[inc], e1[inc] = edgeSign(signs&1)*size[inc], edgeSign(signs&1)*size[inc]
			e0[dec], e1[dec] = edgeSign(signs&2)*size[dec], edgeSign(signs&2)*size[dec]

			s, _ := segmentParams(a, b, e0, e1)
			try(s)
		}
	}

	for i := 0; i < 8; i++ {
		var v mgl64.Vec3
		for axis := 0; axis < 3; axis++ {
			v[axis] = edgeSign(i>>axis&1) * size[axis]
		}
		try(mgl64.Clamp(v.Sub(a).Dot(d)/d.LenSqr(), 0, 1))
	}

	return ptBox, ptSeg, feature
}

// GetUnprojectionCandidates builds the separating-plane set around the box feature of
// side `side` of c. The feature is first promoted to an edge or a vertex when the
// contact point lies within Tolerances.FeatureReclassify of one; c is updated with the
// final feature. Normals are world-space and point out of the box.
func (g *Box) GetUnprojectionCandidates(side int, c *contact.Contact, t prim.Transform, slot *scratch.Slot) *contact.Candidates {
	world := g.box.Transformed(t)
	local := world.ToLocal(c.Pt)

	f, ok := prim.DecodeBoxFeature(c.IFeature[side])
	if !ok {
		_, id := closestOnBox(world.Size, local)
		f, _ = prim.DecodeBoxFeature(id)
	}
	f = g.reclassify(f, local, world.Size)
	c.IFeature[side] = f.Encode()

	cand := slot.Candidates.Next()
	cand.Reset()
	cand.IFeature = c.IFeature[side]

	normal := func(axis int, positive bool) mgl64.Vec3 {
		n := world.Axis(axis)
		if !positive {
			n = n.Mul(-1)
		}
		return n
	}
	iPrim := c.IPrim[side]

	switch f.Kind {
	case prim.FeatureFace:
		positive := f.Signs&1 == 1
		cand.AddSurface(contact.Surface{N: normal(f.Axis, positive), Idx: iPrim, IFeature: cand.IFeature})

	case prim.FeatureEdge:
		inc, dec := (f.Axis+1)%3, (f.Axis+2)%3
		pInc, pDec := f.Signs&1 == 1, f.Signs&2 == 2
		nInc, nDec := normal(inc, pInc), normal(dec, pDec)

		cand.AddSurface(contact.Surface{N: nInc, Idx: iPrim, IFeature: prim.BoxFace(inc, pInc)})
		cand.AddSurface(contact.Surface{N: nDec, Idx: iPrim, IFeature: prim.BoxFace(dec, pDec)})
		cand.AddEdge(contact.Edge{Dir: world.Axis(f.Axis), N: [2]mgl64.Vec3{nInc, nDec}, Idx: iPrim, IFeature: cand.IFeature})

	case prim.FeatureVertex:
		ivtx := int(f.Signs)
		for axis := 0; axis < 3; axis++ {
			positive := ivtx>>axis&1 == 1
			cand.AddSurface(contact.Surface{N: normal(axis, positive), Idx: iPrim, IFeature: prim.BoxFace(axis, positive)})
		}
		for axis := 0; axis < 3; axis++ {
			inc, dec := (axis+1)%3, (axis+2)%3
			cand.AddEdge(contact.Edge{
				Dir:      world.Axis(axis),
				N:        [2]mgl64.Vec3{normal(inc, ivtx>>inc&1 == 1), normal(dec, ivtx>>dec&1 == 1)},
				Idx:      iPrim,
				IFeature: prim.EdgeFromVertex(ivtx, axis),
			})
		}
	}

	return cand
}

// reclassify promotes a face to an edge or a vertex, and an edge to a vertex, when the
// box-local point is close enough to it
func (g *Box) reclassify(f prim.Feature, local, size mgl64.Vec3) prim.Feature {
	near := func(i int) bool {
		return size[i]-math.Abs(local[i]) < size[i]*g.Tolerances.FeatureReclassify
	}

	switch f.Kind {
	case prim.FeatureFace:
		inc, dec := (f.Axis+1)%3, (f.Axis+2)%3
		ivtx := prim.VertexSigns(local)
		ivtx &^= 1 << f.Axis
		ivtx |= int(f.Signs&1) << f.Axis

		switch {
		case near(inc) && near(dec):
			nf, _ := prim.DecodeBoxFeature(prim.BoxVertex(ivtx))
			return nf
		case near(inc):
			nf, _ := prim.DecodeBoxFeature(prim.EdgeFromVertex(ivtx, dec))
			return nf
		case near(dec):
			nf, _ := prim.DecodeBoxFeature(prim.EdgeFromVertex(ivtx, inc))
			return nf
		}

	case prim.FeatureEdge:
		if near(f.Axis) {
			end := 0
			if local[f.Axis] > 0 {
				end = 1
			}
			nf, _ := prim.DecodeBoxFeature(prim.BoxVertex(prim.VertexFromEdge(f, end)))
			return nf
		}
	}
	return f
}

// Triangulate exports the box as a closed 12 triangle mesh in geometry-local space
func (g *Box) Triangulate() *Mesh {
	vertices := make([]mgl64.Vec3, 8)
	for i := range vertices {
		vertices[i] = g.box.ToWorld(g.box.Vertex(i))
	}

	indices := make([]int32, len(boxTriangles))
	copy(indices, boxTriangles[:])

	return NewMesh(vertices, indices)
}

func (g *Box) DrawWireframe(sink DebugSink, t prim.Transform, color int) {
	for axis := 0; axis < 3; axis++ {
		for signs := uint8(0); signs < 4; signs++ {
			f := prim.Feature{Kind: prim.FeatureEdge, Axis: axis, Signs: signs}
			p0 := g.box.ToWorld(g.box.Vertex(prim.VertexFromEdge(f, 0)))
			p1 := g.box.ToWorld(g.box.Vertex(prim.VertexFromEdge(f, 1)))
			sink.DrawLine(t.Apply(p0), t.Apply(p1), color)
		}
	}
}

// closestOnBox returns the point of the box surface closest to the box-local point p
// and its feature. Points inside project onto the nearest face.
func closestOnBox(size, p mgl64.Vec3) (mgl64.Vec3, int) {
	out := p
	outside := 0
	inside := -1
	for i := 0; i < 3; i++ {
		switch {
		case p[i] > size[i]:
			out[i] = size[i]
			outside++
		case p[i] < -size[i]:
			out[i] = -size[i]
			outside++
		default:
			inside = i
		}
	}

	switch outside {
	case 0:
		axis := 0
		for i := 1; i < 3; i++ {
			if size[i]-math.Abs(p[i]) < size[axis]-math.Abs(p[axis]) {
				axis = i
			}
		}
		out[axis] = signOf(p[axis]) * size[axis]
		return out, prim.BoxFace(axis, p[axis] >= 0)
	case 1:
		for i := 0; i < 3; i++ {
			if math.Abs(p[i]) > size[i] {
				return out, prim.BoxFace(i, p[i] > 0)
			}
		}
	case 2:
		return out, prim.EdgeFromVertex(prim.VertexSigns(p), inside)
	}
	return out, prim.BoxVertex(prim.VertexSigns(p))
}

// clipSegment clips a+t·d, t in [0,1], against the box slabs. axis is the slab the
// segment enters through, -1 when it starts inside.
func clipSegment(size, a, d mgl64.Vec3) (tin float64, axis int, positive bool, ok bool) {
	tmin, tmax := 0.0, 1.0
	axis = -1

	for i := 0; i < 3; i++ {
		if math.Abs(d[i]) < 1e-12 {
			if math.Abs(a[i]) > size[i] {
				return 0, -1, false, false
			}
			continue
		}

		t1 := (-size[i] - a[i]) / d[i]
		t2 := (size[i] - a[i]) / d[i]
		pos := false
		if t1 > t2 {
			t1, t2 = t2, t1
			pos = true
		}
		if t1 > tmin {
			tmin, axis, positive = t1, i, pos
		}
		tmax = math.Min(tmax, t2)
		if tmin > tmax {
			return 0, -1, false, false
		}
	}
	return tmin, axis, positive, true
}

// segmentParams returns the parameters of the closest points of segments p1q1 and p2q2
func segmentParams(p1, q1, p2, q2 mgl64.Vec3) (s, u float64) {
	d1 := q1.Sub(p1)
	d2 := q2.Sub(p2)
	r := p1.Sub(p2)
	a := d1.Dot(d1)
	e := d2.Dot(d2)
	f := d2.Dot(r)
	c := d1.Dot(r)
	b := d1.Dot(d2)

	denom := a*e - b*b
	if denom > 1e-12 {
		s = mgl64.Clamp((b*f-c*e)/denom, 0, 1)
	}
	u = (b*s + f) / e
	if u < 0 {
		u = 0
		s = mgl64.Clamp(-c/a, 0, 1)
	} else if u > 1 {
		u = 1
		s = mgl64.Clamp((b-c)/a, 0, 1)
	}
	return s, u
}

func edgeSign(bit int) float64 {
	if bit == 0 {
		return -1
	}
	return 1
}

func signOf(x float64) float64 {
	if x < 0 {
		return -1
	}
	return 1
}
