package geometry

import (
	"math"
	"sync"

	"github.com/akmonengine/quill/conlog"
	"github.com/akmonengine/quill/contact"
	"github.com/akmonengine/quill/intersect"
	"github.com/akmonengine/quill/overlap"
	"github.com/akmonengine/quill/prim"
	"github.com/akmonengine/quill/scratch"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ErrPatchTooLarge is returned when a query covers more cells than
// Tolerances.MaxPatchCells
var ErrPatchTooLarge = errors.New("heightfield patch too large")

// patchStackFloats is the size of the on-stack height scratch
const patchStackFloats = 2048

// Heightfield is a terrain grid. Holes contribute no geometry.
type Heightfield struct {
	Tolerances Tolerances

	id    uuid.UUID
	hf    prim.Heightfield
	table *prim.HeightTable

	// views holds the world-space grid handed out to each caller slot
	views [scratch.MaxCallers]prim.Heightfield

	mu        sync.RWMutex
	boundsOK  bool
	minHeight float64
	maxHeight float64
	patch     *Patch
}

// NewHeightfield wraps a grid whose samples come from the Height and CellType callbacks
func NewHeightfield(hf prim.Heightfield) *Heightfield {
	h := &Heightfield{Tolerances: DefaultTolerances(), id: newID()}
	h.set(hf)
	return h
}

// NewHeightfieldFromTable builds an axis-aligned grid over a sample table
func NewHeightfieldFromTable(origin mgl64.Vec3, step mgl64.Vec2, table *prim.HeightTable, heightScale float64) *Heightfield {
	hf := prim.Heightfield{Origin: origin, Basis: mgl64.Ident3(), HeightScale: heightScale}
	hf.SetStep(step)
	table.Bind(&hf)

	h := NewHeightfield(hf)
	h.table = table
	return h
}

func (h *Heightfield) set(hf prim.Heightfield) {
	if !hf.Oriented {
		hf.Basis = mgl64.Ident3()
	}
	if hf.StepR == (mgl64.Vec2{}) {
		hf.SetStep(hf.Step)
	}

	h.mu.Lock()
	h.hf = hf
	h.boundsOK = false
	h.patch = nil
	h.mu.Unlock()
}

func (h *Heightfield) Kind() Kind { return KindHeightfield }

func (h *Heightfield) ID() uuid.UUID { return h.id }

// Grid returns the geometry-local grid
func (h *Heightfield) Grid() prim.Heightfield { return h.hf }

// Table returns the sample table, nil when the grid reads from callbacks
func (h *Heightfield) Table() *prim.HeightTable { return h.table }

func (h *Heightfield) corners() [8]mgl64.Vec3 {
	lo, hi := h.heightBounds()
	extent := mgl64.Vec2{float64(h.hf.Size[0]) * h.hf.Step.X(), float64(h.hf.Size[1]) * h.hf.Step.Y()}

	var out [8]mgl64.Vec3
	for i := range out {
		local := mgl64.Vec3{0, 0, lo}
		if i&1 != 0 {
			local[0] = extent[0]
		}
		if i&2 != 0 {
			local[1] = extent[1]
		}
		if i&4 != 0 {
			local[2] = hi
		}
		out[i] = h.hf.ToWorld(local)
	}
	return out
}

func (h *Heightfield) ComputeAABB(t prim.Transform) prim.AABB {
	corners := h.corners()
	for i := range corners {
		corners[i] = t.Apply(corners[i])
	}
	return prim.AABBFromPoints(corners[:]...)
}

// heightBounds returns the scaled minimum and maximum sample, scanning the grid the
// first time
func (h *Heightfield) heightBounds() (float64, float64) {
	h.mu.RLock()
	if h.boundsOK {
		lo, hi := h.minHeight, h.maxHeight
		h.mu.RUnlock()
		return lo, hi
	}
	h.mu.RUnlock()

	h.mu.Lock()
	defer h.mu.Unlock()
	h.tightenBounds()
	return h.minHeight, h.maxHeight
}

// tightenBounds requires the write lock
func (h *Heightfield) tightenBounds() {
	if h.boundsOK {
		return
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	if h.table != nil && h.hf.HeightScale >= 0 {
		l, u := h.table.Range()
		lo, hi = float64(l)*h.scale(), float64(u)*h.scale()
	} else {
		for iy := 0; iy <= h.hf.Size[1]; iy++ {
			for ix := 0; ix <= h.hf.Size[0]; ix++ {
				z := h.hf.At(ix, iy)
				lo, hi = math.Min(lo, z), math.Max(hi, z)
			}
		}
	}
	if lo > hi {
		lo, hi = 0, 0
	}

	h.minHeight, h.maxHeight, h.boundsOK = lo, hi, true
}

func (h *Heightfield) scale() float64 {
	if h.hf.HeightScale == 0 {
		return 1
	}
	return h.hf.HeightScale
}

// ClassifyPoint interpolates the surface height under p with the triangle of the cell
// that contains it. Points over holes or off the grid are outside.
func (h *Heightfield) ClassifyPoint(p mgl64.Vec3) Location {
	local := h.hf.ToLocal(p)
	fx, fy := local.X()*h.hf.StepR.X(), local.Y()*h.hf.StepR.Y()
	ix, iy := int(math.Floor(fx)), int(math.Floor(fy))
	if !h.hf.InGrid(ix, iy) || h.hf.IsHole(ix, iy) {
		return Outside
	}
	fx -= float64(ix)
	fy -= float64(iy)

	h00, h10 := h.hf.At(ix, iy), h.hf.At(ix+1, iy)
	h01, h11 := h.hf.At(ix, iy+1), h.hf.At(ix+1, iy+1)

	var z float64
	if fx >= fy {
		z = h00 + (h10-h00)*fx + (h11-h10)*fy
	} else {
		z = h00 + (h11-h01)*fx + (h01-h00)*fy
	}

	if local.Z() <= z {
		return Inside
	}
	return Outside
}

// worldView returns the grid placed in world space by t
func (h *Heightfield) worldView(t prim.Transform) prim.Heightfield {
	s := t.Scale
	if s == 0 {
		s = 1
	}

	v := h.hf
	v.Origin = t.Apply(h.hf.Origin)
	v.SetStep(h.hf.Step.Mul(s))
	v.HeightScale = h.scale() * s
	if !t.IsIdentityRotation() {
		v.Basis = h.hf.Basis.Mul3(t.Basis())
		v.Oriented = true
	}
	return v
}

// GetPrimitiveList appends the whole grid as one heightfield primitive. The view is
// owned by the caller slot.
func (h *Heightfield) GetPrimitiveList(t prim.Transform, slot *scratch.Slot, out []prim.Item) []prim.Item {
	v := &h.views[slot.Index]
	*v = h.worldView(t)
	return append(out, prim.Item{Shape: v})
}

// PrepareForIntersectionTest builds the patch under the collider bounds, swept by the
// relative displacement of the two sides
func (h *Heightfield) PrepareForIntersectionTest(q *Query, collider Geometry, cq *Query) bool {
	if b, ok := collider.(*Box); ok {
		cb := b.ComputeBoundingBox(cq.Transform)
		view := &h.views[q.Slot.Index]
		*view = h.worldView(q.Transform)
		if !overlap.BoxHeightfield(&cb, view, &q.Slot.Cache) {
			return false
		}
	}

	bounds := localAABB(collider.ComputeAABB(cq.Transform), q.Transform)
	sweep := localDir(cq.Sweep.Sub(q.Sweep), q.Transform)

	p, err := h.PrepareLocalPatch(bounds.Box(), sweep)
	if err != nil {
		conlog.Printf("heightfield %s: %v\n", h.id, err)
		return false
	}
	if p == nil {
		return false
	}

	q.BV = p
	return true
}

// PatchKey identifies a patch by its first cell and its size in cells
type PatchKey struct {
	X, Y   int
	SX, SY int
}

// PrepareLocalPatch returns the triangles under a geometry-local query box, swept by
// sweep. It returns a nil patch when the query misses the grid or floats above it. The
// last patch is cached and reused while the covered cell range does not change.
func (h *Heightfield) PrepareLocalPatch(query prim.Box, sweep mgl64.Vec3) (*Patch, error) {
	bounds := query.BoundingAABB()
	if sweep != (mgl64.Vec3{}) {
		bounds = bounds.Union(prim.AABB{Min: bounds.Min.Add(sweep), Max: bounds.Max.Add(sweep)})
	}

	var corners [8]mgl64.Vec3
	for i := range corners {
		c := bounds.Min
		for axis := 0; axis < 3; axis++ {
			if i>>axis&1 != 0 {
				c[axis] = bounds.Max[axis]
			}
		}
		corners[i] = h.hf.ToLocal(c)
	}
	local := prim.AABBFromPoints(corners[:]...)

	center, half := local.Center(), local.HalfExtents()
	lo, hi, ok := h.hf.CellRange(center.Vec2(), half.Vec2())
	if !ok {
		return nil, nil
	}
	key := PatchKey{X: lo[0], Y: lo[1], SX: hi[0] - lo[0] + 1, SY: hi[1] - lo[1] + 1}

	h.mu.RLock()
	p := h.patch
	tight, maxHeight := h.boundsOK, h.maxHeight
	h.mu.RUnlock()

	if tight && local.Min.Z() > maxHeight {
		return nil, nil
	}

	if p == nil || p.Key != key {
		var err error
		if p, err = h.rebuildPatch(key); err != nil {
			return nil, err
		}
	}

	if local.Min.Z() > p.MaxHeight {
		return nil, nil
	}
	return p, nil
}

func (h *Heightfield) rebuildPatch(key PatchKey) (*Patch, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.patch != nil && h.patch.Key == key {
		return h.patch, nil
	}
	if cells := key.SX * key.SY; cells > h.Tolerances.MaxPatchCells {
		return nil, errors.Wrapf(ErrPatchTooLarge, "%d×%d cells", key.SX, key.SY)
	}
	h.tightenBounds()

	p := h.buildPatch(key)
	h.patch = p
	conlog.DPrintf("heightfield %s: patch %+v, %d triangles\n", h.id, key, len(p.Prims))
	return p, nil
}

func (h *Heightfield) buildPatch(key PatchKey) *Patch {
	w, hh := key.SX+1, key.SY+1
	n := w * hh

	var stack [patchStackFloats]float64
	var heights []float64
	if n*8 <= h.Tolerances.PatchStackBytes && n <= len(stack) {
		heights = stack[:n]
	} else {
		heights = make([]float64, n)
	}

	p := &Patch{
		Key:       key,
		Vertices:  make([]mgl64.Vec3, n),
		MinHeight: math.Inf(1),
		MaxHeight: math.Inf(-1),
	}

	for j := 0; j < hh; j++ {
		for i := 0; i < w; i++ {
			z := h.hf.At(key.X+i, key.Y+j)
			heights[j*w+i] = z
		}
	}

	for j := 0; j < hh; j++ {
		for i := 0; i < w; i++ {
			z := heights[j*w+i]
			local := mgl64.Vec3{float64(key.X+i) * h.hf.Step.X(), float64(key.Y+j) * h.hf.Step.Y(), z}
			p.Vertices[j*w+i] = h.hf.ToWorld(local)
		}
	}

	// first triangle of every cell, -1 for holes
	first := make([]int32, key.SX*key.SY)
	for cy := 0; cy < key.SY; cy++ {
		for cx := 0; cx < key.SX; cx++ {
			ix, iy := key.X+cx, key.Y+cy
			if h.hf.IsHole(ix, iy) {
				first[cy*key.SX+cx] = -1
				continue
			}
			first[cy*key.SX+cx] = int32(len(p.Prims))

			i00 := int32(cy*w + cx)
			i10, i01, i11 := i00+1, i00+int32(w), i00+int32(w)+1
			p.Indices = append(p.Indices, i00, i10, i11, i00, i11, i01)

			cellType := -1
			if h.hf.CellType != nil {
				cellType = h.hf.CellType(ix, iy)
			}
			global := int32((iy*h.hf.Size[0] + ix) * 2)
			p.Prims = append(p.Prims, global, global+1)
			p.Types = append(p.Types, cellType, cellType)

			for _, z := range [4]float64{heights[i00], heights[i10], heights[i01], heights[i11]} {
				p.MinHeight = math.Min(p.MinHeight, z)
				p.MaxHeight = math.Max(p.MaxHeight, z)
			}
		}
	}

	p.Normals = make([]mgl64.Vec3, len(p.Prims))
	for k := range p.Normals {
		tri := p.triangle(k)
		if l := tri.N.Len(); l > 0 {
			p.Normals[k] = tri.N.Mul(1 / l)
		}
	}

	neighbor := func(cx, cy, k int) int32 {
		if cx < 0 || cy < 0 || cx >= key.SX || cy >= key.SY {
			return -1
		}
		f := first[cy*key.SX+cx]
		if f < 0 {
			return -1
		}
		return f + int32(k)
	}

	// edges follow the vertex order of each triangle: (00,10,11) then (00,11,01)
	p.Topology = make([][3]int32, len(p.Prims))
	for cy := 0; cy < key.SY; cy++ {
		for cx := 0; cx < key.SX; cx++ {
			f := first[cy*key.SX+cx]
			if f < 0 {
				continue
			}
			p.Topology[f] = [3]int32{neighbor(cx, cy-1, 1), neighbor(cx+1, cy, 1), f + 1}
			p.Topology[f+1] = [3]int32{f, neighbor(cx, cy+1, 0), neighbor(cx-1, cy, 0)}
		}
	}

	if len(p.Prims) == 0 {
		p.MinHeight, p.MaxHeight = 0, math.Inf(-1)
	}
	p.bounds = prim.AABBFromPoints(p.Vertices...)

	return p
}

// IntersectRay walks the cells crossed by a world-space ray and returns the first
// triangle hit. Cells are visited front to back, so the first hit is the nearest one.
//
// t places the grid in the world. The ray covers Origin to Origin+Dir, and the
// contact T is the distance from the origin in world units. The walk is a 2D DDA over
// cell indices. Its step count is bounded by l*(l+√2) plus Tolerances.RayDDAEpsilon,
// where l is the ray length in cells.
//
// Each cell is split along its (0,0)-(1,1) diagonal. Hole cells and cells outside the
// grid are skipped. cull drops triangles by the sign of their normal against the ray.
// The contact carries the triangle index in IPrim[1] and the cell type in ID[1] when
// the grid has one.
func (h *Heightfield) IntersectRay(ray prim.Ray, t prim.Transform, cull CullMode) (contact.Contact, bool) {
	local := prim.Ray{
		Origin: h.hf.ToLocal(t.Inverse(ray.Origin)),
		Dir:    h.hf.DirToLocal(localDir(ray.Dir, t)),
	}

	px, py := local.Origin.X()*h.hf.StepR.X(), local.Origin.Y()*h.hf.StepR.Y()
	dx, dy := local.Dir.X()*h.hf.StepR.X(), local.Dir.Y()*h.hf.StepR.Y()
	ix, iy := int(math.Floor(px)), int(math.Floor(py))

	l := math.Hypot(dx, dy)
	maxSteps := int(math.Ceil(l*(l+math.Sqrt2)+h.Tolerances.RayDDAEpsilon)) + 4

	stepX, tMaxX, tDeltaX := ddaAxis(px, dx)
	stepY, tMaxY, tDeltaY := ddaAxis(py, dy)

	var res intersect.Result
	for i := 0; i < maxSteps; i++ {
		if k, ok := h.rayCell(&local, ix, iy, cull, &res); ok {
			c := contact.New()
			c.Pt = t.Apply(h.hf.ToWorld(res.Pt))
			c.N = t.ApplyDir(h.hf.DirToWorld(res.N))
			c.T = res.T * ray.Dir.Len()
			c.IFeature = [2]int{intersect.RayFeature, prim.TriFace}
			c.IPrim[1] = (iy*h.hf.Size[0]+ix)*2 + k
			if h.hf.CellType != nil {
				c.ID[1] = h.hf.CellType(ix, iy)
			}
			return c, true
		}

		if tMaxX > 1 && tMaxY > 1 {
			break
		}
		if tMaxX < tMaxY {
			ix += stepX
			tMaxX += tDeltaX
		} else {
			iy += stepY
			tMaxY += tDeltaY
		}
	}

	return contact.Contact{}, false
}

// ddaAxis returns the cell step, the ray parameter of the first cell boundary and the
// parameter span of one cell along one axis
func ddaAxis(p, d float64) (step int, tMax, tDelta float64) {
	switch {
	case d > 1e-12:
		return 1, (math.Floor(p) + 1 - p) / d, 1 / d
	case d < -1e-12:
		return -1, (p - math.Floor(p)) / -d, -1 / d
	}
	return 0, math.Inf(1), math.Inf(1)
}

// rayCell tests the two triangles of a cell and keeps the nearest hit in res
func (h *Heightfield) rayCell(ray *prim.Ray, ix, iy int, cull CullMode, res *intersect.Result) (int, bool) {
	if !h.hf.InGrid(ix, iy) || h.hf.IsHole(ix, iy) {
		return 0, false
	}

	best := -1
	var hit intersect.Result
	tris := h.hf.CellTriangles(ix, iy)
	for k := range tris {
		facing := tris[k].N.Dot(ray.Dir)
		if cull == CullBack && facing >= 0 || cull == CullFront && facing <= 0 {
			continue
		}
		if intersect.RayTriangle(ray, &tris[k], &hit) && (best < 0 || hit.T < res.T) {
			best = k
			*res = hit
		}
	}
	return best, best >= 0
}

// FindClosestPoint returns the point of the surface closest to a geometry-local point,
// searched in the cell under it. It reports FeatureNone over holes.
func (h *Heightfield) FindClosestPoint(p mgl64.Vec3) (pt mgl64.Vec3, feature int, iPrim int) {
	local := h.hf.ToLocal(p)
	fx, fy := local.X()*h.hf.StepR.X(), local.Y()*h.hf.StepR.Y()
	ix := min(max(int(math.Floor(fx)), 0), h.hf.Size[0]-1)
	iy := min(max(int(math.Floor(fy)), 0), h.hf.Size[1]-1)
	if h.hf.IsHole(ix, iy) {
		return p, prim.FeatureNone, -1
	}
	fx -= float64(ix)
	fy -= float64(iy)

	base := (iy*h.hf.Size[0] + ix) * 2
	tris := h.hf.CellTriangles(ix, iy)

	// nearest corner first
	corners := [4]struct {
		k, i int
	}{{0, 0}, {0, 1}, {0, 2}, {1, 2}}
	var best mgl64.Vec3
	bestDist := math.Inf(1)
	for _, c := range corners {
		v := tris[c.k].Pt[c.i]
		if d := v.Sub(local).LenSqr(); d < bestDist {
			best, bestDist = v, d
			feature, iPrim = prim.TriVertex(c.i), base+c.k
		}
	}

	// the two cell sides nearest the point, then the diagonal
	edges := [3]struct {
		k, i int
	}{{1, 2}, {0, 0}, {0, 2}}
	if fx >= 0.5 {
		edges[0] = struct{ k, i int }{0, 1}
	}
	if fy >= 0.5 {
		edges[1] = struct{ k, i int }{1, 1}
	}
	for _, e := range edges {
		a, b := tris[e.k].Pt[e.i], tris[e.k].Pt[(e.i+1)%3]
		ab := b.Sub(a)
		u := local.Sub(a).Dot(ab) / ab.LenSqr()
		if u <= 0 || u >= 1 {
			continue
		}
		q := a.Add(ab.Mul(u))
		if d := q.Sub(local).LenSqr(); d < bestDist {
			best, bestDist = q, d
			feature, iPrim = prim.TriEdge(e.i), base+e.k
		}
	}

	for k := range tris {
		tri := &tris[k]
		n := tri.N.Normalize()
		q := local.Sub(n.Mul(local.Sub(tri.Pt[0]).Dot(n)))
		if !insideTriangle(tri, q) {
			continue
		}
		if d := q.Sub(local).LenSqr(); d < bestDist {
			best, bestDist = q, d
			feature, iPrim = prim.TriFace, base+k
		}
	}

	return h.hf.ToWorld(best), feature, iPrim
}

func insideTriangle(tri *prim.Triangle, q mgl64.Vec3) bool {
	for i := 0; i < 3; i++ {
		a, b := tri.Pt[i], tri.Pt[(i+1)%3]
		if b.Sub(a).Cross(q.Sub(a)).Dot(tri.N) < 0 {
			return false
		}
	}
	return true
}

// triangleOf returns the geometry-local triangle of a global triangle index
func (h *Heightfield) triangleOf(iPrim int) (prim.Triangle, bool) {
	if iPrim < 0 {
		return prim.Triangle{}, false
	}
	cell, k := iPrim/2, iPrim%2
	ix, iy := cell%h.hf.Size[0], cell/h.hf.Size[0]
	if !h.hf.InGrid(ix, iy) || h.hf.IsHole(ix, iy) {
		return prim.Triangle{}, false
	}

	tri := h.hf.CellTriangles(ix, iy)[k]
	for i := range tri.Pt {
		tri.Pt[i] = h.hf.ToWorld(tri.Pt[i])
	}
	tri.N = h.hf.DirToWorld(tri.N)
	return tri, true
}

// SurfaceType returns the type of the cell holding triangle iPrim, -1 when the grid has
// no cell types
func (h *Heightfield) SurfaceType(iPrim int) int {
	if h.hf.CellType == nil || iPrim < 0 {
		return -1
	}
	cell := iPrim / 2
	ix, iy := cell%h.hf.Size[0], cell/h.hf.Size[0]
	if !h.hf.InGrid(ix, iy) {
		return -1
	}
	return h.hf.CellType(ix, iy)
}

// GetFeature writes the points of a feature of triangle iPrim: 1 for a vertex, 2 for an
// edge and 3 for the face
func (h *Heightfield) GetFeature(iPrim, iFeature int, pts *[4]mgl64.Vec3) int {
	tri, ok := h.triangleOf(iPrim)
	if !ok {
		return 0
	}
	kind, i, ok := prim.DecodeTriFeature(iFeature)
	if !ok {
		return 0
	}

	switch kind {
	case prim.FeatureVertex:
		pts[0] = tri.Pt[i]
		return 1
	case prim.FeatureEdge:
		pts[0], pts[1] = tri.Pt[i], tri.Pt[(i+1)%3]
		return 2
	default:
		pts[0], pts[1], pts[2] = tri.Pt[0], tri.Pt[1], tri.Pt[2]
		return 3
	}
}

// PreparePolygon writes the world-space points of a triangle feature into the slot
func (h *Heightfield) PreparePolygon(iPrim, iFeature int, t prim.Transform, slot *scratch.Slot) []mgl64.Vec3 {
	var pts [4]mgl64.Vec3
	n := h.GetFeature(iPrim, iFeature, &pts)
	if n == 0 {
		return nil
	}

	out := slot.Points.Take(n)
	for i := range out {
		out[i] = t.Apply(pts[i])
	}
	return out
}

func (h *Heightfield) DrawWireframe(sink DebugSink, t prim.Transform, color int) {
	point := func(ix, iy int) mgl64.Vec3 {
		return t.Apply(h.hf.ToWorld(h.hf.Point(ix, iy)))
	}

	for iy := 0; iy < h.hf.Size[1]; iy++ {
		for ix := 0; ix < h.hf.Size[0]; ix++ {
			if h.hf.IsHole(ix, iy) {
				continue
			}
			v00, v10, v01, v11 := point(ix, iy), point(ix+1, iy), point(ix, iy+1), point(ix+1, iy+1)
			sink.DrawLine(v00, v10, color)
			sink.DrawLine(v00, v01, color)
			sink.DrawLine(v00, v11, color)
			sink.DrawLine(v10, v11, color)
			sink.DrawLine(v01, v11, color)
		}
	}
}

// Patch is the triangulated part of a heightfield under a query, in geometry-local
// space. A patch is never modified once built and may be shared by concurrent readers.
type Patch struct {
	Key      PatchKey
	Vertices []mgl64.Vec3
	Indices  []int32
	// Normals, Topology, Prims and Types are indexed by patch triangle
	Normals []mgl64.Vec3
	// Topology lists the neighbor across each triangle edge, -1 on the patch border
	// and next to holes
	Topology [][3]int32
	// Prims maps a patch triangle to its index in the whole grid
	Prims []int32
	Types []int

	MinHeight float64
	MaxHeight float64

	bounds prim.AABB
}

func (p *Patch) triangle(k int) prim.Triangle {
	return prim.NewTriangle(p.Vertices[p.Indices[k*3]], p.Vertices[p.Indices[k*3+1]], p.Vertices[p.Indices[k*3+2]])
}

// Build returns the volume of the patch bounds
func (p *Patch) Build() float64 {
	e := p.bounds.Max.Sub(p.bounds.Min)
	return e.X() * e.Y() * e.Z()
}

func (p *Patch) NodeCount() int { return 1 }

// GetNodeBV returns the patch bounds placed by t
func (p *Patch) GetNodeBV(i int, t prim.Transform, slot *scratch.Slot) *prim.Box {
	local := p.bounds.Box()
	b := slot.Boxes.Next()
	*b = local.Transformed(t)
	return b
}

// GetNodeContents appends the world-space triangles whose bounds touch the collider
func (p *Patch) GetNodeContents(i int, collider *prim.Box, t prim.Transform, slot *scratch.Slot, out []prim.Item) []prim.Item {
	if i != 0 {
		return out
	}

	var filter prim.AABB
	if collider != nil {
		filter = collider.BoundingAABB()
	}

	for k := range p.Prims {
		local := p.triangle(k)
		tri := prim.NewTriangle(t.Apply(local.Pt[0]), t.Apply(local.Pt[1]), t.Apply(local.Pt[2]))
		if collider != nil && !prim.AABBFromPoints(tri.Pt[:]...).Overlaps(filter) {
			continue
		}

		dst := slot.Triangles.Next()
		*dst = tri
		out = append(out, prim.Item{Shape: dst, Index: int(p.Prims[k])})
	}
	return out
}
