package epa

import (
	"sync"

	"github.com/akmonengine/quill/gjk"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

// PolytopeBuilder holds the expanding polytope. Its slices are reused between runs.
type PolytopeBuilder struct {
	faces []Face

	// unique vertices, for the interior reference point
	uniquePoints []mgl64.Vec3

	// edges of the visible region with their occurrence count
	edges []EdgeEntry

	visibleIndices []int
}

// EdgeEntry is an edge of the visible region. It lies on the horizon when Count == 1.
// A < B lexicographically so both windings of an edge match.
type EdgeEntry struct {
	A, B  mgl64.Vec3
	Count int
}

var polytopeBuilderPool = sync.Pool{
	New: func() interface{} {
		return &PolytopeBuilder{
			faces:          make([]Face, 0, polytopeInitialCapacity),
			uniquePoints:   make([]mgl64.Vec3, 0, polytopeInitialCapacity),
			edges:          make([]EdgeEntry, 0, polytopeInitialCapacity),
			visibleIndices: make([]int, 0, polytopeInitialCapacity),
		}
	},
}

func (b *PolytopeBuilder) Reset() {
	b.faces = b.faces[:0]
	b.uniquePoints = b.uniquePoints[:0]
	b.edges = b.edges[:0]
	b.visibleIndices = b.visibleIndices[:0]
}

// BuildInitialFaces creates the 4 faces of the GJK tetrahedron
func (b *PolytopeBuilder) BuildInitialFaces(simplex *gjk.Simplex) error {
	if simplex.Count != 4 {
		return errors.Errorf("invalid simplex count: %d (expected 4)", simplex.Count)
	}

	p0, p1, p2, p3 := simplex.Points[0], simplex.Points[1], simplex.Points[2], simplex.Points[3]
	candidates := [4]Face{
		newFaceOutward(p0, p1, p2, p3),
		newFaceOutward(p0, p2, p3, p1),
		newFaceOutward(p0, p3, p1, p2),
		newFaceOutward(p1, p3, p2, p0),
	}

	for _, f := range candidates {
		if f.Distance >= MinFaceDistance {
			b.faces = append(b.faces, f)
		}
	}

	// keep the degenerate faces rather than an open polytope
	if len(b.faces) < 3 {
		b.faces = append(b.faces[:0], candidates[:]...)
	}

	return nil
}

// FindClosestFaceIndex returns the index of the face closest to the origin, -1 if none
func (b *PolytopeBuilder) FindClosestFaceIndex() int {
	if len(b.faces) == 0 {
		return -1
	}

	closest := 0
	for i := 1; i < len(b.faces); i++ {
		if b.faces[i].Distance < b.faces[closest].Distance {
			closest = i
		}
	}
	return closest
}

// AddPointAndRebuildFaces removes the faces visible from support and closes the hole
// by connecting the horizon edges to it.
func (b *PolytopeBuilder) AddPointAndRebuildFaces(support mgl64.Vec3, closestIndex int) {
	interior := b.centroid()

	b.findVisibleFaces(support)
	if len(b.visibleIndices) >= len(b.faces) || len(b.visibleIndices) == 0 {
		b.visibleIndices = append(b.visibleIndices[:0], closestIndex)
	}

	b.findHorizonEdges()
	b.removeVisibleFaces()

	for _, edge := range b.edges {
		if edge.Count == 1 {
			b.faces = append(b.faces, newFaceOutward(edge.A, edge.B, support, interior))
		}
	}

	if len(b.faces) == 0 {
		b.faces = append(b.faces, Face{
			Points:   [3]mgl64.Vec3{support, support, support},
			Normal:   mgl64.Vec3{0, 0, 1},
			Distance: MinFaceDistance,
		})
	}
}

// centroid averages the unique vertices of the polytope, a point strictly inside it
func (b *PolytopeBuilder) centroid() mgl64.Vec3 {
	b.uniquePoints = b.uniquePoints[:0]

	for i := range b.faces {
	points:
		for _, p := range b.faces[i].Points {
			for _, q := range b.uniquePoints {
				if vec3Equal(p, q) {
					continue points
				}
			}
			b.uniquePoints = append(b.uniquePoints, p)
		}
	}

	if len(b.uniquePoints) == 0 {
		return mgl64.Vec3{}
	}
	return computeCenter(b.uniquePoints)
}

func (b *PolytopeBuilder) findVisibleFaces(support mgl64.Vec3) {
	b.visibleIndices = b.visibleIndices[:0]

	for i := range b.faces {
		if support.Sub(b.faces[i].Points[0]).Dot(b.faces[i].Normal) > 0 {
			b.visibleIndices = append(b.visibleIndices, i)
		}
	}
}

func (b *PolytopeBuilder) findHorizonEdges() {
	b.edges = b.edges[:0]

	for _, idx := range b.visibleIndices {
		f := &b.faces[idx]
		for k := 0; k < 3; k++ {
			ea, eb := f.Points[k], f.Points[(k+1)%3]
			if compareVec3(ea, eb) > 0 {
				ea, eb = eb, ea
			}

			found := false
			for i := range b.edges {
				if vec3Equal(b.edges[i].A, ea) && vec3Equal(b.edges[i].B, eb) {
					b.edges[i].Count++
					found = true
					break
				}
			}
			if !found {
				b.edges = append(b.edges, EdgeEntry{A: ea, B: eb, Count: 1})
			}
		}
	}
}

// removeVisibleFaces swaps visible faces with the last one, highest index first
func (b *PolytopeBuilder) removeVisibleFaces() {
	for i := 0; i < len(b.visibleIndices)-1; i++ {
		for j := i + 1; j < len(b.visibleIndices); j++ {
			if b.visibleIndices[i] < b.visibleIndices[j] {
				b.visibleIndices[i], b.visibleIndices[j] = b.visibleIndices[j], b.visibleIndices[i]
			}
		}
	}

	for _, idx := range b.visibleIndices {
		if idx < len(b.faces) {
			b.faces[idx] = b.faces[len(b.faces)-1]
			b.faces = b.faces[:len(b.faces)-1]
		}
	}
}
