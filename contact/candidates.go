package contact

import "github.com/go-gl/mathgl/mgl64"

const (
	// MaxSurfaces is the largest surface set around a feature: the 3 faces of a box corner
	MaxSurfaces = 3
	// MaxEdges is the largest edge set around a feature: the 3 edges of a box corner
	MaxEdges = 3
)

// Surface is a plane adjoining a contact feature
type Surface struct {
	N        mgl64.Vec3
	Idx      int
	IFeature int
}

// Edge is an edge adjoining a contact feature, with the normals of its two faces
type Edge struct {
	Dir      mgl64.Vec3
	N        [2]mgl64.Vec3
	Idx      int
	IFeature int
}

// Candidates is the local separating-plane set around a contact feature. A box vertex
// yields 3 surfaces and 3 edges, an edge 2 surfaces and 1 edge, a face 1 surface.
type Candidates struct {
	Surfaces  [MaxSurfaces]Surface
	Edges     [MaxEdges]Edge
	NSurfaces int
	NEdges    int
	// IFeature is the feature the set was built for, after reclassification
	IFeature int
}

func (c *Candidates) Reset() {
	c.NSurfaces = 0
	c.NEdges = 0
	c.IFeature = -1
}

// AddSurface appends a surface, reporting false when the set is full
func (c *Candidates) AddSurface(s Surface) bool {
	if c.NSurfaces == MaxSurfaces {
		return false
	}
	c.Surfaces[c.NSurfaces] = s
	c.NSurfaces++
	return true
}

// AddEdge appends an edge, reporting false when the set is full
func (c *Candidates) AddEdge(e Edge) bool {
	if c.NEdges == MaxEdges {
		return false
	}
	c.Edges[c.NEdges] = e
	c.NEdges++
	return true
}

// SurfaceList returns the filled surfaces
func (c *Candidates) SurfaceList() []Surface {
	return c.Surfaces[:c.NSurfaces]
}

// EdgeList returns the filled edges
func (c *Candidates) EdgeList() []Edge {
	return c.Edges[:c.NEdges]
}
