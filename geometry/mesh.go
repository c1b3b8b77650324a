package geometry

import (
	"math"

	"github.com/akmonengine/quill/bv"
	"github.com/akmonengine/quill/prim"
	"github.com/akmonengine/quill/scratch"
	"github.com/go-gl/mathgl/mgl64"
)

// Mesh is an indexed triangle list in geometry-local space, wrapped by a one-node
// bounding volume
type Mesh struct {
	Vertices []mgl64.Vec3
	Indices  []int32
	// Normals holds one unit normal per triangle
	Normals []mgl64.Vec3
	Tree    bv.SingleBox

	bounds prim.AABB
}

// NewMesh builds the normals and the bounding volume of a triangle list
func NewMesh(vertices []mgl64.Vec3, indices []int32) *Mesh {
	m := &Mesh{
		Vertices: vertices,
		Indices:  indices,
		Normals:  make([]mgl64.Vec3, len(indices)/3),
		bounds:   prim.AABBFromPoints(vertices...),
	}

	for i := range m.Normals {
		tri := m.Triangle(i)
		if l := tri.N.Len(); l > 0 {
			m.Normals[i] = tri.N.Mul(1 / l)
		}
	}
	m.Tree = bv.SingleBox{Box: m.bounds.Box(), Lister: m, AxisAligned: true}

	return m
}

func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// Triangle returns triangle i in geometry-local space
func (m *Mesh) Triangle(i int) prim.Triangle {
	return prim.NewTriangle(
		m.Vertices[m.Indices[i*3]],
		m.Vertices[m.Indices[i*3+1]],
		m.Vertices[m.Indices[i*3+2]],
	)
}

func (m *Mesh) GetPrimitiveList(t prim.Transform, slot *scratch.Slot, out []prim.Item) []prim.Item {
	for i := 0; i < m.TriangleCount(); i++ {
		local := m.Triangle(i)
		tri := slot.Triangles.Next()
		*tri = prim.NewTriangle(t.Apply(local.Pt[0]), t.Apply(local.Pt[1]), t.Apply(local.Pt[2]))
		out = append(out, prim.Item{Shape: tri, Index: i})
	}
	return out
}

// VoxelGrid bins the mesh into cells[0]×cells[1]×cells[2] cells spanning its bounds.
// The grid is padded so that triangles lying on the bounds stay inside it.
func (m *Mesh) VoxelGrid(cells [3]int) *prim.VoxelGrid {
	var step, pad mgl64.Vec3
	extent := m.bounds.Max.Sub(m.bounds.Min)
	for i := 0; i < 3; i++ {
		e := math.Max(extent[i], 1e-6)
		pad[i] = e * 1e-3
		step[i] = (e + 2*pad[i]) / float64(cells[i])
	}

	return prim.BuildVoxelGrid(m.bounds.Min.Sub(pad), step, cells, m.Vertices, m.Indices)
}
