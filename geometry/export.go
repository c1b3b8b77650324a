package geometry

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/unixpickle/model3d/model3d"
)

// Triangulate exports the grid as a triangle mesh in geometry-local space. Hole cells
// are left out; triangle 2*cell+k of the grid keeps its winding.
func (h *Heightfield) Triangulate() *Mesh {
	w := h.hf.Size[0] + 1
	vertices := make([]mgl64.Vec3, 0, w*(h.hf.Size[1]+1))
	for iy := 0; iy <= h.hf.Size[1]; iy++ {
		for ix := 0; ix <= h.hf.Size[0]; ix++ {
			vertices = append(vertices, h.hf.ToWorld(h.hf.Point(ix, iy)))
		}
	}

	var indices []int32
	for iy := 0; iy < h.hf.Size[1]; iy++ {
		for ix := 0; ix < h.hf.Size[0]; ix++ {
			if h.hf.IsHole(ix, iy) {
				continue
			}
			v00 := int32(iy*w + ix)
			v10, v01, v11 := v00+1, v00+int32(w), v00+int32(w)+1
			indices = append(indices, v00, v10, v11, v00, v11, v01)
		}
	}

	return NewMesh(vertices, indices)
}

// Model3D converts the mesh for the model3d toolkit
func (m *Mesh) Model3D() *model3d.Mesh {
	coord := func(v mgl64.Vec3) model3d.Coord3D {
		return model3d.Coord3D{X: v.X(), Y: v.Y(), Z: v.Z()}
	}

	triangles := make([]*model3d.Triangle, m.TriangleCount())
	for i := range triangles {
		tri := m.Triangle(i)
		triangles[i] = &model3d.Triangle{coord(tri.Pt[0]), coord(tri.Pt[1]), coord(tri.Pt[2])}
	}
	return model3d.NewMeshTriangles(triangles)
}
