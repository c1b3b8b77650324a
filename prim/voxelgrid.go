package prim

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// VoxelGrid bins the triangles of a mesh into a regular 3D grid of cells. Cell c owns
// CellTris[CellStart[c]:CellStart[c+1]], indices into the shared triangle arrays.
type VoxelGrid struct {
	Origin   mgl64.Vec3
	Basis    mgl64.Mat3
	Oriented bool
	Step     mgl64.Vec3
	StepR    mgl64.Vec3
	Size     [3]int

	CellStart []int32
	CellTris  []int32

	Vertices []mgl64.Vec3
	Indices  []int32
	Normals  []mgl64.Vec3
}

func (g *VoxelGrid) Kind() Kind { return KindVoxelGrid }

// ToLocal transforms a world point into the grid frame
func (g *VoxelGrid) ToLocal(p mgl64.Vec3) mgl64.Vec3 {
	d := p.Sub(g.Origin)
	if !g.Oriented {
		return d
	}
	return g.Basis.Mul3x1(d)
}

// Triangle returns triangle i in world space
func (g *VoxelGrid) Triangle(i int) Triangle {
	return NewTriangle(
		g.Vertices[g.Indices[i*3]],
		g.Vertices[g.Indices[i*3+1]],
		g.Vertices[g.Indices[i*3+2]],
	)
}

// CellIndex flattens a cell coordinate. The caller checks bounds.
func (g *VoxelGrid) CellIndex(x, y, z int) int {
	return (z*g.Size[1]+y)*g.Size[0] + x
}

// CellContents returns the triangle indices binned in the cell
func (g *VoxelGrid) CellContents(x, y, z int) []int32 {
	c := g.CellIndex(x, y, z)
	return g.CellTris[g.CellStart[c]:g.CellStart[c+1]]
}

// CellRange returns the clamped range of cells overlapped by a local AABB
func (g *VoxelGrid) CellRange(local AABB) (lo, hi [3]int, ok bool) {
	for i := 0; i < 3; i++ {
		a := int(math.Floor(local.Min[i] * g.StepR[i]))
		b := int(math.Floor(local.Max[i] * g.StepR[i]))
		if b < 0 || a > g.Size[i]-1 {
			return lo, hi, false
		}
		lo[i] = max(a, 0)
		hi[i] = min(b, g.Size[i]-1)
	}
	return lo, hi, true
}

// BuildVoxelGrid bins an axis-aligned triangle soup into cells of the given step,
// starting at origin. A triangle is stored in every cell its bounding box touches.
func BuildVoxelGrid(origin, step mgl64.Vec3, size [3]int, vertices []mgl64.Vec3, indices []int32) *VoxelGrid {
	g := &VoxelGrid{
		Origin:   origin,
		Basis:    mgl64.Ident3(),
		Step:     step,
		StepR:    mgl64.Vec3{1 / step.X(), 1 / step.Y(), 1 / step.Z()},
		Size:     size,
		Vertices: vertices,
		Indices:  indices,
	}

	numTris := len(indices) / 3
	g.Normals = make([]mgl64.Vec3, numTris)
	for i := 0; i < numTris; i++ {
		t := g.Triangle(i)
		if l := t.N.Len(); l > 0 {
			g.Normals[i] = t.N.Mul(1 / l)
		}
	}

	numCells := size[0] * size[1] * size[2]
	counts := make([]int32, numCells+1)

	// first pass counts, second pass fills
	visit := func(fn func(cell int, tri int32)) {
		for i := 0; i < numTris; i++ {
			t := g.Triangle(i)
			local := AABBFromPoints(g.ToLocal(t.Pt[0]), g.ToLocal(t.Pt[1]), g.ToLocal(t.Pt[2]))
			lo, hi, ok := g.CellRange(local)
			if !ok {
				continue
			}

			for x := lo[0]; x <= hi[0]; x++ {
				for y := lo[1]; y <= hi[1]; y++ {
					for z := lo[2]; z <= hi[2]; z++ {
						fn(g.CellIndex(x, y, z), int32(i))
					}
				}
			}
		}
	}

	visit(func(cell int, _ int32) {
		counts[cell+1]++
	})
	for c := 0; c < numCells; c++ {
		counts[c+1] += counts[c]
	}

	g.CellStart = counts
	g.CellTris = make([]int32, counts[numCells])
	cursor := make([]int32, numCells)
	copy(cursor, counts[:numCells])

	visit(func(cell int, tri int32) {
		g.CellTris[cursor[cell]] = tri
		cursor[cell]++
	})

	return g
}
