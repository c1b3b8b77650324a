package overlap

import (
	"math"

	"github.com/akmonengine/quill/gjk"
	"github.com/akmonengine/quill/prim"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// MaxExactHeightfieldCells is the largest cell range tested triangle by triangle
	MaxExactHeightfieldCells = 6
	// MaxVoxelCells is the largest voxel cell range whose contents are merged
	MaxVoxelCells = 18
	// MaxVoxelCandidates is the capacity of the merged triangle set. Overflow assumes overlap.
	MaxVoxelCandidates = 9
)

// BoxHeightfield moves the box into the grid frame and bounds the cells under its
// footprint. Small ranges are tested exactly against the cell triangles, larger ones
// only reject boxes floating above the highest sample.
func BoxHeightfield(box *prim.Box, hf *prim.Heightfield, c *Cache) bool {
	center := hf.ToLocal(box.Center)

	// rows flipped so that every axis points down: the lowest vertex is then
	// center + Σ size·row
	var rows [3]mgl64.Vec3
	for i := 0; i < 3; i++ {
		rows[i] = hf.DirToLocal(box.Axis(i))
		if rows[i].Z() > 0 {
			rows[i] = rows[i].Mul(-1)
		}
	}

	var ext mgl64.Vec2
	lowest := center.Z()
	for i := 0; i < 3; i++ {
		ext[0] += box.Size[i] * math.Abs(rows[i].X())
		ext[1] += box.Size[i] * math.Abs(rows[i].Y())
		lowest += box.Size[i] * rows[i].Z()
	}

	lo, hi, ok := hf.CellRange(center.Vec2(), ext)
	if !ok {
		return false
	}

	cells := (hi[0] - lo[0] + 1) * (hi[1] - lo[1] + 1)
	if cells <= MaxExactHeightfieldCells {
		local := prim.Box{
			Center:   center,
			Size:     box.Size,
			Basis:    mgl64.Mat3FromRows(rows[0], rows[1], rows[2]),
			Oriented: true,
		}
		eps := boxEpsilon(box)
		for iy := lo[1]; iy <= hi[1]; iy++ {
			for ix := lo[0]; ix <= hi[0]; ix++ {
				if hf.IsHole(ix, iy) {
					continue
				}
				for _, tri := range hf.CellTriangles(ix, iy) {
					var v [3]mgl64.Vec3
					for k := 0; k < 3; k++ {
						v[k] = local.ToLocal(tri.Pt[k])
					}
					if boxTriangleLocal(local.Size, v, local.DirToLocal(tri.N), eps) {
						return true
					}
				}
			}
		}
		return false
	}

	maxHeight := math.Inf(-1)
	for iy := lo[1]; iy <= hi[1]; iy++ {
		for ix := lo[0]; ix <= hi[0]; ix++ {
			if hf.IsHole(ix, iy) {
				continue
			}
			maxHeight = math.Max(maxHeight, math.Max(
				math.Max(hf.At(ix, iy), hf.At(ix+1, iy)),
				math.Max(hf.At(ix, iy+1), hf.At(ix+1, iy+1)),
			))
		}
	}

	return lowest <= maxHeight
}

// SphereHeightfield tests the sphere against the triangles of every cell under it
func SphereHeightfield(s *prim.Sphere, hf *prim.Heightfield, c *Cache) bool {
	center := hf.ToLocal(s.Center)
	lo, hi, ok := hf.CellRange(center.Vec2(), mgl64.Vec2{s.R, s.R})
	if !ok {
		return false
	}

	r2 := s.R * s.R
	for iy := lo[1]; iy <= hi[1]; iy++ {
		for ix := lo[0]; ix <= hi[0]; ix++ {
			if hf.IsHole(ix, iy) {
				continue
			}
			tris := hf.CellTriangles(ix, iy)
			for k := range tris {
				if sphereTriangleDistSq(center, &tris[k]) <= r2 {
					return true
				}
			}
		}
	}
	return false
}

// BoxVoxelGrid merges the triangle lists of the cells covered by the box into a small
// set and tests each candidate. Large ranges and set overflow assume overlap.
func BoxVoxelGrid(box *prim.Box, grid *prim.VoxelGrid, c *Cache) bool {
	bounds := box.BoundingAABB()
	local := prim.AABBFromPoints(grid.ToLocal(bounds.Min))
	for ivtx := 1; ivtx < 8; ivtx++ {
		corner := bounds.Min
		for i := 0; i < 3; i++ {
			if ivtx>>i&1 != 0 {
				corner[i] = bounds.Max[i]
			}
		}
		local = local.Extend(grid.ToLocal(corner))
	}

	lo, hi, ok := grid.CellRange(local)
	if !ok {
		return false
	}
	if (hi[0]-lo[0]+1)*(hi[1]-lo[1]+1)*(hi[2]-lo[2]+1) > MaxVoxelCells {
		return true
	}

	var set [MaxVoxelCandidates]int32
	n := 0
	for z := lo[2]; z <= hi[2]; z++ {
		for y := lo[1]; y <= hi[1]; y++ {
			for x := lo[0]; x <= hi[0]; x++ {
			next:
				for _, tri := range grid.CellContents(x, y, z) {
					for k := 0; k < n; k++ {
						if set[k] == tri {
							continue next
						}
					}
					if n == MaxVoxelCandidates {
						return true
					}
					set[n] = tri
					n++
				}
			}
		}
	}

	for k := 0; k < n; k++ {
		tri := grid.Triangle(int(set[k]))
		if BoxTriangle(box, &tri, c) {
			return true
		}
	}
	return false
}

// convexPair falls back to GJK for convex pairs with no analytic test
func convexPair[A, B prim.Convex](a A, b B, c *Cache) bool {
	simplex := gjk.SimplexPool.Get().(*gjk.Simplex)
	defer gjk.SimplexPool.Put(simplex)
	simplex.Reset()

	return gjk.GJK(a, b, simplex)
}
