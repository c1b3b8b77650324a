package prim

import (
	"math"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl64"
)

// Heightfield is a regular grid of height samples. Size counts cells: heights are
// sampled on (Size[0]+1)×(Size[1]+1) points. Cell (ix, iy) is split into two triangles
// along its (0,0)-(1,1) diagonal.
type Heightfield struct {
	Origin   mgl64.Vec3
	Basis    mgl64.Mat3
	Oriented bool

	Step  mgl64.Vec2
	StepR mgl64.Vec2
	Size  [2]int

	HeightScale float64
	// Height returns the raw sample at grid point (ix, iy)
	Height func(ix, iy int) float64
	// CellType returns the surface type of cell (ix, iy). Negative means hole.
	// A nil CellType means the grid has no holes.
	CellType func(ix, iy int) int
}

func (h *Heightfield) Kind() Kind { return KindHeightfield }

// SetStep sets the cell step and its reciprocal
func (h *Heightfield) SetStep(step mgl64.Vec2) {
	h.Step = step
	h.StepR = mgl64.Vec2{1 / step.X(), 1 / step.Y()}
}

// At returns the scaled height at grid point (ix, iy)
func (h *Heightfield) At(ix, iy int) float64 {
	return h.Height(ix, iy) * h.heightScale()
}

// IsHole reports whether cell (ix, iy) has no geometry
func (h *Heightfield) IsHole(ix, iy int) bool {
	return h.CellType != nil && h.CellType(ix, iy) < 0
}

// InGrid reports whether (ix, iy) is a valid cell index
func (h *Heightfield) InGrid(ix, iy int) bool {
	return uint(ix) < uint(h.Size[0]) && uint(iy) < uint(h.Size[1])
}

// ToLocal transforms a world point into the grid frame
func (h *Heightfield) ToLocal(p mgl64.Vec3) mgl64.Vec3 {
	d := p.Sub(h.Origin)
	if !h.Oriented {
		return d
	}
	return h.Basis.Mul3x1(d)
}

// DirToLocal rotates a world direction into the grid frame
func (h *Heightfield) DirToLocal(d mgl64.Vec3) mgl64.Vec3 {
	if !h.Oriented {
		return d
	}
	return h.Basis.Mul3x1(d)
}

// ToWorld transforms a grid-local point into world space
func (h *Heightfield) ToWorld(local mgl64.Vec3) mgl64.Vec3 {
	return h.DirToWorld(local).Add(h.Origin)
}

// DirToWorld rotates a grid-local direction into world space
func (h *Heightfield) DirToWorld(local mgl64.Vec3) mgl64.Vec3 {
	if !h.Oriented {
		return local
	}
	return h.Basis.Transpose().Mul3x1(local)
}

// Point returns the local position of grid point (ix, iy)
func (h *Heightfield) Point(ix, iy int) mgl64.Vec3 {
	return mgl64.Vec3{float64(ix) * h.Step.X(), float64(iy) * h.Step.Y(), h.At(ix, iy)}
}

// CellTriangles returns the two local triangles of cell (ix, iy). Both face +Z:
// the first is (0,0),(1,0),(1,1) and the second (0,0),(1,1),(0,1).
func (h *Heightfield) CellTriangles(ix, iy int) [2]Triangle {
	v00 := h.Point(ix, iy)
	v10 := h.Point(ix+1, iy)
	v01 := h.Point(ix, iy+1)
	v11 := h.Point(ix+1, iy+1)

	return [2]Triangle{
		NewTriangle(v00, v10, v11),
		NewTriangle(v00, v11, v01),
	}
}

// CellRange returns the clamped cell index range [min, max] covered by the local XY
// rectangle center±half. ok is false when the rectangle misses the grid.
func (h *Heightfield) CellRange(center, half mgl64.Vec2) (lo, hi [2]int, ok bool) {
	for i := 0; i < 2; i++ {
		a := int(math.Floor((center[i] - half[i]) * h.StepR[i]))
		b := int(math.Floor((center[i] + half[i]) * h.StepR[i]))
		if b < 0 || a > h.Size[i]-1 {
			return lo, hi, false
		}
		lo[i] = max(a, 0)
		hi[i] = min(b, h.Size[i]-1)
	}
	return lo, hi, true
}

func (h *Heightfield) heightScale() float64 {
	if h.HeightScale == 0 {
		return 1
	}
	return h.HeightScale
}

// HeightTable stores float32 height samples and per-cell surface types. It backs the
// Height and CellType callbacks of a Heightfield.
type HeightTable struct {
	W, H    int
	Heights []float32
	Types   []int8
}

// NewHeightTable allocates a table for a grid of cells×cells; heights are sampled on
// points, types on cells.
func NewHeightTable(cellsX, cellsY int) *HeightTable {
	return &HeightTable{
		W:       cellsX + 1,
		H:       cellsY + 1,
		Heights: make([]float32, (cellsX+1)*(cellsY+1)),
		Types:   make([]int8, cellsX*cellsY),
	}
}

func (t *HeightTable) Height(ix, iy int) float64 {
	return float64(t.Heights[iy*t.W+ix])
}

func (t *HeightTable) SetHeight(ix, iy int, v float32) {
	t.Heights[iy*t.W+ix] = v
}

func (t *HeightTable) CellType(ix, iy int) int {
	return int(t.Types[iy*(t.W-1)+ix])
}

func (t *HeightTable) SetCellType(ix, iy int, v int8) {
	t.Types[iy*(t.W-1)+ix] = v
}

// Range returns the minimum and maximum sample
func (t *HeightTable) Range() (float32, float32) {
	if len(t.Heights) == 0 {
		return 0, 0
	}
	lo, hi := t.Heights[0], t.Heights[0]
	for _, v := range t.Heights[1:] {
		lo = math32.Min(lo, v)
		hi = math32.Max(hi, v)
	}
	return lo, hi
}

// Bind wires the table as the sample source of h and sets the grid size
func (t *HeightTable) Bind(h *Heightfield) {
	h.Size = [2]int{t.W - 1, t.H - 1}
	h.Height = t.Height
	h.CellType = t.CellType
}
