package quill

import (
	"math"
	"sort"
	"sync"

	"github.com/akmonengine/quill/prim"
	"github.com/go-gl/mathgl/mgl64"
)

// ============================================================================
// Types
// ============================================================================

// CellKey is the integer coordinate of a grid cell
type CellKey struct {
	X, Y, Z int
}

// Cell holds the indices of the bounds that touch it
type Cell struct {
	indices []int
}

// Pair is a pair of bounds indices that may intersect, A < B
type Pair struct {
	A, B int
}

// SpatialGrid is a uniform hashed grid used to find the geometry pairs worth a
// narrow-phase test
type SpatialGrid struct {
	cellSize float64
	cells    []Cell
	cellMask int
}

// ============================================================================
// Constructor
// ============================================================================

// NewSpatialGrid creates a grid of cellSize cells hashed into numCells buckets,
// rounded up to a power of two
func NewSpatialGrid(cellSize float64, numCells int) *SpatialGrid {
	numCells = nextPowerOfTwo(numCells)

	cells := make([]Cell, numCells)
	for i := range cells {
		cells[i].indices = make([]int, 0, 8)
	}

	return &SpatialGrid{
		cellSize: cellSize,
		cells:    cells,
		cellMask: numCells - 1,
	}
}

func nextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n++
	return n
}

// Insert adds index to every cell covered by aabb
func (sg *SpatialGrid) Insert(index int, aabb prim.AABB) {
	sg.forCells(aabb, func(cellIdx int) {
		sg.cells[cellIdx].indices = append(sg.cells[cellIdx].indices, index)
	})
}

func (sg *SpatialGrid) Clear() {
	for i := range sg.cells {
		sg.cells[i].indices = sg.cells[i].indices[:0]
	}
}

func (sg *SpatialGrid) SortCells() {
	for i := range sg.cells {
		if len(sg.cells[i].indices) > 1 {
			sort.Ints(sg.cells[i].indices)
		}
	}
}

// Build clears the grid and inserts every bounds
func (sg *SpatialGrid) Build(bounds []prim.AABB) {
	sg.Clear()
	for i, b := range bounds {
		sg.Insert(i, b)
	}
	sg.SortCells()
}

// FindPairs returns the overlapping pairs of bounds, in increasing (A, B) order
func (sg *SpatialGrid) FindPairs(bounds []prim.AABB) []Pair {
	pairs := make([]Pair, 0, len(bounds)/2)
	seen := make([]bool, len(bounds))

	for a := range bounds {
		pairs = sg.appendPairs(pairs, bounds, a, seen)
	}
	return pairs
}

// FindPairsParallel splits the bounds between numWorkers goroutines and streams the
// pairs. The channel is closed once every worker is done.
func (sg *SpatialGrid) FindPairsParallel(bounds []prim.AABB, numWorkers int) <-chan Pair {
	var wg sync.WaitGroup
	pairsChan := make(chan Pair, numWorkers*10)

	perWorker := len(bounds) / numWorkers
	if perWorker == 0 {
		perWorker = 1
	}

	for w := 0; w < numWorkers; w++ {
		start := w * perWorker
		end := start + perWorker
		if w == numWorkers-1 {
			end = len(bounds)
		}
		if start >= len(bounds) {
			break
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()

			seen := make([]bool, len(bounds))
			var local []Pair
			for a := start; a < end; a++ {
				local = sg.appendPairs(local[:0], bounds, a, seen)
				for _, p := range local {
					pairsChan <- p
				}
			}
		}(start, end)
	}

	go func() {
		wg.Wait()
		close(pairsChan)
	}()

	return pairsChan
}

// appendPairs appends the pairs (a, b) with b > a. seen is left cleared.
func (sg *SpatialGrid) appendPairs(pairs []Pair, bounds []prim.AABB, a int, seen []bool) []Pair {
	first := len(pairs)
	sg.forCells(bounds[a], func(cellIdx int) {
		for _, b := range sg.cells[cellIdx].indices {
			if b <= a || seen[b] {
				continue
			}
			seen[b] = true

			if bounds[a].Overlaps(bounds[b]) {
				pairs = append(pairs, Pair{A: a, B: b})
			}
		}
	})
	sg.forCells(bounds[a], func(cellIdx int) {
		for _, b := range sg.cells[cellIdx].indices {
			if b > a {
				seen[b] = false
			}
		}
	})

	sort.Slice(pairs[first:], func(i, j int) bool {
		return pairs[first+i].B < pairs[first+j].B
	})
	return pairs
}

func (sg *SpatialGrid) forCells(aabb prim.AABB, fn func(cellIdx int)) {
	minCell := sg.worldToCell(aabb.Min)
	maxCell := sg.worldToCell(aabb.Max)

	for x := minCell.X; x <= maxCell.X; x++ {
		for y := minCell.Y; y <= maxCell.Y; y++ {
			for z := minCell.Z; z <= maxCell.Z; z++ {
				fn(sg.hashCell(CellKey{x, y, z}))
			}
		}
	}
}

func (sg *SpatialGrid) worldToCell(pos mgl64.Vec3) CellKey {
	return CellKey{
		X: int(math.Floor(pos.X() / sg.cellSize)),
		Y: int(math.Floor(pos.Y() / sg.cellSize)),
		Z: int(math.Floor(pos.Z() / sg.cellSize)),
	}
}

func (sg *SpatialGrid) hashCell(key CellKey) int {
	h := (key.X * 73856093) ^ (key.Y * 19349663) ^ (key.Z * 83492791)
	return h & sg.cellMask
}
