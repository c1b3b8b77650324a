// Package intersect computes exact intersections between primitive pairs.
//
// It complements the overlap package: where a predicate only answers "may overlap", an
// intersection function produces the contact point, normal and the features involved.
// Unregistered pairs resolve to NoIntersection, the opposite policy of the overlap
// table: a pair nobody knows how to intersect produces no contact.
package intersect

import (
	"github.com/akmonengine/quill/prim"
	"github.com/go-gl/mathgl/mgl64"
)

// Feature ids reported for the whole of a ray and the whole of a solid's surface
const (
	RayFeature     = 0x20
	SurfaceFeature = 0x40
)

// Result of an intersection. For pairs involving a ray, N is the outward normal of the
// surface that was hit and T is the fraction of the ray direction travelled. For other
// pairs N points from a toward b and T is the penetration depth.
type Result struct {
	Pt       mgl64.Vec3
	N        mgl64.Vec3
	T        float64
	IFeature [2]int
}

// Func is a type-erased intersection routine
type Func func(a, b prim.Shape, out *Result) bool

// Table dispatches intersection routines by (kind of a, kind of b)
type Table struct {
	funcs      [prim.NumKinds][prim.NumKinds]Func
	registered [prim.NumKinds][prim.NumKinds]bool
}

// NoIntersection is the routine of every unregistered pair
func NoIntersection(a, b prim.Shape, out *Result) bool {
	return false
}

// Default has every built-in routine registered
var Default = NewTable()

// NewTable returns a table with the built-in routines registered
func NewTable() *Table {
	t := &Table{}
	for i := range t.funcs {
		for j := range t.funcs[i] {
			t.funcs[i][j] = NoIntersection
		}
	}

	Register(t, RayTriangle)
	Register(t, RayBox)
	Register(t, RaySphere)
	Register(t, SphereSphere)

	return t
}

// Register installs fn for (A, B) and a swapping adapter for (B, A). The adapter swaps
// the features and, unless a ray is involved, flips the normal.
func Register[A, B prim.Shape](t *Table, fn func(a A, b B, out *Result) bool) {
	var a A
	var b B
	ka, kb := a.Kind(), b.Kind()

	t.funcs[ka][kb] = func(x, y prim.Shape, out *Result) bool {
		return fn(x.(A), y.(B), out)
	}
	t.registered[ka][kb] = true
	if ka == kb {
		return
	}

	flip := ka != prim.KindRay && kb != prim.KindRay
	t.funcs[kb][ka] = func(x, y prim.Shape, out *Result) bool {
		if !fn(y.(A), x.(B), out) {
			return false
		}
		out.IFeature[0], out.IFeature[1] = out.IFeature[1], out.IFeature[0]
		if flip {
			out.N = out.N.Mul(-1)
		}
		return true
	}
	t.registered[kb][ka] = true
}

// Intersect dispatches on the kinds of a and b
func (t *Table) Intersect(a, b prim.Shape, out *Result) bool {
	return t.funcs[a.Kind()][b.Kind()](a, b, out)
}

// Registered reports whether the pair has a routine other than NoIntersection
func (t *Table) Registered(ka, kb prim.Kind) bool {
	return t.registered[ka][kb]
}

// Intersect runs the Default table
func Intersect(a, b prim.Shape, out *Result) bool {
	return Default.Intersect(a, b, out)
}
