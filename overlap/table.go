// Package overlap implements the conservative "may overlap" predicates between
// primitive kinds.
//
// A predicate may report a false positive, which exact contact generation rejects
// later, but never a false negative. The predicates are dispatched through a square
// table indexed by the kinds of both shapes. Pairs with no registered predicate
// resolve to AssumeOverlap: the pair is passed on and a downstream stage decides.
package overlap

import (
	"github.com/akmonengine/quill/prim"
)

// Check is a type-erased overlap predicate
type Check func(a, b prim.Shape, c *Cache) bool

// Table dispatches predicates by (kind of a, kind of b)
type Table struct {
	checks     [prim.NumKinds][prim.NumKinds]Check
	registered [prim.NumKinds][prim.NumKinds]bool
}

// AssumeOverlap is the predicate of every unregistered pair
func AssumeOverlap(a, b prim.Shape, c *Cache) bool {
	return true
}

// Default is the table with every built-in predicate registered
var Default = NewTable()

// NewTable returns a table with all built-in predicates registered
func NewTable() *Table {
	t := &Table{}
	for i := range t.checks {
		for j := range t.checks[i] {
			t.checks[i][j] = AssumeOverlap
		}
	}

	Register(t, BoxBox)
	Register(t, BoxTriangle)
	Register(t, BoxRay)
	Register(t, BoxSphere)
	Register(t, BoxHeightfield)
	Register(t, BoxVoxelGrid)
	Register(t, SphereTriangle)
	Register(t, SphereSphere)
	Register(t, SphereRay)
	Register(t, SphereHeightfield)
	Register(t, RayTriangle)

	Register(t, convexPair[*prim.Triangle, *prim.Triangle])
	Register(t, convexPair[*prim.Cylinder, *prim.Cylinder])
	Register(t, convexPair[*prim.Cylinder, *prim.Box])
	Register(t, convexPair[*prim.Cylinder, *prim.Sphere])
	Register(t, convexPair[*prim.Cylinder, *prim.Triangle])
	Register(t, convexPair[*prim.Cylinder, *prim.Ray])

	return t
}

// Register installs a typed predicate for the pair (A, B). When A and B differ the
// argument-swapping adapter for (B, A) is installed as well.
func Register[A, B prim.Shape](t *Table, fn func(a A, b B, c *Cache) bool) {
	var a A
	var b B
	ka, kb := a.Kind(), b.Kind()

	t.checks[ka][kb] = func(x, y prim.Shape, c *Cache) bool {
		return fn(x.(A), y.(B), c)
	}
	t.registered[ka][kb] = true
	if ka != kb {
		t.checks[kb][ka] = func(x, y prim.Shape, c *Cache) bool {
			return fn(y.(A), x.(B), c)
		}
		t.registered[kb][ka] = true
	}
}

// Overlap dispatches on the kinds of a and b
func (t *Table) Overlap(a, b prim.Shape, c *Cache) bool {
	return t.checks[a.Kind()][b.Kind()](a, b, c)
}

// Registered reports whether the pair has a predicate other than AssumeOverlap
func (t *Table) Registered(ka, kb prim.Kind) bool {
	return t.registered[ka][kb]
}

// Overlap runs the Default table
func Overlap(a, b prim.Shape, c *Cache) bool {
	return Default.Overlap(a, b, c)
}
