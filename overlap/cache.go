package overlap

import (
	"github.com/akmonengine/quill/prim"
	"github.com/go-gl/mathgl/mgl64"
)

// Cache keeps the last relative basis computed by the box/box test. It is reused when
// the next call presents the same pair of bases, which is the common case while a box
// is tested against many primitives of one mesh. One Cache lives in each caller slot
// and must not be shared between goroutines.
type Cache struct {
	valid     bool
	basisA    mgl64.Mat3
	basisB    mgl64.Mat3
	orientedA bool
	orientedB bool

	// R[i][j] = axisA(i)·axisB(j), AbsR = |R|
	R    mgl64.Mat3
	AbsR mgl64.Mat3

	hits int
}

// Reset drops the cached basis
func (c *Cache) Reset() {
	c.valid = false
}

// Relative returns the basis of b expressed in the frame of a, with its absolute value
func (c *Cache) Relative(a, b *prim.Box) (mgl64.Mat3, mgl64.Mat3) {
	if c == nil {
		r := relativeBasis(a, b)
		return r, r.Abs()
	}

	if c.valid && c.orientedA == a.Oriented && c.orientedB == b.Oriented &&
		(!a.Oriented || c.basisA == a.Basis) && (!b.Oriented || c.basisB == b.Basis) {
		c.hits++
		return c.R, c.AbsR
	}

	c.R = relativeBasis(a, b)
	c.AbsR = c.R.Abs()
	c.basisA, c.basisB = a.Basis, b.Basis
	c.orientedA, c.orientedB = a.Oriented, b.Oriented
	c.valid = true

	return c.R, c.AbsR
}

func relativeBasis(a, b *prim.Box) mgl64.Mat3 {
	switch {
	case !a.Oriented && !b.Oriented:
		return mgl64.Ident3()
	case !a.Oriented:
		// rows of b are its axes, R[i][j] = e_i·axisB(j) = b.Basis[j][i]
		return b.Basis.Transpose()
	case !b.Oriented:
		return a.Basis
	}
	return a.Basis.Mul3(b.Basis.Transpose())
}
