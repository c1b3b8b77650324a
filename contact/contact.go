// Package contact holds the query-scoped records produced by an intersection test:
// contact points and the surface/edge descriptors used to resolve them.
package contact

import (
	"github.com/akmonengine/quill/prim"
	"github.com/go-gl/mathgl/mgl64"
)

// Contact is a single intersection between two geometries. Index 0 of the paired
// fields refers to the first geometry of the test, index 1 to the second.
type Contact struct {
	Pt mgl64.Vec3
	// N points from the first geometry toward the second
	N mgl64.Vec3
	// T is the penetration depth, or the travel distance for ray contacts
	T float64

	IFeature [2]int
	IPrim    [2]int
	// ID holds optional foreign ids (surface types, part ids), -1 when absent
	ID [2]int
}

// New returns a contact with every id set to "none"
func New() Contact {
	var c Contact
	c.Reset()
	return c
}

// Reset clears the contact. Scratch contacts are reused between queries and must be
// reset before they are filled.
func (c *Contact) Reset() {
	*c = Contact{
		IFeature: [2]int{prim.FeatureNone, prim.FeatureNone},
		IPrim:    [2]int{-1, -1},
		ID:       [2]int{-1, -1},
	}
}

// Swap exchanges the two sides and flips the normal
func (c *Contact) Swap() {
	c.N = c.N.Mul(-1)
	c.IFeature[0], c.IFeature[1] = c.IFeature[1], c.IFeature[0]
	c.IPrim[0], c.IPrim[1] = c.IPrim[1], c.IPrim[0]
	c.ID[0], c.ID[1] = c.ID[1], c.ID[0]
}
