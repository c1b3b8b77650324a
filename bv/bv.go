// Package bv defines the bounding-volume tree contract used by the intersection driver
// and the single node adapter that lets one-primitive geometries take part in it.
package bv

import (
	"github.com/akmonengine/quill/prim"
	"github.com/akmonengine/quill/scratch"
)

// Tree is what the driver needs from a bounding-volume hierarchy. Node volumes and
// contents are materialised in the caller's scratch slot and are valid until the slot
// rings wrap.
type Tree interface {
	// Build prepares the tree and returns its cost, used to order the two sides of a test
	Build() float64
	NodeCount() int
	// GetNodeBV returns node i as a world-space box
	GetNodeBV(i int, t prim.Transform, slot *scratch.Slot) *prim.Box
	// GetNodeContents appends the world-space primitives of node i that may touch collider
	GetNodeContents(i int, collider *prim.Box, t prim.Transform, slot *scratch.Slot, out []prim.Item) []prim.Item
}

// PrimitiveLister is implemented by geometries that can produce their primitives in
// world space
type PrimitiveLister interface {
	GetPrimitiveList(t prim.Transform, slot *scratch.Slot, out []prim.Item) []prim.Item
}

// SingleBox is a one-node tree around a geometry-local box. Its contents are whatever
// the owning geometry lists.
type SingleBox struct {
	Box    prim.Box
	Lister PrimitiveLister
	// AxisAligned makes GetNodeBV return the world AABB of the box instead of the OBB
	AxisAligned bool
}

// Build returns the box volume
func (s *SingleBox) Build() float64 {
	return s.Box.Volume()
}

func (s *SingleBox) NodeCount() int { return 1 }

// GetNodeBV places the box in the slot's box ring, widened to its AABB when AxisAligned
func (s *SingleBox) GetNodeBV(i int, t prim.Transform, slot *scratch.Slot) *prim.Box {
	b := slot.Boxes.Next()
	*b = s.Box.Transformed(t)
	if s.AxisAligned && b.Oriented {
		*b = b.BoundingAABB().Box()
	}
	return b
}

// GetNodeContents appends the lister's world-space primitives. Nodes other than 0 are empty.
func (s *SingleBox) GetNodeContents(i int, collider *prim.Box, t prim.Transform, slot *scratch.Slot, out []prim.Item) []prim.Item {
	if i != 0 || s.Lister == nil {
		return out
	}
	return s.Lister.GetPrimitiveList(t, slot, out)
}
