// Package scratch implements the per-caller scratch arena.
//
// Every concurrent caller owns one Slot, selected by a small integer that stays stable
// for the duration of a batch (one slot per worker goroutine). A slot holds fixed
// capacity rings of primitives, ids, descriptors and contacts reused by every query the
// caller runs, so the hot path never allocates. There is no locking: two goroutines must
// never share a slot.
package scratch

import (
	"github.com/akmonengine/quill/contact"
	"github.com/akmonengine/quill/overlap"
	"github.com/akmonengine/quill/prim"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

// MaxCallers bounds the number of concurrent callers, hence of worker goroutines
const MaxCallers = 16

// Capacities of the slot rings. Each is rounded up to a power of two.
type Capacities struct {
	Boxes      int
	Spheres    int
	Cylinders  int
	Rays       int
	Triangles  int
	IDs        int
	Surfaces   int
	Edges      int
	Candidates int
	Contacts   int
	Points     int
	Items      int
}

// DefaultCapacities returns the ring sizes used by NewArena
func DefaultCapacities() Capacities {
	return Capacities{
		Boxes:      256,
		Spheres:    64,
		Cylinders:  64,
		Rays:       64,
		Triangles:  1024,
		IDs:        1024,
		Surfaces:   64,
		Edges:      64,
		Candidates: 16,
		Contacts:   256,
		Points:     1024,
		Items:      256,
	}
}

func (c Capacities) validate() error {
	fields := []struct {
		name string
		v    int
	}{
		{"boxes", c.Boxes}, {"spheres", c.Spheres}, {"cylinders", c.Cylinders}, {"rays", c.Rays},
		{"triangles", c.Triangles}, {"ids", c.IDs}, {"surfaces", c.Surfaces}, {"edges", c.Edges},
		{"candidates", c.Candidates}, {"contacts", c.Contacts}, {"points", c.Points}, {"items", c.Items},
	}
	for _, f := range fields {
		if f.v <= 0 {
			return errors.Errorf("scratch: %s capacity must be positive, got %d", f.name, f.v)
		}
	}
	return nil
}

// Slot is the scratch space of one caller
type Slot struct {
	Index int

	Boxes     *Ring[prim.Box]
	Spheres   *Ring[prim.Sphere]
	Cylinders *Ring[prim.Cylinder]
	Rays      *Ring[prim.Ray]
	Triangles *Ring[prim.Triangle]
	IDs       *Ring[int]

	Surfaces   *Ring[contact.Surface]
	Edges      *Ring[contact.Edge]
	Candidates *Ring[contact.Candidates]
	Contacts   *Ring[contact.Contact]
	Points     *Ring[mgl64.Vec3]

	// Items are the primitive lists of the two sides of a test, reused between calls
	Items [2][]prim.Item

	Cache overlap.Cache
}

func newSlot(index int, c Capacities) *Slot {
	return &Slot{
		Index:      index,
		Boxes:      NewRing[prim.Box](c.Boxes),
		Spheres:    NewRing[prim.Sphere](c.Spheres),
		Cylinders:  NewRing[prim.Cylinder](c.Cylinders),
		Rays:       NewRing[prim.Ray](c.Rays),
		Triangles:  NewRing[prim.Triangle](c.Triangles),
		IDs:        NewRing[int](c.IDs),
		Surfaces:   NewRing[contact.Surface](c.Surfaces),
		Edges:      NewRing[contact.Edge](c.Edges),
		Candidates: NewRing[contact.Candidates](c.Candidates),
		Contacts:   NewRing[contact.Contact](c.Contacts),
		Points:     NewRing[mgl64.Vec3](c.Points),
		Items:      [2][]prim.Item{make([]prim.Item, 0, c.Items), make([]prim.Item, 0, c.Items)},
	}
}

// ResetPrims rewinds the primitive and id rings and drops the overlap cache. Callers
// run it when starting a fresh contact accumulation pass.
func (s *Slot) ResetPrims() {
	s.Boxes.Reset()
	s.Spheres.Reset()
	s.Cylinders.Reset()
	s.Rays.Reset()
	s.Triangles.Reset()
	s.IDs.Reset()
	s.Items[0] = s.Items[0][:0]
	s.Items[1] = s.Items[1][:0]
	s.Cache.Reset()
}

// ResetContacts rewinds the contact and descriptor rings
func (s *Slot) ResetContacts() {
	s.Surfaces.Reset()
	s.Edges.Reset()
	s.Candidates.Reset()
	s.Contacts.Reset()
	s.Points.Reset()
}

// Arena owns the slots of every caller
type Arena struct {
	slots [MaxCallers]*Slot
}

// NewArena allocates MaxCallers slots with the default capacities
func NewArena() *Arena {
	a, _ := NewArenaWithCapacities(DefaultCapacities())
	return a
}

// NewArenaWithCapacities allocates MaxCallers slots with custom ring sizes
func NewArenaWithCapacities(c Capacities) (*Arena, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}

	a := &Arena{}
	for i := range a.slots {
		a.slots[i] = newSlot(i, c)
	}
	return a, nil
}

// Slot returns the slot of a caller. Indices outside [0, MaxCallers) are a caller
// contract violation.
func (a *Arena) Slot(caller int) *Slot {
	return a.slots[caller]
}
