package quill

import (
	"math"
	"testing"

	"github.com/akmonengine/quill/contact"
	"github.com/akmonengine/quill/geometry"
	"github.com/akmonengine/quill/intersect"
	"github.com/akmonengine/quill/prim"
	"github.com/go-gl/mathgl/mgl64"
)

func newBox(half float64) *geometry.Box {
	return geometry.NewBox(prim.Box{Size: mgl64.Vec3{half, half, half}, Basis: mgl64.Ident3()})
}

// flatTerrain is a cells×cells grid at z=0 with unit steps, every cell of surface type 3
func flatTerrain(cells int) *geometry.Heightfield {
	table := prim.NewHeightTable(cells, cells)
	for iy := 0; iy < cells; iy++ {
		for ix := 0; ix < cells; ix++ {
			table.SetCellType(ix, iy, 3)
		}
	}
	return geometry.NewHeightfieldFromTable(mgl64.Vec3{}, mgl64.Vec2{1, 1}, table, 1)
}

func at(x, y, z float64) prim.Transform {
	t := prim.NewTransform()
	t.Position = mgl64.Vec3{x, y, z}
	return t
}

// ============================================================================
// Driver
// ============================================================================

func TestDriverBoxBox(t *testing.T) {
	d := NewDriver()

	tests := []struct {
		name     string
		offset   float64
		expected bool
		depth    float64
	}{
		{"separated", 3, false, 0},
		{"overlapping", 1.5, true, 0.5},
		{"deep", 1, true, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			contacts := d.Intersect(0, newBox(1), newBox(1), at(0, 0, 0), at(tt.offset, 0, 0), Params{}, nil)

			if (len(contacts) > 0) != tt.expected {
				t.Fatalf("got %d contacts, expected contact = %v", len(contacts), tt.expected)
			}
			for _, c := range contacts {
				if c.N.X() < 0.99 {
					t.Errorf("normal = %v, want +X", c.N)
				}
				if math.Abs(c.T-tt.depth) > 1e-3 {
					t.Errorf("depth = %v, want %v", c.T, tt.depth)
				}
				if c.IPrim != [2]int{0, 0} {
					t.Errorf("IPrim = %v, want [0 0]", c.IPrim)
				}
			}
		})
	}
}

func TestDriverRayBox(t *testing.T) {
	d := NewDriver()
	ray := geometry.NewRay(mgl64.Vec3{0, 0, 5}, mgl64.Vec3{0, 0, -10})
	box := newBox(1)

	contacts := d.Intersect(0, ray, box, prim.NewTransform(), prim.NewTransform(), Params{}, nil)
	if len(contacts) != 1 {
		t.Fatalf("got %d contacts, want 1", len(contacts))
	}
	c := contacts[0]
	if math.Abs(c.T-4) > 1e-9 {
		t.Errorf("T = %v, want 4", c.T)
	}
	if !c.Pt.ApproxEqualThreshold(mgl64.Vec3{0, 0, 1}, 1e-9) {
		t.Errorf("Pt = %v, want (0, 0, 1)", c.Pt)
	}

	// box first: the distance is still measured along the ray
	swapped := d.Intersect(0, box, ray, prim.NewTransform(), prim.NewTransform(), Params{}, nil)
	if len(swapped) != 1 || math.Abs(swapped[0].T-4) > 1e-9 {
		t.Fatalf("swapped contacts = %v, want a single hit at T=4", swapped)
	}

	miss := d.Intersect(0, ray, box, at(5, 0, 0), prim.NewTransform(), Params{}, nil)
	if len(miss) != 0 {
		t.Errorf("got %d contacts for a missing ray", len(miss))
	}
}

func TestDriverRayHeightfield(t *testing.T) {
	d := NewDriver()
	hf := flatTerrain(4)
	ray := geometry.NewRay(mgl64.Vec3{1.5, 1.25, 5}, mgl64.Vec3{0, 0, -10})

	forward := d.Intersect(0, ray, hf, prim.NewTransform(), prim.NewTransform(), Params{}, nil)
	backward := d.Intersect(1, hf, ray, prim.NewTransform(), prim.NewTransform(), Params{}, nil)
	if len(forward) != 1 || len(backward) != 1 {
		t.Fatalf("got %d/%d contacts, want 1/1", len(forward), len(backward))
	}

	f, b := forward[0], backward[0]
	if math.Abs(f.T-5) > 1e-9 || math.Abs(b.T-5) > 1e-9 {
		t.Errorf("T = %v/%v, want 5", f.T, b.T)
	}
	if f.IFeature[0] != intersect.RayFeature || b.IFeature[1] != intersect.RayFeature {
		t.Errorf("ray features = %v/%v", f.IFeature, b.IFeature)
	}
	if f.IPrim[1]/2 != 5 || b.IPrim[0] != f.IPrim[1] {
		t.Errorf("triangle = %d/%d, want a triangle of cell 5", f.IPrim[1], b.IPrim[0])
	}
	if f.ID[1] != 3 || b.ID[0] != 3 {
		t.Errorf("surface ids = %v/%v, want 3", f.ID, b.ID)
	}
	if math.Abs(f.N.Z()) < 0.99 || f.N.Z() != -b.N.Z() {
		t.Errorf("normals = %v/%v, want opposite vertical normals", f.N, b.N)
	}
}

func TestDriverBoxHeightfield(t *testing.T) {
	d := NewDriver()
	hf := flatTerrain(4)

	tests := []struct {
		name        string
		height      float64
		maxContacts int
		expected    int
	}{
		{"above", 1, 0, 0},
		{"resting", 0.3, 0, -1},
		{"limited", 0.3, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			contacts := d.Intersect(0, newBox(0.5), hf, at(2, 2, tt.height), prim.NewTransform(), Params{MaxContacts: tt.maxContacts}, nil)

			switch {
			case tt.expected >= 0 && len(contacts) != tt.expected:
				t.Fatalf("got %d contacts, want %d", len(contacts), tt.expected)
			case tt.expected < 0 && len(contacts) == 0:
				t.Fatal("expected contacts")
			}
			for _, c := range contacts {
				if c.IFeature[1] == prim.FeatureNone {
					t.Errorf("heightfield feature not set")
				}
				if c.ID[1] != 3 {
					t.Errorf("surface id = %d, want 3", c.ID[1])
				}
				if c.IPrim[1] < 0 || c.IPrim[1] >= 32 {
					t.Errorf("triangle index %d out of grid", c.IPrim[1])
				}
			}
		})
	}
}

func TestDriverAppendsToOut(t *testing.T) {
	d := NewDriver()
	ray := geometry.NewRay(mgl64.Vec3{0, 0, 5}, mgl64.Vec3{0, 0, -10})

	out := []contact.Contact{contact.New()}
	out = d.Intersect(0, ray, newBox(1), prim.NewTransform(), prim.NewTransform(), Params{}, out)
	if len(out) != 2 {
		t.Fatalf("len(out) = %d, want 2", len(out))
	}
	if out[0].IPrim != [2]int{-1, -1} {
		t.Error("existing contact was overwritten")
	}
}

// ============================================================================
// Batch
// ============================================================================

func TestBatchRun(t *testing.T) {
	tests := []struct {
		name    string
		workers int
	}{
		{"single worker", 1},
		{"four workers", 4},
		{"more workers than slots", 64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batch := Batch{Driver: NewDriver(), Workers: tt.workers}
			box := newBox(1)

			jobs := make([]*Job, 20)
			for i := range jobs {
				jobs[i] = &Job{
					A:  geometry.NewRay(mgl64.Vec3{0, 0, float64(2 + i)}, mgl64.Vec3{0, 0, -50}),
					B:  box,
					TA: prim.NewTransform(),
					TB: prim.NewTransform(),
				}
			}
			batch.Run(jobs)

			for i, job := range jobs {
				if len(job.Contacts) != 1 {
					t.Fatalf("job %d: got %d contacts, want 1", i, len(job.Contacts))
				}
				if want := float64(1 + i); math.Abs(job.Contacts[0].T-want) > 1e-9 {
					t.Errorf("job %d: T = %v, want %v", i, job.Contacts[0].T, want)
				}
			}

			// a second run reuses the contact slices
			batch.Run(jobs)
			if len(jobs[0].Contacts) != 1 {
				t.Errorf("second run: got %d contacts, want 1", len(jobs[0].Contacts))
			}
		})
	}
}
