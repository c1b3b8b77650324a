package geometry

import (
	"math"
	"testing"

	"github.com/akmonengine/quill/contact"
	"github.com/akmonengine/quill/intersect"
	"github.com/akmonengine/quill/prim"
	"github.com/akmonengine/quill/scratch"
	"github.com/go-gl/mathgl/mgl64"
)

func TestRayComputeBoundingBox(t *testing.T) {
	r := NewRay(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{2, 0, 0})

	tr := prim.NewTransform()
	tr.Position = mgl64.Vec3{0, 1, 0}
	tr.Rotation = mgl64.QuatRotate(math.Pi/4, mgl64.Vec3{0, 0, 1})

	b := r.ComputeBoundingBox(tr)
	if b.Oriented {
		t.Error("the ray box must stay axis-aligned")
	}
	wantCenter := tr.Apply(mgl64.Vec3{1, 0, 0})
	if !vec3ApproxEqual(b.Center, wantCenter, 1e-12) {
		t.Errorf("center = %v, want %v", b.Center, wantCenter)
	}
	// a cube of half-extent 1 rotated by 45° around z
	if !vec3ApproxEqual(b.Size, mgl64.Vec3{math.Sqrt2, math.Sqrt2, 1}, 1e-9) {
		t.Errorf("size = %v", b.Size)
	}

	aabb := r.ComputeAABB(tr)
	end := tr.Apply(mgl64.Vec3{2, 0, 0})
	if !vec3ApproxEqual(aabb.Max, mgl64.Vec3{end.X(), end.Y(), 0}, 1e-12) || !vec3ApproxEqual(aabb.Min, mgl64.Vec3{0, 1, 0}, 1e-12) {
		t.Errorf("aabb = %v", aabb)
	}
}

func TestRayClassifyPoint(t *testing.T) {
	r := NewRay(mgl64.Vec3{}, mgl64.Vec3{1, 0, 0})

	for _, p := range []mgl64.Vec3{{}, {0.5, 0, 0}, {1, 0, 0}, {5, 5, 5}} {
		if r.ClassifyPoint(p) != Outside {
			t.Errorf("%v classified inside a ray", p)
		}
	}
}

func TestRayGetFeature(t *testing.T) {
	r := NewRay(mgl64.Vec3{1, 2, 3}, mgl64.Vec3{0, 0, -3})

	var pts [4]mgl64.Vec3
	if n := r.GetFeature(0, intersect.RayFeature, &pts); n != 2 {
		t.Fatalf("n = %d, want 2", n)
	}
	if pts[0] != (mgl64.Vec3{1, 2, 3}) || pts[1] != (mgl64.Vec3{1, 2, 0}) {
		t.Errorf("segment = %v %v", pts[0], pts[1])
	}
	if n := r.GetFeature(0, intersect.SurfaceFeature, &pts); n != 0 {
		t.Errorf("n = %d for a surface feature", n)
	}
}

func TestRayGetPrimitiveList(t *testing.T) {
	r := NewRay(mgl64.Vec3{}, mgl64.Vec3{0, 0, 1})
	tr := prim.NewTransform()
	tr.Position = mgl64.Vec3{3, 0, 0}
	tr.Scale = 2

	items := r.GetPrimitiveList(tr, scratch.NewArena().Slot(0), nil)
	if len(items) != 1 {
		t.Fatalf("items = %d", len(items))
	}
	world := items[0].Shape.(*prim.Ray)
	if world.Origin != (mgl64.Vec3{3, 0, 0}) || !vec3ApproxEqual(world.Dir, mgl64.Vec3{0, 0, 2}, 1e-12) {
		t.Errorf("world ray = %+v", world)
	}
}

func TestRayRegisterIntersection(t *testing.T) {
	tests := []struct {
		name        string
		stopAtFirst bool
	}{
		{"collect all", false},
		{"stop at first", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRay(mgl64.Vec3{0, 0, 5}, mgl64.Vec3{0, 0, -10})
			tr := prim.NewTransform()
			tr.Position = mgl64.Vec3{1, 1, 0}

			res := intersect.Result{Pt: mgl64.Vec3{1, 1, 2}, N: mgl64.Vec3{0, 0, 1}, T: 0.3}
			q := &Query{StopAtFirst: tt.stopAtFirst}
			c := contact.New()

			r.RegisterIntersection(&res, tr, q, &c)
			if math.Abs(c.T-3) > 1e-12 {
				t.Errorf("T = %v, want the distance 3", c.T)
			}
			if c.Pt != res.Pt || c.N != res.N {
				t.Errorf("contact = %+v", c)
			}
			if q.Stop != tt.stopAtFirst {
				t.Errorf("Stop = %v", q.Stop)
			}
		})
	}
}

func TestRayDrawWireframe(t *testing.T) {
	r := NewRay(mgl64.Vec3{}, mgl64.Vec3{1, 0, 0})
	sink := &recordingSink{}

	r.DrawWireframe(sink, prim.NewTransform(), 2)
	if len(sink.lines) != 1 {
		t.Fatalf("lines = %d", len(sink.lines))
	}
}
