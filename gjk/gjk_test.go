package gjk

import (
	"math"
	"testing"

	"github.com/akmonengine/quill/prim"
	"github.com/go-gl/mathgl/mgl64"
)

// Test helper functions

func box(center, size mgl64.Vec3) *prim.Box {
	return &prim.Box{Center: center, Size: size, Basis: mgl64.Ident3()}
}

func rotatedBox(center, size mgl64.Vec3, angle float64, axis mgl64.Vec3) *prim.Box {
	tr := prim.Transform{Rotation: mgl64.QuatRotate(angle, axis.Normalize())}
	return &prim.Box{Center: center, Size: size, Basis: tr.Basis(), Oriented: true}
}

func sphere(center mgl64.Vec3, r float64) *prim.Sphere {
	return &prim.Sphere{Center: center, R: r}
}

// MinkowskiSupport tests

func TestMinkowskiSupport(t *testing.T) {
	t.Run("separated spheres along x", func(t *testing.T) {
		support := MinkowskiSupport(sphere(mgl64.Vec3{0, 0, 0}, 1), sphere(mgl64.Vec3{3, 0, 0}, 1), mgl64.Vec3{1, 0, 0})

		// max(A.x) - min(B.x) = 1 - 2
		if support.X() != -1 {
			t.Errorf("Expected support.X = -1, got %v", support.X())
		}
	})

	t.Run("overlapping spheres", func(t *testing.T) {
		support := MinkowskiSupport(sphere(mgl64.Vec3{0, 0, 0}, 1), sphere(mgl64.Vec3{1.5, 0, 0}, 1), mgl64.Vec3{1, 0, 0})

		if support.X() != 0.5 {
			t.Errorf("Expected support.X = 0.5, got %v", support.X())
		}
	})
}

// GJK tests

func TestGJK(t *testing.T) {
	tests := []struct {
		name     string
		a, b     prim.Convex
		expected bool
	}{
		{"overlapping spheres", sphere(mgl64.Vec3{0, 0, 0}, 1), sphere(mgl64.Vec3{1.5, 0, 0}, 1), true},
		{"touching spheres", sphere(mgl64.Vec3{0, 0, 0}, 1), sphere(mgl64.Vec3{2, 0, 0}, 1), true},
		{"separated spheres", sphere(mgl64.Vec3{0, 0, 0}, 1), sphere(mgl64.Vec3{2.5, 0, 0}, 1), false},
		{"concentric spheres", sphere(mgl64.Vec3{1, 1, 1}, 1), sphere(mgl64.Vec3{1, 1, 1}, 0.5), true},
		{"overlapping boxes", box(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 1, 1}), box(mgl64.Vec3{1.5, 0.2, 0}, mgl64.Vec3{1, 1, 1}), true},
		{"separated boxes", box(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 1, 1}), box(mgl64.Vec3{0, 2.5, 0}, mgl64.Vec3{1, 1, 1}), false},
		{
			"rotated box corner reaching",
			box(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 1, 1}),
			rotatedBox(mgl64.Vec3{2.3, 0, 0}, mgl64.Vec3{1, 1, 1}, math.Pi/4, mgl64.Vec3{0, 0, 1}),
			true,
		},
		{
			"rotated box corner short",
			box(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 1, 1}),
			rotatedBox(mgl64.Vec3{2.5, 0, 0}, mgl64.Vec3{1, 1, 1}, math.Pi/4, mgl64.Vec3{0, 0, 1}),
			false,
		},
		{
			"cylinder on box",
			&prim.Cylinder{Center: mgl64.Vec3{0, 0, 1.9}, Axis: mgl64.Vec3{0, 0, 1}, R: 0.5, HH: 1},
			box(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 1, 1}),
			true,
		},
		{
			"cylinder beside sphere",
			&prim.Cylinder{Center: mgl64.Vec3{0, 0, 0}, Axis: mgl64.Vec3{0, 0, 1}, R: 0.5, HH: 1},
			sphere(mgl64.Vec3{1.6, 0, 0}, 1),
			false,
		},
		{
			"ray through box",
			&prim.Ray{Origin: mgl64.Vec3{-5, 0.1, 0.2}, Dir: mgl64.Vec3{10, 0, 0}},
			box(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 1, 1}),
			true,
		},
		{
			"triangle above sphere",
			&prim.Triangle{Pt: [3]mgl64.Vec3{{-1, -1, 2}, {1, -1, 2}, {0, 1, 2}}},
			sphere(mgl64.Vec3{0, 0, 0}, 1),
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			simplex := SimplexPool.Get().(*Simplex)
			defer SimplexPool.Put(simplex)
			simplex.Reset()

			if got := GJK(tt.a, tt.b, simplex); got != tt.expected {
				t.Errorf("GJK = %v, want %v", got, tt.expected)
			}
			if got := GJK(tt.b, tt.a, &Simplex{}); got != tt.expected {
				t.Errorf("GJK swapped = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGJK_SimplexIsTetrahedronOnDeepOverlap(t *testing.T) {
	simplex := &Simplex{}
	if !GJK(box(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 1, 1}), box(mgl64.Vec3{0.5, 0.3, 0.1}, mgl64.Vec3{1, 1, 1}), simplex) {
		t.Fatal("expected overlap")
	}
	if simplex.Count < 1 || simplex.Count > 4 {
		t.Errorf("simplex count %d out of range", simplex.Count)
	}
}

func TestLine(t *testing.T) {
	tests := []struct {
		name          string
		points        [2]mgl64.Vec3
		expectedCount int
		contains      bool
	}{
		{"origin behind newest point", [2]mgl64.Vec3{{3, 0, 0}, {1, 0, 0}}, 1, false},
		{"origin beside segment", [2]mgl64.Vec3{{1, 1, 0}, {-1, 1, 0}}, 2, false},
		{"origin on segment", [2]mgl64.Vec3{{1, 0, 0}, {-1, 0, 0}}, 2, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			simplex := &Simplex{Count: 2}
			simplex.Points[0], simplex.Points[1] = tt.points[0], tt.points[1]
			var direction mgl64.Vec3

			if got := line(simplex, &direction); got != tt.contains {
				t.Errorf("line = %v, want %v", got, tt.contains)
			}
			if simplex.Count != tt.expectedCount {
				t.Errorf("count = %d, want %d", simplex.Count, tt.expectedCount)
			}
			if !tt.contains && direction.Dot(simplex.Points[simplex.Count-1].Mul(-1)) <= 0 {
				t.Errorf("direction %v does not point to the origin", direction)
			}
		})
	}
}

func TestTetrahedron(t *testing.T) {
	simplex := &Simplex{
		Points: [4]mgl64.Vec3{{1, 1, 1}, {-1, -1, 1}, {-1, 1, -1}, {1, -1, -1}},
		Count:  4,
	}
	var direction mgl64.Vec3
	if !tetrahedron(simplex, &direction) {
		t.Error("regular tetrahedron around the origin should contain it")
	}

	shifted := &Simplex{Count: 4}
	for i, p := range simplex.Points {
		shifted.Points[i] = p.Add(mgl64.Vec3{5, 0, 0})
	}
	if tetrahedron(shifted, &direction) {
		t.Error("shifted tetrahedron should not contain the origin")
	}
	if shifted.Count >= 4 {
		t.Errorf("expected the simplex to be reduced, got %d points", shifted.Count)
	}
}

func BenchmarkGJK_Boxes(b *testing.B) {
	a := box(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 1, 1})
	c := rotatedBox(mgl64.Vec3{1.5, 0.3, 0}, mgl64.Vec3{1, 1, 1}, 0.3, mgl64.Vec3{1, 1, 0})
	simplex := &Simplex{}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		simplex.Reset()
		GJK(a, c, simplex)
	}
}
