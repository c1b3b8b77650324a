package epa

import (
	"math"
	"testing"

	"github.com/akmonengine/quill/gjk"
	"github.com/akmonengine/quill/prim"
	"github.com/go-gl/mathgl/mgl64"
)

func vec3ApproxEqual(a, b mgl64.Vec3, tolerance float64) bool {
	return math.Abs(a.X()-b.X()) < tolerance &&
		math.Abs(a.Y()-b.Y()) < tolerance &&
		math.Abs(a.Z()-b.Z()) < tolerance
}

func isNormalized(v mgl64.Vec3, tolerance float64) bool {
	return math.Abs(v.Len()-1.0) < tolerance
}

func box(center, size mgl64.Vec3) *prim.Box {
	return &prim.Box{Center: center, Size: size, Basis: mgl64.Ident3()}
}

func runEPA(t *testing.T, a, b prim.Convex) Penetration {
	t.Helper()
	simplex := &gjk.Simplex{}
	if !gjk.GJK(a, b, simplex) {
		t.Fatalf("GJK reported no overlap")
	}
	p, err := EPA(a, b, simplex)
	if err != nil {
		t.Fatalf("EPA: %v", err)
	}
	return p
}

// =============================================================================
// Normal snapping
// =============================================================================

func TestSnapNormalToAxis(t *testing.T) {
	tests := []struct {
		name     string
		input    mgl64.Vec3
		expected mgl64.Vec3
	}{
		{"small_x_component", mgl64.Vec3{1e-9, 1.0, 0.0}, mgl64.Vec3{0.0, 1.0, 0.0}},
		{"small_z_component", mgl64.Vec3{0.0, 1.0, 1e-9}, mgl64.Vec3{0.0, 1.0, 0.0}},
		{"already_axis_aligned_x", mgl64.Vec3{1.0, 0.0, 0.0}, mgl64.Vec3{1.0, 0.0, 0.0}},
		{"diagonal_normal", mgl64.Vec3{1.0, 1.0, 1.0}.Normalize(), mgl64.Vec3{1.0, 1.0, 1.0}.Normalize()},
		{"near_zero_vector", mgl64.Vec3{1e-9, 1e-9, 1e-9}, mgl64.Vec3{0.0, 0.0, 1.0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := snapNormalToAxis(tt.input)

			if !vec3ApproxEqual(result, tt.expected, 1e-6) {
				t.Errorf("snapNormalToAxis(%v) = %v, want %v", tt.input, result, tt.expected)
			}
			if !isNormalized(result, 1e-6) {
				t.Errorf("result is not normalized: length = %v", result.Len())
			}
		})
	}
}

// =============================================================================
// Penetration
// =============================================================================

func TestEPA_Boxes(t *testing.T) {
	a := box(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 1, 1})
	b := box(mgl64.Vec3{1.5, 0, 0}, mgl64.Vec3{1, 1, 1})

	p := runEPA(t, a, b)

	if !vec3ApproxEqual(p.Normal, mgl64.Vec3{1, 0, 0}, 1e-3) {
		t.Errorf("normal = %v, want +X", p.Normal)
	}
	if math.Abs(p.Depth-0.5) > 2e-3 {
		t.Errorf("depth = %v, want 0.5", p.Depth)
	}
	if len(p.Points) != 4 {
		t.Errorf("expected a 4 point face contact, got %d", len(p.Points))
	}
	for _, pt := range p.Points {
		if pt.X() < 0.5-1e-3 || pt.X() > 1+1e-3 {
			t.Errorf("contact point %v outside the overlap slab", pt)
		}
	}
}

func TestEPA_Spheres(t *testing.T) {
	a := &prim.Sphere{Center: mgl64.Vec3{0, 0, 0}, R: 1}
	b := &prim.Sphere{Center: mgl64.Vec3{0, 1.5, 0}, R: 1}

	p := runEPA(t, a, b)

	if p.Normal.Y() < 0.95 {
		t.Errorf("normal = %v, want about +Y", p.Normal)
	}
	if math.Abs(p.Depth-0.5) > 0.05 {
		t.Errorf("depth = %v, want about 0.5", p.Depth)
	}
	if len(p.Points) != 1 {
		t.Errorf("sphere contact should have one point, got %d", len(p.Points))
	}
}

func TestHandleDegenerateSimplex(t *testing.T) {
	a := box(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 1, 1})
	b := box(mgl64.Vec3{0, 0, 2}, mgl64.Vec3{1, 1, 1})

	t.Run("single point uses centroids", func(t *testing.T) {
		p := handleDegenerateSimplex(a, b, &gjk.Simplex{Count: 1})
		if !vec3ApproxEqual(p.Normal, mgl64.Vec3{0, 0, 1}, 1e-9) {
			t.Errorf("normal = %v", p.Normal)
		}
		if p.Depth != DegeneratePenetrationEstimate {
			t.Errorf("depth = %v", p.Depth)
		}
	})

	t.Run("point at origin is skipped", func(t *testing.T) {
		simplex := &gjk.Simplex{Points: [4]mgl64.Vec3{{0, 0, 0}, {0, 0, 0.2}}, Count: 2}
		p := handleDegenerateSimplex(a, b, simplex)
		if !vec3ApproxEqual(p.Normal, mgl64.Vec3{0, 0, 1}, 1e-9) || math.Abs(p.Depth-0.2) > 1e-12 {
			t.Errorf("got normal %v depth %v", p.Normal, p.Depth)
		}
	})
}

func TestBuildInitialFacesRejectsSmallSimplex(t *testing.T) {
	b := &PolytopeBuilder{}
	if err := b.BuildInitialFaces(&gjk.Simplex{Count: 3}); err == nil {
		t.Error("expected an error for a 3 point simplex")
	}
}

func TestNewFaceOutward(t *testing.T) {
	face := newFaceOutward(
		mgl64.Vec3{-1, -1, 2}, mgl64.Vec3{1, -1, 2}, mgl64.Vec3{0, 1, 2},
		mgl64.Vec3{0, 0, 0},
	)

	if !vec3ApproxEqual(face.Normal, mgl64.Vec3{0, 0, 1}, 1e-9) {
		t.Errorf("normal = %v, want +Z", face.Normal)
	}
	if math.Abs(face.Distance-2) > 1e-9 {
		t.Errorf("distance = %v, want 2", face.Distance)
	}
}
