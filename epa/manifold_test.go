package epa

import (
	"math"
	"testing"

	"github.com/akmonengine/quill/prim"
	"github.com/go-gl/mathgl/mgl64"
)

// =============================================================================
// Contact features
// =============================================================================

func TestContactFeature(t *testing.T) {
	tests := []struct {
		name     string
		shape    prim.Convex
		dir      mgl64.Vec3
		expected int
	}{
		{"box face", box(mgl64.Vec3{}, mgl64.Vec3{1, 1, 1}), mgl64.Vec3{0, 0, 1}, 4},
		{"sphere point", &prim.Sphere{R: 1}, mgl64.Vec3{0, 0, 1}, 1},
		{"triangle face", &prim.Triangle{Pt: [3]mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}, N: mgl64.Vec3{0, 0, 1}}, mgl64.Vec3{0, 0, -1}, 3},
		{"triangle edge", &prim.Triangle{Pt: [3]mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}, N: mgl64.Vec3{0, 0, 1}}, mgl64.Vec3{1, 1, 0}, 2},
		{"triangle vertex", &prim.Triangle{Pt: [3]mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}, N: mgl64.Vec3{0, 0, 1}}, mgl64.Vec3{1, 0, 0}, 1},
		{"cylinder cap", &prim.Cylinder{Axis: mgl64.Vec3{0, 0, 1}, R: 1, HH: 1}, mgl64.Vec3{0, 0, 1}, 4},
		{"cylinder side", &prim.Cylinder{Axis: mgl64.Vec3{0, 0, 1}, R: 1, HH: 1}, mgl64.Vec3{1, 0, 0}, 2},
		{"ray broadside", &prim.Ray{Dir: mgl64.Vec3{2, 0, 0}}, mgl64.Vec3{0, 1, 0}, 2},
		{"ray end", &prim.Ray{Dir: mgl64.Vec3{2, 0, 0}}, mgl64.Vec3{1, 0, 0}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ContactFeature(tt.shape, tt.dir); len(got) != tt.expected {
				t.Errorf("got %d points %v, want %d", len(got), got, tt.expected)
			}
		})
	}
}

func TestBoxFaceIsOnTheRequestedSide(t *testing.T) {
	b := box(mgl64.Vec3{1, 2, 3}, mgl64.Vec3{1, 2, 3})
	for _, p := range boxFace(b, mgl64.Vec3{0, -1, 0}) {
		if math.Abs(p.Y()-0) > 1e-12 {
			t.Errorf("point %v should lie on y = 0", p)
		}
	}
}

// =============================================================================
// Clipping
// =============================================================================

func TestClipPolygonAgainstPlane(t *testing.T) {
	square := []mgl64.Vec3{{-1, -1, 0}, {1, -1, 0}, {1, 1, 0}, {-1, 1, 0}}

	tests := []struct {
		name     string
		point    mgl64.Vec3
		normal   mgl64.Vec3
		expected int
	}{
		{"fully inside", mgl64.Vec3{-2, 0, 0}, mgl64.Vec3{1, 0, 0}, 4},
		{"fully outside", mgl64.Vec3{2, 0, 0}, mgl64.Vec3{1, 0, 0}, 0},
		{"half", mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 0, 0}, 4},
		{"corner cut", mgl64.Vec3{0.5, 0.5, 0}, mgl64.Vec3{-1, -1, 0}.Normalize(), 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := clipPolygonAgainstPlane(square, tt.point, tt.normal)
			if len(got) != tt.expected {
				t.Errorf("got %d points %v, want %d", len(got), got, tt.expected)
			}
			for _, p := range got {
				if p.Sub(tt.point).Dot(tt.normal) < -1e-6 {
					t.Errorf("point %v on the wrong side", p)
				}
			}
		})
	}
}

func TestGenerateManifold_SmallBoxOnLargeBox(t *testing.T) {
	ground := box(mgl64.Vec3{0, 0, -1}, mgl64.Vec3{5, 5, 1})
	small := box(mgl64.Vec3{0, 0, 0.45}, mgl64.Vec3{0.5, 0.5, 0.5})

	points := GenerateManifold(ground, small, mgl64.Vec3{0, 0, 1})
	if len(points) != 4 {
		t.Fatalf("expected 4 points, got %d", len(points))
	}
	for _, p := range points {
		if math.Abs(p.X()) > 0.5+1e-9 || math.Abs(p.Y()) > 0.5+1e-9 {
			t.Errorf("point %v outside the small box footprint", p)
		}
	}
}

func TestClosestSegmentPoints(t *testing.T) {
	pa, pb := closestSegmentPoints(
		mgl64.Vec3{-1, 0, 0}, mgl64.Vec3{1, 0, 0},
		mgl64.Vec3{0, -1, 1}, mgl64.Vec3{0, 1, 1},
	)
	if !vec3ApproxEqual(pa, mgl64.Vec3{0, 0, 0}, 1e-12) || !vec3ApproxEqual(pb, mgl64.Vec3{0, 0, 1}, 1e-12) {
		t.Errorf("got %v %v", pa, pb)
	}
}

func TestReduceTo4Points(t *testing.T) {
	points := []mgl64.Vec3{{-1, -1, 0}, {1, -1, 0}, {1, 1, 0}, {-1, 1, 0}, {0, 0, 0}, {0.5, 0, 0}}
	got := reduceTo4Points(points, mgl64.Vec3{0, 0, 1})
	if len(got) > 4 || len(got) < 2 {
		t.Errorf("got %d points", len(got))
	}
	for _, p := range got {
		if p == (mgl64.Vec3{0, 0, 0}) {
			t.Errorf("interior point kept")
		}
	}
}
