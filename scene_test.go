package quill

import (
	"math"
	"testing"

	"github.com/akmonengine/quill/geometry"
	"github.com/akmonengine/quill/prim"
	"github.com/go-gl/mathgl/mgl64"
)

func TestScene_StepEvents(t *testing.T) {
	scene := NewScene(2, 64)
	scene.Workers = 2
	capture := &eventCapture{}
	for _, et := range []EventType{CONTACT_ENTER, CONTACT_STAY, CONTACT_EXIT} {
		scene.Tracker.Subscribe(et, capture.capture)
	}

	ground := scene.Add(flatTerrain(8), prim.NewTransform())
	crate := scene.Add(newBox(0.5), at(3, 3, 0.3))
	scene.Add(newBox(0.5), at(20, 20, 20))

	tests := []struct {
		name     string
		height   float64
		jobs     int
		expected []EventType
	}{
		{"resting", 0.3, 1, []EventType{CONTACT_ENTER}},
		{"still resting", 0.35, 1, []EventType{CONTACT_STAY}},
		{"lifted", 3, 0, []EventType{CONTACT_EXIT}},
		{"still lifted", 3, 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			capture.reset()
			crate.Transform = at(3, 3, tt.height)

			jobs := scene.Step()
			if len(jobs) != tt.jobs {
				t.Fatalf("got %d jobs, want %d", len(jobs), tt.jobs)
			}
			if capture.count() != len(tt.expected) {
				t.Fatalf("got %d events, want %d", capture.count(), len(tt.expected))
			}
			for i, et := range tt.expected {
				event := capture.events[i]
				if event.Type != et {
					t.Errorf("event %d = %v, want %v", i, event.Type, et)
				}
				if !(event.A == ground.Geometry.ID() && event.B == crate.Geometry.ID()) &&
					!(event.B == ground.Geometry.ID() && event.A == crate.Geometry.ID()) {
					t.Errorf("event %d is not about the crate and the ground", i)
				}
			}
		})
	}
}

func TestScene_SweepWidensBroadPhase(t *testing.T) {
	scene := NewScene(2, 64)
	scene.Add(flatTerrain(8), prim.NewTransform())
	crate := scene.Add(newBox(0.5), at(3, 3, 3))

	if jobs := scene.Step(); len(jobs) != 0 {
		t.Fatalf("got %d jobs without sweep, want 0", len(jobs))
	}

	crate.Sweep = mgl64.Vec3{0, 0, -3}
	if jobs := scene.Step(); len(jobs) != 1 {
		t.Fatalf("got %d jobs with sweep, want 1", len(jobs))
	}
}

func TestScene_Remove(t *testing.T) {
	scene := NewScene(2, 64)
	ground := scene.Add(flatTerrain(8), prim.NewTransform())
	crate := scene.Add(newBox(0.5), at(3, 3, 0.3))
	scene.Step()

	if !scene.Tracker.Active(ground.Geometry.ID(), crate.Geometry.ID()) {
		t.Fatal("pair should be active after the first step")
	}

	capture := &eventCapture{}
	scene.Tracker.Subscribe(CONTACT_EXIT, capture.capture)
	scene.Remove(crate)
	scene.Step()

	if len(scene.Entries) != 1 {
		t.Errorf("got %d entries, want 1", len(scene.Entries))
	}
	if capture.count() != 0 {
		t.Error("removed entry should not emit an exit event")
	}
}

func TestScene_RayCast(t *testing.T) {
	scene := NewScene(2, 64)
	ground := scene.Add(flatTerrain(8), prim.NewTransform())
	crate := scene.Add(newBox(0.5), at(3, 3, 1))

	tests := []struct {
		name     string
		origin   mgl64.Vec3
		expected *Entry
		t        float64
	}{
		{"hits crate first", mgl64.Vec3{3, 3, 10}, crate, 8.5},
		{"hits ground", mgl64.Vec3{6, 6, 10}, ground, 10},
		{"off the scene", mgl64.Vec3{-5, -5, 10}, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, hit, ok := scene.RayCast(tt.origin, mgl64.Vec3{0, 0, -20})
			if ok != (tt.expected != nil) || hit != tt.expected {
				t.Fatalf("hit = %v, ok = %v", hit, ok)
			}
			if ok && math.Abs(c.T-tt.t) > 1e-9 {
				t.Errorf("T = %v, want %v", c.T, tt.t)
			}
		})
	}
}

func TestScene_RayEntriesSkipEachOther(t *testing.T) {
	scene := NewScene(2, 64)
	scene.Add(geometry.NewRay(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 0, 0}), prim.NewTransform())
	scene.Add(geometry.NewRay(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 1, 0}), prim.NewTransform())

	if jobs := scene.Step(); len(jobs) != 0 {
		t.Errorf("got %d jobs between rays, want 0", len(jobs))
	}
}
