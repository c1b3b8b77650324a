package quill

import (
	"github.com/akmonengine/quill/contact"
	"github.com/akmonengine/quill/geometry"
	"github.com/akmonengine/quill/prim"
	"github.com/go-gl/mathgl/mgl64"
)

// Entry is a geometry placed in a scene
type Entry struct {
	Geometry  geometry.Geometry
	Transform prim.Transform
	// Sweep is the world displacement of the entry over the next step
	Sweep mgl64.Vec3
}

// bounds returns the world AABB of the entry, grown to cover its sweep
func (e *Entry) bounds() prim.AABB {
	b := e.Geometry.ComputeAABB(e.Transform)
	moved := prim.AABB{Min: b.Min.Add(e.Sweep), Max: b.Max.Add(e.Sweep)}
	return b.Union(moved)
}

// Scene runs the intersection tests between every pair of entries whose bounds touch
type Scene struct {
	Entries     []*Entry
	SpatialGrid *SpatialGrid
	Workers     int
	Params      Params

	Driver  *Driver
	Tracker Tracker

	bounds []prim.AABB
	jobs   []*Job
}

func NewScene(cellSize float64, numCells int) *Scene {
	return &Scene{
		SpatialGrid: NewSpatialGrid(cellSize, numCells),
		Driver:      NewDriver(),
		Tracker:     NewTracker(),
	}
}

// Add places a geometry in the scene
func (s *Scene) Add(g geometry.Geometry, t prim.Transform) *Entry {
	e := &Entry{Geometry: g, Transform: t}
	s.Entries = append(s.Entries, e)
	return e
}

// Remove removes an entry from the scene. Its pairs are forgotten without exit events.
func (s *Scene) Remove(entry *Entry) {
	k := -1
	for i, e := range s.Entries {
		if e == entry {
			k = i
			break
		}
	}

	if k != -1 {
		s.Entries = append(s.Entries[:k], s.Entries[k+1:]...)
	}
	s.Tracker.Forget(entry.Geometry.ID())
}

// Step tests every candidate pair, records the contacts and flushes the events. It
// returns the jobs of the step, valid until the next call.
func (s *Scene) Step() []*Job {
	s.Workers = max(DEFAULT_WORKERS, s.Workers)

	// Phase 1: Broad phase
	s.bounds = s.bounds[:0]
	for _, e := range s.Entries {
		s.bounds = append(s.bounds, e.bounds())
	}
	s.SpatialGrid.Build(s.bounds)

	n := 0
	for pair := range s.SpatialGrid.FindPairsParallel(s.bounds, s.Workers) {
		a, b := s.Entries[pair.A], s.Entries[pair.B]
		if a.Geometry.Kind() == geometry.KindRay && b.Geometry.Kind() == geometry.KindRay {
			continue
		}

		if n == len(s.jobs) {
			s.jobs = append(s.jobs, &Job{})
		}
		job := s.jobs[n]
		job.A, job.B = a.Geometry, b.Geometry
		job.TA, job.TB = a.Transform, b.Transform
		job.Params = s.Params
		job.Params.SweepA, job.Params.SweepB = a.Sweep, b.Sweep
		n++
	}
	jobs := s.jobs[:n]

	// Phase 2: Narrow phase
	batch := Batch{Driver: s.Driver, Workers: s.Workers}
	batch.Run(jobs)

	// Phase 3: Events
	for _, job := range jobs {
		s.Tracker.Record(job.A.ID(), job.B.ID(), job.Contacts)
	}
	s.Tracker.flush()

	return jobs
}

// RayCast returns the nearest contact of the segment origin..origin+dir with the
// entries of the scene. It uses the scratch slot of caller 0 and must not run during
// Step.
func (s *Scene) RayCast(origin, dir mgl64.Vec3) (contact.Contact, *Entry, bool) {
	ray := geometry.NewRay(origin, dir)
	identity := prim.NewTransform()
	rayBounds := ray.ComputeAABB(identity)

	params := s.Params
	params.MaxContacts = 0
	params.StopAtFirst = false

	var (
		best    contact.Contact
		hit     *Entry
		scratch []contact.Contact
	)
	for _, e := range s.Entries {
		if e.Geometry.Kind() == geometry.KindRay || !rayBounds.Overlaps(e.Geometry.ComputeAABB(e.Transform)) {
			continue
		}

		scratch = s.Driver.Intersect(0, ray, e.Geometry, identity, e.Transform, params, scratch[:0])
		for _, c := range scratch {
			if hit == nil || c.T < best.T {
				best, hit = c, e
			}
		}
	}

	return best, hit, hit != nil
}
