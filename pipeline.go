package quill

import (
	"sync"

	"github.com/akmonengine/quill/contact"
	"github.com/akmonengine/quill/geometry"
	"github.com/akmonengine/quill/prim"
	"github.com/akmonengine/quill/scratch"
)

const DEFAULT_WORKERS = 1

// task splits data in contiguous chunks, one per worker. fn receives the worker index,
// which callers use as their scratch slot.
func task[T any](workersCount int, data []T, fn func(worker int, data T)) {
	var wg sync.WaitGroup
	dataSize := len(data)
	chunkSize := (dataSize + workersCount - 1) / workersCount

	for workerID := 0; workerID < workersCount; workerID++ {
		wg.Add(1)
		go func(worker, start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				fn(worker, data[i])
			}
		}(workerID, workerID*chunkSize, min((workerID+1)*chunkSize, dataSize))
	}
	wg.Wait()
}

// Job is one intersection test of a batch. Contacts is filled by Batch.Run and reused
// between runs.
type Job struct {
	A, B   geometry.Geometry
	TA, TB prim.Transform
	Params Params

	Contacts []contact.Contact
}

// Batch runs jobs over a fixed set of workers. Worker w owns caller slot w for the
// whole run, so no two goroutines ever share scratch space.
type Batch struct {
	Driver  *Driver
	Workers int
}

// workers clamps the worker count to the available caller slots
func (b *Batch) workers() int {
	return min(max(DEFAULT_WORKERS, b.Workers), scratch.MaxCallers)
}

func (b *Batch) Run(jobs []*Job) {
	task(b.workers(), jobs, func(worker int, job *Job) {
		job.Contacts = b.Driver.Intersect(worker, job.A, job.B, job.TA, job.TB, job.Params, job.Contacts[:0])
	})
}
