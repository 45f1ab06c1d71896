package oit

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-passes/common"
)

// accumulateBatchSize is the number of fragments handed to one worker task.
const accumulateBatchSize = 2048

// Fragment is a translucent fragment produced by the geometry pass.
type Fragment struct {
	X, Y  int
	Color common.Color
	Depth float32
}

// DepthReader is a read-only view of the opaque depth target.
type DepthReader interface {
	// Depth returns the stored depth at the pixel, 1.0 where nothing opaque was drawn.
	Depth(x, y int) float32
}

// PassStats summarizes one accumulation pass.
type PassStats struct {
	Submitted     int
	DepthRejected int
	Inserted      int
	Dropped       int
	Elapsed       time.Duration
}

// AccumulatePass runs the accumulation half of the OIT protocol over a
// fragment stream. Each fragment is depth-tested against the opaque target
// (fragments at or behind opaque geometry are discarded) and the survivors
// are inserted concurrently. The caller must Reset the accumulator first.
//
// With a nil pool the pass runs on the calling goroutine. Otherwise batches
// are submitted to the pool and the call blocks on a WaitGroup barrier so the
// resolve pass observes every write.
//
// Parameters:
//   - acc: the accumulator to write into
//   - frags: fragments in submission order
//   - opaque: read-only opaque depth view, or nil to skip the depth test
//   - pool: worker pool for parallel insertion, or nil
//
// Returns:
//   - PassStats: counts for the pass
func AccumulatePass(acc Accumulator, frags []Fragment, opaque DepthReader, pool worker.DynamicWorkerPool) PassStats {
	start := time.Now()
	var rejected, inserted, dropped atomic.Int64

	run := func(batch []Fragment) {
		var r, in, d int64
		for _, f := range batch {
			if opaque != nil && f.Depth >= opaque.Depth(f.X, f.Y) {
				r++
				continue
			}
			if acc.Insert(f.X, f.Y, f.Color, f.Depth) {
				in++
			} else {
				d++
			}
		}
		rejected.Add(r)
		inserted.Add(in)
		dropped.Add(d)
	}

	if pool == nil {
		run(frags)
	} else {
		var wg sync.WaitGroup
		taskID := 0
		for lo := 0; lo < len(frags); lo += accumulateBatchSize {
			batch := frags[lo:min(lo+accumulateBatchSize, len(frags))]
			wg.Add(1)
			id := taskID
			taskID++
			pool.SubmitTask(worker.Task{
				ID: id,
				Do: func() (any, error) {
					defer wg.Done()
					run(batch)
					return nil, nil
				},
			})
		}
		wg.Wait()
	}

	stats := PassStats{
		Submitted:     len(frags),
		DepthRejected: int(rejected.Load()),
		Inserted:      int(inserted.Load()),
		Dropped:       int(dropped.Load()),
		Elapsed:       time.Since(start),
	}
	if stats.Dropped > 0 {
		common.Logger().Warn("oit: node arena overflow, fragments dropped",
			"dropped", stats.Dropped, "capacity", acc.Capacity())
	}
	return stats
}
