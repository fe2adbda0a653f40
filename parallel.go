package mandel

import (
	"slices"

	"github.com/ajroetker/go-highway/hwy/contrib/workerpool"
)

// parallelBatch is the number of points a worker claims per atomic grab.
const parallelBatch = 256

// ParallelEvaluator materializes every point of the region and runs the escape
// predicate over them on a worker pool. Points are independent; each result slot
// is written by exactly one task. Results are delivered after all workers joined.
type ParallelEvaluator struct {
	// Pool is reused when set. Otherwise a pool of Workers goroutines lives for one call.
	Pool *workerpool.Pool
	// Workers defaults to GOMAXPROCS.
	Workers int
}

func (e ParallelEvaluator) Stream(r Region, sink func(EscapeResult)) error {
	if err := r.Validate(); err != nil {
		return err
	}
	points := slices.Collect(r.Points())
	if len(points) == 0 {
		return nil
	}

	pool := e.Pool
	if pool == nil {
		pool = workerpool.New(e.Workers)
		defer pool.Close()
	}

	results := make(ResultSet, len(points))
	pool.ParallelForAtomicBatched(len(points), parallelBatch, func(start, end int) {
		for i := start; i < end; i++ {
			results[i] = escapeResult(points[i], r.MaxIterations)
		}
	})

	for _, res := range results {
		sink(res)
	}
	return nil
}

var _ Evaluator = ParallelEvaluator{}
