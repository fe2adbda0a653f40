package mandel

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// VectorParallelEvaluator runs Workers lane kernels that pull from one shared
// PointQueue and hand their retired lanes to one collector. No lock is held
// during a burst or while sink runs; sink is called on the caller's goroutine.
// A kernel stops once the queue is empty and its own lanes are idle.
type VectorParallelEvaluator struct {
	// Workers defaults to GOMAXPROCS.
	Workers int
	// Burst defaults to DefaultBurst.
	Burst int
}

func (e VectorParallelEvaluator) Stream(r Region, sink func(EscapeResult)) error {
	if err := r.Validate(); err != nil {
		return err
	}
	workers := e.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	// more kernels than points would only spin up idle lanes
	workers = max(min(workers, (r.Len()+Lanes-1)/Lanes), 1)

	queue := NewPointQueue(r.Points())
	defer queue.Close()
	out := newCollector(workers)

	var g errgroup.Group
	for range workers {
		g.Go(func() error {
			newLaneKernel(e.Burst, r.MaxIterations).run(queue, out.push)
			return nil
		})
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- g.Wait()
		out.close()
	}()

	out.drain(sink)
	return <-errCh
}

var _ Evaluator = VectorParallelEvaluator{}
