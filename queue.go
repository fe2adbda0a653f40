package mandel

import (
	"iter"
	"slices"
	"sync"
)

// pointSource hands out points one at a time until it runs dry.
type pointSource interface {
	Pop() (Point, bool)
}

// pullSource drains a point sequence for a single owner.
type pullSource struct {
	next    func() (Point, bool)
	stop    func()
	drained bool
}

func newPullSource(points iter.Seq[Point]) *pullSource {
	next, stop := iter.Pull(points)
	return &pullSource{next: next, stop: stop}
}

func (s *pullSource) Pop() (Point, bool) {
	if s.drained {
		return Point{}, false
	}
	p, ok := s.next()
	if !ok {
		s.drained = true
		s.stop()
	}
	return p, ok
}

func (s *pullSource) Close() {
	s.drained = true
	s.stop()
}

// PointQueue is a point sequence shared between goroutines.
// Every point is handed to exactly one caller of Pop; the lock covers a single pop.
type PointQueue struct {
	m   sync.Mutex
	src *pullSource
}

// NewPointQueue wraps points. Close releases the sequence if it is not drained.
func NewPointQueue(points iter.Seq[Point]) *PointQueue {
	return &PointQueue{src: newPullSource(points)}
}

// Pop returns the next point, or false once the sequence is exhausted.
func (q *PointQueue) Pop() (Point, bool) {
	q.m.Lock()
	defer q.m.Unlock()
	return q.src.Pop()
}

func (q *PointQueue) Close() {
	q.m.Lock()
	defer q.m.Unlock()
	q.src.Close()
}

// collector fans the bursts of concurrent kernels in to the goroutine that
// drains it. Kernels only block on push while that goroutine is behind.
type collector struct {
	ch chan []EscapeResult
}

func newCollector(kernels int) *collector {
	return &collector{ch: make(chan []EscapeResult, kernels)}
}

// push hands over a copy of one burst's results.
func (c *collector) push(done []EscapeResult) {
	c.ch <- slices.Clone(done)
}

// close ends drain once every pushed burst is delivered.
func (c *collector) close() {
	close(c.ch)
}

// drain passes every pushed result to sink on the calling goroutine.
func (c *collector) drain(sink func(EscapeResult)) {
	for done := range c.ch {
		for _, res := range done {
			sink(res)
		}
	}
}
