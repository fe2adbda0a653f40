package mandel

import (
	"github.com/ajroetker/go-highway/hwy"
)

// Lanes is the number of points a vector kernel iterates side by side.
const Lanes = 8

// DefaultBurst is the number of vector steps between two lane refills.
// Longer bursts amortize the refill bookkeeping, shorter ones leave finished
// lanes idle for less time. It is unrelated to a region's MaxIterations.
const DefaultBurst = 50

type laneState uint8

const (
	laneEmpty laneState = iota
	laneActive
	laneDone
)

// laneKernel is the lane state of one vector evaluator. Lane i of every array
// belongs to the point in point[i]; empty lanes carry limit 0 and never advance.
type laneKernel struct {
	burst int
	max   float64

	point [Lanes]Point
	state [Lanes]laneState

	cRe, cIm [Lanes]float64
	zRe, zIm [Lanes]float64
	count    [Lanes]float64
	limit    [Lanes]float64

	// registers hold the lane arrays in chunks of width lanes during a burst
	width, chunks int
	cr, ci        []hwy.Vec[float64]
	zr, zi        []hwy.Vec[float64]
	cnt, lim      []hwy.Vec[float64]

	done []EscapeResult
}

func newLaneKernel(burst int, maxIterations uint64) *laneKernel {
	if burst <= 0 {
		burst = DefaultBurst
	}
	width := min(max(hwy.MaxLanes[float64](), 1), Lanes)
	chunks := (Lanes + width - 1) / width
	return &laneKernel{
		burst:  burst,
		max:    float64(maxIterations),
		width:  width,
		chunks: chunks,
		cr:     make([]hwy.Vec[float64], chunks),
		ci:     make([]hwy.Vec[float64], chunks),
		zr:     make([]hwy.Vec[float64], chunks),
		zi:     make([]hwy.Vec[float64], chunks),
		cnt:    make([]hwy.Vec[float64], chunks),
		lim:    make([]hwy.Vec[float64], chunks),
		done:   make([]EscapeResult, 0, Lanes),
	}
}

// run evaluates points from src until it is exhausted and every lane is empty.
// emit receives the lanes retired by each burst; the slice is reused afterwards.
func (k *laneKernel) run(src pointSource, emit func([]EscapeResult)) {
	drained := false
	for {
		if !drained {
			drained = !k.refill(src)
		}
		if !k.busy() {
			return
		}
		k.step()
		if done := k.retire(); len(done) > 0 {
			emit(done)
		}
	}
}

// refill loads a fresh point into every empty lane.
// It returns false once src has no more points.
func (k *laneKernel) refill(src pointSource) bool {
	for i := range Lanes {
		if k.state[i] != laneEmpty {
			continue
		}
		p, ok := src.Pop()
		if !ok {
			return false
		}
		k.point[i] = p
		k.cRe[i], k.cIm[i] = p.Re, p.Im
		k.zRe[i], k.zIm[i] = 0, 0
		k.count[i] = 0
		k.limit[i] = k.max
		k.state[i] = laneActive
	}
	return true
}

func (k *laneKernel) busy() bool {
	for _, s := range k.state {
		if s == laneActive {
			return true
		}
	}
	return false
}

// step runs one burst of up to k.burst iterations across all lanes.
// A lane advances while |z|² ≤ 4 and its count is below its limit; the others
// keep their z and count. The burst ends early once no lane advances.
func (k *laneKernel) step() {
	width, chunks := k.width, k.chunks
	cr, ci, zr, zi, cnt, lim := k.cr, k.ci, k.zr, k.zi, k.cnt, k.lim
	for c := range chunks {
		off := c * width
		cr[c], ci[c] = hwy.Load(k.cRe[off:]), hwy.Load(k.cIm[off:])
		zr[c], zi[c] = hwy.Load(k.zRe[off:]), hwy.Load(k.zIm[off:])
		cnt[c] = hwy.Load(k.count[off:])
		lim[c] = hwy.Load(k.limit[off:])
	}

	four := hwy.Set[float64](4)
	one := hwy.Set[float64](1)
	for range k.burst {
		live := false
		for c := range chunks {
			zr2 := hwy.Mul(zr[c], zr[c])
			zi2 := hwy.Mul(zi[c], zi[c])
			inside := hwy.MaskAnd(
				hwy.LessEqual(hwy.Add(zr2, zi2), four),
				hwy.LessThan(cnt[c], lim[c]),
			)
			if !inside.AnyTrue() {
				continue
			}
			live = true

			t := hwy.Mul(zr[c], zi[c])
			zi[c] = hwy.IfThenElse(inside, hwy.Add(hwy.Add(t, t), ci[c]), zi[c])
			zr[c] = hwy.IfThenElse(inside, hwy.Add(hwy.Sub(zr2, zi2), cr[c]), zr[c])
			cnt[c] = hwy.Add(cnt[c], hwy.IfThenElseZero(inside, one))
		}
		if !live {
			break
		}
	}

	for c := range chunks {
		off := c * width
		hwy.Store(zr[c], k.zRe[off:])
		hwy.Store(zi[c], k.zIm[off:])
		hwy.Store(cnt[c], k.count[off:])
	}
}

// retire collects every lane that escaped or hit its limit and frees it for refill.
func (k *laneKernel) retire() []EscapeResult {
	k.done = k.done[:0]
	for i := range Lanes {
		if k.state[i] != laneActive {
			continue
		}
		if k.count[i] >= k.limit[i] || escaped(k.zRe[i], k.zIm[i]) {
			k.state[i] = laneDone
		}
	}
	for i := range Lanes {
		if k.state[i] != laneDone {
			continue
		}
		k.done = append(k.done, EscapeResult{
			Point:      k.point[i],
			Iterations: uint64(k.count[i]),
			Orbit:      complex(k.zRe[i], k.zIm[i]),
		})
		k.state[i] = laneEmpty
		k.limit[i] = 0
		k.count[i] = 0
	}
	return k.done
}

// VectorEvaluator runs one lane kernel on the calling goroutine. Finished lanes
// are refilled from the point sequence without waiting for the other lanes.
type VectorEvaluator struct {
	// Burst defaults to DefaultBurst.
	Burst int
}

func (e VectorEvaluator) Stream(r Region, sink func(EscapeResult)) error {
	if err := r.Validate(); err != nil {
		return err
	}
	src := newPullSource(r.Points())
	defer src.Close()

	newLaneKernel(e.Burst, r.MaxIterations).run(src, func(done []EscapeResult) {
		for _, res := range done {
			sink(res)
		}
	})
	return nil
}

var _ Evaluator = VectorEvaluator{}
