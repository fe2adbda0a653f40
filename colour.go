package mandel

import (
	"fmt"
	"math"
	"slices"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/samber/lo"
)

// SmoothLogScale multiplies the smoothed escape value before it indexes a palette.
const SmoothLogScale = 256

// RGB is an 8-bit colour.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// Black colours every point that never escaped.
var Black = RGB{}

// Palette is an ordered list of colours. It is never modified once built.
type Palette []RGB

// Pixel places a colour on the image grid.
type Pixel struct {
	X uint64 `json:"x"`
	Y uint64 `json:"y"`
	RGB
}

// Policy is a colour mapping. It is either a BarrierPolicy or a StreamingPolicy.
type Policy interface {
	Name() string
	policy()
}

// BarrierPolicy needs every result of a region before it can colour any of them.
type BarrierPolicy interface {
	Policy
	ColourAll(r Region, results ResultSet) []RGB
}

// StreamingPolicy colours each result on its own, as soon as it is available.
type StreamingPolicy interface {
	Policy
	ColourOf(r Region, res EscapeResult) RGB
}

// Histogram colours escaping points by their rank among all escape times of the
// region: the hue is the share of escaping points that left strictly earlier.
type Histogram struct{}

func (Histogram) Name() string { return "histogram" }
func (Histogram) policy()      {}

func (Histogram) ColourAll(r Region, results ResultSet) []RGB {
	// only counts that occur are bucketed, MaxIterations may be far larger than the region
	buckets := make(map[uint64]uint64)
	for _, res := range results {
		if res.Iterations < r.MaxIterations {
			buckets[res.Iterations]++
		}
	}
	total := float64(lo.Sum(lo.Values(buckets)))

	// prefix[n] is the share of escaping points with fewer than n iterations
	counts := lo.Keys(buckets)
	slices.Sort(counts)
	prefix := make(map[uint64]float64, len(counts))
	var acc uint64
	for _, n := range counts {
		prefix[n] = float64(acc) / total
		acc += buckets[n]
	}

	colours := make([]RGB, len(results))
	for i, res := range results {
		if res.Iterations >= r.MaxIterations {
			colours[i] = Black
			continue
		}
		cr, cg, cb := colorful.Hsl(prefix[res.Iterations]*360, 1, 0.5).RGB255()
		colours[i] = RGB{R: cr, G: cg, B: cb}
	}
	return colours
}

// SmoothLog picks a palette entry from the escape count and the magnitude of the
// final orbit value.
type SmoothLog struct {
	palette Palette
}

// NewSmoothLog fails when the palette is empty.
func NewSmoothLog(p Palette) (*SmoothLog, error) {
	if len(p) == 0 {
		return nil, fmt.Errorf("smooth log: empty palette: %w", ErrInvalidParameter)
	}
	return &SmoothLog{palette: slices.Clone(p)}, nil
}

func (*SmoothLog) Name() string { return "smooth" }
func (*SmoothLog) policy()      {}

// Index returns the palette entry used for an escaping result.
func (s *SmoothLog) Index(res EscapeResult) int {
	smoothed := math.Log2(math.Hypot(real(res.Orbit), imag(res.Orbit)))
	v := math.Sqrt(max(float64(res.Iterations)+10-smoothed, 0)) * SmoothLogScale
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return int(uint64(math.Round(v)) % uint64(len(s.palette)))
}

func (s *SmoothLog) ColourOf(r Region, res EscapeResult) RGB {
	if res.Iterations >= r.MaxIterations {
		return Black
	}
	return s.palette[s.Index(res)]
}

// ParsePolicy returns the policy called name. The palette is used by the smooth policy only.
func ParsePolicy(name string, p Palette) (Policy, error) {
	switch name {
	case "histogram":
		return Histogram{}, nil
	case "smooth":
		s, err := NewSmoothLog(p)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown colour policy %q: %w", name, ErrInvalidParameter)
}

// Colour maps every result to a pixel. Pixel coordinates are recovered from each
// result's point, not from its position in results.
func Colour(r Region, results ResultSet, p Policy) ([]Pixel, error) {
	pixels := make([]Pixel, len(results))
	switch p := p.(type) {
	case BarrierPolicy:
		for i, c := range p.ColourAll(r, results) {
			pixels[i] = pixelAt(r, results[i].Point, c)
		}
	case StreamingPolicy:
		for i, res := range results {
			pixels[i] = pixelAt(r, res.Point, p.ColourOf(r, res))
		}
	default:
		return nil, fmt.Errorf("colour: unsupported policy %T: %w", p, ErrInvalidParameter)
	}
	return pixels, nil
}

// ColourStream returns a result sink that colours each result with p and passes
// the pixel on to sink.
func ColourStream(r Region, p StreamingPolicy, sink func(Pixel)) func(EscapeResult) {
	return func(res EscapeResult) {
		sink(pixelAt(r, res.Point, p.ColourOf(r, res)))
	}
}

func pixelAt(r Region, p Point, c RGB) Pixel {
	x, y := r.PixelOf(p)
	return Pixel{X: x, Y: y, RGB: c}
}
