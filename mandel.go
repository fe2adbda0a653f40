package mandel

import (
	"fmt"
	"iter"
	"math"
)

// MaxIterationsLimit is the largest iteration cap a Region accepts.
// Counters run as float64 lanes in the vector kernel and stay exact up to 2^53.
const MaxIterationsLimit = 1 << 53

// MinResolution is the smallest plane distance between two neighbouring pixels.
// Below it neighbouring float64 coordinates collapse and the image shows banding.
const MinResolution = 0x1p-53

// Point is a coordinate in the complex plane
type Point struct {
	Re float64 `json:"re"`
	Im float64 `json:"im"`
}

// Region within the Mandelbrot set, sampled on a Width × Height grid
type Region struct {
	ReMin float64 `json:"re_min"`
	ReMax float64 `json:"re_max"`
	ImMin float64 `json:"im_min"`
	ImMax float64 `json:"im_max"`

	Width         int    `json:"width"`
	Height        int    `json:"height"`
	MaxIterations uint64 `json:"max_iterations"`
}

// Validate reports whether the region describes a usable sampling grid.
// A zero Width or Height is valid and samples no points.
func (r Region) Validate() error {
	for _, v := range []float64{r.ReMin, r.ReMax, r.ImMin, r.ImMax} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("region: bound %g is not finite: %w", v, ErrInvalidParameter)
		}
	}
	if !(r.ReMax > r.ReMin) {
		return fmt.Errorf("region: real range [%g, %g] is empty: %w", r.ReMin, r.ReMax, ErrInvalidParameter)
	}
	if !(r.ImMax > r.ImMin) {
		return fmt.Errorf("region: imaginary range [%g, %g] is empty: %w", r.ImMin, r.ImMax, ErrInvalidParameter)
	}
	if math.IsInf(r.ReMax-r.ReMin, 0) || math.IsInf(r.ImMax-r.ImMin, 0) {
		return fmt.Errorf("region: span of [%g, %g] x [%g, %g] overflows: %w", r.ReMin, r.ReMax, r.ImMin, r.ImMax, ErrInvalidParameter)
	}
	if r.Width < 0 || r.Height < 0 {
		return fmt.Errorf("region: negative dimensions %dx%d: %w", r.Width, r.Height, ErrInvalidParameter)
	}
	if _, ok := r.checkedLen(); !ok {
		return fmt.Errorf("region: %dx%d points overflow int: %w", r.Width, r.Height, ErrInvalidParameter)
	}
	if r.MaxIterations > MaxIterationsLimit {
		return fmt.Errorf("region: max iterations %d above %d: %w", r.MaxIterations, uint64(MaxIterationsLimit), ErrInvalidParameter)
	}
	return nil
}

// Len returns the number of points the region samples, or -1 when the
// dimensions are negative or their product overflows int.
func (r Region) Len() int {
	n, ok := r.checkedLen()
	if !ok {
		return -1
	}
	return n
}

func (r Region) checkedLen() (int, bool) {
	if r.Width < 0 || r.Height < 0 {
		return 0, false
	}
	if r.Height != 0 && r.Width > math.MaxInt/r.Height {
		return 0, false
	}
	return r.Width * r.Height, true
}

func (r Region) reStep() float64 {
	return (r.ReMax - r.ReMin) / float64(r.Width)
}

func (r Region) imStep() float64 {
	return (r.ImMax - r.ImMin) / float64(r.Height)
}

// PointAt returns the k-th point of Points.
func (r Region) PointAt(k int) Point {
	i, j := k%r.Width, k/r.Width
	return Point{
		Re: float64(r.reStep()*float64(i)) + r.ReMin,
		Im: float64(r.imStep()*float64(j)) + r.ImMin,
	}
}

// Points enumerates the grid in row-major order: rows of constant Im, x varying fastest.
// Coordinates match PointAt bit for bit: each product is rounded before the add.
// Every range over the returned sequence starts again at the first pixel.
func (r Region) Points() iter.Seq[Point] {
	return func(yield func(Point) bool) {
		if r.Width <= 0 || r.Height <= 0 {
			return
		}
		reStep, imStep := r.reStep(), r.imStep()
		for j := 0; j < r.Height; j++ {
			im := float64(imStep*float64(j)) + r.ImMin
			for i := 0; i < r.Width; i++ {
				if !yield(Point{Re: float64(reStep*float64(i)) + r.ReMin, Im: im}) {
					return
				}
			}
		}
	}
}

// PixelOf maps a point back onto the grid by inverting the sampling formula and
// rounding to the nearest cell.
func (r Region) PixelOf(p Point) (x, y uint64) {
	fx := math.Round((p.Re - r.ReMin) / r.reStep())
	fy := math.Round((p.Im - r.ImMin) / r.imStep())
	return uint64(max(fx, 0)), uint64(max(fy, 0))
}

// Centre returns the point in the middle of the region.
func (r Region) Centre() Point {
	return Point{Re: (r.ReMin + r.ReMax) / 2, Im: (r.ImMin + r.ImMax) / 2}
}

// Resolution returns the plane width covered by one pixel.
func (r Region) Resolution() float64 {
	return r.reStep()
}

// FromCentre builds a region of width × height pixels around centre, each pixel
// covering resolution units of the plane.
func FromCentre(centre Point, resolution float64, width, height int, maxIterations uint64) (Region, error) {
	if !(resolution > 0) || math.IsInf(resolution, 0) {
		return Region{}, fmt.Errorf("from centre: resolution %g: %w", resolution, ErrInvalidParameter)
	}
	resolution = max(resolution, MinResolution)

	halfW := float64(width) * resolution / 2
	halfH := float64(height) * resolution / 2
	r := Region{
		ReMin:         centre.Re - halfW,
		ReMax:         centre.Re + halfW,
		ImMin:         centre.Im - halfH,
		ImMax:         centre.Im + halfH,
		Width:         width,
		Height:        height,
		MaxIterations: maxIterations,
	}
	if err := r.Validate(); err != nil {
		return Region{}, fmt.Errorf("from centre: %w", err)
	}
	return r, nil
}

// Zoom recentres the region on pixel (x, y) and multiplies the resolution by factor.
// A factor of 0.5 zooms in one step, 2 zooms out one step.
func (r Region) Zoom(x, y, factor float64) (Region, error) {
	res := r.Resolution()
	imRes := r.imStep()
	centre := r.Centre()
	centre.Re += (x - float64(r.Width)/2) * res
	centre.Im += (y - float64(r.Height)/2) * imRes

	z, err := FromCentre(centre, res*factor, r.Width, r.Height, r.MaxIterations)
	if err != nil {
		return Region{}, fmt.Errorf("zoom: %w", err)
	}
	return z, nil
}

// Overview shows the whole set.
var Overview = Region{
	ReMin:         -2.0,
	ReMax:         1.5,
	ImMin:         -1.2,
	ImMax:         1.2,
	Width:         700,
	Height:        480,
	MaxIterations: 255,
}

// landmark sizes a classic region for a full-HD render.
func landmark(reMin, reMax, imMin, imMax float64) Region {
	return Region{
		ReMin:         reMin,
		ReMax:         reMax,
		ImMin:         imMin,
		ImMax:         imMax,
		Width:         1920,
		Height:        1080,
		MaxIterations: 1000,
	}
}

// Classic regions / landmarks in the Mandelbrot set
var (
	// Seahorse Valley – dense filaments and repeating “seahorse” curls
	SeahorseValley = landmark(-0.8, -0.7, 0.05, 0.15)

	// Elephant Valley – large bulb with trunk-like tendrils
	ElephantValley = landmark(-1.85, -1.75, -0.10, -0.02)

	// Spiral Minibrot – small Mandelbrot copy with tight spiral arms
	SpiralMinibrot = landmark(-0.7435, -0.7420, 0.1310, 0.1325)

	// Triple Spiral – threefold symmetric spiral structure
	TripleSpiral = landmark(-0.7480, -0.7450, 0.0950, 0.0980)

	// Valley of the Dragon – deep, highly detailed spiral filaments
	ValleyOfTheDragon = landmark(-0.7400, -0.7350, 0.1800, 0.1850)

	// Minibrot in a Mini-Spiral – self-similar Mandelbrot copy inside a spiral arm
	MinibrotInMiniSpiral = landmark(-1.7390, -1.7375, -0.0235, -0.0220)
)

// Landmarks indexes the preset regions by name.
var Landmarks = map[string]Region{
	"overview":           Overview,
	"seahorse":           SeahorseValley,
	"elephant":           ElephantValley,
	"spiral-minibrot":    SpiralMinibrot,
	"triple-spiral":      TripleSpiral,
	"dragon":             ValleyOfTheDragon,
	"minibrot-in-spiral": MinibrotInMiniSpiral,
}

// Landmark looks up a preset region by name.
func Landmark(name string) (Region, error) {
	r, ok := Landmarks[name]
	if !ok {
		return Region{}, fmt.Errorf("unknown landmark %q: %w", name, ErrInvalidParameter)
	}
	return r, nil
}
