// Package palette holds the built-in colour tables used by the smooth colouring policy.
package palette

import (
	"fmt"
	"slices"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/samber/lo"

	mandel "github.com/marben/simd_mandel"
)

// Default is the classic 16 colour escape-time table, dark blue through white to brown.
var Default = mandel.Palette{
	{R: 66, G: 30, B: 15},
	{R: 25, G: 7, B: 26},
	{R: 9, G: 1, B: 47},
	{R: 4, G: 4, B: 73},
	{R: 0, G: 7, B: 100},
	{R: 12, G: 44, B: 138},
	{R: 24, G: 82, B: 177},
	{R: 57, G: 125, B: 209},
	{R: 134, G: 181, B: 229},
	{R: 241, G: 233, B: 248},
	{R: 241, G: 233, B: 191},
	{R: 248, G: 201, B: 95},
	{R: 255, G: 170, B: 0},
	{R: 204, G: 128, B: 0},
	{R: 153, G: 87, B: 0},
	{R: 106, G: 52, B: 3},
}

// Rainbow sweeps the hue circle once at full saturation.
var Rainbow = hueSweep(256)

func hueSweep(n int) mandel.Palette {
	p := make(mandel.Palette, n)
	for i := range p {
		r, g, b := colorful.Hsv(float64(i)*360/float64(n), 1, 1).RGB255()
		p[i] = mandel.RGB{R: r, G: g, B: b}
	}
	return p
}

var named = map[string]mandel.Palette{
	"default": Default,
	"rainbow": Rainbow,
}

// Names lists the built-in palettes in sorted order.
func Names() []string {
	names := lo.Keys(named)
	slices.Sort(names)
	return names
}

// Named returns the built-in palette called name.
func Named(name string) (mandel.Palette, error) {
	p, ok := named[name]
	if !ok {
		return nil, fmt.Errorf("unknown palette %q (have %v): %w", name, Names(), mandel.ErrInvalidParameter)
	}
	return p, nil
}
