package mandel

// EscapeResult is the escape-time value of one sampled point.
type EscapeResult struct {
	Point
	// Iterations equals the region's MaxIterations when the orbit never left radius 2.
	Iterations uint64
	// Orbit is the last z the iteration produced.
	Orbit complex128
}

// Iterations counts how many steps of z ← z²+c, starting at z = 0, keep |z|² ≤ 4,
// capped at maxIterations. A result equal to maxIterations means p did not escape.
func Iterations(p Point, maxIterations uint64) uint64 {
	n, _, _ := escape(p.Re, p.Im, maxIterations)
	return n
}

func escapeResult(p Point, maxIterations uint64) EscapeResult {
	n, zr, zi := escape(p.Re, p.Im, maxIterations)
	return EscapeResult{Point: p, Iterations: n, Orbit: complex(zr, zi)}
}

// escape is the scalar kernel. Products are converted explicitly so the compiler
// never fuses them into FMA instructions; the vector kernel must see the same bits.
func escape(cr, ci float64, maxIterations uint64) (n uint64, zr, zi float64) {
	for n < maxIterations {
		zr2, zi2 := float64(zr*zr), float64(zi*zi)
		if !(zr2+zi2 <= 4) {
			break
		}
		t := float64(zr * zi)
		zi = float64(t+t) + ci
		zr = float64(zr2-zi2) + cr
		n++
	}
	return n, zr, zi
}

// escaped reports whether z lies outside radius 2, computed like the kernels do.
// A NaN orbit counts as escaped so no kernel keeps iterating it.
func escaped(zr, zi float64) bool {
	return !(float64(zr*zr)+float64(zi*zi) <= 4)
}
