package xrd

import "math"

// refineFWHM estimates a peak's full width at half maximum by direct
// half-maximum crossing interpolation in the window the suppression
// distance defines. The half level is measured above the local background
// floor (the window minimum), so a peak riding a residual pedestal still
// gets a sane width.
//
// A nil return means the window was too small or a crossing never happened
// inside it; refinement failure is per-peak, never fatal.
func refineFWHM(twoTheta, intensity []float64, idx, window int) *float64 {
	lo := idx - window
	if lo < 0 {
		lo = 0
	}
	hi := idx + window
	if hi > len(intensity)-1 {
		hi = len(intensity) - 1
	}
	if hi-lo < 2 {
		return nil
	}

	floor := math.Inf(1)
	for i := lo; i <= hi; i++ {
		if intensity[i] < floor {
			floor = intensity[i]
		}
	}
	half := floor + (intensity[idx]-floor)/2
	if half <= floor {
		return nil
	}

	left := crossingLeft(twoTheta, intensity, idx, lo, half)
	right := crossingRight(twoTheta, intensity, idx, hi, half)
	if math.IsNaN(left) || math.IsNaN(right) {
		return nil
	}

	w := right - left
	if w <= 0 {
		return nil
	}
	return &w
}

// crossingLeft walks downhill from the peak towards lo and interpolates the
// angle where intensity drops through the half level.
func crossingLeft(twoTheta, intensity []float64, idx, lo int, half float64) float64 {
	for i := idx; i > lo; i-- {
		if intensity[i-1] <= half && intensity[i] > half {
			return interpolateCrossing(twoTheta[i-1], intensity[i-1], twoTheta[i], intensity[i], half)
		}
	}
	return math.NaN()
}

func crossingRight(twoTheta, intensity []float64, idx, hi int, half float64) float64 {
	for i := idx; i < hi; i++ {
		if intensity[i] > half && intensity[i+1] <= half {
			return interpolateCrossing(twoTheta[i], intensity[i], twoTheta[i+1], intensity[i+1], half)
		}
	}
	return math.NaN()
}

// interpolateCrossing returns the angle where the segment (x0,y0)-(x1,y1)
// crosses the given level. Callers guarantee y0 != y1.
func interpolateCrossing(x0, y0, x1, y1, level float64) float64 {
	return x0 + (level-y0)*(x1-x0)/(y1-y0)
}
