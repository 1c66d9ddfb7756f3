// Package xrd implements the numeric core of crysanalyze: polynomial
// background estimation and peak location over powder X-ray diffraction
// scans. Every operation is a pure function of its inputs; the package
// performs no I/O and holds no state between calls.
package xrd

import "fmt"

// Scan is an in-memory diffraction scan: a scattering-angle axis (2-theta,
// degrees, ascending) and an index-aligned intensity series.
type Scan struct {
	TwoTheta  []float64
	Intensity []float64
}

// Len returns the number of samples in the scan.
func (s Scan) Len() int { return len(s.TwoTheta) }

// Validate checks the structural invariants: equal-length series with at
// least two samples.
func (s Scan) Validate() error {
	if len(s.TwoTheta) != len(s.Intensity) {
		return fmt.Errorf("%w: %d angles vs %d intensities", ErrMismatchedSeries, len(s.TwoTheta), len(s.Intensity))
	}
	if len(s.TwoTheta) < 2 {
		return fmt.Errorf("%w: got %d samples", ErrEmptySeries, len(s.TwoTheta))
	}
	return nil
}

// MeanStep returns the representative sampling interval in degrees. Scans
// are assumed near-uniformly sampled, so the average interval stands in
// for all of them.
func (s Scan) MeanStep() float64 {
	n := len(s.TwoTheta)
	if n < 2 {
		return 0
	}
	return (s.TwoTheta[n-1] - s.TwoTheta[0]) / float64(n-1)
}

// AngleRange restricts analysis to min <= 2-theta <= max.
type AngleRange struct {
	Min float64
	Max float64
}

// Clip returns the sub-scan whose angles fall inside r, preserving index
// alignment. The receiver is not modified. Clipping that leaves fewer than
// two samples returns ErrDegenerateRange.
func (s Scan) Clip(r AngleRange) (Scan, error) {
	if err := s.Validate(); err != nil {
		return Scan{}, err
	}

	// Angles are sorted ascending, so the window is a contiguous run.
	lo := 0
	for lo < len(s.TwoTheta) && s.TwoTheta[lo] < r.Min {
		lo++
	}
	hi := len(s.TwoTheta)
	for hi > lo && s.TwoTheta[hi-1] > r.Max {
		hi--
	}

	if hi-lo < 2 {
		return Scan{}, fmt.Errorf("%w: [%g, %g] keeps %d of %d samples",
			ErrDegenerateRange, r.Min, r.Max, hi-lo, len(s.TwoTheta))
	}

	return Scan{
		TwoTheta:  s.TwoTheta[lo:hi:hi],
		Intensity: s.Intensity[lo:hi:hi],
	}, nil
}

// Peak is a detected diffraction feature. FWHM is nil unless refinement was
// requested and succeeded for this peak; consumers must handle its absence.
type Peak struct {
	Position  float64  `json:"position"`
	Intensity float64  `json:"intensity"`
	FWHM      *float64 `json:"fwhm,omitempty"`
}
