package xrd

import (
	"fmt"
	"math"
	"sort"
)

// Detection defaults, matching the tool's historical behaviour: the height
// threshold falls back to 10% of the series maximum, the separation to half
// a degree.
const (
	DefaultMinDistanceDeg  = 0.5
	defaultHeightFraction  = 0.1
	minCandidateSeparation = 1
)

// PeakOptions carries caller intent for peak detection. Nil fields take the
// documented defaults; MinHeight additionally derives from the data itself.
type PeakOptions struct {
	MinHeight      *float64
	MinDistanceDeg *float64
	Refine         bool
}

// peakConfig is the effective configuration: every default resolved once,
// up front, from options plus the series. Detection logic below only ever
// sees these plain values.
type peakConfig struct {
	minHeight      float64
	minDistanceDeg float64
	minSep         int
	refine         bool
}

func resolvePeakConfig(opts PeakOptions, intensity []float64, meanStep float64) peakConfig {
	cfg := peakConfig{
		minDistanceDeg: DefaultMinDistanceDeg,
		refine:         opts.Refine,
	}
	if opts.MinDistanceDeg != nil {
		cfg.minDistanceDeg = *opts.MinDistanceDeg
	}

	if opts.MinHeight != nil {
		cfg.minHeight = *opts.MinHeight
	} else {
		peak := math.Inf(-1)
		for _, y := range intensity {
			if y > peak {
				peak = y
			}
		}
		cfg.minHeight = defaultHeightFraction * peak
	}

	// The separation is given in degrees but enforced in samples. Round
	// rather than truncate so a separation a hair under a whole number of
	// steps is not spuriously widened.
	cfg.minSep = minCandidateSeparation
	if meanStep > 0 {
		if sep := int(math.Round(cfg.minDistanceDeg / meanStep)); sep > cfg.minSep {
			cfg.minSep = sep
		}
	}
	return cfg
}

// FindPeaks locates strict local maxima in intensity that clear the height
// threshold, suppresses candidates closer than the minimum separation
// (keeping the tallest, leftmost on ties), and returns the survivors
// ordered by ascending angle. Finding no peaks is a valid empty result, not
// an error.
func FindPeaks(twoTheta, intensity []float64, opts PeakOptions) ([]Peak, error) {
	if len(twoTheta) != len(intensity) {
		return nil, fmt.Errorf("%w: %d angles vs %d intensities", ErrMismatchedSeries, len(twoTheta), len(intensity))
	}
	n := len(twoTheta)
	if n < 3 {
		return nil, fmt.Errorf("%w: need at least 3 samples, got %d", ErrEmptySeries, n)
	}

	meanStep := (twoTheta[n-1] - twoTheta[0]) / float64(n-1)
	cfg := resolvePeakConfig(opts, intensity, meanStep)

	// Candidate pass: strict local maxima above threshold.
	var candidates []int
	for i := 1; i < n-1; i++ {
		if intensity[i] > intensity[i-1] && intensity[i] > intensity[i+1] && intensity[i] >= cfg.minHeight {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return []Peak{}, nil
	}

	// Suppression pass: visit candidates tallest-first (leftmost wins a
	// tie) and knock out any unvisited candidate within the minimum
	// separation of an accepted one.
	order := make([]int, len(candidates))
	for k := range order {
		order[k] = k
	}
	sort.SliceStable(order, func(a, b int) bool {
		ia, ib := candidates[order[a]], candidates[order[b]]
		if intensity[ia] != intensity[ib] {
			return intensity[ia] > intensity[ib]
		}
		return ia < ib
	})

	suppressed := make([]bool, len(candidates))
	var accepted []int
	for _, k := range order {
		if suppressed[k] {
			continue
		}
		idx := candidates[k]
		accepted = append(accepted, idx)
		for j, other := range candidates {
			if j == k || suppressed[j] {
				continue
			}
			if abs(other-idx) < cfg.minSep {
				suppressed[j] = true
			}
		}
	}
	sort.Ints(accepted)

	peaks := make([]Peak, 0, len(accepted))
	for _, idx := range accepted {
		p := Peak{Position: twoTheta[idx], Intensity: intensity[idx]}
		if cfg.refine {
			p.FWHM = refineFWHM(twoTheta, intensity, idx, cfg.minSep)
		}
		peaks = append(peaks, p)
	}
	return peaks, nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
