package xrd

// AnalysisConfig is the raw caller intent for one analysis run. Nil fields
// mean "use the default"; the pipeline resolves them exactly once before
// any numeric work. The config is read-only to the core.
type AnalysisConfig struct {
	// BgPoly, when set, enables polynomial background subtraction of the
	// given order before peak detection.
	BgPoly *int `json:"bg_poly,omitempty"`
	// MinHeight is the absolute detection threshold. Defaults to 10% of
	// the analyzed series' maximum.
	MinHeight *float64 `json:"min_height,omitempty"`
	// MinDistanceDeg is the minimum angular separation between reported
	// peaks, in degrees. Defaults to 0.5.
	MinDistanceDeg *float64 `json:"min_dist,omitempty"`
	// Refine enables per-peak FWHM estimation.
	Refine bool `json:"refine,omitempty"`
	// Range restricts analysis to a 2-theta window before anything else
	// runs.
	Range *AngleRange `json:"range,omitempty"`
}

// Result is the output of one analysis run.
type Result struct {
	// Scan is the analyzed scan after any range clipping.
	Scan Scan
	// Subtracted is the background-subtracted intensity series, nil when
	// no subtraction was requested. Index-aligned with Scan.
	Subtracted []float64
	// Peaks are the detected peaks, ascending by position.
	Peaks []Peak
	// Warnings are advisory conditions (currently only ill-conditioned
	// background fits) that did not stop the run.
	Warnings []error
}

// Analyze runs the full pipeline: range clip, optional background
// subtraction, peak detection. It is a pure function; scan and cfg are not
// modified. On error the zero Result is returned.
func Analyze(scan Scan, cfg AnalysisConfig) (Result, error) {
	if err := scan.Validate(); err != nil {
		return Result{}, err
	}

	if cfg.Range != nil {
		clipped, err := scan.Clip(*cfg.Range)
		if err != nil {
			return Result{}, err
		}
		scan = clipped
	}

	res := Result{Scan: scan}

	series := scan.Intensity
	if cfg.BgPoly != nil {
		subtracted, warn, err := SubtractBackground(scan.TwoTheta, scan.Intensity, *cfg.BgPoly)
		if err != nil {
			return Result{}, err
		}
		if warn != nil {
			res.Warnings = append(res.Warnings, warn)
		}
		res.Subtracted = subtracted
		series = subtracted
	}

	peaks, err := FindPeaks(scan.TwoTheta, series, PeakOptions{
		MinHeight:      cfg.MinHeight,
		MinDistanceDeg: cfg.MinDistanceDeg,
		Refine:         cfg.Refine,
	})
	if err != nil {
		return Result{}, err
	}
	res.Peaks = peaks

	return res, nil
}
