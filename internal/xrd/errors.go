package xrd

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the analysis core. Callers are expected to
// match with errors.Is and translate into user-facing messages; the core
// never retries and never returns partial results alongside an error.
var (
	// ErrInvalidOrder reports a negative background polynomial order.
	ErrInvalidOrder = errors.New("xrd: background polynomial order must be non-negative")

	// ErrInsufficientData reports a background fit request with fewer
	// samples than coefficients (an under-determined system).
	ErrInsufficientData = errors.New("xrd: not enough samples for requested fit order")

	// ErrEmptySeries reports a series too short to define a local maximum.
	ErrEmptySeries = errors.New("xrd: series too short for peak detection")

	// ErrDegenerateRange reports an angle-range filter that leaves fewer
	// than two samples.
	ErrDegenerateRange = errors.New("xrd: angle range leaves fewer than two samples")

	// ErrMismatchedSeries reports angle and intensity slices of different
	// lengths.
	ErrMismatchedSeries = errors.New("xrd: angle and intensity lengths differ")
)

// IllConditionedFitWarning is an advisory signal that a background fit was
// numerically ill-conditioned. The fit coefficients it accompanies are
// best-effort, not garbage; callers may log the warning and proceed.
type IllConditionedFitWarning struct {
	// Condition is the condition number reported by the linear solver.
	Condition float64
}

func (w *IllConditionedFitWarning) Error() string {
	return fmt.Sprintf("xrd: ill-conditioned background fit (condition number %.3g)", w.Condition)
}
