package xrd

import (
	"errors"
	"math"
	"testing"
)

// linspace builds n evenly spaced samples over [lo, hi].
func linspace(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}

// Subtracting an order-1 background from a perfect linear ramp should leave
// residuals at zero everywhere.
func TestSubtractBackground_LinearRamp(t *testing.T) {
	angles := linspace(10, 20, 101)
	intensity := make([]float64, len(angles))
	for i, x := range angles {
		intensity[i] = 3.0*x + 7.0
	}

	out, warn, err := SubtractBackground(angles, intensity, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if warn != nil {
		t.Fatalf("unexpected conditioning warning: %v", warn)
	}
	if len(out) != len(intensity) {
		t.Fatalf("length changed: got %d want %d", len(out), len(intensity))
	}
	for i, v := range out {
		if math.Abs(v) > 1e-6 {
			t.Fatalf("residual[%d] = %g, want ~0", i, v)
		}
	}
}

// Subtracting a degree-k background from a degree-k trend must be
// idempotent: the best-fit background of the output is the zero function.
func TestSubtractBackground_IdempotentRefit(t *testing.T) {
	angles := linspace(5, 45, 201)
	intensity := make([]float64, len(angles))
	for i, x := range angles {
		intensity[i] = 0.02*x*x - 1.5*x + 40.0
	}

	once, _, err := SubtractBackground(angles, intensity, 2)
	if err != nil {
		t.Fatalf("first subtraction failed: %v", err)
	}
	twice, _, err := SubtractBackground(angles, once, 2)
	if err != nil {
		t.Fatalf("refit subtraction failed: %v", err)
	}
	for i := range twice {
		if math.Abs(twice[i]-once[i]) > 1e-6 {
			t.Fatalf("refit moved residual[%d] from %g to %g", i, once[i], twice[i])
		}
	}
}

// Peak shapes must survive trend removal: a Gaussian atop a ramp comes out
// with its height intact once the ramp is gone.
func TestSubtractBackground_PreservesPeakShape(t *testing.T) {
	angles := linspace(10, 20, 101)
	intensity := make([]float64, len(angles))
	for i, x := range angles {
		intensity[i] = 2.0*x + gaussianAt(x, 15.0, 0.3, 100.0)
	}

	out, _, err := SubtractBackground(angles, intensity, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	best := math.Inf(-1)
	bestAngle := 0.0
	for i, v := range out {
		if v > best {
			best = v
			bestAngle = angles[i]
		}
	}
	if math.Abs(bestAngle-15.0) > 0.1 {
		t.Fatalf("peak moved to %g after subtraction", bestAngle)
	}
	// Fit leakage into the narrow Gaussian allows some height loss.
	if best < 80 || best > 110 {
		t.Fatalf("peak height %g after subtraction, want ~100", best)
	}
}

func TestSubtractBackground_InvalidOrder(t *testing.T) {
	_, _, err := SubtractBackground([]float64{1, 2, 3}, []float64{1, 2, 3}, -1)
	if !errors.Is(err, ErrInvalidOrder) {
		t.Fatalf("got %v, want ErrInvalidOrder", err)
	}
}

func TestSubtractBackground_InsufficientData(t *testing.T) {
	_, _, err := SubtractBackground([]float64{1, 2}, []float64{5, 6}, 3)
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("got %v, want ErrInsufficientData", err)
	}

	// Zero-length series is also insufficient for any order.
	_, _, err = SubtractBackground(nil, nil, 0)
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("empty series: got %v, want ErrInsufficientData", err)
	}
}

func TestSubtractBackground_MismatchedSeries(t *testing.T) {
	_, _, err := SubtractBackground([]float64{1, 2, 3}, []float64{1, 2}, 1)
	if !errors.Is(err, ErrMismatchedSeries) {
		t.Fatalf("got %v, want ErrMismatchedSeries", err)
	}
}

// A rank-deficient design matrix (every sample at the same angle) must
// surface a conditioning warning instead of failing or silently degrading.
func TestSubtractBackground_IllConditionedWarning(t *testing.T) {
	angles := []float64{12.5, 12.5, 12.5, 12.5}
	intensity := []float64{1, 2, 3, 4}

	_, warn, err := SubtractBackground(angles, intensity, 1)
	if err != nil {
		t.Fatalf("singular fit should warn, not fail: %v", err)
	}
	if warn == nil {
		t.Fatal("expected an ill-conditioned fit warning")
	}
}
