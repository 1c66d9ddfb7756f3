package xrd

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// SubtractBackground fits a least-squares polynomial of the given order to
// (twoTheta, intensity) and returns the pointwise residual series. This is
// trend removal, not smoothing: peak shapes survive intact.
//
// The returned warning is non-nil when the design matrix was
// ill-conditioned; the residuals it accompanies are best-effort and safe to
// use for preliminary work. A non-nil error means no residuals were
// produced at all.
func SubtractBackground(twoTheta, intensity []float64, order int) ([]float64, *IllConditionedFitWarning, error) {
	if order < 0 {
		return nil, nil, fmt.Errorf("%w: got %d", ErrInvalidOrder, order)
	}
	if len(twoTheta) != len(intensity) {
		return nil, nil, fmt.Errorf("%w: %d angles vs %d intensities", ErrMismatchedSeries, len(twoTheta), len(intensity))
	}
	n := len(twoTheta)
	if n < order+1 {
		return nil, nil, fmt.Errorf("%w: %d samples for order-%d fit", ErrInsufficientData, n, order)
	}

	coeffs, warn, err := fitPolynomial(twoTheta, intensity, order)
	if err != nil {
		return nil, nil, err
	}

	out := make([]float64, n)
	for i, x := range twoTheta {
		out[i] = intensity[i] - evalPolynomial(coeffs, x)
	}
	return out, warn, nil
}

// fitPolynomial solves the Vandermonde least-squares system by QR
// factorization. Coefficients come back in ascending-degree order.
func fitPolynomial(xs, ys []float64, order int) ([]float64, *IllConditionedFitWarning, error) {
	n := len(xs)
	a := mat.NewDense(n, order+1, nil)
	for i, x := range xs {
		v := 1.0
		for j := 0; j <= order; j++ {
			a.Set(i, j, v)
			v *= x
		}
	}
	b := mat.NewVecDense(n, ys)

	var qr mat.QR
	qr.Factorize(a)

	var c mat.VecDense
	var warn *IllConditionedFitWarning
	if err := qr.SolveVecTo(&c, false, b); err != nil {
		// gonum still writes a best-effort solution when it reports a
		// Condition error; anything else is fatal.
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, nil, fmt.Errorf("xrd: background fit failed: %w", err)
		}
		warn = &IllConditionedFitWarning{Condition: float64(cond)}
	}

	coeffs := make([]float64, order+1)
	for j := range coeffs {
		coeffs[j] = c.AtVec(j)
	}
	return coeffs, warn, nil
}

func evalPolynomial(coeffs []float64, x float64) float64 {
	v := 0.0
	for j := len(coeffs) - 1; j >= 0; j-- {
		v = v*x + coeffs[j]
	}
	return v
}
