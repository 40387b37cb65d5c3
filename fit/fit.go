// Copyright © 2026 the measure authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fit

import (
	"errors"
	"fmt"
	"log"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"

	"github.com/scimeasure/measure"
	"github.com/scimeasure/measure/unit"
)

// Sentinel errors.
var (
	ErrBadParameterCount = errors.New("fit: p0 length does not match the model's parameter count")
	ErrShapeMismatch     = errors.New("fit: x and y must have the same number of elements")
	ErrDidNotConverge    = errors.New("fit: optimizer did not converge")
)

// minUncert is substituted for any reported zero uncertainty so the
// effective-variance weighting below never divides by zero (fit.py's
// zero-uncertainty substitution).
const minUncert = 1e-10

// Result is a completed fit: one measurement value per parameter, plus
// the coefficient of determination of the fitted curve against y.
type Result struct {
	Model    *Model
	Params   []*measure.Value
	RSquared float64
}

// Predict evaluates the fitted model at x (in the independent variable's
// native unit) using the fitted parameters' magnitudes.
func (r *Result) Predict(x float64) float64 {
	beta := make([]float64, len(r.Params))
	for i, p := range r.Params {
		beta[i], _ = p.Scalar()
	}
	return r.Model.Eval(beta, x)
}

// PredDifferential evaluates the model's x-derivative at x using the
// fitted parameters' magnitudes.
func (r *Result) PredDifferential(x float64) float64 {
	beta := make([]float64, len(r.Params))
	for i, p := range r.Params {
		beta[i], _ = p.Scalar()
	}
	return r.Model.DEvalDx(beta, x)
}

// Fit performs a two-pass orthogonal-distance regression of y against x
// using model, starting from p0. The first pass's result is perturbed by
// 10% and refit; the spread between the two passes is folded into each
// parameter's reported uncertainty alongside the fit's own covariance
// estimate.
func Fit(model *Model, x, y *measure.Value, p0 []float64) (*Result, error) {
	if len(p0) != model.NumParams {
		return nil, fmt.Errorf("%w: model %s wants %d, got %d", ErrBadParameterCount, model.Name, model.NumParams, len(p0))
	}
	if x.Len() != y.Len() {
		return nil, fmt.Errorf("%w: %d and %d", ErrShapeMismatch, x.Len(), y.Len())
	}

	xs, ys := x.Magnitudes(), y.Magnitudes()
	xu, yu := x.Uncertainties(), y.Uncertainties()
	for i := range xu {
		if xu[i] == 0 {
			log.Printf("fit: element %d of x has zero uncertainty, substituting %g", i, minUncert)
			xu[i] = minUncert
		}
		if yu[i] == 0 {
			log.Printf("fit: element %d of y has zero uncertainty, substituting %g", i, minUncert)
			yu[i] = minUncert
		}
	}

	objective := effectiveVarianceObjective(model, xs, ys, xu, yu)

	pass1, err := minimize(objective, p0)
	if err != nil {
		return nil, err
	}
	p0b := make([]float64, len(pass1))
	for i, v := range pass1 {
		p0b[i] = v * 1.1
	}
	pass2, err := minimize(objective, p0b)
	if err != nil {
		return nil, err
	}

	cov := hessianInverse(objective, pass2)

	xUnit, yUnit := x.Unit(), y.Unit()
	params := make([]*measure.Value, model.NumParams)
	for k := range params {
		paramUnit, err := model.ParamUnit(k, xUnit, yUnit)
		if err != nil {
			return nil, err
		}
		spread := math.Abs(pass2[k] - pass1[k])
		variance := cov.At(k, k) + spread*spread
		if variance < 0 {
			variance = 0
		}
		sigma := math.Sqrt(variance)
		v, err := measure.NewScalar(pass2[k], paramUnit.String(), sigma)
		if err != nil {
			return nil, err
		}
		params[k] = v
	}

	r2 := coefficientOfDetermination(model, pass2, xs, ys)

	return &Result{Model: model, Params: params, RSquared: r2}, nil
}

// effectiveVarianceObjective is the Orear (1982) approximation to
// orthogonal-distance regression: each residual is weighted by the
// combined variance of y and of x projected through the model's local
// slope, avoiding the need for a true point-by-point orthogonal
// projection.
func effectiveVarianceObjective(model *Model, xs, ys, xu, yu []float64) func([]float64) float64 {
	return func(beta []float64) float64 {
		var sum float64
		for i := range xs {
			resid := ys[i] - model.Eval(beta, xs[i])
			slope := model.DEvalDx(beta, xs[i])
			variance := yu[i]*yu[i] + slope*slope*xu[i]*xu[i]
			sum += resid * resid / variance
		}
		return sum
	}
}

func minimize(objective func([]float64) float64, p0 []float64) ([]float64, error) {
	problem := optimize.Problem{Func: objective}
	result, err := optimize.Minimize(problem, p0, nil, &optimize.NelderMead{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDidNotConverge, err)
	}
	return result.X, nil
}

// hessianInverse returns twice the inverse of a central-difference
// approximation to the Hessian of objective at beta, used as the fit's
// parameter covariance matrix.
func hessianInverse(objective func([]float64) float64, beta []float64) *mat.SymDense {
	n := len(beta)
	h := make([]float64, n)
	for i, v := range beta {
		step := 1e-4 * math.Max(math.Abs(v), 1)
		h[i] = step
	}

	hess := mat.NewSymDense(n, nil)
	f0 := objective(beta)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			var d2 float64
			if i == j {
				xp := append([]float64(nil), beta...)
				xm := append([]float64(nil), beta...)
				xp[i] += h[i]
				xm[i] -= h[i]
				d2 = (objective(xp) - 2*f0 + objective(xm)) / (h[i] * h[i])
			} else {
				xpp := append([]float64(nil), beta...)
				xpm := append([]float64(nil), beta...)
				xmp := append([]float64(nil), beta...)
				xmm := append([]float64(nil), beta...)
				xpp[i] += h[i]
				xpp[j] += h[j]
				xpm[i] += h[i]
				xpm[j] -= h[j]
				xmp[i] -= h[i]
				xmp[j] += h[j]
				xmm[i] -= h[i]
				xmm[j] -= h[j]
				d2 = (objective(xpp) - objective(xpm) - objective(xmp) + objective(xmm)) / (4 * h[i] * h[j])
			}
			hess.SetSym(i, j, d2)
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(hess); !ok {
		// Non-positive-definite Hessian: fall back to a diagonal
		// estimate rather than failing the whole fit.
		out := mat.NewSymDense(n, nil)
		for i := 0; i < n; i++ {
			d := hess.At(i, i)
			if d <= 0 {
				d = 1
			}
			out.SetSym(i, i, 2/d)
		}
		return out
	}
	var inv mat.SymDense
	if err := chol.InverseTo(&inv); err != nil {
		out := mat.NewSymDense(n, nil)
		for i := 0; i < n; i++ {
			out.SetSym(i, i, 1)
		}
		return out
	}
	// The objective sums squared, variance-weighted residuals, so its
	// Hessian is 2x the Fisher information; the covariance is twice the
	// inverse Hessian.
	scaled := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			scaled.SetSym(i, j, 2*inv.At(i, j))
		}
	}
	return scaled
}

func coefficientOfDetermination(model *Model, beta, xs, ys []float64) float64 {
	mean := stat.Mean(ys, nil)
	var ssRes, ssTot float64
	for i, x := range xs {
		resid := ys[i] - model.Eval(beta, x)
		ssRes += resid * resid
		dev := ys[i] - mean
		ssTot += dev * dev
	}
	if ssTot == 0 {
		return 1
	}
	return 1 - ssRes/ssTot
}
