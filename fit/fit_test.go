// Copyright © 2026 the measure authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fit

import (
	"math"
	"testing"

	"github.com/scimeasure/measure"
)

func TestFitConstant(t *testing.T) {
	x, _ := measure.New([]float64{1, 2, 3, 4}, "s", []float64{0.01, 0.01, 0.01, 0.01})
	y, _ := measure.New([]float64{5, 5, 5, 5}, "m", []float64{0.1, 0.1, 0.1, 0.1})

	result, err := Fit(Constant(), x, y, []float64{1})
	if err != nil {
		t.Fatal(err)
	}
	mag, _ := result.Params[0].Scalar()
	if math.Abs(mag-5) > 1e-3 {
		t.Errorf("constant fit = %v, want 5", mag)
	}
	if result.Params[0].Unit().String() != "m" {
		t.Errorf("constant fit unit = %s, want m", result.Params[0].Unit())
	}
	if result.RSquared < 0.99 {
		t.Errorf("R^2 = %v, want close to 1 for an exact constant fit", result.RSquared)
	}
}

func TestFitLinearPolynomial(t *testing.T) {
	xs := []float64{0, 1, 2, 3, 4, 5}
	ys := make([]float64, len(xs))
	for i, xi := range xs {
		ys[i] = 2 + 3*xi
	}
	uncert := make([]float64, len(xs))
	for i := range uncert {
		uncert[i] = 0.05
	}

	x, _ := measure.New(xs, "s", uncert)
	y, _ := measure.New(ys, "m", uncert)

	result, err := Fit(Polynomial([]bool{true, true}), x, y, []float64{1, 0})
	if err != nil {
		t.Fatal(err)
	}
	slope, _ := result.Params[0].Scalar()
	intercept, _ := result.Params[1].Scalar()
	if math.Abs(intercept-2) > 0.1 {
		t.Errorf("intercept = %v, want ~2", intercept)
	}
	if math.Abs(slope-3) > 0.1 {
		t.Errorf("slope = %v, want ~3", slope)
	}
	if result.Params[0].Unit().String() != "m/s" {
		t.Errorf("slope unit = %s, want m/s", result.Params[0].Unit())
	}
}

func TestFitBadParameterCount(t *testing.T) {
	x, _ := measure.New([]float64{1, 2}, "s", nil)
	y, _ := measure.New([]float64{1, 2}, "m", nil)
	if _, err := Fit(Constant(), x, y, []float64{1, 2}); err == nil {
		t.Error("expected an error for a mismatched p0 length")
	}
}

func TestFitShapeMismatch(t *testing.T) {
	x, _ := measure.New([]float64{1, 2, 3}, "s", nil)
	y, _ := measure.New([]float64{1, 2}, "m", nil)
	if _, err := Fit(Constant(), x, y, []float64{1}); err == nil {
		t.Error("expected an error for mismatched x/y lengths")
	}
}
