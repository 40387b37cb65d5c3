// Copyright © 2026 the measure authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package solve

import (
	"math"
	"testing"

	"github.com/scimeasure/measure"
)

// TestSolveLinear solves a*x - b = 0 for x, where a and b are measured
// quantities with uncertainty, and checks that the solved x's
// uncertainty matches straightforward error propagation of x = b/a.
func TestSolveLinear(t *testing.T) {
	a, _ := measure.NewScalar(2, "1", 0.1)
	b, _ := measure.NewScalar(10, "m", 0.5)
	args := []*measure.Value{a, b}

	eq := Equation(func(x []float64, args []*measure.Value) (*measure.Value, error) {
		aVal, bVal := args[0], args[1]
		ax, err := measure.Mul(aVal, must(measure.NewScalar(x[0], "m", 0)))
		if err != nil {
			return nil, err
		}
		return measure.Sub(ax, bVal)
	})

	results, err := Solve([]Equation{eq}, []Unknown{{Guess: 1, Unit: "m"}}, args)
	if err != nil {
		t.Fatal(err)
	}
	mag, _ := results[0].Scalar()
	if math.Abs(mag-5) > 1e-3 {
		t.Errorf("x = %v, want 5", mag)
	}

	u, _ := results[0].Uncertainty()
	// x = b/a; via the standard quotient-rule propagation,
	// sigma_x = sqrt((sigma_b/a)^2 + (b*sigma_a/a^2)^2).
	want := math.Sqrt(math.Pow(0.5/2, 2) + math.Pow(10*0.1/4, 2))
	if math.Abs(u-want) > 1e-2 {
		t.Errorf("uncertainty = %v, want ~%v", u, want)
	}
}

func TestSolveArityMismatch(t *testing.T) {
	eq := Equation(func(x []float64, args []*measure.Value) (*measure.Value, error) {
		return measure.NewScalar(x[0], "m", 0)
	})
	_, err := Solve([]Equation{eq}, []Unknown{{Guess: 1, Unit: "m"}, {Guess: 1, Unit: "m"}}, nil)
	if err == nil {
		t.Error("expected an arity mismatch error")
	}
}

func must(v *measure.Value, err error) *measure.Value {
	if err != nil {
		panic(err)
	}
	return v
}
