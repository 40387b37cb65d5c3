// Copyright © 2026 the measure authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fit performs orthogonal-distance regression of a measured
// (x, y) data set against one of a small catalogue of model families,
// producing each fitted parameter as its own measurement value with a
// derived unit and a propagated uncertainty.
package fit

import (
	"fmt"
	"math"

	"github.com/scimeasure/measure/unit"
)

// Model is one fittable function family: y = Eval(beta, x).
type Model struct {
	Name      string
	NumParams int
	// Eval computes the model's prediction at x given parameters beta.
	Eval func(beta []float64, x float64) float64
	// DEvalDx is ∂Eval/∂x, used to weight each point's effective
	// variance by how strongly the model amplifies the x uncertainty.
	DEvalDx func(beta []float64, x float64) float64
	// ParamUnit assigns the unit of the k'th parameter given the units
	// of the independent and dependent variables.
	ParamUnit func(k int, xUnit, yUnit unit.Unit) (unit.Unit, error)
}

// Constant fits y = beta[0].
func Constant() *Model {
	return &Model{
		Name:      "constant",
		NumParams: 1,
		Eval:      func(beta []float64, x float64) float64 { return beta[0] },
		DEvalDx:   func(beta []float64, x float64) float64 { return 0 },
		ParamUnit: func(k int, xUnit, yUnit unit.Unit) (unit.Unit, error) { return yUnit, nil },
	}
}

// Polynomial fits y = Σ beta_j * x^i over the powers i for which
// termMask[i] is true (termMask[0] is the constant term), with beta
// ordered highest-degree-first (beta[0] is the coefficient of the
// highest enabled power, matching pol_fit's B[i] multiplying x^(n-i)).
// The number of fitted parameters is the number of true entries.
func Polynomial(termMask []bool) *Model {
	powers := make([]int, 0, len(termMask))
	for i, on := range termMask {
		if on {
			powers = append(powers, i)
		}
	}
	for i, j := 0, len(powers)-1; i < j; i, j = i+1, j-1 {
		powers[i], powers[j] = powers[j], powers[i]
	}
	return &Model{
		Name:      "polynomial",
		NumParams: len(powers),
		Eval: func(beta []float64, x float64) float64 {
			var y float64
			for j, p := range powers {
				y += beta[j] * math.Pow(x, float64(p))
			}
			return y
		},
		DEvalDx: func(beta []float64, x float64) float64 {
			var d float64
			for j, p := range powers {
				if p == 0 {
					continue
				}
				d += beta[j] * float64(p) * math.Pow(x, float64(p-1))
			}
			return d
		},
		ParamUnit: func(k int, xUnit, yUnit unit.Unit) (unit.Unit, error) {
			p := powers[k]
			if p == 0 {
				return yUnit, nil
			}
			return unit.Divide(yUnit, unit.Power(xUnit, p)), nil
		},
	}
}

// Power fits y = beta[0] * x^beta[1]. x must be dimensionless, since the
// unit registry has no notion of a non-integer power of a unit.
func Power() *Model {
	return &Model{
		Name:      "power",
		NumParams: 2,
		Eval:      func(beta []float64, x float64) float64 { return beta[0] * math.Pow(x, beta[1]) },
		DEvalDx: func(beta []float64, x float64) float64 {
			return beta[0] * beta[1] * math.Pow(x, beta[1]-1)
		},
		ParamUnit: func(k int, xUnit, yUnit unit.Unit) (unit.Unit, error) {
			if k == 0 {
				if !xUnit.IsDimensionless() {
					return unit.Unit{}, fmt.Errorf("fit: power model requires a dimensionless independent variable, got %s", xUnit)
				}
				return yUnit, nil
			}
			return unit.Dimensionless(), nil
		},
	}
}

// Exponential fits y = beta[0] * beta[1]^x, with beta[1] the
// dimensionless base (not a rate constant: use Ln of beta[1] to recover
// a continuous growth rate).
func Exponential() *Model {
	return &Model{
		Name:      "exponential",
		NumParams: 2,
		Eval:      func(beta []float64, x float64) float64 { return beta[0] * math.Pow(beta[1], x) },
		DEvalDx: func(beta []float64, x float64) float64 {
			return beta[0] * math.Pow(beta[1], x) * math.Log(beta[1])
		},
		ParamUnit: func(k int, xUnit, yUnit unit.Unit) (unit.Unit, error) {
			if k == 0 {
				return yUnit, nil
			}
			return unit.Dimensionless(), nil
		},
	}
}

// Logistic fits y = L/(1+exp(-k*(x-x0))), with beta = [L, k, x0].
func Logistic() *Model {
	eval := func(beta []float64, x float64) float64 {
		L, k, x0 := beta[0], beta[1], beta[2]
		return L / (1 + math.Exp(-k*(x-x0)))
	}
	return &Model{
		Name:      "logistic",
		NumParams: 3,
		Eval:      eval,
		DEvalDx: func(beta []float64, x float64) float64 {
			L, k, x0 := beta[0], beta[1], beta[2]
			e := math.Exp(-k * (x - x0))
			denom := 1 + e
			return L * k * e / (denom * denom)
		},
		ParamUnit: func(i int, xUnit, yUnit unit.Unit) (unit.Unit, error) {
			switch i {
			case 0:
				return yUnit, nil
			case 1:
				return unit.Divide(unit.Dimensionless(), xUnit), nil
			default:
				return xUnit, nil
			}
		},
	}
}

// LogisticPinned100 fits y = 100/(1+exp(-k*(x-x0))), with the logistic
// ceiling pinned at 100 (e.g. a percentage saturating measure),
// beta = [k, x0].
func LogisticPinned100() *Model {
	const ceiling = 100
	eval := func(beta []float64, x float64) float64 {
		k, x0 := beta[0], beta[1]
		return ceiling / (1 + math.Exp(-k*(x-x0)))
	}
	return &Model{
		Name:      "logistic100",
		NumParams: 2,
		Eval:      eval,
		DEvalDx: func(beta []float64, x float64) float64 {
			k, x0 := beta[0], beta[1]
			e := math.Exp(-k * (x - x0))
			denom := 1 + e
			return ceiling * k * e / (denom * denom)
		},
		ParamUnit: func(i int, xUnit, yUnit unit.Unit) (unit.Unit, error) {
			if i == 0 {
				return unit.Divide(unit.Dimensionless(), xUnit), nil
			}
			return xUnit, nil
		},
	}
}
