// Copyright © 2026 the measure authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package solve finds the root of a square system of measurement
// equations by bounded numerical minimization of a unit-normalized
// residual objective, then propagates the uncertainty of every
// measurement used inside the equations into the solved unknowns via
// the implicit function theorem.
package solve

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/scimeasure/measure"
)

// Sentinel errors.
var (
	ErrArityMismatch  = errors.New("solve: number of equations must match number of unknowns")
	ErrSingularSystem = errors.New("solve: Jacobian is singular at the solution")
	ErrDidNotConverge = errors.New("solve: optimizer did not converge")
)

// Equation evaluates one residual of the system, expected to be zero at
// the solution, given the current numeric guess for every unknown (each
// in the unit Unknown.Unit specified to Solve) and the set of other
// measured quantities (args) the equation closes over.
type Equation func(x []float64, args []*measure.Value) (*measure.Value, error)

// Unknown is one variable to solve for: an initial guess, in the unit
// the solution should be reported in.
type Unknown struct {
	Guess float64
	Unit  string
	// Bounds, if non-nil, constrains this unknown to [Bounds[0], Bounds[1]].
	Bounds *[2]float64
}

const relativeStep = 1e-6

// Solve finds x such that every equation evaluates to (approximately)
// zero, and returns each unknown as a measurement value whose
// uncertainty reflects every leaf measurement referenced by args inside
// the equations.
func Solve(equations []Equation, unknowns []Unknown, args []*measure.Value) ([]*measure.Value, error) {
	if len(equations) != len(unknowns) {
		return nil, fmt.Errorf("%w: %d equations, %d unknowns", ErrArityMismatch, len(equations), len(unknowns))
	}
	n := len(unknowns)

	x0 := make([]float64, n)
	for i, u := range unknowns {
		x0[i] = u.Guess
	}

	scale, err := normalizationScale(equations, x0, args)
	if err != nil {
		return nil, err
	}

	objective := func(x []float64) float64 {
		var sum float64
		for i, eq := range equations {
			r, err := eq(x, args)
			if err != nil {
				return math.Inf(1)
			}
			mag, err := r.Scalar()
			if err != nil {
				return math.Inf(1)
			}
			sum += (mag / scale[i]) * (mag / scale[i])
		}
		sum += boundsPenalty(x, unknowns)
		return sum
	}

	problem := optimize.Problem{Func: objective}
	result, err := optimize.Minimize(problem, x0, nil, &optimize.BFGS{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDidNotConverge, err)
	}
	xStar := result.X

	residualsAt := func(x []float64) ([]*measure.Value, error) {
		out := make([]*measure.Value, n)
		for i, eq := range equations {
			r, err := eq(x, args)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	}

	residuals, err := residualsAt(xStar)
	if err != nil {
		return nil, err
	}

	jac, err := jacobian(equations, xStar, args, residuals)
	if err != nil {
		return nil, err
	}
	var jacInv mat.Dense
	if err := jacInv.Inverse(jac); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingularSystem, err)
	}

	leaves := unionLeaves(residuals)

	out := make([]*measure.Value, n)
	for j, u := range unknowns {
		dep := map[measure.LeafID]float64{}
		for _, leaf := range leaves {
			b := make([]float64, n)
			for i, r := range residuals {
				b[i] = -residualPartial(r, leaf)
			}
			bVec := mat.NewVecDense(n, b)
			var dx mat.VecDense
			dx.MulVec(&jacInv, bVec)
			dep[leaf] = dx.AtVec(j)
		}
		v, err := measure.NewScalar(xStar[j], u.Unit, 0)
		if err != nil {
			return nil, err
		}
		out[j] = measure.WithDependencies(v, dep)
	}
	return out, nil
}

// normalizationScale establishes, for each equation, the magnitude scale
// that keeps its contribution to the combined objective of comparable
// size to the others, regardless of the physical units involved.
func normalizationScale(equations []Equation, x0 []float64, args []*measure.Value) ([]float64, error) {
	scale := make([]float64, len(equations))
	for i, eq := range equations {
		r, err := eq(x0, args)
		if err != nil {
			return nil, err
		}
		mag, err := r.Scalar()
		if err != nil {
			return nil, err
		}
		s := math.Abs(mag)
		if s == 0 {
			s = 1
		}
		scale[i] = s
	}
	return scale, nil
}

func boundsPenalty(x []float64, unknowns []Unknown) float64 {
	var penalty float64
	for i, u := range unknowns {
		if u.Bounds == nil {
			continue
		}
		lo, hi := u.Bounds[0], u.Bounds[1]
		if x[i] < lo {
			d := lo - x[i]
			penalty += 1e6 * d * d
		}
		if x[i] > hi {
			d := x[i] - hi
			penalty += 1e6 * d * d
		}
	}
	return penalty
}

func jacobian(equations []Equation, xStar []float64, args []*measure.Value, center []*measure.Value) (*mat.Dense, error) {
	n := len(equations)
	jac := mat.NewDense(n, n, nil)
	for j := 0; j < n; j++ {
		step := relativeStep * math.Max(math.Abs(xStar[j]), 1)
		xp := append([]float64(nil), xStar...)
		xm := append([]float64(nil), xStar...)
		xp[j] += step
		xm[j] -= step
		for i, eq := range equations {
			rp, err := eq(xp, args)
			if err != nil {
				return nil, err
			}
			rm, err := eq(xm, args)
			if err != nil {
				return nil, err
			}
			vp, _ := rp.Scalar()
			vm, _ := rm.Scalar()
			jac.Set(i, j, (vp-vm)/(2*step))
		}
	}
	return jac, nil
}

func residualPartial(r *measure.Value, leaf measure.LeafID) float64 {
	deps := measure.DependenciesOf(r)
	return deps[leaf]
}

func unionLeaves(residuals []*measure.Value) []measure.LeafID {
	set := map[measure.LeafID]bool{}
	for _, r := range residuals {
		for id := range measure.DependenciesOf(r) {
			set[id] = true
		}
	}
	out := make([]measure.LeafID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
