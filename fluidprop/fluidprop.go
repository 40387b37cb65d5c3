// Copyright © 2026 the measure authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fluidprop adapts an external thermophysical property backend
// into a measurement value: it validates the caller's arguments against
// the property's declared signature, calls the backend with bounded
// retry, and propagates the uncertainty of every argument into the
// result via central-difference partial derivatives.
package fluidprop

import (
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff"
	"gonum.org/v1/gonum/diff/fd"

	"github.com/scimeasure/measure"
)

// Sentinel errors.
var (
	ErrUnknownFluid          = errors.New("fluidprop: unknown fluid")
	ErrUnknownProperty       = errors.New("fluidprop: unknown property")
	ErrMissingArgument       = errors.New("fluidprop: missing required argument")
	ErrUnexpectedArgument    = errors.New("fluidprop: unexpected argument")
	ErrBackendFailed         = errors.New("fluidprop: property backend call failed")
	ErrArgumentShapeMismatch = errors.New("fluidprop: arguments disagree on vector length")
)

// relativeStep is the central-difference perturbation used for every
// partial derivative, expressed as a fraction of each argument's own
// magnitude.
const relativeStep = 1e-5

// ArgSpec is one named, unit-bearing input a Property's backend expects.
type ArgSpec struct {
	Name string
	Unit string
}

// Property is one backend-computable quantity of a Fluid.
type Property struct {
	Name string
	Unit string
	Args []ArgSpec
	// Call is the raw backend function: given each argument's magnitude
	// in its ArgSpec unit, it returns the property's magnitude in Unit.
	Call func(args map[string]float64) (float64, error)
}

// Fluid is a named substance with a catalogue of computable properties.
type Fluid struct {
	Name       string
	Properties map[string]Property
}

// Registry is the closed catalogue of fluids this adapter knows about.
type Registry struct {
	fluids map[string]Fluid
}

// NewRegistry builds a Registry from the given fluids, keyed by name.
func NewRegistry(fluids ...Fluid) *Registry {
	r := &Registry{fluids: make(map[string]Fluid, len(fluids))}
	for _, f := range fluids {
		r.fluids[f.Name] = f
	}
	return r
}

// Evaluate computes property propName of fluid fluidName given inputs,
// propagating each input's uncertainty into the result.
func (r *Registry) Evaluate(fluidName, propName string, inputs map[string]*measure.Value) (*measure.Value, error) {
	fluid, ok := r.fluids[fluidName]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFluid, fluidName)
	}
	prop, ok := fluid.Properties[propName]
	if !ok {
		return nil, fmt.Errorf("%w: %q for fluid %q", ErrUnknownProperty, propName, fluidName)
	}
	if err := validateArgs(prop, inputs); err != nil {
		return nil, err
	}

	n, err := dispatchLen(prop, inputs)
	if err != nil {
		return nil, err
	}
	if n == 1 {
		return evaluateScalar(prop, inputs)
	}

	results := make([]*measure.Value, n)
	for i := 0; i < n; i++ {
		elementInputs := make(map[string]*measure.Value, len(inputs))
		for name, v := range inputs {
			elem, err := v.At(elemIndex(v, i))
			if err != nil {
				return nil, err
			}
			elementInputs[name] = elem
		}
		results[i], err = evaluateScalar(prop, elementInputs)
		if err != nil {
			return nil, err
		}
	}
	return measure.Stack(prop.Unit, results...)
}

// dispatchLen reports the vector length Evaluate must dispatch over:
// every argument with more than one element must agree on that length,
// per spec's "vector inputs are handled by scalar dispatch per index."
func dispatchLen(prop Property, inputs map[string]*measure.Value) (int, error) {
	n := 1
	for _, spec := range prop.Args {
		l := inputs[spec.Name].Len()
		switch {
		case l == 1:
		case n == 1:
			n = l
		case l != n:
			return 0, fmt.Errorf("%w: argument %q has %d elements, want 1 or %d", ErrArgumentShapeMismatch, spec.Name, l, n)
		}
	}
	return n, nil
}

// elemIndex is the index to pull from a (possibly length-1, broadcast)
// argument when dispatching the i'th element of a vector evaluation.
func elemIndex(v *measure.Value, i int) int {
	if v.Len() == 1 {
		return 0
	}
	return i
}

// evaluateScalar computes prop for a single set of scalar inputs.
func evaluateScalar(prop Property, inputs map[string]*measure.Value) (*measure.Value, error) {
	magnitudes := make(map[string]float64, len(prop.Args))
	for _, spec := range prop.Args {
		converted, err := inputs[spec.Name].Convert(spec.Unit)
		if err != nil {
			return nil, err
		}
		mag, err := converted.Scalar()
		if err != nil {
			return nil, err
		}
		magnitudes[spec.Name] = mag
	}

	value, err := callWithRetry(prop.Call, magnitudes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendFailed, err)
	}

	contributions := make([]measure.Contribution, 0, len(prop.Args))
	for _, spec := range prop.Args {
		partial := centralDifferencePartial(prop.Call, magnitudes, spec.Name)
		converted, _ := inputs[spec.Name].Convert(spec.Unit)
		contributions = append(contributions, measure.Contribution{Value: converted, Weight: partial})
	}

	return measure.Combine(value, prop.Unit, contributions...)
}

func validateArgs(prop Property, inputs map[string]*measure.Value) error {
	seen := make(map[string]bool, len(inputs))
	for name := range inputs {
		seen[name] = true
	}
	for _, spec := range prop.Args {
		if _, ok := inputs[spec.Name]; !ok {
			return fmt.Errorf("%w: %q", ErrMissingArgument, spec.Name)
		}
		delete(seen, spec.Name)
	}
	for name := range seen {
		return fmt.Errorf("%w: %q", ErrUnexpectedArgument, name)
	}
	return nil
}

// callWithRetry wraps the backend call with a bounded exponential
// backoff, since the property backend is an external collaborator that
// may be momentarily unavailable (a networked property service, a
// subprocess-based solver, etc).
func callWithRetry(call func(map[string]float64) (float64, error), args map[string]float64) (float64, error) {
	var result float64
	operation := func() error {
		v, err := call(args)
		if err != nil {
			return err
		}
		result = v
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 2 * time.Second
	err := backoff.Retry(operation, b)
	return result, err
}

// centralDifferencePartial computes ∂Call/∂args[name] at the given point
// using a relative central difference, via gonum/diff/fd.
func centralDifferencePartial(call func(map[string]float64) (float64, error), args map[string]float64, name string) float64 {
	x0 := args[name]
	f := func(x float64) float64 {
		trial := make(map[string]float64, len(args))
		for k, v := range args {
			trial[k] = v
		}
		trial[name] = x
		v, err := call(trial)
		if err != nil {
			return args[name] // neutral fallback; a failing perturbation shouldn't crash the whole derivative
		}
		return v
	}
	step := relativeStep * absOrOne(x0)
	return fd.Derivative(f, x0, &fd.Settings{
		Formula: fd.Central,
		Step:    step,
	})
}

func absOrOne(x float64) float64 {
	if x < 0 {
		x = -x
	}
	if x == 0 {
		return 1
	}
	return x
}
