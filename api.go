// Copyright © 2026 the measure authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package measure

import (
	"fmt"

	"github.com/scimeasure/measure/unit"
)

// DependenciesOf returns a copy of v's dependency graph: for a
// single-element value, the partial derivative of v with respect to
// every leaf measurement it was (directly or transitively) built from.
// Packages outside measure that need to propagate uncertainty through
// their own numerical procedures (solve's implicit function theorem,
// for one) use this instead of recomputing the graph by hand.
func DependenciesOf(v *Value) map[LeafID]float64 {
	if len(v.elems) == 0 {
		return map[LeafID]float64{}
	}
	out := make(map[LeafID]float64, len(v.elems[0].dependsOn))
	for id, p := range v.elems[0].dependsOn {
		out[id] = p
	}
	return out
}

// WithDependencies returns a copy of the single-element value v with its
// dependency graph replaced by dep. It is used by callers (solve's
// implicit-function-theorem propagation) that derive a value's
// sensitivities through a procedure measure's own arithmetic can't
// express directly.
func WithDependencies(v *Value, dep map[LeafID]float64) *Value {
	if len(v.elems) != 1 {
		panic(fmt.Sprintf("measure: WithDependencies requires a single-element value, got %d", len(v.elems)))
	}
	cp := make(map[LeafID]float64, len(dep))
	for id, p := range dep {
		cp[id] = p
	}
	return &Value{unit: v.unit, elems: []element{{magnitude: v.elems[0].magnitude, dependsOn: cp}}}
}

// Contribution is one term of a Combine call: a value whose first
// element contributes to a new result with the given chain-rule weight.
type Contribution struct {
	Value  *Value
	Weight float64
}

// Combine builds a new single-element value out of a raw magnitude and
// unit text, with a dependency graph assembled from a set of weighted
// contributions — the general form of the chain rule this package's own
// arithmetic uses internally, exposed for adapters (fluidprop's
// central-difference partials, for one) that compute a result through a
// procedure measure's own operators can't express directly.
func Combine(magnitude float64, unitText string, contributions ...Contribution) (*Value, error) {
	u, err := unit.Parse(unitText)
	if err != nil {
		return nil, err
	}
	dep := map[LeafID]float64{}
	for _, c := range contributions {
		if c.Value == nil || len(c.Value.elems) == 0 {
			continue
		}
		addContribution(dep, c.Value.elems[0], c.Weight)
	}
	return &Value{unit: u, elems: []element{{magnitude: magnitude, dependsOn: dep}}}, nil
}

// Stack concatenates single-element values into one multi-element Value
// expressed in unitText, preserving each element's own dependency graph
// (so correlations that already exist between the inputs, via shared
// leaves or RegisterCovariance, carry over into the result). Used by
// adapters (fluidprop's per-index vector dispatch, for one) that build a
// vector result one scalar call at a time.
func Stack(unitText string, values ...*Value) (*Value, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: Stack requires at least one value", ErrShapeMismatch)
	}
	u, err := unit.Parse(unitText)
	if err != nil {
		return nil, err
	}
	elems := make([]element, len(values))
	for i, v := range values {
		if len(v.elems) != 1 {
			return nil, fmt.Errorf("%w: Stack requires single-element values, element %d has %d", ErrShapeMismatch, i, len(v.elems))
		}
		conv, err := v.ConvertTo(u)
		if err != nil {
			return nil, err
		}
		elems[i] = conv.elems[0]
	}
	return &Value{unit: u, elems: elems}, nil
}
