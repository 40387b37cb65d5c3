// Copyright © 2026 the measure authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package measure represents physical measurements as values carrying a
// magnitude (scalar or vector), a symbolic unit (package unit), and a
// standard uncertainty that is propagated through arithmetic via a
// dependency graph rather than recomputed from scratch at every step.
//
// Every element of every Value depends on some set of independent
// ("leaf") measurements with known partial derivatives; a leaf depends
// on only itself, with coefficient 1. Uncertainty is always derived from
// that graph plus any registered covariances (RegisterCovariance), never
// stored directly on a derived Value.
package measure

import (
	"fmt"
	"math"
	"sort"

	"github.com/scimeasure/measure/unit"
)

// element is one scalar component of a Value.
type element struct {
	magnitude float64
	// dependsOn maps a leaf's handle to ∂(this element, expressed in the
	// owning Value's unit)/∂(that leaf, expressed in the leaf's own
	// native unit). A leaf element carries exactly one entry, itself,
	// with coefficient 1. A constant carries none.
	//
	// This map is never mutated after an element is built; every
	// operation that needs a different map builds a fresh one.
	dependsOn map[LeafID]float64
}

// Value is a measurement: one or more magnitudes sharing a single unit,
// each with its own uncertainty and dependency graph.
type Value struct {
	unit       unit.Unit
	elems      []element
	isConstant bool
}

// New constructs a vector (or, with a single element, scalar) leaf
// measurement. uncert must either be nil (zero uncertainty throughout),
// have one element (broadcast to every magnitude), or match magnitude's
// length exactly.
func New(magnitude []float64, unitText string, uncert []float64) (*Value, error) {
	u, err := unit.Parse(unitText)
	if err != nil {
		return nil, err
	}
	if len(magnitude) == 0 {
		return nil, fmt.Errorf("%w: a value must have at least one element", ErrShapeMismatch)
	}
	sig, err := broadcastUncert(uncert, len(magnitude))
	if err != nil {
		return nil, err
	}

	elems := make([]element, len(magnitude))
	for i, m := range magnitude {
		if sig[i] < 0 {
			return nil, fmt.Errorf("%w: uncertainty must be non-negative", ErrShapeMismatch)
		}
		id := newLeaf(sig[i])
		elems[i] = element{magnitude: m, dependsOn: map[LeafID]float64{id: 1}}
	}
	return &Value{unit: u, elems: elems}, nil
}

// NewScalar is New for a single magnitude.
func NewScalar(magnitude float64, unitText string, uncert float64) (*Value, error) {
	return New([]float64{magnitude}, unitText, []float64{uncert})
}

// NewConstant builds an exactly-known value: it never enters the
// dependency graph and so never contributes uncertainty to anything
// computed from it, unlike a leaf measurement with zero uncertainty
// (which is still tracked, in case it is later revised).
func NewConstant(magnitude []float64, unitText string) (*Value, error) {
	u, err := unit.Parse(unitText)
	if err != nil {
		return nil, err
	}
	if len(magnitude) == 0 {
		return nil, fmt.Errorf("%w: a value must have at least one element", ErrShapeMismatch)
	}
	elems := make([]element, len(magnitude))
	for i, m := range magnitude {
		elems[i] = element{magnitude: m, dependsOn: map[LeafID]float64{}}
	}
	return &Value{unit: u, elems: elems, isConstant: true}, nil
}

// NewConstantScalar is NewConstant for a single magnitude.
func NewConstantScalar(magnitude float64, unitText string) (*Value, error) {
	return NewConstant([]float64{magnitude}, unitText)
}

func broadcastUncert(uncert []float64, n int) ([]float64, error) {
	switch {
	case uncert == nil:
		return make([]float64, n), nil
	case len(uncert) == n:
		return uncert, nil
	case len(uncert) == 1:
		out := make([]float64, n)
		for i := range out {
			out[i] = uncert[0]
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %d uncertainties for %d magnitudes", ErrShapeMismatch, len(uncert), n)
	}
}

// Len is the number of elements in v.
func (v *Value) Len() int { return len(v.elems) }

// Unit is v's unit.
func (v *Value) Unit() unit.Unit { return v.unit }

// IsConstant reports whether v was built with NewConstant.
func (v *Value) IsConstant() bool { return v.isConstant }

// Magnitudes returns a copy of v's raw magnitudes.
func (v *Value) Magnitudes() []float64 {
	out := make([]float64, len(v.elems))
	for i, e := range v.elems {
		out[i] = e.magnitude
	}
	return out
}

// Scalar returns v's single magnitude, failing if v has more than one
// element.
func (v *Value) Scalar() (float64, error) {
	if len(v.elems) != 1 {
		return 0, fmt.Errorf("%w: value has %d elements, not 1", ErrShapeMismatch, len(v.elems))
	}
	return v.elems[0].magnitude, nil
}

// Uncertainties returns the standard uncertainty of each element,
// reduced from its dependency graph and any registered covariances.
func (v *Value) Uncertainties() []float64 {
	out := make([]float64, len(v.elems))
	for i, e := range v.elems {
		out[i] = uncertaintyOf(e)
	}
	return out
}

// Uncertainty is Uncertainties for a single-element value.
func (v *Value) Uncertainty() (float64, error) {
	if len(v.elems) != 1 {
		return 0, fmt.Errorf("%w: value has %d elements, not 1", ErrShapeMismatch, len(v.elems))
	}
	return uncertaintyOf(v.elems[0]), nil
}

func uncertaintyOf(e element) float64 {
	if len(e.dependsOn) == 0 {
		return 0
	}
	ids := make([]LeafID, 0, len(e.dependsOn))
	for id := range e.dependsOn {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var variance float64
	for _, id := range ids {
		p := e.dependsOn[id]
		s := sigmaOf(id)
		variance += p * p * s * s
	}
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			pi, pj := e.dependsOn[ids[i]], e.dependsOn[ids[j]]
			cov := covarianceOf(ids[i], ids[j])
			if cov != 0 {
				variance += 2 * pi * pj * cov
			}
		}
	}
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}

// At returns the i'th element of v as its own single-element Value. The
// returned value shares its dependency graph with v; since dependency
// maps are never mutated in place, this is safe.
func (v *Value) At(i int) (*Value, error) {
	if i < 0 || i >= len(v.elems) {
		return nil, ErrIndexOutOfRange
	}
	return &Value{unit: v.unit, elems: []element{v.elems[i]}, isConstant: v.isConstant}, nil
}

// Convert returns v expressed in unitText, rescaling every element's
// magnitude and every dependency coefficient accordingly. It fails if
// the target unit does not share v's SI base.
func (v *Value) Convert(unitText string) (*Value, error) {
	target, err := unit.Parse(unitText)
	if err != nil {
		return nil, err
	}
	return v.ConvertTo(target)
}

// ConvertTo is Convert taking an already-parsed unit.
func (v *Value) ConvertTo(target unit.Unit) (*Value, error) {
	conv, err := unit.Converter(v.unit, target)
	if err != nil {
		return nil, err
	}
	elems := make([]element, len(v.elems))
	for i, e := range v.elems {
		dep := make(map[LeafID]float64, len(e.dependsOn))
		for id, p := range e.dependsOn {
			dep[id] = p * conv.Scale()
		}
		elems[i] = element{magnitude: conv.Value(e.magnitude), dependsOn: dep}
	}
	return &Value{unit: target, elems: elems, isConstant: v.isConstant}, nil
}
