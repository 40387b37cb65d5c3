// Copyright © 2026 the measure authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package measure

import (
	"fmt"
	"math"

	"github.com/scimeasure/measure/unit"
)

// addContribution folds e's own dependency graph into m, scaled by
// factor (the chain-rule partial of the combining operation with
// respect to e).
func addContribution(m map[LeafID]float64, e element, factor float64) {
	if factor == 0 {
		return
	}
	for id, p := range e.dependsOn {
		m[id] += factor * p
	}
}

func broadcastLen(a, b *Value) (int, error) {
	switch {
	case a.Len() == b.Len():
		return a.Len(), nil
	case a.Len() == 1:
		return b.Len(), nil
	case b.Len() == 1:
		return a.Len(), nil
	default:
		return 0, fmt.Errorf("%w: %d and %d", ErrShapeMismatch, a.Len(), b.Len())
	}
}

func elemAt(v *Value, i int) element {
	if v.Len() == 1 {
		return v.elems[0]
	}
	return v.elems[i]
}

// Add returns a+b, converting b into a's result unit (or vice versa) per
// unit.Addable.
func Add(a, b *Value) (*Value, error) {
	n, err := broadcastLen(a, b)
	if err != nil {
		return nil, err
	}
	ok, resultUnit := unit.Addable(a.unit, b.unit)
	if !ok {
		return nil, fmt.Errorf("%w: %s and %s", ErrNotAddable, a.unit, b.unit)
	}
	convA, err := unit.Converter(a.unit, resultUnit)
	if err != nil {
		return nil, err
	}
	convB, err := unit.Converter(b.unit, resultUnit)
	if err != nil {
		return nil, err
	}

	elems := make([]element, n)
	for i := 0; i < n; i++ {
		ea, eb := elemAt(a, i), elemAt(b, i)
		mag := convA.Value(ea.magnitude) + convB.Value(eb.magnitude)
		dep := map[LeafID]float64{}
		addContribution(dep, ea, convA.Scale())
		addContribution(dep, eb, convB.Scale())
		elems[i] = element{magnitude: mag, dependsOn: dep}
	}
	return &Value{unit: resultUnit, elems: elems}, nil
}

// Sub returns a-b, per unit.Subtractable (which Δ-tags the result of
// subtracting two identical absolute temperatures).
func Sub(a, b *Value) (*Value, error) {
	n, err := broadcastLen(a, b)
	if err != nil {
		return nil, err
	}
	ok, resultUnit := unit.Subtractable(a.unit, b.unit)
	if !ok {
		return nil, fmt.Errorf("%w: %s and %s", ErrNotSubtractable, a.unit, b.unit)
	}
	convA, err := unit.Converter(a.unit, resultUnit)
	if err != nil {
		return nil, err
	}
	convB, err := unit.Converter(b.unit, resultUnit)
	if err != nil {
		return nil, err
	}

	elems := make([]element, n)
	for i := 0; i < n; i++ {
		ea, eb := elemAt(a, i), elemAt(b, i)
		mag := convA.Value(ea.magnitude) - convB.Value(eb.magnitude)
		dep := map[LeafID]float64{}
		addContribution(dep, ea, convA.Scale())
		addContribution(dep, eb, -convB.Scale())
		elems[i] = element{magnitude: mag, dependsOn: dep}
	}
	return &Value{unit: resultUnit, elems: elems}, nil
}

// Mul returns a*b, with the result unit built from unit.Multiply.
func Mul(a, b *Value) (*Value, error) {
	n, err := broadcastLen(a, b)
	if err != nil {
		return nil, err
	}
	resultUnit := unit.Multiply(a.unit, b.unit)

	elems := make([]element, n)
	for i := 0; i < n; i++ {
		ea, eb := elemAt(a, i), elemAt(b, i)
		mag := ea.magnitude * eb.magnitude
		dep := map[LeafID]float64{}
		addContribution(dep, ea, eb.magnitude)
		addContribution(dep, eb, ea.magnitude)
		elems[i] = element{magnitude: mag, dependsOn: dep}
	}
	return &Value{unit: resultUnit, elems: elems}, nil
}

// Div returns a/b, with the result unit built from unit.Divide.
func Div(a, b *Value) (*Value, error) {
	n, err := broadcastLen(a, b)
	if err != nil {
		return nil, err
	}
	resultUnit := unit.Divide(a.unit, b.unit)

	elems := make([]element, n)
	for i := 0; i < n; i++ {
		ea, eb := elemAt(a, i), elemAt(b, i)
		if eb.magnitude == 0 {
			return nil, fmt.Errorf("%w: element %d", ErrDivideByZero, i)
		}
		mag := ea.magnitude / eb.magnitude
		dep := map[LeafID]float64{}
		addContribution(dep, ea, 1/eb.magnitude)
		addContribution(dep, eb, -ea.magnitude/(eb.magnitude*eb.magnitude))
		elems[i] = element{magnitude: mag, dependsOn: dep}
	}
	return &Value{unit: resultUnit, elems: elems}, nil
}

// Pow raises a to exponent, which must itself be dimensionless (a bare
// float exponent promotes via NewConstantScalar(exponent, "1")). Both
// operands' dependency graphs fold into the result: the base through
// v·u^(v−1), the exponent through u^v·ln(u). A dimensioned a takes only
// a scalar exponent that is an integer or the reciprocal of an integer
// dividing every exponent of a's unit (a root, via unit.Root).
func Pow(a, exponent *Value) (*Value, error) {
	if !exponent.unit.IsDimensionless() {
		return nil, fmt.Errorf("%w: got %s", ErrUnitExponentRequired, exponent.unit)
	}
	n, err := broadcastLen(a, exponent)
	if err != nil {
		return nil, err
	}

	var resultUnit unit.Unit
	if a.unit.IsDimensionless() {
		resultUnit = a.unit
	} else {
		v, err := exponent.Scalar()
		if err != nil {
			return nil, fmt.Errorf("%w: a dimensioned base requires a scalar exponent", ErrShapeMismatch)
		}
		if k := int(math.Round(v)); float64(k) == v {
			resultUnit = unit.Power(a.unit, k)
		} else if recip := 1 / v; float64(int(math.Round(recip))) == recip {
			resultUnit, err = unit.Root(a.unit, int(math.Round(recip)))
			if err != nil {
				return nil, err
			}
		} else {
			return nil, fmt.Errorf("%w: cannot raise %s to a non-integer power", unit.ErrNonIntegerPowerOfUnit, a.unit)
		}
	}

	elems := make([]element, n)
	for i := 0; i < n; i++ {
		ea, ev := elemAt(a, i), elemAt(exponent, i)
		mag := math.Pow(ea.magnitude, ev.magnitude)
		dep := map[LeafID]float64{}
		addContribution(dep, ea, ev.magnitude*math.Pow(ea.magnitude, ev.magnitude-1))
		if ea.magnitude > 0 {
			addContribution(dep, ev, mag*math.Log(ea.magnitude))
		}
		elems[i] = element{magnitude: mag, dependsOn: dep}
	}
	return &Value{unit: resultUnit, elems: elems}, nil
}

// Sqrt is Pow(a, 0.5) generalized to carry a's unit, via unit.Root.
func Sqrt(a *Value) (*Value, error) {
	resultUnit, err := unit.Root(a.unit, 2)
	if err != nil {
		return nil, err
	}
	elems := make([]element, len(a.elems))
	for i, ea := range a.elems {
		if ea.magnitude < 0 {
			return nil, fmt.Errorf("%w: sqrt of a negative magnitude", ErrDomain)
		}
		mag := math.Sqrt(ea.magnitude)
		dep := map[LeafID]float64{}
		if mag != 0 {
			addContribution(dep, ea, 0.5/mag)
		}
		elems[i] = element{magnitude: mag, dependsOn: dep}
	}
	return &Value{unit: resultUnit, elems: elems}, nil
}

func requireDimensionless(u unit.Unit) error {
	if !u.IsDimensionless() {
		return fmt.Errorf("%w: %s", ErrNonDimensionlessTranscendental, u)
	}
	return nil
}

// Ln is the natural logarithm of a dimensionless value.
func Ln(a *Value) (*Value, error) {
	if err := requireDimensionless(a.unit); err != nil {
		return nil, err
	}
	elems := make([]element, len(a.elems))
	for i, ea := range a.elems {
		if ea.magnitude <= 0 {
			return nil, fmt.Errorf("%w: ln of a non-positive magnitude", ErrDomain)
		}
		dep := map[LeafID]float64{}
		addContribution(dep, ea, 1/ea.magnitude)
		elems[i] = element{magnitude: math.Log(ea.magnitude), dependsOn: dep}
	}
	return &Value{unit: unit.Dimensionless(), elems: elems}, nil
}

// Log10 is the base-10 logarithm of a dimensionless value.
func Log10(a *Value) (*Value, error) {
	if err := requireDimensionless(a.unit); err != nil {
		return nil, err
	}
	elems := make([]element, len(a.elems))
	for i, ea := range a.elems {
		if ea.magnitude <= 0 {
			return nil, fmt.Errorf("%w: log10 of a non-positive magnitude", ErrDomain)
		}
		dep := map[LeafID]float64{}
		addContribution(dep, ea, 1/(ea.magnitude*math.Ln10))
		elems[i] = element{magnitude: math.Log10(ea.magnitude), dependsOn: dep}
	}
	return &Value{unit: unit.Dimensionless(), elems: elems}, nil
}

// Exp is e raised to a dimensionless value.
func Exp(a *Value) (*Value, error) {
	if err := requireDimensionless(a.unit); err != nil {
		return nil, err
	}
	elems := make([]element, len(a.elems))
	for i, ea := range a.elems {
		mag := math.Exp(ea.magnitude)
		dep := map[LeafID]float64{}
		addContribution(dep, ea, mag)
		elems[i] = element{magnitude: mag, dependsOn: dep}
	}
	return &Value{unit: unit.Dimensionless(), elems: elems}, nil
}

// AddInPlace mutates v to v+other. It fails if v is a constant.
func (v *Value) AddInPlace(other *Value) error { return v.assign(Add(v, other)) }

// SubInPlace mutates v to v-other. It fails if v is a constant.
func (v *Value) SubInPlace(other *Value) error { return v.assign(Sub(v, other)) }

// MulInPlace mutates v to v*other. It fails if v is a constant.
func (v *Value) MulInPlace(other *Value) error { return v.assign(Mul(v, other)) }

// DivInPlace mutates v to v/other. It fails if v is a constant.
func (v *Value) DivInPlace(other *Value) error { return v.assign(Div(v, other)) }

func (v *Value) assign(result *Value, err error) error {
	if v.isConstant {
		return ErrImmutableConstant
	}
	if err != nil {
		return err
	}
	v.unit = result.unit
	v.elems = result.elems
	return nil
}
