// Copyright © 2026 the measure authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package measure

import "errors"

// Sentinel errors returned by this package. Wrap with fmt.Errorf("%w: ...")
// at the call site and match with errors.Is.
var (
	ErrShapeMismatch                  = errors.New("measure: shape mismatch")
	ErrNotAddable                     = errors.New("measure: units are not addable")
	ErrNotSubtractable                = errors.New("measure: units are not subtractable")
	ErrDivideByZero                   = errors.New("measure: division by zero magnitude")
	ErrDomain                         = errors.New("measure: value outside the function's domain")
	ErrNonDimensionlessTranscendental = errors.New("measure: transcendental function requires a dimensionless argument")
	ErrImmutableConstant              = errors.New("measure: cannot mutate a constant value in place")
	ErrIndexOutOfRange                = errors.New("measure: index out of range")
	ErrNotALeaf                       = errors.New("measure: value is not a single independent leaf measurement")
	ErrUnitExponentRequired           = errors.New("measure: exponent operand must be dimensionless")
)
