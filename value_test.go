// Copyright © 2026 the measure authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package measure

import (
	"errors"
	"math"
	"testing"
)

func approxEqual(t *testing.T, got, want, tol float64, msg string) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %v, want %v", msg, got, want)
	}
}

func TestNewScalarLeafUncertainty(t *testing.T) {
	v, err := NewScalar(10, "m", 0.5)
	if err != nil {
		t.Fatal(err)
	}
	u, err := v.Uncertainty()
	if err != nil {
		t.Fatal(err)
	}
	approxEqual(t, u, 0.5, 1e-12, "leaf uncertainty")
}

func TestConstantHasNoUncertainty(t *testing.T) {
	c, err := NewConstantScalar(2, "1")
	if err != nil {
		t.Fatal(err)
	}
	u, err := c.Uncertainty()
	if err != nil {
		t.Fatal(err)
	}
	approxEqual(t, u, 0, 0, "constant uncertainty")

	if err := c.AddInPlace(c); !errors.Is(err, ErrImmutableConstant) {
		t.Errorf("AddInPlace on constant: got %v, want ErrImmutableConstant", err)
	}
}

func TestAddIndependentUncertainty(t *testing.T) {
	a, _ := NewScalar(3, "m", 0.1)
	b, _ := NewScalar(4, "m", 0.2)
	sum, err := Add(a, b)
	if err != nil {
		t.Fatal(err)
	}
	mag, _ := sum.Scalar()
	approxEqual(t, mag, 7, 1e-12, "sum magnitude")

	u, _ := sum.Uncertainty()
	want := math.Sqrt(0.1*0.1 + 0.2*0.2)
	approxEqual(t, u, want, 1e-12, "sum uncertainty (independent)")
}

func TestAddConvertsUnits(t *testing.T) {
	a, _ := NewScalar(1, "m", 0)
	km, _ := NewScalar(1, "km", 0)
	sum, err := Add(a, km)
	if err != nil {
		t.Fatal(err)
	}
	mag, _ := sum.Scalar()
	approxEqual(t, mag, 1001, 1e-9, "1 m + 1 km in m")
}

func TestSubtractSameMeasurementIsZero(t *testing.T) {
	a, _ := NewScalar(5, "m", 0.1)
	diff, err := Sub(a, a)
	if err != nil {
		t.Fatal(err)
	}
	mag, _ := diff.Scalar()
	approxEqual(t, mag, 0, 1e-12, "x - x magnitude")
	u, _ := diff.Uncertainty()
	approxEqual(t, u, 0, 1e-12, "x - x uncertainty (fully correlated with itself)")
}

func TestSubtractTemperatureYieldsDelta(t *testing.T) {
	t1, _ := NewScalar(300, "K", 0.5)
	t2, _ := NewScalar(295, "K", 0.5)
	diff, err := Sub(t1, t2)
	if err != nil {
		t.Fatal(err)
	}
	if diff.Unit().String() != "ΔK" {
		t.Errorf("unit = %s, want ΔK", diff.Unit())
	}
	mag, _ := diff.Scalar()
	approxEqual(t, mag, 5, 1e-9, "temperature difference")
}

func TestMulUncertaintyPropagation(t *testing.T) {
	a, _ := NewScalar(2, "m", 0.1)
	b, _ := NewScalar(3, "s", 0.2)
	prod, err := Mul(a, b)
	if err != nil {
		t.Fatal(err)
	}
	mag, _ := prod.Scalar()
	approxEqual(t, mag, 6, 1e-12, "product magnitude")
	if prod.Unit().String() != "m-s" {
		t.Errorf("unit = %s, want m-s", prod.Unit())
	}
	u, _ := prod.Uncertainty()
	want := math.Sqrt(math.Pow(3*0.1, 2) + math.Pow(2*0.2, 2))
	approxEqual(t, u, want, 1e-12, "product uncertainty")
}

func TestDivByZero(t *testing.T) {
	a, _ := NewScalar(1, "m", 0)
	zero, _ := NewScalar(0, "s", 0)
	if _, err := Div(a, zero); !errors.Is(err, ErrDivideByZero) {
		t.Errorf("Div by zero: got %v, want ErrDivideByZero", err)
	}
}

func TestDerivedValueFullyCorrelatedWithItself(t *testing.T) {
	// y = x*x should have uncertainty 2*x*sigma_x, not sqrt(2)*x*sigma_x:
	// the two "copies" of x inside the product are perfectly correlated,
	// since they are literally the same leaf.
	x, _ := NewScalar(3, "m", 0.1)
	y, err := Mul(x, x)
	if err != nil {
		t.Fatal(err)
	}
	u, _ := y.Uncertainty()
	approxEqual(t, u, 2*3*0.1, 1e-9, "x*x uncertainty")
}

func TestRegisteredCovariance(t *testing.T) {
	a, _ := NewScalar(10, "m", 1)
	b, _ := NewScalar(20, "m", 2)
	if err := RegisterCovariance(a, b, 0.5); err != nil {
		t.Fatal(err)
	}
	sum, err := Add(a, b)
	if err != nil {
		t.Fatal(err)
	}
	u, _ := sum.Uncertainty()
	want := math.Sqrt(1*1 + 2*2 + 2*0.5)
	approxEqual(t, u, want, 1e-12, "sum uncertainty with covariance")
}

func TestPowAndSqrt(t *testing.T) {
	a, _ := NewScalar(4, "m2", 0.2)
	root, err := Sqrt(a)
	if err != nil {
		t.Fatal(err)
	}
	mag, _ := root.Scalar()
	approxEqual(t, mag, 2, 1e-12, "sqrt magnitude")
	if root.Unit().String() != "m" {
		t.Errorf("sqrt unit = %s, want m", root.Unit())
	}
	u, _ := root.Uncertainty()
	approxEqual(t, u, 0.5/2*0.2, 1e-12, "sqrt uncertainty")

	two, _ := NewConstantScalar(2, "1")
	squared, err := Pow(root, two)
	if err != nil {
		t.Fatal(err)
	}
	mag2, _ := squared.Scalar()
	approxEqual(t, mag2, 4, 1e-9, "round trip pow")
}

func TestPowNonIntegerRejectsDimensioned(t *testing.T) {
	a, _ := NewScalar(4, "m", 0)
	onePointFive, _ := NewConstantScalar(1.5, "1")
	if _, err := Pow(a, onePointFive); err == nil {
		t.Error("Pow(m, 1.5) should fail")
	}
}

func TestPowRejectsUnitfulExponent(t *testing.T) {
	a, _ := NewScalar(4, "1", 0)
	exp, _ := NewScalar(2, "m", 0)
	if _, err := Pow(a, exp); !errors.Is(err, ErrUnitExponentRequired) {
		t.Errorf("Pow with a unitful exponent: got %v, want ErrUnitExponentRequired", err)
	}
}

func TestPowPropagatesExponentUncertainty(t *testing.T) {
	// y = 2^x: dy/dx = y*ln(2), so sigma_y = y*ln(2)*sigma_x.
	base, _ := NewConstantScalar(2, "1")
	x, _ := NewScalar(3, "1", 0.1)
	y, err := Pow(base, x)
	if err != nil {
		t.Fatal(err)
	}
	u, _ := y.Uncertainty()
	mag, _ := y.Scalar()
	approxEqual(t, u, mag*math.Log(2)*0.1, 1e-9, "pow uncertainty from exponent")
}

func TestTranscendentalsRequireDimensionless(t *testing.T) {
	a, _ := NewScalar(4, "m", 0)
	if _, err := Ln(a); !errors.Is(err, ErrNonDimensionlessTranscendental) {
		t.Errorf("Ln(m) error = %v, want ErrNonDimensionlessTranscendental", err)
	}
	d, _ := NewScalar(math.E, "1", 0)
	ln, err := Ln(d)
	if err != nil {
		t.Fatal(err)
	}
	mag, _ := ln.Scalar()
	approxEqual(t, mag, 1, 1e-9, "ln(e)")
}

func TestIndexing(t *testing.T) {
	v, err := New([]float64{1, 2, 3}, "m", []float64{0.1, 0.1, 0.1})
	if err != nil {
		t.Fatal(err)
	}
	second, err := v.At(1)
	if err != nil {
		t.Fatal(err)
	}
	mag, _ := second.Scalar()
	approxEqual(t, mag, 2, 1e-12, "indexed element")

	if _, err := v.At(5); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("out-of-range index: got %v, want ErrIndexOutOfRange", err)
	}
}

func TestConvertRoundTrip(t *testing.T) {
	v, _ := NewScalar(1, "km", 0.01)
	m, err := v.Convert("m")
	if err != nil {
		t.Fatal(err)
	}
	mag, _ := m.Scalar()
	approxEqual(t, mag, 1000, 1e-9, "km to m")
	u, _ := m.Uncertainty()
	approxEqual(t, u, 10, 1e-9, "km to m uncertainty scale")

	back, err := m.Convert("km")
	if err != nil {
		t.Fatal(err)
	}
	mag2, _ := back.Scalar()
	approxEqual(t, mag2, 1, 1e-9, "round trip back to km")
}
