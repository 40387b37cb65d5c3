// Copyright © 2026 the measure authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fluidprop

import (
	"errors"
	"math"
	"testing"

	"github.com/scimeasure/measure"
)

func TestEvaluateWaterDensity(t *testing.T) {
	reg := NewRegistry(Water(), Air(), MEG())

	temp, _ := measure.NewScalar(293.15, "K", 0.1)
	pressure, _ := measure.NewScalar(101325, "Pa", 10)

	v, err := reg.Evaluate("water", "density", map[string]*measure.Value{
		"T": temp,
		"P": pressure,
	})
	if err != nil {
		t.Fatal(err)
	}
	mag, _ := v.Scalar()
	if math.Abs(mag-998) > 5 {
		t.Errorf("density = %v, want ~998 kg/m3", mag)
	}
	u, _ := v.Uncertainty()
	if u <= 0 {
		t.Errorf("density uncertainty = %v, want > 0 given nonzero input uncertainty", u)
	}
}

func TestEvaluateMissingArgument(t *testing.T) {
	reg := NewRegistry(Water())
	temp, _ := measure.NewScalar(293.15, "K", 0)
	_, err := reg.Evaluate("water", "density", map[string]*measure.Value{"T": temp})
	if !errors.Is(err, ErrMissingArgument) {
		t.Errorf("error = %v, want ErrMissingArgument", err)
	}
}

func TestEvaluateUnexpectedArgument(t *testing.T) {
	reg := NewRegistry(Water())
	temp, _ := measure.NewScalar(293.15, "K", 0)
	pressure, _ := measure.NewScalar(101325, "Pa", 0)
	conc, _ := measure.NewScalar(0.5, "1", 0)
	_, err := reg.Evaluate("water", "density", map[string]*measure.Value{
		"T": temp, "P": pressure, "C": conc,
	})
	if !errors.Is(err, ErrUnexpectedArgument) {
		t.Errorf("error = %v, want ErrUnexpectedArgument", err)
	}
}

func TestEvaluateUnknownFluid(t *testing.T) {
	reg := NewRegistry(Water())
	temp, _ := measure.NewScalar(293.15, "K", 0)
	_, err := reg.Evaluate("nitrogen", "density", map[string]*measure.Value{"T": temp})
	if !errors.Is(err, ErrUnknownFluid) {
		t.Errorf("error = %v, want ErrUnknownFluid", err)
	}
}

func TestEvaluateVectorDispatch(t *testing.T) {
	reg := NewRegistry(Water())
	temp, _ := measure.New([]float64{283.15, 293.15, 303.15}, "K", []float64{0.1, 0.1, 0.1})
	pressure, _ := measure.NewScalar(101325, "Pa", 0)

	v, err := reg.Evaluate("water", "density", map[string]*measure.Value{
		"T": temp,
		"P": pressure,
	})
	if err != nil {
		t.Fatal(err)
	}
	if v.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", v.Len())
	}
	mags := v.Magnitudes()
	for i, m := range mags {
		if math.Abs(m-998) > 5 {
			t.Errorf("density[%d] = %v, want ~998 kg/m3", i, m)
		}
	}
	if mags[0] == mags[1] || mags[1] == mags[2] {
		t.Error("expected density to vary with the per-index temperature")
	}
	for i, u := range v.Uncertainties() {
		if u <= 0 {
			t.Errorf("density[%d] uncertainty = %v, want > 0", i, u)
		}
	}
}

func TestEvaluateVectorShapeMismatch(t *testing.T) {
	reg := NewRegistry(Water())
	temp, _ := measure.New([]float64{283.15, 293.15}, "K", nil)
	pressure, _ := measure.New([]float64{101325, 101325, 101325}, "Pa", nil)
	_, err := reg.Evaluate("water", "density", map[string]*measure.Value{
		"T": temp,
		"P": pressure,
	})
	if !errors.Is(err, ErrArgumentShapeMismatch) {
		t.Errorf("error = %v, want ErrArgumentShapeMismatch", err)
	}
}

func TestEvaluateMEGThreeArgs(t *testing.T) {
	reg := NewRegistry(MEG())
	temp, _ := measure.NewScalar(280, "K", 0.2)
	pressure, _ := measure.NewScalar(101325, "Pa", 0)
	conc, _ := measure.NewScalar(0.4, "1", 0.01)
	v, err := reg.Evaluate("MEG", "density", map[string]*measure.Value{
		"T": temp, "P": pressure, "C": conc,
	})
	if err != nil {
		t.Fatal(err)
	}
	mag, _ := v.Scalar()
	if mag <= 0 {
		t.Errorf("MEG density = %v, want > 0", mag)
	}
}
