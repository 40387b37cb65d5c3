// Copyright © 2026 the measure authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package unit

import (
	"errors"
	"testing"
)

func TestParseRoundTrip(t *testing.T) {
	cases := []string{
		"1",
		"m",
		"km",
		"kg-m/s2",
		"m2/s",
		"J/kg-K",
		"L",
		"kL",
		"L2/min2",
	}
	for _, text := range cases {
		u, err := Parse(text)
		if err != nil {
			t.Fatalf("Parse(%q): %v", text, err)
		}
		got := u.String()
		reparsed, err := Parse(got)
		if err != nil {
			t.Fatalf("Parse(%q) round trip reparse: %v", got, err)
		}
		if !Equal(u, reparsed) {
			t.Errorf("Parse(%q).String() = %q, which reparses to a different unit", text, got)
		}
		if reparsed.String() != got {
			t.Errorf("canonical form not stable: %q -> %q -> %q", text, got, reparsed.String())
		}
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		text string
		want error
	}{
		{"q", ErrUnknownUnitSymbol},
		{"zm", ErrUnknownPrefix},
		{"m/s/s", ErrUnitParseError},
		{"1m", ErrUnitParseError},
	}
	for _, c := range cases {
		_, err := Parse(c.text)
		if !errors.Is(err, c.want) {
			t.Errorf("Parse(%q) error = %v, want wrapping %v", c.text, err, c.want)
		}
	}
}

func TestMultiplyDivideCancel(t *testing.T) {
	m := MustParse("m")
	s := MustParse("s")
	mPerS := Multiply(m, Power(s, -1)) // not idiomatic but exercises cancellation math
	back := Multiply(mPerS, s)
	if !Equal(back, m) {
		t.Errorf("(m/s)*s = %s, want m", back)
	}

	km := MustParse("km")
	if Equal(Divide(km, MustParse("km")), Dimensionless()) {
		// ok: same-atom cancellation
	} else {
		t.Errorf("km/km should cancel to dimensionless")
	}
}

func TestPowerAndRoot(t *testing.T) {
	m := MustParse("m")
	m3 := Power(m, 3)
	if m3.String() != "m3" {
		t.Errorf("m^3 = %s, want m3", m3)
	}
	back, err := Root(m3, 3)
	if err != nil {
		t.Fatalf("Root: %v", err)
	}
	if !Equal(back, m) {
		t.Errorf("root3(m3) = %s, want m", back)
	}

	if _, err := Root(MustParse("m2"), 3); !errors.Is(err, ErrNonIntegerPowerOfUnit) {
		t.Errorf("Root(m2, 3) error = %v, want ErrNonIntegerPowerOfUnit", err)
	}
}

func TestAddableTemperature(t *testing.T) {
	k := MustParse("K")
	ok, result := Subtractable(k, k)
	if !ok {
		t.Fatal("K - K should be subtractable")
	}
	if result.String() != "ΔK" {
		t.Errorf("K - K unit = %s, want ΔK", result)
	}

	ok, sum := Addable(result, k)
	if !ok {
		t.Fatal("ΔK + K should be addable")
	}
	if !Equal(sum, k) {
		t.Errorf("ΔK + K = %s, want K", sum)
	}
}

func TestAddableSIBaseEquivalent(t *testing.T) {
	n := MustParse("N")
	kgms2 := MustParse("kg-m/s2")
	ok, _ := Addable(n, kgms2)
	if !ok {
		t.Errorf("N and kg-m/s2 share an SI base and should be addable")
	}
}

func TestConverterCelsiusToKelvin(t *testing.T) {
	c, err := Converter(MustParse("C"), MustParse("K"))
	if err != nil {
		t.Fatal(err)
	}
	got := c.Value(0)
	if got < 273.149 || got > 273.151 {
		t.Errorf("0 C in K = %v, want 273.15", got)
	}
}

func TestConverterKelvinToFahrenheit(t *testing.T) {
	c, err := Converter(MustParse("K"), MustParse("F"))
	if err != nil {
		t.Fatal(err)
	}
	got := c.Value(273.15)
	if got < 31.999 || got > 32.001 {
		t.Errorf("273.15 K in F = %v, want 32", got)
	}
}

func TestConverterIncompatible(t *testing.T) {
	_, err := Converter(MustParse("K"), MustParse("m"))
	if !errors.Is(err, ErrIncompatibleUnits) {
		t.Errorf("Converter(K, m) error = %v, want ErrIncompatibleUnits", err)
	}
}

func TestConverterScaleOnlyForUncertainty(t *testing.T) {
	c, err := Converter(MustParse("km"), MustParse("m"))
	if err != nil {
		t.Fatal(err)
	}
	if got := c.Magnitude(2); got != 2000 {
		t.Errorf("2 km uncertainty in m = %v, want 2000", got)
	}
}
