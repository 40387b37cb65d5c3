// Copyright © 2026 the measure authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package unit implements a small, closed computer-algebra system over
// physical dimensions: parsing textual unit expressions into a canonical
// form, combining them through multiplication, division, integer powers
// and rational roots, and building the affine conversions between units
// that share an SI base.
package unit

import "math"

// Dimension is one of the orthogonal SI base dimensions the registry
// tracks. Only the dimensions actually exercised by a registered unit
// appear in a Unit's SI-base reduction.
type Dimension int

const (
	Length Dimension = iota
	Mass
	Time
	Temperature
	Current
	Angle
)

// siDims is an SI-base decomposition: dimension to integer power. A key
// with power zero is never stored.
type siDims map[Dimension]int

func (d siDims) clone() siDims {
	out := make(siDims, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// affine is a conversion of the form x -> scale*x + offset.
type affine struct {
	scale, offset float64
}

// compose returns the conversion equivalent to applying a then b:
// b(a(x)) = b.scale*(a.scale*x+a.offset) + b.offset.
func (a affine) compose(b affine) affine {
	return affine{scale: a.scale * b.scale, offset: b.scale*a.offset + b.offset}
}

func (a affine) invert() affine {
	return affine{scale: 1 / a.scale, offset: -a.offset / a.scale}
}

func (a affine) apply(x float64, useOffset bool) float64 {
	if useOffset {
		return a.scale*x + a.offset
	}
	return a.scale * x
}

// baseUnit is a single registered, non-decomposable symbol: the atom a
// parsed unit expression is built out of.
type baseUnit struct {
	dims        siDims
	toSI        affine
	temperature bool
	noPrefix    bool
}

// registry is the closed catalogue of recognised base symbols. Unknown
// symbols are rejected by the parser; there is no mechanism to register
// new symbols at runtime, this is process-wide immutable state.
var registry = map[string]baseUnit{
	// length
	"m": {dims: siDims{Length: 1}, toSI: affine{scale: 1}},
	// mass
	"g": {dims: siDims{Mass: 1}, toSI: affine{scale: 0.001}},
	// time
	"s":   {dims: siDims{Time: 1}, toSI: affine{scale: 1}},
	"min": {dims: siDims{Time: 1}, toSI: affine{scale: 60}},
	"h":   {dims: siDims{Time: 1}, toSI: affine{scale: 3600}},
	"yr":  {dims: siDims{Time: 1}, toSI: affine{scale: 31536000}},
	// temperature
	"K": {dims: siDims{Temperature: 1}, toSI: affine{scale: 1}, temperature: true},
	"C": {dims: siDims{Temperature: 1}, toSI: affine{scale: 1, offset: 273.15}, temperature: true},
	"F": {dims: siDims{Temperature: 1}, toSI: affine{scale: 5.0 / 9.0, offset: 273.15 - 32*5.0/9.0}, temperature: true},
	// current
	"A": {dims: siDims{Current: 1}, toSI: affine{scale: 1}},
	// volume (litre; the m3 symbol is simply m raised to the third power
	// through the ordinary exponent grammar, so it needs no registry entry)
	"L": {dims: siDims{Length: 3}, toSI: affine{scale: 0.001}},
	// force
	"N": {dims: siDims{Mass: 1, Length: 1, Time: -2}, toSI: affine{scale: 1}},
	// energy
	"J": {dims: siDims{Mass: 1, Length: 2, Time: -2}, toSI: affine{scale: 1}},
	// power
	"W": {dims: siDims{Mass: 1, Length: 2, Time: -3}, toSI: affine{scale: 1}},
	// pressure
	"Pa":  {dims: siDims{Mass: 1, Length: -1, Time: -2}, toSI: affine{scale: 1}},
	"bar": {dims: siDims{Mass: 1, Length: -1, Time: -2}, toSI: affine{scale: 1e5}},
	// voltage
	"V": {dims: siDims{Mass: 1, Length: 2, Time: -3, Current: -1}, toSI: affine{scale: 1}},
	// frequency
	"Hz": {dims: siDims{Time: -1}, toSI: affine{scale: 1}},
	// angle
	"rad": {dims: siDims{Angle: 1}, toSI: affine{scale: 1}},
	"°":   {dims: siDims{Angle: 1}, toSI: affine{scale: math.Pi / 180}},
	// dimensionless
	"1": {dims: siDims{}, toSI: affine{scale: 1}, noPrefix: true},
}

// prefixes are the recognised SI-prefix multipliers. A prefix combines
// with a base symbol's scale; it never touches the offset.
var prefixes = map[string]float64{
	"µ": 1e-6,
	"m": 1e-3,
	"k": 1e3,
	"M": 1e6,
}
