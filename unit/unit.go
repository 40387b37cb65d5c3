// Copyright © 2026 the measure authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package unit

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Sentinel errors for the taxonomy this package detects. Callers that
// need to distinguish a failure reason should use errors.Is against
// these rather than matching on message text.
var (
	ErrUnknownUnitSymbol     = errors.New("unit: unknown unit symbol")
	ErrUnknownPrefix         = errors.New("unit: unknown prefix")
	ErrUnitParseError        = errors.New("unit: parse error")
	ErrIncompatibleUnits     = errors.New("unit: incompatible units")
	ErrNonIntegerPowerOfUnit = errors.New("unit: non-integer power of unit")
)

// Atom is a single (base symbol, prefix, delta-tag) triple. Atoms with
// different prefixes on the same base symbol are distinct and do not
// cancel against each other.
type Atom struct {
	Base   string
	Prefix string
	// Delta marks a temperature atom as a difference (no affine offset).
	// It is never present in user-typed text; it is introduced by the
	// auto-Δ rule for compound units and by Subtractable for the result
	// of subtracting two identical absolute temperatures.
	Delta bool
}

// Unit is the canonical form of a unit expression: a map from atom to
// its (non-zero) signed integer exponent, positive for the numerator and
// negative for the denominator.
type Unit struct {
	exps map[Atom]int
}

// Dimensionless returns the canonical dimensionless unit "1".
func Dimensionless() Unit {
	return Unit{}
}

// IsDimensionless reports whether u carries no dimension.
func (u Unit) IsDimensionless() bool {
	return len(u.exps) == 0
}

func cloneExps(m map[Atom]int) map[Atom]int {
	out := make(map[Atom]int, len(m))
	for k, v := range m {
		if v != 0 {
			out[k] = v
		}
	}
	return out
}

// normalizeDelta applies the auto-Δ rule in place: in a multi-atom unit,
// every absolute-temperature atom is rewritten as its Δ-tagged form,
// because offsets are only meaningful for single-atom absolute
// temperatures (§4.2).
func normalizeDelta(exps map[Atom]int) {
	if len(exps) <= 1 {
		return
	}
	var toRemove []Atom
	additions := map[Atom]int{}
	for a, e := range exps {
		if a.Delta {
			continue
		}
		base, ok := registry[a.Base]
		if !ok || !base.temperature {
			continue
		}
		toRemove = append(toRemove, a)
		da := a
		da.Delta = true
		additions[da] += e
	}
	for _, a := range toRemove {
		delete(exps, a)
	}
	for a, e := range additions {
		exps[a] += e
		if exps[a] == 0 {
			delete(exps, a)
		}
	}
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// parseAtom parses a single atom's text (no '-' or '/') into its base
// symbol, prefix, and exponent.
func parseAtom(s string) (Atom, int, error) {
	if s == "" {
		return Atom{}, 0, fmt.Errorf("%w: empty unit atom", ErrUnitParseError)
	}
	if s == "1" {
		return Atom{Base: "1"}, 1, nil
	}

	i := len(s)
	for i > 0 && isDigit(s[i-1]) {
		i--
	}
	symbol, digits := s[:i], s[i:]

	exp := 1
	if digits != "" {
		n, err := strconv.Atoi(digits)
		if err != nil || n <= 0 {
			return Atom{}, 0, fmt.Errorf("%w: bad exponent in %q", ErrUnitParseError, s)
		}
		exp = n
	}
	if symbol == "" {
		return Atom{}, 0, fmt.Errorf("%w: %q has no unit symbol", ErrUnitParseError, s)
	}
	for j := 0; j < len(symbol); j++ {
		if isDigit(symbol[j]) {
			return Atom{}, 0, fmt.Errorf("%w: an exponent must trail the unit symbol in %q", ErrUnitParseError, s)
		}
	}

	if base, ok := registry[symbol]; ok {
		if symbol == "1" && exp != 1 {
			return Atom{}, 0, fmt.Errorf("%w: the dimensionless unit cannot carry an exponent", ErrUnitParseError)
		}
		_ = base
		return Atom{Base: symbol}, exp, nil
	}

	prefixRune, size := utf8.DecodeRuneInString(symbol)
	prefix := string(prefixRune)
	rest := symbol[size:]
	if rest == "1" {
		return Atom{}, 0, fmt.Errorf("%w: the dimensionless unit cannot carry a prefix", ErrUnitParseError)
	}
	base, ok := registry[rest]
	if !ok {
		return Atom{}, 0, fmt.Errorf("%w: %q", ErrUnknownUnitSymbol, symbol)
	}
	if _, ok := prefixes[prefix]; !ok {
		return Atom{}, 0, fmt.Errorf("%w: %q", ErrUnknownPrefix, prefix)
	}
	if base.noPrefix {
		return Atom{}, 0, fmt.Errorf("%w: %q cannot carry a prefix", ErrUnitParseError, rest)
	}
	return Atom{Base: rest, Prefix: prefix}, exp, nil
}

func splitAtomList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "-")
}

// Parse parses a textual unit expression into its canonical form.
// See spec §4.2 for the grammar.
func Parse(text string) (Unit, error) {
	text = strings.ReplaceAll(text, " ", "")
	if text == "" {
		text = "1"
	}

	parts := strings.Split(text, "/")
	if len(parts) > 2 {
		return Unit{}, fmt.Errorf("%w: a unit can only have a single '/'", ErrUnitParseError)
	}

	exps := map[Atom]int{}
	for _, atomText := range splitAtomList(parts[0]) {
		a, e, err := parseAtom(atomText)
		if err != nil {
			return Unit{}, err
		}
		if a.Base == "1" {
			continue
		}
		exps[a] += e
	}
	if len(parts) == 2 {
		for _, atomText := range splitAtomList(parts[1]) {
			a, e, err := parseAtom(atomText)
			if err != nil {
				return Unit{}, err
			}
			if a.Base == "1" {
				continue
			}
			exps[a] -= e
		}
	}

	for a, e := range exps {
		if e == 0 {
			delete(exps, a)
		}
	}
	normalizeDelta(exps)
	return Unit{exps: exps}, nil
}

// MustParse is like Parse but panics on error; useful for package-level
// literals in tests and examples.
func MustParse(text string) Unit {
	u, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return u
}

// Equal reports whether a and b have the same canonical form. Map
// equality already ignores ordering, satisfying "equality modulo
// commutativity".
func Equal(a, b Unit) bool {
	if len(a.exps) != len(b.exps) {
		return false
	}
	for k, v := range a.exps {
		if b.exps[k] != v {
			return false
		}
	}
	return true
}

// Multiply concatenates a and b's atoms, cancelling matching atoms
// (same base and prefix) between numerator and denominator.
func Multiply(a, b Unit) Unit {
	out := cloneExps(a.exps)
	for k, v := range b.exps {
		out[k] += v
		if out[k] == 0 {
			delete(out, k)
		}
	}
	normalizeDelta(out)
	return Unit{exps: out}
}

// Divide is equivalent to Multiply(a, Power(b, -1)).
func Divide(a, b Unit) Unit {
	out := cloneExps(a.exps)
	for k, v := range b.exps {
		out[k] -= v
		if out[k] == 0 {
			delete(out, k)
		}
	}
	normalizeDelta(out)
	return Unit{exps: out}
}

// Power raises u to the integer power n; a negative n inverts u.
func Power(u Unit, n int) Unit {
	if n == 0 {
		return Dimensionless()
	}
	out := make(map[Atom]int, len(u.exps))
	for k, v := range u.exps {
		out[k] = v * n
	}
	normalizeDelta(out)
	return Unit{exps: out}
}

// Root returns u raised to the power 1/k, succeeding only when every
// exponent of u divides evenly by k.
func Root(u Unit, k int) (Unit, error) {
	if k <= 0 {
		return Unit{}, fmt.Errorf("%w: root index must be positive", ErrNonIntegerPowerOfUnit)
	}
	out := make(map[Atom]int, len(u.exps))
	for a, e := range u.exps {
		if e%k != 0 {
			return Unit{}, fmt.Errorf("%w: exponent %d of %s is not divisible by %d", ErrNonIntegerPowerOfUnit, e, a.Base, k)
		}
		out[a] = e / k
	}
	normalizeDelta(out)
	return Unit{exps: out}, nil
}

func siBaseOf(u Unit) siDims {
	out := siDims{}
	for a, e := range u.exps {
		base := registry[a.Base]
		for dim, p := range base.dims {
			out[dim] += p * e
			if out[dim] == 0 {
				delete(out, dim)
			}
		}
	}
	return out
}

func siBaseEqual(a, b Unit) bool {
	da, db := siBaseOf(a), siBaseOf(b)
	if len(da) != len(db) {
		return false
	}
	for k, v := range da {
		if db[k] != v {
			return false
		}
	}
	return true
}

// singletonTemperature reports whether u is exactly one temperature atom
// raised to the first power, returning that atom.
func singletonTemperature(u Unit) (Atom, bool) {
	if len(u.exps) != 1 {
		return Atom{}, false
	}
	for a, e := range u.exps {
		if e != 1 {
			return Atom{}, false
		}
		base, ok := registry[a.Base]
		if !ok || !base.temperature {
			return Atom{}, false
		}
		return a, true
	}
	return Atom{}, false
}

// Addable reports whether a and b may be added, and if so the unit of
// the result (spec §4.2).
func Addable(a, b Unit) (bool, Unit) {
	if Equal(a, b) {
		return true, a
	}
	if atomA, okA := singletonTemperature(a); okA {
		if atomB, okB := singletonTemperature(b); okB && atomA.Base == atomB.Base && atomA.Delta != atomB.Delta {
			if atomA.Delta {
				return true, b
			}
			return true, a
		}
	}
	if siBaseEqual(a, b) {
		return true, a
	}
	return false, Unit{}
}

// Subtractable reports whether b may be subtracted from a, and if so the
// unit of the result. Subtracting two identical absolute temperatures
// yields the Δ-tagged difference unit.
func Subtractable(a, b Unit) (bool, Unit) {
	if Equal(a, b) {
		if atom, ok := singletonTemperature(a); ok && !atom.Delta {
			delta := atom
			delta.Delta = true
			return true, Unit{exps: map[Atom]int{delta: 1}}
		}
		return true, a
	}
	if atomA, okA := singletonTemperature(a); okA {
		if atomB, okB := singletonTemperature(b); okB && atomA.Base == atomB.Base && atomA.Delta != atomB.Delta {
			if atomA.Delta {
				return true, b
			}
			return true, a
		}
	}
	if siBaseEqual(a, b) {
		return true, a
	}
	return false, Unit{}
}

// Conversion is an affine map between two units sharing an SI base.
type Conversion struct {
	a affine
}

// Scale is the multiplicative factor of the conversion.
func (c Conversion) Scale() float64 { return c.a.scale }

// Value converts a magnitude, applying the offset (meaningful only for
// single-atom absolute-temperature conversions).
func (c Conversion) Value(x float64) float64 { return c.a.apply(x, true) }

// Magnitude converts an uncertainty or derivative: scale only, never
// offset.
func (c Conversion) Magnitude(x float64) float64 { return c.a.apply(x, false) }

func conversionToSI(u Unit) affine {
	total := affine{scale: 1}
	for a, exp := range u.exps {
		base := registry[a.Base]
		conv := base.toSI
		if a.Prefix != "" {
			conv.scale *= prefixes[a.Prefix]
		}
		if a.Delta {
			conv.offset = 0
		}
		if exp < 0 {
			conv = conv.invert()
			exp = -exp
		}
		for i := 0; i < exp; i++ {
			total = total.compose(conv)
		}
	}
	return total
}

// Converter builds the affine conversion from unit "from" to unit "to".
// It requires that from and to share an SI base.
func Converter(from, to Unit) (Conversion, error) {
	if !siBaseEqual(from, to) {
		return Conversion{}, fmt.Errorf("%w: cannot convert %s to %s", ErrIncompatibleUnits, from, to)
	}
	toSI := conversionToSI(from)
	fromSI := conversionToSI(to).invert()
	return Conversion{a: toSI.compose(fromSI)}, nil
}

// String renders u in the canonical surface syntax: atom[-atom]*
// optionally followed by /atom[-atom]*, with trailing integer exponents
// and prepended prefixes.
func (u Unit) String() string {
	if len(u.exps) == 0 {
		return "1"
	}
	if len(u.exps) == 1 {
		for a, e := range u.exps {
			if a.Delta && e == 1 {
				return "Δ" + a.Base
			}
		}
	}

	type token struct {
		text string
		key  string
	}
	var numerator, denominator []token
	for a, e := range u.exps {
		s := a.Prefix + a.Base
		if e < 0 {
			if -e != 1 {
				s += strconv.Itoa(-e)
			}
			denominator = append(denominator, token{s, a.Prefix + a.Base})
		} else {
			if e != 1 {
				s += strconv.Itoa(e)
			}
			numerator = append(numerator, token{s, a.Prefix + a.Base})
		}
	}
	sort.Slice(numerator, func(i, j int) bool { return numerator[i].key < numerator[j].key })
	sort.Slice(denominator, func(i, j int) bool { return denominator[i].key < denominator[j].key })

	num := "1"
	if len(numerator) > 0 {
		parts := make([]string, len(numerator))
		for i, t := range numerator {
			parts[i] = t.text
		}
		num = strings.Join(parts, "-")
	}
	if len(denominator) == 0 {
		return num
	}
	parts := make([]string, len(denominator))
	for i, t := range denominator {
		parts[i] = t.text
	}
	return num + "/" + strings.Join(parts, "-")
}
