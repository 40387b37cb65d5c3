// Copyright © 2026 the measure authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package measure

import "sync"

// LeafID identifies one independent ("leaf") measurement: a value that
// was constructed directly, not produced by arithmetic on other values.
// The dependency graph of a derived Value is keyed on LeafID rather than
// on the leaf's own identity, since Go structs carry no identity of
// their own the way a Python object does.
type LeafID int64

var (
	leafMu     sync.Mutex
	nextLeafID LeafID

	sigmaMu sync.RWMutex
	sigma   = map[LeafID]float64{}

	covMu   sync.RWMutex
	covariance = map[[2]LeafID]float64{}
)

// newLeaf allocates a fresh handle and records its standard uncertainty,
// expressed in the leaf's own native unit at the time it was created.
func newLeaf(uncert float64) LeafID {
	leafMu.Lock()
	nextLeafID++
	id := nextLeafID
	leafMu.Unlock()

	sigmaMu.Lock()
	sigma[id] = uncert
	sigmaMu.Unlock()
	return id
}

func sigmaOf(id LeafID) float64 {
	sigmaMu.RLock()
	defer sigmaMu.RUnlock()
	return sigma[id]
}

func covKey(a, b LeafID) [2]LeafID {
	if a < b {
		return [2]LeafID{a, b}
	}
	return [2]LeafID{b, a}
}

func covarianceOf(a, b LeafID) float64 {
	if a == b {
		return 0
	}
	covMu.RLock()
	defer covMu.RUnlock()
	return covariance[covKey(a, b)]
}

// RegisterCovariance records a known covariance between two independent
// leaf measurements, so later uncertainty propagation through any value
// derived from both of them accounts for the correlation (spec §4.1's
// dependency-graph model). Both values must each be a single-element
// leaf measurement (not a derived or constant value, nor a vector).
func RegisterCovariance(a, b *Value, cov float64) error {
	la, err := a.soleLeaf()
	if err != nil {
		return err
	}
	lb, err := b.soleLeaf()
	if err != nil {
		return err
	}
	if la == lb {
		return nil
	}
	covMu.Lock()
	covariance[covKey(la, lb)] = cov
	covMu.Unlock()
	return nil
}

// soleLeaf returns the LeafID of v, if v is exactly one element whose
// dependency graph is a single leaf with unit coefficient 1.
func (v *Value) soleLeaf() (LeafID, error) {
	if len(v.elems) != 1 {
		return 0, ErrNotALeaf
	}
	e := v.elems[0]
	if len(e.dependsOn) != 1 {
		return 0, ErrNotALeaf
	}
	for id, p := range e.dependsOn {
		if p != 1 {
			return 0, ErrNotALeaf
		}
		return id, nil
	}
	return 0, ErrNotALeaf
}
