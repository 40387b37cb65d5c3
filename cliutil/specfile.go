// Copyright © 2026 the measure authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cliutil

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/scimeasure/measure/ingest"
)

// specFile is the declarative, structured layout of an ingest job: the
// scalar flags above select which files to operate on, but the shape
// of each sheet's table is naturally nested data, so it is decoded
// directly from TOML instead of being flattened into flags.
type specFile struct {
	Tables map[string]tableSpec `toml:"table"`
	// FitX/FitY name which table, by key into Tables, and which column
	// within it, to use as the independent/dependent variable of a fit.
	FitX fitColumn `toml:"fit_x"`
	FitY fitColumn `toml:"fit_y"`
}

type fitColumn struct {
	Table  string `toml:"table"`
	Column string `toml:"column"`
}

type tableSpec struct {
	Sheet          string `toml:"sheet"`
	HeaderRow      int    `toml:"header_row"`
	UnitRow        int    `toml:"unit_row"`
	DataRow        int    `toml:"data_row"`
	DataStartCol   int    `toml:"data_start_col"`
	DataEndCol     int    `toml:"data_end_col"`
	HasUncertainty bool   `toml:"has_uncertainty"`
	UncertaintyCol int    `toml:"uncertainty_col"`
}

// loadSpecFile decodes a TOML spec file into the ingest package's own
// SheetSpec type.
func loadSpecFile(path string) (*specFile, map[string]ingest.SheetSpec, error) {
	var sf specFile
	if _, err := toml.DecodeFile(path, &sf); err != nil {
		return nil, nil, fmt.Errorf("cliutil: decoding spec file %s: %w", path, err)
	}
	specs := make(map[string]ingest.SheetSpec, len(sf.Tables))
	for key, t := range sf.Tables {
		specs[key] = ingest.SheetSpec{
			Sheet:          t.Sheet,
			HeaderRow:      t.HeaderRow,
			UnitRow:        t.UnitRow,
			DataRow:        t.DataRow,
			DataStartCol:   t.DataStartCol,
			DataEndCol:     t.DataEndCol,
			HasUncertainty: t.HasUncertainty,
			UncertaintyCol: t.UncertaintyCol,
		}
	}
	return &sf, specs, nil
}
