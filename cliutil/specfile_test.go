// Copyright © 2026 the measure authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cliutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadSpecFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "spec.toml")
	contents := `
[fit_x]
table = "readings"
column = "time"

[fit_y]
table = "readings"
column = "temperature"

[table.readings]
sheet = "Sheet1"
header_row = 0
unit_row = 1
data_row = 2
data_start_col = 0
data_end_col = 2
has_uncertainty = true
uncertainty_col = 2
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	sf, specs, err := loadSpecFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if sf.FitX.Table != "readings" || sf.FitX.Column != "time" {
		t.Errorf("FitX = %+v, want table readings column time", sf.FitX)
	}
	spec, ok := specs["readings"]
	if !ok {
		t.Fatal("expected a \"readings\" spec")
	}
	if spec.Sheet != "Sheet1" || spec.DataEndCol != 2 || !spec.HasUncertainty || spec.UncertaintyCol != 2 {
		t.Errorf("unexpected spec: %+v", spec)
	}
}

func TestParseArg(t *testing.T) {
	name, v, err := parseArg("T=293.15,K")
	if err != nil {
		t.Fatal(err)
	}
	if name != "T" {
		t.Errorf("name = %q, want T", name)
	}
	mag, _ := v.Scalar()
	if mag != 293.15 {
		t.Errorf("magnitude = %v, want 293.15", mag)
	}
	if _, _, err := parseArg("bad"); err == nil {
		t.Error("expected error for malformed arg")
	}
}
