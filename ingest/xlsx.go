// Copyright © 2026 the measure authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ingest reads tabular measurement data out of a spreadsheet:
// a header row naming each column, a unit row below it, and a data
// block below that. An optional uncertainty block of the same column
// width may follow the data columns, either giving one uncertainty
// value per data point (a row per data point) or a full covariance
// matrix per data point (n rows per data point, for n data columns),
// in which case the off-diagonal entries are registered as
// correlations between the corresponding leaves via
// measure.RegisterCovariance. Every data column becomes a vector
// measurement value, so a formula spanning two imported columns
// propagates their uncertainty exactly as it would for any other pair
// of measurement values.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/ctessum/requestcache"
	"github.com/tealeg/xlsx"

	"github.com/scimeasure/measure"
)

// Sentinel errors.
var (
	ErrUnknownSheet      = errors.New("ingest: no sheet with that name")
	ErrRaggedColumn      = errors.New("ingest: data columns do not all have the same number of populated rows")
	ErrRaggedUncertainty = errors.New("ingest: uncertainty block row count matches neither the per-point nor the per-point-covariance layout")
)

// workbookCache avoids re-parsing the same workbook file for every
// sheet ingested out of it.
var workbookCache *requestcache.Cache
var workbookCacheOnce sync.Once

func loadWorkbook(path string) (*xlsx.File, error) {
	workbookCacheOnce.Do(func() {
		workbookCache = requestcache.NewCache(func(ctx context.Context, req interface{}) (interface{}, error) {
			f, err := xlsx.OpenFile(req.(string))
			if err != nil {
				return nil, fmt.Errorf("ingest: opening xlsx file: %v", err)
			}
			return f, nil
		}, runtime.GOMAXPROCS(-1), requestcache.Memory(100))
	})
	r := workbookCache.NewRequest(context.Background(), path, path)
	fI, err := r.Result()
	if err != nil {
		return nil, err
	}
	return fI.(*xlsx.File), nil
}

// SheetSpec describes one rectangular table within one sheet of a
// workbook: a header row, a unit row, a block of data columns, and
// (when UncertaintyCol is set) a same-width block of uncertainty
// columns immediately to its right. Rows and columns are 0-indexed,
// matching xlsx.Sheet.Cell(row, col).
type SheetSpec struct {
	Sheet     string
	HeaderRow int
	UnitRow   int
	DataRow   int // first data row

	DataStartCol int
	DataEndCol   int // exclusive

	// UncertaintyCol is the first column of the uncertainty block, or
	// 0 with HasUncertainty false if the data carries no uncertainty.
	HasUncertainty bool
	UncertaintyCol int
}

// Table is one ingested data block: column name to that column's
// vector measurement value.
type Table map[string]*measure.Value

// Workbook is the result of ingesting one or more tables out of a
// spreadsheet, keyed by the caller's own label for each SheetSpec.
type Workbook map[string]Table

// Read ingests the table described by each entry of specs out of the
// workbook at path, keyed by the same map key in the result.
func Read(path string, specs map[string]SheetSpec) (Workbook, error) {
	f, err := loadWorkbook(path)
	if err != nil {
		return nil, err
	}
	wb := make(Workbook, len(specs))
	for key, spec := range specs {
		table, err := readTable(f, spec)
		if err != nil {
			return nil, fmt.Errorf("ingest: table %q: %w", key, err)
		}
		wb[key] = table
	}
	return wb, nil
}

var headerSanitizer = regexp.MustCompile(`[^a-zA-Z0-9_]+`)

// sanitizeHeader turns a free-text column header into a valid,
// collision-free Go-ish identifier fragment.
func sanitizeHeader(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = headerSanitizer.ReplaceAllString(name, "_")
	name = strings.Trim(name, "_")
	if name == "" {
		return name
	}
	if name[0] >= '0' && name[0] <= '9' {
		name = "_" + name
	}
	return name
}

func readTable(f *xlsx.File, spec SheetSpec) (Table, error) {
	sheet, ok := f.Sheet[spec.Sheet]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSheet, spec.Sheet)
	}

	nCols := spec.DataEndCol - spec.DataStartCol
	headers := make([]string, nCols)
	units := make([]string, nCols)
	for j := 0; j < nCols; j++ {
		headers[j] = sanitizeHeader(sheet.Cell(spec.HeaderRow, spec.DataStartCol+j).Value)
		u := strings.TrimSpace(sheet.Cell(spec.UnitRow, spec.DataStartCol+j).Value)
		if u == "" {
			u = "1"
		}
		units[j] = u
	}
	deduplicateHeaders(headers)

	nPoints, err := countPopulatedRows(sheet, spec.DataRow, spec.DataStartCol, nCols)
	if err != nil {
		return nil, err
	}

	data := make([][]float64, nCols)
	for j := range data {
		data[j] = make([]float64, nPoints)
	}
	for i := 0; i < nPoints; i++ {
		for j := 0; j < nCols; j++ {
			v, err := cellFloat(sheet, spec.DataRow+i, spec.DataStartCol+j)
			if err != nil {
				return nil, fmt.Errorf("row %d column %s: %w", spec.DataRow+i, headers[j], err)
			}
			data[j][i] = v
		}
	}

	uncert := make([][]float64, nCols)
	for j := range uncert {
		uncert[j] = make([]float64, nPoints)
	}
	var covariance [][][]float64 // covariance[point][j][k]

	if spec.HasUncertainty {
		nUncertRows, err := countPopulatedRows(sheet, spec.DataRow, spec.UncertaintyCol, nCols)
		if err != nil {
			return nil, err
		}
		switch nUncertRows {
		case nPoints:
			for i := 0; i < nPoints; i++ {
				for j := 0; j < nCols; j++ {
					v, err := cellFloat(sheet, spec.DataRow+i, spec.UncertaintyCol+j)
					if err != nil {
						return nil, fmt.Errorf("uncertainty row %d column %s: %w", spec.DataRow+i, headers[j], err)
					}
					uncert[j][i] = v
				}
			}
		case nPoints * nCols:
			covariance = make([][][]float64, nPoints)
			for i := 0; i < nPoints; i++ {
				block := make([][]float64, nCols)
				for j := 0; j < nCols; j++ {
					block[j] = make([]float64, nCols)
					for k := 0; k < nCols; k++ {
						v, err := cellFloat(sheet, spec.DataRow+i*nCols+j, spec.UncertaintyCol+k)
						if err != nil {
							return nil, fmt.Errorf("covariance block at point %d: %w", i, err)
						}
						block[j][k] = v
					}
				}
				covariance[i] = block
				for j := 0; j < nCols; j++ {
					// the diagonal holds each column's variance
					uncert[j][i] = math.Sqrt(block[j][j])
				}
			}
		default:
			return nil, fmt.Errorf("%w: got %d rows for %d data points", ErrRaggedUncertainty, nUncertRows, nPoints)
		}
	}

	table := make(Table, nCols)
	values := make([]*measure.Value, nCols)
	for j := 0; j < nCols; j++ {
		v, err := measure.New(data[j], units[j], uncert[j])
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", headers[j], err)
		}
		values[j] = v
		table[headers[j]] = v
	}

	if covariance != nil {
		for i := 0; i < nPoints; i++ {
			for j := 0; j < nCols; j++ {
				for k := j + 1; k < nCols; k++ {
					cov := covariance[i][j][k]
					if cov == 0 {
						continue
					}
					vj, errJ := values[j].At(i)
					vk, errK := values[k].At(i)
					if errJ != nil || errK != nil {
						continue
					}
					if err := measure.RegisterCovariance(vj, vk, cov); err != nil {
						return nil, fmt.Errorf("registering covariance at point %d between %s and %s: %w", i, headers[j], headers[k], err)
					}
				}
			}
		}
	}

	return table, nil
}

// deduplicateHeaders appends a numeric suffix to any header that
// repeats an earlier one, so every column name in a table is unique.
func deduplicateHeaders(headers []string) {
	seen := map[string]int{}
	for i, h := range headers {
		seen[h]++
		if n := seen[h]; n > 1 {
			headers[i] = fmt.Sprintf("%s_%d", h, n)
		}
	}
}

// countPopulatedRows counts how many consecutive rows starting at
// startRow have a non-empty value in every one of the nCols columns
// starting at startCol, and requires that count to be consistent
// across all of them.
func countPopulatedRows(sheet *xlsx.Sheet, startRow, startCol, nCols int) (int, error) {
	counts := make([]int, nCols)
	for j := 0; j < nCols; j++ {
		r := startRow
		for strings.TrimSpace(sheet.Cell(r, startCol+j).Value) != "" {
			r++
		}
		counts[j] = r - startRow
	}
	for _, c := range counts {
		if c != counts[0] {
			return 0, ErrRaggedColumn
		}
	}
	return counts[0], nil
}

func cellFloat(sheet *xlsx.Sheet, row, col int) (float64, error) {
	s := strings.TrimSpace(sheet.Cell(row, col).Value)
	if s == "" || s == "..." {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}
