// Copyright © 2026 the measure authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cliutil

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/scimeasure/measure"
	"github.com/scimeasure/measure/fit"
	"github.com/scimeasure/measure/fluidprop"
	"github.com/scimeasure/measure/ingest"
)

func runConvert(cmd *cobra.Command, args []string, uncert float64) error {
	magnitude, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("cliutil: parsing value %q: %w", args[0], err)
	}
	v, err := measure.NewScalar(magnitude, args[1], uncert)
	if err != nil {
		return err
	}
	converted, err := v.Convert(args[2])
	if err != nil {
		return err
	}
	cmd.Println(converted.String())
	return nil
}

// modelByName resolves a CLI model name to a fit.Model and a
// reasonable starting guess for its parameters.
func modelByName(name string) (*fit.Model, []float64, error) {
	switch name {
	case "constant":
		return fit.Constant(), []float64{0}, nil
	case "linear":
		return fit.Polynomial([]bool{true, true}), []float64{0, 1}, nil
	case "quadratic":
		return fit.Polynomial([]bool{true, true, true}), []float64{0, 1, 0}, nil
	case "power":
		return fit.Power(), []float64{1, 1}, nil
	case "exponential":
		return fit.Exponential(), []float64{1, 1.1}, nil
	case "logistic":
		return fit.Logistic(), []float64{1, 1, 0}, nil
	default:
		return nil, nil, fmt.Errorf("cliutil: unknown fit model %q", name)
	}
}

func runFit(cmd *cobra.Command, workbookPath, specPath, modelName string) error {
	sf, specs, err := loadSpecFile(specPath)
	if err != nil {
		return err
	}
	wb, err := ingest.Read(workbookPath, specs)
	if err != nil {
		return err
	}
	xTable, ok := wb[sf.FitX.Table]
	if !ok {
		return fmt.Errorf("cliutil: fit_x names unknown table %q", sf.FitX.Table)
	}
	yTable, ok := wb[sf.FitY.Table]
	if !ok {
		return fmt.Errorf("cliutil: fit_y names unknown table %q", sf.FitY.Table)
	}
	x, ok := xTable[sf.FitX.Column]
	if !ok {
		return fmt.Errorf("cliutil: fit_x names unknown column %q", sf.FitX.Column)
	}
	y, ok := yTable[sf.FitY.Column]
	if !ok {
		return fmt.Errorf("cliutil: fit_y names unknown column %q", sf.FitY.Column)
	}

	model, p0, err := modelByName(modelName)
	if err != nil {
		return err
	}
	result, err := fit.Fit(model, x, y, p0)
	if err != nil {
		return err
	}
	for i, p := range result.Params {
		cmd.Printf("beta[%d] = %s\n", i, p.String())
	}
	cmd.Printf("R^2 = %.6f\n", result.RSquared)
	return nil
}

func runIngest(cmd *cobra.Command, workbookPath, specPath string) error {
	_, specs, err := loadSpecFile(specPath)
	if err != nil {
		return err
	}
	wb, err := ingest.Read(workbookPath, specs)
	if err != nil {
		return err
	}
	for tableName, table := range wb {
		for colName, v := range table {
			cmd.Printf("%s.%s = %s\n", tableName, colName, v.String())
		}
	}
	return nil
}

// parseArg parses one --arg flag of the form "name=value,unit".
func parseArg(raw string) (name string, v *measure.Value, err error) {
	eq := strings.SplitN(raw, "=", 2)
	if len(eq) != 2 {
		return "", nil, fmt.Errorf("cliutil: malformed --arg %q, want name=value,unit", raw)
	}
	name = eq[0]
	parts := strings.SplitN(eq[1], ",", 2)
	if len(parts) != 2 {
		return "", nil, fmt.Errorf("cliutil: malformed --arg %q, want name=value,unit", raw)
	}
	mag, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return "", nil, fmt.Errorf("cliutil: parsing --arg %q value: %w", raw, err)
	}
	v, err = measure.NewScalar(mag, parts[1], 0)
	if err != nil {
		return "", nil, err
	}
	return name, v, nil
}

func runFluid(cmd *cobra.Command, fluidName, propName string, rawArgs []string) error {
	reg := fluidprop.NewRegistry(fluidprop.Water(), fluidprop.Air(), fluidprop.MEG())
	inputs := make(map[string]*measure.Value, len(rawArgs))
	for _, raw := range rawArgs {
		name, v, err := parseArg(raw)
		if err != nil {
			return err
		}
		inputs[name] = v
	}
	result, err := reg.Evaluate(fluidName, propName, inputs)
	if err != nil {
		return err
	}
	cmd.Println(result.String())
	return nil
}
