// Copyright © 2026 the measure authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fluidprop

import "math"

// Water is a single-component backend (temperature and pressure only),
// the idiom prop.py calls a HEOS fluid.
func Water() Fluid {
	return Fluid{
		Name: "water",
		Properties: map[string]Property{
			"density": {
				Name: "density",
				Unit: "kg/m3",
				Args: []ArgSpec{{Name: "T", Unit: "K"}, {Name: "P", Unit: "Pa"}},
				Call: func(args map[string]float64) (float64, error) {
					t := args["T"]
					// liquid water's density falls roughly quadratically
					// with temperature away from its ~4 C maximum, with a
					// small pressure-compressibility correction.
					tC := t - 273.15
					rho := 1000 - 0.007*math.Pow(tC-4, 2)
					rho += (args["P"] - 101325) * 4.5e-10 * 1000
					return rho, nil
				},
			},
			"specificHeat": {
				Name: "specificHeat",
				Unit: "J/kg-K",
				Args: []ArgSpec{{Name: "T", Unit: "K"}, {Name: "P", Unit: "Pa"}},
				Call: func(args map[string]float64) (float64, error) {
					tC := args["T"] - 273.15
					return 4217.4 - 3.720283*tC + 0.1412855*tC*tC, nil
				},
			},
			"viscosity": {
				Name: "viscosity",
				Unit: "Pa-s",
				Args: []ArgSpec{{Name: "T", Unit: "K"}},
				Call: func(args map[string]float64) (float64, error) {
					t := args["T"]
					// Vogel-Fulcher-Tammann-style fit, loosely.
					return 2.414e-5 * math.Pow(10, 247.8/(t-140)), nil
				},
			},
		},
	}
}

// Air is a single-component backend modeled as an ideal gas.
func Air() Fluid {
	const rSpecific = 287.05 // J/(kg*K)
	return Fluid{
		Name: "air",
		Properties: map[string]Property{
			"density": {
				Name: "density",
				Unit: "kg/m3",
				Args: []ArgSpec{{Name: "T", Unit: "K"}, {Name: "P", Unit: "Pa"}},
				Call: func(args map[string]float64) (float64, error) {
					return args["P"] / (rSpecific * args["T"]), nil
				},
			},
			"viscosity": {
				Name: "viscosity",
				Unit: "Pa-s",
				Args: []ArgSpec{{Name: "T", Unit: "K"}},
				Call: func(args map[string]float64) (float64, error) {
					// Sutherland's law.
					const c, t0, mu0 = 120, 291.15, 1.827e-5
					t := args["T"]
					return mu0 * (t0 + c) / (t + c) * math.Pow(t/t0, 1.5), nil
				},
			},
		},
	}
}

// MEG is ethylene-glycol/water mixture, an incompressible-correlation
// ("INCOMP") backend that additionally takes a mass concentration C.
func MEG() Fluid {
	return Fluid{
		Name: "MEG",
		Properties: map[string]Property{
			"density": {
				Name: "density",
				Unit: "kg/m3",
				Args: []ArgSpec{{Name: "T", Unit: "K"}, {Name: "P", Unit: "Pa"}, {Name: "C", Unit: "1"}},
				Call: func(args map[string]float64) (float64, error) {
					tC := args["T"] - 273.15
					c := args["C"]
					rhoWater := 1000 - 0.0178*math.Pow(tC-4, 2)
					rhoGlycol := 1132 - 0.84*tC
					return rhoWater*(1-c) + rhoGlycol*c, nil
				},
			},
			"viscosity": {
				Name: "viscosity",
				Unit: "Pa-s",
				Args: []ArgSpec{{Name: "T", Unit: "K"}, {Name: "C", Unit: "1"}},
				Call: func(args map[string]float64) (float64, error) {
					t := args["T"]
					c := args["C"]
					base := 2.414e-5 * math.Pow(10, 247.8/(t-140))
					return base * math.Exp(3*c), nil
				},
			},
		},
	}
}
