// Copyright © 2026 the measure authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package measure

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// significantRound rounds value and uncert to the decimal place of
// uncert's leading significant digit, e.g. value=3.14159, uncert=0.02
// rounds to (3.14, 0.02).
func significantRound(value, uncert float64) (roundedValue, roundedUncert float64, decimals int) {
	if uncert == 0 || math.IsNaN(uncert) || math.IsInf(uncert, 0) {
		return value, 0, -1
	}
	exp := int(math.Floor(math.Log10(math.Abs(uncert))))
	if exp > 0 {
		scale := math.Pow(10, float64(exp))
		return math.Round(value/scale) * scale, math.Round(uncert/scale) * scale, 0
	}
	decimals = -exp
	factor := math.Pow(10, float64(decimals))
	roundedValue = math.Round(value*factor) / factor
	roundedUncert = math.Round(uncert*factor) / factor
	return roundedValue, roundedUncert, decimals
}

// String renders v as "value ± uncertainty unit", with each
// uncertainty's leading significant digit fixing the number of decimals
// shown, per the convention of variable.py's printUncertanty.
func (v *Value) String() string {
	parts := make([]string, len(v.elems))
	for i, e := range v.elems {
		u := uncertaintyOf(e)
		rv, ru, dec := significantRound(e.magnitude, u)
		if dec < 0 {
			parts[i] = strconv.FormatFloat(rv, 'g', 3, 64)
		} else {
			parts[i] = fmt.Sprintf("%.*f ± %.*f", dec, rv, dec, ru)
		}
	}
	body := strings.Join(parts, ", ")
	if len(parts) > 1 {
		body = "[" + body + "]"
	}
	if v.unit.IsDimensionless() {
		return body
	}
	return body + " [" + v.unit.String() + "]"
}
