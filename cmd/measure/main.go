// Copyright © 2026 the measure authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command measure is a command-line interface for the measure value,
// unit, fitting and solving library.
package main

import (
	"github.com/scimeasure/measure/cliutil"
)

func main() {
	cfg := cliutil.InitializeConfig()
	cliutil.Execute(cfg)
}
