// Copyright © 2026 the measure authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ingest

import "testing"

func TestSanitizeHeader(t *testing.T) {
	cases := map[string]string{
		"Inlet Temp (C)": "inlet_temp_c",
		"  flow rate  ":  "flow_rate",
		"3rd Column":     "_3rd_column",
		"":                "",
		"a/b":             "a_b",
	}
	for in, want := range cases {
		if got := sanitizeHeader(in); got != want {
			t.Errorf("sanitizeHeader(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDeduplicateHeaders(t *testing.T) {
	headers := []string{"t", "p", "t", "t"}
	deduplicateHeaders(headers)
	want := []string{"t", "p", "t_2", "t_3"}
	for i := range want {
		if headers[i] != want[i] {
			t.Errorf("headers[%d] = %q, want %q", i, headers[i], want[i])
		}
	}
}
