// SPDX-License-Identifier: MIT
// Package strutil holds small string helpers shared by the CLI and scripts.
package strutil

import "strings"

// SplitCSV splits a comma-separated list, trimming spaces and dropping empty
// items.
func SplitCSV(in string) []string {
	parts := strings.Split(in, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

// SplitCSVAll applies SplitCSV to every value, so repeated flags and
// comma-separated flags can be mixed.
func SplitCSVAll(values []string) []string {
	var out []string
	for _, v := range values {
		out = append(out, SplitCSV(v)...)
	}
	return out
}
