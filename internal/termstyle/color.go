// SPDX-License-Identifier: MIT
package termstyle

import (
	"net/http"

	"github.com/liggitt/tabwriter"
)

const (
	Reset = "\x1b[0m"
	Green = "\x1b[32m"
	Brown = "\x1b[33m"
	Red   = "\x1b[31m"
	Blue  = "\x1b[34m"

	// Semantic aliases used by download and summary output.
	Written   = Green
	Warn      = Brown
	Error     = Red
	Info      = Blue
	Cancelled = Brown
)

// Colorize wraps a value in ANSI escapes when color output is enabled.
func Colorize(enabled bool, value, color string) string {
	if !enabled || value == "" || color == "" {
		return value
	}
	// Hide ANSI sequences from tabwriter width calculations so columns align.
	esc := string([]byte{tabwriter.Escape})
	return esc + color + esc + value + esc + Reset + esc
}

// ForStatus picks the color for an HTTP status code. Zero means the request
// never got a response.
func ForStatus(status int) string {
	switch {
	case status == http.StatusOK:
		return Written
	case status == 0, status >= 500:
		return Error
	default:
		return Warn
	}
}
