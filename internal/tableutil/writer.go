// Package tableutil renders aligned tables for CLI output.
package tableutil

import (
	"fmt"
	"io"
	"strings"

	"github.com/liggitt/tabwriter"
)

// New creates a tabwriter with RepoMirror's default spacing settings.
func New(out io.Writer, stripEscape bool) *tabwriter.Writer {
	var flags uint
	if stripEscape {
		flags = tabwriter.StripEscape
	}
	return tabwriter.NewWriter(out, 0, 4, 2, ' ', flags)
}

// PrintHeaders writes a tab-separated header row unless disabled.
func PrintHeaders(w io.Writer, noHeaders bool, headers ...string) error {
	if noHeaders {
		return nil
	}
	return PrintRow(w, headers...)
}

// PrintRow writes one tab-separated row. Empty cells are shown as "-".
func PrintRow(w io.Writer, cells ...string) error {
	out := make([]string, len(cells))
	for i, cell := range cells {
		if strings.TrimSpace(cell) == "" {
			cell = "-"
		}
		out[i] = cell
	}
	_, err := fmt.Fprintln(w, strings.Join(out, "\t"))
	return err
}

// FormatBytes renders a byte count with a binary unit suffix.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
