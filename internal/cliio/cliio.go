// Package cliio holds small interactive helpers shared by CLI commands.
package cliio

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/skaphos/repomirror/internal/tableutil"
)

// PromptYesNo writes prompt and reads a yes/no response from input.
func PromptYesNo(out io.Writer, in io.Reader, prompt string) (bool, error) {
	if _, err := fmt.Fprint(out, prompt); err != nil {
		return false, err
	}
	reader := bufio.NewReader(in)
	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	choice := strings.ToLower(strings.TrimSpace(line))
	return choice == "y" || choice == "yes", nil
}

// Confirm skips the prompt when assumeYes is set.
func Confirm(out io.Writer, in io.Reader, assumeYes bool, format string, args ...any) (bool, error) {
	if assumeYes {
		return true, nil
	}
	return PromptYesNo(out, in, fmt.Sprintf(format, args...)+" [y/N]: ")
}

// WriteTable renders a tab-separated table with optional headers.
func WriteTable(out io.Writer, stripEscape bool, noHeaders bool, headers []string, rows [][]string) error {
	w := tableutil.New(out, stripEscape)
	if err := tableutil.PrintHeaders(w, noHeaders, headers...); err != nil {
		return err
	}
	for _, row := range rows {
		if err := tableutil.PrintRow(w, row...); err != nil {
			return err
		}
	}
	return w.Flush()
}
