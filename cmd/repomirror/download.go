// SPDX-License-Identifier: MIT
package repomirror

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"sync"

	"github.com/spf13/cobra"

	"github.com/skaphos/repomirror/internal/cliio"
	"github.com/skaphos/repomirror/internal/mirror"
	"github.com/skaphos/repomirror/internal/model"
	"github.com/skaphos/repomirror/internal/registry"
	"github.com/skaphos/repomirror/internal/sortutil"
	"github.com/skaphos/repomirror/internal/tableutil"
	"github.com/skaphos/repomirror/internal/termstyle"
)

// downloadOutcome is the result of one repository download.
type downloadOutcome struct {
	name    string
	summary *model.Summary
	err     error
}

var downloadCmd = &cobra.Command{
	Use:   "download <name>...",
	Short: "Mirror the file tree of one or more repositories",
	Long:  "Discovers the targets of each repository, resolves the requested target and mirrors its file tree. Repositories are downloaded concurrently. Interrupting the command cancels active jobs; files already in flight are still written.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := loadSession()
		if err != nil {
			return err
		}
		target, _ := cmd.Flags().GetString("target")
		if cmd.Flags().Changed("prefer-unstable") {
			sess.cfg.PreferUnstable, _ = cmd.Flags().GetBool("prefer-unstable")
		}
		noHeaders, _ := cmd.Flags().GetBool("no-headers")

		eng, err := sess.newEngine(cmd)
		if err != nil {
			return err
		}
		setColorOutputMode(cmd)

		done := make(chan struct{})
		defer close(done)
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, os.Interrupt)
		defer signal.Stop(sigs)
		go func() {
			select {
			case <-sigs:
				n := eng.Jobs().CancelAll()
				infof(cmd, "interrupted: cancelling %d job(s)", n)
			case <-done:
			}
		}()

		var (
			failedMu sync.Mutex
			failed   []model.FileResult
		)
		printFile := newFilePrinter(cmd)
		onFile := func(r model.FileResult) {
			printFile(r)
			if !r.OK() {
				failedMu.Lock()
				failed = append(failed, r)
				failedMu.Unlock()
			}
		}
		outcomes := runDownloads(commandContext(cmd), eng, uniqueNames(args), target, onFile)
		for _, o := range outcomes {
			switch {
			case o.err != nil:
				raiseExitCode(2)
			case o.summary.Cancelled || o.summary.Failed > 0:
				raiseExitCode(1)
			}
		}
		if err := writeDownloadTable(cmd, outcomes, noHeaders); err != nil {
			return err
		}
		writeFailures(cmd, failed)
		return nil
	},
}

// runDownloads runs one job per repository concurrently and returns the
// outcomes in input order.
func runDownloads(ctx context.Context, eng *mirror.Engine, names []string, target string, onFile func(model.FileResult)) []downloadOutcome {
	out := make([]downloadOutcome, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			summary, err := eng.Download(ctx, name, target, mirror.Callbacks{OnFile: onFile})
			out[i] = downloadOutcome{name: name, summary: summary, err: err}
		}(i, name)
	}
	wg.Wait()
	return out
}

// newFilePrinter returns a callback printing one line per file. Jobs run
// concurrently, so writes are serialized.
func newFilePrinter(cmd *cobra.Command) func(model.FileResult) {
	var mu sync.Mutex
	return func(r model.FileResult) {
		if flagQuiet && r.OK() {
			return
		}
		status := strconv.Itoa(r.StatusCode)
		if r.StatusCode == 0 {
			status = "ERR"
		}
		status = termstyle.Colorize(colorOutputEnabled, status, termstyle.ForStatus(r.StatusCode))
		mu.Lock()
		defer mu.Unlock()
		if r.OK() {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s -> %s\n", status, r.Repository, r.Path, r.LocalPath)
			return
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s (%s)\n", status, r.Repository, r.Path, r.ErrorClass)
		debugf(cmd, "  %s", r.Error)
	}
}

func writeDownloadTable(cmd *cobra.Command, outcomes []downloadOutcome, noHeaders bool) error {
	rows := make([][]string, 0, len(outcomes))
	for _, o := range outcomes {
		if o.err != nil {
			rows = append(rows, []string{o.name, "", "", "", "", "", termstyle.Colorize(colorOutputEnabled, "error", termstyle.Error), o.err.Error()})
			continue
		}
		s := o.summary
		state := termstyle.Colorize(colorOutputEnabled, "done", termstyle.Written)
		switch {
		case s.Cancelled:
			state = termstyle.Colorize(colorOutputEnabled, "cancelled", termstyle.Cancelled)
		case s.Failed > 0:
			state = termstyle.Colorize(colorOutputEnabled, "partial", termstyle.Warn)
		}
		rows = append(rows, []string{
			s.Repository,
			s.Target,
			strconv.Itoa(s.Directories),
			strconv.Itoa(s.Files),
			strconv.Itoa(s.Failed),
			tableutil.FormatBytes(s.Bytes),
			state,
			"",
		})
	}
	headers := []string{"REPOSITORY", "TARGET", "DIRS", "FILES", "FAILED", "SIZE", "STATE", "ERROR"}
	return cliio.WriteTable(cmd.OutOrStdout(), colorOutputEnabled, noHeaders, headers, rows)
}

// writeFailures lists failed files after the summary, in a stable order.
func writeFailures(cmd *cobra.Command, failed []model.FileResult) {
	if len(failed) == 0 {
		return
	}
	sortutil.SortFileResults(failed)
	infof(cmd, "%d file(s) failed:", len(failed))
	for _, r := range failed {
		infof(cmd, "  %s %s: %s", r.Repository, r.Path, r.Error)
	}
}

func uniqueNames(args []string) []string {
	seen := make(map[string]struct{}, len(args))
	out := make([]string, 0, len(args))
	for _, arg := range args {
		name := registry.NormalizeName(arg)
		if _, ok := seen[name]; ok || name == "" {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func init() {
	downloadCmd.Flags().StringP("target", "t", "", targetUsage)
	downloadCmd.Flags().Bool("prefer-unstable", false, "use each repository's default branch when no target is given")
	addNoHeadersFlag(downloadCmd)

	rootCmd.AddCommand(downloadCmd)
}
